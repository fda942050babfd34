package secrets

import (
	"errors"
	"fmt"
	"os"
	"strings"
)

// ErrNotConfigured is returned when no source provides the secret.
var ErrNotConfigured = errors.New("not configured")

// Source describes where a secret may come from. File wins over Value, and
// Value wins over Env.
type Source struct {
	// Name is used in error messages to give more context about the secret.
	Name string
	// File points to a file containing the secret, e.g. a mounted docker secret.
	File string
	// Value is an inline secret value provided via configuration.
	Value string
	// Env names an environment variable holding the secret itself.
	Env string
}

// Configured reports whether any source is set, without reading it.
func (s Source) Configured() bool {
	if strings.TrimSpace(s.File) != "" || strings.TrimSpace(s.Value) != "" {
		return true
	}
	env := strings.TrimSpace(s.Env)
	return env != "" && strings.TrimSpace(os.Getenv(env)) != ""
}

// Load resolves the secret and trims surrounding whitespace. An empty file is
// an error; a missing source wraps ErrNotConfigured.
func Load(src Source) (string, error) {
	name := strings.TrimSpace(src.Name)
	if name == "" {
		name = "secret"
	}

	if file := strings.TrimSpace(src.File); file != "" {
		data, err := os.ReadFile(file)
		if err != nil {
			return "", fmt.Errorf("reading %s from file %q: %w", name, file, err)
		}

		secret := strings.TrimSpace(string(data))
		if secret == "" {
			return "", fmt.Errorf("%s file %q is empty", name, file)
		}
		return secret, nil
	}

	if secret := strings.TrimSpace(src.Value); secret != "" {
		return secret, nil
	}

	if env := strings.TrimSpace(src.Env); env != "" {
		if secret := strings.TrimSpace(os.Getenv(env)); secret != "" {
			return secret, nil
		}
	}

	return "", fmt.Errorf("%s is %w", name, ErrNotConfigured)
}
