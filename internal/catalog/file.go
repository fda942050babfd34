package catalog

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/spigell/interview-screener/internal/interview"
)

// Entry is the on-disk and stored representation of one question.
type Entry struct {
	Section  string `yaml:"section" bson:"section"`
	Question string `yaml:"question" bson:"question"`
	FollowUp string `yaml:"follow_up,omitempty" bson:"follow_up,omitempty"`
}

type file struct {
	Questions []Entry `yaml:"questions"`
}

// LoadFile reads a YAML question list. Questions are numbered 1..n in file order.
func LoadFile(path string) (*interview.Catalog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading catalog file %s: %w", path, err)
	}

	return Parse(data)
}

// Parse decodes a YAML question list.
func Parse(data []byte) (*interview.Catalog, error) {
	var f file
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parsing catalog yaml: %w", err)
	}

	return FromEntries(f.Questions, true)
}

// FromEntries numbers the entries and validates them. When strict is false an
// unknown or empty section falls back to the technical section.
func FromEntries(entries []Entry, strict bool) (*interview.Catalog, error) {
	questions := make([]interview.Question, 0, len(entries))

	for i, e := range entries {
		text := strings.TrimSpace(e.Question)
		if text == "" {
			return nil, fmt.Errorf("question %d has no text", i+1)
		}

		section, ok := interview.ParseSection(e.Section)
		if !ok {
			if strict {
				return nil, fmt.Errorf("question %d has unknown section %q", i+1, e.Section)
			}
			section = interview.SectionTechnical
		}

		questions = append(questions, interview.Question{
			ID:       i + 1,
			Section:  section,
			Text:     text,
			FollowUp: strings.TrimSpace(e.FollowUp),
		})
	}

	return interview.NewCatalog(questions)
}
