package ai

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/spigell/interview-screener/internal/ai/gemini"
	"github.com/spigell/interview-screener/internal/interview"
)

const (
	ProviderGemini  = "gemini"
	ProviderOffline = "offline"
)

// Options selects and configures the answer evaluation backend.
type Options struct {
	Provider     string
	APIKey       string
	Model        string
	MaxRetries   int
	Timeout      time.Duration
	MaxLogLength int
}

// NewEvaluator builds the evaluator for the configured provider. An empty
// provider selects Gemini.
func NewEvaluator(ctx context.Context, opts Options, logger *zap.Logger) (interview.Evaluator, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	switch provider := strings.TrimSpace(strings.ToLower(opts.Provider)); provider {
	case "", ProviderGemini:
		genLogger := logger.With(zap.Int("ai_retry_attempts", opts.MaxRetries))

		generator, err := gemini.NewGenerator(ctx, opts.APIKey, opts.Model, opts.MaxRetries, opts.Timeout, genLogger)
		if err != nil {
			return nil, err
		}

		return gemini.NewEvaluator(generator, opts.MaxLogLength, logger), nil
	case ProviderOffline:
		logger.Warn("offline evaluator selected, every answer receives the neutral score")
		return Offline{}, nil
	default:
		return nil, fmt.Errorf("unsupported ai provider: %s", opts.Provider)
	}
}

// Offline scores every answer with the neutral fallback result. It lets the
// interview flow run without access to a model.
type Offline struct{}

func (Offline) Evaluate(ctx context.Context, question interview.Question, answer string) (interview.AnswerEvaluation, error) {
	if err := ctx.Err(); err != nil {
		return interview.AnswerEvaluation{}, err
	}
	return interview.FallbackEvaluation(question, answer), nil
}
