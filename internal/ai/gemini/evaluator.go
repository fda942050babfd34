package gemini

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strings"
	"unicode/utf8"

	_ "embed"

	"github.com/mitchellh/mapstructure"
	"go.uber.org/zap"

	"github.com/spigell/interview-screener/internal/interview"
	"github.com/spigell/interview-screener/internal/logger"
	"github.com/spigell/interview-screener/internal/utils"
)

const (
	providerName        = "gemini"
	defaultMaxLogLength = 200

	maxScore    = 100
	maxSubScore = 25
)

type contentGenerator interface {
	GenerateContent(ctx context.Context, prompt string) (string, error)
	Model() string
}

//go:embed prompt.md
var promptTemplate string

// Evaluator scores interview answers with a Gemini model.
type Evaluator struct {
	generator contentGenerator
	logger    *zap.Logger
	maxLogLen int
}

func NewEvaluator(generator contentGenerator, maxLogLength int, log *zap.Logger) *Evaluator {
	if maxLogLength <= 0 {
		maxLogLength = defaultMaxLogLength
	}

	return &Evaluator{
		generator: generator,
		logger:    logger.WithAI(log, providerName, generator.Model()),
		maxLogLen: maxLogLength,
	}
}

// Evaluate asks the model to score answer. A malformed model response yields
// the fallback evaluation; a failed model call is reported as
// *interview.EvaluationError so the caller can decide how to continue.
func (e *Evaluator) Evaluate(ctx context.Context, question interview.Question, answer string) (interview.AnswerEvaluation, error) {
	prompt := buildPrompt(question.Text, answer)

	e.logger.Debug("gemini generate content request",
		zap.Int("question_id", question.ID),
		zap.Int("prompt_length", utf8.RuneCountInString(prompt)),
		zap.String("prompt_preview", utils.TruncateForLog(prompt, e.maxLogLen)),
	)

	raw, err := e.generator.GenerateContent(ctx, prompt)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return interview.AnswerEvaluation{}, ctxErr
		}
		return interview.AnswerEvaluation{}, &interview.EvaluationError{QuestionID: question.ID, Err: err}
	}

	e.logger.Debug("gemini generate content response",
		zap.Int("question_id", question.ID),
		zap.Int("response_length", utf8.RuneCountInString(raw)),
		zap.String("response_preview", utils.TruncateForLog(raw, e.maxLogLen)),
	)

	verdict, err := parseResponse(raw)
	if err != nil {
		e.logger.Warn("unusable gemini response, using fallback result",
			zap.Int("question_id", question.ID),
			zap.String("response_preview", utils.TruncateForLog(raw, e.maxLogLen)),
			zap.Error(err),
		)
		return interview.FallbackEvaluation(question, answer), nil
	}

	evaluation := interview.EnforceIntegrity(interview.AnswerEvaluation{
		QuestionID:        question.ID,
		Question:          question.Text,
		Answer:            answer,
		Score:             int(math.Round(verdict.Score)),
		Feedback:          strings.TrimSpace(verdict.Feedback),
		TechnicalAccuracy: verdict.TechnicalAccuracy,
		ProblemSolving:    verdict.ProblemSolving,
		Communication:     verdict.Communication,
		Documentation:     verdict.Documentation,
		AIDetected:        verdict.AIDetected,
	})

	if evaluation.AIDetected {
		e.logger.Info("answer flagged as AI-generated",
			zap.Int("question_id", question.ID),
			zap.Float64("model_score", verdict.Score),
		)
	}

	return evaluation, nil
}

// modelVerdict is the JSON object the prompt asks the model to return.
type modelVerdict struct {
	Score             float64 `mapstructure:"score"`
	TechnicalAccuracy float64 `mapstructure:"technicalAccuracy"`
	ProblemSolving    float64 `mapstructure:"problemSolving"`
	Communication     float64 `mapstructure:"communication"`
	Documentation     float64 `mapstructure:"documentation"`
	AIDetected        bool    `mapstructure:"aiDetected"`
	Feedback          string  `mapstructure:"feedback"`
}

func buildPrompt(question, answer string) string {
	template := promptTemplate
	if strings.TrimSpace(template) == "" {
		template = "Question: {{QUESTION}}\nCandidate Answer: {{ANSWER}}\n\nJSON Response:"
	}
	prompt := strings.ReplaceAll(template, "{{QUESTION}}", strings.TrimSpace(question))
	prompt = strings.ReplaceAll(prompt, "{{ANSWER}}", strings.TrimSpace(answer))
	return prompt
}

func parseResponse(raw string) (modelVerdict, error) {
	var verdict modelVerdict

	cleaned := extractJSON(raw)
	if cleaned == "" {
		return verdict, errors.New("empty response")
	}

	var data map[string]any
	if err := json.Unmarshal([]byte(cleaned), &data); err != nil {
		return verdict, fmt.Errorf("parse gemini response: %w", err)
	}

	// A flagged answer is zeroed whatever else the model returned, so the
	// remaining fields are not required to be usable.
	if flagged, ok := data["aiDetected"].(bool); ok && flagged {
		verdict.AIDetected = true
		verdict.Score, _ = data["score"].(float64)
		return verdict, nil
	}

	for key, value := range data {
		if value == nil {
			return verdict, fmt.Errorf("field %q is null", key)
		}
	}

	var meta mapstructure.Metadata
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Metadata: &meta,
		Result:   &verdict,
	})
	if err != nil {
		return verdict, fmt.Errorf("create decoder: %w", err)
	}

	if err := decoder.Decode(data); err != nil {
		return verdict, fmt.Errorf("decode gemini response: %w", err)
	}

	if len(meta.Unset) > 0 {
		return verdict, fmt.Errorf("missing fields: %s", strings.Join(meta.Unset, ", "))
	}

	if err := validateVerdict(verdict); err != nil {
		return verdict, err
	}

	return verdict, nil
}

func validateVerdict(v modelVerdict) error {
	if v.Score < 0 || v.Score > maxScore || math.IsNaN(v.Score) {
		return fmt.Errorf("score %v is outside of [0, %d]", v.Score, maxScore)
	}

	subScores := map[string]float64{
		"technicalAccuracy": v.TechnicalAccuracy,
		"problemSolving":    v.ProblemSolving,
		"communication":     v.Communication,
		"documentation":     v.Documentation,
	}
	for name, value := range subScores {
		if value < 0 || value > maxSubScore || math.IsNaN(value) {
			return fmt.Errorf("%s %v is outside of [0, %d]", name, value, maxSubScore)
		}
	}

	if strings.TrimSpace(v.Feedback) == "" {
		return errors.New("feedback is empty")
	}

	return nil
}

func extractJSON(raw string) string {
	raw = strings.TrimSpace(raw)
	if strings.HasPrefix(raw, "```") {
		raw = strings.TrimPrefix(raw, "```json")
		raw = strings.TrimPrefix(raw, "```")
		raw = strings.TrimSpace(raw)
		if idx := strings.LastIndex(raw, "```"); idx != -1 {
			raw = raw[:idx]
		}
	}
	raw = strings.Trim(raw, "`")
	return strings.TrimSpace(raw)
}
