
package interview

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	logfields "github.com/spigell/interview-screener/internal/logger"
)

const (
	CompletedAcknowledgement = "Thank you! The interview has been completed. Please review your results above."
	completionMessage        = "**Interview Complete!**\n\nYou have answered all %d questions. Please see your detailed results below."
)

// ErrEmptyAnswer is returned when the submitted answer has no content.
var ErrEmptyAnswer = errors.New("answer must not be empty")

// EvaluationError reports a failed call to the upstream model service.
type EvaluationError struct {
	QuestionID int
	Err        error
}

func (e *EvaluationError) Error() string {
	return fmt.Sprintf("evaluating answer to question %d: %v", e.QuestionID, e.Err)
}

func (e *EvaluationError) Unwrap() error { return e.Err }

// Evaluator scores one answer. Malformed model output must be handled inside
// the evaluator; only upstream call failures are returned, as *EvaluationError.
type Evaluator interface {
	Evaluate(ctx context.Context, question Question, answer string) (AnswerEvaluation, error)
}

// Finalizer receives a session once it becomes complete. Implementations
// must not block on external delivery.
type Finalizer interface {
	Finalize(ctx context.Context, session Session)
}

// Reply is what the interviewer says back after a submission.
type Reply struct {
	Message      string            `json:"message"`
	NextQuestion *Question         `json:"next_question,omitempty"`
	Evaluation   *AnswerEvaluation `json:"evaluation,omitempty"`
	Complete     bool              `json:"complete"`
}

// Completes reports whether the submission behind r finished the session.
// The acknowledgement for an already complete session does not.
func (r Reply) Completes() bool {
	return r.Complete && r.Evaluation != nil
}

// Machine drives sessions through the catalog one question at a time.
type Machine struct {
	catalog   *Catalog
	evaluator Evaluator
	finalizer Finalizer
	logger    *zap.Logger
	now       func() time.Time
}

func NewMachine(catalog *Catalog, evaluator Evaluator, finalizer Finalizer, logger *zap.Logger) *Machine {
	if logger == nil {
		logger = zap.NewNop()
	}

	return &Machine{
		catalog:   catalog,
		evaluator: evaluator,
		finalizer: finalizer,
		logger:    logger,
		now:       time.Now,
	}
}

func (m *Machine) Catalog() *Catalog { return m.catalog }

// NewSession starts a session in the InProgress state. An empty candidate id
// is allowed: the session then completes without persistence.
func (m *Machine) NewSession(candidateID string) Session {
	return Session{
		ID:           uuid.NewString(),
		CandidateID:  strings.TrimSpace(candidateID),
		Answers:      []AnswerEvaluation{},
		OverallLevel: Level2,
		StartedAt:    m.now().UTC(),
	}
}

// CurrentQuestion returns the question awaiting an answer.
func (m *Machine) CurrentQuestion(s Session) (Question, bool) {
	if s.IsComplete {
		return Question{}, false
	}
	return m.catalog.At(s.CurrentQuestionIndex)
}

// Welcome renders the greeting that opens an interview.
func (m *Machine) Welcome() string {
	counts := m.catalog.SectionCounts()

	var b strings.Builder
	b.WriteString("Welcome to the Interactive AI Screening Interview for Level 1, Level 2, and Level 3 MSP Technicians!\n\n")
	b.WriteString("This structured interview will evaluate your technical proficiency, problem-solving skills, and professional experience. Please answer each question thoughtfully and clearly.\n\n")
	fmt.Fprintf(&b, "I'll ask you %d questions covering:\n", counts.Total)
	fmt.Fprintf(&b, "- %s (%d questions)\n", SectionTechnical, counts.Technical)
	fmt.Fprintf(&b, "- %s (%d questions)\n", SectionScenarioBased, counts.ScenarioBased)
	fmt.Fprintf(&b, "- %s (%d questions)\n\n", SectionBehavioral, counts.Behavioral)
	b.WriteString("Each answer will be evaluated and scored:\n")
	b.WriteString("- Score 80-100: Level 3 (Advanced expertise)\n")
	b.WriteString("- Score 40-79: Level 2 (Solid foundation)\n")
	b.WriteString("- Score 0-39: Level 1 (Basic understanding)\n\n")
	b.WriteString("Ready to begin?")

	if first, ok := m.catalog.At(0); ok {
		b.WriteString("\n\n")
		b.WriteString(questionPrompt(first))
	}

	return b.String()
}

// Submit evaluates answer against the current question and returns the next
// session value. The input session is never modified and no delivery is
// started; see Finalize. When the session was already complete the fixed
// acknowledgement is returned without evaluation.
func (m *Machine) Submit(ctx context.Context, s Session, answer string) (Session, Reply, error) {
	if s.IsComplete {
		return s, Reply{Message: CompletedAcknowledgement, Complete: true}, nil
	}

	answer = strings.TrimSpace(answer)
	if answer == "" {
		return s, Reply{}, ErrEmptyAnswer
	}

	question, ok := m.catalog.At(s.CurrentQuestionIndex)
	if !ok {
		return s, Reply{}, fmt.Errorf("question index %d is outside of the catalog (%d questions)", s.CurrentQuestionIndex, m.catalog.Len())
	}

	evaluation, err := m.evaluator.Evaluate(ctx, question, answer)
	if err != nil {
		var evalErr *EvaluationError
		if !errors.As(err, &evalErr) {
			return s, Reply{}, err
		}

		m.logger.Warn("evaluation failed, using fallback result",
			zap.String("session_id", s.ID),
			zap.Int("question_id", question.ID),
			zap.Error(err),
		)
		evaluation = FallbackEvaluation(question, answer)
	}

	next := s
	next.Answers = make([]AnswerEvaluation, len(s.Answers), len(s.Answers)+1)
	copy(next.Answers, s.Answers)
	next.Answers = append(next.Answers, evaluation)
	next.CurrentQuestionIndex = s.CurrentQuestionIndex + 1

	reply := Reply{Evaluation: &evaluation}

	if next.CurrentQuestionIndex < m.catalog.Len() {
		upcoming, _ := m.catalog.At(next.CurrentQuestionIndex)
		reply.NextQuestion = &upcoming
		reply.Message = questionPrompt(upcoming)
		return next, reply, nil
	}

	next.IsComplete = true
	next.AverageScore, next.OverallLevel = CalculateOverallResults(next.Answers)
	completedAt := m.now().UTC()
	next.CompletedAt = &completedAt

	reply.Complete = true
	reply.Message = fmt.Sprintf(completionMessage, m.catalog.Len())

	m.logger.Info("interview completed", append(logfields.SessionFields(next.ID, next.CandidateID),
		zap.Float64("average_score", next.AverageScore),
		zap.String("overall_level", string(next.OverallLevel)),
	)...)

	return next, reply, nil
}

// Finalize hands a completed session to the finalizer. Callers invoke it once,
// after the completed session has been stored, for the submission whose reply
// Completes. Incomplete sessions are ignored.
func (m *Machine) Finalize(ctx context.Context, s Session) {
	if !s.IsComplete || m.finalizer == nil {
		return
	}
	m.finalizer.Finalize(ctx, s)
}

// CalculateOverallResults averages the answer scores, rounded to one decimal,
// and maps the average to a level. No answers yields (0, Level 2).
func CalculateOverallResults(answers []AnswerEvaluation) (float64, Level) {
	if len(answers) == 0 {
		return 0, Level2
	}

	total := 0
	for _, a := range answers {
		total += a.Score
	}

	average := math.Round(float64(total)/float64(len(answers))*10) / 10
	return average, LevelOf(average)
}

func questionPrompt(q Question) string {
	return fmt.Sprintf("**Question %d:** %s", q.ID, q.Text)
}
