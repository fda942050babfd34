package interview

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

type stubEvaluator struct {
	scores map[int]int
	errs   map[int]error
	calls  int
}

func (s *stubEvaluator) Evaluate(_ context.Context, q Question, answer string) (AnswerEvaluation, error) {
	s.calls++
	if err, ok := s.errs[q.ID]; ok {
		return AnswerEvaluation{}, err
	}

	score := 85
	if v, ok := s.scores[q.ID]; ok {
		score = v
	}

	return AnswerEvaluation{
		QuestionID:        q.ID,
		Question:          q.Text,
		Answer:            answer,
		Score:             score,
		Level:             LevelOf(float64(score)),
		Feedback:          "ok",
		TechnicalAccuracy: 21,
		ProblemSolving:    21,
		Communication:     21,
		Documentation:     22,
	}, nil
}

type recordingFinalizer struct {
	mu       sync.Mutex
	sessions []Session
}

func (r *recordingFinalizer) Finalize(_ context.Context, s Session) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sessions = append(r.sessions, s)
}

func testCatalog(t *testing.T, n int) *Catalog {
	t.Helper()

	questions := make([]Question, 0, n)
	for i := 1; i <= n; i++ {
		section := SectionTechnical
		if i > 6 {
			section = SectionScenarioBased
		}
		if i > 8 {
			section = SectionBehavioral
		}
		questions = append(questions, Question{ID: i, Section: section, Text: fmt.Sprintf("question %d", i)})
	}

	catalog, err := NewCatalog(questions)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	return catalog
}

func TestLevelOf(t *testing.T) {
	t.Parallel()

	tests := []struct {
		score  float64
		expect Level
	}{
		{score: 0, expect: Level1},
		{score: 39, expect: Level1},
		{score: 39.9, expect: Level1},
		{score: 40, expect: Level2},
		{score: 79, expect: Level2},
		{score: 79.9, expect: Level2},
		{score: 80, expect: Level3},
		{score: 100, expect: Level3},
	}

	for _, tt := range tests {
		t.Run(fmt.Sprintf("%v", tt.score), func(t *testing.T) {
			if got := LevelOf(tt.score); got != tt.expect {
				t.Fatalf("expected %s for %v, got %s", tt.expect, tt.score, got)
			}
		})
	}
}

func TestCalculateOverallResults(t *testing.T) {
	t.Parallel()

	avg, level := CalculateOverallResults(nil)
	if avg != 0 || level != Level2 {
		t.Fatalf("expected default (0, Level 2), got (%v, %s)", avg, level)
	}

	answers := []AnswerEvaluation{{Score: 80}, {Score: 79}, {Score: 80}}
	avg, level = CalculateOverallResults(answers)
	if avg != 79.7 {
		t.Fatalf("expected 79.7, got %v", avg)
	}
	if level != Level2 {
		t.Fatalf("expected Level 2, got %s", level)
	}

	avg, level = CalculateOverallResults([]AnswerEvaluation{{Score: 0}, {Score: 0}})
	if avg != 0 || level != Level1 {
		t.Fatalf("expected (0, Level 1), got (%v, %s)", avg, level)
	}
}

func TestMachineCompletesInterview(t *testing.T) {
	catalog := testCatalog(t, 10)
	evaluator := &stubEvaluator{}
	finalizer := &recordingFinalizer{}
	machine := NewMachine(catalog, evaluator, finalizer, zap.NewNop())

	session := machine.NewSession("cand-1")
	for i := 0; i < catalog.Len(); i++ {
		next, reply, err := machine.Submit(context.Background(), session, "my answer")
		if err != nil {
			t.Fatalf("unexpected error on question %d: %v", i+1, err)
		}
		if i < catalog.Len()-1 {
			if reply.Complete || reply.NextQuestion == nil {
				t.Fatalf("expected next question after answer %d", i+1)
			}
			want := fmt.Sprintf("**Question %d:** question %d", i+2, i+2)
			if reply.Message != want {
				t.Fatalf("unexpected prompt: %q", reply.Message)
			}
		}
		if len(session.Answers) != i {
			t.Fatalf("input session was modified")
		}
		session = next
	}

	if !session.IsComplete {
		t.Fatalf("expected session to be complete")
	}
	if len(finalizer.sessions) != 0 {
		t.Fatalf("expected Submit not to finalize, got %d calls", len(finalizer.sessions))
	}
	machine.Finalize(context.Background(), session)
	if session.AverageScore != 85.0 {
		t.Fatalf("expected average 85.0, got %v", session.AverageScore)
	}
	if session.OverallLevel != Level3 {
		t.Fatalf("expected Level 3, got %s", session.OverallLevel)
	}
	if session.CompletedAt == nil {
		t.Fatalf("expected completion time")
	}
	if len(finalizer.sessions) != 1 {
		t.Fatalf("expected finalizer to be called once, got %d", len(finalizer.sessions))
	}
	if finalizer.sessions[0].CandidateID != "cand-1" {
		t.Fatalf("unexpected candidate id: %q", finalizer.sessions[0].CandidateID)
	}
}

func TestMachineFallsBackOnEvaluationError(t *testing.T) {
	core, observed := observer.New(zapcore.WarnLevel)
	catalog := testCatalog(t, 10)
	evaluator := &stubEvaluator{errs: map[int]error{
		3: &EvaluationError{QuestionID: 3, Err: errors.New("upstream unavailable")},
	}}
	machine := NewMachine(catalog, evaluator, nil, zap.New(core))

	session := machine.NewSession("")
	var err error
	for i := 0; i < 3; i++ {
		session, _, err = machine.Submit(context.Background(), session, "answer")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	}

	if session.CurrentQuestionIndex != 3 {
		t.Fatalf("expected to advance to question 4, index is %d", session.CurrentQuestionIndex)
	}

	got := session.Answers[2]
	if got.Score != 50 || got.Level != Level2 || got.Feedback != FallbackFeedback {
		t.Fatalf("expected fallback evaluation, got %+v", got)
	}
	if got.TechnicalAccuracy != 12 || got.ProblemSolving != 12 || got.Communication != 13 || got.Documentation != 13 {
		t.Fatalf("unexpected fallback sub-scores: %+v", got)
	}
	if got.Question != "question 3" {
		t.Fatalf("expected question text from catalog, got %q", got.Question)
	}

	if observed.FilterMessage("evaluation failed, using fallback result").Len() != 1 {
		t.Fatalf("expected fallback warning to be logged")
	}
}

func TestMachineReturnsNonEvaluationErrors(t *testing.T) {
	catalog := testCatalog(t, 2)
	evaluator := &stubEvaluator{errs: map[int]error{1: context.Canceled}}
	machine := NewMachine(catalog, evaluator, nil, nil)

	session := machine.NewSession("cand")
	next, _, err := machine.Submit(context.Background(), session, "answer")
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
	if next.CurrentQuestionIndex != 0 || len(next.Answers) != 0 {
		t.Fatalf("expected no state change, got %+v", next)
	}
}

func TestMachineAcknowledgesAfterCompletion(t *testing.T) {
	catalog := testCatalog(t, 1)
	evaluator := &stubEvaluator{}
	finalizer := &recordingFinalizer{}
	machine := NewMachine(catalog, evaluator, finalizer, nil)

	session, reply, err := machine.Submit(context.Background(), machine.NewSession("cand"), "answer")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !reply.Complete || !reply.Completes() || !strings.Contains(reply.Message, "Interview Complete") {
		t.Fatalf("unexpected completion reply: %+v", reply)
	}
	machine.Finalize(context.Background(), session)

	after, reply, err := machine.Submit(context.Background(), session, "one more")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if reply.Message != CompletedAcknowledgement || reply.Completes() {
		t.Fatalf("unexpected acknowledgement: %+v", reply)
	}
	if len(after.Answers) != 1 {
		t.Fatalf("expected answers to stay at 1, got %d", len(after.Answers))
	}
	if evaluator.calls != 1 {
		t.Fatalf("expected no evaluation after completion, got %d calls", evaluator.calls)
	}
	if len(finalizer.sessions) != 1 {
		t.Fatalf("expected finalizer to run once, got %d", len(finalizer.sessions))
	}
}

func TestMachineRejectsEmptyAnswer(t *testing.T) {
	machine := NewMachine(testCatalog(t, 2), &stubEvaluator{}, nil, nil)

	session := machine.NewSession("cand")
	_, _, err := machine.Submit(context.Background(), session, "   ")
	if !errors.Is(err, ErrEmptyAnswer) {
		t.Fatalf("expected ErrEmptyAnswer, got %v", err)
	}
}

func TestWelcomeListsSections(t *testing.T) {
	machine := NewMachine(testCatalog(t, 10), &stubEvaluator{}, nil, nil)

	welcome := machine.Welcome()
	for _, want := range []string{
		"I'll ask you 10 questions",
		"Technical Competencies (6 questions)",
		"Scenario-based Problem Solving (2 questions)",
		"Behavioral & Soft Skills (2 questions)",
		"**Question 1:** question 1",
	} {
		if !strings.Contains(welcome, want) {
			t.Fatalf("welcome message misses %q:\n%s", want, welcome)
		}
	}
}

func TestParseSection(t *testing.T) {
	t.Parallel()

	tests := []struct {
		input  string
		expect Section
		ok     bool
	}{
		{input: "Technical Competencies", expect: SectionTechnical, ok: true},
		{input: " scenario ", expect: SectionScenarioBased, ok: true},
		{input: "BEHAVIORAL & SOFT SKILLS", expect: SectionBehavioral, ok: true},
		{input: "cooking", ok: false},
	}

	for _, tt := range tests {
		got, ok := ParseSection(tt.input)
		if ok != tt.ok || got != tt.expect {
			t.Fatalf("ParseSection(%q) = (%q, %v), want (%q, %v)", tt.input, got, ok, tt.expect, tt.ok)
		}
	}
}

func TestEnforceIntegrity(t *testing.T) {
	t.Parallel()

	flagged := EnforceIntegrity(AnswerEvaluation{
		Score:             95,
		TechnicalAccuracy: 25,
		ProblemSolving:    24,
		Communication:     23,
		Documentation:     23,
		AIDetected:        true,
		Feedback:          "excellent",
	})
	if flagged.Score != 0 || flagged.TechnicalAccuracy != 0 || flagged.ProblemSolving != 0 ||
		flagged.Communication != 0 || flagged.Documentation != 0 {
		t.Fatalf("expected all scores to be zero, got %+v", flagged)
	}
	if flagged.Level != Level1 || flagged.Feedback != AIDetectedFeedback {
		t.Fatalf("unexpected level or feedback: %+v", flagged)
	}

	clean := EnforceIntegrity(AnswerEvaluation{Score: 80, Feedback: "good"})
	if clean.Score != 80 || clean.Level != Level3 || clean.Feedback != "good" {
		t.Fatalf("clean evaluation changed: %+v", clean)
	}
}

func TestMachineFinalizeIgnoresIncompleteSessions(t *testing.T) {
	finalizer := &recordingFinalizer{}
	machine := NewMachine(testCatalog(t, 2), &stubEvaluator{}, finalizer, nil)

	session, reply, err := machine.Submit(context.Background(), machine.NewSession("cand"), "answer")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if reply.Completes() {
		t.Fatalf("first of two answers must not complete the session")
	}

	machine.Finalize(context.Background(), session)
	if len(finalizer.sessions) != 0 {
		t.Fatalf("expected no finalization, got %d", len(finalizer.sessions))
	}

	NewMachine(testCatalog(t, 1), &stubEvaluator{}, nil, nil).Finalize(context.Background(), Session{IsComplete: true})
}
