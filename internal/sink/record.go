package sink

import (
	"fmt"
	"time"

	"github.com/spigell/interview-screener/internal/analysis"
	"github.com/spigell/interview-screener/internal/interview"
)

// Record is the persisted result of a completed interview.
type Record struct {
	CandidateID       string                       `json:"candidate_id" bson:"candidate_id"`
	SessionID         string                       `json:"session_id" bson:"session_id"`
	OverallScore      float64                      `json:"overall_score" bson:"overall_score"`
	OverallLevel      interview.Level              `json:"overall_level" bson:"overall_level"`
	TechnicalAccuracy float64                      `json:"technical_accuracy" bson:"technical_accuracy"`
	ProblemSolving    float64                      `json:"problem_solving" bson:"problem_solving"`
	Communication     float64                      `json:"communication" bson:"communication"`
	Documentation     float64                      `json:"documentation" bson:"documentation"`
	Feedback          string                       `json:"feedback" bson:"feedback"`
	AIDetected        bool                         `json:"ai_detected" bson:"ai_detected"`
	AIDetectedCount   int                          `json:"ai_detected_count" bson:"ai_detected_count"`
	Strengths         []string                     `json:"strengths" bson:"strengths"`
	Weaknesses        []string                     `json:"weaknesses" bson:"weaknesses"`
	Recommendations   []string                     `json:"recommendations" bson:"recommendations"`
	CompletedAt       time.Time                    `json:"completed_at" bson:"completed_at"`
	Answers           []interview.AnswerEvaluation `json:"answers" bson:"answers"`
}

// NewRecord builds the result record of a completed session.
func NewRecord(session interview.Session, completedAt time.Time) (Record, error) {
	a, err := analysis.Analyze(session.Answers, session.AverageScore, session.OverallLevel)
	if err != nil {
		return Record{}, fmt.Errorf("analyze session %s: %w", session.ID, err)
	}

	if session.CompletedAt != nil {
		completedAt = *session.CompletedAt
	}

	answers := make([]interview.AnswerEvaluation, len(session.Answers))
	copy(answers, session.Answers)

	return Record{
		CandidateID:       session.CandidateID,
		SessionID:         session.ID,
		OverallScore:      session.AverageScore,
		OverallLevel:      session.OverallLevel,
		TechnicalAccuracy: a.TechnicalAccuracy,
		ProblemSolving:    a.ProblemSolving,
		Communication:     a.Communication,
		Documentation:     a.Documentation,
		Feedback:          analysis.Synthesize(a),
		AIDetected:        a.AIDetected,
		AIDetectedCount:   a.AIDetectedCount,
		Strengths:         a.Strengths,
		Weaknesses:        a.Weaknesses,
		Recommendations:   a.Recommendations,
		CompletedAt:       completedAt.UTC(),
		Answers:           answers,
	}, nil
}
