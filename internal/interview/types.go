package interview

import (
	"strings"
	"time"
)

// Level is a competency tier derived from a numeric score.
type Level string

const (
	Level1 Level = "Level 1"
	Level2 Level = "Level 2"
	Level3 Level = "Level 3"
)

const (
	level3Threshold = 80
	level2Threshold = 40
)

// LevelOf maps a score to a level. The same thresholds apply to a single
// answer score and to an aggregate average.
func LevelOf(score float64) Level {
	switch {
	case score >= level3Threshold:
		return Level3
	case score >= level2Threshold:
		return Level2
	default:
		return Level1
	}
}

// Section groups questions for progress reporting.
type Section string

const (
	SectionTechnical     Section = "Technical Competencies"
	SectionScenarioBased Section = "Scenario-based Problem Solving"
	SectionBehavioral    Section = "Behavioral & Soft Skills"
)

// ParseSection accepts either the long section name or a short key
// (technical, scenario, behavioral), case-insensitively.
func ParseSection(s string) (Section, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "technical", strings.ToLower(string(SectionTechnical)):
		return SectionTechnical, true
	case "scenario", "scenario-based", strings.ToLower(string(SectionScenarioBased)):
		return SectionScenarioBased, true
	case "behavioral", "behavioural", strings.ToLower(string(SectionBehavioral)):
		return SectionBehavioral, true
	default:
		return "", false
	}
}

// Question is a single immutable catalog entry.
type Question struct {
	ID       int     `json:"id" bson:"id"`
	Section  Section `json:"section" bson:"section"`
	Text     string  `json:"question" bson:"question"`
	FollowUp string  `json:"follow_up,omitempty" bson:"follow_up,omitempty"`
}

// AnswerEvaluation is the scored result of one answered question.
type AnswerEvaluation struct {
	QuestionID        int     `json:"question_id" bson:"question_id"`
	Question          string  `json:"question" bson:"question"`
	Answer            string  `json:"answer" bson:"answer"`
	Score             int     `json:"score" bson:"score"`
	Level             Level   `json:"level" bson:"level"`
	Feedback          string  `json:"feedback" bson:"feedback"`
	TechnicalAccuracy float64 `json:"technical_accuracy" bson:"technical_accuracy"`
	ProblemSolving    float64 `json:"problem_solving" bson:"problem_solving"`
	Communication     float64 `json:"communication" bson:"communication"`
	Documentation     float64 `json:"documentation" bson:"documentation"`
	AIDetected        bool    `json:"ai_detected" bson:"ai_detected"`
}

const FallbackFeedback = "Answer received but evaluation service encountered an error."

// FallbackEvaluation is the neutral result used whenever the evaluator
// cannot produce a usable judgement.
func FallbackEvaluation(q Question, answer string) AnswerEvaluation {
	return AnswerEvaluation{
		QuestionID:        q.ID,
		Question:          q.Text,
		Answer:            answer,
		Score:             50,
		Level:             Level2,
		Feedback:          FallbackFeedback,
		TechnicalAccuracy: 12,
		ProblemSolving:    12,
		Communication:     13,
		Documentation:     13,
	}
}

// Session is the state of one candidate's interview. It is a value: the
// machine returns a new Session on every transition.
type Session struct {
	ID                   string             `json:"id"`
	CandidateID          string             `json:"candidate_id,omitempty"`
	CurrentQuestionIndex int                `json:"current_question_index"`
	Answers              []AnswerEvaluation `json:"answers"`
	IsComplete           bool               `json:"is_complete"`
	AverageScore         float64            `json:"average_score"`
	OverallLevel         Level              `json:"overall_level"`
	StartedAt            time.Time          `json:"started_at"`
	CompletedAt          *time.Time         `json:"completed_at,omitempty"`
}

const AIDetectedFeedback = "This response was flagged as likely AI-generated. Assessment integrity policy requires a score of 0 for this question."

// EnforceIntegrity zeroes every score of an evaluation flagged as
// AI-generated and replaces its feedback. Level is always recomputed from
// the final score.
func EnforceIntegrity(e AnswerEvaluation) AnswerEvaluation {
	if e.AIDetected {
		e.Score = 0
		e.TechnicalAccuracy = 0
		e.ProblemSolving = 0
		e.Communication = 0
		e.Documentation = 0
		e.Feedback = AIDetectedFeedback
	}
	e.Level = LevelOf(float64(e.Score))
	return e
}
