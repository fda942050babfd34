package analysis

import (
	"errors"
	"math"

	"github.com/spigell/interview-screener/internal/interview"
)

// Dimension names as they appear in strengths and weaknesses.
const (
	DimensionTechnicalAccuracy = "Technical Accuracy"
	DimensionProblemSolving    = "Problem Solving"
	DimensionCommunication     = "Communication"
	DimensionDocumentation     = "Documentation"
)

const (
	strengthThreshold       = 20
	weaknessThreshold       = 15
	recommendationThreshold = 18
)

// ErrNoAnswers is returned when there is nothing to analyze.
var ErrNoAnswers = errors.New("no answers to analyze")

// Analysis is the metric breakdown of one completed session.
type Analysis struct {
	TechnicalAccuracy float64         `json:"technical_accuracy"`
	ProblemSolving    float64         `json:"problem_solving"`
	Communication     float64         `json:"communication"`
	Documentation     float64         `json:"documentation"`
	OverallScore      float64         `json:"overall_score"`
	OverallLevel      interview.Level `json:"overall_level"`
	AIDetected        bool            `json:"ai_detected"`
	AIDetectedCount   int             `json:"ai_detected_count"`
	TotalQuestions    int             `json:"total_questions"`
	Strengths         []string        `json:"strengths"`
	Weaknesses        []string        `json:"weaknesses"`
	Recommendations   []string        `json:"recommendations"`
}

type dimension struct {
	name           string
	mean           float64
	recommendation string
}

// Analyze derives per-dimension averages, strengths, weaknesses and an
// ordered list of recommendations. Averages are rounded to one decimal;
// classification uses the unrounded means.
func Analyze(answers []interview.AnswerEvaluation, averageScore float64, level interview.Level) (Analysis, error) {
	if len(answers) == 0 {
		return Analysis{}, ErrNoAnswers
	}

	var technical, problemSolving, communication, documentation float64
	aiDetected := 0
	for _, a := range answers {
		technical += a.TechnicalAccuracy
		problemSolving += a.ProblemSolving
		communication += a.Communication
		documentation += a.Documentation
		if a.AIDetected {
			aiDetected++
		}
	}

	n := float64(len(answers))
	dimensions := []dimension{
		{name: DimensionTechnicalAccuracy, mean: technical / n, recommendation: "Focus on technical accuracy and precision in responses"},
		{name: DimensionProblemSolving, mean: problemSolving / n, recommendation: "Develop structured problem-solving methodologies"},
		{name: DimensionCommunication, mean: communication / n, recommendation: "Improve technical communication and clarity"},
		{name: DimensionDocumentation, mean: documentation / n, recommendation: "Enhance documentation and process-oriented approaches"},
	}

	result := Analysis{
		TechnicalAccuracy: Round1(dimensions[0].mean),
		ProblemSolving:    Round1(dimensions[1].mean),
		Communication:     Round1(dimensions[2].mean),
		Documentation:     Round1(dimensions[3].mean),
		OverallScore:      averageScore,
		OverallLevel:      level,
		AIDetected:        aiDetected > 0,
		AIDetectedCount:   aiDetected,
		TotalQuestions:    len(answers),
		Strengths:         []string{},
		Weaknesses:        []string{},
		Recommendations:   []string{},
	}

	for _, d := range dimensions {
		if d.mean > strengthThreshold {
			result.Strengths = append(result.Strengths, d.name)
		}
		if d.mean < weaknessThreshold {
			result.Weaknesses = append(result.Weaknesses, d.name)
		}
	}

	if result.AIDetected {
		result.Recommendations = append(result.Recommendations,
			"Assessment integrity training required",
			"Supervised retake recommended",
		)
		return result, nil
	}

	for _, d := range dimensions {
		if d.mean < recommendationThreshold {
			result.Recommendations = append(result.Recommendations, d.recommendation)
		}
	}

	switch level {
	case interview.Level3:
		result.Recommendations = append(result.Recommendations, "Consider for senior technical roles and mentoring")
	case interview.Level2:
		result.Recommendations = append(result.Recommendations, "Suitable for standard MSP roles with ongoing development")
	default:
		result.Recommendations = append(result.Recommendations, "Requires comprehensive skill development before role assignment")
	}

	return result, nil
}

// Round1 rounds v to one decimal place.
func Round1(v float64) float64 {
	return math.Round(v*10) / 10
}
