package dashboard

import (
	"sort"
	"time"

	"github.com/spigell/interview-screener/internal/analysis"
	"github.com/spigell/interview-screener/internal/interview"
	"github.com/spigell/interview-screener/internal/sink"
)

const (
	passScore             = 70
	highAIDetectionRate   = 15
	recentDetectionsLimit = 10
)

// Overview aggregates stored interview results for reporting.
type Overview struct {
	GeneratedAt       time.Time               `json:"generated_at"`
	TotalInterviews   int                     `json:"total_interviews"`
	AverageScore      float64                 `json:"average_score"`
	PassRate          float64                 `json:"pass_rate"`
	Levels            map[interview.Level]int `json:"levels"`
	ScoreDistribution []ScoreBucket           `json:"score_distribution"`
	Dimensions        Dimensions              `json:"dimensions"`
	AIDetection       AIDetection             `json:"ai_detection"`
	Trends            []MonthlyTrend          `json:"trends"`
}

type Dimensions struct {
	TechnicalAccuracy float64 `json:"technical_accuracy"`
	ProblemSolving    float64 `json:"problem_solving"`
	Communication     float64 `json:"communication"`
	Documentation     float64 `json:"documentation"`
}

type ScoreBucket struct {
	Label      string  `json:"label"`
	Count      int     `json:"count"`
	Percentage float64 `json:"percentage"`
}

type AIDetection struct {
	Count             int         `json:"count"`
	Rate              float64     `json:"rate"`
	High              bool        `json:"high"`
	AverageScoreAI    float64     `json:"average_score_ai"`
	AverageScoreClean float64     `json:"average_score_clean"`
	Recent            []Detection `json:"recent"`
}

type Detection struct {
	CandidateID  string    `json:"candidate_id"`
	OverallScore float64   `json:"overall_score"`
	CompletedAt  time.Time `json:"completed_at"`
}

type MonthlyTrend struct {
	Year            int        `json:"year"`
	Month           time.Month `json:"month"`
	TotalInterviews int        `json:"total_interviews"`
	AverageScore    float64    `json:"average_score"`
	AIDetectionRate float64    `json:"ai_detection_rate"`
}

var scoreBuckets = []struct {
	label string
	min   float64
}{
	{label: "90-100%", min: 90},
	{label: "80-89%", min: 80},
	{label: "70-79%", min: 70},
	{label: "60-69%", min: 60},
	{label: "Below 60%", min: 0},
}

// Summarize computes the overview of records. Percentages and averages are
// rounded to one decimal.
func Summarize(records []sink.Record, now time.Time) Overview {
	overview := Overview{
		GeneratedAt:       now.UTC(),
		TotalInterviews:   len(records),
		Levels:            map[interview.Level]int{interview.Level1: 0, interview.Level2: 0, interview.Level3: 0},
		ScoreDistribution: make([]ScoreBucket, len(scoreBuckets)),
		AIDetection:       AIDetection{Recent: []Detection{}},
		Trends:            []MonthlyTrend{},
	}
	for i, b := range scoreBuckets {
		overview.ScoreDistribution[i].Label = b.label
	}

	if len(records) == 0 {
		return overview
	}

	sorted := make([]sink.Record, len(records))
	copy(sorted, records)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].CompletedAt.After(sorted[j].CompletedAt)
	})

	type monthKey struct {
		year  int
		month time.Month
	}
	type monthAcc struct {
		total, ai int
		score     float64
	}
	months := map[monthKey]*monthAcc{}

	var scoreSum, aiScoreSum, cleanScoreSum float64
	var dims Dimensions
	passed := 0

	for _, r := range sorted {
		scoreSum += r.OverallScore
		dims.TechnicalAccuracy += r.TechnicalAccuracy
		dims.ProblemSolving += r.ProblemSolving
		dims.Communication += r.Communication
		dims.Documentation += r.Documentation

		if r.OverallScore >= passScore {
			passed++
		}
		overview.Levels[r.OverallLevel]++

		for i, b := range scoreBuckets {
			if r.OverallScore >= b.min {
				overview.ScoreDistribution[i].Count++
				break
			}
		}

		key := monthKey{year: r.CompletedAt.Year(), month: r.CompletedAt.Month()}
		acc, ok := months[key]
		if !ok {
			acc = &monthAcc{}
			months[key] = acc
		}
		acc.total++
		acc.score += r.OverallScore

		if r.AIDetected {
			overview.AIDetection.Count++
			aiScoreSum += r.OverallScore
			acc.ai++
			if len(overview.AIDetection.Recent) < recentDetectionsLimit {
				overview.AIDetection.Recent = append(overview.AIDetection.Recent, Detection{
					CandidateID:  r.CandidateID,
					OverallScore: r.OverallScore,
					CompletedAt:  r.CompletedAt,
				})
			}
		} else {
			cleanScoreSum += r.OverallScore
		}
	}

	n := float64(len(records))
	overview.AverageScore = analysis.Round1(scoreSum / n)
	overview.PassRate = percent(passed, len(records))
	overview.Dimensions = Dimensions{
		TechnicalAccuracy: analysis.Round1(dims.TechnicalAccuracy / n),
		ProblemSolving:    analysis.Round1(dims.ProblemSolving / n),
		Communication:     analysis.Round1(dims.Communication / n),
		Documentation:     analysis.Round1(dims.Documentation / n),
	}
	for i := range overview.ScoreDistribution {
		overview.ScoreDistribution[i].Percentage = percent(overview.ScoreDistribution[i].Count, len(records))
	}

	ai := overview.AIDetection.Count
	overview.AIDetection.Rate = percent(ai, len(records))
	overview.AIDetection.High = float64(ai)/n*100 > highAIDetectionRate
	if ai > 0 {
		overview.AIDetection.AverageScoreAI = analysis.Round1(aiScoreSum / float64(ai))
	}
	if clean := len(records) - ai; clean > 0 {
		overview.AIDetection.AverageScoreClean = analysis.Round1(cleanScoreSum / float64(clean))
	}

	for key, acc := range months {
		overview.Trends = append(overview.Trends, MonthlyTrend{
			Year:            key.year,
			Month:           key.month,
			TotalInterviews: acc.total,
			AverageScore:    analysis.Round1(acc.score / float64(acc.total)),
			AIDetectionRate: percent(acc.ai, acc.total),
		})
	}
	sort.Slice(overview.Trends, func(i, j int) bool {
		a, b := overview.Trends[i], overview.Trends[j]
		if a.Year != b.Year {
			return a.Year > b.Year
		}
		return a.Month > b.Month
	})

	return overview
}

func percent(part, total int) float64 {
	if total == 0 {
		return 0
	}
	return analysis.Round1(float64(part) / float64(total) * 100)
}
