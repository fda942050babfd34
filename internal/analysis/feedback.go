package analysis

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spigell/interview-screener/internal/interview"
)

// Synthesize renders the analysis as a single feedback paragraph. A session
// with AI-flagged answers gets only the integrity notice.
func Synthesize(a Analysis) string {
	var b strings.Builder
	b.WriteString("Assessment Summary & Next Steps: ")

	if a.AIDetected {
		fmt.Fprintf(&b, "Assessment integrity was compromised with %d out of %d responses flagged as AI-generated. ", a.AIDetectedCount, a.TotalQuestions)
		b.WriteString("This candidate is disqualified from this assessment round and requires a supervised retake with additional verification measures. ")
		return b.String()
	}

	fmt.Fprintf(&b, "This candidate achieved an overall score of %s/100 (%s) across %d technical questions. ", num(a.OverallScore), a.OverallLevel, a.TotalQuestions)
	fmt.Fprintf(&b, "Performance breakdown: %s (%s/25), %s (%s/25), %s (%s/25), %s (%s/25). ",
		DimensionTechnicalAccuracy, num(a.TechnicalAccuracy),
		DimensionProblemSolving, num(a.ProblemSolving),
		DimensionCommunication, num(a.Communication),
		DimensionDocumentation, num(a.Documentation),
	)

	if len(a.Strengths) > 0 {
		fmt.Fprintf(&b, "Key strengths demonstrated: %s. ", strings.Join(a.Strengths, ", "))
	}
	if len(a.Weaknesses) > 0 {
		fmt.Fprintf(&b, "Areas requiring improvement: %s. ", strings.Join(a.Weaknesses, ", "))
	}

	switch a.OverallLevel {
	case interview.Level3:
		b.WriteString("This candidate demonstrates exceptional technical competencies and is highly suitable for senior MSP technician roles, team leadership, and mentoring positions. ")
		b.WriteString("Strong performance across all evaluation metrics indicates readiness for complex technical challenges and client-facing responsibilities. ")
	case interview.Level2:
		b.WriteString("This candidate shows solid technical foundation suitable for standard MSP technician roles with appropriate support and guidance. ")
		b.WriteString("With continued professional development, this candidate has potential to advance to senior technical positions. ")
	default:
		b.WriteString("This candidate demonstrates limited technical readiness and is not currently suitable for MSP technician roles. ")
		b.WriteString("Significant skill gaps identified across multiple technical areas require comprehensive training and development. ")
	}

	if len(a.Recommendations) > 0 {
		fmt.Fprintf(&b, "Recommendations: %s.", strings.Join(a.Recommendations, "; "))
	}

	return b.String()
}

func num(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
