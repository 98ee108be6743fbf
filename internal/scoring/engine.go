package scoring

import (
	"strings"

	"github.com/InfiniCruiser/ymca-backend/internal/domain/submissions"
)

const (
	AnswerYes = "Yes"
	AnswerNo  = "No"
)

type CategoryScore struct {
	CategoryID string `json:"category_id"`
	Axis       Axis   `json:"axis"`
	Answered   int    `json:"answered"`
	Yes        int    `json:"yes"`
	MaxPoints  int    `json:"max_points"`
	Points     int    `json:"points"`
}

type Result struct {
	ConfigVersion string `json:"config_version"`

	Operational []CategoryScore `json:"operational"`
	Financial   []CategoryScore `json:"financial"`

	OperationalTotal     int `json:"operational_total_points"`
	FinancialTotal       int `json:"financial_total_points"`
	TotalPoints          int `json:"total_points"`
	MaxPoints            int `json:"max_points"`
	OperationalMaxPoints int `json:"operational_max_points"`
	FinancialMaxPoints   int `json:"financial_max_points"`

	// PercentageScore is operational-only, rounded half-up to two decimals.
	PercentageScore     float64             `json:"percentage_score"`
	PerformanceCategory PerformanceCategory `json:"performance_category"`
	SupportDesignation  SupportDesignation  `json:"support_designation"`

	OperationalSupportDesignation SupportDesignation `json:"operational_support_designation"`
	FinancialSupportDesignation   SupportDesignation `json:"financial_support_designation"`
}

// Calculate scores responses against cfg. It has no side effects and never fails:
// answers other than "Yes"/"No" are treated as unanswered.
func Calculate(cfg *Config, responses submissions.Responses) Result {
	res := Result{}
	if cfg == nil {
		return res
	}
	res.ConfigVersion = cfg.Version

	res.Operational, res.OperationalTotal, res.OperationalMaxPoints = scoreAxis(AxisOperational, cfg.Operational, responses)
	res.Financial, res.FinancialTotal, res.FinancialMaxPoints = scoreAxis(AxisFinancial, cfg.Financial, responses)
	res.TotalPoints = res.OperationalTotal + res.FinancialTotal
	res.MaxPoints = res.OperationalMaxPoints + res.FinancialMaxPoints

	bp := 0
	if res.OperationalMaxPoints > 0 {
		bp = roundHalfUpDiv(res.OperationalTotal*10000, res.OperationalMaxPoints)
	}
	res.PercentageScore = float64(bp) / 100
	res.PerformanceCategory = performanceCategoryFor(res.OperationalTotal, res.OperationalMaxPoints)
	res.SupportDesignation = supportDesignationFor(res.OperationalTotal, res.OperationalMaxPoints)
	res.OperationalSupportDesignation = axisSupportDesignation(res.OperationalTotal, res.OperationalMaxPoints)
	res.FinancialSupportDesignation = axisSupportDesignation(res.FinancialTotal, res.FinancialMaxPoints)
	return res
}

func scoreAxis(axis Axis, cats []Category, responses submissions.Responses) ([]CategoryScore, int, int) {
	out := make([]CategoryScore, 0, len(cats))
	total, maxTotal := 0, 0
	for _, cat := range cats {
		cs := ScoreCategory(cat, responses)
		cs.Axis = axis
		out = append(out, cs)
		total += cs.Points
		maxTotal += cat.MaxPoints
	}
	return out, total, maxTotal
}

// ScoreCategory grades a category on its answered questions only:
// points = round_half_up(yes / answered * max), and 0 when nothing was answered.
func ScoreCategory(cat Category, responses submissions.Responses) CategoryScore {
	cs := CategoryScore{CategoryID: cat.ID, MaxPoints: cat.MaxPoints}
	seen := make(map[string]bool, len(cat.QuestionIDs))
	for _, q := range cat.QuestionIDs {
		if seen[q] {
			continue
		}
		seen[q] = true
		v, ok := responses.Value(q)
		if !ok {
			continue
		}
		switch strings.TrimSpace(v) {
		case AnswerYes:
			cs.Answered++
			cs.Yes++
		case AnswerNo:
			cs.Answered++
		}
	}
	if cs.Answered > 0 && cat.MaxPoints > 0 {
		cs.Points = roundHalfUpDiv(cs.Yes*cat.MaxPoints, cs.Answered)
	}
	return cs
}

// roundHalfUpDiv returns round_half_up(num/den) for non-negative num and positive den.
func roundHalfUpDiv(num, den int) int {
	return (2*num + den) / (2 * den)
}

// ScoresByCategory flattens one axis to category id -> points.
func ScoresByCategory(scores []CategoryScore) map[string]int {
	out := make(map[string]int, len(scores))
	for _, s := range scores {
		out[s.CategoryID] = s.Points
	}
	return out
}
