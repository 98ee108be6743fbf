package scoring

import (
	"encoding/json"
	"fmt"
	"testing"

	"github.com/InfiniCruiser/ymca-backend/internal/domain/submissions"
)

func answers(kv ...string) submissions.Responses {
	out := submissions.Responses{}
	for i := 0; i+1 < len(kv); i += 2 {
		out[kv[i]] = submissions.Answer{Value: kv[i+1]}
	}
	return out
}

func TestScoreCategory(t *testing.T) {
	cat := Category{ID: "a", MaxPoints: 4, QuestionIDs: []string{"A1", "A2", "A3"}}

	tests := []struct {
		name      string
		responses submissions.Responses
		want      int
		answered  int
	}{
		{"two of three yes", answers("A1", "Yes", "A2", "Yes", "A3", "No"), 3, 3},
		{"empty category is zero", answers(), 0, 0},
		{"unanswered questions are ignored", answers("A1", "Yes"), 4, 1},
		{"all no", answers("A1", "No", "A2", "No"), 0, 2},
		{"half rounds up", answers("A1", "Yes", "A2", "No"), 2, 2},
		{"unknown values are excluded", answers("A1", "Yes", "A2", "Maybe", "A3", ""), 4, 1},
		{"case sensitive", answers("A1", "yes", "A2", "No"), 0, 1},
		{"questions outside the category are ignored", answers("B1", "Yes", "A1", "No"), 0, 1},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got := ScoreCategory(cat, tc.responses)
			if got.Points != tc.want || got.Answered != tc.answered {
				t.Fatalf("points=%d answered=%d, want points=%d answered=%d", got.Points, got.Answered, tc.want, tc.answered)
			}
		})
	}
}

func TestRoundHalfUpDiv(t *testing.T) {
	tests := []struct{ num, den, want int }{
		{8, 3, 3},  // 2.667
		{4, 3, 1},  // 1.333
		{1, 2, 1},  // 0.5
		{3, 2, 2},  // 1.5
		{5, 4, 1},  // 1.25
		{0, 7, 0},
		{12, 1, 12},
	}
	for _, tc := range tests {
		if got := roundHalfUpDiv(tc.num, tc.den); got != tc.want {
			t.Fatalf("roundHalfUpDiv(%d,%d)=%d want %d", tc.num, tc.den, got, tc.want)
		}
	}
}

func testConfig() *Config {
	return &Config{
		Version: "test",
		Operational: []Category{
			{ID: "op1", MaxPoints: 10, QuestionIDs: []string{"O1", "O2"}},
			{ID: "op2", MaxPoints: 10, QuestionIDs: []string{"O3", "O4"}},
		},
		Financial: []Category{
			{ID: "fin1", MaxPoints: 20, QuestionIDs: []string{"F1"}},
		},
	}
}

func TestCalculate_PercentageUsesOperationalAxisOnly(t *testing.T) {
	cfg := testConfig()

	res := Calculate(cfg, answers("O1", "Yes", "O2", "Yes", "O3", "No", "O4", "No"))
	if res.OperationalTotal != 10 || res.FinancialTotal != 0 || res.TotalPoints != 10 {
		t.Fatalf("totals unexpected: %+v", res)
	}
	if res.OperationalMaxPoints != 20 || res.FinancialMaxPoints != 20 || res.MaxPoints != 40 {
		t.Fatalf("max points unexpected: %+v", res)
	}
	if res.PercentageScore != 50 {
		t.Fatalf("percentage: want=50 got=%v", res.PercentageScore)
	}

	withFinancial := Calculate(cfg, answers("O1", "Yes", "O2", "Yes", "O3", "No", "O4", "No", "F1", "Yes"))
	if withFinancial.TotalPoints != 30 {
		t.Fatalf("total must include financial axis, got %d", withFinancial.TotalPoints)
	}
	if withFinancial.PercentageScore != res.PercentageScore {
		t.Fatalf("percentage must ignore financial axis: %v vs %v", withFinancial.PercentageScore, res.PercentageScore)
	}
	if withFinancial.FinancialSupportDesignation != SupportIndependentImprovement {
		t.Fatalf("financial designation: %s", withFinancial.FinancialSupportDesignation)
	}
}

func TestCalculate_ZeroFinancialIsNotAnError(t *testing.T) {
	res := Calculate(testConfig(), answers("O1", "Yes", "O2", "Yes", "O3", "Yes", "O4", "Yes"))
	if res.FinancialTotal != 0 {
		t.Fatalf("financial total: want=0 got=%d", res.FinancialTotal)
	}
	for _, cs := range res.Financial {
		if cs.Points != 0 || cs.Answered != 0 {
			t.Fatalf("financial category must be zero: %+v", cs)
		}
	}
	if res.PercentageScore != 100 || res.PerformanceCategory != PerformanceExemplary {
		t.Fatalf("percentage/tier: %v %s", res.PercentageScore, res.PerformanceCategory)
	}
	if res.FinancialSupportDesignation != SupportYUSA {
		t.Fatalf("financial designation: %s", res.FinancialSupportDesignation)
	}
}

func TestCalculate_TierBoundaries(t *testing.T) {
	// One operational category with max 20 lets us hit exact percentages.
	cfg := &Config{
		Version:     "bounds",
		Operational: []Category{{ID: "op", MaxPoints: 20, QuestionIDs: []string{"Q1", "Q2", "Q3", "Q4", "Q5", "Q6", "Q7", "Q8", "Q9", "Q10", "Q11", "Q12", "Q13", "Q14", "Q15", "Q16", "Q17", "Q18", "Q19", "Q20"}}},
	}
	build := func(yes int) submissions.Responses {
		r := submissions.Responses{}
		for i := 1; i <= 20; i++ {
			v := "No"
			if i <= yes {
				v = "Yes"
			}
			r[cfg.Operational[0].QuestionIDs[i-1]] = submissions.Answer{Value: v}
		}
		return r
	}
	tests := []struct {
		yes     int
		pct     float64
		tier    PerformanceCategory
		support SupportDesignation
	}{
		{15, 75, PerformanceExemplary, SupportIndependentImprovement},
		{14, 70, PerformanceEffective, SupportIndependentImprovement},
		{12, 60, PerformanceEffective, SupportIndependentImprovement},
		{11, 55, PerformanceDeveloping, SupportIndependentImprovement},
		{9, 45, PerformanceDeveloping, SupportIndependentImprovement},
		{8, 40, PerformanceNeedsImprovement, SupportYUSA},
		{0, 0, PerformanceNeedsImprovement, SupportYUSA},
	}
	for _, tc := range tests {
		res := Calculate(cfg, build(tc.yes))
		if res.PercentageScore != tc.pct || res.PerformanceCategory != tc.tier || res.SupportDesignation != tc.support {
			t.Fatalf("yes=%d: got pct=%v tier=%s support=%s, want %v %s %s",
				tc.yes, res.PercentageScore, res.PerformanceCategory, res.SupportDesignation, tc.pct, tc.tier, tc.support)
		}
	}
}

func TestCalculate_TiersUseExactRatioNotDisplayedPercentage(t *testing.T) {
	ids := make([]string, 20)
	r := submissions.Responses{}
	for i := range ids {
		ids[i] = fmt.Sprintf("Q%d", i+1)
		v := "No"
		if i < 9 {
			v = "Yes"
		}
		r[ids[i]] = submissions.Answer{Value: v}
	}
	cfg := &Config{
		Version:     "wide",
		Operational: []Category{{ID: "op", MaxPoints: 10001, QuestionIDs: ids}},
	}
	res := Calculate(cfg, r)
	// 4500/10001 is 44.9955%, displayed as 45 but still below the 45% bound.
	if res.OperationalTotal != 4500 || res.PercentageScore != 45 {
		t.Fatalf("total=%d pct=%v", res.OperationalTotal, res.PercentageScore)
	}
	if res.PerformanceCategory != PerformanceNeedsImprovement || res.SupportDesignation != SupportYUSA {
		t.Fatalf("tier=%s support=%s, want %s %s", res.PerformanceCategory, res.SupportDesignation, PerformanceNeedsImprovement, SupportYUSA)
	}
}

func TestCalculate_PercentageRoundsToTwoDecimals(t *testing.T) {
	cfg := &Config{
		Version:     "round",
		Operational: []Category{{ID: "op", MaxPoints: 1, QuestionIDs: []string{"Q1"}}, {ID: "op2", MaxPoints: 2, QuestionIDs: []string{"Q2"}}},
	}
	res := Calculate(cfg, answers("Q1", "Yes"))
	if res.PercentageScore != 33.33 {
		t.Fatalf("percentage: want=33.33 got=%v", res.PercentageScore)
	}
	res = Calculate(cfg, answers("Q2", "Yes"))
	if res.PercentageScore != 66.67 {
		t.Fatalf("percentage: want=66.67 got=%v", res.PercentageScore)
	}
}

func TestCalculate_IsDeterministic(t *testing.T) {
	cfg, err := DefaultConfig()
	if err != nil {
		t.Fatalf("DefaultConfig: %v", err)
	}
	r := answers("MG-1", "Yes", "MG-2", "No", "GV-1", "Yes", "RM-3", "Yes", "ML-1", "No", "EN-2", "n/a")
	first, err := json.Marshal(Calculate(cfg, r))
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	for i := 0; i < 20; i++ {
		again, _ := json.Marshal(Calculate(cfg, r.Clone()))
		if string(again) != string(first) {
			t.Fatalf("run %d differs:\n%s\n%s", i, first, again)
		}
	}
}

func TestCalculate_AxisDesignationUsesSixtyPercent(t *testing.T) {
	cfg := &Config{
		Version:     "axis",
		Operational: []Category{{ID: "op", MaxPoints: 5, QuestionIDs: []string{"Q1", "Q2", "Q3", "Q4", "Q5"}}},
	}
	res := Calculate(cfg, answers("Q1", "Yes", "Q2", "Yes", "Q3", "Yes", "Q4", "No", "Q5", "No"))
	if res.OperationalSupportDesignation != SupportIndependentImprovement {
		t.Fatalf("3/5 is exactly 60%%: got %s", res.OperationalSupportDesignation)
	}
	res = Calculate(cfg, answers("Q1", "Yes", "Q2", "Yes", "Q3", "No", "Q4", "No", "Q5", "No"))
	if res.OperationalSupportDesignation != SupportYUSA {
		t.Fatalf("2/5 is below 60%%: got %s", res.OperationalSupportDesignation)
	}
}

func TestPercentageHelpers(t *testing.T) {
	if got := PerformanceCategoryForPercentage(45); got != PerformanceDeveloping {
		t.Fatalf("45 -> %s", got)
	}
	if got := PerformanceCategoryForPercentage(44.99); got != PerformanceNeedsImprovement {
		t.Fatalf("44.99 -> %s", got)
	}
	if got := SupportDesignationForPercentage(45); got != SupportIndependentImprovement {
		t.Fatalf("45 -> %s", got)
	}
}
