package scoring

type PerformanceCategory string

const (
	PerformanceExemplary        PerformanceCategory = "Exemplary"
	PerformanceEffective        PerformanceCategory = "Effective"
	PerformanceDeveloping       PerformanceCategory = "Developing"
	PerformanceNeedsImprovement PerformanceCategory = "Needs Improvement"
)

type SupportDesignation string

const (
	SupportIndependentImprovement SupportDesignation = "Independent Improvement"
	SupportYUSA                   SupportDesignation = "Y-USA Support"
)

// Thresholds in whole percent of the operational max; every lower bound is
// inclusive and compared on the exact ratio, never the rounded percentage.
const (
	exemplaryMinPercent  = 75
	effectiveMinPercent  = 60
	developingMinPercent = 45
	supportMinPercent    = 45

	// axisSupportMinPercent is the per-axis share of max points needed to avoid support.
	axisSupportMinPercent = 60
)

// atLeastPercent reports points/maxPoints >= minPercent/100 without division.
func atLeastPercent(points, maxPoints, minPercent int) bool {
	return maxPoints > 0 && points*100 >= minPercent*maxPoints
}

func performanceCategoryFor(points, maxPoints int) PerformanceCategory {
	switch {
	case atLeastPercent(points, maxPoints, exemplaryMinPercent):
		return PerformanceExemplary
	case atLeastPercent(points, maxPoints, effectiveMinPercent):
		return PerformanceEffective
	case atLeastPercent(points, maxPoints, developingMinPercent):
		return PerformanceDeveloping
	default:
		return PerformanceNeedsImprovement
	}
}

func supportDesignationFor(points, maxPoints int) SupportDesignation {
	if atLeastPercent(points, maxPoints, supportMinPercent) {
		return SupportIndependentImprovement
	}
	return SupportYUSA
}

func axisSupportDesignation(points, maxPoints int) SupportDesignation {
	if atLeastPercent(points, maxPoints, axisSupportMinPercent) {
		return SupportIndependentImprovement
	}
	return SupportYUSA
}

// PerformanceCategoryForPercentage maps a percentage (0-100, two decimals) to its tier.
func PerformanceCategoryForPercentage(pct float64) PerformanceCategory {
	return performanceCategoryFor(percentToBP(pct), 10000)
}

// SupportDesignationForPercentage maps a percentage (0-100, two decimals) to its support tier.
func SupportDesignationForPercentage(pct float64) SupportDesignation {
	return supportDesignationFor(percentToBP(pct), 10000)
}

func percentToBP(pct float64) int {
	if pct <= 0 {
		return 0
	}
	return int(pct*100 + 0.5)
}
