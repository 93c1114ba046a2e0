package domain

import "sort"

// Strategy is the funding posture assigned to a tract.
type Strategy string

const (
	// StrategyUrgentDesert marks high need with little existing capacity:
	// the priority target for capacity-building investment.
	StrategyUrgentDesert Strategy = "Urgent Desert"
	// StrategyHighCapacityHub marks high need with strong infrastructure
	// available to absorb new programs.
	StrategyHighCapacityHub Strategy = "High-Capacity Hub"
	// StrategyStableLowNeed marks low need with strong capacity.
	StrategyStableLowNeed Strategy = "Stable / Low Need"
	// StrategyGeneralOpportunity marks low need and low capacity.
	StrategyGeneralOpportunity Strategy = "General Opportunity"
)

// StrategyThreshold is the percentile cutoff separating "high" from "low"
// on both axes. A percentile equal to the threshold counts as high.
const StrategyThreshold = 50.0

// Strategies lists every label a tract can receive.
var Strategies = []Strategy{
	StrategyUrgentDesert,
	StrategyHighCapacityHub,
	StrategyStableLowNeed,
	StrategyGeneralOpportunity,
}

// Classify maps a (need, capacity) percentile pair to its strategy label.
// Pure function of its inputs; the vw_tract_profile view must agree with it.
func Classify(needPctl, capacityPctl float64) Strategy {
	highNeed := needPctl >= StrategyThreshold
	highCapacity := capacityPctl >= StrategyThreshold

	switch {
	case highNeed && !highCapacity:
		return StrategyUrgentDesert
	case highNeed && highCapacity:
		return StrategyHighCapacityHub
	case highCapacity:
		return StrategyStableLowNeed
	default:
		return StrategyGeneralOpportunity
	}
}

// PercentileRanks computes the percent rank of each value on a 0-100 scale,
// matching SQL's PERCENT_RANK(): (count of strictly smaller values) / (n-1).
// Ties share a rank. A single value ranks 0. Used by the validate command to
// recompute the view's percentiles from the raw tables.
func PercentileRanks(values []float64) []float64 {
	n := len(values)
	ranks := make([]float64, n)
	if n < 2 {
		return ranks
	}

	sorted := make([]float64, n)
	copy(sorted, values)
	sort.Float64s(sorted)

	for i, v := range values {
		below := sort.SearchFloat64s(sorted, v)
		ranks[i] = float64(below) / float64(n-1) * 100.0
	}
	return ranks
}
