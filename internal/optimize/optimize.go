// Package optimize turns LLM suggestions into priced recommendations by
// joining them with the generated metadata and applying the rate tables.
package optimize

import "errors"

// ErrNoRecommendations means no suggestion matched the generated metadata.
// It is an outcome, not a processing failure.
var ErrNoRecommendations = errors.New("no optimization recommendations were generated")

// DaysPerMonth is used to project daily figures to monthly ones.
const DaysPerMonth = 30

// Summary aggregates a result set for display.
type Summary struct {
	Count             int     `json:"count"`
	CurrentCost       float64 `json:"current_cost"`
	OptimizedCost     float64 `json:"optimized_cost"`
	Savings           float64 `json:"savings"`
	AvgSavingsPercent float64 `json:"avg_savings_percent"`
}

func summarize(count int, current, optimized, percentTotal float64) Summary {
	s := Summary{
		Count:         count,
		CurrentCost:   current,
		OptimizedCost: optimized,
		Savings:       current - optimized,
	}
	if count > 0 {
		s.AvgSavingsPercent = percentTotal / float64(count)
	}
	return s
}

// SavingsPercent returns (before-after)/before*100, or 0 when before is not
// positive. The result is negative when after exceeds before.
func SavingsPercent(before, after float64) float64 {
	if before <= 0 {
		return 0
	}
	return (before - after) / before * 100
}
