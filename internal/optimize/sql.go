package optimize

import (
	"time"

	"github.com/kiranshivaraju/costlab/internal/fanout"
	"github.com/kiranshivaraju/costlab/pkg/models"
)

// SQL builds the result for one successful dry-run pair.
func SQL(o fanout.Outcome, s models.SQLSuggestion, now time.Time) models.SQLOptimizationResult {
	return models.SQLOptimizationResult{
		QueryID:              o.Pair.ID,
		OriginalQuery:        o.Pair.Original,
		OptimizedQuery:       o.Pair.Optimized,
		BytesBefore:          o.Before.BytesProcessed,
		BytesAfter:           o.After.BytesProcessed,
		CostBeforeUSD:        o.Before.EstimatedCostUSD,
		CostAfterUSD:         o.After.EstimatedCostUSD,
		SavingsPercent:       SavingsPercent(float64(o.Before.BytesProcessed), float64(o.After.BytesProcessed)),
		OptimizationsApplied: s.OptimizationsApplied,
		Explanation:          s.Explanation,
		Timestamp:            now,
	}
}

// SQLResults prices every successful outcome in report. suggestions is keyed
// by pair ID; outcomes without a suggestion are dropped.
func SQLResults(report fanout.Report, suggestions map[string]models.SQLSuggestion, now time.Time) ([]models.SQLOptimizationResult, error) {
	var out []models.SQLOptimizationResult
	for _, o := range report.Succeeded() {
		s, ok := suggestions[o.Pair.ID]
		if !ok {
			continue
		}
		out = append(out, SQL(o, s, now))
	}
	if len(out) == 0 {
		return nil, ErrNoRecommendations
	}
	return out, nil
}

// SQLSummary totals dry-run costs across results.
func SQLSummary(results []models.SQLOptimizationResult) Summary {
	var before, after, pct float64
	for _, r := range results {
		before += r.CostBeforeUSD
		after += r.CostAfterUSD
		pct += r.SavingsPercent
	}
	return summarize(len(results), before, after, pct)
}
