package optimize

import (
	"strings"

	"github.com/kiranshivaraju/costlab/internal/config"
	"github.com/kiranshivaraju/costlab/pkg/models"
)

const (
	mergedCostFactor           = 0.6
	materializedViewCostFactor = 0.2
	materializedViewReasoning  = "Convert to materialized view to eliminate repeated computation"
)

var runsPerDay = map[string]float64{
	models.FrequencyHourly:      24,
	models.FrequencyDaily:       1,
	models.FrequencyWeekly:      1.0 / 7,
	models.FrequencyTwiceDaily:  2,
	models.FrequencyEvery6Hours: 4,
}

var suggestedCron = map[string]string{
	models.FrequencyHourly:      "0 * * * *",
	models.FrequencyDaily:       "0 0 * * *",
	models.FrequencyWeekly:      "0 0 * * 0",
	models.FrequencyTwiceDaily:  "0 0,12 * * *",
	models.FrequencyEvery6Hours: "0 */6 * * *",
}

// RunsPerDay returns how often a frequency fires per day. Unknown
// frequencies count as once a day.
func RunsPerDay(frequency string) float64 {
	if r, ok := runsPerDay[frequency]; ok {
		return r
	}
	return 1
}

// SuggestedCron returns the canonical cron for a frequency, defaulting to
// midnight daily.
func SuggestedCron(frequency string) string {
	if c, ok := suggestedCron[frequency]; ok {
		return c
	}
	return suggestedCron[models.FrequencyDaily]
}

// DailyCost prices a scheduled query at the given frequency.
func DailyCost(costMB float64, frequency string, pricing config.PricingConfig) float64 {
	return costMB / 1024 * pricing.BigQueryCostPerTB * RunsPerDay(frequency)
}

// Schedules prices frequency adjustments, merges and materialized view
// candidates in that order. Redundant queries produce no result. Entries
// naming unknown queries are dropped, except merges, which price only the
// queries they can find.
func Schedules(schedules []models.ScheduledQuery, analysis models.ScheduleAnalysis, pricing config.PricingConfig) ([]models.ScheduleOptimizationResult, error) {
	byName := make(map[string]models.ScheduledQuery, len(schedules))
	for _, s := range schedules {
		byName[s.Name] = s
	}

	var out []models.ScheduleOptimizationResult

	for _, adj := range analysis.FrequencyAdjustments {
		q, ok := byName[adj.QueryName]
		if !ok {
			continue
		}
		current := DailyCost(q.CostMB, q.Frequency, pricing)
		suggested := DailyCost(q.CostMB, adj.SuggestedFrequency, pricing)
		out = append(out, models.ScheduleOptimizationResult{
			QueryName:               q.Name,
			CurrentCron:             q.Cron,
			SuggestedCron:           SuggestedCron(adj.SuggestedFrequency),
			CurrentDailyCost:        current,
			SuggestedDailyCost:      suggested,
			OptimizationType:        models.ScheduleReduceFrequency,
			Reasoning:               adj.Reasoning,
			EstimatedSavingsPercent: SavingsPercent(current, suggested),
		})
	}

	for _, m := range analysis.MergeOpportunities {
		if len(m.Queries) < 2 {
			continue
		}
		var combined float64
		for _, name := range m.Queries {
			if q, ok := byName[name]; ok {
				combined += DailyCost(q.CostMB, q.Frequency, pricing)
			}
		}
		suggested := combined * mergedCostFactor
		out = append(out, models.ScheduleOptimizationResult{
			QueryName:               "Merge: " + strings.Join(m.Queries[:2], ", "),
			CurrentCron:             "Multiple schedules",
			SuggestedCron:           "Merged schedule",
			CurrentDailyCost:        combined,
			SuggestedDailyCost:      suggested,
			OptimizationType:        models.ScheduleMerge,
			Reasoning:               m.Reasoning,
			EstimatedSavingsPercent: SavingsPercent(combined, suggested),
		})
	}

	for _, name := range analysis.MaterializedViewCandidates {
		q, ok := byName[name]
		if !ok {
			continue
		}
		current := DailyCost(q.CostMB, q.Frequency, pricing)
		out = append(out, models.ScheduleOptimizationResult{
			QueryName:               q.Name,
			CurrentCron:             q.Cron,
			SuggestedCron:           "Materialized View (auto-refresh)",
			CurrentDailyCost:        current,
			SuggestedDailyCost:      current * materializedViewCostFactor,
			OptimizationType:        models.ScheduleMaterializedView,
			Reasoning:               materializedViewReasoning,
			EstimatedSavingsPercent: 80.0,
		})
	}

	if len(out) == 0 {
		return nil, ErrNoRecommendations
	}
	return out, nil
}

// ScheduleSummary totals daily costs.
func ScheduleSummary(results []models.ScheduleOptimizationResult) Summary {
	var current, suggested, pct float64
	for _, r := range results {
		current += r.CurrentDailyCost
		suggested += r.SuggestedDailyCost
		pct += r.EstimatedSavingsPercent
	}
	return summarize(len(results), current, suggested, pct)
}

// Projection extends a daily saving to monthly and annual figures.
type Projection struct {
	Daily   float64 `json:"daily"`
	Monthly float64 `json:"monthly"`
	Annual  float64 `json:"annual"`
}

func Project(daily float64) Projection {
	monthly := daily * DaysPerMonth
	return Projection{Daily: daily, Monthly: monthly, Annual: monthly * 12}
}
