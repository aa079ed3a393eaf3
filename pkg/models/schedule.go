package models

// Schedule frequencies understood by the cost model.
const (
	FrequencyHourly      = "hourly"
	FrequencyDaily       = "daily"
	FrequencyWeekly      = "weekly"
	FrequencyTwiceDaily  = "twice_daily"
	FrequencyEvery6Hours = "every_6_hours"
)

// Schedule optimization kinds.
const (
	ScheduleReduceFrequency  = "reduce_frequency"
	ScheduleMerge            = "merge"
	ScheduleMaterializedView = "materialized_view"
)

// ScheduledQuery is synthetic scheduled query metadata. CostMB is the data
// processed per run.
type ScheduledQuery struct {
	Name      string  `json:"name"`
	Cron      string  `json:"cron"`
	CostMB    float64 `json:"cost_mb"`
	Purpose   string  `json:"purpose"`
	Frequency string  `json:"frequency"`
}

// FrequencyAdjustment proposes running a query less often.
type FrequencyAdjustment struct {
	QueryName          string `json:"query_name"`
	CurrentFrequency   string `json:"current_frequency"`
	SuggestedFrequency string `json:"suggested_frequency"`
	Reasoning          string `json:"reasoning"`
}

// MergeOpportunity proposes combining queries into one.
type MergeOpportunity struct {
	Queries   []string `json:"queries"`
	Reasoning string   `json:"reasoning"`
}

// ScheduleAnalysis is the LLM's analysis of the whole schedule set.
type ScheduleAnalysis struct {
	RedundantQueries           []string              `json:"redundant_queries"`
	FrequencyAdjustments       []FrequencyAdjustment `json:"frequency_adjustments"`
	MergeOpportunities         []MergeOpportunity    `json:"merge_opportunities"`
	MaterializedViewCandidates []string              `json:"materialized_view_candidates"`
	EstimatedSavings           float64               `json:"estimated_savings"`
}

// ScheduleOptimizationResult is a priced scheduling recommendation.
type ScheduleOptimizationResult struct {
	QueryName               string  `json:"query_name"`
	CurrentCron             string  `json:"current_cron"`
	SuggestedCron           string  `json:"suggested_cron"`
	CurrentDailyCost        float64 `json:"current_daily_cost"`
	SuggestedDailyCost      float64 `json:"suggested_daily_cost"`
	OptimizationType        string  `json:"optimization_type"`
	Reasoning               string  `json:"reasoning"`
	EstimatedSavingsPercent float64 `json:"estimated_savings_percent"`
}
