package models

import "time"

// Dataset is a BigQuery public table the SQL simulation can target.
type Dataset struct {
	Name        string `json:"name"        yaml:"name"`
	Dataset     string `json:"dataset"     yaml:"dataset"`
	Table       string `json:"table"       yaml:"table"`
	Description string `json:"description" yaml:"description"`
}

// FullTable returns the dataset-qualified table reference.
func (d Dataset) FullTable() string {
	return d.Dataset + "." + d.Table
}

// DryRunResult is the outcome of a single cost estimate. A failed estimate
// carries zero bytes and cost with Success false.
type DryRunResult struct {
	BytesProcessed   int64   `json:"total_bytes_processed"`
	EstimatedCostUSD float64 `json:"estimated_cost_usd"`
	Success          bool    `json:"success"`
	Error            string  `json:"error,omitempty"`
	ErrorKind        string  `json:"error_kind,omitempty"`
}

// SQLSuggestion is the LLM's rewrite of one query.
type SQLSuggestion struct {
	OptimizedQuery       string   `json:"optimized_query"`
	OptimizationsApplied []string `json:"optimizations_applied"`
	Explanation          string   `json:"explanation"`
}

// SQLOptimizationResult compares an original query with its rewrite.
// SavingsPercent may be negative when the rewrite scans more bytes.
type SQLOptimizationResult struct {
	QueryID              string    `json:"query_id"`
	OriginalQuery        string    `json:"original_query"`
	OptimizedQuery       string    `json:"optimized_query"`
	BytesBefore          int64     `json:"bytes_before"`
	BytesAfter           int64     `json:"bytes_after"`
	CostBeforeUSD        float64   `json:"cost_before_usd"`
	CostAfterUSD         float64   `json:"cost_after_usd"`
	SavingsPercent       float64   `json:"savings_percent"`
	OptimizationsApplied []string  `json:"optimizations_applied"`
	Explanation          string    `json:"explanation,omitempty"`
	Timestamp            time.Time `json:"timestamp"`
}

// TableColumn describes one column of a BigQuery table schema.
type TableColumn struct {
	Name string `json:"name"`
	Type string `json:"type"`
	Mode string `json:"mode"`
}

// TableSchema is the subset of BigQuery table metadata used in prompts.
type TableSchema struct {
	Columns          []TableColumn `json:"columns"`
	PartitionField   string        `json:"partition_field,omitempty"`
	ClusteringFields []string      `json:"clustering_fields"`
}
