package models

import "time"

// Storage classes offered by Cloud Storage.
const (
	StorageClassStandard = "STANDARD"
	StorageClassNearline = "NEARLINE"
	StorageClassColdline = "COLDLINE"
	StorageClassArchive  = "ARCHIVE"
)

// Storage optimization actions derived from the suggestion text.
const (
	ActionMove      = "move"
	ActionDelete    = "delete"
	ActionCompress  = "compress"
	ActionLifecycle = "lifecycle"
)

// Bucket is synthetic Cloud Storage bucket metadata.
type Bucket struct {
	Name         string    `json:"bucket_name"`
	SizeGB       float64   `json:"current_size_gb"`
	LastAccessed time.Time `json:"last_accessed"`
	Region       string    `json:"region"`
	StorageClass string    `json:"storage_class"`
}

// StorageSuggestion is one LLM recommendation for a bucket.
type StorageSuggestion struct {
	BucketName              string  `json:"bucket_name"`
	Issue                   string  `json:"issue"`
	Suggestion              string  `json:"suggestion"`
	EstimatedSavingsPercent float64 `json:"estimated_savings_percent"`
}

// StorageOptimizationResult is a priced storage recommendation.
type StorageOptimizationResult struct {
	BucketName              string    `json:"bucket_name"`
	CurrentSizeGB           float64   `json:"current_size_gb"`
	CurrentStorageClass     string    `json:"current_storage_class"`
	LastAccessed            time.Time `json:"last_accessed"`
	Issue                   string    `json:"issue"`
	Suggestion              string    `json:"suggestion"`
	EstimatedSavingsPercent float64   `json:"estimated_savings_percent"`
	EstimatedSavingsUSD     float64   `json:"estimated_savings_usd"`
	ActionType              string    `json:"action_type"`
}
