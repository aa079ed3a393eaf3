package optimize

import (
	"strings"

	"github.com/kiranshivaraju/costlab/internal/config"
	"github.com/kiranshivaraju/costlab/pkg/models"
)

// ActionType derives the storage action from the suggestion text.
func ActionType(suggestion string) string {
	s := strings.ToLower(suggestion)
	switch {
	case strings.Contains(s, "delete") || strings.Contains(s, "remove"):
		return models.ActionDelete
	case strings.Contains(s, "compress"):
		return models.ActionCompress
	case strings.Contains(s, "lifecycle"):
		return models.ActionLifecycle
	default:
		return models.ActionMove
	}
}

// MonthlyStorageCost prices a bucket at its current class.
func MonthlyStorageCost(b models.Bucket, pricing config.PricingConfig) float64 {
	return b.SizeGB * pricing.TierRate(b.StorageClass)
}

// Storage prices each suggestion against its bucket. Suggestions naming an
// unknown bucket are dropped.
func Storage(buckets []models.Bucket, suggestions []models.StorageSuggestion, pricing config.PricingConfig) ([]models.StorageOptimizationResult, error) {
	byName := make(map[string]models.Bucket, len(buckets))
	for _, b := range buckets {
		byName[b.Name] = b
	}

	var out []models.StorageOptimizationResult
	for _, s := range suggestions {
		b, ok := byName[s.BucketName]
		if !ok {
			continue
		}
		out = append(out, models.StorageOptimizationResult{
			BucketName:              b.Name,
			CurrentSizeGB:           b.SizeGB,
			CurrentStorageClass:     b.StorageClass,
			LastAccessed:            b.LastAccessed,
			Issue:                   s.Issue,
			Suggestion:              s.Suggestion,
			EstimatedSavingsPercent: s.EstimatedSavingsPercent,
			EstimatedSavingsUSD:     MonthlyStorageCost(b, pricing) * s.EstimatedSavingsPercent / 100,
			ActionType:              ActionType(s.Suggestion),
		})
	}
	if len(out) == 0 {
		return nil, ErrNoRecommendations
	}
	return out, nil
}

// StorageSummary prices every bucket for the current cost and subtracts the
// recommended savings.
func StorageSummary(buckets []models.Bucket, results []models.StorageOptimizationResult, pricing config.PricingConfig) Summary {
	var current, savings, pct float64
	for _, b := range buckets {
		current += MonthlyStorageCost(b, pricing)
	}
	for _, r := range results {
		savings += r.EstimatedSavingsUSD
		pct += r.EstimatedSavingsPercent
	}
	return summarize(len(results), current, current-savings, pct)
}
