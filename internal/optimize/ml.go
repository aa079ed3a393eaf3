package optimize

import (
	"fmt"
	"strings"

	"github.com/kiranshivaraju/costlab/pkg/models"
)

const defaultMLNote = "Review AI suggestions and implement recommended changes"

// ImplementationNotes lists the steps implied by an optimization type,
// joined with " | ".
func ImplementationNotes(optimizationType string, current, suggested models.MLConfig) string {
	t := strings.ToLower(optimizationType)
	var notes []string

	if strings.Contains(t, "spot") {
		notes = append(notes,
			"Enable spot/preemptible VMs in Vertex AI training configuration",
			"Implement checkpointing to handle potential interruptions")
	}
	if strings.Contains(t, "downgrade") || strings.Contains(t, "machine_type") {
		notes = append(notes,
			fmt.Sprintf("Change accelerator from %s to %s", current.Accelerator(), suggested.Accelerator()),
			"Test model performance with new accelerator type")
	}
	if strings.Contains(t, "autoscaling") {
		notes = append(notes,
			"Configure autoscaling policies in Vertex AI",
			"Set appropriate min/max node counts")
	}
	if strings.Contains(t, "caching") {
		notes = append(notes,
			"Enable Vertex AI caching for preprocessing steps",
			"Cache feature engineering pipelines")
	}

	if len(notes) == 0 {
		return defaultMLNote
	}
	return strings.Join(notes, " | ")
}

// MLJobs prices each suggestion against its job's estimated cost.
// Suggestions naming an unknown job are dropped.
func MLJobs(jobs []models.TrainingJob, suggestions []models.MLSuggestion) ([]models.MLOptimizationResult, error) {
	byName := make(map[string]models.TrainingJob, len(jobs))
	for _, j := range jobs {
		byName[j.JobName] = j
	}

	var out []models.MLOptimizationResult
	for _, s := range suggestions {
		j, ok := byName[s.JobName]
		if !ok {
			continue
		}
		out = append(out, models.MLOptimizationResult{
			JobName:                 j.JobName,
			CurrentAccelerator:      s.CurrentConfig.Accelerator(),
			SuggestedAccelerator:    s.SuggestedConfig.Accelerator(),
			CurrentCost:             j.EstimatedCost,
			SuggestedCost:           j.EstimatedCost * (1 - s.EstimatedSavingsPercent/100),
			OptimizationType:        s.OptimizationType,
			EstimatedSavingsPercent: s.EstimatedSavingsPercent,
			ImplementationNotes:     ImplementationNotes(s.OptimizationType, s.CurrentConfig, s.SuggestedConfig),
		})
	}
	if len(out) == 0 {
		return nil, ErrNoRecommendations
	}
	return out, nil
}

// MLSummary totals job costs.
func MLSummary(results []models.MLOptimizationResult) Summary {
	var current, suggested, pct float64
	for _, r := range results {
		current += r.CurrentCost
		suggested += r.SuggestedCost
		pct += r.EstimatedSavingsPercent
	}
	return summarize(len(results), current, suggested, pct)
}
