package models

// TrainingJob is synthetic ML training job metadata.
type TrainingJob struct {
	JobName               string  `json:"job_name"`
	GPUHours              float64 `json:"gpu_hours"`
	CPUHours              float64 `json:"cpu_hours"`
	PeakNodes             int     `json:"peak_nodes"`
	AcceleratorType       string  `json:"accelerator_type"`
	TrainingDurationHours float64 `json:"training_duration_hours"`
	EstimatedCost         float64 `json:"estimated_cost"`
}

// MLConfig is a job configuration as described by the LLM. Keys are free-form;
// accelerator_type, gpu_hours and spot_vm are the ones the prompt asks for.
type MLConfig map[string]any

// Accelerator returns the accelerator_type entry, or "Unknown" when absent.
func (c MLConfig) Accelerator() string {
	if v, ok := c["accelerator_type"].(string); ok && v != "" {
		return v
	}
	return "Unknown"
}

// MLSuggestion is one LLM recommendation for a training job.
type MLSuggestion struct {
	JobName                 string   `json:"job_name"`
	CurrentConfig           MLConfig `json:"current_config"`
	SuggestedConfig         MLConfig `json:"suggested_config"`
	OptimizationType        string   `json:"optimization_type"`
	EstimatedSavingsPercent float64  `json:"estimated_savings_percent"`
}

// MLOptimizationResult is a priced compute recommendation.
type MLOptimizationResult struct {
	JobName                 string  `json:"job_name"`
	CurrentAccelerator      string  `json:"current_accelerator"`
	SuggestedAccelerator    string  `json:"suggested_accelerator"`
	CurrentCost             float64 `json:"current_cost"`
	SuggestedCost           float64 `json:"suggested_cost"`
	OptimizationType        string  `json:"optimization_type"`
	EstimatedSavingsPercent float64 `json:"estimated_savings_percent"`
	ImplementationNotes     string  `json:"implementation_notes"`
}
