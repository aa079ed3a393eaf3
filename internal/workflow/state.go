package workflow

import (
	"github.com/kiranshivaraju/costlab/internal/optimize"
	"github.com/kiranshivaraju/costlab/pkg/models"
)

// State is everything a session knows about its latest run in each domain.
// A nil domain has not been run yet. Workflows never mutate the State they
// are given; they return a copy with one domain replaced.
type State struct {
	SQL      *SQLState      `json:"sql,omitempty"`
	Storage  *StorageState  `json:"storage,omitempty"`
	Schedule *ScheduleState `json:"schedules,omitempty"`
	ML       *MLState       `json:"ml,omitempty"`
}

type SQLState struct {
	Run     models.Run                     `json:"run"`
	Dataset models.Dataset                 `json:"dataset"`
	Queries []string                       `json:"queries"`
	Results []models.SQLOptimizationResult `json:"results"`
	Summary optimize.Summary               `json:"summary"`
	Notices []Notice                       `json:"notices,omitempty"`
}

type StorageState struct {
	Run         models.Run                         `json:"run"`
	Buckets     []models.Bucket                    `json:"buckets"`
	Suggestions []models.StorageSuggestion         `json:"suggestions"`
	Results     []models.StorageOptimizationResult `json:"results"`
	Summary     optimize.Summary                   `json:"summary"`
	Notices     []Notice                           `json:"notices,omitempty"`
}

type ScheduleState struct {
	Run        models.Run                          `json:"run"`
	Schedules  []models.ScheduledQuery             `json:"schedules"`
	Analysis   *models.ScheduleAnalysis            `json:"analysis,omitempty"`
	Results    []models.ScheduleOptimizationResult `json:"results"`
	Summary    optimize.Summary                    `json:"summary"`
	Projection optimize.Projection                 `json:"projection"`
	Notices    []Notice                            `json:"notices,omitempty"`
}

type MLState struct {
	Run         models.Run                    `json:"run"`
	Jobs        []models.TrainingJob          `json:"jobs"`
	Suggestions []models.MLSuggestion         `json:"suggestions"`
	Results     []models.MLOptimizationResult `json:"results"`
	Summary     optimize.Summary              `json:"summary"`
	Notices     []Notice                      `json:"notices,omitempty"`
}

// Run returns the run record for domain, or nil when it has not run.
func (s State) Run(domain string) *models.Run {
	switch domain {
	case models.DomainSQL:
		if s.SQL != nil {
			return &s.SQL.Run
		}
	case models.DomainStorage:
		if s.Storage != nil {
			return &s.Storage.Run
		}
	case models.DomainSchedule:
		if s.Schedule != nil {
			return &s.Schedule.Run
		}
	case models.DomainML:
		if s.ML != nil {
			return &s.ML.Run
		}
	}
	return nil
}
