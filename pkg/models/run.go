package models

import (
	"time"

	"github.com/google/uuid"
)

const (
	RunStatusCompleted = "completed"
	RunStatusEmpty     = "empty"
	RunStatusFailed    = "failed"
)

// Optimization domains.
const (
	DomainSQL      = "sql"
	DomainStorage  = "storage"
	DomainSchedule = "schedules"
	DomainML       = "ml"
)

// Run records one execution of a domain workflow. Warnings carry per-item
// failures that did not stop the run.
type Run struct {
	ID           uuid.UUID `json:"id"`
	Domain       string    `json:"domain"`
	Status       string    `json:"status"`
	Provider     string    `json:"provider"`
	Model        string    `json:"model"`
	Warnings     []string  `json:"warnings,omitempty"`
	ErrorMessage *string   `json:"error_message,omitempty"`
	StartedAt    time.Time `json:"started_at"`
	CompletedAt  time.Time `json:"completed_at"`
}
