package handler

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	mw "github.com/kiranshivaraju/costlab/internal/api/middleware"
	"github.com/kiranshivaraju/costlab/internal/api/response"
	"github.com/kiranshivaraju/costlab/internal/config"
	"github.com/kiranshivaraju/costlab/internal/render"
	"github.com/kiranshivaraju/costlab/internal/session"
	"github.com/kiranshivaraju/costlab/internal/workflow"
	"github.com/kiranshivaraju/costlab/pkg/models"
)

// Item counts used when a run request leaves count unset.
const (
	DefaultSQLCount = 5
	DefaultCount    = 10
)

// SessionStore defines the session operations the handlers depend on.
type SessionStore interface {
	Create(ctx context.Context) (uuid.UUID, error)
	Load(ctx context.Context, id uuid.UUID) (workflow.State, error)
	Save(ctx context.Context, id uuid.UUID, st workflow.State) error
}

// Workflow defines the interface the run handler depends on.
type Workflow interface {
	Run(ctx context.Context, state workflow.State, domain string, ds models.Dataset, count int) (workflow.State, error)
}

// Sessions serves the session and workflow endpoints.
type Sessions struct {
	Store    SessionStore
	Workflow Workflow
	Datasets []models.Dataset
	Pricing  config.PricingConfig
	// Debug adds raw provider errors to error messages.
	Debug bool
}

var domains = map[string]bool{
	models.DomainSQL:      true,
	models.DomainStorage:  true,
	models.DomainSchedule: true,
	models.DomainML:       true,
}

// Create handles POST /api/v1/sessions.
func (s *Sessions) Create(w http.ResponseWriter, r *http.Request) {
	id, err := s.Store.Create(r.Context())
	if err != nil {
		response.Error(w, http.StatusServiceUnavailable, "SESSION_STORE_UNAVAILABLE",
			"Could not create session", nil)
		return
	}
	response.Created(w, map[string]string{"session_id": id.String()})
}

type sessionResponse struct {
	SessionID string                 `json:"session_id"`
	Runs      map[string]*models.Run `json:"runs"`
}

// Get handles GET /api/v1/sessions/{id}. It lists the latest run per domain.
func (s *Sessions) Get(w http.ResponseWriter, r *http.Request) {
	id, st, ok := s.load(w, r)
	if !ok {
		return
	}

	runs := make(map[string]*models.Run, len(domains))
	for d := range domains {
		if run := st.Run(d); run != nil {
			runs[d] = run
		}
	}
	response.JSON(w, sessionResponse{SessionID: id.String(), Runs: runs})
}

type runRequest struct {
	Count   int    `json:"count"`
	Dataset string `json:"dataset"`
}

// Run handles POST /api/v1/sessions/{id}/{domain}. It runs the workflow
// synchronously and stores the new domain state on success.
func (s *Sessions) Run(w http.ResponseWriter, r *http.Request) {
	domain, ok := s.domain(w, r)
	if !ok {
		return
	}

	var req runRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
		response.Error(w, http.StatusBadRequest, "INVALID_REQUEST", "Invalid JSON body", nil)
		return
	}
	if req.Count < 0 {
		response.Error(w, http.StatusBadRequest, "INVALID_REQUEST", "count must not be negative", nil)
		return
	}
	if req.Count == 0 {
		req.Count = DefaultCount
		if domain == models.DomainSQL {
			req.Count = DefaultSQLCount
		}
	}

	var ds models.Dataset
	if domain == models.DomainSQL {
		ds, ok = lookupDataset(s.Datasets, req.Dataset)
		if !ok {
			response.Error(w, http.StatusBadRequest, "UNKNOWN_DATASET",
				"dataset must name one of the datasets listed by /api/v1/datasets", nil)
			return
		}
	}

	id, st, ok := s.load(w, r)
	if !ok {
		return
	}

	next, err := s.Workflow.Run(r.Context(), st, domain, ds, req.Count)
	if err != nil {
		writeWorkflowError(w, err, s.Debug)
		return
	}

	// Re-read so concurrent runs of other domains are not overwritten.
	latest, err := s.Store.Load(r.Context(), id)
	if err != nil {
		latest = st
	}
	if err := s.Store.Save(r.Context(), id, withDomain(latest, next, domain)); err != nil {
		response.Error(w, http.StatusServiceUnavailable, "SESSION_STORE_UNAVAILABLE",
			"Optimization finished but the result could not be saved", nil)
		return
	}

	v, _ := render.ViewOf(next, domain, s.Pricing)
	response.JSON(w, v)
}

// Result handles GET /api/v1/sessions/{id}/{domain}.
func (s *Sessions) Result(w http.ResponseWriter, r *http.Request) {
	domain, ok := s.domain(w, r)
	if !ok {
		return
	}
	_, st, ok := s.load(w, r)
	if !ok {
		return
	}

	v, found := render.ViewOf(st, domain, s.Pricing)
	if !found {
		response.Error(w, http.StatusNotFound, "RESULT_NOT_FOUND",
			"No "+domain+" optimization has been run in this session", nil)
		return
	}
	response.JSON(w, v)
}

func (s *Sessions) domain(w http.ResponseWriter, r *http.Request) (string, bool) {
	domain := chi.URLParam(r, "domain")
	if !domains[domain] {
		response.Error(w, http.StatusNotFound, "UNKNOWN_DOMAIN",
			"domain must be one of sql, storage, schedules, ml", nil)
		return "", false
	}
	return domain, true
}

func (s *Sessions) load(w http.ResponseWriter, r *http.Request) (uuid.UUID, workflow.State, bool) {
	id, ok := mw.GetSessionID(r)
	if !ok {
		response.Error(w, http.StatusBadRequest, "INVALID_SESSION_ID", "Missing session ID", nil)
		return uuid.Nil, workflow.State{}, false
	}

	st, err := s.Store.Load(r.Context(), id)
	switch {
	case errors.Is(err, session.ErrNotFound):
		response.Error(w, http.StatusNotFound, "SESSION_NOT_FOUND",
			"Session not found or expired", nil)
		return uuid.Nil, workflow.State{}, false
	case err != nil:
		response.Error(w, http.StatusServiceUnavailable, "SESSION_STORE_UNAVAILABLE",
			"Could not load session", nil)
		return uuid.Nil, workflow.State{}, false
	}
	return id, st, true
}

// lookupDataset matches by display name or by dataset.table. An empty name
// selects the first dataset.
func lookupDataset(datasets []models.Dataset, name string) (models.Dataset, bool) {
	if len(datasets) == 0 {
		return models.Dataset{}, false
	}
	if name == "" {
		return datasets[0], true
	}
	for _, d := range datasets {
		if d.Name == name || d.FullTable() == name {
			return d, true
		}
	}
	return models.Dataset{}, false
}

func withDomain(dst, src workflow.State, domain string) workflow.State {
	switch domain {
	case models.DomainSQL:
		dst.SQL = src.SQL
	case models.DomainStorage:
		dst.Storage = src.Storage
	case models.DomainSchedule:
		dst.Schedule = src.Schedule
	case models.DomainML:
		dst.ML = src.ML
	}
	return dst
}

type workflowErrorDetails struct {
	Kind string `json:"kind"`
	Step string `json:"step"`
	Hint string `json:"hint,omitempty"`
}

func writeWorkflowError(w http.ResponseWriter, err error, debug bool) {
	var we *workflow.Error
	if !errors.As(err, &we) {
		response.Error(w, http.StatusInternalServerError, "INTERNAL_ERROR",
			"An unexpected error occurred", nil)
		return
	}

	status := http.StatusBadGateway
	switch we.Kind {
	case workflow.KindConfiguration:
		status = http.StatusServiceUnavailable
	case workflow.KindProviderTransient:
		status = http.StatusServiceUnavailable
		w.Header().Set("Retry-After", strconv.Itoa(30))
	}

	msg := we.Message
	if debug && we.Err != nil {
		msg += ": " + we.Err.Error()
	}
	response.Error(w, status, codeFor(we.Kind), msg, workflowErrorDetails{
		Kind: string(we.Kind),
		Step: we.Step,
		Hint: we.Hint,
	})
}

func codeFor(k workflow.Kind) string {
	switch k {
	case workflow.KindConfiguration:
		return "CONFIGURATION_ERROR"
	case workflow.KindProviderTransient:
		return "PROVIDER_UNAVAILABLE"
	case workflow.KindProviderFatal:
		return "PROVIDER_ERROR"
	case workflow.KindPartialBatchFailure:
		return "BATCH_FAILED"
	default:
		return "WORKFLOW_ERROR"
	}
}
