package handler

import (
	"context"
	"net/http"

	"github.com/kiranshivaraju/costlab/internal/api/response"
	"github.com/kiranshivaraju/costlab/internal/config"
	"github.com/kiranshivaraju/costlab/pkg/models"
)

// Pinger is satisfied by the cache.
type Pinger interface {
	Ping(ctx context.Context) error
}

// NewHealthHandler returns an http.HandlerFunc for GET /api/v1/health.
func NewHealthHandler(c Pinger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		checks := map[string]string{"cache": "ok"}
		if err := c.Ping(r.Context()); err != nil {
			checks["cache"] = "degraded"
			response.Error(w, http.StatusServiceUnavailable, "DEGRADED",
				"One or more services degraded", checks)
			return
		}

		response.JSON(w, map[string]any{
			"status":   "ok",
			"services": checks,
		})
	}
}

type configResponse struct {
	Valid       bool                 `json:"valid"`
	Problems    []string             `json:"problems"`
	Environment string               `json:"environment"`
	Provider    string               `json:"provider"`
	Model       string               `json:"model"`
	ProjectID   string               `json:"project_id"`
	Pricing     config.PricingConfig `json:"pricing"`
}

// NewConfigHandler returns an http.HandlerFunc for GET /api/v1/config. It
// reports configuration problems without exposing credentials.
func NewConfigHandler(cfg *config.Config) http.HandlerFunc {
	return func(w http.ResponseWriter, _ *http.Request) {
		problems := cfg.Validate()
		if problems == nil {
			problems = []string{}
		}

		model := cfg.AI.Gemini.Model
		if cfg.AI.Provider == config.ProviderOpenAI {
			model = cfg.AI.OpenAI.Model
		}

		response.JSON(w, configResponse{
			Valid:       len(problems) == 0,
			Problems:    problems,
			Environment: cfg.Server.Env,
			Provider:    cfg.AI.Provider,
			Model:       model,
			ProjectID:   cfg.GCP.ProjectID,
			Pricing:     cfg.Pricing,
		})
	}
}

// NewDatasetsHandler returns an http.HandlerFunc for GET /api/v1/datasets.
func NewDatasetsHandler(datasets []models.Dataset) http.HandlerFunc {
	return func(w http.ResponseWriter, _ *http.Request) {
		response.JSON(w, datasets)
	}
}
