package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	mw "github.com/kiranshivaraju/costlab/internal/api/middleware"
	"github.com/kiranshivaraju/costlab/internal/api/response"
)

// Dependencies holds all handler and middleware dependencies for the router.
type Dependencies struct {
	RateLimit *mw.RateLimit

	HealthHandler   http.HandlerFunc
	ConfigHandler   http.HandlerFunc
	DatasetsHandler http.HandlerFunc
	MetricsHandler  http.Handler

	CreateSessionHandler http.HandlerFunc
	GetSessionHandler    http.HandlerFunc
	RunHandler           http.HandlerFunc
	ResultHandler        http.HandlerFunc
}

// NewRouter builds the Chi router with middleware stack and all routes.
func NewRouter(deps Dependencies) http.Handler {
	r := chi.NewRouter()

	// Global middleware
	r.Use(chimw.RequestID)
	r.Use(mw.Logger)
	r.Use(mw.Recovery)

	r.Get("/api/v1/health", orNotImplemented(deps.HealthHandler))
	if deps.MetricsHandler != nil {
		r.Handle("/metrics", deps.MetricsHandler)
	}

	r.Group(func(r chi.Router) {
		if deps.RateLimit != nil {
			r.Use(deps.RateLimit.Limit)
		}

		r.Get("/api/v1/config", orNotImplemented(deps.ConfigHandler))
		r.Get("/api/v1/datasets", orNotImplemented(deps.DatasetsHandler))
		r.Post("/api/v1/sessions", orNotImplemented(deps.CreateSessionHandler))

		r.Route("/api/v1/sessions/{id}", func(r chi.Router) {
			r.Use(mw.SessionID)

			r.Get("/", orNotImplemented(deps.GetSessionHandler))
			r.Post("/{domain}", orNotImplemented(deps.RunHandler))
			r.Get("/{domain}", orNotImplemented(deps.ResultHandler))
		})
	})

	return r
}

// orNotImplemented returns the handler if non-nil, or a 501 placeholder.
func orNotImplemented(h http.HandlerFunc) http.HandlerFunc {
	if h != nil {
		return h
	}
	return func(w http.ResponseWriter, r *http.Request) {
		response.Error(w, http.StatusNotImplemented, "NOT_IMPLEMENTED", "Endpoint not yet implemented", nil)
	}
}
