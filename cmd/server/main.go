// Package main is the entrypoint for the costlab API server.
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/kiranshivaraju/costlab/internal/api"
	"github.com/kiranshivaraju/costlab/internal/api/handler"
	mw "github.com/kiranshivaraju/costlab/internal/api/middleware"
	"github.com/kiranshivaraju/costlab/internal/app"
	"github.com/kiranshivaraju/costlab/internal/config"
	"github.com/kiranshivaraju/costlab/internal/metrics"
	"github.com/kiranshivaraju/costlab/internal/session"
)

const (
	shutdownTimeout = 30 * time.Second
	// A SQL run makes up to ten sequential LLM calls before its dry runs.
	writeTimeout = 5 * time.Minute
)

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
	slog.SetDefault(logger)

	if err := run(); err != nil {
		slog.Error("server failed", "error", err)
		os.Exit(1)
	}
}

// newRegistry returns a registry carrying the Go runtime and process collectors.
func newRegistry() *prometheus.Registry {
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	return reg
}

func run() error {
	// 1. Load config. Missing credentials are reported per request, not here.
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	slog.Info("config loaded", "ai_provider", cfg.AI.Provider, "env", cfg.Server.Env)
	if problems := cfg.Validate(); len(problems) > 0 {
		slog.Warn("configuration incomplete, workflows will fail until fixed", "problems", problems)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// 2. Metrics
	reg := newRegistry()
	m := metrics.New(reg)

	// 3. Cache, providers and workflow runner
	a, err := app.Build(ctx, cfg, m, slog.Default())
	if err != nil {
		return fmt.Errorf("build app: %w", err)
	}
	defer a.Close()
	slog.Info("cache connected", "redis", cfg.Redis.URL != "")

	// 4. Start HTTP server
	addr := fmt.Sprintf(":%d", cfg.Server.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      newHandler(a, reg),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: writeTimeout,
		IdleTimeout:  60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		slog.Info("server listening", "addr", addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("server error: %w", err)
	case <-ctx.Done():
		slog.Info("shutdown signal received, draining connections...")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown: %w", err)
	}

	slog.Info("server stopped gracefully")
	return nil
}

// newHandler builds the router with every handler wired to a.
func newHandler(a *app.App, reg *prometheus.Registry) http.Handler {
	cfg := a.Config
	sessions := &handler.Sessions{
		Store:    session.NewStore(a.Cache, cfg.Session.TTL),
		Workflow: a.Runner,
		Datasets: config.DefaultDatasets,
		Pricing:  cfg.Pricing,
		Debug:    cfg.IsDevelopment(),
	}

	return api.NewRouter(api.Dependencies{
		RateLimit: mw.NewRateLimit(a.Cache, cfg.Server.RateLimitPerMinute),

		HealthHandler:   handler.NewHealthHandler(a.Cache),
		ConfigHandler:   handler.NewConfigHandler(cfg),
		DatasetsHandler: handler.NewDatasetsHandler(config.DefaultDatasets),
		MetricsHandler:  promhttp.HandlerFor(reg, promhttp.HandlerOpts{Registry: reg}),

		CreateSessionHandler: sessions.Create,
		GetSessionHandler:    sessions.Get,
		RunHandler:           sessions.Run,
		ResultHandler:        sessions.Result,
	})
}
