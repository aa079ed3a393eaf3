// Package app wires configuration into the cache, providers and workflow
// runner shared by the server and the CLI.
package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/kiranshivaraju/costlab/internal/bq"
	"github.com/kiranshivaraju/costlab/internal/cache"
	"github.com/kiranshivaraju/costlab/internal/config"
	"github.com/kiranshivaraju/costlab/internal/llm"
	"github.com/kiranshivaraju/costlab/internal/metrics"
	"github.com/kiranshivaraju/costlab/internal/workflow"
)

// App holds the long-lived components built from a Config.
type App struct {
	Config *config.Config
	Cache  cache.Cache
	Runner *workflow.Runner

	closers []func() error
}

// Build connects the cache and constructs the runner. Provider and BigQuery
// construction failures are logged rather than returned: the runner reports
// them as configuration errors when a workflow needs them, so the server can
// still start and explain what is missing.
func Build(ctx context.Context, cfg *config.Config, m *metrics.Metrics, logger *slog.Logger, opts ...workflow.Option) (*App, error) {
	c, err := cache.New(cfg.Redis.URL)
	if err != nil {
		return nil, fmt.Errorf("create cache: %w", err)
	}
	if err := c.Ping(ctx); err != nil {
		c.Close()
		return nil, fmt.Errorf("ping cache: %w", err)
	}

	a := &App{Config: cfg, Cache: c, closers: []func() error{c.Close}}

	var optimizer workflow.Optimizer
	provider, err := llm.NewProvider(cfg.AI)
	if err != nil {
		logger.Warn("AI provider unavailable", "error", err)
	} else {
		client := llm.NewClient(provider,
			llm.WithCache(c, cfg.AI.CacheTTL),
			llm.WithMaxAttempts(cfg.AI.MaxAttempts),
			llm.WithRateLimit(cfg.AI.RequestsPerSecond),
			llm.WithMetrics(m),
			llm.WithLogger(logger),
		)
		optimizer = llm.NewOptimizer(client, cfg.Pricing)
		logger.Info("AI provider initialized", "provider", provider.Name(), "model", provider.Model())
	}

	runnerOpts := []workflow.Option{workflow.WithMetrics(m), workflow.WithLogger(logger)}
	if cfg.GCP.ProjectID != "" {
		est, err := bq.NewBigQueryEstimator(ctx, cfg.GCP)
		if err != nil {
			logger.Warn("BigQuery unavailable, SQL optimization disabled", "error", err)
		} else {
			a.closers = append(a.closers, est.Close)
			dry := bq.NewClient(est, cfg.Pricing.BigQueryCostPerTB,
				bq.WithCache(c, cfg.GCP.DryRunCacheTTL),
				bq.WithMetrics(m),
				bq.WithLogger(logger),
			)
			runnerOpts = append(runnerOpts, workflow.WithDryRunner(dry), workflow.WithSchemaFetcher(est))
		}
	}

	a.Runner = workflow.NewRunner(cfg, optimizer, append(runnerOpts, opts...)...)
	return a, nil
}

// Close releases every component in reverse construction order.
func (a *App) Close() error {
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
