package bq

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/kiranshivaraju/costlab/internal/cache"
	"github.com/kiranshivaraju/costlab/internal/metrics"
	"github.com/kiranshivaraju/costlab/pkg/models"
)

const bytesPerTB = 1 << 40

// CostUSD prices a scan of bytes at perTB dollars per tebibyte.
func CostUSD(bytes int64, perTB float64) float64 {
	return float64(bytes) / bytesPerTB * perTB
}

// Client turns Estimator results into priced DryRunResults. Successful
// estimates are cached by query text.
type Client struct {
	estimator Estimator
	costPerTB float64
	cache     cache.Cache
	cacheTTL  time.Duration
	metrics   *metrics.Metrics
	logger    *slog.Logger
}

type Option func(*Client)

func WithCache(c cache.Cache, ttl time.Duration) Option {
	return func(cl *Client) {
		cl.cache = c
		cl.cacheTTL = ttl
	}
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(cl *Client) { cl.metrics = m }
}

func WithLogger(l *slog.Logger) Option {
	return func(cl *Client) { cl.logger = l }
}

func NewClient(estimator Estimator, costPerTB float64, opts ...Option) *Client {
	c := &Client{
		estimator: estimator,
		costPerTB: costPerTB,
		cacheTTL:  time.Hour,
		logger:    slog.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// DryRun estimates the cost of query. It never returns an error: failures
// are reported through Success, Error and ErrorKind with zero bytes and cost.
func (c *Client) DryRun(ctx context.Context, query string) models.DryRunResult {
	key := cache.DryRunKey(cache.Hash(query))

	if c.cache != nil {
		if data, found, err := c.cache.Get(ctx, key); err != nil {
			c.logger.Warn("dry-run cache read failed", "error", err)
		} else if found {
			var cached models.DryRunResult
			if err := json.Unmarshal(data, &cached); err == nil {
				c.metrics.RecordDryRunCacheHit()
				return cached
			}
		}
	}

	bytes, err := c.estimator.DryRun(ctx, query)
	if err != nil {
		c.metrics.RecordDryRun("failure")
		return models.DryRunResult{
			Success:   false,
			Error:     err.Error(),
			ErrorKind: string(ClassifyError(err)),
		}
	}

	c.metrics.RecordDryRun("success")
	result := models.DryRunResult{
		BytesProcessed:   bytes,
		EstimatedCostUSD: CostUSD(bytes, c.costPerTB),
		Success:          true,
	}

	if c.cache != nil {
		if data, err := json.Marshal(result); err == nil {
			if err := c.cache.Set(ctx, key, data, c.cacheTTL); err != nil {
				c.logger.Warn("dry-run cache write failed", "error", err)
			}
		}
	}
	return result
}
