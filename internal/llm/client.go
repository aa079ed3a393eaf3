package llm

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/kiranshivaraju/costlab/internal/cache"
	"github.com/kiranshivaraju/costlab/internal/metrics"
	"github.com/kiranshivaraju/costlab/pkg/models"
	"golang.org/x/time/rate"
)

const (
	DefaultMaxAttempts = 3
	DefaultCacheTTL    = time.Hour
	initialWait        = time.Second
)

// Request describes one structured completion.
type Request struct {
	Prompt       string
	Shape        Shape
	RequiredKeys []string
}

// Client wraps a provider with retry, response caching and JSON validation.
// It is safe for concurrent use when the provider and cache are.
type Client struct {
	provider    models.LLMProvider
	cache       cache.Cache
	cacheTTL    time.Duration
	maxAttempts int
	limiter     *rate.Limiter
	newTimer    func() backoff.Timer
	metrics     *metrics.Metrics
	logger      *slog.Logger
}

// Option configures a Client.
type Option func(*Client)

// WithCache stores validated responses in c for ttl.
func WithCache(c cache.Cache, ttl time.Duration) Option {
	return func(cl *Client) {
		cl.cache = c
		cl.cacheTTL = ttl
	}
}

// WithMaxAttempts sets the total number of provider calls per request.
func WithMaxAttempts(n int) Option {
	return func(cl *Client) {
		if n > 0 {
			cl.maxAttempts = n
		}
	}
}

// WithRateLimit throttles outbound provider calls. Zero disables throttling.
func WithRateLimit(perSecond float64) Option {
	return func(cl *Client) {
		if perSecond > 0 {
			cl.limiter = rate.NewLimiter(rate.Limit(perSecond), 1)
		}
	}
}

// WithTimer replaces the backoff timer. Intended for tests.
func WithTimer(newTimer func() backoff.Timer) Option {
	return func(cl *Client) { cl.newTimer = newTimer }
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(cl *Client) { cl.metrics = m }
}

func WithLogger(l *slog.Logger) Option {
	return func(cl *Client) { cl.logger = l }
}

// NewClient creates a Client for provider.
func NewClient(provider models.LLMProvider, opts ...Option) *Client {
	c := &Client{
		provider:    provider,
		cacheTTL:    DefaultCacheTTL,
		maxAttempts: DefaultMaxAttempts,
		logger:      slog.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Provider returns the wrapped provider.
func (c *Client) Provider() models.LLMProvider { return c.provider }

// Complete sends prompt to the provider, retrying rate-limit and timeout
// failures. The wait before retry n (starting at 0) is 2^n seconds.
func (c *Client) Complete(ctx context.Context, prompt string) (string, error) {
	if strings.TrimSpace(prompt) == "" {
		return "", ErrEmptyPrompt
	}

	b := backoff.NewExponentialBackOff()
	b.InitialInterval = initialWait
	b.Multiplier = 2
	b.RandomizationFactor = 0
	b.MaxElapsedTime = 0

	var (
		text     string
		attempts int
		lastKind Kind
	)
	operation := func() error {
		attempts++
		if c.limiter != nil {
			if err := c.limiter.Wait(ctx); err != nil {
				return backoff.Permanent(err)
			}
		}

		start := time.Now()
		out, err := c.provider.Generate(ctx, prompt)
		elapsed := time.Since(start).Seconds()
		if err != nil {
			lastKind = Classify(err)
			c.metrics.RecordLLMRequest(c.provider.Name(), string(lastKind), elapsed)
			if !lastKind.Retryable() {
				return backoff.Permanent(err)
			}
			return err
		}
		c.metrics.RecordLLMRequest(c.provider.Name(), "success", elapsed)
		text = out
		return nil
	}

	notify := func(err error, wait time.Duration) {
		c.metrics.RecordLLMRetry(string(lastKind))
		c.logger.Warn("llm call failed, retrying",
			"provider", c.provider.Name(),
			"attempt", attempts,
			"kind", string(lastKind),
			"wait", wait,
			"error", err,
		)
	}

	var timer backoff.Timer
	if c.newTimer != nil {
		timer = c.newTimer()
	}

	policy := backoff.WithContext(backoff.WithMaxRetries(b, uint64(c.maxAttempts-1)), ctx)
	if err := backoff.RetryNotifyWithTimer(operation, policy, notify, timer); err != nil {
		kind := lastKind
		if kind == "" || (ctx.Err() != nil && errors.Is(err, ctx.Err())) {
			kind = Classify(err)
		}
		return "", &Error{Kind: kind, Attempts: attempts, Err: err}
	}
	return text, nil
}

// GenerateJSON completes req.Prompt, parses the reply as JSON and validates it
// against req.Shape and req.RequiredKeys. The normalized JSON is returned and
// cached under a hash of the provider, model and request.
func (c *Client) GenerateJSON(ctx context.Context, req Request) ([]byte, error) {
	if strings.TrimSpace(req.Prompt) == "" {
		return nil, ErrEmptyPrompt
	}

	key := cache.LLMResponseKey(c.provider.Name(), c.provider.Model(),
		cache.Hash(req.Prompt, req.Shape.String(), strings.Join(req.RequiredKeys, ",")))

	if c.cache != nil {
		data, found, err := c.cache.Get(ctx, key)
		if err != nil {
			c.logger.Warn("llm cache read failed", "error", err)
		} else if found {
			c.metrics.RecordLLMCacheHit()
			return data, nil
		}
	}

	text, err := c.Complete(ctx, req.Prompt)
	if err != nil {
		return nil, err
	}

	v, err := ParseJSON(text)
	if err != nil {
		return nil, err
	}
	if err := Validate(v, req.Shape, req.RequiredKeys); err != nil {
		return nil, err
	}

	data, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("encoding validated response: %w", err)
	}

	if c.cache != nil {
		if err := c.cache.Set(ctx, key, data, c.cacheTTL); err != nil {
			c.logger.Warn("llm cache write failed", "error", err)
		}
	}
	return data, nil
}

// decode unmarshals validated JSON into out, reporting type mismatches as
// invalid responses.
func decode(data []byte, out any) error {
	if err := json.Unmarshal(data, out); err != nil {
		return &Error{Kind: KindInvalidResponse, Err: fmt.Errorf("%w: %v", ErrInvalidResponse, err)}
	}
	return nil
}
