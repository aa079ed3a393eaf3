// Package fanout dry-runs original/optimized query pairs concurrently with a
// fixed in-flight cap and collects outcomes in completion order.
package fanout

import (
	"context"
	"errors"
	"strings"

	"github.com/kiranshivaraju/costlab/internal/bq"
	"github.com/kiranshivaraju/costlab/internal/metrics"
	"github.com/kiranshivaraju/costlab/pkg/models"
	"golang.org/x/sync/errgroup"
)

// MaxInFlight bounds concurrent pairs so the estimation API is not flooded.
const MaxInFlight = 5

const maxErrorLen = 150

// AuthErrorMessage replaces the raw error when a dry run failed on credentials.
const AuthErrorMessage = "Authentication error - check credentials"

const authHint = "check GOOGLE_APPLICATION_CREDENTIALS and that the service account can run BigQuery jobs"

// ErrAllPairsFailed is returned by Report.Err when no pair succeeded.
var ErrAllPairsFailed = errors.New("no queries were successfully optimized")

// DryRunner estimates a query. Implementations report failure inside the
// result rather than as an error and must be safe for concurrent use.
type DryRunner interface {
	DryRun(ctx context.Context, query string) models.DryRunResult
}

// Pair is one query and its proposed rewrite.
type Pair struct {
	ID        string
	Original  string
	Optimized string
}

// Outcome is the result of dry-running a Pair. When Success is false, Error
// and Hint are safe to show users, Cause holds the truncated provider text
// for logs and debug output, and After may be empty.
type Outcome struct {
	Pair        Pair
	Before      models.DryRunResult
	After       models.DryRunResult
	Success     bool
	Error       string
	Hint        string
	Cause       string
	AuthFailure bool
}

// Report collects every outcome of a batch in completion order.
type Report struct {
	Outcomes []Outcome
}

// Succeeded returns the successful outcomes.
func (r Report) Succeeded() []Outcome {
	var out []Outcome
	for _, o := range r.Outcomes {
		if o.Success {
			out = append(out, o)
		}
	}
	return out
}

// Failed returns the failed outcomes.
func (r Report) Failed() []Outcome {
	var out []Outcome
	for _, o := range r.Outcomes {
		if !o.Success {
			out = append(out, o)
		}
	}
	return out
}

// Err returns ErrAllPairsFailed when the batch produced no successful pair.
func (r Report) Err() error {
	if len(r.Succeeded()) == 0 {
		return ErrAllPairsFailed
	}
	return nil
}

// ProgressFunc is called on the caller's goroutine each time a pair is
// drained, with the number of pairs completed so far.
type ProgressFunc func(done, total int)

type options struct {
	limit   int
	metrics *metrics.Metrics
}

type Option func(*options)

// WithLimit overrides MaxInFlight.
func WithLimit(n int) Option {
	return func(o *options) {
		if n > 0 {
			o.limit = n
		}
	}
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(o *options) { o.metrics = m }
}

// Run dry-runs every pair with at most MaxInFlight pairs in flight. A failing
// pair never stops its siblings; the batch always runs to completion. onDone
// may be nil.
func Run(ctx context.Context, runner DryRunner, pairs []Pair, onDone ProgressFunc, opts ...Option) Report {
	o := options{limit: MaxInFlight}
	for _, opt := range opts {
		opt(&o)
	}

	results := make(chan Outcome, len(pairs))

	var g errgroup.Group
	g.SetLimit(o.limit)

	go func() {
		for _, p := range pairs {
			g.Go(func() error {
				o.metrics.AddInflight(1)
				defer o.metrics.AddInflight(-1)

				results <- runPair(ctx, runner, p)
				return nil
			})
		}
		_ = g.Wait()
		close(results)
	}()

	report := Report{Outcomes: make([]Outcome, 0, len(pairs))}
	for out := range results {
		report.Outcomes = append(report.Outcomes, out)
		if onDone != nil {
			onDone(len(report.Outcomes), len(pairs))
		}
	}
	return report
}

// runPair stops after the original query when its estimate fails.
func runPair(ctx context.Context, runner DryRunner, p Pair) Outcome {
	out := Outcome{Pair: p}

	out.Before = runner.DryRun(ctx, p.Original)
	if !out.Before.Success {
		out.describe("Original query failed: ", out.Before)
		return out
	}

	out.After = runner.DryRun(ctx, p.Optimized)
	if !out.After.Success {
		out.describe("Optimized query failed: ", out.After)
		return out
	}

	out.Success = true
	return out
}

func (o *Outcome) describe(prefix string, res models.DryRunResult) {
	raw := res.Error
	if raw == "" {
		raw = "Unknown error"
	}
	o.Cause = truncate(raw, maxErrorLen)

	if IsAuthFailure(raw) {
		o.AuthFailure = true
		o.Error = AuthErrorMessage
		o.Hint = authHint
		return
	}

	kind := bq.ErrorKind(res.ErrorKind)
	if kind == "" || kind == bq.ErrorUnknown {
		kind = bq.ClassifyText(raw)
	}
	o.Error = prefix + kind.UserMessage()
	o.Hint = kind.Hint()
}

// IsAuthFailure reports whether an estimate error looks like a credentials
// problem.
func IsAuthFailure(text string) bool {
	return strings.Contains(text, "401") ||
		strings.Contains(text, "UNAUTHENTICATED") ||
		strings.Contains(strings.ToLower(text), "authentication")
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}
