package fanout_test

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/kiranshivaraju/costlab/internal/bq"
	"github.com/kiranshivaraju/costlab/internal/fanout"
	"github.com/kiranshivaraju/costlab/internal/metrics"
	"github.com/kiranshivaraju/costlab/pkg/models"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// --- helpers ---

type stubRunner struct {
	mu      sync.Mutex
	results map[string]models.DryRunResult
	calls   []string
	delay   time.Duration

	inflight atomic.Int64
	peak     atomic.Int64
}

func (s *stubRunner) DryRun(_ context.Context, q string) models.DryRunResult {
	n := s.inflight.Add(1)
	defer s.inflight.Add(-1)
	for {
		p := s.peak.Load()
		if n <= p || s.peak.CompareAndSwap(p, n) {
			break
		}
	}
	if s.delay > 0 {
		time.Sleep(s.delay)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls = append(s.calls, q)
	if r, ok := s.results[q]; ok {
		return r
	}
	return models.DryRunResult{Success: true, BytesProcessed: 100}
}

func (s *stubRunner) called(q string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, c := range s.calls {
		if c == q {
			return true
		}
	}
	return false
}

func failed(msg string) models.DryRunResult {
	return models.DryRunResult{Success: false, Error: msg}
}

func pairs(n int) []fanout.Pair {
	out := make([]fanout.Pair, n)
	for i := range out {
		out[i] = fanout.Pair{
			ID:        fmt.Sprintf("Query %d", i+1),
			Original:  fmt.Sprintf("orig-%d", i),
			Optimized: fmt.Sprintf("opt-%d", i),
		}
	}
	return out
}

// --- Run ---

func TestRun_AllSucceed(t *testing.T) {
	r := &stubRunner{results: map[string]models.DryRunResult{
		"orig-0": {Success: true, BytesProcessed: 1000, EstimatedCostUSD: 1},
		"opt-0":  {Success: true, BytesProcessed: 100, EstimatedCostUSD: 0.1},
	}}

	report := fanout.Run(context.Background(), r, pairs(3), nil)

	require.Len(t, report.Outcomes, 3)
	assert.Len(t, report.Succeeded(), 3)
	assert.Empty(t, report.Failed())
	assert.NoError(t, report.Err())

	for _, o := range report.Outcomes {
		if o.Pair.ID == "Query 1" {
			assert.Equal(t, int64(1000), o.Before.BytesProcessed)
			assert.Equal(t, int64(100), o.After.BytesProcessed)
		}
	}
}

func TestRun_OriginalFailureSkipsOptimized(t *testing.T) {
	r := &stubRunner{results: map[string]models.DryRunResult{
		"orig-0": failed("Syntax error: Unexpected keyword"),
	}}

	report := fanout.Run(context.Background(), r, pairs(1), nil)

	require.Len(t, report.Outcomes, 1)
	o := report.Outcomes[0]
	assert.False(t, o.Success)
	assert.False(t, o.AuthFailure)
	assert.Equal(t, "Original query failed: Invalid SQL syntax. Please check your query for errors.", o.Error)
	assert.Equal(t, bq.ErrorSyntax.Hint(), o.Hint)
	assert.Equal(t, "Syntax error: Unexpected keyword", o.Cause)
	assert.False(t, r.called("opt-0"))
	assert.ErrorIs(t, report.Err(), fanout.ErrAllPairsFailed)
}

func TestRun_OptimizedFailure(t *testing.T) {
	r := &stubRunner{results: map[string]models.DryRunResult{
		"opt-0": failed("Unrecognized name: user_id"),
	}}

	report := fanout.Run(context.Background(), r, pairs(1), nil)

	o := report.Outcomes[0]
	assert.False(t, o.Success)
	assert.Equal(t, "Optimized query failed: BigQuery could not estimate this query.", o.Error)
	assert.NotContains(t, o.Error, "user_id")
	assert.Equal(t, "Unrecognized name: user_id", o.Cause)
}

func TestRun_UsesClassifiedKindFromResult(t *testing.T) {
	r := &stubRunner{results: map[string]models.DryRunResult{
		"orig-0": {Success: false, Error: "googleapi: Error 404: dataset x:y was deleted", ErrorKind: string(bq.ErrorNotFound)},
	}}

	report := fanout.Run(context.Background(), r, pairs(1), nil)

	o := report.Outcomes[0]
	assert.Equal(t, "Original query failed: "+bq.ErrorNotFound.UserMessage(), o.Error)
	assert.Equal(t, bq.ErrorNotFound.Hint(), o.Hint)
	assert.NotContains(t, o.Error, "x:y")
}

func TestRun_AuthFailureMessage(t *testing.T) {
	r := &stubRunner{results: map[string]models.DryRunResult{
		"orig-0": failed("googleapi: Error 401: Request had invalid authentication credentials"),
		"opt-1":  failed("rpc error: code = UNAUTHENTICATED"),
	}}

	report := fanout.Run(context.Background(), r, pairs(2), nil)

	require.Len(t, report.Failed(), 2)
	for _, o := range report.Failed() {
		assert.True(t, o.AuthFailure)
		assert.Equal(t, fanout.AuthErrorMessage, o.Error)
		assert.Contains(t, o.Hint, "GOOGLE_APPLICATION_CREDENTIALS")
	}
}

func TestRun_TruncatesLongErrors(t *testing.T) {
	long := strings.Repeat("x", 400)
	r := &stubRunner{results: map[string]models.DryRunResult{"orig-0": failed(long)}}

	report := fanout.Run(context.Background(), r, pairs(1), nil)

	o := report.Outcomes[0]
	assert.Equal(t, strings.Repeat("x", 150), o.Cause)
	assert.Equal(t, "Original query failed: BigQuery could not estimate this query.", o.Error)
}

func TestRun_EmptyErrorText(t *testing.T) {
	r := &stubRunner{results: map[string]models.DryRunResult{"orig-0": failed("")}}

	report := fanout.Run(context.Background(), r, pairs(1), nil)
	assert.Equal(t, "Unknown error", report.Outcomes[0].Cause)
	assert.Equal(t, "Original query failed: BigQuery could not estimate this query.", report.Outcomes[0].Error)
}

func TestRun_PartialFailureKeepsSiblings(t *testing.T) {
	r := &stubRunner{results: map[string]models.DryRunResult{
		"orig-1": failed("boom"),
		"opt-3":  failed("boom"),
	}}

	report := fanout.Run(context.Background(), r, pairs(6), nil)

	assert.Len(t, report.Outcomes, 6)
	assert.Len(t, report.Succeeded(), 4)
	assert.Len(t, report.Failed(), 2)
	assert.NoError(t, report.Err())
}

func TestRun_RespectsInFlightCap(t *testing.T) {
	r := &stubRunner{delay: 20 * time.Millisecond}

	report := fanout.Run(context.Background(), r, pairs(12), nil)

	assert.Len(t, report.Outcomes, 12)
	assert.LessOrEqual(t, r.peak.Load(), int64(fanout.MaxInFlight))
	assert.Greater(t, r.peak.Load(), int64(1))
}

func TestRun_CustomLimit(t *testing.T) {
	r := &stubRunner{delay: 5 * time.Millisecond}

	fanout.Run(context.Background(), r, pairs(6), nil, fanout.WithLimit(1))

	assert.Equal(t, int64(1), r.peak.Load())
}

func TestRun_ProgressCallback(t *testing.T) {
	r := &stubRunner{}
	var seen []int

	report := fanout.Run(context.Background(), r, pairs(4), func(done, total int) {
		assert.Equal(t, 4, total)
		seen = append(seen, done)
	})

	assert.Equal(t, []int{1, 2, 3, 4}, seen)
	assert.Len(t, report.Outcomes, 4)
}

func TestRun_NoPairs(t *testing.T) {
	report := fanout.Run(context.Background(), &stubRunner{}, nil, nil)

	assert.Empty(t, report.Outcomes)
	assert.ErrorIs(t, report.Err(), fanout.ErrAllPairsFailed)
}

func TestRun_InflightGaugeReturnsToZero(t *testing.T) {
	m := metrics.New(prometheus.NewRegistry())

	fanout.Run(context.Background(), &stubRunner{}, pairs(5), nil, fanout.WithMetrics(m))

	assert.Equal(t, 0.0, testutil.ToFloat64(m.FanoutInflight))
}

// --- IsAuthFailure ---

func TestIsAuthFailure(t *testing.T) {
	tests := []struct {
		text string
		want bool
	}{
		{"Error 401: unauthorized", true},
		{"code = UNAUTHENTICATED", true},
		{"Authentication failed for service account", true},
		{"unauthenticated", false},
		{"Error 403: access denied", false},
		{"Syntax error", false},
	}
	for _, tt := range tests {
		t.Run(tt.text, func(t *testing.T) {
			assert.Equal(t, tt.want, fanout.IsAuthFailure(tt.text))
		})
	}
}
