package metrics_test

import (
	"testing"

	"github.com/kiranshivaraju/costlab/internal/metrics"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew_RegistersAll(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := metrics.New(reg)

	m.RecordLLMRequest("gemini", "success", 0.4)
	m.RecordLLMRetry("rate_limit")
	m.RecordLLMCacheHit()
	m.RecordDryRun("success")
	m.RecordDryRunCacheHit()
	m.AddInflight(1)
	m.RecordWorkflowRun("sql", "completed")

	families, err := reg.Gather()
	require.NoError(t, err)
	assert.Len(t, families, 8)
}

func TestCounters(t *testing.T) {
	m := metrics.New(prometheus.NewRegistry())

	m.RecordLLMRetry("timeout")
	m.RecordLLMRetry("timeout")
	m.RecordWorkflowRun("ml", "empty")

	assert.Equal(t, 2.0, testutil.ToFloat64(m.LLMRetriesTotal.WithLabelValues("timeout")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.WorkflowRunsTotal.WithLabelValues("ml", "empty")))
}

func TestInflightGauge(t *testing.T) {
	m := metrics.New(prometheus.NewRegistry())

	m.AddInflight(1)
	m.AddInflight(1)
	m.AddInflight(-1)

	assert.Equal(t, 1.0, testutil.ToFloat64(m.FanoutInflight))
}

func TestNilMetricsIsNoop(t *testing.T) {
	var m *metrics.Metrics
	assert.NotPanics(t, func() {
		m.RecordLLMRequest("openai", "error", 1)
		m.RecordLLMRetry("timeout")
		m.RecordLLMCacheHit()
		m.RecordDryRun("failure")
		m.RecordDryRunCacheHit()
		m.AddInflight(1)
		m.RecordWorkflowRun("sql", "failed")
	})
}

func TestNew_DuplicateRegistrationPanics(t *testing.T) {
	reg := prometheus.NewRegistry()
	metrics.New(reg)
	assert.Panics(t, func() { metrics.New(reg) })
}
