// Package metrics provides Prometheus instrumentation for costlab.
//
// Metrics exposed:
//   - costlab_llm_requests_total: provider calls by provider and outcome
//   - costlab_llm_retries_total: retried provider calls by failure kind
//   - costlab_llm_cache_hits_total: LLM responses served from cache
//   - costlab_llm_request_seconds: provider call latency
//   - costlab_dryrun_requests_total: cost estimates by outcome
//   - costlab_dryrun_cache_hits_total: cost estimates served from cache
//   - costlab_fanout_inflight: dry-run pairs currently being processed
//   - costlab_workflow_runs_total: workflow runs by domain and status
//
// A nil *Metrics is valid and records nothing.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus metrics for costlab.
type Metrics struct {
	LLMRequestsTotal    *prometheus.CounterVec
	LLMRetriesTotal     *prometheus.CounterVec
	LLMCacheHitsTotal   prometheus.Counter
	LLMRequestSeconds   *prometheus.HistogramVec
	DryRunRequestsTotal *prometheus.CounterVec
	DryRunCacheHits     prometheus.Counter
	FanoutInflight      prometheus.Gauge
	WorkflowRunsTotal   *prometheus.CounterVec
}

// New creates all metrics and registers them with reg.
func New(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		LLMRequestsTotal: f.NewCounterVec(prometheus.CounterOpts{
			Name: "costlab_llm_requests_total",
			Help: "Total LLM provider calls by provider and outcome",
		}, []string{"provider", "outcome"}),

		LLMRetriesTotal: f.NewCounterVec(prometheus.CounterOpts{
			Name: "costlab_llm_retries_total",
			Help: "Total retried LLM provider calls by failure kind",
		}, []string{"kind"}),

		LLMCacheHitsTotal: f.NewCounter(prometheus.CounterOpts{
			Name: "costlab_llm_cache_hits_total",
			Help: "LLM responses served from cache",
		}),

		LLMRequestSeconds: f.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "costlab_llm_request_seconds",
			Help:    "Time spent in a single LLM provider call",
			Buckets: []float64{.25, .5, 1, 2.5, 5, 10, 20, 40, 80},
		}, []string{"provider"}),

		DryRunRequestsTotal: f.NewCounterVec(prometheus.CounterOpts{
			Name: "costlab_dryrun_requests_total",
			Help: "Total BigQuery dry runs by outcome",
		}, []string{"outcome"}),

		DryRunCacheHits: f.NewCounter(prometheus.CounterOpts{
			Name: "costlab_dryrun_cache_hits_total",
			Help: "Dry-run estimates served from cache",
		}),

		FanoutInflight: f.NewGauge(prometheus.GaugeOpts{
			Name: "costlab_fanout_inflight",
			Help: "Dry-run pairs currently in flight",
		}),

		WorkflowRunsTotal: f.NewCounterVec(prometheus.CounterOpts{
			Name: "costlab_workflow_runs_total",
			Help: "Workflow runs by domain and final status",
		}, []string{"domain", "status"}),
	}
}

func (m *Metrics) RecordLLMRequest(provider, outcome string, seconds float64) {
	if m == nil {
		return
	}
	m.LLMRequestsTotal.WithLabelValues(provider, outcome).Inc()
	m.LLMRequestSeconds.WithLabelValues(provider).Observe(seconds)
}

func (m *Metrics) RecordLLMRetry(kind string) {
	if m == nil {
		return
	}
	m.LLMRetriesTotal.WithLabelValues(kind).Inc()
}

func (m *Metrics) RecordLLMCacheHit() {
	if m == nil {
		return
	}
	m.LLMCacheHitsTotal.Inc()
}

func (m *Metrics) RecordDryRun(outcome string) {
	if m == nil {
		return
	}
	m.DryRunRequestsTotal.WithLabelValues(outcome).Inc()
}

func (m *Metrics) RecordDryRunCacheHit() {
	if m == nil {
		return
	}
	m.DryRunCacheHits.Inc()
}

// AddInflight adjusts the fan-out in-flight gauge by delta.
func (m *Metrics) AddInflight(delta float64) {
	if m == nil {
		return
	}
	m.FanoutInflight.Add(delta)
}

func (m *Metrics) RecordWorkflowRun(domain, status string) {
	if m == nil {
		return
	}
	m.WorkflowRunsTotal.WithLabelValues(domain, status).Inc()
}
