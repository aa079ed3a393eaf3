// Package workflow runs the four optimization pipelines: generate metadata,
// ask the LLM, price the answers. Each step is guarded so a failure stops
// the run before the next step and leaves earlier state untouched.
package workflow

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/kiranshivaraju/costlab/internal/bq"
	"github.com/kiranshivaraju/costlab/internal/config"
	"github.com/kiranshivaraju/costlab/internal/fanout"
	"github.com/kiranshivaraju/costlab/internal/llm"
	"github.com/kiranshivaraju/costlab/internal/metrics"
	"github.com/kiranshivaraju/costlab/internal/optimize"
	"github.com/kiranshivaraju/costlab/internal/simulate"
	"github.com/kiranshivaraju/costlab/pkg/models"
)

const maxWarningLen = 100

// Optimizer is the LLM surface the workflows need. *llm.Optimizer
// implements it.
type Optimizer interface {
	OptimizeSQL(ctx context.Context, query string, ds models.Dataset, schema *models.TableSchema) (*models.SQLSuggestion, error)
	AnalyzeStorage(ctx context.Context, buckets []models.Bucket) ([]models.StorageSuggestion, error)
	OptimizeSchedules(ctx context.Context, schedules []models.ScheduledQuery) (*models.ScheduleAnalysis, error)
	OptimizeMLJobs(ctx context.Context, jobs []models.TrainingJob) ([]models.MLSuggestion, error)
	Provider() models.LLMProvider
}

// Runner executes domain workflows. It holds no per-session state.
type Runner struct {
	cfg          *config.Config
	optimizer    Optimizer
	dryRunner    fanout.DryRunner
	schema       bq.SchemaFetcher
	newGenerator func() *simulate.Generator
	progress     fanout.ProgressFunc
	now          func() time.Time
	metrics      *metrics.Metrics
	logger       *slog.Logger
}

type Option func(*Runner)

// WithDryRunner enables the SQL workflow.
func WithDryRunner(d fanout.DryRunner) Option {
	return func(r *Runner) { r.dryRunner = d }
}

// WithSchemaFetcher adds table schemas to SQL prompts.
func WithSchemaFetcher(s bq.SchemaFetcher) Option {
	return func(r *Runner) { r.schema = s }
}

// WithSeed makes every run generate the same metadata.
func WithSeed(seed uint64) Option {
	return func(r *Runner) {
		r.newGenerator = func() *simulate.Generator { return simulate.NewSeeded(seed) }
	}
}

// WithGenerator overrides how a run obtains its generator.
func WithGenerator(fn func() *simulate.Generator) Option {
	return func(r *Runner) { r.newGenerator = fn }
}

// WithProgress reports SQL dry-run progress.
func WithProgress(fn fanout.ProgressFunc) Option {
	return func(r *Runner) { r.progress = fn }
}

func WithClock(now func() time.Time) Option {
	return func(r *Runner) { r.now = now }
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(r *Runner) { r.metrics = m }
}

func WithLogger(l *slog.Logger) Option {
	return func(r *Runner) { r.logger = l }
}

func NewRunner(cfg *config.Config, optimizer Optimizer, opts ...Option) *Runner {
	r := &Runner{
		cfg:          cfg,
		optimizer:    optimizer,
		newGenerator: simulate.New,
		now:          time.Now,
		logger:       slog.Default(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// RunSQL generates anti-pattern queries against ds, asks the LLM for a
// rewrite of each, dry-runs every pair and prices the successful ones.
// count is clamped to [3, 10].
func (r *Runner) RunSQL(ctx context.Context, state State, ds models.Dataset, count int) (State, error) {
	run := r.startRun(models.DomainSQL)

	if err := r.validate(); err != nil {
		return state, r.fail(run, err)
	}
	if r.dryRunner == nil {
		return state, r.fail(run, configError([]string{"BigQuery client is not configured"}))
	}

	count = simulate.ClampCount(count, simulate.MinSQLCount, simulate.MaxSQLCount)
	queries := r.generator().SQLQueries(ds.Dataset, ds.Table, count)
	r.logger.Info("generated queries", "domain", run.Domain, "count", len(queries), "table", ds.FullTable())

	schema := r.tableSchema(ctx, ds)

	var (
		pairs       []fanout.Pair
		notices     []Notice
		lastErr     error
		suggestions = make(map[string]models.SQLSuggestion, len(queries))
	)
	for i, q := range queries {
		id := fmt.Sprintf("Query %d", i+1)
		s, err := r.optimizer.OptimizeSQL(ctx, q, ds, schema)
		if err != nil {
			lastErr = err
			kind := llm.KindOf(err)
			notices = append(notices, Notice{
				Kind:    KindPartialBatchFailure,
				Message: llmMessage("Failed to optimize "+id, kind),
				Hint:    llmHint(kind),
				Detail:  r.detail(err.Error()),
			})
			r.logger.Warn("sql optimization failed", "domain", run.Domain, "query_id", id, "kind", string(kind), "error", err)
			continue
		}
		suggestions[id] = *s
		pairs = append(pairs, fanout.Pair{ID: id, Original: q, Optimized: s.OptimizedQuery})
	}
	if len(pairs) == 0 {
		return state, r.fail(run, providerError(StepOptimize, "No queries were successfully optimized by AI", lastErr))
	}

	report := fanout.Run(ctx, r.dryRunner, pairs, r.progress, fanout.WithMetrics(r.metrics))
	for _, o := range report.Failed() {
		notices = append(notices, Notice{
			Kind:    KindPartialBatchFailure,
			Message: fmt.Sprintf("%s: %s", o.Pair.ID, o.Error),
			Hint:    o.Hint,
			Detail:  r.detail(o.Cause),
		})
		r.logger.Warn("dry run failed", "domain", run.Domain, "query_id", o.Pair.ID, "error", o.Cause)
	}
	if err := report.Err(); err != nil {
		return state, r.fail(run, dryRunError(report, err))
	}

	results, err := optimize.SQLResults(report, suggestions, r.now())
	if err != nil {
		return state, r.fail(run, aggregateError(err))
	}

	next := state
	next.SQL = &SQLState{
		Run:     r.finishRun(run, models.RunStatusCompleted, notices),
		Dataset: ds,
		Queries: queries,
		Results: results,
		Summary: optimize.SQLSummary(results),
		Notices: notices,
	}
	return next, nil
}

// RunStorage analyses count synthetic buckets in one LLM call. count is
// clamped to [5, 20].
func (r *Runner) RunStorage(ctx context.Context, state State, count int) (State, error) {
	run := r.startRun(models.DomainStorage)

	if err := r.validate(); err != nil {
		return state, r.fail(run, err)
	}

	buckets := r.generator().Buckets(simulate.ClampCount(count, simulate.MinCount, simulate.MaxCount))

	suggestions, err := r.optimizer.AnalyzeStorage(ctx, buckets)
	if err != nil {
		return state, r.fail(run, providerError(StepOptimize, "Failed to analyze storage with AI", err))
	}

	ss := &StorageState{Buckets: buckets, Suggestions: suggestions}
	results, err := optimize.Storage(buckets, suggestions, r.cfg.Pricing)
	switch {
	case errors.Is(err, optimize.ErrNoRecommendations):
		ss.Notices = []Notice{emptyNotice("buckets")}
		ss.Run = r.finishRun(run, models.RunStatusEmpty, nil)
	case err != nil:
		return state, r.fail(run, aggregateError(err))
	default:
		ss.Results = results
		ss.Summary = optimize.StorageSummary(buckets, results, r.cfg.Pricing)
		ss.Run = r.finishRun(run, models.RunStatusCompleted, nil)
	}

	next := state
	next.Storage = ss
	return next, nil
}

// RunSchedules analyses count synthetic scheduled queries in one LLM call.
// count is clamped to [5, 20].
func (r *Runner) RunSchedules(ctx context.Context, state State, count int) (State, error) {
	run := r.startRun(models.DomainSchedule)

	if err := r.validate(); err != nil {
		return state, r.fail(run, err)
	}

	schedules := r.generator().ScheduledQueries(simulate.ClampCount(count, simulate.MinCount, simulate.MaxCount))

	analysis, err := r.optimizer.OptimizeSchedules(ctx, schedules)
	if err != nil {
		return state, r.fail(run, providerError(StepOptimize, "Failed to analyze schedules with AI", err))
	}

	ss := &ScheduleState{Schedules: schedules, Analysis: analysis}
	results, err := optimize.Schedules(schedules, *analysis, r.cfg.Pricing)
	switch {
	case errors.Is(err, optimize.ErrNoRecommendations):
		ss.Notices = []Notice{emptyNotice("schedules")}
		ss.Run = r.finishRun(run, models.RunStatusEmpty, nil)
	case err != nil:
		return state, r.fail(run, aggregateError(err))
	default:
		ss.Results = results
		ss.Summary = optimize.ScheduleSummary(results)
		ss.Projection = optimize.Project(ss.Summary.Savings)
		ss.Run = r.finishRun(run, models.RunStatusCompleted, nil)
	}

	next := state
	next.Schedule = ss
	return next, nil
}

// RunML analyses count synthetic training jobs in one LLM call. count is
// clamped to [5, 20].
func (r *Runner) RunML(ctx context.Context, state State, count int) (State, error) {
	run := r.startRun(models.DomainML)

	if err := r.validate(); err != nil {
		return state, r.fail(run, err)
	}

	jobs := r.generator().TrainingJobs(simulate.ClampCount(count, simulate.MinCount, simulate.MaxCount))

	suggestions, err := r.optimizer.OptimizeMLJobs(ctx, jobs)
	if err != nil {
		return state, r.fail(run, providerError(StepOptimize, "Failed to analyze ML jobs with AI", err))
	}

	ms := &MLState{Jobs: jobs, Suggestions: suggestions}
	results, err := optimize.MLJobs(jobs, suggestions)
	switch {
	case errors.Is(err, optimize.ErrNoRecommendations):
		ms.Notices = []Notice{emptyNotice("ML jobs")}
		ms.Run = r.finishRun(run, models.RunStatusEmpty, nil)
	case err != nil:
		return state, r.fail(run, aggregateError(err))
	default:
		ms.Results = results
		ms.Summary = optimize.MLSummary(results)
		ms.Run = r.finishRun(run, models.RunStatusCompleted, nil)
	}

	next := state
	next.ML = ms
	return next, nil
}

// Run dispatches to the workflow for domain. Only the SQL workflow uses ds.
func (r *Runner) Run(ctx context.Context, state State, domain string, ds models.Dataset, count int) (State, error) {
	switch domain {
	case models.DomainSQL:
		return r.RunSQL(ctx, state, ds, count)
	case models.DomainStorage:
		return r.RunStorage(ctx, state, count)
	case models.DomainSchedule:
		return r.RunSchedules(ctx, state, count)
	case models.DomainML:
		return r.RunML(ctx, state, count)
	default:
		return state, fmt.Errorf("%w: %q", ErrUnknownDomain, domain)
	}
}

// ErrUnknownDomain is returned by Run for an unrecognised domain name.
var ErrUnknownDomain = errors.New("unknown optimization domain")

func (r *Runner) validate() error {
	if problems := r.cfg.Validate(); len(problems) > 0 {
		return configError(problems)
	}
	return nil
}

// tableSchema fetches the schema for prompt enrichment. Failures are logged
// and the prompt goes without it.
func (r *Runner) tableSchema(ctx context.Context, ds models.Dataset) *models.TableSchema {
	if r.schema == nil {
		return nil
	}
	schema, err := r.schema.TableSchema(ctx, ds.Dataset, ds.Table)
	if err != nil {
		r.logger.Warn("table schema unavailable", "table", ds.FullTable(), "error", err)
		return nil
	}
	return schema
}

// generator returns a fresh generator priced with the configured rates.
func (r *Runner) generator() *simulate.Generator {
	return r.newGenerator().WithPricing(r.cfg.Pricing)
}

// detail returns the raw cause for a notice, truncated, or "" outside debug mode.
func (r *Runner) detail(cause string) string {
	if !r.cfg.IsDevelopment() {
		return ""
	}
	return truncate(cause, maxWarningLen)
}

func (r *Runner) startRun(domain string) models.Run {
	run := models.Run{
		ID:        uuid.New(),
		Domain:    domain,
		StartedAt: r.now(),
	}
	if r.optimizer != nil {
		if p := r.optimizer.Provider(); p != nil {
			run.Provider = p.Name()
			run.Model = p.Model()
		}
	}
	return run
}

func (r *Runner) finishRun(run models.Run, status string, notices []Notice) models.Run {
	run.Status = status
	run.CompletedAt = r.now()
	for _, n := range notices {
		run.Warnings = append(run.Warnings, n.Message)
	}
	r.metrics.RecordWorkflowRun(run.Domain, status)
	r.logger.Info("workflow run finished",
		"domain", run.Domain,
		"run_id", run.ID,
		"status", status,
		"warnings", len(run.Warnings),
	)
	return run
}

func (r *Runner) fail(run models.Run, err error) error {
	r.metrics.RecordWorkflowRun(run.Domain, models.RunStatusFailed)

	attrs := []any{"domain", run.Domain, "run_id", run.ID, "error", err}
	var we *Error
	if errors.As(err, &we) {
		attrs = append(attrs, "kind", string(we.Kind), "step", we.Step)
		if we.Err != nil {
			attrs = append(attrs, "cause", we.Err)
		}
	}
	r.logger.Error("workflow run failed", attrs...)
	return err
}

func dryRunError(report fanout.Report, err error) *Error {
	failed := report.Failed()
	allAuth := len(failed) > 0
	for _, o := range failed {
		allAuth = allAuth && o.AuthFailure
	}
	if allAuth {
		return &Error{
			Kind:    KindProviderFatal,
			Step:    StepDryRun,
			Message: "BigQuery authentication failed for every query",
			Hint:    "check GOOGLE_APPLICATION_CREDENTIALS and that the service account can run BigQuery jobs",
			Err:     err,
		}
	}
	return &Error{
		Kind:    KindPartialBatchFailure,
		Step:    StepDryRun,
		Message: "No queries were successfully optimized",
		Hint:    "generated SQL may be invalid or the BigQuery API may be rejecting requests; try fewer queries or check your credentials",
		Err:     err,
	}
}

func aggregateError(err error) *Error {
	return &Error{
		Kind:    KindProviderFatal,
		Step:    StepAggregate,
		Message: "Failed to process AI recommendations",
		Hint:    "run the simulation again",
		Err:     err,
	}
}

func emptyNotice(subject string) Notice {
	return Notice{
		Kind:    KindEmptyResult,
		Message: "No optimization recommendations were generated",
		Hint:    fmt.Sprintf("the AI may not have found significant optimization opportunities; try generating more %s or running the simulation again", subject),
	}
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}
