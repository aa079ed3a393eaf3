// Package simulate produces synthetic metadata for the four optimization
// domains. Output is random but follows fixed distributions so the LLM sees
// realistic cost problems.
package simulate

import (
	"fmt"
	"math"
	"math/rand/v2"
	"strings"
	"time"

	"github.com/kiranshivaraju/costlab/internal/config"
	"github.com/kiranshivaraju/costlab/pkg/models"
	"github.com/kiranshivaraju/costlab/pkg/sqlgen"
)

// Count bounds enforced by callers.
const (
	MinCount    = 5
	MaxCount    = 20
	MinSQLCount = 3
	MaxSQLCount = 10
)

var regions = []string{
	"us-central1", "us-east1", "us-west1", "us-west2",
	"europe-west1", "europe-west2", "asia-east1", "asia-southeast1",
}

var bucketPrefixes = []string{
	"prod-data", "dev-logs", "analytics", "backups", "ml-datasets",
	"user-uploads", "archive", "temp-storage", "reports", "media-assets",
}

// CronPatterns holds the candidate schedules for each generated frequency.
var CronPatterns = map[string][]string{
	models.FrequencyHourly: {"0 * * * *", "*/30 * * * *", "15 * * * *"},
	models.FrequencyDaily:  {"0 0 * * *", "0 6 * * *", "0 12 * * *", "0 18 * * *"},
	models.FrequencyWeekly: {"0 0 * * 0", "0 0 * * 1", "0 6 * * 1"},
}

var scheduleFrequencies = []string{models.FrequencyHourly, models.FrequencyDaily, models.FrequencyWeekly}

var scheduleCostMB = map[string][2]float64{
	models.FrequencyHourly: {10, 500},
	models.FrequencyDaily:  {100, 2000},
	models.FrequencyWeekly: {500, 5000},
}

var queryPurposes = []string{
	"Daily sales aggregation",
	"User activity metrics",
	"Inventory sync",
	"Analytics dashboard refresh",
	"Data warehouse ETL",
	"Report generation",
	"Backup data export",
	"ML feature extraction",
	"Audit log processing",
	"Customer segmentation update",
}

type acceleratorProfile struct {
	name      string
	gpuHours  [2]float64
	cpuHours  [2]float64
	peakNodes [2]int
}

var acceleratorProfiles = []acceleratorProfile{
	{"T4", [2]float64{2, 20}, [2]float64{4, 40}, [2]int{1, 4}},
	{"V100", [2]float64{5, 50}, [2]float64{10, 100}, [2]int{2, 8}},
	{"A100", [2]float64{10, 100}, [2]float64{20, 200}, [2]int{4, 16}},
	{"TPU", [2]float64{8, 80}, [2]float64{16, 160}, [2]int{1, 8}},
}

var jobTypes = []string{
	"image_classification",
	"nlp_transformer",
	"recommendation_model",
	"object_detection",
	"time_series_forecast",
	"sentiment_analysis",
	"fraud_detection",
	"customer_churn",
	"demand_prediction",
	"anomaly_detection",
}

// Generator produces synthetic metadata. It is not safe for concurrent use.
type Generator struct {
	rng     *rand.Rand
	now     func() time.Time
	pricing config.PricingConfig
	builder sqlgen.QueryBuilder
}

// New returns a randomly seeded Generator.
func New() *Generator {
	return &Generator{
		rng:     rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64())),
		now:     time.Now,
		pricing: config.DefaultPricing(),
	}
}

// NewSeeded returns a Generator whose output is fully determined by seed.
func NewSeeded(seed uint64) *Generator {
	return &Generator{
		rng:     rand.New(rand.NewPCG(seed, seed)),
		now:     time.Now,
		pricing: config.DefaultPricing(),
	}
}

// WithClock sets the reference time for last-accessed dates.
func (g *Generator) WithClock(now func() time.Time) *Generator {
	g.now = now
	return g
}

// WithPricing sets the accelerator rates used to price training jobs.
func (g *Generator) WithPricing(p config.PricingConfig) *Generator {
	g.pricing = p
	return g
}

// SQLQueries returns up to count distinct anti-pattern queries against
// dataset.table, drawn without replacement.
func (g *Generator) SQLQueries(dataset, table string, count int) []string {
	templates := g.builder.BuildAll(sqlgen.Table{Dataset: dataset, Table: table})
	count = min(max(count, 0), len(templates))

	out := make([]string, 0, count)
	for _, i := range g.rng.Perm(len(templates))[:count] {
		out = append(out, templates[i])
	}
	return out
}

// Buckets returns count synthetic buckets with distinct names. Colder
// classes are assigned to buckets that have not been accessed for longer.
func (g *Generator) Buckets(count int) []models.Bucket {
	now := g.now()
	out := make([]models.Bucket, 0, max(count, 0))
	used := make(map[string]bool, max(count, 0))

	for range max(count, 0) {
		name := g.bucketName()
		for used[name] {
			name = g.bucketName()
		}
		used[name] = true

		var size float64
		switch d := g.rng.Float64(); {
		case d < 0.5:
			size = g.uniform(1, 100)
		case d < 0.8:
			size = g.uniform(100, 1000)
		default:
			size = g.uniform(1000, 10000)
		}

		daysAgo := g.intRange(1, 365)
		var class string
		switch {
		case daysAgo < 30:
			class = pick(g.rng, []string{models.StorageClassStandard, models.StorageClassNearline})
		case daysAgo < 90:
			class = pick(g.rng, []string{models.StorageClassStandard, models.StorageClassNearline, models.StorageClassColdline})
		default:
			class = pick(g.rng, []string{models.StorageClassNearline, models.StorageClassColdline, models.StorageClassArchive})
		}

		out = append(out, models.Bucket{
			Name:         name,
			SizeGB:       size,
			LastAccessed: now.AddDate(0, 0, -daysAgo),
			Region:       pick(g.rng, regions),
			StorageClass: class,
		})
	}
	return out
}

// ScheduledQueries returns count synthetic scheduled queries. Less frequent
// queries process more data per run.
func (g *Generator) ScheduledQueries(count int) []models.ScheduledQuery {
	out := make([]models.ScheduledQuery, 0, max(count, 0))

	for i := range max(count, 0) {
		freq := pick(g.rng, scheduleFrequencies)
		cron := pick(g.rng, CronPatterns[freq])
		purpose := pick(g.rng, queryPurposes)
		bounds := scheduleCostMB[freq]

		out = append(out, models.ScheduledQuery{
			Name:      fmt.Sprintf("scheduled_%s_%d", strings.ReplaceAll(strings.ToLower(purpose), " ", "_"), i+1),
			Cron:      cron,
			CostMB:    g.uniform(bounds[0], bounds[1]),
			Purpose:   purpose,
			Frequency: freq,
		})
	}
	return out
}

// TrainingJobs returns count synthetic training jobs.
func (g *Generator) TrainingJobs(count int) []models.TrainingJob {
	out := make([]models.TrainingJob, 0, max(count, 0))

	for i := range max(count, 0) {
		p := acceleratorProfiles[g.rng.IntN(len(acceleratorProfiles))]
		jobType := pick(g.rng, jobTypes)

		gpu := g.uniform(p.gpuHours[0], p.gpuHours[1])
		cpu := g.uniform(p.cpuHours[0], p.cpuHours[1])
		nodes := g.intRange(p.peakNodes[0], p.peakNodes[1])
		rate, _ := g.pricing.AcceleratorRate(p.name)

		out = append(out, models.TrainingJob{
			JobName:               fmt.Sprintf("%s_training_%d", jobType, i+1),
			GPUHours:              gpu,
			CPUHours:              cpu,
			PeakNodes:             nodes,
			AcceleratorType:       p.name,
			TrainingDurationHours: Round2(gpu / float64(nodes)),
			EstimatedCost:         Round2(gpu * rate),
		})
	}
	return out
}

func (g *Generator) bucketName() string {
	return fmt.Sprintf("%s-%d", pick(g.rng, bucketPrefixes), g.intRange(1000, 9999))
}

// uniform returns a value in [lo, hi] rounded to two decimals.
func (g *Generator) uniform(lo, hi float64) float64 {
	return Round2(lo + g.rng.Float64()*(hi-lo))
}

// intRange returns an integer in [lo, hi].
func (g *Generator) intRange(lo, hi int) int {
	return lo + g.rng.IntN(hi-lo+1)
}

func pick[T any](rng *rand.Rand, items []T) T {
	return items[rng.IntN(len(items))]
}

// Round2 rounds to two decimal places.
func Round2(v float64) float64 {
	return math.Round(v*100) / 100
}

// ClampCount limits n to [lo, hi].
func ClampCount(n, lo, hi int) int {
	return min(max(n, lo), hi)
}
