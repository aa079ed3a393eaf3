package llm

import (
	"cmp"
	"context"
	"encoding/json"
	"fmt"
	"slices"
	"strings"

	"github.com/kiranshivaraju/costlab/internal/config"
	"github.com/kiranshivaraju/costlab/pkg/models"
)

var (
	sqlKeys      = []string{"optimized_query", "optimizations_applied", "explanation"}
	storageKeys  = []string{"bucket_name", "issue", "suggestion", "estimated_savings_percent"}
	scheduleKeys = []string{"redundant_queries", "frequency_adjustments", "merge_opportunities", "materialized_view_candidates", "estimated_savings"}
	mlKeys       = []string{"job_name", "current_config", "suggested_config", "optimization_type", "estimated_savings_percent"}
)

// Optimizer holds the domain prompts and decodes the provider's answers.
// Prompts quote the same rate tables the aggregators price with.
type Optimizer struct {
	client  *Client
	pricing config.PricingConfig
}

func NewOptimizer(client *Client, pricing config.PricingConfig) *Optimizer {
	return &Optimizer{client: client, pricing: pricing}
}

// Provider returns the provider behind the optimizer.
func (o *Optimizer) Provider() models.LLMProvider { return o.client.Provider() }

// OptimizeSQL asks for a cheaper rewrite of query. schema may be nil.
func (o *Optimizer) OptimizeSQL(ctx context.Context, query string, ds models.Dataset, schema *models.TableSchema) (*models.SQLSuggestion, error) {
	data, err := o.client.GenerateJSON(ctx, Request{
		Prompt:       sqlPrompt(query, ds, schema),
		Shape:        ShapeObject,
		RequiredKeys: sqlKeys,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to optimize SQL query: %w", err)
	}

	var s models.SQLSuggestion
	if err := decode(data, &s); err != nil {
		return nil, fmt.Errorf("failed to optimize SQL query: %w", err)
	}
	return &s, nil
}

// AnalyzeStorage asks for storage recommendations across all buckets in one call.
func (o *Optimizer) AnalyzeStorage(ctx context.Context, buckets []models.Bucket) ([]models.StorageSuggestion, error) {
	prompt, err := storagePrompt(buckets, o.pricing)
	if err != nil {
		return nil, fmt.Errorf("failed to analyze storage: %w", err)
	}

	data, err := o.client.GenerateJSON(ctx, Request{Prompt: prompt, Shape: ShapeList, RequiredKeys: storageKeys})
	if err != nil {
		return nil, fmt.Errorf("failed to analyze storage: %w", err)
	}

	var out []models.StorageSuggestion
	if err := decode(data, &out); err != nil {
		return nil, fmt.Errorf("failed to analyze storage: %w", err)
	}
	return out, nil
}

// OptimizeSchedules asks for an analysis of the whole schedule set.
func (o *Optimizer) OptimizeSchedules(ctx context.Context, schedules []models.ScheduledQuery) (*models.ScheduleAnalysis, error) {
	prompt, err := schedulePrompt(schedules)
	if err != nil {
		return nil, fmt.Errorf("failed to optimize schedules: %w", err)
	}

	data, err := o.client.GenerateJSON(ctx, Request{Prompt: prompt, Shape: ShapeObject, RequiredKeys: scheduleKeys})
	if err != nil {
		return nil, fmt.Errorf("failed to optimize schedules: %w", err)
	}

	var out models.ScheduleAnalysis
	if err := decode(data, &out); err != nil {
		return nil, fmt.Errorf("failed to optimize schedules: %w", err)
	}
	return &out, nil
}

// OptimizeMLJobs asks for compute recommendations across all jobs in one call.
func (o *Optimizer) OptimizeMLJobs(ctx context.Context, jobs []models.TrainingJob) ([]models.MLSuggestion, error) {
	prompt, err := mlPrompt(jobs, o.pricing)
	if err != nil {
		return nil, fmt.Errorf("failed to optimize ML jobs: %w", err)
	}

	data, err := o.client.GenerateJSON(ctx, Request{Prompt: prompt, Shape: ShapeList, RequiredKeys: mlKeys})
	if err != nil {
		return nil, fmt.Errorf("failed to optimize ML jobs: %w", err)
	}

	var out []models.MLSuggestion
	if err := decode(data, &out); err != nil {
		return nil, fmt.Errorf("failed to optimize ML jobs: %w", err)
	}
	return out, nil
}

func sqlPrompt(query string, ds models.Dataset, schema *models.TableSchema) string {
	var b strings.Builder
	b.WriteString("You are a BigQuery optimization expert. Analyze this SQL query and optimize it for cost reduction.\n\n")
	fmt.Fprintf(&b, "Original Query:\n%s\n\n", query)
	fmt.Fprintf(&b, "Dataset: %s\nTable: %s\n", orNA(ds.Dataset), orNA(ds.Table))

	if schema != nil && len(schema.Columns) > 0 {
		cols := make([]string, 0, len(schema.Columns))
		for _, c := range schema.Columns {
			cols = append(cols, c.Name+" "+c.Type)
		}
		fmt.Fprintf(&b, "Columns: %s\n", strings.Join(cols, ", "))
		if schema.PartitionField != "" {
			fmt.Fprintf(&b, "Partitioned by: %s\n", schema.PartitionField)
		}
		if len(schema.ClusteringFields) > 0 {
			fmt.Fprintf(&b, "Clustered by: %s\n", strings.Join(schema.ClusteringFields, ", "))
		}
	}

	b.WriteString(`
Apply these optimizations where applicable:
1. Replace SELECT * with specific columns (use common column names like id, name, date, timestamp, user_id, etc.)
2. Add WHERE clauses to filter data and reduce data scanned
3. Add partition filters if the table has date/timestamp partitions (use _PARTITIONTIME or date columns)
4. Remove unnecessary JOINs or replace with more efficient alternatives
5. Simplify complex subqueries
6. Add LIMIT clauses where appropriate

Return ONLY a valid JSON response with this exact structure (no markdown, no code blocks):
{
    "optimized_query": "the improved SQL query as a string",
    "optimizations_applied": ["list of specific changes made"],
    "explanation": "brief explanation of improvements and expected cost impact"
}`)
	return b.String()
}

func storagePrompt(buckets []models.Bucket, pricing config.PricingConfig) (string, error) {
	payload, err := json.MarshalIndent(buckets, "", "  ")
	if err != nil {
		return "", fmt.Errorf("encoding buckets: %w", err)
	}

	return fmt.Sprintf(`You are a GCS storage optimization expert. Analyze these storage buckets and suggest cost optimizations.

Buckets:
%s

For each bucket, identify optimization opportunities:
1. Storage class optimization (STANDARD to NEARLINE/COLDLINE/ARCHIVE for infrequently accessed data)
2. Deletion candidates (old, unused data that hasn't been accessed in months)
3. Compression opportunities (uncompressed files that could be compressed)
4. Lifecycle rule suggestions (automatic transitions or deletions)
5. Cross-region cost improvements (moving to cheaper regions)

Storage class costs per GB/month:
%s

Return ONLY a valid JSON array with this structure (no markdown, no code blocks):
[
    {
        "bucket_name": "bucket name",
        "issue": "description of the issue",
        "suggestion": "specific actionable recommendation",
        "estimated_savings_percent": 25.5
    }
]

Provide 3-5 optimization suggestions with realistic savings percentages.`, payload, storageRates(pricing)), nil
}

func schedulePrompt(schedules []models.ScheduledQuery) (string, error) {
	payload, err := json.MarshalIndent(schedules, "", "  ")
	if err != nil {
		return "", fmt.Errorf("encoding schedules: %w", err)
	}

	return fmt.Sprintf(`You are a BigQuery scheduled query optimization expert. Analyze these scheduled queries and suggest optimizations.

Scheduled Queries:
%s

Identify optimization opportunities:
1. Redundant schedules (queries that produce duplicate or overlapping results)
2. Over-frequent queries (queries running more often than necessary)
3. Merge-able jobs (queries that could be combined into a single query)
4. Materialized view candidates (frequently-run queries that could be materialized)

Allowed frequencies: hourly, every_6_hours, twice_daily, daily, weekly.

Return ONLY a valid JSON response with this exact structure (no markdown, no code blocks):
{
    "redundant_queries": ["list of query names that are redundant"],
    "frequency_adjustments": [
        {
            "query_name": "name",
            "current_frequency": "hourly",
            "suggested_frequency": "daily",
            "reasoning": "explanation"
        }
    ],
    "merge_opportunities": [
        {
            "queries": ["query1", "query2"],
            "reasoning": "why they can be merged"
        }
    ],
    "materialized_view_candidates": ["list of query names that should be materialized views"],
    "estimated_savings": 35.5
}

Provide realistic optimization suggestions with estimated total savings percentage.`, payload), nil
}

func mlPrompt(jobs []models.TrainingJob, pricing config.PricingConfig) (string, error) {
	payload, err := json.MarshalIndent(jobs, "", "  ")
	if err != nil {
		return "", fmt.Errorf("encoding jobs: %w", err)
	}

	return fmt.Sprintf(`You are a GCP ML compute optimization expert. Analyze these ML training jobs and suggest cost optimizations.

ML Training Jobs:
%s

GPU/TPU hourly costs:
%s

Spot VMs provide ~%.0f%% discount on average.

Identify optimization opportunities:
1. Spot VM usage (use preemptible instances for fault-tolerant workloads)
2. Machine type reduction (downgrade to smaller accelerators if possible)
3. Autoscaling adjustments (reduce peak nodes, enable autoscaling)
4. Vertex AI caching (cache preprocessing steps)
5. Accelerator alternatives (switch to cheaper but sufficient accelerators)

Return ONLY a valid JSON array with this structure (no markdown, no code blocks):
[
    {
        "job_name": "job name",
        "current_config": {
            "accelerator_type": "A100",
            "gpu_hours": 100,
            "spot_vm": false
        },
        "suggested_config": {
            "accelerator_type": "T4",
            "gpu_hours": 100,
            "spot_vm": true
        },
        "optimization_type": "spot_vm_and_downgrade",
        "estimated_savings_percent": 85.5
    }
]

Provide 3-5 optimization suggestions with realistic savings percentages.`, payload, acceleratorRates(pricing), pricing.SpotDiscount*100), nil
}

func storageRates(p config.PricingConfig) string {
	classes := []string{models.StorageClassStandard, models.StorageClassNearline, models.StorageClassColdline, models.StorageClassArchive}
	lines := make([]string, 0, len(classes))
	for _, c := range classes {
		lines = append(lines, fmt.Sprintf("- %s: $%.4f", c, p.TierRate(c)))
	}
	return strings.Join(lines, "\n")
}

// acceleratorRates lists accelerators cheapest first.
func acceleratorRates(p config.PricingConfig) string {
	names := make([]string, 0, len(p.AcceleratorRates))
	for name := range p.AcceleratorRates {
		names = append(names, name)
	}
	slices.SortFunc(names, func(a, b string) int {
		return cmp.Or(cmp.Compare(p.AcceleratorRates[a], p.AcceleratorRates[b]), cmp.Compare(a, b))
	})

	lines := make([]string, 0, len(names))
	for _, name := range names {
		lines = append(lines, fmt.Sprintf("- %s: $%.2f/hour", name, p.AcceleratorRates[name]))
	}
	return strings.Join(lines, "\n")
}

func orNA(s string) string {
	if s == "" {
		return "N/A"
	}
	return s
}
