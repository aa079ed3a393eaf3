package llm_test

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/kiranshivaraju/costlab/internal/config"
	"github.com/kiranshivaraju/costlab/internal/llm"
	"github.com/kiranshivaraju/costlab/internal/llm/mock"
	"github.com/kiranshivaraju/costlab/pkg/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func capture(response string) (*mock.MockProvider, *string) {
	var prompt string
	p := mock.NewMockProvider(response)
	inner := p.GenerateFunc
	p.GenerateFunc = func(ctx context.Context, in string) (string, error) {
		prompt = in
		return inner(ctx, in)
	}
	return p, &prompt
}

func TestOptimizeSQL(t *testing.T) {
	p, prompt := capture(`{"optimized_query": "SELECT id FROM t WHERE d > '2024-01-01'", "optimizations_applied": ["Replaced SELECT *", "Added WHERE"], "explanation": "Scans less"}`)
	o := llm.NewOptimizer(llm.NewClient(p), config.DefaultPricing())

	ds := models.Dataset{Dataset: "bigquery-public-data.thelook_ecommerce", Table: "orders"}
	schema := &models.TableSchema{
		Columns:        []models.TableColumn{{Name: "order_id", Type: "INTEGER"}, {Name: "created_at", Type: "TIMESTAMP"}},
		PartitionField: "created_at",
	}
	s, err := o.OptimizeSQL(context.Background(), "SELECT * FROM `bigquery-public-data.thelook_ecommerce.orders`", ds, schema)
	require.NoError(t, err)

	assert.Equal(t, "SELECT id FROM t WHERE d > '2024-01-01'", s.OptimizedQuery)
	assert.Equal(t, []string{"Replaced SELECT *", "Added WHERE"}, s.OptimizationsApplied)
	assert.Equal(t, "Scans less", s.Explanation)

	assert.Contains(t, *prompt, "Table: orders")
	assert.Contains(t, *prompt, "order_id INTEGER, created_at TIMESTAMP")
	assert.Contains(t, *prompt, "Partitioned by: created_at")
	assert.Contains(t, *prompt, `"optimized_query"`)
}

func TestOptimizeSQL_NoDatasetUsesNA(t *testing.T) {
	p, prompt := capture(`{"optimized_query": "q", "optimizations_applied": [], "explanation": ""}`)
	o := llm.NewOptimizer(llm.NewClient(p), config.DefaultPricing())

	_, err := o.OptimizeSQL(context.Background(), "SELECT 1", models.Dataset{}, nil)
	require.NoError(t, err)
	assert.Contains(t, *prompt, "Dataset: N/A")
	assert.NotContains(t, *prompt, "Columns:")
}

func TestOptimizeSQL_WrapsErrors(t *testing.T) {
	o := llm.NewOptimizer(llm.NewClient(mock.NewMockProvider(`{"optimized_query": "q"}`)), config.DefaultPricing())

	_, err := o.OptimizeSQL(context.Background(), "SELECT 1", models.Dataset{}, nil)
	require.Error(t, err)
	assert.True(t, strings.HasPrefix(err.Error(), "failed to optimize SQL query: "))
	assert.Equal(t, llm.KindInvalidResponse, llm.KindOf(err))
}

func TestAnalyzeStorage(t *testing.T) {
	p, prompt := capture("```json\n[{\"bucket_name\": \"prod-data-1234\", \"issue\": \"Cold data in STANDARD\", \"suggestion\": \"Move to COLDLINE\", \"estimated_savings_percent\": 80}]\n```")
	o := llm.NewOptimizer(llm.NewClient(p), config.DefaultPricing())

	buckets := []models.Bucket{{
		Name:         "prod-data-1234",
		SizeGB:       120.5,
		LastAccessed: time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC),
		Region:       "us-east1",
		StorageClass: "STANDARD",
	}}
	out, err := o.AnalyzeStorage(context.Background(), buckets)
	require.NoError(t, err)
	require.Len(t, out, 1)
	assert.Equal(t, "prod-data-1234", out[0].BucketName)
	assert.Equal(t, 80.0, out[0].EstimatedSavingsPercent)

	assert.Contains(t, *prompt, `"bucket_name": "prod-data-1234"`)
	assert.Contains(t, *prompt, `"current_size_gb": 120.5`)
	assert.Contains(t, *prompt, "ARCHIVE: $0.0012")
}

func TestAnalyzeStorage_TypeMismatchIsInvalidResponse(t *testing.T) {
	o := llm.NewOptimizer(llm.NewClient(mock.NewMockProvider(
		`[{"bucket_name": "b", "issue": "i", "suggestion": "s", "estimated_savings_percent": "lots"}]`)), config.DefaultPricing())

	_, err := o.AnalyzeStorage(context.Background(), nil)
	require.Error(t, err)
	assert.True(t, strings.HasPrefix(err.Error(), "failed to analyze storage: "))
	assert.Equal(t, llm.KindInvalidResponse, llm.KindOf(err))
}

func TestOptimizeSchedules(t *testing.T) {
	o := llm.NewOptimizer(llm.NewClient(mock.NewMockProvider(`{
		"redundant_queries": [],
		"frequency_adjustments": [{"query_name": "q1", "current_frequency": "hourly", "suggested_frequency": "daily", "reasoning": "r"}],
		"merge_opportunities": [{"queries": ["q1", "q2"], "reasoning": "same source"}],
		"materialized_view_candidates": ["q3"],
		"estimated_savings": 42.5
	}`)), config.DefaultPricing())

	a, err := o.OptimizeSchedules(context.Background(), []models.ScheduledQuery{{Name: "q1", Cron: "0 * * * *", CostMB: 10, Frequency: "hourly"}})
	require.NoError(t, err)
	require.Len(t, a.FrequencyAdjustments, 1)
	assert.Equal(t, "daily", a.FrequencyAdjustments[0].SuggestedFrequency)
	assert.Equal(t, []string{"q1", "q2"}, a.MergeOpportunities[0].Queries)
	assert.Equal(t, []string{"q3"}, a.MaterializedViewCandidates)
	assert.Equal(t, 42.5, a.EstimatedSavings)
}

func TestOptimizeSchedules_MissingKey(t *testing.T) {
	o := llm.NewOptimizer(llm.NewClient(mock.NewMockProvider(`{"redundant_queries": []}`)), config.DefaultPricing())

	_, err := o.OptimizeSchedules(context.Background(), nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to optimize schedules")
	assert.Contains(t, err.Error(), "frequency_adjustments")
}

func TestOptimizeMLJobs(t *testing.T) {
	p, prompt := capture(`[{
		"job_name": "nlp_transformer_training_1",
		"current_config": {"accelerator_type": "A100", "gpu_hours": 50, "spot_vm": false},
		"suggested_config": {"accelerator_type": "T4", "spot_vm": true},
		"optimization_type": "spot_vm_and_downgrade",
		"estimated_savings_percent": 85.5
	}]`)
	o := llm.NewOptimizer(llm.NewClient(p), config.DefaultPricing())

	out, err := o.OptimizeMLJobs(context.Background(), []models.TrainingJob{{JobName: "nlp_transformer_training_1", AcceleratorType: "A100"}})
	require.NoError(t, err)
	require.Len(t, out, 1)
	assert.Equal(t, "A100", out[0].CurrentConfig.Accelerator())
	assert.Equal(t, "T4", out[0].SuggestedConfig.Accelerator())
	assert.Equal(t, 85.5, out[0].EstimatedSavingsPercent)
	assert.Contains(t, *prompt, "Spot VMs provide ~70% discount")
	assert.Contains(t, *prompt, "- T4: $0.35/hour\n- V100: $2.48/hour")
	assert.Contains(t, *prompt, "- TPU_V3: $8.00/hour")
}

func TestPrompts_FollowPricingOverrides(t *testing.T) {
	pricing := config.DefaultPricing()
	pricing.StorageClassRates[models.StorageClassArchive] = 0.0009
	pricing.AcceleratorRates["A100"] = 2.99
	pricing.SpotDiscount = 0.6

	p, prompt := capture(`[{"bucket_name": "b", "issue": "i", "suggestion": "s", "estimated_savings_percent": 10}]`)
	o := llm.NewOptimizer(llm.NewClient(p), pricing)
	_, err := o.AnalyzeStorage(context.Background(), []models.Bucket{{Name: "b"}})
	require.NoError(t, err)
	assert.Contains(t, *prompt, "ARCHIVE: $0.0009")
	assert.NotContains(t, *prompt, "ARCHIVE: $0.0012")

	p, prompt = capture(`[{"job_name": "j", "current_config": {}, "suggested_config": {}, "optimization_type": "spot_vm", "estimated_savings_percent": 10}]`)
	o = llm.NewOptimizer(llm.NewClient(p), pricing)
	_, err = o.OptimizeMLJobs(context.Background(), []models.TrainingJob{{JobName: "j"}})
	require.NoError(t, err)
	assert.Contains(t, *prompt, "- A100: $2.99/hour")
	assert.Contains(t, *prompt, "Spot VMs provide ~60% discount")
}

func TestOptimizeMLJobs_NotAList(t *testing.T) {
	o := llm.NewOptimizer(llm.NewClient(mock.NewMockProvider(`{"job_name": "x"}`)), config.DefaultPricing())

	_, err := o.OptimizeMLJobs(context.Background(), nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to optimize ML jobs")
}
