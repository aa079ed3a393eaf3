package render

import (
	"fmt"
	"strings"

	"github.com/kiranshivaraju/costlab/internal/optimize"
	"github.com/kiranshivaraju/costlab/pkg/models"
)

const timeLayout = "2006-01-02 15:04:05"

// --- SQL ---

var sqlColumns = []string{"Query ID", "Bytes Before", "Bytes After", "Cost Before", "Cost After", "Savings %"}

func SQLTable(results []models.SQLOptimizationResult) Table {
	const title = "Query Comparison"
	if len(results) == 0 {
		return emptyTable(title, sqlColumns)
	}

	t := Table{Title: title, Columns: sqlColumns}
	for _, r := range results {
		t.Rows = append(t.Rows, []string{
			r.QueryID,
			FormatGB(r.BytesBefore),
			FormatGB(r.BytesAfter),
			FormatUSD(r.CostBeforeUSD),
			FormatUSD(r.CostAfterUSD),
			FormatPercent(r.SavingsPercent),
		})
	}
	return t
}

// SQLComparisonChart compares bytes processed before and after, in GB.
func SQLComparisonChart(results []models.SQLOptimizationResult) Chart {
	const title = "SQL Query Optimization: Bytes Processed Comparison"
	if len(results) == 0 {
		return emptyChart(title, KindBar, NoData)
	}

	c := Chart{Title: title, Kind: KindBar, XAxis: "Query", YAxis: "Bytes Processed (GB)"}
	before := Series{Name: "Before Optimization"}
	after := Series{Name: "After Optimization"}
	for _, r := range results {
		c.Labels = append(c.Labels, r.QueryID)
		before.Values = append(before.Values, float64(r.BytesBefore)/bytesPerGB)
		after.Values = append(after.Values, float64(r.BytesAfter)/bytesPerGB)
	}
	c.Series = []Series{before, after}
	return c
}

// SavingsPieChart shows each query's share of the cost saved. Queries that
// saved nothing are left out.
func SavingsPieChart(results []models.SQLOptimizationResult) Chart {
	const title = "Cost Savings Distribution"
	if len(results) == 0 {
		return emptyChart(title, KindDonut, NoData)
	}

	savings := Series{Name: "Savings (USD)"}
	var labels []string
	var total float64
	for _, r := range results {
		if s := r.CostBeforeUSD - r.CostAfterUSD; s > 0 {
			labels = append(labels, r.QueryID)
			savings.Values = append(savings.Values, s)
			total += s
		}
	}
	if len(labels) == 0 {
		return emptyChart(title, KindDonut, NoSavings)
	}

	return Chart{
		Title:  fmt.Sprintf("%s (Total: %s)", title, FormatUSD(total)),
		Kind:   KindDonut,
		Labels: labels,
		Series: []Series{savings},
	}
}

// --- Storage ---

var storageColumns = []string{"Bucket Name", "Size", "Storage Class", "Last Accessed", "Issue", "Suggestion", "Action", "Estimated Savings"}

func StorageTable(results []models.StorageOptimizationResult) Table {
	const title = "Optimization Suggestions"
	if len(results) == 0 {
		return emptyTable(title, storageColumns)
	}

	t := Table{Title: title, Columns: storageColumns}
	for _, r := range results {
		t.Rows = append(t.Rows, []string{
			r.BucketName,
			fmt.Sprintf("%.2f GB", r.CurrentSizeGB),
			r.CurrentStorageClass,
			r.LastAccessed.Format(timeLayout),
			r.Issue,
			r.Suggestion,
			titleCase(r.ActionType),
			fmt.Sprintf("%s/mo (%.1f%%)", FormatUSD2(r.EstimatedSavingsUSD), r.EstimatedSavingsPercent),
		})
	}
	return t
}

// StorageDistributionChart shows each bucket's share of total size.
func StorageDistributionChart(buckets []models.Bucket) Chart {
	const title = "Storage Distribution by Bucket"
	if len(buckets) == 0 {
		return emptyChart(title, KindPie, NoData)
	}

	size := Series{Name: "Size (GB)"}
	var labels []string
	var total float64
	for _, b := range buckets {
		labels = append(labels, b.Name)
		size.Values = append(size.Values, b.SizeGB)
		total += b.SizeGB
	}
	return Chart{
		Title:  fmt.Sprintf("%s (Total: %.2f GB)", title, total),
		Kind:   KindPie,
		Labels: labels,
		Series: []Series{size},
	}
}

// StorageSavingsChart shows monthly savings per recommendation.
func StorageSavingsChart(results []models.StorageOptimizationResult) Chart {
	const title = "Estimated Monthly Savings by Bucket"
	if len(results) == 0 {
		return emptyChart(title, KindBar, NoData)
	}

	c := Chart{Title: title, Kind: KindBar, XAxis: "Bucket", YAxis: "Savings (USD/month)"}
	savings := Series{Name: "Savings"}
	for _, r := range results {
		c.Labels = append(c.Labels, r.BucketName)
		savings.Values = append(savings.Values, r.EstimatedSavingsUSD)
	}
	c.Series = []Series{savings}
	return c
}

// --- Schedules ---

var scheduleColumns = []string{"Query Name", "Current CRON", "Suggested CRON", "Current Daily Cost", "Suggested Daily Cost", "Type", "Savings %"}

func ScheduleTable(results []models.ScheduleOptimizationResult) Table {
	const title = "Scheduling Recommendations"
	if len(results) == 0 {
		return emptyTable(title, scheduleColumns)
	}

	t := Table{Title: title, Columns: scheduleColumns}
	for _, r := range results {
		t.Rows = append(t.Rows, []string{
			r.QueryName,
			r.CurrentCron,
			r.SuggestedCron,
			FormatUSD(r.CurrentDailyCost),
			FormatUSD(r.SuggestedDailyCost),
			titleCase(r.OptimizationType),
			FormatPercent(r.EstimatedSavingsPercent),
		})
	}
	return t
}

// --- ML ---

var mlColumns = []string{"Job Name", "Current Accelerator", "Suggested Accelerator", "Current Cost", "Suggested Cost", "Type", "Savings %", "Implementation Notes"}

func MLTable(results []models.MLOptimizationResult) Table {
	const title = "Compute Recommendations"
	if len(results) == 0 {
		return emptyTable(title, mlColumns)
	}

	t := Table{Title: title, Columns: mlColumns}
	for _, r := range results {
		t.Rows = append(t.Rows, []string{
			r.JobName,
			r.CurrentAccelerator,
			r.SuggestedAccelerator,
			FormatUSD2(r.CurrentCost),
			FormatUSD2(r.SuggestedCost),
			titleCase(r.OptimizationType),
			FormatPercent(r.EstimatedSavingsPercent),
			r.ImplementationNotes,
		})
	}
	return t
}

// MLCostBreakdownChart shows each job's share of total training cost.
func MLCostBreakdownChart(jobs []models.TrainingJob) Chart {
	const title = "ML Training Job Cost Breakdown"
	if len(jobs) == 0 {
		return emptyChart(title, KindDonut, NoData)
	}

	cost := Series{Name: "Cost (USD)"}
	var labels []string
	var total float64
	for _, j := range jobs {
		labels = append(labels, j.JobName)
		cost.Values = append(cost.Values, j.EstimatedCost)
		total += j.EstimatedCost
	}
	return Chart{
		Title:  fmt.Sprintf("%s (Total: %s)", title, FormatUSD2(total)),
		Kind:   KindDonut,
		Labels: labels,
		Series: []Series{cost},
	}
}

// --- Summary ---

func SummaryTable(title string, s optimize.Summary) Table {
	return Table{
		Title:   title,
		Columns: []string{"Recommendations", "Current Cost", "Optimized Cost", "Savings", "Avg Savings"},
		Rows: [][]string{{
			fmt.Sprintf("%d", s.Count),
			FormatUSD(s.CurrentCost),
			FormatUSD(s.OptimizedCost),
			FormatUSD(s.Savings),
			fmt.Sprintf("%.1f%%", s.AvgSavingsPercent),
		}},
	}
}

func titleCase(s string) string {
	words := strings.Fields(strings.ReplaceAll(s, "_", " "))
	for i, w := range words {
		words[i] = strings.ToUpper(w[:1]) + w[1:]
	}
	return strings.Join(words, " ")
}
