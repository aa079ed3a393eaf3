package render

import (
	"fmt"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/kiranshivaraju/costlab/pkg/models"
)

const hoursPerDay = 24

// heatmapWeekStart is a Monday, so a one-week walk covers every weekday once.
var heatmapWeekStart = time.Date(2024, time.January, 1, 0, 0, 0, 0, time.UTC)

// HourlyDistribution spreads dailyCost over the hours of a day according to
// when spec fires. Schedules that fire less than daily are averaged over a
// week. Expressions that do not parse, such as the placeholders used for
// merged jobs, are spread evenly.
func HourlyDistribution(spec string, dailyCost float64) [hoursPerDay]float64 {
	var out [hoursPerDay]float64

	counts, total := weeklyRunHours(spec)
	if total == 0 {
		for h := range out {
			out[h] = dailyCost / hoursPerDay
		}
		return out
	}

	for h, n := range counts {
		out[h] = dailyCost * float64(n) / float64(total)
	}
	return out
}

func weeklyRunHours(spec string) (counts [hoursPerDay]int, total int) {
	schedule, err := cron.ParseStandard(spec)
	if err != nil {
		return counts, 0
	}

	end := heatmapWeekStart.AddDate(0, 0, 7)
	for t := schedule.Next(heatmapWeekStart.Add(-time.Second)); !t.IsZero() && t.Before(end); t = schedule.Next(t) {
		counts[t.Hour()]++
		total++
	}
	return counts, total
}

// ScheduleHeatmap plots the current daily cost of each scheduled query by the
// hour it runs.
func ScheduleHeatmap(schedules []models.ScheduledQuery, costOf func(models.ScheduledQuery) float64) Chart {
	const title = "Scheduled Query Cost Heatmap by Hour"
	if len(schedules) == 0 {
		return emptyChart(title, KindHeatmap, NoData)
	}

	c := Chart{Title: title, Kind: KindHeatmap, XAxis: "Hour of Day", YAxis: "Query"}
	for h := 0; h < hoursPerDay; h++ {
		c.Labels = append(c.Labels, fmt.Sprintf("%02d:00", h))
	}
	for _, q := range schedules {
		dist := HourlyDistribution(q.Cron, costOf(q))
		c.Series = append(c.Series, Series{Name: q.Name, Values: dist[:]})
	}
	return c
}

// ScheduleSavingsHeatmap plots recommendations using the suggested schedule
// and cost.
func ScheduleSavingsHeatmap(results []models.ScheduleOptimizationResult) Chart {
	const title = "Optimized Schedule Cost by Hour"
	if len(results) == 0 {
		return emptyChart(title, KindHeatmap, NoData)
	}

	c := Chart{Title: title, Kind: KindHeatmap, XAxis: "Hour of Day", YAxis: "Query"}
	for h := 0; h < hoursPerDay; h++ {
		c.Labels = append(c.Labels, fmt.Sprintf("%02d:00", h))
	}
	for _, r := range results {
		dist := HourlyDistribution(r.SuggestedCron, r.SuggestedDailyCost)
		c.Series = append(c.Series, Series{Name: r.QueryName, Values: dist[:]})
	}
	return c
}
