package render

import (
	"fmt"
	"io"

	"github.com/kiranshivaraju/costlab/internal/config"
	"github.com/kiranshivaraju/costlab/internal/optimize"
	"github.com/kiranshivaraju/costlab/internal/workflow"
	"github.com/kiranshivaraju/costlab/pkg/models"
)

// View is everything displayed for one domain run.
type View struct {
	Domain  string            `json:"domain"`
	Run     models.Run        `json:"run"`
	Summary Table             `json:"summary"`
	Tables  []Table           `json:"tables"`
	Charts  []Chart           `json:"charts"`
	Notices []workflow.Notice `json:"notices,omitempty"`
}

// ViewOf builds the view for domain from st. ok is false when the domain has
// not been run in this state.
func ViewOf(st workflow.State, domain string, pricing config.PricingConfig) (v View, ok bool) {
	switch domain {
	case models.DomainSQL:
		if st.SQL != nil {
			return SQLView(st.SQL), true
		}
	case models.DomainStorage:
		if st.Storage != nil {
			return StorageView(st.Storage), true
		}
	case models.DomainSchedule:
		if st.Schedule != nil {
			return ScheduleView(st.Schedule, pricing), true
		}
	case models.DomainML:
		if st.ML != nil {
			return MLView(st.ML), true
		}
	}
	return View{}, false
}

func SQLView(s *workflow.SQLState) View {
	return View{
		Domain:  models.DomainSQL,
		Run:     s.Run,
		Summary: SummaryTable("SQL Optimization Summary", s.Summary),
		Tables:  []Table{SQLTable(s.Results)},
		Charts:  []Chart{SQLComparisonChart(s.Results), SavingsPieChart(s.Results)},
		Notices: s.Notices,
	}
}

func StorageView(s *workflow.StorageState) View {
	return View{
		Domain:  models.DomainStorage,
		Run:     s.Run,
		Summary: SummaryTable("Storage Optimization Summary (monthly)", s.Summary),
		Tables:  []Table{StorageTable(s.Results)},
		Charts:  []Chart{StorageDistributionChart(s.Buckets), StorageSavingsChart(s.Results)},
		Notices: s.Notices,
	}
}

func ScheduleView(s *workflow.ScheduleState, pricing config.PricingConfig) View {
	costOf := func(q models.ScheduledQuery) float64 {
		return optimize.DailyCost(q.CostMB, q.Frequency, pricing)
	}

	projection := Table{
		Title:   "Projected Savings",
		Columns: []string{"Daily", "Monthly", "Annual"},
		Rows: [][]string{{
			FormatUSD2(s.Projection.Daily),
			FormatUSD2(s.Projection.Monthly),
			FormatUSD2(s.Projection.Annual),
		}},
	}
	if len(s.Results) == 0 {
		projection = emptyTable(projection.Title, projection.Columns)
	}

	return View{
		Domain:  models.DomainSchedule,
		Run:     s.Run,
		Summary: SummaryTable("Schedule Optimization Summary (daily)", s.Summary),
		Tables:  []Table{ScheduleTable(s.Results), projection},
		Charts:  []Chart{ScheduleHeatmap(s.Schedules, costOf), ScheduleSavingsHeatmap(s.Results)},
		Notices: s.Notices,
	}
}

func MLView(s *workflow.MLState) View {
	return View{
		Domain:  models.DomainML,
		Run:     s.Run,
		Summary: SummaryTable("ML Compute Optimization Summary", s.Summary),
		Tables:  []Table{MLTable(s.Results)},
		Charts:  []Chart{MLCostBreakdownChart(s.Jobs)},
		Notices: s.Notices,
	}
}

// WriteView prints a view as plain text.
func WriteView(w io.Writer, v View) error {
	if _, err := fmt.Fprintf(w, "Run %s [%s] status=%s provider=%s model=%s\n\n",
		v.Run.ID, v.Domain, v.Run.Status, v.Run.Provider, v.Run.Model); err != nil {
		return err
	}
	for _, n := range v.Notices {
		line := fmt.Sprintf("! %s: %s", n.Kind, n.Message)
		if n.Hint != "" {
			line += " (" + n.Hint + ")"
		}
		if n.Detail != "" {
			line += "\n    detail: " + n.Detail
		}
		if _, err := fmt.Fprintln(w, line); err != nil {
			return err
		}
	}
	if len(v.Notices) > 0 {
		fmt.Fprintln(w)
	}

	if err := WriteTable(w, v.Summary); err != nil {
		return err
	}
	for _, t := range v.Tables {
		if err := WriteTable(w, t); err != nil {
			return err
		}
	}
	for _, c := range v.Charts {
		if err := WriteChart(w, c); err != nil {
			return err
		}
	}
	return nil
}
