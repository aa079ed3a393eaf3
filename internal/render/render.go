// Package render turns result sets into display-neutral tables and chart
// series. It does no I/O beyond the text writer.
package render

import (
	"fmt"
	"io"
	"strings"
	"text/tabwriter"
)

// Placeholders shown in place of empty tables and charts.
const (
	NoData    = "No data available"
	NoSavings = "No savings detected"
)

// Chart kinds.
const (
	KindBar     = "bar"
	KindPie     = "pie"
	KindDonut   = "donut"
	KindHeatmap = "heatmap"
)

const bytesPerGB = 1 << 30

// Table is a titled grid of preformatted cells. When Placeholder is set the
// table has no rows and the placeholder is shown instead.
type Table struct {
	Title       string     `json:"title"`
	Columns     []string   `json:"columns"`
	Rows        [][]string `json:"rows"`
	Placeholder string     `json:"placeholder,omitempty"`
}

// Series is one named sequence of values aligned with Chart.Labels.
type Series struct {
	Name   string    `json:"name"`
	Values []float64 `json:"values"`
}

// Chart is the data behind a plot.
type Chart struct {
	Title       string   `json:"title"`
	Kind        string   `json:"kind"`
	XAxis       string   `json:"x_axis,omitempty"`
	YAxis       string   `json:"y_axis,omitempty"`
	Labels      []string `json:"labels"`
	Series      []Series `json:"series"`
	Placeholder string   `json:"placeholder,omitempty"`
}

func emptyTable(title string, columns []string) Table {
	return Table{Title: title, Columns: columns, Placeholder: NoData}
}

func emptyChart(title, kind, placeholder string) Chart {
	return Chart{Title: title, Kind: kind, Placeholder: placeholder}
}

// WriteTable prints t as aligned text columns.
func WriteTable(w io.Writer, t Table) error {
	if _, err := fmt.Fprintf(w, "%s\n", t.Title); err != nil {
		return err
	}
	if t.Placeholder != "" {
		_, err := fmt.Fprintf(w, "  %s\n\n", t.Placeholder)
		return err
	}

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, strings.Join(t.Columns, "\t"))
	for _, row := range t.Rows {
		fmt.Fprintln(tw, strings.Join(row, "\t"))
	}
	if err := tw.Flush(); err != nil {
		return err
	}
	_, err := fmt.Fprintln(w)
	return err
}

// WriteChart prints the chart data as a table with one column per series.
func WriteChart(w io.Writer, c Chart) error {
	t := Table{Title: fmt.Sprintf("%s [%s]", c.Title, c.Kind), Placeholder: c.Placeholder}
	if t.Placeholder == "" {
		t.Columns = append([]string{""}, seriesNames(c.Series)...)
		for i, label := range c.Labels {
			row := []string{label}
			for _, s := range c.Series {
				if i < len(s.Values) {
					row = append(row, fmt.Sprintf("%.4f", s.Values[i]))
				} else {
					row = append(row, "")
				}
			}
			t.Rows = append(t.Rows, row)
		}
	}
	return WriteTable(w, t)
}

func seriesNames(series []Series) []string {
	out := make([]string, len(series))
	for i, s := range series {
		out[i] = s.Name
	}
	return out
}

// FormatGB renders a byte count in GiB.
func FormatGB(bytes int64) string {
	return fmt.Sprintf("%.2f GB", float64(bytes)/bytesPerGB)
}

// FormatUSD renders a cost with four decimals for small query costs.
func FormatUSD(v float64) string {
	return fmt.Sprintf("$%.4f", v)
}

// FormatUSD2 renders a cost with cent precision.
func FormatUSD2(v float64) string {
	return fmt.Sprintf("$%.2f", v)
}

func FormatPercent(v float64) string {
	return fmt.Sprintf("%.2f%%", v)
}
