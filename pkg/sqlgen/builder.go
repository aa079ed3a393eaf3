// Package sqlgen builds BigQuery SQL containing common cost anti-patterns.
package sqlgen

import (
	"fmt"
	"strings"
)

// AntiPattern names a costly query shape.
type AntiPattern string

const (
	SelectStar            AntiPattern = "select_star"
	RandomOrder           AntiPattern = "random_order"
	NoPartitionFilter     AntiPattern = "no_partition_filter"
	CrossJoin             AntiPattern = "cross_join"
	RedundantSubquery     AntiPattern = "redundant_subquery"
	SelfJoin              AntiPattern = "self_join"
	UnfilteredAggregation AntiPattern = "unfiltered_aggregation"
	DistinctStar          AntiPattern = "distinct_star"
	NestedSubqueries      AntiPattern = "nested_subqueries"
	TautologyFilter       AntiPattern = "tautology_filter"
)

// AntiPatterns lists every pattern in template order.
var AntiPatterns = []AntiPattern{
	SelectStar,
	RandomOrder,
	NoPartitionFilter,
	CrossJoin,
	RedundantSubquery,
	SelfJoin,
	UnfilteredAggregation,
	DistinctStar,
	NestedSubqueries,
	TautologyFilter,
}

// Table identifies a BigQuery table. Dataset may be project-qualified.
type Table struct {
	Dataset string
	Table   string
}

// QueryBuilder constructs anti-pattern SQL strings.
// All methods are pure functions with no side effects.
// Zero value is ready to use.
type QueryBuilder struct{}

// Build returns the SQL for one anti-pattern against t. Unknown patterns
// return an empty string.
func (b QueryBuilder) Build(p AntiPattern, t Table) string {
	ref := b.tableRef(t)

	switch p {
	case SelectStar:
		return fmt.Sprintf("SELECT * FROM %s", ref)
	case RandomOrder:
		return fmt.Sprintf("SELECT * FROM %s ORDER BY RAND() LIMIT 100", ref)
	case NoPartitionFilter:
		return fmt.Sprintf("SELECT * FROM %s LIMIT 1000", ref)
	case CrossJoin:
		return fmt.Sprintf("SELECT * FROM %s t1 CROSS JOIN %s t2 LIMIT 10", ref, ref)
	case RedundantSubquery:
		return fmt.Sprintf("SELECT * FROM (SELECT * FROM %s) AS subquery", ref)
	case SelfJoin:
		return fmt.Sprintf("SELECT * FROM %s t1 JOIN %s t2 ON t1.id = t2.id", ref, ref)
	case UnfilteredAggregation:
		return fmt.Sprintf("SELECT COUNT(*), AVG(*) FROM %s", ref)
	case DistinctStar:
		return fmt.Sprintf("SELECT DISTINCT * FROM %s", ref)
	case NestedSubqueries:
		return fmt.Sprintf("SELECT * FROM (SELECT * FROM (SELECT * FROM %s) t1) t2 LIMIT 50", ref)
	case TautologyFilter:
		return fmt.Sprintf("SELECT * FROM %s WHERE 1=1 ORDER BY RAND()", ref)
	default:
		return ""
	}
}

// BuildAll returns one query per anti-pattern, in AntiPatterns order.
func (b QueryBuilder) BuildAll(t Table) []string {
	out := make([]string, 0, len(AntiPatterns))
	for _, p := range AntiPatterns {
		out = append(out, b.Build(p, t))
	}
	return out
}

// tableRef quotes the reference with backticks and drops any backticks in the
// input so the name cannot escape the identifier.
func (b QueryBuilder) tableRef(t Table) string {
	clean := func(s string) string { return strings.ReplaceAll(s, "`", "") }
	return fmt.Sprintf("`%s.%s`", clean(t.Dataset), clean(t.Table))
}
