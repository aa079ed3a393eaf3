package sqlgen

import (
	"strings"
	"testing"
)

func TestBuild(t *testing.T) {
	b := QueryBuilder{}
	tbl := Table{Dataset: "bigquery-public-data.thelook_ecommerce", Table: "orders"}
	ref := "`bigquery-public-data.thelook_ecommerce.orders`"

	tests := []struct {
		name     string
		pattern  AntiPattern
		expected string
	}{
		{"select star", SelectStar, "SELECT * FROM " + ref},
		{"random order", RandomOrder, "SELECT * FROM " + ref + " ORDER BY RAND() LIMIT 100"},
		{"no partition filter", NoPartitionFilter, "SELECT * FROM " + ref + " LIMIT 1000"},
		{"cross join", CrossJoin, "SELECT * FROM " + ref + " t1 CROSS JOIN " + ref + " t2 LIMIT 10"},
		{"redundant subquery", RedundantSubquery, "SELECT * FROM (SELECT * FROM " + ref + ") AS subquery"},
		{"self join", SelfJoin, "SELECT * FROM " + ref + " t1 JOIN " + ref + " t2 ON t1.id = t2.id"},
		{"unfiltered aggregation", UnfilteredAggregation, "SELECT COUNT(*), AVG(*) FROM " + ref},
		{"distinct star", DistinctStar, "SELECT DISTINCT * FROM " + ref},
		{"nested subqueries", NestedSubqueries, "SELECT * FROM (SELECT * FROM (SELECT * FROM " + ref + ") t1) t2 LIMIT 50"},
		{"tautology filter", TautologyFilter, "SELECT * FROM " + ref + " WHERE 1=1 ORDER BY RAND()"},
		{"unknown pattern", AntiPattern("nope"), ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := b.Build(tt.pattern, tbl)
			if got != tt.expected {
				t.Errorf("got:\n  %s\nwant:\n  %s", got, tt.expected)
			}
		})
	}
}

func TestBuildAll(t *testing.T) {
	b := QueryBuilder{}
	all := b.BuildAll(Table{Dataset: "ds", Table: "t"})

	if len(all) != len(AntiPatterns) {
		t.Fatalf("expected %d queries, got %d", len(AntiPatterns), len(all))
	}

	seen := map[string]bool{}
	for _, q := range all {
		if q == "" {
			t.Error("empty query in BuildAll output")
		}
		if seen[q] {
			t.Errorf("duplicate query: %s", q)
		}
		seen[q] = true
	}
}

func TestTableRef_StripsBackticks(t *testing.T) {
	b := QueryBuilder{}
	got := b.Build(SelectStar, Table{Dataset: "ds`; DROP", Table: "t`"})

	if strings.Count(got, "`") != 2 {
		t.Errorf("expected exactly two backticks, got: %s", got)
	}
}
