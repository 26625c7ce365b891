// Package analytics provides the aggregation primitives behind the
// dashboard sections: sums, means, filtered variants, and group-by
// rollups over columnar dataset tables.
package analytics

import (
	"math"
	"sort"
	"time"
)

// Group is one bucket of a group-by rollup
type Group struct {
	Label string
	Value float64
	Count int
}

// Sum totals a numeric column, skipping missing values
func Sum(values []float64) float64 {
	var total float64
	for _, v := range values {
		if !math.IsNaN(v) {
			total += v
		}
	}
	return total
}

// Mean averages a numeric column, skipping missing values.
// Returns NaN when no value is present.
func Mean(values []float64) float64 {
	var total float64
	var n int
	for _, v := range values {
		if !math.IsNaN(v) {
			total += v
			n++
		}
	}
	if n == 0 {
		return math.NaN()
	}
	return total / float64(n)
}

// SumWhere totals values at rows where the predicate holds
func SumWhere(values []float64, keep func(i int) bool) float64 {
	var total float64
	for i, v := range values {
		if !math.IsNaN(v) && keep(i) {
			total += v
		}
	}
	return total
}

// MeanWhere averages values at rows where the predicate holds
func MeanWhere(values []float64, keep func(i int) bool) float64 {
	var total float64
	var n int
	for i, v := range values {
		if !math.IsNaN(v) && keep(i) {
			total += v
			n++
		}
	}
	if n == 0 {
		return math.NaN()
	}
	return total / float64(n)
}

// CountWhere counts rows where the predicate holds
func CountWhere(n int, keep func(i int) bool) int {
	var count int
	for i := 0; i < n; i++ {
		if keep(i) {
			count++
		}
	}
	return count
}

// GroupBySum buckets values by key and totals each bucket. Missing
// values contribute to the bucket's row count but not its total.
// Buckets come back sorted by value descending, key ascending on ties.
func GroupBySum(keys []string, values []float64) []Group {
	return groupBy(keys, values, false)
}

// GroupByMean buckets values by key and averages each bucket
func GroupByMean(keys []string, values []float64) []Group {
	return groupBy(keys, values, true)
}

func groupBy(keys []string, values []float64, mean bool) []Group {
	sums := make(map[string]float64)
	counts := make(map[string]int)
	present := make(map[string]int)
	order := make([]string, 0)
	for i, k := range keys {
		if _, ok := counts[k]; !ok {
			order = append(order, k)
		}
		counts[k]++
		if i < len(values) && !math.IsNaN(values[i]) {
			sums[k] += values[i]
			present[k]++
		}
	}

	groups := make([]Group, 0, len(order))
	for _, k := range order {
		g := Group{Label: k, Value: sums[k], Count: counts[k]}
		if mean {
			if present[k] == 0 {
				g.Value = math.NaN()
			} else {
				g.Value = sums[k] / float64(present[k])
			}
		}
		groups = append(groups, g)
	}
	sortGroups(groups)
	return groups
}

// GroupByCount buckets rows by key and counts each bucket
func GroupByCount(keys []string) []Group {
	counts := make(map[string]int)
	order := make([]string, 0)
	for _, k := range keys {
		if _, ok := counts[k]; !ok {
			order = append(order, k)
		}
		counts[k]++
	}
	groups := make([]Group, 0, len(order))
	for _, k := range order {
		groups = append(groups, Group{Label: k, Value: float64(counts[k]), Count: counts[k]})
	}
	sortGroups(groups)
	return groups
}

func sortGroups(groups []Group) {
	sort.SliceStable(groups, func(a, b int) bool {
		va, vb := groups[a].Value, groups[b].Value
		if math.IsNaN(va) {
			return false
		}
		if math.IsNaN(vb) {
			return true
		}
		if va != vb {
			return va > vb
		}
		return groups[a].Label < groups[b].Label
	})
}

// TopN keeps the first n groups, folding the remainder into an
// "Other" bucket when any rows remain.
func TopN(groups []Group, n int) []Group {
	if n <= 0 || len(groups) <= n {
		return groups
	}
	top := make([]Group, n, n+1)
	copy(top, groups[:n])
	other := Group{Label: "Other"}
	for _, g := range groups[n:] {
		if !math.IsNaN(g.Value) {
			other.Value += g.Value
		}
		other.Count += g.Count
	}
	if other.Count > 0 {
		top = append(top, other)
	}
	return top
}

// SortByLabel reorders groups by label ascending, for stable time or
// category axes where value ordering is wrong.
func SortByLabel(groups []Group) []Group {
	out := make([]Group, len(groups))
	copy(out, groups)
	sort.SliceStable(out, func(a, b int) bool { return out[a].Label < out[b].Label })
	return out
}

// MonthlyMean averages values per calendar month over the trailing
// window, newest last. Rows with a zero date or missing value are
// skipped. months <= 0 keeps every month seen.
func MonthlyMean(dates []time.Time, values []float64, months int) []Group {
	sums := make(map[string]float64)
	counts := make(map[string]int)
	for i, d := range dates {
		if d.IsZero() || i >= len(values) || math.IsNaN(values[i]) {
			continue
		}
		key := d.Format("2006-01")
		sums[key] += values[i]
		counts[key]++
	}

	labels := make([]string, 0, len(sums))
	for k := range sums {
		labels = append(labels, k)
	}
	sort.Strings(labels)
	if months > 0 && len(labels) > months {
		labels = labels[len(labels)-months:]
	}

	groups := make([]Group, 0, len(labels))
	for _, k := range labels {
		groups = append(groups, Group{Label: k, Value: sums[k] / float64(counts[k]), Count: counts[k]})
	}
	return groups
}

// Percent returns part as a percentage of whole, NaN on a zero whole
func Percent(part, whole float64) float64 {
	if whole == 0 || math.IsNaN(whole) || math.IsNaN(part) {
		return math.NaN()
	}
	return part / whole * 100
}
