package analytics

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func nan() float64 { return math.NaN() }

func TestSumSkipsMissing(t *testing.T) {
	assert.Equal(t, 60.0, Sum([]float64{10, nan(), 20, 30}))
	assert.Equal(t, 0.0, Sum(nil))
	assert.Equal(t, 0.0, Sum([]float64{nan(), nan()}))
}

func TestMean(t *testing.T) {
	assert.Equal(t, 20.0, Mean([]float64{10, nan(), 20, 30}))
	assert.True(t, math.IsNaN(Mean(nil)))
	assert.True(t, math.IsNaN(Mean([]float64{nan()})))
}

func TestSumWhere(t *testing.T) {
	types := []string{"theft", "assault", "theft"}
	counts := []float64{120, 45, 150}
	total := SumWhere(counts, func(i int) bool { return types[i] == "theft" })
	assert.Equal(t, 270.0, total)
}

func TestMeanWhere(t *testing.T) {
	kinds := []string{"PM2.5", "PM10", "PM2.5", "PM2.5"}
	vals := []float64{40, 90, nan(), 60}
	mean := MeanWhere(vals, func(i int) bool { return kinds[i] == "PM2.5" })
	assert.Equal(t, 50.0, mean)

	none := MeanWhere(vals, func(i int) bool { return kinds[i] == "O3" })
	assert.True(t, math.IsNaN(none))
}

func TestGroupBySum(t *testing.T) {
	keys := []string{"north", "south", "north", "east"}
	vals := []float64{10, 25, 5, nan()}

	groups := GroupBySum(keys, vals)
	require.Len(t, groups, 3)
	assert.Equal(t, Group{Label: "south", Value: 25, Count: 1}, groups[0])
	assert.Equal(t, Group{Label: "north", Value: 15, Count: 2}, groups[1])
	assert.Equal(t, "east", groups[2].Label)
	assert.Equal(t, 0.0, groups[2].Value)
	assert.Equal(t, 1, groups[2].Count)
}

func TestGroupByMean(t *testing.T) {
	keys := []string{"a", "a", "b", "b"}
	vals := []float64{10, 20, nan(), nan()}

	groups := GroupByMean(keys, vals)
	require.Len(t, groups, 2)
	assert.Equal(t, "a", groups[0].Label)
	assert.Equal(t, 15.0, groups[0].Value)
	assert.Equal(t, "b", groups[1].Label)
	assert.True(t, math.IsNaN(groups[1].Value))
}

func TestGroupByCount(t *testing.T) {
	groups := GroupByCount([]string{"x", "y", "x", "x"})
	require.Len(t, groups, 2)
	assert.Equal(t, Group{Label: "x", Value: 3, Count: 3}, groups[0])
	assert.Equal(t, Group{Label: "y", Value: 1, Count: 1}, groups[1])
}

func TestTopN(t *testing.T) {
	groups := []Group{
		{Label: "a", Value: 50, Count: 5},
		{Label: "b", Value: 30, Count: 3},
		{Label: "c", Value: 10, Count: 1},
		{Label: "d", Value: 5, Count: 2},
	}

	top := TopN(groups, 2)
	require.Len(t, top, 3)
	assert.Equal(t, "a", top[0].Label)
	assert.Equal(t, "b", top[1].Label)
	assert.Equal(t, Group{Label: "Other", Value: 15, Count: 3}, top[2])

	assert.Len(t, TopN(groups, 10), 4)
	assert.Len(t, TopN(groups, 0), 4)
}

func TestSortByLabel(t *testing.T) {
	groups := []Group{{Label: "2023"}, {Label: "2021"}, {Label: "2022"}}
	sorted := SortByLabel(groups)
	assert.Equal(t, "2021", sorted[0].Label)
	assert.Equal(t, "2023", sorted[2].Label)
	// input untouched
	assert.Equal(t, "2023", groups[0].Label)
}

func TestMonthlyMean(t *testing.T) {
	d := func(s string) time.Time {
		parsed, err := time.Parse("2006-01", s)
		require.NoError(t, err)
		return parsed
	}
	dates := []time.Time{d("2023-01"), d("2023-01"), d("2023-02"), {}, d("2023-03")}
	vals := []float64{40, 60, 80, 10, nan()}

	groups := MonthlyMean(dates, vals, 12)
	require.Len(t, groups, 2)
	assert.Equal(t, Group{Label: "2023-01", Value: 50, Count: 2}, groups[0])
	assert.Equal(t, Group{Label: "2023-02", Value: 80, Count: 1}, groups[1])

	windowed := MonthlyMean(dates, vals, 1)
	require.Len(t, windowed, 1)
	assert.Equal(t, "2023-02", windowed[0].Label)
}

func TestPercent(t *testing.T) {
	assert.Equal(t, 25.0, Percent(25, 100))
	assert.True(t, math.IsNaN(Percent(5, 0)))
	assert.True(t, math.IsNaN(Percent(nan(), 100)))
}

func TestFormatInt(t *testing.T) {
	assert.Equal(t, "0", FormatInt(0))
	assert.Equal(t, "999", FormatInt(999))
	assert.Equal(t, "1,000", FormatInt(1000))
	assert.Equal(t, "1,234,567", FormatInt(1234567))
	assert.Equal(t, "-12,345", FormatInt(-12345))
}

func TestFormatHelpers(t *testing.T) {
	assert.Equal(t, "8.3", FormatFloat(8.3, 1))
	assert.Equal(t, "N/A", FormatFloat(nan(), 1))
	assert.Equal(t, "1,235", FormatCount(1234.6))
	assert.Equal(t, "N/A", FormatCount(nan()))
	assert.Equal(t, "42.5%", FormatPercent(42.5))
	assert.Equal(t, "N/A", FormatPercent(nan()))
}
