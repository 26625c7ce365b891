package analytics

import (
	"math"
	"strconv"
	"strings"
)

// FormatInt renders a count with thousands separators, e.g. 1234567
// becomes "1,234,567".
func FormatInt(n int64) string {
	s := strconv.FormatInt(n, 10)
	neg := strings.HasPrefix(s, "-")
	if neg {
		s = s[1:]
	}
	if len(s) > 3 {
		var b strings.Builder
		pre := len(s) % 3
		if pre > 0 {
			b.WriteString(s[:pre])
		}
		for i := pre; i < len(s); i += 3 {
			if b.Len() > 0 {
				b.WriteByte(',')
			}
			b.WriteString(s[i : i+3])
		}
		s = b.String()
	}
	if neg {
		return "-" + s
	}
	return s
}

// FormatFloat renders a value with the given precision, or "N/A" for
// a missing value.
func FormatFloat(v float64, prec int) string {
	if math.IsNaN(v) {
		return "N/A"
	}
	return strconv.FormatFloat(v, 'f', prec, 64)
}

// FormatCount renders a float total as a separated integer, or "N/A"
// when missing.
func FormatCount(v float64) string {
	if math.IsNaN(v) {
		return "N/A"
	}
	return FormatInt(int64(math.Round(v)))
}

// FormatPercent renders a percentage with one decimal and a % suffix
func FormatPercent(v float64) string {
	if math.IsNaN(v) {
		return "N/A"
	}
	return strconv.FormatFloat(v, 'f', 1, 64) + "%"
}
