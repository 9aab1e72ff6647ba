package table

import (
	"math"
	"sort"
)

// Floats returns the non-missing values of a numeric column.
func Floats(c NumericColumn) []float64 {
	vals := make([]float64, 0, c.Len())
	for i := 0; i < c.Len(); i++ {
		if v, ok := c.Float(i); ok {
			vals = append(vals, v)
		}
	}
	return vals
}

// Median returns the middle value, averaging the two middle values for even
// lengths. It returns NaN for an empty slice and does not modify vals.
func Median(vals []float64) float64 {
	if len(vals) == 0 {
		return math.NaN()
	}
	s := append([]float64(nil), vals...)
	sort.Float64s(s)
	mid := len(s) / 2
	if len(s)%2 == 1 {
		return s[mid]
	}
	return (s[mid-1] + s[mid]) / 2
}

// Mode returns the most frequent label; ties go to the smallest label.
func Mode(counts map[string]int) (string, bool) {
	best, bestN := "", 0
	for k, n := range counts {
		if n > bestN || (n == bestN && k < best) {
			best, bestN = k, n
		}
	}
	return best, bestN > 0
}

// Counts tallies the non-missing values of a string column.
func Counts(c *StringColumn) map[string]int {
	out := make(map[string]int)
	for i := 0; i < c.Len(); i++ {
		if v, ok := c.Get(i); ok {
			out[v]++
		}
	}
	return out
}
