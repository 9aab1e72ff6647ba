package anomaly

import (
	"math"
	"sort"

	j "github.com/wdm0006/appraiser/pkg/table"
)

// TrimTargetIQR drops rows whose target lies outside [Q1-k*IQR, Q3+k*IQR]
// and rows with no target. It is meant for training tables only. The
// returned count is the number of rows removed.
func TrimTargetIQR(t *j.Table, target string, k float64) (*j.Table, int) {
	c, ok := t.Numeric(target)
	if !ok {
		return t, 0
	}
	vals := j.Floats(c)
	if len(vals) == 0 {
		return t, 0
	}
	sort.Float64s(vals)
	q1, q3 := quantile(vals, 0.25), quantile(vals, 0.75)
	iqr := q3 - q1
	lo, hi := q1-k*iqr, q3+k*iqr

	keep := make([]int, 0, t.Rows())
	for i := 0; i < t.Rows(); i++ {
		v, ok := c.Float(i)
		if ok && v >= lo && v <= hi {
			keep = append(keep, i)
		}
	}
	if len(keep) == t.Rows() {
		return t, 0
	}
	return t.Take(keep), t.Rows() - len(keep)
}

// quantile interpolates linearly between the order statistics around rank
// (n-1)*p of sorted, the default definition of most dataframe libraries.
func quantile(sorted []float64, p float64) float64 {
	h := float64(len(sorted)-1) * p
	lo := math.Floor(h)
	hi := math.Ceil(h)
	return sorted[int(lo)] + (h-lo)*(sorted[int(hi)]-sorted[int(lo)])
}
