package impute

import j "github.com/wdm0006/appraiser/pkg/table"

// modeValue is the most frequent value of a column, textual or numeric.
type modeValue struct {
	Label  *string  `json:"label,omitempty"`
	Number *float64 `json:"number,omitempty"`
}

// learnMode returns the most frequent non-missing value. Ties go to the
// smallest value so repeated fits agree.
func learnMode(col j.Column) (modeValue, bool) {
	switch c := col.(type) {
	case *j.StringColumn:
		best, ok := j.Mode(j.Counts(c))
		if !ok {
			return modeValue{}, false
		}
		return modeValue{Label: &best}, true
	case j.NumericColumn:
		counts := map[float64]int{}
		var best float64
		var bestc int
		for i := 0; i < c.Len(); i++ {
			v, ok := c.Float(i)
			if !ok {
				continue
			}
			counts[v]++
			if n := counts[v]; n > bestc || (n == bestc && v < best) {
				bestc = n
				best = v
			}
		}
		if bestc == 0 {
			return modeValue{}, false
		}
		return modeValue{Number: &best}, true
	}
	return modeValue{}, false
}
