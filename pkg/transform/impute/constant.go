package impute

import j "github.com/wdm0006/appraiser/pkg/table"

// fillString sets every missing cell of a string column to v.
func fillString(c *j.StringColumn, v string) int {
	n := 0
	for i := 0; i < c.Len(); i++ {
		if c.IsNull(i) {
			c.Set(i, v)
			n++
		}
	}
	return n
}

// fillNumber sets every missing cell of a numeric column to v.
func fillNumber(c j.NumericColumn, v float64) int {
	n := 0
	for i := 0; i < c.Len(); i++ {
		if c.IsNull(i) {
			c.SetFloat(i, v)
			n++
		}
	}
	return n
}

// fillColumn fills a column of either kind with a learned mode.
func fillColumn(t *j.Table, name string, m modeValue) int {
	col, ok := t.ColumnByName(name)
	if !ok {
		return 0
	}
	switch c := col.(type) {
	case *j.StringColumn:
		if m.Label != nil {
			return fillString(c, *m.Label)
		}
	case j.NumericColumn:
		if m.Number != nil {
			return fillNumber(c, *m.Number)
		}
	}
	return 0
}
