package table

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/goccy/go-json"
)

// Record is a single property listing keyed by column name. A nil value or
// absent key means missing.
type Record = map[string]any

var timeLayouts = []string{time.RFC3339, "2006-01-02", "2006-01-02 15:04:05"}

// FromRecords builds a table with the given schema. Values that cannot be
// coerced to their column kind become missing and are reported.
func FromRecords(records []Record, s Schema) (*Table, []*CoercionError) {
	t := NewTable(s)
	var errs []*CoercionError
	for r, rec := range records {
		t.AppendNullRow()
		for _, cs := range s.Columns {
			v, ok := rec[cs.Name]
			if !ok || v == nil {
				continue
			}
			col, _ := t.ColumnByName(cs.Name)
			if !setCoerced(col, r, v) {
				errs = append(errs, &CoercionError{Column: cs.Name, Row: r, Value: v})
			}
		}
	}
	return t, errs
}

// InferSchema derives a schema from the union of record keys, sorted by name.
// Columns whose every value is numeric become Int (all integral) or Float;
// everything else is String.
func InferSchema(records []Record) Schema {
	type seen struct{ numeric, integral, any bool }
	cols := map[string]*seen{}
	for _, rec := range records {
		for k, v := range rec {
			st, ok := cols[k]
			if !ok {
				st = &seen{numeric: true, integral: true}
				cols[k] = st
			}
			if v == nil {
				continue
			}
			st.any = true
			f, ok := CoerceFloat(v)
			if !ok {
				st.numeric = false
				continue
			}
			if f != float64(int64(f)) {
				st.integral = false
			}
		}
	}
	names := make([]string, 0, len(cols))
	for k := range cols {
		names = append(names, k)
	}
	sort.Strings(names)
	s := Schema{}
	for _, n := range names {
		st := cols[n]
		kind := KindString
		switch {
		case st.any && st.numeric && st.integral:
			kind = KindInt
		case st.any && st.numeric:
			kind = KindFloat
		}
		s.Columns = append(s.Columns, ColumnSchema{Name: n, Type: kind, Nullable: true})
	}
	return s
}

// ToRecords converts each row to a Record, omitting missing cells.
func ToRecords(t *Table) []Record {
	out := make([]Record, t.Rows())
	for i := range out {
		rec := make(Record, t.Cols())
		for _, c := range t.Columns() {
			if c.IsNull(i) {
				continue
			}
			switch col := c.(type) {
			case *IntColumn:
				v, _ := col.Get(i)
				rec[c.Name()] = v
			case *FloatColumn:
				v, _ := col.Get(i)
				rec[c.Name()] = v
			case *StringColumn:
				v, _ := col.Get(i)
				rec[c.Name()] = v
			case *TimeColumn:
				v, _ := col.Get(i)
				rec[c.Name()] = v
			}
		}
		out[i] = rec
	}
	return out
}

// CoerceFloat converts numbers and numeric strings to float64.
func CoerceFloat(v any) (float64, bool) {
	switch x := v.(type) {
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(x), 64)
		return f, err == nil
	case json.Number:
		f, err := x.Float64()
		return f, err == nil
	case bool:
		if x {
			return 1, true
		}
		return 0, true
	case uint:
		return float64(x), true
	case uint64:
		return float64(x), true
	case int8:
		return float64(x), true
	case int16:
		return float64(x), true
	default:
		return toFloat(v)
	}
}

func setCoerced(col Column, row int, v any) bool {
	switch c := col.(type) {
	case NumericColumn:
		f, ok := CoerceFloat(v)
		if !ok {
			return false
		}
		c.SetFloat(row, f)
	case *StringColumn:
		switch x := v.(type) {
		case string:
			c.Set(row, x)
		case fmt.Stringer:
			c.Set(row, x.String())
		default:
			f, ok := CoerceFloat(v)
			if !ok {
				return false
			}
			c.Set(row, strconv.FormatFloat(f, 'f', -1, 64))
		}
	case *TimeColumn:
		switch x := v.(type) {
		case time.Time:
			c.Set(row, x)
		case string:
			for _, layout := range timeLayouts {
				if tv, err := time.Parse(layout, x); err == nil {
					c.Set(row, tv)
					return true
				}
			}
			return false
		default:
			return false
		}
	}
	return true
}

// SetValue coerces v into the named cell. It reports false, leaving the
// cell untouched, when the column is unknown or v does not fit its kind.
func (t *Table) SetValue(row int, name string, v any) bool {
	col, ok := t.ColumnByName(name)
	if !ok {
		return false
	}
	if v == nil {
		col.SetNull(row)
		return true
	}
	return setCoerced(col, row, v)
}
