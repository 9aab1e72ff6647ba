package table

import (
	"fmt"
	"math"
	"time"
)

// Schema describes the logical shape of a table.
type Schema struct {
	Columns []ColumnSchema `json:"columns"`
}

type ColumnSchema struct {
	Name     string `json:"name"`
	Type     Kind   `json:"kind"`
	Nullable bool   `json:"nullable"`
}

// Names returns the column names in schema order.
func (s Schema) Names() []string {
	out := make([]string, len(s.Columns))
	for i, cs := range s.Columns {
		out[i] = cs.Name
	}
	return out
}

// Lookup finds a column by name.
func (s Schema) Lookup(name string) (ColumnSchema, bool) {
	for _, cs := range s.Columns {
		if cs.Name == name {
			return cs, true
		}
	}
	return ColumnSchema{}, false
}

// Kind enumerates supported logical types.
type Kind int

const (
	KindInvalid Kind = iota
	KindInt
	KindFloat
	KindString
	KindTime
)

func (k Kind) String() string {
	switch k {
	case KindInt:
		return "int"
	case KindFloat:
		return "float"
	case KindString:
		return "string"
	case KindTime:
		return "time"
	default:
		return "invalid"
	}
}

// Numeric reports whether values of this kind take the numeric role.
func (k Kind) Numeric() bool { return k == KindInt || k == KindFloat }

func (k Kind) MarshalText() ([]byte, error) { return []byte(k.String()), nil }

func (k *Kind) UnmarshalText(b []byte) error {
	switch string(b) {
	case "int":
		*k = KindInt
	case "float":
		*k = KindFloat
	case "string":
		*k = KindString
	case "time":
		*k = KindTime
	default:
		return fmt.Errorf("unknown column kind %q", string(b))
	}
	return nil
}

// Column is a typed, nullable column abstraction.
type Column interface {
	Name() string
	Kind() Kind
	Len() int
	IsNull(i int) bool
	SetNull(i int)
	AppendNull()
	Clone() Column
	take(rows []int) Column
}

// NumericColumn is implemented by Int and Float columns so stages can read
// and write numbers without switching on the concrete type.
type NumericColumn interface {
	Column
	Float(i int) (float64, bool)
	SetFloat(i int, v float64)
}

type IntColumn struct {
	name  string
	data  []int64
	nulls []bool
}

func NewIntColumn(name string, n int) *IntColumn {
	return &IntColumn{name: name, data: make([]int64, n), nulls: make([]bool, n)}
}
func (c *IntColumn) Name() string            { return c.name }
func (c *IntColumn) Kind() Kind              { return KindInt }
func (c *IntColumn) Len() int                { return len(c.data) }
func (c *IntColumn) IsNull(i int) bool       { return c.nulls[i] }
func (c *IntColumn) SetNull(i int)           { c.nulls[i] = true }
func (c *IntColumn) Get(i int) (int64, bool) { return c.data[i], !c.nulls[i] }
func (c *IntColumn) Set(i int, v int64)      { c.data[i] = v; c.nulls[i] = false }
func (c *IntColumn) AppendNull()             { c.data = append(c.data, 0); c.nulls = append(c.nulls, true) }
func (c *IntColumn) Append(v int64)          { c.data = append(c.data, v); c.nulls = append(c.nulls, false) }
func (c *IntColumn) Float(i int) (float64, bool) {
	return float64(c.data[i]), !c.nulls[i]
}

// SetFloat rounds to the nearest integer.
func (c *IntColumn) SetFloat(i int, v float64) { c.Set(i, int64(math.Round(v))) }

func (c *IntColumn) Clone() Column {
	out := &IntColumn{name: c.name, data: make([]int64, len(c.data)), nulls: make([]bool, len(c.nulls))}
	copy(out.data, c.data)
	copy(out.nulls, c.nulls)
	return out
}

func (c *IntColumn) take(rows []int) Column {
	out := NewIntColumn(c.name, len(rows))
	for i, r := range rows {
		out.data[i], out.nulls[i] = c.data[r], c.nulls[r]
	}
	return out
}

type FloatColumn struct {
	name  string
	data  []float64
	nulls []bool
}

func NewFloatColumn(name string, n int) *FloatColumn {
	return &FloatColumn{name: name, data: make([]float64, n), nulls: make([]bool, n)}
}

// NewNullFloatColumn returns a column of n missing values.
func NewNullFloatColumn(name string, n int) *FloatColumn {
	c := NewFloatColumn(name, n)
	for i := range c.nulls {
		c.nulls[i] = true
	}
	return c
}
func (c *FloatColumn) Name() string                { return c.name }
func (c *FloatColumn) Kind() Kind                  { return KindFloat }
func (c *FloatColumn) Len() int                    { return len(c.data) }
func (c *FloatColumn) IsNull(i int) bool           { return c.nulls[i] }
func (c *FloatColumn) SetNull(i int)               { c.nulls[i] = true }
func (c *FloatColumn) Get(i int) (float64, bool)   { return c.data[i], !c.nulls[i] }
func (c *FloatColumn) Float(i int) (float64, bool) { return c.data[i], !c.nulls[i] }
func (c *FloatColumn) SetFloat(i int, v float64)   { c.Set(i, v) }
func (c *FloatColumn) AppendNull()                 { c.data = append(c.data, 0); c.nulls = append(c.nulls, true) }
func (c *FloatColumn) Append(v float64)            { c.data = append(c.data, v); c.nulls = append(c.nulls, false) }

// Set stores v; NaN is recorded as missing.
func (c *FloatColumn) Set(i int, v float64) {
	if math.IsNaN(v) {
		c.data[i], c.nulls[i] = 0, true
		return
	}
	c.data[i] = v
	c.nulls[i] = false
}

func (c *FloatColumn) Clone() Column {
	out := &FloatColumn{name: c.name, data: make([]float64, len(c.data)), nulls: make([]bool, len(c.nulls))}
	copy(out.data, c.data)
	copy(out.nulls, c.nulls)
	return out
}

func (c *FloatColumn) take(rows []int) Column {
	out := NewFloatColumn(c.name, len(rows))
	for i, r := range rows {
		out.data[i], out.nulls[i] = c.data[r], c.nulls[r]
	}
	return out
}

type StringColumn struct {
	name  string
	data  []string
	nulls []bool
}

func NewStringColumn(name string, n int) *StringColumn {
	return &StringColumn{name: name, data: make([]string, n), nulls: make([]bool, n)}
}
func (c *StringColumn) Name() string             { return c.name }
func (c *StringColumn) Kind() Kind               { return KindString }
func (c *StringColumn) Len() int                 { return len(c.data) }
func (c *StringColumn) IsNull(i int) bool        { return c.nulls[i] }
func (c *StringColumn) SetNull(i int)            { c.nulls[i] = true }
func (c *StringColumn) Get(i int) (string, bool) { return c.data[i], !c.nulls[i] }
func (c *StringColumn) Set(i int, v string)      { c.data[i] = v; c.nulls[i] = false }
func (c *StringColumn) AppendNull()              { c.data = append(c.data, ""); c.nulls = append(c.nulls, true) }
func (c *StringColumn) Append(v string)          { c.data = append(c.data, v); c.nulls = append(c.nulls, false) }

func (c *StringColumn) Clone() Column {
	out := &StringColumn{name: c.name, data: make([]string, len(c.data)), nulls: make([]bool, len(c.nulls))}
	copy(out.data, c.data)
	copy(out.nulls, c.nulls)
	return out
}

func (c *StringColumn) take(rows []int) Column {
	out := NewStringColumn(c.name, len(rows))
	for i, r := range rows {
		out.data[i], out.nulls[i] = c.data[r], c.nulls[r]
	}
	return out
}

type TimeColumn struct {
	name  string
	data  []time.Time
	nulls []bool
}

func NewTimeColumn(name string, n int) *TimeColumn {
	return &TimeColumn{name: name, data: make([]time.Time, n), nulls: make([]bool, n)}
}
func (c *TimeColumn) Name() string                { return c.name }
func (c *TimeColumn) Kind() Kind                  { return KindTime }
func (c *TimeColumn) Len() int                    { return len(c.data) }
func (c *TimeColumn) IsNull(i int) bool           { return c.nulls[i] }
func (c *TimeColumn) SetNull(i int)               { c.nulls[i] = true }
func (c *TimeColumn) Get(i int) (time.Time, bool) { return c.data[i], !c.nulls[i] }
func (c *TimeColumn) Set(i int, v time.Time)      { c.data[i] = v; c.nulls[i] = false }
func (c *TimeColumn) AppendNull() {
	c.data = append(c.data, time.Time{})
	c.nulls = append(c.nulls, true)
}
func (c *TimeColumn) Append(v time.Time) {
	c.data = append(c.data, v)
	c.nulls = append(c.nulls, false)
}

func (c *TimeColumn) Clone() Column {
	out := &TimeColumn{name: c.name, data: make([]time.Time, len(c.data)), nulls: make([]bool, len(c.nulls))}
	copy(out.data, c.data)
	copy(out.nulls, c.nulls)
	return out
}

func (c *TimeColumn) take(rows []int) Column {
	out := NewTimeColumn(c.name, len(rows))
	for i, r := range rows {
		out.data[i], out.nulls[i] = c.data[r], c.nulls[r]
	}
	return out
}

func newColumn(cs ColumnSchema, n int) Column {
	switch cs.Type {
	case KindInt:
		return NewIntColumn(cs.Name, n)
	case KindFloat:
		return NewFloatColumn(cs.Name, n)
	case KindString:
		return NewStringColumn(cs.Name, n)
	case KindTime:
		return NewTimeColumn(cs.Name, n)
	default:
		panic("invalid column kind")
	}
}

// Table is a columnar container for property records. Stages add and drop
// columns as they run, so the schema is derived from the live columns.
type Table struct {
	cols  []Column
	index map[string]int // name -> col index
	nrows int
}

func NewTable(s Schema) *Table {
	t := &Table{cols: make([]Column, len(s.Columns)), index: make(map[string]int)}
	for i, cs := range s.Columns {
		t.cols[i] = newColumn(cs, 0)
		t.index[cs.Name] = i
	}
	return t
}

// FromColumns assembles a table from equal-length columns.
func FromColumns(cols ...Column) (*Table, error) {
	t := &Table{index: make(map[string]int)}
	for i, c := range cols {
		if i == 0 {
			t.nrows = c.Len()
		}
		if err := t.SetColumn(c); err != nil {
			return nil, err
		}
	}
	return t, nil
}

func (t *Table) Schema() Schema {
	s := Schema{Columns: make([]ColumnSchema, len(t.cols))}
	for i, c := range t.cols {
		s.Columns[i] = ColumnSchema{Name: c.Name(), Type: c.Kind(), Nullable: true}
	}
	return s
}

func (t *Table) Rows() int          { return t.nrows }
func (t *Table) Cols() int          { return len(t.cols) }
func (t *Table) Columns() []Column  { return t.cols }
func (t *Table) Names() []string    { return t.Schema().Names() }
func (t *Table) Has(name string) bool {
	_, ok := t.index[name]
	return ok
}

// HasAll reports whether every named column is present.
func (t *Table) HasAll(names ...string) bool {
	for _, n := range names {
		if !t.Has(n) {
			return false
		}
	}
	return true
}

func (t *Table) ColumnByName(name string) (Column, bool) {
	i, ok := t.index[name]
	if !ok {
		return nil, false
	}
	return t.cols[i], true
}

// Numeric returns the named column when it holds numbers.
func (t *Table) Numeric(name string) (NumericColumn, bool) {
	c, ok := t.ColumnByName(name)
	if !ok {
		return nil, false
	}
	nc, ok := c.(NumericColumn)
	return nc, ok
}

// Strings returns the named column when it holds text.
func (t *Table) Strings(name string) (*StringColumn, bool) {
	c, ok := t.ColumnByName(name)
	if !ok {
		return nil, false
	}
	sc, ok := c.(*StringColumn)
	return sc, ok
}

// AppendNullRow appends a row with all-null values.
func (t *Table) AppendNullRow() {
	for _, c := range t.cols {
		c.AppendNull()
	}
	t.nrows++
}

// SetColumn replaces the column with the same name in place, or appends it.
func (t *Table) SetColumn(c Column) error {
	if len(t.cols) > 0 && c.Len() != t.nrows {
		return fmt.Errorf("column %s has %d rows, table has %d", c.Name(), c.Len(), t.nrows)
	}
	if len(t.cols) == 0 {
		t.nrows = c.Len()
	}
	if i, ok := t.index[c.Name()]; ok {
		t.cols[i] = c
		return nil
	}
	t.index[c.Name()] = len(t.cols)
	t.cols = append(t.cols, c)
	return nil
}

// DropColumns removes the named columns and returns those that existed.
func (t *Table) DropColumns(names ...string) []string {
	drop := make(map[string]struct{}, len(names))
	for _, n := range names {
		drop[n] = struct{}{}
	}
	var dropped []string
	kept := t.cols[:0]
	for _, c := range t.cols {
		if _, ok := drop[c.Name()]; ok {
			dropped = append(dropped, c.Name())
			continue
		}
		kept = append(kept, c)
	}
	t.cols = kept
	t.index = make(map[string]int, len(kept))
	for i, c := range kept {
		t.index[c.Name()] = i
	}
	return dropped
}

// Clone deep-copies every column.
func (t *Table) Clone() *Table {
	out := &Table{cols: make([]Column, len(t.cols)), index: make(map[string]int, len(t.cols)), nrows: t.nrows}
	for i, c := range t.cols {
		out.cols[i] = c.Clone()
		out.index[c.Name()] = i
	}
	return out
}

// Take returns a new table holding the given rows in order.
func (t *Table) Take(rows []int) *Table {
	out := &Table{cols: make([]Column, len(t.cols)), index: make(map[string]int, len(t.cols)), nrows: len(rows)}
	for i, c := range t.cols {
		out.cols[i] = c.take(rows)
		out.index[c.Name()] = i
	}
	return out
}

// SetCell sets a single cell value by name (row must exist).
func (t *Table) SetCell(row int, name string, v any) error {
	i, ok := t.index[name]
	if !ok {
		return fmt.Errorf("unknown column: %s", name)
	}
	if v == nil {
		t.cols[i].SetNull(row)
		return nil
	}
	switch col := t.cols[i].(type) {
	case NumericColumn:
		f, ok := toFloat(v)
		if !ok {
			return fmt.Errorf("column %s expects a number, got %T", name, v)
		}
		col.SetFloat(row, f)
	case *StringColumn:
		s, ok := v.(string)
		if !ok {
			return fmt.Errorf("column %s expects string, got %T", name, v)
		}
		col.Set(row, s)
	case *TimeColumn:
		tv, ok := v.(time.Time)
		if !ok {
			return fmt.Errorf("column %s expects time.Time, got %T", name, v)
		}
		col.Set(row, tv)
	default:
		return fmt.Errorf("unknown column kind")
	}
	return nil
}

func toFloat(v any) (float64, bool) {
	switch t := v.(type) {
	case float64:
		return t, true
	case float32:
		return float64(t), true
	case int:
		return float64(t), true
	case int32:
		return float64(t), true
	case int64:
		return float64(t), true
	default:
		return 0, false
	}
}
