// Package profile reports per-column completeness and distribution for a
// dataset, streamed chunk by chunk, and computes the target summaries served
// alongside a trained model.
package profile

import (
	"fmt"
	"math"
	"sort"
	"strings"

	j "github.com/wdm0006/appraiser/pkg/table"
)

type NumStats struct {
	Count int     `json:"count"`
	Nulls int     `json:"nulls"`
	Min   float64 `json:"min"`
	Max   float64 `json:"max"`
	Sum   float64 `json:"sum"`
}

func (s *NumStats) Mean() float64 {
	if s.Count == 0 {
		return 0
	}
	return s.Sum / float64(s.Count)
}

type StringStats struct {
	Count int            `json:"count"`
	Nulls int            `json:"nulls"`
	Freqs map[string]int `json:"-"`
}

type ColumnProfile struct {
	Name string
	Kind j.Kind
	Num  *NumStats
	Str  *StringStats
}

// Nulls is the number of missing cells seen.
func (cp *ColumnProfile) Nulls() int {
	if cp.Num != nil {
		return cp.Num.Nulls
	}
	return cp.Str.Nulls
}

func (cp *ColumnProfile) rows() int {
	if cp.Num != nil {
		return cp.Num.Count + cp.Num.Nulls
	}
	return cp.Str.Count + cp.Str.Nulls
}

// MissingPct is the percentage of missing cells, 0 for an empty column.
func (cp *ColumnProfile) MissingPct() float64 {
	n := cp.rows()
	if n == 0 {
		return 0
	}
	return 100 * float64(cp.Nulls()) / float64(n)
}

// Collector accumulates column profiles across chunks. Columns seen for the
// first time in a later chunk are added on the fly.
type Collector struct {
	cols  []ColumnProfile
	index map[string]int
	topK  int
}

func NewCollector(schema j.Schema, topK int) *Collector {
	c := &Collector{index: make(map[string]int), topK: topK}
	for _, cs := range schema.Columns {
		c.add(cs.Name, cs.Type)
	}
	return c
}

func (c *Collector) add(name string, kind j.Kind) *ColumnProfile {
	cp := ColumnProfile{Name: name, Kind: kind}
	if kind.Numeric() {
		cp.Num = &NumStats{Min: math.Inf(1), Max: math.Inf(-1)}
	} else {
		cp.Str = &StringStats{Freqs: make(map[string]int)}
	}
	c.index[name] = len(c.cols)
	c.cols = append(c.cols, cp)
	return &c.cols[len(c.cols)-1]
}

// Consume adds one chunk to the profile.
func (c *Collector) Consume(t *j.Table) {
	for _, col := range t.Columns() {
		idx, ok := c.index[col.Name()]
		var cp *ColumnProfile
		if ok {
			cp = &c.cols[idx]
		} else {
			cp = c.add(col.Name(), col.Kind())
		}
		switch v := col.(type) {
		case j.NumericColumn:
			if cp.Num == nil {
				continue
			}
			for i := 0; i < v.Len(); i++ {
				x, ok := v.Float(i)
				if !ok {
					cp.Num.Nulls++
					continue
				}
				cp.Num.Count++
				cp.Num.Min = math.Min(cp.Num.Min, x)
				cp.Num.Max = math.Max(cp.Num.Max, x)
				cp.Num.Sum += x
			}
		case *j.StringColumn:
			if cp.Str == nil {
				continue
			}
			for i := 0; i < v.Len(); i++ {
				s, ok := v.Get(i)
				if !ok {
					cp.Str.Nulls++
					continue
				}
				cp.Str.Count++
				if c.topK > 0 {
					cp.Str.Freqs[s]++
				}
			}
		case *j.TimeColumn:
			if cp.Str == nil {
				continue
			}
			for i := 0; i < v.Len(); i++ {
				tv, ok := v.Get(i)
				if !ok {
					cp.Str.Nulls++
					continue
				}
				cp.Str.Count++
				if c.topK > 0 {
					cp.Str.Freqs[tv.Format("2006-01-02")]++
				}
			}
		}
	}
}

// Columns returns the profiles in first-seen order.
func (c *Collector) Columns() []ColumnProfile { return c.cols }

// Missing returns the columns with at least one missing cell, most missing
// first.
func (c *Collector) Missing() []ColumnProfile {
	var out []ColumnProfile
	for _, cp := range c.cols {
		if cp.Nulls() > 0 {
			out = append(out, cp)
		}
	}
	sort.SliceStable(out, func(a, b int) bool { return out[a].Nulls() > out[b].Nulls() })
	return out
}

type freq struct {
	Value string `json:"value"`
	Count int    `json:"count"`
}

func (c *Collector) top(s *StringStats) []freq {
	arr := make([]freq, 0, len(s.Freqs))
	for k, v := range s.Freqs {
		arr = append(arr, freq{k, v})
	}
	sort.Slice(arr, func(a, b int) bool {
		if arr[a].Count != arr[b].Count {
			return arr[a].Count > arr[b].Count
		}
		return arr[a].Value < arr[b].Value
	})
	n := c.topK
	if n <= 0 || n > len(arr) {
		n = len(arr)
	}
	return arr[:n]
}

func (c *Collector) ReportText() string {
	var b strings.Builder
	b.WriteString("Profile Summary\n")
	for _, cp := range c.cols {
		fmt.Fprintf(&b, "- %s (%v) missing=%d (%.1f%%): ", cp.Name, cp.Kind, cp.Nulls(), cp.MissingPct())
		if cp.Num != nil {
			if cp.Num.Count == 0 {
				b.WriteString("no values\n")
				continue
			}
			fmt.Fprintf(&b, "count=%d min=%.6g max=%.6g mean=%.6g\n", cp.Num.Count, cp.Num.Min, cp.Num.Max, cp.Num.Mean())
			continue
		}
		fmt.Fprintf(&b, "count=%d distinct=%d\n", cp.Str.Count, len(cp.Str.Freqs))
		for _, f := range c.top(cp.Str) {
			fmt.Fprintf(&b, "  * %q: %d\n", f.Value, f.Count)
		}
	}
	return b.String()
}

type JSONProfile struct {
	Columns []JSONColumn `json:"columns"`
}

type JSONColumn struct {
	Name       string    `json:"name"`
	Kind       j.Kind    `json:"kind"`
	Missing    int       `json:"missing"`
	MissingPct float64   `json:"missing_pct"`
	Num        *NumStats `json:"num,omitempty"`
	Str        *struct {
		Count int    `json:"count"`
		Top   []freq `json:"top,omitempty"`
	} `json:"str,omitempty"`
}

func (c *Collector) ReportJSON() JSONProfile {
	out := JSONProfile{Columns: make([]JSONColumn, 0, len(c.cols))}
	for _, cp := range c.cols {
		jc := JSONColumn{Name: cp.Name, Kind: cp.Kind, Missing: cp.Nulls(), MissingPct: cp.MissingPct()}
		if cp.Num != nil {
			num := *cp.Num
			if num.Count == 0 {
				num.Min, num.Max = 0, 0
			}
			jc.Num = &num
		} else {
			jc.Str = &struct {
				Count int    `json:"count"`
				Top   []freq `json:"top,omitempty"`
			}{Count: cp.Str.Count, Top: c.top(cp.Str)}
			if c.topK <= 0 {
				jc.Str.Top = nil
			}
		}
		out.Columns = append(out.Columns, jc)
	}
	return out
}
