// Package encode turns the engineered table into a fixed-width numeric
// table: numeric columns are median-imputed and standardised, categorical
// columns are mode-imputed and one-hot encoded, date columns pass through as
// Unix seconds.
package encode

import (
	"context"
	"math"
	"sort"
	"strconv"

	"github.com/goccy/go-json"
	"go.uber.org/zap"
	"gonum.org/v1/gonum/stat"

	j "github.com/wdm0006/appraiser/pkg/table"
)

type Config struct {
	Exclude []string `json:"exclude" yaml:"exclude" toml:"exclude"`
}

func DefaultConfig() Config { return Config{Exclude: j.DefaultExclude} }

type Encoder struct {
	cfg Config
	log *zap.Logger
}

func New(cfg Config, log *zap.Logger) *Encoder {
	if log == nil {
		log = zap.NewNop()
	}
	return &Encoder{cfg: cfg, log: log}
}

type numericParam struct {
	Column string  `json:"column"`
	Median float64 `json:"median"`
	Mean   float64 `json:"mean"`
	Std    float64 `json:"std"`
}

type categoricalParam struct {
	Column     string   `json:"column"`
	Mode       string   `json:"mode"`
	HasMode    bool     `json:"has_mode"`
	Categories []string `json:"categories"`
}

type dateParam struct {
	Column string  `json:"column"`
	Median float64 `json:"median"`
}

type state struct {
	Numeric     []numericParam     `json:"numeric"`
	Categorical []categoricalParam `json:"categorical"`
	Dates       []dateParam        `json:"dates"`
	Columns     []string           `json:"columns"`
}

// Fit learns imputation and scaling parameters and fixes the output column
// order: numeric, then categorical indicators, then dates.
func (e *Encoder) Fit(ctx context.Context, t *j.Table) (*Fitted, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	roles := j.Classify(t, e.cfg.Exclude...)
	st := &state{}
	for _, name := range roles.Numeric {
		c, _ := t.Numeric(name)
		st.Numeric = append(st.Numeric, fitNumeric(name, c))
		st.Columns = append(st.Columns, name)
	}
	for _, name := range roles.Categorical {
		c, _ := t.Strings(name)
		p := fitCategorical(name, c)
		st.Categorical = append(st.Categorical, p)
		for _, cat := range p.Categories {
			st.Columns = append(st.Columns, indicatorName(name, cat))
		}
	}
	for _, name := range roles.Date {
		col, _ := t.ColumnByName(name)
		st.Dates = append(st.Dates, dateParam{Column: name, Median: j.Median(unixSeconds(col.(*j.TimeColumn)))})
		st.Columns = append(st.Columns, name)
	}
	for i := range st.Dates {
		if math.IsNaN(st.Dates[i].Median) {
			st.Dates[i].Median = 0
		}
	}
	e.log.Info("encoder fitted",
		zap.Int("numeric", len(st.Numeric)),
		zap.Int("categorical", len(st.Categorical)),
		zap.Int("width", len(st.Columns)))
	return &Fitted{state: st}, nil
}

func fitNumeric(name string, c j.NumericColumn) numericParam {
	vals := j.Floats(c)
	p := numericParam{Column: name, Std: 1}
	if len(vals) == 0 {
		return p
	}
	p.Median = j.Median(vals)
	// Scaling is learned on the imputed column.
	filled := make([]float64, c.Len())
	for i := range filled {
		v, ok := c.Float(i)
		if !ok {
			v = p.Median
		}
		filled[i] = v
	}
	p.Mean, p.Std = stat.PopMeanStdDev(filled, nil)
	if p.Std == 0 || math.IsNaN(p.Std) {
		p.Std = 1
	}
	return p
}

func fitCategorical(name string, c *j.StringColumn) categoricalParam {
	counts := j.Counts(c)
	p := categoricalParam{Column: name, Categories: make([]string, 0, len(counts))}
	p.Mode, p.HasMode = j.Mode(counts)
	for k := range counts {
		p.Categories = append(p.Categories, k)
	}
	sort.Strings(p.Categories)
	return p
}

func unixSeconds(c *j.TimeColumn) []float64 {
	out := make([]float64, 0, c.Len())
	for i := 0; i < c.Len(); i++ {
		if v, ok := c.Get(i); ok {
			out = append(out, float64(v.Unix()))
		}
	}
	return out
}

func indicatorName(column, category string) string { return column + "_" + category }

// Fitted produces the encoded table. The zero value is unfitted.
type Fitted struct {
	state *state
}

func (f *Fitted) Name() string { return "encode" }

// Columns returns the output column names in order.
func (f *Fitted) Columns() []string {
	if f == nil || f.state == nil {
		return nil
	}
	return append([]string(nil), f.state.Columns...)
}

// Apply builds a new table of float columns in the fitted order. Columns
// absent from t are treated as all-missing; unseen categories encode as all
// zeros.
func (f *Fitted) Apply(ctx context.Context, t *j.Table) (*j.Table, error) {
	if f == nil || f.state == nil {
		return nil, j.ErrNotFitted
	}
	n := t.Rows()
	cols := make([]j.Column, 0, len(f.state.Columns))
	for _, p := range f.state.Numeric {
		out := j.NewFloatColumn(p.Column, n)
		get := numericReader(t, p.Column)
		for i := 0; i < n; i++ {
			v, ok := get(i)
			if !ok {
				v = p.Median
			}
			out.Set(i, (v-p.Mean)/p.Std)
		}
		cols = append(cols, out)
	}
	for _, p := range f.state.Categorical {
		get := labelReader(t, p.Column)
		ind := make([]*j.FloatColumn, len(p.Categories))
		for k, cat := range p.Categories {
			ind[k] = j.NewFloatColumn(indicatorName(p.Column, cat), n)
			cols = append(cols, ind[k])
		}
		for i := 0; i < n; i++ {
			v, ok := get(i)
			if !ok {
				if !p.HasMode {
					continue
				}
				v = p.Mode
			}
			k := sort.SearchStrings(p.Categories, v)
			if k < len(p.Categories) && p.Categories[k] == v {
				ind[k].Set(i, 1)
			}
		}
	}
	for _, p := range f.state.Dates {
		out := j.NewFloatColumn(p.Column, n)
		c, _ := t.ColumnByName(p.Column)
		tc, isTime := c.(*j.TimeColumn)
		for i := 0; i < n; i++ {
			v := p.Median
			if isTime {
				if tv, ok := tc.Get(i); ok {
					v = float64(tv.Unix())
				}
			}
			out.Set(i, v)
		}
		cols = append(cols, out)
	}
	return j.FromColumns(cols...)
}

// numericReader reads a column as numbers, parsing text when a numeric fit
// column arrives as strings. Unparseable or absent values are missing.
func numericReader(t *j.Table, name string) func(i int) (float64, bool) {
	col, ok := t.ColumnByName(name)
	if !ok {
		return func(int) (float64, bool) { return 0, false }
	}
	switch c := col.(type) {
	case j.NumericColumn:
		return c.Float
	case *j.StringColumn:
		return func(i int) (float64, bool) {
			s, ok := c.Get(i)
			if !ok {
				return 0, false
			}
			return j.CoerceFloat(s)
		}
	}
	return func(int) (float64, bool) { return 0, false }
}

// labelReader reads a column as category labels, formatting numbers when a
// categorical fit column arrives numeric.
func labelReader(t *j.Table, name string) func(i int) (string, bool) {
	col, ok := t.ColumnByName(name)
	if !ok {
		return func(int) (string, bool) { return "", false }
	}
	switch c := col.(type) {
	case *j.StringColumn:
		return c.Get
	case j.NumericColumn:
		return func(i int) (string, bool) {
			v, ok := c.Float(i)
			if !ok {
				return "", false
			}
			return strconv.FormatFloat(v, 'f', -1, 64), true
		}
	}
	return func(int) (string, bool) { return "", false }
}

func (f *Fitted) MarshalJSON() ([]byte, error) {
	if f.state == nil {
		return nil, j.ErrNotFitted
	}
	return json.Marshal(f.state)
}

func (f *Fitted) UnmarshalJSON(b []byte) error {
	var st state
	if err := json.Unmarshal(b, &st); err != nil {
		return err
	}
	f.state = &st
	return nil
}
