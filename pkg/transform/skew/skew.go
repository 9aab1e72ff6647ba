// Package skew learns which non-negative numeric columns are strongly
// skewed and log1p-transforms exactly those columns afterwards.
package skew

import (
	"context"
	"math"
	"sort"

	"github.com/goccy/go-json"
	"go.uber.org/zap"
	"gonum.org/v1/gonum/stat"

	j "github.com/wdm0006/appraiser/pkg/table"
)

type Config struct {
	// Threshold is the absolute sample skewness above which a column is
	// registered.
	Threshold float64 `json:"threshold" yaml:"threshold" toml:"threshold"`
	// MinDistinct excludes flag-like columns with this many distinct values
	// or fewer.
	MinDistinct int `json:"min_distinct" yaml:"min_distinct" toml:"min_distinct"`
	// Exclude lists columns that never take a feature role, such as the target.
	Exclude []string `json:"exclude" yaml:"exclude" toml:"exclude"`
}

func DefaultConfig() Config {
	return Config{Threshold: 0.75, MinDistinct: 10, Exclude: j.DefaultExclude}
}

// minSamples is the smallest sample for which skewness is defined.
const minSamples = 3

type Corrector struct {
	cfg Config
	log *zap.Logger
}

func New(cfg Config, log *zap.Logger) *Corrector {
	if log == nil {
		log = zap.NewNop()
	}
	return &Corrector{cfg: cfg, log: log}
}

type state struct {
	Columns  []string           `json:"columns"`
	Skewness map[string]float64 `json:"skewness"`
}

// Fit registers every eligible numeric column whose skewness exceeds the
// threshold.
func (c *Corrector) Fit(ctx context.Context, t *j.Table) (*Fitted, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	st := &state{Columns: []string{}, Skewness: map[string]float64{}}
	for _, name := range j.Classify(t, c.cfg.Exclude...).Numeric {
		col, _ := t.Numeric(name)
		vals := j.Floats(col)
		if !eligible(vals, c.cfg.MinDistinct) {
			continue
		}
		s := stat.Skew(vals, nil)
		if math.IsNaN(s) || math.Abs(s) <= c.cfg.Threshold {
			continue
		}
		st.Columns = append(st.Columns, name)
		st.Skewness[name] = s
	}
	sort.Strings(st.Columns)
	c.log.Info("skew corrector fitted", zap.Strings("registered", st.Columns))
	return &Fitted{state: st}, nil
}

func eligible(vals []float64, minDistinct int) bool {
	if len(vals) < minSamples {
		return false
	}
	distinct := make(map[float64]struct{}, minDistinct+1)
	for _, v := range vals {
		if v < 0 {
			return false
		}
		distinct[v] = struct{}{}
	}
	return len(distinct) > minDistinct
}

// Fitted applies log1p to the registered columns. The zero value is unfitted.
type Fitted struct {
	state *state
}

func (f *Fitted) Name() string { return "skew" }

// Columns returns the registered column names, sorted.
func (f *Fitted) Columns() []string {
	if f == nil || f.state == nil {
		return nil
	}
	return append([]string(nil), f.state.Columns...)
}

// Skewness returns the fit-time skewness of a registered column.
func (f *Fitted) Skewness(column string) (float64, bool) {
	if f == nil || f.state == nil {
		return 0, false
	}
	s, ok := f.state.Skewness[column]
	return s, ok
}

// Apply replaces each registered column present in t with a float column of
// log1p(max(x, 0)).
func (f *Fitted) Apply(ctx context.Context, t *j.Table) (*j.Table, error) {
	if f == nil || f.state == nil {
		return nil, j.ErrNotFitted
	}
	for _, name := range f.state.Columns {
		c, ok := t.Numeric(name)
		if !ok {
			continue
		}
		out := j.NewNullFloatColumn(name, c.Len())
		for i := 0; i < c.Len(); i++ {
			if v, ok := c.Float(i); ok {
				out.Set(i, math.Log1p(math.Max(v, 0)))
			}
		}
		if err := t.SetColumn(out); err != nil {
			return nil, err
		}
	}
	return t, nil
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
