package impute

import (
	"context"

	"github.com/goccy/go-json"
	"go.uber.org/zap"

	j "github.com/wdm0006/appraiser/pkg/table"
)

// Option configures an Imputer.
type Option func(*Imputer)

// WithLogger routes fit and transform warnings to log.
func WithLogger(log *zap.Logger) Option {
	return func(im *Imputer) { im.log = log }
}

// Imputer learns fill statistics. It has no transform of its own; Fit
// returns a Fitted that does.
type Imputer struct {
	cfg Config
	log *zap.Logger
}

func New(cfg Config, opts ...Option) *Imputer {
	im := &Imputer{cfg: cfg.withDefaults(), log: zap.NewNop()}
	for _, o := range opts {
		o(im)
	}
	if im.log == nil {
		im.log = zap.NewNop()
	}
	return im
}

// state is everything Apply needs; it never changes after Fit.
type state struct {
	NoneColumns []string             `json:"none_columns"`
	ZeroColumns []string             `json:"zero_columns"`
	NoneValue   string               `json:"none_value"`
	Group       *groupState          `json:"group,omitempty"`
	Modes       map[string]modeValue `json:"modes"`
}

// Fit learns group statistics and modes from t. Columns named in the config
// but absent from t are ignored.
func (im *Imputer) Fit(ctx context.Context, t *j.Table) (*Fitted, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	st := &state{
		NoneColumns: append([]string(nil), im.cfg.NoneColumns...),
		ZeroColumns: append([]string(nil), im.cfg.ZeroColumns...),
		NoneValue:   im.cfg.NoneValue,
		Modes:       map[string]modeValue{},
	}
	if g := im.cfg.Group; g != nil && t.Has(g.Column) {
		_, grouped := t.Strings(g.By)
		if !grouped {
			im.log.Warn("group column missing, using global statistic only",
				zap.Error(&j.SchemaError{Stage: "impute", Column: g.By}))
		}
		st.Group = learnGroup(t, *g, grouped)
	}
	for _, name := range im.cfg.ModeColumns {
		col, ok := t.ColumnByName(name)
		if !ok {
			continue
		}
		if m, ok := learnMode(col); ok {
			st.Modes[name] = m
		}
	}
	fields := []zap.Field{zap.Int("rows", t.Rows()), zap.Int("modes", len(st.Modes))}
	if st.Group != nil {
		fields = append(fields, zap.Strings("groups", st.Group.Kept))
	}
	im.log.Info("imputer fitted", fields...)
	return &Fitted{state: st, log: im.log}, nil
}

// Fitted applies learned imputation. The zero value is unfitted.
type Fitted struct {
	state *state
	log   *zap.Logger
}

func (f *Fitted) Name() string { return "impute" }

// WithLogger returns a copy of f that logs to log.
func (f *Fitted) WithLogger(log *zap.Logger) *Fitted {
	if f == nil {
		return nil
	}
	out := *f
	out.log = log
	return &out
}

func (f *Fitted) logger() *zap.Logger {
	if f.log == nil {
		return zap.NewNop()
	}
	return f.log
}

// Apply fills t in place: none-columns, zero-columns, the group column,
// then mode columns. Absent columns are skipped.
func (f *Fitted) Apply(ctx context.Context, t *j.Table) (*j.Table, error) {
	if f == nil || f.state == nil {
		return nil, j.ErrNotFitted
	}
	st := f.state
	for _, name := range st.NoneColumns {
		if c, ok := t.Strings(name); ok {
			fillString(c, st.NoneValue)
		}
	}
	for _, name := range st.ZeroColumns {
		if c, ok := t.Numeric(name); ok {
			fillNumber(c, 0)
		}
	}
	if st.Group != nil {
		if err := f.applyGroup(t, st.Group); err != nil {
			return nil, err
		}
	}
	for name, m := range st.Modes {
		fillColumn(t, name, m)
	}
	return t, nil
}

func (f *Fitted) applyGroup(t *j.Table, gs *groupState) error {
	keys, hasKeys := t.Strings(gs.By)
	var groups []string
	if hasKeys && gs.Grouped {
		groups = make([]string, t.Rows())
		for i := range groups {
			groups[i] = gs.assign(keys, i)
			keys.Set(i, groups[i])
		}
	}
	target, ok := t.Numeric(gs.Column)
	if !ok {
		return nil
	}
	// group statistics are fractional; an integer column would round them
	if ic, isInt := target.(*j.IntColumn); isInt {
		fc := j.NewNullFloatColumn(gs.Column, ic.Len())
		for i := 0; i < ic.Len(); i++ {
			if v, ok := ic.Float(i); ok {
				fc.Set(i, v)
			}
		}
		if err := t.SetColumn(fc); err != nil {
			return err
		}
		target = fc
	}
	if !hasKeys {
		if gs.Grouped {
			f.logger().Warn("group column missing, using global statistic only",
				zap.Error(&j.SchemaError{Stage: "impute", Column: gs.By}))
		}
		if gs.HasGlobal {
			fillNumber(target, gs.Global)
		}
		return nil
	}
	for i := 0; i < t.Rows(); i++ {
		if !target.IsNull(i) {
			continue
		}
		g := gs.Other
		if groups != nil {
			g = groups[i]
		}
		if v, ok := gs.lookup(g); ok {
			target.SetFloat(i, v)
		}
	}
	return nil
}

// GroupStatistic returns the fill value a row in category would receive.
func (f *Fitted) GroupStatistic(category string) (float64, bool) {
	if f == nil || f.state == nil || f.state.Group == nil {
		return 0, false
	}
	gs := f.state.Group
	k := gs.Other
	for _, kept := range gs.Kept {
		if kept == category {
			k = category
			break
		}
	}
	return gs.lookup(k)
}

// Mode returns the learned mode of a categorical column.
func (f *Fitted) Mode(column string) (string, bool) {
	if f == nil || f.state == nil {
		return "", false
	}
	m, ok := f.state.Modes[column]
	if !ok || m.Label == nil {
		return "", false
	}
	return *m.Label, true
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
	if st.Modes == nil {
		st.Modes = map[string]modeValue{}
	}
	if st.Group != nil && st.Group.Stats == nil {
		st.Group.Stats = map[string]float64{}
	}
	f.state = &st
	return nil
}
