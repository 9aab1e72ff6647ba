// Package engineer derives area totals, presence flags, ages and scores from
// raw listing attributes, then drops the raw columns those features subsume.
package engineer

import (
	"context"
	"math"

	"go.uber.org/zap"

	j "github.com/wdm0006/appraiser/pkg/table"
	"github.com/wdm0006/appraiser/pkg/transform/ordinal"
)

// AgeBin is one labelled house-age interval, [Lo, Hi) years.
type AgeBin struct {
	Label  string
	Lo, Hi float64
}

// AgeBins are the HouseAgeBin intervals; ages outside them are missing.
var AgeBins = []AgeBin{
	{"New", 0, 5},
	{"Recent", 5, 20},
	{"Mid", 20, 50},
	{"Old", 50, 100},
	{"VeryOld", 100, 200},
}

var porchColumns = []string{"OpenPorchSF", "EnclosedPorch", "3SsnPorch", "ScreenPorch"}

// feature is a rule plus the raw columns it makes redundant.
type feature struct {
	rule  j.Rule
	drops []string
}

// Engineer is stateless; the same rules run at fit and transform.
type Engineer struct {
	features []feature
	log      *zap.Logger
}

func New(log *zap.Logger) *Engineer {
	if log == nil {
		log = zap.NewNop()
	}
	return &Engineer{features: defaultFeatures(), log: log}
}

func (e *Engineer) Name() string { return "engineer" }

// Apply adds every derivable feature and drops the raw columns subsumed by
// the features that ran.
func (e *Engineer) Apply(ctx context.Context, t *j.Table) (*j.Table, error) {
	rules := make([]j.Rule, len(e.features))
	drops := make(map[string][]string, len(e.features))
	for i, f := range e.features {
		rules[i] = f.rule
		drops[f.rule.Name] = f.drops
	}
	ran, err := j.ApplyRules(t, rules, e.log)
	if err != nil {
		return nil, err
	}
	var subsumed []string
	for _, name := range ran {
		subsumed = append(subsumed, drops[name]...)
	}
	t.DropColumns(subsumed...)
	return t, nil
}

// Derived lists every column the engineer can produce, in rule order.
func (e *Engineer) Derived() []string {
	out := make([]string, len(e.features))
	for i, f := range e.features {
		out[i] = f.rule.Name
	}
	return out
}

func defaultFeatures() []feature {
	return []feature{
		{rule: sum("TotalSF", "GrLivArea", "TotalBsmtSF")},
		{rule: sum("TotalFlrSF", "1stFlrSF", "2ndFlrSF"), drops: []string{"1stFlrSF", "2ndFlrSF"}},
		{rule: positive("Has2ndFloor", "2ndFlrSF")},
		{rule: positive("HasBasement", "TotalBsmtSF")},
		{rule: positive("HasPorch", porchColumns...)},
		{rule: positive("HasDeck", "WoodDeckSF")},
		{rule: positive("HasPool", "PoolArea")},
		{
			rule:  sumAll("TotalPorchSF", append(append([]string{}, porchColumns...), "WoodDeckSF")...),
			drops: append(append([]string{}, porchColumns...), "WoodDeckSF"),
		},
		{rule: diff("HouseAge", "YrSold", "YearBuilt"), drops: []string{"YearBuilt"}},
		{rule: diff("RemodAge", "YrSold", "YearRemodAdd"), drops: []string{"YearRemodAdd"}},
		{rule: compare("IsNew", "YearBuilt", "YrSold", func(a, b float64) bool { return a == b })},
		{rule: compare("IsRemodeled", "YearRemodAdd", "YearBuilt", func(a, b float64) bool { return a != b })},
		{rule: ageBin()},
		{rule: positive("HasGarage", "GarageArea")},
		{rule: garageAge(), drops: []string{"GarageYrBlt"}},
		{rule: fireplaceScore(), drops: []string{"Fireplaces"}},
		{rule: bathrooms()},
		{rule: product("OverallScore", "OverallQual", "OverallCond")},
		{rule: ratio("GarageAreaPerCar", "GarageArea", "GarageCars")},
		{rule: ratio("AreaPerRoom", "GrLivArea", "TotRmsAbvGrd")},
	}
}

// derive writes a new float column computed row by row.
func derive(t *j.Table, name string, fn func(i int) (float64, bool)) error {
	out := j.NewNullFloatColumn(name, t.Rows())
	for i := 0; i < t.Rows(); i++ {
		if v, ok := fn(i); ok {
			out.Set(i, v)
		}
	}
	return t.SetColumn(out)
}

func numerics(t *j.Table, names ...string) ([]j.NumericColumn, bool) {
	cols := make([]j.NumericColumn, len(names))
	for i, n := range names {
		c, ok := t.Numeric(n)
		if !ok {
			return nil, false
		}
		cols[i] = c
	}
	return cols, true
}

func orZero(c j.NumericColumn, i int) float64 {
	v, _ := c.Float(i)
	return v
}

func flag(b bool) float64 {
	if b {
		return 1
	}
	return 0
}

// sum adds a secondary area to a primary one; a missing secondary counts as 0.
func sum(name, primary, secondary string) j.Rule {
	return j.Rule{Name: name, Requires: []string{primary, secondary}, Apply: func(t *j.Table) error {
		cols, ok := numerics(t, primary, secondary)
		if !ok {
			return nil
		}
		return derive(t, name, func(i int) (float64, bool) {
			v, ok := cols[0].Float(i)
			return v + orZero(cols[1], i), ok
		})
	}}
}

// sumAll adds every component, treating missing components as 0.
func sumAll(name string, parts ...string) j.Rule {
	return j.Rule{Name: name, Requires: parts, Apply: func(t *j.Table) error {
		cols, ok := numerics(t, parts...)
		if !ok {
			return nil
		}
		return derive(t, name, func(i int) (float64, bool) {
			var s float64
			for _, c := range cols {
				s += orZero(c, i)
			}
			return s, true
		})
	}}
}

// positive flags rows whose summed area is above zero.
func positive(name string, parts ...string) j.Rule {
	return j.Rule{Name: name, Requires: parts, Apply: func(t *j.Table) error {
		cols, ok := numerics(t, parts...)
		if !ok {
			return nil
		}
		return derive(t, name, func(i int) (float64, bool) {
			var s float64
			for _, c := range cols {
				s += orZero(c, i)
			}
			return flag(s > 0), true
		})
	}}
}

func diff(name, a, b string) j.Rule {
	return j.Rule{Name: name, Requires: []string{a, b}, Apply: func(t *j.Table) error {
		cols, ok := numerics(t, a, b)
		if !ok {
			return nil
		}
		return derive(t, name, func(i int) (float64, bool) {
			x, ok1 := cols[0].Float(i)
			y, ok2 := cols[1].Float(i)
			return x - y, ok1 && ok2
		})
	}}
}

func product(name, a, b string) j.Rule {
	return j.Rule{Name: name, Requires: []string{a, b}, Apply: func(t *j.Table) error {
		cols, ok := numerics(t, a, b)
		if !ok {
			return nil
		}
		return derive(t, name, func(i int) (float64, bool) {
			x, ok1 := cols[0].Float(i)
			y, ok2 := cols[1].Float(i)
			return x * y, ok1 && ok2
		})
	}}
}

func compare(name, a, b string, fn func(a, b float64) bool) j.Rule {
	return j.Rule{Name: name, Requires: []string{a, b}, Apply: func(t *j.Table) error {
		cols, ok := numerics(t, a, b)
		if !ok {
			return nil
		}
		return derive(t, name, func(i int) (float64, bool) {
			x, ok1 := cols[0].Float(i)
			y, ok2 := cols[1].Float(i)
			return flag(fn(x, y)), ok1 && ok2
		})
	}}
}

// ratio divides num by den, yielding 0 when den is not positive.
func ratio(name, num, den string) j.Rule {
	return j.Rule{Name: name, Requires: []string{num, den}, Apply: func(t *j.Table) error {
		cols, ok := numerics(t, num, den)
		if !ok {
			return nil
		}
		return derive(t, name, func(i int) (float64, bool) {
			d, ok := cols[1].Float(i)
			if !ok || d <= 0 {
				return 0, true
			}
			n, ok := cols[0].Float(i)
			return n / d, ok
		})
	}}
}

func ageBin() j.Rule {
	return j.Rule{Name: "HouseAgeBin", Requires: []string{"HouseAge"}, Apply: func(t *j.Table) error {
		age, ok := t.Numeric("HouseAge")
		if !ok {
			return nil
		}
		out := j.NewStringColumn("HouseAgeBin", t.Rows())
		for i := 0; i < t.Rows(); i++ {
			out.SetNull(i)
			a, ok := age.Float(i)
			if !ok {
				continue
			}
			for _, b := range AgeBins {
				if a >= b.Lo && a < b.Hi {
					out.Set(i, b.Label)
					break
				}
			}
		}
		return t.SetColumn(out)
	}}
}

// garageAge is years since the garage was built, floored at 0. Rows without
// a garage or with no recorded build year get 0.
func garageAge() j.Rule {
	return j.Rule{Name: "GarageAge", Requires: []string{"YrSold", "GarageYrBlt"}, Apply: func(t *j.Table) error {
		cols, ok := numerics(t, "YrSold", "GarageYrBlt")
		if !ok {
			return nil
		}
		area, hasArea := t.Numeric("GarageArea")
		return derive(t, "GarageAge", func(i int) (float64, bool) {
			built := orZero(cols[1], i)
			if (hasArea && orZero(area, i) <= 0) || built <= 0 {
				return 0, true
			}
			sold, ok := cols[0].Float(i)
			return math.Max(sold-built, 0), ok
		})
	}}
}

func fireplaceScore() j.Rule {
	return j.Rule{Name: "FireplaceScore", Requires: []string{"Fireplaces", "FireplaceQu"}, Apply: func(t *j.Table) error {
		count, ok := t.Numeric("Fireplaces")
		if !ok {
			return nil
		}
		qu, ok := t.Strings("FireplaceQu")
		if !ok {
			return nil
		}
		return derive(t, "FireplaceScore", func(i int) (float64, bool) {
			n, ok := count.Float(i)
			if !ok {
				return 0, false
			}
			var rank float64
			if label, ok := qu.Get(i); ok {
				rank, _ = ordinal.Quality.Rank(label)
			}
			return n * rank, true
		})
	}}
}

func bathrooms() j.Rule {
	parts := []string{"FullBath", "HalfBath", "BsmtFullBath", "BsmtHalfBath"}
	return j.Rule{Name: "TotalBathrooms", Requires: parts, Apply: func(t *j.Table) error {
		cols, ok := numerics(t, parts...)
		if !ok {
			return nil
		}
		return derive(t, "TotalBathrooms", func(i int) (float64, bool) {
			full, ok1 := cols[0].Float(i)
			half, ok2 := cols[1].Float(i)
			return full + 0.5*half + orZero(cols[2], i) + 0.5*orZero(cols[3], i), ok1 && ok2
		})
	}}
}
