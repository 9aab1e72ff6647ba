// Package ordinal replaces ordered categorical labels with integer ranks
// from fixed lookup tables.
package ordinal

import (
	"context"

	j "github.com/wdm0006/appraiser/pkg/table"
)

// Table maps category labels to ranks.
type Table map[string]float64

// Rank returns the rank of label.
func (t Table) Rank(label string) (float64, bool) {
	r, ok := t[label]
	return r, ok
}

var (
	Quality      = Table{"None": 0, "Po": 1, "Fa": 2, "TA": 3, "Gd": 4, "Ex": 5}
	BsmtExposure = Table{"None": 0, "No": 1, "Mn": 2, "Av": 3, "Gd": 4}
	BsmtFinType  = Table{"None": 0, "Unf": 1, "LwQ": 2, "Rec": 3, "BLQ": 4, "ALQ": 5, "GLQ": 6}
	GarageFinish = Table{"None": 0, "Unf": 1, "RFn": 2, "Fin": 3}
	Functional   = Table{"Sal": 0, "Sev": 1, "Maj2": 2, "Maj1": 3, "Mod": 4, "Min2": 5, "Min1": 6, "Typ": 7}
	LandSlope    = Table{"Sev": 0, "Mod": 1, "Gtl": 2}
	LotShape     = Table{"IR3": 0, "IR2": 1, "IR1": 2, "Reg": 3}
	LandContour  = Table{"Low": 0, "HLS": 1, "Bnk": 2, "Lvl": 3}
	HouseAgeBin  = Table{"New": 0, "Recent": 1, "Mid": 2, "Old": 3, "VeryOld": 4}
	Fence        = Table{"None": 0, "MnWw": 1, "GdWo": 2, "MnPrv": 3, "GdPrv": 4}
	PavedDrive   = Table{"N": 0, "P": 1, "Y": 2}
	CentralAir   = Table{"N": 0, "Y": 1}
)

// Mapping binds a column to its lookup table.
type Mapping struct {
	Column string
	Table  Table
}

// DefaultMappings covers the ordered attributes of the Ames schema.
var DefaultMappings = []Mapping{
	{"ExterQual", Quality},
	{"ExterCond", Quality},
	{"BsmtQual", Quality},
	{"BsmtCond", Quality},
	{"HeatingQC", Quality},
	{"KitchenQual", Quality},
	{"FireplaceQu", Quality},
	{"GarageQual", Quality},
	{"GarageCond", Quality},
	{"PoolQC", Quality},
	{"BsmtExposure", BsmtExposure},
	{"BsmtFinType1", BsmtFinType},
	{"BsmtFinType2", BsmtFinType},
	{"GarageFinish", GarageFinish},
	{"Functional", Functional},
	{"LandSlope", LandSlope},
	{"LotShape", LotShape},
	{"LandContour", LandContour},
	{"HouseAgeBin", HouseAgeBin},
	{"Fence", Fence},
	{"PavedDrive", PavedDrive},
	{"CentralAir", CentralAir},
}

// Encoder is stateless.
type Encoder struct {
	Mappings []Mapping
}

func New() *Encoder { return &Encoder{Mappings: DefaultMappings} }

func (e *Encoder) Name() string { return "ordinal" }

// Apply replaces each mapped string column with a float column of ranks in
// the same position. A missing label takes the rank of "None" when the table
// has one; an unknown label becomes missing.
func (e *Encoder) Apply(ctx context.Context, t *j.Table) (*j.Table, error) {
	for _, m := range e.Mappings {
		c, ok := t.Strings(m.Column)
		if !ok {
			continue
		}
		none, hasNone := m.Table.Rank("None")
		out := j.NewNullFloatColumn(m.Column, c.Len())
		for i := 0; i < c.Len(); i++ {
			label, ok := c.Get(i)
			if !ok {
				if hasNone {
					out.Set(i, none)
				}
				continue
			}
			if r, ok := m.Table.Rank(label); ok {
				out.Set(i, r)
			}
		}
		if err := t.SetColumn(out); err != nil {
			return nil, err
		}
	}
	return t, nil
}
