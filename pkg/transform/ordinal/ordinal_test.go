package ordinal

import (
	"context"
	"testing"

	j "github.com/wdm0006/appraiser/pkg/table"
)

func TestQualityExactness(t *testing.T) {
	s := j.Schema{Columns: []j.ColumnSchema{
		{Name: "ExterQual", Type: j.KindString, Nullable: true},
		{Name: "Neighborhood", Type: j.KindString, Nullable: true},
	}}
	tb := j.NewTable(s)
	labels := []any{"Ex", "Gd", "TA", "Fa", "Po", "None", nil, "Bogus"}
	for i, l := range labels {
		tb.AppendNullRow()
		_ = tb.SetCell(i, "ExterQual", l)
		_ = tb.SetCell(i, "Neighborhood", "NAmes")
	}
	out, err := New().Apply(context.Background(), tb)
	if err != nil {
		t.Fatal(err)
	}
	c, ok := out.Numeric("ExterQual")
	if !ok {
		t.Fatal("ExterQual not converted to numbers")
	}
	want := []float64{5, 4, 3, 2, 1, 0, 0}
	for i, w := range want {
		v, ok := c.Float(i)
		if !ok || v != w {
			t.Fatalf("row %d: got %v (%v) want %v", i, v, ok, w)
		}
	}
	if !c.IsNull(7) {
		t.Fatal("unknown label should be missing")
	}
	if _, ok := out.Strings("Neighborhood"); !ok {
		t.Fatal("unmapped column changed")
	}
	if out.Names()[0] != "ExterQual" {
		t.Fatal("encoded column moved")
	}
}

func TestMissingWithoutNoneEntry(t *testing.T) {
	s := j.Schema{Columns: []j.ColumnSchema{{Name: "LotShape", Type: j.KindString, Nullable: true}}}
	tb := j.NewTable(s)
	tb.AppendNullRow()
	tb.AppendNullRow()
	_ = tb.SetCell(1, "LotShape", "IR1")
	out, err := New().Apply(context.Background(), tb)
	if err != nil {
		t.Fatal(err)
	}
	c, _ := out.Numeric("LotShape")
	if !c.IsNull(0) {
		t.Fatal("missing LotShape should stay missing")
	}
	if v, _ := c.Float(1); v != 2 {
		t.Fatalf("IR1 got %v", v)
	}
}

func TestTablesAreOrdered(t *testing.T) {
	order := map[string][]string{
		"Functional":   {"Sal", "Sev", "Maj2", "Maj1", "Mod", "Min2", "Min1", "Typ"},
		"BsmtFinType":  {"None", "Unf", "LwQ", "Rec", "BLQ", "ALQ", "GLQ"},
		"HouseAgeBin":  {"New", "Recent", "Mid", "Old", "VeryOld"},
		"GarageFinish": {"None", "Unf", "RFn", "Fin"},
	}
	tables := map[string]Table{"Functional": Functional, "BsmtFinType": BsmtFinType, "HouseAgeBin": HouseAgeBin, "GarageFinish": GarageFinish}
	for name, labels := range order {
		for i, l := range labels {
			if r, ok := tables[name].Rank(l); !ok || r != float64(i) {
				t.Fatalf("%s %s: got %v", name, l, r)
			}
		}
	}
}
