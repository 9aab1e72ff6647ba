package encode

import (
	"context"
	"errors"
	"math"
	"testing"
	"time"

	"github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	j "github.com/wdm0006/appraiser/pkg/table"
)

var encSchema = j.Schema{Columns: []j.ColumnSchema{
	{Name: "Id", Type: j.KindInt, Nullable: true},
	{Name: "GrLivArea", Type: j.KindFloat, Nullable: true},
	{Name: "Street", Type: j.KindString, Nullable: true},
	{Name: "Listed", Type: j.KindTime, Nullable: true},
	{Name: "SalePrice", Type: j.KindFloat, Nullable: true},
}}

func makeEncTable(area []any, street []any) *j.Table {
	t := j.NewTable(encSchema)
	for i := range area {
		t.AppendNullRow()
		_ = t.SetCell(i, "Id", int64(i+1))
		_ = t.SetCell(i, "GrLivArea", area[i])
		_ = t.SetCell(i, "Street", street[i])
		_ = t.SetCell(i, "Listed", time.Unix(int64(1000*(i+1)), 0))
		_ = t.SetCell(i, "SalePrice", 100000.0)
	}
	return t
}

func fitted(t *testing.T) *Fitted {
	t.Helper()
	tb := makeEncTable([]any{1.0, 2.0, 3.0, nil}, []any{"Pave", "Grvl", "Pave", nil})
	f, err := New(DefaultConfig(), nil).Fit(context.Background(), tb)
	require.NoError(t, err)
	return f
}

func TestColumnOrder(t *testing.T) {
	f := fitted(t)
	assert.Equal(t, []string{"GrLivArea", "Street_Grvl", "Street_Pave", "Listed"}, f.Columns())
}

func TestStandardiseAndImpute(t *testing.T) {
	f := fitted(t)
	out, err := f.Apply(context.Background(), makeEncTable([]any{1.0, 2.0, 3.0, nil}, []any{"Pave", "Grvl", "Pave", nil}))
	require.NoError(t, err)
	require.Equal(t, f.Columns(), out.Names())

	// median 2, imputed column {1,2,3,2}: mean 2, population std sqrt(0.5).
	area, _ := out.Numeric("GrLivArea")
	std := math.Sqrt(0.5)
	for i, w := range []float64{-1 / std, 0, 1 / std, 0} {
		v, ok := area.Float(i)
		require.True(t, ok)
		assert.InDelta(t, w, v, 1e-12, "row %d", i)
	}

	pave, _ := out.Numeric("Street_Pave")
	grvl, _ := out.Numeric("Street_Grvl")
	for i, w := range [][2]float64{{1, 0}, {0, 1}, {1, 0}, {1, 0}} {
		p, _ := pave.Float(i)
		g, _ := grvl.Float(i)
		assert.Equal(t, w, [2]float64{p, g}, "row %d", i)
	}
	listed, _ := out.Numeric("Listed")
	v, _ := listed.Float(1)
	assert.Equal(t, 2000.0, v)
}

func TestUnseenCategoryAndAbsentColumns(t *testing.T) {
	f := fitted(t)
	in := makeEncTable([]any{2.0}, []any{"Cobble"})
	in.DropColumns("Listed")
	out, err := f.Apply(context.Background(), in)
	require.NoError(t, err)
	require.Equal(t, 4, out.Cols())
	for _, name := range []string{"Street_Grvl", "Street_Pave"} {
		c, _ := out.Numeric(name)
		v, _ := c.Float(0)
		assert.Equal(t, 0.0, v, name)
	}
	listed, _ := out.Numeric("Listed")
	v, _ := listed.Float(0)
	assert.Equal(t, 2500.0, v, "absent date uses fit median")
}

func TestTextNumericCoerced(t *testing.T) {
	f := fitted(t)
	s := j.Schema{Columns: []j.ColumnSchema{{Name: "GrLivArea", Type: j.KindString, Nullable: true}}}
	in := j.NewTable(s)
	in.AppendNullRow()
	in.AppendNullRow()
	_ = in.SetCell(0, "GrLivArea", "3")
	_ = in.SetCell(1, "GrLivArea", "lots")
	out, err := f.Apply(context.Background(), in)
	require.NoError(t, err)
	area, _ := out.Numeric("GrLivArea")
	v0, _ := area.Float(0)
	v1, _ := area.Float(1)
	assert.InDelta(t, 1/math.Sqrt(0.5), v0, 1e-12)
	assert.Equal(t, 0.0, v1, "unparseable text falls back to the median")
}

func TestConstantColumnStdIsOne(t *testing.T) {
	tb := makeEncTable([]any{5.0, 5.0}, []any{"Pave", "Pave"})
	f, err := New(DefaultConfig(), nil).Fit(context.Background(), tb)
	require.NoError(t, err)
	out, err := f.Apply(context.Background(), tb)
	require.NoError(t, err)
	area, _ := out.Numeric("GrLivArea")
	v, _ := area.Float(0)
	assert.Equal(t, 0.0, v)
}

func TestUnfittedAndPersistence(t *testing.T) {
	var f *Fitted
	_, err := f.Apply(context.Background(), makeEncTable(nil, nil))
	assert.True(t, errors.Is(err, j.ErrNotFitted))

	fit := fitted(t)
	b, err := json.Marshal(fit)
	require.NoError(t, err)
	var back Fitted
	require.NoError(t, json.Unmarshal(b, &back))
	assert.Equal(t, fit.Columns(), back.Columns())
}
