package pipeline

import (
	"context"
	"errors"
	"math"
	"testing"

	"github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/wdm0006/appraiser/pkg/synth"
	j "github.com/wdm0006/appraiser/pkg/table"
)

func fitSynth(t *testing.T, rows int) (*Fitted, *j.Table) {
	t.Helper()
	tb := synth.Table(rows, 1)
	f, err := New(DefaultConfig(), WithLogger(zaptest.NewLogger(t))).Fit(context.Background(), tb)
	require.NoError(t, err)
	return f, tb
}

func TestUnfitted(t *testing.T) {
	ctx := context.Background()
	tb := synth.Table(3, 1)

	var nilFitted *Fitted
	_, err := nilFitted.Transform(ctx, tb)
	assert.True(t, errors.Is(err, j.ErrNotFitted))

	_, err = (&Fitted{}).Transform(ctx, tb)
	assert.True(t, errors.Is(err, j.ErrNotFitted))
	assert.Nil(t, (&Fitted{}).Columns())
}

func TestFitLeavesInputUntouched(t *testing.T) {
	tb := synth.Table(200, 1)
	before := tb.Names()
	lf, _ := tb.Numeric("LotFrontage")
	missing := lf.Len() - len(j.Floats(lf))

	f, err := New(DefaultConfig()).Fit(context.Background(), tb)
	require.NoError(t, err)
	_, err = f.Transform(context.Background(), tb)
	require.NoError(t, err)

	assert.Equal(t, before, tb.Names())
	lf, _ = tb.Numeric("LotFrontage")
	assert.Equal(t, missing, lf.Len()-len(j.Floats(lf)))
	assert.Equal(t, before, f.Schema.Names())
}

func TestTransformShapeIsStable(t *testing.T) {
	f, tb := fitSynth(t, 300)
	ctx := context.Background()

	full, err := f.Transform(ctx, tb)
	require.NoError(t, err)
	r, c := full.Dims()
	assert.Equal(t, 300, r)
	assert.Equal(t, len(f.Columns()), c)
	assert.Equal(t, f.Columns(), full.Columns)
	assert.NotContains(t, full.Columns, "SalePrice")
	assert.NotContains(t, full.Columns, "Id")

	one, err := f.Transform(ctx, tb.Take([]int{17}))
	require.NoError(t, err)
	_, c1 := one.Dims()
	assert.Equal(t, c, c1)
	assert.Equal(t, full.Columns, one.Columns)
	for k := 0; k < c; k++ {
		assert.InDelta(t, full.At(17, k), one.At(0, k), 1e-9, full.Columns[k])
	}

	again, err := f.Transform(ctx, tb)
	require.NoError(t, err)
	assert.True(t, mat64Equal(full, again))
}

func mat64Equal(a, b *Matrix) bool {
	ar, ac := a.Dims()
	br, bc := b.Dims()
	if ar != br || ac != bc {
		return false
	}
	for i := 0; i < ar; i++ {
		for k := 0; k < ac; k++ {
			if a.At(i, k) != b.At(i, k) {
				return false
			}
		}
	}
	return true
}

func TestNoNaNInFeatures(t *testing.T) {
	f, tb := fitSynth(t, 250)
	m, err := f.Transform(context.Background(), tb)
	require.NoError(t, err)
	r, c := m.Dims()
	for i := 0; i < r; i++ {
		for k := 0; k < c; k++ {
			v := m.At(i, k)
			require.False(t, math.IsNaN(v) || math.IsInf(v, 0), "row %d column %s", i, m.Columns[k])
		}
	}
}

func TestSparseRowUsesFitStatistics(t *testing.T) {
	f, _ := fitSynth(t, 200)
	s := j.Schema{Columns: []j.ColumnSchema{
		{Name: "Neighborhood", Type: j.KindString, Nullable: true},
		{Name: "GrLivArea", Type: j.KindFloat, Nullable: true},
		{Name: "Unrelated", Type: j.KindString, Nullable: true},
	}}
	row := j.NewTable(s)
	row.AppendNullRow()
	require.NoError(t, row.SetCell(0, "Neighborhood", "NotARealPlace"))
	require.NoError(t, row.SetCell(0, "GrLivArea", 1500.0))
	require.NoError(t, row.SetCell(0, "Unrelated", "x"))

	m, err := f.Transform(context.Background(), row)
	require.NoError(t, err)
	_, c := m.Dims()
	assert.Equal(t, len(f.Columns()), c)
	for k, name := range m.Columns {
		if len(name) > len("Unrelated") && name[:len("Unrelated")] == "Unrelated" {
			t.Fatalf("unexpected column %s", name)
		}
		assert.False(t, math.IsNaN(m.At(0, k)), name)
	}
}

func TestFitIsDeterministic(t *testing.T) {
	a, _ := fitSynth(t, 150)
	b, _ := fitSynth(t, 150)
	ja, err := json.Marshal(a)
	require.NoError(t, err)
	jb, err := json.Marshal(b)
	require.NoError(t, err)
	assert.JSONEq(t, string(ja), string(jb))
}

func TestFittedJSONRoundTrip(t *testing.T) {
	f, tb := fitSynth(t, 150)
	b, err := json.Marshal(f)
	require.NoError(t, err)
	var back Fitted
	require.NoError(t, json.Unmarshal(b, &back))

	ctx := context.Background()
	want, err := f.Transform(ctx, tb)
	require.NoError(t, err)
	got, err := back.Transform(ctx, tb)
	require.NoError(t, err)
	assert.True(t, mat64Equal(want, got))
}

func TestStagesOrder(t *testing.T) {
	f, _ := fitSynth(t, 50)
	p, err := f.Stages()
	require.NoError(t, err)
	assert.Equal(t, []string{"prepare", "impute", "anomaly", "engineer", "ordinal", "skew", "encode"}, p.Steps())
}

func TestMatrixRejectsEmpty(t *testing.T) {
	_, err := NewMatrix(j.NewTable(j.Schema{}))
	assert.Error(t, err)
}
