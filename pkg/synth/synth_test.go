package synth

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	j "github.com/wdm0006/appraiser/pkg/table"
)

func TestTableShape(t *testing.T) {
	tb := Table(500, 7)
	require.Equal(t, 500, tb.Rows())
	assert.Equal(t, Schema().Names(), tb.Names())

	lf, ok := tb.Numeric("LotFrontage")
	require.True(t, ok)
	missing := lf.Len() - len(j.Floats(lf))
	assert.Greater(t, missing, 20)
	assert.Less(t, missing, 180)

	price, ok := tb.Numeric("SalePrice")
	require.True(t, ok)
	for _, v := range j.Floats(price) {
		assert.GreaterOrEqual(t, v, 35000.0)
	}
	assert.Len(t, j.Floats(price), 500)
}

func TestDeterministic(t *testing.T) {
	a := New(11).Records(50)
	b := New(11).Records(50)
	assert.Equal(t, a, b)
	c := New(12).Records(50)
	assert.NotEqual(t, a, c)
}

func TestGarageConsistency(t *testing.T) {
	for _, r := range New(3).Records(300) {
		if r["GarageType"] == nil {
			assert.Nil(t, r["GarageYrBlt"])
			assert.Equal(t, 0.0, r["GarageArea"])
			continue
		}
		assert.GreaterOrEqual(t, r["GarageYrBlt"].(float64), float64(r["YearBuilt"].(int)))
	}
}

func TestNoMissingWhenScaledToZero(t *testing.T) {
	g := New(5)
	g.MissingScale = 0
	tb, errs := j.FromRecords(g.Records(100), Schema())
	require.Empty(t, errs)
	lf, _ := tb.Numeric("LotFrontage")
	assert.Len(t, j.Floats(lf), 100)
}
