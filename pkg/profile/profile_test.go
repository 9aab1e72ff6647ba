package profile

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	j "github.com/wdm0006/appraiser/pkg/table"
)

func makePriced() *j.Table {
	s := j.Schema{Columns: []j.ColumnSchema{
		{Name: "Neighborhood", Type: j.KindString, Nullable: true},
		{Name: "SalePrice", Type: j.KindFloat, Nullable: true},
		{Name: "Alley", Type: j.KindString, Nullable: true},
	}}
	t := j.NewTable(s)
	rows := []struct {
		hood  string
		price any
	}{
		{"A", 100000.0}, {"A", 200000.0}, {"A", 300000.0}, {"B", 400000.0}, {"B", nil},
	}
	for i, r := range rows {
		t.AppendNullRow()
		_ = t.SetCell(i, "Neighborhood", r.hood)
		_ = t.SetCell(i, "SalePrice", r.price)
	}
	_ = t.SetCell(0, "Alley", "Grvl")
	return t
}

func TestCollector(t *testing.T) {
	tb := makePriced()
	c := NewCollector(tb.Schema(), 3)
	c.Consume(tb)
	c.Consume(tb)

	missing := c.Missing()
	require.Len(t, missing, 2)
	assert.Equal(t, "Alley", missing[0].Name)
	assert.Equal(t, 8, missing[0].Nulls())
	assert.InDelta(t, 80, missing[0].MissingPct(), 1e-9)
	assert.Equal(t, "SalePrice", missing[1].Name)

	rep := c.ReportJSON()
	require.Len(t, rep.Columns, 3)
	assert.Equal(t, 400000.0, rep.Columns[1].Num.Max)
	assert.Equal(t, "A", rep.Columns[0].Str.Top[0].Value)

	text := c.ReportText()
	assert.True(t, strings.Contains(text, "Alley (string) missing=8 (80.0%)"), text)
}

func TestCollectorAddsLateColumns(t *testing.T) {
	c := NewCollector(j.Schema{}, 0)
	c.Consume(makePriced())
	assert.Len(t, c.Columns(), 3)
	rep := c.ReportJSON()
	assert.Nil(t, rep.Columns[0].Str.Top)
}

func TestSummarize(t *testing.T) {
	s, err := Summarize(makePriced(), "SalePrice", "Neighborhood", 3)
	require.NoError(t, err)

	assert.Equal(t, 4, s.Overview.Count)
	assert.Equal(t, 250000.0, s.Overview.Mean)
	assert.Equal(t, 250000.0, s.Overview.Median)
	assert.Equal(t, 100000.0, s.Overview.Min)
	assert.Equal(t, 400000.0, s.Overview.Max)
	assert.InDelta(t, 129099.44, s.Overview.Std, 0.01)

	a, ok := s.Group("A")
	require.True(t, ok)
	assert.Equal(t, GroupStats{Group: "A", Mean: 200000, Median: 200000, Count: 3, Min: 100000, Max: 300000}, a)
	b, _ := s.Group("B")
	assert.Equal(t, 1, b.Count)

	assert.Equal(t, []string{"100k-200k", "200k-300k", "300k-400k"}, s.Distribution.Labels)
	assert.Equal(t, []int{1, 1, 2}, s.Distribution.Values)
}

func TestSummarizeErrors(t *testing.T) {
	_, err := Summarize(makePriced(), "Neighborhood", "", 0)
	assert.Error(t, err)

	s, err := Summarize(makePriced(), "SalePrice", "Missing", 0)
	require.NoError(t, err)
	assert.Empty(t, s.Groups)
	assert.Len(t, s.Distribution.Values, DefaultBins)
}
