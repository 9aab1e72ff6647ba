package table_test

import (
	"context"
	"errors"
	"io"
	"math"
	"testing"

	"github.com/wdm0006/appraiser/pkg/table"
)

func makeTable() *table.Table {
	s := table.Schema{Columns: []table.ColumnSchema{
		{Name: "x", Type: table.KindFloat, Nullable: true},
		{Name: "n", Type: table.KindInt, Nullable: true},
		{Name: "s", Type: table.KindString, Nullable: true},
	}}
	t := table.NewTable(s)
	for i := 0; i < 3; i++ {
		t.AppendNullRow()
	}
	_ = t.SetCell(0, "x", 1.5)
	_ = t.SetCell(1, "n", int64(7))
	_ = t.SetCell(2, "s", "Foo")
	return t
}

func TestSetCellAndClone(t *testing.T) {
	tb := makeTable()
	clone := tb.Clone()
	_ = clone.SetCell(0, "x", 9.0)

	x, _ := tb.Numeric("x")
	if v, ok := x.Float(0); !ok || v != 1.5 {
		t.Fatalf("clone mutated original: %v %v", v, ok)
	}
	if err := tb.SetCell(0, "s", 3); err == nil {
		t.Fatal("expected kind mismatch error")
	}
	if err := tb.SetCell(0, "missing", 3); err == nil {
		t.Fatal("expected unknown column error")
	}
}

func TestIntSetFloatRounds(t *testing.T) {
	c := table.NewIntColumn("n", 1)
	c.SetFloat(0, 2.6)
	if v, _ := c.Get(0); v != 3 {
		t.Fatalf("got %d", v)
	}
}

func TestFloatSetNaNIsMissing(t *testing.T) {
	c := table.NewFloatColumn("x", 1)
	c.Set(0, math.NaN())
	if !c.IsNull(0) {
		t.Fatal("NaN should be stored as missing")
	}
}

func TestSetColumnReplacesInPlace(t *testing.T) {
	tb := makeTable()
	repl := table.NewStringColumn("x", 3)
	if err := tb.SetColumn(repl); err != nil {
		t.Fatal(err)
	}
	if got := tb.Names(); got[0] != "x" || len(got) != 3 {
		t.Fatalf("unexpected names %v", got)
	}
	if c, _ := tb.ColumnByName("x"); c.Kind() != table.KindString {
		t.Fatal("column not replaced")
	}
	if err := tb.SetColumn(table.NewFloatColumn("bad", 2)); err == nil {
		t.Fatal("expected length mismatch")
	}
	if err := tb.SetColumn(table.NewFloatColumn("y", 3)); err != nil {
		t.Fatal(err)
	}
	if tb.Cols() != 4 {
		t.Fatalf("expected appended column, got %d", tb.Cols())
	}
}

func TestDropAndTake(t *testing.T) {
	tb := makeTable()
	dropped := tb.DropColumns("n", "nope")
	if len(dropped) != 1 || dropped[0] != "n" {
		t.Fatalf("dropped %v", dropped)
	}
	if tb.Has("n") || !tb.HasAll("x", "s") {
		t.Fatal("drop left wrong columns")
	}
	sub := tb.Take([]int{2, 0})
	if sub.Rows() != 2 {
		t.Fatalf("rows %d", sub.Rows())
	}
	s, _ := sub.Strings("s")
	if v, ok := s.Get(0); !ok || v != "Foo" {
		t.Fatalf("take order wrong: %q", v)
	}
}

func TestClassify(t *testing.T) {
	s := table.Schema{Columns: []table.ColumnSchema{
		{Name: "Id", Type: table.KindInt},
		{Name: "LotArea", Type: table.KindInt},
		{Name: "Street", Type: table.KindString},
		{Name: "SalePrice", Type: table.KindFloat},
		{Name: "Listed", Type: table.KindTime},
		{Name: "Score", Type: table.KindFloat},
	}}
	r := table.Classify(table.NewTable(s))
	if len(r.Numeric) != 2 || r.Numeric[0] != "LotArea" || r.Numeric[1] != "Score" {
		t.Fatalf("numeric %v", r.Numeric)
	}
	if len(r.Categorical) != 1 || r.Categorical[0] != "Street" {
		t.Fatalf("categorical %v", r.Categorical)
	}
	if len(r.Date) != 1 || r.Date[0] != "Listed" {
		t.Fatalf("date %v", r.Date)
	}
	r = table.Classify(table.NewTable(s), "Score")
	if len(r.Numeric) != 3 {
		t.Fatalf("custom exclude ignored: %v", r.Numeric)
	}
}

type scale struct{ by float64 }

func (s *scale) Name() string { return "scale" }
func (s *scale) Apply(ctx context.Context, t *table.Table) (*table.Table, error) {
	c, ok := t.Numeric("x")
	if !ok {
		return t, nil
	}
	for i := 0; i < c.Len(); i++ {
		if v, ok := c.Float(i); ok {
			c.SetFloat(i, v*s.by)
		}
	}
	return t, nil
}

func TestPipeline(t *testing.T) {
	tb := makeTable()
	fail := table.TransformFunc{Label: "fail", Fn: func(ctx context.Context, t *table.Table) (*table.Table, error) {
		return nil, table.ErrNotFitted
	}}
	p := table.NewPipeline().Add(&scale{by: 2}).Add(&scale{by: 3})
	out, err := p.Run(context.Background(), tb)
	if err != nil {
		t.Fatal(err)
	}
	x, _ := out.Numeric("x")
	if v, _ := x.Float(0); v != 9 {
		t.Fatalf("got %v", v)
	}
	if _, err := p.Add(fail).Run(context.Background(), tb); !errors.Is(err, table.ErrNotFitted) {
		t.Fatalf("expected wrapped ErrNotFitted, got %v", err)
	}
	if steps := p.Steps(); len(steps) != 3 || steps[2] != "fail" {
		t.Fatalf("steps %v", steps)
	}
}

type sliceSource struct{ chunks []*table.Table }

func (s *sliceSource) Next() (*table.Table, error) {
	if len(s.chunks) == 0 {
		return nil, io.EOF
	}
	t := s.chunks[0]
	s.chunks = s.chunks[1:]
	return t, nil
}

type collectSink struct {
	got    []*table.Table
	closed bool
}

func (c *collectSink) Write(t *table.Table) error { c.got = append(c.got, t); return nil }
func (c *collectSink) Close() error               { c.closed = true; return nil }

func TestRunStream(t *testing.T) {
	src := &sliceSource{chunks: []*table.Table{makeTable(), makeTable()}}
	sink := &collectSink{}
	n, err := table.RunStream(context.Background(), table.NewPipeline().Add(&scale{by: 2}), src, sink)
	if err != nil {
		t.Fatal(err)
	}
	if n != 6 || len(sink.got) != 2 || !sink.closed {
		t.Fatalf("rows=%d chunks=%d closed=%v", n, len(sink.got), sink.closed)
	}
}

func TestApplyRulesSkipsMissingInputs(t *testing.T) {
	tb := makeTable()
	rules := []table.Rule{
		{Name: "needs-x", Requires: []string{"x"}, Apply: func(t *table.Table) error { return nil }},
		{Name: "needs-q", Requires: []string{"q"}, Apply: func(t *table.Table) error { return errors.New("should not run") }},
	}
	ran, err := table.ApplyRules(tb, rules, nil)
	if err != nil {
		t.Fatal(err)
	}
	if len(ran) != 1 || ran[0] != "needs-x" {
		t.Fatalf("ran %v", ran)
	}
}

func TestMedianAndMode(t *testing.T) {
	if m := table.Median([]float64{4, 1, 3, 2}); m != 2.5 {
		t.Fatalf("median %v", m)
	}
	if m := table.Median([]float64{5, 1, 3}); m != 3 {
		t.Fatalf("median %v", m)
	}
	if m, ok := table.Mode(map[string]int{"b": 2, "a": 2, "c": 1}); !ok || m != "a" {
		t.Fatalf("mode %q", m)
	}
	if _, ok := table.Mode(nil); ok {
		t.Fatal("empty mode should report false")
	}
}
