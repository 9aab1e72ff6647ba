package csvio

import (
	"path/filepath"
	"strings"
	"testing"

	j "github.com/wdm0006/appraiser/pkg/table"
)

func TestInferAndRead(t *testing.T) {
	p := filepath.FromSlash("testdata/houses.csv")
	r, err := Open(p, DefaultReaderOptions())
	if err != nil {
		t.Fatal(err)
	}
	defer func() { _ = r.Close() }()
	schema, err := r.InferSchema()
	if err != nil {
		t.Fatal(err)
	}
	if len(schema.Columns) != 8 {
		t.Fatalf("expected 8 columns, got %d", len(schema.Columns))
	}
	want := map[string]j.Kind{
		"Id":           j.KindInt,
		"LotFrontage":  j.KindFloat,
		"Alley":        j.KindString,
		"Neighborhood": j.KindString,
		"SalePrice":    j.KindInt,
	}
	for name, kind := range want {
		cs, _ := schema.Lookup(name)
		if cs.Type != kind {
			t.Fatalf("%s: expected %v, got %v", name, kind, cs.Type)
		}
	}
	tb, err := r.ReadAll(schema)
	if err != nil {
		t.Fatal(err)
	}
	if tb.Rows() != 6 {
		t.Fatalf("expected 6 rows, got %d", tb.Rows())
	}
	lf, _ := tb.Numeric("LotFrontage")
	if !lf.IsNull(2) {
		t.Fatal("NA should read as missing")
	}
	if v, _ := lf.Float(5); v != 85.5 {
		t.Fatalf("got %v", v)
	}
	alley, _ := tb.Strings("Alley")
	if v, ok := alley.Get(3); !ok || v != "Grvl" {
		t.Fatalf("got %q %v", v, ok)
	}
	if r.Warnings() != "" {
		t.Fatalf("unexpected warnings: %s", r.Warnings())
	}
}

func TestKindOverrideAndShortRecords(t *testing.T) {
	in := "MSSubClass,Street\n60,Pave\n20\n"
	opt := DefaultReaderOptions()
	opt.Kinds = map[string]j.Kind{"MSSubClass": j.KindString}
	r := NewReaderFrom(strings.NewReader(in), opt)
	schema, err := r.InferSchema()
	if err != nil {
		t.Fatal(err)
	}
	if schema.Columns[0].Type != j.KindString {
		t.Fatalf("override ignored: %v", schema.Columns[0].Type)
	}
	tb, err := r.ReadAll(schema)
	if err != nil {
		t.Fatal(err)
	}
	if tb.Rows() != 2 || !strings.Contains(r.Warnings(), "short_records=1") {
		t.Fatalf("rows=%d warnings=%q", tb.Rows(), r.Warnings())
	}

	opt.Strict = true
	r = NewReaderFrom(strings.NewReader(in), opt)
	schema, _ = r.InferSchema()
	if _, err := r.ReadAll(schema); err == nil {
		t.Fatal("expected strict mode to reject a short record")
	}
}

func TestNoHeader(t *testing.T) {
	r := NewReaderFrom(strings.NewReader("1,a\n2,b\n"), ReaderOptions{})
	schema, err := r.InferSchema()
	if err != nil {
		t.Fatal(err)
	}
	tb, err := r.ReadAll(schema)
	if err != nil {
		t.Fatal(err)
	}
	if tb.Rows() != 2 || !tb.Has("col_0") {
		t.Fatalf("rows=%d names=%v", tb.Rows(), tb.Names())
	}
}

func TestWriteRoundTrip(t *testing.T) {
	r, err := Open("testdata/houses.csv", DefaultReaderOptions())
	if err != nil {
		t.Fatal(err)
	}
	schema, _ := r.InferSchema()
	tb, _ := r.ReadAll(schema)
	_ = r.Close()

	out := filepath.Join(t.TempDir(), "out.csv.gz")
	if err := WriteAll(out, tb, WriterOptions{}); err != nil {
		t.Fatal(err)
	}
	back, err := Open(out, DefaultReaderOptions())
	if err != nil {
		t.Fatal(err)
	}
	defer func() { _ = back.Close() }()
	s2, err := back.InferSchema()
	if err != nil {
		t.Fatal(err)
	}
	tb2, err := back.ReadAll(s2)
	if err != nil {
		t.Fatal(err)
	}
	if tb2.Rows() != tb.Rows() || tb2.Cols() != tb.Cols() {
		t.Fatalf("shape %dx%d vs %dx%d", tb2.Rows(), tb2.Cols(), tb.Rows(), tb.Cols())
	}
	lf, _ := tb2.Numeric("LotFrontage")
	if !lf.IsNull(2) {
		t.Fatal("missing value not preserved")
	}
}
