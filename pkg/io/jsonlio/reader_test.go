package jsonlio

import (
	"bytes"
	"path/filepath"
	"strings"
	"testing"

	j "github.com/wdm0006/appraiser/pkg/table"
)

func TestJSONLInferAndRead(t *testing.T) {
	p := filepath.FromSlash("testdata/listings.jsonl")
	r, err := Open(p, ReaderOptions{SampleRows: 10})
	if err != nil {
		t.Fatal(err)
	}
	defer func() { _ = r.Close() }()
	schema, err := r.InferSchema()
	if err != nil {
		t.Fatal(err)
	}
	if got := strings.Join(schema.Names(), ","); got != "Alley,GrLivArea,Id,LotFrontage,Neighborhood" {
		t.Fatalf("unexpected columns %s", got)
	}
	for name, kind := range map[string]j.Kind{"GrLivArea": j.KindInt, "LotFrontage": j.KindFloat, "Alley": j.KindString} {
		if cs, _ := schema.Lookup(name); cs.Type != kind {
			t.Fatalf("%s: expected %v, got %v", name, kind, cs.Type)
		}
	}
	tb, err := r.ReadAll(schema)
	if err != nil {
		t.Fatal(err)
	}
	if tb.Rows() != 3 {
		t.Fatalf("expected 3 rows, got %d", tb.Rows())
	}
	area, _ := tb.Numeric("GrLivArea")
	if v, _ := area.Float(1); v != 1262 {
		t.Fatalf("string number should coerce, got %v", v)
	}
	lf, _ := tb.Numeric("LotFrontage")
	if !lf.IsNull(1) {
		t.Fatal("null should read as missing")
	}
	alley, _ := tb.Strings("Alley")
	if !alley.IsNull(0) || !alley.IsNull(1) {
		t.Fatal("absent and null keys should read as missing")
	}
	if r.BadCells() != 0 {
		t.Fatalf("unexpected bad cells %d", r.BadCells())
	}
}

func TestReadAgainstKnownSchema(t *testing.T) {
	schema := j.Schema{Columns: []j.ColumnSchema{
		{Name: "GrLivArea", Type: j.KindFloat, Nullable: true},
		{Name: "YearBuilt", Type: j.KindInt, Nullable: true},
	}}
	in := `{"GrLivArea": "big", "Extra": 1}` + "\n" + `{"GrLivArea": 900, "YearBuilt": 1960}` + "\n"
	r := NewReaderFrom(strings.NewReader(in), ReaderOptions{})
	tb, err := r.ReadAll(schema)
	if err != nil {
		t.Fatal(err)
	}
	if tb.Rows() != 2 || tb.Cols() != 2 {
		t.Fatalf("got %dx%d", tb.Rows(), tb.Cols())
	}
	if r.BadCells() != 1 {
		t.Fatalf("expected 1 bad cell, got %d", r.BadCells())
	}
	area, _ := tb.Numeric("GrLivArea")
	if !area.IsNull(0) {
		t.Fatal("uncoercible value should be missing")
	}
}

func TestWriteRoundTrip(t *testing.T) {
	src := j.Schema{Columns: []j.ColumnSchema{
		{Name: "Neighborhood", Type: j.KindString, Nullable: true},
		{Name: "SalePrice", Type: j.KindFloat, Nullable: true},
	}}
	tb, errs := j.FromRecords([]j.Record{
		{"Neighborhood": "NAmes", "SalePrice": 129500.5},
		{"Neighborhood": "OldTown"},
	}, src)
	if len(errs) != 0 {
		t.Fatal(errs)
	}
	p := filepath.Join(t.TempDir(), "out.jsonl.gz")
	if err := WriteAll(p, tb); err != nil {
		t.Fatal(err)
	}
	r, err := Open(p, ReaderOptions{})
	if err != nil {
		t.Fatal(err)
	}
	defer func() { _ = r.Close() }()
	back, err := r.ReadAll(src)
	if err != nil {
		t.Fatal(err)
	}
	if back.Rows() != 2 {
		t.Fatalf("expected 2 rows, got %d", back.Rows())
	}
	price, _ := back.Numeric("SalePrice")
	if v, _ := price.Float(0); v != 129500.5 {
		t.Fatalf("got %v", v)
	}
	if !price.IsNull(1) {
		t.Fatal("missing cell should stay missing")
	}
}

func TestWriteValues(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteValues(&buf, "SalePrice", []float64{100, 2.5}); err != nil {
		t.Fatal(err)
	}
	if got := buf.String(); got != "{\"SalePrice\":100}\n{\"SalePrice\":2.5}\n" {
		t.Fatalf("got %q", got)
	}
}
