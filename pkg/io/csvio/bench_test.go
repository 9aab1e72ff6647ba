package csvio

import (
	"path/filepath"
	"testing"
)

func BenchmarkReadHouses(b *testing.B) {
	p := filepath.FromSlash("testdata/houses.csv")
	for n := 0; n < b.N; n++ {
		r, err := Open(p, DefaultReaderOptions())
		if err != nil {
			b.Fatal(err)
		}
		schema, err := r.InferSchema()
		if err != nil {
			b.Fatal(err)
		}
		tb, err := r.ReadAll(schema)
		if err != nil {
			b.Fatal(err)
		}
		if tb.Rows() == 0 {
			b.Fatal("no rows")
		}
		_ = r.Close()
	}
}
