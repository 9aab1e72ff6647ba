package parquetio

import (
	"path/filepath"
	"testing"

	"github.com/wdm0006/appraiser/pkg/synth"
)

func BenchmarkParquetWrite(b *testing.B) {
	t := synth.Table(5000, 1)
	path := filepath.Join(b.TempDir(), "bench.parquet")
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if err := WriteAll(path, t); err != nil {
			b.Fatal(err)
		}
	}
}

func BenchmarkParquetRead(b *testing.B) {
	path := filepath.Join(b.TempDir(), "bench.parquet")
	if err := WriteAll(path, synth.Table(5000, 1)); err != nil {
		b.Fatal(err)
	}
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		r, err := OpenReader(path)
		if err != nil {
			b.Fatal(err)
		}
		if _, err := r.ReadAll(); err != nil {
			b.Fatal(err)
		}
		_ = r.Close()
	}
}
