package impute

import (
	"context"
	"fmt"
	"testing"

	j "github.com/wdm0006/appraiser/pkg/table"
)

func makeLargeLotTable(n int) *j.Table {
	t := j.NewTable(lotSchema)
	for i := 0; i < n; i++ {
		t.AppendNullRow()
		_ = t.SetCell(i, "Neighborhood", fmt.Sprintf("N%d", i%25))
		if i%2 == 0 {
			_ = t.SetCell(i, "LotFrontage", float64(40+i%60))
		}
	}
	return t
}

func BenchmarkImputeApply(b *testing.B) {
	base := makeLargeLotTable(10000)
	fitted, err := New(DefaultConfig()).Fit(context.Background(), base)
	if err != nil {
		b.Fatal(err)
	}
	b.ResetTimer()
	for n := 0; n < b.N; n++ {
		f := base.Clone()
		if _, err := fitted.Apply(context.Background(), f); err != nil {
			b.Fatal(err)
		}
	}
}
