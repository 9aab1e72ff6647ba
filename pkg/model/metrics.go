package model

import (
	"math"
	"math/rand"

	"gonum.org/v1/gonum/stat"
)

// Metrics summarises prediction quality on held-out rows.
type Metrics struct {
	RMSE float64 `json:"rmse"`
	MAE  float64 `json:"mae"`
	R2   float64 `json:"r2"`
	N    int     `json:"n"`
}

// Evaluate compares predictions with actual values.
func Evaluate(actual, predicted []float64) Metrics {
	m := Metrics{N: len(actual)}
	if len(actual) == 0 || len(actual) != len(predicted) {
		return m
	}
	var se, ae float64
	for i, a := range actual {
		d := predicted[i] - a
		se += d * d
		ae += math.Abs(d)
	}
	n := float64(len(actual))
	m.RMSE = math.Sqrt(se / n)
	m.MAE = ae / n
	m.R2 = stat.RSquaredFrom(predicted, actual, nil)
	return m
}

// Split shuffles row indices with seed and holds out frac of them.
func Split(n int, frac float64, seed int64) (train, test []int) {
	idx := rand.New(rand.NewSource(seed)).Perm(n)
	nTest := int(math.Round(float64(n) * frac))
	if nTest >= n {
		nTest = n - 1
	}
	if nTest < 0 {
		nTest = 0
	}
	return idx[nTest:], idx[:nTest]
}
