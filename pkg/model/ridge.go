package model

import (
	"errors"
	"fmt"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
)

// Ridge is L2-regularised least squares with an unpenalised intercept.
type Ridge struct {
	Alpha     float64   `json:"alpha"`
	Coef      []float64 `json:"coef"`
	Intercept float64   `json:"intercept"`
}

func NewRidge(alpha float64) *Ridge {
	if alpha <= 0 {
		alpha = 1
	}
	return &Ridge{Alpha: alpha}
}

func (m *Ridge) Name() string { return KindRidge }

func (m *Ridge) Params() map[string]any {
	return map[string]any{"alpha": m.Alpha, "features": len(m.Coef)}
}

// Fit solves (XcᵀXc + αI)β = Xcᵀyc on column-centred data.
func (m *Ridge) Fit(X mat.Matrix, y []float64) error {
	r, c, err := checkShape(X, y)
	if err != nil {
		return err
	}
	ymean := floats.Sum(y) / float64(r)
	if c == 0 {
		m.Coef, m.Intercept = []float64{}, ymean
		return nil
	}
	means := make([]float64, c)
	for j := 0; j < c; j++ {
		for i := 0; i < r; i++ {
			means[j] += X.At(i, j)
		}
		means[j] /= float64(r)
	}

	xc := mat.NewDense(r, c, nil)
	xc.Apply(func(i, j int, v float64) float64 { return v - means[j] }, X)
	yc := make([]float64, r)
	for i, v := range y {
		yc[i] = v - ymean
	}

	var gram mat.SymDense
	gram.SymOuterK(1, xc.T())
	for j := 0; j < c; j++ {
		gram.SetSym(j, j, gram.At(j, j)+m.Alpha)
	}
	var rhs mat.VecDense
	rhs.MulVec(xc.T(), mat.NewVecDense(r, yc))

	var chol mat.Cholesky
	if ok := chol.Factorize(&gram); !ok {
		return errors.New("ridge: normal equations not positive definite")
	}
	var beta mat.VecDense
	if err := chol.SolveVecTo(&beta, &rhs); err != nil {
		return fmt.Errorf("ridge: %w", err)
	}
	m.Coef = make([]float64, c)
	for j := range m.Coef {
		m.Coef[j] = beta.AtVec(j)
	}
	m.Intercept = ymean - floats.Dot(means, m.Coef)
	return nil
}

func (m *Ridge) Predict(X mat.Matrix) ([]float64, error) {
	if m.Coef == nil {
		return nil, ErrNotTrained
	}
	r, c := X.Dims()
	if c != len(m.Coef) {
		return nil, fmt.Errorf("ridge: expected %d features, got %d", len(m.Coef), c)
	}
	pred := make([]float64, r)
	if c == 0 || r == 0 {
		for i := range pred {
			pred[i] = m.Intercept
		}
		return pred, nil
	}
	var out mat.VecDense
	out.MulVec(X, mat.NewVecDense(c, m.Coef))
	for i := range pred {
		pred[i] = out.AtVec(i) + m.Intercept
	}
	return pred, nil
}
