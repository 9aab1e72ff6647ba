package pipeline

import (
	"errors"
	"fmt"

	"gonum.org/v1/gonum/mat"

	j "github.com/wdm0006/appraiser/pkg/table"
)

// Matrix is the encoded feature matrix with its column names.
type Matrix struct {
	Columns []string
	*mat.Dense
}

// NewMatrix copies an all-numeric table into a dense matrix.
func NewMatrix(t *j.Table) (*Matrix, error) {
	r, c := t.Rows(), t.Cols()
	if r == 0 || c == 0 {
		return nil, errors.New("matrix: empty feature table")
	}
	data := make([]float64, r*c)
	for k, col := range t.Columns() {
		nc, ok := col.(j.NumericColumn)
		if !ok {
			return nil, fmt.Errorf("matrix: column %s is %v, not numeric", col.Name(), col.Kind())
		}
		for i := 0; i < r; i++ {
			v, ok := nc.Float(i)
			if !ok {
				return nil, fmt.Errorf("matrix: column %s row %d is missing", col.Name(), i)
			}
			data[i*c+k] = v
		}
	}
	return &Matrix{Columns: t.Names(), Dense: mat.NewDense(r, c, data)}, nil
}
