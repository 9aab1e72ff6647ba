package model

import (
	"fmt"
	"sync"

	"github.com/sjwhitworth/golearn/knn"
	"gonum.org/v1/gonum/mat"
)

// KNN averages the targets of the K nearest training rows. The training
// matrix is part of the persisted model.
type KNN struct {
	K        int       `json:"k"`
	Distance string    `json:"distance"`
	Rows     int       `json:"rows"`
	Cols     int       `json:"cols"`
	Data     []float64 `json:"data"`
	Targets  []float64 `json:"targets"`

	mu  sync.Mutex
	reg *knn.KNNRegressor
}

func NewKNN(k int, distance string) *KNN {
	if k <= 0 {
		k = 5
	}
	if distance == "" {
		distance = "euclidean"
	}
	return &KNN{K: k, Distance: distance}
}

func (m *KNN) Name() string { return KindKNN }

func (m *KNN) Params() map[string]any {
	return map[string]any{"k": m.K, "distance": m.Distance, "rows": m.Rows}
}

func (m *KNN) Fit(X mat.Matrix, y []float64) error {
	r, c, err := checkShape(X, y)
	if err != nil {
		return err
	}
	if err := checkDistance(m.Distance); err != nil {
		return err
	}
	m.Rows, m.Cols = r, c
	m.Data = make([]float64, 0, r*c)
	for i := 0; i < r; i++ {
		for j := 0; j < c; j++ {
			m.Data = append(m.Data, X.At(i, j))
		}
	}
	m.Targets = append([]float64(nil), y...)
	m.mu.Lock()
	m.reg = nil
	m.mu.Unlock()
	return nil
}

func checkDistance(d string) error {
	if d != "euclidean" && d != "manhattan" {
		return fmt.Errorf("knn: unsupported distance %q", d)
	}
	return nil
}

// validate checks a decoded model before it is used for prediction.
func (m *KNN) validate() error {
	if err := checkDistance(m.Distance); err != nil {
		return err
	}
	if m.K < 1 {
		return fmt.Errorf("knn: k must be positive, got %d", m.K)
	}
	if m.Rows < 0 || m.Cols < 0 || len(m.Data) != m.Rows*m.Cols || len(m.Targets) != m.Rows {
		return fmt.Errorf("knn: training data does not match %dx%d", m.Rows, m.Cols)
	}
	return nil
}

func (m *KNN) regressor() *knn.KNNRegressor {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.reg == nil {
		m.reg = knn.NewKnnRegressor(m.Distance)
		m.reg.Fit(m.Targets, m.Data, m.Rows, m.Cols)
	}
	return m.reg
}

func (m *KNN) Predict(X mat.Matrix) ([]float64, error) {
	if m.Rows == 0 {
		return nil, ErrNotTrained
	}
	r, c := X.Dims()
	if c != m.Cols {
		return nil, fmt.Errorf("knn: expected %d features, got %d", m.Cols, c)
	}
	k := m.K
	if k > m.Rows {
		k = m.Rows
	}
	reg := m.regressor()
	out := make([]float64, r)
	row := make([]float64, c)
	for i := range out {
		mat.Row(row, i, X)
		out[i] = reg.Predict(mat.NewDense(1, c, row), k)
	}
	return out, nil
}
