// Package model holds the pluggable regressors trained on the encoded
// feature matrix, and their persistence envelope.
package model

import (
	"errors"
	"fmt"

	"github.com/goccy/go-json"
	"gonum.org/v1/gonum/mat"
)

// ErrNotTrained is returned by Predict before Fit.
var ErrNotTrained = errors.New("model not trained")

// Regressor maps an n×p feature matrix to n predictions.
type Regressor interface {
	Name() string
	Fit(X mat.Matrix, y []float64) error
	Predict(X mat.Matrix) ([]float64, error)
	// Params describes the hyperparameters for model info endpoints.
	Params() map[string]any
}

// Config selects and parameterises a regressor.
type Config struct {
	Kind     string  `json:"kind" yaml:"kind" toml:"kind"`
	Alpha    float64 `json:"alpha" yaml:"alpha" toml:"alpha"`
	K        int     `json:"k" yaml:"k" toml:"k"`
	Distance string  `json:"distance" yaml:"distance" toml:"distance"`
}

func DefaultConfig() Config {
	return Config{Kind: KindRidge, Alpha: 1, K: 5, Distance: "euclidean"}
}

const (
	KindRidge = "ridge"
	KindKNN   = "knn"
)

// New builds an untrained regressor from c.
func New(c Config) (Regressor, error) {
	switch c.Kind {
	case KindRidge, "":
		return NewRidge(c.Alpha), nil
	case KindKNN:
		return NewKNN(c.K, c.Distance), nil
	default:
		return nil, fmt.Errorf("unknown model kind %q", c.Kind)
	}
}

// Envelope is the persisted form of a trained regressor.
type Envelope struct {
	Kind   string          `json:"kind"`
	Params json.RawMessage `json:"params"`
}

func Encode(r Regressor) (Envelope, error) {
	b, err := json.Marshal(r)
	if err != nil {
		return Envelope{}, fmt.Errorf("encode %s: %w", r.Name(), err)
	}
	return Envelope{Kind: r.Name(), Params: b}, nil
}

func Decode(e Envelope) (Regressor, error) {
	var r Regressor
	switch e.Kind {
	case KindRidge:
		r = &Ridge{}
	case KindKNN:
		r = &KNN{}
	default:
		return nil, fmt.Errorf("unknown model kind %q", e.Kind)
	}
	if err := json.Unmarshal(e.Params, r); err != nil {
		return nil, fmt.Errorf("decode %s: %w", e.Kind, err)
	}
	if k, ok := r.(*KNN); ok {
		if err := k.validate(); err != nil {
			return nil, fmt.Errorf("decode %s: %w", e.Kind, err)
		}
	}
	return r, nil
}

func checkShape(X mat.Matrix, y []float64) (int, int, error) {
	r, c := X.Dims()
	if r != len(y) {
		return 0, 0, fmt.Errorf("matrix has %d rows, target has %d", r, len(y))
	}
	if r == 0 {
		return 0, 0, errors.New("no training rows")
	}
	return r, c, nil
}
