package pipeline

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/wdm0006/appraiser/pkg/model"
	"github.com/wdm0006/appraiser/pkg/profile"
	j "github.com/wdm0006/appraiser/pkg/table"
	"github.com/wdm0006/appraiser/pkg/transform/anomaly"
)

// TrainConfig extends the stage settings with the training-only steps.
type TrainConfig struct {
	Pipeline Config `json:"pipeline" yaml:"pipeline" toml:"pipeline"`
	// TrimIQR drops rows whose target is beyond TrimIQR interquartile
	// ranges from the quartiles. Zero disables trimming.
	TrimIQR float64 `json:"trim_iqr" yaml:"trim_iqr" toml:"trim_iqr"`
	// Holdout is the fraction of rows kept aside for evaluation. Zero
	// trains on every row and reports no metrics.
	Holdout float64 `json:"holdout" yaml:"holdout" toml:"holdout"`
	Seed    int64   `json:"seed" yaml:"seed" toml:"seed"`
	GroupBy string  `json:"group_by" yaml:"group_by" toml:"group_by"`
	Bins    int     `json:"bins" yaml:"bins" toml:"bins"`
}

func DefaultTrainConfig() TrainConfig {
	return TrainConfig{
		Pipeline: DefaultConfig(),
		Holdout:  0.2,
		Seed:     42,
		GroupBy:  "Neighborhood",
		Bins:     profile.DefaultBins,
	}
}

// Train fits the pipeline and reg on t, with reg learning log1p of the
// target. Rows without a target are dropped first.
func Train(ctx context.Context, cfg TrainConfig, t *j.Table, reg model.Regressor, opts ...Option) (*Artifact, error) {
	p := New(cfg.Pipeline, opts...)
	target := cfg.Pipeline.Target
	c, ok := t.Numeric(target)
	if !ok {
		return nil, fmt.Errorf("train: target column %q is not numeric or absent", target)
	}
	keep := make([]int, 0, t.Rows())
	for i := 0; i < t.Rows(); i++ {
		if v, ok := c.Float(i); ok && v >= 0 {
			keep = append(keep, i)
		}
	}
	if dropped := t.Rows() - len(keep); dropped > 0 {
		p.log.Warn("dropping rows without a usable target", zap.String("target", target), zap.Int("rows", dropped))
		t = t.Take(keep)
	}

	summary, err := profile.Summarize(t, target, cfg.GroupBy, cfg.Bins)
	if err != nil {
		return nil, fmt.Errorf("train: %w", err)
	}

	if cfg.TrimIQR > 0 {
		var removed int
		t, removed = anomaly.TrimTargetIQR(t, target, cfg.TrimIQR)
		p.log.Info("target outliers trimmed", zap.Int("rows", removed), zap.Float64("k", cfg.TrimIQR))
	}
	if t.Rows() < 2 {
		return nil, errors.New("train: need at least two rows with a target")
	}

	train, test := t, (*j.Table)(nil)
	if cfg.Holdout > 0 {
		tr, te := model.Split(t.Rows(), cfg.Holdout, cfg.Seed)
		if len(te) > 0 {
			train, test = t.Take(tr), t.Take(te)
		}
	}

	fitted, err := p.Fit(ctx, train)
	if err != nil {
		return nil, err
	}
	X, err := fitted.Transform(ctx, train)
	if err != nil {
		return nil, fmt.Errorf("train: %w", err)
	}
	y := logTarget(train, target)
	if err := reg.Fit(X, y); err != nil {
		return nil, fmt.Errorf("train %s: %w", reg.Name(), err)
	}

	a := &Artifact{
		ID:        uuid.New(),
		CreatedAt: time.Now().UTC(),
		Rows:      train.Rows(),
		Pipeline:  fitted,
		Model:     reg,
		Summary:   summary,
	}
	if test != nil {
		pred, err := a.Predict(ctx, test)
		if err != nil {
			return nil, fmt.Errorf("evaluate: %w", err)
		}
		actual := j.Floats(mustNumeric(test, target))
		m := model.Evaluate(actual, pred)
		a.Metrics = &m
		p.log.Info("holdout evaluated",
			zap.Int("rows", m.N),
			zap.Float64("rmse", m.RMSE),
			zap.Float64("mae", m.MAE),
			zap.Float64("r2", m.R2))
	}
	return a, nil
}

func logTarget(t *j.Table, target string) []float64 {
	vals := j.Floats(mustNumeric(t, target))
	for i, v := range vals {
		vals[i] = math.Log1p(v)
	}
	return vals
}

func mustNumeric(t *j.Table, name string) j.NumericColumn {
	c, ok := t.Numeric(name)
	if !ok {
		panic("pipeline: numeric column " + name + " vanished")
	}
	return c
}
