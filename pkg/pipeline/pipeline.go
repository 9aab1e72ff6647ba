// Package pipeline composes the feature stages into one fit/transform unit
// and bundles the fitted stages with a regressor as a trained Artifact.
package pipeline

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	j "github.com/wdm0006/appraiser/pkg/table"
	"github.com/wdm0006/appraiser/pkg/transform/anomaly"
	"github.com/wdm0006/appraiser/pkg/transform/encode"
	"github.com/wdm0006/appraiser/pkg/transform/engineer"
	"github.com/wdm0006/appraiser/pkg/transform/impute"
	"github.com/wdm0006/appraiser/pkg/transform/ordinal"
	"github.com/wdm0006/appraiser/pkg/transform/skew"
)

// Config holds the per-stage settings. Target and ID are removed from every
// table before the stages run.
type Config struct {
	Target  string         `json:"target" yaml:"target" toml:"target"`
	ID      string         `json:"id" yaml:"id" toml:"id"`
	Impute  impute.Config  `json:"impute" yaml:"impute" toml:"impute"`
	Anomaly anomaly.Config `json:"anomaly" yaml:"anomaly" toml:"anomaly"`
	Skew    skew.Config    `json:"skew" yaml:"skew" toml:"skew"`
	Encode  encode.Config  `json:"encode" yaml:"encode" toml:"encode"`
}

func DefaultConfig() Config {
	return Config{
		Target:  "SalePrice",
		ID:      "Id",
		Impute:  impute.DefaultConfig(),
		Anomaly: anomaly.DefaultConfig(),
		Skew:    skew.DefaultConfig(),
		Encode:  encode.DefaultConfig(),
	}
}

// Option configures a Pipeline.
type Option func(*Pipeline)

func WithLogger(log *zap.Logger) Option {
	return func(p *Pipeline) { p.log = log }
}

type Pipeline struct {
	cfg Config
	log *zap.Logger
}

func New(cfg Config, opts ...Option) *Pipeline {
	p := &Pipeline{cfg: cfg}
	for _, o := range opts {
		o(p)
	}
	if p.log == nil {
		p.log = zap.NewNop()
	}
	return p
}

// Fit learns every stage in order on a copy of t. The caller's table is not
// modified.
func (p *Pipeline) Fit(ctx context.Context, t *j.Table) (*Fitted, error) {
	work := p.prepare(t)
	log := p.log

	imp, err := impute.New(p.cfg.Impute, impute.WithLogger(log.Named("impute"))).Fit(ctx, work)
	if err != nil {
		return nil, fmt.Errorf("impute: %w", err)
	}
	pre := j.NewPipeline().
		Add(imp).
		Add(anomaly.New(p.cfg.Anomaly, log.Named("anomaly"))).
		Add(engineer.New(log.Named("engineer"))).
		Add(ordinal.New())
	if work, err = pre.Run(ctx, work); err != nil {
		return nil, err
	}

	sk, err := skew.New(p.cfg.Skew, log.Named("skew")).Fit(ctx, work)
	if err != nil {
		return nil, fmt.Errorf("skew: %w", err)
	}
	if work, err = sk.Apply(ctx, work); err != nil {
		return nil, fmt.Errorf("skew: %w", err)
	}

	enc, err := encode.New(p.cfg.Encode, log.Named("encode")).Fit(ctx, work)
	if err != nil {
		return nil, fmt.Errorf("encode: %w", err)
	}
	p.log.Info("pipeline fitted",
		zap.Int("rows", t.Rows()),
		zap.Int("input_columns", t.Cols()),
		zap.Int("features", len(enc.Columns())))

	return &Fitted{
		Config: p.cfg,
		Schema: t.Schema(),
		Impute: imp,
		Skew:   sk,
		Encode: enc,
		log:    p.log,
	}, nil
}

func (p *Pipeline) prepare(t *j.Table) *j.Table {
	work := t.Clone()
	work.DropColumns(p.cfg.Target, p.cfg.ID)
	return work
}

// Fitted is the learned state of every stage. The zero value is unfitted.
type Fitted struct {
	Config Config         `json:"config"`
	Schema j.Schema       `json:"schema"`
	Impute *impute.Fitted `json:"impute"`
	Skew   *skew.Fitted   `json:"skew"`
	Encode *encode.Fitted `json:"encode"`
	log    *zap.Logger
}

// SetLogger routes stage logs to log; nil discards them.
func (f *Fitted) SetLogger(log *zap.Logger) {
	f.log = log
	if f.Impute != nil {
		f.Impute = f.Impute.WithLogger(log)
	}
}

func (f *Fitted) logger() *zap.Logger {
	if f.log == nil {
		return zap.NewNop()
	}
	return f.log
}

func (f *Fitted) ready() bool {
	return f != nil && f.Impute != nil && f.Skew != nil && f.Encode != nil
}

// Stages returns the transform chain, from raw table to encoded features.
func (f *Fitted) Stages() (*j.Pipeline, error) {
	if !f.ready() {
		return nil, j.ErrNotFitted
	}
	log := f.logger()
	cfg := f.Config
	return j.NewPipeline().
		Add(j.TransformFunc{Label: "prepare", Fn: func(ctx context.Context, t *j.Table) (*j.Table, error) {
			work := t.Clone()
			work.DropColumns(cfg.Target, cfg.ID)
			return work, nil
		}}).
		Add(f.Impute).
		Add(anomaly.New(cfg.Anomaly, log.Named("anomaly"))).
		Add(engineer.New(log.Named("engineer"))).
		Add(ordinal.New()).
		Add(f.Skew).
		Add(f.Encode), nil
}

// Features returns the encoded table for t.
func (f *Fitted) Features(ctx context.Context, t *j.Table) (*j.Table, error) {
	stages, err := f.Stages()
	if err != nil {
		return nil, err
	}
	return stages.Run(ctx, t)
}

// Transform returns the fixed-width feature matrix for t.
func (f *Fitted) Transform(ctx context.Context, t *j.Table) (*Matrix, error) {
	out, err := f.Features(ctx, t)
	if err != nil {
		return nil, err
	}
	return NewMatrix(out)
}

// Columns returns the feature names in matrix order.
func (f *Fitted) Columns() []string {
	if !f.ready() {
		return nil
	}
	return f.Encode.Columns()
}
