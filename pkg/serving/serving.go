// Package serving holds the trained artifact used to answer prediction and
// statistics requests. The artifact is loaded once and replaced only by an
// explicit Reload.
package serving

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"github.com/wdm0006/appraiser/pkg/pipeline"
	"github.com/wdm0006/appraiser/pkg/profile"
	"github.com/wdm0006/appraiser/pkg/store"
	j "github.com/wdm0006/appraiser/pkg/table"
)

// ErrNoSummary is returned by the statistics accessors when the artifact was
// trained without a target summary.
var ErrNoSummary = errors.New("artifact has no summary statistics")

// Loader produces the artifact to serve.
type Loader func(ctx context.Context) (*pipeline.Artifact, error)

// FromFile loads an artifact file, gzip compressed when the path ends in .gz.
func FromFile(path string) Loader {
	return func(ctx context.Context) (*pipeline.Artifact, error) {
		return pipeline.LoadArtifact(path)
	}
}

// FromStore loads the artifact stored under name.
func FromStore(s store.Store, name string) Loader {
	return func(ctx context.Context) (*pipeline.Artifact, error) {
		return s.Get(ctx, name)
	}
}

// Option configures a Context.
type Option func(*Context)

func WithLogger(log *zap.Logger) Option {
	return func(c *Context) { c.log = log }
}

// Context is safe for concurrent use. Predictions read the current artifact
// without locking; Reload swaps it atomically.
type Context struct {
	load     Loader
	log      *zap.Logger
	current  atomic.Pointer[pipeline.Artifact]
	reloadMu sync.Mutex
}

// New loads the artifact once and returns a ready Context.
func New(ctx context.Context, load Loader, opts ...Option) (*Context, error) {
	c := &Context{load: load}
	for _, o := range opts {
		o(c)
	}
	if c.log == nil {
		c.log = zap.NewNop()
	}
	if err := c.Reload(ctx); err != nil {
		return nil, err
	}
	return c, nil
}

// Reload replaces the served artifact. On failure the previous artifact
// stays in place.
func (c *Context) Reload(ctx context.Context) error {
	c.reloadMu.Lock()
	defer c.reloadMu.Unlock()

	a, err := c.load(ctx)
	if err == nil && (a == nil || a.Pipeline == nil || a.Model == nil) {
		err = j.ErrNotFitted
	}
	if err != nil {
		ReloadsTotal.WithLabelValues("failure").Inc()
		c.log.Error("artifact load failed", zap.Error(err))
		return fmt.Errorf("load artifact: %w", err)
	}
	a = a.WithLogger(c.log.Named("pipeline"))
	c.current.Store(a)
	ReloadsTotal.WithLabelValues("success").Inc()
	ArtifactLoadedTimestamp.Set(float64(a.CreatedAt.Unix()))
	c.log.Info("artifact loaded",
		zap.String("id", a.ID.String()),
		zap.String("model", a.Model.Name()),
		zap.Int("features", len(a.Pipeline.Columns())))
	return nil
}

// Artifact returns the artifact currently served.
func (c *Context) Artifact() *pipeline.Artifact { return c.current.Load() }

// Predict scores records against the served artifact.
func (c *Context) Predict(ctx context.Context, records []j.Record) ([]float64, error) {
	start := time.Now()
	defer func() { PredictionDuration.Observe(time.Since(start).Seconds()) }()

	out, err := c.Artifact().PredictRecords(ctx, records)
	if err != nil {
		PredictionsTotal.WithLabelValues("error").Add(float64(len(records)))
		return nil, err
	}
	PredictionsTotal.WithLabelValues("success").Add(float64(len(out)))
	return out, nil
}

// PredictTable scores an already typed table.
func (c *Context) PredictTable(ctx context.Context, t *j.Table) ([]float64, error) {
	start := time.Now()
	defer func() { PredictionDuration.Observe(time.Since(start).Seconds()) }()

	out, err := c.Artifact().Predict(ctx, t)
	if err != nil {
		PredictionsTotal.WithLabelValues("error").Add(float64(t.Rows()))
		return nil, err
	}
	PredictionsTotal.WithLabelValues("success").Add(float64(len(out)))
	return out, nil
}

// Info describes the served model.
func (c *Context) Info() pipeline.Info { return c.Artifact().Info() }

func (c *Context) summary() (*profile.Summary, error) {
	s := c.Artifact().Summary
	if s == nil {
		return nil, ErrNoSummary
	}
	return s, nil
}

func (c *Context) Overview() (profile.Overview, error) {
	s, err := c.summary()
	if err != nil {
		return profile.Overview{}, err
	}
	return s.Overview, nil
}

// Groups returns the per-group aggregates, e.g. by neighborhood.
func (c *Context) Groups() ([]profile.GroupStats, error) {
	s, err := c.summary()
	if err != nil {
		return nil, err
	}
	return s.Groups, nil
}

func (c *Context) Distribution() (profile.Distribution, error) {
	s, err := c.summary()
	if err != nil {
		return profile.Distribution{}, err
	}
	return s.Distribution, nil
}
