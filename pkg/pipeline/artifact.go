package pipeline

import (
	"context"
	"fmt"
	"io"
	"math"
	"time"

	"github.com/goccy/go-json"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/wdm0006/appraiser/pkg/io/ioutils"
	"github.com/wdm0006/appraiser/pkg/model"
	"github.com/wdm0006/appraiser/pkg/profile"
	j "github.com/wdm0006/appraiser/pkg/table"
)

// Artifact is a fitted pipeline with the regressor trained on its output
// and the target summary computed at training time.
type Artifact struct {
	ID        uuid.UUID
	CreatedAt time.Time
	Rows      int
	Pipeline  *Fitted
	Model     model.Regressor
	Summary   *profile.Summary
	Metrics   *model.Metrics
}

// MinPrice is the floor applied to predictions. A raw model output at or
// below zero on the log scale would otherwise map to a non-positive price.
const MinPrice = 1.0

// Predict returns one price per row of t, undoing the log1p applied to the
// target at training. Prices are never below MinPrice.
func (a *Artifact) Predict(ctx context.Context, t *j.Table) ([]float64, error) {
	if a == nil || a.Model == nil {
		return nil, j.ErrNotFitted
	}
	X, err := a.Pipeline.Transform(ctx, t)
	if err != nil {
		return nil, err
	}
	raw, err := a.Model.Predict(X)
	if err != nil {
		return nil, fmt.Errorf("predict %s: %w", a.Model.Name(), err)
	}
	for i, v := range raw {
		raw[i] = math.Max(math.Expm1(v), MinPrice)
	}
	return raw, nil
}

// PredictRecords converts records against the fit schema and predicts them.
// Cells that cannot be coerced become missing and are reported to the log.
func (a *Artifact) PredictRecords(ctx context.Context, records []j.Record) ([]float64, error) {
	if a == nil || a.Pipeline == nil {
		return nil, j.ErrNotFitted
	}
	t, errs := j.FromRecords(records, a.Pipeline.Schema)
	for _, e := range errs {
		a.Pipeline.logger().Warn("coercion failed", zap.Error(e))
	}
	return a.Predict(ctx, t)
}

// WithLogger returns a shallow copy of a whose pipeline logs to log. The
// regressor is shared.
func (a *Artifact) WithLogger(log *zap.Logger) *Artifact {
	out := *a
	if a.Pipeline != nil {
		p := *a.Pipeline
		p.SetLogger(log)
		out.Pipeline = &p
	}
	return &out
}

// Info describes a trained artifact.
type Info struct {
	ID        string         `json:"id"`
	CreatedAt time.Time      `json:"created_at"`
	Model     string         `json:"model_type"`
	Params    map[string]any `json:"params"`
	Rows      int            `json:"training_rows"`
	Features  int            `json:"features"`
	Metrics   *model.Metrics `json:"metrics,omitempty"`
}

func (a *Artifact) Info() Info {
	in := Info{
		ID:        a.ID.String(),
		CreatedAt: a.CreatedAt,
		Rows:      a.Rows,
		Features:  len(a.Pipeline.Columns()),
		Metrics:   a.Metrics,
	}
	if a.Model != nil {
		in.Model = a.Model.Name()
		in.Params = a.Model.Params()
	}
	return in
}

type artifactJSON struct {
	ID        uuid.UUID        `json:"id"`
	CreatedAt time.Time        `json:"created_at"`
	Rows      int              `json:"rows"`
	Pipeline  *Fitted          `json:"pipeline"`
	Model     model.Envelope   `json:"model"`
	Summary   *profile.Summary `json:"summary,omitempty"`
	Metrics   *model.Metrics   `json:"metrics,omitempty"`
}

func (a *Artifact) MarshalJSON() ([]byte, error) {
	if a.Model == nil || a.Pipeline == nil {
		return nil, j.ErrNotFitted
	}
	env, err := model.Encode(a.Model)
	if err != nil {
		return nil, err
	}
	return json.Marshal(artifactJSON{
		ID:        a.ID,
		CreatedAt: a.CreatedAt,
		Rows:      a.Rows,
		Pipeline:  a.Pipeline,
		Model:     env,
		Summary:   a.Summary,
		Metrics:   a.Metrics,
	})
}

func (a *Artifact) UnmarshalJSON(b []byte) error {
	var aj artifactJSON
	if err := json.Unmarshal(b, &aj); err != nil {
		return err
	}
	if aj.Pipeline == nil || !aj.Pipeline.ready() {
		return fmt.Errorf("artifact %s: %w", aj.ID, j.ErrNotFitted)
	}
	reg, err := model.Decode(aj.Model)
	if err != nil {
		return fmt.Errorf("artifact %s: %w", aj.ID, err)
	}
	*a = Artifact{
		ID:        aj.ID,
		CreatedAt: aj.CreatedAt,
		Rows:      aj.Rows,
		Pipeline:  aj.Pipeline,
		Model:     reg,
		Summary:   aj.Summary,
		Metrics:   aj.Metrics,
	}
	return nil
}

func EncodeArtifact(w io.Writer, a *Artifact) error {
	return json.NewEncoder(w).Encode(a)
}

func DecodeArtifact(r io.Reader) (*Artifact, error) {
	var a Artifact
	if err := json.NewDecoder(r).Decode(&a); err != nil {
		return nil, err
	}
	return &a, nil
}

// SaveArtifact writes a to path atomically, gzip compressed when path ends
// in .gz.
func SaveArtifact(path string, a *Artifact) error {
	f, err := ioutils.CreateAtomic(path)
	if err != nil {
		return err
	}
	if err := EncodeArtifact(f, a); err != nil {
		_ = f.Abort()
		return fmt.Errorf("save artifact %s: %w", path, err)
	}
	return f.Close()
}

func LoadArtifact(path string) (*Artifact, error) {
	rc, err := ioutils.OpenMaybeCompressed(path)
	if err != nil {
		return nil, err
	}
	defer rc.Close()
	a, err := DecodeArtifact(rc)
	if err != nil {
		return nil, fmt.Errorf("load artifact %s: %w", path, err)
	}
	return a, nil
}
