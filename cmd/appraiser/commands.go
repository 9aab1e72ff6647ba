package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"text/tabwriter"
	"time"

	"github.com/goccy/go-json"
	"go.uber.org/zap"

	"github.com/wdm0006/appraiser/pkg/config"
	"github.com/wdm0006/appraiser/pkg/model"
	"github.com/wdm0006/appraiser/pkg/pipeline"
	"github.com/wdm0006/appraiser/pkg/profile"
	"github.com/wdm0006/appraiser/pkg/serving"
	"github.com/wdm0006/appraiser/pkg/store"
	"github.com/wdm0006/appraiser/pkg/synth"
	j "github.com/wdm0006/appraiser/pkg/table"
)

// dataFlags binds -input/-output style flags onto an IO section.
type dataFlags struct {
	path, format string
	chunk        int
	chunked      bool
}

func (d *dataFlags) bind(c *common, prefix, usage string) {
	c.fs.StringVar(&d.path, prefix, "", usage+` path ("-" for stdio, .gz compressed)`)
	c.fs.StringVar(&d.format, prefix+"-format", "", "csv, jsonl or parquet (default from extension)")
	c.fs.IntVar(&d.chunk, "chunk-size", 0, "stream in chunks of this many rows (0 reads everything)")
	d.chunked = true
}

func (d *dataFlags) apply(dst *config.IO, set map[string]bool, prefix string) {
	if set[prefix] {
		dst.Path = d.path
	}
	if set[prefix+"-format"] {
		dst.Format = d.format
	}
	if d.chunked && set["chunk-size"] {
		dst.ChunkSize = d.chunk
	}
}

// artifactFlags select where artifacts are read from or written to.
type artifactFlags struct {
	path, dir, kind, name string
}

func (a *artifactFlags) bind(c *common) {
	c.fs.StringVar(&a.path, "artifact", "", "artifact file (.json or .json.gz)")
	c.fs.StringVar(&a.dir, "store", "", "artifact store directory; overrides -artifact")
	c.fs.StringVar(&a.kind, "store-kind", "", "file or badger")
	c.fs.StringVar(&a.name, "name", "", "artifact name in the store")
}

func (a *artifactFlags) apply(cfg *config.Config, set map[string]bool) {
	if set["artifact"] {
		cfg.Artifact = a.path
	}
	if set["store"] {
		cfg.Store.Dir = a.dir
	}
	if set["store-kind"] {
		cfg.Store.Kind = a.kind
	}
	if set["name"] {
		cfg.Store.Name = a.name
	}
}

// openStore opens the configured store. The close func is non-nil only when err
// is nil.
func openStore(s config.Store) (store.Store, func() error, error) {
	if s.Dir == "" {
		return nil, nil, errors.New("no store directory configured")
	}
	if s.Kind == config.StoreBadger {
		bs, err := store.OpenBadgerStore(s.Dir)
		if err != nil {
			return nil, nil, err
		}
		return bs, bs.Close, nil
	}
	fs, err := store.NewFileStore(s.Dir)
	if err != nil {
		return nil, nil, err
	}
	return fs, func() error { return nil }, nil
}

// serve loads the configured artifact into a serving context.
func serve(ctx context.Context, e *env, cfg config.Config) (*serving.Context, func() error, error) {
	load := serving.FromFile(cfg.Artifact)
	closeFn := func() error { return nil }
	if cfg.Store.Dir != "" {
		s, c, err := openStore(cfg.Store)
		if err != nil {
			return nil, nil, err
		}
		load, closeFn = serving.FromStore(s, cfg.Store.Name), c
	}
	sc, err := serving.New(ctx, load, serving.WithLogger(e.log.Named("serving")))
	if err != nil {
		_ = closeFn()
		return nil, nil, err
	}
	return sc, closeFn, nil
}

func printJSON(w io.Writer, v any) error {
	b, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(w, string(b))
	return err
}

func runTrain(ctx context.Context, e *env, args []string) error {
	c := newFlags("train")
	var in dataFlags
	var art artifactFlags
	in.bind(c, "input", "training data")
	art.bind(c)
	kind := c.fs.String("model", "", "ridge or knn")
	holdout := c.fs.Float64("holdout", 0, "fraction of rows held out for evaluation")
	trim := c.fs.Float64("trim-iqr", 0, "drop training rows with target beyond this many IQRs (0 keeps all)")
	seed := c.fs.Int64("seed", 0, "split seed")
	cfg, err := c.parse(e, args, func(cfg *config.Config, set map[string]bool) {
		in.apply(&cfg.Input, set, "input")
		art.apply(cfg, set)
		if set["model"] {
			cfg.Model.Kind = *kind
		}
		if set["holdout"] {
			cfg.Train.Holdout = *holdout
		}
		if set["trim-iqr"] {
			cfg.Train.TrimIQR = *trim
		}
		if set["seed"] {
			cfg.Train.Seed = *seed
		}
	})
	if err != nil {
		return err
	}
	defer func() { _ = e.log.Sync() }()
	if cfg.Input.Path == "" {
		return errors.New("train: -input is required")
	}

	// training needs every row at once
	cfg.Input.ChunkSize = 0
	format, err := cfg.Input.ResolvedFormat()
	if err != nil {
		return err
	}
	t, err := readTable(cfg.Input, format, nil)
	if err != nil {
		return fmt.Errorf("read %s: %w", cfg.Input.Path, err)
	}
	e.log.Info("training data loaded", zap.String("path", cfg.Input.Path), zap.Int("rows", t.Rows()), zap.Int("columns", t.Cols()))

	reg, err := model.New(cfg.Model)
	if err != nil {
		return err
	}
	start := time.Now()
	a, err := pipeline.Train(ctx, cfg.Train, t, reg, pipeline.WithLogger(e.log.Named("pipeline")))
	if err != nil {
		return err
	}
	e.log.Info("training done", zap.Duration("elapsed", time.Since(start)))

	if cfg.Store.Dir != "" {
		s, closeFn, err := openStore(cfg.Store)
		if err != nil {
			return err
		}
		defer func() { _ = closeFn() }()
		if err := s.Put(ctx, cfg.Store.Name, a); err != nil {
			return err
		}
		e.log.Info("artifact stored", zap.String("store", cfg.Store.Dir), zap.String("name", cfg.Store.Name))
	} else {
		if err := pipeline.SaveArtifact(cfg.Artifact, a); err != nil {
			return err
		}
		e.log.Info("artifact saved", zap.String("path", cfg.Artifact))
	}
	return printJSON(e.stdout, a.Info())
}

func runPredict(ctx context.Context, e *env, args []string) error {
	c := newFlags("predict")
	var in, out dataFlags
	var art artifactFlags
	in.bind(c, "input", "listings to score")
	c.fs.StringVar(&out.path, "output", "", `predictions path (default "-")`)
	c.fs.StringVar(&out.format, "output-format", "", "csv, jsonl or parquet (default from extension)")
	art.bind(c)
	cfg, err := c.parse(e, args, func(cfg *config.Config, set map[string]bool) {
		in.apply(&cfg.Input, set, "input")
		out.apply(&cfg.Output, set, "output")
		art.apply(cfg, set)
	})
	if err != nil {
		return err
	}
	defer func() { _ = e.log.Sync() }()
	if cfg.Input.Path == "" {
		return errors.New("predict: -input is required")
	}

	sc, closeFn, err := serve(ctx, e, cfg)
	if err != nil {
		return err
	}
	defer func() { _ = closeFn() }()
	a := sc.Artifact()
	schema := a.Pipeline.Schema

	src, err := openSource(cfg.Input, &schema)
	if err != nil {
		return err
	}
	defer func() { _ = src.Close() }()
	sink, err := createSink(cfg.Output)
	if err != nil {
		return err
	}
	target, id := a.Pipeline.Config.Target, a.Pipeline.Config.ID
	score := j.TransformFunc{Label: "predict", Fn: func(ctx context.Context, t *j.Table) (*j.Table, error) {
		preds, err := sc.Predict(ctx, j.ToRecords(t))
		if err != nil {
			return nil, err
		}
		return predictions(t, id, target, preds), nil
	}}
	n, err := j.RunStream(ctx, j.NewPipeline().Add(score), src, sink)
	if err != nil {
		return err
	}
	e.log.Info("predictions written", zap.Int("rows", n), zap.String("output", cfg.Output.Path))
	return nil
}

// predictions pairs each prediction with the row's id when the input has one.
func predictions(t *j.Table, id, target string, preds []float64) *j.Table {
	var s j.Schema
	idCol, hasID := t.ColumnByName(id)
	if hasID {
		s.Columns = append(s.Columns, j.ColumnSchema{Name: id, Type: idCol.Kind(), Nullable: true})
	}
	s.Columns = append(s.Columns, j.ColumnSchema{Name: target, Type: j.KindFloat})
	out := j.NewTable(s)
	var ids []j.Record
	if hasID {
		ids = j.ToRecords(t)
	}
	for i, p := range preds {
		out.AppendNullRow()
		if hasID {
			out.SetValue(i, id, ids[i][id])
		}
		out.SetValue(i, target, p)
	}
	return out
}

func runTransform(ctx context.Context, e *env, args []string) error {
	c := newFlags("transform")
	var in, out dataFlags
	var art artifactFlags
	in.bind(c, "input", "listings")
	c.fs.StringVar(&out.path, "output", "", `feature table path (default "-")`)
	c.fs.StringVar(&out.format, "output-format", "", "csv, jsonl or parquet (default from extension)")
	art.bind(c)
	cfg, err := c.parse(e, args, func(cfg *config.Config, set map[string]bool) {
		in.apply(&cfg.Input, set, "input")
		out.apply(&cfg.Output, set, "output")
		art.apply(cfg, set)
	})
	if err != nil {
		return err
	}
	defer func() { _ = e.log.Sync() }()
	if cfg.Input.Path == "" {
		return errors.New("transform: -input is required")
	}

	sc, closeFn, err := serve(ctx, e, cfg)
	if err != nil {
		return err
	}
	defer func() { _ = closeFn() }()
	fitted := sc.Artifact().Pipeline
	stages, err := fitted.Stages()
	if err != nil {
		return err
	}
	schema := fitted.Schema
	src, err := openSource(cfg.Input, &schema)
	if err != nil {
		return err
	}
	defer func() { _ = src.Close() }()
	sink, err := createSink(cfg.Output)
	if err != nil {
		return err
	}
	log := e.log
	p := j.NewPipeline().
		Add(j.TransformFunc{Label: "conform", Fn: func(ctx context.Context, t *j.Table) (*j.Table, error) {
			out, errs := j.FromRecords(j.ToRecords(t), schema)
			if len(errs) > 0 {
				log.Warn("values did not match the training schema", zap.Int("count", len(errs)), zap.Error(errs[0]))
			}
			return out, nil
		}}).
		Add(j.TransformFunc{Label: "features", Fn: stages.Run})
	n, err := j.RunStream(ctx, p, src, sink)
	if err != nil {
		return err
	}
	e.log.Info("features written", zap.Int("rows", n), zap.Strings("steps", stages.Steps()))
	return nil
}

func runProfile(ctx context.Context, e *env, args []string) error {
	c := newFlags("profile")
	var in dataFlags
	in.bind(c, "input", "data")
	asJSON := c.fs.Bool("json", false, "JSON output")
	topK := c.fs.Int("top", 5, "most frequent values shown per text column")
	summary := c.fs.Bool("summary", false, "also summarize the target, per group (needs the whole file)")
	cfg, err := c.parse(e, args, func(cfg *config.Config, set map[string]bool) {
		in.apply(&cfg.Input, set, "input")
	})
	if err != nil {
		return err
	}
	defer func() { _ = e.log.Sync() }()
	if cfg.Input.Path == "" {
		return errors.New("profile: -input is required")
	}
	if *summary {
		cfg.Input.ChunkSize = 0
	}

	src, err := openSource(cfg.Input, nil)
	if err != nil {
		return err
	}
	defer func() { _ = src.Close() }()
	col := profile.NewCollector(src.Schema(), *topK)
	var last *j.Table
	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		t, err := src.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return err
		}
		col.Consume(t)
		last = t
	}

	var sum *profile.Summary
	if *summary && last != nil {
		tc := cfg.Train
		if sum, err = profile.Summarize(last, tc.Pipeline.Target, tc.GroupBy, tc.Bins); err != nil {
			return err
		}
	}
	if *asJSON {
		return printJSON(e.stdout, struct {
			Profile profile.JSONProfile `json:"profile"`
			Summary *profile.Summary    `json:"summary,omitempty"`
		}{col.ReportJSON(), sum})
	}
	fmt.Fprint(e.stdout, col.ReportText())
	if sum != nil {
		return printJSON(e.stdout, sum)
	}
	return nil
}

func runStats(ctx context.Context, e *env, args []string) error {
	c := newFlags("stats")
	var art artifactFlags
	art.bind(c)
	section := c.fs.String("section", "all", "info, overview, groups, distribution or all")
	cfg, err := c.parse(e, args, art.apply)
	if err != nil {
		return err
	}
	defer func() { _ = e.log.Sync() }()

	sc, closeFn, err := serve(ctx, e, cfg)
	if err != nil {
		return err
	}
	defer func() { _ = closeFn() }()

	switch *section {
	case "info":
		return printJSON(e.stdout, sc.Info())
	case "overview":
		v, err := sc.Overview()
		if err != nil {
			return err
		}
		return printJSON(e.stdout, v)
	case "groups":
		v, err := sc.Groups()
		if err != nil {
			return err
		}
		return printJSON(e.stdout, v)
	case "distribution":
		v, err := sc.Distribution()
		if err != nil {
			return err
		}
		return printJSON(e.stdout, v)
	case "all":
		return printJSON(e.stdout, struct {
			Info    pipeline.Info    `json:"info"`
			Summary *profile.Summary `json:"summary,omitempty"`
		}{sc.Info(), sc.Artifact().Summary})
	}
	return fmt.Errorf("unknown section %q", *section)
}

func runModels(ctx context.Context, e *env, args []string) error {
	c := newFlags("models")
	var art artifactFlags
	art.bind(c)
	del := c.fs.Bool("delete", false, "delete the artifact named by -name")
	cfg, err := c.parse(e, args, art.apply)
	if err != nil {
		return err
	}
	defer func() { _ = e.log.Sync() }()

	s, closeFn, err := openStore(cfg.Store)
	if err != nil {
		return err
	}
	defer func() { _ = closeFn() }()

	if *del {
		if err := s.Delete(ctx, cfg.Store.Name); err != nil {
			return err
		}
		e.log.Info("artifact deleted", zap.String("name", cfg.Store.Name))
		return nil
	}
	infos, err := s.List(ctx)
	if err != nil {
		return err
	}
	tw := tabwriter.NewWriter(e.stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tCREATED\tMODEL\tROWS\tFEATURES\tR2")
	for _, in := range infos {
		r2 := "-"
		if in.Metrics != nil {
			r2 = fmt.Sprintf("%.4f", in.Metrics.R2)
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%d\t%d\t%s\n", in.ID, in.CreatedAt.Format(time.RFC3339), in.Model, in.Rows, in.Features, r2)
	}
	return tw.Flush()
}

func runSynth(ctx context.Context, e *env, args []string) error {
	c := newFlags("synth")
	var out dataFlags
	c.fs.StringVar(&out.path, "output", "", `output path (default "-")`)
	c.fs.StringVar(&out.format, "output-format", "", "csv, jsonl or parquet (default from extension)")
	rows := c.fs.Int("rows", 1460, "listings to generate")
	seed := c.fs.Int64("seed", 42, "random seed")
	missing := c.fs.Float64("missing-scale", 1, "multiplier on Ames-like missingness")
	cfg, err := c.parse(e, args, func(cfg *config.Config, set map[string]bool) {
		out.apply(&cfg.Output, set, "output")
	})
	if err != nil {
		return err
	}
	defer func() { _ = e.log.Sync() }()

	g := synth.New(*seed)
	g.MissingScale = *missing
	t, errs := j.FromRecords(g.Records(*rows), synth.Schema())
	if len(errs) > 0 {
		return errs[0]
	}
	if err := writeTable(cfg.Output, t); err != nil {
		return err
	}
	e.log.Info("listings generated", zap.Int("rows", t.Rows()), zap.String("output", cfg.Output.Path))
	return nil
}
