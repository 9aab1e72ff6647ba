package main

import (
	"bytes"
	"context"
	"path/filepath"
	"strings"
	"testing"

	"github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/wdm0006/appraiser/pkg/config"
	"github.com/wdm0006/appraiser/pkg/io/csvio"
	"github.com/wdm0006/appraiser/pkg/io/jsonlio"
	"github.com/wdm0006/appraiser/pkg/pipeline"
	"github.com/wdm0006/appraiser/pkg/synth"
)

func appraiser(t *testing.T, args ...string) string {
	t.Helper()
	var out bytes.Buffer
	require.NoError(t, run(context.Background(), args, &out, zaptest.NewLogger(t)))
	return out.String()
}

func readCSV(t *testing.T, path string) (rows int, names []string) {
	t.Helper()
	r, err := csvio.Open(path, csvio.DefaultReaderOptions())
	require.NoError(t, err)
	defer func() { _ = r.Close() }()
	s, err := r.InferSchema()
	require.NoError(t, err)
	tb, err := r.ReadAll(s)
	require.NoError(t, err)
	return tb.Rows(), tb.Names()
}

func TestTrainPredictTransform(t *testing.T) {
	dir := t.TempDir()
	train := filepath.Join(dir, "train.csv.gz")
	score := filepath.Join(dir, "score.jsonl")
	artifact := filepath.Join(dir, "model.json.gz")

	appraiser(t, "synth", "-rows", "600", "-seed", "3", "-output", train)
	appraiser(t, "synth", "-rows", "25", "-seed", "4", "-output", score)

	out := appraiser(t, "train", "-input", train, "-artifact", artifact, "-holdout", "0.25")
	var info pipeline.Info
	require.NoError(t, json.Unmarshal([]byte(out), &info))
	assert.Equal(t, "ridge", info.Model)
	assert.Equal(t, 450, info.Rows)
	require.NotNil(t, info.Metrics)
	assert.Equal(t, 150, info.Metrics.N)

	preds := filepath.Join(dir, "preds.csv")
	appraiser(t, "predict", "-artifact", artifact, "-input", score, "-output", preds, "-chunk-size", "10")
	n, names := readCSV(t, preds)
	assert.Equal(t, 25, n)
	assert.Equal(t, []string{"Id", "SalePrice"}, names)

	features := filepath.Join(dir, "features.jsonl")
	appraiser(t, "transform", "-artifact", artifact, "-input", score, "-output", features)
	jr, err := jsonlio.Open(features, jsonlio.ReaderOptions{})
	require.NoError(t, err)
	defer func() { _ = jr.Close() }()
	fs, err := jr.InferSchema()
	require.NoError(t, err)
	ft, err := jr.ReadAll(fs)
	require.NoError(t, err)
	assert.Equal(t, 25, ft.Rows())
	a, err := pipeline.LoadArtifact(artifact)
	require.NoError(t, err)
	assert.ElementsMatch(t, a.Pipeline.Columns(), fs.Names())

	stats := appraiser(t, "stats", "-artifact", artifact, "-section", "overview")
	var ov map[string]float64
	require.NoError(t, json.Unmarshal([]byte(stats), &ov))
	assert.Equal(t, 600.0, ov["total_properties"])
}

func TestStoreCommands(t *testing.T) {
	dir := t.TempDir()
	train := filepath.Join(dir, "train.jsonl")
	models := filepath.Join(dir, "models")
	appraiser(t, "synth", "-rows", "300", "-output", train)

	for _, name := range []string{"ridge", "knn"} {
		appraiser(t, "train", "-input", train, "-store", models, "-store-kind", "badger",
			"-name", name, "-model", name, "-holdout", "0")
	}
	list := appraiser(t, "models", "-store", models, "-store-kind", "badger")
	lines := strings.Split(strings.TrimSpace(list), "\n")
	require.Len(t, lines, 3)
	assert.True(t, strings.HasPrefix(lines[0], "ID"))

	preds := filepath.Join(dir, "preds.jsonl")
	appraiser(t, "predict", "-store", models, "-store-kind", "badger", "-name", "knn",
		"-input", train, "-output", preds)
	jr, err := jsonlio.Open(preds, jsonlio.ReaderOptions{})
	require.NoError(t, err)
	defer func() { _ = jr.Close() }()
	s, err := jr.InferSchema()
	require.NoError(t, err)
	tb, err := jr.ReadAll(s)
	require.NoError(t, err)
	assert.Equal(t, 300, tb.Rows())

	appraiser(t, "models", "-store", models, "-store-kind", "badger", "-name", "knn", "-delete")
	list = appraiser(t, "models", "-store", models, "-store-kind", "badger")
	assert.Len(t, strings.Split(strings.TrimSpace(list), "\n"), 2)
}

func TestProfileCommand(t *testing.T) {
	dir := t.TempDir()
	data := filepath.Join(dir, "houses.csv")
	appraiser(t, "synth", "-rows", "200", "-output", data)

	text := appraiser(t, "profile", "-input", data, "-chunk-size", "64")
	assert.Contains(t, text, "Profile Summary")
	assert.Contains(t, text, "- LotFrontage")

	raw := appraiser(t, "profile", "-input", data, "-json", "-summary")
	var got struct {
		Profile struct {
			Columns []struct {
				Name string `json:"name"`
			} `json:"columns"`
		} `json:"profile"`
		Summary struct {
			Target string `json:"target"`
			Groups []any  `json:"groups"`
		} `json:"summary"`
	}
	require.NoError(t, json.Unmarshal([]byte(raw), &got))
	assert.Len(t, got.Profile.Columns, len(synth.Schema().Columns))
	assert.Equal(t, "SalePrice", got.Summary.Target)
	assert.NotEmpty(t, got.Summary.Groups)
}

func TestCommandErrors(t *testing.T) {
	ctx := context.Background()
	log := zaptest.NewLogger(t)
	var out bytes.Buffer
	assert.Error(t, run(ctx, []string{"bogus"}, &out, log))
	assert.Error(t, run(ctx, []string{"train"}, &out, log))
	assert.Error(t, run(ctx, []string{"train", "-input", "x.csv", "-model", "forest"}, &out, log))
	assert.Error(t, run(ctx, []string{"models"}, &out, log))
	assert.Error(t, run(ctx, []string{"stats", "-artifact", filepath.Join(t.TempDir(), "none.json")}, &out, log))

	out.Reset()
	require.NoError(t, run(ctx, []string{"version"}, &out, log))
	assert.Equal(t, "appraiser "+version+"\n", out.String())
}

func TestOpenStoreCloser(t *testing.T) {
	s, closeFn, err := openStore(config.Store{Kind: config.StoreFile})
	assert.Error(t, err)
	assert.Nil(t, s)
	assert.Nil(t, closeFn)

	s, closeFn, err = openStore(config.Store{Kind: config.StoreFile, Dir: t.TempDir()})
	require.NoError(t, err)
	require.NotNil(t, s)
	require.NotNil(t, closeFn)
	assert.NoError(t, closeFn())
}
