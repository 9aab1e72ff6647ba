package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadYAML(t *testing.T) {
	cfg, err := Load(filepath.FromSlash("testdata/train.yaml"))
	require.NoError(t, err)
	assert.Equal(t, 0.25, cfg.Train.Holdout)
	assert.Equal(t, 1.5, cfg.Train.TrimIQR)
	assert.Equal(t, 0.5, cfg.Train.Pipeline.Skew.Threshold)
	assert.Equal(t, "knn", cfg.Model.Kind)
	assert.Equal(t, 7, cfg.Model.K)

	// untouched fields keep defaults
	def := Default()
	assert.Equal(t, def.Train.Pipeline.Target, cfg.Train.Pipeline.Target)
	assert.Equal(t, def.Train.Pipeline.Skew.MinDistinct, cfg.Train.Pipeline.Skew.MinDistinct)
	assert.Equal(t, def.Train.Pipeline.Impute.NoneColumns, cfg.Train.Pipeline.Impute.NoneColumns)
	assert.Equal(t, []string{"NA"}, cfg.Input.NullValues)

	f, err := cfg.Input.ResolvedFormat()
	require.NoError(t, err)
	assert.Equal(t, FormatCSV, f)
}

func TestLoadTOML(t *testing.T) {
	cfg, err := Load(filepath.FromSlash("testdata/train.toml"))
	require.NoError(t, err)
	assert.Equal(t, int64(7), cfg.Train.Seed)
	assert.Equal(t, 10.0, cfg.Model.Alpha)
	assert.Equal(t, StoreBadger, cfg.Store.Kind)
	assert.Equal(t, "ridge-v2", cfg.Store.Name)
	assert.Equal(t, "out/ridge.json", cfg.Artifact)
	assert.Equal(t, 0.2, cfg.Train.Holdout)
}

func TestLoadJSON(t *testing.T) {
	cfg, err := Load(filepath.FromSlash("testdata/train.json"))
	require.NoError(t, err)
	assert.Equal(t, 0.5, cfg.Model.Alpha)
	assert.Equal(t, "MSZoning", cfg.Train.GroupBy)
	assert.Equal(t, "pred.jsonl", cfg.Output.Path)
	f, err := cfg.Output.ResolvedFormat()
	require.NoError(t, err)
	assert.Equal(t, FormatJSONL, f)
}

func TestLoadRejects(t *testing.T) {
	dir := t.TempDir()
	write := func(name, body string) string {
		p := filepath.Join(dir, name)
		require.NoError(t, os.WriteFile(p, []byte(body), 0o644))
		return p
	}
	cases := map[string]string{
		"unknown extension": write("c.ini", "x=1"),
		"bad holdout":       write("h.yaml", "train:\n  holdout: 1.5\n"),
		"bad model":         write("m.json", `{"model": {"kind": "forest"}}`),
		"bad store":         write("s.toml", "[store]\nkind = \"s3\"\n"),
		"malformed":         write("x.json", `{"model": `),
	}
	for name, p := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := Load(p)
			assert.Error(t, err)
		})
	}
	_, err := Load(filepath.Join(dir, "missing.yaml"))
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestFormatOf(t *testing.T) {
	for path, want := range map[string]string{
		"-":                 FormatCSV,
		"train.csv":         FormatCSV,
		"train.CSV.gz":      FormatCSV,
		"listings.jsonl.gz": FormatJSONL,
		"x.ndjson":          FormatJSONL,
		"houses.parquet":    FormatParquet,
	} {
		got, err := FormatOf(path)
		require.NoError(t, err, path)
		assert.Equal(t, want, got, path)
	}
	_, err := FormatOf("houses.xlsx")
	assert.Error(t, err)
	_, err = IO{Format: "xml"}.ResolvedFormat()
	assert.Error(t, err)
}
