// Package config loads appraiser run configuration from JSON, YAML or TOML.
// Fields absent from the file keep their Ames defaults.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/goccy/go-json"
	toml "github.com/pelletier/go-toml/v2"
	yaml "gopkg.in/yaml.v3"

	"github.com/wdm0006/appraiser/pkg/model"
	"github.com/wdm0006/appraiser/pkg/pipeline"
)

// Data file formats.
const (
	FormatCSV     = "csv"
	FormatJSONL   = "jsonl"
	FormatParquet = "parquet"
)

// Store kinds.
const (
	StoreFile   = "file"
	StoreBadger = "badger"
)

type IO struct {
	Path string `json:"path" yaml:"path" toml:"path"`
	// Format is csv, jsonl or parquet; empty means detect from Path.
	Format    string `json:"format" yaml:"format" toml:"format"`
	Delimiter string `json:"delimiter" yaml:"delimiter" toml:"delimiter"`
	// NullValues are CSV cell texts read as missing.
	NullValues []string `json:"null_values" yaml:"null_values" toml:"null_values"`
	// ChunkSize > 0 streams the data in chunks of this many rows.
	ChunkSize int `json:"chunk_size" yaml:"chunk_size" toml:"chunk_size"`
}

// ResolvedFormat returns Format, or the format implied by the path.
func (o IO) ResolvedFormat() (string, error) {
	if o.Format != "" {
		switch o.Format {
		case FormatCSV, FormatJSONL, FormatParquet:
			return o.Format, nil
		}
		return "", fmt.Errorf("unsupported format %q", o.Format)
	}
	return FormatOf(o.Path)
}

type Store struct {
	Kind string `json:"kind" yaml:"kind" toml:"kind"`
	Dir  string `json:"dir" yaml:"dir" toml:"dir"`
	Name string `json:"name" yaml:"name" toml:"name"`
}

type Config struct {
	Train  pipeline.TrainConfig `json:"train" yaml:"train" toml:"train"`
	Model  model.Config         `json:"model" yaml:"model" toml:"model"`
	Input  IO                   `json:"input" yaml:"input" toml:"input"`
	Output IO                   `json:"output" yaml:"output" toml:"output"`
	// Artifact is the trained artifact file, used when Store.Dir is empty.
	Artifact string `json:"artifact" yaml:"artifact" toml:"artifact"`
	Store    Store  `json:"store" yaml:"store" toml:"store"`
}

func Default() Config {
	return Config{
		Train:    pipeline.DefaultTrainConfig(),
		Model:    model.DefaultConfig(),
		Input:    IO{NullValues: []string{"NA"}},
		Output:   IO{Path: "-"},
		Artifact: "model.json.gz",
		Store:    Store{Kind: StoreFile, Name: "default"},
	}
}

// Load reads path over the defaults. The decoder is chosen by extension:
// .json, .yaml/.yml or .toml.
func Load(path string) (Config, error) {
	cfg := Default()
	b, err := os.ReadFile(path)
	if err != nil {
		return cfg, err
	}
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		err = json.Unmarshal(b, &cfg)
	case ".yaml", ".yml":
		err = yaml.Unmarshal(b, &cfg)
	case ".toml":
		err = toml.Unmarshal(b, &cfg)
	default:
		return cfg, fmt.Errorf("config %s: unknown extension (want .json, .yaml, .yml or .toml)", path)
	}
	if err != nil {
		return cfg, fmt.Errorf("config %s: %w", path, err)
	}
	return cfg, cfg.Validate()
}

func (c Config) Validate() error {
	if c.Train.Pipeline.Target == "" {
		return fmt.Errorf("config: train.pipeline.target is required")
	}
	if c.Train.Holdout < 0 || c.Train.Holdout >= 1 {
		return fmt.Errorf("config: train.holdout %v outside [0, 1)", c.Train.Holdout)
	}
	if c.Train.TrimIQR < 0 {
		return fmt.Errorf("config: train.trim_iqr must not be negative")
	}
	if _, err := model.New(c.Model); err != nil {
		return fmt.Errorf("config: %w", err)
	}
	switch c.Store.Kind {
	case "", StoreFile, StoreBadger:
	default:
		return fmt.Errorf("config: unknown store kind %q", c.Store.Kind)
	}
	return nil
}

// FormatOf maps a file name to a data format, ignoring a trailing .gz.
// Stdin and stdout ("-") are CSV.
func FormatOf(path string) (string, error) {
	if path == "-" || path == "" {
		return FormatCSV, nil
	}
	name := strings.TrimSuffix(strings.ToLower(path), ".gz")
	switch filepath.Ext(name) {
	case ".csv", ".tsv", ".txt":
		return FormatCSV, nil
	case ".jsonl", ".ndjson", ".json":
		return FormatJSONL, nil
	case ".parquet", ".pq":
		return FormatParquet, nil
	}
	return "", fmt.Errorf("cannot tell the format of %q; set format explicitly", path)
}
