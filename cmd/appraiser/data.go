package main

import (
	"fmt"
	"io"

	"github.com/wdm0006/appraiser/pkg/config"
	"github.com/wdm0006/appraiser/pkg/io/csvio"
	"github.com/wdm0006/appraiser/pkg/io/jsonlio"
	"github.com/wdm0006/appraiser/pkg/io/parquetio"
	j "github.com/wdm0006/appraiser/pkg/table"
)

// source is a chunked table reader that owns an open file.
type source interface {
	j.ChunkSource
	Schema() j.Schema
	Close() error
}

// openSource reads in.Path in chunks of in.ChunkSize rows, or as a single
// chunk when ChunkSize is zero. When schema is non-nil, CSV and JSONL inputs
// are read with its column kinds.
func openSource(in config.IO, schema *j.Schema) (source, error) {
	format, err := in.ResolvedFormat()
	if err != nil {
		return nil, err
	}
	if in.ChunkSize <= 0 {
		t, err := readTable(in, format, schema)
		if err != nil {
			return nil, err
		}
		return &tableSource{t: t}, nil
	}
	switch format {
	case config.FormatCSV:
		return csvio.NewStreamReader(in.Path, csvOptions(in, schema), in.ChunkSize)
	case config.FormatJSONL:
		if schema == nil {
			return jsonlio.NewStreamReader(in.Path, in.ChunkSize)
		}
		r, err := jsonlio.Open(in.Path, jsonlio.ReaderOptions{})
		if err != nil {
			return nil, err
		}
		return jsonlio.NewStreamReaderWithSchema(r, *schema, in.ChunkSize), nil
	default:
		return parquetio.NewStreamReader(in.Path, in.ChunkSize)
	}
}

func readTable(in config.IO, format string, schema *j.Schema) (*j.Table, error) {
	switch format {
	case config.FormatCSV:
		r, err := csvio.Open(in.Path, csvOptions(in, schema))
		if err != nil {
			return nil, err
		}
		defer func() { _ = r.Close() }()
		s, err := r.InferSchema()
		if err != nil {
			return nil, err
		}
		return r.ReadAll(s)
	case config.FormatJSONL:
		r, err := jsonlio.Open(in.Path, jsonlio.ReaderOptions{SampleRows: 1000})
		if err != nil {
			return nil, err
		}
		defer func() { _ = r.Close() }()
		if schema != nil {
			return r.ReadAll(*schema)
		}
		s, err := r.InferSchema()
		if err != nil {
			return nil, err
		}
		return r.ReadAll(s)
	default:
		r, err := parquetio.OpenReader(in.Path)
		if err != nil {
			return nil, err
		}
		defer func() { _ = r.Close() }()
		return r.ReadAll()
	}
}

func csvOptions(in config.IO, schema *j.Schema) csvio.ReaderOptions {
	opt := csvio.DefaultReaderOptions()
	if in.NullValues != nil {
		opt.NullValues = in.NullValues
	}
	if in.Delimiter != "" {
		opt.Delimiter = []rune(in.Delimiter)[0]
	}
	if schema != nil {
		opt.Kinds = make(map[string]j.Kind, len(schema.Columns))
		for _, cs := range schema.Columns {
			opt.Kinds[cs.Name] = cs.Type
		}
	}
	return opt
}

// tableSource yields one table, then io.EOF.
type tableSource struct {
	t    *j.Table
	done bool
}

func (s *tableSource) Next() (*j.Table, error) {
	if s.done {
		return nil, io.EOF
	}
	s.done = true
	return s.t, nil
}

func (s *tableSource) Schema() j.Schema { return s.t.Schema() }
func (s *tableSource) Close() error     { return nil }

func createSink(out config.IO) (j.ChunkSink, error) {
	format, err := out.ResolvedFormat()
	if err != nil {
		return nil, err
	}
	switch format {
	case config.FormatCSV:
		opt := csvio.WriterOptions{}
		if out.Delimiter != "" {
			opt.Delimiter = []rune(out.Delimiter)[0]
		}
		return csvio.NewStreamWriter(out.Path, opt)
	case config.FormatJSONL:
		return jsonlio.NewStreamWriter(out.Path)
	case config.FormatParquet:
		if out.Path == "-" {
			return nil, fmt.Errorf("parquet output needs a file path")
		}
		return parquetio.NewStreamWriter(out.Path), nil
	}
	return nil, fmt.Errorf("unsupported output format %q", format)
}

// writeTable writes t in full to out.
func writeTable(out config.IO, t *j.Table) error {
	sink, err := createSink(out)
	if err != nil {
		return err
	}
	if err := sink.Write(t); err != nil {
		_ = sink.Close()
		return err
	}
	return sink.Close()
}
