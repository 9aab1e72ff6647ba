package parquetio

import (
	"fmt"

	"github.com/goccy/go-json"
	local "github.com/xitongsys/parquet-go-source/local"
	"github.com/xitongsys/parquet-go/source"
	pw "github.com/xitongsys/parquet-go/writer"

	j "github.com/wdm0006/appraiser/pkg/table"
)

type field struct {
	Tag string `json:"Tag"`
}

type schemaDef struct {
	Tag    string  `json:"Tag"`
	Fields []field `json:"Fields"`
}

func schemaJSON(s j.Schema) (string, error) {
	sc := schemaDef{Tag: "name=parquet_go_root, repetitiontype=REQUIRED"}
	for _, cs := range s.Columns {
		tag := "name=" + cs.Name + ", repetitiontype=OPTIONAL, type="
		switch cs.Type {
		case j.KindFloat:
			tag += "DOUBLE"
		case j.KindInt:
			tag += "INT64"
		default:
			tag += "BYTE_ARRAY, convertedtype=UTF8"
		}
		sc.Fields = append(sc.Fields, field{Tag: tag})
	}
	b, err := json.Marshal(sc)
	return string(b), err
}

// Writer appends tables to a Parquet file. Every chunk must share the schema
// the Writer was created with.
type Writer struct {
	file source.ParquetFile
	w    *pw.JSONWriter
}

func NewWriter(path string, s j.Schema) (*Writer, error) {
	sc, err := schemaJSON(s)
	if err != nil {
		return nil, err
	}
	fw, err := local.NewLocalFileWriter(path)
	if err != nil {
		return nil, err
	}
	w, err := pw.NewJSONWriter(sc, fw, 4)
	if err != nil {
		_ = fw.Close()
		return nil, fmt.Errorf("parquet writer init: %w", err)
	}
	return &Writer{file: fw, w: w}, nil
}

func (w *Writer) Write(t *j.Table) error {
	for _, rec := range j.ToRecords(t) {
		b, err := json.Marshal(rec)
		if err != nil {
			return err
		}
		if err := w.w.Write(string(b)); err != nil {
			return fmt.Errorf("parquet write row: %w", err)
		}
	}
	return nil
}

// Close flushes the footer and closes the file.
func (w *Writer) Close() error {
	if err := w.w.WriteStop(); err != nil {
		_ = w.file.Close()
		return fmt.Errorf("parquet write stop: %w", err)
	}
	return w.file.Close()
}

// WriteAll writes t to a new Parquet file at path.
func WriteAll(path string, t *j.Table) error {
	w, err := NewWriter(path, t.Schema())
	if err != nil {
		return err
	}
	if err := w.Write(t); err != nil {
		_ = w.Close()
		return err
	}
	return w.Close()
}
