package csvio

import (
	"encoding/csv"
	"io"

	iox "github.com/wdm0006/appraiser/pkg/io/ioutils"
	j "github.com/wdm0006/appraiser/pkg/table"
)

// StreamReader reads CSV into Table chunks of up to ChunkSize rows.
type StreamReader struct {
	r         *Reader
	schema    j.Schema
	chunkSize int
}

// NewStreamReader opens the file, infers schema (respecting options), and
// returns a StreamReader. Close releases the file.
func NewStreamReader(path string, opt ReaderOptions, chunkSize int) (*StreamReader, error) {
	rr, err := Open(path, opt)
	if err != nil {
		return nil, err
	}
	schema, err := rr.InferSchema()
	if err != nil {
		_ = rr.Close()
		return nil, err
	}
	if chunkSize <= 0 {
		chunkSize = 1024
	}
	return &StreamReader{r: rr, schema: schema, chunkSize: chunkSize}, nil
}

// Next returns the next chunk or io.EOF when complete.
func (s *StreamReader) Next() (*j.Table, error) {
	t := j.NewTable(s.schema)
	for t.Rows() < s.chunkSize {
		ok, err := s.r.appendNext(t, s.schema)
		if err != nil {
			return nil, err
		}
		if !ok {
			break
		}
	}
	if t.Rows() == 0 {
		return nil, io.EOF
	}
	return t, nil
}

func (s *StreamReader) Schema() j.Schema { return s.schema }

func (s *StreamReader) Warnings() string { return s.r.Warnings() }

func (s *StreamReader) Close() error { return s.r.Close() }

// StreamWriter appends tables to a CSV file. The header is taken from the
// first chunk written.
type StreamWriter struct {
	w           *csv.Writer
	out         io.WriteCloser
	wroteHeader bool
}

func NewStreamWriter(path string, opt WriterOptions) (*StreamWriter, error) {
	out, err := iox.CreateMaybeCompressed(path)
	if err != nil {
		return nil, err
	}
	return &StreamWriter{w: newCSVWriter(out, opt), out: out}, nil
}

func (s *StreamWriter) Write(t *j.Table) error {
	if !s.wroteHeader {
		if err := s.w.Write(t.Names()); err != nil {
			return err
		}
		s.wroteHeader = true
	}
	if err := writeRows(s.w, t); err != nil {
		return err
	}
	s.w.Flush()
	return s.w.Error()
}

func (s *StreamWriter) Close() error {
	s.w.Flush()
	if err := s.w.Error(); err != nil {
		_ = s.out.Close()
		return err
	}
	return s.out.Close()
}
