package parquetio

import (
	"io"

	j "github.com/wdm0006/appraiser/pkg/table"
)

// StreamReader reads Parquet rows in Table chunks.
type StreamReader struct {
	r         *Reader
	chunkSize int
}

func NewStreamReader(path string, chunkSize int) (*StreamReader, error) {
	r, err := OpenReader(path)
	if err != nil {
		return nil, err
	}
	if chunkSize <= 0 {
		chunkSize = 8192
	}
	return &StreamReader{r: r, chunkSize: chunkSize}, nil
}

func (s *StreamReader) Close() error { return s.r.Close() }

func (s *StreamReader) Schema() j.Schema { return s.r.Schema() }

// Next returns the next chunk or io.EOF when complete.
func (s *StreamReader) Next() (*j.Table, error) {
	t := j.NewTable(s.r.Schema())
	for t.Rows() < s.chunkSize {
		n, err := s.r.read(t, s.chunkSize-t.Rows())
		if err != nil {
			return nil, err
		}
		if n == 0 {
			break
		}
	}
	if t.Rows() == 0 {
		return nil, io.EOF
	}
	return t, nil
}

// StreamWriter writes chunks to one Parquet file. The file schema is taken
// from the first chunk.
type StreamWriter struct {
	path string
	w    *Writer
}

func NewStreamWriter(path string) *StreamWriter { return &StreamWriter{path: path} }

func (s *StreamWriter) Write(t *j.Table) error {
	if s.w == nil {
		w, err := NewWriter(s.path, t.Schema())
		if err != nil {
			return err
		}
		s.w = w
	}
	return s.w.Write(t)
}

// Close finishes the file. Nothing is written when no chunk arrived.
func (s *StreamWriter) Close() error {
	if s.w == nil {
		return nil
	}
	return s.w.Close()
}
