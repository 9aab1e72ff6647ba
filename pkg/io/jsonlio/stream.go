package jsonlio

import (
	"io"

	"github.com/goccy/go-json"

	iox "github.com/wdm0006/appraiser/pkg/io/ioutils"
	j "github.com/wdm0006/appraiser/pkg/table"
)

// StreamReader yields Table chunks of up to chunkSize records.
type StreamReader struct {
	r         *Reader
	schema    j.Schema
	chunkSize int
}

// NewStreamReader opens path and infers the schema from the first records.
func NewStreamReader(path string, chunkSize int) (*StreamReader, error) {
	r, err := Open(path, ReaderOptions{})
	if err != nil {
		return nil, err
	}
	schema, err := r.InferSchema()
	if err != nil {
		_ = r.Close()
		return nil, err
	}
	return NewStreamReaderWithSchema(r, schema, chunkSize), nil
}

// NewStreamReaderWithSchema reads r against a known schema, such as the
// schema a pipeline was fitted on.
func NewStreamReaderWithSchema(r *Reader, schema j.Schema, chunkSize int) *StreamReader {
	if chunkSize <= 0 {
		chunkSize = 1024
	}
	return &StreamReader{r: r, schema: schema, chunkSize: chunkSize}
}

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

func (s *StreamReader) Close() error { return s.r.Close() }

// StreamWriter appends tables as JSON lines.
type StreamWriter struct {
	enc *json.Encoder
	out io.WriteCloser
}

func NewStreamWriter(path string) (*StreamWriter, error) {
	out, err := iox.CreateMaybeCompressed(path)
	if err != nil {
		return nil, err
	}
	return &StreamWriter{enc: json.NewEncoder(out), out: out}, nil
}

func (s *StreamWriter) Write(t *j.Table) error {
	for _, rec := range j.ToRecords(t) {
		if err := s.enc.Encode(rec); err != nil {
			return err
		}
	}
	return nil
}

func (s *StreamWriter) Close() error { return s.out.Close() }
