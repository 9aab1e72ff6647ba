// Package jsonlio reads and writes property tables as JSON Lines, one
// record object per line.
package jsonlio

import (
	"io"

	"github.com/goccy/go-json"

	iox "github.com/wdm0006/appraiser/pkg/io/ioutils"
	j "github.com/wdm0006/appraiser/pkg/table"
)

type ReaderOptions struct {
	SampleRows int // for inference; default 100
}

type Reader struct {
	dec    *json.Decoder
	closer io.Closer
	opt    ReaderOptions
	buf    []j.Record
	// cells that did not fit their column kind
	badCells int
}

// Open opens a JSONL file (or stdin for "-"), gzip aware. The caller closes
// the Reader.
func Open(path string, opt ReaderOptions) (*Reader, error) {
	rc, err := iox.OpenMaybeCompressed(path)
	if err != nil {
		return nil, err
	}
	r := NewReaderFrom(rc, opt)
	r.closer = rc
	return r, nil
}

// NewReaderFrom reads records from an arbitrary io.Reader.
func NewReaderFrom(in io.Reader, opt ReaderOptions) *Reader {
	dec := json.NewDecoder(in)
	dec.UseNumber()
	return &Reader{dec: dec, opt: opt}
}

func (r *Reader) Close() error {
	if r.closer == nil {
		return nil
	}
	return r.closer.Close()
}

func (r *Reader) next() (j.Record, error) {
	if len(r.buf) > 0 {
		m := r.buf[0]
		r.buf = r.buf[1:]
		return m, nil
	}
	var m j.Record
	if err := r.dec.Decode(&m); err != nil {
		return nil, err
	}
	return m, nil
}

// InferSchema samples records to determine columns and kinds. Sampled
// records are kept for the following reads.
func (r *Reader) InferSchema() (j.Schema, error) {
	max := r.opt.SampleRows
	if max <= 0 {
		max = 100
	}
	for len(r.buf) < max {
		var m j.Record
		if err := r.dec.Decode(&m); err != nil {
			if err == io.EOF {
				break
			}
			return j.Schema{}, err
		}
		r.buf = append(r.buf, m)
	}
	return j.InferSchema(r.buf), nil
}

// ReadAll loads the remaining records into a Table with the given schema.
// Keys outside the schema are ignored.
func (r *Reader) ReadAll(schema j.Schema) (*j.Table, error) {
	t := j.NewTable(schema)
	for {
		ok, err := r.appendNext(t, schema)
		if err != nil {
			return nil, err
		}
		if !ok {
			return t, nil
		}
	}
}

func (r *Reader) appendNext(t *j.Table, schema j.Schema) (bool, error) {
	m, err := r.next()
	if err == io.EOF {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	t.AppendNullRow()
	row := t.Rows() - 1
	for _, cs := range schema.Columns {
		v, ok := m[cs.Name]
		if !ok || v == nil {
			continue
		}
		if !t.SetValue(row, cs.Name, v) {
			r.badCells++
		}
	}
	return true, nil
}

// BadCells is the number of values that could not be coerced to their
// column kind and were read as missing.
func (r *Reader) BadCells() int { return r.badCells }
