// Package parquetio reads property tables from Parquet files and writes them
// back. Only flat schemas of primitive columns are supported.
package parquetio

import (
	"errors"
	"fmt"
	"io"
	"os"

	parquet "github.com/segmentio/parquet-go"

	j "github.com/wdm0006/appraiser/pkg/table"
)

type Reader struct {
	file   *os.File
	rows   *parquet.Reader
	schema j.Schema
	// leaf column index to table column name
	names []string
	buf   []parquet.Row
}

// OpenReader opens path and maps its leaf columns onto a table schema:
// integer and boolean columns become Int, floating point becomes Float,
// everything else String.
func OpenReader(path string) (*Reader, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	st, err := f.Stat()
	if err != nil {
		_ = f.Close()
		return nil, err
	}
	pf, err := parquet.OpenFile(f, st.Size())
	if err != nil {
		_ = f.Close()
		return nil, fmt.Errorf("parquet open %s: %w", path, err)
	}
	ps := pf.Schema()
	r := &Reader{file: f, rows: parquet.NewReader(pf)}
	for _, path := range ps.Columns() {
		leaf, ok := ps.Lookup(path...)
		if !ok || len(path) != 1 {
			_ = f.Close()
			return nil, fmt.Errorf("parquet: nested column %v is not supported", path)
		}
		r.names = append(r.names, path[0])
		r.schema.Columns = append(r.schema.Columns, j.ColumnSchema{
			Name:     path[0],
			Type:     kindOf(leaf.Node.Type().Kind()),
			Nullable: leaf.Node.Optional(),
		})
	}
	return r, nil
}

func kindOf(k parquet.Kind) j.Kind {
	switch k {
	case parquet.Boolean, parquet.Int32, parquet.Int64:
		return j.KindInt
	case parquet.Float, parquet.Double:
		return j.KindFloat
	default:
		return j.KindString
	}
}

func (r *Reader) Close() error {
	_ = r.rows.Close()
	return r.file.Close()
}

func (r *Reader) Schema() j.Schema { return r.schema }

// NumRows is the row count recorded in the file footer.
func (r *Reader) NumRows() int64 { return r.rows.NumRows() }

// ReadAll loads the remaining rows into a Table.
func (r *Reader) ReadAll() (*j.Table, error) {
	t := j.NewTable(r.schema)
	for {
		n, err := r.read(t, 1024)
		if err != nil {
			return nil, err
		}
		if n == 0 {
			return t, nil
		}
	}
}

// read appends up to max rows to t and returns how many were read; zero
// means the file is exhausted.
func (r *Reader) read(t *j.Table, max int) (int, error) {
	if cap(r.buf) < max {
		r.buf = make([]parquet.Row, max)
	}
	buf := r.buf[:max]
	n, err := r.rows.ReadRows(buf)
	for i := 0; i < n; i++ {
		t.AppendNullRow()
		r.setRow(t, t.Rows()-1, buf[i])
	}
	if err != nil && !errors.Is(err, io.EOF) {
		return n, fmt.Errorf("parquet read: %w", err)
	}
	return n, nil
}

func (r *Reader) setRow(t *j.Table, row int, values parquet.Row) {
	for _, v := range values {
		c := v.Column()
		if v.IsNull() || c < 0 || c >= len(r.names) {
			continue
		}
		var x any
		switch v.Kind() {
		case parquet.Boolean:
			x = v.Boolean()
		case parquet.Int32:
			x = int64(v.Int32())
		case parquet.Int64:
			x = v.Int64()
		case parquet.Float:
			x = float64(v.Float())
		case parquet.Double:
			x = v.Double()
		default:
			x = string(v.ByteArray())
		}
		t.SetValue(row, r.names[c], x)
	}
}
