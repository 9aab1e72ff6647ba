package csvio

import (
	"encoding/csv"
	"io"
	"strconv"
	"time"

	iox "github.com/wdm0006/appraiser/pkg/io/ioutils"
	j "github.com/wdm0006/appraiser/pkg/table"
)

type WriterOptions struct {
	Delimiter rune // default ','
}

// WriteAll writes a Table to a CSV file (gzip when the path ends in .gz,
// stdout for "-") with headers.
func WriteAll(path string, t *j.Table, opt WriterOptions) error {
	out, err := iox.CreateMaybeCompressed(path)
	if err != nil {
		return err
	}
	if err := Write(out, t, opt); err != nil {
		_ = out.Close()
		return err
	}
	return out.Close()
}

// Write writes t with a header row to w.
func Write(w io.Writer, t *j.Table, opt WriterOptions) error {
	cw := newCSVWriter(w, opt)
	if err := cw.Write(t.Names()); err != nil {
		return err
	}
	if err := writeRows(cw, t); err != nil {
		return err
	}
	cw.Flush()
	return cw.Error()
}

func newCSVWriter(w io.Writer, opt WriterOptions) *csv.Writer {
	cw := csv.NewWriter(w)
	if opt.Delimiter != 0 {
		cw.Comma = opt.Delimiter
	}
	return cw
}

func writeRows(cw *csv.Writer, t *j.Table) error {
	row := make([]string, t.Cols())
	for r := 0; r < t.Rows(); r++ {
		for c, col := range t.Columns() {
			row[c] = formatCell(col, r)
		}
		if err := cw.Write(row); err != nil {
			return err
		}
	}
	return nil
}

func formatCell(col j.Column, r int) string {
	switch c := col.(type) {
	case *j.FloatColumn:
		if v, ok := c.Get(r); ok {
			return strconv.FormatFloat(v, 'g', -1, 64)
		}
	case *j.IntColumn:
		if v, ok := c.Get(r); ok {
			return strconv.FormatInt(v, 10)
		}
	case *j.StringColumn:
		if v, ok := c.Get(r); ok {
			return v
		}
	case *j.TimeColumn:
		if v, ok := c.Get(r); ok {
			return v.Format(time.RFC3339)
		}
	}
	return ""
}
