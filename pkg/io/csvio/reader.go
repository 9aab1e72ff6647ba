// Package csvio reads and writes property tables as CSV, with kind
// inference, configurable null markers and transparent gzip.
package csvio

import (
	"bufio"
	"encoding/csv"
	"fmt"
	"io"
	"regexp"
	"strconv"
	"strings"

	iox "github.com/wdm0006/appraiser/pkg/io/ioutils"
	j "github.com/wdm0006/appraiser/pkg/table"
)

type ReaderOptions struct {
	HasHeader  bool
	Delimiter  rune // 0 = sniff, default ','
	SampleRows int  // for inference; default 100
	Strict     bool // if true, error on short/long records
	// NullValues are cell texts read as missing, besides the empty string.
	NullValues []string
	// Kinds overrides the inferred kind of named columns.
	Kinds map[string]j.Kind
}

// DefaultReaderOptions reads a headered file where "NA" marks a missing
// value, as in the Ames housing data.
func DefaultReaderOptions() ReaderOptions {
	return ReaderOptions{HasHeader: true, SampleRows: 1000, NullValues: []string{"NA"}}
}

type Reader struct {
	r      *csv.Reader
	closer io.Closer
	opt    ReaderOptions
	nulls  map[string]bool
	buf    [][]string
	// repair/warning counters
	shortRecords int
	longRecords  int
	badCells     int
}

// Open opens a CSV file (or stdin for "-") and returns a Reader. The caller
// closes it.
func Open(path string, opt ReaderOptions) (*Reader, error) {
	rc, err := iox.OpenMaybeCompressed(path)
	if err != nil {
		return nil, err
	}
	if opt.Delimiter == 0 && path != "-" && path != "" {
		if d, lazy, err := sniffDelimiterAndQuotes(path); err == nil && d != 0 {
			opt.Delimiter = d
			r := NewReaderFrom(rc, opt)
			r.r.LazyQuotes = lazy
			r.closer = rc
			return r, nil
		}
	}
	r := NewReaderFrom(rc, opt)
	r.closer = rc
	return r, nil
}

// NewReaderFrom constructs a Reader from an arbitrary io.Reader (stdin, pipe).
func NewReaderFrom(in io.Reader, opt ReaderOptions) *Reader {
	rr := csv.NewReader(in)
	if opt.Delimiter != 0 {
		rr.Comma = opt.Delimiter
	}
	rr.ReuseRecord = true
	rr.FieldsPerRecord = -1
	nulls := map[string]bool{"": true}
	for _, v := range opt.NullValues {
		nulls[v] = true
	}
	return &Reader{r: rr, opt: opt, nulls: nulls}
}

func (r *Reader) Close() error {
	if r.closer == nil {
		return nil
	}
	return r.closer.Close()
}

// read returns a copy of the next record; the csv reader reuses its slice.
func (r *Reader) read() ([]string, error) {
	rec, err := r.r.Read()
	if err != nil {
		return nil, err
	}
	return append([]string(nil), rec...), nil
}

// InferSchema reads header (if present) and samples rows to determine column kinds.
func (r *Reader) InferSchema() (j.Schema, error) {
	rec, err := r.read()
	if err != nil {
		return j.Schema{}, err
	}
	var names []string
	if r.opt.HasHeader {
		names = make([]string, len(rec))
		for i := range rec {
			names[i] = strings.TrimSpace(strings.ToValidUTF8(rec[i], "?"))
		}
		// strip BOM on first header cell if present
		if len(names) > 0 {
			names[0] = strings.TrimPrefix(names[0], "\ufeff")
		}
	} else {
		names = make([]string, len(rec))
		for i := range names {
			names[i] = "col_" + strconv.Itoa(i)
		}
		r.buf = append(r.buf, rec)
	}

	max := r.opt.SampleRows
	if max <= 0 {
		max = 100
	}
	for len(r.buf) < max {
		rr, err := r.read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return j.Schema{}, err
		}
		r.buf = append(r.buf, rr)
	}

	kinds := r.inferKinds(len(names))
	schema := j.Schema{Columns: make([]j.ColumnSchema, len(names))}
	for i := range names {
		kind := kinds[i]
		if k, ok := r.opt.Kinds[names[i]]; ok {
			kind = k
		}
		schema.Columns[i] = j.ColumnSchema{Name: names[i], Type: kind, Nullable: true}
	}
	return schema, nil
}

// ReadAll loads the rest of the CSV into a Table.
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

// appendNext appends one record, buffered ones first. It returns false at
// the end of input.
func (r *Reader) appendNext(t *j.Table, schema j.Schema) (bool, error) {
	var rec []string
	if len(r.buf) > 0 {
		rec, r.buf = r.buf[0], r.buf[1:]
	} else {
		var err error
		rec, err = r.read()
		if err == io.EOF {
			return false, nil
		}
		if err != nil {
			return false, err
		}
	}
	return true, r.appendRecord(t, schema, rec)
}

func (r *Reader) appendRecord(t *j.Table, schema j.Schema, rec []string) error {
	if len(rec) > len(schema.Columns) {
		r.longRecords++
		if r.opt.Strict {
			return fmt.Errorf("csv long record at row %d: need %d fields, got %d", t.Rows(), len(schema.Columns), len(rec))
		}
	}
	if len(rec) < len(schema.Columns) {
		r.shortRecords++
		if r.opt.Strict {
			return fmt.Errorf("csv short record at row %d: need %d fields, got %d", t.Rows(), len(schema.Columns), len(rec))
		}
	}
	t.AppendNullRow()
	row := t.Rows() - 1
	for i, cs := range schema.Columns {
		if i >= len(rec) {
			break
		}
		val := strings.ToValidUTF8(strings.TrimSpace(rec[i]), "?")
		if r.nulls[val] {
			continue
		}
		if !t.SetValue(row, cs.Name, val) {
			r.badCells++
		}
	}
	return nil
}

var numre = regexp.MustCompile(`^[-+]?[0-9]*\.?[0-9]+([eE][-+]?[0-9]+)?$`)

// inferKinds marks a column numeric only when every sampled non-null value
// parses as a number.
func (r *Reader) inferKinds(ncol int) []j.Kind {
	kinds := make([]j.Kind, ncol)
	for c := 0; c < ncol; c++ {
		num, integer, str := 0, 0, 0
		for _, row := range r.buf {
			if c >= len(row) {
				continue
			}
			v := strings.TrimSpace(row[c])
			if r.nulls[v] {
				continue
			}
			if numre.MatchString(v) {
				num++
				if !strings.ContainsAny(v, ".eE") {
					integer++
				}
			} else {
				str++
			}
		}
		switch {
		case num > 0 && str == 0 && integer == num:
			kinds[c] = j.KindInt
		case num > 0 && str == 0:
			kinds[c] = j.KindFloat
		default:
			kinds[c] = j.KindString
		}
	}
	return kinds
}

func sniffDelimiterAndQuotes(path string) (rune, bool, error) {
	rc, err := iox.OpenMaybeCompressed(path)
	if err != nil {
		return 0, false, err
	}
	defer func() { _ = rc.Close() }()
	br := bufio.NewReader(rc)
	sample, _ := br.Peek(4096)
	if len(sample) == 0 {
		return ',', false, nil
	}
	candidates := []byte{',', '\t', ';', '|'}
	best := byte(',')
	bestCount := -1
	for _, c := range candidates {
		cnt := 0
		for _, b := range sample {
			if b == c {
				cnt++
			}
		}
		if cnt > bestCount {
			bestCount = cnt
			best = c
		}
	}
	quoteCount := 0
	for _, b := range sample {
		if b == '"' {
			quoteCount++
		}
	}
	return rune(best), quoteCount%2 != 0, nil
}

// Warnings returns a summary string of any repairs/mismatches encountered.
func (r *Reader) Warnings() string {
	var parts []string
	if r.shortRecords > 0 {
		parts = append(parts, fmt.Sprintf("short_records=%d", r.shortRecords))
	}
	if r.longRecords > 0 {
		parts = append(parts, fmt.Sprintf("long_records=%d", r.longRecords))
	}
	if r.badCells > 0 {
		parts = append(parts, fmt.Sprintf("unparsed_cells=%d", r.badCells))
	}
	return strings.Join(parts, ", ")
}
