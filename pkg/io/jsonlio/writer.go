package jsonlio

import (
	"io"

	"github.com/goccy/go-json"

	iox "github.com/wdm0006/appraiser/pkg/io/ioutils"
	j "github.com/wdm0006/appraiser/pkg/table"
)

// WriteAll writes t as JSON lines to path (gzip when it ends in .gz, stdout
// for "-"). Missing cells are omitted from their record.
func WriteAll(path string, t *j.Table) error {
	out, err := iox.CreateMaybeCompressed(path)
	if err != nil {
		return err
	}
	if err := Write(out, t); err != nil {
		_ = out.Close()
		return err
	}
	return out.Close()
}

func Write(w io.Writer, t *j.Table) error {
	enc := json.NewEncoder(w)
	for _, rec := range j.ToRecords(t) {
		if err := enc.Encode(rec); err != nil {
			return err
		}
	}
	return nil
}

// WriteValues writes one object per value, {key: v}, e.g. predictions.
func WriteValues(w io.Writer, key string, vals []float64) error {
	enc := json.NewEncoder(w)
	for _, v := range vals {
		if err := enc.Encode(map[string]float64{key: v}); err != nil {
			return err
		}
	}
	return nil
}
