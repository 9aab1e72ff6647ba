package table

import (
	"context"
	"io"
)

// ChunkSource yields tables in chunks until io.EOF.
type ChunkSource interface {
	Next() (*Table, error)
}

// ChunkSink consumes tables, typically writing them out.
type ChunkSink interface {
	Write(*Table) error
	Close() error
}

// RunStream pulls chunks from src, applies the pipeline, and writes to sink.
// It returns the number of input rows processed.
func RunStream(ctx context.Context, p *Pipeline, src ChunkSource, sink ChunkSink) (int, error) {
	defer func() { _ = sink.Close() }()
	rows := 0
	for {
		if err := ctx.Err(); err != nil {
			return rows, err
		}
		t, err := src.Next()
		if err == io.EOF {
			return rows, nil
		}
		if err != nil {
			return rows, err
		}
		out, err := p.Run(ctx, t)
		if err != nil {
			return rows, err
		}
		if err := sink.Write(out); err != nil {
			return rows, err
		}
		rows += t.Rows()
	}
}
