package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"runtime"
	"time"

	"github.com/goccy/go-json"
	"go.uber.org/zap"

	"github.com/wdm0006/appraiser/pkg/pipeline"
	"github.com/wdm0006/appraiser/pkg/synth"
	j "github.com/wdm0006/appraiser/pkg/table"
)

// genSource generates synthetic listings chunk by chunk.
type genSource struct {
	gen    *synth.Generator
	schema j.Schema
	remain int
	chunk  int
	nextID int
}

func (g *genSource) Next() (*j.Table, error) {
	if g.remain <= 0 {
		return nil, io.EOF
	}
	n := g.chunk
	if n > g.remain {
		n = g.remain
	}
	g.remain -= n
	recs := make([]j.Record, n)
	for i := range recs {
		g.nextID++
		recs[i] = g.gen.Record(g.nextID)
	}
	t, _ := j.FromRecords(recs, g.schema)
	return t, nil
}

type blackholeSink struct{ rows, cols int }

func (b *blackholeSink) Write(t *j.Table) error {
	b.rows += t.Rows()
	b.cols = t.Cols()
	return nil
}
func (b *blackholeSink) Close() error { return nil }

func main() {
	var (
		rows    = flag.Int("rows", 1_000_000, "total rows to transform")
		chunk   = flag.Int("chunk", 50_000, "rows per chunk")
		fitRows = flag.Int("fit-rows", 5_000, "rows used to fit the pipeline")
		missing = flag.Float64("missing-scale", 1, "multiplier on Ames-like missingness")
		jsonOut = flag.Bool("json", false, "emit JSON summary")
		seed    = flag.Int64("seed", 42, "random seed")
	)
	flag.Parse()

	ctx := context.Background()
	log := zap.NewNop()

	fitStart := time.Now()
	fitted, err := pipeline.New(pipeline.DefaultConfig(), pipeline.WithLogger(log)).Fit(ctx, synth.Table(*fitRows, *seed))
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	fitElapsed := time.Since(fitStart)
	stages, err := fitted.Stages()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	gen := synth.New(*seed + 1)
	gen.MissingScale = *missing
	src := &genSource{gen: gen, schema: synth.Schema(), remain: *rows, chunk: *chunk}
	sink := &blackholeSink{}

	// Warm up
	runtime.GC()
	time.Sleep(100 * time.Millisecond)

	var msBefore, msAfter runtime.MemStats
	runtime.ReadMemStats(&msBefore)
	start := time.Now()
	n, err := j.RunStream(ctx, stages, src, sink)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	elapsed := time.Since(start)
	runtime.ReadMemStats(&msAfter)

	rowsPerSec := float64(n) / elapsed.Seconds()
	summary := map[string]any{
		"rows":                  n,
		"features":              sink.cols,
		"fit_rows":              *fitRows,
		"fit_ms":                fitElapsed.Milliseconds(),
		"elapsed_ms":            elapsed.Milliseconds(),
		"rows_per_sec":          rowsPerSec,
		"mem_alloc_bytes":       msAfter.Alloc,
		"mem_total_alloc_bytes": msAfter.TotalAlloc - msBefore.TotalAlloc,
		"gc_num":                msAfter.NumGC - msBefore.NumGC,
		"chunk":                 *chunk,
		"missing_scale":         *missing,
	}

	if *jsonOut {
		b, _ := json.MarshalIndent(summary, "", "  ")
		fmt.Println(string(b))
		return
	}
	fmt.Printf("Rows: %d (%d features)\n", n, sink.cols)
	fmt.Printf("Fit: %s on %d rows\n", fitElapsed, *fitRows)
	fmt.Printf("Elapsed: %s\n", elapsed)
	fmt.Printf("Throughput: %.0f rows/s\n", rowsPerSec)
	fmt.Printf("Current Alloc: %d MB\n", msAfter.Alloc/1024/1024)
	fmt.Printf("Total Alloc (delta): %d MB\n", (msAfter.TotalAlloc-msBefore.TotalAlloc)/1024/1024)
	fmt.Printf("GC cycles (delta): %d\n", msAfter.NumGC-msBefore.NumGC)
}
