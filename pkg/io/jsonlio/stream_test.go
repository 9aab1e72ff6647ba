package jsonlio

import (
	"io"
	"path/filepath"
	"testing"
)

func TestStreamReadJSONL(t *testing.T) {
	p := filepath.FromSlash("testdata/listings.jsonl")
	sr, err := NewStreamReader(p, 2)
	if err != nil {
		t.Fatal(err)
	}
	defer func() { _ = sr.Close() }()
	var sizes []int
	for {
		fr, err := sr.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			t.Fatal(err)
		}
		sizes = append(sizes, fr.Rows())
	}
	if len(sizes) != 2 || sizes[0] != 2 || sizes[1] != 1 {
		t.Fatalf("unexpected chunks %v", sizes)
	}
}

func TestStreamWriteJSONL(t *testing.T) {
	sr, err := NewStreamReader(filepath.FromSlash("testdata/listings.jsonl"), 1)
	if err != nil {
		t.Fatal(err)
	}
	defer func() { _ = sr.Close() }()
	out := filepath.Join(t.TempDir(), "copy.jsonl")
	sw, err := NewStreamWriter(out)
	if err != nil {
		t.Fatal(err)
	}
	for {
		fr, err := sr.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			t.Fatal(err)
		}
		if err := sw.Write(fr); err != nil {
			t.Fatal(err)
		}
	}
	if err := sw.Close(); err != nil {
		t.Fatal(err)
	}
	r, err := Open(out, ReaderOptions{})
	if err != nil {
		t.Fatal(err)
	}
	defer func() { _ = r.Close() }()
	tb, err := r.ReadAll(sr.Schema())
	if err != nil {
		t.Fatal(err)
	}
	if tb.Rows() != 3 {
		t.Fatalf("expected 3 rows, got %d", tb.Rows())
	}
}
