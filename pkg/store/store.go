// Package store persists trained artifacts by name.
package store

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"

	"github.com/wdm0006/appraiser/pkg/pipeline"
)

// ErrNotFound is returned when no artifact is stored under a name.
var ErrNotFound = errors.New("artifact not found")

// Store saves and loads artifacts keyed by name.
type Store interface {
	Put(ctx context.Context, name string, a *pipeline.Artifact) error
	Get(ctx context.Context, name string) (*pipeline.Artifact, error)
	List(ctx context.Context) ([]pipeline.Info, error)
	Delete(ctx context.Context, name string) error
}

var validName = regexp.MustCompile(`^[A-Za-z0-9][A-Za-z0-9._-]*$`)

func checkName(name string) error {
	if !validName.MatchString(name) {
		return fmt.Errorf("invalid artifact name %q", name)
	}
	return nil
}

const fileExt = ".json.gz"

// FileStore keeps one gzip-compressed JSON file per artifact in Dir.
type FileStore struct {
	Dir string
}

func NewFileStore(dir string) (*FileStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}
	return &FileStore{Dir: dir}, nil
}

func (s *FileStore) path(name string) string { return filepath.Join(s.Dir, name+fileExt) }

func (s *FileStore) Put(ctx context.Context, name string, a *pipeline.Artifact) error {
	if err := checkName(name); err != nil {
		return err
	}
	return pipeline.SaveArtifact(s.path(name), a)
}

func (s *FileStore) Get(ctx context.Context, name string) (*pipeline.Artifact, error) {
	if err := checkName(name); err != nil {
		return nil, err
	}
	a, err := pipeline.LoadArtifact(s.path(name))
	if errors.Is(err, os.ErrNotExist) {
		return nil, ErrNotFound
	}
	return a, err
}

// List decodes every stored artifact, so it is meant for small directories.
func (s *FileStore) List(ctx context.Context) ([]pipeline.Info, error) {
	entries, err := os.ReadDir(s.Dir)
	if err != nil {
		return nil, err
	}
	var out []pipeline.Info
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), fileExt) {
			continue
		}
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		a, err := pipeline.LoadArtifact(filepath.Join(s.Dir, e.Name()))
		if err != nil {
			return nil, err
		}
		out = append(out, a.Info())
	}
	sortInfos(out)
	return out, nil
}

func (s *FileStore) Delete(ctx context.Context, name string) error {
	if err := checkName(name); err != nil {
		return err
	}
	err := os.Remove(s.path(name))
	if errors.Is(err, os.ErrNotExist) {
		return ErrNotFound
	}
	return err
}

func sortInfos(in []pipeline.Info) {
	sort.Slice(in, func(a, b int) bool {
		if !in[a].CreatedAt.Equal(in[b].CreatedAt) {
			return in[a].CreatedAt.After(in[b].CreatedAt)
		}
		return in[a].ID < in[b].ID
	})
}
