package store

import (
	"bytes"
	"context"
	"errors"
	"fmt"

	"github.com/dgraph-io/badger/v4"
	"github.com/goccy/go-json"

	"github.com/wdm0006/appraiser/pkg/pipeline"
)

// Key prefixes for BadgerDB storage
const (
	artifactKeyPrefix = "artifact:"
	infoKeyPrefix     = "artifact_info:"
)

// BadgerStore keeps artifacts in a BadgerDB, with a small info record per
// artifact so listing does not decode the fitted state.
type BadgerStore struct {
	db *badger.DB
}

func NewBadgerStore(db *badger.DB) *BadgerStore {
	return &BadgerStore{db: db}
}

// OpenBadgerStore opens (or creates) a database in dir. The caller owns
// closing it via Close.
func OpenBadgerStore(dir string) (*BadgerStore, error) {
	db, err := badger.Open(badger.DefaultOptions(dir).WithLogger(nil))
	if err != nil {
		return nil, fmt.Errorf("open badger %s: %w", dir, err)
	}
	return &BadgerStore{db: db}, nil
}

func (s *BadgerStore) Close() error { return s.db.Close() }

func (s *BadgerStore) Put(ctx context.Context, name string, a *pipeline.Artifact) error {
	if err := checkName(name); err != nil {
		return err
	}
	var buf bytes.Buffer
	if err := pipeline.EncodeArtifact(&buf, a); err != nil {
		return fmt.Errorf("marshal artifact: %w", err)
	}
	info, err := json.Marshal(a.Info())
	if err != nil {
		return fmt.Errorf("marshal info: %w", err)
	}
	return s.db.Update(func(txn *badger.Txn) error {
		if err := txn.Set([]byte(artifactKeyPrefix+name), buf.Bytes()); err != nil {
			return fmt.Errorf("set artifact: %w", err)
		}
		if err := txn.Set([]byte(infoKeyPrefix+name), info); err != nil {
			return fmt.Errorf("set info: %w", err)
		}
		return nil
	})
}

func (s *BadgerStore) Get(ctx context.Context, name string) (*pipeline.Artifact, error) {
	if err := checkName(name); err != nil {
		return nil, err
	}
	var a *pipeline.Artifact
	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(artifactKeyPrefix + name))
		if errors.Is(err, badger.ErrKeyNotFound) {
			return ErrNotFound
		}
		if err != nil {
			return fmt.Errorf("get artifact: %w", err)
		}
		return item.Value(func(val []byte) error {
			a, err = pipeline.DecodeArtifact(bytes.NewReader(val))
			return err
		})
	})
	if err != nil {
		return nil, err
	}
	return a, nil
}

func (s *BadgerStore) List(ctx context.Context) ([]pipeline.Info, error) {
	var out []pipeline.Info
	err := s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.PrefetchValues = true
		it := txn.NewIterator(opts)
		defer it.Close()

		prefix := []byte(infoKeyPrefix)
		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			if err := ctx.Err(); err != nil {
				return err
			}
			err := it.Item().Value(func(val []byte) error {
				var in pipeline.Info
				if err := json.Unmarshal(val, &in); err != nil {
					return err
				}
				out = append(out, in)
				return nil
			})
			if err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("list artifacts: %w", err)
	}
	sortInfos(out)
	return out, nil
}

func (s *BadgerStore) Delete(ctx context.Context, name string) error {
	if err := checkName(name); err != nil {
		return err
	}
	return s.db.Update(func(txn *badger.Txn) error {
		key := []byte(artifactKeyPrefix + name)
		if _, err := txn.Get(key); errors.Is(err, badger.ErrKeyNotFound) {
			return ErrNotFound
		} else if err != nil {
			return err
		}
		if err := txn.Delete(key); err != nil {
			return fmt.Errorf("delete artifact: %w", err)
		}
		if err := txn.Delete([]byte(infoKeyPrefix + name)); err != nil {
			return fmt.Errorf("delete info: %w", err)
		}
		return nil
	})
}
