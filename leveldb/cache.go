// Package leveldb provides a cache store backed by a goleveldb database.
package leveldb

import (
	"bytes"
	"context"
	"encoding/gob"
	"errors"
	"fmt"

	"github.com/cespare/xxhash/v2"
	"github.com/nesalia/fresh"
	"github.com/syndtr/goleveldb/leveldb"
	"github.com/syndtr/goleveldb/leveldb/util"
)

// entryPrefix namespaces cache entries inside the database.
var entryPrefix = []byte("e:")

var _ fresh.CacheStore = (*CacheStore)(nil)

// CacheStore implements fresh.CacheStore with gob-encoded entries keyed by
// the xxhash of the canonical URL. LevelDB applies each write atomically,
// so concurrent writers of one key resolve to last-writer-wins.
type CacheStore struct {
	db *leveldb.DB
}

// Open opens or creates the database at path.
func Open(path string) (*CacheStore, error) {
	db, err := leveldb.OpenFile(path, nil)
	if err != nil {
		return nil, fmt.Errorf("open leveldb cache: %w", err)
	}
	return &CacheStore{db: db}, nil
}

// Close closes the database.
func (s *CacheStore) Close() error {
	return s.db.Close()
}

func key(ref fresh.PageRef) []byte {
	return fmt.Appendf(append([]byte(nil), entryPrefix...), "%016x", xxhash.Sum64String(ref.String()))
}

// Get reads the entry for ref.
func (s *CacheStore) Get(ctx context.Context, ref fresh.PageRef) (*fresh.CacheEntry, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	b, err := s.db.Get(key(ref), nil)
	if errors.Is(err, leveldb.ErrNotFound) {
		return nil, fresh.Errorf(fresh.ENOTFOUND, "no cache entry for %s", ref)
	} else if err != nil {
		return nil, err
	}

	var entry fresh.CacheEntry
	if err := gob.NewDecoder(bytes.NewReader(b)).Decode(&entry); err != nil {
		return nil, fresh.Errorf(fresh.ECORRUPT, "corrupt cache entry for %s: %v", ref, err)
	}
	if entry.Key != ref {
		return nil, fresh.Errorf(fresh.ENOTFOUND, "no cache entry for %s", ref)
	}
	return &entry, nil
}

// Put writes entry, replacing any existing entry for the same key.
func (s *CacheStore) Put(ctx context.Context, entry *fresh.CacheEntry) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	var buf bytes.Buffer
	if err := gob.NewEncoder(&buf).Encode(entry); err != nil {
		return err
	}
	return s.db.Put(key(entry.Key), buf.Bytes(), nil)
}

// Invalidate removes the entry for ref. Missing entries are not an error.
func (s *CacheStore) Invalidate(ctx context.Context, ref fresh.PageRef) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return s.db.Delete(key(ref), nil)
}

// Clear removes every entry in one batch.
func (s *CacheStore) Clear(ctx context.Context) error {
	it := s.db.NewIterator(util.BytesPrefix(entryPrefix), nil)
	defer it.Release()

	batch := new(leveldb.Batch)
	for it.Next() {
		if err := ctx.Err(); err != nil {
			return err
		}
		batch.Delete(append([]byte(nil), it.Key()...))
	}
	if err := it.Error(); err != nil {
		return err
	}
	return s.db.Write(batch, nil)
}
