// Package kvstore is the embedded, crash-safe key-value store backing the
// frecency tracker and the query-history tracker. It wraps go.etcd.io/bbolt,
// exposing exactly the operations the two trackers need: single-key get/put/
// delete, prefix scan on the sorted key space, size-on-disk, and close.
package kvstore

import (
	"bytes"
	"os"
	"path/filepath"
	"sync"

	"go.etcd.io/bbolt"

	"github.com/standardbeagle/fff/internal/fferr"
)

var bucketName = []byte("fff")

// Store is a single-writer embedded KV database. All write paths
// (Put/Delete) are serialised by bbolt's own single-writer-transaction
// discipline. Store's mutex is taken by SizeOnDisk and Close only;
// Get, Put, Delete and Scan do not take it.
type Store struct {
	mu   sync.Mutex
	db   *bbolt.DB
	path string
}

// Open creates or opens a database at path. unsafeNoLock trades fsync
// discipline (NoSync) for write throughput, per the KV Store's
// "unsafe-no-lock" mode — data loss of the most recent writes on a crash is
// acceptable in that mode.
func Open(path string, unsafeNoLock bool) (*Store, error) {
	if path == "" {
		return nil, fferr.New(fferr.InvalidArgument, "kvstore: empty path")
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fferr.Wrap(fferr.StoreUnavailable, "kvstore: creating directory", err)
	}

	db, err := bbolt.Open(path, 0600, nil)
	if err != nil {
		return nil, fferr.Wrap(fferr.StoreUnavailable, "kvstore: opening database", err)
	}
	db.NoSync = unsafeNoLock

	err = db.Update(func(tx *bbolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(bucketName)
		return err
	})
	if err != nil {
		_ = db.Close()
		return nil, fferr.Wrap(fferr.StoreUnavailable, "kvstore: initializing bucket", err)
	}

	return &Store{db: db, path: path}, nil
}

// Get returns the value stored at key, or (nil, false) if absent. The
// returned slice is a copy and safe to retain past the call.
func (s *Store) Get(key []byte) ([]byte, bool, error) {
	var out []byte
	var found bool
	err := s.db.View(func(tx *bbolt.Tx) error {
		b := tx.Bucket(bucketName)
		v := b.Get(key)
		if v != nil {
			found = true
			out = append([]byte(nil), v...)
		}
		return nil
	})
	if err != nil {
		return nil, false, fferr.Wrap(fferr.StoreUnavailable, "kvstore: get", err)
	}
	return out, found, nil
}

// Put writes key=value atomically.
func (s *Store) Put(key, value []byte) error {
	err := s.db.Update(func(tx *bbolt.Tx) error {
		return tx.Bucket(bucketName).Put(key, value)
	})
	if err != nil {
		return fferr.Wrap(fferr.StoreUnavailable, "kvstore: put", err)
	}
	return nil
}

// Delete removes key. Deleting an absent key is not an error.
func (s *Store) Delete(key []byte) error {
	err := s.db.Update(func(tx *bbolt.Tx) error {
		return tx.Bucket(bucketName).Delete(key)
	})
	if err != nil {
		return fferr.Wrap(fferr.StoreUnavailable, "kvstore: delete", err)
	}
	return nil
}

// Entry is a single key/value pair yielded by Scan.
type Entry struct {
	Key   []byte
	Value []byte
}

// Scan returns every key/value pair whose key has the given prefix, in
// ascending key order (bbolt's native b-tree ordering).
func (s *Store) Scan(prefix []byte) ([]Entry, error) {
	var out []Entry
	err := s.db.View(func(tx *bbolt.Tx) error {
		c := tx.Bucket(bucketName).Cursor()
		for k, v := c.Seek(prefix); k != nil && bytes.HasPrefix(k, prefix); k, v = c.Next() {
			out = append(out, Entry{
				Key:   append([]byte(nil), k...),
				Value: append([]byte(nil), v...),
			})
		}
		return nil
	})
	if err != nil {
		return nil, fferr.Wrap(fferr.StoreUnavailable, "kvstore: scan", err)
	}
	return out, nil
}

// SizeOnDisk returns the current file size of the backing database.
func (s *Store) SizeOnDisk() (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	info, err := os.Stat(s.path)
	if err != nil {
		return 0, fferr.Wrap(fferr.StoreUnavailable, "kvstore: stat", err)
	}
	return info.Size(), nil
}

// Close releases the database handle.
func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.db == nil {
		return nil
	}
	err := s.db.Close()
	s.db = nil
	if err != nil {
		return fferr.Wrap(fferr.Internal, "kvstore: close", err)
	}
	return nil
}
