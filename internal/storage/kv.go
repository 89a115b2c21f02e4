// Package storage wraps BadgerDB as a flat key-value store for on-device data.
package storage

import (
	"errors"
	"fmt"

	"github.com/dgraph-io/badger/v4"
)

// ErrNotFound is returned by Get when no value exists under the key.
var ErrNotFound = errors.New("storage: key not found")

// KV is a thin key-value layer over BadgerDB. Values are opaque bytes.
type KV struct {
	db *badger.DB
}

// Open opens (or creates) a Badger database at path.
func Open(path string) (*KV, error) {
	opts := badger.DefaultOptions(path).
		WithLogger(nil). // Disable verbose logging
		WithNumVersionsToKeep(1).
		WithCompactL0OnClose(true).
		WithValueLogFileSize(16 << 20). // 16MB value log files
		WithMemTableSize(16 << 20)      // 16MB memtable

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("failed to open badger: %w", err)
	}

	return &KV{db: db}, nil
}

// OpenInMemory opens a Badger database backed by memory only. Used in tests.
func OpenInMemory() (*KV, error) {
	opts := badger.DefaultOptions("").
		WithInMemory(true).
		WithLogger(nil)

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("failed to open badger: %w", err)
	}

	return &KV{db: db}, nil
}

// Close closes the underlying database.
func (s *KV) Close() error {
	return s.db.Close()
}

// Set stores value under key, replacing any previous value.
func (s *KV) Set(key string, value []byte) error {
	return s.db.Update(func(txn *badger.Txn) error {
		return txn.Set([]byte(key), value)
	})
}

// Get retrieves the value stored under key. Returns ErrNotFound when the key
// does not exist.
func (s *KV) Get(key string) ([]byte, error) {
	var val []byte
	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(key))
		if err != nil {
			return err
		}
		return item.Value(func(v []byte) error {
			val = append([]byte{}, v...)
			return nil
		})
	})
	if errors.Is(err, badger.ErrKeyNotFound) {
		return nil, ErrNotFound
	}
	return val, err
}

// Delete removes key. Deleting a missing key is not an error.
func (s *KV) Delete(key string) error {
	return s.db.Update(func(txn *badger.Txn) error {
		return txn.Delete([]byte(key))
	})
}
