// Package database defines the key-value contract shared by the ledger store
// and the event journal, and the helpers both use to build batches and
// prefix scans. Backends live in the pebble and leveldb subpackages.
package database

import (
	"context"
	"errors"
)

var (
	ErrDBClosed    = errors.New("database is closed")
	ErrKeyNotFound = errors.New("key not found")
	// ErrUnknownDatabase is returned by a Manager for a name it never opened.
	ErrUnknownDatabase = errors.New("unknown database")
	ErrUnknownBatchOp  = errors.New("unknown batch operation")
)

// DB is an ordered byte-key store. Batch applies all operations atomically.
type DB interface {
	Read(ctx context.Context, key []byte) ([]byte, error)
	Write(ctx context.Context, key []byte, value []byte) error
	Delete(ctx context.Context, key []byte) error
	Batch(ctx context.Context, ops []BatchOperation) error
	// Iterator walks keys in [start, end); a nil end is unbounded.
	Iterator(ctx context.Context, start, end []byte) (Iterator, error)
}

// Iterator yields entries in key order. Key and Value are valid until the
// next call to Next.
type Iterator interface {
	Next() bool
	Key() []byte
	Value() []byte
	Error() error
	Close() error
}

type BatchOpType int

const (
	BatchPut BatchOpType = iota
	BatchDelete
)

type BatchOperation struct {
	Type  BatchOpType
	Key   []byte
	Value []byte
}

// Put is a BatchPut of key to value.
func Put(key, value []byte) BatchOperation {
	return BatchOperation{Type: BatchPut, Key: key, Value: value}
}

// Del is a BatchDelete of key.
func Del(key []byte) BatchOperation {
	return BatchOperation{Type: BatchDelete, Key: key}
}

// PrefixEnd returns the smallest key greater than every key starting with
// prefix, or nil when no such key exists.
func PrefixEnd(prefix []byte) []byte {
	end := append([]byte(nil), prefix...)
	for i := len(end) - 1; i >= 0; i-- {
		end[i]++
		if end[i] != 0 {
			return end[:i+1]
		}
	}
	return nil
}

// Scan iterates every key starting with prefix from start onwards. A nil start
// begins at the prefix itself.
func Scan(ctx context.Context, db DB, prefix, start []byte) (Iterator, error) {
	if start == nil {
		start = prefix
	}
	return db.Iterator(ctx, start, PrefixEnd(prefix))
}

// Manager opens named databases that share one backend and directory.
type Manager interface {
	OpenDB(name string) (DB, error)
	Close() error
}
