// Package store persists ledger entries in a key-value database and serves
// them to the transaction engine as its durable base view.
package store

import (
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/LeJamon/restaked/internal/core/ledger/entry"
	"github.com/LeJamon/restaked/internal/core/ledger/keylet"
	"github.com/LeJamon/restaked/internal/core/tx"
	"github.com/LeJamon/restaked/internal/metrics"
	"github.com/LeJamon/restaked/internal/storage/database"
)

const (
	typeLen = 2
	keyLen  = typeLen + 32

	// DefaultCacheEntries is used when Config.CacheEntries is not positive.
	DefaultCacheEntries = 4096
)

// entryPrefix separates ledger entries from other data sharing the database.
var entryPrefix = []byte("le/")

// Config holds configuration for the store
type Config struct {
	// CacheEntries is the number of decoded records kept in memory
	CacheEntries int
	Logger       *slog.Logger
}

// Store is a tx.Committer over database.DB with an LRU read cache.
type Store struct {
	db     database.DB
	logger *slog.Logger

	mu    sync.RWMutex
	cache *lru.Cache[keylet.Keylet, []byte]

	hits   uint64
	misses uint64
}

var _ tx.Committer = (*Store)(nil)

// New creates a store over db.
func New(db database.DB, config Config) (*Store, error) {
	if config.CacheEntries <= 0 {
		config.CacheEntries = DefaultCacheEntries
	}
	if config.Logger == nil {
		config.Logger = slog.New(slog.DiscardHandler)
	}
	cache, err := lru.New[keylet.Keylet, []byte](config.CacheEntries)
	if err != nil {
		return nil, fmt.Errorf("create store cache: %w", err)
	}
	return &Store{db: db, logger: config.Logger, cache: cache}, nil
}

func encodeKey(k keylet.Keylet) []byte {
	key := make([]byte, 0, len(entryPrefix)+keyLen)
	key = append(key, entryPrefix...)
	key = binary.BigEndian.AppendUint16(key, uint16(k.Type))
	return append(key, k.Key[:]...)
}

func typePrefix(t entry.Type) []byte {
	p := make([]byte, 0, len(entryPrefix)+typeLen)
	p = append(p, entryPrefix...)
	return binary.BigEndian.AppendUint16(p, uint16(t))
}

// Read returns the stored bytes for k, or nil when absent.
func (s *Store) Read(k keylet.Keylet) ([]byte, error) {
	s.mu.RLock()
	data, ok := s.cache.Get(k)
	s.mu.RUnlock()
	if ok {
		s.mu.Lock()
		s.hits++
		s.mu.Unlock()
		metrics.StoreCacheTotal.WithLabelValues("hit").Inc()
		return append([]byte(nil), data...), nil
	}

	s.mu.Lock()
	s.misses++
	s.mu.Unlock()
	metrics.StoreCacheTotal.WithLabelValues("miss").Inc()

	data, err := s.db.Read(context.Background(), encodeKey(k))
	if err != nil {
		if errors.Is(err, database.ErrKeyNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("read %s: %w", k, err)
	}
	s.mu.Lock()
	s.cache.Add(k, data)
	s.mu.Unlock()
	return append([]byte(nil), data...), nil
}

// Exists checks if an entry exists
func (s *Store) Exists(k keylet.Keylet) (bool, error) {
	data, err := s.Read(k)
	return data != nil, err
}

// Insert writes a new entry directly, bypassing any engine.
func (s *Store) Insert(k keylet.Keylet, data []byte) error {
	exists, err := s.Exists(k)
	if err != nil {
		return err
	}
	if exists {
		return fmt.Errorf("%w: %s", tx.ErrEntryExists, k)
	}
	return s.Commit(context.Background(), []tx.Change{{Keylet: k, Action: tx.ActionInsert, Data: data}})
}

// Update overwrites an existing entry directly.
func (s *Store) Update(k keylet.Keylet, data []byte) error {
	exists, err := s.Exists(k)
	if err != nil {
		return err
	}
	if !exists {
		return fmt.Errorf("%w: %s", tx.ErrEntryNotFound, k)
	}
	return s.Commit(context.Background(), []tx.Change{{Keylet: k, Action: tx.ActionModify, Data: data}})
}

// Erase removes an entry directly.
func (s *Store) Erase(k keylet.Keylet) error {
	exists, err := s.Exists(k)
	if err != nil {
		return err
	}
	if !exists {
		return fmt.Errorf("%w: %s", tx.ErrEntryNotFound, k)
	}
	return s.Commit(context.Background(), []tx.Change{{Keylet: k, Action: tx.ActionErase}})
}

// ForEach visits every entry of type t in key order.
func (s *Store) ForEach(t entry.Type, fn func(key [32]byte, data []byte) bool) error {
	prefix := typePrefix(t)
	it, err := database.Scan(context.Background(), s.db, prefix, nil)
	if err != nil {
		return fmt.Errorf("iterate %s: %w", t, err)
	}
	defer it.Close()

	for it.Next() {
		raw := it.Key()
		if len(raw) != len(entryPrefix)+keyLen {
			continue
		}
		var key [32]byte
		copy(key[:], raw[len(entryPrefix)+typeLen:])
		if !fn(key, it.Value()) {
			break
		}
	}
	return it.Error()
}

// Commit writes changes in one batch and refreshes the cache once the batch
// is durable.
func (s *Store) Commit(ctx context.Context, changes []tx.Change) error {
	if len(changes) == 0 {
		return nil
	}
	ops := make([]database.BatchOperation, 0, len(changes))
	for _, c := range changes {
		switch c.Action {
		case tx.ActionInsert, tx.ActionModify:
			ops = append(ops, database.Put(encodeKey(c.Keylet), c.Data))
		case tx.ActionErase:
			ops = append(ops, database.Del(encodeKey(c.Keylet)))
		default:
			return fmt.Errorf("commit %s: unexpected action %s", c.Keylet, c.Action)
		}
	}

	if err := s.db.Batch(ctx, ops); err != nil {
		s.logger.Error("ledger commit failed", "changes", len(changes), "error", err)
		return fmt.Errorf("commit: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	for _, c := range changes {
		if c.Action == tx.ActionErase {
			s.cache.Remove(c.Keylet)
			continue
		}
		s.cache.Add(c.Keylet, append([]byte(nil), c.Data...))
	}
	return nil
}

// CacheStats returns the cache hit and miss counts.
func (s *Store) CacheStats() (hits, misses uint64) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.hits, s.misses
}

// Purge drops every cached record.
func (s *Store) Purge() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cache.Purge()
}
