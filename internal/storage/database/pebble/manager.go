package pebble

import (
	"errors"
	"fmt"
	"path/filepath"
	"sync"

	"github.com/cockroachdb/pebble"
	"github.com/cockroachdb/pebble/vfs"

	"github.com/LeJamon/restaked/internal/storage/database"
)

// Suffix is appended to a database name to form its directory.
const Suffix = ".db"

// defaultCacheBytes is the block cache shared by every database of a manager.
const defaultCacheBytes = 32 << 20

// Manager opens named pebble databases under one directory, or on one
// in-memory filesystem, sharing a single block cache.
type Manager struct {
	mu    sync.Mutex
	dir   string
	fs    vfs.FS
	cache *pebble.Cache
	dbs   map[string]*pebble.DB
}

func NewManager(dir string) *Manager {
	return &Manager{dir: dir, fs: vfs.Default, cache: pebble.NewCache(defaultCacheBytes), dbs: map[string]*pebble.DB{}}
}

// NewMemManager keeps every database in memory; the contents are lost on Close.
func NewMemManager() *Manager {
	return &Manager{fs: vfs.NewMem(), cache: pebble.NewCache(defaultCacheBytes), dbs: map[string]*pebble.DB{}}
}

// OpenDB returns the database called name, opening it on first use.
func (m *Manager) OpenDB(name string) (database.DB, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if db, ok := m.dbs[name]; ok {
		return NewDB(db), nil
	}
	if m.cache == nil {
		return nil, database.ErrDBClosed
	}

	path := name
	if m.dir != "" {
		path = filepath.Join(m.dir, name+Suffix)
	}
	db, err := pebble.Open(path, &pebble.Options{FS: m.fs, Cache: m.cache})
	if err != nil {
		return nil, fmt.Errorf("open pebble %s: %w", name, err)
	}
	m.dbs[name] = db
	return NewDB(db), nil
}

// CloseDB closes one database; handles returned for it become unusable.
func (m *Manager) CloseDB(name string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	db, ok := m.dbs[name]
	if !ok {
		return fmt.Errorf("%w: %s", database.ErrUnknownDatabase, name)
	}
	delete(m.dbs, name)
	return db.Close()
}

// Close closes every open database and releases the shared cache.
func (m *Manager) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	var errs []error
	for name, db := range m.dbs {
		if err := db.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close pebble %s: %w", name, err))
		}
		delete(m.dbs, name)
	}
	if m.cache != nil {
		m.cache.Unref()
		m.cache = nil
	}
	return errors.Join(errs...)
}
