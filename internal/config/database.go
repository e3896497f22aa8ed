package config

import (
	"fmt"
	"slices"
	"strings"

	"github.com/LeJamon/restaked/internal/storage/database/leveldb"
	"github.com/LeJamon/restaked/internal/storage/database/pebble"
)

// Storage backends
const (
	BackendPebble  = "pebble"
	BackendLevelDB = "leveldb"
	BackendMemory  = "memory"
)

var backends = []string{BackendPebble, BackendLevelDB, BackendMemory}

// StorageConfig represents the [storage] section
type StorageConfig struct {
	Backend      string `toml:"backend" mapstructure:"backend"`
	CacheEntries int    `toml:"cache_entries" mapstructure:"cache_entries"`
}

// Validate performs validation on the storage configuration
func (s *StorageConfig) Validate() error {
	if !slices.Contains(backends, s.Backend) {
		return fmt.Errorf("invalid storage backend: %q (valid options: %s)", s.Backend, strings.Join(backends, ", "))
	}
	if s.CacheEntries <= 0 {
		return fmt.Errorf("cache_entries must be positive, got %d", s.CacheEntries)
	}
	return nil
}

// IsMemory reports whether state is kept in memory only.
func (s *StorageConfig) IsMemory() bool {
	return s.Backend == BackendMemory
}

// fileSuffix is the directory suffix the backend gives each database.
func (s *StorageConfig) fileSuffix() string {
	if s.Backend == BackendLevelDB {
		return leveldb.Suffix
	}
	return pebble.Suffix
}
