package relationaldb

import (
	"errors"
	"fmt"
	"time"
)

// Supported drivers, named as registered with database/sql.
const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)

var (
	ErrInvalidDriver       = errors.New("invalid database driver")
	ErrMissingDSN          = errors.New("database dsn is required")
	ErrInvalidMaxOpenConns = errors.New("max open connections must be >= 0")
	ErrInvalidTimeout      = errors.New("timeout must be positive")
	ErrInvalidBatchSize    = errors.New("batch size must be positive")
)

// Config selects and tunes the SQL database that receives exported events.
type Config struct {
	Driver       string        `mapstructure:"driver"`
	DSN          string        `mapstructure:"dsn"`
	MaxOpenConns int           `mapstructure:"max_open_conns"`
	Timeout      time.Duration `mapstructure:"timeout"`
	BatchSize    int           `mapstructure:"batch_size"`
}

// NewConfig returns defaults for driver and dsn.
func NewConfig(driver, dsn string) Config {
	return Config{
		Driver:       driver,
		DSN:          dsn,
		MaxOpenConns: 4,
		Timeout:      30 * time.Second,
		BatchSize:    500,
	}
}

// Validate checks the configuration. "sqlite3" and "postgresql" are accepted
// as aliases.
func (c *Config) Validate() error {
	switch c.Driver {
	case DriverSQLite, "sqlite3":
		c.Driver = DriverSQLite
	case DriverPostgres, "postgresql":
		c.Driver = DriverPostgres
	default:
		return fmt.Errorf("%w: %q", ErrInvalidDriver, c.Driver)
	}
	if c.DSN == "" {
		return ErrMissingDSN
	}
	if c.MaxOpenConns < 0 {
		return ErrInvalidMaxOpenConns
	}
	if c.Timeout <= 0 {
		return ErrInvalidTimeout
	}
	if c.BatchSize <= 0 {
		return ErrInvalidBatchSize
	}
	return nil
}

func (c Config) String() string {
	return fmt.Sprintf("Config{Driver: %s, BatchSize: %d}", c.Driver, c.BatchSize)
}
