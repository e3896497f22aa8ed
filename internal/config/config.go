package config

import (
	"path/filepath"
	"time"

	"github.com/LeJamon/restaked/internal/core/tx"
)

// Database names opened under DataDir
const (
	LedgerDB  = "ledger"
	JournalDB = "journal"
)

// Config represents the complete restaked configuration
type Config struct {
	// DataDir holds the ledger and journal databases of the on-disk backends
	DataDir string `toml:"data_dir" mapstructure:"data_dir"`

	Log      LogConfig      `toml:"log" mapstructure:"log"`
	Storage  StorageConfig  `toml:"storage" mapstructure:"storage"`
	Engine   EngineConfig   `toml:"engine" mapstructure:"engine"`
	Defaults DefaultsConfig `toml:"defaults" mapstructure:"defaults"`
	Events   EventsConfig   `toml:"events" mapstructure:"events"`
	Server   ServerConfig   `toml:"server" mapstructure:"server"`
	Keeper   KeeperConfig   `toml:"keeper" mapstructure:"keeper"`

	// Internal fields for configuration management
	configPath string `toml:"-" mapstructure:"-"`
}

// LogConfig represents the [log] section
type LogConfig struct {
	Verbose bool `toml:"verbose" mapstructure:"verbose"`
}

// EngineConfig represents the [engine] section
type EngineConfig struct {
	StalenessHours      int    `toml:"staleness_hours" mapstructure:"staleness_hours"`
	MinMovementLamports uint64 `toml:"min_movement_lamports" mapstructure:"min_movement_lamports"`
}

// DefaultsConfig represents the [defaults] section: the fee schedule a new
// main state gets when Initialize leaves a value unset.
type DefaultsConfig struct {
	DepositFeeBp              uint16 `toml:"deposit_fee_bp" mapstructure:"deposit_fee_bp"`
	WithdrawFeeBp             uint16 `toml:"withdraw_fee_bp" mapstructure:"withdraw_fee_bp"`
	PerformanceFeeBp          uint16 `toml:"performance_fee_bp" mapstructure:"performance_fee_bp"`
	UnstakeTicketWaitingHours uint16 `toml:"unstake_ticket_waiting_hours" mapstructure:"unstake_ticket_waiting_hours"`
}

// EventsConfig represents the [events] section
type EventsConfig struct {
	Compression string `toml:"compression" mapstructure:"compression"`

	// Target of the export-events command.
	ExportDriver string `toml:"export_driver" mapstructure:"export_driver"`
	ExportDSN    string `toml:"export_dsn" mapstructure:"export_dsn"`
	ExportBatch  int    `toml:"export_batch" mapstructure:"export_batch"`
}

// GetConfigPath returns the path of the file the configuration was read
// from, or "" when only defaults and environment were used.
func (c *Config) GetConfigPath() string {
	return c.configPath
}

// LedgerPath is where the ledger database lives on disk.
func (c *Config) LedgerPath() string {
	return filepath.Join(c.DataDir, LedgerDB+c.Storage.fileSuffix())
}

// JournalPath is where the event journal lives on disk.
func (c *Config) JournalPath() string {
	return filepath.Join(c.DataDir, JournalDB+c.Storage.fileSuffix())
}

// StalenessLimit returns the engine staleness limit as a duration.
func (c *Config) StalenessLimit() time.Duration {
	return time.Duration(c.Engine.StalenessHours) * time.Hour
}

// TxEngineConfig converts the engine and defaults sections for tx.NewEngine.
// Clock, logger and publisher are left to the caller.
func (c *Config) TxEngineConfig() tx.EngineConfig {
	return tx.EngineConfig{
		StalenessLimit: c.StalenessLimit(),
		MinMovement:    c.Engine.MinMovementLamports,
		Defaults: tx.FeeDefaults{
			DepositFeeBp:              c.Defaults.DepositFeeBp,
			WithdrawFeeBp:             c.Defaults.WithdrawFeeBp,
			PerformanceFeeBp:          c.Defaults.PerformanceFeeBp,
			UnstakeTicketWaitingHours: c.Defaults.UnstakeTicketWaitingHours,
		},
	}
}
