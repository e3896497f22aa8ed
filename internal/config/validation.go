package config

import (
	"errors"
	"fmt"

	"github.com/LeJamon/restaked/internal/core/ledger/entry"
	"github.com/LeJamon/restaked/internal/storage/compression"
)

// ValidateConfig performs validation on the complete configuration
func ValidateConfig(config *Config) error {
	if err := config.Storage.Validate(); err != nil {
		return fmt.Errorf("storage config validation failed: %w", err)
	}
	if !config.Storage.IsMemory() && config.DataDir == "" {
		return fmt.Errorf("data_dir is required by the %s backend", config.Storage.Backend)
	}

	if err := validateEngine(&config.Engine); err != nil {
		return fmt.Errorf("engine config validation failed: %w", err)
	}
	if err := validateDefaults(&config.Defaults); err != nil {
		return fmt.Errorf("defaults validation failed: %w", err)
	}

	if !compression.IsAvailable(config.Events.Compression) {
		return fmt.Errorf("events config validation failed: unknown compression %q (available: %v)",
			config.Events.Compression, compression.Available())
	}
	if config.Events.ExportBatch <= 0 {
		return errors.New("events config validation failed: export_batch must be positive")
	}

	if err := config.Server.Validate(); err != nil {
		return fmt.Errorf("server config validation failed: %w", err)
	}
	if err := config.Keeper.Validate(); err != nil {
		return fmt.Errorf("keeper config validation failed: %w", err)
	}
	return nil
}

func validateEngine(e *EngineConfig) error {
	if e.StalenessHours <= 0 {
		return fmt.Errorf("staleness_hours must be positive, got %d", e.StalenessHours)
	}
	if e.MinMovementLamports == 0 {
		return errors.New("min_movement_lamports must be positive")
	}
	return nil
}

func validateDefaults(d *DefaultsConfig) error {
	if d.DepositFeeBp > entry.MaxDepositFeeBp {
		return fmt.Errorf("deposit_fee_bp %d above maximum %d", d.DepositFeeBp, entry.MaxDepositFeeBp)
	}
	if d.WithdrawFeeBp > entry.MaxWithdrawFeeBp {
		return fmt.Errorf("withdraw_fee_bp %d above maximum %d", d.WithdrawFeeBp, entry.MaxWithdrawFeeBp)
	}
	if d.PerformanceFeeBp > entry.MaxPerformanceFeeBp {
		return fmt.Errorf("performance_fee_bp %d above maximum %d", d.PerformanceFeeBp, entry.MaxPerformanceFeeBp)
	}
	if d.UnstakeTicketWaitingHours == 0 {
		return errors.New("unstake_ticket_waiting_hours must be positive")
	}
	return nil
}
