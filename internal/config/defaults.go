package config

import (
	"time"

	"github.com/spf13/viper"

	"github.com/LeJamon/restaked/internal/core/tx"
	"github.com/LeJamon/restaked/internal/storage/compression"
)

// setDefaults sets every default value
func setDefaults(v *viper.Viper) {
	v.SetDefault("data_dir", "data")
	v.SetDefault("log.verbose", false)

	v.SetDefault("storage.backend", BackendPebble)
	v.SetDefault("storage.cache_entries", 4096)

	v.SetDefault("engine.staleness_hours", int(tx.DefaultStalenessLimit/time.Hour))
	v.SetDefault("engine.min_movement_lamports", tx.DefaultMinMovement)

	fees := tx.DefaultFeeDefaults()
	v.SetDefault("defaults.deposit_fee_bp", fees.DepositFeeBp)
	v.SetDefault("defaults.withdraw_fee_bp", fees.WithdrawFeeBp)
	v.SetDefault("defaults.performance_fee_bp", fees.PerformanceFeeBp)
	v.SetDefault("defaults.unstake_ticket_waiting_hours", fees.UnstakeTicketWaitingHours)

	v.SetDefault("events.compression", (&compression.LZ4Compressor{}).Name())
	v.SetDefault("events.export_driver", "sqlite")
	v.SetDefault("events.export_dsn", "")
	v.SetDefault("events.export_batch", 500)

	v.SetDefault("server.listen", "127.0.0.1:8931")
	v.SetDefault("server.read_timeout", 10*time.Second)
	v.SetDefault("server.write_timeout", 30*time.Second)

	v.SetDefault("keeper.enabled", false)
	v.SetDefault("keeper.interval", time.Minute)
	v.SetDefault("keeper.rpc_endpoint", "")
	v.SetDefault("keeper.rps", 5.0)
	v.SetDefault("keeper.max_attempts", 3)
	v.SetDefault("keeper.concurrency", 4)
	v.SetDefault("keeper.signer", "")
	v.SetDefault("keeper.main_state", "")
}

// exampleConfig is written by SaveExampleConfig.
func exampleConfig() map[string]any {
	return map[string]any{
		"data_dir":               "/var/lib/restaked",
		"log.verbose":            false,
		"storage.backend":        BackendPebble,
		"storage.cache_entries":  4096,
		"engine.staleness_hours": 24,
		"server.listen":          "127.0.0.1:8931",
		"events.compression":     "lz4",
		"keeper.enabled":         true,
		"keeper.interval":        "1m",
		"keeper.rpc_endpoint":    "https://api.mainnet-beta.solana.com",
		"keeper.rps":             5,
		"keeper.signer":          "<crank signer public key>",
		"keeper.main_state":      "<main state public key>",
	}
}
