package config

import (
	"errors"
	"fmt"
	"net"
	"time"

	"github.com/gagliardetto/solana-go"
)

// ServerConfig represents the [server] section
type ServerConfig struct {
	Listen       string        `toml:"listen" mapstructure:"listen"`
	ReadTimeout  time.Duration `toml:"read_timeout" mapstructure:"read_timeout"`
	WriteTimeout time.Duration `toml:"write_timeout" mapstructure:"write_timeout"`
}

// Validate performs validation on the server configuration
func (s *ServerConfig) Validate() error {
	if _, _, err := net.SplitHostPort(s.Listen); err != nil {
		return fmt.Errorf("invalid listen address %q: %w", s.Listen, err)
	}
	if s.ReadTimeout <= 0 || s.WriteTimeout <= 0 {
		return errors.New("read_timeout and write_timeout must be positive")
	}
	return nil
}

// KeeperConfig represents the [keeper] section. The keeper refreshes vault
// prices and strategy holdings from an RPC node on a fixed interval.
type KeeperConfig struct {
	Enabled     bool          `toml:"enabled" mapstructure:"enabled"`
	Interval    time.Duration `toml:"interval" mapstructure:"interval"`
	RPCEndpoint string        `toml:"rpc_endpoint" mapstructure:"rpc_endpoint"`
	RPS         float64       `toml:"rps" mapstructure:"rps"`
	MaxAttempts int           `toml:"max_attempts" mapstructure:"max_attempts"`
	Concurrency int           `toml:"concurrency" mapstructure:"concurrency"`

	// Signer is the identity crank transactions are submitted as
	Signer string `toml:"signer" mapstructure:"signer"`
	// MainState selects the main state whose vaults are cranked
	MainState string `toml:"main_state" mapstructure:"main_state"`

	// StakePools names the stake pool account pricing each pool LST
	StakePools []StakePoolConfig `toml:"stake_pools" mapstructure:"stake_pools"`
}

// StakePoolConfig is one [[keeper.stake_pools]] entry. A list is used
// rather than a table because keys are case-folded and mints are not.
type StakePoolConfig struct {
	Mint string `toml:"mint" mapstructure:"mint"`
	Pool string `toml:"pool" mapstructure:"pool"`
}

// Validate performs validation on the keeper configuration. A disabled
// keeper is not checked further.
func (k *KeeperConfig) Validate() error {
	if !k.Enabled {
		return nil
	}
	if k.Interval <= 0 {
		return fmt.Errorf("keeper interval must be positive, got %s", k.Interval)
	}
	if k.RPCEndpoint == "" {
		return errors.New("keeper rpc_endpoint is required when the keeper is enabled")
	}
	if k.RPS <= 0 {
		return fmt.Errorf("keeper rps must be positive, got %v", k.RPS)
	}
	if k.MaxAttempts < 1 {
		return fmt.Errorf("keeper max_attempts must be at least 1, got %d", k.MaxAttempts)
	}
	if k.Concurrency < 1 {
		return fmt.Errorf("keeper concurrency must be at least 1, got %d", k.Concurrency)
	}
	if _, err := solana.PublicKeyFromBase58(k.Signer); err != nil {
		return fmt.Errorf("keeper signer: %w", err)
	}
	if _, err := solana.PublicKeyFromBase58(k.MainState); err != nil {
		return fmt.Errorf("keeper main_state: %w", err)
	}
	if _, err := k.PoolAddresses(); err != nil {
		return err
	}
	return nil
}

// PoolAddresses parses the stake pool mapping.
func (k *KeeperConfig) PoolAddresses() (map[solana.PublicKey]solana.PublicKey, error) {
	pools := make(map[solana.PublicKey]solana.PublicKey, len(k.StakePools))
	for _, sp := range k.StakePools {
		m, err := solana.PublicKeyFromBase58(sp.Mint)
		if err != nil {
			return nil, fmt.Errorf("keeper stake_pools mint %q: %w", sp.Mint, err)
		}
		p, err := solana.PublicKeyFromBase58(sp.Pool)
		if err != nil {
			return nil, fmt.Errorf("keeper stake_pools pool %q: %w", sp.Pool, err)
		}
		if _, dup := pools[m]; dup {
			return nil, fmt.Errorf("keeper stake_pools: mint %s listed twice", m)
		}
		pools[m] = p
	}
	return pools, nil
}

// Identities parses the keeper signer and main state.
func (k *KeeperConfig) Identities() (signer, main solana.PublicKey, err error) {
	if signer, err = solana.PublicKeyFromBase58(k.Signer); err != nil {
		return signer, main, fmt.Errorf("keeper signer: %w", err)
	}
	if main, err = solana.PublicKeyFromBase58(k.MainState); err != nil {
		return signer, main, fmt.Errorf("keeper main_state: %w", err)
	}
	return signer, main, nil
}
