package builders

import (
	"github.com/gagliardetto/solana-go"

	"github.com/LeJamon/restaked/internal/core/tx/restake"
)

// ConfigureMainBuilder provides a fluent interface for building ConfigureMain transactions.
type ConfigureMainBuilder struct {
	tx *restake.ConfigureMain
}

// ConfigureMain creates a new ConfigureMainBuilder.
func ConfigureMain(admin, main solana.PublicKey) *ConfigureMainBuilder {
	return &ConfigureMainBuilder{tx: restake.NewConfigureMain(admin, main)}
}

// DepositFee sets the deposit fee in basis points.
func (b *ConfigureMainBuilder) DepositFee(bp uint16) *ConfigureMainBuilder {
	b.tx.DepositFeeBp = &bp
	return b
}

// WithdrawFee sets the withdrawal fee in basis points.
func (b *ConfigureMainBuilder) WithdrawFee(bp uint16) *ConfigureMainBuilder {
	b.tx.WithdrawFeeBp = &bp
	return b
}

// PerformanceFee sets the performance fee in basis points.
func (b *ConfigureMainBuilder) PerformanceFee(bp uint16) *ConfigureMainBuilder {
	b.tx.PerformanceFeeBp = &bp
	return b
}

// WaitingHours sets the unstake ticket waiting period.
func (b *ConfigureMainBuilder) WaitingHours(h uint16) *ConfigureMainBuilder {
	b.tx.UnstakeTicketWaitingHours = &h
	return b
}

// Treasury sets the treasury account.
func (b *ConfigureMainBuilder) Treasury(addr solana.PublicKey) *ConfigureMainBuilder {
	b.tx.Treasury = &addr
	return b
}

// ClearTreasury unsets the treasury.
func (b *ConfigureMainBuilder) ClearTreasury() *ConfigureMainBuilder {
	b.tx.ClearTreasury = true
	return b
}

// Operator replaces the operator authority.
func (b *ConfigureMainBuilder) Operator(addr solana.PublicKey) *ConfigureMainBuilder {
	b.tx.OperatorAuth = &addr
	return b
}

// Build returns the transaction.
func (b *ConfigureMainBuilder) Build() *restake.ConfigureMain {
	return b.tx
}

// ConfigureVaultBuilder provides a fluent interface for building ConfigureVault transactions.
type ConfigureVaultBuilder struct {
	tx *restake.ConfigureVault
}

// ConfigureVault creates a new ConfigureVaultBuilder.
func ConfigureVault(admin, main, lst solana.PublicKey) *ConfigureVaultBuilder {
	return &ConfigureVaultBuilder{tx: restake.NewConfigureVault(admin, main, lst)}
}

// DisableDeposits closes the vault to new deposits.
func (b *ConfigureVaultBuilder) DisableDeposits() *ConfigureVaultBuilder {
	disabled := true
	b.tx.DepositsDisabled = &disabled
	return b
}

// EnableDeposits opens the vault to deposits.
func (b *ConfigureVaultBuilder) EnableDeposits() *ConfigureVaultBuilder {
	disabled := false
	b.tx.DepositsDisabled = &disabled
	return b
}

// Cap sets the deposit cap; 0 removes it.
func (b *ConfigureVaultBuilder) Cap(lstAmount uint64) *ConfigureVaultBuilder {
	b.tx.DepositCap = &lstAmount
	return b
}

// Build returns the transaction.
func (b *ConfigureVaultBuilder) Build() *restake.ConfigureVault {
	return b.tx
}
