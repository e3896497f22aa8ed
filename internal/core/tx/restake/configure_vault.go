package restake

import (
	"github.com/gagliardetto/solana-go"

	"github.com/LeJamon/restaked/internal/core/ledger/keylet"
	"github.com/LeJamon/restaked/internal/core/tx"
)

func init() {
	tx.Register(tx.TypeConfigureVault, func() tx.Transaction {
		return &ConfigureVault{BaseTx: *tx.NewBaseTx(tx.TypeConfigureVault, solana.PublicKey{})}
	})
}

// ConfigureVault toggles deposits and sets the deposit cap of a vault.
type ConfigureVault struct {
	tx.BaseTx

	MainState solana.PublicKey `json:"MainState"`
	LstMint   solana.PublicKey `json:"LstMint"`

	DepositsDisabled *bool `json:"DepositsDisabled,omitempty"`
	// DepositCap of 0 removes the cap
	DepositCap *uint64 `json:"DepositCap,omitempty"`
}

// NewConfigureVault creates a new ConfigureVault transaction with no changes set
func NewConfigureVault(admin, mainState, lstMint solana.PublicKey) *ConfigureVault {
	return &ConfigureVault{
		BaseTx:    *tx.NewBaseTx(tx.TypeConfigureVault, admin),
		MainState: mainState,
		LstMint:   lstMint,
	}
}

// TxType returns the transaction type
func (c *ConfigureVault) TxType() tx.Type {
	return tx.TypeConfigureVault
}

// Validate validates the ConfigureVault transaction
func (c *ConfigureVault) Validate() error {
	if err := c.BaseTx.Validate(); err != nil {
		return err
	}
	if err := validateVaultRef(c.MainState, c.LstMint); err != nil {
		return err
	}
	if c.DepositsDisabled == nil && c.DepositCap == nil {
		return ErrNothingToUpdate
	}
	return nil
}

// Apply applies the ConfigureVault transaction to the ledger.
func (c *ConfigureVault) Apply(ctx *tx.ApplyContext) tx.Result {
	main, err := loadMain(ctx.View, c.MainState)
	if err != nil {
		return fail(ctx, err)
	}
	if err := requireSigner(ctx, main.Admin, "admin"); err != nil {
		return fail(ctx, err)
	}
	vault, err := loadVault(ctx.View, c.MainState, c.LstMint)
	if err != nil {
		return fail(ctx, err)
	}

	if c.DepositsDisabled != nil {
		vault.DepositsDisabled = *c.DepositsDisabled
	}
	if c.DepositCap != nil {
		vault.DepositCap = *c.DepositCap
	}

	if err := update(ctx.View, keylet.Vault(c.MainState, c.LstMint), vault); err != nil {
		return fail(ctx, err)
	}
	return tx.TesSUCCESS
}
