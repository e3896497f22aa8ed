package restake

import (
	"github.com/gagliardetto/solana-go"

	"github.com/LeJamon/restaked/internal/core/ledger/entry"
	"github.com/LeJamon/restaked/internal/core/ledger/keylet"
	"github.com/LeJamon/restaked/internal/core/token"
	"github.com/LeJamon/restaked/internal/core/tx"
)

func init() {
	tx.Register(tx.TypeCreateVault, func() tx.Transaction {
		return &CreateVault{BaseTx: *tx.NewBaseTx(tx.TypeCreateVault, solana.PublicKey{})}
	})
}

// CreateVault opens a vault for one LST. The vault starts with deposits
// disabled and no price; its custody account belongs to the vaults authority.
type CreateVault struct {
	tx.BaseTx

	MainState solana.PublicKey `json:"MainState"`
	LstMint   solana.PublicKey `json:"LstMint"`
}

// NewCreateVault creates a new CreateVault transaction
func NewCreateVault(admin, mainState, lstMint solana.PublicKey) *CreateVault {
	return &CreateVault{
		BaseTx:    *tx.NewBaseTx(tx.TypeCreateVault, admin),
		MainState: mainState,
		LstMint:   lstMint,
	}
}

// TxType returns the transaction type
func (c *CreateVault) TxType() tx.Type {
	return tx.TypeCreateVault
}

// Validate validates the CreateVault transaction
func (c *CreateVault) Validate() error {
	if err := c.BaseTx.Validate(); err != nil {
		return err
	}
	return validateVaultRef(c.MainState, c.LstMint)
}

// Apply applies the CreateVault transaction to the ledger.
func (c *CreateVault) Apply(ctx *tx.ApplyContext) tx.Result {
	main, err := loadMain(ctx.View, c.MainState)
	if err != nil {
		return fail(ctx, err)
	}
	if err := requireSigner(ctx, main.Admin, "admin"); err != nil {
		return fail(ctx, err)
	}
	if _, err := token.ReadMint(ctx.View, c.LstMint); err != nil {
		return fail(ctx, err)
	}

	holding, err := token.EnsureAccount(ctx.View, keylet.VaultsAuthority(c.MainState), c.LstMint)
	if err != nil {
		return fail(ctx, err)
	}
	vault := &entry.VaultState{
		Main:              c.MainState,
		LstMint:           c.LstMint,
		LstHoldingAccount: holding,
		DepositsDisabled:  true,
	}
	if err := insert(ctx.View, keylet.Vault(c.MainState, c.LstMint), vault); err != nil {
		return fail(ctx, err)
	}

	ctx.Logger.Info("vault created", "main", c.MainState, "lst_mint", c.LstMint, "holding_account", holding)
	return tx.TesSUCCESS
}
