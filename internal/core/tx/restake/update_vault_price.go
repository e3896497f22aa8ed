package restake

import (
	"github.com/gagliardetto/solana-go"

	"github.com/LeJamon/restaked/internal/core/external"
	"github.com/LeJamon/restaked/internal/core/ledger/keylet"
	"github.com/LeJamon/restaked/internal/core/tx"
)

func init() {
	tx.Register(tx.TypeUpdateVaultPrice, func() tx.Transaction {
		return &UpdateVaultPrice{BaseTx: *tx.NewBaseTx(tx.TypeUpdateVaultPrice, solana.PublicKey{})}
	})
}

// UpdateVaultPrice refreshes the cached price of a vault from its LST state.
// Anyone may submit it.
type UpdateVaultPrice struct {
	tx.BaseTx

	MainState solana.PublicKey `json:"MainState"`
	LstMint   solana.PublicKey `json:"LstMint"`

	// LstState is required for every LST except wrapped SOL
	LstState *external.Account `json:"LstState,omitempty"`
}

// NewUpdateVaultPrice creates a new UpdateVaultPrice transaction
func NewUpdateVaultPrice(signer, mainState, lstMint solana.PublicKey, state *external.Account) *UpdateVaultPrice {
	return &UpdateVaultPrice{
		BaseTx:    *tx.NewBaseTx(tx.TypeUpdateVaultPrice, signer),
		MainState: mainState,
		LstMint:   lstMint,
		LstState:  state,
	}
}

// TxType returns the transaction type
func (u *UpdateVaultPrice) TxType() tx.Type {
	return tx.TypeUpdateVaultPrice
}

// Validate validates the UpdateVaultPrice transaction
func (u *UpdateVaultPrice) Validate() error {
	if err := u.BaseTx.Validate(); err != nil {
		return err
	}
	return validateVaultRef(u.MainState, u.LstMint)
}

// Apply applies the UpdateVaultPrice transaction to the ledger.
func (u *UpdateVaultPrice) Apply(ctx *tx.ApplyContext) tx.Result {
	main, err := loadMain(ctx.View, u.MainState)
	if err != nil {
		return fail(ctx, err)
	}
	vault, err := loadVault(ctx.View, u.MainState, u.LstMint)
	if err != nil {
		return fail(ctx, err)
	}

	if err := refreshVaultPrice(ctx, u.MainState, main, vault, u.LstState); err != nil {
		return fail(ctx, err)
	}

	if err := update(ctx.View, keylet.Vault(u.MainState, u.LstMint), vault); err != nil {
		return fail(ctx, err)
	}
	if err := update(ctx.View, keylet.MainState(u.MainState), main); err != nil {
		return fail(ctx, err)
	}
	return tx.TesSUCCESS
}
