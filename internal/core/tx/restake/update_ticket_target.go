package restake

import (
	"github.com/gagliardetto/solana-go"

	"github.com/LeJamon/restaked/internal/core/ledger/keylet"
	"github.com/LeJamon/restaked/internal/core/tx"
)

func init() {
	tx.Register(tx.TypeUpdateTicketTarget, func() tx.Transaction {
		return &UpdateTicketTarget{BaseTx: *tx.NewBaseTx(tx.TypeUpdateTicketTarget, solana.PublicKey{})}
	})
}

// UpdateTicketTarget sets the SOL value a vault keeps locally for ticket
// settlement. Signed by the operator.
type UpdateTicketTarget struct {
	tx.BaseTx

	MainState             solana.PublicKey `json:"MainState"`
	LstMint               solana.PublicKey `json:"LstMint"`
	TicketsTargetSolValue uint64           `json:"TicketsTargetSolValue"`
}

// NewUpdateTicketTarget creates a new UpdateTicketTarget transaction
func NewUpdateTicketTarget(operator, mainState, lstMint solana.PublicKey, target uint64) *UpdateTicketTarget {
	return &UpdateTicketTarget{
		BaseTx:                *tx.NewBaseTx(tx.TypeUpdateTicketTarget, operator),
		MainState:             mainState,
		LstMint:               lstMint,
		TicketsTargetSolValue: target,
	}
}

// TxType returns the transaction type
func (u *UpdateTicketTarget) TxType() tx.Type {
	return tx.TypeUpdateTicketTarget
}

// Validate validates the UpdateTicketTarget transaction
func (u *UpdateTicketTarget) Validate() error {
	if err := u.BaseTx.Validate(); err != nil {
		return err
	}
	return validateVaultRef(u.MainState, u.LstMint)
}

// Apply applies the UpdateTicketTarget transaction to the ledger.
func (u *UpdateTicketTarget) Apply(ctx *tx.ApplyContext) tx.Result {
	main, err := loadMain(ctx.View, u.MainState)
	if err != nil {
		return fail(ctx, err)
	}
	if err := requireSigner(ctx, main.OperatorAuth, "operator"); err != nil {
		return fail(ctx, err)
	}
	vault, err := loadVault(ctx.View, u.MainState, u.LstMint)
	if err != nil {
		return fail(ctx, err)
	}

	vault.TicketsTargetSolValue = u.TicketsTargetSolValue
	if err := update(ctx.View, keylet.Vault(u.MainState, u.LstMint), vault); err != nil {
		return fail(ctx, err)
	}
	return tx.TesSUCCESS
}
