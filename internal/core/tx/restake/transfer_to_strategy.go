package restake

import (
	"fmt"

	"github.com/gagliardetto/solana-go"

	"github.com/LeJamon/restaked/internal/core/events"
	"github.com/LeJamon/restaked/internal/core/fixedpoint"
	"github.com/LeJamon/restaked/internal/core/ledger/entry"
	"github.com/LeJamon/restaked/internal/core/ledger/keylet"
	"github.com/LeJamon/restaked/internal/core/token"
	"github.com/LeJamon/restaked/internal/core/tx"
)

func init() {
	tx.Register(tx.TypeTransferToStrategy, func() tx.Transaction {
		return &TransferToStrategy{BaseTx: *tx.NewBaseTx(tx.TypeTransferToStrategy, solana.PublicKey{})}
	})
}

// TransferToStrategy moves locally stored LST into a strategy's deposit
// account. Only the strategy rebalancer may sign it, and the amount must
// leave the vault's ticket reserve untouched.
type TransferToStrategy struct {
	tx.BaseTx

	MainState     solana.PublicKey `json:"MainState"`
	LstMint       solana.PublicKey `json:"LstMint"`
	StrategyState solana.PublicKey `json:"StrategyState"`
	LstAmount     uint64           `json:"LstAmount"`
}

// NewTransferToStrategy creates a new TransferToStrategy transaction
func NewTransferToStrategy(rebalancer, mainState, lstMint, strategyState solana.PublicKey, amount uint64) *TransferToStrategy {
	return &TransferToStrategy{
		BaseTx:        *tx.NewBaseTx(tx.TypeTransferToStrategy, rebalancer),
		MainState:     mainState,
		LstMint:       lstMint,
		StrategyState: strategyState,
		LstAmount:     amount,
	}
}

// TxType returns the transaction type
func (t *TransferToStrategy) TxType() tx.Type {
	return tx.TypeTransferToStrategy
}

// Validate validates the TransferToStrategy transaction
func (t *TransferToStrategy) Validate() error {
	if err := t.BaseTx.Validate(); err != nil {
		return err
	}
	if err := validateVaultRef(t.MainState, t.LstMint); err != nil {
		return err
	}
	if t.StrategyState.IsZero() {
		return ErrStrategyRequired
	}
	return nil
}

// Apply applies the TransferToStrategy transaction to the ledger.
func (t *TransferToStrategy) Apply(ctx *tx.ApplyContext) tx.Result {
	main, err := loadMain(ctx.View, t.MainState)
	if err != nil {
		return fail(ctx, err)
	}
	if err := requireSigner(ctx, main.StrategyRebalancerAuth, "strategy rebalancer"); err != nil {
		return fail(ctx, err)
	}
	if t.LstAmount == 0 {
		return fail(ctx, entry.ErrAmountIsZero)
	}
	vault, err := loadVault(ctx.View, t.MainState, t.LstMint)
	if err != nil {
		return fail(ctx, err)
	}
	bridge, err := loadStrategy(ctx.View, t.MainState, t.LstMint, t.StrategyState)
	if err != nil {
		return fail(ctx, err)
	}

	available, err := vault.AvailableForStrategies()
	if err != nil {
		return fail(ctx, err)
	}
	if t.LstAmount > available {
		return fail(ctx, fmt.Errorf("%w: %d > %d", errExceedsAvailable, t.LstAmount, available))
	}

	dest := keylet.StrategyDepositAccount(t.StrategyState, bridge.StrategyProgram, t.LstMint)
	if err := token.Transfer(ctx.View, vault.LstHoldingAccount, dest, t.LstAmount); err != nil {
		return fail(ctx, err)
	}
	if err := vault.RecordStrategyTransferOut(t.LstAmount); err != nil {
		return fail(ctx, err)
	}
	// The strategy will report this amount; counting it now keeps the next
	// reconcile from treating it as profit.
	if bridge.LastReadStratLstAmount, err = fixedpoint.Add(bridge.LastReadStratLstAmount, t.LstAmount); err != nil {
		return fail(ctx, err)
	}

	entryKey := keylet.StrategyEntry(t.MainState, t.LstMint, t.StrategyState)
	if err := update(ctx.View, entryKey, bridge); err != nil {
		return fail(ctx, err)
	}
	if err := update(ctx.View, keylet.Vault(t.MainState, t.LstMint), vault); err != nil {
		return fail(ctx, err)
	}

	ctx.Emit(events.StrategyTransferEvent{
		Main:                t.MainState,
		LstMint:             t.LstMint,
		StrategyEntry:       entryKey.Address(),
		StrategyState:       t.StrategyState,
		Direction:           events.ToStrategy,
		LstAmount:           t.LstAmount,
		LastReadStratAmount: bridge.LastReadStratLstAmount,
		NextWithdrawAmount:  bridge.NextWithdrawLstAmount,
		VaultLocallyStored:  vault.LocallyStoredAmount,
		VaultInStrategies:   vault.InStrategiesAmount,
	})
	return tx.TesSUCCESS
}
