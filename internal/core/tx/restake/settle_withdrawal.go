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
	tx.Register(tx.TypeSettleWithdrawal, func() tx.Transaction {
		return &SettleWithdrawal{BaseTx: *tx.NewBaseTx(tx.TypeSettleWithdrawal, solana.PublicKey{})}
	})
}

// SettleWithdrawal pulls LST a strategy staged in its withdraw account back
// into vault custody, up to the pending next-withdraw amount. Anyone may
// submit it.
type SettleWithdrawal struct {
	tx.BaseTx

	MainState     solana.PublicKey `json:"MainState"`
	LstMint       solana.PublicKey `json:"LstMint"`
	StrategyState solana.PublicKey `json:"StrategyState"`
}

// NewSettleWithdrawal creates a new SettleWithdrawal transaction
func NewSettleWithdrawal(signer, mainState, lstMint, strategyState solana.PublicKey) *SettleWithdrawal {
	return &SettleWithdrawal{
		BaseTx:        *tx.NewBaseTx(tx.TypeSettleWithdrawal, signer),
		MainState:     mainState,
		LstMint:       lstMint,
		StrategyState: strategyState,
	}
}

// TxType returns the transaction type
func (s *SettleWithdrawal) TxType() tx.Type {
	return tx.TypeSettleWithdrawal
}

// Validate validates the SettleWithdrawal transaction
func (s *SettleWithdrawal) Validate() error {
	if err := s.BaseTx.Validate(); err != nil {
		return err
	}
	if err := validateVaultRef(s.MainState, s.LstMint); err != nil {
		return err
	}
	if s.StrategyState.IsZero() {
		return ErrStrategyRequired
	}
	return nil
}

// Apply applies the SettleWithdrawal transaction to the ledger.
func (s *SettleWithdrawal) Apply(ctx *tx.ApplyContext) tx.Result {
	if _, err := loadMain(ctx.View, s.MainState); err != nil {
		return fail(ctx, err)
	}
	vault, err := loadVault(ctx.View, s.MainState, s.LstMint)
	if err != nil {
		return fail(ctx, err)
	}
	bridge, err := loadStrategy(ctx.View, s.MainState, s.LstMint, s.StrategyState)
	if err != nil {
		return fail(ctx, err)
	}

	desired := bridge.NextWithdrawLstAmount
	if desired == 0 {
		return fail(ctx, fmt.Errorf("%w: no withdrawal pending", entry.ErrAmountIsZero))
	}
	staging := keylet.StrategyWithdrawAccount(s.StrategyState, s.LstMint)
	staged, err := token.Balance(ctx.View, staging)
	if err != nil {
		return fail(ctx, err)
	}
	if staged == 0 {
		return fail(ctx, fmt.Errorf("%w: staging account %s is empty", errNothingToSettle, staging))
	}
	amount := min(desired, staged)

	if err := token.Transfer(ctx.View, staging, vault.LstHoldingAccount, amount); err != nil {
		return fail(ctx, err)
	}
	if err := vault.RecordStrategyTransferIn(amount); err != nil {
		return fail(ctx, err)
	}
	bridge.NextWithdrawLstAmount -= amount
	if bridge.LastReadStratLstAmount, err = fixedpoint.Sub(bridge.LastReadStratLstAmount, amount); err != nil {
		return fail(ctx, err)
	}

	entryKey := keylet.StrategyEntry(s.MainState, s.LstMint, s.StrategyState)
	if err := update(ctx.View, entryKey, bridge); err != nil {
		return fail(ctx, err)
	}
	if err := update(ctx.View, keylet.Vault(s.MainState, s.LstMint), vault); err != nil {
		return fail(ctx, err)
	}

	ctx.Emit(events.StrategyTransferEvent{
		Main:                s.MainState,
		LstMint:             s.LstMint,
		StrategyEntry:       entryKey.Address(),
		StrategyState:       s.StrategyState,
		Direction:           events.FromStrategy,
		LstAmount:           amount,
		LastReadStratAmount: bridge.LastReadStratLstAmount,
		NextWithdrawAmount:  bridge.NextWithdrawLstAmount,
		VaultLocallyStored:  vault.LocallyStoredAmount,
		VaultInStrategies:   vault.InStrategiesAmount,
	})
	return tx.TesSUCCESS
}
