package restake

import (
	"github.com/gagliardetto/solana-go"

	"github.com/LeJamon/restaked/internal/core/ledger/entry"
	"github.com/LeJamon/restaked/internal/core/ledger/keylet"
	"github.com/LeJamon/restaked/internal/core/tx"
)

func init() {
	tx.Register(tx.TypeSetNextWithdraw, func() tx.Transaction {
		return &SetNextWithdraw{BaseTx: *tx.NewBaseTx(tx.TypeSetNextWithdraw, solana.PublicKey{})}
	})
}

// SetNextWithdraw records how much LST the operator expects a strategy to
// hand back on the next settlement.
type SetNextWithdraw struct {
	tx.BaseTx

	MainState     solana.PublicKey `json:"MainState"`
	LstMint       solana.PublicKey `json:"LstMint"`
	StrategyState solana.PublicKey `json:"StrategyState"`
	LstAmount     uint64           `json:"LstAmount"`
}

// NewSetNextWithdraw creates a new SetNextWithdraw transaction
func NewSetNextWithdraw(operator, mainState, lstMint, strategyState solana.PublicKey, amount uint64) *SetNextWithdraw {
	return &SetNextWithdraw{
		BaseTx:        *tx.NewBaseTx(tx.TypeSetNextWithdraw, operator),
		MainState:     mainState,
		LstMint:       lstMint,
		StrategyState: strategyState,
		LstAmount:     amount,
	}
}

// TxType returns the transaction type
func (s *SetNextWithdraw) TxType() tx.Type {
	return tx.TypeSetNextWithdraw
}

// Validate validates the SetNextWithdraw transaction
func (s *SetNextWithdraw) Validate() error {
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

// Apply applies the SetNextWithdraw transaction to the ledger.
func (s *SetNextWithdraw) Apply(ctx *tx.ApplyContext) tx.Result {
	main, err := loadMain(ctx.View, s.MainState)
	if err != nil {
		return fail(ctx, err)
	}
	if err := requireSigner(ctx, main.OperatorAuth, "operator"); err != nil {
		return fail(ctx, err)
	}
	if s.LstAmount == 0 {
		return fail(ctx, entry.ErrAmountIsZero)
	}
	bridge, err := loadStrategy(ctx.View, s.MainState, s.LstMint, s.StrategyState)
	if err != nil {
		return fail(ctx, err)
	}

	bridge.NextWithdrawLstAmount = s.LstAmount
	if err := update(ctx.View, keylet.StrategyEntry(s.MainState, s.LstMint, s.StrategyState), bridge); err != nil {
		return fail(ctx, err)
	}
	ctx.Logger.Debug("next withdraw set", "strategy_state", s.StrategyState, "lst_amount", s.LstAmount)
	return tx.TesSUCCESS
}
