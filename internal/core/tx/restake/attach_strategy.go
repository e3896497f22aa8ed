package restake

import (
	"fmt"

	"github.com/gagliardetto/solana-go"

	"github.com/LeJamon/restaked/internal/core/external"
	"github.com/LeJamon/restaked/internal/core/ledger/entry"
	"github.com/LeJamon/restaked/internal/core/ledger/keylet"
	"github.com/LeJamon/restaked/internal/core/oracle"
	"github.com/LeJamon/restaked/internal/core/token"
	"github.com/LeJamon/restaked/internal/core/tx"
)

func init() {
	tx.Register(tx.TypeAttachStrategy, func() tx.Transaction {
		return &AttachStrategy{BaseTx: *tx.NewBaseTx(tx.TypeAttachStrategy, solana.PublicKey{})}
	})
}

// AttachStrategy links a strategy state to a vault. The state must be owned
// by StrategyProgram, hold the vault's LST and report an empty holding.
type AttachStrategy struct {
	tx.BaseTx

	MainState       solana.PublicKey `json:"MainState"`
	LstMint         solana.PublicKey `json:"LstMint"`
	StrategyProgram solana.PublicKey `json:"StrategyProgram"`
	StrategyState   external.Account `json:"StrategyState"`
}

// NewAttachStrategy creates a new AttachStrategy transaction
func NewAttachStrategy(admin, mainState, lstMint, program solana.PublicKey, state external.Account) *AttachStrategy {
	return &AttachStrategy{
		BaseTx:          *tx.NewBaseTx(tx.TypeAttachStrategy, admin),
		MainState:       mainState,
		LstMint:         lstMint,
		StrategyProgram: program,
		StrategyState:   state,
	}
}

// TxType returns the transaction type
func (a *AttachStrategy) TxType() tx.Type {
	return tx.TypeAttachStrategy
}

// Validate validates the AttachStrategy transaction
func (a *AttachStrategy) Validate() error {
	if err := a.BaseTx.Validate(); err != nil {
		return err
	}
	if err := validateVaultRef(a.MainState, a.LstMint); err != nil {
		return err
	}
	if a.StrategyProgram.IsZero() {
		return ErrProgramRequired
	}
	if a.StrategyState.Address.IsZero() {
		return ErrStrategyRequired
	}
	return nil
}

// Apply applies the AttachStrategy transaction to the ledger.
func (a *AttachStrategy) Apply(ctx *tx.ApplyContext) tx.Result {
	main, err := loadMain(ctx.View, a.MainState)
	if err != nil {
		return fail(ctx, err)
	}
	if err := requireSigner(ctx, main.Admin, "admin"); err != nil {
		return fail(ctx, err)
	}
	if _, err := loadVault(ctx.View, a.MainState, a.LstMint); err != nil {
		return fail(ctx, err)
	}

	state, err := readStrategyState(&a.StrategyState, a.StrategyProgram, a.LstMint)
	if err != nil {
		return fail(ctx, err)
	}
	if state.StratTotalLstAmount != 0 {
		return fail(ctx, fmt.Errorf("%w: %d", errStrategyNotEmpty, state.StratTotalLstAmount))
	}

	stateAddr := a.StrategyState.Address
	if _, err := token.EnsureAccount(ctx.View, keylet.StrategyAuthority(stateAddr, a.StrategyProgram), a.LstMint); err != nil {
		return fail(ctx, err)
	}
	if _, err := token.EnsureAccount(ctx.View, keylet.StrategyWithdrawAuthority(stateAddr), a.LstMint); err != nil {
		return fail(ctx, err)
	}

	bridge := &entry.StrategyEntry{
		Main:                      a.MainState,
		LstMint:                   a.LstMint,
		StrategyState:             stateAddr,
		StrategyProgram:           a.StrategyProgram,
		LastReadStratLstTimestamp: ctx.UnixNow(),
	}
	if err := insert(ctx.View, keylet.StrategyEntry(a.MainState, a.LstMint, stateAddr), bridge); err != nil {
		return fail(ctx, err)
	}

	ctx.Logger.Info("strategy attached", "main", a.MainState, "lst_mint", a.LstMint,
		"strategy_state", stateAddr, "strategy_program", a.StrategyProgram)
	return tx.TesSUCCESS
}

// readStrategyState decodes a strategy state after checking its owner and mint.
func readStrategyState(acct *external.Account, program, lstMint solana.PublicKey) (*external.StrategyState, error) {
	if acct.Owner != program {
		return nil, fmt.Errorf("%w: strategy state %s owned by %s, want %s",
			oracle.ErrWrongAccountOwner, acct.Address, acct.Owner, program)
	}
	state, err := external.DecodeStrategyState(acct.Data)
	if err != nil {
		return nil, err
	}
	if state.Discriminator != external.StrategyStateDiscriminator {
		return nil, fmt.Errorf("%w: strategy state tag %x", oracle.ErrUnexpectedAccountType, state.Discriminator)
	}
	if state.LstMint != lstMint {
		return nil, fmt.Errorf("%w: strategy holds %s, want %s", oracle.ErrMintMismatch, state.LstMint, lstMint)
	}
	return state, nil
}
