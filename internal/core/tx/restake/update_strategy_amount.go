package restake

import (
	"github.com/gagliardetto/solana-go"

	"github.com/LeJamon/restaked/internal/core/events"
	"github.com/LeJamon/restaked/internal/core/external"
	"github.com/LeJamon/restaked/internal/core/fixedpoint"
	"github.com/LeJamon/restaked/internal/core/ledger/keylet"
	"github.com/LeJamon/restaked/internal/core/oracle"
	"github.com/LeJamon/restaked/internal/core/token"
	"github.com/LeJamon/restaked/internal/core/tx"
)

func init() {
	tx.Register(tx.TypeUpdateStrategyAmount, func() tx.Transaction {
		return &UpdateStrategyAmount{BaseTx: *tx.NewBaseTx(tx.TypeUpdateStrategyAmount, solana.PublicKey{})}
	})
}

// UpdateStrategyAmount reconciles the vault against the holding a strategy
// reports. Profit is credited to backing and charged a performance fee;
// slashing is debited. Anyone may submit it.
type UpdateStrategyAmount struct {
	tx.BaseTx

	MainState     solana.PublicKey `json:"MainState"`
	LstMint       solana.PublicKey `json:"LstMint"`
	StrategyState external.Account `json:"StrategyState"`
}

// NewUpdateStrategyAmount creates a new UpdateStrategyAmount transaction
func NewUpdateStrategyAmount(signer, mainState, lstMint solana.PublicKey, state external.Account) *UpdateStrategyAmount {
	return &UpdateStrategyAmount{
		BaseTx:        *tx.NewBaseTx(tx.TypeUpdateStrategyAmount, signer),
		MainState:     mainState,
		LstMint:       lstMint,
		StrategyState: state,
	}
}

// TxType returns the transaction type
func (u *UpdateStrategyAmount) TxType() tx.Type {
	return tx.TypeUpdateStrategyAmount
}

// Validate validates the UpdateStrategyAmount transaction
func (u *UpdateStrategyAmount) Validate() error {
	if err := u.BaseTx.Validate(); err != nil {
		return err
	}
	if err := validateVaultRef(u.MainState, u.LstMint); err != nil {
		return err
	}
	if u.StrategyState.Address.IsZero() {
		return ErrStrategyRequired
	}
	return nil
}

// Apply applies the UpdateStrategyAmount transaction to the ledger.
func (u *UpdateStrategyAmount) Apply(ctx *tx.ApplyContext) tx.Result {
	main, err := loadMain(ctx.View, u.MainState)
	if err != nil {
		return fail(ctx, err)
	}
	vault, err := loadVault(ctx.View, u.MainState, u.LstMint)
	if err != nil {
		return fail(ctx, err)
	}
	stateAddr := u.StrategyState.Address
	bridge, err := loadStrategy(ctx.View, u.MainState, u.LstMint, stateAddr)
	if err != nil {
		return fail(ctx, err)
	}
	state, err := readStrategyState(&u.StrategyState, bridge.StrategyProgram, u.LstMint)
	if err != nil {
		return fail(ctx, err)
	}
	if err := oracle.CheckNotStale(vault.LstSolPriceTimestamp, ctx.Now, ctx.Config.StalenessLimit); err != nil {
		return fail(ctx, err)
	}

	prior := bridge.LastReadStratLstAmount
	reported := state.StratTotalLstAmount
	profitLst, slashingLst, err := vault.ReconcileExternalAmount(prior, reported)
	if err != nil {
		return fail(ctx, err)
	}
	profitSol, err := fixedpoint.LstToSolValue(profitLst, vault.LstSolPriceScaled)
	if err != nil {
		return fail(ctx, err)
	}
	slashingSol, err := fixedpoint.LstToSolValue(slashingLst, vault.LstSolPriceScaled)
	if err != nil {
		return fail(ctx, err)
	}
	backingBefore := main.BackingSolValue
	if err := main.ApplyBackingDelta(profitSol, slashingSol); err != nil {
		return fail(ctx, err)
	}

	supply, err := shareSupply(ctx.View, main)
	if err != nil {
		return fail(ctx, err)
	}
	var feeShares uint64
	if profitSol > 0 && main.PerformanceFeeBp > 0 {
		if treasury, ok := treasuryAccount(ctx, main); ok {
			feeSol, err := fixedpoint.ApplyBp(profitSol, main.PerformanceFeeBp)
			if err != nil {
				return fail(ctx, err)
			}
			// Priced against the post-profit backing so the fee dilutes
			// holders by exactly feeSol.
			if feeShares, err = fixedpoint.SolValueToShares(feeSol, main.BackingSolValue, supply); err != nil {
				return fail(ctx, err)
			}
			if feeShares > 0 {
				if err := token.MintTo(ctx.View, main.PoolShareMint, treasury, feeShares); err != nil {
					return fail(ctx, err)
				}
				supply += feeShares
			}
		}
	}

	bridge.LastReadStratLstAmount = reported
	bridge.LastReadStratLstTimestamp = ctx.UnixNow()

	entryKey := keylet.StrategyEntry(u.MainState, u.LstMint, stateAddr)
	if err := update(ctx.View, entryKey, bridge); err != nil {
		return fail(ctx, err)
	}
	if err := update(ctx.View, keylet.Vault(u.MainState, u.LstMint), vault); err != nil {
		return fail(ctx, err)
	}
	if err := update(ctx.View, keylet.MainState(u.MainState), main); err != nil {
		return fail(ctx, err)
	}

	ctx.Emit(events.StrategyReconcileEvent{
		Main:                  u.MainState,
		LstMint:               u.LstMint,
		StrategyEntry:         entryKey.Address(),
		StrategyState:         stateAddr,
		OldLstAmount:          prior,
		NewLstAmount:          reported,
		ProfitLst:             profitLst,
		SlashingLst:           slashingLst,
		LstPriceScaled:        vault.LstSolPriceScaled,
		PerformanceFeeShares:  feeShares,
		BackingSolValueBefore: backingBefore,
		BackingSolValue:       main.BackingSolValue,
		ShareSupply:           supply,
	})
	return tx.TesSUCCESS
}
