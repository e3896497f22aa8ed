// Package restake implements the liquid-restaking transactions: vault
// administration, stake and unstake, ticket claims, price updates and the
// strategy bridge. Each type registers itself with the tx registry.
package restake

import (
	"errors"
	"fmt"

	"github.com/gagliardetto/solana-go"

	"github.com/LeJamon/restaked/internal/core/events"
	"github.com/LeJamon/restaked/internal/core/external"
	"github.com/LeJamon/restaked/internal/core/fixedpoint"
	"github.com/LeJamon/restaked/internal/core/ledger/entry"
	"github.com/LeJamon/restaked/internal/core/ledger/keylet"
	"github.com/LeJamon/restaked/internal/core/oracle"
	"github.com/LeJamon/restaked/internal/core/token"
	"github.com/LeJamon/restaked/internal/core/tx"
)

// resultFromError maps an error raised while applying into a result code.
func resultFromError(err error) tx.Result {
	switch {
	case err == nil:
		return tx.TesSUCCESS

	case errors.Is(err, errEntryMissing),
		errors.Is(err, token.ErrMintNotFound),
		errors.Is(err, token.ErrAccountNotFound):
		return tx.TecNO_ENTRY
	case errors.Is(err, tx.ErrEntryExists):
		return tx.TecDUPLICATE
	case errors.Is(err, errNoPermission):
		return tx.TecNO_PERMISSION
	case errors.Is(err, token.ErrInsufficientFunds):
		return tx.TecINSUFFICIENT_FUNDS
	case errors.Is(err, errDepositsDisabled):
		return tx.TecDEPOSITS_DISABLED
	case errors.Is(err, errDepositTooSmall):
		return tx.TecDEPOSIT_TOO_SMALL
	case errors.Is(err, entry.ErrDepositExceedsVaultCap):
		return tx.TecDEPOSIT_EXCEEDS_CAP
	case errors.Is(err, errUnstakeTooSmall):
		return tx.TecUNSTAKE_TOO_SMALL
	case errors.Is(err, errTicketNotDue):
		return tx.TecTOO_SOON
	case errors.Is(err, entry.ErrWithdrawAmountTooSmall):
		return tx.TecWITHDRAW_TOO_SMALL
	case errors.Is(err, entry.ErrTicketDustRemainder):
		return tx.TecTICKET_DUST
	case errors.Is(err, entry.ErrNotEnoughTicketValue):
		return tx.TecNOT_ENOUGH_TICKET_VALUE
	case errors.Is(err, errNotEnoughLst),
		errors.Is(err, entry.ErrNotEnoughLocalLst),
		errors.Is(err, entry.ErrNotEnoughInStrategies):
		return tx.TecNOT_ENOUGH_LST
	case errors.Is(err, entry.ErrAmountIsZero):
		return tx.TecAMOUNT_IS_ZERO
	case errors.Is(err, errNothingToSettle):
		return tx.TecEXISTING_AMOUNT_ZERO
	case errors.Is(err, errExceedsAvailable):
		return tx.TecEXCEEDS_AVAILABLE
	case errors.Is(err, errStrategyNotEmpty):
		return tx.TecSTRATEGY_NOT_EMPTY
	case errors.Is(err, entry.ErrFeeAboveMaximum):
		return tx.TemBAD_FEE

	case errors.Is(err, oracle.ErrPriceStale):
		return tx.TecPRICE_STALE
	case errors.Is(err, oracle.ErrWrongAccountOwner):
		return tx.TecWRONG_ACCOUNT_OWNER
	case errors.Is(err, oracle.ErrIncorrectStateAddress):
		return tx.TecINCORRECT_STATE_SOURCE
	case errors.Is(err, oracle.ErrUnexpectedAccountType):
		return tx.TecUNEXPECTED_ACCOUNT_TYPE
	case errors.Is(err, oracle.ErrInvalidStoredPrice),
		errors.Is(err, entry.ErrStoredPriceBelowParity):
		return tx.TecINVALID_STORED_PRICE
	case errors.Is(err, oracle.ErrMintMismatch),
		errors.Is(err, token.ErrMintMismatch):
		return tx.TecMINT_MISMATCH
	case errors.Is(err, oracle.ErrMissingLstState):
		return tx.TecMISSING_LST_STATE
	case errors.Is(err, external.ErrMalformedState):
		return tx.TecBAD_EXTERNAL_STATE

	case errors.Is(err, fixedpoint.ErrEmptyPool):
		return tx.TecEMPTY_POOL
	case errors.Is(err, fixedpoint.ErrZeroBacking):
		return tx.TecZERO_BACKING
	case errors.Is(err, fixedpoint.ErrArithmeticOverflow):
		return tx.TefARITHMETIC_OVERFLOW
	case errors.Is(err, fixedpoint.ErrArithmeticUnderflow):
		return tx.TefARITHMETIC_UNDERFLOW
	case errors.Is(err, fixedpoint.ErrDivisionByZero):
		return tx.TefDIVISION_BY_ZERO

	default:
		return tx.TefINTERNAL
	}
}

// fail records err on ctx and returns its result.
func fail(ctx *tx.ApplyContext, err error) tx.Result {
	return ctx.Fail(resultFromError(err), err)
}

// requireSigner checks that the transaction is signed by want.
func requireSigner(ctx *tx.ApplyContext, want solana.PublicKey, role string) error {
	if ctx.Signer != want {
		return fmt.Errorf("%w: %s is %s, signer is %s", errNoPermission, role, want, ctx.Signer)
	}
	return nil
}

func read(view tx.LedgerView, k keylet.Keylet) ([]byte, error) {
	data, err := view.Read(k)
	if err != nil {
		return nil, err
	}
	if data == nil {
		return nil, fmt.Errorf("%w: %s", errEntryMissing, k)
	}
	return data, nil
}

func loadMain(view tx.LedgerView, id solana.PublicKey) (*entry.MainState, error) {
	data, err := read(view, keylet.MainState(id))
	if err != nil {
		return nil, err
	}
	return entry.DecodeMainState(data)
}

func loadVault(view tx.LedgerView, main, lstMint solana.PublicKey) (*entry.VaultState, error) {
	data, err := read(view, keylet.Vault(main, lstMint))
	if err != nil {
		return nil, err
	}
	return entry.DecodeVaultState(data)
}

// loadStrategy loads the bridge between the vault of lstMint under main and
// strategyState.
func loadStrategy(view tx.LedgerView, main, lstMint, strategyState solana.PublicKey) (*entry.StrategyEntry, error) {
	data, err := read(view, keylet.StrategyEntry(main, lstMint, strategyState))
	if err != nil {
		return nil, err
	}
	s, err := entry.DecodeStrategyEntry(data)
	if err != nil {
		return nil, err
	}
	if s.Main != main || s.LstMint != lstMint {
		return nil, fmt.Errorf("%w: strategy %s is not attached to vault %s of %s",
			errEntryMissing, strategyState, lstMint, main)
	}
	return s, nil
}

func loadTicket(view tx.LedgerView, id solana.PublicKey) (*entry.UnstakeTicket, error) {
	data, err := read(view, keylet.Ticket(id))
	if err != nil {
		return nil, err
	}
	return entry.DecodeUnstakeTicket(data)
}

func insert(view tx.LedgerView, k keylet.Keylet, e entry.Entry) error {
	data, err := e.Marshal()
	if err != nil {
		return err
	}
	return view.Insert(k, data)
}

func update(view tx.LedgerView, k keylet.Keylet, e entry.Entry) error {
	data, err := e.Marshal()
	if err != nil {
		return err
	}
	return view.Update(k, data)
}

// shareSupply returns the pool-share supply of main.
func shareSupply(view tx.LedgerView, main *entry.MainState) (uint64, error) {
	m, err := token.ReadMint(view, main.PoolShareMint)
	if err != nil {
		return 0, err
	}
	return m.Supply, nil
}

// treasuryAccount returns the treasury if it is set and is a pool-share
// account. A misconfigured treasury is logged and reported as unset so fee
// paths never block the operation.
func treasuryAccount(ctx *tx.ApplyContext, main *entry.MainState) (solana.PublicKey, bool) {
	treasury, ok := main.TreasuryAccount()
	if !ok {
		return solana.PublicKey{}, false
	}
	if _, err := token.ValidateAccount(ctx.View, treasury, main.PoolShareMint); err != nil {
		ctx.Logger.Warn("treasury misconfigured, skipping fee", "treasury", treasury, "error", err)
		return solana.PublicKey{}, false
	}
	return treasury, true
}

// refreshVaultPrice reads a new price for vault and propagates the change in
// value of its current holding into main's backing. The timestamp is always
// refreshed; the backing and the event only move when the price changed.
func refreshVaultPrice(ctx *tx.ApplyContext, mainID solana.PublicKey, main *entry.MainState, vault *entry.VaultState, state *external.Account) error {
	newPrice, err := oracle.Price(vault.LstMint, state)
	if err != nil {
		return err
	}
	oldPrice := vault.LstSolPriceScaled
	// Stamped even when unchanged, or a fixed-price LST would go stale forever.
	vault.LstSolPriceTimestamp = ctx.UnixNow()
	if newPrice == oldPrice {
		return nil
	}

	oldValue, err := fixedpoint.LstToSolValue(vault.TotalLstAmount, oldPrice)
	if err != nil {
		return err
	}
	newValue, err := fixedpoint.LstToSolValue(vault.TotalLstAmount, newPrice)
	if err != nil {
		return err
	}
	profit, slashing := fixedpoint.Delta(oldValue, newValue)
	backingBefore := main.BackingSolValue
	if err := main.ApplyBackingDelta(profit, slashing); err != nil {
		return err
	}
	vault.LstSolPriceScaled = newPrice

	ctx.Emit(events.PriceUpdateEvent{
		Main:                  mainID,
		LstMint:               vault.LstMint,
		LstAmount:             vault.TotalLstAmount,
		OldPriceScaled:        oldPrice,
		OldSolValue:           oldValue,
		NewPriceScaled:        newPrice,
		NewSolValue:           newValue,
		BackingSolValueBefore: backingBefore,
		BackingSolValue:       main.BackingSolValue,
	})
	return nil
}

func validateFees(deposit, withdraw, performance *uint16) error {
	if deposit != nil && *deposit > entry.MaxDepositFeeBp {
		return ErrDepositFeeTooHigh
	}
	if withdraw != nil && *withdraw > entry.MaxWithdrawFeeBp {
		return ErrWithdrawFeeTooHigh
	}
	if performance != nil && *performance > entry.MaxPerformanceFeeBp {
		return ErrPerfFeeTooHigh
	}
	return nil
}

func validateVaultRef(main, lstMint solana.PublicKey) error {
	if main.IsZero() {
		return ErrMainStateRequired
	}
	if lstMint.IsZero() {
		return ErrLstMintRequired
	}
	return nil
}
