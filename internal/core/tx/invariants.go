package tx

import (
	"errors"
	"fmt"

	"github.com/LeJamon/restaked/internal/core/ledger/entry"
	"github.com/LeJamon/restaked/internal/core/ledger/keylet"
)

// ErrInvariantViolated wraps every post-apply invariant failure.
var ErrInvariantViolated = errors.New("invariant violated")

// checkInvariants verifies the records a transaction wrote before they are
// committed: main states respect fee maxima, and every written vault keeps
// its split consistent and its local amount equal to its custody balance.
func checkInvariants(view *ApplyStateTable) error {
	for _, k := range view.Touched(entry.TypeMainState) {
		data, err := view.Read(k)
		if err != nil {
			return err
		}
		m, err := entry.DecodeMainState(data)
		if err != nil {
			return fmt.Errorf("%w: %s: %v", ErrInvariantViolated, k, err)
		}
		if err := m.Validate(); err != nil {
			return fmt.Errorf("%w: %s: %v", ErrInvariantViolated, k, err)
		}
	}

	for _, k := range view.Touched(entry.TypeVaultState) {
		data, err := view.Read(k)
		if err != nil {
			return err
		}
		v, err := entry.DecodeVaultState(data)
		if err != nil {
			return fmt.Errorf("%w: %s: %v", ErrInvariantViolated, k, err)
		}
		if err := v.Validate(); err != nil {
			return fmt.Errorf("%w: %s: %v", ErrInvariantViolated, k, err)
		}
		custody, err := custodyBalance(view, v)
		if err != nil {
			return err
		}
		if custody != v.LocallyStoredAmount {
			return fmt.Errorf("%w: %s: locally stored %d but custody holds %d",
				ErrInvariantViolated, k, v.LocallyStoredAmount, custody)
		}
	}
	return nil
}

func custodyBalance(view LedgerView, v *entry.VaultState) (uint64, error) {
	data, err := view.Read(keylet.TokenAccount(v.LstHoldingAccount))
	if err != nil || data == nil {
		return 0, err
	}
	acct, err := entry.DecodeTokenAccount(data)
	if err != nil {
		return 0, fmt.Errorf("%w: custody account: %v", ErrInvariantViolated, err)
	}
	return acct.Amount, nil
}
