// Package oracle derives validated SOL-per-LST prices from external state.
//
// Each LST belongs to one family that decides where its price comes from:
//
//	FamilyParity      wrapped SOL, always 1.0, no state
//	FamilyFixedState  Marinade mSOL, read from the state at a known address
//	FamilyStakePool   any other LST, read from its SPL stake-pool state
//
// Prices are fixed point with 32 fractional bits and never below 1.0.
package oracle

import (
	"errors"
	"fmt"
	"time"

	"github.com/gagliardetto/solana-go"

	"github.com/LeJamon/restaked/internal/core/external"
	"github.com/LeJamon/restaked/internal/core/fixedpoint"
)

var (
	ErrPriceStale            = errors.New("LST price is stale")
	ErrWrongAccountOwner     = errors.New("state account is not owned by the expected program")
	ErrIncorrectStateAddress = errors.New("state account is not at the expected address")
	ErrUnexpectedAccountType = errors.New("state account has an unexpected type")
	ErrInvalidStoredPrice    = errors.New("LST price below 1.0")
	ErrMintMismatch          = errors.New("state account refers to another mint")
	ErrMissingLstState       = errors.New("LST state account is required")
)

// Family selects the pricing source of an LST.
type Family int

const (
	FamilyParity Family = iota
	FamilyFixedState
	FamilyStakePool
)

func (f Family) String() string {
	switch f {
	case FamilyParity:
		return "parity"
	case FamilyFixedState:
		return "fixed_state"
	case FamilyStakePool:
		return "stake_pool"
	default:
		return fmt.Sprintf("Family(%d)", int(f))
	}
}

// RequiresState reports whether pricing needs an external account.
func (f Family) RequiresState() bool {
	return f != FamilyParity
}

// FamilyOf returns the family of lstMint.
func FamilyOf(lstMint solana.PublicKey) Family {
	switch lstMint {
	case external.WrappedSolMint:
		return FamilyParity
	case external.MsolMint:
		return FamilyFixedState
	default:
		return FamilyStakePool
	}
}

// StateAddress returns the account the keeper must fetch to price lstMint,
// if it is known without further lookup.
func StateAddress(lstMint solana.PublicKey) (solana.PublicKey, bool) {
	if FamilyOf(lstMint) == FamilyFixedState {
		return external.MarinadeStateAddress, true
	}
	return solana.PublicKey{}, false
}

// Price computes the scaled price of lstMint from state. state is ignored
// for parity assets and required otherwise.
func Price(lstMint solana.PublicKey, state *external.Account) (uint64, error) {
	var (
		price uint64
		err   error
	)
	switch family := FamilyOf(lstMint); family {
	case FamilyParity:
		return fixedpoint.TwoPow32, nil
	case FamilyFixedState:
		price, err = fixedStatePrice(state)
	case FamilyStakePool:
		price, err = stakePoolPrice(lstMint, state)
	default:
		return 0, fmt.Errorf("%w: unknown family %s", ErrUnexpectedAccountType, family)
	}
	if err != nil {
		return 0, err
	}
	if price < fixedpoint.TwoPow32 {
		return 0, fmt.Errorf("%w: %d", ErrInvalidStoredPrice, price)
	}
	return price, nil
}

func fixedStatePrice(state *external.Account) (uint64, error) {
	if state == nil {
		return 0, ErrMissingLstState
	}
	if state.Address != external.MarinadeStateAddress {
		return 0, fmt.Errorf("%w: got %s, want %s", ErrIncorrectStateAddress, state.Address, external.MarinadeStateAddress)
	}
	m, err := external.DecodeMarinadeState(state.Data)
	if err != nil {
		return 0, err
	}
	if m.Discriminator != external.MarinadeStateDiscriminator {
		return 0, fmt.Errorf("%w: marinade state tag %x", ErrUnexpectedAccountType, m.Discriminator)
	}
	return m.MsolPrice, nil
}

func stakePoolPrice(lstMint solana.PublicKey, state *external.Account) (uint64, error) {
	if state == nil {
		return 0, ErrMissingLstState
	}
	if state.Owner != external.SplStakePoolProgramID {
		return 0, fmt.Errorf("%w: %s owned by %s", ErrWrongAccountOwner, state.Address, state.Owner)
	}
	pool, err := external.DecodeStakePool(state.Data)
	if err != nil {
		return 0, err
	}
	if pool.PoolMint != lstMint {
		return 0, fmt.Errorf("%w: pool mint %s, want %s", ErrMintMismatch, pool.PoolMint, lstMint)
	}
	if pool.AccountType != external.AccountTypeStakePool {
		return 0, fmt.Errorf("%w: account type %d", ErrUnexpectedAccountType, pool.AccountType)
	}
	if pool.PoolTokenSupply == 0 {
		return 0, fmt.Errorf("%w: empty stake pool", ErrInvalidStoredPrice)
	}
	return fixedpoint.MulDiv(pool.TotalLamports, fixedpoint.TwoPow32, pool.PoolTokenSupply)
}

// CheckNotStale fails with ErrPriceStale when a price stamped at timestamp
// (unix seconds) is older than limit at now.
func CheckNotStale(timestamp int64, now time.Time, limit time.Duration) error {
	age := now.Unix() - timestamp
	if age > int64(limit/time.Second) {
		return fmt.Errorf("%w: age %ds exceeds %s", ErrPriceStale, age, limit)
	}
	return nil
}
