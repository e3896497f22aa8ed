// Package token implements the token custody primitives the restaking
// transactors rely on: mints, token accounts, transfer, mint and burn.
// Accounts live at their associated token address under the owner.
package token

import (
	"errors"
	"fmt"

	"github.com/gagliardetto/solana-go"

	"github.com/LeJamon/restaked/internal/core/fixedpoint"
	"github.com/LeJamon/restaked/internal/core/ledger/entry"
	"github.com/LeJamon/restaked/internal/core/ledger/keylet"
	"github.com/LeJamon/restaked/internal/core/tx"
)

// Decimals of every mint created by the protocol.
const Decimals uint8 = 9

var (
	ErrMintNotFound      = errors.New("mint not found")
	ErrAccountNotFound   = errors.New("token account not found")
	ErrMintMismatch      = errors.New("token account holds a different mint")
	ErrInsufficientFunds = errors.New("insufficient token balance")
	ErrSameAccount       = errors.New("source and destination are the same account")
)

// ReadMint loads the mint record at addr.
func ReadMint(view tx.LedgerView, addr solana.PublicKey) (*entry.Mint, error) {
	data, err := view.Read(keylet.Mint(addr))
	if err != nil {
		return nil, err
	}
	if data == nil {
		return nil, fmt.Errorf("%w: %s", ErrMintNotFound, addr)
	}
	return entry.DecodeMint(data)
}

// CreateMint inserts a zero-supply mint controlled by authority.
func CreateMint(view tx.LedgerView, addr, authority solana.PublicKey) error {
	return insert(view, keylet.Mint(addr), &entry.Mint{Authority: authority, Decimals: Decimals})
}

// ReadAccount loads the token account at addr.
func ReadAccount(view tx.LedgerView, addr solana.PublicKey) (*entry.TokenAccount, error) {
	data, err := view.Read(keylet.TokenAccount(addr))
	if err != nil {
		return nil, err
	}
	if data == nil {
		return nil, fmt.Errorf("%w: %s", ErrAccountNotFound, addr)
	}
	return entry.DecodeTokenAccount(data)
}

// Balance returns the amount held at addr, zero when the account does not exist.
func Balance(view tx.LedgerView, addr solana.PublicKey) (uint64, error) {
	acct, err := ReadAccount(view, addr)
	if errors.Is(err, ErrAccountNotFound) {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}
	return acct.Amount, nil
}

// ValidateAccount checks that addr is an existing account of mint.
func ValidateAccount(view tx.LedgerView, addr, mint solana.PublicKey) (*entry.TokenAccount, error) {
	acct, err := ReadAccount(view, addr)
	if err != nil {
		return nil, err
	}
	if acct.Mint != mint {
		return nil, fmt.Errorf("%w: %s holds %s, want %s", ErrMintMismatch, addr, acct.Mint, mint)
	}
	return acct, nil
}

// EnsureAccount returns the associated token account of owner for mint,
// creating an empty one if needed.
func EnsureAccount(view tx.LedgerView, owner, mint solana.PublicKey) (solana.PublicKey, error) {
	addr := keylet.AssociatedTokenAccount(owner, mint)
	k := keylet.TokenAccount(addr)
	exists, err := view.Exists(k)
	if err != nil {
		return solana.PublicKey{}, err
	}
	if exists {
		if _, err := ValidateAccount(view, addr, mint); err != nil {
			return solana.PublicKey{}, err
		}
		return addr, nil
	}
	if err := insert(view, k, &entry.TokenAccount{Mint: mint, Owner: owner}); err != nil {
		return solana.PublicKey{}, err
	}
	return addr, nil
}

// Transfer moves amount between two accounts of the same mint.
func Transfer(view tx.LedgerView, from, to solana.PublicKey, amount uint64) error {
	if from == to {
		return ErrSameAccount
	}
	src, err := ReadAccount(view, from)
	if err != nil {
		return fmt.Errorf("source: %w", err)
	}
	dst, err := ValidateAccount(view, to, src.Mint)
	if err != nil {
		return fmt.Errorf("destination: %w", err)
	}
	if src.Amount < amount {
		return fmt.Errorf("%w: %s has %d, want %d", ErrInsufficientFunds, from, src.Amount, amount)
	}
	credited, err := fixedpoint.Add(dst.Amount, amount)
	if err != nil {
		return err
	}
	src.Amount -= amount
	dst.Amount = credited
	if err := update(view, keylet.TokenAccount(from), src); err != nil {
		return err
	}
	return update(view, keylet.TokenAccount(to), dst)
}

// MintTo creates amount new units of mint in account to.
func MintTo(view tx.LedgerView, mint, to solana.PublicKey, amount uint64) error {
	m, err := ReadMint(view, mint)
	if err != nil {
		return err
	}
	dst, err := ValidateAccount(view, to, mint)
	if err != nil {
		return err
	}
	supply, err := fixedpoint.Add(m.Supply, amount)
	if err != nil {
		return fmt.Errorf("mint supply: %w", err)
	}
	// supply bounds every balance
	dst.Amount += amount
	m.Supply = supply
	if err := update(view, keylet.Mint(mint), m); err != nil {
		return err
	}
	return update(view, keylet.TokenAccount(to), dst)
}

// Burn destroys amount units of mint held in account from.
func Burn(view tx.LedgerView, mint, from solana.PublicKey, amount uint64) error {
	m, err := ReadMint(view, mint)
	if err != nil {
		return err
	}
	src, err := ValidateAccount(view, from, mint)
	if err != nil {
		return err
	}
	if src.Amount < amount {
		return fmt.Errorf("%w: %s has %d, want %d", ErrInsufficientFunds, from, src.Amount, amount)
	}
	supply, err := fixedpoint.Sub(m.Supply, amount)
	if err != nil {
		return fmt.Errorf("mint supply: %w", err)
	}
	src.Amount -= amount
	m.Supply = supply
	if err := update(view, keylet.Mint(mint), m); err != nil {
		return err
	}
	return update(view, keylet.TokenAccount(from), src)
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
