package token

import (
	"testing"

	"github.com/gagliardetto/solana-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/LeJamon/restaked/internal/core/ledger/entry"
	"github.com/LeJamon/restaked/internal/core/ledger/keylet"
	"github.com/LeJamon/restaked/internal/core/tx"
)

// nopView is an empty base ledger.
type nopView struct{}

func (nopView) Read(keylet.Keylet) ([]byte, error)                    { return nil, nil }
func (nopView) Exists(keylet.Keylet) (bool, error)                    { return false, nil }
func (nopView) Insert(keylet.Keylet, []byte) error                    { return nil }
func (nopView) Update(keylet.Keylet, []byte) error                    { return nil }
func (nopView) Erase(keylet.Keylet) error                             { return nil }
func (nopView) ForEach(entry.Type, func([32]byte, []byte) bool) error { return nil }

func newView(t *testing.T) *tx.ApplyStateTable {
	t.Helper()
	return tx.NewApplyStateTable(nopView{})
}

func TestMintTransferBurn(t *testing.T) {
	view := newView(t)
	mint := solana.NewWallet().PublicKey()
	alice := solana.NewWallet().PublicKey()
	bob := solana.NewWallet().PublicKey()

	require.NoError(t, CreateMint(view, mint, solana.NewWallet().PublicKey()))

	aliceAcct, err := EnsureAccount(view, alice, mint)
	require.NoError(t, err)
	assert.Equal(t, keylet.AssociatedTokenAccount(alice, mint), aliceAcct)
	again, err := EnsureAccount(view, alice, mint)
	require.NoError(t, err)
	assert.Equal(t, aliceAcct, again)

	bobAcct, err := EnsureAccount(view, bob, mint)
	require.NoError(t, err)

	require.NoError(t, MintTo(view, mint, aliceAcct, 100))
	require.NoError(t, Transfer(view, aliceAcct, bobAcct, 40))
	require.ErrorIs(t, Transfer(view, aliceAcct, bobAcct, 61), ErrInsufficientFunds)
	require.ErrorIs(t, Transfer(view, aliceAcct, aliceAcct, 1), ErrSameAccount)
	require.NoError(t, Burn(view, mint, bobAcct, 15))
	require.ErrorIs(t, Burn(view, mint, bobAcct, 26), ErrInsufficientFunds)

	bal, err := Balance(view, aliceAcct)
	require.NoError(t, err)
	assert.Equal(t, uint64(60), bal)
	bal, err = Balance(view, bobAcct)
	require.NoError(t, err)
	assert.Equal(t, uint64(25), bal)

	m, err := ReadMint(view, mint)
	require.NoError(t, err)
	assert.Equal(t, uint64(85), m.Supply)
	assert.Equal(t, Decimals, m.Decimals)
}

func TestValidateAccount(t *testing.T) {
	view := newView(t)
	mintA := solana.NewWallet().PublicKey()
	mintB := solana.NewWallet().PublicKey()
	owner := solana.NewWallet().PublicKey()
	require.NoError(t, CreateMint(view, mintA, owner))
	require.NoError(t, CreateMint(view, mintB, owner))

	acct, err := EnsureAccount(view, owner, mintA)
	require.NoError(t, err)

	_, err = ValidateAccount(view, acct, mintA)
	require.NoError(t, err)
	_, err = ValidateAccount(view, acct, mintB)
	require.ErrorIs(t, err, ErrMintMismatch)
	_, err = ValidateAccount(view, solana.NewWallet().PublicKey(), mintA)
	require.ErrorIs(t, err, ErrAccountNotFound)

	bal, err := Balance(view, solana.NewWallet().PublicKey())
	require.NoError(t, err)
	assert.Zero(t, bal)

	otherAcct, err := EnsureAccount(view, owner, mintB)
	require.NoError(t, err)
	require.NoError(t, MintTo(view, mintB, otherAcct, 5))
	require.ErrorIs(t, Transfer(view, otherAcct, acct, 1), ErrMintMismatch)
	require.ErrorIs(t, MintTo(view, mintA, otherAcct, 1), ErrMintMismatch)
	require.ErrorIs(t, MintTo(view, solana.NewWallet().PublicKey(), acct, 1), ErrMintNotFound)
}
