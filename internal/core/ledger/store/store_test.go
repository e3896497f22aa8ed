package store

import (
	"context"
	"testing"

	"github.com/gagliardetto/solana-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/LeJamon/restaked/internal/core/ledger/entry"
	"github.com/LeJamon/restaked/internal/core/ledger/keylet"
	"github.com/LeJamon/restaked/internal/core/tx"
	"github.com/LeJamon/restaked/internal/storage/database/pebble"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	mgr := pebble.NewMemManager()
	t.Cleanup(func() { _ = mgr.Close() })
	db, err := mgr.OpenDB("ledger")
	require.NoError(t, err)
	s, err := New(db, Config{CacheEntries: 8})
	require.NoError(t, err)
	return s
}

func marshal(t *testing.T, e entry.Entry) []byte {
	t.Helper()
	data, err := e.Marshal()
	require.NoError(t, err)
	return data
}

func TestStoreCommitAndRead(t *testing.T) {
	s := newTestStore(t)
	mint := solana.NewWallet().PublicKey()
	k := keylet.Mint(mint)

	data, err := s.Read(k)
	require.NoError(t, err)
	assert.Nil(t, data, "absent entry reads as nil")

	rec := marshal(t, &entry.Mint{Supply: 7, Decimals: 9})
	require.NoError(t, s.Commit(context.Background(), []tx.Change{{Keylet: k, Action: tx.ActionInsert, Data: rec}}))

	got, err := s.Read(k)
	require.NoError(t, err)
	assert.Equal(t, rec, got)

	hits, _ := s.CacheStats()
	assert.Equal(t, uint64(1), hits, "commit populates the cache")

	s.Purge()
	got, err = s.Read(k)
	require.NoError(t, err)
	assert.Equal(t, rec, got, "read back from the database")

	require.NoError(t, s.Commit(context.Background(), []tx.Change{{Keylet: k, Action: tx.ActionErase}}))
	exists, err := s.Exists(k)
	require.NoError(t, err)
	assert.False(t, exists)
}

func TestStoreDirectWrites(t *testing.T) {
	s := newTestStore(t)
	k := keylet.Mint(solana.NewWallet().PublicKey())
	rec := marshal(t, &entry.Mint{Supply: 1})

	require.ErrorIs(t, s.Update(k, rec), tx.ErrEntryNotFound)
	require.ErrorIs(t, s.Erase(k), tx.ErrEntryNotFound)
	require.NoError(t, s.Insert(k, rec))
	require.ErrorIs(t, s.Insert(k, rec), tx.ErrEntryExists)

	updated := marshal(t, &entry.Mint{Supply: 2})
	require.NoError(t, s.Update(k, updated))
	got, err := s.Read(k)
	require.NoError(t, err)
	assert.Equal(t, updated, got)
}

func TestStoreReadReturnsCopy(t *testing.T) {
	s := newTestStore(t)
	k := keylet.Mint(solana.NewWallet().PublicKey())
	require.NoError(t, s.Insert(k, marshal(t, &entry.Mint{Supply: 3})))

	first, err := s.Read(k)
	require.NoError(t, err)
	first[len(first)-1] ^= 0xff

	second, err := s.Read(k)
	require.NoError(t, err)
	assert.NotEqual(t, first, second)
}

func TestStoreForEachIsScopedByType(t *testing.T) {
	s := newTestStore(t)
	main := solana.NewWallet().PublicKey()

	var changes []tx.Change
	for i := 0; i < 3; i++ {
		lst := solana.NewWallet().PublicKey()
		changes = append(changes, tx.Change{
			Keylet: keylet.Vault(main, lst),
			Action: tx.ActionInsert,
			Data:   marshal(t, &entry.VaultState{Main: main, LstMint: lst}),
		})
		changes = append(changes, tx.Change{
			Keylet: keylet.Mint(lst),
			Action: tx.ActionInsert,
			Data:   marshal(t, &entry.Mint{}),
		})
	}
	require.NoError(t, s.Commit(context.Background(), changes))

	var keys [][32]byte
	require.NoError(t, s.ForEach(entry.TypeVaultState, func(key [32]byte, data []byte) bool {
		typ, ok := entry.TypeFromData(data)
		require.True(t, ok)
		assert.Equal(t, entry.TypeVaultState, typ)
		keys = append(keys, key)
		return true
	}))
	require.Len(t, keys, 3)
	for i := 1; i < len(keys); i++ {
		assert.Negative(t, compareKeys(keys[i-1], keys[i]), "key order")
	}

	vaults, err := Vaults(s, main)
	require.NoError(t, err)
	assert.Len(t, vaults, 3)

	count := 0
	require.NoError(t, s.ForEach(entry.TypeMint, func([32]byte, []byte) bool {
		count++
		return false
	}))
	assert.Equal(t, 1, count, "early stop")
}

func compareKeys(a, b [32]byte) int {
	for i := range a {
		if a[i] != b[i] {
			if a[i] < b[i] {
				return -1
			}
			return 1
		}
	}
	return 0
}

func TestTypedLookupsReportMissing(t *testing.T) {
	s := newTestStore(t)
	_, err := MainState(s, solana.NewWallet().PublicKey())
	require.ErrorIs(t, err, ErrNotFound)
	_, err = Ticket(s, solana.NewWallet().PublicKey())
	require.ErrorIs(t, err, ErrNotFound)
}
