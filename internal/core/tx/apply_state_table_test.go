package tx

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/LeJamon/restaked/internal/core/ledger/entry"
	"github.com/LeJamon/restaked/internal/core/ledger/keylet"
)

func TestApplyStateTableTracksChanges(t *testing.T) {
	base := newMemLedger()
	existing := mintKeylet()
	doomed := mintKeylet()
	base.entries[existing] = []byte("old")
	base.entries[doomed] = []byte("bye")

	table := NewApplyStateTable(base)

	data, err := table.Read(existing)
	require.NoError(t, err)
	assert.Equal(t, []byte("old"), data)

	require.NoError(t, table.Update(existing, []byte("new")))
	require.NoError(t, table.Erase(doomed))

	fresh := mintKeylet()
	require.NoError(t, table.Insert(fresh, []byte("hi")))
	require.ErrorIs(t, table.Insert(fresh, []byte("again")), ErrEntryExists)
	require.ErrorIs(t, table.Insert(existing, []byte("x")), ErrEntryExists)

	ok, err := table.Exists(doomed)
	require.NoError(t, err)
	assert.False(t, ok)
	got, err := table.Read(doomed)
	require.NoError(t, err)
	assert.Nil(t, got)

	// base untouched until applied
	assert.Equal(t, []byte("old"), base.entries[existing])
	assert.Contains(t, base.entries, doomed)

	changes := table.Changes()
	require.Len(t, changes, 3)
	actions := map[keylet.Keylet]Action{}
	for _, c := range changes {
		actions[c.Keylet] = c.Action
	}
	assert.Equal(t, ActionModify, actions[existing])
	assert.Equal(t, ActionErase, actions[doomed])
	assert.Equal(t, ActionInsert, actions[fresh])

	require.NoError(t, table.Apply())
	assert.Equal(t, []byte("new"), base.entries[existing])
	assert.Equal(t, []byte("hi"), base.entries[fresh])
	assert.NotContains(t, base.entries, doomed)
}

func TestApplyStateTableEdgeCases(t *testing.T) {
	base := newMemLedger()
	k := mintKeylet()
	base.entries[k] = []byte("v")
	table := NewApplyStateTable(base)

	t.Run("update of missing entry", func(t *testing.T) {
		require.ErrorIs(t, table.Update(mintKeylet(), []byte("x")), ErrEntryNotFound)
	})

	t.Run("erase of missing entry", func(t *testing.T) {
		require.ErrorIs(t, table.Erase(mintKeylet()), ErrEntryNotFound)
	})

	t.Run("insert then erase leaves nothing", func(t *testing.T) {
		n := mintKeylet()
		require.NoError(t, table.Insert(n, []byte("x")))
		require.NoError(t, table.Erase(n))
		for _, c := range table.Changes() {
			assert.NotEqual(t, n, c.Keylet)
		}
	})

	t.Run("restoring original bytes is not a change", func(t *testing.T) {
		require.NoError(t, table.Update(k, []byte("w")))
		require.NoError(t, table.Update(k, []byte("v")))
		assert.Empty(t, table.Changes())
	})

	t.Run("erase then insert becomes modify", func(t *testing.T) {
		require.NoError(t, table.Erase(k))
		require.ErrorIs(t, table.Erase(k), ErrEntryNotFound)
		require.NoError(t, table.Insert(k, []byte("z")))
		changes := table.Changes()
		require.Len(t, changes, 1)
		assert.Equal(t, ActionModify, changes[0].Action)
	})
}

func TestApplyStateTableForEachOverlay(t *testing.T) {
	base := newMemLedger()
	a, b, c := mintKeylet(), mintKeylet(), mintKeylet()
	base.entries[a] = []byte("a")
	base.entries[b] = []byte("b")
	base.entries[keylet.Ticket(a.Key)] = []byte("other type")

	table := NewApplyStateTable(base)
	require.NoError(t, table.Update(a, []byte("a2")))
	require.NoError(t, table.Erase(b))
	require.NoError(t, table.Insert(c, []byte("c")))

	seen := map[[32]byte]string{}
	require.NoError(t, table.ForEach(entry.TypeMint, func(key [32]byte, data []byte) bool {
		seen[key] = string(data)
		return true
	}))
	assert.Equal(t, map[[32]byte]string{a.Key: "a2", c.Key: "c"}, seen)

	n := 0
	require.NoError(t, table.ForEach(entry.TypeMint, func([32]byte, []byte) bool {
		n++
		return false
	}))
	assert.Equal(t, 1, n, "stops early")

	assert.ElementsMatch(t, []keylet.Keylet{a, c}, table.Touched(entry.TypeMint))
}
