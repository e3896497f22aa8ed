package tx

import (
	"context"

	"github.com/LeJamon/restaked/internal/core/ledger/entry"
	"github.com/LeJamon/restaked/internal/core/ledger/keylet"
)

// LedgerView provides read/write access to ledger state
type LedgerView interface {
	// Read reads a ledger entry; a missing entry yields (nil, nil)
	Read(k keylet.Keylet) ([]byte, error)

	// Exists checks if an entry exists
	Exists(k keylet.Keylet) (bool, error)

	// Insert adds a new entry
	Insert(k keylet.Keylet, data []byte) error

	// Update modifies an existing entry
	Update(k keylet.Keylet, data []byte) error

	// Erase removes an entry
	Erase(k keylet.Keylet) error

	// ForEach iterates over all entries of one type in key order.
	// If fn returns false, iteration stops early
	ForEach(t entry.Type, fn func(key [32]byte, data []byte) bool) error
}

// Change is one mutation produced by an applied transaction.
type Change struct {
	Keylet keylet.Keylet
	Action Action
	Data   []byte
}

// Committer is the durable base an engine applies transactions on top of.
type Committer interface {
	LedgerView

	// Commit writes all changes atomically.
	Commit(ctx context.Context, changes []Change) error
}
