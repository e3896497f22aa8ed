package tx

import (
	"bytes"
	"errors"
	"fmt"
	"slices"

	"github.com/LeJamon/restaked/internal/core/ledger/entry"
	"github.com/LeJamon/restaked/internal/core/ledger/keylet"
)

// Action represents the type of modification to a ledger entry
type Action int

const (
	// ActionCache means the entry was read but not modified
	ActionCache Action = iota
	// ActionInsert means a new entry was created
	ActionInsert
	// ActionModify means an existing entry was modified
	ActionModify
	// ActionErase means an entry was deleted
	ActionErase
)

func (a Action) String() string {
	switch a {
	case ActionCache:
		return "cache"
	case ActionInsert:
		return "insert"
	case ActionModify:
		return "modify"
	case ActionErase:
		return "erase"
	default:
		return fmt.Sprintf("Action(%d)", int(a))
	}
}

// Errors returned by the state table on conflicting mutations.
var (
	ErrEntryExists   = errors.New("entry already exists")
	ErrEntryNotFound = errors.New("entry not found")
)

// TrackedEntry represents a ledger entry being tracked for changes
type TrackedEntry struct {
	Action   Action
	Original []byte // Original state (nil for inserts)
	Current  []byte // Current state (state before deletion for erases)
}

// ApplyStateTable wraps a LedgerView and buffers every modification made
// while a single transaction runs. Nothing reaches the base until Apply.
type ApplyStateTable struct {
	base  LedgerView
	items map[keylet.Keylet]*TrackedEntry
}

// NewApplyStateTable creates a new ApplyStateTable wrapping the given base view
func NewApplyStateTable(base LedgerView) *ApplyStateTable {
	return &ApplyStateTable{
		base:  base,
		items: make(map[keylet.Keylet]*TrackedEntry),
	}
}

// Read reads a ledger entry, tracking it as cached
func (t *ApplyStateTable) Read(k keylet.Keylet) ([]byte, error) {
	if item, ok := t.items[k]; ok {
		if item.Action == ActionErase {
			return nil, nil
		}
		return item.Current, nil
	}

	data, err := t.base.Read(k)
	if err != nil {
		return nil, err
	}

	// Only track entries that exist in the base
	if data != nil {
		t.items[k] = &TrackedEntry{
			Action:   ActionCache,
			Original: data,
			Current:  data,
		}
	}
	return data, nil
}

// Exists checks if an entry exists
func (t *ApplyStateTable) Exists(k keylet.Keylet) (bool, error) {
	if item, ok := t.items[k]; ok {
		return item.Action != ActionErase, nil
	}
	return t.base.Exists(k)
}

// Insert adds a new entry
func (t *ApplyStateTable) Insert(k keylet.Keylet, data []byte) error {
	if item, ok := t.items[k]; ok {
		if item.Action != ActionErase {
			return fmt.Errorf("%w: %s", ErrEntryExists, k)
		}
		// Re-inserting a deleted entry becomes a modify
		item.Action = ActionModify
		item.Current = data
		return nil
	}

	exists, err := t.base.Exists(k)
	if err != nil {
		return err
	}
	if exists {
		return fmt.Errorf("%w: %s", ErrEntryExists, k)
	}

	t.items[k] = &TrackedEntry{Action: ActionInsert, Current: data}
	return nil
}

// Update modifies an existing entry
func (t *ApplyStateTable) Update(k keylet.Keylet, data []byte) error {
	if item, ok := t.items[k]; ok {
		if item.Action == ActionErase {
			return fmt.Errorf("%w: %s (deleted)", ErrEntryNotFound, k)
		}
		if item.Action == ActionCache {
			item.Action = ActionModify
		}
		// For insert, keep it as insert with new data
		item.Current = data
		return nil
	}

	original, err := t.base.Read(k)
	if err != nil {
		return err
	}
	if original == nil {
		return fmt.Errorf("%w: %s", ErrEntryNotFound, k)
	}

	t.items[k] = &TrackedEntry{Action: ActionModify, Original: original, Current: data}
	return nil
}

// Erase removes an entry
func (t *ApplyStateTable) Erase(k keylet.Keylet) error {
	if item, ok := t.items[k]; ok {
		switch item.Action {
		case ActionErase:
			return fmt.Errorf("%w: %s (already deleted)", ErrEntryNotFound, k)
		case ActionInsert:
			// Inserting then deleting = no change
			delete(t.items, k)
			return nil
		}
		item.Action = ActionErase
		return nil
	}

	original, err := t.base.Read(k)
	if err != nil {
		return err
	}
	if original == nil {
		return fmt.Errorf("%w: %s", ErrEntryNotFound, k)
	}

	t.items[k] = &TrackedEntry{Action: ActionErase, Original: original, Current: original}
	return nil
}

// ForEach iterates entries of type typ with pending changes overlaid on the base.
func (t *ApplyStateTable) ForEach(typ entry.Type, fn func(key [32]byte, data []byte) bool) error {
	merged := make(map[[32]byte][]byte)
	err := t.base.ForEach(typ, func(key [32]byte, data []byte) bool {
		merged[key] = data
		return true
	})
	if err != nil {
		return err
	}
	for k, item := range t.items {
		if k.Type != typ {
			continue
		}
		if item.Action == ActionErase {
			delete(merged, k.Key)
			continue
		}
		merged[k.Key] = item.Current
	}

	keys := make([][32]byte, 0, len(merged))
	for key := range merged {
		keys = append(keys, key)
	}
	slices.SortFunc(keys, func(a, b [32]byte) int { return bytes.Compare(a[:], b[:]) })
	for _, key := range keys {
		if !fn(key, merged[key]) {
			return nil
		}
	}
	return nil
}

// Touched returns the keylets of every inserted or modified entry of type typ.
func (t *ApplyStateTable) Touched(typ entry.Type) []keylet.Keylet {
	var out []keylet.Keylet
	for k, item := range t.items {
		if k.Type == typ && (item.Action == ActionInsert || item.Action == ActionModify) {
			out = append(out, k)
		}
	}
	sortKeylets(out)
	return out
}

// Changes returns the pending mutations ordered by keylet. Cached reads and
// modifications that restored the original bytes are dropped.
func (t *ApplyStateTable) Changes() []Change {
	changes := make([]Change, 0, len(t.items))
	for k, item := range t.items {
		switch item.Action {
		case ActionCache:
			continue
		case ActionModify:
			if bytes.Equal(item.Original, item.Current) {
				continue
			}
		}
		c := Change{Keylet: k, Action: item.Action}
		if item.Action != ActionErase {
			c.Data = item.Current
		}
		changes = append(changes, c)
	}
	slices.SortFunc(changes, func(a, b Change) int { return compareKeylets(a.Keylet, b.Keylet) })
	return changes
}

// Apply writes pending changes into the base view. The engine normally
// commits through a Committer instead; Apply serves nested views.
func (t *ApplyStateTable) Apply() error {
	for _, c := range t.Changes() {
		var err error
		switch c.Action {
		case ActionInsert:
			err = t.base.Insert(c.Keylet, c.Data)
		case ActionModify:
			err = t.base.Update(c.Keylet, c.Data)
		case ActionErase:
			err = t.base.Erase(c.Keylet)
		}
		if err != nil {
			return fmt.Errorf("apply %s %s: %w", c.Action, c.Keylet, err)
		}
	}
	return nil
}

// Discard drops every pending change.
func (t *ApplyStateTable) Discard() {
	clear(t.items)
}

func compareKeylets(a, b keylet.Keylet) int {
	if a.Type != b.Type {
		if a.Type < b.Type {
			return -1
		}
		return 1
	}
	return bytes.Compare(a.Key[:], b.Key[:])
}

func sortKeylets(ks []keylet.Keylet) {
	slices.SortFunc(ks, compareKeylets)
}
