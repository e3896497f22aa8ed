package testing

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/gagliardetto/solana-go"
	"github.com/jonboulle/clockwork"

	"github.com/LeJamon/restaked/internal/core/events"
	"github.com/LeJamon/restaked/internal/core/ledger/entry"
	"github.com/LeJamon/restaked/internal/core/ledger/keylet"
	"github.com/LeJamon/restaked/internal/core/ledger/store"
	"github.com/LeJamon/restaked/internal/core/token"
	"github.com/LeJamon/restaked/internal/core/tx"
	"github.com/LeJamon/restaked/internal/storage/database/pebble"
)

// DefaultStart is the fake clock's initial time.
var DefaultStart = time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

// TestEnv manages a test ledger environment for transaction testing.
// Transactions go through a real engine over an in-memory pebble store;
// fixture setup that has no transaction (LST mints, user balances, strategy
// activity) writes to the store directly.
type TestEnv struct {
	t      *testing.T
	store  *store.Store
	engine *tx.Engine
	clock  *clockwork.FakeClock

	published []events.Event
}

// NewTestEnv creates a new test environment with default engine settings.
func NewTestEnv(t *testing.T) *TestEnv {
	t.Helper()
	return NewTestEnvWithConfig(t, tx.EngineConfig{})
}

// NewTestEnvWithConfig creates a test environment with custom engine
// settings. The clock and publisher are always replaced.
func NewTestEnvWithConfig(t *testing.T, cfg tx.EngineConfig) *TestEnv {
	t.Helper()

	mgr := pebble.NewMemManager()
	t.Cleanup(func() { _ = mgr.Close() })
	db, err := mgr.OpenDB("ledger")
	if err != nil {
		t.Fatalf("Failed to open ledger database: %v", err)
	}
	s, err := store.New(db, store.Config{})
	if err != nil {
		t.Fatalf("Failed to create store: %v", err)
	}

	env := &TestEnv{t: t, store: s, clock: clockwork.NewFakeClockAt(DefaultStart)}

	cfg.Clock = env.clock
	cfg.Publisher = events.NewPublisher()
	cfg.Publisher.Subscribe(&events.EventHooks{
		OnEvents: func(_ events.TxInfo, evs []events.Event) {
			env.published = append(env.published, evs...)
		},
	})
	engine, err := tx.NewEngine(s, cfg)
	if err != nil {
		t.Fatalf("Failed to create engine: %v", err)
	}
	env.engine = engine
	return env
}

// Submit applies a transaction through the engine.
func (e *TestEnv) Submit(txn tx.Transaction) TxResult {
	e.t.Helper()
	return newTxResult(e.engine.Apply(context.Background(), txn))
}

// Engine returns the environment's engine.
func (e *TestEnv) Engine() *tx.Engine { return e.engine }

// Store returns the durable store under the engine.
func (e *TestEnv) Store() *store.Store { return e.store }

// Published returns every event delivered to subscribers so far.
func (e *TestEnv) Published() []events.Event { return e.published }

// Now returns the current fake time.
func (e *TestEnv) Now() time.Time { return e.clock.Now() }

// AdvanceTime moves the fake clock forward.
func (e *TestEnv) AdvanceTime(d time.Duration) { e.clock.Advance(d) }

// CreateMint creates a token mint outside of any transaction.
func (e *TestEnv) CreateMint(mint solana.PublicKey) {
	e.t.Helper()
	if err := token.CreateMint(e.store, mint, mint); err != nil {
		e.t.Fatalf("Failed to create mint %s: %v", mint, err)
	}
}

// FundLst mints amount of mint into acc's associated token account.
func (e *TestEnv) FundLst(acc *Account, mint solana.PublicKey, amount uint64) solana.PublicKey {
	e.t.Helper()
	return e.FundAddress(acc.PublicKey, mint, amount)
}

// FundAddress mints amount of mint into owner's associated token account.
func (e *TestEnv) FundAddress(owner, mint solana.PublicKey, amount uint64) solana.PublicKey {
	e.t.Helper()
	addr, err := token.EnsureAccount(e.store, owner, mint)
	if err != nil {
		e.t.Fatalf("Failed to create token account: %v", err)
	}
	if amount > 0 {
		if err := token.MintTo(e.store, mint, addr, amount); err != nil {
			e.t.Fatalf("Failed to fund %s: %v", addr, err)
		}
	}
	return addr
}

// MoveTokens transfers between two token accounts outside of any
// transaction, standing in for activity of external programs.
func (e *TestEnv) MoveTokens(from, to solana.PublicKey, amount uint64) {
	e.t.Helper()
	if err := token.Transfer(e.store, from, to, amount); err != nil {
		e.t.Fatalf("Failed to move %d from %s to %s: %v", amount, from, to, err)
	}
}

// BurnTokens destroys tokens held at from, standing in for a loss suffered
// by an external program.
func (e *TestEnv) BurnTokens(mint, from solana.PublicKey, amount uint64) {
	e.t.Helper()
	if err := token.Burn(e.store, mint, from, amount); err != nil {
		e.t.Fatalf("Failed to burn %d at %s: %v", amount, from, err)
	}
}

// TokenBalance returns acc's balance of mint in its associated account.
func (e *TestEnv) TokenBalance(acc *Account, mint solana.PublicKey) uint64 {
	e.t.Helper()
	return e.Balance(keylet.AssociatedTokenAccount(acc.PublicKey, mint))
}

// Balance returns the amount held by a token account, or 0 when it does
// not exist.
func (e *TestEnv) Balance(addr solana.PublicKey) uint64 {
	e.t.Helper()
	bal, err := token.Balance(e.store, addr)
	if err != nil {
		e.t.Fatalf("Failed to read balance of %s: %v", addr, err)
	}
	return bal
}

// Supply returns the supply of mint.
func (e *TestEnv) Supply(mint solana.PublicKey) uint64 {
	e.t.Helper()
	m, err := token.ReadMint(e.store, mint)
	if err != nil {
		e.t.Fatalf("Failed to read mint %s: %v", mint, err)
	}
	return m.Supply
}

// MainState returns the stored main state.
func (e *TestEnv) MainState(main solana.PublicKey) *entry.MainState {
	e.t.Helper()
	m, err := store.MainState(e.store, main)
	if err != nil {
		e.t.Fatalf("Failed to load main state: %v", err)
	}
	return m
}

// Vault returns the stored vault of lst under main.
func (e *TestEnv) Vault(main, lst solana.PublicKey) *entry.VaultState {
	e.t.Helper()
	v, err := store.Vault(e.store, main, lst)
	if err != nil {
		e.t.Fatalf("Failed to load vault: %v", err)
	}
	return v
}

// Strategy returns the stored bridge entry of an attached strategy.
func (e *TestEnv) Strategy(f *StrategyFixture) *entry.StrategyEntry {
	e.t.Helper()
	s, err := store.Strategy(e.store, f.Main, f.LstMint, f.Address)
	if err != nil {
		e.t.Fatalf("Failed to load strategy: %v", err)
	}
	return s
}

// Ticket returns the stored ticket, or nil once it has been reclaimed.
func (e *TestEnv) Ticket(id solana.PublicKey) *entry.UnstakeTicket {
	e.t.Helper()
	ticket, err := store.Ticket(e.store, id)
	if errors.Is(err, store.ErrNotFound) {
		return nil
	}
	if err != nil {
		e.t.Fatalf("Failed to load ticket: %v", err)
	}
	return ticket
}

// Audit runs the global accounting audit for main.
func (e *TestEnv) Audit(main solana.PublicKey, tolerance uint64) *store.AuditReport {
	e.t.Helper()
	report, err := store.Audit(e.store, main, tolerance)
	if err != nil {
		e.t.Fatalf("Audit failed: %v", err)
	}
	return report
}
