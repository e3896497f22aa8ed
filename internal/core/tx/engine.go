package tx

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"

	"github.com/LeJamon/restaked/internal/core/events"
	"github.com/LeJamon/restaked/internal/core/ledger/entry"
	"github.com/LeJamon/restaked/internal/metrics"
)

// Engine defaults
const (
	DefaultStalenessLimit = 24 * time.Hour

	// DefaultMinMovement is the smallest amount of LST, SOL value or ticket
	// value an operation may move, in base units.
	DefaultMinMovement uint64 = 1_000_000
)

// FeeDefaults are applied by Initialize when the transaction omits a value.
type FeeDefaults struct {
	DepositFeeBp              uint16
	WithdrawFeeBp             uint16
	PerformanceFeeBp          uint16
	UnstakeTicketWaitingHours uint16
}

// DefaultFeeDefaults returns the stock fee schedule.
func DefaultFeeDefaults() FeeDefaults {
	return FeeDefaults{
		DepositFeeBp:              10,
		WithdrawFeeBp:             10,
		PerformanceFeeBp:          1000,
		UnstakeTicketWaitingHours: 48,
	}
}

// Validate checks the defaults against protocol maxima.
func (d FeeDefaults) Validate() error {
	m := entry.MainState{
		DepositFeeBp:     d.DepositFeeBp,
		WithdrawFeeBp:    d.WithdrawFeeBp,
		PerformanceFeeBp: d.PerformanceFeeBp,
	}
	return m.Validate()
}

// EngineConfig holds configuration for the transaction engine
type EngineConfig struct {
	// StalenessLimit is the maximum age of a cached LST price accepted by
	// value-affecting operations
	StalenessLimit time.Duration

	// MinMovement is the minimum deposit, unstake and partial claim size
	MinMovement uint64

	Defaults FeeDefaults

	Clock     clockwork.Clock
	Logger    *slog.Logger
	Publisher *events.Publisher
}

// Validate fills unset fields with defaults and checks the rest.
func (c *EngineConfig) Validate() error {
	if c.StalenessLimit == 0 {
		c.StalenessLimit = DefaultStalenessLimit
	}
	if c.StalenessLimit < 0 {
		return errors.New("staleness limit must be positive")
	}
	if c.MinMovement == 0 {
		c.MinMovement = DefaultMinMovement
	}
	if c.Defaults == (FeeDefaults{}) {
		c.Defaults = DefaultFeeDefaults()
	}
	if err := c.Defaults.Validate(); err != nil {
		return fmt.Errorf("fee defaults: %w", err)
	}
	if c.Clock == nil {
		c.Clock = clockwork.NewRealClock()
	}
	if c.Logger == nil {
		c.Logger = slog.New(slog.DiscardHandler)
	}
	if c.Publisher == nil {
		c.Publisher = events.NewPublisher()
	}
	return nil
}

// ApplyResult contains the result of applying a transaction
type ApplyResult struct {
	ID uuid.UUID `json:"id"`

	Type Type `json:"-"`

	// Result is the transaction result code
	Result Result `json:"result"`

	// Applied indicates if the transaction was applied to the ledger
	Applied bool `json:"applied"`

	// Message is a human-readable result message
	Message string `json:"message"`

	// Detail carries the underlying error of a failed result, if any
	Detail string `json:"detail,omitempty"`

	// Events emitted by an applied transaction, in order
	Events []events.Event `json:"-"`
}

// Err converts a failed result into an error.
func (r ApplyResult) Err() error {
	if r.Result.IsSuccess() {
		return nil
	}
	return &ResultError{Result: r.Result, Detail: r.Detail}
}

// Engine processes transactions against a ledger. Apply calls are
// serialized: each transaction sees everything committed before it.
type Engine struct {
	mu     sync.Mutex
	base   Committer
	config EngineConfig
}

// NewEngine creates an engine over base.
func NewEngine(base Committer, config EngineConfig) (*Engine, error) {
	if base == nil {
		return nil, errors.New("ledger base is required")
	}
	if err := config.Validate(); err != nil {
		return nil, err
	}
	return &Engine{base: base, config: config}, nil
}

// Config returns the validated engine configuration.
func (e *Engine) Config() EngineConfig {
	return e.config
}

// View returns the committed ledger state. Writes must go through Apply.
func (e *Engine) View() LedgerView {
	return e.base
}

// Publisher returns the publisher applied transactions are announced on.
func (e *Engine) Publisher() *events.Publisher {
	return e.config.Publisher
}

// Apply processes a transaction and, on success, commits it to the ledger
func (e *Engine) Apply(ctx context.Context, t Transaction) ApplyResult {
	e.mu.Lock()
	defer e.mu.Unlock()

	start := e.config.Clock.Now()
	res := e.apply(ctx, t, start)

	typeName := t.TxType().String()
	metrics.TransactionsTotal.WithLabelValues(typeName, res.Result.String()).Inc()
	metrics.TransactionDuration.WithLabelValues(typeName).Observe(e.config.Clock.Since(start).Seconds())

	info := events.TxInfo{
		ID:        res.ID,
		Type:      typeName,
		Result:    res.Result.String(),
		Applied:   res.Applied,
		Timestamp: start,
	}
	e.config.Publisher.PublishTransaction(info)
	if res.Applied {
		e.config.Publisher.PublishEvents(info, res.Events)
	}

	e.config.Logger.Debug("transaction processed",
		"id", res.ID, "type", typeName, "result", res.Result.String(), "detail", res.Detail)
	return res
}

func (e *Engine) apply(ctx context.Context, t Transaction, now time.Time) ApplyResult {
	res := ApplyResult{ID: uuid.New(), Type: t.TxType()}
	finish := func(r Result, detail string) ApplyResult {
		res.Result = r
		res.Applied = r.IsApplied()
		res.Message = r.Message()
		res.Detail = detail
		return res
	}

	// Step 1: Preflight checks (syntax validation)
	if err := t.Validate(); err != nil {
		return finish(parseValidationError(err), err.Error())
	}
	appliable, ok := t.(Appliable)
	if !ok {
		return finish(TemUNKNOWN, "")
	}
	if err := ctx.Err(); err != nil {
		return finish(TefFAILURE, err.Error())
	}

	// Step 2: Apply against a state table
	table := NewApplyStateTable(e.base)
	actx := &ApplyContext{
		View:   table,
		Signer: t.GetCommon().Signer,
		Config: e.config,
		TxID:   res.ID,
		Now:    now,
		Logger: e.config.Logger.With("tx_id", res.ID, "tx_type", t.TxType().String()),
	}
	if r := appliable.Apply(actx); !r.IsSuccess() {
		return finish(r, actx.Detail())
	}

	// Step 3: Check invariants on everything the transaction touched
	if err := checkInvariants(table); err != nil {
		e.config.Logger.Error("invariant violation, transaction discarded",
			"id", res.ID, "type", t.TxType().String(), "error", err)
		return finish(TefINVARIANT_FAILED, err.Error())
	}

	// Step 4: Commit atomically
	if err := e.base.Commit(ctx, table.Changes()); err != nil {
		e.config.Logger.Error("failed to commit transaction",
			"id", res.ID, "type", t.TxType().String(), "error", err)
		return finish(TefBAD_LEDGER, err.Error())
	}

	res.Events = actx.Events()
	return finish(TesSUCCESS, "")
}

// parseValidationError extracts a result code from a validation error message.
// If the error message starts with a result token (e.g., "temBAD_AMOUNT:"),
// it returns the corresponding Result. Otherwise, it returns TemINVALID.
func parseValidationError(err error) Result {
	var rerr *ResultError
	if errors.As(err, &rerr) {
		return rerr.Result
	}

	msg := err.Error()
	token := msg
	if i := strings.IndexAny(msg, ": "); i >= 0 {
		token = msg[:i]
	}
	if r, ok := ResultFromToken(token); ok && r.IsTem() {
		return r
	}
	return TemINVALID
}
