package tx

import (
	"log/slog"
	"time"

	"github.com/gagliardetto/solana-go"
	"github.com/google/uuid"

	"github.com/LeJamon/restaked/internal/core/events"
)

// ApplyContext provides all the state and helpers needed to apply a transaction.
// It is passed to Appliable.Apply() instead of individual parameters.
type ApplyContext struct {
	// View provides read/write access to ledger state (the ApplyStateTable)
	View LedgerView

	// Signer is the identity that authorized the transaction
	Signer solana.PublicKey

	// Config holds engine configuration (staleness limit, minimum movement, fee defaults)
	Config EngineConfig

	// TxID identifies this application in results, events and logs
	TxID uuid.UUID

	// Now is the engine clock reading taken once when the transaction started
	Now time.Time

	Logger *slog.Logger

	events []events.Event
	detail string
}

// UnixNow returns Now in unix seconds.
func (ctx *ApplyContext) UnixNow() int64 {
	return ctx.Now.Unix()
}

// Emit queues an event. Events are published only if the transaction commits.
func (ctx *ApplyContext) Emit(ev events.Event) {
	ctx.events = append(ctx.events, ev)
}

// Events returns the queued events in emission order.
func (ctx *ApplyContext) Events() []events.Event {
	return ctx.events
}

// Fail records err as the detail of a failed result and returns r.
func (ctx *ApplyContext) Fail(r Result, err error) Result {
	if err != nil {
		ctx.detail = err.Error()
	}
	return r
}

// Detail returns the text recorded by Fail.
func (ctx *ApplyContext) Detail() string {
	return ctx.detail
}
