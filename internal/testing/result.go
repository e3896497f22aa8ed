package testing

import (
	"github.com/LeJamon/restaked/internal/core/events"
	"github.com/LeJamon/restaked/internal/core/tx"
)

// TxResult represents the result of applying a transaction.
type TxResult struct {
	// Code is the engine result token (e.g., "tesSUCCESS").
	Code string

	Result tx.Result

	// Success indicates whether the transaction was successfully applied.
	Success bool

	// Message is the result's description; Detail is the underlying error.
	Message string
	Detail  string

	Events []events.Event
}

func newTxResult(r tx.ApplyResult) TxResult {
	return TxResult{
		Code:    r.Result.String(),
		Result:  r.Result,
		Success: r.Result.IsSuccess(),
		Message: r.Message,
		Detail:  r.Detail,
		Events:  r.Events,
	}
}

// Event returns the first event of type T carried by the result.
func Event[T events.Event](r TxResult) (T, bool) {
	for _, ev := range r.Events {
		if typed, ok := ev.(T); ok {
			return typed, true
		}
	}
	var zero T
	return zero, false
}
