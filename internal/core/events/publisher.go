package events

import (
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Record is an event wrapped with the transaction that produced it.
type Record struct {
	Seq       uint64          `json:"seq"`
	TxID      uuid.UUID       `json:"tx_id"`
	TxType    string          `json:"tx_type"`
	Timestamp time.Time       `json:"timestamp"`
	Name      string          `json:"name"`
	Payload   json.RawMessage `json:"payload"`
}

// NewRecord serializes ev into a Record. Seq is assigned by the journal.
func NewRecord(txID uuid.UUID, txType string, ts time.Time, ev Event) (Record, error) {
	payload, err := json.Marshal(ev)
	if err != nil {
		return Record{}, fmt.Errorf("marshal %s: %w", ev.EventName(), err)
	}
	return Record{
		TxID:      txID,
		TxType:    txType,
		Timestamp: ts.UTC(),
		Name:      ev.EventName(),
		Payload:   payload,
	}, nil
}

// TxInfo summarizes one applied transaction for subscribers.
type TxInfo struct {
	ID        uuid.UUID
	Type      string
	Result    string
	Applied   bool
	Timestamp time.Time
}

// EventHooks lets other components subscribe to applied transactions
// without the engine depending on them.
type EventHooks struct {
	// OnTransaction is called once per submitted transaction, applied or not.
	OnTransaction func(info TxInfo)

	// OnEvents is called with the events of an applied transaction, in
	// emission order.
	OnEvents func(info TxInfo, evs []Event)
}

// Publisher fans transaction outcomes out to registered hooks. Hooks run
// synchronously on the caller's goroutine so subscribers observe
// transactions in commit order.
type Publisher struct {
	mu    sync.RWMutex
	hooks []*EventHooks
}

func NewPublisher() *Publisher {
	return &Publisher{}
}

// Subscribe registers hooks; nil callbacks are skipped.
func (p *Publisher) Subscribe(hooks *EventHooks) {
	if hooks == nil {
		return
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	p.hooks = append(p.hooks, hooks)
}

// HasSubscribers returns true if there are any subscribers.
func (p *Publisher) HasSubscribers() bool {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return len(p.hooks) > 0
}

// PublishTransaction notifies every OnTransaction hook.
func (p *Publisher) PublishTransaction(info TxInfo) {
	for _, h := range p.snapshot() {
		if h.OnTransaction != nil {
			h.OnTransaction(info)
		}
	}
}

// PublishEvents notifies every OnEvents hook. Empty batches are dropped.
func (p *Publisher) PublishEvents(info TxInfo, evs []Event) {
	if len(evs) == 0 {
		return
	}
	for _, h := range p.snapshot() {
		if h.OnEvents != nil {
			h.OnEvents(info, evs)
		}
	}
}

func (p *Publisher) snapshot() []*EventHooks {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return append([]*EventHooks(nil), p.hooks...)
}
