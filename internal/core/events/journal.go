package events

import (
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/LeJamon/restaked/internal/storage/compression"
	"github.com/LeJamon/restaked/internal/storage/database"
)

var journalPrefix = []byte("ev/")

// Journal is an append-only, sequence-numbered event log on top of a
// key-value store. Payloads are compressed with the configured codec.
type Journal struct {
	db     database.DB
	codec  compression.Compressor
	logger *slog.Logger

	mu   sync.Mutex
	next uint64

	subMu     sync.RWMutex
	subs      map[int]func([]Record)
	nextSubID int
}

// OpenJournal resumes the sequence from the last stored record.
func OpenJournal(ctx context.Context, db database.DB, codec compression.Compressor, logger *slog.Logger) (*Journal, error) {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	j := &Journal{db: db, codec: codec, logger: logger, next: 1, subs: make(map[int]func([]Record))}

	it, err := database.Scan(ctx, db, journalPrefix, nil)
	if err != nil {
		return nil, fmt.Errorf("open journal: %w", err)
	}
	defer it.Close()
	for it.Next() {
		j.next = seqFromKey(it.Key()) + 1
	}
	if err := it.Error(); err != nil {
		return nil, fmt.Errorf("open journal: %w", err)
	}
	return j, nil
}

// Append stores the events of one transaction in a single batch and returns
// the assigned records.
func (j *Journal) Append(ctx context.Context, info TxInfo, evs []Event) ([]Record, error) {
	j.mu.Lock()
	defer j.mu.Unlock()

	records := make([]Record, 0, len(evs))
	ops := make([]database.BatchOperation, 0, len(evs))
	seq := j.next
	for _, ev := range evs {
		rec, err := NewRecord(info.ID, info.Type, info.Timestamp, ev)
		if err != nil {
			return nil, err
		}
		rec.Seq = seq
		raw, err := encodeRecord(rec)
		if err != nil {
			return nil, err
		}
		value, err := j.codec.Compress(raw)
		if err != nil {
			return nil, err
		}
		ops = append(ops, database.Put(seqKey(seq), value))
		records = append(records, rec)
		seq++
	}
	if err := j.db.Batch(ctx, ops); err != nil {
		return nil, fmt.Errorf("append events: %w", err)
	}
	j.next = seq
	return records, nil
}

// List returns up to limit records starting at sequence from.
func (j *Journal) List(ctx context.Context, from uint64, limit int) ([]Record, error) {
	if from == 0 {
		from = 1
	}
	it, err := database.Scan(ctx, j.db, journalPrefix, seqKey(from))
	if err != nil {
		return nil, err
	}
	defer it.Close()

	var out []Record
	for len(out) < limit && it.Next() {
		raw, err := j.codec.Decompress(it.Value())
		if err != nil {
			return nil, fmt.Errorf("event %d: %w", seqFromKey(it.Key()), err)
		}
		rec, err := decodeRecord(raw)
		if err != nil {
			return nil, fmt.Errorf("event %d: %w", seqFromKey(it.Key()), err)
		}
		out = append(out, rec)
	}
	return out, it.Error()
}

// Get returns the record with sequence seq.
func (j *Journal) Get(ctx context.Context, seq uint64) (Record, error) {
	value, err := j.db.Read(ctx, seqKey(seq))
	if err != nil {
		return Record{}, err
	}
	raw, err := j.codec.Decompress(value)
	if err != nil {
		return Record{}, err
	}
	return decodeRecord(raw)
}

// NextSeq is the sequence the next appended event will receive.
func (j *Journal) NextSeq() uint64 {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.next
}

// Hooks returns subscriber hooks that append every published batch.
// Append failures are logged; the journal never blocks a committed
// transaction.
func (j *Journal) Hooks() *EventHooks {
	return &EventHooks{
		OnEvents: func(info TxInfo, evs []Event) {
			records, err := j.Append(context.Background(), info, evs)
			if err != nil {
				j.logger.Error("failed to journal events", "tx_id", info.ID, "tx_type", info.Type, "error", err)
				return
			}
			j.notify(records)
		},
	}
}

// Subscribe registers fn to receive every batch of records appended through
// Hooks, in sequence order. fn runs on the committing goroutine and must not
// block. The returned function removes the subscription.
func (j *Journal) Subscribe(fn func([]Record)) (cancel func()) {
	j.subMu.Lock()
	defer j.subMu.Unlock()
	id := j.nextSubID
	j.nextSubID++
	j.subs[id] = fn
	return func() {
		j.subMu.Lock()
		delete(j.subs, id)
		j.subMu.Unlock()
	}
}

func (j *Journal) notify(records []Record) {
	j.subMu.RLock()
	defer j.subMu.RUnlock()
	for _, fn := range j.subs {
		fn(records)
	}
}

func seqKey(seq uint64) []byte {
	key := make([]byte, len(journalPrefix)+8)
	copy(key, journalPrefix)
	binary.BigEndian.PutUint64(key[len(journalPrefix):], seq)
	return key
}

func seqFromKey(key []byte) uint64 {
	if len(key) != len(journalPrefix)+8 {
		return 0
	}
	return binary.BigEndian.Uint64(key[len(journalPrefix):])
}

// IsNotFound reports whether err means a record does not exist.
func IsNotFound(err error) bool {
	return errors.Is(err, database.ErrKeyNotFound)
}
