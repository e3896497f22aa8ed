// Package relationaldb mirrors the event journal into a SQL database so the
// pool-share price series can be queried with ordinary SQL tooling.
package relationaldb

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	_ "github.com/lib/pq" // PostgreSQL driver
	_ "modernc.org/sqlite"

	"github.com/LeJamon/restaked/internal/core/events"
)

const schema = `CREATE TABLE IF NOT EXISTS restake_events (
	seq          BIGINT PRIMARY KEY,
	tx_id        TEXT NOT NULL,
	tx_type      TEXT NOT NULL,
	timestamp_ns BIGINT NOT NULL,
	name         TEXT NOT NULL,
	payload      TEXT NOT NULL
)`

const nameIndex = `CREATE INDEX IF NOT EXISTS restake_events_name ON restake_events (name, seq)`

// Source is the journal side of an export.
type Source interface {
	List(ctx context.Context, from uint64, limit int) ([]events.Record, error)
}

// ExportResult summarizes one Export call.
type ExportResult struct {
	Exported int    `json:"exported"`
	FirstSeq uint64 `json:"first_seq,omitempty"`
	LastSeq  uint64 `json:"last_seq,omitempty"`
}

// EventStore is a SQL table of journal records keyed by sequence.
type EventStore struct {
	db  *sql.DB
	cfg Config
	log *slog.Logger
}

// Open connects to the database and creates the schema if needed.
func Open(ctx context.Context, cfg Config, log *slog.Logger) (*EventStore, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if log == nil {
		log = slog.New(slog.DiscardHandler)
	}

	db, err := sql.Open(cfg.Driver, cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", cfg.Driver, err)
	}
	db.SetMaxOpenConns(cfg.MaxOpenConns)
	if cfg.Driver == DriverSQLite {
		// single writer
		db.SetMaxOpenConns(1)
	}

	ctx, cancel := context.WithTimeout(ctx, cfg.Timeout)
	defer cancel()
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping %s: %w", cfg.Driver, err)
	}
	for _, stmt := range []string{schema, nameIndex} {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("init schema: %w", err)
		}
	}
	return &EventStore{db: db, cfg: cfg, log: log}, nil
}

func (s *EventStore) Close() error {
	return s.db.Close()
}

// placeholder returns the n-th (1-based) bind parameter for the driver.
func (s *EventStore) placeholder(n int) string {
	if s.cfg.Driver == DriverPostgres {
		return "$" + strconv.Itoa(n)
	}
	return "?"
}

func (s *EventStore) placeholders(from, count int) string {
	ps := make([]string, count)
	for i := range ps {
		ps[i] = s.placeholder(from + i)
	}
	return strings.Join(ps, ", ")
}

// LastSeq returns the highest exported sequence, or 0 for an empty table.
func (s *EventStore) LastSeq(ctx context.Context) (uint64, error) {
	var last sql.NullInt64
	if err := s.db.QueryRowContext(ctx, `SELECT MAX(seq) FROM restake_events`).Scan(&last); err != nil {
		return 0, fmt.Errorf("last seq: %w", err)
	}
	if !last.Valid {
		return 0, nil
	}
	return uint64(last.Int64), nil
}

// Export copies journal records into the table, one transaction per batch.
// With from == 0 it resumes after the last exported sequence. Records that
// are already present are left untouched.
func (s *EventStore) Export(ctx context.Context, src Source, from uint64) (ExportResult, error) {
	var res ExportResult
	if from == 0 {
		last, err := s.LastSeq(ctx)
		if err != nil {
			return res, err
		}
		from = last + 1
	}

	insert := `INSERT INTO restake_events (seq, tx_id, tx_type, timestamp_ns, name, payload) VALUES (` +
		s.placeholders(1, 6) + `) ON CONFLICT (seq) DO NOTHING`

	for {
		page, err := src.List(ctx, from, s.cfg.BatchSize)
		if err != nil {
			return res, fmt.Errorf("read journal from %d: %w", from, err)
		}
		if len(page) == 0 {
			return res, nil
		}
		if err := s.insertBatch(ctx, insert, page); err != nil {
			return res, err
		}
		if res.Exported == 0 {
			res.FirstSeq = page[0].Seq
		}
		res.Exported += len(page)
		res.LastSeq = page[len(page)-1].Seq
		from = res.LastSeq + 1
		s.log.Debug("relationaldb: exported batch", "records", len(page), "last_seq", res.LastSeq)
		if len(page) < s.cfg.BatchSize {
			return res, nil
		}
	}
}

func (s *EventStore) insertBatch(ctx context.Context, insert string, page []events.Record) (err error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer func() {
		if err != nil {
			err = errors.Join(err, tx.Rollback())
		}
	}()

	stmt, err := tx.PrepareContext(ctx, insert)
	if err != nil {
		return fmt.Errorf("prepare insert: %w", err)
	}
	defer stmt.Close()

	for _, rec := range page {
		if rec.Seq > 1<<63-1 {
			return fmt.Errorf("seq %d out of range", rec.Seq)
		}
		_, err := stmt.ExecContext(ctx, int64(rec.Seq), rec.TxID.String(), rec.TxType,
			rec.Timestamp.UnixNano(), rec.Name, string(rec.Payload))
		if err != nil {
			return fmt.Errorf("insert seq %d: %w", rec.Seq, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}

// Query returns up to limit exported records with seq >= from, optionally
// restricted to one event name.
func (s *EventStore) Query(ctx context.Context, name string, from uint64, limit int) ([]events.Record, error) {
	q := `SELECT seq, tx_id, tx_type, timestamp_ns, name, payload FROM restake_events WHERE seq >= ` + s.placeholder(1)
	args := []any{int64(from)}
	if name != "" {
		q += ` AND name = ` + s.placeholder(2)
		args = append(args, name)
	}
	q += ` ORDER BY seq LIMIT ` + s.placeholder(len(args)+1)
	args = append(args, limit)

	rows, err := s.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("query events: %w", err)
	}
	defer rows.Close()

	var out []events.Record
	for rows.Next() {
		var (
			rec     events.Record
			seq, ns int64
			txID    string
			payload string
		)
		if err := rows.Scan(&seq, &txID, &rec.TxType, &ns, &rec.Name, &payload); err != nil {
			return nil, fmt.Errorf("scan event: %w", err)
		}
		if rec.TxID, err = uuid.Parse(txID); err != nil {
			return nil, fmt.Errorf("event %d tx id: %w", seq, err)
		}
		rec.Seq = uint64(seq)
		rec.Timestamp = time.Unix(0, ns).UTC()
		rec.Payload = []byte(payload)
		out = append(out, rec)
	}
	return out, rows.Err()
}
