package pebble

import (
	"context"
	"errors"
	"fmt"

	"github.com/cockroachdb/pebble"

	"github.com/LeJamon/restaked/internal/storage/database"
)

// DB adapts a pebble database to database.DB. Every write is synced.
type DB struct {
	db *pebble.DB
}

func NewDB(db *pebble.DB) *DB {
	return &DB{db: db}
}

func (d *DB) ready(ctx context.Context) error {
	if d.db == nil {
		return database.ErrDBClosed
	}
	return ctx.Err()
}

func (d *DB) Read(ctx context.Context, key []byte) ([]byte, error) {
	if err := d.ready(ctx); err != nil {
		return nil, err
	}
	val, closer, err := d.db.Get(key)
	if errors.Is(err, pebble.ErrNotFound) {
		return nil, database.ErrKeyNotFound
	}
	if err != nil {
		return nil, err
	}
	defer closer.Close()
	return append([]byte(nil), val...), nil
}

func (d *DB) Write(ctx context.Context, key, value []byte) error {
	if err := d.ready(ctx); err != nil {
		return err
	}
	return d.db.Set(key, value, pebble.Sync)
}

func (d *DB) Delete(ctx context.Context, key []byte) error {
	if err := d.ready(ctx); err != nil {
		return err
	}
	return d.db.Delete(key, pebble.Sync)
}

func (d *DB) Batch(ctx context.Context, ops []database.BatchOperation) error {
	if err := d.ready(ctx); err != nil {
		return err
	}
	b := d.db.NewBatch()
	defer b.Close()

	for _, op := range ops {
		var err error
		switch op.Type {
		case database.BatchPut:
			err = b.Set(op.Key, op.Value, nil)
		case database.BatchDelete:
			err = b.Delete(op.Key, nil)
		default:
			err = fmt.Errorf("%w: %d", database.ErrUnknownBatchOp, op.Type)
		}
		if err != nil {
			return err
		}
	}
	return b.Commit(pebble.Sync)
}

func (d *DB) Iterator(ctx context.Context, start, end []byte) (database.Iterator, error) {
	if err := d.ready(ctx); err != nil {
		return nil, err
	}
	iter, err := d.db.NewIter(&pebble.IterOptions{LowerBound: start, UpperBound: end})
	if err != nil {
		return nil, err
	}
	return &iterator{iter: iter}, nil
}

// iterator copies each entry out of pebble's buffers so callers may keep
// them past the next step.
type iterator struct {
	iter       *pebble.Iterator
	started    bool
	key, value []byte
}

func (it *iterator) Next() bool {
	var ok bool
	if it.started {
		ok = it.iter.Next()
	} else {
		it.started = true
		ok = it.iter.First()
	}
	if !ok {
		return false
	}
	it.key = append([]byte(nil), it.iter.Key()...)
	it.value = append([]byte(nil), it.iter.Value()...)
	return true
}

func (it *iterator) Key() []byte   { return it.key }
func (it *iterator) Value() []byte { return it.value }
func (it *iterator) Error() error  { return it.iter.Error() }
func (it *iterator) Close() error  { return it.iter.Close() }
