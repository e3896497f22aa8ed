package cli

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/LeJamon/restaked/internal/config"
	"github.com/LeJamon/restaked/internal/core/events"
	"github.com/LeJamon/restaked/internal/core/ledger/store"
	"github.com/LeJamon/restaked/internal/core/tx"
	_ "github.com/LeJamon/restaked/internal/core/tx/all"
	"github.com/LeJamon/restaked/internal/storage/compression"
	"github.com/LeJamon/restaked/internal/storage/database"
	"github.com/LeJamon/restaked/internal/storage/database/leveldb"
	"github.com/LeJamon/restaked/internal/storage/database/pebble"
)

// node wires storage, the engine and the event journal from configuration.
type node struct {
	dbs     database.Manager
	store   *store.Store
	engine  *tx.Engine
	journal *events.Journal
}

func openNode(ctx context.Context, cfg *config.Config, log *slog.Logger) (*node, error) {
	n := &node{dbs: newManager(cfg)}

	ledgerDB, err := n.dbs.OpenDB(config.LedgerDB)
	if err != nil {
		return nil, errors.Join(err, n.Close())
	}
	n.store, err = store.New(ledgerDB, store.Config{CacheEntries: cfg.Storage.CacheEntries, Logger: log})
	if err != nil {
		return nil, errors.Join(err, n.Close())
	}

	journalDB, err := n.dbs.OpenDB(config.JournalDB)
	if err != nil {
		return nil, errors.Join(err, n.Close())
	}
	codec, err := compression.Get(cfg.Events.Compression)
	if err != nil {
		return nil, errors.Join(err, n.Close())
	}
	n.journal, err = events.OpenJournal(ctx, journalDB, codec, log)
	if err != nil {
		return nil, errors.Join(fmt.Errorf("open journal: %w", err), n.Close())
	}

	engineCfg := cfg.TxEngineConfig()
	engineCfg.Logger = log
	engineCfg.Publisher = events.NewPublisher()
	engineCfg.Publisher.Subscribe(n.journal.Hooks())
	n.engine, err = tx.NewEngine(n.store, engineCfg)
	if err != nil {
		return nil, errors.Join(fmt.Errorf("create engine: %w", err), n.Close())
	}
	return n, nil
}

func newManager(cfg *config.Config) database.Manager {
	switch cfg.Storage.Backend {
	case config.BackendLevelDB:
		return leveldb.NewManager(cfg.DataDir)
	case config.BackendMemory:
		return pebble.NewMemManager()
	default:
		return pebble.NewManager(cfg.DataDir)
	}
}

func (n *node) Close() error {
	return n.dbs.Close()
}
