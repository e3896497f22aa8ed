package cli

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/LeJamon/restaked/internal/config"
	"github.com/LeJamon/restaked/internal/keeper"
	"github.com/LeJamon/restaked/internal/metrics"
	"github.com/LeJamon/restaked/internal/retry"
	"github.com/LeJamon/restaked/internal/server"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the ledger over HTTP and run the keeper",
	Long: `Open the ledger, serve the HTTP API and, when [keeper] is enabled,
refresh vault prices and strategy holdings on a fixed interval.`,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().String("listen", "", "override [server] listen address")
	serveCmd.Flags().Bool("no-keeper", false, "do not run the keeper even if enabled")
}

func runServe(cmd *cobra.Command, _ []string) error {
	cfg, log, err := loadConfig()
	if err != nil {
		return err
	}
	if listen, _ := cmd.Flags().GetString("listen"); listen != "" {
		cfg.Server.Listen = listen
	}
	if skip, _ := cmd.Flags().GetBool("no-keeper"); skip {
		cfg.Keeper.Enabled = false
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	metrics.BuildInfo.WithLabelValues(Version, Commit, Date).Set(1)

	n, err := openNode(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer func() {
		if err := n.Close(); err != nil {
			log.Error("serve: close databases", "error", err)
		}
	}()
	log.Info("serve: ledger opened",
		"data_dir", cfg.DataDir, "backend", cfg.Storage.Backend, "next_event", n.journal.NextSeq())

	srv, err := server.New(server.Config{
		Listen:       cfg.Server.Listen,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		Logger:       log,
		Engine:       n.engine,
		Journal:      n.journal,
	})
	if err != nil {
		return fmt.Errorf("create server: %w", err)
	}

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error { return srv.Run(ctx) })

	if cfg.Keeper.Enabled {
		k, err := newKeeper(cfg, n)
		if err != nil {
			return fmt.Errorf("create keeper: %w", err)
		}
		log.Info("serve: keeper enabled", "rpc", cfg.Keeper.RPCEndpoint, "interval", cfg.Keeper.Interval)
		g.Go(func() error { return k.Run(ctx) })
	}

	return g.Wait()
}

func newKeeper(cfg *config.Config, n *node) (*keeper.Keeper, error) {
	signer, main, err := cfg.Keeper.Identities()
	if err != nil {
		return nil, err
	}
	pools, err := cfg.Keeper.PoolAddresses()
	if err != nil {
		return nil, err
	}
	log := n.engine.Config().Logger.With("component", "keeper")

	retryCfg := retry.DefaultConfig()
	retryCfg.MaxAttempts = cfg.Keeper.MaxAttempts

	return keeper.New(keeper.Config{
		Logger:      log,
		Engine:      n.engine,
		Fetcher:     keeper.NewRPCFetcher(cfg.Keeper.RPCEndpoint, cfg.Keeper.RPS, retryCfg),
		Signer:      signer,
		MainState:   main,
		StakePools:  pools,
		Interval:    cfg.Keeper.Interval,
		Concurrency: cfg.Keeper.Concurrency,
	})
}
