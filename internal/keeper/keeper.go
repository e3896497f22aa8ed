// Package keeper keeps vault prices and strategy holdings current by
// periodically reading external accounts and submitting crank transactions.
package keeper

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/gagliardetto/solana-go"
	"github.com/jonboulle/clockwork"
	"golang.org/x/sync/errgroup"

	"github.com/LeJamon/restaked/internal/core/external"
	"github.com/LeJamon/restaked/internal/core/ledger/entry"
	"github.com/LeJamon/restaked/internal/core/ledger/store"
	"github.com/LeJamon/restaked/internal/core/oracle"
	"github.com/LeJamon/restaked/internal/core/tx"
	"github.com/LeJamon/restaked/internal/core/tx/restake"
	"github.com/LeJamon/restaked/internal/metrics"
)

// Crank names used in logs and metrics
const (
	CrankPrices     = "prices"
	CrankStrategies = "strategies"
)

// Engine is the part of the transaction engine the keeper drives.
type Engine interface {
	Apply(ctx context.Context, t tx.Transaction) tx.ApplyResult
	View() tx.LedgerView
}

type Config struct {
	Logger  *slog.Logger
	Clock   clockwork.Clock
	Engine  Engine
	Fetcher Fetcher

	// Signer is recorded on every crank transaction
	Signer    solana.PublicKey
	MainState solana.PublicKey

	// StakePools maps a stake pool LST mint to its pool account
	StakePools map[solana.PublicKey]solana.PublicKey

	Interval    time.Duration
	Concurrency int
}

func (cfg *Config) Validate() error {
	if cfg.Engine == nil {
		return errors.New("engine is required")
	}
	if cfg.Fetcher == nil {
		return errors.New("fetcher is required")
	}
	if cfg.Signer.IsZero() {
		return errors.New("signer is required")
	}
	if cfg.MainState.IsZero() {
		return errors.New("main state is required")
	}
	if cfg.Interval <= 0 {
		return errors.New("interval must be greater than 0")
	}
	if cfg.Concurrency <= 0 {
		cfg.Concurrency = 4
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.New(slog.DiscardHandler)
	}
	if cfg.Clock == nil {
		cfg.Clock = clockwork.NewRealClock()
	}
	return nil
}

// CrankReport counts the outcomes of one crank pass.
type CrankReport struct {
	Submitted int
	Skipped   int
	Failed    int
}

// Report is the outcome of one tick.
type Report struct {
	Prices     CrankReport
	Strategies CrankReport
}

type Keeper struct {
	log *slog.Logger
	cfg Config
}

func New(cfg Config) (*Keeper, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &Keeper{log: cfg.Logger, cfg: cfg}, nil
}

// Run ticks immediately and then every interval until ctx is done.
func (k *Keeper) Run(ctx context.Context) error {
	k.log.Info("keeper: starting", "interval", k.cfg.Interval, "main", k.cfg.MainState)

	k.safeTick(ctx)

	ticker := k.cfg.Clock.NewTicker(k.cfg.Interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.Chan():
			k.safeTick(ctx)
		}
	}
}

func (k *Keeper) safeTick(ctx context.Context) {
	defer func() {
		if r := recover(); r != nil {
			k.log.Error("keeper: tick panicked", "panic", r)
			metrics.CrankRunsTotal.WithLabelValues("tick", "panic").Inc()
		}
	}()

	if _, err := k.Tick(ctx); err != nil {
		if errors.Is(err, context.Canceled) {
			return
		}
		k.log.Error("keeper: tick failed", "error", err)
	}
}

// Tick refreshes every vault price of the main state, then reconciles every
// attached strategy. Prices go first so reconciliation sees a fresh price.
func (k *Keeper) Tick(ctx context.Context) (Report, error) {
	var report Report
	var err error

	if report.Prices, err = k.crank(ctx, CrankPrices, k.priceJobs); err != nil {
		return report, err
	}
	if report.Strategies, err = k.crank(ctx, CrankStrategies, k.strategyJobs); err != nil {
		return report, err
	}
	k.publishGauges()
	return report, nil
}

// job is one crank transaction waiting for its external account.
type job struct {
	name  string
	addr  solana.PublicKey // zero when no account is needed
	build func(state *external.Account) tx.Transaction

	state *external.Account
	err   error
}

func (k *Keeper) crank(ctx context.Context, name string, plan func() ([]*job, int, error)) (CrankReport, error) {
	start := k.cfg.Clock.Now()
	defer func() {
		metrics.CrankDuration.WithLabelValues(name).Observe(k.cfg.Clock.Since(start).Seconds())
	}()

	jobs, skipped, err := plan()
	if err != nil {
		metrics.CrankRunsTotal.WithLabelValues(name, "error").Inc()
		return CrankReport{}, fmt.Errorf("%s: plan: %w", name, err)
	}
	report := CrankReport{Skipped: skipped}

	k.fetchAll(ctx, jobs)
	if err := ctx.Err(); err != nil {
		return report, err
	}

	for _, j := range jobs {
		if j.err != nil {
			report.Failed++
			k.log.Warn("keeper: fetch failed", "crank", name, "job", j.name, "account", j.addr, "error", j.err)
			continue
		}
		res := k.cfg.Engine.Apply(ctx, j.build(j.state))
		if !res.Result.IsSuccess() {
			report.Failed++
			k.log.Warn("keeper: crank rejected", "crank", name, "job", j.name,
				"result", res.Result.String(), "detail", res.Detail)
			continue
		}
		report.Submitted++
	}

	status := "ok"
	if report.Failed > 0 {
		status = "partial"
	}
	metrics.CrankRunsTotal.WithLabelValues(name, status).Inc()
	k.log.Debug("keeper: crank completed", "crank", name,
		"submitted", report.Submitted, "skipped", report.Skipped, "failed", report.Failed)
	return report, nil
}

// fetchAll loads the account of every job concurrently. Failures stay on
// the job so one bad account does not hold up the rest.
func (k *Keeper) fetchAll(ctx context.Context, jobs []*job) {
	var g errgroup.Group
	g.SetLimit(k.cfg.Concurrency)
	for _, j := range jobs {
		if j.addr.IsZero() {
			continue
		}
		g.Go(func() error {
			acct, err := k.cfg.Fetcher.FetchAccount(ctx, j.addr)
			if err != nil {
				j.err = err
				return nil
			}
			j.state = &acct
			return nil
		})
	}
	_ = g.Wait()
}

func (k *Keeper) priceJobs() ([]*job, int, error) {
	vaults, err := store.Vaults(k.cfg.Engine.View(), k.cfg.MainState)
	if err != nil {
		return nil, 0, err
	}
	var (
		jobs    []*job
		skipped int
	)
	for _, v := range vaults {
		lst := v.LstMint
		j := &job{
			name: lst.String(),
			build: func(state *external.Account) tx.Transaction {
				return restake.NewUpdateVaultPrice(k.cfg.Signer, k.cfg.MainState, lst, state)
			},
		}
		if oracle.FamilyOf(lst).RequiresState() {
			addr, ok := k.stateAddress(lst)
			if !ok {
				skipped++
				k.log.Warn("keeper: no pricing account configured", "lst_mint", lst)
				continue
			}
			j.addr = addr
		}
		jobs = append(jobs, j)
	}
	return jobs, skipped, nil
}

func (k *Keeper) stateAddress(lst solana.PublicKey) (solana.PublicKey, bool) {
	if addr, ok := oracle.StateAddress(lst); ok {
		return addr, true
	}
	addr, ok := k.cfg.StakePools[lst]
	return addr, ok
}

func (k *Keeper) strategyJobs() ([]*job, int, error) {
	bridges, err := store.Strategies(k.cfg.Engine.View(), k.cfg.MainState, solana.PublicKey{})
	if err != nil {
		return nil, 0, err
	}
	jobs := make([]*job, 0, len(bridges))
	for _, b := range bridges {
		lst := b.LstMint
		jobs = append(jobs, &job{
			name: b.StrategyState.String(),
			addr: b.StrategyState,
			build: func(state *external.Account) tx.Transaction {
				return restake.NewUpdateStrategyAmount(k.cfg.Signer, k.cfg.MainState, lst, *state)
			},
		})
	}
	return jobs, 0, nil
}

// publishGauges exports the accounting state after a tick.
func (k *Keeper) publishGauges() {
	view := k.cfg.Engine.View()
	report, err := store.Audit(view, k.cfg.MainState, 0)
	if err != nil {
		k.log.Warn("keeper: audit failed", "error", err)
		return
	}
	main := k.cfg.MainState.String()
	metrics.BackingSolValue.WithLabelValues(main).Set(float64(report.BackingSolValue))
	metrics.ShareSupply.WithLabelValues(main).Set(float64(report.ShareSupply))
	metrics.OutstandingTicketsSolValue.WithLabelValues(main).Set(float64(report.OutstandingTicketsSolValue))
	if !report.OK {
		k.log.Warn("keeper: audit reports problems", "deficit", report.Deficit, "vaults", len(report.Vaults))
	}

	vaults, err := store.Vaults(view, k.cfg.MainState)
	if err != nil {
		return
	}
	for _, v := range vaults {
		exportVault(v)
	}
}

func exportVault(v *entry.VaultState) {
	lst := v.LstMint.String()
	metrics.VaultLstAmount.WithLabelValues(lst, "local").Set(float64(v.LocallyStoredAmount))
	metrics.VaultLstAmount.WithLabelValues(lst, "strategies").Set(float64(v.InStrategiesAmount))
	metrics.VaultPriceScaled.WithLabelValues(lst).Set(float64(v.LstSolPriceScaled))
}
