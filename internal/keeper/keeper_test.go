package keeper_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/gagliardetto/solana-go"
	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/LeJamon/restaked/internal/core/external"
	"github.com/LeJamon/restaked/internal/keeper"
	jtx "github.com/LeJamon/restaked/internal/testing"
	"github.com/LeJamon/restaked/internal/testing/builders"
)

type fakeFetcher struct {
	mu       sync.Mutex
	accounts map[solana.PublicKey]func() external.Account
	failing  map[solana.PublicKey]error
	calls    int
}

func newFakeFetcher() *fakeFetcher {
	return &fakeFetcher{
		accounts: map[solana.PublicKey]func() external.Account{},
		failing:  map[solana.PublicKey]error{},
	}
}

func (f *fakeFetcher) FetchAccount(_ context.Context, addr solana.PublicKey) (external.Account, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	if err := f.failing[addr]; err != nil {
		return external.Account{}, err
	}
	get, ok := f.accounts[addr]
	if !ok {
		return external.Account{}, keeper.ErrAccountNotFound
	}
	return get(), nil
}

func (f *fakeFetcher) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

type fixture struct {
	env     *jtx.TestEnv
	p       *jtx.Protocol
	wsol    solana.PublicKey
	pool    *jtx.StakePoolFixture
	strat   *jtx.StrategyFixture
	fetcher *fakeFetcher
}

// newFixture opens a parity vault and a stake pool vault, stakes into both
// and moves 4 SOL of wrapped SOL into a strategy.
func newFixture(t *testing.T) *fixture {
	t.Helper()
	env := jtx.NewTestEnv(t)
	p := env.SetupProtocol()
	wsol := env.AddParityVault(p)
	pool := env.AddStakePoolVault(p, "jito", 1250, 1000)

	alice := jtx.NewAccount("alice")
	env.FundLst(alice, wsol, jtx.SOL(10))
	jtx.RequireTxSuccess(t, env.Submit(builders.Stake(alice.PublicKey, p.Main, wsol, jtx.SOL(10)).Build()))
	bob := jtx.NewAccount("bob")
	env.FundLst(bob, pool.Mint, jtx.SOL(8))
	jtx.RequireTxSuccess(t, env.Submit(builders.Stake(bob.PublicKey, p.Main, pool.Mint, jtx.SOL(8)).Build()))

	s := env.AttachStrategy(p, wsol, "restaking")
	jtx.RequireTxSuccess(t, env.Submit(builders.TransferToStrategy(p.Rebalancer.PublicKey, p.Main, wsol, s.Address, jtx.SOL(4))))
	s.Reported = jtx.SOL(4)

	fetcher := newFakeFetcher()
	fetcher.accounts[pool.Address] = pool.Account
	fetcher.accounts[s.Address] = s.Account
	return &fixture{env: env, p: p, wsol: wsol, pool: pool, strat: s, fetcher: fetcher}
}

func (f *fixture) keeper(t *testing.T, clock clockwork.Clock) *keeper.Keeper {
	t.Helper()
	k, err := keeper.New(keeper.Config{
		Clock:      clock,
		Engine:     f.env.Engine(),
		Fetcher:    f.fetcher,
		Signer:     f.p.Keeper.PublicKey,
		MainState:  f.p.Main,
		StakePools: map[solana.PublicKey]solana.PublicKey{f.pool.Mint: f.pool.Address},
		Interval:   time.Minute,
	})
	require.NoError(t, err)
	return k
}

func TestConfigValidate(t *testing.T) {
	base := func() keeper.Config {
		return keeper.Config{
			Engine:    jtx.NewTestEnv(t).Engine(),
			Fetcher:   newFakeFetcher(),
			Signer:    jtx.Key("signer"),
			MainState: jtx.Key("main"),
			Interval:  time.Minute,
		}
	}

	tests := []struct {
		name   string
		mutate func(*keeper.Config)
		errMsg string
	}{
		{name: "valid", mutate: func(*keeper.Config) {}},
		{name: "no engine", mutate: func(c *keeper.Config) { c.Engine = nil }, errMsg: "engine"},
		{name: "no fetcher", mutate: func(c *keeper.Config) { c.Fetcher = nil }, errMsg: "fetcher"},
		{name: "no signer", mutate: func(c *keeper.Config) { c.Signer = solana.PublicKey{} }, errMsg: "signer"},
		{name: "no main", mutate: func(c *keeper.Config) { c.MainState = solana.PublicKey{} }, errMsg: "main state"},
		{name: "no interval", mutate: func(c *keeper.Config) { c.Interval = 0 }, errMsg: "interval"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := base()
			tt.mutate(&cfg)
			err := cfg.Validate()
			if tt.errMsg == "" {
				require.NoError(t, err)
				assert.NotNil(t, cfg.Clock)
				assert.NotNil(t, cfg.Logger)
				assert.Equal(t, 4, cfg.Concurrency)
				return
			}
			require.ErrorContains(t, err, tt.errMsg)
		})
	}
}

func TestTick_UpdatesPricesAndStrategies(t *testing.T) {
	f := newFixture(t)
	k := f.keeper(t, clockwork.NewFakeClock())

	f.env.AdvanceTime(time.Hour)
	f.pool.SetPrice(1500, 1000)
	f.strat.Reported = jtx.SOL(5)

	report, err := k.Tick(context.Background())
	require.NoError(t, err)
	assert.Equal(t, keeper.CrankReport{Submitted: 2}, report.Prices)
	assert.Equal(t, keeper.CrankReport{Submitted: 1}, report.Strategies)

	v := f.env.Vault(f.p.Main, f.pool.Mint)
	assert.Equal(t, jtx.Price(1500, 1000), v.LstSolPriceScaled)
	assert.Equal(t, f.env.Now().Unix(), v.LstSolPriceTimestamp)
	assert.Equal(t, f.env.Now().Unix(), f.env.Vault(f.p.Main, f.wsol).LstSolPriceTimestamp)

	assert.Equal(t, jtx.SOL(5), f.env.Strategy(f.strat).LastReadStratLstAmount)
	w := f.env.Vault(f.p.Main, f.wsol)
	assert.Equal(t, jtx.SOL(11), w.TotalLstAmount)
	assert.Equal(t, jtx.SOL(5), w.InStrategiesAmount)
	jtx.RequireAuditOK(t, f.env, f.p.Main, 0)

	// 8 LST at 1.5 plus 11 wrapped SOL
	assert.Equal(t, jtx.SOL(23), f.env.MainState(f.p.Main).BackingSolValue)
}

func TestTick_SkipsPoolWithoutAddress(t *testing.T) {
	f := newFixture(t)
	k, err := keeper.New(keeper.Config{
		Engine:    f.env.Engine(),
		Fetcher:   f.fetcher,
		Signer:    f.p.Keeper.PublicKey,
		MainState: f.p.Main,
		Interval:  time.Minute,
	})
	require.NoError(t, err)

	report, err := k.Tick(context.Background())
	require.NoError(t, err)
	assert.Equal(t, keeper.CrankReport{Submitted: 1, Skipped: 1}, report.Prices)
}

func TestTick_FailuresDoNotStopOtherJobs(t *testing.T) {
	f := newFixture(t)
	k := f.keeper(t, clockwork.NewFakeClock())

	f.fetcher.failing[f.pool.Address] = errors.New("connection reset")
	f.strat.Reported = jtx.SOL(3)

	report, err := k.Tick(context.Background())
	require.NoError(t, err)
	assert.Equal(t, keeper.CrankReport{Submitted: 1, Failed: 1}, report.Prices)
	assert.Equal(t, keeper.CrankReport{Submitted: 1}, report.Strategies)
	assert.Equal(t, jtx.SOL(3), f.env.Strategy(f.strat).LastReadStratLstAmount)
}

func TestTick_RejectedCrankCountsAsFailed(t *testing.T) {
	f := newFixture(t)
	k := f.keeper(t, clockwork.NewFakeClock())

	f.fetcher.accounts[f.strat.Address] = func() external.Account {
		acct := f.strat.Account()
		acct.Owner = jtx.Key("impostor")
		return acct
	}

	report, err := k.Tick(context.Background())
	require.NoError(t, err)
	assert.Equal(t, keeper.CrankReport{Failed: 1}, report.Strategies)
	assert.Equal(t, jtx.SOL(4), f.env.Strategy(f.strat).LastReadStratLstAmount)
}

func TestRun_TicksOnInterval(t *testing.T) {
	f := newFixture(t)
	clock := clockwork.NewFakeClock()
	k := f.keeper(t, clock)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- k.Run(ctx) }()

	// The first tick runs before the ticker is armed
	require.NoError(t, clock.BlockUntilContext(ctx, 1))
	first := f.fetcher.callCount()
	assert.Equal(t, 2, first, "one pool and one strategy per tick")

	clock.Advance(time.Minute)
	require.Eventually(t, func() bool { return f.fetcher.callCount() == 2*first }, time.Second, 5*time.Millisecond)

	cancel()
	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("keeper did not stop")
	}
}
