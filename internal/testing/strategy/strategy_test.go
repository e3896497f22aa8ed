// Package strategy_test contains integration tests for the strategy bridge:
// transfers, reconciliation and settlement.
package strategy_test

import (
	"testing"
	"time"

	"github.com/gagliardetto/solana-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/LeJamon/restaked/internal/core/events"
	"github.com/LeJamon/restaked/internal/core/external"
	"github.com/LeJamon/restaked/internal/core/tx"
	"github.com/LeJamon/restaked/internal/core/tx/restake"
	jtx "github.com/LeJamon/restaked/internal/testing"
	"github.com/LeJamon/restaked/internal/testing/builders"
)

type fixture struct {
	env   *jtx.TestEnv
	p     *jtx.Protocol
	wsol  solana.PublicKey
	strat *jtx.StrategyFixture
}

// newFixture stakes 10 SOL into the wrapped SOL vault and moves 4 SOL of it
// into an attached strategy.
func newFixture(t *testing.T) *fixture {
	t.Helper()
	env := jtx.NewTestEnv(t)
	p := env.SetupProtocol()
	wsol := env.AddParityVault(p)
	alice := jtx.NewAccount("alice")
	env.FundLst(alice, wsol, jtx.SOL(10))
	jtx.RequireTxSuccess(t, env.Submit(builders.Stake(alice.PublicKey, p.Main, wsol, jtx.SOL(10)).Build()))

	s := env.AttachStrategy(p, wsol, "restaking")
	jtx.RequireTxSuccess(t, env.Submit(builders.TransferToStrategy(p.Rebalancer.PublicKey, p.Main, wsol, s.Address, jtx.SOL(4))))
	s.Reported = jtx.SOL(4)
	return &fixture{env: env, p: p, wsol: wsol, strat: s}
}

func (f *fixture) reconcile() jtx.TxResult {
	return f.env.Submit(builders.Reconcile(f.p.Keeper.PublicKey, f.p.Main, f.wsol, f.strat.Account()))
}

func TestStrategy_TransferOut(t *testing.T) {
	f := newFixture(t)

	v := f.env.Vault(f.p.Main, f.wsol)
	assert.Equal(t, jtx.SOL(6), v.LocallyStoredAmount)
	assert.Equal(t, jtx.SOL(4), v.InStrategiesAmount)
	assert.Equal(t, jtx.SOL(10), v.TotalLstAmount)
	assert.Equal(t, jtx.SOL(4), f.env.Balance(f.strat.DepositAccount()))
	assert.Equal(t, jtx.SOL(4), f.env.Strategy(f.strat).LastReadStratLstAmount)
	jtx.RequireVaultInvariant(t, f.env, f.p.Main, f.wsol)

	// A matching report is neither profit nor loss
	result := f.reconcile()
	jtx.RequireTxSuccess(t, result)
	ev, ok := jtx.Event[events.StrategyReconcileEvent](result)
	require.True(t, ok)
	assert.Zero(t, ev.ProfitLst)
	assert.Zero(t, ev.SlashingLst)
	assert.Equal(t, jtx.SOL(10), f.env.MainState(f.p.Main).BackingSolValue)
}

func TestStrategy_TransferRejections(t *testing.T) {
	tests := []struct {
		name   string
		setup  func(t *testing.T, f *fixture)
		signer func(f *fixture) solana.PublicKey
		amount uint64
		want   tx.Result
	}{
		{
			name:   "not the rebalancer",
			signer: func(f *fixture) solana.PublicKey { return f.p.Operator.PublicKey },
			amount: jtx.SOL(1),
			want:   tx.TecNO_PERMISSION,
		},
		{
			name:   "zero",
			amount: 0,
			want:   tx.TecAMOUNT_IS_ZERO,
		},
		{
			name:   "more than stored locally",
			amount: jtx.SOL(6) + 1,
			want:   tx.TecEXCEEDS_AVAILABLE,
		},
		{
			name: "eats into the ticket reserve",
			setup: func(t *testing.T, f *fixture) {
				jtx.RequireTxSuccess(t, f.env.Submit(builders.TicketTarget(f.p.Operator.PublicKey, f.p.Main, f.wsol, jtx.SOL(5))))
			},
			amount: jtx.SOL(1) + 1,
			want:   tx.TecEXCEEDS_AVAILABLE,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)
			if tt.setup != nil {
				tt.setup(t, f)
			}
			signer := f.p.Rebalancer.PublicKey
			if tt.signer != nil {
				signer = tt.signer(f)
			}
			result := f.env.Submit(builders.TransferToStrategy(signer, f.p.Main, f.wsol, f.strat.Address, tt.amount))
			jtx.RequireTxFail(t, result, tt.want)
			assert.Equal(t, jtx.SOL(6), f.env.Vault(f.p.Main, f.wsol).LocallyStoredAmount)
		})
	}
}

func TestStrategy_ProfitChargesPerformanceFee(t *testing.T) {
	f := newFixture(t)
	f.strat.Reported = 4_500_000_000

	result := f.reconcile()
	jtx.RequireTxSuccess(t, result)
	ev, _ := jtx.Event[events.StrategyReconcileEvent](result)
	assert.Equal(t, uint64(500_000_000), ev.ProfitLst)
	assert.Equal(t, uint64(47_571_428), ev.PerformanceFeeShares)
	assert.Equal(t, uint64(10_500_000_000), ev.BackingSolValue)

	assert.Equal(t, uint64(47_571_428), f.env.Balance(f.p.Treasury))
	assert.Equal(t, uint64(9_990_000_000+47_571_428), f.env.Supply(f.p.PoolMint))

	v := f.env.Vault(f.p.Main, f.wsol)
	assert.Equal(t, uint64(4_500_000_000), v.InStrategiesAmount)
	assert.Equal(t, uint64(10_500_000_000), v.TotalLstAmount)
	assert.Equal(t, uint64(4_500_000_000), f.env.Strategy(f.strat).LastReadStratLstAmount)
	jtx.RequireAuditOK(t, f.env, f.p.Main, 0)
}

func TestStrategy_ProfitWithoutTreasury(t *testing.T) {
	f := newFixture(t)
	jtx.RequireTxSuccess(t, f.env.Submit(builders.ConfigureMain(f.p.Admin.PublicKey, f.p.Main).ClearTreasury().Build()))
	f.strat.Reported = 4_500_000_000

	result := f.reconcile()
	jtx.RequireTxSuccess(t, result)
	ev, _ := jtx.Event[events.StrategyReconcileEvent](result)
	assert.Zero(t, ev.PerformanceFeeShares)
	assert.Equal(t, uint64(9_990_000_000), f.env.Supply(f.p.PoolMint))
	assert.Equal(t, uint64(10_500_000_000), f.env.MainState(f.p.Main).BackingSolValue)
}

func TestStrategy_Slashing(t *testing.T) {
	f := newFixture(t)
	f.strat.Reported = 3_700_000_000

	result := f.reconcile()
	jtx.RequireTxSuccess(t, result)
	ev, _ := jtx.Event[events.StrategyReconcileEvent](result)
	assert.Equal(t, uint64(300_000_000), ev.SlashingLst)
	assert.Zero(t, ev.PerformanceFeeShares)

	main := f.env.MainState(f.p.Main)
	assert.Equal(t, uint64(9_700_000_000), main.BackingSolValue)
	assert.Equal(t, uint64(9_990_000_000), f.env.Supply(f.p.PoolMint), "slashing mints nothing")

	v := f.env.Vault(f.p.Main, f.wsol)
	assert.Equal(t, uint64(3_700_000_000), v.InStrategiesAmount)
	assert.Equal(t, jtx.SOL(6), v.LocallyStoredAmount)
	jtx.RequireAuditOK(t, f.env, f.p.Main, 0)

	// Recovery after a loss is profit again
	f.strat.Reported = 3_800_000_000
	jtx.RequireTxSuccess(t, f.reconcile())
	assert.Equal(t, uint64(9_800_000_000), f.env.MainState(f.p.Main).BackingSolValue)
}

func TestStrategy_ReconcileRejections(t *testing.T) {
	otherMint := jtx.Key("other-lst")

	tests := []struct {
		name  string
		state func(f *fixture) external.Account
		setup func(t *testing.T, f *fixture)
		want  tx.Result
	}{
		{
			name: "wrong owner",
			state: func(f *fixture) external.Account {
				acct := f.strat.Account()
				acct.Owner = jtx.Key("impostor")
				return acct
			},
			want: tx.TecWRONG_ACCOUNT_OWNER,
		},
		{
			name: "wrong mint",
			state: func(f *fixture) external.Account {
				data, err := external.Encode(&external.StrategyState{Discriminator: external.StrategyStateDiscriminator, LstMint: otherMint, StratTotalLstAmount: jtx.SOL(9)})
				if err != nil {
					panic(err)
				}
				acct := f.strat.Account()
				acct.Data = data
				return acct
			},
			want: tx.TecMINT_MISMATCH,
		},
		{
			name: "wrong account tag",
			state: func(f *fixture) external.Account {
				acct := f.strat.Account()
				acct.Data[0] ^= 0xff
				return acct
			},
			want: tx.TecUNEXPECTED_ACCOUNT_TYPE,
		},
		{
			name: "truncated state",
			state: func(f *fixture) external.Account {
				acct := f.strat.Account()
				acct.Data = acct.Data[:20]
				return acct
			},
			want: tx.TecBAD_EXTERNAL_STATE,
		},
		{
			name: "unattached strategy",
			state: func(f *fixture) external.Account {
				acct := f.strat.Account()
				acct.Address = jtx.Key("stranger")
				return acct
			},
			want: tx.TecNO_ENTRY,
		},
		{
			name:  "stale vault price",
			state: func(f *fixture) external.Account { return f.strat.Account() },
			setup: func(_ *testing.T, f *fixture) {
				f.env.AdvanceTime(25 * time.Hour)
			},
			want: tx.TecPRICE_STALE,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)
			if tt.setup != nil {
				tt.setup(t, f)
			}
			result := f.env.Submit(builders.Reconcile(f.p.Keeper.PublicKey, f.p.Main, f.wsol, tt.state(f)))
			jtx.RequireTxFail(t, result, tt.want)
			assert.Equal(t, jtx.SOL(10), f.env.MainState(f.p.Main).BackingSolValue)
		})
	}
}

func TestStrategy_StalePriceRecovers(t *testing.T) {
	f := newFixture(t)
	f.env.AdvanceTime(25 * time.Hour)
	jtx.RequireTxFail(t, f.reconcile(), tx.TecPRICE_STALE)

	jtx.RequireTxSuccess(t, f.env.Submit(builders.UpdateVaultPrice(f.p.Keeper.PublicKey, f.p.Main, f.wsol).Build()))
	jtx.RequireTxSuccess(t, f.reconcile())
	assert.Equal(t, f.env.Now().Unix(), f.env.Strategy(f.strat).LastReadStratLstTimestamp)
}

func TestStrategy_Settlement(t *testing.T) {
	f := newFixture(t)
	env, p := f.env, f.p

	// Only the operator requests withdrawals, and never zero
	jtx.RequireTxFail(t, env.Submit(builders.SetNextWithdraw(p.Rebalancer.PublicKey, p.Main, f.wsol, f.strat.Address, jtx.SOL(1))), tx.TecNO_PERMISSION)
	jtx.RequireTxFail(t, env.Submit(builders.SetNextWithdraw(p.Operator.PublicKey, p.Main, f.wsol, f.strat.Address, 0)), tx.TecAMOUNT_IS_ZERO)

	// Nothing requested yet
	jtx.RequireTxFail(t, env.Submit(builders.Settle(p.Keeper.PublicKey, p.Main, f.wsol, f.strat.Address)), tx.TecAMOUNT_IS_ZERO)

	jtx.RequireTxSuccess(t, env.Submit(builders.SetNextWithdraw(p.Operator.PublicKey, p.Main, f.wsol, f.strat.Address, jtx.SOL(1))))

	// Requested but nothing staged
	jtx.RequireTxFail(t, env.Submit(builders.Settle(p.Keeper.PublicKey, p.Main, f.wsol, f.strat.Address)), tx.TecEXISTING_AMOUNT_ZERO)

	// Partial staging settles what is there
	env.Stage(f.strat, 600_000_000)
	result := env.Submit(builders.Settle(p.Keeper.PublicKey, p.Main, f.wsol, f.strat.Address))
	jtx.RequireTxSuccess(t, result)
	ev, ok := jtx.Event[events.StrategyTransferEvent](result)
	require.True(t, ok)
	assert.Equal(t, events.FromStrategy, ev.Direction)
	assert.Equal(t, uint64(600_000_000), ev.LstAmount)
	assert.Equal(t, uint64(400_000_000), ev.NextWithdrawAmount)
	assert.Equal(t, uint64(3_400_000_000), ev.LastReadStratAmount)

	v := env.Vault(p.Main, f.wsol)
	assert.Equal(t, uint64(6_600_000_000), v.LocallyStoredAmount)
	assert.Equal(t, uint64(3_400_000_000), v.InStrategiesAmount)
	jtx.RequireVaultInvariant(t, env, p.Main, f.wsol)

	// The strategy's own report now matches the bridge
	result = f.reconcile()
	jtx.RequireTxSuccess(t, result)
	rec, _ := jtx.Event[events.StrategyReconcileEvent](result)
	assert.Zero(t, rec.ProfitLst)
	assert.Zero(t, rec.SlashingLst)

	// Over-staging settles only the remaining request
	env.Stage(f.strat, jtx.SOL(1))
	jtx.RequireTxSuccess(t, env.Submit(builders.Settle(p.Keeper.PublicKey, p.Main, f.wsol, f.strat.Address)))
	bridge := env.Strategy(f.strat)
	assert.Zero(t, bridge.NextWithdrawLstAmount)
	assert.Equal(t, uint64(600_000_000), env.Balance(f.strat.WithdrawAccount()))

	jtx.RequireTxFail(t, env.Submit(builders.Settle(p.Keeper.PublicKey, p.Main, f.wsol, f.strat.Address)), tx.TecAMOUNT_IS_ZERO)
	jtx.RequireAuditOK(t, env, p.Main, 0)
}

func TestStrategy_Attach(t *testing.T) {
	f := newFixture(t)
	env, p := f.env, f.p

	// Already attached
	again := *f.strat
	again.Reported = 0
	jtx.RequireTxFail(t, env.Submit(restake.NewAttachStrategy(p.Admin.PublicKey, p.Main, f.wsol, again.Program, again.Account())), tx.TecDUPLICATE)

	fresh := &jtx.StrategyFixture{Program: jtx.Key("p2"), LstMint: f.wsol, Address: jtx.Key("s2")}
	jtx.RequireTxFail(t, env.Submit(restake.NewAttachStrategy(p.Operator.PublicKey, p.Main, f.wsol, fresh.Program, fresh.Account())), tx.TecNO_PERMISSION)

	fresh.Reported = 1
	jtx.RequireTxFail(t, env.Submit(restake.NewAttachStrategy(p.Admin.PublicKey, p.Main, f.wsol, fresh.Program, fresh.Account())), tx.TecSTRATEGY_NOT_EMPTY)

	// A state of another account type is never attached
	untagged := fresh.Account()
	copy(untagged.Data, make([]byte, 8))
	jtx.RequireTxFail(t, env.Submit(restake.NewAttachStrategy(p.Admin.PublicKey, p.Main, f.wsol, fresh.Program, untagged)), tx.TecUNEXPECTED_ACCOUNT_TYPE)

	// Declared program must own the state
	fresh.Reported = 0
	jtx.RequireTxFail(t, env.Submit(restake.NewAttachStrategy(p.Admin.PublicKey, p.Main, f.wsol, jtx.Key("p3"), fresh.Account())), tx.TecWRONG_ACCOUNT_OWNER)

	jtx.RequireTxSuccess(t, env.Submit(restake.NewAttachStrategy(p.Admin.PublicKey, p.Main, f.wsol, fresh.Program, fresh.Account())))
}

func TestStrategy_SharedAcrossMainStates(t *testing.T) {
	env := jtx.NewTestEnv(t)
	first := env.SetupProtocol()
	wsol := env.AddParityVault(first)
	second := env.SetupNamedProtocol("second")
	require.Equal(t, wsol, env.AddParityVault(second))

	// The same strategy state may back the wrapped SOL vault of both
	s := env.AttachStrategy(first, wsol, "restaking")
	shared := *s
	shared.Main = second.Main
	jtx.RequireTxSuccess(t, env.Submit(restake.NewAttachStrategy(second.Admin.PublicKey, second.Main, wsol, shared.Program, shared.Account())))

	assert.Equal(t, first.Main, env.Strategy(s).Main)
	assert.Equal(t, second.Main, env.Strategy(&shared).Main)

	// Attaching twice under the second main state is still a duplicate
	jtx.RequireTxFail(t, env.Submit(restake.NewAttachStrategy(second.Admin.PublicKey, second.Main, wsol, shared.Program, shared.Account())), tx.TecDUPLICATE)
}
