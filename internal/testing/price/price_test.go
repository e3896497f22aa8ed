// Package price_test contains integration tests for vault price updates
// across the wrapped SOL, stake pool and Marinade pricing families.
package price_test

import (
	"testing"
	"time"

	"github.com/gagliardetto/solana-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/LeJamon/restaked/internal/core/events"
	"github.com/LeJamon/restaked/internal/core/external"
	"github.com/LeJamon/restaked/internal/core/fixedpoint"
	"github.com/LeJamon/restaked/internal/core/tx"
	"github.com/LeJamon/restaked/internal/core/tx/restake"
	jtx "github.com/LeJamon/restaked/internal/testing"
	"github.com/LeJamon/restaked/internal/testing/builders"
)

// stakedPool opens a stake pool vault priced at 1.25 and stakes 8 LST
// (10 SOL of value) into it.
func stakedPool(t *testing.T) (*jtx.TestEnv, *jtx.Protocol, *jtx.StakePoolFixture) {
	t.Helper()
	env := jtx.NewTestEnv(t)
	p := env.SetupProtocol()
	pool := env.AddStakePoolVault(p, "jito", 1_250, 1_000)
	bob := jtx.NewAccount("bob")
	env.FundLst(bob, pool.Mint, jtx.SOL(8))
	jtx.RequireTxSuccess(t, env.Submit(builders.Stake(bob.PublicKey, p.Main, pool.Mint, jtx.SOL(8)).Build()))
	require.Equal(t, jtx.SOL(10), env.MainState(p.Main).BackingSolValue)
	return env, p, pool
}

func refresh(env *jtx.TestEnv, p *jtx.Protocol, mint solana.PublicKey, state external.Account) jtx.TxResult {
	return env.Submit(builders.UpdateVaultPrice(p.Keeper.PublicKey, p.Main, mint).State(state).Build())
}

func TestPrice_Parity(t *testing.T) {
	env := jtx.NewTestEnv(t)
	p := env.SetupProtocol()
	wsol := env.AddParityVault(p)

	v := env.Vault(p.Main, wsol)
	assert.Equal(t, fixedpoint.TwoPow32, v.LstSolPriceScaled)
	assert.Equal(t, env.Now().Unix(), v.LstSolPriceTimestamp)

	// No state account is needed and the price never moves
	env.AdvanceTime(time.Hour)
	result := env.Submit(builders.UpdateVaultPrice(p.Keeper.PublicKey, p.Main, wsol).Build())
	jtx.RequireTxSuccess(t, result)
	_, moved := jtx.Event[events.PriceUpdateEvent](result)
	assert.False(t, moved)
	assert.Equal(t, env.Now().Unix(), env.Vault(p.Main, wsol).LstSolPriceTimestamp)
}

func TestPrice_StakePoolAppreciation(t *testing.T) {
	env, p, pool := stakedPool(t)
	supply := env.Supply(p.PoolMint)

	pool.SetPrice(1_500, 1_000)
	result := refresh(env, p, pool.Mint, pool.Account())
	jtx.RequireTxSuccess(t, result)

	ev, ok := jtx.Event[events.PriceUpdateEvent](result)
	require.True(t, ok)
	assert.Equal(t, jtx.Price(5, 4), ev.OldPriceScaled)
	assert.Equal(t, jtx.Price(3, 2), ev.NewPriceScaled)
	assert.Equal(t, jtx.SOL(8), ev.LstAmount)
	assert.Equal(t, jtx.SOL(10), ev.OldSolValue)
	assert.Equal(t, jtx.SOL(12), ev.NewSolValue)
	assert.Equal(t, jtx.SOL(10), ev.BackingSolValueBefore)
	assert.Equal(t, jtx.SOL(12), ev.BackingSolValue)

	assert.Equal(t, jtx.SOL(12), env.MainState(p.Main).BackingSolValue)
	assert.Equal(t, supply, env.Supply(p.PoolMint), "price moves never mint")
	jtx.RequireAuditOK(t, env, p.Main, 0)

	// Back down to exactly parity is still a valid price
	pool.SetPrice(1_000, 1_000)
	jtx.RequireTxSuccess(t, refresh(env, p, pool.Mint, pool.Account()))
	assert.Equal(t, jtx.SOL(8), env.MainState(p.Main).BackingSolValue)
	assert.Equal(t, fixedpoint.TwoPow32, env.Vault(p.Main, pool.Mint).LstSolPriceScaled)
}

func TestPrice_UnchangedRefreshesTimestamp(t *testing.T) {
	env, p, pool := stakedPool(t)
	before := env.Vault(p.Main, pool.Mint)

	env.AdvanceTime(2 * time.Hour)
	result := refresh(env, p, pool.Mint, pool.Account())
	jtx.RequireTxSuccess(t, result)
	assert.Empty(t, result.Events)

	after := env.Vault(p.Main, pool.Mint)
	assert.Equal(t, before.LstSolPriceScaled, after.LstSolPriceScaled)
	assert.Equal(t, before.LstSolPriceTimestamp+int64((2*time.Hour).Seconds()), after.LstSolPriceTimestamp)
	assert.Equal(t, jtx.SOL(10), env.MainState(p.Main).BackingSolValue)
}

func TestPrice_StakePoolRejections(t *testing.T) {
	tests := []struct {
		name  string
		state func(pool *jtx.StakePoolFixture) *external.Account
		want  tx.Result
	}{
		{
			name:  "missing state",
			state: func(*jtx.StakePoolFixture) *external.Account { return nil },
			want:  tx.TecMISSING_LST_STATE,
		},
		{
			name: "wrong owner",
			state: func(pool *jtx.StakePoolFixture) *external.Account {
				acct := pool.Account()
				acct.Owner = jtx.Key("fake-stake-pool-program")
				return &acct
			},
			want: tx.TecWRONG_ACCOUNT_OWNER,
		},
		{
			name: "pool of another mint",
			state: func(pool *jtx.StakePoolFixture) *external.Account {
				return encodePool(pool.Address, external.StakePool{
					AccountType:     external.AccountTypeStakePool,
					PoolMint:        jtx.Key("other-mint"),
					TotalLamports:   2_000,
					PoolTokenSupply: 1_000,
				})
			},
			want: tx.TecMINT_MISMATCH,
		},
		{
			name: "validator list instead of pool",
			state: func(pool *jtx.StakePoolFixture) *external.Account {
				return encodePool(pool.Address, external.StakePool{
					AccountType:     external.AccountTypeValidatorList,
					PoolMint:        pool.Mint,
					TotalLamports:   2_000,
					PoolTokenSupply: 1_000,
				})
			},
			want: tx.TecUNEXPECTED_ACCOUNT_TYPE,
		},
		{
			name: "truncated",
			state: func(pool *jtx.StakePoolFixture) *external.Account {
				acct := pool.Account()
				acct.Data = acct.Data[:40]
				return &acct
			},
			want: tx.TecBAD_EXTERNAL_STATE,
		},
		{
			name: "below parity",
			state: func(pool *jtx.StakePoolFixture) *external.Account {
				pool.SetPrice(999, 1_000)
				acct := pool.Account()
				return &acct
			},
			want: tx.TecINVALID_STORED_PRICE,
		},
		{
			name: "empty pool",
			state: func(pool *jtx.StakePoolFixture) *external.Account {
				pool.SetPrice(0, 0)
				acct := pool.Account()
				return &acct
			},
			want: tx.TecINVALID_STORED_PRICE,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env, p, pool := stakedPool(t)
			before := env.Vault(p.Main, pool.Mint)
			env.AdvanceTime(time.Minute)

			update := restake.NewUpdateVaultPrice(p.Keeper.PublicKey, p.Main, pool.Mint, tt.state(pool))
			jtx.RequireTxFail(t, env.Submit(update), tt.want)

			assert.Equal(t, before, env.Vault(p.Main, pool.Mint), "vault untouched")
			assert.Equal(t, jtx.SOL(10), env.MainState(p.Main).BackingSolValue)
		})
	}
}

func encodePool(addr solana.PublicKey, pool external.StakePool) *external.Account {
	data, err := external.Encode(&pool)
	if err != nil {
		panic(err)
	}
	return &external.Account{Address: addr, Owner: external.SplStakePoolProgramID, Data: data}
}

func marinadeState(price uint64) external.Account {
	data, err := external.Encode(&external.MarinadeState{
		Discriminator: external.MarinadeStateDiscriminator,
		MsolMint:      external.MsolMint,
		MsolPrice:     price,
	})
	if err != nil {
		panic(err)
	}
	return external.Account{
		Address: external.MarinadeStateAddress,
		Owner:   external.MarinadeProgramID,
		Data:    data,
	}
}

func TestPrice_Marinade(t *testing.T) {
	env := jtx.NewTestEnv(t)
	p := env.SetupProtocol()
	env.CreateMint(external.MsolMint)
	jtx.RequireTxSuccess(t, env.Submit(restake.NewCreateVault(p.Admin.PublicKey, p.Main, external.MsolMint)))

	t.Run("state must live at the known address", func(t *testing.T) {
		acct := marinadeState(jtx.Price(5, 4))
		acct.Address = jtx.Key("not-marinade")
		jtx.RequireTxFail(t, refresh(env, p, external.MsolMint, acct), tx.TecINCORRECT_STATE_SOURCE)
	})

	t.Run("state must carry the marinade tag", func(t *testing.T) {
		acct := marinadeState(jtx.Price(5, 4))
		acct.Data[0] ^= 0xff
		jtx.RequireTxFail(t, refresh(env, p, external.MsolMint, acct), tx.TecUNEXPECTED_ACCOUNT_TYPE)
	})

	t.Run("missing state", func(t *testing.T) {
		result := env.Submit(builders.UpdateVaultPrice(p.Keeper.PublicKey, p.Main, external.MsolMint).Build())
		jtx.RequireTxFail(t, result, tx.TecMISSING_LST_STATE)
	})

	t.Run("valid state", func(t *testing.T) {
		jtx.RequireTxSuccess(t, refresh(env, p, external.MsolMint, marinadeState(jtx.Price(5, 4))))
		v := env.Vault(p.Main, external.MsolMint)
		assert.Equal(t, jtx.Price(5, 4), v.LstSolPriceScaled)
		assert.Equal(t, env.Now().Unix(), v.LstSolPriceTimestamp)
	})

	t.Run("deposits value at the marinade price", func(t *testing.T) {
		cfg := builders.ConfigureVault(p.Admin.PublicKey, p.Main, external.MsolMint).EnableDeposits().Build()
		jtx.RequireTxSuccess(t, env.Submit(cfg))

		carol := jtx.NewAccount("carol")
		env.FundLst(carol, external.MsolMint, jtx.SOL(4))
		result := env.Submit(builders.Stake(carol.PublicKey, p.Main, external.MsolMint, jtx.SOL(4)).Build())
		jtx.RequireTxSuccess(t, result)
		ev, _ := jtx.Event[events.StakeEvent](result)
		assert.Equal(t, jtx.SOL(5), ev.DepositedSolValue)
	})
}

func TestPrice_StalenessGatesDeposits(t *testing.T) {
	env, p, pool := stakedPool(t)
	bob := jtx.NewAccount("bob")
	env.FundLst(bob, pool.Mint, jtx.SOL(1))

	env.AdvanceTime(24 * time.Hour)
	// Exactly at the limit is still fresh
	jtx.RequireTxSuccess(t, env.Submit(builders.Stake(bob.PublicKey, p.Main, pool.Mint, jtx.SOL(1)/2).Build()))

	env.AdvanceTime(time.Second)
	jtx.RequireTxFail(t, env.Submit(builders.Stake(bob.PublicKey, p.Main, pool.Mint, jtx.SOL(1)/2).Build()), tx.TecPRICE_STALE)

	jtx.RequireTxSuccess(t, refresh(env, p, pool.Mint, pool.Account()))
	jtx.RequireTxSuccess(t, env.Submit(builders.Stake(bob.PublicKey, p.Main, pool.Mint, jtx.SOL(1)/2).Build()))
}
