package external

import (
	"testing"

	"github.com/gagliardetto/solana-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStakePoolLayout(t *testing.T) {
	pool := &StakePool{
		AccountType:     AccountTypeStakePool,
		Manager:         solana.NewWallet().PublicKey(),
		PoolMint:        solana.NewWallet().PublicKey(),
		TotalLamports:   1_050_000_000,
		PoolTokenSupply: 1_000_000_000,
		LastUpdateEpoch: 612,
	}
	data, err := Encode(pool)
	require.NoError(t, err)
	// 1 tag + 8 keys + 1 bump + 3 u64
	assert.Len(t, data, 1+8*32+1+3*8)

	// fields past the pricing prefix are ignored
	data = append(data, make([]byte, 64)...)
	got, err := DecodeStakePool(data)
	require.NoError(t, err)
	assert.Equal(t, pool, got)

	_, err = DecodeStakePool(data[:100])
	require.ErrorIs(t, err, ErrMalformedState)
}

func TestMarinadeAndStrategyLayouts(t *testing.T) {
	m := &MarinadeState{Discriminator: MarinadeStateDiscriminator, MsolMint: MsolMint, MsolPrice: 5_000_000_000}
	data, err := Encode(m)
	require.NoError(t, err)
	got, err := DecodeMarinadeState(data)
	require.NoError(t, err)
	assert.Equal(t, m, got)

	s := &StrategyState{Discriminator: StrategyStateDiscriminator, LstMint: MsolMint, StratTotalLstAmount: 42}
	data, err = Encode(s)
	require.NoError(t, err)
	gotState, err := DecodeStrategyState(data)
	require.NoError(t, err)
	assert.Equal(t, s, gotState)

	_, err = DecodeStrategyState(data[:20])
	require.ErrorIs(t, err, ErrMalformedState)
	_, err = DecodeMarinadeState(nil)
	require.ErrorIs(t, err, ErrMalformedState)
}
