package fixedpoint

import (
	"math"
	"math/rand/v2"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMulDiv(t *testing.T) {
	tests := []struct {
		name    string
		a, n, d uint64
		want    uint64
		wantErr error
	}{
		{name: "simple", a: 10, n: 3, d: 2, want: 15},
		{name: "floors", a: 10, n: 1, d: 3, want: 3},
		{name: "wide intermediate", a: math.MaxUint64, n: math.MaxUint64, d: math.MaxUint64, want: math.MaxUint64},
		{name: "wide intermediate halves", a: math.MaxUint64, n: 2, d: 4, want: math.MaxUint64 / 2},
		{name: "result overflows", a: math.MaxUint64, n: 2, d: 1, wantErr: ErrArithmeticOverflow},
		{name: "zero denominator", a: 1, n: 1, d: 0, wantErr: ErrDivisionByZero},
		{name: "zero amount", a: 0, n: 123, d: 7, want: 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := MulDiv(tt.a, tt.n, tt.d)
			if tt.wantErr != nil {
				require.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestApplyBp(t *testing.T) {
	fee, err := ApplyBp(10_000_000, 10)
	require.NoError(t, err)
	assert.Equal(t, uint64(10_000), fee)

	fee, err = ApplyBp(9_999, 1)
	require.NoError(t, err)
	assert.Equal(t, uint64(0), fee, "sub-unit fees floor to zero")

	fee, err = ApplyBp(math.MaxUint64, 10_000)
	require.NoError(t, err)
	assert.Equal(t, uint64(math.MaxUint64), fee)
}

func TestPriceConversions(t *testing.T) {
	v, err := LstToSolValue(1_000_000, TwoPow32)
	require.NoError(t, err)
	assert.Equal(t, uint64(1_000_000), v, "parity price is identity")

	// 1.5 SOL per LST
	price := TwoPow32 + TwoPow32/2
	v, err = LstToSolValue(1_000_000, price)
	require.NoError(t, err)
	assert.Equal(t, uint64(1_500_000), v)

	lst, err := SolValueToLst(1_500_000, price)
	require.NoError(t, err)
	assert.Equal(t, uint64(1_000_000), lst)

	_, err = SolValueToLst(1, 0)
	require.ErrorIs(t, err, ErrDivisionByZero)
}

func TestShareConversions(t *testing.T) {
	t.Run("empty pool bootstraps 1:1", func(t *testing.T) {
		shares, err := SolValueToShares(12_345_678, 0, 0)
		require.NoError(t, err)
		assert.Equal(t, uint64(12_345_678), shares)
	})

	t.Run("empty pool ignores stale backing", func(t *testing.T) {
		shares, err := SolValueToShares(42, 999, 0)
		require.NoError(t, err)
		assert.Equal(t, uint64(42), shares)
	})

	t.Run("price above one", func(t *testing.T) {
		// backing 2x supply -> one share is worth 2 SOL-value
		shares, err := SolValueToShares(1_000, 2_000_000, 1_000_000)
		require.NoError(t, err)
		assert.Equal(t, uint64(500), shares)

		value, err := SharesToSolValue(500, 2_000_000, 1_000_000)
		require.NoError(t, err)
		assert.Equal(t, uint64(1_000), value)
	})

	t.Run("burning from an empty pool fails", func(t *testing.T) {
		_, err := SharesToSolValue(1, 0, 0)
		require.ErrorIs(t, err, ErrEmptyPool)
	})

	t.Run("minting against wiped out backing fails", func(t *testing.T) {
		_, err := SolValueToShares(1_000, 0, 1_000_000)
		require.ErrorIs(t, err, ErrZeroBacking)
		require.NotErrorIs(t, err, ErrDivisionByZero)
	})
}

func TestRoundingNeverCreatesValue(t *testing.T) {
	rng := rand.New(rand.NewPCG(7, 11))
	for i := 0; i < 5_000; i++ {
		amount := rng.Uint64N(1 << 50)
		// prices between 1.0 and ~4.0
		price := TwoPow32 + rng.Uint64N(3*TwoPow32)

		value, err := LstToSolValue(amount, price)
		require.NoError(t, err)
		back, err := SolValueToLst(value, price)
		require.NoError(t, err)
		require.LessOrEqual(t, back, amount, "amount=%d price=%d", amount, price)

		backing := rng.Uint64N(1<<50) + 1
		supply := rng.Uint64N(1<<50) + 1
		shares, err := SolValueToShares(value, backing, supply)
		require.NoError(t, err)
		redeemed, err := SharesToSolValue(shares, backing, supply)
		require.NoError(t, err)
		require.LessOrEqual(t, redeemed, value, "value=%d backing=%d supply=%d", value, backing, supply)
	}
}

func TestCheckedAddSub(t *testing.T) {
	_, err := Add(math.MaxUint64, 1)
	require.ErrorIs(t, err, ErrArithmeticOverflow)

	_, err = Sub(1, 2)
	require.ErrorIs(t, err, ErrArithmeticUnderflow)

	v, err := Sub(5, 5)
	require.NoError(t, err)
	assert.Zero(t, v)

	assert.Equal(t, uint64(0), SaturatingSub(3, 10))
	assert.Equal(t, uint64(7), SaturatingSub(10, 3))
}

func TestDelta(t *testing.T) {
	tests := []struct {
		name           string
		prior, current uint64
		profit, slash  uint64
	}{
		{name: "profit", prior: 100, current: 150, profit: 50},
		{name: "slashing", prior: 1_000_000, current: 900_000, slash: 100_000},
		{name: "unchanged", prior: 7, current: 7},
		{name: "from zero", prior: 0, current: 3, profit: 3},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			profit, slashing := Delta(tt.prior, tt.current)
			assert.Equal(t, tt.profit, profit)
			assert.Equal(t, tt.slash, slashing)

			applied, err := ApplyDelta(tt.prior, profit, slashing)
			require.NoError(t, err)
			assert.Equal(t, tt.current, applied)
		})
	}

	_, err := ApplyDelta(10, 0, 11)
	require.ErrorIs(t, err, ErrArithmeticUnderflow)
}
