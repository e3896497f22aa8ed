package entry

import (
	"testing"

	"github.com/gagliardetto/solana-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/LeJamon/restaked/internal/core/fixedpoint"
)

func TestRecordEncoding(t *testing.T) {
	treasury := solana.NewWallet().PublicKey()
	main := &MainState{
		Admin:                      solana.NewWallet().PublicKey(),
		OperatorAuth:               solana.NewWallet().PublicKey(),
		StrategyRebalancerAuth:     solana.NewWallet().PublicKey(),
		PoolShareMint:              solana.NewWallet().PublicKey(),
		Treasury:                   &treasury,
		DepositFeeBp:               10,
		WithdrawFeeBp:              10,
		PerformanceFeeBp:           1000,
		BackingSolValue:            123_456_789,
		OutstandingTicketsSolValue: 42,
		UnstakeTicketWaitingHours:  48,
	}

	data, err := main.Marshal()
	require.NoError(t, err)

	typ, ok := TypeFromData(data)
	require.True(t, ok)
	assert.Equal(t, TypeMainState, typ)

	decoded, err := Decode(data)
	require.NoError(t, err)
	assert.Equal(t, main, decoded)

	t.Run("unset treasury", func(t *testing.T) {
		main.Treasury = nil
		data, err := main.Marshal()
		require.NoError(t, err)
		got, err := DecodeMainState(data)
		require.NoError(t, err)
		assert.Nil(t, got.Treasury)
		_, ok := got.TreasuryAccount()
		assert.False(t, ok)
	})

	t.Run("wrong discriminator", func(t *testing.T) {
		ticket := &UnstakeTicket{TicketSolValue: 1}
		data, err := ticket.Marshal()
		require.NoError(t, err)
		_, err = DecodeVaultState(data)
		require.ErrorIs(t, err, ErrUnexpectedDiscriminator)
	})

	t.Run("truncated", func(t *testing.T) {
		vault := &VaultState{TotalLstAmount: 5, LocallyStoredAmount: 5}
		data, err := vault.Marshal()
		require.NoError(t, err)
		_, err = DecodeVaultState(data[:len(data)-4])
		require.ErrorIs(t, err, ErrTruncatedRecord)
	})
}

func TestMainStateValidate(t *testing.T) {
	tests := []struct {
		name    string
		state   MainState
		wantErr bool
	}{
		{name: "defaults", state: MainState{DepositFeeBp: 10, WithdrawFeeBp: 10, PerformanceFeeBp: 1000}},
		{name: "maxima", state: MainState{DepositFeeBp: MaxDepositFeeBp, WithdrawFeeBp: MaxWithdrawFeeBp, PerformanceFeeBp: MaxPerformanceFeeBp}},
		{name: "deposit fee too high", state: MainState{DepositFeeBp: MaxDepositFeeBp + 1}, wantErr: true},
		{name: "withdraw fee too high", state: MainState{WithdrawFeeBp: MaxWithdrawFeeBp + 1}, wantErr: true},
		{name: "performance fee too high", state: MainState{PerformanceFeeBp: MaxPerformanceFeeBp + 1}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.state.Validate()
			if tt.wantErr {
				require.ErrorIs(t, err, ErrFeeAboveMaximum)
				return
			}
			require.NoError(t, err)
		})
	}
}

func TestVaultDepositCap(t *testing.T) {
	v := &VaultState{DepositCap: 10_000_000}

	require.NoError(t, v.RecordDeposit(6_000_000))
	require.NoError(t, v.RecordStrategyTransferOut(5_000_000))
	require.NoError(t, v.CheckInvariant())

	err := v.RecordDeposit(5_000_000)
	require.ErrorIs(t, err, ErrDepositExceedsVaultCap)

	unlimited := &VaultState{}
	require.NoError(t, unlimited.RecordDeposit(1<<60))
}

func TestVaultStrategyTransfersConserveTotal(t *testing.T) {
	v := &VaultState{}
	require.NoError(t, v.RecordDeposit(3_000_000))

	steps := []struct {
		out     bool
		amount  uint64
		wantErr error
	}{
		{out: true, amount: 1_000_000},
		{out: true, amount: 2_000_000},
		{out: true, amount: 1, wantErr: ErrNotEnoughLocalLst},
		{out: false, amount: 500_000},
		{out: false, amount: 0, wantErr: ErrAmountIsZero},
		{out: true, amount: 0, wantErr: ErrAmountIsZero},
		{out: false, amount: 2_500_001, wantErr: ErrNotEnoughInStrategies},
		{out: false, amount: 2_500_000},
	}

	for _, step := range steps {
		var err error
		if step.out {
			err = v.RecordStrategyTransferOut(step.amount)
		} else {
			err = v.RecordStrategyTransferIn(step.amount)
		}
		if step.wantErr != nil {
			require.ErrorIs(t, err, step.wantErr)
		} else {
			require.NoError(t, err)
		}
		assert.Equal(t, uint64(3_000_000), v.TotalLstAmount)
		require.NoError(t, v.CheckInvariant())
	}
	assert.Equal(t, uint64(3_000_000), v.LocallyStoredAmount)
	assert.Zero(t, v.InStrategiesAmount)
}

func TestAvailableForStrategies(t *testing.T) {
	v := &VaultState{
		LstSolPriceScaled:   2 * fixedpoint.TwoPow32,
		LocallyStoredAmount: 10_000_000,
		TotalLstAmount:      10_000_000,
	}

	avail, err := v.AvailableForStrategies()
	require.NoError(t, err)
	assert.Equal(t, uint64(10_000_000), avail)

	// 4 SOL-value at price 2.0 reserves 2 LST units
	v.TicketsTargetSolValue = 4_000_000
	avail, err = v.AvailableForStrategies()
	require.NoError(t, err)
	assert.Equal(t, uint64(8_000_000), avail)

	v.TicketsTargetSolValue = 100_000_000
	avail, err = v.AvailableForStrategies()
	require.NoError(t, err)
	assert.Zero(t, avail, "saturates at zero")
}

func TestReconcileExternalAmount(t *testing.T) {
	t.Run("slashing", func(t *testing.T) {
		v := &VaultState{TotalLstAmount: 1_000_000, InStrategiesAmount: 1_000_000}
		profit, slashing, err := v.ReconcileExternalAmount(1_000_000, 900_000)
		require.NoError(t, err)
		assert.Zero(t, profit)
		assert.Equal(t, uint64(100_000), slashing)
		assert.Equal(t, uint64(900_000), v.TotalLstAmount)
		assert.Equal(t, uint64(900_000), v.InStrategiesAmount)
		require.NoError(t, v.CheckInvariant())
	})

	t.Run("profit", func(t *testing.T) {
		v := &VaultState{TotalLstAmount: 1_500_000, LocallyStoredAmount: 500_000, InStrategiesAmount: 1_000_000}
		profit, slashing, err := v.ReconcileExternalAmount(1_000_000, 1_250_000)
		require.NoError(t, err)
		assert.Equal(t, uint64(250_000), profit)
		assert.Zero(t, slashing)
		assert.Equal(t, uint64(1_750_000), v.TotalLstAmount)
		require.NoError(t, v.CheckInvariant())
	})

	t.Run("loss larger than tracked fails", func(t *testing.T) {
		v := &VaultState{TotalLstAmount: 10, InStrategiesAmount: 10}
		_, _, err := v.ReconcileExternalAmount(100, 0)
		require.ErrorIs(t, err, fixedpoint.ErrArithmeticUnderflow)
		assert.Equal(t, uint64(10), v.TotalLstAmount, "state untouched on failure")
	})
}

func TestVaultValidate(t *testing.T) {
	v := &VaultState{TotalLstAmount: 3, LocallyStoredAmount: 1, InStrategiesAmount: 1}
	require.ErrorIs(t, v.Validate(), ErrVaultAccountingMismatch)

	v = &VaultState{LstSolPriceScaled: fixedpoint.TwoPow32 - 1}
	require.ErrorIs(t, v.Validate(), ErrStoredPriceBelowParity)

	v = &VaultState{}
	require.NoError(t, v.Validate(), "unset price is allowed")
}

func TestTicketClaim(t *testing.T) {
	const minMovement = 1_000_000

	tests := []struct {
		name      string
		value     uint64
		claim     uint64
		wantErr   error
		remaining uint64
	}{
		{name: "claim all", value: 5_000_000, claim: 5_000_000, remaining: 0},
		{name: "claim all below minimum", value: 10, claim: 10, remaining: 0},
		{name: "partial", value: 5_000_000, claim: 2_000_000, remaining: 3_000_000},
		{name: "leaves exactly minimum", value: 5_000_000, claim: 4_000_000, remaining: 1_000_000},
		{name: "dust remainder", value: 5_000_000, claim: 4_500_000, wantErr: ErrTicketDustRemainder},
		{name: "partial too small", value: 5_000_000, claim: 999_999, wantErr: ErrWithdrawAmountTooSmall},
		{name: "more than ticket", value: 5_000_000, claim: 5_000_001, wantErr: ErrNotEnoughTicketValue},
		{name: "zero", value: 5_000_000, claim: 0, wantErr: ErrAmountIsZero},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ticket := &UnstakeTicket{TicketSolValue: tt.value}
			err := ticket.Claim(tt.claim, minMovement)
			if tt.wantErr != nil {
				require.ErrorIs(t, err, tt.wantErr)
				assert.Equal(t, tt.value, ticket.TicketSolValue)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.remaining, ticket.TicketSolValue)
			assert.Equal(t, tt.remaining == 0, ticket.IsClosed())
		})
	}
}

func TestTicketIsDue(t *testing.T) {
	ticket := &UnstakeTicket{TicketDueTimestamp: 1_000}
	assert.False(t, ticket.IsDue(999))
	assert.True(t, ticket.IsDue(1_000))
	assert.True(t, ticket.IsDue(1_001))
}
