package oracle

import (
	"testing"
	"time"

	"github.com/gagliardetto/solana-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/LeJamon/restaked/internal/core/external"
	"github.com/LeJamon/restaked/internal/core/fixedpoint"
)

func stakePoolAccount(t *testing.T, owner, mint solana.PublicKey, typ external.AccountType, lamports, supply uint64) *external.Account {
	t.Helper()
	data, err := external.Encode(&external.StakePool{
		AccountType:     typ,
		PoolMint:        mint,
		TotalLamports:   lamports,
		PoolTokenSupply: supply,
	})
	require.NoError(t, err)
	return &external.Account{Address: solana.NewWallet().PublicKey(), Owner: owner, Data: data}
}

func marinadeAccount(t *testing.T, addr solana.PublicKey, disc [8]byte, price uint64) *external.Account {
	t.Helper()
	data, err := external.Encode(&external.MarinadeState{Discriminator: disc, MsolMint: external.MsolMint, MsolPrice: price})
	require.NoError(t, err)
	return &external.Account{Address: addr, Owner: external.MarinadeProgramID, Data: data}
}

func TestPrice(t *testing.T) {
	jito := solana.NewWallet().PublicKey()
	other := solana.NewWallet().PublicKey()

	tests := []struct {
		name    string
		mint    solana.PublicKey
		state   *external.Account
		want    uint64
		wantErr error
	}{
		{name: "wsol parity", mint: external.WrappedSolMint, want: fixedpoint.TwoPow32},
		{
			name:  "marinade",
			mint:  external.MsolMint,
			state: marinadeAccount(t, external.MarinadeStateAddress, external.MarinadeStateDiscriminator, 5_000_000_000),
			want:  5_000_000_000,
		},
		{name: "marinade missing state", mint: external.MsolMint, wantErr: ErrMissingLstState},
		{
			name:    "marinade wrong address",
			mint:    external.MsolMint,
			state:   marinadeAccount(t, other, external.MarinadeStateDiscriminator, 5_000_000_000),
			wantErr: ErrIncorrectStateAddress,
		},
		{
			name:    "marinade wrong tag",
			mint:    external.MsolMint,
			state:   marinadeAccount(t, external.MarinadeStateAddress, [8]byte{1}, 5_000_000_000),
			wantErr: ErrUnexpectedAccountType,
		},
		{
			name:    "marinade below parity",
			mint:    external.MsolMint,
			state:   marinadeAccount(t, external.MarinadeStateAddress, external.MarinadeStateDiscriminator, fixedpoint.TwoPow32-1),
			wantErr: ErrInvalidStoredPrice,
		},
		{
			name:  "stake pool 1.05",
			mint:  jito,
			state: stakePoolAccount(t, external.SplStakePoolProgramID, jito, external.AccountTypeStakePool, 1_050_000, 1_000_000),
			want:  fixedpoint.TwoPow32 * 105 / 100,
		},
		{name: "stake pool missing state", mint: jito, wantErr: ErrMissingLstState},
		{
			name:    "stake pool wrong owner",
			mint:    jito,
			state:   stakePoolAccount(t, other, jito, external.AccountTypeStakePool, 1, 1),
			wantErr: ErrWrongAccountOwner,
		},
		{
			name:    "stake pool wrong mint",
			mint:    jito,
			state:   stakePoolAccount(t, external.SplStakePoolProgramID, other, external.AccountTypeStakePool, 1, 1),
			wantErr: ErrMintMismatch,
		},
		{
			name:    "validator list account",
			mint:    jito,
			state:   stakePoolAccount(t, external.SplStakePoolProgramID, jito, external.AccountTypeValidatorList, 1, 1),
			wantErr: ErrUnexpectedAccountType,
		},
		{
			name:    "empty pool",
			mint:    jito,
			state:   stakePoolAccount(t, external.SplStakePoolProgramID, jito, external.AccountTypeStakePool, 0, 0),
			wantErr: ErrInvalidStoredPrice,
		},
		{
			name:    "pool worth less than sol",
			mint:    jito,
			state:   stakePoolAccount(t, external.SplStakePoolProgramID, jito, external.AccountTypeStakePool, 99, 100),
			wantErr: ErrInvalidStoredPrice,
		},
		{
			name:    "garbage",
			mint:    jito,
			state:   &external.Account{Owner: external.SplStakePoolProgramID, Data: []byte{1, 2}},
			wantErr: external.ErrMalformedState,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Price(tt.mint, tt.state)
			if tt.wantErr != nil {
				require.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestFamilyOf(t *testing.T) {
	assert.Equal(t, FamilyParity, FamilyOf(external.WrappedSolMint))
	assert.Equal(t, FamilyFixedState, FamilyOf(external.MsolMint))
	assert.Equal(t, FamilyStakePool, FamilyOf(solana.NewWallet().PublicKey()))
	assert.False(t, FamilyParity.RequiresState())
	assert.True(t, FamilyStakePool.RequiresState())

	addr, ok := StateAddress(external.MsolMint)
	require.True(t, ok)
	assert.Equal(t, external.MarinadeStateAddress, addr)
	_, ok = StateAddress(external.WrappedSolMint)
	assert.False(t, ok)
}

func TestCheckNotStale(t *testing.T) {
	now := time.Unix(1_700_000_000, 0)
	limit := 24 * time.Hour

	require.NoError(t, CheckNotStale(now.Unix(), now, limit))
	require.NoError(t, CheckNotStale(now.Add(-limit).Unix(), now, limit), "exactly at the limit")
	require.ErrorIs(t, CheckNotStale(now.Add(-limit).Unix()-1, now, limit), ErrPriceStale)
	require.ErrorIs(t, CheckNotStale(0, now, limit), ErrPriceStale, "never priced")
}
