// Package external decodes state owned by programs outside the restaking
// ledger: stake pools, the Marinade state and strategy states. Everything
// here is untrusted input; callers validate owner and address before use.
package external

import (
	"bytes"
	"crypto/sha256"
	"errors"
	"fmt"

	bin "github.com/gagliardetto/binary"
	"github.com/gagliardetto/solana-go"
)

// Well-known program and account addresses.
var (
	SplStakePoolProgramID = solana.MustPublicKeyFromBase58("SPoo1Ku8WFXoNDMHPsrGSTSG1Y47rzgn41SLUNakuHy")
	MarinadeProgramID     = solana.MustPublicKeyFromBase58("MarBmsSgKXdrN1egZf5sqe1TMai9K1rChYNDJgjq7aD")
	MarinadeStateAddress  = solana.MustPublicKeyFromBase58("8szGkuLTAux9XMgZ2vtY39jVSowEcpBfFfD8hXSEqdGC")

	WrappedSolMint = solana.SolMint
	MsolMint       = solana.MustPublicKeyFromBase58("mSoLzYCxHdYgdzU16g5QSh3i5K3z3KZK7ytfqcJm7So")
)

var ErrMalformedState = errors.New("malformed external state")

// Account is a snapshot of an external account supplied with a transaction.
type Account struct {
	Address solana.PublicKey `json:"address"`
	Owner   solana.PublicKey `json:"owner"`
	Data    []byte           `json:"data"`
}

// AccountType is the leading tag of stake-pool program accounts.
type AccountType uint8

const (
	AccountTypeUninitialized AccountType = iota
	AccountTypeStakePool
	AccountTypeValidatorList
)

// StakePool is the prefix of an SPL stake-pool state account up to the
// fields needed for pricing. Trailing fields are ignored.
type StakePool struct {
	AccountType           AccountType
	Manager               solana.PublicKey
	Staker                solana.PublicKey
	StakeDepositAuthority solana.PublicKey
	StakeWithdrawBumpSeed uint8
	ValidatorList         solana.PublicKey
	ReserveStake          solana.PublicKey
	PoolMint              solana.PublicKey
	ManagerFeeAccount     solana.PublicKey
	TokenProgramID        solana.PublicKey
	TotalLamports         uint64
	PoolTokenSupply       uint64
	LastUpdateEpoch       uint64
}

func (s *StakePool) MarshalWithEncoder(enc *bin.Encoder) error {
	if err := enc.WriteUint8(uint8(s.AccountType)); err != nil {
		return err
	}
	for _, pk := range []solana.PublicKey{s.Manager, s.Staker, s.StakeDepositAuthority} {
		if err := enc.WriteBytes(pk[:], false); err != nil {
			return err
		}
	}
	if err := enc.WriteUint8(s.StakeWithdrawBumpSeed); err != nil {
		return err
	}
	for _, pk := range []solana.PublicKey{s.ValidatorList, s.ReserveStake, s.PoolMint, s.ManagerFeeAccount, s.TokenProgramID} {
		if err := enc.WriteBytes(pk[:], false); err != nil {
			return err
		}
	}
	for _, v := range []uint64{s.TotalLamports, s.PoolTokenSupply, s.LastUpdateEpoch} {
		if err := enc.WriteUint64(v, bin.LE); err != nil {
			return err
		}
	}
	return nil
}

func (s *StakePool) UnmarshalWithDecoder(dec *bin.Decoder) error {
	tag, err := dec.ReadUint8()
	if err != nil {
		return err
	}
	s.AccountType = AccountType(tag)

	for _, dst := range []*solana.PublicKey{&s.Manager, &s.Staker, &s.StakeDepositAuthority} {
		if err := readPubkey(dec, dst); err != nil {
			return err
		}
	}
	if s.StakeWithdrawBumpSeed, err = dec.ReadUint8(); err != nil {
		return err
	}
	for _, dst := range []*solana.PublicKey{&s.ValidatorList, &s.ReserveStake, &s.PoolMint, &s.ManagerFeeAccount, &s.TokenProgramID} {
		if err := readPubkey(dec, dst); err != nil {
			return err
		}
	}
	for _, dst := range []*uint64{&s.TotalLamports, &s.PoolTokenSupply, &s.LastUpdateEpoch} {
		if *dst, err = dec.ReadUint64(bin.LE); err != nil {
			return err
		}
	}
	return nil
}

// DecodeStakePool parses stake-pool state.
func DecodeStakePool(data []byte) (*StakePool, error) {
	s := &StakePool{}
	if err := s.UnmarshalWithDecoder(bin.NewBorshDecoder(data)); err != nil {
		return nil, fmt.Errorf("%w: stake pool: %v", ErrMalformedState, err)
	}
	return s, nil
}

// MarinadeStateDiscriminator tags the Marinade state account.
var MarinadeStateDiscriminator = discriminator("account:State")

// MarinadeState holds the fields of the Marinade state used for pricing.
// MsolPrice already carries 32 fractional bits.
type MarinadeState struct {
	Discriminator [8]byte
	MsolMint      solana.PublicKey
	MsolPrice     uint64
}

func (m *MarinadeState) MarshalWithEncoder(enc *bin.Encoder) error {
	if err := enc.WriteBytes(m.Discriminator[:], false); err != nil {
		return err
	}
	if err := enc.WriteBytes(m.MsolMint[:], false); err != nil {
		return err
	}
	return enc.WriteUint64(m.MsolPrice, bin.LE)
}

func (m *MarinadeState) UnmarshalWithDecoder(dec *bin.Decoder) error {
	raw, err := dec.ReadBytes(len(m.Discriminator))
	if err != nil {
		return err
	}
	copy(m.Discriminator[:], raw)
	if err := readPubkey(dec, &m.MsolMint); err != nil {
		return err
	}
	m.MsolPrice, err = dec.ReadUint64(bin.LE)
	return err
}

// DecodeMarinadeState parses the Marinade state.
func DecodeMarinadeState(data []byte) (*MarinadeState, error) {
	m := &MarinadeState{}
	if err := m.UnmarshalWithDecoder(bin.NewBorshDecoder(data)); err != nil {
		return nil, fmt.Errorf("%w: marinade state: %v", ErrMalformedState, err)
	}
	return m, nil
}

// StrategyStateDiscriminator tags the state account of an attachable strategy.
var StrategyStateDiscriminator = discriminator("account:CommonVaultStrategyState")

// StrategyState is the layout every attachable strategy program exposes:
// an 8-byte account tag, the LST it holds and its total holding.
type StrategyState struct {
	Discriminator       [8]byte
	LstMint             solana.PublicKey
	StratTotalLstAmount uint64
}

func (s *StrategyState) MarshalWithEncoder(enc *bin.Encoder) error {
	if err := enc.WriteBytes(s.Discriminator[:], false); err != nil {
		return err
	}
	if err := enc.WriteBytes(s.LstMint[:], false); err != nil {
		return err
	}
	return enc.WriteUint64(s.StratTotalLstAmount, bin.LE)
}

func (s *StrategyState) UnmarshalWithDecoder(dec *bin.Decoder) error {
	raw, err := dec.ReadBytes(len(s.Discriminator))
	if err != nil {
		return err
	}
	copy(s.Discriminator[:], raw)
	if err := readPubkey(dec, &s.LstMint); err != nil {
		return err
	}
	s.StratTotalLstAmount, err = dec.ReadUint64(bin.LE)
	return err
}

// DecodeStrategyState parses a strategy state.
func DecodeStrategyState(data []byte) (*StrategyState, error) {
	s := &StrategyState{}
	if err := s.UnmarshalWithDecoder(bin.NewBorshDecoder(data)); err != nil {
		return nil, fmt.Errorf("%w: strategy state: %v", ErrMalformedState, err)
	}
	return s, nil
}

// Encode serializes any of the layouts above; used by tests and tooling
// that fabricate external accounts.
func Encode(v bin.BinaryMarshaler) ([]byte, error) {
	var buf bytes.Buffer
	if err := v.MarshalWithEncoder(bin.NewBorshEncoder(&buf)); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func readPubkey(dec *bin.Decoder, dst *solana.PublicKey) error {
	raw, err := dec.ReadBytes(solana.PublicKeyLength)
	if err != nil {
		return err
	}
	*dst = solana.PublicKeyFromBytes(raw)
	return nil
}

func discriminator(preimage string) [8]byte {
	sum := sha256.Sum256([]byte(preimage))
	var d [8]byte
	copy(d[:], sum[:8])
	return d
}
