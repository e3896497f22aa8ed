package entry

import (
	bin "github.com/gagliardetto/binary"
	"github.com/gagliardetto/solana-go"
)

// Mint is a token definition: who may mint and how much exists.
type Mint struct {
	Authority solana.PublicKey `json:"authority"`
	Supply    uint64           `json:"supply"`
	Decimals  uint8            `json:"decimals"`
}

func (m *Mint) Type() Type { return TypeMint }

func (m *Mint) Validate() error { return nil }

func (m *Mint) Marshal() ([]byte, error) { return marshalRecord(TypeMint, m) }

func (m *Mint) MarshalWithEncoder(enc *bin.Encoder) error {
	w := &fieldWriter{enc: enc}
	w.pubkey(m.Authority)
	w.u64(m.Supply)
	w.u8(m.Decimals)
	return w.err
}

func (m *Mint) UnmarshalWithDecoder(dec *bin.Decoder) error {
	r := &fieldReader{dec: dec}
	r.pubkey(&m.Authority)
	r.u64(&m.Supply)
	r.u8(&m.Decimals)
	return r.err
}

// DecodeMint parses a serialized Mint record.
func DecodeMint(data []byte) (*Mint, error) {
	m := &Mint{}
	if err := unmarshalRecord(TypeMint, data, m); err != nil {
		return nil, err
	}
	return m, nil
}

// TokenAccount holds Amount units of Mint on behalf of Owner.
type TokenAccount struct {
	Mint   solana.PublicKey `json:"mint"`
	Owner  solana.PublicKey `json:"owner"`
	Amount uint64           `json:"amount"`
}

func (a *TokenAccount) Type() Type { return TypeTokenAccount }

func (a *TokenAccount) Validate() error { return nil }

func (a *TokenAccount) Marshal() ([]byte, error) { return marshalRecord(TypeTokenAccount, a) }

func (a *TokenAccount) MarshalWithEncoder(enc *bin.Encoder) error {
	w := &fieldWriter{enc: enc}
	w.pubkey(a.Mint)
	w.pubkey(a.Owner)
	w.u64(a.Amount)
	return w.err
}

func (a *TokenAccount) UnmarshalWithDecoder(dec *bin.Decoder) error {
	r := &fieldReader{dec: dec}
	r.pubkey(&a.Mint)
	r.pubkey(&a.Owner)
	r.u64(&a.Amount)
	return r.err
}

// DecodeTokenAccount parses a serialized TokenAccount record.
func DecodeTokenAccount(data []byte) (*TokenAccount, error) {
	a := &TokenAccount{}
	if err := unmarshalRecord(TypeTokenAccount, data, a); err != nil {
		return nil, err
	}
	return a, nil
}

// Decode parses any known record by its discriminator.
func Decode(data []byte) (Entry, error) {
	t, ok := TypeFromData(data)
	if !ok {
		return nil, ErrUnexpectedDiscriminator
	}
	switch t {
	case TypeMainState:
		return DecodeMainState(data)
	case TypeVaultState:
		return DecodeVaultState(data)
	case TypeStrategyEntry:
		return DecodeStrategyEntry(data)
	case TypeUnstakeTicket:
		return DecodeUnstakeTicket(data)
	case TypeMint:
		return DecodeMint(data)
	default:
		return DecodeTokenAccount(data)
	}
}
