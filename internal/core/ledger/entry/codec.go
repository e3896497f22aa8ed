package entry

import (
	"bytes"
	"crypto/sha256"
	"errors"
	"fmt"

	bin "github.com/gagliardetto/binary"
	"github.com/gagliardetto/solana-go"
)

const discriminatorLen = 8

var (
	ErrUnexpectedDiscriminator = errors.New("unexpected record discriminator")
	ErrTruncatedRecord         = errors.New("truncated record")
)

var (
	discriminators      = map[Type][discriminatorLen]byte{}
	typeByDiscriminator = map[[discriminatorLen]byte]Type{}
)

func init() {
	for t, name := range map[Type]string{
		TypeMainState:     "MainVaultState",
		TypeVaultState:    "SecondaryVaultState",
		TypeStrategyEntry: "VaultStrategyRelationEntry",
		TypeUnstakeTicket: "UnstakeTicket",
		TypeMint:          "Mint",
		TypeTokenAccount:  "TokenAccount",
	} {
		d := Discriminator("account:" + name)
		discriminators[t] = d
		typeByDiscriminator[d] = t
	}
}

// Discriminator returns the first 8 bytes of sha256(preimage).
func Discriminator(preimage string) [discriminatorLen]byte {
	sum := sha256.Sum256([]byte(preimage))
	var d [discriminatorLen]byte
	copy(d[:], sum[:discriminatorLen])
	return d
}

type recordCodec interface {
	MarshalWithEncoder(enc *bin.Encoder) error
	UnmarshalWithDecoder(dec *bin.Decoder) error
}

func marshalRecord(t Type, r recordCodec) ([]byte, error) {
	var buf bytes.Buffer
	enc := bin.NewBorshEncoder(&buf)
	d := discriminators[t]
	if err := enc.WriteBytes(d[:], false); err != nil {
		return nil, err
	}
	if err := r.MarshalWithEncoder(enc); err != nil {
		return nil, fmt.Errorf("failed to encode %s: %w", t, err)
	}
	return buf.Bytes(), nil
}

func unmarshalRecord(t Type, data []byte, r recordCodec) error {
	got, ok := TypeFromData(data)
	if !ok || got != t {
		return fmt.Errorf("%w: want %s", ErrUnexpectedDiscriminator, t)
	}
	dec := bin.NewBorshDecoder(data[discriminatorLen:])
	if err := r.UnmarshalWithDecoder(dec); err != nil {
		return fmt.Errorf("%w: %s: %v", ErrTruncatedRecord, t, err)
	}
	return nil
}

func writePubkey(enc *bin.Encoder, pk solana.PublicKey) error {
	return enc.WriteBytes(pk[:], false)
}

func readPubkey(dec *bin.Decoder) (solana.PublicKey, error) {
	raw, err := dec.ReadBytes(solana.PublicKeyLength)
	if err != nil {
		return solana.PublicKey{}, err
	}
	return solana.PublicKeyFromBytes(raw), nil
}

// writeOptionalPubkey encodes a Borsh Option<Pubkey>.
func writeOptionalPubkey(enc *bin.Encoder, pk *solana.PublicKey) error {
	if pk == nil {
		return enc.WriteUint8(0)
	}
	if err := enc.WriteUint8(1); err != nil {
		return err
	}
	return writePubkey(enc, *pk)
}

func readOptionalPubkey(dec *bin.Decoder) (*solana.PublicKey, error) {
	tag, err := dec.ReadUint8()
	if err != nil {
		return nil, err
	}
	switch tag {
	case 0:
		return nil, nil
	case 1:
		pk, err := readPubkey(dec)
		if err != nil {
			return nil, err
		}
		return &pk, nil
	default:
		return nil, fmt.Errorf("invalid option tag %d", tag)
	}
}

// fieldWriter chains encoder calls and keeps the first error.
type fieldWriter struct {
	enc *bin.Encoder
	err error
}

func (w *fieldWriter) pubkey(pk solana.PublicKey) {
	if w.err == nil {
		w.err = writePubkey(w.enc, pk)
	}
}

func (w *fieldWriter) optionalPubkey(pk *solana.PublicKey) {
	if w.err == nil {
		w.err = writeOptionalPubkey(w.enc, pk)
	}
}

func (w *fieldWriter) u64(v uint64) {
	if w.err == nil {
		w.err = w.enc.WriteUint64(v, bin.LE)
	}
}

func (w *fieldWriter) i64(v int64) {
	if w.err == nil {
		w.err = w.enc.WriteInt64(v, bin.LE)
	}
}

func (w *fieldWriter) u16(v uint16) {
	if w.err == nil {
		w.err = w.enc.WriteUint16(v, bin.LE)
	}
}

func (w *fieldWriter) u8(v uint8) {
	if w.err == nil {
		w.err = w.enc.WriteUint8(v)
	}
}

func (w *fieldWriter) boolean(v bool) {
	if w.err == nil {
		w.err = w.enc.WriteBool(v)
	}
}

// fieldReader mirrors fieldWriter for decoding.
type fieldReader struct {
	dec *bin.Decoder
	err error
}

func (r *fieldReader) pubkey(dst *solana.PublicKey) {
	if r.err == nil {
		*dst, r.err = readPubkey(r.dec)
	}
}

func (r *fieldReader) optionalPubkey(dst **solana.PublicKey) {
	if r.err == nil {
		*dst, r.err = readOptionalPubkey(r.dec)
	}
}

func (r *fieldReader) u64(dst *uint64) {
	if r.err == nil {
		*dst, r.err = r.dec.ReadUint64(bin.LE)
	}
}

func (r *fieldReader) i64(dst *int64) {
	if r.err == nil {
		*dst, r.err = r.dec.ReadInt64(bin.LE)
	}
}

func (r *fieldReader) u16(dst *uint16) {
	if r.err == nil {
		*dst, r.err = r.dec.ReadUint16(bin.LE)
	}
}

func (r *fieldReader) u8(dst *uint8) {
	if r.err == nil {
		*dst, r.err = r.dec.ReadUint8()
	}
}

func (r *fieldReader) boolean(dst *bool) {
	if r.err == nil {
		*dst, r.err = r.dec.ReadBool()
	}
}
