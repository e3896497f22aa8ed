package entry

import (
	"fmt"

	bin "github.com/gagliardetto/binary"
	"github.com/gagliardetto/solana-go"
)

// UnstakeTicket is a delayed claim on SOL-value created by an unstake.
type UnstakeTicket struct {
	Main               solana.PublicKey `json:"main"`
	Beneficiary        solana.PublicKey `json:"beneficiary"`
	TicketSolValue     uint64           `json:"ticket_sol_value"`
	TicketDueTimestamp int64            `json:"ticket_due_timestamp"`
}

func (t *UnstakeTicket) Type() Type { return TypeUnstakeTicket }

func (t *UnstakeTicket) Validate() error { return nil }

// IsDue reports whether the ticket can be claimed at unix time now.
func (t *UnstakeTicket) IsDue(now int64) bool {
	return now >= t.TicketDueTimestamp
}

// Claim takes amount of SOL-value out of the ticket. A partial claim must be
// at least minMovement and must leave either nothing or at least minMovement.
func (t *UnstakeTicket) Claim(amount, minMovement uint64) error {
	if amount == 0 {
		return ErrAmountIsZero
	}
	if amount > t.TicketSolValue {
		return fmt.Errorf("%w: want %d have %d", ErrNotEnoughTicketValue, amount, t.TicketSolValue)
	}
	remainder := t.TicketSolValue - amount
	if remainder != 0 {
		if amount < minMovement {
			return fmt.Errorf("%w: %d < %d", ErrWithdrawAmountTooSmall, amount, minMovement)
		}
		if remainder < minMovement {
			return fmt.Errorf("%w: %d < %d", ErrTicketDustRemainder, remainder, minMovement)
		}
	}
	t.TicketSolValue = remainder
	return nil
}

// IsClosed reports whether nothing is left to claim.
func (t *UnstakeTicket) IsClosed() bool {
	return t.TicketSolValue == 0
}

func (t *UnstakeTicket) Marshal() ([]byte, error) { return marshalRecord(TypeUnstakeTicket, t) }

func (t *UnstakeTicket) MarshalWithEncoder(enc *bin.Encoder) error {
	w := &fieldWriter{enc: enc}
	w.pubkey(t.Main)
	w.pubkey(t.Beneficiary)
	w.u64(t.TicketSolValue)
	w.i64(t.TicketDueTimestamp)
	return w.err
}

func (t *UnstakeTicket) UnmarshalWithDecoder(dec *bin.Decoder) error {
	r := &fieldReader{dec: dec}
	r.pubkey(&t.Main)
	r.pubkey(&t.Beneficiary)
	r.u64(&t.TicketSolValue)
	r.i64(&t.TicketDueTimestamp)
	return r.err
}

// DecodeUnstakeTicket parses a serialized UnstakeTicket record.
func DecodeUnstakeTicket(data []byte) (*UnstakeTicket, error) {
	t := &UnstakeTicket{}
	if err := unmarshalRecord(TypeUnstakeTicket, data, t); err != nil {
		return nil, err
	}
	return t, nil
}
