package entry

import (
	bin "github.com/gagliardetto/binary"
	"github.com/gagliardetto/solana-go"
)

// StrategyEntry links a vault to one external strategy state account and
// holds the last reconciled reading of that strategy's holdings.
type StrategyEntry struct {
	Main            solana.PublicKey `json:"main"`
	LstMint         solana.PublicKey `json:"lst_mint"`
	StrategyState   solana.PublicKey `json:"strategy_state"`
	StrategyProgram solana.PublicKey `json:"strategy_program"`

	NextWithdrawLstAmount     uint64 `json:"next_withdraw_lst_amount"`
	LastReadStratLstAmount    uint64 `json:"last_read_strat_lst_amount"`
	LastReadStratLstTimestamp int64  `json:"last_read_strat_lst_timestamp"`
}

func (s *StrategyEntry) Type() Type { return TypeStrategyEntry }

func (s *StrategyEntry) Validate() error { return nil }

func (s *StrategyEntry) Marshal() ([]byte, error) { return marshalRecord(TypeStrategyEntry, s) }

func (s *StrategyEntry) MarshalWithEncoder(enc *bin.Encoder) error {
	w := &fieldWriter{enc: enc}
	w.pubkey(s.Main)
	w.pubkey(s.LstMint)
	w.pubkey(s.StrategyState)
	w.pubkey(s.StrategyProgram)
	w.u64(s.NextWithdrawLstAmount)
	w.u64(s.LastReadStratLstAmount)
	w.i64(s.LastReadStratLstTimestamp)
	return w.err
}

func (s *StrategyEntry) UnmarshalWithDecoder(dec *bin.Decoder) error {
	r := &fieldReader{dec: dec}
	r.pubkey(&s.Main)
	r.pubkey(&s.LstMint)
	r.pubkey(&s.StrategyState)
	r.pubkey(&s.StrategyProgram)
	r.u64(&s.NextWithdrawLstAmount)
	r.u64(&s.LastReadStratLstAmount)
	r.i64(&s.LastReadStratLstTimestamp)
	return r.err
}

// DecodeStrategyEntry parses a serialized StrategyEntry record.
func DecodeStrategyEntry(data []byte) (*StrategyEntry, error) {
	s := &StrategyEntry{}
	if err := unmarshalRecord(TypeStrategyEntry, data, s); err != nil {
		return nil, err
	}
	return s, nil
}
