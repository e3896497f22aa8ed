package entry

import (
	"fmt"

	bin "github.com/gagliardetto/binary"
	"github.com/gagliardetto/solana-go"

	"github.com/LeJamon/restaked/internal/core/fixedpoint"
)

// Protocol-wide fee ceilings in basis points.
const (
	MaxDepositFeeBp     uint16 = 100
	MaxWithdrawFeeBp    uint16 = 100
	MaxPerformanceFeeBp uint16 = 2500
)

// MainState is the protocol-wide accounting record. The pool-share price is
// BackingSolValue / pool mint supply.
type MainState struct {
	Admin                  solana.PublicKey  `json:"admin"`
	OperatorAuth           solana.PublicKey  `json:"operator_auth"`
	StrategyRebalancerAuth solana.PublicKey  `json:"strategy_rebalancer_auth"`
	PoolShareMint          solana.PublicKey  `json:"pool_share_mint"`
	Treasury               *solana.PublicKey `json:"treasury,omitempty"`

	DepositFeeBp     uint16 `json:"deposit_fee_bp"`
	WithdrawFeeBp    uint16 `json:"withdraw_fee_bp"`
	PerformanceFeeBp uint16 `json:"performance_fee_bp"`

	BackingSolValue            uint64 `json:"backing_sol_value"`
	OutstandingTicketsSolValue uint64 `json:"outstanding_tickets_sol_value"`
	UnstakeTicketWaitingHours  uint16 `json:"unstake_ticket_waiting_hours"`
}

func (m *MainState) Type() Type { return TypeMainState }

// Validate checks the fee rates against the protocol maxima.
func (m *MainState) Validate() error {
	if m.DepositFeeBp > MaxDepositFeeBp {
		return fmt.Errorf("%w: deposit fee %d > %d", ErrFeeAboveMaximum, m.DepositFeeBp, MaxDepositFeeBp)
	}
	if m.WithdrawFeeBp > MaxWithdrawFeeBp {
		return fmt.Errorf("%w: withdraw fee %d > %d", ErrFeeAboveMaximum, m.WithdrawFeeBp, MaxWithdrawFeeBp)
	}
	if m.PerformanceFeeBp > MaxPerformanceFeeBp {
		return fmt.Errorf("%w: performance fee %d > %d", ErrFeeAboveMaximum, m.PerformanceFeeBp, MaxPerformanceFeeBp)
	}
	return nil
}

// TreasuryAccount returns the configured treasury and whether one is set.
func (m *MainState) TreasuryAccount() (solana.PublicKey, bool) {
	if m.Treasury == nil || m.Treasury.IsZero() {
		return solana.PublicKey{}, false
	}
	return *m.Treasury, true
}

// ApplyBackingDelta moves BackingSolValue by a profit/slashing pair.
func (m *MainState) ApplyBackingDelta(profit, slashing uint64) error {
	v, err := fixedpoint.ApplyDelta(m.BackingSolValue, profit, slashing)
	if err != nil {
		return fmt.Errorf("backing sol value: %w", err)
	}
	m.BackingSolValue = v
	return nil
}

// WaitingSeconds is the ticket delay in seconds.
func (m *MainState) WaitingSeconds() int64 {
	return int64(m.UnstakeTicketWaitingHours) * 3600
}

func (m *MainState) Marshal() ([]byte, error) { return marshalRecord(TypeMainState, m) }

func (m *MainState) MarshalWithEncoder(enc *bin.Encoder) error {
	w := &fieldWriter{enc: enc}
	w.pubkey(m.Admin)
	w.pubkey(m.OperatorAuth)
	w.pubkey(m.StrategyRebalancerAuth)
	w.pubkey(m.PoolShareMint)
	w.optionalPubkey(m.Treasury)
	w.u16(m.DepositFeeBp)
	w.u16(m.WithdrawFeeBp)
	w.u16(m.PerformanceFeeBp)
	w.u64(m.BackingSolValue)
	w.u64(m.OutstandingTicketsSolValue)
	w.u16(m.UnstakeTicketWaitingHours)
	return w.err
}

func (m *MainState) UnmarshalWithDecoder(dec *bin.Decoder) error {
	r := &fieldReader{dec: dec}
	r.pubkey(&m.Admin)
	r.pubkey(&m.OperatorAuth)
	r.pubkey(&m.StrategyRebalancerAuth)
	r.pubkey(&m.PoolShareMint)
	r.optionalPubkey(&m.Treasury)
	r.u16(&m.DepositFeeBp)
	r.u16(&m.WithdrawFeeBp)
	r.u16(&m.PerformanceFeeBp)
	r.u64(&m.BackingSolValue)
	r.u64(&m.OutstandingTicketsSolValue)
	r.u16(&m.UnstakeTicketWaitingHours)
	return r.err
}

// DecodeMainState parses a serialized MainState record.
func DecodeMainState(data []byte) (*MainState, error) {
	m := &MainState{}
	if err := unmarshalRecord(TypeMainState, data, m); err != nil {
		return nil, err
	}
	return m, nil
}
