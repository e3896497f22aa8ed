package entry

import (
	"fmt"

	bin "github.com/gagliardetto/binary"
	"github.com/gagliardetto/solana-go"

	"github.com/LeJamon/restaked/internal/core/fixedpoint"
)

// VaultState is the per-LST accounting record, keyed by (main state, LST mint).
//
// TotalLstAmount always equals LocallyStoredAmount + InStrategiesAmount.
type VaultState struct {
	Main              solana.PublicKey `json:"main"`
	LstMint           solana.PublicKey `json:"lst_mint"`
	LstHoldingAccount solana.PublicKey `json:"lst_holding_account"`

	LstSolPriceScaled    uint64 `json:"lst_sol_price_p32"`
	LstSolPriceTimestamp int64  `json:"lst_sol_price_timestamp"`

	TotalLstAmount      uint64 `json:"total_lst_amount"`
	LocallyStoredAmount uint64 `json:"locally_stored_amount"`
	InStrategiesAmount  uint64 `json:"in_strategies_amount"`

	TicketsTargetSolValue uint64 `json:"tickets_target_sol_value"`
	DepositsDisabled      bool   `json:"deposits_disabled"`
	// DepositCap is 0 for unlimited.
	DepositCap uint64 `json:"deposit_cap"`
}

func (v *VaultState) Type() Type { return TypeVaultState }

// Validate checks the split invariant and the stored price floor.
func (v *VaultState) Validate() error {
	if err := v.CheckInvariant(); err != nil {
		return err
	}
	if v.LstSolPriceScaled != 0 && v.LstSolPriceScaled < fixedpoint.TwoPow32 {
		return fmt.Errorf("%w: %d", ErrStoredPriceBelowParity, v.LstSolPriceScaled)
	}
	return nil
}

// CheckInvariant verifies total == local + in strategies.
func (v *VaultState) CheckInvariant() error {
	sum, err := fixedpoint.Add(v.LocallyStoredAmount, v.InStrategiesAmount)
	if err != nil || sum != v.TotalLstAmount {
		return fmt.Errorf("%w: total=%d local=%d strategies=%d",
			ErrVaultAccountingMismatch, v.TotalLstAmount, v.LocallyStoredAmount, v.InStrategiesAmount)
	}
	return nil
}

// RecordDeposit adds freshly custodied LST to the vault.
func (v *VaultState) RecordDeposit(lstAmount uint64) error {
	local, err := fixedpoint.Add(v.LocallyStoredAmount, lstAmount)
	if err != nil {
		return err
	}
	total, err := fixedpoint.Add(v.TotalLstAmount, lstAmount)
	if err != nil {
		return err
	}
	if v.DepositCap != 0 {
		held, err := fixedpoint.Add(local, v.InStrategiesAmount)
		if err != nil {
			return err
		}
		if held > v.DepositCap {
			return fmt.Errorf("%w: %d > %d", ErrDepositExceedsVaultCap, held, v.DepositCap)
		}
	}
	v.LocallyStoredAmount, v.TotalLstAmount = local, total
	return nil
}

// RecordWithdrawal removes locally stored LST delivered to a ticket holder.
func (v *VaultState) RecordWithdrawal(lstAmount uint64) error {
	if lstAmount > v.LocallyStoredAmount {
		return fmt.Errorf("%w: want %d have %d", ErrNotEnoughLocalLst, lstAmount, v.LocallyStoredAmount)
	}
	total, err := fixedpoint.Sub(v.TotalLstAmount, lstAmount)
	if err != nil {
		return err
	}
	v.LocallyStoredAmount -= lstAmount
	v.TotalLstAmount = total
	return nil
}

// RecordStrategyTransferOut moves LST from local custody to strategies.
func (v *VaultState) RecordStrategyTransferOut(lstAmount uint64) error {
	if lstAmount == 0 {
		return ErrAmountIsZero
	}
	if lstAmount > v.LocallyStoredAmount {
		return fmt.Errorf("%w: want %d have %d", ErrNotEnoughLocalLst, lstAmount, v.LocallyStoredAmount)
	}
	in, err := fixedpoint.Add(v.InStrategiesAmount, lstAmount)
	if err != nil {
		return err
	}
	v.LocallyStoredAmount -= lstAmount
	v.InStrategiesAmount = in
	return nil
}

// RecordStrategyTransferIn moves LST back from strategies to local custody.
func (v *VaultState) RecordStrategyTransferIn(lstAmount uint64) error {
	if lstAmount == 0 {
		return ErrAmountIsZero
	}
	if lstAmount > v.InStrategiesAmount {
		return fmt.Errorf("%w: want %d have %d", ErrNotEnoughInStrategies, lstAmount, v.InStrategiesAmount)
	}
	local, err := fixedpoint.Add(v.LocallyStoredAmount, lstAmount)
	if err != nil {
		return err
	}
	v.InStrategiesAmount -= lstAmount
	v.LocallyStoredAmount = local
	return nil
}

// AvailableForStrategies is the locally stored LST that may be delegated
// without eating into the ticket settlement target.
func (v *VaultState) AvailableForStrategies() (uint64, error) {
	if v.TicketsTargetSolValue == 0 {
		return v.LocallyStoredAmount, nil
	}
	if v.LstSolPriceScaled == 0 {
		return 0, nil
	}
	reserved, err := fixedpoint.SolValueToLst(v.TicketsTargetSolValue, v.LstSolPriceScaled)
	if err != nil {
		return 0, err
	}
	return fixedpoint.SaturatingSub(v.LocallyStoredAmount, reserved), nil
}

// ReconcileExternalAmount applies the delta between a prior and a new reading
// of LST held outside local custody. The change lands on TotalLstAmount and
// InStrategiesAmount; the LST-unit profit/slashing pair is returned for the
// caller to value and propagate.
func (v *VaultState) ReconcileExternalAmount(prior, current uint64) (profit, slashing uint64, err error) {
	profit, slashing = fixedpoint.Delta(prior, current)
	total, err := fixedpoint.ApplyDelta(v.TotalLstAmount, profit, slashing)
	if err != nil {
		return 0, 0, fmt.Errorf("total lst amount: %w", err)
	}
	in, err := fixedpoint.ApplyDelta(v.InStrategiesAmount, profit, slashing)
	if err != nil {
		return 0, 0, fmt.Errorf("in strategies amount: %w", err)
	}
	v.TotalLstAmount, v.InStrategiesAmount = total, in
	return profit, slashing, nil
}

// SolValue is TotalLstAmount valued at the cached price.
func (v *VaultState) SolValue() (uint64, error) {
	return fixedpoint.LstToSolValue(v.TotalLstAmount, v.LstSolPriceScaled)
}

// IsEmpty reports whether the vault holds nothing.
func (v *VaultState) IsEmpty() bool {
	return v.TotalLstAmount == 0
}

func (v *VaultState) Marshal() ([]byte, error) { return marshalRecord(TypeVaultState, v) }

func (v *VaultState) MarshalWithEncoder(enc *bin.Encoder) error {
	w := &fieldWriter{enc: enc}
	w.pubkey(v.Main)
	w.pubkey(v.LstMint)
	w.pubkey(v.LstHoldingAccount)
	w.u64(v.LstSolPriceScaled)
	w.i64(v.LstSolPriceTimestamp)
	w.u64(v.TotalLstAmount)
	w.u64(v.LocallyStoredAmount)
	w.u64(v.InStrategiesAmount)
	w.u64(v.TicketsTargetSolValue)
	w.boolean(v.DepositsDisabled)
	w.u64(v.DepositCap)
	return w.err
}

func (v *VaultState) UnmarshalWithDecoder(dec *bin.Decoder) error {
	r := &fieldReader{dec: dec}
	r.pubkey(&v.Main)
	r.pubkey(&v.LstMint)
	r.pubkey(&v.LstHoldingAccount)
	r.u64(&v.LstSolPriceScaled)
	r.i64(&v.LstSolPriceTimestamp)
	r.u64(&v.TotalLstAmount)
	r.u64(&v.LocallyStoredAmount)
	r.u64(&v.InStrategiesAmount)
	r.u64(&v.TicketsTargetSolValue)
	r.boolean(&v.DepositsDisabled)
	r.u64(&v.DepositCap)
	return r.err
}

// DecodeVaultState parses a serialized VaultState record.
func DecodeVaultState(data []byte) (*VaultState, error) {
	v := &VaultState{}
	if err := unmarshalRecord(TypeVaultState, data, v); err != nil {
		return nil, err
	}
	return v, nil
}
