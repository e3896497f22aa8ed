package entry

import "errors"

// Record-level business rule failures. Transactors map these to result codes.
var (
	ErrAmountIsZero            = errors.New("amount is zero")
	ErrDepositExceedsVaultCap  = errors.New("deposit exceeds vault cap")
	ErrNotEnoughLocalLst       = errors.New("not enough locally stored LST")
	ErrNotEnoughInStrategies   = errors.New("not enough LST in strategies")
	ErrNotEnoughTicketValue    = errors.New("withdraw amount exceeds ticket value")
	ErrWithdrawAmountTooSmall  = errors.New("withdraw amount too small")
	ErrTicketDustRemainder     = errors.New("ticket remainder below minimum movement")
	ErrFeeAboveMaximum         = errors.New("fee above protocol maximum")
	ErrVaultAccountingMismatch = errors.New("vault total differs from local plus in-strategies")
	ErrStoredPriceBelowParity  = errors.New("stored price below 1.0")
)
