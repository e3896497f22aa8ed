package restake

import "errors"

// Validation errors. The prefix is the result the engine reports.
var (
	ErrMainStateRequired  = errors.New("temMALFORMED: MainState is required")
	ErrLstMintRequired    = errors.New("temMALFORMED: LstMint is required")
	ErrPoolMintRequired   = errors.New("temMALFORMED: PoolShareMint is required")
	ErrAuthorityRequired  = errors.New("temMALFORMED: OperatorAuth and StrategyRebalancerAuth are required")
	ErrTicketRequired     = errors.New("temMALFORMED: Ticket is required")
	ErrStrategyRequired   = errors.New("temMALFORMED: StrategyState is required")
	ErrProgramRequired    = errors.New("temMALFORMED: StrategyProgram is required")
	ErrNothingToUpdate    = errors.New("temREDUNDANT: nothing to update")
	ErrTreasuryConflict   = errors.New("temMALFORMED: Treasury and ClearTreasury are exclusive")
	ErrAmountRequired     = errors.New("temBAD_AMOUNT: amount must be positive")
	ErrDepositFeeTooHigh  = errors.New("temBAD_FEE: DepositFeeBp above maximum")
	ErrWithdrawFeeTooHigh = errors.New("temBAD_FEE: WithdrawFeeBp above maximum")
	ErrPerfFeeTooHigh     = errors.New("temBAD_FEE: PerformanceFeeBp above maximum")
)

// Ledger rule failures raised inside Apply.
var (
	errEntryMissing     = errors.New("ledger entry not found")
	errNoPermission     = errors.New("signer lacks the required authority")
	errDepositsDisabled = errors.New("deposits disabled")
	errDepositTooSmall  = errors.New("deposit below minimum movement")
	errUnstakeTooSmall  = errors.New("ticket value below minimum movement")
	errTicketNotDue     = errors.New("ticket not due")
	errExceedsAvailable = errors.New("amount exceeds LST available for strategies")
	errStrategyNotEmpty = errors.New("strategy reports a non-zero amount")
	errNothingToSettle  = errors.New("nothing to settle")
	errNotEnoughLst     = errors.New("not enough LST in vault custody")
)
