package restake

import (
	"github.com/gagliardetto/solana-go"

	"github.com/LeJamon/restaked/internal/core/ledger/keylet"
	"github.com/LeJamon/restaked/internal/core/tx"
)

func init() {
	tx.Register(tx.TypeConfigureMain, func() tx.Transaction {
		return &ConfigureMain{BaseTx: *tx.NewBaseTx(tx.TypeConfigureMain, solana.PublicKey{})}
	})
}

// ConfigureMain updates the fee schedule, waiting period, authorities or
// treasury of a main state. Only set fields change.
type ConfigureMain struct {
	tx.BaseTx

	MainState solana.PublicKey `json:"MainState"`

	OperatorAuth           *solana.PublicKey `json:"OperatorAuth,omitempty"`
	StrategyRebalancerAuth *solana.PublicKey `json:"StrategyRebalancerAuth,omitempty"`
	Treasury               *solana.PublicKey `json:"Treasury,omitempty"`
	ClearTreasury          bool              `json:"ClearTreasury,omitempty"`

	DepositFeeBp              *uint16 `json:"DepositFeeBp,omitempty"`
	WithdrawFeeBp             *uint16 `json:"WithdrawFeeBp,omitempty"`
	PerformanceFeeBp          *uint16 `json:"PerformanceFeeBp,omitempty"`
	UnstakeTicketWaitingHours *uint16 `json:"UnstakeTicketWaitingHours,omitempty"`
}

// NewConfigureMain creates a new ConfigureMain transaction with no changes set
func NewConfigureMain(admin, mainState solana.PublicKey) *ConfigureMain {
	return &ConfigureMain{
		BaseTx:    *tx.NewBaseTx(tx.TypeConfigureMain, admin),
		MainState: mainState,
	}
}

// TxType returns the transaction type
func (c *ConfigureMain) TxType() tx.Type {
	return tx.TypeConfigureMain
}

// Validate validates the ConfigureMain transaction
func (c *ConfigureMain) Validate() error {
	if err := c.BaseTx.Validate(); err != nil {
		return err
	}
	if c.MainState.IsZero() {
		return ErrMainStateRequired
	}
	if c.Treasury != nil && c.ClearTreasury {
		return ErrTreasuryConflict
	}
	if c.OperatorAuth == nil && c.StrategyRebalancerAuth == nil && c.Treasury == nil && !c.ClearTreasury &&
		c.DepositFeeBp == nil && c.WithdrawFeeBp == nil && c.PerformanceFeeBp == nil && c.UnstakeTicketWaitingHours == nil {
		return ErrNothingToUpdate
	}
	if (c.OperatorAuth != nil && c.OperatorAuth.IsZero()) ||
		(c.StrategyRebalancerAuth != nil && c.StrategyRebalancerAuth.IsZero()) {
		return ErrAuthorityRequired
	}
	return validateFees(c.DepositFeeBp, c.WithdrawFeeBp, c.PerformanceFeeBp)
}

// Apply applies the ConfigureMain transaction to the ledger.
func (c *ConfigureMain) Apply(ctx *tx.ApplyContext) tx.Result {
	main, err := loadMain(ctx.View, c.MainState)
	if err != nil {
		return fail(ctx, err)
	}
	if err := requireSigner(ctx, main.Admin, "admin"); err != nil {
		return fail(ctx, err)
	}

	if c.OperatorAuth != nil {
		main.OperatorAuth = *c.OperatorAuth
	}
	if c.StrategyRebalancerAuth != nil {
		main.StrategyRebalancerAuth = *c.StrategyRebalancerAuth
	}
	switch {
	case c.Treasury != nil:
		treasury := *c.Treasury
		main.Treasury = &treasury
	case c.ClearTreasury:
		main.Treasury = nil
	}
	if c.DepositFeeBp != nil {
		main.DepositFeeBp = *c.DepositFeeBp
	}
	if c.WithdrawFeeBp != nil {
		main.WithdrawFeeBp = *c.WithdrawFeeBp
	}
	if c.PerformanceFeeBp != nil {
		main.PerformanceFeeBp = *c.PerformanceFeeBp
	}
	if c.UnstakeTicketWaitingHours != nil {
		main.UnstakeTicketWaitingHours = *c.UnstakeTicketWaitingHours
	}
	if err := main.Validate(); err != nil {
		return fail(ctx, err)
	}

	if err := update(ctx.View, keylet.MainState(c.MainState), main); err != nil {
		return fail(ctx, err)
	}
	return tx.TesSUCCESS
}
