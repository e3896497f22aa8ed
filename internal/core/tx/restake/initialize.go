package restake

import (
	"github.com/gagliardetto/solana-go"

	"github.com/LeJamon/restaked/internal/core/ledger/entry"
	"github.com/LeJamon/restaked/internal/core/ledger/keylet"
	"github.com/LeJamon/restaked/internal/core/token"
	"github.com/LeJamon/restaked/internal/core/tx"
)

func init() {
	tx.Register(tx.TypeInitialize, func() tx.Transaction {
		return &Initialize{BaseTx: *tx.NewBaseTx(tx.TypeInitialize, solana.PublicKey{})}
	})
}

// Initialize creates a main state and its pool-share mint. The signer
// becomes the admin. Omitted fee fields take the engine defaults.
type Initialize struct {
	tx.BaseTx

	MainState              solana.PublicKey  `json:"MainState"`
	PoolShareMint          solana.PublicKey  `json:"PoolShareMint"`
	OperatorAuth           solana.PublicKey  `json:"OperatorAuth"`
	StrategyRebalancerAuth solana.PublicKey  `json:"StrategyRebalancerAuth"`
	Treasury               *solana.PublicKey `json:"Treasury,omitempty"`

	DepositFeeBp              *uint16 `json:"DepositFeeBp,omitempty"`
	WithdrawFeeBp             *uint16 `json:"WithdrawFeeBp,omitempty"`
	PerformanceFeeBp          *uint16 `json:"PerformanceFeeBp,omitempty"`
	UnstakeTicketWaitingHours *uint16 `json:"UnstakeTicketWaitingHours,omitempty"`
}

// NewInitialize creates a new Initialize transaction
func NewInitialize(admin, mainState, poolShareMint, operator, rebalancer solana.PublicKey) *Initialize {
	return &Initialize{
		BaseTx:                 *tx.NewBaseTx(tx.TypeInitialize, admin),
		MainState:              mainState,
		PoolShareMint:          poolShareMint,
		OperatorAuth:           operator,
		StrategyRebalancerAuth: rebalancer,
	}
}

// TxType returns the transaction type
func (i *Initialize) TxType() tx.Type {
	return tx.TypeInitialize
}

// Validate validates the Initialize transaction
func (i *Initialize) Validate() error {
	if err := i.BaseTx.Validate(); err != nil {
		return err
	}
	if i.MainState.IsZero() {
		return ErrMainStateRequired
	}
	if i.PoolShareMint.IsZero() {
		return ErrPoolMintRequired
	}
	if i.OperatorAuth.IsZero() || i.StrategyRebalancerAuth.IsZero() {
		return ErrAuthorityRequired
	}
	return validateFees(i.DepositFeeBp, i.WithdrawFeeBp, i.PerformanceFeeBp)
}

// Apply applies the Initialize transaction to the ledger.
func (i *Initialize) Apply(ctx *tx.ApplyContext) tx.Result {
	defaults := ctx.Config.Defaults
	main := &entry.MainState{
		Admin:                     ctx.Signer,
		OperatorAuth:              i.OperatorAuth,
		StrategyRebalancerAuth:    i.StrategyRebalancerAuth,
		PoolShareMint:             i.PoolShareMint,
		Treasury:                  i.Treasury,
		DepositFeeBp:              orDefault(i.DepositFeeBp, defaults.DepositFeeBp),
		WithdrawFeeBp:             orDefault(i.WithdrawFeeBp, defaults.WithdrawFeeBp),
		PerformanceFeeBp:          orDefault(i.PerformanceFeeBp, defaults.PerformanceFeeBp),
		UnstakeTicketWaitingHours: orDefault(i.UnstakeTicketWaitingHours, defaults.UnstakeTicketWaitingHours),
	}
	if err := main.Validate(); err != nil {
		return fail(ctx, err)
	}

	if err := token.CreateMint(ctx.View, i.PoolShareMint, keylet.MintAuthority(i.MainState)); err != nil {
		return fail(ctx, err)
	}
	if err := insert(ctx.View, keylet.MainState(i.MainState), main); err != nil {
		return fail(ctx, err)
	}

	ctx.Logger.Info("main state initialized", "main", i.MainState, "pool_share_mint", i.PoolShareMint, "admin", ctx.Signer)
	return tx.TesSUCCESS
}

func orDefault(v *uint16, def uint16) uint16 {
	if v == nil {
		return def
	}
	return *v
}
