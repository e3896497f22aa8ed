package restake

import (
	"fmt"

	"github.com/gagliardetto/solana-go"

	"github.com/LeJamon/restaked/internal/core/events"
	"github.com/LeJamon/restaked/internal/core/fixedpoint"
	"github.com/LeJamon/restaked/internal/core/ledger/entry"
	"github.com/LeJamon/restaked/internal/core/ledger/keylet"
	"github.com/LeJamon/restaked/internal/core/token"
	"github.com/LeJamon/restaked/internal/core/tx"
)

func init() {
	tx.Register(tx.TypeUnstake, func() tx.Transaction {
		return &Unstake{BaseTx: *tx.NewBaseTx(tx.TypeUnstake, solana.PublicKey{})}
	})
}

// Unstake burns pool shares in exchange for a ticket redeemable for their
// SOL value once the waiting period ends.
type Unstake struct {
	tx.BaseTx

	MainState   solana.PublicKey `json:"MainState"`
	ShareAmount uint64           `json:"ShareAmount"`

	// Ticket is a fresh identity for the new ticket
	Ticket solana.PublicKey `json:"Ticket"`
}

// NewUnstake creates a new Unstake transaction
func NewUnstake(unstaker, mainState solana.PublicKey, shareAmount uint64, ticket solana.PublicKey) *Unstake {
	return &Unstake{
		BaseTx:      *tx.NewBaseTx(tx.TypeUnstake, unstaker),
		MainState:   mainState,
		ShareAmount: shareAmount,
		Ticket:      ticket,
	}
}

// TxType returns the transaction type
func (u *Unstake) TxType() tx.Type {
	return tx.TypeUnstake
}

// Validate validates the Unstake transaction
func (u *Unstake) Validate() error {
	if err := u.BaseTx.Validate(); err != nil {
		return err
	}
	if u.MainState.IsZero() {
		return ErrMainStateRequired
	}
	if u.Ticket.IsZero() {
		return ErrTicketRequired
	}
	if u.ShareAmount == 0 {
		return ErrAmountRequired
	}
	return nil
}

// Apply applies the Unstake transaction to the ledger.
func (u *Unstake) Apply(ctx *tx.ApplyContext) tx.Result {
	main, err := loadMain(ctx.View, u.MainState)
	if err != nil {
		return fail(ctx, err)
	}
	shareAccount := keylet.AssociatedTokenAccount(ctx.Signer, main.PoolShareMint)
	holding, err := token.ValidateAccount(ctx.View, shareAccount, main.PoolShareMint)
	if err != nil {
		return fail(ctx, err)
	}
	if holding.Amount < u.ShareAmount {
		return fail(ctx, fmt.Errorf("%w: holds %d shares, unstaking %d", token.ErrInsufficientFunds, holding.Amount, u.ShareAmount))
	}

	var fee uint64
	treasury, hasTreasury := treasuryAccount(ctx, main)
	if hasTreasury {
		if fee, err = fixedpoint.ApplyBp(u.ShareAmount, main.WithdrawFeeBp); err != nil {
			return fail(ctx, err)
		}
	}
	burned := u.ShareAmount - fee

	// Ticket value is computed against the pre-burn supply and backing.
	supplyBefore, err := shareSupply(ctx.View, main)
	if err != nil {
		return fail(ctx, err)
	}
	backingBefore := main.BackingSolValue
	ticketValue, err := fixedpoint.SharesToSolValue(burned, backingBefore, supplyBefore)
	if err != nil {
		return fail(ctx, err)
	}
	if ticketValue < ctx.Config.MinMovement {
		return fail(ctx, fmt.Errorf("%w: %d < %d", errUnstakeTooSmall, ticketValue, ctx.Config.MinMovement))
	}

	// The treasury's own fee shares stay in its account unburned.
	if fee > 0 && shareAccount != treasury {
		if err := token.Transfer(ctx.View, shareAccount, treasury, fee); err != nil {
			return fail(ctx, err)
		}
	}
	if err := token.Burn(ctx.View, main.PoolShareMint, shareAccount, burned); err != nil {
		return fail(ctx, err)
	}

	if main.BackingSolValue, err = fixedpoint.Sub(main.BackingSolValue, ticketValue); err != nil {
		return fail(ctx, err)
	}
	if main.OutstandingTicketsSolValue, err = fixedpoint.Add(main.OutstandingTicketsSolValue, ticketValue); err != nil {
		return fail(ctx, err)
	}

	ticket := &entry.UnstakeTicket{
		Main:               u.MainState,
		Beneficiary:        ctx.Signer,
		TicketSolValue:     ticketValue,
		TicketDueTimestamp: ctx.UnixNow() + main.WaitingSeconds(),
	}
	if err := insert(ctx.View, keylet.Ticket(u.Ticket), ticket); err != nil {
		return fail(ctx, err)
	}
	if err := update(ctx.View, keylet.MainState(u.MainState), main); err != nil {
		return fail(ctx, err)
	}

	ctx.Emit(events.UnstakeEvent{
		Main:                  u.MainState,
		Unstaker:              ctx.Signer,
		Ticket:                u.Ticket,
		ShareAmount:           u.ShareAmount,
		WithdrawalFeeShares:   fee,
		SharesBurned:          burned,
		TicketSolValue:        ticketValue,
		TicketDueTimestamp:    ticket.TicketDueTimestamp,
		BackingSolValueBefore: backingBefore,
		ShareSupplyBefore:     supplyBefore,
		BackingSolValue:       main.BackingSolValue,
		ShareSupply:           supplyBefore - burned,
	})
	return tx.TesSUCCESS
}
