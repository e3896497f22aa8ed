package restake

import (
	"fmt"

	"github.com/gagliardetto/solana-go"

	"github.com/LeJamon/restaked/internal/core/events"
	"github.com/LeJamon/restaked/internal/core/external"
	"github.com/LeJamon/restaked/internal/core/fixedpoint"
	"github.com/LeJamon/restaked/internal/core/ledger/keylet"
	"github.com/LeJamon/restaked/internal/core/token"
	"github.com/LeJamon/restaked/internal/core/tx"
)

func init() {
	tx.Register(tx.TypeTicketClaim, func() tx.Transaction {
		return &TicketClaim{BaseTx: *tx.NewBaseTx(tx.TypeTicketClaim, solana.PublicKey{})}
	})
}

// TicketClaim redeems all or part of a due ticket for LST of one vault,
// valued at a freshly read price.
type TicketClaim struct {
	tx.BaseTx

	MainState        solana.PublicKey `json:"MainState"`
	Ticket           solana.PublicKey `json:"Ticket"`
	LstMint          solana.PublicKey `json:"LstMint"`
	WithdrawSolValue uint64           `json:"WithdrawSolValue"`

	// LstState is required for every LST except wrapped SOL
	LstState *external.Account `json:"LstState,omitempty"`
}

// NewTicketClaim creates a new TicketClaim transaction
func NewTicketClaim(beneficiary, mainState, ticket, lstMint solana.PublicKey, solValue uint64, state *external.Account) *TicketClaim {
	return &TicketClaim{
		BaseTx:           *tx.NewBaseTx(tx.TypeTicketClaim, beneficiary),
		MainState:        mainState,
		Ticket:           ticket,
		LstMint:          lstMint,
		WithdrawSolValue: solValue,
		LstState:         state,
	}
}

// TxType returns the transaction type
func (c *TicketClaim) TxType() tx.Type {
	return tx.TypeTicketClaim
}

// Validate validates the TicketClaim transaction
func (c *TicketClaim) Validate() error {
	if err := c.BaseTx.Validate(); err != nil {
		return err
	}
	if err := validateVaultRef(c.MainState, c.LstMint); err != nil {
		return err
	}
	if c.Ticket.IsZero() {
		return ErrTicketRequired
	}
	if c.WithdrawSolValue == 0 {
		return ErrAmountRequired
	}
	return nil
}

// Apply applies the TicketClaim transaction to the ledger.
func (c *TicketClaim) Apply(ctx *tx.ApplyContext) tx.Result {
	main, err := loadMain(ctx.View, c.MainState)
	if err != nil {
		return fail(ctx, err)
	}
	ticket, err := loadTicket(ctx.View, c.Ticket)
	if err != nil {
		return fail(ctx, err)
	}
	if ticket.Main != c.MainState {
		return fail(ctx, fmt.Errorf("%w: ticket %s belongs to %s", errEntryMissing, c.Ticket, ticket.Main))
	}
	if err := requireSigner(ctx, ticket.Beneficiary, "beneficiary"); err != nil {
		return fail(ctx, err)
	}
	if !ticket.IsDue(ctx.UnixNow()) {
		return fail(ctx, fmt.Errorf("%w: due at %d", errTicketNotDue, ticket.TicketDueTimestamp))
	}

	if err := ticket.Claim(c.WithdrawSolValue, ctx.Config.MinMovement); err != nil {
		return fail(ctx, err)
	}
	if main.OutstandingTicketsSolValue, err = fixedpoint.Sub(main.OutstandingTicketsSolValue, c.WithdrawSolValue); err != nil {
		return fail(ctx, err)
	}

	vault, err := loadVault(ctx.View, c.MainState, c.LstMint)
	if err != nil {
		return fail(ctx, err)
	}
	vault.TicketsTargetSolValue = fixedpoint.SaturatingSub(vault.TicketsTargetSolValue, c.WithdrawSolValue)

	if err := refreshVaultPrice(ctx, c.MainState, main, vault, c.LstState); err != nil {
		return fail(ctx, err)
	}
	lstAmount, err := fixedpoint.SolValueToLst(c.WithdrawSolValue, vault.LstSolPriceScaled)
	if err != nil {
		return fail(ctx, err)
	}
	custody, err := token.Balance(ctx.View, vault.LstHoldingAccount)
	if err != nil {
		return fail(ctx, err)
	}
	if lstAmount > custody {
		return fail(ctx, fmt.Errorf("%w: need %d, custody holds %d", errNotEnoughLst, lstAmount, custody))
	}

	dest, err := token.EnsureAccount(ctx.View, ticket.Beneficiary, c.LstMint)
	if err != nil {
		return fail(ctx, err)
	}
	if err := token.Transfer(ctx.View, vault.LstHoldingAccount, dest, lstAmount); err != nil {
		return fail(ctx, err)
	}
	if err := vault.RecordWithdrawal(lstAmount); err != nil {
		return fail(ctx, err)
	}

	ticketKey := keylet.Ticket(c.Ticket)
	if ticket.IsClosed() {
		err = ctx.View.Erase(ticketKey)
	} else {
		err = update(ctx.View, ticketKey, ticket)
	}
	if err != nil {
		return fail(ctx, err)
	}
	if err := update(ctx.View, keylet.Vault(c.MainState, c.LstMint), vault); err != nil {
		return fail(ctx, err)
	}
	if err := update(ctx.View, keylet.MainState(c.MainState), main); err != nil {
		return fail(ctx, err)
	}

	ctx.Emit(events.TicketClaimEvent{
		Main:                       c.MainState,
		LstMint:                    c.LstMint,
		Ticket:                     c.Ticket,
		Beneficiary:                ticket.Beneficiary,
		ClaimedSolValue:            c.WithdrawSolValue,
		TicketSolValueRemaining:    ticket.TicketSolValue,
		LstPriceScaled:             vault.LstSolPriceScaled,
		LstAmountDelivered:         lstAmount,
		TicketDueTimestamp:         ticket.TicketDueTimestamp,
		TicketClosed:               ticket.IsClosed(),
		OutstandingTicketsSolValue: main.OutstandingTicketsSolValue,
	})
	return tx.TesSUCCESS
}
