package builders

import (
	"sync/atomic"

	"github.com/gagliardetto/solana-go"

	"github.com/LeJamon/restaked/internal/core/external"
	"github.com/LeJamon/restaked/internal/core/tx/restake"
)

// StakeBuilder provides a fluent interface for building Stake transactions.
type StakeBuilder struct {
	tx *restake.Stake
}

// Stake creates a new StakeBuilder.
func Stake(depositor, main, lst solana.PublicKey, amount uint64) *StakeBuilder {
	return &StakeBuilder{tx: restake.NewStake(depositor, main, lst, amount)}
}

// RefCode sets the referral code carried into the stake event.
func (b *StakeBuilder) RefCode(code uint32) *StakeBuilder {
	b.tx.RefCode = code
	return b
}

// Build returns the transaction.
func (b *StakeBuilder) Build() *restake.Stake {
	return b.tx
}

// UnstakeBuilder provides a fluent interface for building Unstake transactions.
type UnstakeBuilder struct {
	tx *restake.Unstake
}

var ticketCounter atomic.Uint64

// Unstake creates a new UnstakeBuilder with a fresh ticket identity.
func Unstake(unstaker, main solana.PublicKey, shares uint64) *UnstakeBuilder {
	return &UnstakeBuilder{tx: restake.NewUnstake(unstaker, main, shares, freshKey(ticketCounter.Add(1)))}
}

// Ticket overrides the ticket identity.
func (b *UnstakeBuilder) Ticket(id solana.PublicKey) *UnstakeBuilder {
	b.tx.Ticket = id
	return b
}

// Build returns the transaction.
func (b *UnstakeBuilder) Build() *restake.Unstake {
	return b.tx
}

// ClaimBuilder provides a fluent interface for building TicketClaim transactions.
type ClaimBuilder struct {
	tx *restake.TicketClaim
}

// Claim creates a new ClaimBuilder.
func Claim(beneficiary, main, ticket, lst solana.PublicKey, solValue uint64) *ClaimBuilder {
	return &ClaimBuilder{tx: restake.NewTicketClaim(beneficiary, main, ticket, lst, solValue, nil)}
}

// State supplies the LST state used to refresh the price.
func (b *ClaimBuilder) State(acct external.Account) *ClaimBuilder {
	b.tx.LstState = &acct
	return b
}

// Build returns the transaction.
func (b *ClaimBuilder) Build() *restake.TicketClaim {
	return b.tx
}

// PriceBuilder provides a fluent interface for building UpdateVaultPrice transactions.
type PriceBuilder struct {
	tx *restake.UpdateVaultPrice
}

// UpdateVaultPrice creates a new PriceBuilder.
func UpdateVaultPrice(signer, main, lst solana.PublicKey) *PriceBuilder {
	return &PriceBuilder{tx: restake.NewUpdateVaultPrice(signer, main, lst, nil)}
}

// State supplies the LST state.
func (b *PriceBuilder) State(acct external.Account) *PriceBuilder {
	b.tx.LstState = &acct
	return b
}

// Build returns the transaction.
func (b *PriceBuilder) Build() *restake.UpdateVaultPrice {
	return b.tx
}

func freshKey(n uint64) solana.PublicKey {
	var k solana.PublicKey
	k[0] = 0x7e
	for i := 0; i < 8; i++ {
		k[31-i] = byte(n >> (8 * i))
	}
	return k
}
