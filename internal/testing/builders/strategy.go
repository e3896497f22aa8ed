package builders

import (
	"github.com/gagliardetto/solana-go"

	"github.com/LeJamon/restaked/internal/core/external"
	"github.com/LeJamon/restaked/internal/core/tx/restake"
)

// TransferToStrategy builds a TransferToStrategy transaction.
func TransferToStrategy(rebalancer, main, lst, state solana.PublicKey, amount uint64) *restake.TransferToStrategy {
	return restake.NewTransferToStrategy(rebalancer, main, lst, state, amount)
}

// SetNextWithdraw builds a SetNextWithdraw transaction.
func SetNextWithdraw(operator, main, lst, state solana.PublicKey, amount uint64) *restake.SetNextWithdraw {
	return restake.NewSetNextWithdraw(operator, main, lst, state, amount)
}

// Settle builds a SettleWithdrawal transaction.
func Settle(signer, main, lst, state solana.PublicKey) *restake.SettleWithdrawal {
	return restake.NewSettleWithdrawal(signer, main, lst, state)
}

// Reconcile builds an UpdateStrategyAmount transaction.
func Reconcile(signer, main, lst solana.PublicKey, state external.Account) *restake.UpdateStrategyAmount {
	return restake.NewUpdateStrategyAmount(signer, main, lst, state)
}

// TicketTarget builds an UpdateTicketTarget transaction.
func TicketTarget(operator, main, lst solana.PublicKey, solValue uint64) *restake.UpdateTicketTarget {
	return restake.NewUpdateTicketTarget(operator, main, lst, solValue)
}
