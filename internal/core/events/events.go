// Package events defines the structured records emitted by ledger operations.
// Every event carries the before/after quantities needed to rebuild the
// pool-share price series offline. Events are observational only.
package events

import (
	"github.com/gagliardetto/solana-go"
)

// Event is implemented by every emitted record.
type Event interface {
	EventName() string
}

// StakeEvent records a deposit of LST against freshly minted pool shares.
type StakeEvent struct {
	Main                  solana.PublicKey `json:"main"`
	LstMint               solana.PublicKey `json:"lst_mint"`
	Depositor             solana.PublicKey `json:"depositor"`
	DepositorLstAccount   solana.PublicKey `json:"depositor_lst_account"`
	DepositorShareAccount solana.PublicKey `json:"depositor_share_account"`
	RefCode               uint32           `json:"ref_code"`

	LstAmount         uint64 `json:"lst_amount"`
	LstPriceScaled    uint64 `json:"lst_price_p32"`
	DepositedSolValue uint64 `json:"deposited_sol_value"`
	SharesComputed    uint64 `json:"shares_computed"`
	DepositFeeShares  uint64 `json:"deposit_fee_shares"`
	SharesReceived    uint64 `json:"shares_received"`

	BackingSolValueBefore uint64 `json:"backing_sol_value_before"`
	ShareSupplyBefore     uint64 `json:"share_supply_before"`
	BackingSolValue       uint64 `json:"backing_sol_value"`
	ShareSupply           uint64 `json:"share_supply"`
}

func (StakeEvent) EventName() string { return "StakeEvent" }

// UnstakeEvent records pool shares exchanged for a delayed ticket.
type UnstakeEvent struct {
	Main     solana.PublicKey `json:"main"`
	Unstaker solana.PublicKey `json:"unstaker"`
	Ticket   solana.PublicKey `json:"ticket"`

	ShareAmount         uint64 `json:"share_amount"`
	WithdrawalFeeShares uint64 `json:"withdrawal_fee_shares"`
	SharesBurned        uint64 `json:"shares_burned"`
	TicketSolValue      uint64 `json:"ticket_sol_value"`
	TicketDueTimestamp  int64  `json:"ticket_due_timestamp"`

	BackingSolValueBefore uint64 `json:"backing_sol_value_before"`
	ShareSupplyBefore     uint64 `json:"share_supply_before"`
	BackingSolValue       uint64 `json:"backing_sol_value"`
	ShareSupply           uint64 `json:"share_supply"`
}

func (UnstakeEvent) EventName() string { return "UnstakeEvent" }

// TicketClaimEvent records LST delivered against a due ticket.
type TicketClaimEvent struct {
	Main        solana.PublicKey `json:"main"`
	LstMint     solana.PublicKey `json:"lst_mint"`
	Ticket      solana.PublicKey `json:"ticket"`
	Beneficiary solana.PublicKey `json:"beneficiary"`

	ClaimedSolValue         uint64 `json:"claimed_sol_value"`
	TicketSolValueRemaining uint64 `json:"ticket_sol_value_remaining"`
	LstPriceScaled          uint64 `json:"lst_price_p32"`
	LstAmountDelivered      uint64 `json:"lst_amount_delivered"`
	TicketDueTimestamp      int64  `json:"ticket_due_timestamp"`
	TicketClosed            bool   `json:"ticket_closed"`

	OutstandingTicketsSolValue uint64 `json:"outstanding_tickets_sol_value"`
}

func (TicketClaimEvent) EventName() string { return "TicketClaimEvent" }

// PriceUpdateEvent records a changed LST price and its effect on backing.
type PriceUpdateEvent struct {
	Main    solana.PublicKey `json:"main"`
	LstMint solana.PublicKey `json:"lst_mint"`

	LstAmount      uint64 `json:"lst_amount"`
	OldPriceScaled uint64 `json:"old_price_p32"`
	OldSolValue    uint64 `json:"old_sol_value"`
	NewPriceScaled uint64 `json:"new_price_p32"`
	NewSolValue    uint64 `json:"new_sol_value"`

	BackingSolValueBefore uint64 `json:"backing_sol_value_before"`
	BackingSolValue       uint64 `json:"backing_sol_value"`
}

func (PriceUpdateEvent) EventName() string { return "PriceUpdateEvent" }

// StrategyReconcileEvent records one poll of a strategy's holdings.
type StrategyReconcileEvent struct {
	Main          solana.PublicKey `json:"main"`
	LstMint       solana.PublicKey `json:"lst_mint"`
	StrategyEntry solana.PublicKey `json:"strategy_entry"`
	StrategyState solana.PublicKey `json:"strategy_state"`

	OldLstAmount   uint64 `json:"old_lst_amount"`
	NewLstAmount   uint64 `json:"new_lst_amount"`
	ProfitLst      uint64 `json:"profit_lst"`
	SlashingLst    uint64 `json:"slashing_lst"`
	LstPriceScaled uint64 `json:"lst_price_p32"`

	PerformanceFeeShares uint64 `json:"performance_fee_shares"`

	BackingSolValueBefore uint64 `json:"backing_sol_value_before"`
	BackingSolValue       uint64 `json:"backing_sol_value"`
	ShareSupply           uint64 `json:"share_supply"`
}

func (StrategyReconcileEvent) EventName() string { return "StrategyReconcileEvent" }

// Direction of a strategy transfer.
type Direction string

const (
	ToStrategy   Direction = "to_strategy"
	FromStrategy Direction = "from_strategy"
)

// StrategyTransferEvent records LST moved between a vault and a strategy.
type StrategyTransferEvent struct {
	Main          solana.PublicKey `json:"main"`
	LstMint       solana.PublicKey `json:"lst_mint"`
	StrategyEntry solana.PublicKey `json:"strategy_entry"`
	StrategyState solana.PublicKey `json:"strategy_state"`
	Direction     Direction        `json:"direction"`

	LstAmount           uint64 `json:"lst_amount"`
	LastReadStratAmount uint64 `json:"last_read_strat_lst_amount"`
	NextWithdrawAmount  uint64 `json:"next_withdraw_lst_amount"`
	VaultLocallyStored  uint64 `json:"vault_locally_stored_amount"`
	VaultInStrategies   uint64 `json:"vault_in_strategies_amount"`
}

func (StrategyTransferEvent) EventName() string { return "StrategyTransferEvent" }
