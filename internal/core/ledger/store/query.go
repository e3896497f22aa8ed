package store

import (
	"errors"
	"fmt"

	"github.com/gagliardetto/solana-go"

	"github.com/LeJamon/restaked/internal/core/fixedpoint"
	"github.com/LeJamon/restaked/internal/core/ledger/entry"
	"github.com/LeJamon/restaked/internal/core/ledger/keylet"
	"github.com/LeJamon/restaked/internal/core/token"
	"github.com/LeJamon/restaked/internal/core/tx"
)

// ErrNotFound is returned by the typed lookups when a record is absent.
var ErrNotFound = errors.New("not found")

// MainState loads the main state with identity id.
func MainState(view tx.LedgerView, id solana.PublicKey) (*entry.MainState, error) {
	data, err := readRecord(view, keylet.MainState(id))
	if err != nil {
		return nil, err
	}
	return entry.DecodeMainState(data)
}

// Vault loads the vault of lstMint under main.
func Vault(view tx.LedgerView, main, lstMint solana.PublicKey) (*entry.VaultState, error) {
	data, err := readRecord(view, keylet.Vault(main, lstMint))
	if err != nil {
		return nil, err
	}
	return entry.DecodeVaultState(data)
}

// Ticket loads an unstake ticket.
func Ticket(view tx.LedgerView, id solana.PublicKey) (*entry.UnstakeTicket, error) {
	data, err := readRecord(view, keylet.Ticket(id))
	if err != nil {
		return nil, err
	}
	return entry.DecodeUnstakeTicket(data)
}

// Strategy loads the bridge between the vault of lstMint under main and a
// strategy state.
func Strategy(view tx.LedgerView, main, lstMint, strategyState solana.PublicKey) (*entry.StrategyEntry, error) {
	data, err := readRecord(view, keylet.StrategyEntry(main, lstMint, strategyState))
	if err != nil {
		return nil, err
	}
	return entry.DecodeStrategyEntry(data)
}

func readRecord(view tx.LedgerView, k keylet.Keylet) ([]byte, error) {
	data, err := view.Read(k)
	if err != nil {
		return nil, err
	}
	if data == nil {
		return nil, fmt.Errorf("%s: %w", k, ErrNotFound)
	}
	return data, nil
}

// Vaults lists the vaults of main ordered by address.
func Vaults(view tx.LedgerView, main solana.PublicKey) ([]*entry.VaultState, error) {
	var (
		out     []*entry.VaultState
		iterErr error
	)
	err := view.ForEach(entry.TypeVaultState, func(_ [32]byte, data []byte) bool {
		v, err := entry.DecodeVaultState(data)
		if err != nil {
			iterErr = err
			return false
		}
		if v.Main == main {
			out = append(out, v)
		}
		return true
	})
	if err != nil {
		return nil, err
	}
	return out, iterErr
}

// Strategies lists the strategy bridges of main. A zero lstMint matches
// every vault.
func Strategies(view tx.LedgerView, main, lstMint solana.PublicKey) ([]*entry.StrategyEntry, error) {
	var (
		out     []*entry.StrategyEntry
		iterErr error
	)
	err := view.ForEach(entry.TypeStrategyEntry, func(_ [32]byte, data []byte) bool {
		s, err := entry.DecodeStrategyEntry(data)
		if err != nil {
			iterErr = err
			return false
		}
		if s.Main == main && (lstMint.IsZero() || s.LstMint == lstMint) {
			out = append(out, s)
		}
		return true
	})
	if err != nil {
		return nil, err
	}
	return out, iterErr
}

// TicketRef pairs a ticket with its identity.
type TicketRef struct {
	ID     solana.PublicKey     `json:"id"`
	Ticket *entry.UnstakeTicket `json:"ticket"`
}

// Tickets lists the open tickets of main.
func Tickets(view tx.LedgerView, main solana.PublicKey) ([]TicketRef, error) {
	var (
		out     []TicketRef
		iterErr error
	)
	err := view.ForEach(entry.TypeUnstakeTicket, func(key [32]byte, data []byte) bool {
		t, err := entry.DecodeUnstakeTicket(data)
		if err != nil {
			iterErr = err
			return false
		}
		if t.Main == main {
			out = append(out, TicketRef{ID: solana.PublicKeyFromBytes(key[:]), Ticket: t})
		}
		return true
	})
	if err != nil {
		return nil, err
	}
	return out, iterErr
}

// VaultAudit is the per-vault part of an audit.
type VaultAudit struct {
	LstMint        solana.PublicKey `json:"lst_mint"`
	TotalLstAmount uint64           `json:"total_lst_amount"`
	SolValue       uint64           `json:"sol_value"`
	CustodyBalance uint64           `json:"custody_balance"`
	Problems       []string         `json:"problems,omitempty"`
}

// AuditReport compares the value held in vaults with the value owed to
// share holders and ticket holders.
type AuditReport struct {
	Main                       solana.PublicKey `json:"main"`
	BackingSolValue            uint64           `json:"backing_sol_value"`
	OutstandingTicketsSolValue uint64           `json:"outstanding_tickets_sol_value"`
	ShareSupply                uint64           `json:"share_supply"`
	VaultsSolValue             uint64           `json:"vaults_sol_value"`

	// Surplus and Deficit are the rounding drift between vault value and
	// obligations; at most one is non-zero.
	Surplus uint64 `json:"surplus"`
	Deficit uint64 `json:"deficit"`

	OpenTickets int          `json:"open_tickets"`
	Vaults      []VaultAudit `json:"vaults"`
	OK          bool         `json:"ok"`
}

// Audit checks the global value balance of main together with each vault's
// split and custody invariants. A deficit above tolerance fails the audit.
func Audit(view tx.LedgerView, mainID solana.PublicKey, tolerance uint64) (*AuditReport, error) {
	main, err := MainState(view, mainID)
	if err != nil {
		return nil, err
	}
	mint, err := token.ReadMint(view, main.PoolShareMint)
	if err != nil {
		return nil, err
	}
	vaults, err := Vaults(view, mainID)
	if err != nil {
		return nil, err
	}
	tickets, err := Tickets(view, mainID)
	if err != nil {
		return nil, err
	}

	report := &AuditReport{
		Main:                       mainID,
		BackingSolValue:            main.BackingSolValue,
		OutstandingTicketsSolValue: main.OutstandingTicketsSolValue,
		ShareSupply:                mint.Supply,
		OpenTickets:                len(tickets),
		OK:                         true,
	}

	var ticketSum uint64
	for _, t := range tickets {
		if ticketSum, err = fixedpoint.Add(ticketSum, t.Ticket.TicketSolValue); err != nil {
			return nil, err
		}
	}

	for _, v := range vaults {
		va := VaultAudit{LstMint: v.LstMint, TotalLstAmount: v.TotalLstAmount}
		if va.SolValue, err = v.SolValue(); err != nil {
			return nil, err
		}
		if va.CustodyBalance, err = token.Balance(view, v.LstHoldingAccount); err != nil {
			return nil, err
		}
		if err := v.Validate(); err != nil {
			va.Problems = append(va.Problems, err.Error())
		}
		if va.CustodyBalance != v.LocallyStoredAmount {
			va.Problems = append(va.Problems, fmt.Sprintf("custody holds %d, vault records %d locally",
				va.CustodyBalance, v.LocallyStoredAmount))
		}
		if len(va.Problems) > 0 {
			report.OK = false
		}
		if report.VaultsSolValue, err = fixedpoint.Add(report.VaultsSolValue, va.SolValue); err != nil {
			return nil, err
		}
		report.Vaults = append(report.Vaults, va)
	}

	owed, err := fixedpoint.Add(main.BackingSolValue, main.OutstandingTicketsSolValue)
	if err != nil {
		return nil, err
	}
	report.Surplus, report.Deficit = fixedpoint.Delta(owed, report.VaultsSolValue)
	if report.Deficit > tolerance {
		report.OK = false
	}
	if ticketSum != main.OutstandingTicketsSolValue {
		report.OK = false
	}
	return report, nil
}
