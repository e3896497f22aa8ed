package entry

import (
	"fmt"
)

// Type represents a ledger entry type
type Type uint16

// All known ledger entry types
const (
	// Protocol accounting
	TypeMainState     Type = 0x004d // Protocol-wide accounting (one per deployment)
	TypeVaultState    Type = 0x0056 // Per-LST vault accounting
	TypeStrategyEntry Type = 0x0052 // Vault to strategy relation
	TypeUnstakeTicket Type = 0x0054 // Delayed withdrawal ticket

	// Token custody
	TypeMint         Type = 0x006d // Token mint (supply + authority)
	TypeTokenAccount Type = 0x0074 // Token holding account
)

// String returns the string representation of the Type
func (t Type) String() string {
	switch t {
	case TypeMainState:
		return "MainState"
	case TypeVaultState:
		return "VaultState"
	case TypeStrategyEntry:
		return "StrategyEntry"
	case TypeUnstakeTicket:
		return "UnstakeTicket"
	case TypeMint:
		return "Mint"
	case TypeTokenAccount:
		return "TokenAccount"
	default:
		return fmt.Sprintf("Unknown(%#x)", uint16(t))
	}
}

// TypeFromData reads the entry type from a serialized record's discriminator.
func TypeFromData(data []byte) (Type, bool) {
	if len(data) < discriminatorLen {
		return 0, false
	}
	var d [discriminatorLen]byte
	copy(d[:], data)
	t, ok := typeByDiscriminator[d]
	return t, ok
}

// Entry defines the interface for all ledger entries
type Entry interface {
	Type() Type
	Validate() error
	Marshal() ([]byte, error)
}
