package tx

import "fmt"

// Type represents a transaction type code
type Type uint16

// All transaction type codes
const (
	TypeInvalid Type = 0xFFFF // Invalid/unknown type

	// Administration
	TypeInitialize     Type = 1
	TypeCreateVault    Type = 2
	TypeConfigureMain  Type = 3
	TypeConfigureVault Type = 4
	TypeAttachStrategy Type = 5

	// User operations
	TypeStake       Type = 10
	TypeUnstake     Type = 11
	TypeTicketClaim Type = 12

	// Cranks
	TypeUpdateVaultPrice     Type = 20
	TypeUpdateStrategyAmount Type = 21
	TypeTransferToStrategy   Type = 22
	TypeSetNextWithdraw      Type = 23
	TypeSettleWithdrawal     Type = 24
	TypeUpdateTicketTarget   Type = 25
)

var typeNames = map[Type]string{
	TypeInitialize:           "Initialize",
	TypeCreateVault:          "CreateVault",
	TypeConfigureMain:        "ConfigureMain",
	TypeConfigureVault:       "ConfigureVault",
	TypeAttachStrategy:       "AttachStrategy",
	TypeStake:                "Stake",
	TypeUnstake:              "Unstake",
	TypeTicketClaim:          "TicketClaim",
	TypeUpdateVaultPrice:     "UpdateVaultPrice",
	TypeUpdateStrategyAmount: "UpdateStrategyAmount",
	TypeTransferToStrategy:   "TransferToStrategy",
	TypeSetNextWithdraw:      "SetNextWithdraw",
	TypeSettleWithdrawal:     "SettleWithdrawal",
	TypeUpdateTicketTarget:   "UpdateTicketTarget",
}

var typeNameMap = func() map[string]Type {
	m := make(map[string]Type, len(typeNames))
	for t, name := range typeNames {
		m[name] = t
	}
	return m
}()

// String returns the transaction type name
func (t Type) String() string {
	if name, ok := typeNames[t]; ok {
		return name
	}
	return fmt.Sprintf("Unknown(%d)", uint16(t))
}

// TypeFromName returns the transaction type for a given name
func TypeFromName(name string) (Type, bool) {
	t, ok := typeNameMap[name]
	return t, ok
}

// IsCrank reports whether anyone may submit the type.
func (t Type) IsCrank() bool {
	switch t {
	case TypeUpdateVaultPrice, TypeUpdateStrategyAmount, TypeSettleWithdrawal:
		return true
	}
	return false
}
