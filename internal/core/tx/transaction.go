package tx

import (
	"errors"

	"github.com/gagliardetto/solana-go"
)

// Common errors
var (
	ErrMissingSigner          = errors.New("temBAD_SIGNER: Signer is required")
	ErrInvalidTransactionType = errors.New("temINVALID: invalid transaction type")
)

// Transaction is the interface that all transaction types must implement
type Transaction interface {
	// TxType returns the transaction type
	TxType() Type

	// GetCommon returns the common transaction fields
	GetCommon() *Common

	// Validate checks the transaction in isolation, before any ledger read.
	// Errors carry their result token as a prefix, e.g. "temBAD_AMOUNT: ...".
	Validate() error
}

// Appliable is implemented by transaction types that can apply themselves to ledger state.
type Appliable interface {
	Apply(ctx *ApplyContext) Result
}

// Common contains fields common to all transaction types
type Common struct {
	TransactionType string `json:"TransactionType"`

	// Signer is the identity that authorized the transaction. The engine
	// trusts it; submissions from outside the process are checked against
	// Signature first.
	Signer solana.PublicKey `json:"Signer"`

	// Signature is Signer's ed25519 signature over SigningPayload.
	Signature *solana.Signature `json:"Signature,omitempty"`
}

// BaseTx is embedded by every transaction type.
type BaseTx struct {
	Common
}

// NewBaseTx creates the common part of a transaction.
func NewBaseTx(txType Type, signer solana.PublicKey) *BaseTx {
	return &BaseTx{Common: Common{TransactionType: txType.String(), Signer: signer}}
}

// GetCommon returns the common fields.
func (b *BaseTx) GetCommon() *Common {
	return &b.Common
}

// Validate checks the common fields.
func (b *BaseTx) Validate() error {
	if b.Signer.IsZero() {
		return ErrMissingSigner
	}
	return nil
}
