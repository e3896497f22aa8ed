package tx

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/gagliardetto/solana-go"
)

// Signature errors
var (
	ErrMissingSignature = errors.New("transaction is not signed")
	ErrBadSignature     = errors.New("signature does not match Signer")
	ErrWrongSigningKey  = errors.New("signing key does not belong to Signer")
)

// SigningPayload returns the bytes Signer signs: the JSON encoding of t
// without its Signature.
func SigningPayload(t Transaction) ([]byte, error) {
	c := t.GetCommon()
	sig := c.Signature
	c.Signature = nil
	defer func() { c.Signature = sig }()
	return json.Marshal(t)
}

// Sign sets t's Signature using key, which must be Signer's.
func Sign(t Transaction, key solana.PrivateKey) error {
	c := t.GetCommon()
	if key.PublicKey() != c.Signer {
		return fmt.Errorf("%w: %s", ErrWrongSigningKey, c.Signer)
	}
	payload, err := SigningPayload(t)
	if err != nil {
		return err
	}
	sig, err := key.Sign(payload)
	if err != nil {
		return fmt.Errorf("sign transaction: %w", err)
	}
	c.Signature = &sig
	return nil
}

// VerifySignature checks that t carries a valid signature by its Signer.
func VerifySignature(t Transaction) error {
	c := t.GetCommon()
	if c.Signature == nil {
		return ErrMissingSignature
	}
	if c.Signer.IsZero() {
		return ErrMissingSigner
	}
	payload, err := SigningPayload(t)
	if err != nil {
		return err
	}
	if !c.Signature.Verify(c.Signer, payload) {
		return fmt.Errorf("%w: %s", ErrBadSignature, c.Signer)
	}
	return nil
}
