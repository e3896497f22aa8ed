package testing

import (
	"crypto/ed25519"
	"crypto/sha512"

	"github.com/gagliardetto/solana-go"
)

// Account represents a test identity with a keypair.
type Account struct {
	// Name is a human-readable identifier for the account (used for debugging).
	Name string

	PrivateKey solana.PrivateKey
	PublicKey  solana.PublicKey
}

// NewAccount creates a new test account with a deterministic keypair derived from the name.
// Using the same name will always produce the same account, making tests reproducible.
func NewAccount(name string) *Account {
	hash := sha512.Sum512([]byte(name))
	key := solana.PrivateKey(ed25519.NewKeyFromSeed(hash[:ed25519.SeedSize]))
	return &Account{
		Name:       name,
		PrivateKey: key,
		PublicKey:  key.PublicKey(),
	}
}

// Key returns a deterministic identity for name, for things that never sign
// such as mints, main states and tickets.
func Key(name string) solana.PublicKey {
	return NewAccount("key:" + name).PublicKey
}

func (a *Account) String() string {
	return a.Name + "(" + a.PublicKey.String() + ")"
}
