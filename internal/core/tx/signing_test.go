package tx

import (
	"encoding/json"
	"testing"

	"github.com/gagliardetto/solana-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type amountTx struct {
	BaseTx
	Amount uint64 `json:"Amount"`
}

func (a *amountTx) TxType() Type { return TypeUpdateTicketTarget }

func newAmountTx(signer solana.PublicKey, amount uint64) *amountTx {
	return &amountTx{BaseTx: *NewBaseTx(TypeUpdateTicketTarget, signer), Amount: amount}
}

func TestSignAndVerify(t *testing.T) {
	key := solana.NewWallet().PrivateKey
	txn := newAmountTx(key.PublicKey(), 7)

	require.ErrorIs(t, VerifySignature(txn), ErrMissingSignature)
	require.NoError(t, Sign(txn, key))
	require.NotNil(t, txn.Signature)
	require.NoError(t, VerifySignature(txn))

	// The payload never covers the signature itself
	payload, err := SigningPayload(txn)
	require.NoError(t, err)
	assert.NotContains(t, string(payload), "Signature")
	assert.NotNil(t, txn.Signature)
}

func TestVerifySignatureRejects(t *testing.T) {
	key := solana.NewWallet().PrivateKey
	other := solana.NewWallet().PrivateKey

	tests := []struct {
		name   string
		tamper func(*amountTx)
	}{
		{name: "changed field", tamper: func(a *amountTx) { a.Amount++ }},
		{name: "claimed signer", tamper: func(a *amountTx) { a.Signer = other.PublicKey() }},
		{name: "changed type", tamper: func(a *amountTx) { a.TransactionType = TypeUnstake.String() }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			txn := newAmountTx(key.PublicKey(), 7)
			require.NoError(t, Sign(txn, key))
			tt.tamper(txn)
			assert.ErrorIs(t, VerifySignature(txn), ErrBadSignature)
		})
	}
}

func TestSignRequiresSignerKey(t *testing.T) {
	txn := newAmountTx(solana.NewWallet().PublicKey(), 1)
	require.ErrorIs(t, Sign(txn, solana.NewWallet().PrivateKey), ErrWrongSigningKey)
	assert.Nil(t, txn.Signature)
}

func TestSignatureSurvivesJSON(t *testing.T) {
	key := solana.NewWallet().PrivateKey
	txn := newAmountTx(key.PublicKey(), 3)
	require.NoError(t, Sign(txn, key))

	data, err := ToJSON(txn)
	require.NoError(t, err)
	assert.Contains(t, string(data), txn.Signature.String())

	var decoded amountTx
	require.NoError(t, json.Unmarshal(data, &decoded))
	require.NoError(t, VerifySignature(&decoded))
}
