package testing

import (
	"testing"

	"github.com/gagliardetto/solana-go"
	"github.com/stretchr/testify/require"

	"github.com/LeJamon/restaked/internal/core/tx"
)

// RequireTxSuccess asserts that a transaction result indicates success.
func RequireTxSuccess(t *testing.T, result TxResult) {
	t.Helper()
	require.True(t, result.Success,
		"Expected transaction success, got %s: %s", result.Code, result.Detail)
}

// RequireTxFail asserts that a transaction failed with a specific result.
func RequireTxFail(t *testing.T, result TxResult, expected tx.Result) {
	t.Helper()
	require.False(t, result.Success,
		"Expected transaction failure with code %s, but transaction succeeded", expected)
	require.Equal(t, expected.String(), result.Code,
		"Expected failure code %s, got %s: %s", expected, result.Code, result.Detail)
}

// RequireTokenBalance asserts that acc's associated account of mint holds expected.
func RequireTokenBalance(t *testing.T, env *TestEnv, acc *Account, mint solana.PublicKey, expected uint64) {
	t.Helper()
	actual := env.TokenBalance(acc, mint)
	require.Equal(t, expected, actual,
		"Account %s balance of %s mismatch: expected %d, got %d", acc.Name, mint, expected, actual)
}

// RequireVaultInvariant asserts the split and custody invariants of a vault.
func RequireVaultInvariant(t *testing.T, env *TestEnv, main, lst solana.PublicKey) {
	t.Helper()
	v := env.Vault(main, lst)
	require.NoError(t, v.Validate())
	require.Equal(t, env.Balance(v.LstHoldingAccount), v.LocallyStoredAmount,
		"vault %s custody balance differs from locally stored amount", lst)
}

// RequireAuditOK asserts that vault value covers obligations to within
// tolerance and that every vault is internally consistent.
func RequireAuditOK(t *testing.T, env *TestEnv, main solana.PublicKey, tolerance uint64) {
	t.Helper()
	report := env.Audit(main, tolerance)
	require.True(t, report.OK, "audit failed: %+v", report)
}

// AssertBalanceChange runs fn and asserts the change of a token account's balance.
func AssertBalanceChange(t *testing.T, env *TestEnv, addr solana.PublicKey, expectedChange int64, fn func()) {
	t.Helper()
	before := env.Balance(addr)
	fn()
	after := env.Balance(addr)

	actualChange := int64(after) - int64(before)
	require.Equal(t, expectedChange, actualChange,
		"Balance change of %s mismatch: expected %d, got %d (before: %d, after: %d)",
		addr, expectedChange, actualChange, before, after)
}

// AssertNoBalanceChange runs fn and asserts the balance stays the same.
func AssertNoBalanceChange(t *testing.T, env *TestEnv, addr solana.PublicKey, fn func()) {
	t.Helper()
	AssertBalanceChange(t, env, addr, 0, fn)
}
