// Package testing provides test infrastructure for restaking transaction
// tests.
//
// # Overview
//
// The testing package provides:
//   - TestEnv: an engine over an in-memory pebble store with a fake clock
//   - Account: deterministic ed25519 test identities
//   - Protocol fixtures: an initialized main state, vaults of each price
//     family, funded depositors and attached strategies
//   - Assertions: helpers for results, balances and ledger invariants
//
// # Basic Usage
//
//	func TestStake(t *testing.T) {
//	    env := jtx.NewTestEnv(t)
//	    p := env.SetupProtocol()
//	    wsol := env.AddParityVault(p)
//
//	    alice := jtx.NewAccount("alice")
//	    env.FundLst(alice, wsol, jtx.SOL(10))
//
//	    result := env.Submit(builders.Stake(alice.PublicKey, p.Main, wsol, jtx.SOL(1)).Build())
//	    jtx.RequireTxSuccess(t, result)
//	    jtx.RequireAuditOK(t, env, p.Main)
//	}
//
// # Clock Control
//
// The environment runs on a clockwork fake clock:
//
//	env.AdvanceTime(48 * time.Hour)
//	env.Now()
//
// # External State
//
// Stake pools and strategies live outside the ledger. Their fixtures keep
// a mutable snapshot that tests change and then hand to transactions:
//
//	pool.SetPrice(jtx.SOL(110), jtx.SOL(100))
//	env.Submit(builders.UpdateVaultPrice(keeper, p.Main, pool.Mint).State(pool.Account()).Build())
package testing
