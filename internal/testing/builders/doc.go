// Package builders provides fluent transaction builder helpers for testing.
//
// Builders fill the fields tests rarely care about and expose the rest as
// chained setters:
//
//	Stake(alice, main, lst, amount).RefCode(7).Build()
//
//	Unstake(alice, main, shares).Ticket(id).Build()
//
//	Claim(alice, main, ticket, lst, solValue).State(pool.Account()).Build()
//
// Builders never validate; invalid combinations are passed through so tests
// can exercise preflight failures.
package builders
