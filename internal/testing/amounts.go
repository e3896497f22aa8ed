package testing

import "github.com/LeJamon/restaked/internal/core/fixedpoint"

// LamportsPerSol is the number of base units in one SOL or one LST token.
const LamportsPerSol = 1_000_000_000

// SOL converts whole tokens to base units.
func SOL(n uint64) uint64 {
	return n * LamportsPerSol
}

// Price returns num/den as a price with 32 fractional bits.
func Price(num, den uint64) uint64 {
	p, err := fixedpoint.MulDiv(num, fixedpoint.TwoPow32, den)
	if err != nil {
		panic(err)
	}
	return p
}
