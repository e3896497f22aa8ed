// Package fixedpoint holds the integer arithmetic shared by every ledger
// operation: scaled multiply-divide, basis-point fees and the conversions
// between LST amounts, SOL-value and pool shares.
//
// All conversions floor. Intermediates are computed on 256 bits so a product
// of two u64 values never wraps; only a final result that does not fit in 64
// bits is reported, as ErrArithmeticOverflow.
package fixedpoint

import (
	"errors"
	"math/bits"

	"github.com/holiman/uint256"
)

const (
	// TwoPow32 is the unit of a scaled price (32 fractional bits).
	TwoPow32 uint64 = 1 << 32

	// BasisPoints100Percent is 100% expressed in basis points.
	BasisPoints100Percent uint64 = 10_000
)

var (
	ErrArithmeticOverflow  = errors.New("arithmetic overflow")
	ErrArithmeticUnderflow = errors.New("arithmetic underflow")
	ErrDivisionByZero      = errors.New("division by zero")
	// ErrEmptyPool is returned when converting shares against a zero supply.
	ErrEmptyPool = errors.New("cannot convert shares of an empty pool")
	// ErrZeroBacking is returned when shares are outstanding but back nothing.
	ErrZeroBacking = errors.New("pool shares outstanding with zero backing")
)

// MulDiv returns floor(a*n/d).
func MulDiv(a, n, d uint64) (uint64, error) {
	if d == 0 {
		return 0, ErrDivisionByZero
	}
	product := new(uint256.Int).Mul(uint256.NewInt(a), uint256.NewInt(n))
	quotient := product.Div(product, uint256.NewInt(d))
	if !quotient.IsUint64() {
		return 0, ErrArithmeticOverflow
	}
	return quotient.Uint64(), nil
}

// ApplyBp returns floor(amount*bp/10000).
func ApplyBp(amount uint64, bp uint16) (uint64, error) {
	return MulDiv(amount, uint64(bp), BasisPoints100Percent)
}

// LstToSolValue converts an LST amount into SOL-value at a scaled price.
func LstToSolValue(lstAmount, priceScaled uint64) (uint64, error) {
	return MulDiv(lstAmount, priceScaled, TwoPow32)
}

// SolValueToLst converts SOL-value into an LST amount at a scaled price.
func SolValueToLst(solValue, priceScaled uint64) (uint64, error) {
	return MulDiv(solValue, TwoPow32, priceScaled)
}

// SolValueToShares converts SOL-value into pool shares at the current
// backing/supply ratio. An empty pool mints 1:1.
func SolValueToShares(solValue, backingSolValue, shareSupply uint64) (uint64, error) {
	if shareSupply == 0 {
		return solValue, nil
	}
	if backingSolValue == 0 {
		return 0, ErrZeroBacking
	}
	return MulDiv(solValue, shareSupply, backingSolValue)
}

// SharesToSolValue converts pool shares into SOL-value at the current
// backing/supply ratio.
func SharesToSolValue(shares, backingSolValue, shareSupply uint64) (uint64, error) {
	if shareSupply == 0 {
		return 0, ErrEmptyPool
	}
	return MulDiv(shares, backingSolValue, shareSupply)
}

// Add returns a+b or ErrArithmeticOverflow.
func Add(a, b uint64) (uint64, error) {
	sum, carry := bits.Add64(a, b, 0)
	if carry != 0 {
		return 0, ErrArithmeticOverflow
	}
	return sum, nil
}

// Sub returns a-b or ErrArithmeticUnderflow.
func Sub(a, b uint64) (uint64, error) {
	diff, borrow := bits.Sub64(a, b, 0)
	if borrow != 0 {
		return 0, ErrArithmeticUnderflow
	}
	return diff, nil
}

// SaturatingSub returns a-b, or 0 when b > a.
func SaturatingSub(a, b uint64) uint64 {
	if b > a {
		return 0
	}
	return a - b
}

// Delta splits the move from prior to current into a profit and a slashing
// component. At most one of the two is non-zero.
func Delta(prior, current uint64) (profit, slashing uint64) {
	if current >= prior {
		return current - prior, 0
	}
	return 0, prior - current
}

// ApplyDelta returns value + profit - slashing, checked in both directions.
func ApplyDelta(value, profit, slashing uint64) (uint64, error) {
	v, err := Add(value, profit)
	if err != nil {
		return 0, err
	}
	return Sub(v, slashing)
}
