// Package sqrtpricemath moves a Q64.96 sqrt price by token amounts and
// measures the token deltas between two prices. The engine is exact-input
// only, so prices only ever move by adding an amount to the pool; every
// rounding direction favors the pool, matching the protocol.
package sqrtpricemath

import (
	"errors"
	"math/big"
	"sync"
)

var (
	// Q96 is the UQ64.96 fixed-point number representing 1.
	Q96 = new(big.Int).Lsh(big.NewInt(1), 96)
	// Resolution is the number of fractional bits in the Q96 format.
	Resolution = uint(96)

	ErrLiquidityZero = errors.New("liquidity must be greater than zero")
	ErrSqrtPriceZero = errors.New("sqrt price must be greater than zero")

	one = big.NewInt(1)
)

// scratch holds reusable big.Int objects so the per-step math does not
// allocate. Instances are handed out by a sync.Pool.
type scratch struct {
	product     *big.Int
	numerator1  *big.Int
	numerator2  *big.Int
	denominator *big.Int
	quotient    *big.Int
	term        *big.Int
	rem         *big.Int
}

var scratchPool = sync.Pool{
	New: func() any {
		return &scratch{
			product:     new(big.Int),
			numerator1:  new(big.Int),
			numerator2:  new(big.Int),
			denominator: new(big.Int),
			quotient:    new(big.Int),
			term:        new(big.Int),
			rem:         new(big.Int),
		}
	},
}

// mulDiv writes (a * b) / c into dest, truncating.
func (s *scratch) mulDiv(dest, a, b, c *big.Int) {
	s.product.Mul(a, b)
	dest.Div(s.product, c)
}

// mulDivRoundingUp writes ceil((a * b) / c) into dest.
func (s *scratch) mulDivRoundingUp(dest, a, b, c *big.Int) {
	s.product.Mul(a, b)
	dest.Div(s.product, c)
	if s.rem.Rem(s.product, c).Sign() > 0 {
		dest.Add(dest, one)
	}
}

// divRoundingUp writes ceil(a / b) into dest.
func (s *scratch) divRoundingUp(dest, a, b *big.Int) {
	dest.Div(a, b)
	if s.rem.Rem(a, b).Sign() > 0 {
		dest.Add(dest, one)
	}
}

// GetNextSqrtPriceFromAmount0RoundingUp writes the sqrt price reached
// after amount of token0 enters the pool. Adding token0 lowers the price;
// the result rounds up so the pool never undercharges.
func GetNextSqrtPriceFromAmount0RoundingUp(dest, sqrtPX96, liquidity, amount *big.Int) error {
	s := scratchPool.Get().(*scratch)
	defer scratchPool.Put(s)
	return s.getNextSqrtPriceFromAmount0RoundingUp(dest, sqrtPX96, liquidity, amount)
}

// GetNextSqrtPriceFromAmount1RoundingDown writes the sqrt price reached
// after amount of token1 enters the pool. Adding token1 raises the price;
// the result rounds down for the same reason.
func GetNextSqrtPriceFromAmount1RoundingDown(dest, sqrtPX96, liquidity, amount *big.Int) {
	s := scratchPool.Get().(*scratch)
	defer scratchPool.Put(s)
	s.getNextSqrtPriceFromAmount1RoundingDown(dest, sqrtPX96, liquidity, amount)
}

// GetNextSqrtPriceFromInput dispatches on swap direction: token0 in for
// zeroForOne, token1 in otherwise.
func GetNextSqrtPriceFromInput(dest, sqrtPX96, liquidity, amountIn *big.Int, zeroForOne bool) error {
	if sqrtPX96.Sign() <= 0 {
		return ErrSqrtPriceZero
	}
	if liquidity.Sign() <= 0 {
		return ErrLiquidityZero
	}

	if zeroForOne {
		return GetNextSqrtPriceFromAmount0RoundingUp(dest, sqrtPX96, liquidity, amountIn)
	}
	GetNextSqrtPriceFromAmount1RoundingDown(dest, sqrtPX96, liquidity, amountIn)
	return nil
}

// GetAmount0Delta writes the token0 amount spanned between two sqrt
// prices at the given liquidity. Argument order of the two prices does
// not matter.
func GetAmount0Delta(dest, sqrtRatioAX96, sqrtRatioBX96, liquidity *big.Int, roundUp bool) error {
	s := scratchPool.Get().(*scratch)
	defer scratchPool.Put(s)
	return s.getAmount0Delta(dest, sqrtRatioAX96, sqrtRatioBX96, liquidity, roundUp)
}

// GetAmount1Delta writes the token1 amount spanned between two sqrt
// prices at the given liquidity.
func GetAmount1Delta(dest, sqrtRatioAX96, sqrtRatioBX96, liquidity *big.Int, roundUp bool) {
	s := scratchPool.Get().(*scratch)
	defer scratchPool.Put(s)
	s.getAmount1Delta(dest, sqrtRatioAX96, sqrtRatioBX96, liquidity, roundUp)
}

func (s *scratch) getNextSqrtPriceFromAmount0RoundingUp(dest, sqrtPX96, liquidity, amount *big.Int) error {
	if amount.Sign() == 0 {
		dest.Set(sqrtPX96)
		return nil
	}

	// next = ceil(L<<96 * sqrtP / (L<<96 + amount * sqrtP)), always exact
	// in arbitrary precision.
	s.numerator1.Lsh(liquidity, Resolution)
	s.product.Mul(amount, sqrtPX96)
	s.denominator.Add(s.numerator1, s.product)
	s.mulDivRoundingUp(dest, s.numerator1, sqrtPX96, s.denominator)
	return nil
}

func (s *scratch) getNextSqrtPriceFromAmount1RoundingDown(dest, sqrtPX96, liquidity, amount *big.Int) {
	// next = sqrtP + (amount << 96) / L, truncating.
	s.mulDiv(s.quotient, amount, Q96, liquidity)
	dest.Add(sqrtPX96, s.quotient)
}

func (s *scratch) getAmount0Delta(dest, sqrtRatioAX96, sqrtRatioBX96, liquidity *big.Int, roundUp bool) error {
	if sqrtRatioAX96.Cmp(sqrtRatioBX96) > 0 {
		sqrtRatioAX96, sqrtRatioBX96 = sqrtRatioBX96, sqrtRatioAX96
	}
	if sqrtRatioAX96.Sign() <= 0 {
		return ErrSqrtPriceZero
	}

	// amount0 = L<<96 * (sqrtB - sqrtA) / sqrtB / sqrtA, with both
	// divisions rounding the same way.
	s.numerator1.Lsh(liquidity, Resolution)
	s.numerator2.Sub(sqrtRatioBX96, sqrtRatioAX96)

	if roundUp {
		s.mulDivRoundingUp(s.term, s.numerator1, s.numerator2, sqrtRatioBX96)
		s.divRoundingUp(dest, s.term, sqrtRatioAX96)
	} else {
		s.mulDiv(s.term, s.numerator1, s.numerator2, sqrtRatioBX96)
		dest.Div(s.term, sqrtRatioAX96)
	}
	return nil
}

func (s *scratch) getAmount1Delta(dest, sqrtRatioAX96, sqrtRatioBX96, liquidity *big.Int, roundUp bool) {
	if sqrtRatioAX96.Cmp(sqrtRatioBX96) > 0 {
		sqrtRatioAX96, sqrtRatioBX96 = sqrtRatioBX96, sqrtRatioAX96
	}

	// amount1 = L * (sqrtB - sqrtA) / 2^96.
	s.numerator1.Sub(sqrtRatioBX96, sqrtRatioAX96)
	if roundUp {
		s.mulDivRoundingUp(dest, liquidity, s.numerator1, Q96)
	} else {
		s.mulDiv(dest, liquidity, s.numerator1, Q96)
	}
}
