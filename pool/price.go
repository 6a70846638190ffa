package pool

import (
	"math/big"

	"github.com/shopspring/decimal"
)

// q96 is 2^96 as a decimal, the fixed-point scale of sqrtPriceX96.
var q96 = decimal.RequireFromString("79228162514264337593543950336")

// spotPrecision bounds the decimal division depth used for display
// prices. Exact integer math stays inside the calculator packages; these
// helpers exist only for screening and reporting.
const spotPrecision = 40

// PriceX192 returns the raw price of token0 in token1 as a Q64.192 fixed
// point, the square of the stored sqrt price. Exact-domain comparisons
// and conversions use this; it never touches decimals.
func (s *State) PriceX192() *big.Int {
	if s.SqrtPriceX96 == nil {
		return new(big.Int)
	}
	return new(big.Int).Mul(s.SqrtPriceX96, s.SqrtPriceX96)
}

// PriceFromSqrtX96 converts a Q64.96 square-root price into the
// human-readable price of token0 denominated in token1, adjusted for both
// tokens' decimals.
func PriceFromSqrtX96(sqrtPriceX96 *big.Int, decimals0, decimals1 uint8) decimal.Decimal {
	if sqrtPriceX96 == nil {
		return decimal.Zero
	}
	sqrtP := decimal.NewFromBigInt(sqrtPriceX96, 0).DivRound(q96, spotPrecision)
	price := sqrtP.Mul(sqrtP)
	return price.Shift(int32(decimals0) - int32(decimals1))
}

// SpotPriceToken1PerToken0 returns the human-readable spot price of
// token0 denominated in token1, adjusted for both tokens' decimals.
func (s *State) SpotPriceToken1PerToken0() decimal.Decimal {
	return PriceFromSqrtX96(s.SqrtPriceX96, s.Token0.Decimals, s.Token1.Decimals)
}

// SpotPriceToken0PerToken1 returns the inverse spot price. Pools with a
// zero price report zero rather than dividing by it.
func (s *State) SpotPriceToken0PerToken1() decimal.Decimal {
	p := s.SpotPriceToken1PerToken0()
	if p.IsZero() {
		return decimal.Zero
	}
	return decimal.NewFromInt(1).DivRound(p, spotPrecision)
}

// HumanAmount converts a raw integer token amount into its decimal
// representation using the token's declared decimals.
func HumanAmount(raw *big.Int, decimals uint8) decimal.Decimal {
	if raw == nil {
		return decimal.Zero
	}
	return decimal.NewFromBigInt(raw, 0).Shift(-int32(decimals))
}

// RawAmount converts a human-readable token amount into the raw integer
// representation, truncating any fraction to complete base units. The
// simulator works exclusively on raw amounts.
func RawAmount(human decimal.Decimal, decimals uint8) *big.Int {
	return human.Shift(int32(decimals)).BigInt()
}
