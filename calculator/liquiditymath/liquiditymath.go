// Package liquiditymath applies signed liquidity deltas to the unsigned
// active-liquidity accumulator, guarding the uint128 range the protocol
// stores liquidity in.
package liquiditymath

import (
	"errors"
	"math/big"
)

var (
	// maxUint128 is 2^128 - 1, the widest value active liquidity can take.
	maxUint128 = new(big.Int).Sub(new(big.Int).Lsh(big.NewInt(1), 128), big.NewInt(1))

	ErrLiquidityOverflow  = errors.New("liquidity overflow")
	ErrLiquidityUnderflow = errors.New("liquidity underflow")
)

// AddDelta writes x + y into dest, where y is a signed delta. Results
// outside [0, 2^128-1] report under- or overflow instead of wrapping;
// dest still holds the raw sum so callers can log it.
func AddDelta(dest *big.Int, x *big.Int, y *big.Int) error {
	dest.Add(x, y)
	if dest.Sign() < 0 {
		return ErrLiquidityUnderflow
	}
	if dest.Cmp(maxUint128) > 0 {
		return ErrLiquidityOverflow
	}
	return nil
}
