// Package swapmath computes a single swap step: how far the price moves
// inside one tick range for a given input budget, and how the budget
// splits into consumed input, produced output and fee.
package swapmath

import (
	"errors"
	"math/big"
	"sync"

	"github.com/tickwalk/tickwalk-go/calculator/sqrtpricemath"
)

var (
	// feeDenominator expresses fees in parts per million of the input.
	feeDenominator = big.NewInt(1_000_000)
	one            = big.NewInt(1)

	// ErrNegativeAmountRemaining is returned for a negative input budget.
	// The engine is exact-input only, so the budget carries no sign.
	ErrNegativeAmountRemaining = errors.New("amountRemaining must not be negative")
)

// swapScratch holds the step's working integers. Instances are managed by
// a sync.Pool so concurrent simulations never share state.
type swapScratch struct {
	sqrtRatioNextX96 *big.Int
	amountIn         *big.Int
	amountOut        *big.Int
	feeAmount        *big.Int

	amountRemainingLessFee *big.Int
	tempValue              *big.Int
	product                *big.Int
	rem                    *big.Int
}

var swapScratchPool = sync.Pool{
	New: func() any {
		return &swapScratch{
			sqrtRatioNextX96:       new(big.Int),
			amountIn:               new(big.Int),
			amountOut:              new(big.Int),
			feeAmount:              new(big.Int),
			amountRemainingLessFee: new(big.Int),
			tempValue:              new(big.Int),
			product:                new(big.Int),
			rem:                    new(big.Int),
		}
	},
}

// ComputeSwapStep advances the price from sqrtRatioCurrentX96 toward
// sqrtRatioTargetX96, consuming at most amountRemaining of input. The
// direction is implied by the ordering of current and target. Results are
// written into the four destination pointers, which must be non-nil.
//
// The step upholds amountIn + feeAmount <= amountRemaining. When the
// budget is large enough to reach the target the price stops exactly
// there; otherwise the whole budget is consumed and the fee absorbs the
// rounding slack, so the caller can subtract amountIn + feeAmount without
// ever seeing a negative budget.
func ComputeSwapStep(
	sqrtRatioNextX96 *big.Int,
	amountIn *big.Int,
	amountOut *big.Int,
	feeAmount *big.Int,

	sqrtRatioCurrentX96 *big.Int,
	sqrtRatioTargetX96 *big.Int,
	liquidity *big.Int,
	amountRemaining *big.Int,
	feePips *big.Int,
) error {
	if amountRemaining.Sign() < 0 {
		return ErrNegativeAmountRemaining
	}

	s := swapScratchPool.Get().(*swapScratch)
	defer swapScratchPool.Put(s)

	if err := s.computeSwapStep(sqrtRatioCurrentX96, sqrtRatioTargetX96, liquidity, amountRemaining, feePips); err != nil {
		return err
	}

	// Copy out of the pooled object so it can be reused safely.
	sqrtRatioNextX96.Set(s.sqrtRatioNextX96)
	amountIn.Set(s.amountIn)
	amountOut.Set(s.amountOut)
	feeAmount.Set(s.feeAmount)
	return nil
}

func (s *swapScratch) computeSwapStep(
	sqrtRatioCurrentX96, sqrtRatioTargetX96, liquidity, amountRemaining, feePips *big.Int,
) error {
	zeroForOne := sqrtRatioCurrentX96.Cmp(sqrtRatioTargetX96) >= 0

	s.amountIn.SetInt64(0)
	s.amountOut.SetInt64(0)
	s.feeAmount.SetInt64(0)

	// Reserve the fee headroom up front: only the post-fee budget moves
	// the price.
	s.tempValue.Sub(feeDenominator, feePips)
	s.mulDiv(s.amountRemainingLessFee, amountRemaining, s.tempValue, feeDenominator)

	// Input needed to reach the target, rounded against the trader.
	if zeroForOne {
		if err := sqrtpricemath.GetAmount0Delta(s.amountIn, sqrtRatioTargetX96, sqrtRatioCurrentX96, liquidity, true); err != nil {
			return err
		}
	} else {
		sqrtpricemath.GetAmount1Delta(s.amountIn, sqrtRatioCurrentX96, sqrtRatioTargetX96, liquidity, true)
	}

	if s.amountRemainingLessFee.Cmp(s.amountIn) >= 0 {
		s.sqrtRatioNextX96.Set(sqrtRatioTargetX96)
	} else {
		if err := sqrtpricemath.GetNextSqrtPriceFromInput(s.sqrtRatioNextX96, sqrtRatioCurrentX96, liquidity, s.amountRemainingLessFee, zeroForOne); err != nil {
			return err
		}
	}

	max := sqrtRatioTargetX96.Cmp(s.sqrtRatioNextX96) == 0

	// Recompute the amounts from the actual price movement. On the max
	// path amountIn already holds the exact value.
	if zeroForOne {
		if !max {
			if err := sqrtpricemath.GetAmount0Delta(s.amountIn, s.sqrtRatioNextX96, sqrtRatioCurrentX96, liquidity, true); err != nil {
				return err
			}
		}
		sqrtpricemath.GetAmount1Delta(s.amountOut, s.sqrtRatioNextX96, sqrtRatioCurrentX96, liquidity, false)
	} else {
		if !max {
			sqrtpricemath.GetAmount1Delta(s.amountIn, sqrtRatioCurrentX96, s.sqrtRatioNextX96, liquidity, true)
		}
		if err := sqrtpricemath.GetAmount0Delta(s.amountOut, sqrtRatioCurrentX96, s.sqrtRatioNextX96, liquidity, false); err != nil {
			return err
		}
	}

	if !max {
		// The full budget is spent; whatever the curve did not consume as
		// principal is taken as fee, absorbing rounding slack.
		s.feeAmount.Sub(amountRemaining, s.amountIn)
	} else {
		s.tempValue.Sub(feeDenominator, feePips)
		s.mulDivRoundingUp(s.feeAmount, s.amountIn, feePips, s.tempValue)
	}

	return nil
}

// mulDiv writes (a * b) / c into dest, truncating.
func (s *swapScratch) mulDiv(dest, a, b, c *big.Int) {
	s.product.Mul(a, b)
	dest.Div(s.product, c)
}

// mulDivRoundingUp writes ceil((a * b) / c) into dest.
func (s *swapScratch) mulDivRoundingUp(dest, a, b, c *big.Int) {
	s.product.Mul(a, b)
	dest.Div(s.product, c)
	if s.rem.Rem(s.product, c).Sign() > 0 {
		dest.Add(dest, one)
	}
}
