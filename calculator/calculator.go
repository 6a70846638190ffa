// Package calculator drives the swap step engine across tick boundaries
// to simulate one full exact-input leg against a pool snapshot. The
// simulation is allocation-conscious and side-effect free: working state
// lives in pooled scratch objects and the snapshot is never mutated.
package calculator

import (
	"errors"
	"math/big"
	"sync"

	"github.com/tickwalk/tickwalk-go/calculator/liquiditymath"
	"github.com/tickwalk/tickwalk-go/calculator/swapmath"
	"github.com/tickwalk/tickwalk-go/calculator/tickmath"
	"github.com/tickwalk/tickwalk-go/pool"
	"github.com/tickwalk/tickwalk-go/scanner"
)

var (
	ErrInvalidAmountIn = errors.New("amountIn must be greater than zero")
	ErrInvalidMaxCross = errors.New("config: max crossed ticks must not be negative")
	ErrNilFrontier     = errors.New("config: frontier cannot be nil")
	ErrNilStateField   = errors.New("pool state has nil price or liquidity")

	// Q96 is 2^96, the scale factor of the sqrt price encoding.
	Q96, _ = new(big.Int).SetString("79228162514264337593543950336", 10)
)

// Reason classifies why a leg or an opportunity fell short. The zero
// value means nothing went wrong.
type Reason string

const (
	ReasonNone Reason = ""
	// ReasonInsufficientTickData: the tick frontier was exhausted, or the
	// price ran off the representable range, before the input was consumed.
	ReasonInsufficientTickData Reason = "insufficient_tick_data"
	// ReasonZeroOutput: no output despite remaining input, typically after
	// crossing into a range with no active liquidity.
	ReasonZeroOutput Reason = "zero_output"
	// ReasonTickCrossCapExceeded: the leg needed more tick crossings than
	// the configured cap allows.
	ReasonTickCrossCapExceeded Reason = "tick_cross_cap_exceeded"
	// ReasonArithmeticOverflow: a liquidity transition left the uint128
	// domain or the step math rejected its inputs. Never silently wrapped.
	ReasonArithmeticOverflow Reason = "arithmetic_overflow"
)

// LegResult is the terminal output of one leg simulation. The conserved
// identity AmountInConsumed + AmountInLeft == AmountInRequested holds in
// every state, complete or not.
type LegResult struct {
	SqrtPriceX96      *big.Int `json:"sqrtPriceX96"`
	Tick              int64    `json:"tick"`
	TicksCrossed      int      `json:"ticksCrossed"`
	Incomplete        bool     `json:"incomplete"`
	Reason            Reason   `json:"reason,omitempty"`
	AmountInRequested *big.Int `json:"amountInRequested"`
	AmountInConsumed  *big.Int `json:"amountInConsumed"`
	AmountInLeft      *big.Int `json:"amountInLeft"`
	AmountOut         *big.Int `json:"amountOut"`
	EndLiquidity      *big.Int `json:"endLiquidity"`
}

// legState carries the working integers of one leg through the step loop.
type legState struct {
	remaining         *big.Int
	amountOut         *big.Int
	sqrtPriceX96      *big.Int
	liquidity         *big.Int
	sqrtPriceStartX96 *big.Int
	sqrtPriceNextX96  *big.Int
	targetPrice       *big.Int
	stepAmountIn      *big.Int
	stepAmountOut     *big.Int
	stepFeeAmount     *big.Int
	spent             *big.Int
	liquidityNet      *big.Int
	feePips           *big.Int
	tick              int64
}

var legStatePool = sync.Pool{
	New: func() any {
		return &legState{
			remaining:         new(big.Int),
			amountOut:         new(big.Int),
			sqrtPriceX96:      new(big.Int),
			liquidity:         new(big.Int),
			sqrtPriceStartX96: new(big.Int),
			sqrtPriceNextX96:  new(big.Int),
			targetPrice:       new(big.Int),
			stepAmountIn:      new(big.Int),
			stepAmountOut:     new(big.Int),
			stepFeeAmount:     new(big.Int),
			spent:             new(big.Int),
			liquidityNet:      new(big.Int),
			feePips:           new(big.Int),
		}
	},
}

// SimulateLeg swaps amountIn of one token into the other against the
// given pool state, walking initialized ticks off the frontier until the
// input is consumed or a bound is hit. zeroForOne is implied by the
// frontier's direction: a descending frontier sells token0, an ascending
// one sells token1.
//
// A leg that stops early is not an error: it comes back incomplete with
// the reason recorded. Errors are reserved for invalid arguments.
func SimulateLeg(state pool.State, frontier scanner.Frontier, zeroForOne bool, amountIn *big.Int, maxCross int) (*LegResult, error) {
	if amountIn == nil || amountIn.Sign() <= 0 {
		return nil, ErrInvalidAmountIn
	}
	if maxCross < 0 {
		return nil, ErrInvalidMaxCross
	}
	if frontier == nil {
		return nil, ErrNilFrontier
	}
	if state.SqrtPriceX96 == nil || state.Liquidity == nil {
		return nil, ErrNilStateField
	}

	ls := legStatePool.Get().(*legState)
	defer legStatePool.Put(ls)

	ls.remaining.Set(amountIn)
	ls.amountOut.SetInt64(0)
	ls.sqrtPriceX96.Set(state.SqrtPriceX96)
	ls.liquidity.Set(state.Liquidity)
	ls.feePips.SetUint64(state.Fee)
	ls.tick = state.Tick

	limit := tickmath.MIN_SQRT_RATIO
	if !zeroForOne {
		limit = tickmath.MAX_SQRT_RATIO
	}

	reason := ReasonNone
	crossed := 0

	for ls.remaining.Sign() > 0 && ls.sqrtPriceX96.Cmp(limit) != 0 {
		next, ok := frontier.Next()
		if !ok {
			break
		}

		tickNext := next.Index
		if tickNext < tickmath.MIN_TICK {
			tickNext = tickmath.MIN_TICK
		} else if tickNext > tickmath.MAX_TICK {
			tickNext = tickmath.MAX_TICK
		}

		ls.sqrtPriceStartX96.Set(ls.sqrtPriceX96)
		if err := tickmath.GetSqrtRatioAtTick(ls.sqrtPriceNextX96, tickNext); err != nil {
			reason = ReasonArithmeticOverflow
			break
		}

		// A frontier that stops advancing the price means the snapshot
		// contradicts itself; treat it like missing data.
		if zeroForOne && ls.sqrtPriceNextX96.Cmp(ls.sqrtPriceStartX96) > 0 {
			break
		}
		if !zeroForOne && ls.sqrtPriceNextX96.Cmp(ls.sqrtPriceStartX96) < 0 {
			break
		}

		if (zeroForOne && ls.sqrtPriceNextX96.Cmp(limit) < 0) ||
			(!zeroForOne && ls.sqrtPriceNextX96.Cmp(limit) > 0) {
			ls.targetPrice.Set(limit)
		} else {
			ls.targetPrice.Set(ls.sqrtPriceNextX96)
		}

		if err := swapmath.ComputeSwapStep(
			ls.sqrtPriceX96, ls.stepAmountIn, ls.stepAmountOut, ls.stepFeeAmount,
			ls.sqrtPriceStartX96,
			ls.targetPrice,
			ls.liquidity,
			ls.remaining,
			ls.feePips,
		); err != nil {
			reason = ReasonArithmeticOverflow
			break
		}

		ls.remaining.Sub(ls.remaining, ls.spent.Add(ls.stepAmountIn, ls.stepFeeAmount))
		ls.amountOut.Add(ls.amountOut, ls.stepAmountOut)

		if ls.sqrtPriceX96.Cmp(ls.sqrtPriceNextX96) == 0 && ls.remaining.Sign() > 0 {
			// The step hit a tick boundary with input to spare, so the
			// tick must be crossed to continue.
			if crossed >= maxCross {
				reason = ReasonTickCrossCapExceeded
				break
			}
			ls.liquidityNet.Set(next.LiquidityNet)
			if zeroForOne {
				ls.liquidityNet.Neg(ls.liquidityNet)
			}
			if err := liquiditymath.AddDelta(ls.liquidity, ls.liquidity, ls.liquidityNet); err != nil {
				reason = ReasonArithmeticOverflow
				break
			}
			crossed++
			if zeroForOne {
				ls.tick = tickNext - 1
			} else {
				ls.tick = tickNext
			}
			if ls.liquidity.Sign() == 0 {
				reason = ReasonZeroOutput
				break
			}
		} else if ls.sqrtPriceX96.Cmp(ls.sqrtPriceStartX96) != 0 {
			tick, err := tickmath.GetTickAtSqrtRatio(ls.sqrtPriceX96)
			if err != nil {
				reason = ReasonArithmeticOverflow
				break
			}
			ls.tick = tick
		}
	}

	incomplete := ls.remaining.Sign() > 0
	if incomplete && reason == ReasonNone {
		reason = ReasonInsufficientTickData
	}
	if !incomplete {
		reason = ReasonNone
	}

	res := &LegResult{
		SqrtPriceX96:      new(big.Int).Set(ls.sqrtPriceX96),
		Tick:              ls.tick,
		TicksCrossed:      crossed,
		Incomplete:        incomplete,
		Reason:            reason,
		AmountInRequested: new(big.Int).Set(amountIn),
		AmountInConsumed:  new(big.Int).Sub(amountIn, ls.remaining),
		AmountInLeft:      new(big.Int).Set(ls.remaining),
		AmountOut:         new(big.Int).Set(ls.amountOut),
		EndLiquidity:      new(big.Int).Set(ls.liquidity),
	}
	return res, nil
}

// VirtualReserves derives the pool's virtual token balances from its
// liquidity and price. Not a hot path, so the allocations are fine.
func VirtualReserves(state pool.State) (reserve0, reserve1 *big.Int, err error) {
	if state.SqrtPriceX96 == nil || state.Liquidity == nil {
		return nil, nil, ErrNilStateField
	}
	if state.SqrtPriceX96.Sign() <= 0 {
		return nil, nil, ErrNilStateField
	}
	reserve0 = new(big.Int).Div(new(big.Int).Lsh(state.Liquidity, 96), state.SqrtPriceX96)
	reserve1 = new(big.Int).Div(new(big.Int).Mul(state.Liquidity, state.SqrtPriceX96), Q96)
	return reserve0, reserve1, nil
}
