package profile

import (
	"errors"
	"math/big"

	"github.com/shopspring/decimal"

	"github.com/tickwalk/tickwalk-go/calculator/swapmath"
	"github.com/tickwalk/tickwalk-go/calculator/tickmath"
	"github.com/tickwalk/tickwalk-go/pool"
)

var (
	ErrNilState        = errors.New("pool state has nil price or liquidity")
	ErrNoLiquidity     = errors.New("pool has no active liquidity")
	ErrInvalidAmountIn = errors.New("amountIn must be greater than zero")
)

var bpsScale = decimal.NewFromInt(10_000)

// Estimate is a single-range swap quote. AmountInUsed can fall short of
// the requested input when the price runs into the protocol bound.
type Estimate struct {
	AmountInUsed   *big.Int        `json:"amountInUsed"`
	AmountOut      *big.Int        `json:"amountOut"`
	FeeAmount      *big.Int        `json:"feeAmount"`
	SqrtPriceAfter *big.Int        `json:"sqrtPriceAfter"`
	PriceBefore    decimal.Decimal `json:"priceBefore"`
	PriceAfter     decimal.Decimal `json:"priceAfter"`
	ImpactBps      decimal.Decimal `json:"impactBps"`
}

// EstimateInRange quotes a swap assuming the current range's liquidity
// holds for the whole move. It never crosses a tick boundary, so it reads
// no tick data; a quote that would leave the range needs the full
// simulator instead.
func EstimateInRange(state pool.State, zeroForOne bool, amountIn *big.Int) (*Estimate, error) {
	if state.SqrtPriceX96 == nil || state.Liquidity == nil {
		return nil, ErrNilState
	}
	if amountIn == nil || amountIn.Sign() <= 0 {
		return nil, ErrInvalidAmountIn
	}
	if state.Liquidity.Sign() == 0 {
		return nil, ErrNoLiquidity
	}

	target := tickmath.MAX_SQRT_RATIO
	if zeroForOne {
		target = tickmath.MIN_SQRT_RATIO
	}

	var next, in, out, fee big.Int
	err := swapmath.ComputeSwapStep(
		&next, &in, &out, &fee,
		state.SqrtPriceX96, target, state.Liquidity, amountIn,
		new(big.Int).SetUint64(state.Fee),
	)
	if err != nil {
		return nil, err
	}

	d0, d1 := state.Token0.Decimals, state.Token1.Decimals
	before := pool.PriceFromSqrtX96(state.SqrtPriceX96, d0, d1)
	after := pool.PriceFromSqrtX96(&next, d0, d1)

	var impact decimal.Decimal
	if before.IsPositive() {
		impact = after.Sub(before).DivRound(before, 12).Mul(bpsScale).Round(8)
	}

	return &Estimate{
		AmountInUsed:   new(big.Int).Add(&in, &fee),
		AmountOut:      &out,
		FeeAmount:      &fee,
		SqrtPriceAfter: &next,
		PriceBefore:    before,
		PriceAfter:     after,
		ImpactBps:      impact,
	}, nil
}
