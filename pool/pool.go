// Package pool defines the immutable inputs the simulator operates on: a
// point-in-time observation of a concentrated-liquidity pool together with
// the initialized ticks around its current price.
package pool

import (
	"errors"
	"math/big"

	"github.com/ethereum/go-ethereum/common"

	"github.com/tickwalk/tickwalk-go/calculator/tickmath"
)

var (
	ErrNilLiquidity      = errors.New("liquidity cannot be nil")
	ErrNegativeLiquidity = errors.New("liquidity cannot be negative")
	ErrNilSqrtPrice      = errors.New("sqrtPriceX96 cannot be nil")
	ErrSqrtPriceRange    = errors.New("sqrtPriceX96 out of bounds")
	ErrTickRange         = errors.New("tick out of bounds")
	ErrTickSpacing       = errors.New("tickSpacing must be greater than zero")
	ErrFeeRange          = errors.New("fee must be below the pip denominator")
	ErrSameTokens        = errors.New("token0 and token1 cannot be identical")
	ErrTicksUnsorted     = errors.New("ticks must be strictly ascending")
	ErrTickUnaligned     = errors.New("tick index not aligned to tickSpacing")
	ErrTickLiquidity     = errors.New("tick liquidity fields invalid")
)

// Token identifies one side of a pair. Decimals drive the raw/human
// conversions at the reporting boundary and never touch the swap math.
type Token struct {
	Address  common.Address `json:"address"`
	Symbol   string         `json:"symbol"`
	Decimals uint8          `json:"decimals"`
}

// State is the scalar core of a pool observation: identity, fee
// configuration and the current price point. Fee is in hundredths of a
// bip (pips), so 3000 means 0.30%.
type State struct {
	Address      common.Address `json:"address"`
	Token0       Token          `json:"token0"`
	Token1       Token          `json:"token1"`
	Fee          uint64         `json:"fee"`
	TickSpacing  int64          `json:"tickSpacing"`
	Tick         int64          `json:"tick"`
	Liquidity    *big.Int       `json:"liquidity"`
	SqrtPriceX96 *big.Int       `json:"sqrtPriceX96"`
}

// TickInfo carries the liquidity bookkeeping of one initialized tick.
// Presence of the object implicitly means the tick is initialized; the
// other on-chain tick fields are not needed for swap simulation.
type TickInfo struct {
	Index          int64    `json:"index"`
	LiquidityGross *big.Int `json:"liquidityGross"`
	LiquidityNet   *big.Int `json:"liquidityNet"`
}

// Snapshot is the fully enriched view of a pool: the scalar state plus
// the initialized ticks, sorted by index, and optionally the raw tick
// bitmap words they were discovered from, keyed by word position.
type Snapshot struct {
	State `json:",inline"`
	Ticks []TickInfo         `json:"ticks"`
	Words map[int16]*big.Int `json:"words,omitempty"`
}

// Validate checks the scalar state against the protocol bounds. A pool
// that fails validation is excluded from evaluation rather than aborting
// the run.
func (s *State) Validate() error {
	if s.Token0.Address == s.Token1.Address {
		return ErrSameTokens
	}
	if s.Fee >= FeeDenominator {
		return ErrFeeRange
	}
	if s.TickSpacing <= 0 {
		return ErrTickSpacing
	}
	if s.Tick < tickmath.MIN_TICK || s.Tick > tickmath.MAX_TICK {
		return ErrTickRange
	}
	if s.Liquidity == nil {
		return ErrNilLiquidity
	}
	if s.Liquidity.Sign() < 0 {
		return ErrNegativeLiquidity
	}
	if s.SqrtPriceX96 == nil {
		return ErrNilSqrtPrice
	}
	if s.SqrtPriceX96.Cmp(tickmath.MIN_SQRT_RATIO) < 0 || s.SqrtPriceX96.Cmp(tickmath.MAX_SQRT_RATIO) > 0 {
		return ErrSqrtPriceRange
	}
	return nil
}

// Validate checks the scalar state and the tick list. Ticks must be
// strictly ascending, aligned to the pool's spacing and carry non-nil,
// in-range liquidity values.
func (s *Snapshot) Validate() error {
	if err := s.State.Validate(); err != nil {
		return err
	}
	prev := tickmath.MIN_TICK - 1
	for i := range s.Ticks {
		t := &s.Ticks[i]
		if t.Index < tickmath.MIN_TICK || t.Index > tickmath.MAX_TICK {
			return ErrTickRange
		}
		if i > 0 && t.Index <= prev {
			return ErrTicksUnsorted
		}
		if t.Index%s.TickSpacing != 0 {
			return ErrTickUnaligned
		}
		if t.LiquidityGross == nil || t.LiquidityNet == nil || t.LiquidityGross.Sign() < 0 {
			return ErrTickLiquidity
		}
		prev = t.Index
	}
	return nil
}

// FeeDenominator is the pip denominator: fees are expressed as parts per
// million of the input amount.
const FeeDenominator = 1_000_000

// FeePips returns the fee as a big.Int for mulDiv-style arithmetic.
func (s *State) FeePips() *big.Int {
	return new(big.Int).SetUint64(s.Fee)
}

// PairKey returns a comparable identity for the token pair, used to group
// pools that trade the same assets. Token ordering follows the pool's own
// token0/token1 ordering, which the factory fixes by address.
func (s *State) PairKey() [2]common.Address {
	return [2]common.Address{s.Token0.Address, s.Token1.Address}
}
