package swapmath

import (
	"crypto/rand"
	"math/big"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newRandInt(bits int) *big.Int {
	max := new(big.Int).Lsh(big.NewInt(1), uint(bits))
	n, err := rand.Int(rand.Reader, max)
	if err != nil {
		panic(err)
	}
	return n
}

func pow2(n uint) *big.Int {
	return new(big.Int).Lsh(big.NewInt(1), n)
}

func step(t *testing.T, current, target, liquidity, remaining *big.Int, feePips int64) (next, in, out, fee *big.Int) {
	t.Helper()
	next, in, out, fee = new(big.Int), new(big.Int), new(big.Int), new(big.Int)
	require.NoError(t, ComputeSwapStep(next, in, out, fee, current, target, liquidity, remaining, big.NewInt(feePips)))
	return next, in, out, fee
}

func TestComputeSwapStep_HandValues(t *testing.T) {
	e17 := new(big.Int).Exp(big.NewInt(10), big.NewInt(17), nil)
	e18 := new(big.Int).Exp(big.NewInt(10), big.NewInt(18), nil)

	t.Run("token0 in, budget reaches the target", func(t *testing.T) {
		// From sqrtP = 2^96 down to 2^95 at L = 1e17 the curve needs
		// exactly 1e17 of token0 and releases exactly 5e16 of token1; the
		// 0.30% fee on 1e17 input is ceil(1e17 * 3000 / 997000) =
		// ceil(3e17/997) = 300902708124374.
		next, in, out, fee := step(t, pow2(96), pow2(95), e17, e18, 3000)
		assert.Zero(t, next.Cmp(pow2(95)))
		assert.Zero(t, in.Cmp(e17))
		assert.Zero(t, out.Cmp(big.NewInt(50_000_000_000_000_000)))
		assert.Zero(t, fee.Cmp(big.NewInt(300_902_708_124_374)))
	})

	t.Run("token1 in, budget reaches the target", func(t *testing.T) {
		// The mirrored move: 2^96 up to 2^97 needs exactly 1e17 of token1
		// and releases exactly 5e16 of token0, with the same fee.
		next, in, out, fee := step(t, pow2(96), pow2(97), e17, e18, 3000)
		assert.Zero(t, next.Cmp(pow2(97)))
		assert.Zero(t, in.Cmp(e17))
		assert.Zero(t, out.Cmp(big.NewInt(50_000_000_000_000_000)))
		assert.Zero(t, fee.Cmp(big.NewInt(300_902_708_124_374)))
	})

	t.Run("budget stops short of the target", func(t *testing.T) {
		remaining := big.NewInt(1_000_000_000_000_000) // 1e15
		next, in, out, fee := step(t, pow2(96), pow2(95), e18, remaining, 3000)

		assert.Positive(t, next.Cmp(pow2(95)), "price must stop before the target")
		assert.Negative(t, next.Cmp(pow2(96)), "price must move")
		assert.Positive(t, out.Sign())
		// Full budget consumed: principal plus fee reproduces it exactly.
		sum := new(big.Int).Add(in, fee)
		assert.Zero(t, sum.Cmp(remaining))
	})

	t.Run("zero budget moves nothing", func(t *testing.T) {
		next, in, out, fee := step(t, pow2(96), pow2(95), e18, big.NewInt(0), 3000)
		assert.Zero(t, next.Cmp(pow2(96)))
		assert.Zero(t, in.Sign())
		assert.Zero(t, out.Sign())
		assert.Zero(t, fee.Sign())
	})

	t.Run("zero liquidity jumps to target with zero amounts", func(t *testing.T) {
		next, in, out, fee := step(t, pow2(96), pow2(95), big.NewInt(0), e18, 3000)
		assert.Zero(t, next.Cmp(pow2(95)))
		assert.Zero(t, in.Sign())
		assert.Zero(t, out.Sign())
		assert.Zero(t, fee.Sign())
	})

	t.Run("current equal to target is a no-op", func(t *testing.T) {
		next, in, out, fee := step(t, pow2(96), pow2(96), e18, e18, 3000)
		assert.Zero(t, next.Cmp(pow2(96)))
		assert.Zero(t, in.Sign())
		assert.Zero(t, out.Sign())
		assert.Zero(t, fee.Sign())
	})

	t.Run("negative budget is rejected", func(t *testing.T) {
		err := ComputeSwapStep(new(big.Int), new(big.Int), new(big.Int), new(big.Int),
			pow2(96), pow2(95), e18, big.NewInt(-1), big.NewInt(3000))
		assert.ErrorIs(t, err, ErrNegativeAmountRemaining)
	})
}

// TestComputeSwapStep_Invariants runs the step on random inputs and checks
// the properties every step must uphold regardless of direction or budget.
func TestComputeSwapStep_Invariants(t *testing.T) {
	fees := []int64{100, 500, 3000, 10000}

	for i := 0; i < 1000; i++ {
		current := newRandInt(160)
		target := newRandInt(160)
		liquidity := newRandInt(128)
		remaining := newRandInt(120)
		feePips := big.NewInt(fees[i%len(fees)])

		if current.Sign() == 0 {
			current.SetInt64(1)
		}
		if target.Sign() == 0 {
			target.SetInt64(1)
		}

		next, in, out, fee := new(big.Int), new(big.Int), new(big.Int), new(big.Int)
		err := ComputeSwapStep(next, in, out, fee, current, target, liquidity, remaining, feePips)
		require.NoError(t, err)

		sum := new(big.Int).Add(in, fee)

		// The step never spends more than the budget.
		assert.True(t, sum.Cmp(remaining) <= 0, "in+fee %s exceeds budget %s", sum, remaining)

		// A step that stops short of the target consumed everything.
		if next.Cmp(target) != 0 {
			assert.Zero(t, sum.Cmp(remaining), "partial step must consume the full budget")
		}

		// The next price lies between current and target.
		if target.Cmp(current) <= 0 {
			assert.True(t, next.Cmp(current) <= 0)
			assert.True(t, next.Cmp(target) >= 0)
		} else {
			assert.True(t, next.Cmp(current) >= 0)
			assert.True(t, next.Cmp(target) <= 0)
		}

		// A price standing still produces and consumes nothing.
		if current.Cmp(target) == 0 {
			assert.Zero(t, in.Sign())
			assert.Zero(t, out.Sign())
			assert.Zero(t, fee.Sign())
		}

		assert.True(t, out.Sign() >= 0)
		assert.True(t, fee.Sign() >= 0)
	}
}
