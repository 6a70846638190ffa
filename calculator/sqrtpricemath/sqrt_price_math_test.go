package sqrtpricemath

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

func TestGetNextSqrtPriceFromInput(t *testing.T) {
	e17 := new(big.Int).Exp(big.NewInt(10), big.NewInt(17), nil)

	t.Run("zero amount leaves price unchanged", func(t *testing.T) {
		dest := new(big.Int)
		require.NoError(t, GetNextSqrtPriceFromInput(dest, pow2(96), e17, big.NewInt(0), true))
		assert.Zero(t, dest.Cmp(pow2(96)))
	})

	t.Run("rejects zero price", func(t *testing.T) {
		err := GetNextSqrtPriceFromInput(new(big.Int), big.NewInt(0), e17, big.NewInt(1), true)
		assert.ErrorIs(t, err, ErrSqrtPriceZero)
	})

	t.Run("rejects zero liquidity", func(t *testing.T) {
		err := GetNextSqrtPriceFromInput(new(big.Int), pow2(96), big.NewInt(0), big.NewInt(1), false)
		assert.ErrorIs(t, err, ErrLiquidityZero)
	})

	t.Run("token0 in equal to liquidity halves the sqrt price", func(t *testing.T) {
		// next = ceil(L<<96 * sqrtP / (L<<96 + L*sqrtP)) with sqrtP = 2^96
		// collapses to 2^95 exactly.
		dest := new(big.Int)
		require.NoError(t, GetNextSqrtPriceFromInput(dest, pow2(96), e17, e17, true))
		assert.Zero(t, dest.Cmp(pow2(95)))
	})

	t.Run("token1 in equal to liquidity doubles the sqrt price", func(t *testing.T) {
		// next = sqrtP + (L<<96)/L = 2^96 + 2^96.
		dest := new(big.Int)
		require.NoError(t, GetNextSqrtPriceFromInput(dest, pow2(96), e17, e17, false))
		assert.Zero(t, dest.Cmp(pow2(97)))
	})
}

func TestGetAmountDeltas_HandValues(t *testing.T) {
	liquidity := big.NewInt(1000)

	t.Run("amount1 across a doubling of sqrt price", func(t *testing.T) {
		dest := new(big.Int)
		GetAmount1Delta(dest, pow2(96), pow2(97), liquidity, false)
		assert.EqualValues(t, 1000, dest.Int64())

		GetAmount1Delta(dest, pow2(96), pow2(97), liquidity, true)
		assert.EqualValues(t, 1000, dest.Int64())
	})

	t.Run("amount0 across a doubling of sqrt price", func(t *testing.T) {
		dest := new(big.Int)
		require.NoError(t, GetAmount0Delta(dest, pow2(96), pow2(97), liquidity, false))
		assert.EqualValues(t, 500, dest.Int64())

		require.NoError(t, GetAmount0Delta(dest, pow2(96), pow2(97), liquidity, true))
		assert.EqualValues(t, 500, dest.Int64())
	})

	t.Run("price argument order does not matter", func(t *testing.T) {
		a, b := new(big.Int), new(big.Int)
		require.NoError(t, GetAmount0Delta(a, pow2(96), pow2(97), liquidity, true))
		require.NoError(t, GetAmount0Delta(b, pow2(97), pow2(96), liquidity, true))
		assert.Zero(t, a.Cmp(b))
	})

	t.Run("zero liquidity spans zero tokens", func(t *testing.T) {
		dest := new(big.Int)
		require.NoError(t, GetAmount0Delta(dest, pow2(96), pow2(97), big.NewInt(0), true))
		assert.Zero(t, dest.Sign())
		GetAmount1Delta(dest, pow2(96), pow2(97), big.NewInt(0), true)
		assert.Zero(t, dest.Sign())
	})
}

// --- Invariant Tests (Fuzzing) ---

func TestGetAmount0Delta_Invariants(t *testing.T) {
	for i := 0; i < 1000; i++ {
		sqrtP := newRandInt(160)
		sqrtQ := newRandInt(160)
		liquidity := newRandInt(128)
		if sqrtP.Sign() == 0 {
			sqrtP.SetInt64(1)
		}
		if sqrtQ.Sign() == 0 {
			sqrtQ.SetInt64(1)
		}

		down := new(big.Int)
		require.NoError(t, GetAmount0Delta(down, sqrtP, sqrtQ, liquidity, false))
		up := new(big.Int)
		require.NoError(t, GetAmount0Delta(up, sqrtP, sqrtQ, liquidity, true))

		assert.True(t, down.Cmp(up) <= 0)
		// The two rounding directions sit at most two units apart because
		// amount0 rounds twice.
		diff := new(big.Int).Sub(up, down)
		assert.True(t, diff.Cmp(big.NewInt(3)) < 0, "diff %s too large", diff)
	}
}

func TestGetAmount1Delta_Invariants(t *testing.T) {
	for i := 0; i < 1000; i++ {
		sqrtP := newRandInt(160)
		sqrtQ := newRandInt(160)
		liquidity := newRandInt(128)
		if sqrtP.Sign() == 0 {
			sqrtP.SetInt64(1)
		}
		if sqrtQ.Sign() == 0 {
			sqrtQ.SetInt64(1)
		}

		down := new(big.Int)
		GetAmount1Delta(down, sqrtP, sqrtQ, liquidity, false)
		up := new(big.Int)
		GetAmount1Delta(up, sqrtP, sqrtQ, liquidity, true)

		assert.True(t, down.Cmp(up) <= 0)
		diff := new(big.Int).Sub(up, down)
		assert.True(t, diff.Cmp(big.NewInt(2)) < 0)
	}
}

func TestGetNextSqrtPriceFromInput_Invariants(t *testing.T) {
	for i := 0; i < 200; i++ {
		sqrtP := newRandInt(160)
		liquidity := newRandInt(128)
		amountIn := newRandInt(200)
		zeroForOne := i%2 == 0
		if sqrtP.Sign() == 0 {
			sqrtP.SetInt64(1)
		}
		if liquidity.Sign() == 0 {
			liquidity.SetInt64(1)
		}

		sqrtQ := new(big.Int)
		err := GetNextSqrtPriceFromInput(sqrtQ, sqrtP, liquidity, amountIn, zeroForOne)
		require.NoError(t, err)

		if zeroForOne {
			// Token0 in can only push the price down, and can never consume
			// more token0 than was offered.
			assert.True(t, sqrtQ.Cmp(sqrtP) <= 0)
			delta := new(big.Int)
			if err := GetAmount0Delta(delta, sqrtQ, sqrtP, liquidity, true); err == nil {
				assert.True(t, amountIn.Cmp(delta) >= 0)
			}
		} else {
			assert.True(t, sqrtQ.Cmp(sqrtP) >= 0)
			delta := new(big.Int)
			GetAmount1Delta(delta, sqrtP, sqrtQ, liquidity, true)
			assert.True(t, amountIn.Cmp(delta) >= 0)
		}
	}
}
