package profile

import (
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tickwalk/tickwalk-go/pool"
)

type tickDef struct {
	index int64
	net   int64
}

func q96() *big.Int {
	return new(big.Int).Lsh(big.NewInt(1), 96)
}

func profileSnapshot(liquidity int64, ticks ...tickDef) *pool.Snapshot {
	snap := &pool.Snapshot{
		State: pool.State{
			Address:      common.HexToAddress("0xf1"),
			Token0:       pool.Token{Address: common.HexToAddress("0xa0"), Symbol: "WETH", Decimals: 18},
			Token1:       pool.Token{Address: common.HexToAddress("0xb0"), Symbol: "USDC", Decimals: 18},
			Fee:          3000,
			TickSpacing:  60,
			Tick:         0,
			Liquidity:    big.NewInt(liquidity),
			SqrtPriceX96: q96(),
		},
	}
	for _, td := range ticks {
		snap.Ticks = append(snap.Ticks, pool.TickInfo{
			Index:          td.index,
			LiquidityGross: new(big.Int).Abs(big.NewInt(td.net)),
			LiquidityNet:   big.NewInt(td.net),
		})
	}
	return snap
}

func TestBuild_WalksBothDirections(t *testing.T) {
	snap := profileSnapshot(1000,
		tickDef{-180, 200}, tickDef{-60, 300}, tickDef{60, -400}, tickDef{180, -100})

	segs := Build(snap, 0)
	require.Len(t, segs, 4)

	want := []struct {
		lower, upper, liquidity int64
	}{
		{-180, -60, 700},
		{-60, 0, 1000},
		{0, 60, 1000},
		{60, 180, 600},
	}
	for i, w := range want {
		assert.Equal(t, w.lower, segs[i].TickLower, "segment %d lower", i)
		assert.Equal(t, w.upper, segs[i].TickUpper, "segment %d upper", i)
		assert.Zero(t, segs[i].Liquidity.Cmp(big.NewInt(w.liquidity)), "segment %d liquidity", i)
		assert.True(t, segs[i].PriceLower.IsPositive(), "segment %d price sign", i)
		assert.True(t, segs[i].PriceLower.LessThan(segs[i].PriceUpper), "segment %d price ordering", i)
	}
}

func TestBuild_SegmentCap(t *testing.T) {
	snap := profileSnapshot(1000,
		tickDef{-180, 200}, tickDef{-60, 300}, tickDef{60, -400}, tickDef{180, -100})

	segs := Build(snap, 2)
	require.Len(t, segs, 2)

	// The upward walk fills the cap before the downward walk starts.
	assert.Equal(t, int64(0), segs[0].TickLower)
	assert.Equal(t, int64(60), segs[1].TickLower)
}

func TestBuild_BoundaryOnCurrentTick(t *testing.T) {
	snap := profileSnapshot(1000,
		tickDef{-60, 300}, tickDef{0, 500}, tickDef{60, -400})

	segs := Build(snap, 0)
	require.Len(t, segs, 2)

	assert.Equal(t, int64(-60), segs[0].TickLower)
	assert.Equal(t, int64(0), segs[0].TickUpper)
	assert.Zero(t, segs[0].Liquidity.Cmp(big.NewInt(500)))

	assert.Equal(t, int64(0), segs[1].TickLower)
	assert.Equal(t, int64(60), segs[1].TickUpper)
	assert.Zero(t, segs[1].Liquidity.Cmp(big.NewInt(1000)))
}

func TestBuild_NoTicks(t *testing.T) {
	assert.Nil(t, Build(profileSnapshot(1000), 0))
}

func TestGaps_PercentileThreshold(t *testing.T) {
	snap := profileSnapshot(1000,
		tickDef{-180, 200}, tickDef{-60, 300}, tickDef{60, -400}, tickDef{180, -100})
	segs := Build(snap, 0)

	gaps, mask := Gaps(segs, nil, DefaultGapPercentile)
	require.Len(t, gaps, 1)
	assert.Equal(t, int64(60), gaps[0].TickLower)
	assert.Equal(t, 1, mask.Count())
	assert.True(t, mask.IsSet(3))
}

func TestGaps_ExplicitFloor(t *testing.T) {
	snap := profileSnapshot(1000,
		tickDef{-180, 200}, tickDef{-60, 300}, tickDef{60, -400}, tickDef{180, -100})
	segs := Build(snap, 0)

	gaps, mask := Gaps(segs, big.NewInt(700), 0)
	require.Len(t, gaps, 2)
	assert.Equal(t, int64(-180), gaps[0].TickLower)
	assert.Equal(t, int64(60), gaps[1].TickLower)

	assert.True(t, mask.IsSet(0))
	assert.False(t, mask.IsSet(1))
	assert.False(t, mask.IsSet(2))
	assert.True(t, mask.IsSet(3))
}

func TestGaps_TopPercentileFlagsAll(t *testing.T) {
	snap := profileSnapshot(1000,
		tickDef{-180, 200}, tickDef{-60, 300}, tickDef{60, -400}, tickDef{180, -100})
	segs := Build(snap, 0)

	gaps, mask := Gaps(segs, nil, 1.0)
	assert.Len(t, gaps, len(segs))
	assert.Equal(t, len(segs), mask.Count())
}

func TestGaps_EmptyProfile(t *testing.T) {
	gaps, mask := Gaps(nil, nil, DefaultGapPercentile)
	assert.Nil(t, gaps)
	assert.Nil(t, mask)
}

func TestSummarize(t *testing.T) {
	t.Run("both sides", func(t *testing.T) {
		snap := profileSnapshot(1000,
			tickDef{-180, 200}, tickDef{-60, 300}, tickDef{60, -400}, tickDef{180, -100})

		s := Summarize(snap)
		assert.Equal(t, int64(0), s.CurrentTick)
		assert.Equal(t, int64(60), s.TickSpacing)
		assert.Equal(t, 4, s.InitializedTicks)

		require.NotNil(t, s.NearestBelow)
		require.NotNil(t, s.NearestAbove)
		require.NotNil(t, s.GapTicks)
		assert.Equal(t, int64(-60), *s.NearestBelow)
		assert.Equal(t, int64(60), *s.NearestAbove)
		assert.Equal(t, int64(120), *s.GapTicks)
		assert.False(t, s.GapIsLarge)
	})

	t.Run("wide gap", func(t *testing.T) {
		snap := profileSnapshot(1000, tickDef{-60000, 100}, tickDef{59940, -100})

		s := Summarize(snap)
		require.NotNil(t, s.GapTicks)
		assert.Equal(t, int64(119940), *s.GapTicks)
		assert.True(t, s.GapIsLarge)
	})

	t.Run("one side only", func(t *testing.T) {
		snap := profileSnapshot(1000, tickDef{60, -100})

		s := Summarize(snap)
		assert.Nil(t, s.NearestBelow)
		require.NotNil(t, s.NearestAbove)
		assert.Equal(t, int64(60), *s.NearestAbove)
		assert.Nil(t, s.GapTicks)
		assert.False(t, s.GapIsLarge)
	})
}
