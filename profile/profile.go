// Package profile derives liquidity structure around a pool's current
// price: segment-wise active liquidity, low-liquidity gap flags, and a
// bounded distribution summary. Everything here serves reporting and
// exploration; the simulator never depends on it.
package profile

import (
	"math/big"
	"sort"

	"github.com/shopspring/decimal"

	"github.com/tickwalk/tickwalk-go/bitset"
	"github.com/tickwalk/tickwalk-go/calculator/tickmath"
	"github.com/tickwalk/tickwalk-go/pool"
)

const (
	DefaultMaxSegments   = 300
	DefaultGapPercentile = 0.1

	// A stretch wider than this many tick spacings between the nearest
	// initialized boundaries marks a pool as thin near its price.
	largeGapFactor = 200
)

// Segment is one constant-liquidity price range [TickLower, TickUpper).
type Segment struct {
	TickLower  int64           `json:"tickLower"`
	TickUpper  int64           `json:"tickUpper"`
	Liquidity  *big.Int        `json:"liquidity"`
	PriceLower decimal.Decimal `json:"priceLower"`
	PriceUpper decimal.Decimal `json:"priceUpper"`
}

// Build walks outward from the current tick and materializes the
// constant-liquidity segments between initialized boundaries: upward
// crossings add each boundary's net liquidity, downward crossings subtract
// it. Segments are returned ascending by lower tick. At most maxSegments
// are produced; zero or less means DefaultMaxSegments. Ticks must be
// strictly ascending, as Snapshot.Validate enforces.
func Build(snap *pool.Snapshot, maxSegments int) []Segment {
	if maxSegments <= 0 {
		maxSegments = DefaultMaxSegments
	}
	if snap.TickSpacing <= 0 || len(snap.Ticks) == 0 || snap.Liquidity == nil {
		return nil
	}

	idx := sort.Search(len(snap.Ticks), func(i int) bool {
		return snap.Ticks[i].Index > snap.Tick
	})
	d0, d1 := snap.Token0.Decimals, snap.Token1.Decimals

	var segs []Segment

	liquidity := new(big.Int).Set(snap.Liquidity)
	last := snap.Tick
	for _, ti := range snap.Ticks[idx:] {
		if len(segs) >= maxSegments {
			break
		}
		segs = append(segs, segment(last, ti.Index, liquidity, d0, d1))
		liquidity.Add(liquidity, ti.LiquidityNet)
		last = ti.Index
	}

	liquidity.Set(snap.Liquidity)
	last = snap.Tick
	for i := idx - 1; i >= 0; i-- {
		if len(segs) >= maxSegments {
			break
		}
		ti := snap.Ticks[i]
		if ti.Index == last {
			// A boundary on the current tick itself spans no range but
			// still moves liquidity for the space below it.
			liquidity.Sub(liquidity, ti.LiquidityNet)
			continue
		}
		segs = append(segs, segment(ti.Index, last, liquidity, d0, d1))
		liquidity.Sub(liquidity, ti.LiquidityNet)
		last = ti.Index
	}

	sort.Slice(segs, func(i, j int) bool { return segs[i].TickLower < segs[j].TickLower })
	return segs
}

func segment(lower, upper int64, liquidity *big.Int, d0, d1 uint8) Segment {
	return Segment{
		TickLower:  lower,
		TickUpper:  upper,
		Liquidity:  new(big.Int).Set(liquidity),
		PriceLower: priceAtTick(lower, d0, d1),
		PriceUpper: priceAtTick(upper, d0, d1),
	}
}

func priceAtTick(tick int64, d0, d1 uint8) decimal.Decimal {
	var ratio big.Int
	if err := tickmath.GetSqrtRatioAtTick(&ratio, tick); err != nil {
		return decimal.Zero
	}
	return pool.PriceFromSqrtX96(&ratio, d0, d1)
}

// Gaps returns the segments whose liquidity sits at or below a threshold,
// plus a mask flagging their positions in the input profile. A nil
// minLiquidity derives the threshold from the profile itself: the liquidity
// found at the given percentile of segments ordered poorest-first.
func Gaps(profile []Segment, minLiquidity *big.Int, percentile float64) ([]Segment, bitset.Mask) {
	if len(profile) == 0 {
		return nil, nil
	}

	threshold := minLiquidity
	if threshold == nil {
		ordered := make([]*big.Int, len(profile))
		for i, seg := range profile {
			ordered[i] = seg.Liquidity
		}
		sort.Slice(ordered, func(i, j int) bool { return ordered[i].Cmp(ordered[j]) < 0 })

		if percentile < 0 {
			percentile = 0
		}
		k := int(float64(len(ordered)) * percentile)
		if k > len(ordered)-1 {
			k = len(ordered) - 1
		}
		threshold = ordered[k]
	}

	mask := bitset.New(uint64(len(profile)))
	var gaps []Segment
	for i, seg := range profile {
		if seg.Liquidity.Cmp(threshold) <= 0 {
			mask.Set(uint64(i))
			gaps = append(gaps, seg)
		}
	}
	return gaps, mask
}

// Summary describes the initialized-tick landscape around the current tick.
type Summary struct {
	CurrentTick      int64  `json:"currentTick"`
	TickSpacing      int64  `json:"tickSpacing"`
	InitializedTicks int    `json:"initializedTicks"`
	NearestBelow     *int64 `json:"nearestBelow,omitempty"`
	NearestAbove     *int64 `json:"nearestAbove,omitempty"`
	GapTicks         *int64 `json:"gapTicks,omitempty"`
	GapIsLarge       bool   `json:"gapIsLarge"`
}

// Summarize finds the nearest initialized boundary on each side of the
// current tick. Sides with no boundary in the snapshot stay nil.
func Summarize(snap *pool.Snapshot) Summary {
	s := Summary{
		CurrentTick:      snap.Tick,
		TickSpacing:      snap.TickSpacing,
		InitializedTicks: len(snap.Ticks),
	}
	for _, ti := range snap.Ticks {
		if ti.Index <= snap.Tick {
			below := ti.Index
			s.NearestBelow = &below
		} else if s.NearestAbove == nil {
			above := ti.Index
			s.NearestAbove = &above
		}
	}
	if s.NearestBelow != nil && s.NearestAbove != nil {
		gap := *s.NearestAbove - *s.NearestBelow
		s.GapTicks = &gap
		s.GapIsLarge = gap > snap.TickSpacing*largeGapFactor
	}
	return s
}
