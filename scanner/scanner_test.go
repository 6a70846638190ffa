package scanner

import (
	"math/big"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tickwalk/tickwalk-go/pool"
)

// fixture builds a snapshot with initialized ticks at the given indices.
// LiquidityNet is set to the index itself so tests can check that the
// right tick data came back, not just the right index.
func fixture(tick, spacing int64, indices []int64, withWords bool) *pool.Snapshot {
	snap := &pool.Snapshot{State: pool.State{Tick: tick, TickSpacing: spacing}}
	for _, idx := range indices {
		snap.Ticks = append(snap.Ticks, pool.TickInfo{
			Index:          idx,
			LiquidityGross: big.NewInt(1),
			LiquidityNet:   big.NewInt(idx),
		})
	}
	if withWords {
		snap.Words = map[int16]*big.Int{}
		for _, idx := range indices {
			word, bit := Position(Compress(idx, spacing))
			w, ok := snap.Words[word]
			if !ok {
				w = new(big.Int)
				snap.Words[word] = w
			}
			w.SetBit(w, int(bit), 1)
		}
	}
	return snap
}

func drain(f Frontier, limit int) []int64 {
	var out []int64
	for i := 0; i < limit; i++ {
		info, ok := f.Next()
		if !ok {
			break
		}
		out = append(out, info.Index)
	}
	return out
}

func TestCompress(t *testing.T) {
	testCases := []struct {
		tick, spacing, expected int64
	}{
		{0, 60, 0},
		{59, 60, 0},
		{60, 60, 1},
		{-1, 60, -1},
		{-60, 60, -1},
		{-61, 60, -2},
		{-25, 10, -3},
	}
	for _, tc := range testCases {
		assert.Equal(t, tc.expected, Compress(tc.tick, tc.spacing), "compress(%d, %d)", tc.tick, tc.spacing)
	}
}

func TestPosition(t *testing.T) {
	word, bit := Position(0)
	assert.Equal(t, int16(0), word)
	assert.Equal(t, uint8(0), bit)

	word, bit = Position(257)
	assert.Equal(t, int16(1), word)
	assert.Equal(t, uint8(1), bit)

	word, bit = Position(-1)
	assert.Equal(t, int16(-1), word)
	assert.Equal(t, uint8(255), bit)

	word, bit = Position(-256)
	assert.Equal(t, int16(-1), word)
	assert.Equal(t, uint8(0), bit)
}

func TestFrontierOrdering(t *testing.T) {
	indices := []int64{-1200, -600, -60, 0, 60, 600}
	wide := Window{WordsEachSide: 16, MaxTicks: 100}

	for _, mode := range []struct {
		name      string
		withWords bool
	}{
		{"words", true},
		{"slice", false},
	} {
		t.Run(mode.name, func(t *testing.T) {
			t.Run("descending includes the current tick", func(t *testing.T) {
				s, err := New(fixture(0, 60, indices, mode.withWords), wide)
				require.NoError(t, err)
				assert.Equal(t, []int64{0, -60, -600, -1200}, drain(s.Descending(), 10))
			})

			t.Run("descending from between ticks", func(t *testing.T) {
				s, err := New(fixture(30, 60, indices, mode.withWords), wide)
				require.NoError(t, err)
				assert.Equal(t, []int64{0, -60, -600, -1200}, drain(s.Descending(), 10))
			})

			t.Run("ascending excludes the current tick", func(t *testing.T) {
				s, err := New(fixture(0, 60, indices, mode.withWords), wide)
				require.NoError(t, err)
				assert.Equal(t, []int64{60, 600}, drain(s.Ascending(), 10))
			})

			t.Run("ascending from between ticks", func(t *testing.T) {
				s, err := New(fixture(-70, 60, indices, mode.withWords), wide)
				require.NoError(t, err)
				assert.Equal(t, []int64{-60, 0, 60, 600}, drain(s.Ascending(), 10))
			})

			t.Run("negative unaligned current tick floors correctly", func(t *testing.T) {
				s, err := New(fixture(-25, 10, []int64{-30, -20}, mode.withWords), wide)
				require.NoError(t, err)
				assert.Equal(t, []int64{-30}, drain(s.Descending(), 10))

				s, err = New(fixture(-25, 10, []int64{-30, -20}, mode.withWords), wide)
				require.NoError(t, err)
				assert.Equal(t, []int64{-20}, drain(s.Ascending(), 10))
			})

			t.Run("no ticks means immediate exhaustion", func(t *testing.T) {
				s, err := New(fixture(0, 60, nil, mode.withWords), wide)
				require.NoError(t, err)
				_, ok := s.Descending().Next()
				assert.False(t, ok)
				_, ok = s.Ascending().Next()
				assert.False(t, ok)
			})

			t.Run("frontier carries the tick's liquidity data", func(t *testing.T) {
				s, err := New(fixture(0, 60, indices, mode.withWords), wide)
				require.NoError(t, err)
				info, ok := s.Ascending().Next()
				require.True(t, ok)
				assert.EqualValues(t, 60, info.Index)
				assert.EqualValues(t, 60, info.LiquidityNet.Int64())
			})
		})
	}
}

func TestWindowBounds(t *testing.T) {
	// One word at spacing 60 spans 256*60 = 15360 ticks, so with zero
	// words each side only ticks in the current word are reachable.
	indices := []int64{-60, 0, 60, 15360}

	for _, mode := range []struct {
		name      string
		withWords bool
	}{
		{"words", true},
		{"slice", false},
	} {
		t.Run(mode.name, func(t *testing.T) {
			narrow := Window{WordsEachSide: 0, MaxTicks: 100}

			s, err := New(fixture(0, 60, indices, mode.withWords), narrow)
			require.NoError(t, err)
			assert.Equal(t, []int64{0}, drain(s.Descending(), 10), "tick -60 lives in word -1")

			s, err = New(fixture(0, 60, indices, mode.withWords), narrow)
			require.NoError(t, err)
			assert.Equal(t, []int64{60}, drain(s.Ascending(), 10), "tick 15360 lives in word 1")
		})
	}
}

func TestTickBudget(t *testing.T) {
	indices := []int64{-1200, -600, -60, 0, 60, 600}

	for _, mode := range []struct {
		name      string
		withWords bool
	}{
		{"words", true},
		{"slice", false},
	} {
		t.Run(mode.name, func(t *testing.T) {
			t.Run("budget truncates a frontier", func(t *testing.T) {
				s, err := New(fixture(600, 60, indices, mode.withWords), Window{WordsEachSide: 16, MaxTicks: 2})
				require.NoError(t, err)
				f := s.Descending()
				assert.Equal(t, []int64{600, 60}, drain(f, 10))
				_, ok := f.Next()
				assert.False(t, ok, "a dead frontier stays dead")
			})

			t.Run("budget is shared across directions", func(t *testing.T) {
				s, err := New(fixture(0, 60, indices, mode.withWords), Window{WordsEachSide: 16, MaxTicks: 3})
				require.NoError(t, err)

				down := s.Descending()
				for i := 0; i < 2; i++ {
					_, ok := down.Next()
					require.True(t, ok)
				}

				up := s.Ascending()
				_, ok := up.Next()
				assert.True(t, ok, "one tick of budget remains")
				_, ok = up.Next()
				assert.False(t, ok, "budget exhausted")
			})
		})
	}
}

func TestBitmapWithoutTickData(t *testing.T) {
	// The bitmap claims tick 300 is initialized but the snapshot has no
	// data for it: the frontier must die there instead of skipping it.
	snap := fixture(0, 60, []int64{60}, true)
	word, bit := Position(Compress(300, 60))
	w := snap.Words[word]
	if w == nil {
		w = new(big.Int)
		snap.Words[word] = w
	}
	w.SetBit(w, int(bit), 1)

	s, err := New(snap, Window{WordsEachSide: 16, MaxTicks: 100})
	require.NoError(t, err)
	f := s.Ascending()

	info, ok := f.Next()
	require.True(t, ok)
	assert.EqualValues(t, 60, info.Index)

	_, ok = f.Next()
	assert.False(t, ok)
	_, ok = f.Next()
	assert.False(t, ok)
}

func TestWordAndSliceFrontiersAgree(t *testing.T) {
	indices := []int64{-46080, -15360, -7680, -120, -60, 0, 60, 120, 7680, 15360, 46080}
	wide := Window{WordsEachSide: 256, MaxTicks: 1000}

	for _, start := range []int64{-46081, -7680, -90, -1, 0, 1, 90, 15360, 46081} {
		words, err := New(fixture(start, 60, indices, true), wide)
		require.NoError(t, err)
		slice, err := New(fixture(start, 60, indices, false), wide)
		require.NoError(t, err)

		assert.Equal(t, drain(slice.Descending(), 100), drain(words.Descending(), 100), "descending from %d", start)

		words, err = New(fixture(start, 60, indices, true), wide)
		require.NoError(t, err)
		slice, err = New(fixture(start, 60, indices, false), wide)
		require.NoError(t, err)

		assert.Equal(t, drain(slice.Ascending(), 100), drain(words.Ascending(), 100), "ascending from %d", start)
	}
}

func TestInvalidWindow(t *testing.T) {
	_, err := New(fixture(0, 60, nil, false), Window{WordsEachSide: -1, MaxTicks: 10})
	assert.ErrorIs(t, err, ErrInvalidWindow)

	_, err = New(fixture(0, 60, nil, false), Window{WordsEachSide: 1, MaxTicks: -1})
	assert.ErrorIs(t, err, ErrInvalidWindow)
}
