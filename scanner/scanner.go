// Package scanner walks the initialized ticks around a pool's current
// price, one direction of travel at a time. A frontier surfaces ticks in
// crossing order and goes silent when the scan window is exhausted; the
// window bounds are a truncation, never an error, so a caller that wants
// a cheap abort simply configures a small window.
package scanner

import (
	"errors"
	"sort"

	"github.com/tickwalk/tickwalk-go/calculator/bitmath"
	"github.com/tickwalk/tickwalk-go/pool"
)

// ErrInvalidWindow is returned for window bounds outside their domain.
var ErrInvalidWindow = errors.New("config: scan window bounds must not be negative")

// Window bounds one scan: how many 256-bit bitmap words are inspected on
// each side of the current tick, and a hard cap on the total number of
// ticks surfaced across both directions.
type Window struct {
	WordsEachSide int `json:"wordsEachSide" yaml:"words_each_side"`
	MaxTicks      int `json:"maxTicks" yaml:"max_ticks"`
}

// Frontier yields the initialized ticks of one direction of travel, one
// per call, each strictly beyond the last. A false result is permanent
// and means exhaustion: the window ran out, the tick budget ran out, or
// the snapshot had no data for a tick the bitmap claims is initialized.
type Frontier interface {
	Next() (pool.TickInfo, bool)
}

// Scanner builds frontiers over a single snapshot. The tick budget of the
// window is shared by every frontier the scanner hands out, so a scan
// that burns its budget going down has nothing left for the way up.
type Scanner struct {
	snap    *pool.Snapshot
	win     Window
	byIndex map[int64]*pool.TickInfo
	budget  int
}

// New validates the window and prepares a scanner for one snapshot. When
// the snapshot carries raw bitmap words the frontiers walk them bit by
// bit; otherwise they walk the sorted tick slice directly.
func New(snap *pool.Snapshot, win Window) (*Scanner, error) {
	if win.WordsEachSide < 0 || win.MaxTicks < 0 {
		return nil, ErrInvalidWindow
	}
	s := &Scanner{snap: snap, win: win, budget: win.MaxTicks}
	if snap.Words != nil {
		s.byIndex = make(map[int64]*pool.TickInfo, len(snap.Ticks))
		for i := range snap.Ticks {
			s.byIndex[snap.Ticks[i].Index] = &snap.Ticks[i]
		}
	}
	return s, nil
}

// Compress maps a tick onto the bitmap coordinate space, flooring toward
// negative infinity so that negative unaligned ticks land in the word
// that covers them.
func Compress(tick, spacing int64) int64 {
	c := tick / spacing
	if tick < 0 && tick%spacing != 0 {
		c--
	}
	return c
}

// Position splits a compressed tick into its word index and the bit
// within that word.
func Position(compressed int64) (word int16, bit uint8) {
	return int16(compressed >> 8), uint8(compressed & 255)
}

// Descending returns the frontier for a falling price: the greatest
// initialized tick at or below the current tick comes first, then
// strictly lower ticks.
func (s *Scanner) Descending() Frontier {
	c := Compress(s.snap.Tick, s.snap.TickSpacing)
	word, bit := Position(c)
	stop := int(word) - s.win.WordsEachSide
	if s.snap.Words != nil {
		return &descendingWords{s: s, word: int(word), bit: int(bit), stopWord: stop}
	}
	idx := sort.Search(len(s.snap.Ticks), func(i int) bool {
		return s.snap.Ticks[i].Index > s.snap.Tick
	})
	return &descendingSlice{s: s, idx: idx - 1, minTick: (int64(stop) << 8) * s.snap.TickSpacing}
}

// Ascending returns the frontier for a rising price: the smallest
// initialized tick strictly above the current tick comes first.
func (s *Scanner) Ascending() Frontier {
	c := Compress(s.snap.Tick, s.snap.TickSpacing)
	word, bit := Position(c)
	stop := int(word) + s.win.WordsEachSide
	if s.snap.Words != nil {
		return &ascendingWords{s: s, word: int(word), floor: int(bit), stopWord: stop}
	}
	idx := sort.Search(len(s.snap.Ticks), func(i int) bool {
		return s.snap.Ticks[i].Index > s.snap.Tick
	})
	return &ascendingSlice{s: s, idx: idx, maxTick: ((int64(stop) << 8) + 255) * s.snap.TickSpacing}
}

// surface charges one tick against the shared budget and resolves its
// liquidity data. Bitmap bits without backing tick data kill the
// frontier: the window looked complete but the snapshot was not.
func (s *Scanner) surface(compressed int64) (pool.TickInfo, bool) {
	if s.budget <= 0 {
		return pool.TickInfo{}, false
	}
	info, ok := s.byIndex[compressed*s.snap.TickSpacing]
	if !ok {
		return pool.TickInfo{}, false
	}
	s.budget--
	return *info, true
}

type descendingWords struct {
	s        *Scanner
	word     int
	bit      int // highest bit still eligible in the current word, -1 when spent
	stopWord int
	dead     bool
}

func (f *descendingWords) Next() (pool.TickInfo, bool) {
	if f.dead {
		return pool.TickInfo{}, false
	}
	for f.word >= f.stopWord {
		if f.bit >= 0 {
			if w := f.s.snap.Words[int16(f.word)]; w != nil {
				if b, ok := bitmath.MostSignificantBitAtOrBelow(w, uint8(f.bit)); ok {
					f.bit = int(b) - 1
					info, found := f.s.surface((int64(f.word) << 8) + int64(b))
					f.dead = !found
					return info, found
				}
			}
		}
		f.word--
		f.bit = 255
	}
	f.dead = true
	return pool.TickInfo{}, false
}

type ascendingWords struct {
	s        *Scanner
	word     int
	floor    int // bits at or below this are no longer eligible, -1 accepts the whole word
	stopWord int
	dead     bool
}

func (f *ascendingWords) Next() (pool.TickInfo, bool) {
	if f.dead {
		return pool.TickInfo{}, false
	}
	for f.word <= f.stopWord {
		if f.floor < 255 {
			if w := f.s.snap.Words[int16(f.word)]; w != nil {
				var b uint8
				var ok bool
				if f.floor < 0 {
					if lsb, err := bitmath.LeastSignificantBit(w); err == nil {
						b, ok = lsb, true
					}
				} else {
					b, ok = bitmath.LeastSignificantBitAbove(w, uint8(f.floor))
				}
				if ok {
					f.floor = int(b)
					info, found := f.s.surface((int64(f.word) << 8) + int64(b))
					f.dead = !found
					return info, found
				}
			}
		}
		f.word++
		f.floor = -1
	}
	f.dead = true
	return pool.TickInfo{}, false
}

type descendingSlice struct {
	s       *Scanner
	idx     int
	minTick int64
	dead    bool
}

func (f *descendingSlice) Next() (pool.TickInfo, bool) {
	if f.dead {
		return pool.TickInfo{}, false
	}
	if f.idx < 0 || f.s.snap.Ticks[f.idx].Index < f.minTick || f.s.budget <= 0 {
		f.dead = true
		return pool.TickInfo{}, false
	}
	f.s.budget--
	info := f.s.snap.Ticks[f.idx]
	f.idx--
	return info, true
}

type ascendingSlice struct {
	s       *Scanner
	idx     int
	maxTick int64
	dead    bool
}

func (f *ascendingSlice) Next() (pool.TickInfo, bool) {
	if f.dead {
		return pool.TickInfo{}, false
	}
	if f.idx >= len(f.s.snap.Ticks) || f.s.snap.Ticks[f.idx].Index > f.maxTick || f.s.budget <= 0 {
		f.dead = true
		return pool.TickInfo{}, false
	}
	f.s.budget--
	info := f.s.snap.Ticks[f.idx]
	f.idx++
	return info, true
}
