// Package bitset provides a fixed-size bit mask backed by 64-bit words.
// The liquidity profile uses it to flag thin segments by position.
package bitset

import "math/bits"

type Mask []uint64

// New returns a zeroed mask able to hold size bits.
func New(size uint64) Mask {
	words := (size + 63) / 64
	return make(Mask, words)
}

func (m Mask) IsSet(index uint64) bool {
	wordPosition := index / 64
	bitPosition := index % 64
	mask := uint64(1) << bitPosition

	return (m[wordPosition] & mask) != 0
}

func (m Mask) Set(index uint64) {
	wordPosition := index / 64
	bitPosition := index % 64
	mask := uint64(1) << bitPosition

	m[wordPosition] |= mask
}

func (m Mask) Unset(index uint64) {
	wordPosition := index / 64
	bitPosition := index % 64
	mask := uint64(1) << bitPosition

	m[wordPosition] = m[wordPosition] &^ mask
}

func (m Mask) Clear() {
	for i := range m {
		m[i] = 0
	}
}

// Count returns the number of set bits.
func (m Mask) Count() int {
	total := 0
	for _, word := range m {
		total += bits.OnesCount64(word)
	}
	return total
}

// Any reports whether at least one bit is set.
func (m Mask) Any() bool {
	for _, word := range m {
		if word != 0 {
			return true
		}
	}
	return false
}
