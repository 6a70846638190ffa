// Package bitmath provides bit-index scans over arbitrary-width integers,
// used by the tick bitmap walker to locate initialized ticks inside
// 256-bit bitmap words.
package bitmath

import (
	"errors"
	"math/big"
	"math/bits"
)

var (
	// ErrInputIsZero is returned when a function requires a non-zero input but receives zero.
	ErrInputIsZero = errors.New("input must be greater than zero")
	// ErrInputIsNil is returned when a function receives a nil pointer.
	ErrInputIsNil = errors.New("input cannot be nil")
)

// MostSignificantBit returns the index of the most significant set bit,
// counting from zero. It satisfies x >= 2**msb(x) and x < 2**(msb(x)+1).
func MostSignificantBit(x *big.Int) (uint8, error) {
	if x == nil {
		return 0, ErrInputIsNil
	}
	if x.Sign() <= 0 {
		return 0, ErrInputIsZero
	}
	// BitLen is the number of bits needed to represent x, so the top set
	// bit sits at BitLen-1.
	return uint8(x.BitLen() - 1), nil
}

// LeastSignificantBit returns the index of the least significant set bit,
// counting from zero. It satisfies (x & 2**lsb(x)) != 0.
func LeastSignificantBit(x *big.Int) (uint8, error) {
	if x == nil {
		return 0, ErrInputIsNil
	}
	if x.Sign() <= 0 {
		return 0, ErrInputIsZero
	}
	for i, word := range x.Bits() {
		if word > 0 {
			return uint8(i*64 + bits.TrailingZeros64(uint64(word))), nil
		}
	}
	// Unreachable once x > 0, kept as a safeguard.
	return 0, ErrInputIsZero
}

// MostSignificantBitAtOrBelow returns the index of the highest set bit at
// or below limit. The boolean reports whether any such bit exists; a nil
// or zero word has none. Used when walking a bitmap word toward lower
// ticks.
func MostSignificantBitAtOrBelow(x *big.Int, limit uint8) (uint8, bool) {
	if x == nil || x.Sign() <= 0 {
		return 0, false
	}
	mask := new(big.Int).Lsh(big.NewInt(1), uint(limit)+1)
	mask.Sub(mask, big.NewInt(1))
	masked := new(big.Int).And(x, mask)
	if masked.Sign() == 0 {
		return 0, false
	}
	return uint8(masked.BitLen() - 1), true
}

// LeastSignificantBitAbove returns the index of the lowest set bit
// strictly above floor, or false when no bit above it is set within the
// word. Used when walking a bitmap word toward higher ticks.
func LeastSignificantBitAbove(x *big.Int, floor uint8) (uint8, bool) {
	if x == nil || x.Sign() <= 0 {
		return 0, false
	}
	if floor == 255 {
		return 0, false
	}
	mask := new(big.Int).Lsh(big.NewInt(1), uint(floor)+1)
	mask.Sub(mask, big.NewInt(1))
	masked := new(big.Int).AndNot(x, mask)
	if masked.Sign() == 0 {
		return 0, false
	}
	b, err := LeastSignificantBit(masked)
	if err != nil {
		return 0, false
	}
	return b, true
}
