package pool

import "math/big"

// Copy creates a deep copy of a TickInfo, ensuring the *big.Int pointers
// are new.
func (t TickInfo) Copy() TickInfo {
	out := t
	out.LiquidityGross = new(big.Int).Set(t.LiquidityGross)
	out.LiquidityNet = new(big.Int).Set(t.LiquidityNet)
	return out
}

// DeepCopy creates a new Snapshot with its own memory for all pointer
// types, including the nested tick slice and bitmap words. Simulations
// mutate their working price and liquidity, so sharing memory with the
// source snapshot is never safe.
func (s *Snapshot) DeepCopy() *Snapshot {
	out := *s
	if s.Liquidity != nil {
		out.Liquidity = new(big.Int).Set(s.Liquidity)
	}
	if s.SqrtPriceX96 != nil {
		out.SqrtPriceX96 = new(big.Int).Set(s.SqrtPriceX96)
	}
	if s.Ticks != nil {
		ticks := make([]TickInfo, len(s.Ticks))
		for i, t := range s.Ticks {
			ticks[i] = t.Copy()
		}
		out.Ticks = ticks
	}
	if s.Words != nil {
		words := make(map[int16]*big.Int, len(s.Words))
		for pos, w := range s.Words {
			words[pos] = new(big.Int).Set(w)
		}
		out.Words = words
	}
	return &out
}
