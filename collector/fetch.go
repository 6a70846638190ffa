package collector

import (
	"context"
	"fmt"
	"math/big"
	"sort"
	"sync"

	"github.com/ethereum/go-ethereum/common"
	"golang.org/x/sync/errgroup"

	"github.com/tickwalk/tickwalk-go/calculator/bitmath"
	"github.com/tickwalk/tickwalk-go/pool"
	"github.com/tickwalk/tickwalk-go/scanner"
)

const defaultTokenDecimals = 18

// Snapshot fetches the scalar state of one pool plus both tokens' ERC-20
// metadata. Tick data is a separate, heavier fetch; see Ticks.
func (c *Client) Snapshot(ctx context.Context, addr common.Address) (*pool.Snapshot, error) {
	snap := &pool.Snapshot{State: pool.State{Address: addr}}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		out, err := c.call(gctx, addr, &poolABI, "token0")
		if err != nil {
			return err
		}
		snap.Token0.Address = out[0].(common.Address)
		return nil
	})
	g.Go(func() error {
		out, err := c.call(gctx, addr, &poolABI, "token1")
		if err != nil {
			return err
		}
		snap.Token1.Address = out[0].(common.Address)
		return nil
	})
	g.Go(func() error {
		out, err := c.call(gctx, addr, &poolABI, "fee")
		if err != nil {
			return err
		}
		snap.Fee = out[0].(*big.Int).Uint64()
		return nil
	})
	g.Go(func() error {
		out, err := c.call(gctx, addr, &poolABI, "tickSpacing")
		if err != nil {
			return err
		}
		snap.TickSpacing = out[0].(*big.Int).Int64()
		return nil
	})
	g.Go(func() error {
		out, err := c.call(gctx, addr, &poolABI, "liquidity")
		if err != nil {
			return err
		}
		snap.Liquidity = out[0].(*big.Int)
		return nil
	})
	g.Go(func() error {
		out, err := c.call(gctx, addr, &poolABI, "slot0")
		if err != nil {
			return err
		}
		snap.SqrtPriceX96 = out[0].(*big.Int)
		snap.Tick = out[1].(*big.Int).Int64()
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("pool %s: %w", addr, err)
	}

	g, gctx = errgroup.WithContext(ctx)
	var token0, token1 pool.Token
	g.Go(func() error {
		var err error
		token0, err = c.tokenMeta(gctx, snap.Token0.Address)
		return err
	})
	g.Go(func() error {
		var err error
		token1, err = c.tokenMeta(gctx, snap.Token1.Address)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("pool %s token metadata: %w", addr, err)
	}
	snap.Token0 = token0
	snap.Token1 = token1

	c.logger.Debug("pool snapshot fetched",
		"pool", addr, "pair", pairLabel(snap), "fee", snap.Fee, "tick", snap.Tick)
	return snap, nil
}

// tokenMeta reads symbol and decimals. Both are best-effort: nonstandard
// tokens fall back to an address prefix and 18 decimals, the dominant
// convention. Context cancellation still aborts.
func (c *Client) tokenMeta(ctx context.Context, addr common.Address) (pool.Token, error) {
	tok := pool.Token{Address: addr, Decimals: defaultTokenDecimals}

	if out, err := c.call(ctx, addr, &erc20ABI, "symbol"); err == nil {
		tok.Symbol = out[0].(string)
	} else if ctx.Err() != nil {
		return tok, ctx.Err()
	} else {
		tok.Symbol = addr.Hex()[:6]
		c.logger.Debug("token symbol unavailable, using address prefix", "token", addr, "err", err)
	}

	if out, err := c.call(ctx, addr, &erc20ABI, "decimals"); err == nil {
		tok.Decimals = out[0].(uint8)
	} else if ctx.Err() != nil {
		return tok, ctx.Err()
	} else {
		c.logger.Debug("token decimals unavailable, assuming 18", "token", addr, "err", err)
	}
	return tok, nil
}

type tickCandidate struct {
	tick int64
	word int16
	bit  uint8
}

// Ticks populates snap.Words and snap.Ticks from the bitmap window around
// the snapshot's current tick. Set bits past win.MaxTicks, counted in
// ascending tick order, are dropped, as are bits whose tick data reports
// uninitialized; the stored words have those bits cleared, so every set
// bit that remains is backed by an entry in snap.Ticks.
func (c *Client) Ticks(ctx context.Context, snap *pool.Snapshot, win scanner.Window) error {
	if snap.TickSpacing <= 0 {
		return pool.ErrTickSpacing
	}
	centerWord, _ := scanner.Position(scanner.Compress(snap.Tick, snap.TickSpacing))

	words := make(map[int16]*big.Int, 2*win.WordsEachSide+1)
	var mu sync.Mutex
	g, gctx := errgroup.WithContext(ctx)
	for wp := int(centerWord) - win.WordsEachSide; wp <= int(centerWord)+win.WordsEachSide; wp++ {
		wp := wp
		g.Go(func() error {
			out, err := c.call(gctx, snap.Address, &poolABI, "tickBitmap", int16(wp))
			if err != nil {
				return err
			}
			word := out[0].(*big.Int)
			if word.Sign() == 0 {
				return nil
			}
			mu.Lock()
			words[int16(wp)] = word
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return fmt.Errorf("pool %s bitmap window: %w", snap.Address, err)
	}

	candidates := setTicks(words, snap.TickSpacing)
	if win.MaxTicks > 0 && len(candidates) > win.MaxTicks {
		c.logger.Warn("tick window truncated",
			"pool", snap.Address, "have", len(candidates), "cap", win.MaxTicks)
		for _, cand := range candidates[win.MaxTicks:] {
			words[cand.word].SetBit(words[cand.word], int(cand.bit), 0)
		}
		candidates = candidates[:win.MaxTicks]
	}

	ticks := make([]pool.TickInfo, len(candidates))
	g, gctx = errgroup.WithContext(ctx)
	for i, cand := range candidates {
		i, cand := i, cand
		g.Go(func() error {
			out, err := c.call(gctx, snap.Address, &poolABI, "ticks", big.NewInt(cand.tick))
			if err != nil {
				return err
			}
			if !out[7].(bool) {
				return nil
			}
			ticks[i] = pool.TickInfo{
				Index:          cand.tick,
				LiquidityGross: out[0].(*big.Int),
				LiquidityNet:   out[1].(*big.Int),
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return fmt.Errorf("pool %s ticks: %w", snap.Address, err)
	}

	kept := make([]pool.TickInfo, 0, len(ticks))
	for i, ti := range ticks {
		if ti.LiquidityGross == nil {
			// The bitmap claimed the tick but the pool says uninitialized;
			// the state moved between calls.
			cand := candidates[i]
			words[cand.word].SetBit(words[cand.word], int(cand.bit), 0)
			continue
		}
		kept = append(kept, ti)
	}

	snap.Words = words
	snap.Ticks = kept
	c.metrics.ticksFetched.Observe(float64(len(kept)))
	return nil
}

// setTicks expands bitmap words into tick candidates, ascending.
func setTicks(words map[int16]*big.Int, spacing int64) []tickCandidate {
	positions := make([]int, 0, len(words))
	for wp := range words {
		positions = append(positions, int(wp))
	}
	sort.Ints(positions)

	var out []tickCandidate
	for _, wp := range positions {
		w := words[int16(wp)]
		b, err := bitmath.LeastSignificantBit(w)
		if err != nil {
			continue
		}
		for {
			out = append(out, tickCandidate{
				tick: ((int64(wp) << 8) + int64(b)) * spacing,
				word: int16(wp),
				bit:  b,
			})
			next, ok := bitmath.LeastSignificantBitAbove(w, b)
			if !ok {
				break
			}
			b = next
		}
	}
	return out
}

// FeePool is one factory lookup result.
type FeePool struct {
	Fee  uint64         `json:"fee"`
	Pool common.Address `json:"pool"`
}

// PoolsForPair resolves the factory pool for each configured fee tier.
// Tiers with no deployed pool are omitted from the result.
func (c *Client) PoolsForPair(ctx context.Context, tokenA, tokenB common.Address) ([]FeePool, error) {
	out := make([]FeePool, 0, len(c.feeTiers))
	for _, tier := range c.feeTiers {
		res, err := c.call(ctx, c.factory, &factoryABI, "getPool", tokenA, tokenB, new(big.Int).SetUint64(tier))
		if err != nil {
			return nil, fmt.Errorf("factory getPool fee=%d: %w", tier, err)
		}
		addr := res[0].(common.Address)
		if addr == (common.Address{}) {
			c.logger.Debug("no pool at fee tier", "tokenA", tokenA, "tokenB", tokenB, "fee", tier)
			continue
		}
		out = append(out, FeePool{Fee: tier, Pool: addr})
	}
	return out, nil
}

// CollectPair resolves every fee-tier pool for the pair and fetches a full
// snapshot of each, tick window included.
func (c *Client) CollectPair(ctx context.Context, tokenA, tokenB common.Address, win scanner.Window) ([]*pool.Snapshot, error) {
	pools, err := c.PoolsForPair(ctx, tokenA, tokenB)
	if err != nil {
		return nil, err
	}

	snaps := make([]*pool.Snapshot, len(pools))
	g, gctx := errgroup.WithContext(ctx)
	for i, fp := range pools {
		i, fp := i, fp
		g.Go(func() error {
			snap, err := c.Snapshot(gctx, fp.Pool)
			if err != nil {
				return err
			}
			if err := c.Ticks(gctx, snap, win); err != nil {
				return err
			}
			snaps[i] = snap
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	c.logger.Info("pair collected", "tokenA", tokenA, "tokenB", tokenB, "pools", len(snaps))
	return snaps, nil
}

func pairLabel(snap *pool.Snapshot) string {
	return snap.Token0.Symbol + "/" + snap.Token1.Symbol
}
