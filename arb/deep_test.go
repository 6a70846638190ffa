package arb

import (
	"context"
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tickwalk/tickwalk-go/calculator"
	"github.com/tickwalk/tickwalk-go/pool"
)

var (
	tokenA    = pool.Token{Address: common.BytesToAddress([]byte{0xA0}), Symbol: "AAA", Decimals: 18}
	tokenB    = pool.Token{Address: common.BytesToAddress([]byte{0xB0}), Symbol: "BBB", Decimals: 18}
	tokenC    = pool.Token{Address: common.BytesToAddress([]byte{0xC0}), Symbol: "CCC", Decimals: 18}
	wethToken = pool.Token{Address: WETHAddress, Symbol: "WETH", Decimals: 18}

	priceEven = new(big.Int).Lsh(big.NewInt(1), 96) // 1 token1 per token0
	priceHigh = new(big.Int).Lsh(big.NewInt(5), 94) // sqrt 1.25, so 1.5625 token1 per token0

	deepLiquidity = new(big.Int).Exp(big.NewInt(10), big.NewInt(24), nil)
)

type fixtureTick struct {
	index, net int64
}

func mkSnap(addr byte, t0, t1 pool.Token, fee uint64, tickCur int64, sqrtP, liquidity *big.Int, ticks ...fixtureTick) *pool.Snapshot {
	snap := &pool.Snapshot{
		State: pool.State{
			Address:      common.BytesToAddress([]byte{addr}),
			Token0:       t0,
			Token1:       t1,
			Fee:          fee,
			TickSpacing:  60,
			Tick:         tickCur,
			Liquidity:    new(big.Int).Set(liquidity),
			SqrtPriceX96: new(big.Int).Set(sqrtP),
		},
	}
	for _, ft := range ticks {
		snap.Ticks = append(snap.Ticks, pool.TickInfo{
			Index:          ft.index,
			LiquidityGross: new(big.Int).Abs(big.NewInt(ft.net)),
			LiquidityNet:   big.NewInt(ft.net),
		})
	}
	return snap
}

// richPool has liquidity deep enough that a 1e18 trade barely moves it, with
// initialized ticks far out on both sides.
func richPool(addr byte, t0, t1 pool.Token, fee uint64, tickCur int64, sqrtP *big.Int) *pool.Snapshot {
	return mkSnap(addr, t0, t1, fee, tickCur, sqrtP, deepLiquidity,
		fixtureTick{index: -6000, net: 1e18},
		fixtureTick{index: 6000, net: -1e18},
	)
}

func runDeep(t *testing.T, cfg *Config, snaps []*pool.Snapshot) *Report {
	t.Helper()
	ev, err := New(cfg)
	require.NoError(t, err)
	report, err := ev.Evaluate(context.Background(), snaps)
	require.NoError(t, err)
	return report
}

func TestDeep_ProfitableSpread(t *testing.T) {
	buy := richPool(0x01, tokenA, tokenB, 500, 4463, priceHigh)
	sell := richPool(0x02, tokenA, tokenB, 500, 0, priceEven)

	report := runDeep(t, testConfig(ModeDeep), []*pool.Snapshot{buy, sell})
	require.Len(t, report.Opportunities, 2)

	// The orientation that sells token0 on the high-price pool wins and
	// ranks first.
	best := report.Opportunities[0]
	assert.True(t, best.Executable)
	assert.Equal(t, buy.Address, best.BuyPool)
	assert.Equal(t, sell.Address, best.SellPool)
	assert.Equal(t, calculator.ReasonNone, best.Reason)
	require.NotNil(t, best.BuyLeg)
	require.NotNil(t, best.SellLeg)
	assert.False(t, best.BuyLeg.Incomplete)
	assert.False(t, best.SellLeg.Incomplete)
	assert.Zero(t, best.AmountIn.Cmp(big.NewInt(1e18)))
	assert.Positive(t, best.Surplus.Sign())

	// No WETH side, so gas is recorded but never charged.
	assert.False(t, best.GasApplied)
	assert.Nil(t, best.GasCostToken0)
	expected := new(big.Int).Sub(best.FinalAmount, best.AmountIn)
	assert.Zero(t, best.Surplus.Cmp(expected))

	assert.Same(t, best, report.Best())

	reverse := report.Opportunities[1]
	assert.False(t, reverse.Executable)
	assert.Equal(t, ReasonUnprofitable, reverse.Reason)
	assert.Equal(t, sell.Address, reverse.BuyPool)
	assert.Negative(t, reverse.Surplus.Sign())
}

func TestDeep_FeeKillsEqualSpread(t *testing.T) {
	a := richPool(0x01, tokenA, tokenB, 3000, 0, priceEven)
	b := richPool(0x02, tokenA, tokenB, 10000, 0, priceEven)

	report := runDeep(t, testConfig(ModeDeep), []*pool.Snapshot{a, b})
	require.Len(t, report.Opportunities, 2)

	for _, opp := range report.Opportunities {
		assert.False(t, opp.Executable)
		assert.Equal(t, ReasonUnprofitable, opp.Reason)
		require.NotNil(t, opp.BuyLeg)
		require.NotNil(t, opp.SellLeg)
		assert.False(t, opp.BuyLeg.Incomplete)
		assert.False(t, opp.SellLeg.Incomplete)
		assert.Negative(t, opp.Surplus.Sign())
	}
	assert.Nil(t, report.Best())
}

func TestDeep_ThinSellSide(t *testing.T) {
	buy := richPool(0x01, tokenA, tokenB, 500, 4463, priceHigh)
	sell := mkSnap(0x02, tokenA, tokenB, 500, 0, priceEven, big.NewInt(1e15),
		fixtureTick{index: 60, net: -5e14})

	report := runDeep(t, testConfig(ModeDeep), []*pool.Snapshot{buy, sell})

	var forward *Opportunity
	for _, opp := range report.Opportunities {
		if opp.BuyPool == buy.Address {
			forward = opp
		}
	}
	require.NotNil(t, forward)

	assert.False(t, forward.Executable)
	assert.Equal(t, calculator.ReasonInsufficientTickData, forward.Reason)
	require.NotNil(t, forward.BuyLeg)
	assert.False(t, forward.BuyLeg.Incomplete)
	require.NotNil(t, forward.SellLeg)
	assert.True(t, forward.SellLeg.Incomplete)
	assert.Nil(t, forward.Surplus)

	// Conservation holds on the starved leg too.
	sum := new(big.Int).Add(forward.SellLeg.AmountInConsumed, forward.SellLeg.AmountInLeft)
	assert.Zero(t, sum.Cmp(forward.SellLeg.AmountInRequested))
}

func TestDeep_GasCharged(t *testing.T) {
	buy := richPool(0x01, wethToken, tokenB, 500, 4463, priceHigh)
	sell := richPool(0x02, wethToken, tokenB, 500, 0, priceEven)

	cfg := testConfig(ModeDeep)
	cfg.GasPriceWei = big.NewInt(10_000_000_000) // 10 gwei

	report := runDeep(t, cfg, []*pool.Snapshot{buy, sell})
	best := report.Best()
	require.NotNil(t, best)

	assert.True(t, best.GasApplied)
	require.NotNil(t, best.GasCostToken0)
	assert.Zero(t, best.GasCostToken0.Cmp(big.NewInt(3_200_000_000_000_000)))

	expected := new(big.Int).Sub(best.FinalAmount, best.AmountIn)
	expected.Sub(expected, best.GasCostToken0)
	assert.Zero(t, best.Surplus.Cmp(expected))
}

func TestDeep_InvalidPoolExcluded(t *testing.T) {
	good := richPool(0x01, tokenA, tokenB, 500, 0, priceEven)
	bad := richPool(0x02, tokenA, tokenB, 500, 0, priceEven)
	bad.Liquidity = nil

	report := runDeep(t, testConfig(ModeDeep), []*pool.Snapshot{good, bad})

	assert.Empty(t, report.Opportunities)
	require.Len(t, report.Excluded, 1)
	assert.Equal(t, bad.Address, report.Excluded[0].Address)
	assert.Equal(t, ReasonInvalidPoolState, report.Excluded[0].Reason)
	assert.NotEmpty(t, report.Excluded[0].Detail)
}

func TestDeep_MismatchedPairsIgnored(t *testing.T) {
	ab := richPool(0x01, tokenA, tokenB, 500, 0, priceEven)
	ac := richPool(0x02, tokenA, tokenC, 500, 0, priceEven)

	report := runDeep(t, testConfig(ModeDeep), []*pool.Snapshot{ab, ac})

	assert.Empty(t, report.Opportunities)
	assert.Empty(t, report.Excluded)
}

func TestDeep_Deterministic(t *testing.T) {
	run := func() *Report {
		buy := richPool(0x01, tokenA, tokenB, 500, 4463, priceHigh)
		sell := richPool(0x02, tokenA, tokenB, 500, 0, priceEven)
		return runDeep(t, testConfig(ModeDeep), []*pool.Snapshot{buy, sell})
	}
	first, second := run(), run()

	assert.NotEqual(t, first.RunID, second.RunID)
	require.Equal(t, len(first.Opportunities), len(second.Opportunities))
	for i := range first.Opportunities {
		a, b := first.Opportunities[i], second.Opportunities[i]
		assert.Equal(t, a.BuyPool, b.BuyPool)
		assert.Equal(t, a.SellPool, b.SellPool)
		assert.Equal(t, a.Executable, b.Executable)
		assert.Equal(t, a.Reason, b.Reason)
		assert.Equal(t, a.TotalTicksCrossed(), b.TotalTicksCrossed())
		require.NotNil(t, a.Surplus)
		require.NotNil(t, b.Surplus)
		assert.Zero(t, a.Surplus.Cmp(b.Surplus))
	}
}

func TestDeep_ContextCanceled(t *testing.T) {
	buy := richPool(0x01, tokenA, tokenB, 500, 4463, priceHigh)
	sell := richPool(0x02, tokenA, tokenB, 500, 0, priceEven)

	ev, err := New(testConfig(ModeDeep))
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err = ev.Evaluate(ctx, []*pool.Snapshot{buy, sell})
	require.Error(t, err)
	assert.ErrorIs(t, err, context.Canceled)
}
