package arb

import (
	"context"
	"sort"
	"strconv"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/shopspring/decimal"

	"github.com/tickwalk/tickwalk-go/pool"
)

var (
	bpsScale   = decimal.NewFromInt(10_000)
	ppmPerBps  = decimal.NewFromInt(100)
	screenPrec = int32(8)
)

// FastScreener ranks candidate routes from spot prices alone, without any
// tick simulation. Rows carry spread arithmetic in basis points and a flat
// gas allowance over the assumed trade size; none of them ever claims to be
// executable. The screen exists to order pairs for a deep run.
type FastScreener struct {
	cfg     Config
	metrics *Metrics
	logger  Logger
}

func (s *FastScreener) Evaluate(ctx context.Context, snaps []*pool.Snapshot) (*Report, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	timer := prometheus.NewTimer(s.metrics.evalDuration.WithLabelValues(string(ModeFast)))
	defer timer.ObserveDuration()
	s.metrics.evaluations.WithLabelValues(string(ModeFast)).Inc()

	valid, excluded := splitValid(snaps, s.logger)
	s.metrics.excludedPools.Add(float64(len(excluded)))

	groups := make(map[[2]common.Address][]*pool.Snapshot)
	for _, snap := range valid {
		key := snap.PairKey()
		groups[key] = append(groups[key], snap)
	}

	var rows []*Opportunity
	for _, group := range groups {
		if len(group) < 2 {
			continue
		}
		for i := 0; i < len(group); i++ {
			for j := i + 1; j < len(group); j++ {
				if row := s.screenPair(group[i], group[j]); row != nil {
					rows = append(rows, row)
				}
			}
		}
	}

	sort.SliceStable(rows, func(i, j int) bool {
		return rows[i].Screen.NetBps.GreaterThan(rows[j].Screen.NetBps)
	})
	if len(rows) > s.cfg.TopN {
		rows = rows[:s.cfg.TopN]
	}
	for _, row := range rows {
		s.metrics.opportunities.WithLabelValues(string(ModeFast), strconv.FormatBool(row.Executable)).Inc()
	}

	return &Report{
		RunID:         uuid.New().String(),
		Mode:          ModeFast,
		CreatedAt:     time.Now().UTC(),
		Assumptions:   s.cfg.assumptions(),
		Opportunities: rows,
		Excluded:      excluded,
	}, nil
}

// screenPair orients one unordered pair by value flow: the buy leg sells
// token0 where it fetches the most token1, the sell leg buys it back where
// it is cheapest. Pairs with no positive gross spread produce no row.
func (s *FastScreener) screenPair(a, b *pool.Snapshot) *Opportunity {
	buy, sell := a, b
	buyPrice, sellPrice := a.SpotPriceToken1PerToken0(), b.SpotPriceToken1PerToken0()
	if buyPrice.LessThan(sellPrice) {
		buy, sell = b, a
		buyPrice, sellPrice = sellPrice, buyPrice
	}
	if sellPrice.Sign() <= 0 {
		return nil
	}

	grossBps := buyPrice.Sub(sellPrice).DivRound(sellPrice, screenPrec+4).Mul(bpsScale).Round(screenPrec)
	if !grossBps.IsPositive() {
		return nil
	}

	feeBps := decimal.NewFromInt(int64(buy.Fee)).Add(decimal.NewFromInt(int64(sell.Fee))).Div(ppmPerBps)

	gasBps := decimal.Zero
	gasApplied := false
	row := &Opportunity{
		Token0:        buy.Token0,
		Token1:        buy.Token1,
		BuyPool:       buy.Address,
		SellPool:      sell.Address,
		BuyFee:        buy.Fee,
		SellFee:       sell.Fee,
		BuySpotPrice:  buyPrice,
		SellSpotPrice: sellPrice,
		Reason:        ReasonNotSimulated,
	}
	if cost, ok := gasCostToken0(&sell.State, s.cfg.WETH, s.cfg.gasWei()); ok {
		gasApplied = true
		row.GasCostToken0 = cost
		gasBps = pool.HumanAmount(cost, buy.Token0.Decimals).
			DivRound(s.cfg.TradeSize, screenPrec+4).Mul(bpsScale).Round(screenPrec)
	}
	row.GasApplied = gasApplied
	row.Screen = &ScreenStats{
		GrossBps: grossBps,
		FeeBps:   feeBps,
		GasBps:   gasBps,
		NetBps:   grossBps.Sub(feeBps).Sub(gasBps),
	}
	return row
}
