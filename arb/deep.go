package arb

import (
	"context"
	"math/big"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"golang.org/x/sync/errgroup"

	"github.com/tickwalk/tickwalk-go/calculator"
	"github.com/tickwalk/tickwalk-go/pool"
	"github.com/tickwalk/tickwalk-go/scanner"
)

// DeepEvaluator replays both legs of every candidate route tick by tick.
// Every ordered (buy, sell) pair of same-pair snapshots is evaluated, so the
// profitable orientation of a spread surfaces on its own and the reverse
// orientation is reported as unprofitable for audit.
type DeepEvaluator struct {
	cfg     Config
	metrics *Metrics
	logger  Logger
}

func (e *DeepEvaluator) Evaluate(ctx context.Context, snaps []*pool.Snapshot) (*Report, error) {
	timer := prometheus.NewTimer(e.metrics.evalDuration.WithLabelValues(string(ModeDeep)))
	defer timer.ObserveDuration()
	e.metrics.evaluations.WithLabelValues(string(ModeDeep)).Inc()

	valid, excluded := splitValid(snaps, e.logger)
	e.metrics.excludedPools.Add(float64(len(excluded)))

	type orderedPair struct {
		buy, sell *pool.Snapshot
	}
	var pairs []orderedPair
	for i, buy := range valid {
		for j, sell := range valid {
			if i == j || buy.PairKey() != sell.PairKey() {
				continue
			}
			pairs = append(pairs, orderedPair{buy: buy, sell: sell})
		}
	}

	// Pairs share no mutable state, so each one runs as its own task and
	// writes only its own result slot.
	results := make([]*Opportunity, len(pairs))
	g, gctx := errgroup.WithContext(ctx)
	for i, p := range pairs {
		i, p := i, p
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			results[i] = e.evaluatePair(p.buy, p.sell)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	for _, opp := range results {
		e.metrics.opportunities.WithLabelValues(string(ModeDeep), strconv.FormatBool(opp.Executable)).Inc()
		e.metrics.ticksCrossed.Observe(float64(opp.TotalTicksCrossed()))
	}
	sortOpportunities(results)

	return &Report{
		RunID:         uuid.New().String(),
		Mode:          ModeDeep,
		CreatedAt:     time.Now().UTC(),
		Assumptions:   e.cfg.assumptions(),
		Opportunities: results,
		Excluded:      excluded,
	}, nil
}

// evaluatePair runs the two-leg route and applies the cost assumptions.
// Failures never propagate as errors; they land in the opportunity record
// as a reason code.
func (e *DeepEvaluator) evaluatePair(buy, sell *pool.Snapshot) *Opportunity {
	opp := &Opportunity{
		Token0:        buy.Token0,
		Token1:        buy.Token1,
		BuyPool:       buy.Address,
		SellPool:      sell.Address,
		BuyFee:        buy.Fee,
		SellFee:       sell.Fee,
		BuySpotPrice:  buy.SpotPriceToken1PerToken0(),
		SellSpotPrice: sell.SpotPriceToken1PerToken0(),
		AmountIn:      pool.RawAmount(e.cfg.TradeSize, buy.Token0.Decimals),
	}

	buyLeg, err := e.simulate(buy, true, opp.AmountIn)
	if err != nil {
		e.logger.Warn("buy leg rejected", "pool", buy.Address, "err", err)
		opp.Reason = ReasonInvalidPoolState
		return opp
	}
	opp.BuyLeg = buyLeg
	if buyLeg.Incomplete {
		opp.Reason = buyLeg.Reason
		return opp
	}
	if buyLeg.AmountOut.Sign() == 0 {
		opp.Reason = calculator.ReasonZeroOutput
		return opp
	}

	sellLeg, err := e.simulate(sell, false, buyLeg.AmountOut)
	if err != nil {
		e.logger.Warn("sell leg rejected", "pool", sell.Address, "err", err)
		opp.Reason = ReasonInvalidPoolState
		return opp
	}
	opp.SellLeg = sellLeg
	if sellLeg.Incomplete {
		opp.Reason = sellLeg.Reason
		return opp
	}
	if sellLeg.AmountOut.Sign() == 0 {
		opp.Reason = calculator.ReasonZeroOutput
		return opp
	}

	opp.FinalAmount = sellLeg.AmountOut
	surplus := new(big.Int).Sub(opp.FinalAmount, opp.AmountIn)
	if cost, ok := gasCostToken0(&sell.State, e.cfg.WETH, e.cfg.gasWei()); ok {
		opp.GasCostToken0 = cost
		opp.GasApplied = true
		surplus.Sub(surplus, cost)
	}
	opp.Surplus = surplus

	if surplus.Sign() > 0 {
		opp.Executable = true
	} else {
		opp.Reason = ReasonUnprofitable
	}
	return opp
}

// simulate runs one leg against a snapshot. The scan direction follows the
// trade: token0 in walks the price down, token1 in walks it up.
func (e *DeepEvaluator) simulate(snap *pool.Snapshot, zeroForOne bool, amountIn *big.Int) (*calculator.LegResult, error) {
	sc, err := scanner.New(snap, e.cfg.Window)
	if err != nil {
		return nil, err
	}
	var frontier scanner.Frontier
	if zeroForOne {
		frontier = sc.Descending()
	} else {
		frontier = sc.Ascending()
	}
	return calculator.SimulateLeg(snap.State, frontier, zeroForOne, amountIn, e.cfg.MaxCross)
}
