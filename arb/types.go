package arb

import (
	"math/big"
	"sort"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/shopspring/decimal"

	"github.com/tickwalk/tickwalk-go/calculator"
	"github.com/tickwalk/tickwalk-go/pool"
	"github.com/tickwalk/tickwalk-go/scanner"
)

// Logger defines a standard interface for structured, leveled logging.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

const (
	// ReasonInvalidPoolState marks a snapshot rejected by validation, or a
	// leg the simulator refused to run. The pool sits out the run; other
	// pools are unaffected.
	ReasonInvalidPoolState calculator.Reason = "invalid_pool_state"

	// ReasonUnprofitable marks a route whose round trip completed but did
	// not beat the configured cost assumptions.
	ReasonUnprofitable calculator.Reason = "unprofitable"

	// ReasonNotSimulated marks fast-screen rows. The screen ranks
	// candidates from spot prices alone and defers judgment to a deep run.
	ReasonNotSimulated calculator.Reason = "not_simulated"
)

// Assumptions records the size and cost parameters a run was evaluated
// under. Downstream consumers need them to audit any verdict.
type Assumptions struct {
	TradeSize   decimal.Decimal `json:"tradeSize"`
	GasUnits    uint64          `json:"gasUnits"`
	GasPriceWei *big.Int        `json:"gasPriceWei"`
	MaxCross    int             `json:"maxCross"`
	Window      scanner.Window  `json:"window"`
}

// ScreenStats carries the fast-screen spread arithmetic, in basis points
// over the buy-side spot price. Deep evaluations leave it nil.
type ScreenStats struct {
	GrossBps decimal.Decimal `json:"grossBps"`
	FeeBps   decimal.Decimal `json:"feeBps"`
	GasBps   decimal.Decimal `json:"gasBps"`
	NetBps   decimal.Decimal `json:"netBps"`
}

// Opportunity is the outcome of judging one ordered (buy, sell) pool pair.
// The buy leg swaps token0 into token1 on BuyPool; the sell leg swaps the
// proceeds back into token0 on SellPool. Immutable once produced.
type Opportunity struct {
	Token0 pool.Token `json:"token0"`
	Token1 pool.Token `json:"token1"`

	BuyPool  common.Address `json:"buyPool"`
	SellPool common.Address `json:"sellPool"`
	BuyFee   uint64         `json:"buyFee"`
	SellFee  uint64         `json:"sellFee"`

	// Spot prices are token1 per token0, reference only.
	BuySpotPrice  decimal.Decimal `json:"buySpotPrice"`
	SellSpotPrice decimal.Decimal `json:"sellSpotPrice"`

	BuyLeg  *calculator.LegResult `json:"buyLeg,omitempty"`
	SellLeg *calculator.LegResult `json:"sellLeg,omitempty"`

	// AmountIn is the nominal trade size in raw token0 units; FinalAmount
	// is the raw token0 the sell leg returned.
	AmountIn    *big.Int `json:"amountIn,omitempty"`
	FinalAmount *big.Int `json:"finalAmount,omitempty"`

	// GasCostToken0 is the gas assumption expressed in raw token0 units.
	// It is only set, and only charged, when the pair has a wrapped-ether
	// side to convert through; GasApplied records which case held.
	GasCostToken0 *big.Int `json:"gasCostToken0,omitempty"`
	GasApplied    bool     `json:"gasApplied"`

	// Surplus is FinalAmount minus AmountIn minus any applied gas cost.
	Surplus *big.Int `json:"surplus,omitempty"`

	Executable bool              `json:"executable"`
	Reason     calculator.Reason `json:"reason,omitempty"`

	Screen *ScreenStats `json:"screen,omitempty"`
}

// TotalTicksCrossed sums the crossing counters of both legs.
func (o *Opportunity) TotalTicksCrossed() int {
	total := 0
	if o.BuyLeg != nil {
		total += o.BuyLeg.TicksCrossed
	}
	if o.SellLeg != nil {
		total += o.SellLeg.TicksCrossed
	}
	return total
}

// ExcludedPool records a snapshot rejected before any simulation ran.
type ExcludedPool struct {
	Address common.Address    `json:"address"`
	Reason  calculator.Reason `json:"reason"`
	Detail  string            `json:"detail"`
}

// Report is the full outcome of one evaluation run.
type Report struct {
	RunID         string         `json:"runId"`
	Mode          Mode           `json:"mode"`
	CreatedAt     time.Time      `json:"createdAt"`
	Assumptions   Assumptions    `json:"assumptions"`
	Opportunities []*Opportunity `json:"opportunities"`
	Excluded      []ExcludedPool `json:"excluded,omitempty"`
}

// Best reduces the report to its highest-ranked executable opportunity,
// or nil when none is executable.
func (r *Report) Best() *Opportunity {
	var best *Opportunity
	for _, opp := range r.Opportunities {
		if !opp.Executable {
			continue
		}
		if best == nil || rankBefore(opp, best) {
			best = opp
		}
	}
	return best
}

// rankBefore orders executable opportunities by surplus descending, ties
// broken by fewer total ticks crossed.
func rankBefore(a, b *Opportunity) bool {
	if c := a.Surplus.Cmp(b.Surplus); c != 0 {
		return c > 0
	}
	return a.TotalTicksCrossed() < b.TotalTicksCrossed()
}

// sortOpportunities moves executable opportunities to the front in rank
// order. Non-executable ones keep their enumeration order behind them.
func sortOpportunities(list []*Opportunity) {
	sort.SliceStable(list, func(i, j int) bool {
		a, b := list[i], list[j]
		if a.Executable != b.Executable {
			return a.Executable
		}
		if a.Executable {
			return rankBefore(a, b)
		}
		return false
	})
}
