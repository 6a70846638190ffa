// Package arb judges whether a cross-pool price spread on a shared trading
// pair is worth acting on. Two evaluation paths sit behind one interface: a
// fast spot-price screen that ranks candidates cheaply, and a deep mode that
// replays both legs of the route tick by tick against pool snapshots. Deep
// evaluation cost is data dependent and can be large on sparse or adversarial
// tick layouts; callers bound it through the scan window and the crossing cap.
package arb

import (
	"context"
	"errors"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/shopspring/decimal"

	"github.com/tickwalk/tickwalk-go/pool"
	"github.com/tickwalk/tickwalk-go/scanner"
)

// Mode selects an evaluation path.
type Mode string

const (
	ModeFast Mode = "fast"
	ModeDeep Mode = "deep"
)

// WETHAddress is the canonical mainnet wrapped-ether contract. Gas cost can
// only be charged in token0 units when the traded pair has a WETH side.
var WETHAddress = common.HexToAddress("0xC02aaA39b223FE8D0A0e5C4F27eAD9083C756Cc2")

const defaultTopN = 25

// Config holds the parameters and dependencies of an evaluation run.
type Config struct {
	Mode Mode

	// TradeSize is the nominal size in human token0 units; each pair
	// converts it to raw units through its own token0 decimals.
	TradeSize decimal.Decimal

	Window   scanner.Window
	MaxCross int

	GasUnits    uint64
	GasPriceWei *big.Int

	// TopN bounds the fast-screen row count. Zero means the default of 25.
	TopN int

	// WETH overrides the wrapped-ether address used for gas conversion.
	WETH common.Address

	Registry prometheus.Registerer // Required for metrics.
	Logger   Logger                // Required for logging.
}

// validate checks if the configuration is valid, ensuring required
// dependencies are present.
func (c *Config) validate() error {
	switch c.Mode {
	case ModeFast, ModeDeep:
	default:
		return fmt.Errorf("config: unknown mode %q", c.Mode)
	}
	if !c.TradeSize.IsPositive() {
		return errors.New("config: trade size must be positive")
	}
	if c.MaxCross < 0 {
		return errors.New("config: max crossed ticks cannot be negative")
	}
	if c.GasPriceWei != nil && c.GasPriceWei.Sign() < 0 {
		return errors.New("config: gas price cannot be negative")
	}
	if c.TopN < 0 {
		return errors.New("config: top-N cannot be negative")
	}
	if c.Registry == nil {
		return errors.New("config: Registry cannot be nil")
	}
	if c.Logger == nil {
		return errors.New("config: Logger cannot be nil")
	}
	return nil
}

func (c *Config) assumptions() Assumptions {
	return Assumptions{
		TradeSize:   c.TradeSize,
		GasUnits:    c.GasUnits,
		GasPriceWei: new(big.Int).Set(c.GasPriceWei),
		MaxCross:    c.MaxCross,
		Window:      c.Window,
	}
}

// Evaluator judges a set of same-pair pool snapshots and produces a Report.
// Snapshots are treated as immutable for the duration of one call; pairs of
// distinct logical pairs in the input are ignored rather than compared.
type Evaluator interface {
	Evaluate(ctx context.Context, snaps []*pool.Snapshot) (*Report, error)
}

// New constructs the evaluator for the configured mode, returning an error
// if the config is invalid.
func New(cfg *Config) (Evaluator, error) {
	if err := cfg.validate(); err != nil {
		return nil, err
	}

	resolved := *cfg
	if resolved.TopN == 0 {
		resolved.TopN = defaultTopN
	}
	if resolved.WETH == (common.Address{}) {
		resolved.WETH = WETHAddress
	}
	if resolved.GasPriceWei == nil {
		resolved.GasPriceWei = new(big.Int)
	} else {
		resolved.GasPriceWei = new(big.Int).Set(cfg.GasPriceWei)
	}

	metrics := NewMetrics(resolved.Registry)
	switch resolved.Mode {
	case ModeDeep:
		return &DeepEvaluator{cfg: resolved, metrics: metrics, logger: resolved.Logger}, nil
	default:
		return &FastScreener{cfg: resolved, metrics: metrics, logger: resolved.Logger}, nil
	}
}

// splitValid partitions snapshots into usable ones and exclusion records.
// Order among the usable snapshots is preserved.
func splitValid(snaps []*pool.Snapshot, logger Logger) ([]*pool.Snapshot, []ExcludedPool) {
	valid := make([]*pool.Snapshot, 0, len(snaps))
	var excluded []ExcludedPool
	for _, snap := range snaps {
		if err := snap.Validate(); err != nil {
			logger.Warn("pool excluded from run", "pool", snap.Address, "err", err)
			excluded = append(excluded, ExcludedPool{
				Address: snap.Address,
				Reason:  ReasonInvalidPoolState,
				Detail:  err.Error(),
			})
			continue
		}
		valid = append(valid, snap)
	}
	return valid, excluded
}
