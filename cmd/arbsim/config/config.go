// Package config loads the arbsim yaml configuration and resolves it into
// typed runtime parameters. The yaml surface is plain strings and ints;
// address, decimal and big-integer parsing happens here so that a bad
// value fails at startup with a field name instead of deep in a run.
package config

import (
	"fmt"
	"math/big"
	"os"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"

	"github.com/tickwalk/tickwalk-go/arb"
	"github.com/tickwalk/tickwalk-go/pool"
	"github.com/tickwalk/tickwalk-go/scanner"
)

// Config mirrors the yaml file one to one.
type Config struct {
	RPCURL string `yaml:"rpc_url"`
	Mode   string `yaml:"mode"`

	TokenA  string `yaml:"token_a"`
	TokenB  string `yaml:"token_b"`
	Factory string `yaml:"factory"`
	WETH    string `yaml:"weth"`

	FeeTiers []uint64 `yaml:"fee_tiers"`

	TradeSize     string `yaml:"trade_size"`
	MaxCross      int    `yaml:"max_cross"`
	WordsEachSide int    `yaml:"words_each_side"`
	MaxTicks      int    `yaml:"max_ticks"`

	GasUnits    uint64 `yaml:"gas_units"`
	GasPriceWei string `yaml:"gas_price_wei"`
	TopN        int    `yaml:"top_n"`

	RetryAttempts int `yaml:"retry_attempts"`
	RetryDelayMS  int `yaml:"retry_delay_ms"`
}

// Runtime is the resolved configuration: every field parsed, validated
// and in the type the rest of the program consumes.
type Runtime struct {
	RPCURL string
	Mode   arb.Mode

	TokenA  common.Address
	TokenB  common.Address
	Factory common.Address
	WETH    common.Address

	FeeTiers []uint64

	TradeSize decimal.Decimal
	MaxCross  int
	Window    scanner.Window

	GasUnits uint64

	// GasPriceWei is nil when gas_price_wei is unset: collection then asks
	// the node for its suggestion and replay charges no gas. An explicit
	// "0" pins the price to zero in both paths.
	GasPriceWei *big.Int
	TopN        int

	RetryAttempts int
	RetryDelay    time.Duration
}

func defaults() *Config {
	return &Config{
		Mode:          string(arb.ModeDeep),
		TradeSize:     "10000",
		MaxCross:      80,
		WordsEachSide: 8,
		MaxTicks:      1200,
		GasUnits:      320_000,
		RetryAttempts: 3,
		RetryDelayMS:  500,
	}
}

// Load reads the yaml file at path, layers it over the built-in defaults
// and resolves the result. An empty path skips the file and resolves the
// defaults alone, which is enough for snapshot replay.
func Load(path string) (*Runtime, error) {
	cfg := defaults()
	if path != "" {
		raw, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("config: read %s: %w", path, err)
		}
		if err := yaml.Unmarshal(raw, cfg); err != nil {
			return nil, fmt.Errorf("config: parse %s: %w", path, err)
		}
	}
	return cfg.resolve()
}

func (c *Config) resolve() (*Runtime, error) {
	rt := &Runtime{
		RPCURL:   c.RPCURL,
		GasUnits: c.GasUnits,
	}

	switch arb.Mode(c.Mode) {
	case arb.ModeFast, arb.ModeDeep:
		rt.Mode = arb.Mode(c.Mode)
	default:
		return nil, fmt.Errorf("config: unknown mode %q", c.Mode)
	}

	var err error
	if rt.TokenA, err = parseAddress("token_a", c.TokenA); err != nil {
		return nil, err
	}
	if rt.TokenB, err = parseAddress("token_b", c.TokenB); err != nil {
		return nil, err
	}
	if rt.Factory, err = parseAddress("factory", c.Factory); err != nil {
		return nil, err
	}
	if rt.WETH, err = parseAddress("weth", c.WETH); err != nil {
		return nil, err
	}

	for _, tier := range c.FeeTiers {
		if tier == 0 || tier >= pool.FeeDenominator {
			return nil, fmt.Errorf("config: fee tier %d out of range", tier)
		}
	}
	rt.FeeTiers = c.FeeTiers

	rt.TradeSize, err = decimal.NewFromString(c.TradeSize)
	if err != nil || !rt.TradeSize.IsPositive() {
		return nil, fmt.Errorf("config: trade_size must be a positive decimal, got %q", c.TradeSize)
	}

	if c.MaxCross < 0 {
		return nil, fmt.Errorf("config: max_cross cannot be negative")
	}
	rt.MaxCross = c.MaxCross

	if c.WordsEachSide < 0 || c.MaxTicks < 0 {
		return nil, scanner.ErrInvalidWindow
	}
	rt.Window = scanner.Window{WordsEachSide: c.WordsEachSide, MaxTicks: c.MaxTicks}

	if c.GasPriceWei != "" {
		price, ok := new(big.Int).SetString(c.GasPriceWei, 10)
		if !ok || price.Sign() < 0 {
			return nil, fmt.Errorf("config: gas_price_wei must be a non-negative integer, got %q", c.GasPriceWei)
		}
		rt.GasPriceWei = price
	}

	if c.TopN < 0 {
		return nil, fmt.Errorf("config: top_n cannot be negative")
	}
	rt.TopN = c.TopN

	if c.RetryAttempts < 0 {
		return nil, fmt.Errorf("config: retry_attempts cannot be negative")
	}
	rt.RetryAttempts = c.RetryAttempts

	if c.RetryDelayMS < 0 {
		return nil, fmt.Errorf("config: retry_delay_ms cannot be negative")
	}
	rt.RetryDelay = time.Duration(c.RetryDelayMS) * time.Millisecond

	return rt, nil
}

func parseAddress(field, value string) (common.Address, error) {
	if value == "" {
		return common.Address{}, nil
	}
	if !common.IsHexAddress(value) {
		return common.Address{}, fmt.Errorf("config: %s is not a hex address: %q", field, value)
	}
	return common.HexToAddress(value), nil
}
