// Package collector fetches point-in-time pool observations from an
// Ethereum node: factory lookups, scalar pool state, token metadata and
// the tick bitmap window around the current price. It produces the
// snapshots the evaluator consumes and is the only package that talks to
// a node; nothing in the simulation core imports it.
package collector

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"time"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/ethclient"
	"github.com/prometheus/client_golang/prometheus"
)

// Logger is the minimal structured logging surface the collector needs.
// *slog.Logger satisfies it.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

// ContractCaller is the slice of the Ethereum client the collector uses.
// *ethclient.Client satisfies it.
type ContractCaller interface {
	CallContract(ctx context.Context, msg ethereum.CallMsg, blockNumber *big.Int) ([]byte, error)
}

// GasPriceSuggester is the optional node surface behind GasPrice.
// *ethclient.Client satisfies it; callers wrapping a bare ContractCaller
// get the default instead.
type GasPriceSuggester interface {
	SuggestGasPrice(ctx context.Context) (*big.Int, error)
}

// DefaultGasPriceWei stands in when the node has no usable gas price
// suggestion, 30 gwei.
var DefaultGasPriceWei = big.NewInt(30_000_000_000)

// DefaultFactory is the Uniswap V3 factory on Ethereum mainnet. Other
// deployments must be configured explicitly via WithFactory.
var DefaultFactory = common.HexToAddress("0x1F98431c8aD98523631AE4a59f267346ea31F984")

// DefaultFeeTiers are the fee tiers probed by PoolsForPair, in pips.
var DefaultFeeTiers = []uint64{500, 3000, 10000}

const (
	defaultRetryAttempts = 3
	defaultRetryDelay    = 500 * time.Millisecond
)

// Client issues read-only contract calls with bounded retry. All calls are
// against the latest block; one collection is a best-effort point-in-time
// observation, not an atomic multi-call.
type Client struct {
	caller  ContractCaller
	closeFn func()
	logger  Logger
	metrics *Metrics

	factory       common.Address
	feeTiers      []uint64
	retryAttempts int
	retryDelay    time.Duration
}

// Option configures the Client.
// The interface method is unexported to prevent external modification after Dial.
type Option interface {
	apply(*Client)
}

type funcOption func(*Client)

func (f funcOption) apply(c *Client) {
	f(c)
}

func newOption(f func(*Client)) Option {
	return funcOption(f)
}

// WithFactory overrides the pool factory address.
func WithFactory(addr common.Address) Option {
	return newOption(func(c *Client) {
		c.factory = addr
	})
}

// WithFeeTiers overrides the fee tiers probed per pair.
func WithFeeTiers(tiers ...uint64) Option {
	return newOption(func(c *Client) {
		c.feeTiers = tiers
	})
}

// WithRetry overrides the per-call retry policy.
func WithRetry(attempts int, delay time.Duration) Option {
	return newOption(func(c *Client) {
		c.retryAttempts = attempts
		c.retryDelay = delay
	})
}

// Dial connects to the node at url and probes its chain ID. The returned
// Client holds the connection until Close.
func Dial(ctx context.Context, url string, logger Logger, reg prometheus.Registerer, opts ...Option) (*Client, error) {
	if url == "" {
		return nil, errors.New("config: rpc url cannot be empty")
	}
	ec, err := ethclient.DialContext(ctx, url)
	if err != nil {
		return nil, fmt.Errorf("dial %s: %w", url, err)
	}
	c, err := New(ec, logger, reg, opts...)
	if err != nil {
		ec.Close()
		return nil, err
	}
	c.closeFn = ec.Close

	chainID, err := ec.ChainID(ctx)
	if err != nil {
		ec.Close()
		return nil, fmt.Errorf("chain id probe: %w", err)
	}
	logger.Info("collector connected", "url", url, "chainId", chainID)
	return c, nil
}

// New wraps an existing caller. Dial is the usual entry point; New exists
// for callers that manage their own connection.
func New(caller ContractCaller, logger Logger, reg prometheus.Registerer, opts ...Option) (*Client, error) {
	if caller == nil {
		return nil, errors.New("config: contract caller cannot be nil")
	}
	if logger == nil {
		return nil, errors.New("config: logger cannot be nil")
	}
	if reg == nil {
		return nil, errors.New("config: prometheus registry cannot be nil")
	}

	c := &Client{
		caller:        caller,
		logger:        logger,
		metrics:       NewMetrics(reg),
		factory:       DefaultFactory,
		feeTiers:      append([]uint64(nil), DefaultFeeTiers...),
		retryAttempts: defaultRetryAttempts,
		retryDelay:    defaultRetryDelay,
	}
	for _, opt := range opts {
		opt.apply(c)
	}
	if c.retryAttempts < 1 {
		c.retryAttempts = 1
	}
	return c, nil
}

// Close releases the underlying connection, when the Client owns one.
func (c *Client) Close() {
	if c.closeFn != nil {
		c.closeFn()
	}
}

// GasPrice returns the node's current gas price suggestion in wei. Nodes
// that cannot be asked, and queries that fail or answer non-positive, fall
// back to DefaultGasPriceWei, so the caller always gets a usable price.
func (c *Client) GasPrice(ctx context.Context) *big.Int {
	if suggester, ok := c.caller.(GasPriceSuggester); ok {
		timer := prometheus.NewTimer(c.metrics.rpcDuration.WithLabelValues("gasPrice"))
		price, err := suggester.SuggestGasPrice(ctx)
		timer.ObserveDuration()
		c.metrics.rpcCalls.WithLabelValues("gasPrice").Inc()
		if err == nil && price != nil && price.Sign() > 0 {
			return price
		}
		c.logger.Warn("gas price query failed, using default", "defaultWei", DefaultGasPriceWei.String(), "err", err)
	}
	return new(big.Int).Set(DefaultGasPriceWei)
}

// call packs, executes and unpacks one contract call, retrying transient
// failures up to the configured attempt count.
func (c *Client) call(ctx context.Context, to common.Address, contract *abi.ABI, method string, args ...any) ([]any, error) {
	data, err := contract.Pack(method, args...)
	if err != nil {
		return nil, fmt.Errorf("pack %s: %w", method, err)
	}
	msg := ethereum.CallMsg{To: &to, Data: data}

	var out []byte
	for attempt := 1; ; attempt++ {
		timer := prometheus.NewTimer(c.metrics.rpcDuration.WithLabelValues(method))
		out, err = c.caller.CallContract(ctx, msg, nil)
		timer.ObserveDuration()
		c.metrics.rpcCalls.WithLabelValues(method).Inc()
		if err == nil {
			break
		}
		if attempt >= c.retryAttempts || ctx.Err() != nil {
			return nil, fmt.Errorf("call %s on %s after %d attempts: %w", method, to, attempt, err)
		}
		c.metrics.rpcRetries.Inc()
		c.logger.Warn("contract call failed, retrying", "method", method, "to", to, "attempt", attempt, "err", err)
		select {
		case <-time.After(c.retryDelay):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	return contract.Unpack(method, out)
}
