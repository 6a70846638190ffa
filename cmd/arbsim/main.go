package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/ethereum/go-ethereum/common"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/tickwalk/tickwalk-go/arb"
	"github.com/tickwalk/tickwalk-go/cmd/arbsim/config"
	"github.com/tickwalk/tickwalk-go/collector"
	"github.com/tickwalk/tickwalk-go/pool"
)

func main() {
	// The report goes to stdout, so logs go to stderr.
	rootLogHandler := slog.NewJSONHandler(os.Stderr, nil)
	close := func() {
		os.Exit(1)
	}

	rootLogger := slog.New(rootLogHandler)
	prometheusRegistry := prometheus.DefaultRegisterer

	configPath := flag.String("config", "", "Path to the yaml configuration file. Empty uses built-in defaults.")
	snapshotPath := flag.String("snapshot", "", "Replay pool snapshots from this JSON file instead of collecting over RPC.")
	savePath := flag.String("save", "", "Write the collected snapshots to this JSON file for later replay.")
	flag.Parse()

	cfg, err := loadConfig(*configPath)
	if err != nil {
		rootLogger.Error("Failed to load configuration", "error", err)
		close()
	}

	// Create a context that cancels when the OS sends an interrupt (Ctrl+C) or termination signal.
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var snaps []*pool.Snapshot
	if *snapshotPath != "" {
		snaps, err = pool.ReadSnapshots(*snapshotPath)
		if err != nil {
			rootLogger.Error("Failed to read snapshot file", "path", *snapshotPath, "error", err)
			close()
		}
	} else {
		snaps, err = collect(ctx, rootLogger, prometheusRegistry, cfg)
		if err != nil {
			rootLogger.Error("Failed to collect pool snapshots", "error", err)
			close()
		}
	}
	if len(snaps) == 0 {
		rootLogger.Error("No pool snapshots to evaluate")
		close()
	}

	if *savePath != "" {
		if err := pool.WriteSnapshots(*savePath, snaps); err != nil {
			rootLogger.Error("Failed to save snapshots", "path", *savePath, "error", err)
			close()
		}
		rootLogger.Info("snapshots saved", "path", *savePath, "pools", len(snaps))
	}

	evaluator, err := arb.New(&arb.Config{
		Mode:        cfg.Mode,
		TradeSize:   cfg.TradeSize,
		Window:      cfg.Window,
		MaxCross:    cfg.MaxCross,
		GasUnits:    cfg.GasUnits,
		GasPriceWei: cfg.GasPriceWei,
		TopN:        cfg.TopN,
		WETH:        cfg.WETH,
		Registry:    prometheusRegistry,
		Logger:      rootLogger.With("component", "arb"),
	})
	if err != nil {
		rootLogger.Error("Failed to initialize evaluator", "error", err)
		close()
	}

	report, err := evaluator.Evaluate(ctx, snaps)
	if err != nil {
		rootLogger.Error("Evaluation failed", "error", err)
		close()
	}

	encoder := json.NewEncoder(os.Stdout)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(report); err != nil {
		rootLogger.Error("Failed to encode report", "error", err)
		close()
	}

	logArgs := []any{
		"runId", report.RunID,
		"mode", report.Mode,
		"pools", len(snaps),
		"opportunities", len(report.Opportunities),
	}
	if best := report.Best(); best != nil {
		logArgs = append(logArgs, "bestSurplus", best.Surplus.String())
	}
	rootLogger.Info("evaluation complete", logArgs...)
}

// collect dials the configured node and snapshots every fee tier of the
// configured pair. An unconfigured gas price is resolved from the same
// node so the gas charge tracks the chain. Replay runs never reach this
// path and charge no gas unless the file pins a price.
func collect(ctx context.Context, logger *slog.Logger, reg prometheus.Registerer, cfg *config.Runtime) ([]*pool.Snapshot, error) {
	if cfg.RPCURL == "" {
		return nil, errors.New("config: rpc_url is required unless -snapshot is given")
	}
	if cfg.TokenA == (common.Address{}) || cfg.TokenB == (common.Address{}) {
		return nil, errors.New("config: token_a and token_b are required unless -snapshot is given")
	}

	opts := []collector.Option{
		collector.WithRetry(cfg.RetryAttempts, cfg.RetryDelay),
	}
	if cfg.Factory != (common.Address{}) {
		opts = append(opts, collector.WithFactory(cfg.Factory))
	}
	if len(cfg.FeeTiers) > 0 {
		opts = append(opts, collector.WithFeeTiers(cfg.FeeTiers...))
	}

	coll, err := collector.Dial(ctx, cfg.RPCURL, logger.With("component", "collector"), reg, opts...)
	if err != nil {
		return nil, err
	}
	defer coll.Close()

	if cfg.GasPriceWei == nil {
		cfg.GasPriceWei = coll.GasPrice(ctx)
		logger.Info("gas price resolved from node", "wei", cfg.GasPriceWei.String())
	}

	return coll.CollectPair(ctx, cfg.TokenA, cfg.TokenB, cfg.Window)
}

func loadConfig(path string) (*config.Runtime, error) {
	if path != "" {
		log.Printf("Loading configuration from: %s", path)
	}
	return config.Load(path)
}
