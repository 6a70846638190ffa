package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"log"
	"log/slog"
	"math/big"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"text/tabwriter"

	"github.com/ethereum/go-ethereum/common"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/shopspring/decimal"

	"github.com/tickwalk/tickwalk-go/arb"
	"github.com/tickwalk/tickwalk-go/calculator"
	"github.com/tickwalk/tickwalk-go/cmd/arbsim/config"
	"github.com/tickwalk/tickwalk-go/pool"
	"github.com/tickwalk/tickwalk-go/profile"
	"github.com/tickwalk/tickwalk-go/scanner"
)

// --- VISUAL CONSTANTS ---
const (
	Reset  = "\033[0m"
	Bold   = "\033[1m"
	Red    = "\033[31m"
	Green  = "\033[32m"
	Yellow = "\033[33m"
	Blue   = "\033[34m"
	Cyan   = "\033[36m"
	Gray   = "\033[37m"
)

// header prints a styled section header
func header(title string) {
	fmt.Println("\n" + Bold + Cyan + ":: " + title + " ::" + Reset)
}

// session holds the loaded snapshots and the assumptions every command
// runs under. The console is single-threaded, so no locking is needed.
type session struct {
	path   string
	snaps  []*pool.Snapshot
	cfg    *config.Runtime
	logger *slog.Logger
}

func (s *session) reload() error {
	snaps, err := pool.ReadSnapshots(s.path)
	if err != nil {
		return err
	}
	s.snaps = snaps
	return nil
}

func main() {
	// --- 1. SETUP LOGGING (To File) ---
	logFile, err := os.OpenFile("console.log", os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0666)
	if err != nil {
		panic(fmt.Sprintf("Failed to open log file: %v", err))
	}
	defer logFile.Close()

	rootLogHandler := slog.NewJSONHandler(logFile, nil)
	rootLogger := slog.New(rootLogHandler)

	closeApp := func() {
		fmt.Println("\n" + Red + "Fatal error occurred. Check console.log for details." + Reset)
		os.Exit(1)
	}

	// --- 2. CONFIG & CONTEXT ---
	snapshotPath := flag.String("snapshot", "snapshots.json", "Path to a snapshot file written by arbsim -save.")
	configPath := flag.String("config", "", "Path to the yaml configuration file. Empty uses built-in defaults.")
	flag.Parse()

	cfg, err := loadConfig(*configPath)
	if err != nil {
		rootLogger.Error("Failed to load configuration", "error", err)
		closeApp()
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// --- 3. LOAD SNAPSHOTS ---
	sess := &session{path: *snapshotPath, cfg: cfg, logger: rootLogger}

	fmt.Println(Green + "Starting Tickwalk Console..." + Reset)
	fmt.Println("Logs are being written to 'console.log'")

	if err := sess.reload(); err != nil {
		rootLogger.Warn("no snapshot file loaded", "path", sess.path, "error", err)
		fmt.Printf(Yellow+"[INFO] Could not load '%s' (%v).\n"+Reset, sess.path, err)
		fmt.Println(Yellow + "       Collect one with: arbsim -config config.yaml -save " + sess.path + Reset)
	} else {
		fmt.Printf(Green+"Loaded %d pool snapshots from '%s'.\n"+Reset, len(sess.snaps), sess.path)
	}

	runConsole(ctx, sess)
}

// runConsole handles user input and display.
func runConsole(ctx context.Context, sess *session) {
	reader := bufio.NewReader(os.Stdin)

	for {
		if ctx.Err() != nil {
			fmt.Println("\n" + Yellow + "Shutting down..." + Reset)
			return
		}

		printMenu()

		fmt.Print(Bold + "Enter selection: " + Reset)
		input, err := reader.ReadString('\n')
		if err != nil {
			fmt.Println("Error reading input:", err)
			return
		}
		input = strings.TrimSpace(input)

		handleCommand(ctx, input, sess, reader)

		fmt.Println("\n" + Gray + "[Press Enter to continue]" + Reset)
		reader.ReadString('\n')
	}
}

func printMenu() {
	fmt.Print("\033[H\033[2J") // Clear screen
	fmt.Println(Bold + "TICKWALK CONSOLE" + Reset + Gray + " | v0.1.0" + Reset)
	fmt.Println(Gray + "-----------------------------------" + Reset)
	fmt.Printf(" %s1.%s Snapshot Summary\n", Cyan, Reset)
	fmt.Printf(" %s2.%s Pool Detail        %s(by # or Address)%s\n", Cyan, Reset, Gray, Reset)
	fmt.Printf(" %s3.%s Liquidity Profile  %s(Segments & Gaps)%s\n", Cyan, Reset, Gray, Reset)
	fmt.Printf(" %s4.%s Range Quote        %s(No Tick Crossing)%s\n", Cyan, Reset, Gray, Reset)
	fmt.Printf(" %s5.%s Simulate Swap      %s(Full Tick Walk)%s\n", Cyan, Reset, Gray, Reset)
	fmt.Printf(" %s6.%s Evaluate Arbitrage %s(Fast/Deep)%s\n", Cyan, Reset, Gray, Reset)
	fmt.Println(Gray + "-----------------------------------" + Reset)
	fmt.Printf(" %sr.%s Reload Snapshot File\n", Yellow, Reset)
	fmt.Printf(" %sh.%s Help / Architecture\n", Yellow, Reset)
	fmt.Printf(" %sq.%s Quit\n", Red, Reset)
	fmt.Println("")
}

func handleCommand(ctx context.Context, input string, sess *session, reader *bufio.Reader) {
	// Allow help, reload and quit even with nothing loaded
	if len(sess.snaps) == 0 && input != "q" && input != "h" && input != "r" {
		fmt.Println("\n" + Yellow + "[INFO] No snapshots loaded. Use 'r' after writing a file with arbsim -save." + Reset)
		return
	}

	switch input {
	case "1":
		printSummary(sess)
	case "2":
		poolDetail(sess, reader)
	case "3":
		liquidityProfile(sess, reader)
	case "4":
		rangeQuote(sess, reader)
	case "5":
		simulateSwap(sess, reader)
	case "6":
		evaluateArbitrage(ctx, sess, reader)
	case "r":
		reloadSnapshots(sess)
	case "h":
		printHelp()
	case "q":
		exitConsole()
	default:
		fmt.Println(Red + "Unknown command." + Reset)
	}
}

// --- COMMAND HANDLERS ---

func printHelp() {
	// Clear screen to make reading the architecture easy
	fmt.Print("\033[H\033[2J")

	header("TICKWALK ARCHITECTURE")
	fmt.Println(Bold + "Concept: Offline Tick-Level Swap Simulation" + Reset)
	fmt.Println("Tickwalk replays concentrated-liquidity swaps against point-in-time pool")
	fmt.Println("snapshots, so routes can be judged without touching a node twice.")
	fmt.Println("")

	fmt.Println(Bold + "1. THE DATA" + Reset)
	fmt.Println("   The root object is a " + Cyan + "Snapshot" + Reset + ", which contains:")
	fmt.Println("   - " + Yellow + "State" + Reset + ": Identity, fee, current tick, sqrt price, active liquidity.")
	fmt.Println("   - " + Yellow + "Ticks" + Reset + ": The initialized ticks around the price, with net liquidity.")
	fmt.Println("   - " + Yellow + "Words" + Reset + ": The raw bitmap words the ticks were discovered from.")
	fmt.Println("   Snapshots come from 'arbsim -save' or any JSON file in the same shape.")
	fmt.Println("")

	fmt.Println(Bold + "2. THE PIPELINE" + Reset)
	fmt.Printf("   A. %sScanner%s\n", Cyan, Reset)
	fmt.Println("      - Walks the bitmap words outward from the current tick.")
	fmt.Println("      - Surfaces initialized ticks in crossing order, bounded by a window.")
	fmt.Println("")
	fmt.Printf("   B. %sCalculator%s\n", Cyan, Reset)
	fmt.Println("      - Runs the swap step engine between tick boundaries.")
	fmt.Println("      - Crosses ticks, applies net liquidity, stops at caps and bounds.")
	fmt.Println("")
	fmt.Printf("   C. %sArb Evaluator%s\n", Cyan, Reset)
	fmt.Println("      - " + Green + "fast" + Reset + ": ranks pool pairs from spot price spreads alone.")
	fmt.Println("      - " + Green + "deep" + Reset + ": replays both legs of every ordered pair tick by tick.")
	fmt.Println("")

	fmt.Println(Bold + "3. THE COMMANDS" + Reset)
	fmt.Println("   (1,2) inspect the loaded snapshots. (3) derives the liquidity profile")
	fmt.Println("   and flags thin ranges. (4) quotes within the current range only.")
	fmt.Println("   (5) runs one full leg. (6) judges every ordered pool pair.")
	fmt.Println("")

	fmt.Println(Gray + "---------------------------------------------------------------" + Reset)
	fmt.Println(Bold + "PURPOSE OF THIS CONSOLE" + Reset)
	fmt.Println("This tool is designed to help you understand the simulation pipeline.")
	fmt.Println("Run the available commands against your own snapshots.")
	fmt.Println(Green + "Goal: " + Reset + "Use these functions as examples to build your own")
	fmt.Println("sizing and routing logic on top of the simulator.")
	fmt.Println(Gray + "---------------------------------------------------------------" + Reset)
}

func printSummary(sess *session) {
	header("SNAPSHOT SUMMARY")
	fmt.Printf("%sFile:%s %s\n\n", Gray, Reset, sess.path)

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 4, ' ', 0)
	fmt.Fprintln(w, "#\tADDRESS\tPAIR\tFEE\tTICK\tSPOT PRICE\tTICKS\tSTATUS\t")
	fmt.Fprintln(w, "-\t-------\t----\t---\t----\t----------\t-----\t------\t")

	invalid := 0
	for i, snap := range sess.snaps {
		status := Green + "OK" + Reset
		if err := snap.Validate(); err != nil {
			status = Red + "INVALID" + Reset
			invalid++
		}

		fmt.Fprintf(w, "%d\t%s\t%s\t%s\t%d\t%s\t%d\t%s\t\n",
			i+1,
			shortAddr(snap.Address),
			pairLabel(snap),
			feePercent(snap.Fee),
			snap.Tick,
			fmtPrice(snap.SpotPriceToken1PerToken0()),
			len(snap.Ticks),
			status,
		)
	}
	w.Flush()

	fmt.Printf("\n%sPools failing validation: %d%s\n", Bold, invalid, Reset)
}

func poolDetail(sess *session, reader *bufio.Reader) {
	fmt.Print("\n" + Bold + "[Pool Detail] Enter pool # or address: " + Reset)
	snap := readPool(sess, reader)
	if snap == nil {
		return
	}

	printField := func(key string, value any) {
		fmt.Printf("  %s%-15s%s %v\n", Gray, key+":", Reset, value)
	}

	header("POOL " + pairLabel(snap))
	printField("Address", snap.Address.Hex())
	printField("Token0", fmt.Sprintf("%s (%d decimals) %s", snap.Token0.Symbol, snap.Token0.Decimals, snap.Token0.Address.Hex()))
	printField("Token1", fmt.Sprintf("%s (%d decimals) %s", snap.Token1.Symbol, snap.Token1.Decimals, snap.Token1.Address.Hex()))
	printField("Fee", fmt.Sprintf("%d pips (%s)", snap.Fee, feePercent(snap.Fee)))
	printField("Tick Spacing", snap.TickSpacing)
	printField("Current Tick", fmt.Sprintf("%s%d%s", Yellow, snap.Tick, Reset))
	printField("SqrtPriceX96", snap.SqrtPriceX96)
	printField("Liquidity", snap.Liquidity)
	printField("Spot 1/0", fmtPrice(snap.SpotPriceToken1PerToken0())+" "+snap.Token1.Symbol)
	printField("Spot 0/1", fmtPrice(snap.SpotPriceToken0PerToken1())+" "+snap.Token0.Symbol)
	printField("Ticks", len(snap.Ticks))
	printField("Bitmap Words", len(snap.Words))

	if r0, r1, err := calculator.VirtualReserves(snap.State); err == nil {
		printField("Virtual R0", fmtAmount(r0, snap.Token0.Decimals)+" "+snap.Token0.Symbol)
		printField("Virtual R1", fmtAmount(r1, snap.Token1.Decimals)+" "+snap.Token1.Symbol)
	}

	sum := profile.Summarize(snap)
	header("TICK NEIGHBORHOOD")
	if sum.NearestBelow != nil {
		printField("Nearest Below", *sum.NearestBelow)
	} else {
		printField("Nearest Below", Gray+"none in snapshot"+Reset)
	}
	if sum.NearestAbove != nil {
		printField("Nearest Above", *sum.NearestAbove)
	} else {
		printField("Nearest Above", Gray+"none in snapshot"+Reset)
	}
	if sum.GapTicks != nil {
		gap := fmt.Sprintf("%d ticks", *sum.GapTicks)
		if sum.GapIsLarge {
			gap += " " + Yellow + "LARGE" + Reset
		}
		printField("Straddling Gap", gap)
	}

	if err := snap.Validate(); err != nil {
		fmt.Printf("\n%s[WARN] Snapshot fails validation: %v%s\n", Red, err, Reset)
	}
}

func liquidityProfile(sess *session, reader *bufio.Reader) {
	fmt.Print("\n" + Bold + "[Liquidity Profile] Enter pool # or address: " + Reset)
	snap := readPool(sess, reader)
	if snap == nil {
		return
	}

	segments := profile.Build(snap, 0)
	if len(segments) == 0 {
		fmt.Println(Yellow + "[INFO] Snapshot has no ticks to derive a profile from." + Reset)
		return
	}
	_, thin := profile.Gaps(segments, nil, profile.DefaultGapPercentile)

	header("LIQUIDITY PROFILE " + pairLabel(snap))

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 4, ' ', 0)
	fmt.Fprintln(w, "TICK RANGE\tPRICE RANGE\tLIQUIDITY\tNOTE\t")
	fmt.Fprintln(w, "----------\t-----------\t---------\t----\t")

	for i, seg := range segments {
		note := ""
		if thin.IsSet(uint64(i)) {
			note = Yellow + "THIN" + Reset
		}
		if seg.TickLower <= snap.Tick && snap.Tick < seg.TickUpper {
			if note != "" {
				note += " "
			}
			note += Cyan + "<- current" + Reset
		}

		fmt.Fprintf(w, "[%d, %d)\t%s .. %s\t%s\t%s\t\n",
			seg.TickLower, seg.TickUpper,
			fmtPrice(seg.PriceLower), fmtPrice(seg.PriceUpper),
			seg.Liquidity.String(),
			note,
		)
	}
	w.Flush()

	fmt.Printf("\n%sSegments: %d | Thin ranges: %d%s\n", Bold, len(segments), thin.Count(), Reset)
}

func rangeQuote(sess *session, reader *bufio.Reader) {
	fmt.Print("\n" + Bold + "[Range Quote] Enter pool # or address: " + Reset)
	snap := readPool(sess, reader)
	if snap == nil {
		return
	}

	zeroForOne, ok := readDirection(snap, reader)
	if !ok {
		return
	}
	tokenIn, tokenOut := legTokens(snap, zeroForOne)

	amount, ok := readAmount(reader, tokenIn)
	if !ok {
		return
	}
	raw := pool.RawAmount(amount, tokenIn.Decimals)

	est, err := profile.EstimateInRange(snap.State, zeroForOne, raw)
	if err != nil {
		fmt.Printf(Red+"[ERROR] Estimate failed: %v%s\n", err, Reset)
		return
	}

	printField := func(key string, value any) {
		fmt.Printf("  %s%-15s%s %v\n", Gray, key+":", Reset, value)
	}

	header("RANGE QUOTE")
	printField("Amount In", fmtAmount(est.AmountInUsed, tokenIn.Decimals)+" "+tokenIn.Symbol)
	printField("Fee Paid", fmtAmount(est.FeeAmount, tokenIn.Decimals)+" "+tokenIn.Symbol)
	printField("Amount Out", fmtAmount(est.AmountOut, tokenOut.Decimals)+" "+tokenOut.Symbol)
	printField("Price Before", fmtPrice(est.PriceBefore))
	printField("Price After", fmtPrice(est.PriceAfter))
	printField("Impact", fmt.Sprintf("%s%s bps%s", Yellow, est.ImpactBps.StringFixed(2), Reset))

	if est.AmountInUsed.Cmp(raw) < 0 {
		fmt.Printf("\n%s[WARN] Only part of the input fits before the protocol price bound.%s\n", Yellow, Reset)
	}
	fmt.Println(Gray + "In-range estimate only. Moves that cross a tick need command 5." + Reset)
}

func simulateSwap(sess *session, reader *bufio.Reader) {
	fmt.Print("\n" + Bold + "[Simulate Swap] Enter pool # or address: " + Reset)
	snap := readPool(sess, reader)
	if snap == nil {
		return
	}

	zeroForOne, ok := readDirection(snap, reader)
	if !ok {
		return
	}
	tokenIn, tokenOut := legTokens(snap, zeroForOne)

	amount, ok := readAmount(reader, tokenIn)
	if !ok {
		return
	}
	raw := pool.RawAmount(amount, tokenIn.Decimals)

	sc, err := scanner.New(snap, sess.cfg.Window)
	if err != nil {
		fmt.Printf(Red+"[ERROR] Scanner rejected the window: %v%s\n", err, Reset)
		return
	}
	frontier := sc.Ascending()
	if zeroForOne {
		frontier = sc.Descending()
	}

	leg, err := calculator.SimulateLeg(snap.State, frontier, zeroForOne, raw, sess.cfg.MaxCross)
	if err != nil {
		fmt.Printf(Red+"[ERROR] Simulation failed: %v%s\n", err, Reset)
		return
	}

	printField := func(key string, value any) {
		fmt.Printf("  %s%-15s%s %v\n", Gray, key+":", Reset, value)
	}

	header("LEG RESULT")
	printField("Requested", fmtAmount(leg.AmountInRequested, tokenIn.Decimals)+" "+tokenIn.Symbol)
	printField("Consumed", fmtAmount(leg.AmountInConsumed, tokenIn.Decimals)+" "+tokenIn.Symbol)
	printField("Left Over", fmtAmount(leg.AmountInLeft, tokenIn.Decimals)+" "+tokenIn.Symbol)
	printField("Amount Out", fmtAmount(leg.AmountOut, tokenOut.Decimals)+" "+tokenOut.Symbol)
	printField("Ticks Crossed", leg.TicksCrossed)
	printField("End Tick", fmt.Sprintf("%s%d%s (from %d)", Yellow, leg.Tick, Reset, snap.Tick))
	printField("End Liquidity", leg.EndLiquidity)

	if leg.Incomplete {
		printField("Complete", fmt.Sprintf("%sNO%s (%s)", Red, Reset, leg.Reason))
	} else {
		printField("Complete", Green+"YES"+Reset)
	}

	if leg.AmountInConsumed.Sign() > 0 && leg.AmountOut.Sign() > 0 {
		effective := pool.HumanAmount(leg.AmountOut, tokenOut.Decimals).
			DivRound(pool.HumanAmount(leg.AmountInConsumed, tokenIn.Decimals), 12)
		printField("Effective Px", fmtPrice(effective)+" "+tokenOut.Symbol+"/"+tokenIn.Symbol)
	}
}

func evaluateArbitrage(ctx context.Context, sess *session, reader *bufio.Reader) {
	fmt.Print("\n" + Bold + "[Evaluate] Mode (fast/deep) [deep]: " + Reset)
	input, _ := reader.ReadString('\n')
	mode := arb.Mode(strings.TrimSpace(input))
	if mode == "" {
		mode = arb.ModeDeep
	}
	if mode != arb.ModeFast && mode != arb.ModeDeep {
		fmt.Println(Red + "Unknown mode. Use 'fast' or 'deep'." + Reset)
		return
	}

	// Each run gets its own registry so repeated constructions in one
	// console session never collide on metric registration.
	evaluator, err := arb.New(&arb.Config{
		Mode:        mode,
		TradeSize:   sess.cfg.TradeSize,
		Window:      sess.cfg.Window,
		MaxCross:    sess.cfg.MaxCross,
		GasUnits:    sess.cfg.GasUnits,
		GasPriceWei: sess.cfg.GasPriceWei,
		TopN:        sess.cfg.TopN,
		WETH:        sess.cfg.WETH,
		Registry:    prometheus.NewRegistry(),
		Logger:      sess.logger.With("component", "arb"),
	})
	if err != nil {
		fmt.Printf(Red+"[ERROR] Failed to initialize evaluator: %v%s\n", err, Reset)
		return
	}

	fmt.Printf("\nEvaluating %d pools at trade size %s (mode: %s)...\n",
		len(sess.snaps), sess.cfg.TradeSize.String(), mode)

	report, err := evaluator.Evaluate(ctx, sess.snaps)
	if err != nil {
		fmt.Printf(Red+"[ERROR] Evaluation failed: %v%s\n", err, Reset)
		return
	}

	printReport(report)
}

func printReport(report *arb.Report) {
	header("EVALUATION REPORT (" + strings.ToUpper(string(report.Mode)) + ")")
	fmt.Printf("%sRun:%s %s\n\n", Gray, Reset, report.RunID)

	if len(report.Opportunities) == 0 {
		fmt.Println(Yellow + "[INFO] No comparable pool pairs in the snapshot set." + Reset)
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 4, ' ', 0)
	if report.Mode == arb.ModeFast {
		fmt.Fprintln(w, "BUY POOL\tSELL POOL\tFEES\tGROSS BPS\tNET BPS\tSTATUS\t")
		fmt.Fprintln(w, "--------\t---------\t----\t---------\t-------\t------\t")
	} else {
		fmt.Fprintln(w, "BUY POOL\tSELL POOL\tFEES\tSURPLUS\tTICKS\tSTATUS\t")
		fmt.Fprintln(w, "--------\t---------\t----\t-------\t-----\t------\t")
	}

	for _, opp := range report.Opportunities {
		fees := feePercent(opp.BuyFee) + "/" + feePercent(opp.SellFee)

		status := Green + "EXECUTABLE" + Reset
		if !opp.Executable {
			status = Gray + string(opp.Reason) + Reset
		}

		if report.Mode == arb.ModeFast && opp.Screen != nil {
			fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\t\n",
				shortAddr(opp.BuyPool), shortAddr(opp.SellPool), fees,
				opp.Screen.GrossBps.StringFixed(2),
				opp.Screen.NetBps.StringFixed(2),
				status,
			)
			continue
		}

		surplus := Gray + "-" + Reset
		if opp.Surplus != nil {
			human := fmtAmount(opp.Surplus, opp.Token0.Decimals) + " " + opp.Token0.Symbol
			if opp.Surplus.Sign() > 0 {
				surplus = Green + human + Reset
			} else {
				surplus = Red + human + Reset
			}
		}

		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%d\t%s\t\n",
			shortAddr(opp.BuyPool), shortAddr(opp.SellPool), fees,
			surplus, opp.TotalTicksCrossed(), status,
		)
	}
	w.Flush()

	for _, ex := range report.Excluded {
		fmt.Printf("%s[EXCLUDED]%s %s: %s\n", Red, Reset, shortAddr(ex.Address), ex.Detail)
	}

	if best := report.Best(); best != nil {
		fmt.Printf("\n%sBest:%s buy %s, sell %s, surplus %s %s\n",
			Bold+Green, Reset,
			shortAddr(best.BuyPool), shortAddr(best.SellPool),
			fmtAmount(best.Surplus, best.Token0.Decimals), best.Token0.Symbol,
		)
		if !best.GasApplied {
			fmt.Println(Gray + "Gas was not charged: the pair has no wrapped-ether side." + Reset)
		}
	} else if report.Mode == arb.ModeDeep {
		fmt.Println("\n" + Yellow + "No executable opportunity at these assumptions." + Reset)
	} else {
		fmt.Println("\n" + Gray + "Fast rows are a ranking only. Re-run in deep mode to judge them." + Reset)
	}
}

func reloadSnapshots(sess *session) {
	if err := sess.reload(); err != nil {
		fmt.Printf(Red+"[ERROR] Reload failed: %v%s\n", err, Reset)
		return
	}
	fmt.Printf(Green+"Loaded %d pool snapshots from '%s'.\n"+Reset, len(sess.snaps), sess.path)
}

// --- HELPERS ---

// readPool resolves user input to a loaded snapshot, accepting the 1-based
// summary index or a pool address.
func readPool(sess *session, reader *bufio.Reader) *pool.Snapshot {
	input, _ := reader.ReadString('\n')
	input = strings.TrimSpace(input)
	if input == "" {
		return nil
	}

	if common.IsHexAddress(input) {
		addr := common.HexToAddress(input)
		for _, snap := range sess.snaps {
			if snap.Address == addr {
				return snap
			}
		}
		fmt.Println(Red + "[NOT FOUND] No loaded snapshot has that address." + Reset)
		return nil
	}

	idx, err := strconv.Atoi(input)
	if err != nil || idx < 1 || idx > len(sess.snaps) {
		fmt.Printf(Red+"[ERROR] Enter a number between 1 and %d, or an address.%s\n", len(sess.snaps), Reset)
		return nil
	}
	return sess.snaps[idx-1]
}

func readDirection(snap *pool.Snapshot, reader *bufio.Reader) (zeroForOne bool, ok bool) {
	fmt.Printf(Bold+"Sell which token? (0 = %s, 1 = %s): "+Reset, snap.Token0.Symbol, snap.Token1.Symbol)
	input, _ := reader.ReadString('\n')
	switch strings.TrimSpace(input) {
	case "0":
		return true, true
	case "1":
		return false, true
	default:
		fmt.Println(Red + "Enter 0 or 1." + Reset)
		return false, false
	}
}

func readAmount(reader *bufio.Reader, tokenIn pool.Token) (decimal.Decimal, bool) {
	fmt.Printf(Bold+"Enter amount of %s to sell (e.g. 1.5): "+Reset, tokenIn.Symbol)
	input, _ := reader.ReadString('\n')
	amount, err := decimal.NewFromString(strings.TrimSpace(input))
	if err != nil || !amount.IsPositive() {
		fmt.Println(Red + "Invalid amount format." + Reset)
		return decimal.Zero, false
	}
	return amount, true
}

func legTokens(snap *pool.Snapshot, zeroForOne bool) (tokenIn, tokenOut pool.Token) {
	if zeroForOne {
		return snap.Token0, snap.Token1
	}
	return snap.Token1, snap.Token0
}

func pairLabel(snap *pool.Snapshot) string {
	return snap.Token0.Symbol + "/" + snap.Token1.Symbol
}

func shortAddr(addr common.Address) string {
	hex := addr.Hex()
	return hex[:10] + ".." + hex[len(hex)-4:]
}

func feePercent(fee uint64) string {
	return fmt.Sprintf("%.2f%%", float64(fee)/10_000)
}

// fmtPrice renders display prices compactly across magnitudes. Exact
// values stay in the report JSON; the console only needs a readable line.
func fmtPrice(d decimal.Decimal) string {
	return fmt.Sprintf("%.6g", d.InexactFloat64())
}

func fmtAmount(raw *big.Int, decimals uint8) string {
	return pool.HumanAmount(raw, decimals).StringFixed(6)
}

func loadConfig(path string) (*config.Runtime, error) {
	if path != "" {
		log.Printf("Loading configuration from: %s", path)
	}
	return config.Load(path)
}

func exitConsole() {
	fmt.Println(Yellow + "Exiting..." + Reset)
	os.Exit(0)
}
