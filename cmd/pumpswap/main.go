package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"reflect"
	"strings"
	"syscall"

	"github.com/gagliardetto/solana-go"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/aman-zulfiqar/pumpswap-executor/internal/config"
	"github.com/aman-zulfiqar/pumpswap-executor/internal/pumpswap"
	"github.com/aman-zulfiqar/pumpswap-executor/internal/swapengine"
)

// Exit codes.
const (
	exitOK         = 0
	exitError      = 1
	exitValidation = 2
	exitTimeout    = 3
)

func main() {
	err := newRootCmd().Execute()
	if err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
	}
	os.Exit(exitCode(err))
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "pumpswap",
		Short:         "Buy, sell and quote against PumpSwap AMM pools",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().String("env-file", ".env", "dotenv file loaded before reading configuration")
	root.PersistentFlags().String("log-level", "", "override LOG_LEVEL (debug, info, warn, error)")

	buyCmd := &cobra.Command{
		Use:   "buy",
		Short: "Spend SOL on the base token of a pool",
		RunE:  runBuy,
	}
	buyCmd.Flags().String("pool", "", "pool address")
	buyCmd.Flags().Float64("sol", 0, "SOL to spend, before slippage")
	buyCmd.Flags().Float64("slippage", -1, "slippage percent, negative uses DEFAULT_SLIPPAGE_PCT")
	root.AddCommand(buyCmd)

	sellCmd := &cobra.Command{
		Use:   "sell",
		Short: "Sell a percentage of the wallet's base token holding",
		RunE:  runSell,
	}
	sellCmd.Flags().String("pool", "", "pool address")
	sellCmd.Flags().Uint8("pct", 100, "percent of holding to sell, 100 also closes the token account")
	sellCmd.Flags().Float64("slippage", -1, "slippage percent, negative uses DEFAULT_SLIPPAGE_PCT")
	root.AddCommand(sellCmd)

	quoteCmd := &cobra.Command{
		Use:   "quote",
		Short: "Price a buy or sell without submitting",
		RunE:  runQuote,
	}
	quoteCmd.Flags().String("pool", "", "pool address")
	quoteCmd.Flags().String("side", "buy", "buy or sell")
	quoteCmd.Flags().Float64("sol", 0, "SOL to spend (buy)")
	quoteCmd.Flags().Uint8("pct", 100, "percent of holding (sell)")
	quoteCmd.Flags().Float64("slippage", -1, "slippage percent, negative uses DEFAULT_SLIPPAGE_PCT")
	root.AddCommand(quoteCmd)

	pairCmd := &cobra.Command{
		Use:   "pair <mint>",
		Short: "Find the deepest WSOL pool for a mint",
		Args:  cobra.ExactArgs(1),
		RunE:  runPair,
	}
	root.AddCommand(pairCmd)

	return root
}

func runBuy(cmd *cobra.Command, _ []string) error {
	pool, err := poolFlag(cmd)
	if err != nil {
		return err
	}
	lamports, err := solFlag(cmd)
	if err != nil {
		return err
	}
	slippage, _ := cmd.Flags().GetFloat64("slippage")

	return withEngine(cmd, func(ctx context.Context, e *swapengine.Engine) (any, error) {
		return e.Buy(ctx, pool, lamports, slippage)
	})
}

func runSell(cmd *cobra.Command, _ []string) error {
	pool, err := poolFlag(cmd)
	if err != nil {
		return err
	}
	pct, _ := cmd.Flags().GetUint8("pct")
	slippage, _ := cmd.Flags().GetFloat64("slippage")

	return withEngine(cmd, func(ctx context.Context, e *swapengine.Engine) (any, error) {
		return e.Sell(ctx, pool, pct, slippage)
	})
}

func runQuote(cmd *cobra.Command, _ []string) error {
	pool, err := poolFlag(cmd)
	if err != nil {
		return err
	}
	slippage, _ := cmd.Flags().GetFloat64("slippage")
	side, _ := cmd.Flags().GetString("side")

	switch swapengine.Side(strings.ToLower(side)) {
	case swapengine.SideBuy:
		lamports, err := solFlag(cmd)
		if err != nil {
			return err
		}
		return withEngine(cmd, func(ctx context.Context, e *swapengine.Engine) (any, error) {
			return e.QuoteBuy(ctx, pool, lamports, slippage)
		})
	case swapengine.SideSell:
		pct, _ := cmd.Flags().GetUint8("pct")
		return withEngine(cmd, func(ctx context.Context, e *swapengine.Engine) (any, error) {
			return e.QuoteSell(ctx, pool, pct, slippage)
		})
	default:
		return fmt.Errorf("%w: --side must be buy or sell, got %q", pumpswap.ErrValidation, side)
	}
}

func runPair(cmd *cobra.Command, args []string) error {
	mint, err := solana.PublicKeyFromBase58(args[0])
	if err != nil {
		return fmt.Errorf("%w: mint: %v", pumpswap.ErrValidation, err)
	}
	return withEngine(cmd, func(ctx context.Context, e *swapengine.Engine) (any, error) {
		return e.FindPoolByMint(ctx, mint)
	})
}

// withEngine loads configuration, builds the runtime and prints whatever fn
// returns as JSON, also on failure when fn returned a partial result.
func withEngine(cmd *cobra.Command, fn func(ctx context.Context, e *swapengine.Engine) (any, error)) error {
	envFile, _ := cmd.Flags().GetString("env-file")
	if envFile != "" {
		// missing file is fine, the environment may already be set
		_ = godotenv.Load(envFile)
	}

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("%w: config: %w", pumpswap.ErrValidation, err)
	}
	if lvl, _ := cmd.Flags().GetString("log-level"); lvl != "" {
		cfg.LogLevel = lvl
	}
	logger := cfg.NewLogger()
	logger.SetOutput(cmd.ErrOrStderr())

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	rt, err := swapengine.NewRuntime(ctx, cfg, logger, nil)
	if err != nil {
		return err
	}
	defer rt.Close()

	out, err := fn(ctx, rt.Engine)
	if perr := printJSON(cmd.OutOrStdout(), out); perr != nil && err == nil {
		err = perr
	}
	return err
}

func printJSON(w io.Writer, v any) error {
	if rv := reflect.ValueOf(v); v == nil || (rv.Kind() == reflect.Pointer && rv.IsNil()) {
		return nil
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func poolFlag(cmd *cobra.Command) (solana.PublicKey, error) {
	s, _ := cmd.Flags().GetString("pool")
	if strings.TrimSpace(s) == "" {
		return solana.PublicKey{}, fmt.Errorf("%w: --pool is required", pumpswap.ErrValidation)
	}
	pool, err := solana.PublicKeyFromBase58(strings.TrimSpace(s))
	if err != nil {
		return solana.PublicKey{}, fmt.Errorf("%w: --pool: %v", pumpswap.ErrValidation, err)
	}
	return pool, nil
}

func solFlag(cmd *cobra.Command) (uint64, error) {
	sol, _ := cmd.Flags().GetFloat64("sol")
	lamports, err := swapengine.SOLToLamports(sol)
	if err != nil {
		return 0, fmt.Errorf("--sol: %w", err)
	}
	return lamports, nil
}

func exitCode(err error) int {
	if err == nil {
		return exitOK
	}
	switch {
	case errors.Is(err, pumpswap.ErrValidation):
		return exitValidation
	case errors.Is(err, pumpswap.ErrConfirmationTimeout):
		return exitTimeout
	default:
		return exitError
	}
}
