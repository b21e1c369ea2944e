package main

import (
	"context"
	"fmt"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/cryptorun/engine/adapter"
	"github.com/cryptorun/engine/bar"
	"github.com/cryptorun/engine/play"
	"github.com/cryptorun/engine/provider/backtest"
	"github.com/cryptorun/engine/store/memory"
)

func newBacktestCmd() *cobra.Command {
	var symbol, barsPath string
	var startingEquity, feeTaker, slippageBps float64

	cmd := &cobra.Command{
		Use:   "backtest <play.yaml>",
		Short: "Run a Play over a historical CSV bar file using the deterministic fill simulator",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := play.LoadPlay(args[0])
			if err != nil {
				return wrapExit(ExitCompileFailure, fmt.Errorf("backtest: %w", err))
			}
			if barsPath == "" {
				return wrapExit(ExitPreflightFailed, fmt.Errorf("backtest: --bars is required"))
			}

			sim := adapter.NewSimulator(startingEquity, feeTaker, slippageBps)
			eng, err := play.NewEngine(p, symbol, sim, adapter.NewZerologJournal(log.Logger))
			if err != nil {
				return wrapExit(ExitCompileFailure, fmt.Errorf("backtest: build engine: %w", err))
			}

			store := memory.New()
			ctx := context.Background()

			src, err := backtest.OpenCSVSource(barsPath)
			if err != nil {
				return wrapExit(ExitPreflightFailed, fmt.Errorf("backtest: %w", err))
			}
			defer src.Close()

			var processed int
			var orders int
			for {
				b, err := src.Next()
				if backtest.IsEOF(err) {
					break
				}
				if err != nil {
					return wrapExit(ExitRuntimeFailure, fmt.Errorf("backtest: reading bar %d: %w", processed, err))
				}

				sim.MarkPrice(symbol, b.Close)
				if err := eng.IngestBar(bar.RoleExec, b); err != nil {
					return wrapExit(ExitRuntimeFailure, fmt.Errorf("backtest: ingest bar %d: %w", processed, err))
				}
				res, err := eng.ProcessBar(ctx, nil)
				if err != nil {
					return wrapExit(ExitRuntimeFailure, fmt.Errorf("backtest: process bar %d: %w", processed, err))
				}
				orders += len(res.Orders)
				processed++
			}

			acct, err := sim.AccountStateOf(ctx)
			if err != nil {
				return wrapExit(ExitRuntimeFailure, fmt.Errorf("backtest: %w", err))
			}
			if err := store.Save(ctx, p.ID, engineStateOf(p.ID, acct)); err != nil {
				log.Warn().Err(err).Msg("backtest: failed to persist final engine state")
			}

			fmt.Printf("Processed %d bars, %d orders submitted\n", processed, orders)
			fmt.Printf("Final equity: %.2f (starting %.2f)\n", acct.Equity, startingEquity)
			return nil
		},
	}

	cmd.Flags().StringVar(&symbol, "symbol", "", "Symbol to backtest (required)")
	cmd.Flags().StringVar(&barsPath, "bars", "", "Path to a CSV file of historical OHLCV bars (required)")
	cmd.Flags().Float64Var(&startingEquity, "equity", 10000, "Starting account equity in USDT")
	cmd.Flags().Float64Var(&feeTaker, "fee-taker", 0.0006, "Taker fee rate")
	cmd.Flags().Float64Var(&slippageBps, "slippage-bps", 5, "Simulated fill slippage in basis points")
	cmd.MarkFlagRequired("symbol")
	cmd.MarkFlagRequired("bars")

	return cmd
}
