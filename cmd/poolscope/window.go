package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/carmen0208/arb-analysis-dashboard-demo-sub001/internal/chain"
	"github.com/carmen0208/arb-analysis-dashboard-demo-sub001/internal/config"
	"github.com/carmen0208/arb-analysis-dashboard-demo-sub001/internal/dex"
	"github.com/carmen0208/arb-analysis-dashboard-demo-sub001/internal/liquidity"
)

func addWindowFlags(cmd *cobra.Command) {
	cmd.Flags().String("rpc", "", "node RPC URL")
	cmd.Flags().String("pool", "", "pool contract address")
	cmd.Flags().Uint32("seconds-ago", 300, "window length in seconds")
	cmd.Flags().String("log-level", "info", "log level (debug, info, warn, error)")
}

func runTWAP(cmd *cobra.Command, _ []string) error {
	return runWindow(cmd, func(ctx context.Context, engine *liquidity.Engine, cfg config.WindowConfig, logger *zap.Logger) error {
		result, err := engine.TWAP(ctx, cfg.Pool, cfg.SecondsAgo)
		if err != nil {
			return err
		}

		logger.Info("twap done",
			zap.String("pool", cfg.Pool),
			zap.Uint32("seconds_ago", cfg.SecondsAgo),
			zap.Int32("average_tick", result.AverageTick),
			zap.Float64("twap_token1_per_token0", result.TWAPRatios.Token1PerToken0),
			zap.Float64("twap_token0_per_token1", result.TWAPRatios.Token0PerToken1),
			zap.Float64("current_token1_per_token0", result.CurrentRatios.Token1PerToken0),
			zap.Float64("current_token0_per_token1", result.CurrentRatios.Token0PerToken1),
		)
		return nil
	})
}

func runTWAL(cmd *cobra.Command, _ []string) error {
	return runWindow(cmd, func(ctx context.Context, engine *liquidity.Engine, cfg config.WindowConfig, logger *zap.Logger) error {
		result, err := engine.TWAL(ctx, cfg.Pool, cfg.SecondsAgo)
		if err != nil {
			return err
		}

		logger.Info("twal done",
			zap.String("pool", cfg.Pool),
			zap.Uint32("seconds_ago", cfg.SecondsAgo),
			zap.String("twal", bigString(result.TWAL)),
			zap.String("current_liquidity", bigString(result.CurrentLiquidity)),
			zap.Int32("current_tick", result.CurrentTick),
		)
		return nil
	})
}

func runWindow(cmd *cobra.Command, run func(context.Context, *liquidity.Engine, config.WindowConfig, *zap.Logger) error) error {
	cfgFile, _ := cmd.Flags().GetString("config")
	cfg, err := config.LoadWindow(cfgFile, cmd.Flags())
	if err != nil {
		return err
	}

	logger, err := newLogger(cfg.LogLevel)
	if err != nil {
		return err
	}
	defer logger.Sync()

	if cfg.RPCURL == "" {
		return fmt.Errorf("rpc url is required")
	}
	if cfg.Pool == "" {
		return fmt.Errorf("pool address is required")
	}
	if cfg.SecondsAgo == 0 {
		return fmt.Errorf("seconds-ago must be positive")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	chainClient, err := chain.NewClient(ctx, cfg.RPCURL)
	if err != nil {
		return fmt.Errorf("connect rpc: %w", err)
	}
	defer chainClient.Close()

	accessor := dex.NewAccessor(chainClient, dex.AccessorConfig{
		MaxRetries:   5,
		RetryBackoff: 500 * time.Millisecond,
	}, logger)

	tokens := dex.NewTokenDirectory(chainClient, nil, logger)
	engine := liquidity.NewEngine(accessor, tokens, liquidity.Config{}, logger)

	if err := run(ctx, engine, cfg, logger); err != nil {
		if errors.Is(err, liquidity.ErrInsufficientHistory) {
			return fmt.Errorf("oracle history does not cover %ds; retry with a shorter window: %w", cfg.SecondsAgo, err)
		}
		return err
	}
	return nil
}
