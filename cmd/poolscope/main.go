package main

import (
	"context"
	"fmt"
	"math/big"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/carmen0208/arb-analysis-dashboard-demo-sub001/internal/chain"
	"github.com/carmen0208/arb-analysis-dashboard-demo-sub001/internal/config"
	"github.com/carmen0208/arb-analysis-dashboard-demo-sub001/internal/dex"
	"github.com/carmen0208/arb-analysis-dashboard-demo-sub001/internal/liquidity"
	"github.com/carmen0208/arb-analysis-dashboard-demo-sub001/internal/model"
	"github.com/carmen0208/arb-analysis-dashboard-demo-sub001/internal/storage"
	"github.com/carmen0208/arb-analysis-dashboard-demo-sub001/internal/storage/postgres"
)

func main() {
	root := &cobra.Command{
		Use:          "poolscope",
		Short:        "Concentrated-liquidity pool analyzer",
		SilenceUsage: true,
	}

	root.PersistentFlags().String("config", "", "config file path")

	distributionCmd := &cobra.Command{
		Use:   "distribution",
		Short: "Snapshot the tick liquidity distribution around the current price",
		RunE:  runDistribution,
	}

	distributionCmd.Flags().String("rpc", "", "node RPC URL")
	distributionCmd.Flags().String("pool", "", "pool contract address")
	distributionCmd.Flags().Int("word-range", 5, "bitmap word radius around the current price")
	distributionCmd.Flags().Float64("cliff-threshold", 0.2, "relative liquidity jump flagged as a cliff")
	distributionCmd.Flags().Float64("default-token-price-usd", 1.0, "fallback unit price for tokens without a known USD price")
	distributionCmd.Flags().String("token-prices-usd", "", "token USD prices (comma-separated address=price)")
	distributionCmd.Flags().String("out", "./data/distribution.jsonl", "output JSONL path")
	distributionCmd.Flags().String("pg-dsn", "", "optional Postgres DSN")
	distributionCmd.Flags().Int("max-retries", 5, "maximum retry attempts")
	distributionCmd.Flags().Duration("retry-backoff", 500*time.Millisecond, "initial retry backoff")
	distributionCmd.Flags().String("log-level", "info", "log level (debug, info, warn, error)")

	root.AddCommand(distributionCmd)

	cliffsCmd := &cobra.Command{
		Use:   "cliffs",
		Short: "Detect liquidity cliffs around the current price",
		RunE:  runCliffs,
	}

	cliffsCmd.Flags().String("rpc", "", "node RPC URL")
	cliffsCmd.Flags().String("pool", "", "pool contract address")
	cliffsCmd.Flags().Int("word-range", 5, "bitmap word radius around the current price")
	cliffsCmd.Flags().Float64("cliff-threshold", 0.2, "relative liquidity jump flagged as a cliff")
	cliffsCmd.Flags().String("out", "./data/cliffs.jsonl", "output JSONL path")
	cliffsCmd.Flags().Int("max-retries", 5, "maximum retry attempts")
	cliffsCmd.Flags().Duration("retry-backoff", 500*time.Millisecond, "initial retry backoff")
	cliffsCmd.Flags().String("log-level", "info", "log level (debug, info, warn, error)")

	root.AddCommand(cliffsCmd)

	twapCmd := &cobra.Command{
		Use:   "twap",
		Short: "Compute the time-weighted average price over a window",
		RunE:  runTWAP,
	}
	addWindowFlags(twapCmd)
	root.AddCommand(twapCmd)

	twalCmd := &cobra.Command{
		Use:   "twal",
		Short: "Compute the time-weighted average liquidity over a window",
		RunE:  runTWAL,
	}
	addWindowFlags(twalCmd)
	root.AddCommand(twalCmd)

	if err := root.Execute(); err != nil {
		os.Exit(1)
	}
}

func runDistribution(cmd *cobra.Command, _ []string) error {
	cfgFile, _ := cmd.Flags().GetString("config")
	cfg, err := config.LoadAnalyze(cfgFile, cmd.Flags())
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

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	chainClient, err := chain.NewClient(ctx, cfg.RPCURL)
	if err != nil {
		return fmt.Errorf("connect rpc: %w", err)
	}
	defer chainClient.Close()

	accessor := dex.NewAccessor(chainClient, dex.AccessorConfig{
		MaxRetries:   cfg.MaxRetries,
		RetryBackoff: cfg.RetryBackoff,
	}, logger)

	tokens := dex.NewTokenDirectory(chainClient, dex.NewStaticPrices(cfg.TokenPricesUSD), logger)

	engine := liquidity.NewEngine(accessor, tokens, liquidity.Config{
		WordRange:            cfg.WordRange,
		CliffThreshold:       cfg.CliffThreshold,
		DefaultTokenPriceUSD: cfg.DefaultTokenPriceUSD,
	}, logger)

	logger.Info("distribution start",
		zap.String("pool", cfg.Pool),
		zap.Int("word_range", cfg.WordRange),
		zap.Float64("cliff_threshold", cfg.CliffThreshold),
		zap.String("out", cfg.Out),
		zap.String("pg_dsn", redactDSN(cfg.PGDSN)),
	)

	state, err := accessor.ReadPoolState(ctx, cfg.Pool)
	if err != nil {
		return fmt.Errorf("read pool state: %w", err)
	}

	infos, err := engine.TickLiquidityDistribution(ctx, cfg.Pool, cfg.WordRange)
	if err != nil {
		return err
	}

	cliffs, err := engine.DetectCliffs(infos, state.Liquidity, cfg.CliffThreshold)
	if err != nil {
		return err
	}

	snapshot := model.DistributionSnapshot{
		PoolAddress: cfg.Pool,
		CurrentTick: state.Tick,
		TickSpacing: state.TickSpacing,
		ObservedAt:  time.Now(),
		Infos:       infos,
		Cliffs:      cliffs,
	}

	sink := storage.NewJsonlStorage(cfg.Out)
	if err := sink.PutSnapshot(snapshot); err != nil {
		return fmt.Errorf("write snapshot: %w", err)
	}

	if cfg.PGDSN != "" {
		store, err := postgres.NewStore(ctx, cfg.PGDSN)
		if err != nil {
			return fmt.Errorf("connect postgres: %w", err)
		}
		defer store.Close()
		if err := store.UpsertSnapshot(ctx, snapshot); err != nil {
			return fmt.Errorf("upsert snapshot: %w", err)
		}
	}

	logger.Info("distribution done",
		zap.String("pool", cfg.Pool),
		zap.Int32("current_tick", state.Tick),
		zap.String("liquidity", bigString(state.Liquidity)),
		zap.Int("ticks", len(infos)),
		zap.Int("cliffs", len(cliffs)),
	)

	return nil
}

func runCliffs(cmd *cobra.Command, _ []string) error {
	cfgFile, _ := cmd.Flags().GetString("config")
	cfg, err := config.LoadAnalyze(cfgFile, cmd.Flags())
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

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	chainClient, err := chain.NewClient(ctx, cfg.RPCURL)
	if err != nil {
		return fmt.Errorf("connect rpc: %w", err)
	}
	defer chainClient.Close()

	accessor := dex.NewAccessor(chainClient, dex.AccessorConfig{
		MaxRetries:   cfg.MaxRetries,
		RetryBackoff: cfg.RetryBackoff,
	}, logger)

	engine := liquidity.NewEngine(accessor, nil, liquidity.Config{
		WordRange:      cfg.WordRange,
		CliffThreshold: cfg.CliffThreshold,
	}, logger)

	state, err := accessor.ReadPoolState(ctx, cfg.Pool)
	if err != nil {
		return fmt.Errorf("read pool state: %w", err)
	}

	infos, err := engine.TickLiquidityDistribution(ctx, cfg.Pool, cfg.WordRange)
	if err != nil {
		return err
	}

	cliffs, err := engine.DetectCliffs(infos, state.Liquidity, cfg.CliffThreshold)
	if err != nil {
		return err
	}

	for _, cliff := range cliffs {
		logger.Info("cliff",
			zap.String("pool", cfg.Pool),
			zap.Int32("tick", cliff.Tick),
			zap.String("previous_liquidity", bigString(cliff.PreviousLiquidity)),
			zap.String("current_liquidity", bigString(cliff.CurrentLiquidity)),
			zap.Float64("delta_pct", cliff.DeltaPct),
		)
	}

	snapshot := model.DistributionSnapshot{
		PoolAddress: cfg.Pool,
		CurrentTick: state.Tick,
		TickSpacing: state.TickSpacing,
		ObservedAt:  time.Now(),
		Cliffs:      cliffs,
	}

	sink := storage.NewJsonlStorage(cfg.Out)
	if err := sink.PutSnapshot(snapshot); err != nil {
		return fmt.Errorf("write snapshot: %w", err)
	}

	logger.Info("cliffs done",
		zap.String("pool", cfg.Pool),
		zap.Int32("current_tick", state.Tick),
		zap.Int("cliffs", len(cliffs)),
	)

	return nil
}

func newLogger(level string) (*zap.Logger, error) {
	cfg := zap.NewProductionConfig()
	cfg.Level = zap.NewAtomicLevel()
	if err := cfg.Level.UnmarshalText([]byte(level)); err != nil {
		return nil, err
	}

	cfg.EncoderConfig.TimeKey = "ts"
	cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder

	return cfg.Build()
}

func redactDSN(dsn string) string {
	if dsn == "" {
		return dsn
	}
	return "***"
}

func bigString(value *big.Int) string {
	if value == nil {
		return "0"
	}
	return value.String()
}
