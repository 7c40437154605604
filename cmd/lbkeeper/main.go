package main

import (
	"os"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"

	"liquidityKeeper/internal/config"
)

func main() {
	root := &cobra.Command{
		Use:          "lbkeeper",
		Short:        "Keeps Liquidity Book positions in the active bin",
		SilenceUsage: true,
	}

	root.PersistentFlags().String("config", "", "config file path")

	runCmd := &cobra.Command{
		Use:   "run",
		Short: "Monitor positions and rebalance them when the active bin moves",
		RunE:  runKeeper,
	}

	runCmd.Flags().String("rpc", "", "RPC URL")
	runCmd.Flags().String("router", config.DefaultRouter, "LB router address")
	runCmd.Flags().String("positions", "./positions.json", "position list file")
	runCmd.Flags().String("abi-cache", "./abi_cache.json", "ABI cache file")
	runCmd.Flags().String("event-log", "./data/rebalances.jsonl", "rebalance event JSONL path")
	runCmd.Flags().String("pg-dsn", "", "optional Postgres DSN for rebalance events")
	runCmd.Flags().String("explorer-url", "https://api.etherscan.io/v2/api", "block explorer API URL")
	runCmd.Flags().Int64("notify-chat-id", 0, "telegram chat id for notifications (0 disables)")
	runCmd.Flags().String("gas-price-ceiling", "15000000", "maximum gas price in wei for rebalancing")
	runCmd.Flags().Duration("poll-interval", time.Minute, "interval between ticks")
	runCmd.Flags().Duration("position-delay", 100*time.Millisecond, "pause between positions within a tick")
	runCmd.Flags().Duration("settle-delay", time.Second, "pause after withdraw and deposit")
	runCmd.Flags().Duration("deadline", 24*time.Hour, "router transaction deadline")
	runCmd.Flags().Uint64("native-id-slippage", 5, "bin id slippage for native pools")
	runCmd.Flags().Int64("native-delta-id", 0, "deposit bin offset for native pools (<= 0); defaults to 0 instead of a negative bias because a negative single-bin offset takes only Y and refunds X")
	runCmd.Flags().Bool("auto-approve", true, "approve the router during initialization")
	runCmd.Flags().Duration("receipt-timeout", 5*time.Minute, "maximum wait for a transaction receipt")
	runCmd.Flags().Duration("receipt-poll", 2*time.Second, "receipt polling interval")
	runCmd.Flags().String("log-level", "info", "log level (debug, info, warn, error)")
	runCmd.Flags().String("log-file", "", "optional rotating log file")

	root.AddCommand(runCmd)

	priceCmd := &cobra.Command{
		Use:   "price",
		Short: "Print the price of a bin",
		RunE:  runPrice,
	}

	priceCmd.Flags().Uint32("bin-id", 1<<23, "bin id")
	priceCmd.Flags().Uint16("bin-step", 25, "bin step in basis points")

	root.AddCommand(priceCmd)

	positionsCmd := &cobra.Command{
		Use:   "positions",
		Short: "Print the persisted position list",
		RunE:  runPositions,
	}

	positionsCmd.Flags().String("positions", "./positions.json", "position list file")

	root.AddCommand(positionsCmd)

	if err := root.Execute(); err != nil {
		os.Exit(1)
	}
}

func newLogger(cfg config.Config) (*zap.Logger, error) {
	zcfg := zap.NewProductionConfig()
	zcfg.Level = zap.NewAtomicLevel()
	if err := zcfg.Level.UnmarshalText([]byte(cfg.LogLevel)); err != nil {
		return nil, err
	}

	zcfg.EncoderConfig.TimeKey = "ts"
	zcfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder

	if cfg.LogFile == "" {
		return zcfg.Build()
	}

	rotator := &lumberjack.Logger{
		Filename:   cfg.LogFile,
		MaxSize:    cfg.LogMaxSizeMB,
		MaxBackups: cfg.LogMaxBackups,
		MaxAge:     cfg.LogMaxAgeDays,
		Compress:   true,
	}
	fileCore := zapcore.NewCore(zapcore.NewJSONEncoder(zcfg.EncoderConfig), zapcore.AddSync(rotator), zcfg.Level)
	return zcfg.Build(zap.WrapCore(func(core zapcore.Core) zapcore.Core {
		return zapcore.NewTee(core, fileCore)
	}))
}
