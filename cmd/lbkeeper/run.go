package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/ethereum/go-ethereum/common"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"liquidityKeeper/internal/chain"
	"liquidityKeeper/internal/config"
	"liquidityKeeper/internal/explorer"
	"liquidityKeeper/internal/keeper"
	"liquidityKeeper/internal/monitor"
	"liquidityKeeper/internal/notify"
	"liquidityKeeper/internal/storage"
	"liquidityKeeper/internal/storage/postgres"
)

func runKeeper(cmd *cobra.Command, _ []string) error {
	cfgFile, _ := cmd.Flags().GetString("config")
	cfg, err := config.Load(cfgFile, cmd.Flags())
	if err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	logger, err := newLogger(cfg)
	if err != nil {
		return err
	}
	defer logger.Sync()

	positionFile := storage.NewPositionFile(cfg.Positions)
	records, err := positionFile.Load()
	if err != nil {
		return err
	}
	positions := make([]*keeper.Position, 0, len(records))
	for i, rec := range records {
		p, err := keeper.NewPosition(rec)
		if err != nil {
			return fmt.Errorf("position %d: %w", i, err)
		}
		positions = append(positions, p)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	chainClient, err := chain.NewClient(ctx, cfg.RPCURL)
	if err != nil {
		return fmt.Errorf("connect rpc: %w", err)
	}
	defer chainClient.Close()

	ledger, err := chain.NewLedger(ctx, chainClient, cfg.AccountKey,
		chain.WithReceiptTimeout(cfg.ReceiptTimeout),
		chain.WithReceiptPoll(cfg.ReceiptPoll),
		chain.WithLogger(logger),
	)
	if err != nil {
		return err
	}

	abiCache, err := explorer.LoadCache(cfg.ABICache)
	if err != nil {
		return err
	}
	var explorerClient *explorer.Client
	if cfg.ExplorerAPIKey != "" {
		explorerClient = explorer.NewClient(cfg.ExplorerURL, cfg.ExplorerAPIKey)
	}
	resolver := explorer.NewResolver(explorerClient, abiCache, logger)

	telegram, err := notify.NewTelegram(cfg.TelegramToken, cfg.NotifyChatID, logger)
	if err != nil {
		return err
	}
	notifier := notify.Multi{notify.NewConsole(os.Stdout), telegram}

	savers := storage.PositionSavers{positionFile}
	sinks := storage.EventSinks{storage.NewJsonlStorage(cfg.EventLog)}
	if cfg.PGDSN != "" {
		store, err := postgres.NewStore(ctx, cfg.PGDSN)
		if err != nil {
			return fmt.Errorf("connect postgres: %w", err)
		}
		defer store.Close()
		if err := store.EnsureSchema(ctx); err != nil {
			return err
		}
		savers = append(savers, store)
		sinks = append(sinks, store)
	}

	k := keeper.New(ledger, resolver, keeper.Settings{
		Router:           common.HexToAddress(cfg.Router),
		GasPriceCeiling:  cfg.GasPriceCeiling,
		SettleDelay:      cfg.SettleDelay,
		Deadline:         cfg.Deadline,
		NativeIDSlippage: cfg.NativeIDSlippage,
		NativeDeltaID:    cfg.NativeDeltaID,
		AutoApprove:      cfg.AutoApprove,
	}, logger)

	logger.Info("keeper start",
		zap.String("rpc", cfg.RPCURL),
		zap.Uint64("chain_id", ledger.ChainID()),
		zap.String("account", ledger.Account().Hex()),
		zap.Int("positions", len(positions)),
		zap.String("gas_price_ceiling", cfg.GasPriceCeiling.String()),
		zap.Duration("poll_interval", cfg.PollInterval),
	)

	ready := 0
	for _, p := range positions {
		if err := k.Initialize(ctx, p); err != nil {
			logger.Error("initialize position failed, skipping", zap.String("pool", p.Pool().Hex()), zap.Error(err))
			if nerr := notifier.Notify(ctx, fmt.Sprintf("Initialize %s failed: %v", p.Pool().Hex(), err)); nerr != nil {
				logger.Warn("notify failed", zap.Error(nerr))
			}
			continue
		}
		ready++
	}

	loop := monitor.New(k, positions, savers, sinks, notifier, monitor.Config{
		Interval:      cfg.PollInterval,
		PositionDelay: cfg.PositionDelay,
	}, logger)

	// Funding during initialization may have changed bins.
	if err := savers.SavePositions(ctx, loop.Records()); err != nil {
		logger.Error("save positions failed", zap.Error(err))
	}
	if err := notifier.Notify(ctx, fmt.Sprintf("Keeper started: %d of %d positions initialized", ready, len(positions))); err != nil {
		logger.Warn("notify failed", zap.Error(err))
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error { return loop.Run(gctx) })
	g.Go(func() error { return telegram.Listen(gctx) })
	runErr := g.Wait()

	shutdownCtx := context.WithoutCancel(ctx)
	if err := savers.SavePositions(shutdownCtx, loop.Records()); err != nil {
		logger.Error("save positions on shutdown failed", zap.Error(err))
	}
	if err := abiCache.Save(cfg.ABICache); err != nil {
		logger.Error("save abi cache failed", zap.Error(err))
	}
	logger.Info("keeper stopped", zap.Int("cached_abis", abiCache.Len()))
	return runErr
}
