package main

import (
	"context"
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"papertrader/config"
	"papertrader/internal/adapters/broker"
	"papertrader/internal/adapters/notify"
	"papertrader/internal/adapters/storage"
	"papertrader/internal/application/engine"
	"papertrader/internal/application/exit"
	"papertrader/internal/application/risk"
	"papertrader/internal/application/sizing"
	"papertrader/internal/domain"
	"papertrader/internal/metrics"
	"papertrader/internal/ports"
)

func main() {
	configPath := flag.String("config", "config/config.yaml", "path to config file")
	once := flag.Bool("once", false, "run one trading cycle and exit")
	dryRun := flag.Bool("dry-run", false, "force virtual orders regardless of config")
	verbose := flag.Bool("verbose", false, "set log level to debug")
	logFormat := flag.String("format", "", "log format: text|json (overrides config)")
	table := flag.Bool("table", false, "print full cycle tables (default: compact 1-line)")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		slog.Error("failed to load config", "err", err, "path", *configPath)
		os.Exit(1)
	}

	if *verbose {
		cfg.Log.Level = "debug"
	}
	if *logFormat != "" {
		cfg.Log.Format = *logFormat
	}
	if *dryRun {
		cfg.Trader.ExecutionEnabled = false
	}
	setupLogger(cfg.Log)

	slog.Info("papertrader starting",
		"config", *configPath,
		"tier", cfg.Trader.MarketTier,
		"execution", cfg.Trader.ExecutionEnabled,
		"once", *once,
	)

	client, err := broker.NewClient(cfg.Broker.TradeBase, cfg.Broker.DataBase,
		cfg.Broker.KeyID, cfg.Broker.SecretKey)
	if err != nil {
		slog.Error("failed to create broker client", "err", err)
		os.Exit(1)
	}

	store, err := storage.NewSQLiteStorage(cfg.Storage.DSN)
	if err != nil {
		slog.Error("failed to open storage", "err", err, "dsn", cfg.Storage.DSN)
		os.Exit(1)
	}
	defer store.Close()

	var snapshots ports.SnapshotWriter
	if cfg.Storage.SnapshotPath != "" {
		snapshots = storage.NewJSONSnapshot(cfg.Storage.SnapshotPath)
	}

	notifier := notify.NewConsole(*table)

	breaker := &domain.DailyLossBreaker{MaxDailyLossPct: cfg.Risk.MaxDailyLossPct}
	sizer := sizing.New(cfg.Risk)
	gate := risk.NewGate(cfg.Risk, breaker, cfg.Trader.BreakerOverride)
	exits := exit.New(cfg.Risk, cfg.Exit, exit.NewDecayScorer())

	eng := engine.New(client, store, snapshots, notifier, sizer, gate, exits, engine.Config{
		Universe:         cfg.Universe(),
		OpenInterval:     cfg.OpenInterval(),
		ClosedInterval:   cfg.ClosedInterval(),
		HistoryBars:      cfg.Trader.HistoryBars,
		MinConfidence:    cfg.Risk.MinConfidence,
		ExecutionEnabled: cfg.Trader.ExecutionEnabled,
	})

	metrics.Serve(cfg.Metrics.ListenAddr)

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if *once {
		if err := eng.RunOnce(ctx); err != nil {
			slog.Error("cycle failed", "err", err)
			os.Exit(1)
		}
		return
	}

	// Hot reload hands new risk and exit thresholds to the loop, which
	// applies them between cycles on its own goroutine.
	watcher, err := config.NewWatcher(*configPath, func(next *config.Config) {
		eng.QueueReload(next.Risk, next.Exit)
	})
	if err != nil {
		slog.Warn("config hot reload unavailable", "err", err)
	} else {
		go watcher.Run(ctx)
	}

	if err := eng.Run(ctx); err != nil {
		slog.Error("trading loop exited with error", "err", err)
		os.Exit(1)
	}

	slog.Info("papertrader stopped cleanly")
}

func setupLogger(cfg config.LogConfig) {
	var level slog.Level
	switch cfg.Level {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}

	opts := &slog.HandlerOptions{Level: level}
	var handler slog.Handler
	if cfg.Format == "json" {
		handler = slog.NewJSONHandler(os.Stdout, opts)
	} else {
		handler = slog.NewTextHandler(os.Stdout, opts)
	}
	slog.SetDefault(slog.New(handler))
}
