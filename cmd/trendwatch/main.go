package main

import (
	"context"
	"flag"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"trendwatch/config"
	"trendwatch/notify"
	"trendwatch/pipeline"
	"trendwatch/preview"
	"trendwatch/scheduler"
	"trendwatch/source"
	"trendwatch/storage"
)

func main() {
	runOnce := flag.Bool("once", false, "run one aggregation cycle and exit")
	flag.Parse()

	// Structured JSON logging to stdout
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	// Load configuration
	cfgPath := "./config.yaml"
	cfg, err := config.Load(cfgPath)
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}
	slog.Info("config loaded", "mode", cfg.Mode, "cron", cfg.CronExpr, "timezone", cfg.Timezone, "sources", len(cfg.Sources), "groups", len(cfg.Groups))

	// Set log level
	switch cfg.LogLevel {
	case "debug":
		slog.SetDefault(slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelDebug})))
	case "warn":
		slog.SetDefault(slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelWarn})))
	case "error":
		slog.SetDefault(slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError})))
	}

	// Initialize storage
	store, err := storage.New(cfg.DBPath)
	if err != nil {
		slog.Error("failed to initialize storage", "error", err)
		os.Exit(1)
	}
	defer store.Close()
	slog.Info("storage initialized", "db_path", cfg.DBPath)

	// Register the configured source adapters
	httpClient := &http.Client{Timeout: time.Duration(cfg.FetchTimeoutSec) * time.Second}
	registry := source.NewRegistry()
	for _, sc := range cfg.Sources {
		src, err := source.Build(sc, httpClient)
		if err != nil {
			slog.Error("failed to build source", "source", sc.ID, "error", err)
			os.Exit(1)
		}
		registry.Register(src)
	}

	// Wire notification channels
	var notifiers []pipeline.Notifier
	if cfg.Notify.Telegram.Token != "" {
		tg, err := notify.NewTelegram(cfg.Notify.Telegram.Token, cfg.Notify.Telegram.ChatID)
		if err != nil {
			slog.Error("failed to initialize telegram channel", "error", err)
			os.Exit(1)
		}
		notifiers = append(notifiers, tg)
	}
	for _, wc := range cfg.Notify.Webhooks {
		wh, err := notify.NewWebhook(wc.Kind, wc.URL, httpClient)
		if err != nil {
			slog.Error("failed to initialize webhook channel", "kind", wc.Kind, "error", err)
			os.Exit(1)
		}
		notifiers = append(notifiers, wh)
	}
	if len(notifiers) == 0 {
		slog.Warn("no notification channels configured, reports go to the HTML output only")
	}

	var excerpter pipeline.Excerpter
	if cfg.Preview {
		excerpter = preview.New(time.Duration(cfg.FetchTimeoutSec) * time.Second)
	}

	runner := pipeline.NewRunner(registry.All(), store, notifiers, excerpter, pipeline.Config{
		Mode:          cfg.Mode,
		Rules:         cfg.Rules(),
		Location:      cfg.Location(),
		MaxBatches:    cfg.Window.MaxBatches,
		Retention:     time.Duration(cfg.Window.RetentionDays) * 24 * time.Hour,
		RankThreshold: cfg.RankThreshold,
		ReportDir:     cfg.ReportDir,
	})

	runFunc := func() {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Minute)
		defer cancel()
		if err := runner.Run(ctx); err != nil {
			slog.Error("run failed", "error", err)
		}
	}

	if *runOnce {
		if err := runner.Run(context.Background()); err != nil {
			slog.Error("run failed", "error", err)
			os.Exit(1)
		}
		return
	}

	// Initialize scheduler
	sched, err := scheduler.New(cfg.Timezone)
	if err != nil {
		slog.Error("failed to create scheduler", "error", err)
		os.Exit(1)
	}
	if err := sched.Schedule(cfg.CronExpr, runFunc); err != nil {
		slog.Error("failed to schedule runs", "error", err)
		os.Exit(1)
	}
	sched.Start()
	slog.Info("scheduler started", "cron", cfg.CronExpr)

	// Graceful shutdown
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	sig := <-sigCh
	slog.Info("received signal, shutting down", "signal", sig)

	sched.Stop()
	slog.Info("shutdown complete")
}
