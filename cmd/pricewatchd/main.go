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

	"github.com/joho/godotenv"
	"github.com/shopspring/decimal"

	"github.com/knaito/opcg-pricewatch/internal/affiliate"
	"github.com/knaito/opcg-pricewatch/internal/config"
	"github.com/knaito/opcg-pricewatch/internal/database"
	"github.com/knaito/opcg-pricewatch/internal/fxrate"
	"github.com/knaito/opcg-pricewatch/internal/runner"
	"github.com/knaito/opcg-pricewatch/internal/server"
	"github.com/knaito/opcg-pricewatch/internal/source"
	"github.com/knaito/opcg-pricewatch/internal/store"
	"github.com/knaito/opcg-pricewatch/internal/version"
)

func main() {
	configPath := flag.String("config", "configs/pricewatch.yaml", "path to config file")
	flag.Parse()

	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
	slog.SetDefault(logger)

	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		logger.Warn("error loading .env file", "err", err)
	}

	logger.Info("starting pricewatchd",
		"version", version.Version,
		"commit", version.Commit,
		"config", *configPath,
	)

	cfg, err := config.LoadAndValidate(*configPath)
	if err != nil {
		logger.Error("failed to load config", "error", err)
		os.Exit(1)
	}
	if cfg.Server.TriggerSecret == "" {
		logger.Error("server.trigger_secret is required for pricewatchd")
		os.Exit(1)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		logger.Info("received shutdown signal", "signal", sig)
		cancel()
	}()

	pool, err := database.Connect(ctx, cfg.Database)
	if err != nil {
		logger.Error("failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer pool.Close()

	st := store.New(pool, logger)

	var adapters []source.Adapter
	if cfg.Sources.Ebay.Enabled {
		adapters = append(adapters, source.NewEbayAdapter(cfg.Sources.Ebay, source.WithEbayLogger(logger)))
	}
	if cfg.Sources.Retail.Enabled {
		adapters = append(adapters, source.NewRetailAdapter(cfg.Sources.Retail, logger))
	}

	resolver := fxrate.NewResolver(st, decimal.NewFromFloat(cfg.FX.FallbackUSDJPY), logger)
	tagger := affiliate.NewTagger(cfg.Sources.Ebay.CampaignID, cfg.Sources.Ebay.CustomID)

	r := runner.New(runner.Config{
		BatchSize:     cfg.Runner.BatchSize,
		PairInterval:  cfg.Runner.PairInterval,
		CooldownEvery: cfg.Runner.CooldownEvery,
		CooldownFor:   cfg.Runner.CooldownFor,
		TimeBudget:    cfg.Runner.TimeBudget,
		FloorRatio:    cfg.Reconcile.FloorRatio,
	}, adapters, st, resolver, tagger, logger)

	srv := server.New(r, st, cfg.Server.TriggerSecret, logger)
	httpServer := &http.Server{
		Addr:    cfg.Server.ListenAddr,
		Handler: srv.Handler(),
	}

	go func() {
		logger.Info("listening", "addr", cfg.Server.ListenAddr)
		if err := httpServer.ListenAndServe(); err != http.ErrServerClosed {
			logger.Error("http server error", "error", err)
			cancel()
		}
	}()

	<-ctx.Done()

	logger.Info("shutting down...")
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	httpServer.Shutdown(shutdownCtx)

	logger.Info("pricewatchd stopped")
}
