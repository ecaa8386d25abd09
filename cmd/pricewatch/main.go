package main

import (
	"context"
	"encoding/json"
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/shopspring/decimal"

	"github.com/knaito/opcg-pricewatch/internal/affiliate"
	"github.com/knaito/opcg-pricewatch/internal/config"
	"github.com/knaito/opcg-pricewatch/internal/database"
	"github.com/knaito/opcg-pricewatch/internal/fxrate"
	"github.com/knaito/opcg-pricewatch/internal/model"
	"github.com/knaito/opcg-pricewatch/internal/runner"
	"github.com/knaito/opcg-pricewatch/internal/source"
	"github.com/knaito/opcg-pricewatch/internal/store"
	"github.com/knaito/opcg-pricewatch/internal/version"
)

func main() {
	configPath := flag.String("config", "configs/pricewatch.yaml", "path to config file")
	offset := flag.Int("offset", 0, "card offset to resume from")
	limit := flag.Int("limit", 0, "override configured batch size")
	cardNumber := flag.String("card", "", "price a single card by number and exit")
	dryRun := flag.Bool("dry-run", false, "reconcile but skip all writes")
	flag.Parse()

	// Set up structured logging
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelDebug,
	}))
	slog.SetDefault(logger)

	// Load environment variables from .env if present
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		logger.Warn("error loading .env file", "err", err)
	}

	logger.Info("starting pricewatch",
		"version", version.Version,
		"commit", version.Commit,
		"config", *configPath,
	)

	cfg, err := config.LoadAndValidate(*configPath)
	if err != nil {
		logger.Error("failed to load config", "error", err)
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

	logger.Info("connecting to database",
		"host", cfg.Database.Host,
		"port", cfg.Database.Port,
		"database", cfg.Database.Name,
	)
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

	batchSize := cfg.Runner.BatchSize
	if *limit > 0 {
		batchSize = *limit
	}

	r := runner.New(runner.Config{
		BatchSize:     batchSize,
		PairInterval:  cfg.Runner.PairInterval,
		CooldownEvery: cfg.Runner.CooldownEvery,
		CooldownFor:   cfg.Runner.CooldownFor,
		TimeBudget:    cfg.Runner.TimeBudget,
		FloorRatio:    cfg.Reconcile.FloorRatio,
		DryRun:        *dryRun,
	}, adapters, st, resolver, tagger, logger)

	var summary model.RunSummary
	if *cardNumber != "" {
		card, ok, err := st.GetCard(ctx, *cardNumber)
		if err != nil {
			logger.Error("failed to read card", "card", *cardNumber, "error", err)
			os.Exit(1)
		}
		if !ok {
			logger.Error("card not found or not tracked", "card", *cardNumber)
			os.Exit(1)
		}
		summary, err = r.RunCard(ctx, card)
		if err != nil {
			logger.Error("run aborted", "error", err)
			os.Exit(1)
		}
	} else {
		var err error
		summary, err = r.Run(ctx, *offset)
		if err != nil {
			logger.Error("batch aborted", "error", err)
			os.Exit(1)
		}
	}

	out, _ := json.MarshalIndent(summary, "", "  ")
	os.Stdout.Write(append(out, '\n'))

	if !summary.Complete {
		logger.Info("batch partial, resume with -offset", "next_offset", summary.NextOffset)
		os.Exit(2)
	}
}
