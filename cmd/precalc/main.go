// Command precalc fetches spread margin, round-trip brokerage and cost of
// carry for every tracked underlying and writes the CSV cache consumed by
// the dashboard. Run it once a day before market open.
package main

import (
	"context"
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/kmehta/futspread/internal/api"
	"github.com/kmehta/futspread/internal/catalog"
	"github.com/kmehta/futspread/internal/config"
	"github.com/kmehta/futspread/internal/costs"
	"github.com/kmehta/futspread/internal/version"
)

func main() {
	configPath := flag.String("config", "configs/dashboard.yaml", "path to config file")
	flag.Parse()

	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
	slog.SetDefault(logger)

	logger.Info("starting precalc",
		"version", version.Version,
		"config", *configPath,
	)

	if err := godotenv.Load(); err != nil {
		logger.Debug("no .env file loaded", "err", err)
	}

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

	instruments, err := catalog.LoadInstruments(cfg.Catalog.InstrumentsJSON)
	if err != nil {
		logger.Error("failed to load instruments", "error", err)
		os.Exit(1)
	}

	cat := catalog.New(catalog.Config{
		Segment:        cfg.Catalog.Segment,
		InstrumentType: cfg.Catalog.InstrumentType,
	}, instruments)

	underlyings, err := catalog.LoadUnderlyings(cfg.Catalog.UnderlyingsCSV)
	if err != nil {
		logger.Error("failed to load underlyings", "error", err)
		os.Exit(1)
	}

	apiClient := api.NewClient(
		cfg.API.RestURL,
		cfg.API.AccessToken,
		api.WithLogger(logger),
		api.WithTimeout(cfg.API.Timeout),
		api.WithRetries(cfg.API.MaxRetries, time.Second),
	)

	precalcCfg := costs.DefaultPrecalcConfig()
	precalcCfg.ROIPercent = cfg.Costs.ROIPercent

	start := time.Now()
	logger.Info("calculating margin, charges and carry",
		"underlyings", len(underlyings),
	)

	rows, err := costs.Precalc(ctx, precalcCfg, apiClient, cat, underlyings, logger)
	if err != nil {
		logger.Error("precalc interrupted", "error", err, "rows_done", len(rows))
	}

	if len(rows) == 0 {
		logger.Error("no rows calculated, cache not written")
		os.Exit(1)
	}

	if err := costs.WriteCache(cfg.Costs.CacheCSV, rows); err != nil {
		logger.Error("failed to write cache", "error", err)
		os.Exit(1)
	}

	logger.Info("precalc complete",
		"rows", len(rows),
		"path", cfg.Costs.CacheCSV,
		"duration", time.Since(start),
	)
}
