// Command listgen regenerates the tracked-underlyings CSV from the broker
// instrument snapshot: it finds the nearest monthly expiry via a reference
// symbol's futures chain, collects every stock future expiring then, drops
// the index symbols, and writes the sorted list. Run it after each monthly
// rollover, before precalc.
package main

import (
	"flag"
	"log/slog"
	"os"
	"time"

	"github.com/kmehta/futspread/internal/catalog"
	"github.com/kmehta/futspread/internal/config"
	"github.com/kmehta/futspread/internal/version"
)

func main() {
	configPath := flag.String("config", "configs/dashboard.yaml", "path to config file")
	refSymbol := flag.String("ref", "RELIANCE", "reference symbol whose futures define the nearest expiry")
	flag.Parse()

	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
	slog.SetDefault(logger)

	logger.Info("starting listgen",
		"version", version.Version,
		"config", *configPath,
		"ref", *refSymbol,
	)

	cfg, err := config.LoadWithDefaults(*configPath)
	if err != nil {
		logger.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	instruments, err := catalog.LoadInstruments(cfg.Catalog.InstrumentsJSON)
	if err != nil {
		logger.Error("failed to load instruments", "error", err)
		os.Exit(1)
	}

	catCfg := catalog.Config{
		Segment:        cfg.Catalog.Segment,
		InstrumentType: cfg.Catalog.InstrumentType,
	}

	expiry := catalog.NearestExpiry(instruments, catCfg, *refSymbol, time.Now().UnixMilli())
	if expiry == 0 {
		logger.Error("no future expiry found for reference symbol",
			"ref", *refSymbol,
			"segment", catCfg.Segment,
		)
		os.Exit(1)
	}

	symbols := catalog.UnderlyingsForExpiry(instruments, catCfg, expiry, catalog.IndexSymbols)
	if len(symbols) == 0 {
		logger.Error("no stock futures found for expiry", "expiry", expiry)
		os.Exit(1)
	}

	if err := catalog.WriteUnderlyingsCSV(cfg.Catalog.UnderlyingsCSV, symbols); err != nil {
		logger.Error("failed to write underlyings csv", "error", err)
		os.Exit(1)
	}

	logger.Info("underlyings list written",
		"path", cfg.Catalog.UnderlyingsCSV,
		"symbols", len(symbols),
		"expiry", time.UnixMilli(expiry).Format("2006-01-02"),
	)
}
