// feedtest connects to the broker streaming feed and prints decoded updates
// to the console. Usage: go run ./cmd/feedtest --config configs/dashboard.yaml
//
// Requires ACCESS_TOKEN in the environment or a .env file.
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/kmehta/futspread/internal/catalog"
	"github.com/kmehta/futspread/internal/config"
	"github.com/kmehta/futspread/internal/feed"
)

// printSink prints every update instead of caching it.
type printSink struct {
	verbose bool
}

func (p *printSink) Update(key string, bid, ask, ltp *float64) {
	if !p.verbose {
		return
	}
	fmt.Printf("%-30s bid=%s ask=%s ltp=%s\n", key, fmtPrice(bid), fmtPrice(ask), fmtPrice(ltp))
}

func fmtPrice(v *float64) string {
	if v == nil {
		return "-"
	}
	return fmt.Sprintf("%.2f", *v)
}

func main() {
	configPath := flag.String("config", "configs/dashboard.yaml", "path to config file")
	verbose := flag.Bool("verbose", true, "print every update")
	flag.Parse()

	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelDebug,
	}))
	slog.SetDefault(logger)

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
		<-sigCh
		logger.Info("received shutdown signal")
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

	keys := cat.SubscribeKeys(underlyings)
	logger.Info("subscribing", "keys", len(keys))

	streamerCfg := feed.DefaultStreamerConfig()
	streamerCfg.URL = cfg.API.WSURL
	streamerCfg.AccessToken = cfg.API.AccessToken

	streamer := feed.NewStreamer(streamerCfg, keys, &printSink{verbose: *verbose}, logger)
	if err := streamer.Start(ctx); err != nil {
		logger.Error("failed to start streamer", "error", err)
		os.Exit(1)
	}

	<-ctx.Done()
	logger.Info("feedtest stopped")
}
