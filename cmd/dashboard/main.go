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
	"github.com/kmehta/futspread/internal/feed"
	"github.com/kmehta/futspread/internal/poller"
	"github.com/kmehta/futspread/internal/state"
	"github.com/kmehta/futspread/internal/store"
	"github.com/kmehta/futspread/internal/version"
	"github.com/kmehta/futspread/internal/web"
)

func main() {
	configPath := flag.String("config", "configs/dashboard.yaml", "path to config file")
	flag.Parse()

	// Set up structured logging
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelDebug,
	}))
	slog.SetDefault(logger)

	logger.Info("starting dashboard",
		"version", version.Version,
		"commit", version.Commit,
		"config", *configPath,
	)

	// .env is optional; the access token may come from the real environment.
	if err := godotenv.Load(); err != nil {
		logger.Debug("no .env file loaded", "err", err)
	}

	cfg, err := config.LoadAndValidate(*configPath)
	if err != nil {
		logger.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger.Info("configuration loaded",
		"instance_id", cfg.Instance.ID,
		"api_url", cfg.API.RestURL,
	)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		logger.Info("received shutdown signal", "signal", sig)
		cancel()
	}()

	// Load the instrument catalog and tracked underlyings.
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

	subscribeKeys := cat.SubscribeKeys(underlyings)
	logger.Info("catalog loaded",
		"contracts", cat.Len(),
		"underlyings", len(underlyings),
		"subscribe_keys", len(subscribeKeys),
	)

	// Load the precalculated costs cache if present.
	costsCache, err := costs.LoadCache(cfg.Costs.CacheCSV)
	if err != nil {
		logger.Warn("costs cache unavailable, margin columns will be empty",
			"path", cfg.Costs.CacheCSV,
			"err", err,
		)
	} else {
		if age := costsCache.Age(time.Now()); age > costs.MaxCacheAge {
			logger.Warn("costs cache is stale, consider re-running precalc",
				"age", age,
			)
		}
		logger.Info("costs cache loaded", "symbols", costsCache.Len())
	}

	cache := state.NewCache()

	apiClient := api.NewClient(
		cfg.API.RestURL,
		cfg.API.AccessToken,
		api.WithLogger(logger),
		api.WithTimeout(cfg.API.Timeout),
		api.WithRetries(cfg.API.MaxRetries, time.Second),
	)

	// Blocking initial poll so the first render has data.
	quotePoller := poller.New(poller.Config{
		Interval:    cfg.Poller.Interval,
		Concurrency: cfg.Poller.Concurrency,
		Timeout:     cfg.Poller.Timeout,
	}, apiClient, subscribeKeys, cache, logger)

	logger.Info("performing initial quote poll", "keys", len(subscribeKeys))
	if err := quotePoller.PollOnce(ctx); err != nil {
		logger.Warn("initial poll incomplete", "err", err)
	}

	if err := quotePoller.Start(ctx); err != nil {
		logger.Error("failed to start poller", "error", err)
		os.Exit(1)
	}
	defer stopComponent(quotePoller.Stop, logger, "poller")

	// Live feed.
	streamerCfg := feed.DefaultStreamerConfig()
	streamerCfg.URL = cfg.API.WSURL
	streamerCfg.AccessToken = cfg.API.AccessToken
	streamerCfg.ReconnectBaseWait = cfg.Feed.ReconnectBaseDelay
	streamerCfg.ReconnectMaxWait = cfg.Feed.ReconnectMaxDelay
	streamerCfg.PingTimeout = cfg.Feed.PingTimeout
	streamerCfg.WriteTimeout = cfg.Feed.WriteTimeout
	streamerCfg.BufferSize = cfg.Feed.BufferSize

	streamer := feed.NewStreamer(streamerCfg, subscribeKeys, cache, logger)
	if err := streamer.Start(ctx); err != nil {
		logger.Error("failed to start feed streamer", "error", err)
		os.Exit(1)
	}
	defer stopComponent(streamer.Stop, logger, "streamer")

	builder := web.NewTableBuilder(underlyings, cat, cache, costsCache)

	// Optional latest-snapshot store.
	if cfg.Store.Enabled {
		pool, err := store.Connect(ctx, cfg.Store.Postgres)
		if err != nil {
			logger.Error("failed to connect to database", "error", err)
			os.Exit(1)
		}
		defer pool.Close()

		snapStore := store.New(store.Config{
			FlushInterval: cfg.Store.FlushInterval,
		}, pool, builder, logger)

		if err := snapStore.Start(ctx); err != nil {
			logger.Error("failed to start snapshot store", "error", err)
			os.Exit(1)
		}
		defer stopComponent(snapStore.Stop, logger, "snapshot store")

		logger.Info("snapshot store enabled")
	}

	server := web.NewServer(web.Config{
		Port:            cfg.Server.Port,
		RefreshInterval: cfg.Server.RefreshInterval,
	}, builder, cache, streamer, logger)
	server.Start()

	logger.Info("dashboard running",
		"instance_id", cfg.Instance.ID,
		"port", cfg.Server.Port,
	)

	<-ctx.Done()

	logger.Info("shutting down...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	server.Stop(shutdownCtx)

	logger.Info("dashboard stopped")
}

// stopComponent runs a Stop func with a bounded timeout.
func stopComponent(stop func(context.Context) error, logger *slog.Logger, name string) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := stop(ctx); err != nil {
		logger.Warn("component stop failed", "component", name, "err", err)
	}
}
