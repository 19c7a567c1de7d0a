// Package poller implements the REST quote poller.
//
// The poller:
//   - Performs a blocking initial poll at startup so the dashboard has data
//     before the feed warms up
//   - Re-polls on a fixed interval as a backstop for missed feed updates
//   - Batches instrument keys per request with bounded concurrency
//   - Treats failed batches as "no data" and keeps going
package poller

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/kmehta/futspread/internal/api"
)

// QuoteSink receives polled quotes. The state cache implements it.
type QuoteSink interface {
	Update(key string, bid, ask, ltp *float64)
}

// Config holds poller configuration.
type Config struct {
	Interval    time.Duration // Re-poll interval (0 disables periodic polling)
	Concurrency int           // Max concurrent batch requests
	Timeout     time.Duration // Per-cycle timeout
}

// DefaultConfig returns sensible defaults.
func DefaultConfig() Config {
	return Config{
		Interval:    5 * time.Minute,
		Concurrency: 4,
		Timeout:     60 * time.Second,
	}
}

// Poller fetches quotes over REST and writes them into the sink.
type Poller struct {
	cfg    Config
	client *api.Client
	keys   []string
	sink   QuoteSink
	logger *slog.Logger

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// New creates a new Poller for the given instrument keys.
func New(cfg Config, client *api.Client, keys []string, sink QuoteSink, logger *slog.Logger) *Poller {
	if logger == nil {
		logger = slog.Default()
	}
	return &Poller{
		cfg:    cfg,
		client: client,
		keys:   keys,
		sink:   sink,
		logger: logger,
	}
}

// PollOnce fetches all keys once, blocking. Used for the startup poll.
func (p *Poller) PollOnce(ctx context.Context) error {
	start := time.Now()

	if p.cfg.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, p.cfg.Timeout)
		defer cancel()
	}

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(p.cfg.Concurrency)

	var mu sync.Mutex
	var fetched int

	for i := 0; i < len(p.keys); i += api.MaxKeysPerQuoteRequest {
		end := i + api.MaxKeysPerQuoteRequest
		if end > len(p.keys) {
			end = len(p.keys)
		}
		batch := p.keys[i:end]

		g.Go(func() error {
			quotes, err := p.client.GetQuotes(ctx, batch)
			if err != nil {
				// No data for this batch; the next cycle retries.
				p.logger.Warn("quote batch failed",
					"batch_size", len(batch),
					"err", err,
				)
				return nil
			}

			for key, q := range quotes {
				bid, ask, ltp := q.TopOfBook()
				p.sink.Update(q.CacheKey(key), bid, ask, ltp)
			}

			mu.Lock()
			fetched += len(quotes)
			mu.Unlock()
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return err
	}

	p.logger.Info("poll cycle complete",
		"keys", len(p.keys),
		"fetched", fetched,
		"duration", time.Since(start),
	)
	return nil
}

// Start begins the periodic polling loop.
func (p *Poller) Start(ctx context.Context) error {
	p.ctx, p.cancel = context.WithCancel(ctx)

	if p.cfg.Interval <= 0 {
		p.logger.Info("periodic polling disabled")
		return nil
	}

	p.wg.Add(1)
	go p.run()

	p.logger.Info("quote poller started",
		"interval", p.cfg.Interval,
		"concurrency", p.cfg.Concurrency,
		"keys", len(p.keys),
	)
	return nil
}

// Stop gracefully shuts down the poller.
func (p *Poller) Stop(ctx context.Context) error {
	if p.cancel != nil {
		p.cancel()
	}

	done := make(chan struct{})
	go func() {
		p.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		p.logger.Info("quote poller stopped")
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// run is the periodic polling loop.
func (p *Poller) run() {
	defer p.wg.Done()

	ticker := time.NewTicker(p.cfg.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-p.ctx.Done():
			return
		case <-ticker.C:
			if err := p.PollOnce(p.ctx); err != nil {
				p.logger.Warn("periodic poll failed", "err", err)
			}
		}
	}
}
