package store

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/kmehta/futspread/internal/model"
)

// RowSource produces the current spread table. The web row builder
// implements it.
type RowSource interface {
	BuildRows() []model.SpreadRow
}

// Config holds snapshot store settings.
type Config struct {
	FlushInterval time.Duration
}

// SnapshotStore periodically upserts the latest spread rows.
type SnapshotStore struct {
	cfg    Config
	db     *pgxpool.Pool
	source RowSource
	logger *slog.Logger

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	mu      sync.Mutex
	metrics Metrics
}

// Metrics holds store counters.
type Metrics struct {
	Flushes int64
	Upserts int64
	Errors  int64
}

// New creates a SnapshotStore.
func New(cfg Config, db *pgxpool.Pool, source RowSource, logger *slog.Logger) *SnapshotStore {
	if logger == nil {
		logger = slog.Default()
	}
	return &SnapshotStore{
		cfg:    cfg,
		db:     db,
		source: source,
		logger: logger,
	}
}

// Start begins the periodic flush loop.
func (s *SnapshotStore) Start(ctx context.Context) error {
	s.ctx, s.cancel = context.WithCancel(ctx)

	s.wg.Add(1)
	go s.flushLoop()

	s.logger.Info("snapshot store started",
		"flush_interval", s.cfg.FlushInterval,
	)
	return nil
}

// Stop flushes once more and shuts down.
func (s *SnapshotStore) Stop(ctx context.Context) error {
	if s.cancel != nil {
		s.cancel()
	}

	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
	case <-ctx.Done():
		s.logger.Warn("snapshot store stop timed out")
		return ctx.Err()
	}

	s.flush(ctx)
	s.logger.Info("snapshot store stopped")
	return nil
}

// Stats returns current counters.
func (s *SnapshotStore) Stats() Metrics {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.metrics
}

func (s *SnapshotStore) flushLoop() {
	defer s.wg.Done()

	ticker := time.NewTicker(s.cfg.FlushInterval)
	defer ticker.Stop()

	for {
		select {
		case <-s.ctx.Done():
			return
		case <-ticker.C:
			s.flush(s.ctx)
		}
	}
}

// flush upserts the current table, one row per symbol.
func (s *SnapshotStore) flush(ctx context.Context) {
	rows := s.source.BuildRows()
	if len(rows) == 0 {
		return
	}

	start := time.Now()

	batch := &pgx.Batch{}
	for _, r := range rows {
		batch.Queue(`
			INSERT INTO spread_latest (
				symbol, near_symbol, next_symbol, far_symbol,
				near_bid, near_ask, near_ltp,
				next_bid, next_ask, next_ltp,
				far_bid, far_ask, far_ltp,
				near_buy_next_sell, near_sell_next_buy,
				next_buy_far_sell, next_sell_far_buy,
				near_buy_far_sell, near_sell_far_buy,
				updated_at
			)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19, now())
			ON CONFLICT (symbol) DO UPDATE SET
				near_symbol = EXCLUDED.near_symbol,
				next_symbol = EXCLUDED.next_symbol,
				far_symbol = EXCLUDED.far_symbol,
				near_bid = EXCLUDED.near_bid,
				near_ask = EXCLUDED.near_ask,
				near_ltp = EXCLUDED.near_ltp,
				next_bid = EXCLUDED.next_bid,
				next_ask = EXCLUDED.next_ask,
				next_ltp = EXCLUDED.next_ltp,
				far_bid = EXCLUDED.far_bid,
				far_ask = EXCLUDED.far_ask,
				far_ltp = EXCLUDED.far_ltp,
				near_buy_next_sell = EXCLUDED.near_buy_next_sell,
				near_sell_next_buy = EXCLUDED.near_sell_next_buy,
				next_buy_far_sell = EXCLUDED.next_buy_far_sell,
				next_sell_far_buy = EXCLUDED.next_sell_far_buy,
				near_buy_far_sell = EXCLUDED.near_buy_far_sell,
				near_sell_far_buy = EXCLUDED.near_sell_far_buy,
				updated_at = now()
		`,
			r.Symbol, r.Near.TradingSymbol, r.Next.TradingSymbol, r.Far.TradingSymbol,
			r.Near.Quote.Bid, r.Near.Quote.Ask, r.Near.Quote.LTP,
			r.Next.Quote.Bid, r.Next.Quote.Ask, r.Next.Quote.LTP,
			r.Far.Quote.Bid, r.Far.Quote.Ask, r.Far.Quote.LTP,
			r.NearBuyNextSell, r.NearSellNextBuy,
			r.NextBuyFarSell, r.NextSellFarBuy,
			r.NearBuyFarSell, r.NearSellFarBuy,
		)
	}

	results := s.db.SendBatch(ctx, batch)
	var execErr error
	for range rows {
		if _, err := results.Exec(); err != nil {
			execErr = err
			break
		}
	}
	results.Close()

	s.mu.Lock()
	if execErr != nil {
		s.metrics.Errors++
	} else {
		s.metrics.Upserts += int64(len(rows))
		s.metrics.Flushes++
	}
	s.mu.Unlock()

	if execErr != nil {
		s.logger.Error("snapshot flush failed", "error", execErr, "rows", len(rows))
		return
	}

	s.logger.Debug("flushed snapshot",
		"rows", len(rows),
		"duration", time.Since(start),
	)
}
