package web

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/kmehta/futspread/internal/feed"
	"github.com/kmehta/futspread/internal/model"
	"github.com/kmehta/futspread/internal/state"
)

// Config holds dashboard server settings.
type Config struct {
	Port            int
	RefreshInterval time.Duration // Browser poll interval
}

// Server is the dashboard HTTP server.
type Server struct {
	cfg      Config
	builder  *TableBuilder
	cache    *state.Cache
	streamer *feed.Streamer // nil when the feed is not running (feedtest, tests)
	logger   *slog.Logger

	httpServer *http.Server
}

// NewServer creates the dashboard server.
func NewServer(cfg Config, builder *TableBuilder, cache *state.Cache, streamer *feed.Streamer, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}

	s := &Server{
		cfg:      cfg,
		builder:  builder,
		cache:    cache,
		streamer: streamer,
		logger:   logger,
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/", s.handleIndex)
	mux.HandleFunc("/api/spreads", s.handleSpreads)
	mux.HandleFunc("/health", s.handleHealth)

	s.httpServer = &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.Port),
		Handler: mux,
	}

	return s
}

// Start begins serving in the background.
func (s *Server) Start() {
	go func() {
		s.logger.Info("dashboard server started", "port", s.cfg.Port)
		if err := s.httpServer.ListenAndServe(); err != http.ErrServerClosed {
			s.logger.Error("dashboard server error", "error", err)
		}
	}()
}

// Stop gracefully shuts the server down.
func (s *Server) Stop(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

// Handler exposes the mux for tests.
func (s *Server) Handler() http.Handler {
	return s.httpServer.Handler
}

// spreadRowJSON is the wire form of one dashboard row. Nil prices serialize
// as JSON null so the front end can render them as blanks.
type spreadRowJSON struct {
	Symbol string `json:"symbol"`

	Near string `json:"near"`
	Next string `json:"next"`
	Far  string `json:"far"`

	NearLTP *float64 `json:"near_ltp"`
	NextLTP *float64 `json:"next_ltp"`
	FarLTP  *float64 `json:"far_ltp"`

	NearBuyNextSell *float64 `json:"near_buy_next_sell"`
	NearSellNextBuy *float64 `json:"near_sell_next_buy"`
	NextBuyFarSell  *float64 `json:"next_buy_far_sell"`
	NextSellFarBuy  *float64 `json:"next_sell_far_buy"`
	NearBuyFarSell  *float64 `json:"near_buy_far_sell"`
	NearSellFarBuy  *float64 `json:"near_sell_far_buy"`

	NearBuyNextSellPct *float64 `json:"near_buy_next_sell_pct"`
	NearSellNextBuyPct *float64 `json:"near_sell_next_buy_pct"`
	NextBuyFarSellPct  *float64 `json:"next_buy_far_sell_pct"`
	NextSellFarBuyPct  *float64 `json:"next_sell_far_buy_pct"`
	NearBuyFarSellPct  *float64 `json:"near_buy_far_sell_pct"`
	NearSellFarBuyPct  *float64 `json:"near_sell_far_buy_pct"`

	LotSize       int      `json:"lot_size"`
	Margin        *float64 `json:"margin"`
	ChargesPerLot *float64 `json:"charges_per_lot"`
	CarryPerLot   *float64 `json:"carry_per_lot"`
}

func toJSON(r model.SpreadRow) spreadRowJSON {
	return spreadRowJSON{
		Symbol: r.Symbol,

		Near: r.Near.TradingSymbol,
		Next: r.Next.TradingSymbol,
		Far:  r.Far.TradingSymbol,

		NearLTP: r.Near.Quote.LTP,
		NextLTP: r.Next.Quote.LTP,
		FarLTP:  r.Far.Quote.LTP,

		NearBuyNextSell: r.NearBuyNextSell,
		NearSellNextBuy: r.NearSellNextBuy,
		NextBuyFarSell:  r.NextBuyFarSell,
		NextSellFarBuy:  r.NextSellFarBuy,
		NearBuyFarSell:  r.NearBuyFarSell,
		NearSellFarBuy:  r.NearSellFarBuy,

		NearBuyNextSellPct: r.NearBuyNextSellPct,
		NearSellNextBuyPct: r.NearSellNextBuyPct,
		NextBuyFarSellPct:  r.NextBuyFarSellPct,
		NextSellFarBuyPct:  r.NextSellFarBuyPct,
		NearBuyFarSellPct:  r.NearBuyFarSellPct,
		NearSellFarBuyPct:  r.NearSellFarBuyPct,

		LotSize:       r.LotSize,
		Margin:        r.Margin,
		ChargesPerLot: r.ChargesPerLot,
		CarryPerLot:   r.CarryPerLot,
	}
}

// handleSpreads serves the current table as JSON.
func (s *Server) handleSpreads(w http.ResponseWriter, r *http.Request) {
	rows := s.builder.BuildRows()

	out := make([]spreadRowJSON, 0, len(rows))
	for _, row := range rows {
		out = append(out, toJSON(row))
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]any{
		"updated_at": time.Now().Format("15:04:05"),
		"rows":       out,
	})
}

// handleHealth reports component health.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	health := struct {
		Status     string         `json:"status"`
		Components map[string]any `json:"components"`
	}{
		Status:     "healthy",
		Components: make(map[string]any),
	}

	instruments := s.cache.Len()
	health.Components["market_state"] = map[string]any{
		"instruments": instruments,
		"last_update": s.cache.LastUpdate(),
	}
	if instruments == 0 {
		health.Status = "degraded"
	}

	if s.streamer != nil {
		stats := s.streamer.Stats()
		health.Components["feed"] = map[string]any{
			"connected":  stats.Connected,
			"reconnects": stats.Reconnects,
			"updates":    stats.Updates,
		}
		if !stats.Connected {
			health.Status = "degraded"
		}
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(health)
}

// handleIndex serves the dashboard page.
func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		http.NotFound(w, r)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	fmt.Fprintf(w, indexHTML, s.cfg.RefreshInterval.Milliseconds())
}
