package feed

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"math"
	"sync"
	"time"

	"github.com/google/uuid"
)

// QuoteSink receives decoded feed updates. The state cache implements it.
type QuoteSink interface {
	Update(key string, bid, ask, ltp *float64)
}

// Streamer owns the feed connection lifecycle: connect, subscribe, decode,
// reconnect. Decoded updates are applied to the sink synchronously in the
// receive loop; the feed rate is the only bound.
type Streamer struct {
	cfg    StreamerConfig
	keys   []string
	sink   QuoteSink
	logger *slog.Logger

	// newClient is swapped in tests.
	newClient func(ClientConfig, *slog.Logger) Client

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	mu         sync.RWMutex
	connected  bool
	reconnects int64
	updates    int64
}

// StreamerStats is a snapshot of streamer counters.
type StreamerStats struct {
	Connected  bool
	Reconnects int64
	Updates    int64
}

// NewStreamer creates a feed streamer for the given subscribe keys.
func NewStreamer(cfg StreamerConfig, keys []string, sink QuoteSink, logger *slog.Logger) *Streamer {
	if logger == nil {
		logger = slog.Default()
	}
	return &Streamer{
		cfg:       cfg,
		keys:      keys,
		sink:      sink,
		logger:    logger,
		newClient: NewClient,
	}
}

// Start launches the connect/reconnect loop in the background.
func (s *Streamer) Start(ctx context.Context) error {
	if len(s.keys) == 0 {
		return fmt.Errorf("no instrument keys to subscribe")
	}

	s.ctx, s.cancel = context.WithCancel(ctx)

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		s.runLoop()
	}()

	s.logger.Info("feed streamer started",
		"url", s.cfg.URL,
		"keys", len(s.keys),
	)
	return nil
}

// Stop shuts the streamer down.
func (s *Streamer) Stop(ctx context.Context) error {
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
		s.logger.Info("feed streamer stopped")
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Stats returns current counters.
func (s *Streamer) Stats() StreamerStats {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return StreamerStats{
		Connected:  s.connected,
		Reconnects: s.reconnects,
		Updates:    s.updates,
	}
}

// runLoop maintains one live connection, reconnecting with exponential
// backoff until the context is cancelled.
func (s *Streamer) runLoop() {
	attempt := 0

	for {
		if s.ctx.Err() != nil {
			return
		}

		if attempt > 0 {
			wait := s.backoff(attempt)
			s.logger.Info("reconnecting feed",
				"attempt", attempt,
				"wait", wait,
			)
			select {
			case <-s.ctx.Done():
				return
			case <-time.After(wait):
			}

			s.mu.Lock()
			s.reconnects++
			s.mu.Unlock()
		}
		attempt++

		subscribed, err := s.runOnce()
		if subscribed {
			// The session got past subscribe; the next disconnect starts
			// over from the base wait instead of inheriting this streak.
			attempt = 1
		}
		if err != nil {
			s.logger.Warn("feed connection ended", "err", err)
			continue
		}

		// Clean shutdown.
		return
	}
}

// runOnce connects, subscribes, and consumes messages until the connection
// fails or the context is cancelled. The bool reports whether the session
// reached the subscribed state.
func (s *Streamer) runOnce() (bool, error) {
	client := s.newClient(ClientConfig{
		URL:          s.cfg.URL,
		AccessToken:  s.cfg.AccessToken,
		PingTimeout:  s.cfg.PingTimeout,
		WriteTimeout: s.cfg.WriteTimeout,
		BufferSize:   s.cfg.BufferSize,
	}, s.logger)

	if err := client.Connect(s.ctx); err != nil {
		return false, fmt.Errorf("connect: %w", err)
	}
	defer client.Close()

	if err := s.subscribe(client); err != nil {
		return false, fmt.Errorf("subscribe: %w", err)
	}

	s.setConnected(true)
	defer s.setConnected(false)

	s.logger.Info("feed connected and subscribed", "keys", len(s.keys))

	for {
		select {
		case <-s.ctx.Done():
			return true, nil
		case err := <-client.Errors():
			return true, err
		case msg, ok := <-client.Messages():
			if !ok {
				return true, ErrNotConnected
			}
			s.handleMessage(msg)
		}
	}
}

// subscribe sends the full-mode subscription command.
func (s *Streamer) subscribe(client Client) error {
	cmd := subscribeCommand{
		GUID:   uuid.NewString(),
		Method: "sub",
		Data: subscribeData{
			Mode:           "full",
			InstrumentKeys: s.keys,
		},
	}

	data, err := json.Marshal(cmd)
	if err != nil {
		return fmt.Errorf("marshal subscribe: %w", err)
	}

	return client.Send(data)
}

// handleMessage decodes one raw feed message and applies its updates.
func (s *Streamer) handleMessage(msg TimestampedMessage) {
	updates, err := DecodeLiveFeed(msg)
	if err != nil {
		s.logger.Warn("failed to decode feed message", "err", err)
		return
	}

	for _, u := range updates {
		s.sink.Update(u.InstrumentKey, u.Bid, u.Ask, u.LTP)
	}

	if len(updates) > 0 {
		s.mu.Lock()
		s.updates += int64(len(updates))
		s.mu.Unlock()
	}
}

// DecodeLiveFeed parses a raw feed message into per-instrument updates.
// Non-live_feed messages (market_info etc.) yield no updates and no error.
func DecodeLiveFeed(msg TimestampedMessage) ([]Update, error) {
	var wire liveFeedWire
	if err := json.Unmarshal(msg.Data, &wire); err != nil {
		return nil, err
	}

	if wire.Type != "live_feed" {
		return nil, nil
	}

	updates := make([]Update, 0, len(wire.Feeds))
	for key, payload := range wire.Feeds {
		ff := payload.FullFeed.MarketFF

		u := Update{
			InstrumentKey: key,
			LTP:           ff.LTPC.LTP,
			ReceivedAt:    msg.ReceivedAt,
		}
		if len(ff.MarketLevel.BidAskQuote) > 0 {
			u.Bid = ff.MarketLevel.BidAskQuote[0].BidP
			u.Ask = ff.MarketLevel.BidAskQuote[0].AskP
		}
		updates = append(updates, u)
	}

	return updates, nil
}

func (s *Streamer) setConnected(v bool) {
	s.mu.Lock()
	s.connected = v
	s.mu.Unlock()
}

// backoff returns the reconnect wait for the given attempt, capped.
func (s *Streamer) backoff(attempt int) time.Duration {
	base := float64(s.cfg.ReconnectBaseWait)
	wait := base * math.Pow(2, float64(attempt-1))
	if max := float64(s.cfg.ReconnectMaxWait); wait > max {
		wait = max
	}
	return time.Duration(wait)
}
