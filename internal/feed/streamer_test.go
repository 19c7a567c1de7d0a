package feed

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"testing"
	"time"
)

func TestDecodeLiveFeed(t *testing.T) {
	raw := `{
		"type": "live_feed",
		"feeds": {
			"NSE_FO|53179": {
				"fullFeed": {
					"marketFF": {
						"ltpc": {"ltp": 2855.4},
						"marketLevel": {
							"bidAskQuote": [
								{"bidP": 2855.1, "askP": 2855.8},
								{"bidP": 2854.9, "askP": 2856.0}
							]
						}
					}
				}
			}
		}
	}`

	now := time.Now()
	updates, err := DecodeLiveFeed(TimestampedMessage{Data: []byte(raw), ReceivedAt: now})
	if err != nil {
		t.Fatalf("DecodeLiveFeed failed: %v", err)
	}
	if len(updates) != 1 {
		t.Fatalf("len(updates) = %d, want 1", len(updates))
	}

	u := updates[0]
	if u.InstrumentKey != "NSE_FO|53179" {
		t.Errorf("InstrumentKey = %q", u.InstrumentKey)
	}
	if u.Bid == nil || *u.Bid != 2855.1 {
		t.Errorf("Bid = %v, want top-of-book 2855.1", u.Bid)
	}
	if u.Ask == nil || *u.Ask != 2855.8 {
		t.Errorf("Ask = %v, want 2855.8", u.Ask)
	}
	if u.LTP == nil || *u.LTP != 2855.4 {
		t.Errorf("LTP = %v, want 2855.4", u.LTP)
	}
	if !u.ReceivedAt.Equal(now) {
		t.Error("ReceivedAt not carried through")
	}
}

func TestDecodeLiveFeed_MissingDepth(t *testing.T) {
	raw := `{
		"type": "live_feed",
		"feeds": {
			"NSE_FO|1": {
				"fullFeed": {"marketFF": {"ltpc": {"ltp": 100.5}}}
			}
		}
	}`

	updates, err := DecodeLiveFeed(TimestampedMessage{Data: []byte(raw)})
	if err != nil {
		t.Fatalf("DecodeLiveFeed failed: %v", err)
	}
	if len(updates) != 1 {
		t.Fatalf("len(updates) = %d, want 1", len(updates))
	}

	u := updates[0]
	if u.Bid != nil || u.Ask != nil {
		t.Errorf("bid/ask = %v/%v, want nil without depth", u.Bid, u.Ask)
	}
	if u.LTP == nil || *u.LTP != 100.5 {
		t.Errorf("LTP = %v, want 100.5", u.LTP)
	}
}

func TestDecodeLiveFeed_OtherMessageType(t *testing.T) {
	raw := `{"type": "market_info", "marketInfo": {"segmentStatus": {"NSE_FO": "NORMAL_OPEN"}}}`

	updates, err := DecodeLiveFeed(TimestampedMessage{Data: []byte(raw)})
	if err != nil {
		t.Fatalf("DecodeLiveFeed failed: %v", err)
	}
	if updates != nil {
		t.Errorf("updates = %v, want nil for non-live_feed message", updates)
	}
}

func TestDecodeLiveFeed_InvalidJSON(t *testing.T) {
	if _, err := DecodeLiveFeed(TimestampedMessage{Data: []byte("{not json")}); err == nil {
		t.Fatal("expected error for invalid JSON")
	}
}

func TestStreamerBackoff(t *testing.T) {
	s := &Streamer{cfg: StreamerConfig{
		ReconnectBaseWait: 1 * time.Second,
		ReconnectMaxWait:  8 * time.Second,
	}}

	tests := []struct {
		attempt int
		want    time.Duration
	}{
		{1, 1 * time.Second},
		{2, 2 * time.Second},
		{3, 4 * time.Second},
		{4, 8 * time.Second},
		{10, 8 * time.Second}, // capped
	}

	for _, tt := range tests {
		if got := s.backoff(tt.attempt); got != tt.want {
			t.Errorf("backoff(%d) = %v, want %v", tt.attempt, got, tt.want)
		}
	}
}

type captureSink struct {
	keys []string
	ltps []*float64
}

func (c *captureSink) Update(key string, bid, ask, ltp *float64) {
	c.keys = append(c.keys, key)
	c.ltps = append(c.ltps, ltp)
}

func TestHandleMessage_AppliesToSink(t *testing.T) {
	sink := &captureSink{}
	s := NewStreamer(DefaultStreamerConfig(), []string{"NSE_FO|1"}, sink, nil)

	raw := `{
		"type": "live_feed",
		"feeds": {
			"NSE_FO|1": {"fullFeed": {"marketFF": {"ltpc": {"ltp": 42.5}}}}
		}
	}`
	s.handleMessage(TimestampedMessage{Data: []byte(raw), ReceivedAt: time.Now()})

	if len(sink.keys) != 1 || sink.keys[0] != "NSE_FO|1" {
		t.Fatalf("sink keys = %v, want [NSE_FO|1]", sink.keys)
	}
	if sink.ltps[0] == nil || *sink.ltps[0] != 42.5 {
		t.Errorf("ltp = %v, want 42.5", sink.ltps[0])
	}
	if got := s.Stats().Updates; got != 1 {
		t.Errorf("Updates = %d, want 1", got)
	}
}

func TestHandleMessage_BadMessageIgnored(t *testing.T) {
	sink := &captureSink{}
	s := NewStreamer(DefaultStreamerConfig(), []string{"K"}, sink, nil)

	s.handleMessage(TimestampedMessage{Data: []byte("garbage")})

	if len(sink.keys) != 0 {
		t.Errorf("sink received %d updates from a bad message, want 0", len(sink.keys))
	}
}

func TestStreamerStart_NoKeys(t *testing.T) {
	s := NewStreamer(DefaultStreamerConfig(), nil, &captureSink{}, nil)
	if err := s.Start(context.Background()); err == nil {
		t.Fatal("expected error starting with no keys")
	}
}

// fakeFeedClient connects successfully, accepts the subscribe, then drops
// the connection after healthyFor.
type fakeFeedClient struct {
	healthyFor time.Duration
	messages   chan TimestampedMessage
	errors     chan error
}

func (f *fakeFeedClient) Connect(ctx context.Context) error {
	go func() {
		select {
		case <-ctx.Done():
		case <-time.After(f.healthyFor):
			f.errors <- errors.New("connection dropped")
		}
	}()
	return nil
}

func (f *fakeFeedClient) Close() error { return nil }

func (f *fakeFeedClient) Send(data []byte) error { return nil }

func (f *fakeFeedClient) Messages() <-chan TimestampedMessage { return f.messages }

func (f *fakeFeedClient) Errors() <-chan error { return f.errors }

func (f *fakeFeedClient) IsConnected() bool { return true }

// A run of sessions that each subscribe fine and stay up for a while must not
// keep escalating the reconnect wait toward the cap; each healthy session
// resets the backoff to the base wait.
func TestStreamer_BackoffResetsAfterHealthySession(t *testing.T) {
	cfg := DefaultStreamerConfig()
	cfg.ReconnectBaseWait = 10 * time.Millisecond
	cfg.ReconnectMaxWait = time.Second

	var mu sync.Mutex
	var connects []time.Time

	s := NewStreamer(cfg, []string{"NSE_FO|1"}, &captureSink{}, nil)
	s.newClient = func(_ ClientConfig, _ *slog.Logger) Client {
		mu.Lock()
		connects = append(connects, time.Now())
		mu.Unlock()
		return &fakeFeedClient{
			healthyFor: 25 * time.Millisecond,
			messages:   make(chan TimestampedMessage),
			errors:     make(chan error, 1),
		}
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	if err := s.Start(ctx); err != nil {
		t.Fatalf("Start failed: %v", err)
	}

	deadline := time.After(3 * time.Second)
	for {
		mu.Lock()
		n := len(connects)
		mu.Unlock()
		if n >= 7 {
			break
		}
		select {
		case <-deadline:
			t.Fatalf("only %d connections before deadline", n)
		case <-time.After(5 * time.Millisecond):
		}
	}
	cancel()

	stopCtx, stopCancel := context.WithTimeout(context.Background(), time.Second)
	defer stopCancel()
	if err := s.Stop(stopCtx); err != nil {
		t.Fatalf("Stop failed: %v", err)
	}

	// Each gap is roughly healthyFor + base wait (~35ms). If the wait kept
	// doubling across healthy sessions it would pass 250ms by the sixth gap.
	mu.Lock()
	defer mu.Unlock()
	for i := 1; i < 7; i++ {
		gap := connects[i].Sub(connects[i-1])
		if gap > 250*time.Millisecond {
			t.Errorf("reconnect %d waited %v; backoff escalated despite healthy sessions", i, gap)
		}
	}
}
