package feed

import (
	"errors"
	"time"
)

// Errors
var (
	ErrNotConnected    = errors.New("not connected")
	ErrStaleConnection = errors.New("connection stale (no ping)")
	ErrAlreadyClosed   = errors.New("already closed")
)

// TimestampedMessage wraps raw message data with the receive timestamp.
type TimestampedMessage struct {
	Data       []byte    // Raw message bytes from WebSocket
	ReceivedAt time.Time // Local timestamp when ReadMessage() returned
}

// subscribeCommand is the wire format for a feed subscription request.
type subscribeCommand struct {
	GUID   string        `json:"guid"`
	Method string        `json:"method"` // "sub"
	Data   subscribeData `json:"data"`
}

type subscribeData struct {
	Mode           string   `json:"mode"` // "full" - includes depth
	InstrumentKeys []string `json:"instrumentKeys"`
}

// liveFeedWire is the wire format of a live_feed data message. Messages of
// other types (market_info etc.) are skipped by the streamer.
type liveFeedWire struct {
	Type  string                 `json:"type"`
	Feeds map[string]feedPayload `json:"feeds"`
}

type feedPayload struct {
	FullFeed struct {
		MarketFF struct {
			LTPC struct {
				LTP *float64 `json:"ltp"`
			} `json:"ltpc"`
			MarketLevel struct {
				BidAskQuote []struct {
					BidP *float64 `json:"bidP"`
					AskP *float64 `json:"askP"`
				} `json:"bidAskQuote"`
			} `json:"marketLevel"`
		} `json:"marketFF"`
	} `json:"fullFeed"`
}

// Update is one decoded instrument update from a live_feed message.
type Update struct {
	InstrumentKey string
	Bid           *float64
	Ask           *float64
	LTP           *float64
	ReceivedAt    time.Time
}

// ClientConfig configures a WebSocket client.
type ClientConfig struct {
	URL          string        // Streaming endpoint
	AccessToken  string        // Bearer token for the handshake
	PingTimeout  time.Duration // Max time without ping before the connection is stale
	WriteTimeout time.Duration // Write deadline for sends
	BufferSize   int           // Message channel buffer size
}

// DefaultClientConfig returns sensible defaults.
func DefaultClientConfig() ClientConfig {
	return ClientConfig{
		PingTimeout:  60 * time.Second,
		WriteTimeout: 5 * time.Second,
		BufferSize:   10000,
	}
}

// StreamerConfig configures the feed streamer.
type StreamerConfig struct {
	URL               string
	AccessToken       string
	ReconnectBaseWait time.Duration // Base wait before reconnecting
	ReconnectMaxWait  time.Duration // Cap on reconnect wait
	PingTimeout       time.Duration
	WriteTimeout      time.Duration
	BufferSize        int
}

// DefaultStreamerConfig returns sensible defaults.
func DefaultStreamerConfig() StreamerConfig {
	return StreamerConfig{
		ReconnectBaseWait: 1 * time.Second,
		ReconnectMaxWait:  60 * time.Second,
		PingTimeout:       60 * time.Second,
		WriteTimeout:      5 * time.Second,
		BufferSize:        10000,
	}
}
