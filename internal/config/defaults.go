package config

import (
	"time"

	"github.com/google/uuid"
)

// Default values for optional configuration fields.
const (
	DefaultRestURL            = "https://api.upstox.com/v2"
	DefaultWSURL              = "wss://api.upstox.com/v3/feed/market-data-feed"
	DefaultAPITimeout         = 30 * time.Second
	DefaultMaxRetries         = 3
	DefaultInstrumentsJSON    = "instruments.json"
	DefaultUnderlyingsCSV     = "futurestockslist.csv"
	DefaultSegment            = "NSE_FO"
	DefaultInstrumentType     = "FUT"
	DefaultReconnectBaseDelay = 1 * time.Second
	DefaultReconnectMaxDelay  = 60 * time.Second
	DefaultPingTimeout        = 60 * time.Second
	DefaultWriteTimeout       = 5 * time.Second
	DefaultFeedBufferSize     = 10000
	DefaultPollInterval       = 5 * time.Minute
	DefaultPollConcurrency    = 4
	DefaultPollTimeout        = 60 * time.Second
	DefaultCostsCacheCSV      = "margin_charges_cache.csv"
	DefaultROIPercent         = 12.0
	DefaultFlushInterval      = 5 * time.Second
	DefaultDBPort             = 5432
	DefaultDBSSLMode          = "prefer"
	DefaultMaxConns           = 10
	DefaultMinConns           = 2
	DefaultServerPort         = 8051
	DefaultRefreshInterval    = 2500 * time.Millisecond
)

func (c *Config) applyDefaults() {
	// Instance defaults
	if c.Instance.ID == "" {
		c.Instance.ID = uuid.NewString()
	}

	// API defaults
	if c.API.RestURL == "" {
		c.API.RestURL = DefaultRestURL
	}
	if c.API.WSURL == "" {
		c.API.WSURL = DefaultWSURL
	}
	if c.API.Timeout == 0 {
		c.API.Timeout = DefaultAPITimeout
	}
	if c.API.MaxRetries == 0 {
		c.API.MaxRetries = DefaultMaxRetries
	}

	// Catalog defaults
	if c.Catalog.InstrumentsJSON == "" {
		c.Catalog.InstrumentsJSON = DefaultInstrumentsJSON
	}
	if c.Catalog.UnderlyingsCSV == "" {
		c.Catalog.UnderlyingsCSV = DefaultUnderlyingsCSV
	}
	if c.Catalog.Segment == "" {
		c.Catalog.Segment = DefaultSegment
	}
	if c.Catalog.InstrumentType == "" {
		c.Catalog.InstrumentType = DefaultInstrumentType
	}

	// Feed defaults
	if c.Feed.ReconnectBaseDelay == 0 {
		c.Feed.ReconnectBaseDelay = DefaultReconnectBaseDelay
	}
	if c.Feed.ReconnectMaxDelay == 0 {
		c.Feed.ReconnectMaxDelay = DefaultReconnectMaxDelay
	}
	if c.Feed.PingTimeout == 0 {
		c.Feed.PingTimeout = DefaultPingTimeout
	}
	if c.Feed.WriteTimeout == 0 {
		c.Feed.WriteTimeout = DefaultWriteTimeout
	}
	if c.Feed.BufferSize == 0 {
		c.Feed.BufferSize = DefaultFeedBufferSize
	}

	// Poller defaults
	if c.Poller.Interval == 0 {
		c.Poller.Interval = DefaultPollInterval
	}
	if c.Poller.Concurrency == 0 {
		c.Poller.Concurrency = DefaultPollConcurrency
	}
	if c.Poller.Timeout == 0 {
		c.Poller.Timeout = DefaultPollTimeout
	}

	// Costs defaults
	if c.Costs.CacheCSV == "" {
		c.Costs.CacheCSV = DefaultCostsCacheCSV
	}
	if c.Costs.ROIPercent == 0 {
		c.Costs.ROIPercent = DefaultROIPercent
	}

	// Store defaults
	if c.Store.FlushInterval == 0 {
		c.Store.FlushInterval = DefaultFlushInterval
	}
	if c.Store.Enabled {
		applyDBDefaults(&c.Store.Postgres)
	}

	// Server defaults
	if c.Server.Port == 0 {
		c.Server.Port = DefaultServerPort
	}
	if c.Server.RefreshInterval == 0 {
		c.Server.RefreshInterval = DefaultRefreshInterval
	}
}

func applyDBDefaults(db *DBConfig) {
	if db.Port == 0 {
		db.Port = DefaultDBPort
	}
	if db.SSLMode == "" {
		db.SSLMode = DefaultDBSSLMode
	}
	if db.MaxConns == 0 {
		db.MaxConns = DefaultMaxConns
	}
	if db.MinConns == 0 {
		db.MinConns = DefaultMinConns
	}
}
