package config

import "time"

// Config is the root configuration for a futspread instance.
type Config struct {
	Instance InstanceConfig `yaml:"instance"`
	API      APIConfig      `yaml:"api"`
	Catalog  CatalogConfig  `yaml:"catalog"`
	Feed     FeedConfig     `yaml:"feed"`
	Poller   PollerConfig   `yaml:"poller"`
	Costs    CostsConfig    `yaml:"costs"`
	Store    StoreConfig    `yaml:"store"`
	Server   ServerConfig   `yaml:"server"`
}

// InstanceConfig identifies this process.
type InstanceConfig struct {
	ID string `yaml:"id"`
}

// APIConfig holds broker API settings.
type APIConfig struct {
	RestURL     string        `yaml:"rest_url"`
	WSURL       string        `yaml:"ws_url"`
	AccessToken string        `yaml:"access_token"` // Usually ${ACCESS_TOKEN}
	Timeout     time.Duration `yaml:"timeout"`
	MaxRetries  int           `yaml:"max_retries"`
}

// CatalogConfig holds instrument catalog settings.
type CatalogConfig struct {
	InstrumentsJSON string `yaml:"instruments_json"`
	UnderlyingsCSV  string `yaml:"underlyings_csv"`
	Segment         string `yaml:"segment"`
	InstrumentType  string `yaml:"instrument_type"`
}

// FeedConfig holds streaming feed settings.
type FeedConfig struct {
	ReconnectBaseDelay time.Duration `yaml:"reconnect_base_delay"`
	ReconnectMaxDelay  time.Duration `yaml:"reconnect_max_delay"`
	PingTimeout        time.Duration `yaml:"ping_timeout"`
	WriteTimeout       time.Duration `yaml:"write_timeout"`
	BufferSize         int           `yaml:"buffer_size"`
}

// PollerConfig holds REST quote poller settings.
type PollerConfig struct {
	Interval    time.Duration `yaml:"interval"`
	Concurrency int           `yaml:"concurrency"`
	Timeout     time.Duration `yaml:"timeout"`
}

// CostsConfig holds precalc cache settings.
type CostsConfig struct {
	CacheCSV   string  `yaml:"cache_csv"`
	ROIPercent float64 `yaml:"roi_percent"`
}

// StoreConfig holds the optional latest-snapshot store settings.
type StoreConfig struct {
	Enabled       bool          `yaml:"enabled"`
	FlushInterval time.Duration `yaml:"flush_interval"`
	Postgres      DBConfig      `yaml:"postgres"`
}

// DBConfig holds a single database connection.
type DBConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	Name     string `yaml:"name"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	SSLMode  string `yaml:"ssl_mode"`
	MaxConns int    `yaml:"max_conns"`
	MinConns int    `yaml:"min_conns"`
}

// ServerConfig holds dashboard HTTP settings.
type ServerConfig struct {
	Port            int           `yaml:"port"`
	RefreshInterval time.Duration `yaml:"refresh_interval"`
}
