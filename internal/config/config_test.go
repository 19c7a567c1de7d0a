package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func writeTempConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write temp config: %v", err)
	}
	return path
}

func TestLoad(t *testing.T) {
	path := writeTempConfig(t, `
api:
  rest_url: "https://broker.example/v2"
  access_token: "tok-123"
  timeout: 10s
poller:
  interval: 30s
  concurrency: 8
server:
  port: 9000
  refresh_interval: 1s
`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if cfg.API.RestURL != "https://broker.example/v2" {
		t.Errorf("RestURL = %q", cfg.API.RestURL)
	}
	if cfg.API.Timeout != 10*time.Second {
		t.Errorf("Timeout = %v, want 10s", cfg.API.Timeout)
	}
	if cfg.Poller.Concurrency != 8 {
		t.Errorf("Concurrency = %d, want 8", cfg.Poller.Concurrency)
	}
	if cfg.Server.Port != 9000 {
		t.Errorf("Port = %d, want 9000", cfg.Server.Port)
	}
}

func TestLoad_ExpandsEnvVars(t *testing.T) {
	t.Setenv("TEST_FUTSPREAD_TOKEN", "secret-from-env")

	path := writeTempConfig(t, `
api:
  access_token: "${TEST_FUTSPREAD_TOKEN}"
`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.API.AccessToken != "secret-from-env" {
		t.Errorf("AccessToken = %q, want env value", cfg.API.AccessToken)
	}
}

func TestLoad_FileNotFound(t *testing.T) {
	if _, err := Load("/nonexistent/config.yaml"); err == nil {
		t.Fatal("expected error for missing file")
	}
}

func TestLoad_InvalidYAML(t *testing.T) {
	path := writeTempConfig(t, "api: [not: valid")
	if _, err := Load(path); err == nil {
		t.Fatal("expected error for invalid yaml")
	}
}

func TestLoadWithDefaults(t *testing.T) {
	path := writeTempConfig(t, `
api:
  access_token: "tok"
`)

	cfg, err := LoadWithDefaults(path)
	if err != nil {
		t.Fatalf("LoadWithDefaults failed: %v", err)
	}

	if cfg.Instance.ID == "" {
		t.Error("Instance.ID not defaulted")
	}
	if cfg.API.RestURL != DefaultRestURL {
		t.Errorf("RestURL = %q, want default", cfg.API.RestURL)
	}
	if cfg.API.WSURL != DefaultWSURL {
		t.Errorf("WSURL = %q, want default", cfg.API.WSURL)
	}
	if cfg.Poller.Interval != DefaultPollInterval {
		t.Errorf("Poller.Interval = %v, want %v", cfg.Poller.Interval, DefaultPollInterval)
	}
	if cfg.Costs.CacheCSV != DefaultCostsCacheCSV {
		t.Errorf("CacheCSV = %q, want default", cfg.Costs.CacheCSV)
	}
	if cfg.Server.Port != DefaultServerPort {
		t.Errorf("Port = %d, want %d", cfg.Server.Port, DefaultServerPort)
	}
	if cfg.Server.RefreshInterval != DefaultRefreshInterval {
		t.Errorf("RefreshInterval = %v, want %v", cfg.Server.RefreshInterval, DefaultRefreshInterval)
	}
}

func TestLoadWithDefaults_ExplicitValuesKept(t *testing.T) {
	path := writeTempConfig(t, `
instance:
  id: "spread-1"
api:
  access_token: "tok"
server:
  port: 9000
`)

	cfg, err := LoadWithDefaults(path)
	if err != nil {
		t.Fatalf("LoadWithDefaults failed: %v", err)
	}
	if cfg.Instance.ID != "spread-1" {
		t.Errorf("Instance.ID = %q, want spread-1", cfg.Instance.ID)
	}
	if cfg.Server.Port != 9000 {
		t.Errorf("Port = %d, want 9000", cfg.Server.Port)
	}
}

func TestValidate(t *testing.T) {
	valid := func() *Config {
		cfg := &Config{}
		cfg.API.AccessToken = "tok"
		cfg.applyDefaults()
		return cfg
	}

	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{"valid", func(c *Config) {}, ""},
		{"missing token", func(c *Config) { c.API.AccessToken = "" }, "access_token"},
		{"bad port", func(c *Config) { c.Server.Port = 70000 }, "server.port"},
		{"zero concurrency", func(c *Config) { c.Poller.Concurrency = -1 }, "poller.concurrency"},
		{"store without host", func(c *Config) {
			c.Store.Enabled = true
			c.Store.Postgres = DBConfig{Name: "db", User: "u", Password: "p", MaxConns: 5}
		}, "store.postgres.host"},
		{"store min over max", func(c *Config) {
			c.Store.Enabled = true
			c.Store.Postgres = DBConfig{Host: "h", Name: "db", User: "u", Password: "p", MaxConns: 2, MinConns: 5}
		}, "min_conns"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid()
			tt.mutate(cfg)

			err := cfg.Validate()
			if tt.wantErr == "" {
				if err != nil {
					t.Fatalf("Validate failed: %v", err)
				}
				return
			}
			if err == nil {
				t.Fatalf("expected error containing %q", tt.wantErr)
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("error %q does not mention %q", err, tt.wantErr)
			}
		})
	}
}

func TestLoadAndValidate(t *testing.T) {
	path := writeTempConfig(t, `
api:
  access_token: "tok"
`)

	cfg, err := LoadAndValidate(path)
	if err != nil {
		t.Fatalf("LoadAndValidate failed: %v", err)
	}
	if cfg.API.AccessToken != "tok" {
		t.Errorf("AccessToken = %q", cfg.API.AccessToken)
	}
}

func TestLoadAndValidate_MissingToken(t *testing.T) {
	path := writeTempConfig(t, `
server:
  port: 8051
`)

	if _, err := LoadAndValidate(path); err == nil {
		t.Fatal("expected validation error without access token")
	}
}
