package config

import (
	"testing"
	"time"
)

func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{
		"LINKLOG_PORT", "LINKLOG_DB_PATH", "LINKLOG_BASE_URL", "LINKLOG_GEOIP_PATH",
		"LINKLOG_CACHE_SIZE", "LINKLOG_CODE_LENGTH", "LINKLOG_HTTP_TIMEOUT",
		"LINKLOG_KEEPALIVE_URL", "LINKLOG_KEEPALIVE_INTERVAL", "LINKLOG_IPCHECK",
		"LINKLOG_RATE_LIMIT", "LINKLOG_RATE_BURST", "LINKLOG_LOG_FORMAT", "LINKLOG_LOG_LEVEL",
	} {
		t.Setenv(key, "")
	}
}

func TestLoad_Defaults(t *testing.T) {
	clearEnv(t)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Port != "8080" {
		t.Errorf("port = %q, want %q", cfg.Port, "8080")
	}
	if cfg.DBPath != "./linklog.db" {
		t.Errorf("dbpath = %q, want %q", cfg.DBPath, "./linklog.db")
	}
	if cfg.BaseURL != "" {
		t.Errorf("base url = %q, want empty", cfg.BaseURL)
	}
	if cfg.CodeLength != 6 {
		t.Errorf("code length = %d, want 6", cfg.CodeLength)
	}
	if cfg.KeepaliveInterval != 10*time.Second {
		t.Errorf("keepalive interval = %v, want %v", cfg.KeepaliveInterval, 10*time.Second)
	}
	if cfg.KeepaliveURL != "" {
		t.Errorf("keepalive url = %q, want empty without base url", cfg.KeepaliveURL)
	}
	if cfg.HTTPTimeout != 5*time.Second {
		t.Errorf("http timeout = %v, want %v", cfg.HTTPTimeout, 5*time.Second)
	}
	if cfg.IPCheck {
		t.Error("ipcheck = true, want false")
	}
	if cfg.CacheSize != 10000 {
		t.Errorf("cache size = %d, want %d", cfg.CacheSize, 10000)
	}
	if cfg.LogFormat != "text" {
		t.Errorf("log format = %q, want text", cfg.LogFormat)
	}
	if cfg.LogLevel != "info" {
		t.Errorf("log level = %q, want info", cfg.LogLevel)
	}
}

func TestLoad_AllFieldsOverridden(t *testing.T) {
	clearEnv(t)
	t.Setenv("LINKLOG_PORT", "9090")
	t.Setenv("LINKLOG_DB_PATH", "/tmp/test.db")
	t.Setenv("LINKLOG_BASE_URL", "https://l.example.com/")
	t.Setenv("LINKLOG_GEOIP_PATH", "/data/geo.mmdb")
	t.Setenv("LINKLOG_CACHE_SIZE", "200")
	t.Setenv("LINKLOG_CODE_LENGTH", "8")
	t.Setenv("LINKLOG_HTTP_TIMEOUT", "2s")
	t.Setenv("LINKLOG_KEEPALIVE_URL", "https://up.example.com/ping")
	t.Setenv("LINKLOG_KEEPALIVE_INTERVAL", "30s")
	t.Setenv("LINKLOG_IPCHECK", "true")
	t.Setenv("LINKLOG_RATE_LIMIT", "2.5")
	t.Setenv("LINKLOG_RATE_BURST", "4")
	t.Setenv("LINKLOG_LOG_FORMAT", "JSON")
	t.Setenv("LINKLOG_LOG_LEVEL", "Debug")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Port != "9090" {
		t.Errorf("port = %q, want %q", cfg.Port, "9090")
	}
	if cfg.DBPath != "/tmp/test.db" {
		t.Errorf("dbpath = %q, want %q", cfg.DBPath, "/tmp/test.db")
	}
	if cfg.BaseURL != "https://l.example.com" {
		t.Errorf("base url = %q, want trailing slash trimmed", cfg.BaseURL)
	}
	if cfg.GeoIPPath != "/data/geo.mmdb" {
		t.Errorf("geoip = %q, want %q", cfg.GeoIPPath, "/data/geo.mmdb")
	}
	if cfg.CacheSize != 200 {
		t.Errorf("cache = %d, want %d", cfg.CacheSize, 200)
	}
	if cfg.CodeLength != 8 {
		t.Errorf("code length = %d, want 8", cfg.CodeLength)
	}
	if cfg.HTTPTimeout != 2*time.Second {
		t.Errorf("http timeout = %v, want 2s", cfg.HTTPTimeout)
	}
	if cfg.KeepaliveURL != "https://up.example.com/ping" {
		t.Errorf("keepalive url = %q", cfg.KeepaliveURL)
	}
	if cfg.KeepaliveInterval != 30*time.Second {
		t.Errorf("keepalive interval = %v, want 30s", cfg.KeepaliveInterval)
	}
	if !cfg.IPCheck {
		t.Error("ipcheck = false, want true")
	}
	if cfg.RateLimit != 2.5 || cfg.RateBurst != 4 {
		t.Errorf("rate = %v/%d, want 2.5/4", cfg.RateLimit, cfg.RateBurst)
	}
	if cfg.LogFormat != "json" {
		t.Errorf("log format = %q, want json", cfg.LogFormat)
	}
	if cfg.LogLevel != "debug" {
		t.Errorf("log level = %q, want debug", cfg.LogLevel)
	}
}

func TestLoad_KeepaliveDefaultsToBaseURLPing(t *testing.T) {
	clearEnv(t)
	t.Setenv("LINKLOG_BASE_URL", "https://l.example.com")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.KeepaliveURL != "https://l.example.com/ping" {
		t.Errorf("keepalive url = %q, want %q", cfg.KeepaliveURL, "https://l.example.com/ping")
	}
}

func TestLoad_Validation(t *testing.T) {
	tests := []struct {
		key, value, wantErr string
	}{
		{"LINKLOG_CACHE_SIZE", "0", "LINKLOG_CACHE_SIZE must be positive"},
		{"LINKLOG_CODE_LENGTH", "2", "LINKLOG_CODE_LENGTH must be between 4 and 32"},
		{"LINKLOG_CODE_LENGTH", "64", "LINKLOG_CODE_LENGTH must be between 4 and 32"},
		{"LINKLOG_HTTP_TIMEOUT", "-1s", "LINKLOG_HTTP_TIMEOUT must be positive"},
		{"LINKLOG_KEEPALIVE_INTERVAL", "0s", "LINKLOG_KEEPALIVE_INTERVAL must be positive"},
		{"LINKLOG_RATE_LIMIT", "0", "LINKLOG_RATE_LIMIT must be positive"},
		{"LINKLOG_RATE_BURST", "-3", "LINKLOG_RATE_BURST must be positive"},
		{"LINKLOG_LOG_FORMAT", "xml", "LINKLOG_LOG_FORMAT must be text or json"},
		{"LINKLOG_LOG_LEVEL", "trace", "LINKLOG_LOG_LEVEL must be debug, info, warn or error"},
	}
	for _, tt := range tests {
		t.Run(tt.key+"="+tt.value, func(t *testing.T) {
			clearEnv(t)
			t.Setenv(tt.key, tt.value)

			_, err := Load()
			if err == nil {
				t.Fatal("expected error")
			}
			if err.Error() != tt.wantErr {
				t.Errorf("error = %q, want %q", err.Error(), tt.wantErr)
			}
		})
	}
}

func TestLoad_InvalidValuesFallBackToDefault(t *testing.T) {
	clearEnv(t)
	t.Setenv("LINKLOG_KEEPALIVE_INTERVAL", "notaduration")
	t.Setenv("LINKLOG_IPCHECK", "maybe")
	t.Setenv("LINKLOG_CACHE_SIZE", "lots")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.KeepaliveInterval != 10*time.Second {
		t.Errorf("keepalive interval = %v, want %v (default)", cfg.KeepaliveInterval, 10*time.Second)
	}
	if cfg.IPCheck {
		t.Error("ipcheck = true, want default false")
	}
	if cfg.CacheSize != 10000 {
		t.Errorf("cache = %d, want default 10000", cfg.CacheSize)
	}
}
