package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Port              string
	DBPath            string
	BaseURL           string
	GeoIPPath         string
	CacheSize         int
	CodeLength        int
	HTTPTimeout       time.Duration
	KeepaliveURL      string
	KeepaliveInterval time.Duration
	IPCheck           bool
	RateLimit         float64
	RateBurst         int
	LogFormat         string
	LogLevel          string
}

// Load reads LINKLOG_* variables. A .env file in the working directory is
// loaded first if present; variables already set in the environment win.
func Load() (*Config, error) {
	_ = godotenv.Load()

	baseURL := strings.TrimRight(strings.TrimSpace(os.Getenv("LINKLOG_BASE_URL")), "/")

	keepaliveURL := os.Getenv("LINKLOG_KEEPALIVE_URL")
	if keepaliveURL == "" && baseURL != "" {
		keepaliveURL = baseURL + "/ping"
	}

	cfg := &Config{
		Port:              envOrDefault("LINKLOG_PORT", "8080"),
		DBPath:            envOrDefault("LINKLOG_DB_PATH", "./linklog.db"),
		BaseURL:           baseURL,
		GeoIPPath:         os.Getenv("LINKLOG_GEOIP_PATH"),
		CacheSize:         parseInt("LINKLOG_CACHE_SIZE", 10000),
		CodeLength:        parseInt("LINKLOG_CODE_LENGTH", 6),
		HTTPTimeout:       parseDuration("LINKLOG_HTTP_TIMEOUT", 5*time.Second),
		KeepaliveURL:      keepaliveURL,
		KeepaliveInterval: parseDuration("LINKLOG_KEEPALIVE_INTERVAL", 10*time.Second),
		IPCheck:           parseBool("LINKLOG_IPCHECK", false),
		RateLimit:         parseFloat("LINKLOG_RATE_LIMIT", 5),
		RateBurst:         parseInt("LINKLOG_RATE_BURST", 10),
		LogFormat:         strings.ToLower(envOrDefault("LINKLOG_LOG_FORMAT", "text")),
		LogLevel:          strings.ToLower(envOrDefault("LINKLOG_LOG_LEVEL", "info")),
	}

	if cfg.CacheSize <= 0 {
		return nil, fmt.Errorf("LINKLOG_CACHE_SIZE must be positive")
	}
	if cfg.CodeLength < 4 || cfg.CodeLength > 32 {
		return nil, fmt.Errorf("LINKLOG_CODE_LENGTH must be between 4 and 32")
	}
	if cfg.HTTPTimeout <= 0 {
		return nil, fmt.Errorf("LINKLOG_HTTP_TIMEOUT must be positive")
	}
	if cfg.KeepaliveInterval <= 0 {
		return nil, fmt.Errorf("LINKLOG_KEEPALIVE_INTERVAL must be positive")
	}
	if cfg.RateLimit <= 0 {
		return nil, fmt.Errorf("LINKLOG_RATE_LIMIT must be positive")
	}
	if cfg.RateBurst <= 0 {
		return nil, fmt.Errorf("LINKLOG_RATE_BURST must be positive")
	}
	if cfg.LogFormat != "text" && cfg.LogFormat != "json" {
		return nil, fmt.Errorf("LINKLOG_LOG_FORMAT must be text or json")
	}
	switch cfg.LogLevel {
	case "debug", "info", "warn", "error":
	default:
		return nil, fmt.Errorf("LINKLOG_LOG_LEVEL must be debug, info, warn or error")
	}

	return cfg, nil
}

func envOrDefault(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func parseInt(key string, fallback int) int {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fallback
	}
	return n
}

func parseFloat(key string, fallback float64) float64 {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return fallback
	}
	return f
}

func parseBool(key string, fallback bool) bool {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return fallback
	}
	return b
}

func parseDuration(key string, fallback time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return fallback
	}
	return d
}
