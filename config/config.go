// Package config loads application configuration from environment
// variables, with a .env file picked up when present.
package config

import (
	"log"
	"log/slog"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

// Config holds all application configuration.
type Config struct {
	// Market data API
	APIBaseURL string
	APIKey     string

	// Infrastructure
	RedisAddr     string
	RedisPassword string
	RedisDB       int
	SQLitePath    string
	MetricsAddr   string
	FeedAddr      string

	// Chart defaults
	DefaultSymbol    string
	DefaultTimeframe string

	LogLevel string
}

// Load reads configuration with sensible defaults. A missing API key
// is not fatal: the data service falls back to synthetic data.
func Load() *Config {
	// Best effort; absence of a .env file is the normal case in
	// production.
	godotenv.Load()

	return &Config{
		APIBaseURL: getEnv("CHART_API_BASE_URL", "https://insightsentry.p.rapidapi.com"),
		APIKey:     getEnv("CHART_API_KEY", ""),

		RedisAddr:     getEnv("REDIS_ADDR", "localhost:6379"),
		RedisPassword: getEnv("REDIS_PASSWORD", ""),
		RedisDB:       getEnvInt("REDIS_DB", 0),
		SQLitePath:    getEnv("SQLITE_PATH", "data/chartview.db"),
		MetricsAddr:   getEnv("METRICS_ADDR", ":9090"),
		FeedAddr:      getEnv("FEED_ADDR", ":8091"),

		DefaultSymbol:    getEnv("CHART_SYMBOL", "AAPL"),
		DefaultTimeframe: getEnv("CHART_TIMEFRAME", "1d"),

		LogLevel: getEnv("LOG_LEVEL", "info"),
	}
}

// SlogLevel maps the configured level string onto slog levels.
func (c *Config) SlogLevel() slog.Level {
	switch strings.ToLower(c.LogLevel) {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

func getEnv(key, fallback string) string {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	return v
}

func getEnvInt(key string, fallback int) int {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		log.Printf("[config] invalid integer for %s: %q, using %d", key, v, fallback)
		return fallback
	}
	return n
}
