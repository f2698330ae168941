package config

import (
	"log/slog"
	"testing"
)

func TestLoad_Defaults(t *testing.T) {
	cfg := Load()

	if cfg.APIBaseURL == "" {
		t.Error("APIBaseURL should have a default")
	}
	if cfg.DefaultSymbol == "" || cfg.DefaultTimeframe == "" {
		t.Errorf("symbol/timeframe defaults missing: %q %q", cfg.DefaultSymbol, cfg.DefaultTimeframe)
	}
	if cfg.MetricsAddr == "" || cfg.FeedAddr == "" {
		t.Errorf("listen address defaults missing: %q %q", cfg.MetricsAddr, cfg.FeedAddr)
	}
}

func TestLoad_EnvOverride(t *testing.T) {
	t.Setenv("CHART_SYMBOL", "NYSE:IBM")
	t.Setenv("REDIS_DB", "3")

	cfg := Load()
	if cfg.DefaultSymbol != "NYSE:IBM" {
		t.Errorf("DefaultSymbol = %q", cfg.DefaultSymbol)
	}
	if cfg.RedisDB != 3 {
		t.Errorf("RedisDB = %d", cfg.RedisDB)
	}
}

func TestSlogLevel(t *testing.T) {
	cases := map[string]slog.Level{
		"debug": slog.LevelDebug,
		"info":  slog.LevelInfo,
		"warn":  slog.LevelWarn,
		"error": slog.LevelError,
		"bogus": slog.LevelInfo,
	}
	for in, want := range cases {
		cfg := Config{LogLevel: in}
		if got := cfg.SlogLevel(); got != want {
			t.Errorf("SlogLevel(%q) = %v, want %v", in, got, want)
		}
	}
}
