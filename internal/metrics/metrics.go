// Package metrics exposes Prometheus metrics and a health endpoint
// for the chart services.
package metrics

import (
	"context"
	"database/sql"
	"encoding/json"
	"log/slog"
	"net/http"
	"sync"
	"time"

	goredis "github.com/go-redis/redis/v8"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds all Prometheus metrics for the chart pipeline.
type Metrics struct {
	// Data service
	HistoryFetches  *prometheus.CounterVec // labels: source = api|cache|synthetic
	FetchDur        prometheus.Histogram
	StreamReconnect prometheus.Counter
	CandlesReceived prometheus.Counter

	// Rendering
	FramesTotal prometheus.Counter
	RenderDur   prometheus.Histogram

	// Indicators
	IndicatorComputeDur prometheus.Histogram
	IndicatorCacheHits  prometheus.Counter
}

// NewMetrics registers and returns all Prometheus metrics.
func NewMetrics() *Metrics {
	m := &Metrics{
		HistoryFetches: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "chartview_history_fetches_total",
			Help: "History loads by source (api, cache, synthetic)",
		}, []string{"source"}),
		FetchDur: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "chartview_fetch_duration_seconds",
			Help:    "History fetch latency",
			Buckets: prometheus.DefBuckets,
		}),
		StreamReconnect: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "chartview_stream_reconnects_total",
			Help: "Live feed reconnection attempts",
		}),
		CandlesReceived: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "chartview_candles_received_total",
			Help: "Realtime candle updates received",
		}),
		FramesTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "chartview_frames_total",
			Help: "Base layer frames rendered",
		}),
		RenderDur: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "chartview_render_duration_seconds",
			Help:    "Base layer render latency",
			Buckets: []float64{0.001, 0.0025, 0.005, 0.01, 0.025, 0.05, 0.1},
		}),
		IndicatorComputeDur: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "chartview_indicator_compute_duration_seconds",
			Help:    "Indicator series compute latency",
			Buckets: []float64{0.00001, 0.00005, 0.0001, 0.0005, 0.001, 0.005},
		}),
		IndicatorCacheHits: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "chartview_indicator_cache_hits_total",
			Help: "Indicator computations served from the memo cache",
		}),
	}

	prometheus.MustRegister(
		m.HistoryFetches,
		m.FetchDur,
		m.StreamReconnect,
		m.CandlesReceived,
		m.FramesTotal,
		m.RenderDur,
		m.IndicatorComputeDur,
		m.IndicatorCacheHits,
	)
	return m
}

// HealthStatus tracks dependency health for /healthz. Only watched
// dependencies count toward the overall status, so a deployment
// without Redis or a live feed still reports healthy.
type HealthStatus struct {
	mu sync.RWMutex

	watchStream bool
	watchRedis  bool
	watchSQLite bool

	StreamConnected bool      `json:"stream_connected"`
	LastCandleTime  time.Time `json:"last_candle_time"`
	RedisConnected  bool      `json:"redis_connected"`
	SQLiteOK        bool      `json:"sqlite_ok"`

	RedisLatencyMs  float64   `json:"redis_latency_ms"`
	SQLiteLatencyMs float64   `json:"sqlite_latency_ms"`
	LastCheckAt     time.Time `json:"last_check_at"`
	StartedAt       time.Time `json:"started_at"`
}

// NewHealthStatus returns a default health status.
func NewHealthStatus() *HealthStatus {
	return &HealthStatus{StartedAt: time.Now()}
}

// WatchStream marks the live feed as a tracked dependency.
func (h *HealthStatus) WatchStream() {
	h.mu.Lock()
	h.watchStream = true
	h.mu.Unlock()
}

func (h *HealthStatus) SetStreamConnected(v bool) {
	h.mu.Lock()
	h.StreamConnected = v
	h.mu.Unlock()
}

func (h *HealthStatus) SetLastCandleTime(t time.Time) {
	h.mu.Lock()
	h.LastCandleTime = t
	h.mu.Unlock()
}

// CheckRedis pings Redis and records latency and connectivity.
func (h *HealthStatus) CheckRedis(ctx context.Context, rdb *goredis.Client) {
	start := time.Now()
	err := rdb.Ping(ctx).Err()
	latency := time.Since(start)

	h.mu.Lock()
	h.watchRedis = true
	h.RedisConnected = err == nil
	h.RedisLatencyMs = float64(latency.Microseconds()) / 1000.0
	h.LastCheckAt = time.Now()
	h.mu.Unlock()
}

// CheckSQLite pings the database and records latency and health.
func (h *HealthStatus) CheckSQLite(ctx context.Context, db *sql.DB) {
	start := time.Now()
	err := db.PingContext(ctx)
	latency := time.Since(start)

	h.mu.Lock()
	h.watchSQLite = true
	h.SQLiteOK = err == nil
	h.SQLiteLatencyMs = float64(latency.Microseconds()) / 1000.0
	h.LastCheckAt = time.Now()
	h.mu.Unlock()
}

// StartLivenessChecker runs periodic dependency checks until ctx ends.
// Nil dependencies are not checked and never count against the status.
func (h *HealthStatus) StartLivenessChecker(ctx context.Context, rdb *goredis.Client, sqlDB *sql.DB, interval time.Duration) {
	check := func() {
		probeCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
		defer cancel()
		if rdb != nil {
			h.CheckRedis(probeCtx, rdb)
		}
		if sqlDB != nil {
			h.CheckSQLite(probeCtx, sqlDB)
		}
	}

	go func() {
		check()
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				check()
			}
		}
	}()
}

// ServeHTTP handles the /healthz endpoint.
func (h *HealthStatus) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	watched, down := 0, 0
	count := func(watch, ok bool) {
		if watch {
			watched++
			if !ok {
				down++
			}
		}
	}
	count(h.watchStream, h.StreamConnected)
	count(h.watchRedis, h.RedisConnected)
	count(h.watchSQLite, h.SQLiteOK)

	overall := "healthy"
	code := http.StatusOK
	if down > 0 {
		overall = "degraded"
		code = http.StatusServiceUnavailable
	}
	if watched > 0 && down == watched {
		overall = "unhealthy"
	}

	candleAge := ""
	if !h.LastCandleTime.IsZero() {
		candleAge = time.Since(h.LastCandleTime).Round(time.Millisecond).String()
	}

	status := struct {
		Status          string  `json:"status"`
		Uptime          string  `json:"uptime"`
		StreamConnected bool    `json:"stream_connected"`
		LastCandleTime  string  `json:"last_candle_time"`
		CandleAge       string  `json:"candle_age"`
		RedisConnected  bool    `json:"redis_connected"`
		RedisLatencyMs  float64 `json:"redis_latency_ms"`
		SQLiteOK        bool    `json:"sqlite_ok"`
		SQLiteLatencyMs float64 `json:"sqlite_latency_ms"`
		LastCheckAt     string  `json:"last_check_at"`
	}{
		Status:          overall,
		Uptime:          time.Since(h.StartedAt).Round(time.Second).String(),
		StreamConnected: h.StreamConnected,
		LastCandleTime:  h.LastCandleTime.Format(time.RFC3339),
		CandleAge:       candleAge,
		RedisConnected:  h.RedisConnected,
		RedisLatencyMs:  h.RedisLatencyMs,
		SQLiteOK:        h.SQLiteOK,
		SQLiteLatencyMs: h.SQLiteLatencyMs,
		LastCheckAt:     h.LastCheckAt.Format(time.RFC3339),
	}

	w.Header().Set("Content-Type", "application/json")
	if code != http.StatusOK {
		w.WriteHeader(code)
	}
	json.NewEncoder(w).Encode(status)
}

// Server exposes /metrics and /healthz.
type Server struct {
	addr string
	srv  *http.Server
}

// NewServer creates a metrics and health server. Extra handlers can be
// attached to the returned mux before Start.
func NewServer(addr string, health *HealthStatus) (*Server, *http.ServeMux) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	mux.HandleFunc("/healthz", health.ServeHTTP)

	return &Server{
		addr: addr,
		srv:  &http.Server{Addr: addr, Handler: mux},
	}, mux
}

// Start launches the HTTP server in a goroutine.
func (s *Server) Start() {
	go func() {
		slog.Info("metrics server listening", "addr", s.addr)
		if err := s.srv.ListenAndServe(); err != http.ErrServerClosed {
			slog.Error("metrics server error", "error", err)
		}
	}()
}

// Stop gracefully shuts down the server.
func (s *Server) Stop(ctx context.Context) {
	s.srv.Shutdown(ctx)
}
