// Command feedserver bridges the upstream candle stream to local
// websocket subscribers. Clients connect to /ws, subscribe to
// symbol/timeframe pairs and receive sequenced candle envelopes with a
// short replay of recent bars.
package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"chartview/config"
	"chartview/internal/dataservice"
	"chartview/internal/feed"
	"chartview/internal/logger"
	"chartview/internal/metrics"
	"chartview/internal/model"
)

func main() {
	// ---- Config and logging ----
	cfg := config.Load()
	log := logger.Init("feedserver", cfg.SlogLevel())

	symbols := splitList(os.Getenv("FEED_SYMBOLS"))
	if len(symbols) == 0 {
		symbols = []string{cfg.DefaultSymbol}
	}
	tf := model.Timeframe(cfg.DefaultTimeframe)
	log.Info("starting", "symbols", symbols, "tf", tf, "addr", cfg.FeedAddr)

	// ---- Metrics and health ----
	health := metrics.NewHealthStatus()
	health.WatchStream()
	metricsSrv, _ := metrics.NewServer(cfg.MetricsAddr, health)
	metricsSrv.Start()

	// ---- Hub and websocket endpoint ----
	hub := feed.NewHub()
	mux := http.NewServeMux()
	mux.HandleFunc("/ws", feed.WSHandler(hub))
	feedSrv := &http.Server{Addr: cfg.FeedAddr, Handler: mux}
	go func() {
		if err := feedSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error("feed server failed", "error", err)
			os.Exit(1)
		}
	}()

	// ---- Upstream streams, one per symbol ----
	client := dataservice.NewClient(dataservice.Config{
		BaseURL: cfg.APIBaseURL,
		APIKey:  cfg.APIKey,
	}, nil)

	streams := make([]*dataservice.Stream, 0, len(symbols))
	for _, symbol := range symbols {
		stream := dataservice.NewStream(client)
		stream.OnCandle = func(symbol string, tf model.Timeframe, c model.Candle) {
			health.SetStreamConnected(true)
			health.SetLastCandleTime(time.Now())
			hub.Broadcast(symbol, tf, c)
		}
		stream.Subscribe(symbol, tf)
		go stream.Run()
		streams = append(streams, stream)
	}

	// ---- Shutdown ----
	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	<-sig
	log.Info("shutting down")

	for _, stream := range streams {
		stream.Close()
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	feedSrv.Shutdown(ctx)
	metricsSrv.Stop(ctx)
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
