// Package redis caches fetched candle history so symbol and timeframe
// switches do not re-hit the upstream API. All operations degrade to a
// cache miss when Redis is unavailable; a circuit breaker keeps a dead
// server from adding latency to every chart load.
package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	goredis "github.com/go-redis/redis/v8"

	"chartview/internal/model"
)

const historyTTL = 30 * time.Minute

// Config configures the cache connection.
type Config struct {
	Addr     string
	Password string
	DB       int
}

// Cache is a Redis-backed history cache. It satisfies
// dataservice.Cache.
type Cache struct {
	client  *goredis.Client
	breaker *CircuitBreaker
	log     *slog.Logger
}

// NewCache connects to Redis and verifies the connection with a ping.
func NewCache(cfg Config) (*Cache, error) {
	client := goredis.NewClient(&goredis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("redis ping: %w", err)
	}

	log := slog.Default().With("component", "redis-cache")
	breaker := NewCircuitBreaker(5, 10*time.Second)
	breaker.OnStateChange = func(from, to State) {
		log.Warn("cache breaker state change", "from", from.String(), "to", to.String())
	}

	return &Cache{client: client, breaker: breaker, log: log}, nil
}

func historyKey(symbol string, tf model.Timeframe) string {
	return fmt.Sprintf("chart:history:%s:%s", tf, symbol)
}

// GetHistory returns cached candles for a symbol/timeframe pair.
// Misses and Redis failures both report (nil, false).
func (c *Cache) GetHistory(ctx context.Context, symbol string, tf model.Timeframe) ([]model.Candle, bool) {
	var candles []model.Candle
	err := c.breaker.Execute(func() error {
		raw, err := c.client.Get(ctx, historyKey(symbol, tf)).Bytes()
		if err == goredis.Nil {
			// A miss is a healthy answer, not a Redis failure.
			return nil
		}
		if err != nil {
			return err
		}
		return json.Unmarshal(raw, &candles)
	})
	if err != nil {
		if err != ErrCircuitOpen {
			c.log.Warn("cache get failed", "symbol", symbol, "error", err)
		}
		return nil, false
	}
	return candles, len(candles) > 0
}

// PutHistory stores candles with a 30 minute TTL. Failures are logged
// and swallowed.
func (c *Cache) PutHistory(ctx context.Context, symbol string, tf model.Timeframe, candles []model.Candle) {
	raw, err := json.Marshal(candles)
	if err != nil {
		return
	}
	err = c.breaker.Execute(func() error {
		return c.client.Set(ctx, historyKey(symbol, tf), raw, historyTTL).Err()
	})
	if err != nil && err != ErrCircuitOpen {
		c.log.Warn("cache put failed", "symbol", symbol, "error", err)
	}
}

// Invalidate drops the cached history for one symbol/timeframe pair,
// used when a realtime feed has advanced past the cached range.
func (c *Cache) Invalidate(ctx context.Context, symbol string, tf model.Timeframe) {
	c.breaker.Execute(func() error {
		return c.client.Del(ctx, historyKey(symbol, tf)).Err()
	})
}

// Ping reports cache health for the metrics endpoint.
func (c *Cache) Ping(ctx context.Context) error {
	return c.client.Ping(ctx).Err()
}

// Client exposes the underlying connection for health checks.
func (c *Cache) Client() *goredis.Client { return c.client }

// Close releases the connection pool.
func (c *Cache) Close() error {
	return c.client.Close()
}
