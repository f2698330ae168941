// Package dataservice fetches candle history and symbol metadata from
// the market data API, with a Redis-backed cache and a deterministic
// synthetic fallback so the chart always has something to draw.
package dataservice

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"sort"
	"strings"
	"time"

	"chartview/internal/logger"
	"chartview/internal/model"
)

// Config configures the REST client.
type Config struct {
	BaseURL string // default: https://insightsentry.p.rapidapi.com
	APIKey  string
	Host    string        // x-rapidapi-host header, derived from BaseURL when empty
	Timeout time.Duration // default: 10s
}

// Cache stores fetched history between sessions. Implementations must
// treat misses as (nil, false) rather than errors.
type Cache interface {
	GetHistory(ctx context.Context, symbol string, tf model.Timeframe) ([]model.Candle, bool)
	PutHistory(ctx context.Context, symbol string, tf model.Timeframe, candles []model.Candle)
}

// Client talks to the market data REST API.
type Client struct {
	cfg        Config
	httpClient *http.Client
	cache      Cache
	log        *slog.Logger
}

// NewClient builds a client. cache may be nil.
func NewClient(cfg Config, cache Cache) *Client {
	if cfg.BaseURL == "" {
		cfg.BaseURL = "https://insightsentry.p.rapidapi.com"
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = 10 * time.Second
	}
	if cfg.Host == "" {
		if u, err := url.Parse(cfg.BaseURL); err == nil {
			cfg.Host = u.Host
		}
	}
	return &Client{
		cfg:        cfg,
		httpClient: &http.Client{Timeout: cfg.Timeout},
		cache:      cache,
		log:        slog.Default().With("component", "dataservice"),
	}
}

func (c *Client) headers(req *http.Request) {
	req.Header.Set("x-rapidapi-key", c.cfg.APIKey)
	req.Header.Set("x-rapidapi-host", c.cfg.Host)
	req.Header.Set("Accept", "application/json")
}

// QualifySymbol prefixes bare tickers with the default exchange, so
// "AAPL" and "NASDAQ:AAPL" name the same series everywhere.
func QualifySymbol(symbol string) string {
	if strings.Contains(symbol, ":") {
		return symbol
	}
	return "NASDAQ:" + symbol
}

// barType maps a timeframe to the API's bar type parameter.
func barType(tf model.Timeframe) string {
	switch tf {
	case model.TF1m, model.TF5m, model.TF15m, model.TF30m:
		return "minute"
	case model.TF1h, model.TF4h:
		return "hour"
	case model.TF1d:
		return "day"
	case model.TF1w:
		return "week"
	default:
		return "day"
	}
}

type wireCandle struct {
	Time   int64   `json:"time"` // unix seconds
	Open   float64 `json:"open"`
	High   float64 `json:"high"`
	Low    float64 `json:"low"`
	Close  float64 `json:"close"`
	Volume float64 `json:"volume"`
}

type historyResponse struct {
	Series []wireCandle `json:"series"`
}

// Source tells where a history load came from.
type Source string

const (
	SourceAPI       Source = "api"
	SourceCache     Source = "cache"
	SourceSynthetic Source = "synthetic"
)

// FetchHistory loads candle history for a symbol. It never fails: any
// fetch or decode problem falls back to deterministic synthetic data,
// reported as SourceSynthetic so the UI can badge it.
func (c *Client) FetchHistory(ctx context.Context, symbol string, tf model.Timeframe) ([]model.Candle, Source) {
	ctx = logger.WithTraceID(ctx, logger.NewTraceID())

	if c.cache != nil {
		if cached, ok := c.cache.GetHistory(ctx, symbol, tf); ok {
			return cached, SourceCache
		}
	}

	candles, err := c.fetchHistory(ctx, symbol, tf)
	if err != nil {
		args := []any{"symbol", symbol, "timeframe", string(tf), "error", err}
		c.log.Warn("history fetch failed, using synthetic data",
			append(args, logger.LogWithTrace(ctx)...)...)
		return Synthetic(symbol, tf, time.Now()), SourceSynthetic
	}

	if c.cache != nil {
		c.cache.PutHistory(ctx, symbol, tf, candles)
	}
	return candles, SourceAPI
}

func (c *Client) fetchHistory(ctx context.Context, symbol string, tf model.Timeframe) ([]model.Candle, error) {
	endpoint := fmt.Sprintf("%s/v2/symbols/%s/history", c.cfg.BaseURL, url.PathEscape(QualifySymbol(symbol)))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, err
	}
	q := req.URL.Query()
	q.Set("bar_interval", "1")
	q.Set("bar_type", barType(tf))
	req.URL.RawQuery = q.Encode()
	c.headers(req)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("history %s: status %d", symbol, resp.StatusCode)
	}

	var hr historyResponse
	if err := json.NewDecoder(resp.Body).Decode(&hr); err != nil {
		return nil, fmt.Errorf("decode history %s: %w", symbol, err)
	}
	if len(hr.Series) == 0 {
		return nil, fmt.Errorf("history %s: empty series", symbol)
	}

	candles := make([]model.Candle, len(hr.Series))
	for i, w := range hr.Series {
		candles[i] = model.Candle{
			Timestamp: w.Time * 1000,
			Open:      w.Open,
			High:      w.High,
			Low:       w.Low,
			Close:     w.Close,
			Volume:    w.Volume,
		}
	}
	sort.Slice(candles, func(i, j int) bool { return candles[i].Timestamp < candles[j].Timestamp })
	return candles, nil
}

// SearchSymbols queries the symbol directory. Failures return an empty
// list so the search box degrades quietly.
func (c *Client) SearchSymbols(ctx context.Context, query string) []model.SymbolInfo {
	ctx = logger.WithTraceID(ctx, logger.NewTraceID())
	endpoint := c.cfg.BaseURL + "/v2/symbols/search"
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil
	}
	q := req.URL.Query()
	q.Set("query", query)
	req.URL.RawQuery = q.Encode()
	c.headers(req)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.log.Warn("symbol search failed",
			append([]any{"query", query, "error", err}, logger.LogWithTrace(ctx)...)...)
		return nil
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		c.log.Warn("symbol search failed",
			append([]any{"query", query, "status", resp.StatusCode}, logger.LogWithTrace(ctx)...)...)
		return nil
	}

	var out []model.SymbolInfo
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		c.log.Warn("symbol search decode failed",
			append([]any{"query", query, "error", err}, logger.LogWithTrace(ctx)...)...)
		return nil
	}
	return out
}

type keyResponse struct {
	APIKey     string `json:"api_key"`
	Expiration int64  `json:"expiration"` // unix seconds
	Note       string `json:"note"`
}

// FetchStreamKey obtains a short-lived websocket key for the live
// feed.
func (c *Client) FetchStreamKey(ctx context.Context) (key string, expiresAt time.Time, err error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.cfg.BaseURL+"/v2/websocket-key", nil)
	if err != nil {
		return "", time.Time{}, err
	}
	c.headers(req)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("websocket key: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return "", time.Time{}, fmt.Errorf("websocket key: status %d", resp.StatusCode)
	}

	var kr keyResponse
	if err := json.NewDecoder(resp.Body).Decode(&kr); err != nil {
		return "", time.Time{}, fmt.Errorf("decode websocket key: %w", err)
	}
	return kr.APIKey, time.Unix(kr.Expiration, 0), nil
}
