package dataservice

import (
	"context"
	"encoding/json"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"chartview/internal/model"
)

const (
	streamURL          = "wss://realtime.insightsentry.com/live"
	reconnectBaseDelay = 12 * time.Second
	maxReconnects      = 5
	minSendGap         = 2 * time.Second
	keyRefreshLead     = time.Hour
)

// KeySource provides short-lived stream keys. *Client implements it.
type KeySource interface {
	FetchStreamKey(ctx context.Context) (key string, expiresAt time.Time, err error)
}

// Stream maintains a live candle subscription over a websocket. One
// stream tracks one symbol/timeframe pair; switching symbols means
// resubscribing on the same connection.
type Stream struct {
	keys   KeySource
	dialer *websocket.Dialer
	log    *slog.Logger

	// OnCandle receives realtime bar updates for the subscribed
	// series. Called from the stream goroutine.
	OnCandle func(symbol string, tf model.Timeframe, c model.Candle)

	// OnReconnect is called before each reconnect attempt.
	OnReconnect func()

	mu         sync.Mutex
	conn       *websocket.Conn
	key        string
	keyExpires time.Time
	lastSend   time.Time
	symbol     string
	tf         model.Timeframe
	attempts   int

	ctx    context.Context
	cancel context.CancelFunc
}

// NewStream builds a stream client. Call Run to connect.
func NewStream(keys KeySource) *Stream {
	ctx, cancel := context.WithCancel(context.Background())
	return &Stream{
		keys:   keys,
		dialer: websocket.DefaultDialer,
		log:    slog.Default().With("component", "stream"),
		ctx:    ctx,
		cancel: cancel,
	}
}

type subscription struct {
	Code        string `json:"code"`
	Type        string `json:"type"`
	BarType     string `json:"bar_type"`
	BarInterval int    `json:"bar_interval"`
	RecentBars  bool   `json:"recent_bars"`
}

type subscribeMessage struct {
	APIKey        string         `json:"api_key"`
	Subscriptions []subscription `json:"subscriptions"`
}

type seriesMessage struct {
	Code   string `json:"code"`
	Series []struct {
		Time   int64   `json:"time"`
		Open   float64 `json:"open"`
		High   float64 `json:"high"`
		Low    float64 `json:"low"`
		Close  float64 `json:"close"`
		Volume float64 `json:"volume"`
	} `json:"series"`
}

// Subscribe switches the live subscription to symbol/tf. Safe to call
// before Run; the subscription is sent once connected.
func (s *Stream) Subscribe(symbol string, tf model.Timeframe) {
	s.mu.Lock()
	s.symbol = QualifySymbol(symbol)
	s.tf = tf
	conn := s.conn
	s.mu.Unlock()

	if conn != nil {
		s.sendSubscribe()
	}
}

// Run connects and reads until Close or the reconnect budget runs
// out. It blocks; run it on its own goroutine.
func (s *Stream) Run() {
	for {
		select {
		case <-s.ctx.Done():
			return
		default:
		}

		if err := s.connect(); err != nil {
			s.log.Warn("stream connect failed", "error", err)
			if !s.backoff() {
				return
			}
			continue
		}

		s.mu.Lock()
		s.attempts = 0
		s.mu.Unlock()
		s.sendSubscribe()
		s.readLoop()

		if !s.backoff() {
			return
		}
	}
}

// Close tears the connection down and stops reconnecting.
func (s *Stream) Close() {
	s.cancel()
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.conn != nil {
		s.conn.WriteMessage(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
		s.conn.Close()
		s.conn = nil
	}
}

// backoff waits before the next reconnect attempt, doubling the delay
// each time. Returns false once the attempt budget is spent.
func (s *Stream) backoff() bool {
	s.mu.Lock()
	s.attempts++
	attempt := s.attempts
	s.mu.Unlock()

	if attempt > maxReconnects {
		s.log.Error("stream gave up after max reconnect attempts", "attempts", maxReconnects)
		return false
	}
	delay := reconnectBaseDelay << (attempt - 1)
	s.log.Info("stream reconnecting", "attempt", attempt, "delay", delay.String())
	if s.OnReconnect != nil {
		s.OnReconnect()
	}
	select {
	case <-s.ctx.Done():
		return false
	case <-time.After(delay):
		return true
	}
}

func (s *Stream) connect() error {
	if err := s.ensureKey(); err != nil {
		return err
	}
	conn, _, err := s.dialer.DialContext(s.ctx, streamURL, nil)
	if err != nil {
		return err
	}
	s.mu.Lock()
	s.conn = conn
	s.mu.Unlock()
	s.log.Info("stream connected")
	return nil
}

// ensureKey fetches a stream key, refreshing when the current one is
// within an hour of expiry.
func (s *Stream) ensureKey() error {
	s.mu.Lock()
	fresh := s.key != "" && time.Until(s.keyExpires) > keyRefreshLead
	s.mu.Unlock()
	if fresh {
		return nil
	}

	ctx, cancel := context.WithTimeout(s.ctx, 10*time.Second)
	defer cancel()
	key, expires, err := s.keys.FetchStreamKey(ctx)
	if err != nil {
		return err
	}
	s.mu.Lock()
	s.key, s.keyExpires = key, expires
	s.mu.Unlock()
	return nil
}

// sendSubscribe writes the current subscription, spacing outbound
// messages at least two seconds apart per provider limits.
func (s *Stream) sendSubscribe() {
	s.mu.Lock()
	conn, symbol, tf, key := s.conn, s.symbol, s.tf, s.key
	wait := minSendGap - time.Since(s.lastSend)
	s.mu.Unlock()
	if conn == nil || symbol == "" {
		return
	}
	if wait > 0 {
		select {
		case <-s.ctx.Done():
			return
		case <-time.After(wait):
		}
	}

	msg := subscribeMessage{
		APIKey: key,
		Subscriptions: []subscription{{
			Code:        symbol,
			Type:        "series",
			BarType:     barType(tf),
			BarInterval: 1,
			RecentBars:  true,
		}},
	}
	s.mu.Lock()
	s.lastSend = time.Now()
	err := conn.WriteJSON(msg)
	s.mu.Unlock()
	if err != nil {
		s.log.Warn("subscribe write failed", "error", err)
		return
	}
	s.log.Info("subscribed", "symbol", symbol, "timeframe", string(tf))
}

func (s *Stream) readLoop() {
	for {
		s.mu.Lock()
		conn := s.conn
		s.mu.Unlock()
		if conn == nil {
			return
		}

		_, raw, err := conn.ReadMessage()
		if err != nil {
			select {
			case <-s.ctx.Done():
			default:
				s.log.Warn("stream read failed", "error", err)
			}
			s.mu.Lock()
			s.conn = nil
			s.mu.Unlock()
			conn.Close()
			return
		}
		s.dispatch(raw)
	}
}

// dispatch decodes a series frame and forwards its bars. Frames for
// other symbols or non-series payloads are ignored.
func (s *Stream) dispatch(raw []byte) {
	var msg seriesMessage
	if err := json.Unmarshal(raw, &msg); err != nil || len(msg.Series) == 0 {
		return
	}

	s.mu.Lock()
	symbol, tf := s.symbol, s.tf
	cb := s.OnCandle
	s.mu.Unlock()
	if cb == nil || !strings.EqualFold(msg.Code, symbol) {
		return
	}

	for _, w := range msg.Series {
		cb(symbol, tf, model.Candle{
			Timestamp: w.Time * 1000,
			Open:      w.Open,
			High:      w.High,
			Low:       w.Low,
			Close:     w.Close,
			Volume:    w.Volume,
		})
	}
}
