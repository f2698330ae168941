// Package feed relays live candle updates to websocket subscribers.
// Clients subscribe per symbol and timeframe; the hub fans updates out
// and replays recent bars so a fresh subscriber has context right
// away.
package feed

import (
	"log/slog"
	"strconv"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"chartview/internal/model"
)

const replayCapacity = 200

// Hub tracks connected clients and per-series replay buffers.
type Hub struct {
	mu      sync.RWMutex
	clients map[*Client]bool
	replay  map[string]*ReplayBuffer
	seqs    map[string]int64
	log     *slog.Logger
}

// NewHub creates an empty hub.
func NewHub() *Hub {
	return &Hub{
		clients: make(map[*Client]bool),
		replay:  make(map[string]*ReplayBuffer),
		seqs:    make(map[string]int64),
		log:     slog.Default().With("component", "feed"),
	}
}

// seriesKey identifies a symbol/timeframe pair.
func seriesKey(symbol string, tf model.Timeframe) string {
	return symbol + "|" + string(tf)
}

// Register wires a new websocket connection into the hub and starts
// its pumps.
func (h *Hub) Register(conn *websocket.Conn) *Client {
	client := &Client{
		conn: conn,
		send: make(chan []byte, 256),
		hub:  h,
		subs: make(map[string]bool),
	}
	conn.EnableWriteCompression(true)

	h.mu.Lock()
	h.clients[client] = true
	count := len(h.clients)
	h.mu.Unlock()

	metricClients.Set(float64(count))
	h.log.Info("client connected", "total", count)

	go client.writePump()
	go client.readPump()
	return client
}

// remove drops a client and closes its send channel.
func (h *Hub) remove(c *Client) {
	h.mu.Lock()
	if _, ok := h.clients[c]; !ok {
		h.mu.Unlock()
		return
	}
	delete(h.clients, c)
	count := len(h.clients)
	h.mu.Unlock()

	close(c.send)
	metricClients.Set(float64(count))
	h.log.Info("client disconnected", "total", count)
}

// Broadcast pushes a candle update to every subscriber of the series
// and records it for replay. Slow clients are skipped rather than
// blocked on.
func (h *Hub) Broadcast(symbol string, tf model.Timeframe, c model.Candle) {
	key := seriesKey(symbol, tf)

	h.mu.Lock()
	rb, ok := h.replay[key]
	if !ok {
		rb = NewReplayBuffer(replayCapacity)
		h.replay[key] = rb
	}
	h.seqs[key]++
	seq := h.seqs[key]
	h.mu.Unlock()

	rb.Push(c)
	buf := envelope(symbol, tf, c, seq, false)
	metricCandles.Inc()

	h.mu.RLock()
	defer h.mu.RUnlock()
	for client := range h.clients {
		if !client.subscribed(key) {
			continue
		}
		select {
		case client.send <- buf:
		default:
			metricDrops.Inc()
		}
	}
}

// Replay returns the recent candles buffered for a series.
func (h *Hub) Replay(symbol string, tf model.Timeframe, n int) []model.Candle {
	h.mu.RLock()
	rb, ok := h.replay[seriesKey(symbol, tf)]
	h.mu.RUnlock()
	if !ok {
		return nil
	}
	return rb.Recent(n)
}

// ClientCount returns the number of connected clients.
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// envelope hand-builds the update JSON to keep the fan-out path off
// json.Marshal.
func envelope(symbol string, tf model.Timeframe, c model.Candle, seq int64, replay bool) []byte {
	buf := make([]byte, 0, len(symbol)+160)
	buf = append(buf, `{"type":"candle","symbol":"`...)
	buf = append(buf, symbol...)
	buf = append(buf, `","tf":"`...)
	buf = append(buf, tf...)
	buf = append(buf, `","seq":`...)
	buf = strconv.AppendInt(buf, seq, 10)
	if replay {
		buf = append(buf, `,"replay":true`...)
	}
	buf = append(buf, `,"ts":"`...)
	buf = time.Now().UTC().AppendFormat(buf, time.RFC3339Nano)
	buf = append(buf, `","data":`...)
	buf = append(buf, c.JSON()...)
	buf = append(buf, '}')
	return buf
}
