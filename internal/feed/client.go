package feed

import (
	"encoding/json"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"chartview/internal/model"
)

const (
	writeWait  = 10 * time.Second
	pingPeriod = 30 * time.Second
	pongWait   = 60 * time.Second
	maxMsgSize = 4096
)

// Client is one websocket peer with its own subscription set.
type Client struct {
	conn *websocket.Conn
	send chan []byte
	hub  *Hub

	subMu sync.RWMutex
	subs  map[string]bool
}

type clientMessage struct {
	Type   string `json:"type"`
	Symbol string `json:"symbol"`
	TF     string `json:"tf"`
	Ping   int64  `json:"ping"`
}

func (c *Client) subscribed(key string) bool {
	c.subMu.RLock()
	defer c.subMu.RUnlock()
	return c.subs[key]
}

func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case msg, ok := <-c.send:
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))

			// Coalesce queued messages into one frame, newline separated.
			w, err := c.conn.NextWriter(websocket.TextMessage)
			if err != nil {
				return
			}
			w.Write(msg)
			n := len(c.send)
			for i := 0; i < n; i++ {
				w.Write([]byte{'\n'})
				w.Write(<-c.send)
			}
			if err := w.Close(); err != nil {
				return
			}
		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

func (c *Client) readPump() {
	defer func() {
		c.hub.remove(c)
		c.conn.Close()
	}()

	c.conn.SetReadLimit(maxMsgSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, raw, err := c.conn.ReadMessage()
		if err != nil {
			return
		}
		var msg clientMessage
		if json.Unmarshal(raw, &msg) != nil {
			continue
		}

		switch msg.Type {
		case "SUBSCRIBE":
			c.handleSubscribe(msg.Symbol, model.Timeframe(msg.TF))
		case "UNSUBSCRIBE":
			c.handleUnsubscribe(msg.Symbol, model.Timeframe(msg.TF))
		default:
			if msg.Ping > 0 {
				pong, _ := json.Marshal(map[string]interface{}{
					"type":      "pong",
					"ping":      msg.Ping,
					"server_ts": time.Now().UnixMilli(),
				})
				select {
				case c.send <- pong:
				default:
				}
			}
		}
	}
}

// handleSubscribe records the subscription and replays buffered bars
// so the client has immediate context.
func (c *Client) handleSubscribe(symbol string, tf model.Timeframe) {
	if symbol == "" || tf == "" {
		c.sendError("symbol and tf are required")
		return
	}
	key := seriesKey(symbol, tf)

	c.subMu.Lock()
	c.subs[key] = true
	c.subMu.Unlock()
	c.hub.log.Info("subscribed", "symbol", symbol, "timeframe", string(tf))

	for i, cd := range c.hub.Replay(symbol, tf, replayCapacity) {
		select {
		case c.send <- envelope(symbol, tf, cd, int64(i+1), true):
		default:
			metricDrops.Inc()
			return
		}
	}
}

func (c *Client) handleUnsubscribe(symbol string, tf model.Timeframe) {
	c.subMu.Lock()
	delete(c.subs, seriesKey(symbol, tf))
	c.subMu.Unlock()
	c.hub.log.Info("unsubscribed", "symbol", symbol, "timeframe", string(tf))
}

func (c *Client) sendError(msg string) {
	payload, _ := json.Marshal(map[string]string{"type": "error", "error": msg})
	select {
	case c.send <- payload:
	default:
	}
}
