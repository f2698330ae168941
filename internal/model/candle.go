package model

import (
	"encoding/json"
)

// Candle represents one OHLC bar for a single symbol.
// Timestamp is the bucket start in milliseconds UTC. Series are ordered
// ascending by timestamp with no gap-filling: missing periods are
// simply absent.
type Candle struct {
	Timestamp int64   `json:"timestamp"`
	Open      float64 `json:"open"`
	High      float64 `json:"high"`
	Low       float64 `json:"low"`
	Close     float64 `json:"close"`
	Volume    float64 `json:"volume"`
}

// Up reports whether the candle closed at or above its open.
func (c *Candle) Up() bool { return c.Close >= c.Open }

// JSON returns the JSON-encoded candle (ignoring errors for hot-path usage).
func (c *Candle) JSON() []byte {
	b, _ := json.Marshal(c)
	return b
}

// MergeCandle applies a realtime update to an ascending series:
// an update in the same period as the last stored candle replaces it,
// a strictly newer one is appended, an older one is discarded.
// Returns the updated series and whether anything changed.
func MergeCandle(series []Candle, in Candle, tf Timeframe) ([]Candle, bool) {
	if len(series) == 0 {
		return append(series, in), true
	}
	lastPeriod := tf.PeriodStart(series[len(series)-1].Timestamp)
	inPeriod := tf.PeriodStart(in.Timestamp)
	switch {
	case inPeriod == lastPeriod:
		series[len(series)-1] = in
		return series, true
	case inPeriod > lastPeriod:
		return append(series, in), true
	default:
		return series, false
	}
}
