package model

// Timeframe is a bar interval identifier as used by the data provider
// and the chart chrome: "1m", "5m", "15m", "30m", "1h", "4h", "1d", "1w".
type Timeframe string

const (
	TF1m  Timeframe = "1m"
	TF5m  Timeframe = "5m"
	TF15m Timeframe = "15m"
	TF30m Timeframe = "30m"
	TF1h  Timeframe = "1h"
	TF4h  Timeframe = "4h"
	TF1d  Timeframe = "1d"
	TF1w  Timeframe = "1w"
)

// Timeframes lists the supported intervals in display order.
var Timeframes = []Timeframe{TF1m, TF5m, TF15m, TF30m, TF1h, TF4h, TF1d, TF1w}

// IntervalMs returns the bar interval in milliseconds.
// Unknown values fall back to daily.
func (tf Timeframe) IntervalMs() int64 {
	switch tf {
	case TF1m:
		return 60_000
	case TF5m:
		return 5 * 60_000
	case TF15m:
		return 15 * 60_000
	case TF30m:
		return 30 * 60_000
	case TF1h:
		return 60 * 60_000
	case TF4h:
		return 4 * 60 * 60_000
	case TF1d:
		return 24 * 60 * 60_000
	case TF1w:
		return 7 * 24 * 60 * 60_000
	default:
		return 24 * 60 * 60_000
	}
}

// PeriodStart floors a millisecond timestamp to the start of its bar period.
func (tf Timeframe) PeriodStart(ts int64) int64 {
	iv := tf.IntervalMs()
	return ts - ts%iv
}
