package dataservice

import (
	"math"
	"math/rand"
	"time"

	"chartview/internal/model"
)

const syntheticBars = 100

// Synthetic generates a plausible 100-bar random walk for a symbol.
// The walk is seeded from the symbol name, so the same symbol always
// produces the same shape: a stable stand-in when the live API is
// unreachable.
func Synthetic(symbol string, tf model.Timeframe, now time.Time) []model.Candle {
	var seed int64
	for _, r := range symbol {
		seed += int64(r)
	}

	rng := rand.New(rand.NewSource(seed))
	volatility := float64(seed%10) + 5
	trend := float64(seed%3) - 1

	interval := tf.IntervalMs()
	end := tf.PeriodStart(now.UnixMilli())
	lastClose := 100 + float64(seed%400)

	candles := make([]model.Candle, syntheticBars)
	for i := 0; i < syntheticBars; i++ {
		open := lastClose
		change := (trend*0.2 + (rng.Float64()-0.5)*2) * volatility
		close := math.Max(1, open+change)
		high := math.Max(open, close) + rng.Float64()*volatility
		low := math.Max(0.5, math.Min(open, close)-rng.Float64()*volatility)
		volume := math.Round((1000 + rng.Float64()*9000) * (1 + float64(seed%10)))

		candles[i] = model.Candle{
			Timestamp: end - int64(syntheticBars-1-i)*interval,
			Open:      open,
			High:      high,
			Low:       low,
			Close:     close,
			Volume:    volume,
		}
		lastClose = close
	}
	return candles
}
