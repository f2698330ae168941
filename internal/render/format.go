package render

import (
	"fmt"
	"math"
	"time"

	"chartview/internal/model"
)

// FormatPrice renders a price with precision scaled to its magnitude,
// so penny stocks keep meaningful digits while large prices stay short.
func FormatPrice(p float64) string {
	abs := math.Abs(p)
	switch {
	case abs >= 100:
		return fmt.Sprintf("%.2f", p)
	case abs >= 10:
		return fmt.Sprintf("%.3f", p)
	case abs >= 1:
		return fmt.Sprintf("%.4f", p)
	default:
		return fmt.Sprintf("%.6f", p)
	}
}

// FormatTimeLabel renders an axis label for a candle timestamp. The
// granularity follows the timeframe: intraday frames show clock time,
// hourly and above show dates.
func FormatTimeLabel(tsMillis int64, tf model.Timeframe) string {
	t := time.UnixMilli(tsMillis)
	switch tf {
	case model.TF1d, model.TF1w:
		return t.Format("Jan 06")
	case model.TF4h:
		return t.Format("Jan 2")
	case model.TF1h:
		return t.Format("2 Jan")
	case model.TF5m, model.TF15m:
		return fmt.Sprintf("%02d:00", t.Hour())
	case model.TF1m:
		return fmt.Sprintf("%02d:%02d", t.Hour(), t.Minute()/30*30)
	default:
		return t.Format("Jan 2 15:04")
	}
}

// baseTimeStep returns the label stride in candles for a timeframe,
// before the zoom-dependent overlap adjustment.
func baseTimeStep(tf model.Timeframe, dataLen int) int {
	div := 12
	switch tf {
	case model.TF1d, model.TF1w:
		div = 12
	case model.TF4h:
		div = 20
	case model.TF1h:
		div = 24
	case model.TF5m, model.TF15m:
		div = 36
	case model.TF1m:
		div = 30
	}
	step := dataLen / div
	if step < 1 {
		step = 1
	}
	return step
}

// minLabelSpacing is the minimum pixel distance between time labels.
const minLabelSpacing = 80.0

// timeStep widens the base stride until labels sit at least
// minLabelSpacing pixels apart at the given bar width.
func timeStep(tf model.Timeframe, dataLen int, barWidth float64) int {
	step := baseTimeStep(tf, dataLen)
	if barWidth > 0 {
		if zoomStep := int(math.Ceil(minLabelSpacing / barWidth)); zoomStep > step {
			step = zoomStep
		}
	}
	return step
}

// projectTimestamp returns the timestamp for virtual candle slot i,
// extrapolating past either end of the series from the spacing of the
// last two candles.
func projectTimestamp(data []model.Candle, i int, tf model.Timeframe) int64 {
	n := len(data)
	if i >= 0 && i < n {
		return data[i].Timestamp
	}
	interval := tf.IntervalMs()
	if n >= 2 {
		interval = data[n-1].Timestamp - data[n-2].Timestamp
	}
	if n == 0 {
		return int64(i) * interval
	}
	if i < 0 {
		return data[0].Timestamp + int64(i)*interval
	}
	return data[n-1].Timestamp + int64(i-n+1)*interval
}
