// Package indicator provides technical indicator calculations over candle data.
//
// All functions compute full series aligned with the input: output index i
// corresponds to candle i, and entries with insufficient history are NaN.
// Callers skip NaN gaps when rendering.
package indicator

import (
	"math"

	"chartview/internal/model"
)

func nanSeries(n int) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = math.NaN()
	}
	return out
}

func closes(candles []model.Candle) []float64 {
	out := make([]float64, len(candles))
	for i, c := range candles {
		out[i] = c.Close
	}
	return out
}

// SMA computes the simple moving average of the closes.
func SMA(candles []model.Candle, period int) []float64 {
	return smaSeries(closes(candles), period)
}

func smaSeries(values []float64, period int) []float64 {
	out := nanSeries(len(values))
	if period <= 0 || len(values) < period {
		return out
	}
	sum := 0.0
	for i, v := range values {
		sum += v
		if i >= period {
			sum -= values[i-period]
		}
		if i >= period-1 {
			out[i] = sum / float64(period)
		}
	}
	return out
}

// EMA computes the exponential moving average of the closes, seeded with
// the SMA of the first period values.
func EMA(candles []model.Candle, period int) []float64 {
	return emaSeries(closes(candles), period)
}

func emaSeries(values []float64, period int) []float64 {
	out := nanSeries(len(values))
	if period <= 0 || len(values) < period {
		return out
	}
	mult := 2.0 / float64(period+1)
	seed := 0.0
	for _, v := range values[:period] {
		seed += v
	}
	prev := seed / float64(period)
	out[period-1] = prev
	for i := period; i < len(values); i++ {
		prev = values[i]*mult + prev*(1-mult)
		out[i] = prev
	}
	return out
}

// RSI computes the relative strength index using a simple average of
// gains and losses over the trailing period deltas. An all-gain window
// reads 100.
func RSI(candles []model.Candle, period int) []float64 {
	out := nanSeries(len(candles))
	if period <= 0 || len(candles) <= period {
		return out
	}
	for i := period; i < len(candles); i++ {
		var gain, loss float64
		for j := i - period + 1; j <= i; j++ {
			d := candles[j].Close - candles[j-1].Close
			if d > 0 {
				gain += d
			} else {
				loss -= d
			}
		}
		avgGain := gain / float64(period)
		avgLoss := loss / float64(period)
		if avgLoss == 0 {
			out[i] = 100
			continue
		}
		rs := avgGain / avgLoss
		out[i] = 100 - 100/(1+rs)
	}
	return out
}

// Bollinger computes middle/upper/lower bands: SMA plus and minus mult
// population standard deviations around the SMA.
func Bollinger(candles []model.Candle, period int, mult float64) (middle, upper, lower []float64) {
	cs := closes(candles)
	middle = smaSeries(cs, period)
	upper = nanSeries(len(cs))
	lower = nanSeries(len(cs))
	for i := period - 1; i < len(cs); i++ {
		if math.IsNaN(middle[i]) {
			continue
		}
		var sq float64
		for j := i - period + 1; j <= i; j++ {
			d := cs[j] - middle[i]
			sq += d * d
		}
		std := math.Sqrt(sq / float64(period))
		upper[i] = middle[i] + mult*std
		lower[i] = middle[i] - mult*std
	}
	return middle, upper, lower
}

// MACD computes the MACD line (fast EMA minus slow EMA), its signal
// line and the histogram. The signal line is an EMA of the MACD line,
// seeded with the average of the first signal defined MACD values.
func MACD(candles []model.Candle, fast, slow, signal int) (macd, sig, hist []float64) {
	n := len(candles)
	macd = nanSeries(n)
	sig = nanSeries(n)
	hist = nanSeries(n)
	if fast <= 0 || slow <= 0 || signal <= 0 {
		return macd, sig, hist
	}

	fastEMA := EMA(candles, fast)
	slowEMA := EMA(candles, slow)
	for i := 0; i < n; i++ {
		if !math.IsNaN(fastEMA[i]) && !math.IsNaN(slowEMA[i]) {
			macd[i] = fastEMA[i] - slowEMA[i]
		}
	}

	// MACD is defined from slow-1 onward; the signal seeds once signal
	// defined values exist.
	seedIdx := (slow - 1) + (signal - 1)
	if seedIdx >= n {
		return macd, sig, hist
	}
	mult := 2.0 / float64(signal+1)
	seed := 0.0
	for i := slow - 1; i <= seedIdx; i++ {
		seed += macd[i]
	}
	prev := seed / float64(signal)
	sig[seedIdx] = prev
	hist[seedIdx] = macd[seedIdx] - prev
	for i := seedIdx + 1; i < n; i++ {
		prev = macd[i]*mult + prev*(1-mult)
		sig[i] = prev
		hist[i] = macd[i] - prev
	}
	return macd, sig, hist
}

// Stochastic computes %K over the trailing kPeriod high/low range and
// %D as an SMA of %K. A flat range reads 50.
func Stochastic(candles []model.Candle, kPeriod, dPeriod int) (k, d []float64) {
	n := len(candles)
	k = nanSeries(n)
	if kPeriod <= 0 || dPeriod <= 0 {
		return k, nanSeries(n)
	}
	for i := kPeriod - 1; i < n; i++ {
		hi := math.Inf(-1)
		lo := math.Inf(1)
		for j := i - kPeriod + 1; j <= i; j++ {
			hi = math.Max(hi, candles[j].High)
			lo = math.Min(lo, candles[j].Low)
		}
		if hi == lo {
			k[i] = 50
			continue
		}
		k[i] = (candles[i].Close - lo) / (hi - lo) * 100
	}
	d = smaOfSeries(k, dPeriod)
	return k, d
}

// smaOfSeries averages the trailing period entries, producing NaN
// whenever the window contains a NaN.
func smaOfSeries(values []float64, period int) []float64 {
	out := nanSeries(len(values))
	for i := period - 1; i < len(values); i++ {
		sum := 0.0
		ok := true
		for j := i - period + 1; j <= i; j++ {
			if math.IsNaN(values[j]) {
				ok = false
				break
			}
			sum += values[j]
		}
		if ok {
			out[i] = sum / float64(period)
		}
	}
	return out
}

// ATR computes the average true range: a simple average of the first
// period true ranges, then Wilder smoothing.
func ATR(candles []model.Candle, period int) []float64 {
	n := len(candles)
	out := nanSeries(n)
	if period <= 0 || n < period {
		return out
	}
	tr := make([]float64, n)
	for i, c := range candles {
		if i == 0 {
			tr[i] = c.High - c.Low
			continue
		}
		prevClose := candles[i-1].Close
		tr[i] = math.Max(c.High-c.Low,
			math.Max(math.Abs(c.High-prevClose), math.Abs(c.Low-prevClose)))
	}
	sum := 0.0
	for _, v := range tr[:period] {
		sum += v
	}
	prev := sum / float64(period)
	out[period-1] = prev
	for i := period; i < n; i++ {
		prev = (prev*float64(period-1) + tr[i]) / float64(period)
		out[i] = prev
	}
	return out
}

// Volume passes the candle volumes through as a series.
func Volume(candles []model.Candle) []float64 {
	out := make([]float64, len(candles))
	for i, c := range candles {
		out[i] = c.Volume
	}
	return out
}
