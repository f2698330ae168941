package indicator

import (
	"fmt"
	"time"

	"chartview/internal/model"
)

// Compute evaluates one config over the full candle series.
func Compute(cfg Config, candles []model.Candle) Output {
	out := Output{Type: cfg.Type}
	switch cfg.Type {
	case TypeSMA:
		out.Value = SMA(candles, cfg.Period)
	case TypeEMA:
		out.Value = EMA(candles, cfg.Period)
	case TypeBollinger:
		out.Middle, out.Upper, out.Lower = Bollinger(candles, cfg.Period, cfg.StdDev)
	case TypeRSI:
		out.Value = RSI(candles, cfg.Period)
	case TypeMACD:
		out.MACD, out.Signal, out.Histogram = MACD(candles, cfg.Fast, cfg.Slow, cfg.Signal)
	case TypeStochastic:
		out.K, out.D = Stochastic(candles, cfg.KPeriod, cfg.DPeriod)
	case TypeATR:
		out.Value = ATR(candles, cfg.Period)
	case TypeVolume:
		out.Value = Volume(candles)
	}
	return out
}

type cacheEntry struct {
	dataLen   int
	lastTS    int64
	lastClose float64
	out       Output
}

// Engine memoizes per-config outputs between frames. Recomputation
// happens only when the series length, last timestamp or last close
// changes, which keeps repaints during pure pan/zoom cheap.
type Engine struct {
	cache map[string]cacheEntry

	// Optional observation hooks.
	OnCompute  func(seconds float64)
	OnCacheHit func()
}

// NewEngine returns an engine with an empty cache.
func NewEngine() *Engine {
	return &Engine{cache: make(map[string]cacheEntry)}
}

func cacheKey(cfg Config) string {
	return fmt.Sprintf("%s|%s|%d|%d|%d|%d|%d|%d|%g",
		cfg.ID, cfg.Type, cfg.Period, cfg.Fast, cfg.Slow, cfg.Signal, cfg.KPeriod, cfg.DPeriod, cfg.StdDev)
}

// Compute evaluates cfg over candles, reusing the cached output when
// the series is unchanged since the last call.
func (e *Engine) Compute(cfg Config, candles []model.Candle) Output {
	key := cacheKey(cfg)
	var lastTS int64
	var lastClose float64
	if n := len(candles); n > 0 {
		lastTS = candles[n-1].Timestamp
		lastClose = candles[n-1].Close
	}
	if ent, ok := e.cache[key]; ok &&
		ent.dataLen == len(candles) && ent.lastTS == lastTS && ent.lastClose == lastClose {
		if e.OnCacheHit != nil {
			e.OnCacheHit()
		}
		return ent.out
	}
	start := time.Now()
	out := Compute(cfg, candles)
	if e.OnCompute != nil {
		e.OnCompute(time.Since(start).Seconds())
	}
	e.cache[key] = cacheEntry{
		dataLen:   len(candles),
		lastTS:    lastTS,
		lastClose: lastClose,
		out:       out,
	}
	return out
}

// Invalidate drops all cached outputs.
func (e *Engine) Invalidate() {
	e.cache = make(map[string]cacheEntry)
}
