package indicator

import "fmt"

// Type names a supported indicator.
type Type string

const (
	TypeSMA        Type = "sma"
	TypeEMA        Type = "ema"
	TypeBollinger  Type = "bollinger"
	TypeRSI        Type = "rsi"
	TypeMACD       Type = "macd"
	TypeStochastic Type = "stochastic"
	TypeATR        Type = "atr"
	TypeVolume     Type = "volume"
)

// Config is one indicator attachment on a chart. Overlay indicators
// draw on the price axis; the rest render in a sub-panel whose height
// is a percentage of the canvas.
type Config struct {
	ID      string
	Type    Type
	Name    string
	Period  int
	Color   string
	Overlay bool
	Height  float64

	// MACD
	Fast, Slow, Signal int
	// Stochastic
	KPeriod, DPeriod int
	// Bollinger
	StdDev float64
}

// Defaults returns the stock configuration for each indicator type.
func Defaults(t Type) Config {
	switch t {
	case TypeSMA:
		return Config{Type: t, Name: "SMA", Period: 20, Color: "#2196F3", Overlay: true}
	case TypeEMA:
		return Config{Type: t, Name: "EMA", Period: 14, Color: "#FF9800", Overlay: true}
	case TypeBollinger:
		return Config{Type: t, Name: "BB", Period: 20, Color: "#4CAF50", Overlay: true, StdDev: 2}
	case TypeRSI:
		return Config{Type: t, Name: "RSI", Period: 14, Color: "#E91E63", Height: 20}
	case TypeMACD:
		return Config{Type: t, Name: "MACD", Color: "#9C27B0", Height: 20, Fast: 12, Slow: 26, Signal: 9}
	case TypeStochastic:
		return Config{Type: t, Name: "STOCH", Color: "#795548", Height: 20, KPeriod: 14, DPeriod: 3}
	case TypeATR:
		return Config{Type: t, Name: "ATR", Period: 14, Color: "#00BCD4", Height: 20}
	case TypeVolume:
		return Config{Type: t, Name: "VOL", Color: "#607D8B", Height: 15}
	}
	return Config{Type: t, Name: string(t)}
}

// Label returns the display name with the configured parameters, e.g.
// "SMA(20)" or "MACD(12,26,9)".
func (c Config) Label() string {
	switch c.Type {
	case TypeMACD:
		return fmt.Sprintf("%s(%d,%d,%d)", c.Name, c.Fast, c.Slow, c.Signal)
	case TypeStochastic:
		return fmt.Sprintf("%s(%d,%d)", c.Name, c.KPeriod, c.DPeriod)
	case TypeVolume:
		return c.Name
	}
	return fmt.Sprintf("%s(%d)", c.Name, c.Period)
}

// Output holds the computed series for one config, aligned with the
// input candles. Only the fields matching the config's type are set.
type Output struct {
	Type Type

	// Single-line indicators (SMA, EMA, RSI, ATR, volume).
	Value []float64

	// Bollinger bands.
	Middle, Upper, Lower []float64

	// MACD.
	MACD, Signal, Histogram []float64

	// Stochastic.
	K, D []float64
}
