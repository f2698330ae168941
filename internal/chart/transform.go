// Package chart holds the chart engine: viewport and coordinate
// transforms, the annotation model with hit-testing, the interaction
// state machine, and the viewport animator. It has no rendering or UI
// dependencies; the render and ui packages consume it read-only.
package chart

import (
	"math"

	"chartview/internal/model"
)

// Fixed axis gutters in logical pixels. All index/price transforms
// operate on the main plot rectangle that excludes them.
const (
	PriceAxisWidth = 60.0
	TimeAxisHeight = 30.0
)

// Viewport is the visible window over the candle index axis.
// Offset is the virtual index of the first visible slot; it may be
// negative (blank space left of history) or past the last index (blank
// space into the future). Size is the number of slots spanning the
// plot width and never drops below 1.
type Viewport struct {
	Offset float64
	Size   float64
}

// PriceRange is a vertical price window with Max > Min.
type PriceRange struct {
	Min float64
	Max float64
}

// Span returns Max - Min.
func (r PriceRange) Span() float64 { return r.Max - r.Min }

// Shifted translates the range by a vertical pixel offset without
// altering its span: shift = span * offsetPx / plotHeight.
func (r PriceRange) Shifted(offsetPx, plotHeight float64) PriceRange {
	if offsetPx == 0 || plotHeight <= 0 {
		return r
	}
	shift := r.Span() * offsetPx / plotHeight
	return PriceRange{Min: r.Min + shift, Max: r.Max + shift}
}

// RangeFromCandles derives a price range from the low/high extremes of
// the given candles, padded on each side by pad (a fraction of the raw
// span). A zero raw span is padded to a non-zero one so the transforms
// never divide by zero. ok is false when the slice is empty.
func RangeFromCandles(candles []model.Candle, pad float64) (r PriceRange, ok bool) {
	if len(candles) == 0 {
		return PriceRange{}, false
	}
	min := math.Inf(1)
	max := math.Inf(-1)
	for i := range candles {
		if candles[i].Low < min {
			min = candles[i].Low
		}
		if candles[i].High > max {
			max = candles[i].High
		}
	}
	span := max - min
	if span == 0 {
		span = math.Max(math.Abs(max)*0.01, 1)
		min -= span / 2
		max += span / 2
	}
	return PriceRange{Min: min - span*pad, Max: max + span*pad}, true
}

// Transform maps between (data index, price) and plot pixels for one
// canvas layout. Width and Height are the full logical canvas size
// including the axis gutters.
type Transform struct {
	Width    float64
	Height   float64
	Viewport Viewport
	Range    PriceRange
}

// PlotWidth returns the width of the main plot area.
func (t Transform) PlotWidth() float64 { return t.Width - PriceAxisWidth }

// PlotHeight returns the height of the main plot area.
func (t Transform) PlotHeight() float64 { return t.Height - TimeAxisHeight }

// BarWidth returns the pixel width of one candle slot.
func (t Transform) BarWidth() float64 { return t.PlotWidth() / t.Viewport.Size }

// IndexToX maps a virtual candle index to the x coordinate of the
// slot's left edge. Indices outside the data produce positions for
// blank space; the renderer decides what may be drawn there.
func (t Transform) IndexToX(i float64) float64 {
	return (i - t.Viewport.Offset) * t.BarWidth()
}

// XToIndex is the unclamped inverse of IndexToX.
func (t Transform) XToIndex(x float64) float64 {
	return x/t.BarWidth() + t.Viewport.Offset
}

// XToDataIndex floors the virtual index under x and clamps it to
// [0, n-1] for hit-testing. Returns -1 when there is no data.
func (t Transform) XToDataIndex(x float64, n int) int {
	if n == 0 {
		return -1
	}
	i := int(math.Floor(t.XToIndex(x)))
	if i < 0 {
		return 0
	}
	if i >= n {
		return n - 1
	}
	return i
}

// CandleCenterX returns the pixel centre of candle slot i.
func (t Transform) CandleCenterX(i int) float64 {
	return t.IndexToX(float64(i)) + t.BarWidth()/2
}

// PriceToY maps a price to a plot y coordinate. The range span is
// guaranteed non-zero by construction (RangeFromCandles pads it).
func (t Transform) PriceToY(price float64) float64 {
	h := t.PlotHeight()
	return h - (price-t.Range.Min)/t.Range.Span()*h
}

// YToPrice is the exact algebraic inverse of PriceToY.
func (t Transform) YToPrice(y float64) float64 {
	h := t.PlotHeight()
	return t.Range.Min + (h-y)/h*t.Range.Span()
}

// InPlot reports whether the point lies inside the main plot area.
func (t Transform) InPlot(x, y float64) bool {
	return x >= 0 && x < t.PlotWidth() && y >= 0 && y < t.PlotHeight()
}
