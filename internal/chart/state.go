package chart

import (
	"math"

	"chartview/internal/indicator"
	"chartview/internal/model"
)

// Tool is the active interaction tool selected in the chrome.
type Tool int

const (
	ToolCrosshair Tool = iota
	ToolPointer
	ToolLine
	ToolMeasure
	ToolFibonacci
	ToolText
	ToolDraw
)

// ChartType selects how the main price series is rendered.
type ChartType int

const (
	ChartCandlestick ChartType = iota
	ChartArea
)

// defaultViewportSize is the number of candles shown after a reset.
const defaultViewportSize = 100

// rangePad is the fraction of the visible price span added above and
// below the auto-derived price range.
const rangePad = 0.05

// State is the single in-memory chart state: candle data, viewport,
// price scaling, indicator attachments and annotations, plus the
// transient cursor fields. It is owned by the Machine; the render
// pipeline only reads it.
type State struct {
	Symbol    string
	Timeframe model.Timeframe
	Data      []model.Candle
	Type      ChartType
	Demo      bool // data came from the synthetic fallback
	ShowOHLC  bool

	// Logical canvas size, set by the widget before event dispatch
	// and rendering.
	Width  float64
	Height float64

	Viewport Viewport
	// CustomRange is set by price-axis gestures and overrides the
	// auto-derived range until a double-click reset.
	CustomRange *PriceRange
	// VerticalOffset translates the effective price range, in pixels.
	VerticalOffset float64

	Indicators []indicator.Config

	Annotations Annotations
	// Current is the in-progress drawing being created by a drag
	// gesture; promoted into Annotations on pointer-up.
	Current  Drawing
	Selected Ref
	Hovered  Ref

	// Cursor tracking for the crosshair and the OHLC readout.
	CursorX       float64
	CursorY       float64
	CursorInPlot  bool
	HoveredCandle int // index into Data, -1 when none
}

// NewState returns a chart state showing the most recent candles of data.
func NewState(symbol string, tf model.Timeframe, data []model.Candle) *State {
	s := &State{
		Symbol:        symbol,
		Timeframe:     tf,
		Data:          data,
		ShowOHLC:      true,
		HoveredCandle: -1,
	}
	s.ResetViewport()
	return s
}

// ResetViewport snaps the viewport to the most recent candles with no
// custom price range or vertical offset.
func (s *State) ResetViewport() {
	size := float64(len(s.Data))
	if size > defaultViewportSize {
		size = defaultViewportSize
	}
	if size < 1 {
		size = 1
	}
	s.Viewport = Viewport{Offset: float64(len(s.Data)) - size, Size: size}
	s.CustomRange = nil
	s.VerticalOffset = 0
}

// VisibleWindow returns the [start, end) slice bounds of the candles
// intersecting the viewport.
func (s *State) VisibleWindow() (start, end int) {
	start = int(math.Floor(s.Viewport.Offset))
	if start < 0 {
		start = 0
	}
	end = int(math.Ceil(s.Viewport.Offset + s.Viewport.Size))
	if end > len(s.Data) {
		end = len(s.Data)
	}
	if start > end {
		start = end
	}
	return start, end
}

// VisibleCandles returns the candles intersecting the viewport.
func (s *State) VisibleCandles() []model.Candle {
	start, end := s.VisibleWindow()
	return s.Data[start:end]
}

// storedRange is the range price-scale gestures operate on: the custom
// range when set, else the padded range of the visible candles.
func (s *State) storedRange() PriceRange {
	if s.CustomRange != nil {
		return *s.CustomRange
	}
	if r, ok := RangeFromCandles(s.VisibleCandles(), rangePad); ok {
		return r
	}
	return PriceRange{Min: 0, Max: 1}
}

// EffectiveRange returns the price range used for drawing and
// transforms: the stored range shifted by the vertical offset.
func (s *State) EffectiveRange(plotHeight float64) PriceRange {
	return s.storedRange().Shifted(s.VerticalOffset, plotHeight)
}

// Transform builds the coordinate transform for the current canvas
// size, viewport and effective price range.
func (s *State) Transform() Transform {
	t := Transform{
		Width:    s.Width,
		Height:   s.Height,
		Viewport: s.Viewport,
	}
	t.Range = s.EffectiveRange(t.PlotHeight())
	return t
}

// PanelIndicators returns the attached indicators that render in their
// own sub-panel below the main plot.
func (s *State) PanelIndicators() []indicator.Config {
	var out []indicator.Config
	for _, cfg := range s.Indicators {
		if !cfg.Overlay {
			out = append(out, cfg)
		}
	}
	return out
}

// OverlayIndicators returns the attached indicators drawn on the main
// price axis.
func (s *State) OverlayIndicators() []indicator.Config {
	var out []indicator.Config
	for _, cfg := range s.Indicators {
		if cfg.Overlay {
			out = append(out, cfg)
		}
	}
	return out
}
