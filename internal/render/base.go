package render

import (
	"math"

	"github.com/wcharczuk/go-chart/v2/drawing"

	"chartview/internal/chart"
	"chartview/internal/indicator"
	"chartview/internal/model"
)

// Chart theme colors.
var (
	colorBackground = Color("#0f0f0f", 1)
	colorScaleBg    = Color("#0f0f0f", 0.9)
	colorAxisText   = Color("#888888", 1)
	colorUp         = Color("#26a69a", 1)
	colorDown       = Color("#ef5350", 1)
	colorUpFaint    = Color("#26a69a", 0.3)
	colorDownFaint  = Color("#ef5350", 0.3)
	colorArea       = Color("#2196F3", 1)
	colorAreaFill   = Color("#2196F3", 0.15)
	colorPanelBg    = Color("#141414", 0.5)
	colorSignal     = Color("#FF9800", 1)
	colorHistUp     = Color("#4CAF50", 1)
	colorHistDown   = Color("#FF5252", 1)
)

const (
	axisFontSize  = 11.0
	panelFontSize = 10.0
	bodyWidthFrac = 0.8
	priceLabels   = 8
)

// Base renders the data layer: background, axes, grid, main series,
// overlay indicators and indicator sub-panels. It owns the indicator
// engine so unchanged series are not recomputed between frames.
type Base struct {
	Engine *indicator.Engine
}

// NewBase returns a base-layer renderer with a fresh indicator engine.
func NewBase() *Base {
	return &Base{Engine: indicator.NewEngine()}
}

// Draw paints the full base layer for s onto c.
func (b *Base) Draw(c *Context, s *chart.State) {
	c.Width = s.Width
	c.Height = s.Height
	t := s.Transform()

	c.FillRect(0, 0, s.Width, s.Height, colorBackground)
	if len(s.Data) == 0 {
		c.TextCentered("No data", t.PlotWidth()/2, t.PlotHeight()/2, colorAxisText, 14)
		return
	}

	b.drawTimeScale(c, s, t)
	b.drawPriceScale(c, s, t)

	switch s.Type {
	case chart.ChartArea:
		b.drawArea(c, s, t)
	default:
		b.drawCandles(c, s, t)
	}

	for _, cfg := range s.OverlayIndicators() {
		b.drawOverlayIndicator(c, s, t, cfg)
	}
	b.drawPanels(c, s, t)
}

func (b *Base) drawTimeScale(c *Context, s *chart.State, t chart.Transform) {
	plotW := t.PlotWidth()
	plotH := t.PlotHeight()

	c.FillRect(0, plotH, plotW, chart.TimeAxisHeight, colorScaleBg)
	c.Line(0, plotH, plotW, plotH, white(0.2), 1, nil)

	step := timeStep(s.Timeframe, len(s.Data), t.BarWidth())
	start, end := s.VisibleWindow()
	first := (start / step) * step

	for i := first; i < end+step; i += step {
		x := t.CandleCenterX(i)
		if x < 0 || x > plotW {
			continue
		}
		c.Line(x, 0, x, plotH, white(0.05), 1, nil)
		c.Line(x, plotH, x, plotH+4, white(0.3), 1, nil)

		label := FormatTimeLabel(projectTimestamp(s.Data, i, s.Timeframe), s.Timeframe)
		tw := c.TextWidth(label, axisFontSize)
		tx := math.Max(tw/2, math.Min(plotW-tw/2, x))
		c.TextCentered(label, tx, plotH+chart.TimeAxisHeight/2+axisFontSize/2-1, colorAxisText, axisFontSize)
	}
}

func (b *Base) drawPriceScale(c *Context, s *chart.State, t chart.Transform) {
	plotW := t.PlotWidth()
	plotH := t.PlotHeight()

	c.FillRect(plotW, 0, chart.PriceAxisWidth, plotH, colorScaleBg)
	c.Line(plotW, 0, plotW, plotH, white(0.2), 1, nil)

	step := t.Range.Span() / float64(priceLabels-1)
	for i := 0; i < priceLabels; i++ {
		price := t.Range.Min + step*float64(i)
		y := t.PriceToY(price)
		if y < 0 || y > plotH {
			continue
		}
		// Grid lines stay off the plot edges.
		if i != 0 && i != priceLabels-1 {
			c.Line(0, y, plotW, y, white(0.15), 1, nil)
		}
		c.Line(plotW, y, plotW+4, y, white(0.3), 1, nil)
		c.TextRight(FormatPrice(price), s.Width-8, y+axisFontSize/2-1, colorAxisText, axisFontSize)
	}
}

func (b *Base) drawCandles(c *Context, s *chart.State, t chart.Transform) {
	start, end := s.VisibleWindow()
	bodyW := math.Max(1, t.BarWidth()*bodyWidthFrac)

	for i := start; i < end; i++ {
		cd := s.Data[i]
		col := colorDown
		if cd.Up() {
			col = colorUp
		}
		x := t.CandleCenterX(i)

		c.Line(x, t.PriceToY(cd.High), x, t.PriceToY(cd.Low), col, 1, nil)

		top := t.PriceToY(math.Max(cd.Open, cd.Close))
		bot := t.PriceToY(math.Min(cd.Open, cd.Close))
		if bot-top < 1 {
			bot = top + 1
		}
		c.FillRect(x-bodyW/2, top, bodyW, bot-top, col)
	}
}

func (b *Base) drawArea(c *Context, s *chart.State, t chart.Transform) {
	start, end := s.VisibleWindow()
	if end-start < 2 {
		return
	}
	xs := make([]float64, 0, end-start+2)
	ys := make([]float64, 0, end-start+2)
	for i := start; i < end; i++ {
		xs = append(xs, t.CandleCenterX(i))
		ys = append(ys, t.PriceToY(s.Data[i].Close))
	}

	plotH := t.PlotHeight()
	fx := append(append([]float64{}, xs...), xs[len(xs)-1], xs[0])
	fy := append(append([]float64{}, ys...), plotH, plotH)
	c.FillPoly(fx, fy, colorAreaFill)
	c.Polyline(xs, ys, colorArea, 2, nil)
}

// seriesLine strokes values[start:end] against the price axis,
// breaking the stroke at NaN gaps.
func (c *Context) seriesLine(t chart.Transform, values []float64, start, end int, yOf func(float64) float64, col drawing.Color, width float64) {
	var xs, ys []float64
	flush := func() {
		c.Polyline(xs, ys, col, width, nil)
		xs, ys = xs[:0], ys[:0]
	}
	for i := start; i < end && i < len(values); i++ {
		if math.IsNaN(values[i]) {
			flush()
			continue
		}
		xs = append(xs, t.CandleCenterX(i))
		ys = append(ys, yOf(values[i]))
	}
	flush()
}

func (b *Base) drawOverlayIndicator(c *Context, s *chart.State, t chart.Transform, cfg indicator.Config) {
	out := b.Engine.Compute(cfg, s.Data)
	start, end := s.VisibleWindow()
	col := Color(cfg.Color, 1)

	switch cfg.Type {
	case indicator.TypeBollinger:
		c.seriesLine(t, out.Middle, start, end, t.PriceToY, col, 1)
		c.seriesLine(t, out.Upper, start, end, t.PriceToY, Color(cfg.Color, 0.6), 1)
		c.seriesLine(t, out.Lower, start, end, t.PriceToY, Color(cfg.Color, 0.6), 1)
	default:
		c.seriesLine(t, out.Value, start, end, t.PriceToY, col, 2)
	}
}

// panelArea is one indicator sub-panel strip stacked above the time
// axis, drawn translucently over the main plot.
type panelArea struct {
	cfg  indicator.Config
	y, h float64
}

func panelAreas(s *chart.State, plotH float64) []panelArea {
	var out []panelArea
	bottom := plotH
	for _, cfg := range s.PanelIndicators() {
		hPct := cfg.Height
		if hPct <= 0 {
			hPct = 20
		}
		h := hPct / 100 * plotH
		bottom -= h
		out = append(out, panelArea{cfg: cfg, y: bottom, h: h})
	}
	return out
}

func (b *Base) drawPanels(c *Context, s *chart.State, t chart.Transform) {
	plotW := t.PlotWidth()
	start, end := s.VisibleWindow()

	for _, pa := range panelAreas(s, t.PlotHeight()) {
		c.FillRect(0, pa.y, plotW, pa.h, colorPanelBg)
		c.Line(0, pa.y, plotW, pa.y, white(0.15), 1, nil)
		c.Text(pa.cfg.Label(), 6, pa.y+panelFontSize+3, Color(pa.cfg.Color, 1), panelFontSize)

		out := b.Engine.Compute(pa.cfg, s.Data)
		switch pa.cfg.Type {
		case indicator.TypeRSI:
			b.drawBoundedPanel(c, t, pa, out.Value, start, end, 30, 70)
		case indicator.TypeStochastic:
			yOf := panelScale(pa, 0, 100)
			b.panelRefLine(c, plotW, yOf(20))
			b.panelRefLine(c, plotW, yOf(80))
			c.seriesLine(t, out.K, start, end, yOf, Color(pa.cfg.Color, 1), 1.5)
			c.seriesLine(t, out.D, start, end, yOf, colorSignal, 1.5)
		case indicator.TypeMACD:
			b.drawMACDPanel(c, t, pa, out, start, end)
		case indicator.TypeATR:
			lo, hi := seriesExtent(out.Value, start, end)
			yOf := panelScale(pa, lo, hi)
			b.panelRefLine(c, plotW, yOf((lo+hi)/2))
			c.seriesLine(t, out.Value, start, end, yOf, Color(pa.cfg.Color, 1), 1.5)
		case indicator.TypeVolume:
			b.drawVolumePanel(c, s, t, pa, out.Value, start, end)
		}
	}
}

func (b *Base) panelRefLine(c *Context, plotW, y float64) {
	c.Line(0, y, plotW, y, white(0.1), 1, []float64{2, 2})
}

// panelScale maps a value range onto a panel strip, high values up.
func panelScale(pa panelArea, lo, hi float64) func(float64) float64 {
	span := hi - lo
	if span == 0 {
		span = 1
	}
	return func(v float64) float64 {
		return pa.y + pa.h - (v-lo)/span*pa.h
	}
}

func (b *Base) drawBoundedPanel(c *Context, t chart.Transform, pa panelArea, values []float64, start, end int, refLo, refHi float64) {
	yOf := panelScale(pa, 0, 100)
	b.panelRefLine(c, t.PlotWidth(), yOf(refLo))
	b.panelRefLine(c, t.PlotWidth(), yOf(refHi))
	c.seriesLine(t, values, start, end, yOf, Color(pa.cfg.Color, 1), 1.5)
}

func (b *Base) drawMACDPanel(c *Context, t chart.Transform, pa panelArea, out indicator.Output, start, end int) {
	lo, hi := seriesExtent(out.MACD, start, end)
	sLo, sHi := seriesExtent(out.Signal, start, end)
	hLo, hHi := seriesExtent(out.Histogram, start, end)
	lo = math.Min(lo, math.Min(sLo, hLo))
	hi = math.Max(hi, math.Max(sHi, hHi))
	// Keep zero inside the panel so the histogram has a baseline.
	lo = math.Min(lo, 0)
	hi = math.Max(hi, 0)

	yOf := panelScale(pa, lo, hi)
	zero := yOf(0)
	c.Line(0, zero, t.PlotWidth(), zero, white(0.1), 1, nil)

	barW := math.Max(1, t.BarWidth()*0.5)
	for i := start; i < end && i < len(out.Histogram); i++ {
		v := out.Histogram[i]
		if math.IsNaN(v) {
			continue
		}
		col := colorHistDown
		if v >= 0 {
			col = colorHistUp
		}
		y := yOf(v)
		x := t.CandleCenterX(i)
		if v >= 0 {
			c.FillRect(x-barW/2, y, barW, zero-y, col)
		} else {
			c.FillRect(x-barW/2, zero, barW, y-zero, col)
		}
	}

	c.seriesLine(t, out.MACD, start, end, yOf, Color(pa.cfg.Color, 1), 1.5)
	c.seriesLine(t, out.Signal, start, end, yOf, colorSignal, 1.5)
}

func (b *Base) drawVolumePanel(c *Context, s *chart.State, t chart.Transform, pa panelArea, values []float64, start, end int) {
	_, hi := seriesExtent(values, start, end)
	if hi <= 0 {
		return
	}
	barW := math.Max(1, t.BarWidth()*bodyWidthFrac)
	for i := start; i < end && i < len(values); i++ {
		h := values[i] / hi * pa.h
		col := colorDownFaint
		if s.Data[i].Up() {
			col = colorUpFaint
		}
		x := t.CandleCenterX(i)
		c.FillRect(x-barW/2, pa.y+pa.h-h, barW, h, col)
	}
}

// seriesExtent returns the min and max of the defined values in
// [start, end). Returns (0, 1) when the window holds no defined value.
func seriesExtent(values []float64, start, end int) (lo, hi float64) {
	lo = math.Inf(1)
	hi = math.Inf(-1)
	for i := start; i < end && i < len(values); i++ {
		if math.IsNaN(values[i]) {
			continue
		}
		lo = math.Min(lo, values[i])
		hi = math.Max(hi, values[i])
	}
	if lo > hi {
		return 0, 1
	}
	if lo == hi {
		return lo - 0.5, hi + 0.5
	}
	return lo, hi
}

// lastOrHovered picks the candle for the OHLC readout.
func lastOrHovered(s *chart.State) (model.Candle, bool) {
	if s.HoveredCandle >= 0 && s.HoveredCandle < len(s.Data) {
		return s.Data[s.HoveredCandle], true
	}
	if len(s.Data) > 0 {
		return s.Data[len(s.Data)-1], true
	}
	return model.Candle{}, false
}
