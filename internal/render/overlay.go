package render

import (
	"fmt"
	"math"

	"github.com/wcharczuk/go-chart/v2/drawing"

	"chartview/internal/chart"
)

var (
	colorCrosshair = white(0.4)
	colorLabelBg   = drawing.Color{R: 0, G: 0, B: 0, A: 178}
	colorLabelText = drawing.ColorWhite
	colorOHLCTitle = white(0.9)
	colorOHLCLabel = white(0.7)
	colorDemoBadge = Color("#fcd34d", 0.9)
)

const handleRadius = 4.0

// fibBandColors tint the areas between adjacent retracement levels.
var fibBandColors = []drawing.Color{
	{R: 255, G: 0, B: 0, A: 51},
	{R: 255, G: 165, B: 0, A: 51},
	{R: 255, G: 255, B: 0, A: 51},
	{R: 0, G: 128, B: 0, A: 51},
	{R: 0, G: 0, B: 255, A: 51},
	{R: 75, G: 0, B: 130, A: 51},
}

// DrawOverlay paints the interactive layer: annotations, the
// in-progress drawing, the crosshair and the OHLC readout. The caller
// provides a cleared transparent image so the base layer shows
// through.
func DrawOverlay(c *Context, s *chart.State, tool chart.Tool) {
	c.Width = s.Width
	c.Height = s.Height
	t := s.Transform()

	s.Annotations.Each(func(d chart.Drawing) bool {
		ref := chart.RefOf(d)
		drawAnnotation(c, t, d, ref == s.Selected || ref == s.Hovered)
		return true
	})
	if s.Current != nil {
		drawAnnotation(c, t, s.Current, false)
	}

	if s.CursorInPlot && tool == chart.ToolCrosshair {
		drawCrosshair(c, t, s.CursorX, s.CursorY)
	}
	if s.ShowOHLC {
		drawReadout(c, s)
	}
	if s.Demo {
		c.TextRight("DEMO", t.PlotWidth()-10, 20, colorDemoBadge, 12)
	}
}

func drawCrosshair(c *Context, t chart.Transform, x, y float64) {
	dash := []float64{5, 5}
	c.Line(x, 0, x, t.PlotHeight(), colorCrosshair, 1, dash)
	c.Line(0, y, t.PlotWidth(), y, colorCrosshair, 1, dash)
}

// clippedLine strokes a segment clipped to the plot area.
func clippedLine(c *Context, t chart.Transform, x1, y1, x2, y2 float64, col drawing.Color, width float64, dash []float64) {
	cx1, cy1, cx2, cy2, ok := clipSegment(x1, y1, x2, y2, t.PlotWidth(), t.PlotHeight())
	if !ok {
		return
	}
	c.Line(cx1, cy1, cx2, cy2, col, width, dash)
}

func drawAnnotation(c *Context, t chart.Transform, d chart.Drawing, active bool) {
	col := Color(d.Attr().Color, 1)
	w := d.Attr().Width

	switch v := d.(type) {
	case *chart.Line:
		x1, y1 := v.Points[0].Resolve(t)
		x2, y2 := v.Points[1].Resolve(t)
		clippedLine(c, t, x1, y1, x2, y2, col, w, nil)
		if active {
			drawHandles(c, col, x1, y1, x2, y2)
		}
	case *chart.Measurement:
		drawMeasurement(c, t, v, col, w, active)
	case *chart.Fibonacci:
		drawFibonacci(c, t, v, col, w, active)
	case *chart.TextLabel:
		x, y := v.Position.Resolve(t)
		c.Text(v.Text, x, y+v.FontSize, col, v.FontSize)
		if active {
			drawHandles(c, col, x, y)
		}
	case *chart.Freehand:
		for i := 0; i+1 < len(v.Points); i++ {
			x1, y1 := v.Points[i].Resolve(t)
			x2, y2 := v.Points[i+1].Resolve(t)
			clippedLine(c, t, x1, y1, x2, y2, col, w, nil)
		}
	}
}

func drawHandles(c *Context, col drawing.Color, coords ...float64) {
	for i := 0; i+1 < len(coords); i += 2 {
		c.FillCircle(coords[i], coords[i+1], handleRadius, col)
	}
}

func drawMeasurement(c *Context, t chart.Transform, m *chart.Measurement, col drawing.Color, w float64, active bool) {
	x1, y1 := m.Start.Resolve(t)
	x2, y2 := m.End.Resolve(t)
	clippedLine(c, t, x1, y1, x2, y2, col, w, []float64{5, 5})
	if active {
		drawHandles(c, col, x1, y1, x2, y2)
	}

	label := fmt.Sprintf("%.2f (%.2f%%)", m.PriceDiff, m.PercentDiff)
	cx := (x1 + x2) / 2
	cy := (y1 + y2) / 2
	tw := c.TextWidth(label, 12) + 10
	c.FillRect(cx-tw/2, cy-10, tw, 20, colorLabelBg)
	c.TextCentered(label, cx, cy+4, colorLabelText, 12)
}

func drawFibonacci(c *Context, t chart.Transform, f *chart.Fibonacci, col drawing.Color, w float64, active bool) {
	x1, y1 := f.Start.Resolve(t)
	x2, y2 := f.End.Resolve(t)
	plotW := t.PlotWidth()

	clippedLine(c, t, x1, y1, x2, y2, col, w, nil)

	yRange := math.Abs(y2 - y1)
	left := math.Min(x1, x2)
	levelY := func(level float64) float64 {
		if y1 < y2 {
			return y1 + level*yRange
		}
		return y1 - level*yRange
	}

	faint := Color(f.Attr().Color, 1)
	for i := 0; i < len(f.Levels); i++ {
		y := levelY(f.Levels[i])
		clippedLine(c, t, left, y, plotW, y, faint, 1, []float64{2, 2})
		c.TextRight(fmt.Sprintf("%.1f%%", f.Levels[i]*100), plotW-5, y+4, colorLabelText, 12)

		if i+1 < len(f.Levels) {
			yNext := levelY(f.Levels[i+1])
			band := fibBandColors[i%len(fibBandColors)]
			c.FillPoly(
				[]float64{left, plotW, plotW, left},
				[]float64{y, y, yNext, yNext},
				band,
			)
		}
	}

	if active {
		drawHandles(c, col, x1, y1, x2, y2)
	}
}

// drawReadout prints symbol, OHLC values and the candle change in the
// top-left corner. It tracks the hovered candle and falls back to the
// most recent one.
func drawReadout(c *Context, s *chart.State) {
	cd, ok := lastOrHovered(s)
	if !ok {
		return
	}

	x := 10.0
	y := 20.0
	title := s.Symbol
	if title != "" {
		title += " · "
	}
	title += string(s.Timeframe)
	c.Text(title, x, y, colorOHLCTitle, 14)
	x += c.TextWidth(title, 14) + 14

	upDown := colorDown
	if cd.Up() {
		upDown = colorUp
	}
	pairs := []struct {
		label string
		value float64
		col   drawing.Color
	}{
		{"O", cd.Open, upDown},
		{"H", cd.High, colorUp},
		{"L", cd.Low, colorDown},
		{"C", cd.Close, upDown},
	}
	for _, p := range pairs {
		c.Text(p.label, x, y, colorOHLCLabel, 11)
		x += c.TextWidth(p.label, 11) + 3
		v := FormatPrice(p.value)
		c.Text(v, x, y, p.col, 12)
		x += c.TextWidth(v, 12) + 10
	}

	diff := cd.Close - cd.Open
	pct := 0.0
	if cd.Open != 0 {
		pct = diff / cd.Open * 100
	}
	change := fmt.Sprintf("%+.2f (%+.2f%%)", diff, pct)
	c.Text(change, x, y, upDown, 12)
}
