// Package render rasterizes chart state into images. The base layer
// carries the background, grid, candles, indicators and axes; the
// overlay layer carries the crosshair, annotations and readouts, so
// cursor motion never forces a full base repaint.
package render

import (
	"fmt"
	"image"
	"math"
	"strings"

	"github.com/golang/freetype/truetype"
	chartlib "github.com/wcharczuk/go-chart/v2"
	"github.com/wcharczuk/go-chart/v2/drawing"
)

// Context wraps a raster graphic context with the chart's font and
// device scale. All drawing coordinates are logical pixels; the
// context scales them to raster pixels.
type Context struct {
	gc   *drawing.RasterGraphicContext
	font *truetype.Font

	// Logical plot size, set by the draw entry points.
	Width  float64
	Height float64
}

// NewContext builds a drawing context over img. scale is the device
// pixel ratio between logical and raster pixels.
func NewContext(img *image.RGBA, scale float64) (*Context, error) {
	gc, err := drawing.NewRasterGraphicContext(img)
	if err != nil {
		return nil, fmt.Errorf("render: create graphic context: %w", err)
	}
	font, err := chartlib.GetDefaultFont()
	if err != nil {
		return nil, fmt.Errorf("render: load font: %w", err)
	}
	gc.SetDPI(72)
	if scale != 1 {
		gc.Scale(scale, scale)
	}
	gc.SetFont(font)
	return &Context{gc: gc, font: font}, nil
}

// Color parses a #rrggbb hex color with an alpha multiplier in [0,1].
func Color(hex string, alpha float64) drawing.Color {
	c := drawing.ColorFromHex(strings.TrimPrefix(hex, "#"))
	if alpha >= 1 {
		return c
	}
	if alpha < 0 {
		alpha = 0
	}
	return c.WithAlpha(uint8(alpha * 255))
}

func white(alpha float64) drawing.Color {
	return drawing.ColorWhite.WithAlpha(uint8(alpha * 255))
}

// Line strokes a single segment.
func (c *Context) Line(x1, y1, x2, y2 float64, col drawing.Color, width float64, dash []float64) {
	c.gc.SetStrokeColor(col)
	c.gc.SetLineWidth(width)
	c.gc.SetLineDash(dash, 0)
	c.gc.MoveTo(x1, y1)
	c.gc.LineTo(x2, y2)
	c.gc.Stroke()
	c.gc.SetLineDash(nil, 0)
}

// Polyline strokes consecutive points. Shorter than two points is a
// no-op.
func (c *Context) Polyline(xs, ys []float64, col drawing.Color, width float64, dash []float64) {
	if len(xs) < 2 || len(xs) != len(ys) {
		return
	}
	c.gc.SetStrokeColor(col)
	c.gc.SetLineWidth(width)
	c.gc.SetLineDash(dash, 0)
	c.gc.MoveTo(xs[0], ys[0])
	for i := 1; i < len(xs); i++ {
		c.gc.LineTo(xs[i], ys[i])
	}
	c.gc.Stroke()
	c.gc.SetLineDash(nil, 0)
}

// FillRect fills an axis-aligned rectangle.
func (c *Context) FillRect(x, y, w, h float64, col drawing.Color) {
	c.gc.SetFillColor(col)
	c.gc.MoveTo(x, y)
	c.gc.LineTo(x+w, y)
	c.gc.LineTo(x+w, y+h)
	c.gc.LineTo(x, y+h)
	c.gc.Close()
	c.gc.Fill()
}

// FillPoly fills a closed polygon.
func (c *Context) FillPoly(xs, ys []float64, col drawing.Color) {
	if len(xs) < 3 || len(xs) != len(ys) {
		return
	}
	c.gc.SetFillColor(col)
	c.gc.MoveTo(xs[0], ys[0])
	for i := 1; i < len(xs); i++ {
		c.gc.LineTo(xs[i], ys[i])
	}
	c.gc.Close()
	c.gc.Fill()
}

// StrokeRect outlines an axis-aligned rectangle.
func (c *Context) StrokeRect(x, y, w, h float64, col drawing.Color, width float64) {
	c.gc.SetStrokeColor(col)
	c.gc.SetLineWidth(width)
	c.gc.MoveTo(x, y)
	c.gc.LineTo(x+w, y)
	c.gc.LineTo(x+w, y+h)
	c.gc.LineTo(x, y+h)
	c.gc.Close()
	c.gc.Stroke()
}

// FillCircle fills a circle centred at (x, y).
func (c *Context) FillCircle(x, y, r float64, col drawing.Color) {
	c.gc.SetFillColor(col)
	c.gc.MoveTo(x+r, y)
	c.gc.ArcTo(x, y, r, r, 0, 2*math.Pi)
	c.gc.Close()
	c.gc.Fill()
}

// StrokeCircle outlines a circle centred at (x, y).
func (c *Context) StrokeCircle(x, y, r float64, col drawing.Color, width float64) {
	c.gc.SetStrokeColor(col)
	c.gc.SetLineWidth(width)
	c.gc.MoveTo(x+r, y)
	c.gc.ArcTo(x, y, r, r, 0, 2*math.Pi)
	c.gc.Close()
	c.gc.Stroke()
}

// Text draws s with its left edge at x and its baseline at y.
func (c *Context) Text(s string, x, y float64, col drawing.Color, size float64) {
	c.gc.SetFillColor(col)
	c.gc.SetFontSize(size)
	c.gc.FillStringAt(s, x, y)
}

// TextCentered draws s horizontally centred on x.
func (c *Context) TextCentered(s string, x, y float64, col drawing.Color, size float64) {
	c.Text(s, x-c.TextWidth(s, size)/2, y, col, size)
}

// TextRight draws s with its right edge at x.
func (c *Context) TextRight(s string, x, y float64, col drawing.Color, size float64) {
	c.Text(s, x-c.TextWidth(s, size), y, col, size)
}

// TextWidth measures the rendered width of s at the given font size.
func (c *Context) TextWidth(s string, size float64) float64 {
	c.gc.SetFontSize(size)
	l, _, r, _, err := c.gc.GetStringBounds(s)
	if err != nil {
		return 0.6 * size * float64(len([]rune(s)))
	}
	return r - l
}
