// Package ui hosts the interactive chart widget. The widget is a thin
// shell: it owns two raster layers and forwards pointer, wheel and key
// events to the interaction machine, which owns all state mutation.
package ui

import (
	"image"
	"time"

	"fyne.io/fyne/v2"
	fynecanvas "fyne.io/fyne/v2/canvas"
	"fyne.io/fyne/v2/driver/desktop"
	"fyne.io/fyne/v2/widget"

	"chartview/internal/chart"
	"chartview/internal/indicator"
	"chartview/internal/metrics"
	"chartview/internal/model"
	"chartview/internal/render"
)

// ChartWidget renders a candle chart with two stacked raster layers:
// the base layer (candles, scales, indicators) and the overlay layer
// (annotations, crosshair, readout). Interaction gestures usually only
// dirty the overlay, so the heavy base redraw is skipped.
type ChartWidget struct {
	widget.BaseWidget

	Machine *chart.Machine

	// OnTextEntry is invoked when the text tool is clicked; the shell
	// opens its input and calls CommitText on the machine.
	OnTextEntry func(x, y float64)
	// OnMenu is invoked when a drawing body is clicked.
	OnMenu func(ref chart.Ref)

	// Metrics is optional; set it through SetMetrics.
	Metrics *metrics.Metrics

	base     *fynecanvas.Raster
	overlay  *fynecanvas.Raster
	pipeline *render.Base
	measure  *render.Context
}

var _ fyne.Widget = (*ChartWidget)(nil)
var _ fyne.Draggable = (*ChartWidget)(nil)
var _ fyne.Scrollable = (*ChartWidget)(nil)
var _ fyne.DoubleTappable = (*ChartWidget)(nil)
var _ desktop.Mouseable = (*ChartWidget)(nil)
var _ desktop.Hoverable = (*ChartWidget)(nil)
var _ desktop.Cursorable = (*ChartWidget)(nil)

// NewChartWidget builds a widget over an existing state. All state
// mutation must happen on the fyne event goroutine: the widget's own
// event handlers already run there, the animator marshals its ticks
// through fyne.Do, and background callers (data loads, live updates)
// must wrap their calls in fyne.Do as well.
func NewChartWidget(state *chart.State) *ChartWidget {
	w := &ChartWidget{pipeline: render.NewBase()}

	anim := chart.NewAnimator(state, fyne.Do, func() { w.refreshBase() })
	w.Machine = chart.NewMachine(state, anim)
	w.Machine.OnChange = func(base bool) {
		if base {
			w.refreshBase()
		} else {
			w.refreshOverlay()
		}
	}
	w.Machine.OnTextEntry = func(x, y float64) {
		if w.OnTextEntry != nil {
			w.OnTextEntry(x, y)
		}
	}
	w.Machine.OnMenu = func(ref chart.Ref) {
		if w.OnMenu != nil {
			w.OnMenu(ref)
		}
	}

	if c, err := render.NewContext(image.NewRGBA(image.Rect(0, 0, 1, 1)), 1); err == nil {
		w.measure = c
		w.Machine.MeasureText = c.TextWidth
	}

	w.base = fynecanvas.NewRaster(w.drawBase)
	w.overlay = fynecanvas.NewRaster(w.drawOverlay)

	w.ExtendBaseWidget(w)
	return w
}

// SetMetrics attaches instrumentation: base renders are timed and the
// indicator engine reports compute latency and cache hits.
func (w *ChartWidget) SetMetrics(m *metrics.Metrics) {
	w.Metrics = m
	if m == nil {
		w.pipeline.Engine.OnCompute = nil
		w.pipeline.Engine.OnCacheHit = nil
		return
	}
	w.pipeline.Engine.OnCompute = m.IndicatorComputeDur.Observe
	w.pipeline.Engine.OnCacheHit = m.IndicatorCacheHits.Inc
}

// SetData replaces the series and repaints.
func (w *ChartWidget) SetData(symbol string, tf model.Timeframe, data []model.Candle, demo bool) {
	w.Machine.SetData(symbol, tf, data, demo)
}

// ApplyRealtime merges a live candle update.
func (w *ChartWidget) ApplyRealtime(c model.Candle) {
	w.Machine.ApplyRealtime(c)
}

// SetIndicators replaces the attached indicator set.
func (w *ChartWidget) SetIndicators(cfgs []indicator.Config) {
	w.Machine.State.Indicators = cfgs
	w.refreshBase()
}

func (w *ChartWidget) refreshBase() {
	if w.base != nil {
		w.base.Refresh()
	}
	if w.overlay != nil {
		w.overlay.Refresh()
	}
}

func (w *ChartWidget) refreshOverlay() {
	if w.overlay != nil {
		w.overlay.Refresh()
	}
}

func (w *ChartWidget) layerScale(pw int) float64 {
	lw := w.Machine.State.Width
	if lw <= 0 || pw <= 0 {
		return 1
	}
	return float64(pw) / lw
}

func (w *ChartWidget) drawBase(pw, ph int) image.Image {
	img := image.NewRGBA(image.Rect(0, 0, pw, ph))
	if pw == 0 || ph == 0 {
		return img
	}
	c, err := render.NewContext(img, w.layerScale(pw))
	if err != nil {
		return img
	}
	start := time.Now()
	w.pipeline.Draw(c, w.Machine.State)
	if w.Metrics != nil {
		w.Metrics.FramesTotal.Inc()
		w.Metrics.RenderDur.Observe(time.Since(start).Seconds())
	}
	return img
}

func (w *ChartWidget) drawOverlay(pw, ph int) image.Image {
	img := image.NewRGBA(image.Rect(0, 0, pw, ph))
	if pw == 0 || ph == 0 {
		return img
	}
	c, err := render.NewContext(img, w.layerScale(pw))
	if err != nil {
		return img
	}
	render.DrawOverlay(c, w.Machine.State, w.Machine.Tool)
	return img
}

// Resize propagates the logical size into the transform math.
func (w *ChartWidget) Resize(size fyne.Size) {
	w.BaseWidget.Resize(size)
	w.Machine.SetSize(float64(size.Width), float64(size.Height))
	w.refreshBase()
}

// ──────────────────────────────── events ────────────────────────────────

func (w *ChartWidget) MouseDown(ev *desktop.MouseEvent) {
	if ev.Button != desktop.MouseButtonPrimary {
		return
	}
	w.Machine.PointerDown(float64(ev.Position.X), float64(ev.Position.Y))
}

func (w *ChartWidget) MouseUp(*desktop.MouseEvent) {
	w.Machine.PointerUp()
}

func (w *ChartWidget) MouseIn(ev *desktop.MouseEvent) {
	w.Machine.PointerMove(float64(ev.Position.X), float64(ev.Position.Y))
}

func (w *ChartWidget) MouseMoved(ev *desktop.MouseEvent) {
	w.Machine.PointerMove(float64(ev.Position.X), float64(ev.Position.Y))
}

func (w *ChartWidget) MouseOut() {
	w.Machine.Leave()
}

// Dragged keeps gestures alive while a button is held; some drivers
// stop delivering MouseMoved during a drag.
func (w *ChartWidget) Dragged(ev *fyne.DragEvent) {
	w.Machine.PointerMove(float64(ev.Position.X), float64(ev.Position.Y))
}

func (w *ChartWidget) DragEnd() {
	w.Machine.PointerUp()
}

// Scrolled zooms. Wheel-up means zoom in, matching the sign convention
// of the interaction machine where positive deltas zoom out.
func (w *ChartWidget) Scrolled(ev *fyne.ScrollEvent) {
	w.Machine.Wheel(
		float64(ev.Position.X), float64(ev.Position.Y),
		float64(-ev.Scrolled.DY), false,
	)
}

func (w *ChartWidget) DoubleTapped(*fyne.PointEvent) {
	w.Machine.DoubleClick()
}

// Cursor maps the machine's cursor kind onto desktop cursors.
func (w *ChartWidget) Cursor() desktop.Cursor {
	switch w.Machine.Cursor() {
	case chart.CursorCrosshair, chart.CursorCell:
		return desktop.CrosshairCursor
	case chart.CursorText:
		return desktop.TextCursor
	case chart.CursorPencil, chart.CursorGrab, chart.CursorGrabbing:
		return desktop.PointerCursor
	case chart.CursorRowResize:
		return desktop.VResizeCursor
	default:
		return desktop.DefaultCursor
	}
}

// CreateRenderer stacks the two raster layers.
func (w *ChartWidget) CreateRenderer() fyne.WidgetRenderer {
	return &chartRenderer{widget: w}
}

type chartRenderer struct {
	widget *ChartWidget
}

func (r *chartRenderer) Layout(size fyne.Size) {
	r.widget.base.Resize(size)
	r.widget.overlay.Resize(size)
	r.widget.Machine.SetSize(float64(size.Width), float64(size.Height))
}

func (r *chartRenderer) MinSize() fyne.Size {
	return fyne.NewSize(320, 240)
}

func (r *chartRenderer) Refresh() {
	r.widget.base.Refresh()
	r.widget.overlay.Refresh()
}

func (r *chartRenderer) Objects() []fyne.CanvasObject {
	return []fyne.CanvasObject{r.widget.base, r.widget.overlay}
}

func (r *chartRenderer) Destroy() {}
