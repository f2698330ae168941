package chart

import (
	"math"

	"chartview/internal/model"
)

// Mode is the exclusive pointer-interaction state. Exactly one mode is
// active between pointer-down and pointer-up.
type Mode int

const (
	ModeIdle Mode = iota
	ModePanning
	ModeScalingPrice
	ModeResizing
	ModeDrawing
)

// CursorKind abstracts the cursor glyph the shell should show.
type CursorKind int

const (
	CursorDefault CursorKind = iota
	CursorCrosshair
	CursorText
	CursorCell
	CursorPencil
	CursorGrab
	CursorGrabbing
	CursorRowResize
)

// Gesture tuning. Pan sensitivity and zoom factors mirror the feel of
// mainstream charting frontends.
const (
	panSensitivity  = 1.2
	timeZoomIn      = 0.85
	timeZoomOut     = 1.15
	priceZoomIn     = 0.9
	priceZoomOut    = 1.1
	axisDragFactor  = 0.005
	candleBodyFrac  = 0.8
	minViewportSize = 1.0
)

// Creation defaults per tool.
const (
	lineColor       = "#3b82f6"
	measureColor    = "#10b981"
	fibColor        = "#8b5cf6"
	textColor       = "#fcd34d"
	freehandColor   = "#ec4899"
	defaultStroke   = 2.0
	defaultFontSize = 14.0
)

// Machine consumes pointer, wheel and double-click events and owns all
// chart state mutation. Pointer-down resolves exactly one branch, in
// precedence order: price-axis scaling, handle resize on the hovered
// drawing, body select on the hovered drawing, tool-specific drawing
// start, pan.
type Machine struct {
	State *State
	Anim  *Animator

	Tool Tool

	mode         Mode
	lastX, lastY float64
	anchorVOff   float64
	downY        float64

	scaleStartY     float64
	scaleStartRange PriceRange

	resizeRef    Ref
	resizeHandle int

	// MeasureText supplies font metrics for text-label hit boxes; the
	// render layer injects the real implementation. Nil falls back to
	// a width approximation.
	MeasureText func(text string, fontSize float64) float64

	// OnTextEntry asks the shell to open inline text input at the
	// given pixel position; the shell calls CommitText when done.
	OnTextEntry func(x, y float64)
	// OnMenu asks the shell to open the annotation edit menu.
	OnMenu func(ref Ref)
	// OnChange signals that a repaint is needed. base is true when the
	// base layer (data/viewport/scale) changed, not just the overlay.
	OnChange func(base bool)
}

// NewMachine builds a machine over s. anim may be nil, in which case an
// inline-dispatch animator is created (suitable for tests and headless
// rendering).
func NewMachine(s *State, anim *Animator) *Machine {
	m := &Machine{State: s, Anim: anim, Tool: ToolCrosshair}
	if m.Anim == nil {
		m.Anim = NewAnimator(s, nil, nil)
	}
	return m
}

// Mode returns the current interaction mode.
func (m *Machine) Mode() Mode { return m.mode }

func (m *Machine) changed(base bool) {
	if m.OnChange != nil {
		m.OnChange(base)
	}
}

// SetSize records the logical canvas size used for all transform math.
func (m *Machine) SetSize(w, h float64) {
	if w == m.State.Width && h == m.State.Height {
		return
	}
	m.State.Width = w
	m.State.Height = h
}

// SetData replaces the candle series and resets the viewport.
func (m *Machine) SetData(symbol string, tf model.Timeframe, data []model.Candle, demo bool) {
	s := m.State
	s.Symbol = symbol
	s.Timeframe = tf
	s.Data = data
	s.Demo = demo
	s.HoveredCandle = -1
	m.Anim.Stop()
	s.ResetViewport()
	m.changed(true)
}

// ApplyRealtime merges an incoming candle into the series.
func (m *Machine) ApplyRealtime(c model.Candle) {
	data, ok := model.MergeCandle(m.State.Data, c, m.State.Timeframe)
	if !ok {
		return
	}
	m.State.Data = data
	m.changed(true)
}

// SetTool switches the active tool and clears any in-progress drawing.
func (m *Machine) SetTool(tool Tool) {
	m.Tool = tool
	m.State.Current = nil
	m.changed(false)
}

// SetChartType switches the main series rendering.
func (m *Machine) SetChartType(ct ChartType) {
	m.State.Type = ct
	m.changed(true)
}

// PointerDown dispatches a press at logical pixel (x, y).
func (m *Machine) PointerDown(x, y float64) {
	s := m.State
	t := s.Transform()
	m.lastX, m.lastY = x, y
	m.downY = y
	m.anchorVOff = s.VerticalOffset
	m.Anim.Stop()

	// 1. Price-axis gutter: start a price-scale drag.
	if x > s.Width-PriceAxisWidth && y < s.Height-TimeAxisHeight {
		m.mode = ModeScalingPrice
		m.scaleStartY = y
		m.scaleStartRange = s.storedRange()
		return
	}

	// 2. Handle resize on the hovered drawing.
	if s.Hovered.Valid() {
		if d := s.Annotations.Get(s.Hovered); d != nil && !d.Attr().Locked {
			if h := HandleAt(d, t, x, y); h >= 0 {
				m.mode = ModeResizing
				m.resizeRef = s.Hovered
				m.resizeHandle = h
				s.Selected = s.Hovered
				m.changed(false)
				return
			}
			// 3. Body click: select and open the edit menu.
			if hitBody(d, t, x, y, LineThreshold, m.MeasureText) {
				s.Selected = s.Hovered
				if m.OnMenu != nil {
					m.OnMenu(s.Selected)
				}
				m.changed(false)
				return
			}
		}
	}

	// 4. Tool-specific drawing start.
	switch m.Tool {
	case ToolLine:
		p := m.anchoredPoint(t, x, y)
		s.Current = &Line{
			Attrs:  Attrs{ID: NewID(), Color: lineColor, Width: defaultStroke},
			Points: [2]Point{p, p.clone()},
		}
		m.mode = ModeDrawing
		m.changed(false)
		return
	case ToolMeasure:
		p := m.anchoredPoint(t, x, y)
		d := &Measurement{
			Attrs: Attrs{ID: NewID(), Color: measureColor, Width: defaultStroke},
			Start: p,
			End:   p.clone(),
		}
		d.Recompute()
		s.Current = d
		m.mode = ModeDrawing
		m.changed(false)
		return
	case ToolFibonacci:
		p := m.anchoredPoint(t, x, y)
		s.Current = &Fibonacci{
			Attrs:  Attrs{ID: NewID(), Color: fibColor, Width: defaultStroke},
			Start:  p,
			End:    p.clone(),
			Levels: append([]float64(nil), FibLevels...),
		}
		m.mode = ModeDrawing
		m.changed(false)
		return
	case ToolText:
		if m.OnTextEntry != nil {
			m.OnTextEntry(x, y)
		}
		return
	case ToolDraw:
		s.Current = &Freehand{
			Attrs:  Attrs{ID: NewID(), Color: freehandColor, Width: defaultStroke},
			Points: []Point{m.anchoredPoint(t, x, y)},
		}
		m.mode = ModeDrawing
		m.changed(false)
		return
	}

	// 5. Crosshair/pointer: select what is under the cursor, else pan.
	if d := s.Annotations.FindNearest(t, x, y, m.MeasureText); d != nil {
		s.Selected = RefOf(d)
		m.changed(false)
		return
	}
	s.Selected = Ref{}
	m.mode = ModePanning
}

// PointerMove dispatches cursor motion at logical pixel (x, y).
func (m *Machine) PointerMove(x, y float64) {
	s := m.State
	t := s.Transform()

	s.CursorX, s.CursorY = x, y
	s.CursorInPlot = t.InPlot(x, y)
	m.updateHoveredCandle(t, x, y)

	switch m.mode {
	case ModeScalingPrice:
		m.scalePriceDrag(y)
	case ModeResizing:
		m.resizeDrag(t, x, y)
	case ModeDrawing:
		m.extendCurrent(t, x, y)
	case ModePanning:
		dx := x - m.lastX
		s.Viewport.Offset -= dx * panSensitivity / t.BarWidth()
		s.VerticalOffset = m.anchorVOff + (y - m.downY)
		m.changed(true)
	default:
		// Hover detection only while idle.
		if d := s.Annotations.FindNearest(t, x, y, m.MeasureText); d != nil {
			s.Hovered = RefOf(d)
		} else {
			s.Hovered = Ref{}
		}
		m.changed(false)
	}

	m.lastX, m.lastY = x, y
}

// PointerUp finishes the active gesture: an in-progress drawing is
// promoted into the persisted collection and the tool snaps back to
// the crosshair.
func (m *Machine) PointerUp() {
	s := m.State
	if m.mode == ModeDrawing && s.Current != nil {
		if mm, ok := s.Current.(*Measurement); ok {
			mm.Recompute()
		}
		s.Annotations.Add(s.Current)
		s.Selected = RefOf(s.Current)
		s.Current = nil
		m.Tool = ToolCrosshair
	}
	m.mode = ModeIdle
	m.resizeRef = Ref{}
	m.changed(false)
}

// Leave resets transient drag and hover state when the cursor exits
// the widget.
func (m *Machine) Leave() {
	s := m.State
	m.mode = ModeIdle
	s.Current = nil
	s.Hovered = Ref{}
	s.CursorInPlot = false
	s.HoveredCandle = -1
	m.changed(false)
}

// Wheel dispatches a scroll at (x, y) with vertical delta deltaY
// (positive = scroll down / zoom out). scalePrice selects price-range
// zoom; it is also implied when the cursor sits over the price gutter.
func (m *Machine) Wheel(x, y, deltaY float64, scalePrice bool) {
	s := m.State
	if scalePrice || x > s.Width-PriceAxisWidth {
		m.wheelPrice(y, deltaY)
		return
	}
	m.wheelTime(x, deltaY)
}

// wheelTime rescales the viewport size, keeping the data point under
// the cursor at the same pixel fraction.
func (m *Machine) wheelTime(x, deltaY float64) {
	s := m.State
	t := s.Transform()

	factor := timeZoomIn
	if deltaY > 0 {
		factor = timeZoomOut
	}
	idx := t.XToIndex(x)
	frac := (idx - s.Viewport.Offset) / s.Viewport.Size

	newSize := s.Viewport.Size * factor
	if newSize < minViewportSize {
		newSize = minViewportSize
	}
	s.Viewport.Size = newSize
	s.Viewport.Offset = idx - frac*newSize
	m.changed(true)
}

// wheelPrice rescales the price range around the cursor's price,
// preserving its relative position in-range, and pins the result as a
// custom range.
func (m *Machine) wheelPrice(y, deltaY float64) {
	s := m.State
	t := s.Transform()

	factor := priceZoomIn
	if deltaY > 0 {
		factor = priceZoomOut
	}
	cursorPrice := t.YToPrice(y)
	r := s.storedRange()
	span := r.Span()
	ratio := (cursorPrice - r.Min) / span

	s.CustomRange = &PriceRange{
		Min: cursorPrice - ratio*span*factor,
		Max: cursorPrice + (1-ratio)*span*factor,
	}
	m.changed(true)
}

// DoubleClick clears any custom price range and animates the viewport
// back to the most recent candles.
func (m *Machine) DoubleClick() {
	s := m.State
	s.CustomRange = nil

	n := len(s.Data)
	size := float64(n)
	if size > defaultViewportSize {
		size = defaultViewportSize
	}
	if size < minViewportSize {
		size = minViewportSize
	}
	s.Viewport.Size = size
	m.Anim.Start(float64(n)-size, 0)
	m.changed(true)
}

// CommitText persists a text label entered by the shell at pixel
// (x, y), then resets the tool.
func (m *Machine) CommitText(x, y float64, text string) {
	if text == "" {
		m.Tool = ToolCrosshair
		return
	}
	s := m.State
	t := s.Transform()
	p := m.anchoredPoint(t, x, y)
	d := &TextLabel{
		Attrs:    Attrs{ID: NewID(), Color: textColor, Width: 1},
		Position: p,
		Text:     text,
		FontSize: defaultFontSize,
	}
	s.Annotations.Add(d)
	s.Selected = RefOf(d)
	m.Tool = ToolCrosshair
	m.changed(false)
}

// DeleteSelected removes the selected drawing.
func (m *Machine) DeleteSelected() {
	s := m.State
	if !s.Selected.Valid() {
		return
	}
	s.Annotations.Remove(s.Selected)
	s.Selected = Ref{}
	s.Hovered = Ref{}
	m.changed(false)
}

// DuplicateSelected copies the selected drawing and selects the copy.
func (m *Machine) DuplicateSelected() {
	s := m.State
	if !s.Selected.Valid() {
		return
	}
	if cp := s.Annotations.Duplicate(s.Selected); cp != nil {
		s.Selected = RefOf(cp)
		m.changed(false)
	}
}

// ToggleLockSelected flips the locked flag on the selected drawing.
func (m *Machine) ToggleLockSelected() {
	if d := m.State.Annotations.Get(m.State.Selected); d != nil {
		d.Attr().Locked = !d.Attr().Locked
		m.changed(false)
	}
}

// SetSelectedStyle updates the color and stroke width of the selected
// drawing. Empty color or non-positive width leave the field untouched.
func (m *Machine) SetSelectedStyle(color string, width float64) {
	d := m.State.Annotations.Get(m.State.Selected)
	if d == nil {
		return
	}
	if color != "" {
		d.Attr().Color = color
	}
	if width > 0 {
		d.Attr().Width = width
	}
	m.changed(false)
}

// Cursor returns the glyph the shell should display for the current
// tool and pointer position.
func (m *Machine) Cursor() CursorKind {
	s := m.State
	if s.CursorX > s.Width-PriceAxisWidth {
		return CursorRowResize
	}
	switch m.mode {
	case ModePanning:
		return CursorGrabbing
	case ModeScalingPrice:
		return CursorRowResize
	}
	switch m.Tool {
	case ToolCrosshair:
		return CursorCrosshair
	case ToolPointer:
		return CursorDefault
	case ToolText:
		return CursorText
	case ToolDraw:
		return CursorPencil
	case ToolLine, ToolMeasure, ToolFibonacci:
		return CursorCell
	}
	return CursorDefault
}

// anchoredPoint builds a control point at pixel (x, y) carrying the
// semantic coordinates resolvable under the current transform.
func (m *Machine) anchoredPoint(t Transform, x, y float64) Point {
	p := Point{X: x, Y: y}
	p.Anchor(t, len(m.State.Data))
	return p
}

func (m *Machine) updateHoveredCandle(t Transform, x, y float64) {
	s := m.State
	s.HoveredCandle = -1
	if !t.InPlot(x, y) || len(s.Data) == 0 {
		return
	}
	idx := int(math.Floor(t.XToIndex(x)))
	if idx < 0 || idx >= len(s.Data) {
		return
	}
	center := t.CandleCenterX(idx)
	if math.Abs(x-center) <= t.BarWidth()*candleBodyFrac/2 {
		s.HoveredCandle = idx
	}
}

func (m *Machine) scalePriceDrag(y float64) {
	s := m.State
	factor := 1 + (y-m.scaleStartY)*axisDragFactor
	if factor < 0.05 {
		factor = 0.05
	}
	r := m.scaleStartRange
	center := (r.Min + r.Max) / 2
	half := r.Span() / 2 * factor
	s.CustomRange = &PriceRange{Min: center - half, Max: center + half}
	m.changed(true)
}

func (m *Machine) resizeDrag(t Transform, x, y float64) {
	s := m.State
	d := s.Annotations.Get(m.resizeRef)
	if d == nil {
		m.mode = ModeIdle
		return
	}
	pts := ControlPoints(d)
	if m.resizeHandle >= len(pts) {
		return
	}
	p := pts[m.resizeHandle]
	p.X, p.Y = x, y
	p.Price = nil
	p.DataIndex = nil
	p.Anchor(t, len(s.Data))
	if mm, ok := d.(*Measurement); ok {
		mm.Recompute()
	}
	m.changed(false)
}

func (m *Machine) extendCurrent(t Transform, x, y float64) {
	s := m.State
	if s.Current == nil {
		return
	}
	switch d := s.Current.(type) {
	case *Line:
		d.Points[1] = m.anchoredPoint(t, x, y)
	case *Measurement:
		d.End = m.anchoredPoint(t, x, y)
		d.Recompute()
	case *Fibonacci:
		d.End = m.anchoredPoint(t, x, y)
	case *Freehand:
		d.Points = append(d.Points, m.anchoredPoint(t, x, y))
	}
	m.changed(false)
}
