package chart

import (
	"math"

	"github.com/google/uuid"
)

// Kind discriminates the annotation variants. Hit-testing, rendering
// and mutation all switch exhaustively on it.
type Kind int

const (
	KindLine Kind = iota
	KindMeasurement
	KindFibonacci
	KindText
	KindFreehand
)

// Ref identifies one drawing by kind and id. The zero value (empty ID)
// means "none".
type Ref struct {
	Kind Kind
	ID   string
}

// Valid reports whether the ref points at a drawing.
func (r Ref) Valid() bool { return r.ID != "" }

// Point is an annotation control point. It always carries pixel
// coordinates; Price and DataIndex are the authoritative semantic
// anchors used to re-resolve the pixel position under pan/zoom, and
// are nil for points placed on blank viewport space.
type Point struct {
	X         float64
	Y         float64
	Price     *float64
	DataIndex *int
}

// Resolve returns the point's pixel position under t, preferring the
// semantic coordinates when present.
func (p Point) Resolve(t Transform) (x, y float64) {
	x, y = p.X, p.Y
	if p.DataIndex != nil {
		x = t.CandleCenterX(*p.DataIndex)
	}
	if p.Price != nil {
		y = t.PriceToY(*p.Price)
	}
	return x, y
}

// Anchor fills the point's semantic coordinates from its pixel
// position under t. Points over blank viewport space (left of history
// or in the future) keep no data index and stay pixel-anchored on the
// x axis.
func (p *Point) Anchor(t Transform, dataLen int) {
	price := t.YToPrice(p.Y)
	p.Price = &price
	idx := int(math.Floor(t.XToIndex(p.X)))
	if idx >= 0 && idx < dataLen {
		p.DataIndex = &idx
	}
}

func (p Point) clone() Point {
	cp := Point{X: p.X, Y: p.Y}
	if p.Price != nil {
		v := *p.Price
		cp.Price = &v
	}
	if p.DataIndex != nil {
		v := *p.DataIndex
		cp.DataIndex = &v
	}
	return cp
}

// Attrs carries the fields shared by every drawing kind.
type Attrs struct {
	ID     string
	Color  string
	Width  float64
	Locked bool
}

// Drawing is the closed set of annotation variants: Line, Measurement,
// Fibonacci, TextLabel and Freehand.
type Drawing interface {
	Kind() Kind
	Attr() *Attrs
	// clone deep-copies the drawing; Duplicate assigns the new id.
	clone() Drawing
}

// RefOf returns the identifying ref for a drawing.
func RefOf(d Drawing) Ref {
	return Ref{Kind: d.Kind(), ID: d.Attr().ID}
}

// NewID returns a fresh drawing id.
func NewID() string { return uuid.NewString() }

// Line is a two-point trend line.
type Line struct {
	Attrs
	Points [2]Point
}

func (l *Line) Kind() Kind    { return KindLine }
func (l *Line) Attr() *Attrs  { return &l.Attrs }
func (l *Line) clone() Drawing {
	cp := *l
	cp.Points[0] = l.Points[0].clone()
	cp.Points[1] = l.Points[1].clone()
	return &cp
}

// Measurement is a two-point ruler with derived price and percent
// differences.
type Measurement struct {
	Attrs
	Start       Point
	End         Point
	PriceDiff   float64
	PercentDiff float64
}

func (m *Measurement) Kind() Kind   { return KindMeasurement }
func (m *Measurement) Attr() *Attrs { return &m.Attrs }
func (m *Measurement) clone() Drawing {
	cp := *m
	cp.Start = m.Start.clone()
	cp.End = m.End.clone()
	return &cp
}

// Recompute refreshes the derived differences from the endpoint
// prices. No-op unless both endpoints carry a price.
func (m *Measurement) Recompute() {
	if m.Start.Price == nil || m.End.Price == nil {
		return
	}
	start, end := *m.Start.Price, *m.End.Price
	m.PriceDiff = end - start
	if start != 0 {
		m.PercentDiff = (end - start) / start * 100
	}
}

// FibLevels are the retracement levels of every Fibonacci drawing.
var FibLevels = []float64{0, 0.236, 0.382, 0.5, 0.618, 0.786, 1}

// Fibonacci is a two-point retracement grid.
type Fibonacci struct {
	Attrs
	Start  Point
	End    Point
	Levels []float64
}

func (f *Fibonacci) Kind() Kind   { return KindFibonacci }
func (f *Fibonacci) Attr() *Attrs { return &f.Attrs }
func (f *Fibonacci) clone() Drawing {
	cp := *f
	cp.Start = f.Start.clone()
	cp.End = f.End.clone()
	cp.Levels = append([]float64(nil), f.Levels...)
	return &cp
}

// TextLabel is a single-point text annotation.
type TextLabel struct {
	Attrs
	Position Point
	Text     string
	FontSize float64
}

func (t *TextLabel) Kind() Kind   { return KindText }
func (t *TextLabel) Attr() *Attrs { return &t.Attrs }
func (t *TextLabel) clone() Drawing {
	cp := *t
	cp.Position = t.Position.clone()
	return &cp
}

// Freehand is a free-form polyline, append-only while drawing.
type Freehand struct {
	Attrs
	Points []Point
}

func (f *Freehand) Kind() Kind   { return KindFreehand }
func (f *Freehand) Attr() *Attrs { return &f.Attrs }
func (f *Freehand) clone() Drawing {
	cp := *f
	cp.Points = make([]Point, len(f.Points))
	for i, p := range f.Points {
		cp.Points[i] = p.clone()
	}
	return &cp
}

// Annotations holds the persisted drawings grouped by kind. The group
// order is also the hit-test priority order.
type Annotations struct {
	Lines        []*Line
	Measurements []*Measurement
	Fibonaccis   []*Fibonacci
	Texts        []*TextLabel
	Freehands    []*Freehand
}

// Add appends a drawing to its group.
func (a *Annotations) Add(d Drawing) {
	switch v := d.(type) {
	case *Line:
		a.Lines = append(a.Lines, v)
	case *Measurement:
		a.Measurements = append(a.Measurements, v)
	case *Fibonacci:
		a.Fibonaccis = append(a.Fibonaccis, v)
	case *TextLabel:
		a.Texts = append(a.Texts, v)
	case *Freehand:
		a.Freehands = append(a.Freehands, v)
	}
}

// Get returns the drawing identified by ref, or nil.
func (a *Annotations) Get(ref Ref) Drawing {
	var found Drawing
	a.Each(func(d Drawing) bool {
		if RefOf(d) == ref {
			found = d
			return false
		}
		return true
	})
	return found
}

// Remove deletes the drawing identified by ref. Reports whether a
// drawing was removed.
func (a *Annotations) Remove(ref Ref) bool {
	switch ref.Kind {
	case KindLine:
		for i, d := range a.Lines {
			if d.ID == ref.ID {
				a.Lines = append(a.Lines[:i], a.Lines[i+1:]...)
				return true
			}
		}
	case KindMeasurement:
		for i, d := range a.Measurements {
			if d.ID == ref.ID {
				a.Measurements = append(a.Measurements[:i], a.Measurements[i+1:]...)
				return true
			}
		}
	case KindFibonacci:
		for i, d := range a.Fibonaccis {
			if d.ID == ref.ID {
				a.Fibonaccis = append(a.Fibonaccis[:i], a.Fibonaccis[i+1:]...)
				return true
			}
		}
	case KindText:
		for i, d := range a.Texts {
			if d.ID == ref.ID {
				a.Texts = append(a.Texts[:i], a.Texts[i+1:]...)
				return true
			}
		}
	case KindFreehand:
		for i, d := range a.Freehands {
			if d.ID == ref.ID {
				a.Freehands = append(a.Freehands[:i], a.Freehands[i+1:]...)
				return true
			}
		}
	}
	return false
}

// Each visits all drawings in hit-test priority order (lines,
// measurements, fibonaccis, texts, freehands). Return false from fn to
// stop early.
func (a *Annotations) Each(fn func(Drawing) bool) {
	for _, d := range a.Lines {
		if !fn(d) {
			return
		}
	}
	for _, d := range a.Measurements {
		if !fn(d) {
			return
		}
	}
	for _, d := range a.Fibonaccis {
		if !fn(d) {
			return
		}
	}
	for _, d := range a.Texts {
		if !fn(d) {
			return
		}
	}
	for _, d := range a.Freehands {
		if !fn(d) {
			return
		}
	}
}

// Count returns the total number of persisted drawings.
func (a *Annotations) Count() int {
	n := 0
	a.Each(func(Drawing) bool { n++; return true })
	return n
}

// Duplicate deep-copies the drawing identified by ref under a new id
// and adds the copy. Pixel-anchored points (no data index) are shifted
// by +10,+10 px so the duplicate is visibly distinct; data-anchored
// points are left in place. Returns the copy, or nil when ref does not
// resolve.
func (a *Annotations) Duplicate(ref Ref) Drawing {
	src := a.Get(ref)
	if src == nil {
		return nil
	}
	cp := src.clone()
	cp.Attr().ID = NewID()
	for _, p := range ControlPoints(cp) {
		if p.DataIndex == nil {
			p.X += 10
			p.Y += 10
		}
	}
	if fh, ok := cp.(*Freehand); ok {
		for i := range fh.Points {
			if fh.Points[i].DataIndex == nil {
				fh.Points[i].X += 10
				fh.Points[i].Y += 10
			}
		}
	}
	a.Add(cp)
	return cp
}
