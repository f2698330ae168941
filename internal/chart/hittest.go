package chart

import "math"

// Proximity thresholds in logical pixels.
const (
	HandleRadius  = 10.0
	LineThreshold = 5.0
)

// defaultTextWidth approximates rendered text width when no font
// metrics are available (the render layer supplies real metrics to the
// Machine).
func defaultTextWidth(text string, fontSize float64) float64 {
	return 0.6 * fontSize * float64(len([]rune(text)))
}

// distToSegment returns the distance from (px,py) to the segment
// (x1,y1)-(x2,y2), clamping the projection to the segment.
func distToSegment(px, py, x1, y1, x2, y2 float64) float64 {
	dx, dy := x2-x1, y2-y1
	lenSq := dx*dx + dy*dy
	if lenSq == 0 {
		return math.Hypot(px-x1, py-y1)
	}
	u := ((px-x1)*dx + (py-y1)*dy) / lenSq
	if u < 0 {
		u = 0
	} else if u > 1 {
		u = 1
	}
	return math.Hypot(px-(x1+u*dx), py-(y1+u*dy))
}

// ControlPoints returns pointers to the drawing's draggable control
// points. Freehand drawings are not resizable and have none.
func ControlPoints(d Drawing) []*Point {
	switch v := d.(type) {
	case *Line:
		return []*Point{&v.Points[0], &v.Points[1]}
	case *Measurement:
		return []*Point{&v.Start, &v.End}
	case *Fibonacci:
		return []*Point{&v.Start, &v.End}
	case *TextLabel:
		return []*Point{&v.Position}
	case *Freehand:
		return nil
	}
	return nil
}

// HandleAt returns the index of the control handle under the cursor,
// or -1. Text labels expose only handle 0.
func HandleAt(d Drawing, t Transform, px, py float64) int {
	for i, p := range ControlPoints(d) {
		x, y := p.Resolve(t)
		if math.Hypot(px-x, py-y) <= HandleRadius {
			return i
		}
	}
	return -1
}

// hitBody reports whether (px,py) falls on the drawing's body within
// threshold. measure supplies text width metrics for labels.
func hitBody(d Drawing, t Transform, px, py, threshold float64, measure func(string, float64) float64) bool {
	switch v := d.(type) {
	case *Line:
		x1, y1 := v.Points[0].Resolve(t)
		x2, y2 := v.Points[1].Resolve(t)
		return distToSegment(px, py, x1, y1, x2, y2) <= threshold
	case *Measurement:
		x1, y1 := v.Start.Resolve(t)
		x2, y2 := v.End.Resolve(t)
		return distToSegment(px, py, x1, y1, x2, y2) <= threshold
	case *Fibonacci:
		x1, y1 := v.Start.Resolve(t)
		x2, y2 := v.End.Resolve(t)
		return distToSegment(px, py, x1, y1, x2, y2) <= threshold
	case *TextLabel:
		if measure == nil {
			measure = defaultTextWidth
		}
		x, y := v.Position.Resolve(t)
		w := measure(v.Text, v.FontSize)
		h := v.FontSize * 1.2
		return px >= x-threshold && px <= x+w+threshold &&
			py >= y-threshold && py <= y+h+threshold
	case *Freehand:
		if len(v.Points) == 1 {
			x, y := v.Points[0].Resolve(t)
			return math.Hypot(px-x, py-y) <= threshold
		}
		for i := 0; i+1 < len(v.Points); i++ {
			x1, y1 := v.Points[i].Resolve(t)
			x2, y2 := v.Points[i+1].Resolve(t)
			if distToSegment(px, py, x1, y1, x2, y2) <= threshold {
				return true
			}
		}
		return false
	}
	return false
}

// FindNearest scans annotations in fixed priority order (lines,
// measurements, fibonaccis, texts, freehands), skipping locked
// drawings, and returns the first one whose body lies within
// LineThreshold of the cursor. Ties resolve by scan order, not by
// distance. Returns nil when nothing matches.
func (a *Annotations) FindNearest(t Transform, px, py float64, measure func(string, float64) float64) Drawing {
	var found Drawing
	a.Each(func(d Drawing) bool {
		if d.Attr().Locked {
			return true
		}
		if hitBody(d, t, px, py, LineThreshold, measure) {
			found = d
			return false
		}
		return true
	})
	return found
}
