package chart

import (
	"testing"
)

func pxLine(x1, y1, x2, y2 float64) *Line {
	return &Line{
		Attrs:  Attrs{ID: NewID(), Color: lineColor, Width: defaultStroke},
		Points: [2]Point{{X: x1, Y: y1}, {X: x2, Y: y2}},
	}
}

func TestHitBody_LineThreshold(t *testing.T) {
	tr := testTransform()
	l := pxLine(100, 100, 200, 100)

	if !hitBody(l, tr, 150, 104, LineThreshold, nil) {
		t.Error("point 4px off the segment should hit")
	}
	if hitBody(l, tr, 150, 106, LineThreshold, nil) {
		t.Error("point 6px off the segment should miss")
	}
	// Beyond the endpoint the projection clamps: distance is measured
	// to the endpoint, not the infinite line.
	if hitBody(l, tr, 210, 100, LineThreshold, nil) {
		t.Error("point 10px past the endpoint should miss")
	}
}

func TestHitBody_TextBox(t *testing.T) {
	tr := testTransform()
	d := &TextLabel{
		Attrs:    Attrs{ID: NewID(), Color: textColor},
		Position: Point{X: 100, Y: 100},
		Text:     "note",
		FontSize: 14,
	}
	// Fixed metrics so the box is exactly 40 wide and 16.8 tall.
	measure := func(string, float64) float64 { return 40 }

	if !hitBody(d, tr, 120, 108, LineThreshold, measure) {
		t.Error("point inside the text box should hit")
	}
	if !hitBody(d, tr, 96, 96, LineThreshold, measure) {
		t.Error("point within threshold of the box edge should hit")
	}
	if hitBody(d, tr, 150, 108, LineThreshold, measure) {
		t.Error("point right of the padded box should miss")
	}
}

func TestHitBody_FreehandSegments(t *testing.T) {
	tr := testTransform()
	d := &Freehand{
		Attrs:  Attrs{ID: NewID(), Color: freehandColor},
		Points: []Point{{X: 10, Y: 10}, {X: 50, Y: 10}, {X: 50, Y: 50}},
	}
	if !hitBody(d, tr, 30, 12, LineThreshold, nil) {
		t.Error("point near the first stroke segment should hit")
	}
	if !hitBody(d, tr, 52, 30, LineThreshold, nil) {
		t.Error("point near the second stroke segment should hit")
	}
	if hitBody(d, tr, 30, 40, LineThreshold, nil) {
		t.Error("point inside the stroke's bounding box but off both segments should miss")
	}

	single := &Freehand{Attrs: Attrs{ID: NewID()}, Points: []Point{{X: 10, Y: 10}}}
	if !hitBody(single, tr, 12, 12, LineThreshold, nil) {
		t.Error("single-point stroke should hit near the point")
	}
}

func TestFindNearest_PriorityOrder(t *testing.T) {
	tr := testTransform()
	var a Annotations

	// A measurement and a line overlapping at the same pixels: the line
	// group is scanned first and wins.
	l := pxLine(100, 100, 200, 100)
	m := &Measurement{
		Attrs: Attrs{ID: NewID(), Color: measureColor},
		Start: Point{X: 100, Y: 100},
		End:   Point{X: 200, Y: 100},
	}
	a.Add(m)
	a.Add(l)

	got := a.FindNearest(tr, 150, 100, nil)
	if got == nil {
		t.Fatal("expected a hit")
	}
	if RefOf(got) != RefOf(l) {
		t.Errorf("expected the line to win the overlap, got kind %d", got.Kind())
	}
}

func TestFindNearest_SkipsLocked(t *testing.T) {
	tr := testTransform()
	var a Annotations

	l := pxLine(100, 100, 200, 100)
	l.Locked = true
	a.Add(l)

	if got := a.FindNearest(tr, 150, 100, nil); got != nil {
		t.Error("locked drawings must not be hit")
	}
}

func TestFindNearest_NoHit(t *testing.T) {
	tr := testTransform()
	var a Annotations
	a.Add(pxLine(100, 100, 200, 100))

	if got := a.FindNearest(tr, 400, 400, nil); got != nil {
		t.Error("expected nil away from every drawing")
	}
}

func TestHandleAt(t *testing.T) {
	tr := testTransform()
	l := pxLine(100, 100, 200, 100)

	if got := HandleAt(l, tr, 103, 97); got != 0 {
		t.Errorf("near start point: got handle %d, want 0", got)
	}
	if got := HandleAt(l, tr, 205, 105); got != 1 {
		t.Errorf("near end point: got handle %d, want 1", got)
	}
	if got := HandleAt(l, tr, 150, 100); got != -1 {
		t.Errorf("mid-segment: got handle %d, want -1", got)
	}

	// Freehand strokes expose no handles.
	fh := &Freehand{Attrs: Attrs{ID: NewID()}, Points: []Point{{X: 10, Y: 10}}}
	if got := HandleAt(fh, tr, 10, 10); got != -1 {
		t.Errorf("freehand: got handle %d, want -1", got)
	}
}

func TestAnnotations_Duplicate_PixelAnchored(t *testing.T) {
	var a Annotations
	l := pxLine(100, 100, 200, 150)
	a.Add(l)

	cp := a.Duplicate(RefOf(l))
	if cp == nil {
		t.Fatal("expected a copy")
	}
	if cp.Attr().ID == l.ID {
		t.Error("copy must get a fresh id")
	}
	dup := cp.(*Line)
	if dup.Points[0].X != 110 || dup.Points[0].Y != 110 {
		t.Errorf("pixel-anchored points shift by +10,+10: got (%.0f,%.0f)", dup.Points[0].X, dup.Points[0].Y)
	}
	if a.Count() != 2 {
		t.Errorf("count after duplicate: got %d, want 2", a.Count())
	}
}

func TestAnnotations_Duplicate_DataAnchoredStaysPut(t *testing.T) {
	var a Annotations
	idx := 5
	price := 105.0
	l := &Line{
		Attrs: Attrs{ID: NewID(), Color: lineColor},
		Points: [2]Point{
			{X: 100, Y: 100, DataIndex: &idx, Price: &price},
			{X: 200, Y: 150, DataIndex: &idx, Price: &price},
		},
	}
	a.Add(l)

	cp := a.Duplicate(RefOf(l)).(*Line)
	if cp.Points[0].X != 100 || cp.Points[0].Y != 100 {
		t.Error("data-anchored points must not shift")
	}
	// Deep copy: mutating the copy's anchor must not touch the source.
	*cp.Points[0].DataIndex = 9
	if *l.Points[0].DataIndex != 5 {
		t.Error("duplicate shares anchor storage with the source")
	}
}

func TestAnnotations_Remove(t *testing.T) {
	var a Annotations
	l := pxLine(0, 0, 1, 1)
	a.Add(l)

	if !a.Remove(RefOf(l)) {
		t.Error("expected removal")
	}
	if a.Count() != 0 {
		t.Errorf("count after remove: got %d", a.Count())
	}
	if a.Remove(RefOf(l)) {
		t.Error("second removal should report false")
	}
}
