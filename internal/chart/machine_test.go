package chart

import (
	"math"
	"testing"

	"chartview/internal/model"
)

// candleRamp builds n candles with linearly rising closes.
func candleRamp(n int, base, step float64) []model.Candle {
	out := make([]model.Candle, n)
	for i := range out {
		c := base + float64(i)*step
		out[i] = model.Candle{
			Timestamp: int64(i) * 60_000,
			Open:      c - step/2, High: c + 1, Low: c - 1, Close: c,
			Volume: 1000,
		}
	}
	return out
}

// testMachine: 860x530 canvas (800x500 plot), 500 candles, pinned
// price range [100,200] so pixel/price math is exact.
func testMachine() *Machine {
	s := NewState("TEST", model.TF1m, candleRamp(500, 100, 0.1))
	s.Width = 860
	s.Height = 530
	s.CustomRange = &PriceRange{Min: 100, Max: 200}
	return NewMachine(s, nil)
}

func TestMachine_LineCreation(t *testing.T) {
	m := testMachine()
	s := m.State

	m.SetTool(ToolLine)
	m.PointerDown(100, 100)
	if m.Mode() != ModeDrawing {
		t.Fatalf("mode after down: got %d, want ModeDrawing", m.Mode())
	}
	m.PointerMove(200, 150)
	m.PointerUp()

	if len(s.Annotations.Lines) != 1 {
		t.Fatalf("lines: got %d, want 1", len(s.Annotations.Lines))
	}
	l := s.Annotations.Lines[0]
	if !s.Selected.Valid() || s.Selected != RefOf(l) {
		t.Error("new drawing should be selected")
	}
	if m.Tool != ToolCrosshair {
		t.Error("tool should snap back to crosshair after creation")
	}
	if s.Current != nil {
		t.Error("in-progress drawing should be cleared")
	}
	if l.Points[0].Price == nil || l.Points[1].Price == nil {
		t.Error("endpoints must be price-anchored")
	}
	if l.Points[0].DataIndex == nil {
		t.Error("endpoint over data must be index-anchored")
	}
}

func TestMachine_MeasurementRecompute(t *testing.T) {
	m := testMachine()
	s := m.State

	// Plot is 500px over [100,200]: y=100 is price 180, y=300 is 140.
	m.SetTool(ToolMeasure)
	m.PointerDown(100, 100)
	m.PointerMove(300, 300)
	m.PointerUp()

	if len(s.Annotations.Measurements) != 1 {
		t.Fatalf("measurements: got %d", len(s.Annotations.Measurements))
	}
	mm := s.Annotations.Measurements[0]
	if math.Abs(mm.PriceDiff-(-40)) > 1e-6 {
		t.Errorf("price diff: got %.4f, want -40", mm.PriceDiff)
	}
	wantPct := -40.0 / 180.0 * 100
	if math.Abs(mm.PercentDiff-wantPct) > 1e-6 {
		t.Errorf("percent diff: got %.4f, want %.4f", mm.PercentDiff, wantPct)
	}
}

func TestMachine_FreehandCollectsPoints(t *testing.T) {
	m := testMachine()
	s := m.State

	m.SetTool(ToolDraw)
	m.PointerDown(100, 100)
	m.PointerMove(110, 105)
	m.PointerMove(120, 112)
	m.PointerUp()

	if len(s.Annotations.Freehands) != 1 {
		t.Fatalf("freehands: got %d", len(s.Annotations.Freehands))
	}
	if got := len(s.Annotations.Freehands[0].Points); got != 3 {
		t.Errorf("stroke points: got %d, want 3", got)
	}
}

func TestMachine_Pan(t *testing.T) {
	m := testMachine()
	s := m.State
	startOffset := s.Viewport.Offset // 400 with 500 candles

	m.PointerDown(400, 250)
	if m.Mode() != ModePanning {
		t.Fatalf("mode: got %d, want ModePanning", m.Mode())
	}
	m.PointerMove(390, 260)

	// Bar width is 8: dragging left 10px advances the offset by
	// 10*1.2/8 = 1.5 candles; vertical drag maps 1:1.
	if math.Abs(s.Viewport.Offset-(startOffset+1.5)) > 1e-6 {
		t.Errorf("offset: got %.4f, want %.4f", s.Viewport.Offset, startOffset+1.5)
	}
	if math.Abs(s.VerticalOffset-10) > 1e-6 {
		t.Errorf("vertical offset: got %.4f, want 10", s.VerticalOffset)
	}

	m.PointerUp()
	if m.Mode() != ModeIdle {
		t.Error("mode should return to idle")
	}
}

func TestMachine_WheelTimeZoom_CursorStable(t *testing.T) {
	m := testMachine()
	s := m.State
	tr := s.Transform()
	idxBefore := tr.XToIndex(400)

	m.Wheel(400, 250, -1, false)

	if math.Abs(s.Viewport.Size-85) > 1e-6 {
		t.Errorf("size after zoom in: got %.4f, want 85", s.Viewport.Size)
	}
	idxAfter := s.Transform().XToIndex(400)
	if math.Abs(idxAfter-idxBefore) > 1e-6 {
		t.Errorf("index under cursor moved: %.4f -> %.4f", idxBefore, idxAfter)
	}
}

func TestMachine_WheelTimeZoom_FloorsAtOne(t *testing.T) {
	m := testMachine()
	m.State.Viewport.Size = 1

	m.Wheel(400, 250, -1, false)

	if m.State.Viewport.Size != 1 {
		t.Errorf("size: got %.4f, want floor of 1", m.State.Viewport.Size)
	}
}

func TestMachine_WheelPriceZoom_AboutCursor(t *testing.T) {
	m := testMachine()
	s := m.State

	// y=250 on the 500px plot over [100,200] is price 150, ratio 0.5.
	m.Wheel(400, 250, -1, true)

	if s.CustomRange == nil {
		t.Fatal("price zoom must pin a custom range")
	}
	if math.Abs(s.CustomRange.Min-105) > 1e-6 || math.Abs(s.CustomRange.Max-195) > 1e-6 {
		t.Errorf("range: got [%.4f,%.4f], want [105,195]", s.CustomRange.Min, s.CustomRange.Max)
	}
}

func TestMachine_PriceAxisDrag(t *testing.T) {
	m := testMachine()
	s := m.State

	// x=820 is inside the 60px price gutter on an 860px canvas.
	m.PointerDown(820, 100)
	if m.Mode() != ModeScalingPrice {
		t.Fatalf("mode: got %d, want ModeScalingPrice", m.Mode())
	}
	m.PointerMove(820, 200)

	// dy=100 scales the span by 1.5 about the range center 150.
	if s.CustomRange == nil {
		t.Fatal("expected a custom range")
	}
	if math.Abs(s.CustomRange.Min-75) > 1e-6 || math.Abs(s.CustomRange.Max-225) > 1e-6 {
		t.Errorf("range: got [%.4f,%.4f], want [75,225]", s.CustomRange.Min, s.CustomRange.Max)
	}
}

func TestMachine_DoubleClickReset(t *testing.T) {
	m := testMachine()
	s := m.State
	s.Viewport = Viewport{Offset: 50, Size: 300}
	s.VerticalOffset = 40

	m.DoubleClick()
	m.Anim.Stop()

	if s.CustomRange != nil {
		t.Error("double-click must clear the custom range")
	}
	if s.Viewport.Size != 100 {
		t.Errorf("size: got %.1f, want 100", s.Viewport.Size)
	}
	// Drive the easing to completion: targets are the last 100 candles
	// and a zero vertical offset.
	for m.Anim.Step() {
	}
	if math.Abs(s.Viewport.Offset-400) > 1e-6 {
		t.Errorf("offset target: got %.4f, want 400", s.Viewport.Offset)
	}
	if math.Abs(s.VerticalOffset) > 1e-6 {
		t.Errorf("vertical offset target: got %.4f, want 0", s.VerticalOffset)
	}
}

func TestMachine_SelectAndDelete(t *testing.T) {
	m := testMachine()
	s := m.State

	m.SetTool(ToolLine)
	m.PointerDown(100, 100)
	m.PointerMove(200, 100)
	m.PointerUp()

	// Click the body with the crosshair tool reselects it.
	s.Selected = Ref{}
	m.PointerDown(150, 100)
	m.PointerUp()
	if !s.Selected.Valid() {
		t.Fatal("clicking a drawing body should select it")
	}

	m.DeleteSelected()
	if s.Annotations.Count() != 0 {
		t.Errorf("count after delete: got %d", s.Annotations.Count())
	}
	if s.Selected.Valid() {
		t.Error("selection should clear after delete")
	}
}

func TestMachine_ResizeHandle(t *testing.T) {
	m := testMachine()
	s := m.State

	m.SetTool(ToolLine)
	m.PointerDown(100, 100)
	m.PointerMove(200, 100)
	m.PointerUp()
	l := s.Annotations.Lines[0]

	// Hover near the end handle, then drag it.
	m.PointerMove(200, 100)
	if s.Hovered != RefOf(l) {
		t.Fatal("line should be hovered")
	}
	m.PointerDown(202, 98)
	if m.Mode() != ModeResizing {
		t.Fatalf("mode: got %d, want ModeResizing", m.Mode())
	}
	m.PointerMove(300, 200)
	m.PointerUp()

	x, y := l.Points[1].Resolve(s.Transform())
	if math.Abs(x-300) > 1e-6 || math.Abs(y-200) > 1e-6 {
		t.Errorf("end point: got (%.2f,%.2f), want (300,200)", x, y)
	}
}

func TestMachine_CommitText_And_DuplicateShift(t *testing.T) {
	m := testMachine()
	s := m.State

	// Zoom way out so x=700 lands past the last candle and the label
	// stays pixel-anchored.
	s.Viewport = Viewport{Offset: 0, Size: 2000}

	m.SetTool(ToolText)
	m.CommitText(700, 100, "breakout")

	if len(s.Annotations.Texts) != 1 {
		t.Fatalf("texts: got %d", len(s.Annotations.Texts))
	}
	label := s.Annotations.Texts[0]
	if label.Text != "breakout" || label.FontSize != 14 {
		t.Errorf("label: got %q size %.0f", label.Text, label.FontSize)
	}
	if label.Position.DataIndex != nil {
		t.Fatal("label past the data must stay pixel-anchored")
	}
	if m.Tool != ToolCrosshair {
		t.Error("tool should reset after commit")
	}

	m.DuplicateSelected()
	if len(s.Annotations.Texts) != 2 {
		t.Fatalf("texts after duplicate: got %d", len(s.Annotations.Texts))
	}
	cp := s.Annotations.Texts[1]
	if cp.Position.X != 710 || cp.Position.Y != 110 {
		t.Errorf("duplicate position: got (%.0f,%.0f), want (710,110)", cp.Position.X, cp.Position.Y)
	}
	if s.Selected != RefOf(cp) {
		t.Error("duplicate should become the selection")
	}
}

func TestMachine_CommitText_EmptyIsDiscarded(t *testing.T) {
	m := testMachine()
	m.SetTool(ToolText)
	m.CommitText(100, 100, "")
	if m.State.Annotations.Count() != 0 {
		t.Error("empty text must not create a label")
	}
	if m.Tool != ToolCrosshair {
		t.Error("tool should still reset")
	}
}

func TestMachine_HoveredCandle(t *testing.T) {
	m := testMachine()
	s := m.State

	// Bar width 8, offset 400: slot 450 spans x=[400,408), center 404.
	m.PointerMove(404, 250)
	if s.HoveredCandle != 450 {
		t.Errorf("hovered candle: got %d, want 450", s.HoveredCandle)
	}

	// x=407.9 is inside slot 450 but outside the 80% body around 404.
	m.PointerMove(407.9, 250)
	if s.HoveredCandle != -1 {
		t.Errorf("gap between bodies: got %d, want -1", s.HoveredCandle)
	}

	m.Leave()
	if s.HoveredCandle != -1 || s.CursorInPlot {
		t.Error("leave should clear cursor state")
	}
}

func TestMachine_ApplyRealtime(t *testing.T) {
	m := testMachine()
	s := m.State
	n := len(s.Data)
	last := s.Data[n-1]

	// Same period: replaces the forming candle.
	upd := last
	upd.Close = last.Close + 5
	m.ApplyRealtime(upd)
	if len(s.Data) != n {
		t.Fatalf("len: got %d, want %d", len(s.Data), n)
	}
	if s.Data[n-1].Close != upd.Close {
		t.Error("forming candle should be replaced")
	}

	// Next period: appends.
	next := model.Candle{Timestamp: last.Timestamp + 60_000, Open: 1, High: 2, Low: 0.5, Close: 1.5}
	m.ApplyRealtime(next)
	if len(s.Data) != n+1 {
		t.Errorf("len after append: got %d, want %d", len(s.Data), n+1)
	}

	// Stale period: discarded.
	stale := model.Candle{Timestamp: last.Timestamp - 600_000, Close: 9}
	m.ApplyRealtime(stale)
	if len(s.Data) != n+1 {
		t.Error("stale candle must be discarded")
	}
}

func TestMachine_LockedDrawingNotInteractive(t *testing.T) {
	m := testMachine()
	s := m.State

	m.SetTool(ToolLine)
	m.PointerDown(100, 100)
	m.PointerMove(200, 100)
	m.PointerUp()

	m.ToggleLockSelected()
	s.Selected = Ref{}
	s.Hovered = Ref{}

	// A locked drawing is invisible to hover and body clicks; the
	// click falls through to panning.
	m.PointerMove(150, 100)
	if s.Hovered.Valid() {
		t.Error("locked drawing must not hover")
	}
	m.PointerDown(150, 100)
	if m.Mode() != ModePanning {
		t.Errorf("mode: got %d, want ModePanning", m.Mode())
	}
	m.PointerUp()
}
