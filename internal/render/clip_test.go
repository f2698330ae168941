package render

import (
	"math"
	"testing"
)

func TestClipSegment_FullyInside(t *testing.T) {
	x1, y1, x2, y2, ok := clipSegment(10, 10, 90, 90, 100, 100)
	if !ok {
		t.Fatal("inside segment must survive")
	}
	if x1 != 10 || y1 != 10 || x2 != 90 || y2 != 90 {
		t.Errorf("inside segment must be unchanged: got (%.1f,%.1f)-(%.1f,%.1f)", x1, y1, x2, y2)
	}
}

func TestClipSegment_FullyOutside(t *testing.T) {
	if _, _, _, _, ok := clipSegment(-50, -50, -10, -10, 100, 100); ok {
		t.Error("segment left of the rect must be rejected")
	}
	if _, _, _, _, ok := clipSegment(10, 150, 90, 150, 100, 100); ok {
		t.Error("segment below the rect must be rejected")
	}
}

func TestClipSegment_CrossingEdge(t *testing.T) {
	// Horizontal segment entering from the left: clipped at x=0.
	x1, y1, x2, y2, ok := clipSegment(-50, 40, 50, 40, 100, 100)
	if !ok {
		t.Fatal("crossing segment must survive")
	}
	if x1 != 0 || y1 != 40 || x2 != 50 || y2 != 40 {
		t.Errorf("got (%.1f,%.1f)-(%.1f,%.1f), want (0,40)-(50,40)", x1, y1, x2, y2)
	}
}

func TestClipSegment_DiagonalThroughCorner(t *testing.T) {
	// Diagonal crossing the whole rect: endpoints land on the border
	// and keep the original slope.
	x1, y1, x2, y2, ok := clipSegment(-100, -100, 200, 200, 100, 100)
	if !ok {
		t.Fatal("crossing diagonal must survive")
	}
	if x1 != 0 || y1 != 0 || x2 != 100 || y2 != 100 {
		t.Errorf("got (%.1f,%.1f)-(%.1f,%.1f), want (0,0)-(100,100)", x1, y1, x2, y2)
	}
	if math.Abs((y2-y1)-(x2-x1)) > 1e-9 {
		t.Error("clipping must preserve the slope")
	}
}

func TestClipSegment_VerticalLine(t *testing.T) {
	x1, y1, x2, y2, ok := clipSegment(50, -20, 50, 120, 100, 100)
	if !ok {
		t.Fatal("vertical crossing segment must survive")
	}
	if x1 != 50 || x2 != 50 || y1 != 0 || y2 != 100 {
		t.Errorf("got (%.1f,%.1f)-(%.1f,%.1f), want (50,0)-(50,100)", x1, y1, x2, y2)
	}
}
