package render

// clipSegment clips the segment (x1,y1)-(x2,y2) to the rectangle
// [0,w]x[0,h] using the Liang-Barsky parametric test. The raster
// context has no clip stack, so annotation strokes are clipped
// geometrically before drawing. ok is false when the segment lies
// entirely outside.
func clipSegment(x1, y1, x2, y2, w, h float64) (cx1, cy1, cx2, cy2 float64, ok bool) {
	dx := x2 - x1
	dy := y2 - y1
	t0, t1 := 0.0, 1.0

	clip := func(p, q float64) bool {
		if p == 0 {
			return q >= 0
		}
		r := q / p
		if p < 0 {
			if r > t1 {
				return false
			}
			if r > t0 {
				t0 = r
			}
		} else {
			if r < t0 {
				return false
			}
			if r < t1 {
				t1 = r
			}
		}
		return true
	}

	if !clip(-dx, x1) || !clip(dx, w-x1) || !clip(-dy, y1) || !clip(dy, h-y1) {
		return 0, 0, 0, 0, false
	}
	return x1 + t0*dx, y1 + t0*dy, x1 + t1*dx, y1 + t1*dy, true
}
