package chart

import (
	"math"
	"sync/atomic"
	"testing"
	"time"

	"chartview/internal/model"
)

func TestAnimator_StepConverges(t *testing.T) {
	s := NewState("TEST", model.TF1m, candleRamp(10, 100, 1))
	s.Viewport.Offset = 0
	s.VerticalOffset = 80

	frames := 0
	a := NewAnimator(s, nil, func() { frames++ })
	a.Start(100, 0)
	a.Stop()

	steps := 0
	for a.Step() {
		steps++
		if steps > 200 {
			t.Fatal("animation did not converge")
		}
	}

	if math.Abs(s.Viewport.Offset-100) > 1e-9 {
		t.Errorf("offset should snap to target: got %.6f", s.Viewport.Offset)
	}
	if math.Abs(s.VerticalOffset) > 1e-9 {
		t.Errorf("vertical offset should snap to zero: got %.6f", s.VerticalOffset)
	}
	if frames != steps+1 {
		t.Errorf("onFrame fired %d times over %d steps", frames, steps+1)
	}
}

func TestAnimator_FirstStepMovesThirtyPercent(t *testing.T) {
	s := NewState("TEST", model.TF1m, candleRamp(10, 100, 1))
	s.Viewport.Offset = 0

	a := NewAnimator(s, nil, nil)
	a.Start(100, 0)
	a.Stop()

	a.Step()
	if math.Abs(s.Viewport.Offset-30) > 1e-9 {
		t.Errorf("first tick: got %.6f, want 30", s.Viewport.Offset)
	}
	a.Step()
	if math.Abs(s.Viewport.Offset-51) > 1e-9 {
		t.Errorf("second tick: got %.6f, want 51", s.Viewport.Offset)
	}
}

func TestAnimator_RetargetWhileRunning(t *testing.T) {
	s := NewState("TEST", model.TF1m, candleRamp(10, 100, 1))
	s.Viewport.Offset = 0

	a := NewAnimator(s, nil, nil)
	a.Start(100, 0)
	a.Start(50, 0) // retarget, no second loop
	a.Stop()

	for a.Step() {
	}
	if math.Abs(s.Viewport.Offset-50) > 1e-9 {
		t.Errorf("offset: got %.6f, want retargeted 50", s.Viewport.Offset)
	}
}

func TestAnimator_TicksRunThroughDispatch(t *testing.T) {
	s := NewState("TEST", model.TF1m, candleRamp(10, 100, 1))
	s.Viewport.Offset = 0

	// One goroutine owns the state; every tick must arrive through it.
	work := make(chan func(), 64)
	go func() {
		for fn := range work {
			fn()
		}
	}()

	var dispatched atomic.Int64
	a := NewAnimator(s, func(fn func()) {
		dispatched.Add(1)
		work <- fn
	}, nil)
	a.Start(100, 0)

	deadline := time.Now().Add(2 * time.Second)
	for a.Running() {
		if time.Now().After(deadline) {
			t.Fatal("animation did not finish")
		}
		time.Sleep(5 * time.Millisecond)
	}
	close(work)

	if dispatched.Load() == 0 {
		t.Fatal("no tick went through dispatch")
	}
	if math.Abs(s.Viewport.Offset-100) > 1e-9 {
		t.Errorf("offset should snap to target: got %.6f", s.Viewport.Offset)
	}
}

func TestAnimator_StopIsIdempotent(t *testing.T) {
	s := NewState("TEST", model.TF1m, candleRamp(10, 100, 1))
	a := NewAnimator(s, nil, nil)

	a.Stop() // never started
	a.Start(10, 0)
	a.Stop()
	a.Stop()

	if a.Running() {
		t.Error("animator should report stopped")
	}
}
