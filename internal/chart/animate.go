package chart

import (
	"math"
	"sync"
	"time"
)

const (
	frameInterval = 16 * time.Millisecond
	easingFactor  = 0.3
	easingEpsilon = 0.01
)

// Animator eases the viewport offset and vertical offset toward target
// values: each tick moves 30% of the remaining distance and the run
// stops once both deltas fall under a 0.01 epsilon. It is started
// explicitly on target change and cancelled explicitly; direct-drag
// writes always call Stop first, so eased and immediate mutation never
// race.
type Animator struct {
	state    *State
	dispatch func(func())
	onFrame  func()

	mu      sync.Mutex
	running bool
	done    chan struct{}

	targetOffset float64
	targetVOff   float64
}

// NewAnimator creates an animator over s. dispatch marshals each tick
// onto the goroutine owning the state (the UI thread); a nil dispatch
// runs ticks inline, which is only safe in tests. onFrame fires after
// every applied tick, typically to schedule a repaint.
func NewAnimator(s *State, dispatch func(func()), onFrame func()) *Animator {
	if dispatch == nil {
		dispatch = func(fn func()) { fn() }
	}
	return &Animator{state: s, dispatch: dispatch, onFrame: onFrame}
}

// Start begins (or retargets) an animation toward the given offsets.
func (a *Animator) Start(targetOffset, targetVOff float64) {
	a.mu.Lock()
	a.targetOffset = targetOffset
	a.targetVOff = targetVOff
	if a.running {
		a.mu.Unlock()
		return
	}
	a.running = true
	a.done = make(chan struct{})
	done := a.done
	a.mu.Unlock()

	go a.loop(done)
}

// Stop cancels any running animation, leaving the state wherever the
// last tick put it.
func (a *Animator) Stop() {
	a.mu.Lock()
	defer a.mu.Unlock()
	if !a.running {
		return
	}
	a.running = false
	close(a.done)
}

// Running reports whether an animation is in flight.
func (a *Animator) Running() bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.running
}

// Step applies one easing tick and reports whether more ticks are
// needed. Must run on the goroutine owning the state.
func (a *Animator) Step() bool {
	a.mu.Lock()
	to, tv := a.targetOffset, a.targetVOff
	a.mu.Unlock()

	s := a.state
	dOff := to - s.Viewport.Offset
	dV := tv - s.VerticalOffset
	if math.Abs(dOff) < easingEpsilon && math.Abs(dV) < easingEpsilon {
		s.Viewport.Offset = to
		s.VerticalOffset = tv
		if a.onFrame != nil {
			a.onFrame()
		}
		return false
	}
	s.Viewport.Offset += dOff * easingFactor
	s.VerticalOffset += dV * easingFactor
	if a.onFrame != nil {
		a.onFrame()
	}
	return true
}

func (a *Animator) loop(done chan struct{}) {
	ticker := time.NewTicker(frameInterval)
	defer ticker.Stop()
	for {
		select {
		case <-done:
			return
		case <-ticker.C:
			more := make(chan bool, 1)
			a.dispatch(func() { more <- a.Step() })
			if !<-more {
				a.Stop()
				return
			}
		}
	}
}
