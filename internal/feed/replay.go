package feed

import (
	"sync"

	"chartview/internal/model"
)

// ReplayBuffer is a fixed-size ring of recent candles for one series.
// New subscribers drain it to render immediately instead of waiting
// for the next live bar.
type ReplayBuffer struct {
	mu   sync.RWMutex
	buf  []model.Candle
	pos  int
	full bool
}

// NewReplayBuffer creates a ring with the given capacity.
func NewReplayBuffer(capacity int) *ReplayBuffer {
	if capacity <= 0 {
		capacity = 200
	}
	return &ReplayBuffer{buf: make([]model.Candle, capacity)}
}

// Push appends a candle, overwriting the oldest once full.
func (rb *ReplayBuffer) Push(c model.Candle) {
	rb.mu.Lock()
	defer rb.mu.Unlock()
	rb.buf[rb.pos] = c
	rb.pos = (rb.pos + 1) % len(rb.buf)
	if rb.pos == 0 {
		rb.full = true
	}
}

// Recent returns up to n candles, oldest first.
func (rb *ReplayBuffer) Recent(n int) []model.Candle {
	rb.mu.RLock()
	defer rb.mu.RUnlock()

	count := rb.size()
	if n > count {
		n = count
	}
	out := make([]model.Candle, 0, n)
	for i := count - n; i < count; i++ {
		out = append(out, rb.buf[rb.index(i)])
	}
	return out
}

// Len returns the number of buffered candles.
func (rb *ReplayBuffer) Len() int {
	rb.mu.RLock()
	defer rb.mu.RUnlock()
	return rb.size()
}

func (rb *ReplayBuffer) size() int {
	if rb.full {
		return len(rb.buf)
	}
	return rb.pos
}

// index converts a logical index (0 = oldest) to a ring position.
func (rb *ReplayBuffer) index(logical int) int {
	if rb.full {
		return (rb.pos + logical) % len(rb.buf)
	}
	return logical
}
