// Package ringbuf provides a lock-free, single-producer single-consumer
// ring buffer for live candle updates. The stream read loop pushes,
// the UI drains on its own cadence, so a burst of updates never blocks
// the socket and never forces a repaint per message.
package ringbuf

import (
	"sync/atomic"

	"chartview/internal/model"
)

// cacheLine is the typical x86-64 cache line size used for padding.
const cacheLine = 64

// Update is one live bar for a series.
type Update struct {
	Symbol    string
	Timeframe model.Timeframe
	Candle    model.Candle
}

// Ring is a lock-free SPSC ring buffer of updates.
// Capacity is a power of two for fast bitwise modulo.
type Ring struct {
	buf  []Update
	mask uint64

	// Separate cache lines to prevent false sharing between producer and consumer.
	_pad0 [cacheLine]byte
	head  atomic.Uint64 // written by producer
	_pad1 [cacheLine]byte
	tail  atomic.Uint64 // written by consumer
	_pad2 [cacheLine]byte

	overflow atomic.Uint64
}

// New creates a ring buffer. capacity is rounded up to the next power
// of two, minimum 2.
func New(capacity int) *Ring {
	cap := nextPow2(capacity)
	if cap < 2 {
		cap = 2
	}
	return &Ring{
		buf:  make([]Update, cap),
		mask: uint64(cap - 1),
	}
}

// Push appends an update. Returns false when the buffer is full; the
// update is not written in that case. Non-blocking.
func (r *Ring) Push(u Update) bool {
	head := r.head.Load()
	tail := r.tail.Load()

	if head-tail >= uint64(len(r.buf)) {
		r.overflow.Add(1)
		return false
	}

	r.buf[head&r.mask] = u
	r.head.Store(head + 1)
	return true
}

// Pop retrieves the next update. Returns false when empty. Non-blocking.
func (r *Ring) Pop() (Update, bool) {
	tail := r.tail.Load()
	head := r.head.Load()

	if tail >= head {
		return Update{}, false
	}

	u := r.buf[tail&r.mask]
	r.tail.Store(tail + 1)
	return u, true
}

// Drain pops everything currently buffered, oldest first.
func (r *Ring) Drain() []Update {
	n := r.Len()
	if n == 0 {
		return nil
	}
	out := make([]Update, 0, n)
	for i := 0; i < n; i++ {
		u, ok := r.Pop()
		if !ok {
			break
		}
		out = append(out, u)
	}
	return out
}

// Len returns the current number of buffered updates.
func (r *Ring) Len() int {
	return int(r.head.Load() - r.tail.Load())
}

// Cap returns the buffer capacity.
func (r *Ring) Cap() int {
	return len(r.buf)
}

// Overflow returns the total number of pushes dropped on a full buffer.
func (r *Ring) Overflow() uint64 {
	return r.overflow.Load()
}

// nextPow2 returns the smallest power of 2 >= n.
func nextPow2(n int) int {
	if n <= 0 {
		return 1
	}
	n--
	n |= n >> 1
	n |= n >> 2
	n |= n >> 4
	n |= n >> 8
	n |= n >> 16
	n |= n >> 32
	return n + 1
}
