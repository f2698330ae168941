package ringbuf

import (
	"sync"
	"testing"
	"time"

	"chartview/internal/model"
)

func update(symbol string, open float64) Update {
	return Update{Symbol: symbol, Timeframe: model.TF1m, Candle: model.Candle{Open: open}}
}

func TestRing_BasicPushPop(t *testing.T) {
	r := New(4) // rounds to 4

	if !r.Push(update("AAPL", 100)) {
		t.Fatal("first push should succeed")
	}
	if !r.Push(update("MSFT", 200)) {
		t.Fatal("second push should succeed")
	}

	if r.Len() != 2 {
		t.Fatalf("expected len=2, got %d", r.Len())
	}

	got, ok := r.Pop()
	if !ok || got.Symbol != "AAPL" {
		t.Fatalf("expected AAPL, got %v ok=%v", got.Symbol, ok)
	}

	got, ok = r.Pop()
	if !ok || got.Symbol != "MSFT" {
		t.Fatalf("expected MSFT, got %v ok=%v", got.Symbol, ok)
	}

	_, ok = r.Pop()
	if ok {
		t.Fatal("pop from empty should return false")
	}
}

func TestRing_Overflow(t *testing.T) {
	r := New(2) // capacity = 2

	r.Push(update("A", 1))
	r.Push(update("A", 2))

	// Buffer is full
	if r.Push(update("A", 3)) {
		t.Fatal("push to full buffer should return false")
	}
	if r.Overflow() != 1 {
		t.Fatalf("expected overflow=1, got %d", r.Overflow())
	}
}

func TestRing_Wraparound(t *testing.T) {
	r := New(4)

	// Fill and drain multiple times to test wraparound
	for round := 0; round < 5; round++ {
		for i := 0; i < 4; i++ {
			if !r.Push(update("X", float64(round*10+i))) {
				t.Fatalf("round %d push %d failed", round, i)
			}
		}
		for i := 0; i < 4; i++ {
			u, ok := r.Pop()
			if !ok {
				t.Fatalf("round %d pop %d failed", round, i)
			}
			if u.Candle.Open != float64(round*10+i) {
				t.Fatalf("round %d pop %d: expected open=%d, got %v", round, i, round*10+i, u.Candle.Open)
			}
		}
	}
}

func TestRing_Drain(t *testing.T) {
	r := New(8)
	for i := 0; i < 3; i++ {
		r.Push(update("A", float64(i)))
	}

	got := r.Drain()
	if len(got) != 3 {
		t.Fatalf("expected 3 updates, got %d", len(got))
	}
	for i, u := range got {
		if u.Candle.Open != float64(i) {
			t.Fatalf("drain out of order at %d: %v", i, u.Candle.Open)
		}
	}
	if r.Len() != 0 {
		t.Fatalf("ring should be empty after drain, len=%d", r.Len())
	}
	if r.Drain() != nil {
		t.Fatal("drain of empty ring should return nil")
	}
}

func TestRing_SPSC_Concurrent(t *testing.T) {
	const count = 100_000
	r := New(1024)

	var wg sync.WaitGroup
	wg.Add(2)

	// Producer
	go func() {
		defer wg.Done()
		for i := 0; i < count; i++ {
			for !r.Push(update("A", float64(i))) {
				// spin-wait (busy loop for test only)
			}
		}
	}()

	// Consumer
	received := make([]float64, 0, count)
	go func() {
		defer wg.Done()
		for len(received) < count {
			u, ok := r.Pop()
			if ok {
				received = append(received, u.Candle.Open)
			}
		}
	}()

	done := make(chan struct{})
	go func() {
		wg.Wait()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(10 * time.Second):
		t.Fatal("SPSC test timed out")
	}

	// Verify ordering
	for i, v := range received {
		if v != float64(i) {
			t.Fatalf("at index %d: expected %d, got %v", i, i, v)
		}
	}
}

func TestRing_NextPow2(t *testing.T) {
	cases := []struct{ in, want int }{
		{0, 1}, {1, 1}, {2, 2}, {3, 4}, {5, 8}, {7, 8}, {8, 8}, {9, 16}, {1023, 1024},
	}
	for _, tc := range cases {
		got := nextPow2(tc.in)
		if got != tc.want {
			t.Errorf("nextPow2(%d) = %d, want %d", tc.in, got, tc.want)
		}
	}
}
