package indicator

import (
	"testing"
)

func TestDefaults_OverlayFlags(t *testing.T) {
	cases := []struct {
		typ     Type
		overlay bool
	}{
		{TypeSMA, true},
		{TypeEMA, true},
		{TypeBollinger, true},
		{TypeRSI, false},
		{TypeMACD, false},
		{TypeStochastic, false},
		{TypeATR, false},
		{TypeVolume, false},
	}
	for _, c := range cases {
		if got := Defaults(c.typ).Overlay; got != c.overlay {
			t.Errorf("%s: Overlay=%v, want %v", c.typ, got, c.overlay)
		}
	}
}

func TestConfig_Label(t *testing.T) {
	if got := Defaults(TypeSMA).Label(); got != "SMA(20)" {
		t.Errorf("SMA label: got %q", got)
	}
	if got := Defaults(TypeMACD).Label(); got != "MACD(12,26,9)" {
		t.Errorf("MACD label: got %q", got)
	}
	if got := Defaults(TypeStochastic).Label(); got != "STOCH(14,3)" {
		t.Errorf("stochastic label: got %q", got)
	}
	if got := Defaults(TypeVolume).Label(); got != "VOL" {
		t.Errorf("volume label: got %q", got)
	}
}

func TestEngine_CacheHit(t *testing.T) {
	eng := NewEngine()
	cfg := Defaults(TypeSMA)
	cfg.ID = "a"
	data := fromCloses(100, 102, 104, 103, 105)

	first := eng.Compute(cfg, data)
	second := eng.Compute(cfg, data)

	// Same backing array means the cache was reused.
	if &first.Value[0] != &second.Value[0] {
		t.Error("expected cached output on unchanged series")
	}
}

func TestEngine_RecomputeOnAppend(t *testing.T) {
	eng := NewEngine()
	cfg := Defaults(TypeSMA)
	cfg.ID = "a"
	data := fromCloses(100, 102, 104, 103, 105)

	out := eng.Compute(cfg, data)
	if len(out.Value) != 5 {
		t.Fatalf("len=%d, want 5", len(out.Value))
	}

	data = fromCloses(100, 102, 104, 103, 105, 107)
	out = eng.Compute(cfg, data)
	if len(out.Value) != 6 {
		t.Errorf("len=%d after append, want 6", len(out.Value))
	}
}

func TestEngine_RecomputeOnLiveUpdate(t *testing.T) {
	eng := NewEngine()
	cfg := Defaults(TypeSMA)
	cfg.ID = "a"
	data := fromCloses(100, 102, 104)

	before := eng.Compute(cfg, data)
	assertClose(t, "SMA before live update", before.Value[2], 102.0, 0.0001)

	// Same length and timestamp, new close on the forming candle.
	data[2].Close = 110
	after := eng.Compute(cfg, data)
	assertClose(t, "SMA after live update", after.Value[2], 104.0, 0.0001)
}

func TestEngine_Invalidate(t *testing.T) {
	eng := NewEngine()
	cfg := Defaults(TypeEMA)
	cfg.ID = "b"
	data := fromCloses(100, 102, 104, 103, 105)

	first := eng.Compute(cfg, data)
	eng.Invalidate()
	second := eng.Compute(cfg, data)

	if &first.Value[0] == &second.Value[0] {
		t.Error("expected fresh output after Invalidate")
	}
}
