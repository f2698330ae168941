package model

import "testing"

func TestPeriodStart(t *testing.T) {
	// 2024-01-02 10:37:42.500 UTC in ms
	ts := int64(1704191862500)

	cases := []struct {
		tf   Timeframe
		want int64
	}{
		{TF1m, 1704191820000},
		{TF5m, 1704191700000},
		{TF1h, 1704189600000},
		{TF1d, 1704153600000},
	}
	for _, c := range cases {
		if got := c.tf.PeriodStart(ts); got != c.want {
			t.Errorf("PeriodStart(%s) = %d, want %d", c.tf, got, c.want)
		}
	}
}

func TestMergeCandleReplacesSamePeriod(t *testing.T) {
	series := []Candle{
		{Timestamp: 60_000, Close: 10},
		{Timestamp: 120_000, Close: 11},
	}
	update := Candle{Timestamp: 120_500, Close: 12}

	series, changed := MergeCandle(series, update, TF1m)
	if !changed {
		t.Fatal("expected change")
	}
	if len(series) != 2 {
		t.Fatalf("len = %d, want 2", len(series))
	}
	if series[1].Close != 12 {
		t.Errorf("last close = %v, want 12 (replaced)", series[1].Close)
	}
}

func TestMergeCandleAppendsNewer(t *testing.T) {
	series := []Candle{{Timestamp: 60_000, Close: 10}}
	update := Candle{Timestamp: 180_000, Close: 13}

	series, changed := MergeCandle(series, update, TF1m)
	if !changed {
		t.Fatal("expected change")
	}
	if len(series) != 2 {
		t.Fatalf("len = %d, want 2", len(series))
	}
	if series[1].Timestamp != 180_000 {
		t.Errorf("appended ts = %d, want 180000", series[1].Timestamp)
	}
}

func TestMergeCandleDiscardsOlder(t *testing.T) {
	series := []Candle{{Timestamp: 180_000, Close: 13}}
	update := Candle{Timestamp: 60_000, Close: 9}

	series, changed := MergeCandle(series, update, TF1m)
	if changed {
		t.Fatal("expected no change for stale candle")
	}
	if len(series) != 1 || series[0].Close != 13 {
		t.Errorf("series mutated by stale candle: %+v", series)
	}
}

func TestMergeCandleEmptySeries(t *testing.T) {
	series, changed := MergeCandle(nil, Candle{Timestamp: 60_000}, TF1m)
	if !changed || len(series) != 1 {
		t.Fatalf("merge into empty: changed=%v len=%d", changed, len(series))
	}
}

func TestCandleUp(t *testing.T) {
	up := Candle{Open: 10, Close: 10}
	down := Candle{Open: 10, Close: 9.99}
	if !up.Up() {
		t.Error("close == open should count as up")
	}
	if down.Up() {
		t.Error("close < open should count as down")
	}
}
