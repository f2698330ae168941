package redis

import (
	"testing"

	"chartview/internal/model"
)

func TestHistoryKey(t *testing.T) {
	got := historyKey("NASDAQ:AAPL", model.TF5m)
	if got != "chart:history:5m:NASDAQ:AAPL" {
		t.Errorf("key = %q", got)
	}
}
