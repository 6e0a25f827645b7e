package service

import (
	"testing"
	"time"
)

func TestStatsKey(t *testing.T) {
	day := time.Date(2026, 3, 9, 23, 59, 0, 0, time.UTC)

	if got := statsKey(StatRequest, day); got != "stats:request:2026-03-09" {
		t.Errorf("statsKey = %q, want stats:request:2026-03-09", got)
	}
	if got := statsKey(StatPlay, day); got != "stats:play:2026-03-09" {
		t.Errorf("statsKey = %q, want stats:play:2026-03-09", got)
	}
}

func TestIncrementCounter_NoClientIsNoop(t *testing.T) {
	s := NewStatsService(nil)
	// Must not panic or block.
	s.IncrementCounter(StatRequest)
}
