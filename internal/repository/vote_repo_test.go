package repository

import "testing"

func TestSwitchCounters_UpToDown(t *testing.T) {
	up, down := SwitchCounters(1, 0, false)
	if up != 0 || down != 1 {
		t.Errorf("SwitchCounters(1, 0, down) = (%d, %d), want (0, 1)", up, down)
	}
}

func TestSwitchCounters_DownToUp(t *testing.T) {
	up, down := SwitchCounters(3, 5, true)
	if up != 4 || down != 4 {
		t.Errorf("SwitchCounters(3, 5, up) = (%d, %d), want (4, 4)", up, down)
	}
}

func TestSwitchCounters_FloorsAtZero(t *testing.T) {
	// A drifted counter must never go negative.
	up, down := SwitchCounters(0, 0, false)
	if up != 0 || down != 1 {
		t.Errorf("SwitchCounters(0, 0, down) = (%d, %d), want (0, 1)", up, down)
	}

	up, down = SwitchCounters(0, 0, true)
	if up != 1 || down != 0 {
		t.Errorf("SwitchCounters(0, 0, up) = (%d, %d), want (1, 0)", up, down)
	}
}

func TestSwitchCounters_PreservesTotalWhenHealthy(t *testing.T) {
	// With consistent counters a switch moves one vote, total unchanged.
	for _, toUp := range []bool{true, false} {
		up, down := 7, 3
		gotUp, gotDown := SwitchCounters(up, down, toUp)
		if gotUp+gotDown != up+down {
			t.Errorf("SwitchCounters(%d, %d, %v) total = %d, want %d",
				up, down, toUp, gotUp+gotDown, up+down)
		}
	}
}
