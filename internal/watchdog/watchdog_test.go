package watchdog

import "testing"

func TestWatchdogFiresOnceAtHardTimeout(t *testing.T) {
	restarts := 0
	w := New(2, func() { restarts++ })

	w.Tick(true)
	if restarts != 0 {
		t.Fatalf("expected no restart after 1 late block")
	}
	w.Tick(true)
	if restarts != 1 {
		t.Fatalf("expected exactly 1 restart after 2 late blocks, got %d", restarts)
	}
	w.Tick(true)
	if restarts != 1 {
		t.Fatalf("expected onRestart to fire only once per episode, got %d calls", restarts)
	}
}

func TestWatchdogResetsOnTimelyBlock(t *testing.T) {
	restarts := 0
	w := New(3, func() { restarts++ })
	w.Tick(true)
	w.Tick(false)
	w.Tick(true)
	w.Tick(true)
	if restarts != 0 {
		t.Fatalf("expected late streak to reset on a timely block, got %d restarts", restarts)
	}
}

func TestWatchdogResetReallowsFiring(t *testing.T) {
	restarts := 0
	w := New(1, func() { restarts++ })
	w.Tick(true)
	if restarts != 1 {
		t.Fatalf("expected 1 restart")
	}
	w.Reset()
	w.Tick(true)
	if restarts != 2 {
		t.Fatalf("expected a second restart after Reset, got %d", restarts)
	}
}

func TestWatchdogHardHangFiresWithinTimeout(t *testing.T) {
	restarts := 0
	w := New(2, func() { restarts++ })
	w.InjectFault(FaultHardHang)
	w.Tick(false)
	w.Tick(false)
	if restarts != 1 {
		t.Fatalf("expected HardHang fault to force a restart within hardTimeoutBlocks, got %d", restarts)
	}
}

func TestWatchdogTransientLateFiresOnceThenClears(t *testing.T) {
	restarts := 0
	w := New(1, func() { restarts++ })
	w.InjectFault(FaultTransientLate)
	w.Tick(false)
	if restarts != 1 {
		t.Fatalf("expected TransientLate to trigger exactly one late observation")
	}
	w.Reset()
	w.Tick(false)
	if restarts != 1 {
		t.Fatalf("expected fault to have cleared itself after firing once, got %d total restarts", restarts)
	}
}
