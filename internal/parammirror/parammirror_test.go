package parammirror

import (
	"testing"

	"github.com/dawforge/engine/internal/shm"
)

func TestMirrorUpdateOverwritesLatestValue(t *testing.T) {
	m := New()
	m.Update(1, 10, 0.1, 0)
	m.Update(1, 10, 0.9, 0)
	m.Update(1, 20, 0.5, 1)

	snap := m.Snapshot()
	if len(snap) != 2 {
		t.Fatalf("expected 2 distinct uid16s, got %d", len(snap))
	}
	if snap[0].UID16 != 10 || snap[0].Value != 0.9 {
		t.Fatalf("expected uid16=10 to hold its latest value 0.9, got %+v", snap[0])
	}
}

func TestReplayWritesEveryParamThenFence(t *testing.T) {
	m := New()
	m.Update(1, 10, 0.25, 0)
	m.Update(1, 20, 0.75, 1)

	buf := make([]byte, int(shm.RingHeaderSize)+8*shm.EntrySize)
	ring := shm.NewRing(buf, 8, true)

	ok := Replay(m, ring, 42, 9000)
	if !ok {
		t.Fatalf("expected replay to succeed with ample ring capacity")
	}

	var last shm.Entry
	count := 0
	for {
		e, more := ring.Read()
		if !more {
			break
		}
		last = e
		count++
	}
	if count != 3 {
		t.Fatalf("expected 2 param entries + 1 fence, got %d entries", count)
	}
	if last.Type != shm.EventReplayComplete {
		t.Fatalf("expected the final entry to be the ReplayComplete fence, got type %d", last.Type)
	}
}

func TestReplayFailsWithoutClobberingOnRingOverflow(t *testing.T) {
	m := New()
	m.Update(1, 10, 0.25, 0)
	m.Update(1, 20, 0.75, 1)

	buf := make([]byte, int(shm.RingHeaderSize)+2*shm.EntrySize)
	ring := shm.NewRing(buf, 2, true)

	if Replay(m, ring, 1, 0) {
		t.Fatalf("expected replay to report failure once the ring fills up")
	}
}
