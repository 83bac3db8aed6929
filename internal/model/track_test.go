package model

import "testing"

func TestTrackWriteNoteBumpsVersionAndPublishesSnapshot(t *testing.T) {
	tr := NewTrack(0)
	before := tr.ClipSnapshot()
	if before.Version != 0 {
		t.Fatalf("expected initial version 0, got %d", before.Version)
	}

	n, ver, ok := tr.WriteNote(0, Note{Nanotick: 100, Pitch: 60, Velocity: 100, Column: 0})
	if !ok {
		t.Fatalf("expected write to succeed")
	}
	if ver != 1 {
		t.Fatalf("expected version 1, got %d", ver)
	}
	if n.NoteID != 0 {
		t.Fatalf("expected first note id 0, got %d", n.NoteID)
	}

	after := tr.ClipSnapshot()
	if after.Version != 1 {
		t.Fatalf("published snapshot version = %d, want 1", after.Version)
	}
	if len(after.Clip.Notes) != 1 {
		t.Fatalf("expected 1 note in published snapshot, got %d", len(after.Clip.Notes))
	}
	if len(before.Clip.Notes) != 0 {
		t.Fatalf("prior snapshot must remain unmutated, got %d notes", len(before.Clip.Notes))
	}
}

func TestTrackWriteNoteRejectsStaleBaseVersion(t *testing.T) {
	tr := NewTrack(0)
	_, _, ok := tr.WriteNote(7, Note{Nanotick: 100, Pitch: 60, Velocity: 100})
	if ok {
		t.Fatalf("expected stale baseVersion write to be rejected")
	}
}

func TestTrackUndoRedoNote(t *testing.T) {
	tr := NewTrack(0)
	n, v1, ok := tr.WriteNote(0, Note{Nanotick: 100, Pitch: 60, Velocity: 100})
	if !ok {
		t.Fatalf("write failed")
	}

	if _, ok := tr.UndoLast(); !ok {
		t.Fatalf("expected undo to succeed")
	}
	if len(tr.ClipSnapshot().Clip.Notes) != 0 {
		t.Fatalf("expected note removed after undo")
	}

	if _, ok := tr.RedoLast(); !ok {
		t.Fatalf("expected redo to succeed")
	}
	snap := tr.ClipSnapshot()
	if len(snap.Clip.Notes) != 1 || snap.Clip.Notes[0].NoteID != n.NoteID {
		t.Fatalf("expected note %d restored by redo, got %+v", n.NoteID, snap.Clip.Notes)
	}
	_ = v1
}

func TestTrackMutateChainRejectsSecondInstrument(t *testing.T) {
	tr := NewTrack(0)
	_, err := tr.MutateChain(func(dc *DeviceChain) error {
		return dc.Add(Device{ID: "a", Kind: DeviceVstInstrument}, -1)
	})
	if err != nil {
		t.Fatalf("first instrument add failed: %v", err)
	}
	_, err = tr.MutateChain(func(dc *DeviceChain) error {
		return dc.Add(Device{ID: "b", Kind: DeviceVstInstrument}, -1)
	})
	if err == nil {
		t.Fatalf("expected second instrument add to be rejected")
	}
	if len(tr.StateSnapshot().Chain.Devices) != 1 {
		t.Fatalf("expected chain snapshot to hold exactly 1 device")
	}
}

func TestTrackSetRoutingRejectsSelfRoute(t *testing.T) {
	tr := NewTrack(3)
	_, err := tr.SetRouting(TrackRouting{AudioOut: Route{Kind: RouteTrack, TrackID: 3}}, func(int) bool { return true })
	if err == nil {
		t.Fatalf("expected self-route rejection")
	}
}
