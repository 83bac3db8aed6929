package uiproto

import (
	"testing"

	"github.com/dawforge/engine/internal/model"
)

func newTestProject() (*model.Project, *model.Track) {
	p := model.NewProject()
	t := p.AddTrack(1)
	return p, t
}

func TestDispatchWriteNoteAppliesUnderOptimisticConcurrency(t *testing.T) {
	p, tr := newTestProject()
	d := Dispatch(p, Command{Type: CmdWriteNote, TrackID: 1, BaseVersion: tr.ClipVersion(), Note: model.Note{Nanotick: 0, Pitch: 60, Velocity: 100}}, nil)
	if d.Kind != DiffOK {
		t.Fatalf("expected DiffOK, got %v (%s)", d.Kind, d.Err)
	}
	if d.NewVersion != 1 {
		t.Fatalf("expected clip version to bump to 1, got %d", d.NewVersion)
	}
}

func TestDispatchWriteNoteRejectsStaleVersion(t *testing.T) {
	p, _ := newTestProject()
	d := Dispatch(p, Command{Type: CmdWriteNote, TrackID: 1, BaseVersion: 99, Note: model.Note{Pitch: 60}}, nil)
	if d.Kind != DiffRejectedStaleVersion {
		t.Fatalf("expected a stale-version rejection, got %v", d.Kind)
	}
}

func TestDispatchUnknownTrackIsRejected(t *testing.T) {
	p, _ := newTestProject()
	d := Dispatch(p, Command{Type: CmdWriteNote, TrackID: 99}, nil)
	if d.Kind != DiffRejectedNotFound {
		t.Fatalf("expected DiffRejectedNotFound for an unknown track, got %v", d.Kind)
	}
}

func TestDispatchSetLoopRangeIsProjectLevel(t *testing.T) {
	p, _ := newTestProject()
	d := Dispatch(p, Command{Type: CmdSetLoopRange, TrackID: 0, LoopLo: 10, LoopLen: 100}, nil)
	if d.Kind != DiffOK {
		t.Fatalf("expected loop-range set to succeed without a track, got %v", d.Kind)
	}
	if p.LoopRange.Lo != 10 || p.LoopRange.Len != 100 {
		t.Fatalf("expected loop range to be applied")
	}
}

func TestDispatchUndoRedoRoundTrip(t *testing.T) {
	p, tr := newTestProject()
	Dispatch(p, Command{Type: CmdWriteNote, TrackID: 1, BaseVersion: tr.ClipVersion(), Note: model.Note{Pitch: 60}}, nil)

	d := Dispatch(p, Command{Type: CmdUndo, TrackID: 1}, nil)
	if d.Kind != DiffOK {
		t.Fatalf("expected undo to succeed, got %v", d.Kind)
	}
	if len(tr.ClipSnapshot().Clip.Notes) != 0 {
		t.Fatalf("expected the note to be removed by undo")
	}

	d = Dispatch(p, Command{Type: CmdRedo, TrackID: 1}, nil)
	if d.Kind != DiffOK {
		t.Fatalf("expected redo to succeed, got %v", d.Kind)
	}
	if len(tr.ClipSnapshot().Clip.Notes) != 1 {
		t.Fatalf("expected the note to be restored by redo")
	}
}

func TestDispatchAddDeviceRejectsSecondInstrument(t *testing.T) {
	p, _ := newTestProject()
	Dispatch(p, Command{Type: CmdAddDevice, TrackID: 1, Device: model.Device{ID: "a", Kind: model.DeviceVstInstrument}}, nil)
	d := Dispatch(p, Command{Type: CmdAddDevice, TrackID: 1, Device: model.Device{ID: "b", Kind: model.DeviceVstInstrument}}, nil)
	if d.Kind != DiffError {
		t.Fatalf("expected adding a second instrument to fail, got %v", d.Kind)
	}
}
