package engine

import (
	"testing"

	"github.com/dawforge/engine/internal/config"
	"github.com/dawforge/engine/internal/model"
	"github.com/dawforge/engine/internal/uiproto"
)

func TestSubmitAppliesCommandThroughTheQueue(t *testing.T) {
	e := New(config.Config{NoSpawn: true})
	e.Start()
	defer e.Stop()

	e.project.AddTrack(1)

	diff := e.Submit(uiproto.Command{Type: uiproto.CmdWriteNote, TrackID: 1, Note: model.Note{Pitch: 60, Velocity: 100}})
	if diff.Kind != uiproto.DiffOK {
		t.Fatalf("expected DiffOK, got %v (%s)", diff.Kind, diff.Err)
	}

	track, ok := e.project.Track(1)
	if !ok {
		t.Fatalf("expected track 1 to exist")
	}
	if len(track.ClipSnapshot().Clip.Notes) != 1 {
		t.Fatalf("expected the note to have been written")
	}
}

func TestSubmitRejectsUnknownTrack(t *testing.T) {
	e := New(config.Config{NoSpawn: true})
	e.Start()
	defer e.Stop()

	diff := e.Submit(uiproto.Command{Type: uiproto.CmdWriteNote, TrackID: 99})
	if diff.Kind != uiproto.DiffRejectedNotFound {
		t.Fatalf("expected DiffRejectedNotFound, got %v", diff.Kind)
	}
}
