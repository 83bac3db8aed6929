package model

import "testing"

func TestProjectWriteHarmonyOptimisticConcurrency(t *testing.T) {
	p := NewProject()
	_, ok := p.WriteHarmony(5, HarmonyEvent{Nanotick: 0, Root: 0, ScaleID: 0})
	if ok {
		t.Fatalf("expected stale baseVersion to be rejected")
	}

	ver, ok := p.WriteHarmony(0, HarmonyEvent{Nanotick: 0, Root: 0, ScaleID: 0})
	if !ok || ver != 1 {
		t.Fatalf("expected successful write at version 1, got %d ok=%v", ver, ok)
	}
	if len(p.HarmonySnapshot().Events) != 1 {
		t.Fatalf("expected harmony snapshot to contain 1 event")
	}
}

func TestProjectTrackExistsAndMissingTrackRouteValidation(t *testing.T) {
	p := NewProject()
	p.AddTrack(0)
	p.AddTrack(1)

	tr, ok := p.Track(0)
	if !ok {
		t.Fatalf("expected track 0 to exist")
	}
	_, err := tr.SetRouting(TrackRouting{AudioOut: Route{Kind: RouteTrack, TrackID: 1}}, p.TrackExists)
	if err != nil {
		t.Fatalf("expected routing to track 1 to succeed: %v", err)
	}
	_, err = tr.SetRouting(TrackRouting{AudioOut: Route{Kind: RouteTrack, TrackID: 99}}, p.TrackExists)
	if err == nil {
		t.Fatalf("expected routing to a missing track to fail")
	}
}
