package scheduler

import (
	"testing"

	"github.com/dawforge/engine/internal/model"
	"github.com/dawforge/engine/internal/shm"
	"github.com/dawforge/engine/internal/timebase"
)

func newTestProducer() *Producer {
	base := timebase.New(48000, timebase.DefaultTempo)
	pdc := timebase.NewPDC(1, 128)
	loop := timebase.LoopRange{Start: 0, End: 960000 * 1000}
	return New(base, pdc, loop)
}

func testState() (*model.ClipSnapshot, *model.TrackStateSnapshot) {
	clip := model.NewClip()
	return &model.ClipSnapshot{Clip: clip, Version: 0},
		&model.TrackStateSnapshot{
			Chain:      model.NewDeviceChain(),
			Mod:        model.NewModRegistry(),
			Automation: map[string]*model.AutomationClip{},
		}
}

func TestEmitNoteCutsPreviousNoteOnSameColumn(t *testing.T) {
	p := newTestProducer()
	clip, state := testState()
	clip.Clip.WriteNote(model.Note{Nanotick: 0, Duration: 100000, Pitch: 60, Velocity: 100, Column: 0})
	clip.Clip.WriteNote(model.Note{Nanotick: 10, Duration: 100000, Pitch: 64, Velocity: 100, Column: 0})

	events := p.BuildBlockEvents(1, clip, state, nil, false, 0, 20)

	var noteOns, noteOffs int
	for _, ev := range events {
		switch ev.Type {
		case shm.EventNoteOn:
			noteOns++
		case shm.EventNoteOff:
			noteOffs++
		}
	}
	if noteOns != 2 {
		t.Fatalf("expected 2 note-ons, got %d", noteOns)
	}
	if noteOffs != 1 {
		t.Fatalf("expected 1 note-off cutting the first note, got %d", noteOffs)
	}
}

func TestFutureNoteOffScheduledAcrossBlocks(t *testing.T) {
	p := newTestProducer()
	clip, state := testState()
	clip.Clip.WriteNote(model.Note{Nanotick: 0, Duration: 5000, Pitch: 60, Velocity: 100, Column: 0})

	first := p.BuildBlockEvents(1, clip, state, nil, false, 0, 100)
	for _, ev := range first {
		if ev.Type == shm.EventNoteOff {
			t.Fatalf("note-off should not appear in the onset block")
		}
	}

	second := p.BuildBlockEvents(1, clip, state, nil, false, 100, 6000)
	found := false
	for _, ev := range second {
		if ev.Type == shm.EventNoteOff {
			found = true
		}
	}
	if !found {
		t.Fatalf("expected the future note-off to surface once its window arrives")
	}
}

func TestBuildBlockEventsStablePrioritySort(t *testing.T) {
	p := newTestProducer()
	clip, state := testState()
	clip.Clip.WriteNote(model.Note{Nanotick: 0, Duration: 100000, Pitch: 60, Velocity: 100, Column: 0})
	state.Automation["a"] = &model.AutomationClip{
		Points:       []model.AutomationPoint{{Nanotick: 0, Value: 0.5}},
		TargetPlugin: model.TargetAll,
	}

	events := p.BuildBlockEvents(1, clip, state, nil, false, 0, 20)

	for i := 1; i < len(events); i++ {
		if events[i-1].SampleTime > events[i].SampleTime {
			t.Fatalf("events not sorted by sampleTime at index %d", i)
		}
		if events[i-1].SampleTime == events[i].SampleTime && events[i-1].Band > events[i].Band {
			t.Fatalf("events at equal sampleTime not sorted by band at index %d", i)
		}
	}
	if events[0].Band != BandParam {
		t.Fatalf("expected the param automation event to sort before the note-on at the same sample, got band %d", events[0].Band)
	}
}

func TestCompensateAndWriteDropsOnOverflow(t *testing.T) {
	p := newTestProducer()
	buf := make([]byte, int(shm.RingHeaderSize)+2*shm.EntrySize)
	ring := shm.NewRing(buf, 2, true)

	events := []Event{
		{SampleTime: 0, Band: BandNoteOnOther, Type: shm.EventNoteOn, NoteID: 1},
	}
	p.CompensateAndWrite(1, 1, 0, events, ring)
	if !ring.Full() {
		t.Fatalf("a 2-capacity ring keeps one slot free, so it should be full after a single write")
	}

	overflow := []Event{
		{SampleTime: 0, Band: BandNoteOnOther, Type: shm.EventNoteOn, NoteID: 2},
		{SampleTime: 0, Band: BandNoteOnOther, Type: shm.EventNoteOn, NoteID: 3},
	}
	p.CompensateAndWrite(1, 2, 0, overflow, ring)
	if p.DropCount(1) == 0 {
		t.Fatalf("expected at least one dropped event once the ring filled up")
	}
}

func TestCompensateAndWriteAppliesPDCLatency(t *testing.T) {
	base := timebase.New(48000, timebase.DefaultTempo)
	pdc := timebase.NewPDC(3, 128)
	loop := timebase.LoopRange{Start: 0, End: 960000 * 1000}
	p := New(base, pdc, loop)

	buf := make([]byte, int(shm.RingHeaderSize)+4*shm.EntrySize)
	ring := shm.NewRing(buf, 4, true)

	events := []Event{{SampleTime: 1000, Band: BandNoteOnOther, Type: shm.EventNoteOn, NoteID: 1}}
	p.CompensateAndWrite(1, 1, 0, events, ring)

	got, ok := ring.Read()
	if !ok {
		t.Fatalf("expected a readable entry")
	}
	wantLatency := pdc.LatencySamples
	if got.SampleTime != 1000-wantLatency {
		t.Fatalf("expected PDC-compensated sample time %d, got %d", 1000-wantLatency, got.SampleTime)
	}
}
