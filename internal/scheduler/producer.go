package scheduler

import (
	"sort"
	"sync"

	"github.com/dawforge/engine/internal/model"
	"github.com/dawforge/engine/internal/patcher"
	"github.com/dawforge/engine/internal/shm"
	"github.com/dawforge/engine/internal/timebase"
)

// MirrorSink receives every parameter event the producer emits to a
// plugin, keeping the parameter-mirror (internal/parammirror) current.
type MirrorSink interface {
	Update(trackID int, uid16 uint16, value float32, targetPluginIndex int)
}

// trackState is the producer's per-track bookkeeping: active notes, the
// inbound cross-track queue, and the drop/panic state from ring writes.
type trackState struct {
	notes   *ActiveNotes
	inbound *Inbound

	mu           sync.Mutex
	dropCount    uint64
	panicPending bool
}

// Producer drives the per-block, per-track event pipeline: drain inbound
// commands, run the patcher graph, emit automation/notes/chords/mod, sort
// by priority, then PDC-compensate and write to the track's ring.
type Producer struct {
	Base timebase.Base
	PDC  timebase.PDC
	Loop timebase.LoopRange

	Graph      *patcher.Graph
	WorkerPool *patcher.WorkerPool
	Mirror     MirrorSink

	mu     sync.Mutex
	tracks map[int]*trackState
}

// New returns a producer bound to the given time base, PDC, and loop
// range. Graph/WorkerPool/Mirror may be set afterward or left nil.
func New(base timebase.Base, pdc timebase.PDC, loop timebase.LoopRange) *Producer {
	return &Producer{Base: base, PDC: pdc, Loop: loop, tracks: map[int]*trackState{}}
}

func (p *Producer) state(trackID int) *trackState {
	p.mu.Lock()
	defer p.mu.Unlock()
	ts, ok := p.tracks[trackID]
	if !ok {
		ts = &trackState{notes: NewActiveNotes(), inbound: NewInbound()}
		p.tracks[trackID] = ts
	}
	return ts
}

// Inbound returns the cross-track inbox for trackID, for routing to push
// into.
func (p *Producer) Inbound(trackID int) *Inbound { return p.state(trackID).inbound }

// DropCount returns the ring-write drop counter for trackID.
func (p *Producer) DropCount(trackID int) uint64 {
	ts := p.state(trackID)
	ts.mu.Lock()
	defer ts.mu.Unlock()
	return ts.dropCount
}

// Windows computes this block's render windows in nanoticks, splitting
// across the loop boundary when necessary.
func (p *Producer) Windows(transportNanotick model.Nanotick, blockTicks uint64) [][2]uint64 {
	return p.Loop.SplitWindow(transportNanotick, blockTicks)
}

// BuildBlockEvents runs the event-building stages of the per-track block
// pipeline for one window, returning a priority-sorted, not-yet-PDC-
// compensated event list.
func (p *Producer) BuildBlockEvents(trackID int, clip *model.ClipSnapshot, state *model.TrackStateSnapshot, harmony *model.HarmonyTimeline, harmonyQuantize bool, windowStart, windowEnd model.Nanotick) []Event {
	ts := p.state(trackID)
	var events []Event

	// step 2: drain inbound cross-track events into the scratchpad.
	events = append(events, ts.inbound.Drain()...)

	// step 3: run the patcher graph. Only its MusicalLogic events are
	// merged, each resolved by resolveMusicalLogic; other patcher event
	// kinds (such as Lfo param events) are not merged.
	if p.Graph != nil {
		ctx := &patcher.PatcherContext{WindowStart: windowStart, WindowEnd: windowEnd, SampleRate: p.Base.SampleRate, BPM: p.Base.Tempo.BPMAtNanotick(windowStart)}
		var patcherEvents []patcher.Event
		if p.WorkerPool != nil {
			patcherEvents = p.Graph.RunParallel(ctx, nil, p.WorkerPool)
		} else {
			patcherEvents = p.Graph.Run(ctx, nil)
		}
		for _, pe := range patcherEvents {
			if pe.Kind == patcher.EventMusicalLogic {
				events = append(events, p.resolveMusicalLogic(ts, pe, harmony, windowEnd)...)
			}
		}
	}

	// step 4: automation. Discrete clips emit a param event only at their
	// stored step points; continuous clips also emit one at the window's
	// start sample so the host keeps ramping toward the interpolated value
	// even across windows with no stored point in between.
	for id, clipAuto := range state.Automation {
		uid16 := model.UID16(id)
		idx := p.resolveTargetPluginIndex(state, clipAuto.TargetPlugin)

		if !clipAuto.DiscreteOnly {
			if v, ok := clipAuto.ValueAt(windowStart); ok {
				events = append(events, Event{SampleTime: p.Base.NanoticksToSamples(windowStart), Band: BandParam, Type: shm.EventParam, UID16: uid16, Value: v, TargetPluginIndex: idx})
				if p.Mirror != nil {
					p.Mirror.Update(trackID, uid16, v, idx)
				}
			}
		}

		for _, pt := range clipAuto.Points {
			lowerBound := windowStart
			if !clipAuto.DiscreteOnly {
				lowerBound++ // already emitted the windowStart sample above
			}
			if pt.Nanotick < lowerBound || pt.Nanotick >= windowEnd {
				continue
			}
			v, ok := clipAuto.ValueAt(pt.Nanotick)
			if !ok {
				continue
			}
			sampleTime := p.Base.NanoticksToSamples(pt.Nanotick)
			events = append(events, Event{SampleTime: sampleTime, Band: BandParam, Type: shm.EventParam, UID16: uid16, Value: v, TargetPluginIndex: idx})
			if p.Mirror != nil {
				p.Mirror.Update(trackID, uid16, v, idx)
			}
		}
	}

	// future-block note-offs coming due in this window.
	for _, id := range ts.notes.DueBefore(windowEnd) {
		end, ok := ts.notes.EndNanotick(id)
		if !ok {
			continue
		}
		sampleTime := p.Base.NanoticksToSamples(end)
		events = append(events, Event{SampleTime: sampleTime, Band: BandNoteOff, Type: shm.EventNoteOff, NoteID: id})
		ts.notes.Close(id)
	}

	// step 5: notes.
	for _, n := range clip.Clip.NotesInWindow(windowStart, windowEnd) {
		events = append(events, p.emitNote(ts, trackID, n, harmony, harmonyQuantize, windowEnd)...)
	}

	// step 5: chords.
	for _, ch := range clip.Clip.ChordsInWindow(windowStart, windowEnd) {
		events = append(events, p.emitChord(ts, trackID, ch, harmony, windowEnd)...)
	}

	// step 7: block-rate modulation.
	for _, link := range state.Mod.Links {
		if !link.Enabled || link.Rate != model.ModRateBlock {
			continue
		}
		src, ok := state.Mod.Sources[link.Source]
		if !ok {
			continue
		}
		idx := deviceHostSlot(state.Chain, link.TargetDevID)
		v := link.Apply(src.Value)
		events = append(events, Event{
			SampleTime:        p.Base.NanoticksToSamples(windowStart),
			Band:              BandParam,
			Type:              shm.EventParam,
			UID16:             link.UID16,
			Value:             v,
			TargetPluginIndex: idx,
		})
		if p.Mirror != nil {
			p.Mirror.Update(trackID, link.UID16, v, idx)
		}
	}

	// step 8: stable priority sort by (sampleTime, band).
	sort.SliceStable(events, func(i, j int) bool {
		if events[i].SampleTime != events[j].SampleTime {
			return events[i].SampleTime < events[j].SampleTime
		}
		return events[i].Band < events[j].Band
	})
	return events
}

// musicalLogicGateNanoticks is the fixed gate length given to a
// MusicalLogic-resolved note-on so every generative trigger still gets a
// paired note-off, the same note-balance guarantee clip notes get from
// their own stored duration.
const musicalLogicGateNanoticks = timebase.NanoticksPerQuarter / 16

// musicalLogicColumn maps a patcher node to its own column-cut namespace,
// disjoint from clip note/chord columns, so two triggers from the same
// generative node cut each other instead of colliding with clip content.
func musicalLogicColumn(nodeID int) int {
	return -(nodeID + 1)
}

func (p *Producer) resolveMusicalLogic(ts *trackState, pe patcher.Event, harmony *model.HarmonyTimeline, windowEnd model.Nanotick) []Event {
	root, scaleID := 0, model.ScaleID(0)
	if harmony != nil {
		if ev, ok := harmony.HarmonyAt(pe.Nanotick); ok {
			root, scaleID = ev.Root, ev.ScaleID
		}
	}
	pitch := 60 + root + model.DegreeToSemitone(scaleID, pe.Degree)
	column := musicalLogicColumn(pe.NodeID)

	var out []Event
	if prevID, ok := ts.notes.CutColumn(column); ok {
		out = append(out, Event{SampleTime: p.Base.NanoticksToSamples(pe.Nanotick), Band: BandNoteOff, Type: shm.EventNoteOff, NoteID: prevID})
	}

	id := ts.notes.Allocate()
	out = append(out, Event{
		SampleTime: p.Base.NanoticksToSamples(pe.Nanotick),
		Band:       BandMusicalLogic,
		Type:       shm.EventNoteOn,
		Flags:      shm.FlagMusicalLogic,
		Pitch:      clampPitch(pitch),
		Velocity:   100,
		NoteID:     id,
	})

	endTick := pe.Nanotick + musicalLogicGateNanoticks
	out = append(out, p.scheduleNoteEnd(ts, id, column, endTick, windowEnd)...)
	return out
}

// emitNote turns a single clip Note into its note-on event (and, if its
// duration ends within windowEnd, its paired note-off in the same call).
func (p *Producer) emitNote(ts *trackState, trackID int, n model.Note, harmony *model.HarmonyTimeline, harmonyQuantize bool, windowEnd model.Nanotick) []Event {
	var out []Event

	if prevID, ok := ts.notes.CutColumn(n.Column); ok {
		out = append(out, Event{
			SampleTime: p.Base.NanoticksToSamples(n.Nanotick),
			Band:       BandNoteOff,
			Type:       shm.EventNoteOff,
			NoteID:     prevID,
		})
	}

	pitch := int(n.Pitch)
	if harmonyQuantize && harmony != nil {
		if ev, ok := harmony.HarmonyAt(n.Nanotick); ok {
			pitch = model.QuantizeToScale(pitch, ev.Root, ev.ScaleID)
		}
	}

	id := ts.notes.Allocate()
	out = append(out, Event{
		SampleTime: p.Base.NanoticksToSamples(n.Nanotick),
		Band:       BandNoteOnOther,
		Type:       shm.EventNoteOn,
		Pitch:      clampPitch(pitch),
		Velocity:   n.Velocity,
		NoteID:     id,
	})

	endTick := n.Nanotick + n.Duration
	out = append(out, p.scheduleNoteEnd(ts, id, n.Column, endTick, windowEnd)...)
	return out
}

// scheduleNoteEnd emits the note's note-off immediately when its end falls
// within the current window; otherwise it tracks the note so a later
// block's DueBefore sweep picks up the off when its time comes.
func (p *Producer) scheduleNoteEnd(ts *trackState, id uint32, column int, endTick, windowEnd model.Nanotick) []Event {
	if endTick < windowEnd {
		return []Event{{SampleTime: p.Base.NanoticksToSamples(endTick), Band: BandNoteOff, Type: shm.EventNoteOff, NoteID: id}}
	}
	ts.notes.Track(id, column, endTick)
	return nil
}

func (p *Producer) emitChord(ts *trackState, trackID int, ch model.Chord, harmony *model.HarmonyTimeline, windowEnd model.Nanotick) []Event {
	root, scaleID := 0, model.ScaleID(0)
	if harmony != nil {
		if ev, ok := harmony.HarmonyAt(ch.Nanotick); ok {
			root, scaleID = ev.Root, ev.ScaleID
		}
	}
	pitches := model.ChordPitches(root, scaleID, ch.Degree, ch.Quality, ch.Inversion, ch.BaseOctave)

	var out []Event
	n := len(pitches)
	for v, pitch := range pitches {
		spread := uint64(0)
		if n > 1 && ch.SpreadNanoticks > 0 {
			spread = uint64(v) * uint64(ch.SpreadNanoticks) / uint64(n-1)
		}
		timingJitter := model.ChordJitter(ch.ChordID, v, ch.HumanizeTiming+1)
		onset := ch.Nanotick + spread + uint64(timingJitter)

		velJitter := model.ChordJitter(ch.ChordID, v+1000, ch.HumanizeVelocity+1)
		velocity := 100 + velJitter
		if velocity < 0 {
			velocity = 0
		}
		if velocity > 127 {
			velocity = 127
		}

		column := ch.Column*1000 + v
		if prevID, ok := ts.notes.CutColumn(column); ok {
			out = append(out, Event{SampleTime: p.Base.NanoticksToSamples(onset), Band: BandNoteOff, Type: shm.EventNoteOff, NoteID: prevID})
		}
		id := ts.notes.Allocate()
		out = append(out, Event{
			SampleTime: p.Base.NanoticksToSamples(onset),
			Band:       BandNoteOnOther,
			Type:       shm.EventNoteOn,
			Pitch:      clampPitch(pitch),
			Velocity:   uint8(velocity),
			NoteID:     id,
		})
		endTick := onset + ch.Duration
		out = append(out, p.scheduleNoteEnd(ts, id, column, endTick, windowEnd)...)
	}
	return out
}

// CompensateAndWrite flushes a pending panic all-notes-off sweep (if any),
// then PDC-compensates and writes events to ring, incrementing the drop
// counter and (for note events) setting the panic-pending flag on
// overflow.
func (p *Producer) CompensateAndWrite(trackID int, blockID uint64, compensatedBlockStart uint64, events []Event, ring *shm.Ring) {
	ts := p.state(trackID)

	ts.mu.Lock()
	pending := ts.panicPending
	ts.mu.Unlock()
	if pending {
		if p.flushPanic(ts, trackID, blockID, compensatedBlockStart, ring) {
			ts.mu.Lock()
			ts.panicPending = false
			ts.mu.Unlock()
		}
	}

	for _, ev := range events {
		ev.SampleTime = p.PDC.CompensatedStart(ev.SampleTime)
		if !ring.Write(ev.ToEntry(blockID)) {
			ts.mu.Lock()
			ts.dropCount++
			if ev.Type == shm.EventNoteOn || ev.Type == shm.EventNoteOff {
				ts.panicPending = true
			}
			ts.mu.Unlock()
		}
	}
}

// flushPanic emits a note-off for every currently active note at the
// block's compensated start sample. Returns true only if every emission
// succeeded (ring.Write returned true for all of them).
func (p *Producer) flushPanic(ts *trackState, trackID int, blockID uint64, compensatedStart uint64, ring *shm.Ring) bool {
	ids := ts.notes.AllActive()
	ok := true
	for _, id := range ids {
		e := Event{SampleTime: compensatedStart, Band: BandNoteOff, Type: shm.EventNoteOff, NoteID: id}
		if !ring.Write(e.ToEntry(blockID)) {
			ok = false
		}
	}
	if ok {
		ts.notes.CloseAll()
	}
	return ok
}

func clampPitch(p int) uint8 {
	if p < 0 {
		return 0
	}
	if p > 127 {
		return 127
	}
	return uint8(p)
}

func (p *Producer) resolveTargetPluginIndex(state *model.TrackStateSnapshot, target model.TargetPlugin) int {
	if !target.IsAll() {
		return target.Index
	}
	for _, d := range state.Chain.Devices {
		if d.Kind == model.DeviceVstInstrument || d.Kind == model.DeviceVstEffect {
			return d.HostSlotIndex
		}
	}
	return 0
}

func deviceHostSlot(chain *model.DeviceChain, deviceID string) int {
	for _, d := range chain.Devices {
		if d.ID == deviceID {
			return d.HostSlotIndex
		}
	}
	return 0
}
