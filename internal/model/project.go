package model

import (
	"sort"
	"sync"
)

// Project aggregates every track plus the one genuinely global piece of
// musical state, the harmony timeline, which is shared across all tracks
// rather than kept per-track. Alongside ScaleRegistry and the patcher
// graph's own state, this is the mutable root the UI-command thread edits
// and the producer reads snapshots from.
type Project struct {
	mu sync.Mutex

	tracks map[int]*Track

	harmony        *HarmonyTimeline
	harmonyVersion uint64
	harmonySnap    atomicPtr[HarmonyTimeline]

	HarmonyUndo *UndoStack

	LoopRange struct {
		Lo, Len uint64
	}
}

// NewProject returns an empty project with no tracks.
func NewProject() *Project {
	p := &Project{
		tracks:      map[int]*Track{},
		harmony:     NewHarmonyTimeline(),
		HarmonyUndo: NewUndoStack(),
	}
	p.publishHarmony()
	return p
}

func (p *Project) publishHarmony() {
	p.harmonySnap.Store(p.harmony.Clone())
}

// HarmonySnapshot returns the most recently published harmony timeline.
// Safe to call from the producer thread without the project mutex.
func (p *Project) HarmonySnapshot() *HarmonyTimeline { return p.harmonySnap.Load() }

// HarmonyVersion returns the current harmony version.
func (p *Project) HarmonyVersion() uint64 {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.harmonyVersion
}

// AddTrack creates and registers a new track, returning it.
func (p *Project) AddTrack(id int) *Track {
	p.mu.Lock()
	defer p.mu.Unlock()
	t := NewTrack(id)
	p.tracks[id] = t
	return t
}

// Track looks up a track by id.
func (p *Project) Track(id int) (*Track, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	t, ok := p.tracks[id]
	return t, ok
}

// TrackExists reports whether a track with the given id is registered; used
// as the trackExists callback for TrackRouting validation.
func (p *Project) TrackExists(id int) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	_, ok := p.tracks[id]
	return ok
}

// Tracks returns a stable-ordered snapshot slice of all registered tracks.
func (p *Project) Tracks() []*Track {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]*Track, 0, len(p.tracks))
	for _, t := range p.tracks {
		out = append(out, t)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// WriteHarmony applies a WriteHarmony command under optimistic concurrency.
func (p *Project) WriteHarmony(baseVersion uint64, e HarmonyEvent) (uint64, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if baseVersion != p.harmonyVersion {
		return p.harmonyVersion, false
	}
	p.harmony.Write(e)
	p.harmonyVersion++
	p.HarmonyUndo.Record(UndoEntry{Kind: UndoAddHarmony, Harmony: e})
	p.publishHarmony()
	return p.harmonyVersion, true
}

// DeleteHarmony applies a DeleteHarmony command under optimistic concurrency.
func (p *Project) DeleteHarmony(baseVersion uint64, tick Nanotick) (uint64, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if baseVersion != p.harmonyVersion {
		return p.harmonyVersion, false
	}
	removed, ok := p.harmony.Remove(tick)
	if !ok {
		return p.harmonyVersion, false
	}
	p.harmonyVersion++
	p.HarmonyUndo.Record(UndoEntry{Kind: UndoRemoveHarmony, Harmony: removed})
	p.publishHarmony()
	return p.harmonyVersion, true
}

// SetLoopRange updates the transport's loop boundaries.
func (p *Project) SetLoopRange(lo, length uint64) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.LoopRange.Lo = lo
	p.LoopRange.Len = length
}
