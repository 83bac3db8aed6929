package model

import "sync"

// ClipSnapshot is an immutable, atomically-published view of a track's clip
// and the clipVersion it was published at. Once published a snapshot is
// never mutated; the producer thread reads the pointer once per block with
// acquire semantics and sees a consistent view without locking.
type ClipSnapshot struct {
	Clip    *Clip
	Version uint64
}

// TrackStateSnapshot bundles the rest of a track's per-block-readable state:
// device chain, modulation registry, automation, and routing. Published
// alongside ClipSnapshot under the same track mutation.
type TrackStateSnapshot struct {
	Chain        *DeviceChain
	Mod          *ModRegistry
	Automation   map[string]*AutomationClip // keyed by automation clip id
	Routing      TrackRouting
	ChainVersion uint64
	ModVersion   uint64
	RoutingVersion uint64
}

// Track is one track's mutable model plus its published snapshots. All
// mutating methods take mu, mutate the working copies, bump the relevant
// version counter with a plain increment under mu (not an atomic
// fetch-add; ClipVersion also reads it under mu), and swap in a freshly
// cloned snapshot pointer so readers never block behind the track mutex.
type Track struct {
	ID int

	mu sync.Mutex

	clip            *Clip
	chain           *DeviceChain
	mod             *ModRegistry
	automation      map[string]*AutomationClip
	routing         TrackRouting
	harmonyQuantize bool

	clipVersion    uint64
	chainVersion   uint64
	modVersion     uint64
	routingVersion uint64

	clipSnap  atomicPtr[ClipSnapshot]
	stateSnap atomicPtr[TrackStateSnapshot]

	Undo *UndoStack
}

// NewTrack returns a freshly initialized, empty track.
func NewTrack(id int) *Track {
	t := &Track{
		ID:         id,
		clip:       NewClip(),
		chain:      NewDeviceChain(),
		mod:        NewModRegistry(),
		automation: map[string]*AutomationClip{},
		Undo:       NewUndoStack(),
	}
	t.publishClip()
	t.publishState()
	return t
}

func (t *Track) publishClip() {
	t.clipSnap.Store(&ClipSnapshot{Clip: t.clip.Clone(), Version: t.clipVersion})
}

func (t *Track) publishState() {
	autoCopy := make(map[string]*AutomationClip, len(t.automation))
	for k, v := range t.automation {
		autoCopy[k] = v.Clone()
	}
	t.stateSnap.Store(&TrackStateSnapshot{
		Chain:          t.chain.Clone(),
		Mod:            t.mod.Clone(),
		Automation:     autoCopy,
		Routing:        t.routing,
		ChainVersion:   t.chainVersion,
		ModVersion:     t.modVersion,
		RoutingVersion: t.routingVersion,
	})
}

// ClipSnapshot returns the most recently published clip snapshot. Safe to
// call from the producer thread without the track mutex.
func (t *Track) ClipSnapshot() *ClipSnapshot { return t.clipSnap.Load() }

// StateSnapshot returns the most recently published track-state snapshot.
func (t *Track) StateSnapshot() *TrackStateSnapshot { return t.stateSnap.Load() }

// ClipVersion returns the current clip version under the track mutex.
func (t *Track) ClipVersion() uint64 {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.clipVersion
}

// HarmonyQuantize reports whether this track snaps note pitches to the
// active harmony's scale.
func (t *Track) HarmonyQuantize() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.harmonyQuantize
}

// SetHarmonyQuantize toggles harmony quantization for this track.
func (t *Track) SetHarmonyQuantize(on bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.harmonyQuantize = on
}

// WriteNote applies a WriteNote command under optimistic concurrency:
// baseVersion must match the current clipVersion or the edit is rejected.
// Returns the written note, the post-edit version, and whether the edit
// was applied.
func (t *Track) WriteNote(baseVersion uint64, n Note) (Note, uint64, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if baseVersion != t.clipVersion {
		return Note{}, t.clipVersion, false
	}
	written := t.clip.WriteNote(n)
	t.clipVersion++
	t.Undo.Record(UndoEntry{Kind: UndoAddNote, Note: written})
	t.publishClip()
	return written, t.clipVersion, true
}

// DeleteNote applies a DeleteNote command under optimistic concurrency.
func (t *Track) DeleteNote(baseVersion uint64, noteID uint32) (Note, uint64, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if baseVersion != t.clipVersion {
		return Note{}, t.clipVersion, false
	}
	removed, ok := t.clip.RemoveNote(noteID)
	if !ok {
		return Note{}, t.clipVersion, false
	}
	t.clipVersion++
	t.Undo.Record(UndoEntry{Kind: UndoRemoveNote, Note: removed})
	t.publishClip()
	return removed, t.clipVersion, true
}

// WriteChord applies a WriteChord command under optimistic concurrency.
func (t *Track) WriteChord(baseVersion uint64, ch Chord) (Chord, uint64, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if baseVersion != t.clipVersion {
		return Chord{}, t.clipVersion, false
	}
	written := t.clip.WriteChord(ch)
	t.clipVersion++
	t.Undo.Record(UndoEntry{Kind: UndoAddChord, Chord: written})
	t.publishClip()
	return written, t.clipVersion, true
}

// DeleteChord applies a DeleteChord command under optimistic concurrency.
func (t *Track) DeleteChord(baseVersion uint64, chordID uint32) (Chord, uint64, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if baseVersion != t.clipVersion {
		return Chord{}, t.clipVersion, false
	}
	removed, ok := t.clip.RemoveChord(chordID)
	if !ok {
		return Chord{}, t.clipVersion, false
	}
	t.clipVersion++
	t.Undo.Record(UndoEntry{Kind: UndoRemoveChord, Chord: removed})
	t.publishClip()
	return removed, t.clipVersion, true
}

// UndoLast pops the most recent undo entry and applies its inverse without
// recording further undo, pushing the inverse-of-the-inverse onto redo.
func (t *Track) UndoLast() (UndoEntry, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	entry, ok := t.Undo.PopUndo()
	if !ok {
		return UndoEntry{}, false
	}
	inv := entry.Inverse()
	t.applyEntryLocked(inv)
	t.Undo.PushRedo(entry)
	t.publishClip()
	return inv, true
}

// RedoLast pops the most recent redo entry and applies it, pushing it
// back onto undo.
func (t *Track) RedoLast() (UndoEntry, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	entry, ok := t.Undo.PopRedo()
	if !ok {
		return UndoEntry{}, false
	}
	t.applyEntryLocked(entry)
	t.Undo.PushUndo(entry)
	t.publishClip()
	return entry, true
}

// applyEntryLocked applies entry's restoration payload directly to the
// working clip, bypassing version checks (undo/redo is not subject to
// optimistic concurrency).
func (t *Track) applyEntryLocked(entry UndoEntry) {
	switch entry.Kind {
	case UndoAddNote:
		t.clip.InsertNoteRestoring(entry.Note)
	case UndoRemoveNote:
		t.clip.RemoveNote(entry.Note.NoteID)
	case UndoAddChord:
		t.clip.InsertChordRestoring(entry.Chord)
	case UndoRemoveChord:
		t.clip.RemoveChord(entry.Chord.ChordID)
	}
	t.clipVersion++
}

// MutateChain runs fn against a live copy of the chain under the track
// mutex, then bumps chainVersion and republishes state on success.
func (t *Track) MutateChain(fn func(*DeviceChain) error) (uint64, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if err := fn(t.chain); err != nil {
		return t.chainVersion, err
	}
	t.chainVersion++
	t.publishState()
	return t.chainVersion, nil
}

// MutateMod runs fn against the mod registry under the track mutex.
func (t *Track) MutateMod(fn func(*ModRegistry, *DeviceChain) error) (uint64, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if err := fn(t.mod, t.chain); err != nil {
		return t.modVersion, err
	}
	t.modVersion++
	t.publishState()
	return t.modVersion, nil
}

// SetRouting validates and applies new routing for this track.
func (t *Track) SetRouting(r TrackRouting, trackExists func(int) bool) (uint64, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	for _, route := range []Route{r.MidiIn, r.MidiOut, r.AudioIn, r.AudioOut, r.PreFaderSend} {
		if err := ValidateRoute(t.ID, route, trackExists); err != nil {
			return t.routingVersion, err
		}
	}
	t.routing = r
	t.routingVersion++
	t.publishState()
	return t.routingVersion, nil
}

// SetAutomationTarget replaces (or inserts) the named automation clip.
func (t *Track) SetAutomationTarget(id string, clip *AutomationClip) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.automation[id] = clip
	t.publishState()
}
