package scheduler

import (
	"sync"

	"github.com/dawforge/engine/internal/model"
)

type activeNoteInfo struct {
	Column          int
	EndNanotick     model.Nanotick
	HasScheduledEnd bool
}

// ActiveNotes is one track's centralized note-lifecycle bookkeeping, keyed
// both by dense render noteId and by column, so a new note landing on an
// occupied column can cut the previous one. The two indices are mutated
// together under one mutex, so they can never drift out of sync with each
// other.
type ActiveNotes struct {
	mu       sync.Mutex
	byID     map[uint32]*activeNoteInfo
	byColumn map[int]uint32
	nextID   uint32
}

// NewActiveNotes returns an empty tracker.
func NewActiveNotes() *ActiveNotes {
	return &ActiveNotes{byID: map[uint32]*activeNoteInfo{}, byColumn: map[int]uint32{}}
}

// CutColumn removes and returns the note currently active in column, if
// any. The caller is responsible for emitting its note-off.
func (a *ActiveNotes) CutColumn(column int) (uint32, bool) {
	a.mu.Lock()
	defer a.mu.Unlock()
	id, ok := a.byColumn[column]
	if !ok {
		return 0, false
	}
	delete(a.byColumn, column)
	delete(a.byID, id)
	return id, true
}

// Allocate returns the next dense render-time noteId.
func (a *ActiveNotes) Allocate() uint32 {
	a.mu.Lock()
	defer a.mu.Unlock()
	id := a.nextID
	a.nextID++
	return id
}

// Track records a newly-opened note whose end falls in a future block.
func (a *ActiveNotes) Track(id uint32, column int, end model.Nanotick) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.byID[id] = &activeNoteInfo{Column: column, EndNanotick: end, HasScheduledEnd: true}
	a.byColumn[column] = id
}

// Close removes a note once its note-off has been emitted.
func (a *ActiveNotes) Close(id uint32) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if info, ok := a.byID[id]; ok {
		if a.byColumn[info.Column] == id {
			delete(a.byColumn, info.Column)
		}
		delete(a.byID, id)
	}
}

// DueBefore returns every tracked note whose scheduled end falls strictly
// before end, for future-block note-off emission.
func (a *ActiveNotes) DueBefore(end model.Nanotick) []uint32 {
	a.mu.Lock()
	defer a.mu.Unlock()
	var due []uint32
	for id, info := range a.byID {
		if info.HasScheduledEnd && info.EndNanotick < end {
			due = append(due, id)
		}
	}
	return due
}

// EndNanotick returns the scheduled end of a tracked note.
func (a *ActiveNotes) EndNanotick(id uint32) (model.Nanotick, bool) {
	a.mu.Lock()
	defer a.mu.Unlock()
	info, ok := a.byID[id]
	if !ok {
		return 0, false
	}
	return info.EndNanotick, true
}

// AllActive returns every currently active note id, for the panic-flush
// all-notes-off sweep.
func (a *ActiveNotes) AllActive() []uint32 {
	a.mu.Lock()
	defer a.mu.Unlock()
	ids := make([]uint32, 0, len(a.byID))
	for id := range a.byID {
		ids = append(ids, id)
	}
	return ids
}

// CloseAll clears every tracked note, used once a panic-flush sweep
// succeeds end-to-end.
func (a *ActiveNotes) CloseAll() {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.byID = map[uint32]*activeNoteInfo{}
	a.byColumn = map[int]uint32{}
}
