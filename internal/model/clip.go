package model

import "sort"

// Note is a musical clip event.
type Note struct {
	Nanotick Nanotick
	Duration Nanotick
	Pitch    uint8 // 0-127
	Velocity uint8 // 0-127
	Column   int
	NoteID   uint32 // dense, monotonic, never reused within a clip
}

// Chord is a musical clip event resolved against the harmony timeline at
// render time.
type Chord struct {
	Nanotick           Nanotick
	Duration           Nanotick
	ChordID            uint32
	Degree             int
	Quality            Quality
	Inversion          int
	BaseOctave         int
	Column             int
	SpreadNanoticks    Nanotick
	HumanizeTiming     int
	HumanizeVelocity   int
}

// TargetPlugin is either a specific host plugin slot or "all" (every
// plugin slot in the chain receives the param event).
type TargetPlugin struct {
	Index int // -1 means "all"
}

// TargetAll is the canonical "all plugins" target.
var TargetAll = TargetPlugin{Index: -1}

// IsAll reports whether the target addresses every plugin in the chain.
func (t TargetPlugin) IsAll() bool { return t.Index < 0 }

// Param is a parameter-automation clip event.
type Param struct {
	Nanotick Nanotick
	UID16    uint16
	Value    float32
	Target   TargetPlugin
}

// Clip holds one track's notes, chords, and param events, ordered by
// insertion nanotick. At most one chord and one note may occupy a given
// (column, nanotick); writing a new one there removes whatever was there.
type Clip struct {
	Notes  []Note
	Chords []Chord
	Params []Param

	nextNoteID  uint32
	nextChordID uint32
}

// NewClip returns an empty clip.
func NewClip() *Clip {
	return &Clip{}
}

// Clone returns a deep, independent copy suitable for publishing as an
// immutable snapshot.
func (c *Clip) Clone() *Clip {
	cl := &Clip{
		Notes:       append([]Note(nil), c.Notes...),
		Chords:      append([]Chord(nil), c.Chords...),
		Params:      append([]Param(nil), c.Params...),
		nextNoteID:  c.nextNoteID,
		nextChordID: c.nextChordID,
	}
	return cl
}

// WriteNote inserts or replaces the note at (column, nanotick), removing
// any existing note or chord there, and allocating a dense monotonic id.
func (c *Clip) WriteNote(n Note) Note {
	c.removeAt(n.Column, n.Nanotick)
	n.NoteID = c.nextNoteID
	c.nextNoteID++
	c.Notes = append(c.Notes, n)
	c.sortNotes()
	return n
}

// WriteChord inserts or replaces the chord at (column, nanotick).
func (c *Clip) WriteChord(ch Chord) Chord {
	c.removeAt(ch.Column, ch.Nanotick)
	ch.ChordID = c.nextChordID
	c.nextChordID++
	c.Chords = append(c.Chords, ch)
	c.sortChords()
	return ch
}

// removeAt clears any note/chord occupying (column, nanotick), preserving
// the "at most one chord and one note per (column, nanotick)" invariant.
func (c *Clip) removeAt(column int, tick Nanotick) {
	out := c.Notes[:0]
	for _, n := range c.Notes {
		if n.Column == column && n.Nanotick == tick {
			continue
		}
		out = append(out, n)
	}
	c.Notes = out

	outc := c.Chords[:0]
	for _, ch := range c.Chords {
		if ch.Column == column && ch.Nanotick == tick {
			continue
		}
		outc = append(outc, ch)
	}
	c.Chords = outc
}

// RemoveNote removes a note by id, returning it and whether it existed.
func (c *Clip) RemoveNote(id uint32) (Note, bool) {
	for i, n := range c.Notes {
		if n.NoteID == id {
			removed := n
			c.Notes = append(c.Notes[:i], c.Notes[i+1:]...)
			return removed, true
		}
	}
	return Note{}, false
}

// RemoveChord removes a chord by id, returning it and whether it existed.
func (c *Clip) RemoveChord(id uint32) (Chord, bool) {
	for i, ch := range c.Chords {
		if ch.ChordID == id {
			removed := ch
			c.Chords = append(c.Chords[:i], c.Chords[i+1:]...)
			return removed, true
		}
	}
	return Chord{}, false
}

// InsertNoteRestoring re-inserts a note with an explicit id, used by undo
// to restore a previously removed note without reallocating its id.
func (c *Clip) InsertNoteRestoring(n Note) {
	c.Notes = append(c.Notes, n)
	c.sortNotes()
	if n.NoteID >= c.nextNoteID {
		c.nextNoteID = n.NoteID + 1
	}
}

// InsertChordRestoring re-inserts a chord with an explicit id.
func (c *Clip) InsertChordRestoring(ch Chord) {
	c.Chords = append(c.Chords, ch)
	c.sortChords()
	if ch.ChordID >= c.nextChordID {
		c.nextChordID = ch.ChordID + 1
	}
}

func (c *Clip) sortNotes() {
	sort.SliceStable(c.Notes, func(i, j int) bool { return c.Notes[i].Nanotick < c.Notes[j].Nanotick })
}

func (c *Clip) sortChords() {
	sort.SliceStable(c.Chords, func(i, j int) bool { return c.Chords[i].Nanotick < c.Chords[j].Nanotick })
}

// NotesInWindow returns notes with nanotick in [start, end).
func (c *Clip) NotesInWindow(start, end Nanotick) []Note {
	var out []Note
	for _, n := range c.Notes {
		if n.Nanotick >= start && n.Nanotick < end {
			out = append(out, n)
		}
	}
	return out
}

// ChordsInWindow returns chords with nanotick in [start, end).
func (c *Clip) ChordsInWindow(start, end Nanotick) []Chord {
	var out []Chord
	for _, ch := range c.Chords {
		if ch.Nanotick >= start && ch.Nanotick < end {
			out = append(out, ch)
		}
	}
	return out
}

// ParamsInWindow returns param events with nanotick in [start, end).
func (c *Clip) ParamsInWindow(start, end Nanotick) []Param {
	var out []Param
	for _, p := range c.Params {
		if p.Nanotick >= start && p.Nanotick < end {
			out = append(out, p)
		}
	}
	return out
}
