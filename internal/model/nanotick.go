// Package model holds the engine's musical model: clips, chords,
// automation, harmony timeline, device chains, the modulation registry,
// track routing, and the undo/redo stack. All mutations happen under a
// per-track mutex and publish an immutable snapshot, never exposing a lock
// to the rendering thread.
package model

// Nanotick is tempo-independent musical time: 1/960000 of a quarter note.
type Nanotick = uint64

// SampleTime is an absolute sample index at the engine's fixed sample rate.
type SampleTime = uint64
