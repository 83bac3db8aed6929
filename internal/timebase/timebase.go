// Package timebase converts between musical time (nanoticks) and sample
// time, and applies plugin delay compensation (PDC) and loop wrapping.
package timebase

import "math"

// NanoticksPerQuarter is the number of nanoticks in one quarter note.
const NanoticksPerQuarter uint64 = 960000

// TempoProvider returns the tempo in BPM effective at a given nanotick.
// The core fixes on a static provider but the interface stays abstract so
// a future tempo-map implementation can be substituted without touching
// the scheduler.
type TempoProvider interface {
	BPMAtNanotick(t uint64) float64
}

// StaticTempo is a TempoProvider that is tempo-independent of position.
type StaticTempo struct {
	BPM float64
}

// BPMAtNanotick implements TempoProvider.
func (s StaticTempo) BPMAtNanotick(uint64) float64 { return s.BPM }

// DefaultTempo is the core's fixed 120 BPM provider.
var DefaultTempo = StaticTempo{BPM: 120}

// Base holds the sample-rate and tempo context needed to convert between
// the two clocks used throughout the engine.
type Base struct {
	SampleRate int
	Tempo      TempoProvider
}

// New builds a Base bound to the given sample rate and tempo provider.
func New(sampleRate int, tempo TempoProvider) Base {
	if tempo == nil {
		tempo = DefaultTempo
	}
	return Base{SampleRate: sampleRate, Tempo: tempo}
}

// SamplesToNanoticks converts n samples, anchored at nanotick atTick, into
// nanoticks: round(n * bpm(atTick) * 960000 / (SR * 60)).
func (b Base) SamplesToNanoticks(n uint64, atTick uint64) uint64 {
	bpm := b.Tempo.BPMAtNanotick(atTick)
	v := float64(n) * bpm * float64(NanoticksPerQuarter) / (float64(b.SampleRate) * 60.0)
	return roundHalfToEven(v)
}

// NanoticksToSamples converts a nanotick position into a sample count:
// round(t * SR * 60 / (bpm(t) * 960000)).
func (b Base) NanoticksToSamples(t uint64) uint64 {
	bpm := b.Tempo.BPMAtNanotick(t)
	v := float64(t) * float64(b.SampleRate) * 60.0 / (bpm * float64(NanoticksPerQuarter))
	return roundHalfToEven(v)
}

// roundHalfToEven rounds v to the nearest integer, ties to even, matching
// the banker's rounding the original long-double implementation relied on
// to keep round-trips exact within +/-1 sample.
func roundHalfToEven(v float64) uint64 {
	floor := math.Floor(v)
	diff := v - floor
	switch {
	case diff < 0.5:
		return uint64(floor)
	case diff > 0.5:
		return uint64(floor) + 1
	default:
		if uint64(floor)%2 == 0 {
			return uint64(floor)
		}
		return uint64(floor) + 1
	}
}

// PDC computes plugin delay compensation from the host's block-ring depth.
type PDC struct {
	LatencySamples uint64
}

// NewPDC derives latency from the number of audio-ring block slots and the
// block size: latencySamples = (numBlocks - 1) * blockSize.
func NewPDC(numBlocks, blockSize int) PDC {
	if numBlocks < 1 {
		numBlocks = 1
	}
	return PDC{LatencySamples: uint64(numBlocks-1) * uint64(blockSize)}
}

// CompensatedStart shifts a sample position earlier by the PDC latency,
// clamping at zero.
func (p PDC) CompensatedStart(s uint64) uint64 {
	if s >= p.LatencySamples {
		return s - p.LatencySamples
	}
	return 0
}

// LoopRange describes a half-open loop window [Start, End) in nanoticks.
type LoopRange struct {
	Start uint64
	End   uint64
}

// Len returns the loop's length in nanoticks.
func (r LoopRange) Len() uint64 {
	if r.End <= r.Start {
		return 0
	}
	return r.End - r.Start
}

// Wrap maps t into the loop window: positions before Start clamp to Start;
// positions at or past Start wrap modulo the loop length, preserving the
// intra-loop offset.
func (r LoopRange) Wrap(t uint64) uint64 {
	length := r.Len()
	if length == 0 {
		return r.Start
	}
	if t < r.Start {
		return r.Start
	}
	return (t-r.Start)%length + r.Start
}

// SplitWindow splits a producer window [start, start+span) against the loop
// range when it crosses the loop boundary, returning one or two half
// windows in playback order. Each returned window is [lo, hi) in nanoticks,
// already wrapped into the loop.
func (r LoopRange) SplitWindow(start, span uint64) [][2]uint64 {
	length := r.Len()
	if length == 0 {
		return [][2]uint64{{start, start + span}}
	}
	wrapped := r.Wrap(start)
	end := wrapped + span
	if end <= r.End {
		return [][2]uint64{{wrapped, end}}
	}
	remainder := end - r.End
	return [][2]uint64{
		{wrapped, r.End},
		{r.Start, r.Start + remainder},
	}
}
