package patcher

import "math"

// kernelEuclidean emits one MusicalLogic event carrying cfg.Degree on each
// pulse of a Bjorklund Euclidean rhythm spanning the block window, one step
// per windowLen/Steps nanoticks.
func kernelEuclidean(ctx *PatcherContext, n *Node, out *Output) {
	cfg := n.Euclidean
	if cfg == nil || cfg.Steps <= 0 {
		return
	}
	pattern := euclideanPattern(cfg.Steps, cfg.Pulses, cfg.Rotation)
	span := ctx.WindowEnd - ctx.WindowStart
	if span == 0 {
		return
	}
	stepLen := span / uint64(cfg.Steps)
	if stepLen == 0 {
		return
	}
	for i, hit := range pattern {
		if !hit {
			continue
		}
		t := ctx.WindowStart + uint64(i)*stepLen
		if t >= ctx.WindowEnd {
			continue
		}
		out.Events = append(out.Events, Event{
			Nanotick: t,
			Kind:     EventMusicalLogic,
			Degree:   cfg.Degree,
		})
	}
}

// euclideanPattern computes the standard Bjorklund distribution of pulses
// hits across steps slots, rotated by rotation.
func euclideanPattern(steps, pulses, rotation int) []bool {
	if pulses <= 0 {
		return make([]bool, steps)
	}
	if pulses > steps {
		pulses = steps
	}
	out := make([]bool, steps)
	bucket := 0
	for i := 0; i < steps; i++ {
		bucket += pulses
		if bucket >= steps {
			bucket -= steps
			out[i] = true
		}
	}
	if rotation != 0 {
		rotation = ((rotation % steps) + steps) % steps
		rotated := make([]bool, steps)
		for i := range out {
			rotated[(i+rotation)%steps] = out[i]
		}
		return rotated
	}
	return out
}

// kernelRandomDegree cuts the block window into steps of windowLen/Stride
// nanoticks and emits one MusicalLogic event at the start of each step,
// drawing degrees from a deterministic xorshift64 PRNG reseeded from
// cfg.Seed on every call, so replays of the same block sequence are
// reproducible.
func kernelRandomDegree(ctx *PatcherContext, n *Node, out *Output) {
	cfg := n.RandomDegree
	if cfg == nil || cfg.Stride <= 0 {
		return
	}
	span := ctx.WindowEnd - ctx.WindowStart
	if span == 0 {
		return
	}
	stepLen := span / uint64(cfg.Stride)
	if stepLen == 0 {
		return
	}
	state := cfg.Seed
	if state == 0 {
		state = 0x9E3779B97F4A7C15
	}
	lo, hi := cfg.Low, cfg.High
	if hi <= lo {
		hi = lo + 1
	}
	for t := ctx.WindowStart; t < ctx.WindowEnd; t += stepLen {
		state = xorshift64(state)
		degree := lo + int(state%uint64(hi-lo))
		out.Events = append(out.Events, Event{
			Nanotick: t,
			Kind:     EventMusicalLogic,
			Degree:   degree,
		})
	}
}

func xorshift64(x uint64) uint64 {
	x ^= x << 13
	x ^= x >> 7
	x ^= x << 17
	return x
}

// kernelLfo computes a block-rate modulation value from a sine at RateHz,
// sampled at the window's start time, and writes it to ctx.ModOut plus a
// Param event carrying the LFO's own uid16 for mirror tracking.
func kernelLfo(ctx *PatcherContext, n *Node, out *Output) {
	cfg := n.Lfo
	if cfg == nil {
		return
	}
	seconds := float64(ctx.WindowStart) / 960000.0 * (60.0 / ctx.BPM)
	v := math.Sin(2 * math.Pi * cfg.RateHz * seconds)
	if cfg.Bipolar {
		v = (v + 1) / 2
	} else {
		v = (v + 1) / 2
	}
	ctx.ModOut = float32(v)
	out.Events = append(out.Events, Event{
		Nanotick: ctx.WindowStart,
		Kind:     EventParam,
		UID16:    cfg.UID16,
		Value:    float32(v),
	})
}

// kernelEventOut is a no-op sink: it exists purely as a graph terminal
// node that chain devices can reference for reachability filtering.
func kernelEventOut(ctx *PatcherContext, n *Node, out *Output) {}

// kernelPassthrough forwards and emits nothing; its only role is graph
// topology (a transparent hop that reachability analysis walks through).
func kernelPassthrough(ctx *PatcherContext, n *Node, out *Output) {}

// kernelAudioPassthrough copies ctx.AudioIn to ctx.AudioOut unmodified,
// the engine-side evaluation of a patcher-audio device slotted between
// two VST segments.
func kernelAudioPassthrough(ctx *PatcherContext, n *Node, out *Output) {
	if ctx.AudioIn == nil {
		return
	}
	if cap(ctx.AudioOut) < len(ctx.AudioIn) {
		ctx.AudioOut = make([]float32, len(ctx.AudioIn))
	}
	ctx.AudioOut = ctx.AudioOut[:len(ctx.AudioIn)]
	copy(ctx.AudioOut, ctx.AudioIn)
}

// kernelRustKernel has no in-process implementation; the closed dispatch
// set names it but no ABI for externally-compiled kernels is specified, so
// it behaves as a documented no-op until one is wired.
func kernelRustKernel(ctx *PatcherContext, n *Node, out *Output) {}
