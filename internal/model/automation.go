package model

import "sort"

// AutomationPoint is one {nanotick, value} sample of an automation curve.
type AutomationPoint struct {
	Nanotick Nanotick
	Value    float32
}

// AutomationClip is an ordered automation curve for one parameter target.
type AutomationClip struct {
	Points         []AutomationPoint
	DiscreteOnly   bool
	TargetPlugin   TargetPlugin
}

// NewAutomationClip returns an empty automation clip targeting every plugin.
func NewAutomationClip() *AutomationClip {
	return &AutomationClip{TargetPlugin: TargetAll}
}

// Clone returns a deep, independent copy.
func (a *AutomationClip) Clone() *AutomationClip {
	return &AutomationClip{
		Points:       append([]AutomationPoint(nil), a.Points...),
		DiscreteOnly: a.DiscreteOnly,
		TargetPlugin: a.TargetPlugin,
	}
}

// AddPoint inserts or replaces the point at the given nanotick, keeping the
// clip ordered.
func (a *AutomationClip) AddPoint(p AutomationPoint) {
	for i, existing := range a.Points {
		if existing.Nanotick == p.Nanotick {
			a.Points[i] = p
			return
		}
	}
	a.Points = append(a.Points, p)
	sort.Slice(a.Points, func(i, j int) bool { return a.Points[i].Nanotick < a.Points[j].Nanotick })
}

// ValueAt returns the clip's value at nanotick t: linear interpolation
// between surrounding points (clamped outside the clip's range), or the
// lower point's value between samples when DiscreteOnly.
func (a *AutomationClip) ValueAt(t Nanotick) (float32, bool) {
	if len(a.Points) == 0 {
		return 0, false
	}
	if t <= a.Points[0].Nanotick {
		return a.Points[0].Value, true
	}
	last := a.Points[len(a.Points)-1]
	if t >= last.Nanotick {
		return last.Value, true
	}
	for i := 0; i < len(a.Points)-1; i++ {
		lo, hi := a.Points[i], a.Points[i+1]
		if t >= lo.Nanotick && t < hi.Nanotick {
			if a.DiscreteOnly {
				return lo.Value, true
			}
			span := float64(hi.Nanotick - lo.Nanotick)
			frac := float64(t-lo.Nanotick) / span
			return lo.Value + float32(frac)*(hi.Value-lo.Value), true
		}
	}
	return last.Value, true
}

// HarmonyEvent marks a root/scale change effective from Nanotick onward.
type HarmonyEvent struct {
	Nanotick Nanotick
	Root     int // 0-11
	ScaleID  ScaleID
}

// HarmonyTimeline is the global, ordered sequence of harmony events.
type HarmonyTimeline struct {
	Events []HarmonyEvent
}

// NewHarmonyTimeline returns an empty timeline.
func NewHarmonyTimeline() *HarmonyTimeline {
	return &HarmonyTimeline{}
}

// Clone returns a deep, independent copy.
func (h *HarmonyTimeline) Clone() *HarmonyTimeline {
	return &HarmonyTimeline{Events: append([]HarmonyEvent(nil), h.Events...)}
}

// Write inserts or replaces the harmony event at the given nanotick.
func (h *HarmonyTimeline) Write(e HarmonyEvent) {
	for i, existing := range h.Events {
		if existing.Nanotick == e.Nanotick {
			h.Events[i] = e
			h.sort()
			return
		}
	}
	h.Events = append(h.Events, e)
	h.sort()
}

// Remove deletes the harmony event at the given nanotick, if any.
func (h *HarmonyTimeline) Remove(tick Nanotick) (HarmonyEvent, bool) {
	for i, e := range h.Events {
		if e.Nanotick == tick {
			removed := e
			h.Events = append(h.Events[:i], h.Events[i+1:]...)
			return removed, true
		}
	}
	return HarmonyEvent{}, false
}

func (h *HarmonyTimeline) sort() {
	sort.Slice(h.Events, func(i, j int) bool { return h.Events[i].Nanotick < h.Events[j].Nanotick })
}

// HarmonyAt returns the latest event with nanotick <= t, if any.
func (h *HarmonyTimeline) HarmonyAt(t Nanotick) (HarmonyEvent, bool) {
	var best HarmonyEvent
	found := false
	for _, e := range h.Events {
		if e.Nanotick <= t {
			best = e
			found = true
		} else {
			break
		}
	}
	return best, found
}
