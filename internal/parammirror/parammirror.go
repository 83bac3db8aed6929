// Package parammirror keeps a per-track mirror of every parameter value
// the engine has sent to a plugin host, so a restarted host process can be
// replayed back to the exact state it crashed out of.
package parammirror

import (
	"sort"
	"sync"

	"github.com/dawforge/engine/internal/scheduler"
	"github.com/dawforge/engine/internal/shm"
)

// paramValue is one mirrored {value, targetPluginIndex} pair for a uid16.
type paramValue struct {
	value             float32
	targetPluginIndex int
}

// Mirror is one track's parameter mirror. Update is called from the
// producer's hot path every time a param event is emitted; Replay is
// called once after a restart, from the consumer/restart-orchestration
// path, never concurrently with Update for the same track (the mutex
// serializes both against each other regardless).
type Mirror struct {
	mu     sync.Mutex
	values map[uint16]paramValue
}

// New returns an empty mirror.
func New() *Mirror {
	return &Mirror{values: map[uint16]paramValue{}}
}

// Update records the latest value sent for uid16 on trackID. trackID is
// accepted for call-site symmetry with the scheduler.MirrorSink interface
// but a Mirror instance is already scoped to one track.
func (m *Mirror) Update(trackID int, uid16 uint16, value float32, targetPluginIndex int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.values[uid16] = paramValue{value: value, targetPluginIndex: targetPluginIndex}
}

// Snapshot returns a stable-ordered copy of every mirrored uid16/value pair,
// for replay.
func (m *Mirror) Snapshot() []ReplayEntry {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]ReplayEntry, 0, len(m.values))
	for uid, v := range m.values {
		out = append(out, ReplayEntry{UID16: uid, Value: v.value, TargetPluginIndex: v.targetPluginIndex})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].UID16 < out[j].UID16 })
	return out
}

// ReplayEntry is one parameter to restore during a restart replay.
type ReplayEntry struct {
	UID16             uint16
	Value             float32
	TargetPluginIndex int
}

// Replay writes every mirrored value into ring as a param entry at
// gateSampleTime, followed by a terminal ReplayComplete fence entry. No
// code reads the mailbox's replayAckSampleTime back, so normal scheduling
// does not wait for the restarted host to consume the fence.
// Returns false if the ring filled up before every entry could be written;
// the entries written before that point stay in the ring.
func Replay(m *Mirror, ring *shm.Ring, blockID uint64, gateSampleTime uint64) bool {
	entries := m.Snapshot()
	for _, e := range entries {
		ev := scheduler.Event{
			SampleTime:        gateSampleTime,
			Band:              scheduler.BandParam,
			Type:              shm.EventParam,
			UID16:             e.UID16,
			Value:             e.Value,
			TargetPluginIndex: e.TargetPluginIndex,
		}
		if !ring.Write(ev.ToEntry(blockID)) {
			return false
		}
	}
	fence := scheduler.Event{SampleTime: gateSampleTime, Band: scheduler.BandTransport, Type: shm.EventReplayComplete}
	return ring.Write(fence.ToEntry(blockID))
}
