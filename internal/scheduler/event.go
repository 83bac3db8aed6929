// Package scheduler implements the block producer: the per-block,
// per-track pipeline that turns clip/automation/chord/patcher-graph state
// into a priority-sorted, PDC-compensated stream of ring entries.
package scheduler

import (
	"math"

	"github.com/dawforge/engine/internal/shm"
)

// PriorityBand orders same-sampleTime events for delivery to the plugin.
type PriorityBand int

const (
	BandTransport PriorityBand = iota
	BandParam
	BandNoteOff
	BandMusicalLogic
	BandNoteOnOther
)

// ScratchpadCapacity is the per-block scratchpad's fixed entry capacity.
const ScratchpadCapacity = 1024

// Event is one scratchpad entry before PDC compensation and ring encoding.
type Event struct {
	SampleTime        uint64
	Band              PriorityBand
	Type              shm.EventType
	Flags             uint32
	Pitch             uint8
	Velocity          uint8
	UID16             uint16
	Value             float32
	TargetPluginIndex int
	NoteID            uint32
}

// ToEntry encodes ev as a 64-byte ring entry.
func (ev Event) ToEntry(blockID uint64) shm.Entry {
	e := shm.Entry{SampleTime: ev.SampleTime, BlockID: blockID, Type: ev.Type, Flags: ev.Flags}
	e.Payload[0] = ev.Pitch
	e.Payload[1] = ev.Velocity
	e.Payload[2] = byte(ev.UID16)
	e.Payload[3] = byte(ev.UID16 >> 8)
	e.Payload[4] = byte(ev.TargetPluginIndex)
	e.Payload[5] = byte(ev.TargetPluginIndex >> 8)
	bits := math.Float32bits(ev.Value)
	e.Payload[6] = byte(bits)
	e.Payload[7] = byte(bits >> 8)
	e.Payload[8] = byte(bits >> 16)
	e.Payload[9] = byte(bits >> 24)
	return e
}
