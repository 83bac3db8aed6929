// Package mixer reads completed per-track audio-out blocks from shared
// memory and sums them into the interleaved buffer the audio callback
// plays out.
package mixer

import (
	"math"
	"sync/atomic"

	"github.com/dawforge/engine/internal/shm"
)

// TrackGain is the fixed per-track mix gain, kept a compile-time constant
// rather than exposed as a runtime-adjustable fader.
const TrackGain = 0.5

// TrackSource is one track's completed audio-out region plus the metadata
// needed to locate the current block's float samples within it.
type TrackSource struct {
	Header        shm.Header
	Region        *shm.Region
	Mailbox       *shm.MailboxView
	ChannelCount  int
	NextPlayBlock uint64
}

// audioPlaybackBlockID is the last block id published as played, read by
// the UI and any diagnostics; written with release semantics after a mix
// pass completes.
var audioPlaybackBlockID uint64

// AudioPlaybackBlockID returns the most recently published playback block id.
func AudioPlaybackBlockID() uint64 { return atomic.LoadUint64(&audioPlaybackBlockID) }

// Mix sums blockID's audio-out slot from every source whose mailbox
// reports that block as completed into out (interleaved, channelCount
// channels, blockSize frames per channel), applying TrackGain per track.
// A source whose completedBlockId has not yet reached blockID contributes
// silence for this pass rather than blocking the audio callback.
func Mix(out []float32, blockID uint64, blockSize int, channelCount int, sources []TrackSource) {
	for i := range out {
		out[i] = 0
	}

	for _, src := range sources {
		if src.Region == nil || src.Mailbox == nil {
			continue
		}
		if src.Mailbox.CompletedBlockID() < blockID {
			continue
		}
		slotOffset := src.Header.AudioSlot(src.Header.AudioOutOffset, blockID, src.ChannelCount)
		floatsPerChannel := src.Header.ChannelStrideBytes / 4
		for ch := 0; ch < channelCount && ch < src.ChannelCount; ch++ {
			chOffset := slotOffset + ch*src.Header.ChannelStrideBytes
			for frame := 0; frame < blockSize && frame < floatsPerChannel; frame++ {
				byteOff := chOffset + frame*4
				if byteOff+4 > len(src.Region.Data) {
					break
				}
				sample := readFloat32(src.Region.Data, byteOff)
				idx := frame*channelCount + ch
				if idx < len(out) {
					out[idx] += sample * TrackGain
				}
			}
		}
	}

	atomic.StoreUint64(&audioPlaybackBlockID, blockID)
}

func readFloat32(buf []byte, off int) float32 {
	bits := uint32(buf[off]) | uint32(buf[off+1])<<8 | uint32(buf[off+2])<<16 | uint32(buf[off+3])<<24
	return math.Float32frombits(bits)
}
