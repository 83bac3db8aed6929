package mixer

import (
	"math"
	"testing"

	"github.com/dawforge/engine/internal/shm"
)

func writeFloat32(buf []byte, off int, v float32) {
	bits := math.Float32bits(v)
	buf[off] = byte(bits)
	buf[off+1] = byte(bits >> 8)
	buf[off+2] = byte(bits >> 16)
	buf[off+3] = byte(bits >> 24)
}

func TestMixSumsCompletedTracksWithGain(t *testing.T) {
	blockSize, channels, numBlocks := 4, 2, 2
	hdr := shm.BuildHeader(blockSize, 48000, numBlocks, 2, channels, shm.RingCaps{Std: 2, Ctrl: 2, UI: 2})

	region := &shm.Region{Data: make([]byte, hdr.RegionSize)}
	slotOff := hdr.AudioSlot(hdr.AudioOutOffset, 0, channels)
	for frame := 0; frame < blockSize; frame++ {
		writeFloat32(region.Data, slotOff+0*hdr.ChannelStrideBytes+frame*4, 1.0)
		writeFloat32(region.Data, slotOff+1*hdr.ChannelStrideBytes+frame*4, -1.0)
	}

	mbBuf := make([]byte, shm.MailboxSize)
	mb := shm.NewMailboxView(mbBuf)
	mb.SetCompletedBlockID(0)

	out := make([]float32, blockSize*channels)
	Mix(out, 0, blockSize, channels, []TrackSource{{Header: hdr, Region: region, Mailbox: mb, ChannelCount: channels}})

	for frame := 0; frame < blockSize; frame++ {
		if out[frame*channels+0] != TrackGain {
			t.Fatalf("expected left channel %f, got %f", TrackGain, out[frame*channels+0])
		}
		if out[frame*channels+1] != -TrackGain {
			t.Fatalf("expected right channel %f, got %f", -TrackGain, out[frame*channels+1])
		}
	}
	if AudioPlaybackBlockID() != 0 {
		t.Fatalf("expected playback block id to publish as 0")
	}
}

func TestMixSkipsTrackNotYetCompleted(t *testing.T) {
	blockSize, channels, numBlocks := 4, 2, 2
	hdr := shm.BuildHeader(blockSize, 48000, numBlocks, 2, channels, shm.RingCaps{Std: 2, Ctrl: 2, UI: 2})
	region := &shm.Region{Data: make([]byte, hdr.RegionSize)}

	mbBuf := make([]byte, shm.MailboxSize)
	mb := shm.NewMailboxView(mbBuf)
	mb.SetCompletedBlockID(0)

	out := make([]float32, blockSize*channels)
	Mix(out, 1, blockSize, channels, []TrackSource{{Header: hdr, Region: region, Mailbox: mb, ChannelCount: channels}})

	for _, v := range out {
		if v != 0 {
			t.Fatalf("expected silence for a track lagging behind the requested block, got %f", v)
		}
	}
}
