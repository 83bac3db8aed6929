package shm

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestBuildHeaderAlignment(t *testing.T) {
	h := BuildHeader(512, 48000, 4, 2, 2, RingCaps{Std: 1024, Ctrl: 64, UI: 256})
	require.Equal(t, 0, h.AudioInOffset%Align)
	require.Equal(t, 0, h.AudioOutOffset%Align)
	require.Equal(t, 0, h.RingStdOffset%Align)
	require.Equal(t, 0, h.RingCtrlOffset%Align)
	require.Equal(t, 0, h.RingUIOffset%Align)
	require.Equal(t, 0, h.MailboxOffset%Align)
	require.Equal(t, 0, h.RegionSize%Align)
	require.Less(t, h.AudioInOffset, h.AudioOutOffset)
	require.Less(t, h.AudioOutOffset, h.RingStdOffset)
}

func TestHeaderVerifyRejectsBadVersion(t *testing.T) {
	h := BuildHeader(512, 48000, 4, 2, 2, RingCaps{Std: 1024, Ctrl: 64, UI: 256})
	require.NoError(t, h.Verify())
	h.Version = 5
	require.Error(t, h.Verify())
}

func TestAudioSlotWrapsModNumBlocks(t *testing.T) {
	h := BuildHeader(512, 48000, 4, 2, 2, RingCaps{Std: 1024, Ctrl: 64, UI: 256})
	s0 := h.AudioSlot(h.AudioInOffset, 0, 2)
	s4 := h.AudioSlot(h.AudioInOffset, 4, 2)
	require.Equal(t, s0, s4)
}

func TestWriteHeaderReadHeaderRoundTrip(t *testing.T) {
	h := BuildHeader(512, 48000, 4, 2, 2, RingCaps{Std: 1024, Ctrl: 64, UI: 256})
	buf := make([]byte, h.RegionSize)
	WriteHeader(buf, h)
	got, err := ReadHeader(buf)
	require.NoError(t, err)
	require.Equal(t, h, got)
	require.NoError(t, got.Verify())
}

func TestReadHeaderRejectsTooSmallBuffer(t *testing.T) {
	_, err := ReadHeader(make([]byte, 4))
	require.Error(t, err)
}
