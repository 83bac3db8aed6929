package shm

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestRingWriteReadRoundTrip(t *testing.T) {
	buf := make([]byte, RingSize(8))
	r := NewRing(buf, 8, true)

	require.True(t, r.Write(Entry{SampleTime: 1, Type: EventNoteOn}))
	require.True(t, r.Write(Entry{SampleTime: 2, Type: EventNoteOff}))

	e1, ok := r.Read()
	require.True(t, ok)
	require.Equal(t, uint64(1), e1.SampleTime)

	e2, ok := r.Read()
	require.True(t, ok)
	require.Equal(t, uint64(2), e2.SampleTime)

	_, ok = r.Read()
	require.False(t, ok)
}

func TestRingReportsFullWithOneSlotReserved(t *testing.T) {
	buf := make([]byte, RingSize(4))
	r := NewRing(buf, 4, true)

	// Capacity 4 holds at most 3 usable entries.
	require.True(t, r.Write(Entry{SampleTime: 1}))
	require.True(t, r.Write(Entry{SampleTime: 2}))
	require.True(t, r.Write(Entry{SampleTime: 3}))
	require.True(t, r.Full())
	require.False(t, r.Write(Entry{SampleTime: 4}))

	_, ok := r.Read()
	require.True(t, ok)
	require.False(t, r.Full())
	require.True(t, r.Write(Entry{SampleTime: 4}))
}

func TestRingAttachSharesState(t *testing.T) {
	buf := make([]byte, RingSize(8))
	producer := NewRing(buf, 8, true)
	consumer := NewRing(buf, 8, false)

	require.True(t, producer.Write(Entry{SampleTime: 42}))
	e, ok := consumer.Read()
	require.True(t, ok)
	require.Equal(t, uint64(42), e.SampleTime)
}
