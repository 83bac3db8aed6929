package shm

import "sync/atomic"

// UI-facing capacity limits.
const (
	MaxClipNotes    = 4096
	MaxClipChords   = 1024
	MaxHarmonyEvents = 512
	MaxTracks       = 8
)

// UIHeader describes the UI shared-memory region's geometry: the
// double-bump uiVersion counter, playhead/version fields, and offsets into
// the command/diff rings and the clip-window/harmony snapshot windows.
type UIHeader struct {
	Magic   uint32
	Version uint32

	RingUIInOffset       int
	RingUIOutOffset      int
	ClipWindowOffset     int
	HarmonySnapshotOffset int
	TransportStateOffset int

	RegionSize int
}

// UIVersionFieldsSize is the fixed-size block holding uiVersion (double-bump),
// uiClipVersion, uiHarmonyVersion, uiGlobalNanotickPlayhead,
// uiVisualSampleCount, uiTransportState and uiTrackCount, aligned.
const UIVersionFieldsSize = Align

// ClipWindowEntrySize is the per-note/per-chord serialized entry size within
// the clip-window snapshot (trackId + nanotick range + event payload).
const ClipWindowEntrySize = 64

// HarmonyEntrySize is the per-event serialized size within the harmony
// snapshot.
const HarmonyEntrySize = 32

// ClipWindowSize returns the byte size of the clip-window snapshot region:
// capped at MaxClipNotes + MaxClipChords entries.
func ClipWindowSize() int {
	return alignUp((MaxClipNotes + MaxClipChords) * ClipWindowEntrySize)
}

// HarmonySnapshotSize returns the byte size of the harmony snapshot region.
func HarmonySnapshotSize() int {
	return alignUp(MaxHarmonyEvents * HarmonyEntrySize)
}

// BuildUIHeader computes the UI region's offsets.
func BuildUIHeader(uiInCap, uiOutCap uint64) UIHeader {
	h := UIHeader{Magic: UIMagic, Version: Version}

	offset := UIVersionFieldsSize
	h.RingUIInOffset = offset
	offset += RingSize(uiInCap)

	h.RingUIOutOffset = offset
	offset += RingSize(uiOutCap)

	h.ClipWindowOffset = offset
	offset += ClipWindowSize()

	h.HarmonySnapshotOffset = offset
	offset += HarmonySnapshotSize()

	h.TransportStateOffset = offset
	offset += Align

	h.RegionSize = offset
	return h
}

// UIVersionView is an atomic accessor over the UI region's version-fields
// block: a double-bump uiVersion counter (odd while the consumer is
// mid-write, even and stable once published) plus the per-field versions
// and transport snapshot a UI client reads without ever blocking the
// producer or consumer threads.
type UIVersionView struct {
	buf []byte
}

// NewUIVersionView binds a view to the version-fields block within buf.
func NewUIVersionView(buf []byte) *UIVersionView {
	return &UIVersionView{buf: buf}
}

func (v *UIVersionView) uiVersionPtr() *uint64          { return (*uint64)(ptrAt(v.buf, 0)) }
func (v *UIVersionView) clipVersionPtr() *uint64        { return (*uint64)(ptrAt(v.buf, 8)) }
func (v *UIVersionView) harmonyVersionPtr() *uint64     { return (*uint64)(ptrAt(v.buf, 16)) }
func (v *UIVersionView) playheadPtr() *uint64            { return (*uint64)(ptrAt(v.buf, 24)) }
func (v *UIVersionView) visualSampleCountPtr() *uint64   { return (*uint64)(ptrAt(v.buf, 32)) }
func (v *UIVersionView) transportStatePtr() *uint32      { return (*uint32)(ptrAt(v.buf, 40)) }
func (v *UIVersionView) trackCountPtr() *uint32          { return (*uint32)(ptrAt(v.buf, 44)) }

// BeginWrite bumps uiVersion to the next odd number, signalling a UI
// reader to retry if it observes an odd value mid-read.
func (v *UIVersionView) BeginWrite() {
	cur := atomic.LoadUint64(v.uiVersionPtr())
	atomic.StoreUint64(v.uiVersionPtr(), cur+1)
}

// EndWrite bumps uiVersion to the next even number, publishing the fields
// written since BeginWrite.
func (v *UIVersionView) EndWrite() {
	cur := atomic.LoadUint64(v.uiVersionPtr())
	atomic.StoreUint64(v.uiVersionPtr(), cur+1)
}

// Version returns the current double-bump counter. Readers must retry
// their whole read if this is odd, or if it changed across the read.
func (v *UIVersionView) Version() uint64 { return atomic.LoadUint64(v.uiVersionPtr()) }

func (v *UIVersionView) SetClipVersion(n uint64)    { atomic.StoreUint64(v.clipVersionPtr(), n) }
func (v *UIVersionView) ClipVersion() uint64        { return atomic.LoadUint64(v.clipVersionPtr()) }
func (v *UIVersionView) SetHarmonyVersion(n uint64) { atomic.StoreUint64(v.harmonyVersionPtr(), n) }
func (v *UIVersionView) HarmonyVersion() uint64     { return atomic.LoadUint64(v.harmonyVersionPtr()) }
func (v *UIVersionView) SetPlayhead(n uint64)       { atomic.StoreUint64(v.playheadPtr(), n) }
func (v *UIVersionView) Playhead() uint64           { return atomic.LoadUint64(v.playheadPtr()) }
func (v *UIVersionView) SetVisualSampleCount(n uint64) {
	atomic.StoreUint64(v.visualSampleCountPtr(), n)
}
func (v *UIVersionView) VisualSampleCount() uint64 { return atomic.LoadUint64(v.visualSampleCountPtr()) }
func (v *UIVersionView) SetTransportState(n uint32) { atomic.StoreUint32(v.transportStatePtr(), n) }
func (v *UIVersionView) TransportState() uint32     { return atomic.LoadUint32(v.transportStatePtr()) }
func (v *UIVersionView) SetTrackCount(n uint32)     { atomic.StoreUint32(v.trackCountPtr(), n) }
func (v *UIVersionView) TrackCount() uint32         { return atomic.LoadUint32(v.trackCountPtr()) }
