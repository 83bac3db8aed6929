package shm

import (
	"fmt"
	"unsafe"
)

// Magic and version constants identifying a region's layout.
const (
	Magic        uint32 = 0x30415744 // 'DAW0'
	Version      uint32 = 6
	UIMagic      uint32 = 0x30495544 // 'DUI0'
	ControlMagic uint32 = 0x30485744 // 'DWH0' ('DWH0' framed control messages)
)

// Header describes a per-track host region's geometry. Offsets are all
// 64-byte aligned and measured from the start of the region.
type Header struct {
	Magic      uint32
	Version    uint32
	BlockSize  int
	SampleRate int
	NumBlocks  int
	ChannelsIn int
	ChannelOut int

	ChannelStrideBytes int

	AudioInOffset  int
	AudioOutOffset int
	RingStdOffset  int
	RingCtrlOffset int
	RingUIOffset   int
	MailboxOffset  int

	RegionSize int
}

// RingCaps specifies the power-of-two capacities for the three per-track
// rings.
type RingCaps struct {
	Std  uint64
	Ctrl uint64
	UI   uint64
}

// HeaderSize is the on-wire header footprint, aligned.
const HeaderSize = Align * 4

// MailboxSize is the aligned size of the mailbox struct (completedBlockId,
// completedSampleTime, replayAckSampleTime).
const MailboxSize = Align

// BuildHeader computes region geometry and all offsets for a per-track
// region given block/sample/channel geometry and ring capacities:
// audio-in precedes audio-out, and each ring is preceded by its header
// block.
func BuildHeader(blockSize, sampleRate, numBlocks, channelsIn, channelsOut int, caps RingCaps) Header {
	h := Header{
		Magic:      Magic,
		Version:    Version,
		BlockSize:  blockSize,
		SampleRate: sampleRate,
		NumBlocks:  numBlocks,
		ChannelsIn: channelsIn,
		ChannelOut: channelsOut,
	}

	h.ChannelStrideBytes = alignUp(blockSize * 4) // 32-bit float interleaved per channel

	offset := HeaderSize
	h.AudioInOffset = offset
	offset += alignUp(h.ChannelStrideBytes * channelsIn * numBlocks)

	h.AudioOutOffset = offset
	offset += alignUp(h.ChannelStrideBytes * channelsOut * numBlocks)

	h.RingStdOffset = offset
	offset += RingSize(caps.Std)

	h.RingCtrlOffset = offset
	offset += RingSize(caps.Ctrl)

	h.RingUIOffset = offset
	offset += RingSize(caps.UI)

	h.MailboxOffset = offset
	offset += MailboxSize

	h.RegionSize = offset
	return h
}

// SharedMemorySize returns the total region size for the given geometry.
func SharedMemorySize(blockSize, sampleRate, numBlocks, channelsIn, channelsOut int, caps RingCaps) int {
	return BuildHeader(blockSize, sampleRate, numBlocks, channelsIn, channelsOut, caps).RegionSize
}

// Verify checks the header's magic and version against what this build
// expects. An incompatible version must fail connect.
func (h Header) Verify() error {
	if h.Magic != Magic {
		return errBadMagic
	}
	if h.Version != Version {
		return errBadVersion
	}
	return nil
}

// AudioSlot returns the byte offset of block slot blockID within an
// audio-in or audio-out region, given the region's base offset. Slot
// index = blockId mod numBlocks.
func (h Header) AudioSlot(base int, blockID uint64, channelCount int) int {
	slot := int(blockID) % h.NumBlocks
	return base + slot*h.ChannelStrideBytes*channelCount
}

// Mailbox is the cross-process completion/ack struct.
type Mailbox struct {
	CompletedBlockID    uint64
	CompletedSampleTime uint64
	ReplayAckSampleTime uint64
}

// wireHeader is Header's fixed-width on-the-wire mirror, written into the
// first HeaderSize bytes of a region so a second process mapping the same
// region can verify magic/version/geometry without any side channel.
type wireHeader struct {
	Magic              uint32
	Version            uint32
	BlockSize          uint32
	SampleRate         uint32
	NumBlocks          uint32
	ChannelsIn         uint32
	ChannelOut         uint32
	ChannelStrideBytes uint32
	AudioInOffset      uint32
	AudioOutOffset     uint32
	RingStdOffset      uint32
	RingCtrlOffset     uint32
	RingUIOffset       uint32
	MailboxOffset      uint32
	RegionSize         uint32
}

func toWire(h Header) wireHeader {
	return wireHeader{
		Magic: h.Magic, Version: h.Version,
		BlockSize: uint32(h.BlockSize), SampleRate: uint32(h.SampleRate), NumBlocks: uint32(h.NumBlocks),
		ChannelsIn: uint32(h.ChannelsIn), ChannelOut: uint32(h.ChannelOut),
		ChannelStrideBytes: uint32(h.ChannelStrideBytes),
		AudioInOffset:      uint32(h.AudioInOffset), AudioOutOffset: uint32(h.AudioOutOffset),
		RingStdOffset: uint32(h.RingStdOffset), RingCtrlOffset: uint32(h.RingCtrlOffset), RingUIOffset: uint32(h.RingUIOffset),
		MailboxOffset: uint32(h.MailboxOffset), RegionSize: uint32(h.RegionSize),
	}
}

func fromWire(w wireHeader) Header {
	return Header{
		Magic: w.Magic, Version: w.Version,
		BlockSize: int(w.BlockSize), SampleRate: int(w.SampleRate), NumBlocks: int(w.NumBlocks),
		ChannelsIn: int(w.ChannelsIn), ChannelOut: int(w.ChannelOut),
		ChannelStrideBytes: int(w.ChannelStrideBytes),
		AudioInOffset:      int(w.AudioInOffset), AudioOutOffset: int(w.AudioOutOffset),
		RingStdOffset: int(w.RingStdOffset), RingCtrlOffset: int(w.RingCtrlOffset), RingUIOffset: int(w.RingUIOffset),
		MailboxOffset: int(w.MailboxOffset), RegionSize: int(w.RegionSize),
	}
}

// WriteHeader writes h into the first HeaderSize bytes of buf.
func WriteHeader(buf []byte, h Header) {
	*(*wireHeader)(unsafe.Pointer(&buf[0])) = toWire(h)
}

// ReadHeader reads a Header back out of the first HeaderSize bytes of buf,
// the way a second process mapping the same region verifies magic and
// version at connect time.
func ReadHeader(buf []byte) (Header, error) {
	if len(buf) < HeaderSize {
		return Header{}, fmt.Errorf("shm: region too small for header (%d bytes)", len(buf))
	}
	w := *(*wireHeader)(unsafe.Pointer(&buf[0]))
	return fromWire(w), nil
}
