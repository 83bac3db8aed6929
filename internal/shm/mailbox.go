package shm

import (
	"sync/atomic"
	"unsafe"
)

// MailboxView is an atomic accessor over a Mailbox laid out in shared
// memory at a fixed offset. One writer (the host child), one reader (the
// consumer thread) per field; no lock crosses the process boundary, so
// every field is a plain atomic.
type MailboxView struct {
	buf []byte
}

// NewMailboxView binds a MailboxView to the mailbox region within buf.
func NewMailboxView(buf []byte) *MailboxView {
	return &MailboxView{buf: buf}
}

func (m *MailboxView) completedBlockIDPtr() *uint64 { return (*uint64)(unsafe.Pointer(&m.buf[0])) }
func (m *MailboxView) completedSampleTimePtr() *uint64 {
	return (*uint64)(unsafe.Pointer(&m.buf[8]))
}
func (m *MailboxView) replayAckSampleTimePtr() *uint64 {
	return (*uint64)(unsafe.Pointer(&m.buf[16]))
}

// CompletedBlockID / SetCompletedBlockID: monotonically increasing, written
// by the host, read by the consumer thread with acquire semantics.
func (m *MailboxView) CompletedBlockID() uint64 {
	return atomic.LoadUint64(m.completedBlockIDPtr())
}
func (m *MailboxView) SetCompletedBlockID(v uint64) {
	atomic.StoreUint64(m.completedBlockIDPtr(), v)
}

func (m *MailboxView) CompletedSampleTime() uint64 {
	return atomic.LoadUint64(m.completedSampleTimePtr())
}
func (m *MailboxView) SetCompletedSampleTime(v uint64) {
	atomic.StoreUint64(m.completedSampleTimePtr(), v)
}

func (m *MailboxView) ReplayAckSampleTime() uint64 {
	return atomic.LoadUint64(m.replayAckSampleTimePtr())
}
func (m *MailboxView) SetReplayAckSampleTime(v uint64) {
	atomic.StoreUint64(m.replayAckSampleTimePtr(), v)
}
