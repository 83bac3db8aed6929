package consumer

import (
	"testing"

	"github.com/dawforge/engine/internal/model"
	"github.com/dawforge/engine/internal/shm"
)

type fakeRestarter struct {
	restarted []int
}

func (f *fakeRestarter) Restart(trackID int) { f.restarted = append(f.restarted, trackID) }

func newMailbox() *shm.MailboxView {
	buf := make([]byte, shm.MailboxSize)
	return shm.NewMailboxView(buf)
}

func TestConsumerFiresRestartAfterSustainedLateness(t *testing.T) {
	r := &fakeRestarter{}
	c := New(r)
	mb := newMailbox()
	c.RegisterTrack(1, nil, mb, 2)

	c.NotifyBlockSent(1, 5)
	c.Poll()
	c.Poll()

	if len(r.restarted) != 1 || r.restarted[0] != 1 {
		t.Fatalf("expected exactly one restart for track 1, got %v", r.restarted)
	}
}

func TestConsumerDoesNotRestartWhenCaughtUp(t *testing.T) {
	r := &fakeRestarter{}
	c := New(r)
	mb := newMailbox()
	mb.SetCompletedBlockID(5)
	c.RegisterTrack(1, nil, mb, 2)

	c.NotifyBlockSent(1, 5)
	c.Poll()
	c.Poll()
	c.Poll()

	if len(r.restarted) != 0 {
		t.Fatalf("expected no restarts once the mailbox caught up, got %v", r.restarted)
	}
}

func TestPublishUISnapshotBumpsVersionEven(t *testing.T) {
	buf := make([]byte, shm.UIVersionFieldsSize)
	view := shm.NewUIVersionView(buf)
	proj := model.NewProject()

	PublishUISnapshot(view, proj, 1234, 1)

	if view.Version()%2 != 0 {
		t.Fatalf("expected an even version after a completed publish")
	}
	if view.Playhead() != 1234 {
		t.Fatalf("expected playhead to be published")
	}
}
