// Package consumer implements the completion consumer: the thread that
// polls each track's mailbox for host-side block completion, drives that
// track's watchdog, publishes the UI snapshot, and orchestrates a restart
// when a host hangs.
package consumer

import (
	"sync"

	"github.com/dawforge/engine/internal/dawlog"
	"github.com/dawforge/engine/internal/host"
	"github.com/dawforge/engine/internal/model"
	"github.com/dawforge/engine/internal/shm"
	"github.com/dawforge/engine/internal/watchdog"
)

// Restarter relaunches a track's host process and replays its parameter
// mirror once the new process is ready (wired to internal/parammirror and
// internal/host by the engine).
type Restarter interface {
	Restart(trackID int)
}

// trackEntry bundles one track's consumer-visible state: its controller,
// mailbox view, watchdog, and the next block id the consumer expects to
// see completed.
type trackEntry struct {
	controller *host.Controller
	mailbox    *shm.MailboxView
	watchdog   *watchdog.Watchdog
	nextBlock  uint64
}

// Consumer polls every registered track's mailbox once per pass.
type Consumer struct {
	mu        sync.Mutex
	tracks    map[int]*trackEntry
	restarter Restarter
}

// New returns a consumer that calls restarter.Restart(trackID) whenever a
// track's watchdog fires.
func New(restarter Restarter) *Consumer {
	return &Consumer{tracks: map[int]*trackEntry{}, restarter: restarter}
}

// RegisterTrack wires a track's controller and mailbox into the consumer,
// creating its watchdog with the given hard-timeout block count.
func (c *Consumer) RegisterTrack(trackID int, ctrl *host.Controller, mailbox *shm.MailboxView, hardTimeoutBlocks int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	te := &trackEntry{controller: ctrl, mailbox: mailbox}
	te.watchdog = watchdog.New(hardTimeoutBlocks, func() {
		dawlog.Warnf("consumer: watchdog fired, restarting track", "track", trackID)
		if c.restarter != nil {
			c.restarter.Restart(trackID)
		}
	})
	c.tracks[trackID] = te
}

// Unregister drops a track's consumer-visible state, e.g. when the track is
// deleted.
func (c *Consumer) Unregister(trackID int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.tracks, trackID)
}

// NotifyBlockSent records the block id the producer just handed to the
// host for trackID, so the next Poll pass knows what "on time" means.
func (c *Consumer) NotifyBlockSent(trackID int, blockID uint64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if te, ok := c.tracks[trackID]; ok {
		te.nextBlock = blockID
	}
}

// ResetWatchdog clears a track's late-block streak, called once a restart
// and parameter-mirror replay complete.
func (c *Consumer) ResetWatchdog(trackID int) {
	c.mu.Lock()
	te, ok := c.tracks[trackID]
	c.mu.Unlock()
	if ok {
		te.watchdog.Reset()
	}
}

// Poll checks every registered track's mailbox once: a track is "late" if
// its completedBlockId has not caught up to the block the producer most
// recently sent. Returns the set of track ids whose completedBlockId
// advanced this pass, for the UI snapshot writer to pick up.
func (c *Consumer) Poll() []int {
	c.mu.Lock()
	entries := make(map[int]*trackEntry, len(c.tracks))
	for id, te := range c.tracks {
		entries[id] = te
	}
	c.mu.Unlock()

	var advanced []int
	for id, te := range entries {
		completed := te.mailbox.CompletedBlockID()
		late := completed < te.nextBlock
		te.watchdog.Tick(late)
		if completed >= te.nextBlock && te.nextBlock > 0 {
			advanced = append(advanced, id)
		}
	}
	return advanced
}

// CompletedSampleTime returns the most recent completed sample time for a
// track's mailbox, used by internal/mixer to gate playback.
func (c *Consumer) CompletedSampleTime(trackID int) (uint64, bool) {
	c.mu.Lock()
	te, ok := c.tracks[trackID]
	c.mu.Unlock()
	if !ok {
		return 0, false
	}
	return te.mailbox.CompletedSampleTime(), true
}

// PublishUISnapshot writes the project's harmony version, the playhead,
// the transport state and the track count into the UI region using the
// double-bump protocol: BeginWrite, field writes, EndWrite. It writes no
// clip version and no clip-window or harmony snapshot data.
func PublishUISnapshot(view *shm.UIVersionView, project *model.Project, playheadNanotick uint64, transportState uint32) {
	view.BeginWrite()
	view.SetHarmonyVersion(project.HarmonyVersion())
	view.SetPlayhead(playheadNanotick)
	view.SetTransportState(transportState)
	view.SetTrackCount(uint32(len(project.Tracks())))
	view.EndWrite()
}
