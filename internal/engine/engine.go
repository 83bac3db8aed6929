// Package engine wires the timebase, patcher graph, per-track block
// scheduler, plugin host controllers, completion consumer, parameter
// mirrors, and mixer into one running instance.
package engine

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/dawforge/engine/internal/config"
	"github.com/dawforge/engine/internal/consumer"
	"github.com/dawforge/engine/internal/dawlog"
	"github.com/dawforge/engine/internal/host"
	"github.com/dawforge/engine/internal/mixer"
	"github.com/dawforge/engine/internal/model"
	"github.com/dawforge/engine/internal/parammirror"
	"github.com/dawforge/engine/internal/patcher"
	"github.com/dawforge/engine/internal/scheduler"
	"github.com/dawforge/engine/internal/shm"
	"github.com/dawforge/engine/internal/timebase"
	"github.com/dawforge/engine/internal/uiproto"
)

// trackResources bundles one track's out-of-process plugin host wiring:
// its shared-memory region, control-socket controller, and parameter
// mirror.
type trackResources struct {
	geometry   host.Geometry
	hostBinary string
	pluginPath string
	socketName string

	region  *shm.Region
	header  shm.Header
	mailbox *shm.MailboxView
	ctrl    *host.Controller
	mirror  *parammirror.Mirror
}

// Engine owns every long-lived piece of process state: the project
// (guarded by TracksMutex via model.Project's own mutex), the producer,
// the consumer, and one Controller/Mirror pair per track.
type Engine struct {
	Config config.Config

	mu      sync.Mutex // ControllerMutex: guards trackResources map membership
	tracks  map[int]*trackResources
	project *model.Project

	base timebase.Base
	pdc  timebase.PDC

	producer *scheduler.Producer
	consumer *consumer.Consumer

	queue *Queue

	running atomic.Bool

	uiRegion *shm.Region
	uiHeader shm.UIHeader
	uiView   *shm.UIVersionView

	nextBlockID uint64
	transport   uint64
}

// New constructs an Engine from cfg. The patcher graph's worker pool is
// gated on cfg.PatcherParallel.
func New(cfg config.Config) *Engine {
	base := timebase.New(48000, timebase.DefaultTempo)
	pdc := timebase.NewPDC(2, 512)
	loop := timebase.LoopRange{Start: 0, End: timebase.NanoticksPerQuarter * 4 * 64}

	prod := scheduler.New(base, pdc, loop)
	if g := patcher.Global().Snapshot(); g != nil {
		prod.Graph = g
	}
	if cfg.PatcherParallel {
		prod.WorkerPool = patcher.NewWorkerPoolFromEnv()
	}

	e := &Engine{
		Config:   cfg,
		tracks:   map[int]*trackResources{},
		project:  model.NewProject(),
		base:     base,
		pdc:      pdc,
		producer: prod,
		queue:    NewQueue(64),
	}
	e.consumer = consumer.New(e)
	prod.Mirror = &mirrorFanout{e: e}
	return e
}

// mirrorFanout implements scheduler.MirrorSink by routing each update to
// the originating track's own parameter mirror, since a single Producer
// drives every track but each track's restart replay is independent.
type mirrorFanout struct{ e *Engine }

func (f *mirrorFanout) Update(trackID int, uid16 uint16, value float32, targetPluginIndex int) {
	f.e.mu.Lock()
	res, ok := f.e.tracks[trackID]
	f.e.mu.Unlock()
	if ok {
		res.mirror.Update(trackID, uid16, value, targetPluginIndex)
	}
}

// Project returns the engine's project model, for UI/test code that wants
// direct read access.
func (e *Engine) Project() *model.Project { return e.project }

// BindUIRegion attaches the UI shared-memory region PumpOnce publishes
// snapshots into.
func (e *Engine) BindUIRegion(region *shm.Region, header shm.UIHeader) {
	e.uiRegion = region
	e.uiHeader = header
	e.uiView = shm.NewUIVersionView(region.Data[:shm.UIVersionFieldsSize])
}

// AddTrack registers a new track, launches (unless cfg.NoSpawn) its
// out-of-process plugin host, connects the control socket and shared
// memory region, and wires its consumer/watchdog/parameter-mirror entries.
func (e *Engine) AddTrack(id int, socketName, pluginPath, hostBinary string, geo host.Geometry) error {
	e.project.AddTrack(id)

	caps := shm.RingCaps{Std: 256, Ctrl: 64, UI: 64}
	hdr := shm.BuildHeader(geo.BlockSize, geo.SampleRate, geo.NumBlocks, geo.Channels, geo.Channels, caps)

	region, err := shm.Create(fmt.Sprintf("dawengine-track-%d", id), hdr.RegionSize)
	if err != nil {
		return fmt.Errorf("engine: AddTrack %d: %w", id, err)
	}
	shm.WriteHeader(region.Data, hdr)

	ctrl := host.New(socketName, pluginPath)
	if !e.Config.NoSpawn {
		if err := ctrl.Launch(hostBinary); err != nil {
			region.Close()
			return err
		}
	}
	if err := ctrl.Connect(geo); err != nil {
		region.Close()
		return err
	}

	mailbox := shm.NewMailboxView(region.Data[hdr.MailboxOffset : hdr.MailboxOffset+shm.MailboxSize])

	res := &trackResources{
		geometry: geo, hostBinary: hostBinary, pluginPath: pluginPath, socketName: socketName,
		region: region, header: hdr, mailbox: mailbox, ctrl: ctrl, mirror: parammirror.New(),
	}

	e.mu.Lock()
	e.tracks[id] = res
	e.mu.Unlock()

	e.consumer.RegisterTrack(id, ctrl, mailbox, 8)
	return nil
}

// Submit applies a UI command, serialized through the command queue, and
// returns the diff synchronously.
func (e *Engine) Submit(cmd uiproto.Command) uiproto.Diff {
	var diff uiproto.Diff
	_ = e.queue.RunSync(func(ctx context.Context) error {
		controllers := e.controllerSnapshot()
		diff = uiproto.Dispatch(e.project, cmd, controllers)
		return nil
	})
	return diff
}

func (e *Engine) controllerSnapshot() map[int]*host.Controller {
	e.mu.Lock()
	defer e.mu.Unlock()
	out := make(map[int]*host.Controller, len(e.tracks))
	for id, res := range e.tracks {
		out[id] = res.ctrl
	}
	return out
}

// Restart implements consumer.Restarter: relaunches a track's host
// process, reconnects, and replays its parameter mirror before clearing
// the watchdog.
func (e *Engine) Restart(trackID int) {
	e.mu.Lock()
	res, ok := e.tracks[trackID]
	e.mu.Unlock()
	if !ok {
		return
	}

	res.ctrl.Disconnect()
	res.ctrl = host.New(res.socketName, res.pluginPath)
	if !e.Config.NoSpawn {
		if err := res.ctrl.Launch(res.hostBinary); err != nil {
			dawlog.Errorf("engine: restart launch failed", "track", trackID, "err", err)
			return
		}
	}
	if err := res.ctrl.Connect(res.geometry); err != nil {
		dawlog.Errorf("engine: restart connect failed", "track", trackID, "err", err)
		return
	}

	gate := e.base.NanoticksToSamples(e.transport)
	buf := make([]byte, shm.RingSize(64))
	ring := shm.NewRing(buf, 64, true)
	if !parammirror.Replay(res.mirror, ring, e.nextBlockID, gate) {
		dawlog.Warnf("engine: parameter replay ring overflow on restart", "track", trackID)
	}
	res.mailbox.SetReplayAckSampleTime(gate)
	e.consumer.ResetWatchdog(trackID)
}

// PumpOnce runs one block's worth of work across every track: build
// events, PDC-compensate and write them, trigger the host's segments,
// poll the consumer, mix completed audio, and publish the UI snapshot.
func (e *Engine) PumpOnce() {
	blockID := e.nextBlockID
	e.nextBlockID++

	blockTicks := e.base.SamplesToNanoticks(512, e.transport)
	windows := e.producer.Windows(e.transport, blockTicks)
	var sources []mixer.TrackSource

	e.mu.Lock()
	snapshotTracks := make(map[int]*trackResources, len(e.tracks))
	for id, res := range e.tracks {
		snapshotTracks[id] = res
	}
	e.mu.Unlock()

	for _, track := range e.project.Tracks() {
		res, ok := snapshotTracks[track.ID]
		if !ok {
			continue
		}

		clip := track.ClipSnapshot()
		state := track.StateSnapshot()
		harmony := e.project.HarmonySnapshot()
		quantize := track.HarmonyQuantize()

		ringBuf := make([]byte, shm.RingSize(256))
		ring := shm.NewRing(ringBuf, 256, true)

		for _, w := range windows {
			events := e.producer.BuildBlockEvents(track.ID, clip, state, harmony, quantize, w[0], w[1])
			compensatedStart := e.pdc.CompensatedStart(e.base.NanoticksToSamples(w[0]))
			e.producer.CompensateAndWrite(track.ID, blockID, compensatedStart, events, ring)
		}

		for _, seg := range state.Chain.Segments() {
			_ = res.ctrl.ProcessBlock(host.ProcessBlockMsg{
				BlockID:           blockID,
				EngineSampleStart: e.base.NanoticksToSamples(e.transport),
				SegmentStart:      uint32(seg[0]),
				SegmentLen:        uint32(seg[1] - seg[0]),
			})
		}

		e.consumer.NotifyBlockSent(track.ID, blockID)
		sources = append(sources, mixer.TrackSource{
			Header: res.header, Region: res.region, Mailbox: res.mailbox,
			ChannelCount: res.geometry.Channels,
		})
	}

	e.consumer.Poll()

	out := make([]float32, 512*2)
	mixer.Mix(out, blockID, 512, 2, sources)

	if e.uiView != nil {
		consumer.PublishUISnapshot(e.uiView, e.project, e.transport, 1)
	}

	e.transport += blockTicks
}

// Running reports whether the engine's main loop is currently active.
func (e *Engine) Running() bool { return e.running.Load() }

// Start begins the UI-command queue and marks the engine running. Stop
// clears the running flag; callers drive PumpOnce from their own audio
// callback or test loop.
func (e *Engine) Start() {
	e.queue.Start()
	e.running.Store(true)
}

// Stop marks the engine as no longer running and drains the command queue.
func (e *Engine) Stop() {
	e.running.Store(false)
	e.queue.Close()
}

// Shutdown disconnects every track's plugin host controller.
func (e *Engine) Shutdown() {
	e.mu.Lock()
	defer e.mu.Unlock()
	for _, res := range e.tracks {
		res.ctrl.Disconnect()
	}
}
