// Command dawengine runs the multi-track engine: it owns the timebase,
// scheduler, patcher graph, plugin host controllers, and UI shared-memory
// region for one project.
package main

import (
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/charmbracelet/log"

	"github.com/dawforge/engine/internal/config"
	"github.com/dawforge/engine/internal/dawlog"
	"github.com/dawforge/engine/internal/engine"
	"github.com/dawforge/engine/internal/host"
	"github.com/dawforge/engine/internal/shm"
)

func main() {
	os.Exit(run())
}

func run() int {
	cfg, err := config.Load(os.Args[1:])
	if err != nil {
		dawlog.Errorf("dawengine: config", "err", err)
		return 1
	}
	if cfg.SchedulerLog {
		dawlog.SetLevel(log.DebugLevel)
	}

	e := engine.New(cfg)

	uiHeader := shm.BuildUIHeader(64, 64)
	uiRegion, err := shm.Create(cfg.UIShmName, uiHeader.RegionSize)
	if err != nil {
		dawlog.Errorf("dawengine: ui shm create", "err", err)
		return 1
	}
	defer uiRegion.Close()
	e.BindUIRegion(uiRegion, uiHeader)

	geo := host.Geometry{BlockSize: 512, SampleRate: 48000, Channels: 2, NumBlocks: 2, RingStdCap: 256, RingCtrlCap: 64}
	if cfg.SocketPath != "" && cfg.PluginPath != "" {
		if err := e.AddTrack(1, cfg.SocketPath, cfg.PluginPath, cfg.PluginPath, geo); err != nil {
			dawlog.Errorf("dawengine: add track", "err", err)
			return 1
		}
	}

	e.Start()
	defer e.Shutdown()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	var deadline <-chan time.Time
	if cfg.RunSeconds > 0 {
		deadline = time.After(time.Duration(cfg.RunSeconds) * time.Second)
	}

	ticker := time.NewTicker(10666 * time.Microsecond) // ~one 512-sample block at 48kHz
	defer ticker.Stop()

	for {
		select {
		case <-stop:
			e.Stop()
			return 0
		case <-deadline:
			e.Stop()
			return 0
		case <-ticker.C:
			e.PumpOnce()
		}
	}
}

