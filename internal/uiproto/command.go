// Package uiproto applies UI commands against the project model under
// optimistic concurrency and returns one diff per command. Commands and
// diffs are plain Go values: this package does not read the UI-in ring or
// write the UI-out ring.
package uiproto

import (
	"fmt"

	"github.com/dawforge/engine/internal/host"
	"github.com/dawforge/engine/internal/model"
	"github.com/dawforge/engine/internal/patcher"
)

// CmdType enumerates every UI-originated command the engine accepts.
type CmdType int

const (
	CmdLoadPluginOnTrack CmdType = iota
	CmdTogglePlay
	CmdWriteNote
	CmdDeleteNote
	CmdWriteChord
	CmdDeleteChord
	CmdWriteHarmony
	CmdDeleteHarmony
	CmdUndo
	CmdRedo
	CmdSetLoopRange
	CmdAddDevice
	CmdRemoveDevice
	CmdMoveDevice
	CmdUpdateDevice
	CmdSetTrackRouting
	CmdAddModLink
	CmdRemoveModLink
	CmdSetModLinkUID16
	CmdSetModSourceValue
	CmdAddPatcherNode
	CmdRemovePatcherNode
	CmdConnectPatcherNodes
	CmdSetPatcherNodeConfig
	CmdSetDeviceEuclideanConfig
	CmdSavePatcherPreset
	CmdSetAutomationTarget
	CmdRequestClipWindow
	CmdOpenPluginEditor
	CmdSetTrackHarmonyQuantize
)

// Command is a single UI-originated edit request. Only the fields relevant
// to Type are populated: one tagged-variant struct carries every command
// type rather than one Go struct per command. There is no wire encoding
// of it here.
type Command struct {
	Type CmdType

	TrackID     int
	BaseVersion uint64

	Note  model.Note
	Chord model.Chord

	NoteID  uint32
	ChordID uint32

	Harmony  model.HarmonyEvent
	Harmony2 uint64 // tick for CmdDeleteHarmony

	LoopLo  uint64
	LoopLen uint64

	Device      model.Device
	InsertIndex int
	DeviceID    string
	Bypass      bool
	Euclidean   *model.EuclideanConfig

	Routing model.TrackRouting

	ModLink model.ModLink
	LinkID  string
	UID16   uint16
	ModRef  string
	ModVal  float32

	PatcherNode patcher.Node
	NodeID      int
	SrcNodeID   int
	DstNodeID   int

	PresetName string

	AutomationID string
	Automation   *model.AutomationClip

	WindowStart model.Nanotick
	WindowEnd   model.Nanotick

	PluginSlotIndex int

	HarmonyQuantize bool
}

// DiffKind tags the outcome reported for a processed command.
type DiffKind int

const (
	DiffOK DiffKind = iota
	DiffRejectedStaleVersion
	DiffRejectedNotFound
	DiffError
)

// Diff is the result of applying one Command, echoed back to the UI.
type Diff struct {
	Type        CmdType
	TrackID     int
	Kind        DiffKind
	NewVersion  uint64
	Err         string
	NoteID      uint32
	ChordID     uint32
	Connected   bool
}

// Dispatch applies cmd against project, using controllers (keyed by track
// id) to reach the plugin host for CmdOpenPluginEditor, and returns the
// resulting diff.
func Dispatch(project *model.Project, cmd Command, controllers map[int]*host.Controller) Diff {
	d := Diff{Type: cmd.Type, TrackID: cmd.TrackID}

	track, ok := project.Track(cmd.TrackID)
	projectLevel := cmd.Type == CmdWriteHarmony || cmd.Type == CmdDeleteHarmony || cmd.Type == CmdSetLoopRange
	if !ok && !projectLevel {
		d.Kind = DiffRejectedNotFound
		return d
	}

	switch cmd.Type {
	case CmdWriteNote:
		n, ver, applied := track.WriteNote(cmd.BaseVersion, cmd.Note)
		d.NewVersion = ver
		d.NoteID = n.NoteID
		if !applied {
			d.Kind = DiffRejectedStaleVersion
		}

	case CmdDeleteNote:
		_, ver, applied := track.DeleteNote(cmd.BaseVersion, cmd.NoteID)
		d.NewVersion = ver
		if !applied {
			d.Kind = DiffRejectedStaleVersion
		}

	case CmdWriteChord:
		ch, ver, applied := track.WriteChord(cmd.BaseVersion, cmd.Chord)
		d.NewVersion = ver
		d.ChordID = ch.ChordID
		if !applied {
			d.Kind = DiffRejectedStaleVersion
		}

	case CmdDeleteChord:
		_, ver, applied := track.DeleteChord(cmd.BaseVersion, cmd.ChordID)
		d.NewVersion = ver
		if !applied {
			d.Kind = DiffRejectedStaleVersion
		}

	case CmdWriteHarmony:
		ver, applied := project.WriteHarmony(cmd.BaseVersion, cmd.Harmony)
		d.NewVersion = ver
		if !applied {
			d.Kind = DiffRejectedStaleVersion
		}

	case CmdDeleteHarmony:
		ver, applied := project.DeleteHarmony(cmd.BaseVersion, cmd.Harmony2)
		d.NewVersion = ver
		if !applied {
			d.Kind = DiffRejectedStaleVersion
		}

	case CmdUndo:
		if _, applied := track.UndoLast(); !applied {
			d.Kind = DiffRejectedNotFound
		}

	case CmdRedo:
		if _, applied := track.RedoLast(); !applied {
			d.Kind = DiffRejectedNotFound
		}

	case CmdSetLoopRange:
		project.SetLoopRange(cmd.LoopLo, cmd.LoopLen)

	case CmdAddDevice, CmdLoadPluginOnTrack:
		ver, err := track.MutateChain(func(chain *model.DeviceChain) error {
			return chain.Add(cmd.Device, cmd.InsertIndex)
		})
		d.NewVersion = ver
		setErr(&d, err)

	case CmdRemoveDevice:
		ver, err := track.MutateChain(func(chain *model.DeviceChain) error {
			return chain.Remove(cmd.DeviceID)
		})
		d.NewVersion = ver
		setErr(&d, err)

	case CmdMoveDevice:
		ver, err := track.MutateChain(func(chain *model.DeviceChain) error {
			return chain.Move(cmd.DeviceID, cmd.InsertIndex)
		})
		d.NewVersion = ver
		setErr(&d, err)

	case CmdUpdateDevice, CmdSetDeviceEuclideanConfig:
		ver, err := track.MutateChain(func(chain *model.DeviceChain) error {
			return chain.Update(cmd.DeviceID, cmd.Bypass, cmd.Euclidean)
		})
		d.NewVersion = ver
		setErr(&d, err)

	case CmdSetTrackRouting:
		ver, err := track.SetRouting(cmd.Routing, project.TrackExists)
		d.NewVersion = ver
		setErr(&d, err)

	case CmdAddModLink:
		ver, err := track.MutateMod(func(mod *model.ModRegistry, chain *model.DeviceChain) error {
			return mod.AddLink(cmd.ModLink, chain)
		})
		d.NewVersion = ver
		setErr(&d, err)

	case CmdRemoveModLink:
		ver, err := track.MutateMod(func(mod *model.ModRegistry, chain *model.DeviceChain) error {
			return mod.RemoveLink(cmd.LinkID)
		})
		d.NewVersion = ver
		setErr(&d, err)

	case CmdSetModLinkUID16:
		ver, err := track.MutateMod(func(mod *model.ModRegistry, chain *model.DeviceChain) error {
			return mod.SetLinkUID16(cmd.LinkID, cmd.UID16)
		})
		d.NewVersion = ver
		setErr(&d, err)

	case CmdSetModSourceValue:
		ver, err := track.MutateMod(func(mod *model.ModRegistry, chain *model.DeviceChain) error {
			mod.SetSourceValue(cmd.ModRef, cmd.ModVal)
			return nil
		})
		d.NewVersion = ver
		setErr(&d, err)

	case CmdAddPatcherNode:
		setErr(&d, patcher.Global().AddNode(cmd.PatcherNode))

	case CmdRemovePatcherNode:
		setErr(&d, patcher.Global().RemoveNode(cmd.NodeID))

	case CmdConnectPatcherNodes:
		connected, err := patcher.Global().ConnectNodes(cmd.SrcNodeID, cmd.DstNodeID)
		d.Connected = connected
		setErr(&d, err)

	case CmdSetPatcherNodeConfig:
		setErr(&d, patcher.Global().SetNodeConfig(cmd.NodeID, cmd.PatcherNode))

	case CmdSetAutomationTarget:
		track.SetAutomationTarget(cmd.AutomationID, cmd.Automation)

	case CmdSetTrackHarmonyQuantize:
		track.SetHarmonyQuantize(cmd.HarmonyQuantize)

	case CmdOpenPluginEditor:
		if ctrl, ok := controllers[cmd.TrackID]; ok && ctrl != nil {
			setErr(&d, ctrl.OpenEditor(cmd.PluginSlotIndex))
		}

	case CmdTogglePlay, CmdSavePatcherPreset, CmdRequestClipWindow:
		// Transport toggling, preset persistence, and clip-window requests
		// are handled by the engine's transport and UI-snapshot machinery
		// directly; no model mutation happens here.

	default:
		d.Kind = DiffError
		d.Err = fmt.Sprintf("uiproto: unknown command type %d", cmd.Type)
	}

	return d
}

func setErr(d *Diff, err error) {
	if err != nil {
		d.Kind = DiffError
		d.Err = err.Error()
	}
}
