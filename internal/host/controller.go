package host

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"net"
	"os"
	"os/exec"
	"sync"
	"syscall"
	"time"

	"github.com/dawforge/engine/internal/dawlog"
	"github.com/dawforge/engine/internal/shm"
)

// Geometry describes the block/sample-rate/channel layout the engine
// negotiates with the host at Hello time.
type Geometry struct {
	BlockSize   int
	SampleRate  int
	Channels    int
	NumBlocks   int
	RingStdCap  int
	RingCtrlCap int
}

// Controller owns one out-of-process plugin host's lifecycle: launch,
// handshake, the ProcessBlock hot path, control messages, and disconnect.
// All socket writes are serialized by mu.
type Controller struct {
	mu sync.Mutex

	socketPath string
	pluginPath string

	cmd  *exec.Cmd
	conn net.Conn

	Region *shm.Region
	Header shm.Header

	processBlockBuf bytes.Buffer // reused every ProcessBlock send, never reallocated once warm
}

// New returns an unconnected controller for the given socket path and
// plugin artifact path.
func New(socketPath, pluginPath string) *Controller {
	return &Controller{socketPath: socketPath, pluginPath: pluginPath}
}

// Launch unlinks any stale socket, fork/execs the host binary with
// --socket/--plugin, and polls for the socket's existence up to 1s.
func (c *Controller) Launch(hostBinary string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	_ = os.Remove(c.socketPath)

	cmd := exec.Command(hostBinary, "--socket", c.socketPath, "--plugin", c.pluginPath)
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	if err := cmd.Start(); err != nil {
		return fmt.Errorf("host launch: %w", err)
	}
	c.cmd = cmd

	deadline := time.Now().Add(1 * time.Second)
	for time.Now().Before(deadline) {
		if _, err := os.Stat(c.socketPath); err == nil {
			return nil
		}
		time.Sleep(5 * time.Millisecond)
	}
	return fmt.Errorf("host launch: socket %s did not appear within 1s", c.socketPath)
}

// Connect performs the Hello handshake: connects the AF_UNIX socket, sends
// HelloRequest, receives HelloResponse, then opens and mmaps the named SHM
// region and verifies its header.
func (c *Controller) Connect(geo Geometry) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	conn, err := net.Dial("unix", c.socketPath)
	if err != nil {
		return fmt.Errorf("host connect: %w", err)
	}
	c.conn = conn

	req := HelloRequest{
		BlockSize:   uint32(geo.BlockSize),
		SampleRate:  uint32(geo.SampleRate),
		Channels:    uint32(geo.Channels),
		NumBlocks:   uint32(geo.NumBlocks),
		RingStdCap:  uint32(geo.RingStdCap),
		RingCtrlCap: uint32(geo.RingCtrlCap),
	}
	if err := writeFrame(conn, MsgHelloRequest, encodeHelloRequest(req)); err != nil {
		return fmt.Errorf("host hello: %w", err)
	}

	typ, payload, err := readFrame(conn)
	if err != nil {
		return fmt.Errorf("host hello: %w", err)
	}
	if typ != MsgHelloResponse {
		return fmt.Errorf("host hello: expected HelloResponse, got type %d", typ)
	}
	resp, err := decodeHelloResponse(payload)
	if err != nil {
		return fmt.Errorf("host hello: %w", err)
	}

	region, err := shm.Open(resp.ShmName, int(resp.ShmSize))
	if err != nil {
		return fmt.Errorf("host hello: shm open %q: %w", resp.ShmName, err)
	}
	hdr, err := shm.ReadHeader(region.Data)
	if err != nil {
		region.Close()
		return fmt.Errorf("host hello: %w", err)
	}
	if err := hdr.Verify(); err != nil {
		region.Close()
		return fmt.Errorf("host hello: %w", err)
	}
	c.Region = region
	c.Header = hdr
	return nil
}

// ProcessBlock sends one render trigger for a device-chain segment. This is
// the hot path: it must not allocate, so it encodes into a reused buffer.
func (c *Controller) ProcessBlock(m ProcessBlockMsg) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.conn == nil {
		return fmt.Errorf("host ProcessBlock: not connected")
	}
	var frame [12 + 32]byte
	copy(frame[0:4], frameMagic[:])
	frame[4] = frameVersion
	frame[5] = uint8(MsgProcessBlock)
	binary.LittleEndian.PutUint32(frame[8:12], 32)
	binary.LittleEndian.PutUint64(frame[12:20], m.BlockID)
	binary.LittleEndian.PutUint64(frame[20:28], m.EngineSampleStart)
	binary.LittleEndian.PutUint64(frame[28:36], m.PluginSampleStart)
	binary.LittleEndian.PutUint32(frame[36:40], m.SegmentStart)
	binary.LittleEndian.PutUint32(frame[40:44], m.SegmentLen)
	c.processBlockBuf.Reset()
	c.processBlockBuf.Write(frame[:])
	_, err := c.conn.Write(c.processBlockBuf.Bytes())
	return err
}

// SetBypass toggles bypass on one chain slot.
func (c *Controller) SetBypass(index int, bypass bool) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.conn == nil {
		return fmt.Errorf("host SetBypass: not connected")
	}
	var b uint8
	if bypass {
		b = 1
	}
	return writeFrame(c.conn, MsgSetBypass, encodeSetBypass(SetBypassMsg{Index: uint32(index), Bypass: b}))
}

// OpenEditor requests the host open its plugin editor for one slot.
func (c *Controller) OpenEditor(index int) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.conn == nil {
		return fmt.Errorf("host OpenEditor: not connected")
	}
	return writeFrame(c.conn, MsgOpenEditor, encodeOpenEditor(OpenEditorMsg{Index: uint32(index)}))
}

// Shutdown sends a graceful Shutdown control message.
func (c *Controller) Shutdown() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.conn == nil {
		return nil
	}
	return writeFrame(c.conn, MsgShutdown, nil)
}

// Disconnect unmaps the SHM region, closes the control socket, SIGKILLs the
// child if it is still alive, and reaps it.
func (c *Controller) Disconnect() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.Region != nil {
		if err := c.Region.Close(); err != nil {
			dawlog.Warnf("host disconnect: region close failed", "err", err)
		}
		c.Region = nil
	}
	if c.conn != nil {
		_ = c.conn.Close()
		c.conn = nil
	}
	if c.cmd != nil && c.cmd.Process != nil {
		_ = c.cmd.Process.Signal(syscall.SIGKILL)
		_, _ = c.cmd.Process.Wait()
		c.cmd = nil
	}
}
