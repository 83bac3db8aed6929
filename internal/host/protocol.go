// Package host implements the out-of-process plugin host controller: launch,
// the Hello handshake, the ProcessBlock hot path, and control messages, all
// carried over an AF_UNIX control socket.
package host

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"io"
)

// frameMagic is the control-socket frame magic.
var frameMagic = [4]byte{'D', 'W', 'H', '0'}

const frameVersion = 1

// MsgType enumerates control-socket message types.
type MsgType uint8

const (
	MsgHelloRequest MsgType = iota
	MsgHelloResponse
	MsgProcessBlock
	MsgSetBypass
	MsgOpenEditor
	MsgShutdown
)

// frameHeader is the fixed 12-byte control-socket frame header.
type frameHeader struct {
	Magic    [4]byte
	Version  uint8
	Type     uint8
	Reserved uint16
	Size     uint32
}

// HelloRequest is sent by the engine immediately after connecting.
type HelloRequest struct {
	BlockSize       uint32
	SampleRate      uint32
	Channels        uint32
	NumBlocks       uint32
	RingStdCap      uint32
	RingCtrlCap     uint32
}

// HelloResponse names the shared-memory region the engine should map.
type HelloResponse struct {
	ShmNameLen uint32
	ShmName    string
	ShmSize    uint64
}

// ProcessBlockMsg triggers one render for a device-chain segment.
type ProcessBlockMsg struct {
	BlockID           uint64
	EngineSampleStart uint64
	PluginSampleStart uint64
	SegmentStart      uint32
	SegmentLen        uint32
}

// SetBypassMsg toggles bypass on one chain slot.
type SetBypassMsg struct {
	Index  uint32
	Bypass uint8
}

// OpenEditorMsg requests the host open its plugin editor UI for one slot.
type OpenEditorMsg struct {
	Index uint32
}

// writeFrame writes a type+payload as one framed message.
func writeFrame(w io.Writer, typ MsgType, payload []byte) error {
	hdr := frameHeader{Magic: frameMagic, Version: frameVersion, Type: uint8(typ), Size: uint32(len(payload))}
	if err := binary.Write(w, binary.LittleEndian, hdr); err != nil {
		return err
	}
	if len(payload) == 0 {
		return nil
	}
	_, err := w.Write(payload)
	return err
}

// readFrame reads one framed message's header and payload.
func readFrame(r io.Reader) (MsgType, []byte, error) {
	var hdr frameHeader
	if err := binary.Read(r, binary.LittleEndian, &hdr); err != nil {
		return 0, nil, err
	}
	if hdr.Magic != frameMagic {
		return 0, nil, fmt.Errorf("host protocol: bad frame magic %v", hdr.Magic)
	}
	if hdr.Version != frameVersion {
		return 0, nil, fmt.Errorf("host protocol: unsupported frame version %d", hdr.Version)
	}
	payload := make([]byte, hdr.Size)
	if hdr.Size > 0 {
		if _, err := io.ReadFull(r, payload); err != nil {
			return 0, nil, err
		}
	}
	return MsgType(hdr.Type), payload, nil
}

func encodeHelloRequest(req HelloRequest) []byte {
	buf := new(bytes.Buffer)
	_ = binary.Write(buf, binary.LittleEndian, req)
	return buf.Bytes()
}

func decodeHelloRequest(b []byte) (HelloRequest, error) {
	var req HelloRequest
	if err := binary.Read(bytes.NewReader(b), binary.LittleEndian, &req); err != nil {
		return HelloRequest{}, err
	}
	return req, nil
}

func encodeHelloResponse(resp HelloResponse) []byte {
	buf := new(bytes.Buffer)
	_ = binary.Write(buf, binary.LittleEndian, uint32(len(resp.ShmName)))
	buf.WriteString(resp.ShmName)
	_ = binary.Write(buf, binary.LittleEndian, resp.ShmSize)
	return buf.Bytes()
}

func decodeHelloResponse(b []byte) (HelloResponse, error) {
	r := bytes.NewReader(b)
	var nameLen uint32
	if err := binary.Read(r, binary.LittleEndian, &nameLen); err != nil {
		return HelloResponse{}, err
	}
	name := make([]byte, nameLen)
	if _, err := io.ReadFull(r, name); err != nil {
		return HelloResponse{}, err
	}
	var size uint64
	if err := binary.Read(r, binary.LittleEndian, &size); err != nil {
		return HelloResponse{}, err
	}
	return HelloResponse{ShmName: string(name), ShmSize: size}, nil
}

func encodeProcessBlock(m ProcessBlockMsg) []byte {
	buf := new(bytes.Buffer)
	_ = binary.Write(buf, binary.LittleEndian, m)
	return buf.Bytes()
}

func encodeSetBypass(m SetBypassMsg) []byte {
	buf := new(bytes.Buffer)
	_ = binary.Write(buf, binary.LittleEndian, m)
	return buf.Bytes()
}

func encodeOpenEditor(m OpenEditorMsg) []byte {
	buf := new(bytes.Buffer)
	_ = binary.Write(buf, binary.LittleEndian, m)
	return buf.Bytes()
}
