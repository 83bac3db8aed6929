package host

import (
	"bytes"
	"testing"
)

func TestHelloRequestRoundTrip(t *testing.T) {
	req := HelloRequest{BlockSize: 64, SampleRate: 48000, Channels: 2, NumBlocks: 4, RingStdCap: 256, RingCtrlCap: 64}
	got, err := decodeHelloRequest(encodeHelloRequest(req))
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if got != req {
		t.Fatalf("roundtrip mismatch: got %+v want %+v", got, req)
	}
}

func TestHelloResponseRoundTrip(t *testing.T) {
	resp := HelloResponse{ShmName: "dawengine-track0", ShmSize: 1 << 20}
	got, err := decodeHelloResponse(encodeHelloResponse(resp))
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if got != resp {
		t.Fatalf("roundtrip mismatch: got %+v want %+v", got, resp)
	}
}

func TestFrameRoundTrip(t *testing.T) {
	var buf bytes.Buffer
	req := HelloRequest{BlockSize: 64, SampleRate: 48000, Channels: 2, NumBlocks: 4}
	if err := writeFrame(&buf, MsgHelloRequest, encodeHelloRequest(req)); err != nil {
		t.Fatalf("writeFrame: %v", err)
	}
	typ, payload, err := readFrame(&buf)
	if err != nil {
		t.Fatalf("readFrame: %v", err)
	}
	if typ != MsgHelloRequest {
		t.Fatalf("expected MsgHelloRequest, got %d", typ)
	}
	got, err := decodeHelloRequest(payload)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if got != req {
		t.Fatalf("roundtrip mismatch: got %+v want %+v", got, req)
	}
}

func TestReadFrameRejectsBadMagic(t *testing.T) {
	var buf bytes.Buffer
	buf.Write([]byte{'X', 'X', 'X', 'X', frameVersion, 0, 0, 0, 0, 0, 0, 0})
	if _, _, err := readFrame(&buf); err == nil {
		t.Fatalf("expected bad-magic error")
	}
}
