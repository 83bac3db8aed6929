package shm

import "testing"

func TestUIVersionViewDoubleBumpIsEvenWhenStable(t *testing.T) {
	buf := make([]byte, UIVersionFieldsSize)
	v := NewUIVersionView(buf)

	v.BeginWrite()
	if v.Version()%2 == 0 {
		t.Fatalf("expected an odd version mid-write")
	}
	v.SetClipVersion(5)
	v.SetPlayhead(1000)
	v.EndWrite()

	if v.Version()%2 != 0 {
		t.Fatalf("expected an even version once the write is published")
	}
	if v.ClipVersion() != 5 || v.Playhead() != 1000 {
		t.Fatalf("fields not retained across BeginWrite/EndWrite")
	}
}
