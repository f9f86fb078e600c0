package types

import (
	"bytes"
	"testing"
)

func TestCopyBytesDetachesFromSource(t *testing.T) {
	var s FrameStorage
	src := []byte("payload")
	s.CopyBytes(src)
	copy(src, "XXXXXXX")

	if !bytes.Equal(s.Bytes(), []byte("payload")) {
		t.Fatalf("Bytes() = %q, storage aliases the source buffer", s.Bytes())
	}
}

func TestCopyBytesRetainsCapacityAcrossReuse(t *testing.T) {
	var s FrameStorage
	s.CopyBytes(make([]byte, 1024))
	buf := s.Bytes()

	s.CopyBytes(make([]byte, 64))
	if len(s.Bytes()) != 64 {
		t.Fatalf("len(Bytes()) = %d, want 64", len(s.Bytes()))
	}
	if &buf[0] != &s.Bytes()[0] {
		t.Fatal("shrinking copy reallocated; warmed-up capacity was not retained")
	}
}

func TestResolutionRoundTrip(t *testing.T) {
	var s FrameStorage
	s.SetResolution(1920, 1080)
	w, h := s.Resolution()
	if w != 1920 || h != 1080 {
		t.Fatalf("Resolution() = %dx%d, want 1920x1080", w, h)
	}
}
