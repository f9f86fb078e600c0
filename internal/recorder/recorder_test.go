package recorder

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func waitForFrames(t *testing.T, r *Recorder, want uint64) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if r.GetStatus().FrameCount >= want {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("recorder wrote %d frames, want %d", r.GetStatus().FrameCount, want)
}

func TestRecordSession(t *testing.T) {
	dir := t.TempDir()
	r := New(dir)

	if err := r.Start(); err != nil {
		t.Fatalf("Start: %v", err)
	}
	if !r.IsRecording() {
		t.Fatal("IsRecording() false after Start")
	}

	frames := [][]byte{[]byte("one"), []byte("two"), []byte("three")}
	for _, f := range frames {
		if !r.Submit(f) {
			t.Fatalf("Submit(%q) refused while recording", f)
		}
	}
	waitForFrames(t, r, 3)

	if err := r.Stop(); err != nil {
		t.Fatalf("Stop: %v", err)
	}

	st := r.GetStatus()
	if st.Recording {
		t.Fatal("still recording after Stop")
	}
	if st.BytesWritten != uint64(len("onetwothree")) {
		t.Fatalf("BytesWritten = %d, want %d", st.BytesWritten, len("onetwothree"))
	}

	data, err := os.ReadFile(filepath.Join(dir, st.Filename))
	if err != nil {
		t.Fatalf("read recording: %v", err)
	}
	if string(data) != "onetwothree" {
		t.Fatalf("recording content = %q, want concatenated payloads", data)
	}
}

func TestSubmitWhileStoppedIsRefused(t *testing.T) {
	r := New(t.TempDir())
	if r.Submit([]byte("frame")) {
		t.Fatal("Submit accepted a frame with no session open")
	}
}

func TestDoubleStartFails(t *testing.T) {
	r := New(t.TempDir())
	if err := r.Start(); err != nil {
		t.Fatalf("Start: %v", err)
	}
	defer func() { _ = r.Stop() }()
	if err := r.Start(); err == nil {
		t.Fatal("second Start succeeded while recording")
	}
}

func TestStopWithoutStartFails(t *testing.T) {
	r := New(t.TempDir())
	if err := r.Stop(); err == nil {
		t.Fatal("Stop succeeded with no session open")
	}
}

func TestSubmitCopiesPayload(t *testing.T) {
	dir := t.TempDir()
	r := New(dir)
	if err := r.Start(); err != nil {
		t.Fatalf("Start: %v", err)
	}

	payload := []byte("stable")
	if !r.Submit(payload) {
		t.Fatal("Submit refused")
	}
	copy(payload, "mutate")

	waitForFrames(t, r, 1)
	if err := r.Stop(); err != nil {
		t.Fatalf("Stop: %v", err)
	}

	data, err := os.ReadFile(filepath.Join(dir, r.GetStatus().Filename))
	if err != nil {
		t.Fatalf("read recording: %v", err)
	}
	if string(data) != "stable" {
		t.Fatalf("recording content = %q, caller mutation leaked in", data)
	}
}
