// Package recorder persists consumed frames to disk. Payloads are
// written back to back, which for JPEG frames yields a playable MJPEG
// stream. Submission is non-blocking: when the writer falls behind,
// frames are skipped rather than stalling the consumer tick.
package recorder

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"
)

const submitBuffer = 60 // about two seconds at video rates

// Recorder appends frame payloads to a timestamped file.
type Recorder struct {
	mu            sync.RWMutex
	file          *os.File
	filename      string
	basePath      string
	recording     bool
	frameCount    uint64
	bytesWritten  uint64
	framesSkipped uint64
	startTime     time.Time

	frameChan chan []byte
	wg        sync.WaitGroup
}

// New creates a recorder writing under basePath.
func New(basePath string) *Recorder {
	return &Recorder{
		basePath:  basePath,
		frameChan: make(chan []byte, submitBuffer),
	}
}

// Start begins recording to a new timestamped file.
func (r *Recorder) Start() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.recording {
		return fmt.Errorf("already recording")
	}

	filename := fmt.Sprintf("session_%s.mjpeg", time.Now().Format("20060102_150405"))
	file, err := os.Create(filepath.Join(r.basePath, filename))
	if err != nil {
		return fmt.Errorf("create recording: %w", err)
	}

	r.file = file
	r.filename = filename
	r.recording = true
	r.frameCount = 0
	r.bytesWritten = 0
	r.framesSkipped = 0
	r.startTime = time.Now()

	r.wg.Add(1)
	go r.writeFrames()

	return nil
}

// Stop finishes the current recording and closes the file.
func (r *Recorder) Stop() error {
	r.mu.Lock()
	if !r.recording {
		r.mu.Unlock()
		return fmt.Errorf("not recording")
	}
	r.recording = false
	r.mu.Unlock()

	r.wg.Wait()

	r.mu.Lock()
	defer r.mu.Unlock()
	if r.file != nil {
		if err := r.file.Sync(); err != nil {
			return fmt.Errorf("sync recording: %w", err)
		}
		if err := r.file.Close(); err != nil {
			return fmt.Errorf("close recording: %w", err)
		}
		r.file = nil
	}
	return nil
}

// Submit hands one frame payload to the writer. The payload is copied,
// so the caller may recycle its storage immediately. Returns false if
// nothing is recording or the writer is saturated.
func (r *Recorder) Submit(payload []byte) bool {
	r.mu.RLock()
	recording := r.recording
	r.mu.RUnlock()
	if !recording {
		return false
	}

	buf := make([]byte, len(payload))
	copy(buf, payload)

	select {
	case r.frameChan <- buf:
		return true
	default:
		r.mu.Lock()
		r.framesSkipped++
		r.mu.Unlock()
		return false
	}
}

func (r *Recorder) writeFrames() {
	defer r.wg.Done()

	for {
		r.mu.RLock()
		recording := r.recording
		r.mu.RUnlock()

		if !recording {
			// Drain what was submitted before Stop.
			for {
				select {
				case payload := <-r.frameChan:
					r.writeFrame(payload)
				default:
					return
				}
			}
		}

		select {
		case payload := <-r.frameChan:
			r.writeFrame(payload)
		case <-time.After(100 * time.Millisecond):
			// Re-check recording state.
		}
	}
}

func (r *Recorder) writeFrame(payload []byte) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.file == nil {
		return
	}
	n, err := r.file.Write(payload)
	if err != nil {
		return
	}
	r.bytesWritten += uint64(n)
	r.frameCount++
}

// IsRecording reports whether a session file is open.
func (r *Recorder) IsRecording() bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.recording
}

// Status summarizes the current or last session.
type Status struct {
	Recording     bool
	Filename      string
	FrameCount    uint64
	BytesWritten  uint64
	FramesSkipped uint64
	Duration      time.Duration
}

// GetStatus returns a snapshot of the recorder state.
func (r *Recorder) GetStatus() Status {
	r.mu.RLock()
	defer r.mu.RUnlock()

	st := Status{
		Recording:     r.recording,
		Filename:      r.filename,
		FrameCount:    r.frameCount,
		BytesWritten:  r.bytesWritten,
		FramesSkipped: r.framesSkipped,
	}
	if r.recording {
		st.Duration = time.Since(r.startTime)
	}
	return st
}
