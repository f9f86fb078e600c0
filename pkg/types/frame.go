package types

import "time"

// Frame is one encoded video frame as handed to the queue by a source.
// The payload format is opaque to the toolkit; only the bytes and the
// pixel dimensions are copied.
type Frame struct {
	Data      []byte    // Encoded frame payload (format opaque)
	Timestamp time.Time // Frame capture timestamp
	Width     uint32    // Frame width in pixels
	Height    uint32    // Frame height in pixels
}

// FrameStorage is a reusable buffer for one frame. Instances cycle
// between the queue's storage pool, the queue itself, and the consumer;
// exactly one of those owns a given instance at any moment. While
// pooled, the contents are dead and safe to overwrite.
type FrameStorage struct {
	width  uint32
	height uint32
	buf    []byte
}

// Resolution returns the stored frame dimensions in pixels.
func (s *FrameStorage) Resolution() (width, height uint32) {
	return s.width, s.height
}

// SetResolution records the frame dimensions in pixels.
func (s *FrameStorage) SetResolution(width, height uint32) {
	s.width = width
	s.height = height
}

// Bytes returns the current payload. The slice aliases the internal
// buffer and is valid until the storage is recycled.
func (s *FrameStorage) Bytes() []byte {
	return s.buf
}

// CopyBytes copies p into the internal buffer, growing it as needed.
// Capacity is retained across reuse so a warmed-up storage stops
// allocating once it has seen the largest frame of the session.
func (s *FrameStorage) CopyBytes(p []byte) {
	if cap(s.buf) < len(p) {
		s.buf = make([]byte, len(p))
	}
	s.buf = s.buf[:len(p)]
	copy(s.buf, p)
}
