// Package rate provides a fixed-window moving average for converting
// inter-event time deltas into a smoothed per-second rate.
package rate

import (
	"math"
	"sync"
)

// DefaultWindow is the number of samples retained when no explicit
// window size is given. Thirty samples at video rates covers roughly
// one second of traffic, smoothing single-frame jitter.
const DefaultWindow = 30

// MovingAverage keeps the most recent N inter-event deltas, in
// milliseconds, and exposes their arithmetic mean. A fresh or cleared
// instance reports an infinite average, which corresponds to a rate of
// zero; that is the defined initial condition, not an error state.
//
// One goroutine (the one owning the corresponding operation) pushes
// samples; the window is internally locked so statistics readers on
// other goroutines observe a consistent view. All calls are
// non-blocking and bounded-time.
type MovingAverage struct {
	mu      sync.Mutex
	samples []float64
	next    int
	count   int
	sum     float64
}

// NewMovingAverage creates a moving average over a trailing window of
// size samples. Sizes <= 0 fall back to DefaultWindow.
func NewMovingAverage(size int) *MovingAverage {
	if size <= 0 {
		size = DefaultWindow
	}
	return &MovingAverage{samples: make([]float64, size)}
}

// Push records one inter-event delta in milliseconds, evicting the
// oldest sample once the window is full.
func (m *MovingAverage) Push(deltaMs float64) {
	m.mu.Lock()
	if m.count == len(m.samples) {
		m.sum -= m.samples[m.next]
	} else {
		m.count++
	}
	m.samples[m.next] = deltaMs
	m.sum += deltaMs
	m.next = (m.next + 1) % len(m.samples)
	m.mu.Unlock()
}

// Average returns the arithmetic mean of the most recent
// min(window, pushed) samples, or +Inf when no sample exists.
func (m *MovingAverage) Average() float64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.averageLocked()
}

func (m *MovingAverage) averageLocked() float64 {
	if m.count == 0 {
		return math.Inf(1)
	}
	return m.sum / float64(m.count)
}

// PerSecond converts the average delta into an event rate. An empty
// window yields 0.
func (m *MovingAverage) PerSecond() float64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.count == 0 {
		return 0
	}
	return 1000 / m.averageLocked()
}

// Count returns the number of samples currently in the window.
func (m *MovingAverage) Count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.count
}

// Clear resets the window to the empty initial state.
func (m *MovingAverage) Clear() {
	m.mu.Lock()
	for i := range m.samples {
		m.samples[i] = 0
	}
	m.next = 0
	m.count = 0
	m.sum = 0
	m.mu.Unlock()
}
