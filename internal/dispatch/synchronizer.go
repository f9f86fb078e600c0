// Package dispatch marshals callbacks from arbitrary goroutines onto
// one designated owner goroutine. Callbacks posted from the owner run
// inline; callbacks posted from anywhere else wait in a pending queue
// until the owner's periodic tick drains them, one per tick.
package dispatch

import "sync"

// Synchronizer is the pending-callback queue plus the captured owner
// identity. The host application owns the tick cadence: the core never
// starts a goroutine or timer of its own, it only runs callbacks when
// Drain is called.
//
// Post is safe from any goroutine. Drain must only be called from the
// owner goroutine.
type Synchronizer struct {
	owner uint64

	mu      sync.Mutex
	pending []func()
}

// New captures the calling goroutine as the owner. Call it once, on
// the goroutine that will tick Drain, before any Post.
func New() *Synchronizer {
	return &Synchronizer{owner: goroutineID()}
}

// Post schedules fn to run on the owner goroutine. When called from
// the owner it executes fn inline before returning; otherwise fn is
// appended to the pending queue and runs during a later Drain.
// Fire-and-forget: there is no cancellation and no result channel.
//
// A panic inside fn propagates to whichever goroutine executed it, the
// poster on the inline path or the tick driver under Drain.
func (s *Synchronizer) Post(fn func()) {
	if goroutineID() == s.owner {
		fn()
		return
	}
	s.mu.Lock()
	s.pending = append(s.pending, fn)
	s.mu.Unlock()
}

// Drain executes at most one pending callback and reports whether one
// ran. Limiting each tick to a single callback bounds the work a burst
// of posts can inject into the owner's loop; throughput is governed by
// tick frequency instead.
func (s *Synchronizer) Drain() bool {
	s.mu.Lock()
	if len(s.pending) == 0 {
		s.mu.Unlock()
		return false
	}
	fn := s.pending[0]
	s.pending[0] = nil // release the closure once executed
	s.pending = s.pending[1:]
	s.mu.Unlock()

	fn()
	return true
}

// Pending returns the number of callbacks waiting for a tick.
func (s *Synchronizer) Pending() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.pending)
}
