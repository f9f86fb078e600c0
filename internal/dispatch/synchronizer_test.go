package dispatch

import (
	"sync"
	"testing"
)

func TestPostOnOwnerRunsInline(t *testing.T) {
	s := New()
	ran := false
	s.Post(func() { ran = true })
	if !ran {
		t.Fatal("Post() from the owner goroutine did not run the callback inline")
	}
	if s.Pending() != 0 {
		t.Fatalf("Pending() = %d after inline Post, want 0", s.Pending())
	}
}

func TestPostOffOwnerDefersUntilDrain(t *testing.T) {
	s := New()
	ran := false

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		s.Post(func() { ran = true })
	}()
	wg.Wait()

	if ran {
		t.Fatal("cross-goroutine Post() executed before Drain()")
	}
	if s.Pending() != 1 {
		t.Fatalf("Pending() = %d, want 1", s.Pending())
	}

	if !s.Drain() {
		t.Fatal("Drain() reported no work with one callback pending")
	}
	if !ran {
		t.Fatal("Drain() did not execute the pending callback")
	}
}

func TestDrainExecutesAtMostOnePerCall(t *testing.T) {
	s := New()
	var order []int

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		// Same producer goroutine: drained in post order.
		for i := 1; i <= 3; i++ {
			i := i
			s.Post(func() { order = append(order, i) })
		}
	}()
	wg.Wait()

	for tick := 1; tick <= 3; tick++ {
		if !s.Drain() {
			t.Fatalf("Drain() #%d reported no work", tick)
		}
		if len(order) != tick {
			t.Fatalf("after %d drains, %d callbacks ran", tick, len(order))
		}
	}
	if s.Drain() {
		t.Fatal("Drain() on an empty queue reported work")
	}

	for i, got := range order {
		if got != i+1 {
			t.Fatalf("execution order = %v, want [1 2 3]", order)
		}
	}
}

func TestDrainReleasesExecutedCallback(t *testing.T) {
	s := New()

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		for i := 0; i < 3; i++ {
			s.Post(func() {})
		}
	}()
	wg.Wait()

	backing := s.pending
	if !s.Drain() {
		t.Fatal("Drain() reported no work")
	}

	// The executed callback must not stay reachable through the
	// backing array while later entries wait their turn.
	if backing[0] != nil {
		t.Fatal("drained callback still referenced by the pending queue")
	}
	if s.Pending() != 2 {
		t.Fatalf("Pending() = %d after one drain, want 2", s.Pending())
	}
}

func TestDrainOnEmptyQueueIsNoop(t *testing.T) {
	s := New()
	if s.Drain() {
		t.Fatal("Drain() with nothing pending returned true")
	}
}

func TestCallbackPanicPropagatesToPoster(t *testing.T) {
	s := New()
	panicked := func() (p bool) {
		defer func() { p = recover() != nil }()
		s.Post(func() { panic("callback failure") })
		return
	}()
	if !panicked {
		t.Fatal("panic in an inline callback did not propagate to the poster")
	}
}

func TestCallbackPanicPropagatesToDrainCaller(t *testing.T) {
	s := New()

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		s.Post(func() { panic("callback failure") })
	}()
	wg.Wait()

	panicked := func() (p bool) {
		defer func() { p = recover() != nil }()
		s.Drain()
		return
	}()
	if !panicked {
		t.Fatal("panic in a drained callback did not propagate to the tick driver")
	}
}

func TestGoroutineIDIsStableWithinGoroutine(t *testing.T) {
	if goroutineID() != goroutineID() {
		t.Fatal("goroutineID() not stable across calls on one goroutine")
	}

	var other uint64
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		other = goroutineID()
	}()
	wg.Wait()

	if other == goroutineID() {
		t.Fatal("distinct goroutines reported the same ID")
	}
}
