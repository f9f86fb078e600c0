package rate

import (
	"math"
	"sync"
	"testing"
)

func TestEmptyAverageIsInfinite(t *testing.T) {
	m := NewMovingAverage(30)
	if !math.IsInf(m.Average(), 1) {
		t.Fatalf("empty Average() = %v, want +Inf", m.Average())
	}
	if m.PerSecond() != 0 {
		t.Fatalf("empty PerSecond() = %v, want 0", m.PerSecond())
	}
	if m.Count() != 0 {
		t.Fatalf("empty Count() = %d, want 0", m.Count())
	}
}

func TestAverageIsMeanOfPushedSamples(t *testing.T) {
	m := NewMovingAverage(30)
	m.Push(10)
	m.Push(20)
	m.Push(30)
	if got := m.Average(); got != 20 {
		t.Fatalf("Average() = %v, want 20", got)
	}
	if got := m.PerSecond(); got != 50 {
		t.Fatalf("PerSecond() = %v, want 50 (1000/20)", got)
	}
}

func TestWindowEvictsOldestSample(t *testing.T) {
	m := NewMovingAverage(3)
	m.Push(10)
	m.Push(20)
	m.Push(30)
	m.Push(100) // evicts the 10
	if got := m.Average(); got != 50 {
		t.Fatalf("Average() after eviction = %v, want 50", got)
	}
	if m.Count() != 3 {
		t.Fatalf("Count() = %d, want window size 3", m.Count())
	}
}

func TestPartialWindowUsesOnlyPushedSamples(t *testing.T) {
	m := NewMovingAverage(30)
	m.Push(40)
	if got := m.Average(); got != 40 {
		t.Fatalf("single-sample Average() = %v, want 40", got)
	}
	if got := m.PerSecond(); got != 25 {
		t.Fatalf("single-sample PerSecond() = %v, want 25", got)
	}
}

func TestClearRestoresInitialState(t *testing.T) {
	m := NewMovingAverage(5)
	for i := 0; i < 10; i++ {
		m.Push(float64(i))
	}
	m.Clear()
	if !math.IsInf(m.Average(), 1) {
		t.Fatalf("cleared Average() = %v, want +Inf", m.Average())
	}
	if m.PerSecond() != 0 {
		t.Fatalf("cleared PerSecond() = %v, want 0", m.PerSecond())
	}

	// The window must behave like new after Clear.
	m.Push(8)
	if got := m.Average(); got != 8 {
		t.Fatalf("Average() after Clear+Push = %v, want 8", got)
	}
}

// One goroutine pushes while another reads the derived statistics,
// the shape the queue's observability surface uses during traffic.
func TestConcurrentPushAndRead(t *testing.T) {
	m := NewMovingAverage(30)

	var wg sync.WaitGroup
	stop := make(chan struct{})
	wg.Add(1)
	go func() {
		defer wg.Done()
		for {
			select {
			case <-stop:
				return
			default:
				if avg, rate := m.Average(), m.PerSecond(); !math.IsInf(avg, 1) {
					if avg <= 0 || rate <= 0 {
						t.Errorf("inconsistent read: avg=%v rate=%v", avg, rate)
						return
					}
				}
				_ = m.Count()
			}
		}
	}()

	for i := 0; i < 10000; i++ {
		m.Push(16.6)
	}
	close(stop)
	wg.Wait()

	if got := m.Average(); math.Abs(got-16.6) > 1e-9 {
		t.Fatalf("Average() = %v after uniform pushes, want 16.6", got)
	}
}

func TestInvalidWindowFallsBackToDefault(t *testing.T) {
	m := NewMovingAverage(0)
	for i := 0; i < DefaultWindow+5; i++ {
		m.Push(1)
	}
	if m.Count() != DefaultWindow {
		t.Fatalf("Count() = %d, want DefaultWindow %d", m.Count(), DefaultWindow)
	}
}
