// Package framequeue implements a bounded FIFO of reusable frame
// buffers. Incoming frames are copied into pooled storage so sustained
// streaming does not churn the heap; when the queue is full and the
// pool is empty the frame is dropped rather than blocking the producer
// or evicting queued frames. Enqueue, dequeue and drop throughput are
// tracked with fixed-window moving averages sharing one monotonic
// clock.
package framequeue

import (
	"sync"
	"sync/atomic"
	"time"

	"github.com/fouable/Security-Camera-Toolkit-For-Unity/internal/rate"
	"github.com/fouable/Security-Camera-Toolkit-For-Unity/pkg/types"
)

// Storage is the contract a reusable frame buffer must satisfy to be
// managed by the queue. pkg/types.FrameStorage is the default
// implementation.
type Storage interface {
	Resolution() (width, height uint32)
	SetResolution(width, height uint32)
	Bytes() []byte
	CopyBytes([]byte)
}

// Queue is a bounded recycling frame queue, generic over the concrete
// storage type. The pointer constraint keeps storage
// default-constructible: the queue allocates new(T) when the pool runs
// dry and capacity remains.
//
// Supported concurrency is one enqueuing goroutine plus one
// dequeuing/recycling goroutine. The frame sequence and the pool are
// each internally synchronized, but the paired statistics updates are
// not atomic with the container mutation, so concurrent multi-producer
// Enqueue is an unsupported configuration.
type Queue[T any, P interface {
	*T
	Storage
}] struct {
	maxLength int

	mu     sync.Mutex
	frames []P // FIFO, head first

	poolMu sync.Mutex
	pool   []P // LIFO, reuse hottest storage first

	// Shared clock for all three statistics, restarted by Clear.
	epoch time.Time

	queuedAvg   *rate.MovingAverage
	dequeuedAvg *rate.MovingAverage
	droppedAvg  *rate.MovingAverage

	lastQueuedMs   float64
	lastDequeuedMs float64
	lastDroppedMs  float64

	totalEnqueued atomic.Uint64
	totalDequeued atomic.Uint64
	totalDropped  atomic.Uint64
	totalLate     atomic.Uint64
}

// Stats is a point-in-time snapshot of the queue's observable state,
// consumed by the metrics layer and diagnostics overlays.
type Stats struct {
	QueuedPerSecond   float64
	DequeuedPerSecond float64
	DroppedPerSecond  float64
	QueueLen          int
	PoolSize          int
	TotalEnqueued     uint64
	TotalDequeued     uint64
	TotalDropped      uint64
	TotalLate         uint64
}

// New creates a queue holding at most maxLength frames, with the
// default statistics window of rate.DefaultWindow samples.
func New[T any, P interface {
	*T
	Storage
}](maxLength int) *Queue[T, P] {
	return NewWithWindow[T, P](maxLength, rate.DefaultWindow)
}

// NewWithWindow creates a queue holding at most maxLength frames whose
// three rate estimators average over the given number of samples.
func NewWithWindow[T any, P interface {
	*T
	Storage
}](maxLength, window int) *Queue[T, P] {
	if maxLength <= 0 {
		maxLength = 1
	}
	return &Queue[T, P]{
		maxLength:   maxLength,
		epoch:       time.Now(),
		queuedAvg:   rate.NewMovingAverage(window),
		dequeuedAvg: rate.NewMovingAverage(window),
		droppedAvg:  rate.NewMovingAverage(window),
	}
}

// elapsedMs returns milliseconds since the shared clock epoch.
func (q *Queue[T, P]) elapsedMs() float64 {
	return float64(time.Since(q.epoch)) / float64(time.Millisecond)
}

// Enqueue copies the incoming frame into reusable storage and appends
// it to the tail. The queued statistic advances on every call, even
// when the frame ends up dropped, so the queued rate reflects what the
// source produced rather than what survived.
//
// Storage acquisition order: pooled storage first, then a fresh
// allocation while the queue is below its maximum length, otherwise
// the frame is dropped and only the dropped statistic advances.
func (q *Queue[T, P]) Enqueue(frame types.Frame) {
	now := q.elapsedMs()
	q.queuedAvg.Push(now - q.lastQueuedMs)
	q.lastQueuedMs = now
	q.totalEnqueued.Add(1)

	storage, ok := q.popStorage()
	if !ok {
		if q.Len() >= q.maxLength {
			now = q.elapsedMs()
			q.droppedAvg.Push(now - q.lastDroppedMs)
			q.lastDroppedMs = now
			q.totalDropped.Add(1)
			return
		}
		storage = P(new(T))
	}

	storage.SetResolution(frame.Width, frame.Height)
	storage.CopyBytes(frame.Data)

	q.mu.Lock()
	q.frames = append(q.frames, storage)
	q.mu.Unlock()
}

// TryDequeue pops the oldest queued frame. The boolean is false when
// the queue is empty, which is the normal condition of a sink polling
// faster than its source; nothing else changes in that case.
//
// The caller owns the returned storage until it hands it back through
// RecycleStorage.
func (q *Queue[T, P]) TryDequeue() (P, bool) {
	q.mu.Lock()
	if len(q.frames) == 0 {
		q.mu.Unlock()
		var zero P
		return zero, false
	}
	storage := q.frames[0]
	q.frames = q.frames[1:]
	q.mu.Unlock()

	now := q.elapsedMs()
	q.dequeuedAvg.Push(now - q.lastDequeuedMs)
	q.lastDequeuedMs = now
	q.totalDequeued.Add(1)
	return storage, true
}

// RecycleStorage returns storage the consumer has finished with to the
// pool, unconditionally. The queue performs no ownership or duplicate
// check: recycling the same storage twice, or recycling storage still
// referenced elsewhere, corrupts the pool and must be prevented by
// caller discipline.
func (q *Queue[T, P]) RecycleStorage(storage P) {
	q.poolMu.Lock()
	q.pool = append(q.pool, storage)
	q.poolMu.Unlock()
}

// TrackLateFrame records a frame that bypassed the queue for immediate
// delivery: the queued and dequeued statistics advance as if an
// instantaneous enqueue+dequeue happened, and the dropped baseline
// advances without a sample so the three rates stay comparable.
func (q *Queue[T, P]) TrackLateFrame() {
	now := q.elapsedMs()
	q.queuedAvg.Push(now - q.lastQueuedMs)
	q.lastQueuedMs = now
	q.dequeuedAvg.Push(now - q.lastDequeuedMs)
	q.lastDequeuedMs = now
	q.lastDroppedMs = now
	q.totalLate.Add(1)
}

// Clear empties the queue and the pool, resets the three estimators
// and their baselines, and restarts the shared clock. Intended for
// session restarts during quiescent periods; it is not synchronized
// against concurrent Enqueue or TryDequeue.
func (q *Queue[T, P]) Clear() {
	q.mu.Lock()
	q.frames = nil
	q.mu.Unlock()

	q.poolMu.Lock()
	q.pool = nil
	q.poolMu.Unlock()

	q.queuedAvg.Clear()
	q.dequeuedAvg.Clear()
	q.droppedAvg.Clear()
	q.lastQueuedMs = 0
	q.lastDequeuedMs = 0
	q.lastDroppedMs = 0
	q.totalEnqueued.Store(0)
	q.totalDequeued.Store(0)
	q.totalDropped.Store(0)
	q.totalLate.Store(0)
	q.epoch = time.Now()
}

func (q *Queue[T, P]) popStorage() (P, bool) {
	q.poolMu.Lock()
	defer q.poolMu.Unlock()
	if n := len(q.pool); n > 0 {
		storage := q.pool[n-1]
		q.pool = q.pool[:n-1]
		return storage, true
	}
	var zero P
	return zero, false
}

// Len returns the number of frames currently awaiting delivery.
func (q *Queue[T, P]) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.frames)
}

// PoolSize returns the number of storage buffers available for reuse.
func (q *Queue[T, P]) PoolSize() int {
	q.poolMu.Lock()
	defer q.poolMu.Unlock()
	return len(q.pool)
}

// MaxLength returns the configured queue capacity.
func (q *Queue[T, P]) MaxLength() int {
	return q.maxLength
}

// QueuedFramesPerSecond reports the short-term rate at which the
// source offered frames, dropped or not. Zero until the first sample.
func (q *Queue[T, P]) QueuedFramesPerSecond() float64 {
	return q.queuedAvg.PerSecond()
}

// DequeuedFramesPerSecond reports the short-term consumption rate.
func (q *Queue[T, P]) DequeuedFramesPerSecond() float64 {
	return q.dequeuedAvg.PerSecond()
}

// DroppedFramesPerSecond reports the short-term drop rate. A sustained
// non-zero value means the consumer is not keeping up.
func (q *Queue[T, P]) DroppedFramesPerSecond() float64 {
	return q.droppedAvg.PerSecond()
}

// Snapshot gathers the derived rates, container sizes and lifetime
// totals in one read.
func (q *Queue[T, P]) Snapshot() Stats {
	return Stats{
		QueuedPerSecond:   q.QueuedFramesPerSecond(),
		DequeuedPerSecond: q.DequeuedFramesPerSecond(),
		DroppedPerSecond:  q.DroppedFramesPerSecond(),
		QueueLen:          q.Len(),
		PoolSize:          q.PoolSize(),
		TotalEnqueued:     q.totalEnqueued.Load(),
		TotalDequeued:     q.totalDequeued.Load(),
		TotalDropped:      q.totalDropped.Load(),
		TotalLate:         q.totalLate.Load(),
	}
}
