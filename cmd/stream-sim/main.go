package main

import (
	"context"
	"errors"
	"flag"
	"log"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/fouable/Security-Camera-Toolkit-For-Unity/internal/config"
	"github.com/fouable/Security-Camera-Toolkit-For-Unity/internal/dispatch"
	"github.com/fouable/Security-Camera-Toolkit-For-Unity/internal/framequeue"
	"github.com/fouable/Security-Camera-Toolkit-For-Unity/internal/logger"
	"github.com/fouable/Security-Camera-Toolkit-For-Unity/internal/metrics"
	"github.com/fouable/Security-Camera-Toolkit-For-Unity/internal/overlay"
	"github.com/fouable/Security-Camera-Toolkit-For-Unity/internal/recorder"
	"github.com/fouable/Security-Camera-Toolkit-For-Unity/pkg/types"
)

var (
	configPath = flag.String("config", "", "YAML config file (defaults used when empty)")
	httpAddr   = flag.String("http", "", "HTTP address for /metrics and /snapshot.jpg (overrides config)")
	logLevel   = flag.String("log-level", "", "Log level (debug, info, warn, error, silent; overrides config)")
)

// Simulator drives the frame queue the way an embedding application
// would: a producer goroutine pushes synthetic frames at source rate,
// and a consumer goroutine ticks at its own cadence, draining the
// synchronizer once per tick and polling the queue.
type Simulator struct {
	cfg     *config.Config
	queue   *framequeue.Queue[types.FrameStorage, *types.FrameStorage]
	metrics *metrics.Metrics
	rec     *recorder.Recorder // nil when recording is disabled

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	httpServer *http.Server

	// Synchronizer is created on the consumer goroutine, which owns it;
	// the producer receives it through this channel before posting.
	syncReady chan *dispatch.Synchronizer

	snapMu sync.Mutex
	latest []byte // copy of the most recently consumed payload
}

func main() {
	flag.Parse()

	cfg := config.Default()
	if *configPath != "" {
		loaded, err := config.Load(*configPath)
		if err != nil {
			log.Fatalf("Failed to load config: %v", err)
		}
		cfg = loaded
	}
	if *httpAddr != "" {
		cfg.HTTPAddr = *httpAddr
	}
	if *logLevel != "" {
		cfg.LogLevel = *logLevel
	}

	level, err := logger.ParseLevel(cfg.LogLevel)
	if err != nil {
		log.Fatalf("Invalid log level: %v", err)
	}
	logger.Init(level, os.Stderr, cfg.LogColor)

	logger.Info("Main", "Stream simulator starting (source %.1ffps %dx%d, tick %dms, queue max %d)",
		cfg.Source.FPS, cfg.Source.Width, cfg.Source.Height, cfg.Sink.TickMs, cfg.Queue.MaxLength)

	sim := NewSimulator(cfg)
	sim.Start()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	<-sigChan

	logger.Info("Main", "Shutting down...")
	sim.Shutdown()

	stats := sim.queue.Snapshot()
	logger.Info("Main", "Final stats: enqueued=%d dequeued=%d dropped=%d late=%d",
		stats.TotalEnqueued, stats.TotalDequeued, stats.TotalDropped, stats.TotalLate)
}

// NewSimulator wires the queue, metrics and HTTP surface together.
func NewSimulator(cfg *config.Config) *Simulator {
	ctx, cancel := context.WithCancel(context.Background())

	sim := &Simulator{
		cfg:       cfg,
		queue:     framequeue.NewWithWindow[types.FrameStorage](cfg.Queue.MaxLength, cfg.Queue.RateWindow),
		ctx:       ctx,
		cancel:    cancel,
		syncReady: make(chan *dispatch.Synchronizer, 1),
	}
	sim.metrics = metrics.New(sim.queue)
	if cfg.RecordPath != "" {
		sim.rec = recorder.New(cfg.RecordPath)
	}

	mux := http.NewServeMux()
	mux.Handle("/metrics", sim.metrics.Handler())
	mux.HandleFunc("/snapshot.jpg", sim.handleSnapshot)
	sim.httpServer = &http.Server{Addr: cfg.HTTPAddr, Handler: mux}

	return sim
}

// Start launches the consumer, the producer and the HTTP server.
func (s *Simulator) Start() {
	if s.rec != nil {
		if err := os.MkdirAll(s.cfg.RecordPath, 0755); err != nil {
			logger.Error("Recorder", "Cannot create %s: %v", s.cfg.RecordPath, err)
			s.rec = nil
		} else if err := s.rec.Start(); err != nil {
			logger.Error("Recorder", "Start failed: %v", err)
			s.rec = nil
		} else {
			logger.Info("Recorder", "Recording session to %s", s.cfg.RecordPath)
		}
	}

	s.wg.Add(2)
	go s.consumeLoop()
	go s.produceLoop()

	go func() {
		logger.Info("HTTP", "Serving /metrics and /snapshot.jpg on %s", s.cfg.HTTPAddr)
		if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("HTTP", "Server error: %v", err)
		}
	}()
}

// Shutdown stops the loops and the HTTP server.
func (s *Simulator) Shutdown() {
	s.cancel()
	s.wg.Wait()

	if s.rec != nil {
		if err := s.rec.Stop(); err != nil {
			logger.Warn("Recorder", "Stop: %v", err)
		} else {
			st := s.rec.GetStatus()
			logger.Info("Recorder", "Wrote %s: %d frames, %d bytes, %d skipped",
				st.Filename, st.FrameCount, st.BytesWritten, st.FramesSkipped)
		}
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := s.httpServer.Shutdown(ctx); err != nil {
		logger.Warn("HTTP", "Shutdown error: %v", err)
	}
}

// produceLoop generates test-pattern frames at the configured source
// rate and enqueues them. Overload handling is the queue's job; the
// producer never slows down or checks for room.
func (s *Simulator) produceLoop() {
	defer s.wg.Done()

	var disp *dispatch.Synchronizer
	select {
	case disp = <-s.syncReady:
	case <-s.ctx.Done():
		return
	}

	ticker := time.NewTicker(s.cfg.FrameInterval())
	defer ticker.Stop()

	// Report roughly every five seconds of source time.
	reportEvery := uint64(s.cfg.Source.FPS * 5)
	if reportEvery == 0 {
		reportEvery = 1
	}

	var frameNum uint64
	for {
		select {
		case <-s.ctx.Done():
			return
		case <-ticker.C:
			img := overlay.TestPattern(s.cfg.Source.Width, s.cfg.Source.Height, frameNum)
			payload, err := overlay.EncodeFrame(img)
			if err != nil {
				logger.Error("Producer", "Frame %d: %v", frameNum, err)
				continue
			}
			s.queue.Enqueue(types.Frame{
				Data:      payload,
				Timestamp: time.Now(),
				Width:     uint32(s.cfg.Source.Width),
				Height:    uint32(s.cfg.Source.Height),
			})
			frameNum++

			// Periodic stat report, marshalled onto the consumer
			// goroutine through the synchronizer.
			if frameNum%reportEvery == 0 {
				stats := s.queue.Snapshot()
				disp.Post(func() {
					logger.Info("Stats", "queued=%.1f/s dequeued=%.1f/s dropped=%.1f/s len=%d pool=%d",
						stats.QueuedPerSecond, stats.DequeuedPerSecond, stats.DroppedPerSecond,
						stats.QueueLen, stats.PoolSize)
				})
			}
		}
	}
}

// consumeLoop is the owner goroutine: each tick drains at most one
// posted callback, then polls the queue and recycles the storage after
// copying the payload out for the snapshot endpoint.
func (s *Simulator) consumeLoop() {
	defer s.wg.Done()

	disp := dispatch.New()
	s.syncReady <- disp

	ticker := time.NewTicker(s.cfg.TickInterval())
	defer ticker.Stop()

	for {
		select {
		case <-s.ctx.Done():
			return
		case <-ticker.C:
			disp.Drain()

			storage, ok := s.queue.TryDequeue()
			if !ok {
				continue
			}
			s.keepSnapshot(storage.Bytes())
			if s.rec != nil {
				s.rec.Submit(storage.Bytes())
			}
			s.queue.RecycleStorage(storage)
		}
	}
}

// keepSnapshot copies the payload before the storage goes back to the
// pool; the snapshot buffer must not alias recycled memory.
func (s *Simulator) keepSnapshot(payload []byte) {
	s.snapMu.Lock()
	if cap(s.latest) < len(payload) {
		s.latest = make([]byte, len(payload))
	}
	s.latest = s.latest[:len(payload)]
	copy(s.latest, payload)
	s.snapMu.Unlock()
}

// handleSnapshot serves the most recent frame with the diagnostics
// overlay drawn on top.
func (s *Simulator) handleSnapshot(w http.ResponseWriter, r *http.Request) {
	s.snapMu.Lock()
	payload := make([]byte, len(s.latest))
	copy(payload, s.latest)
	s.snapMu.Unlock()

	if len(payload) == 0 {
		http.Error(w, "no frame consumed yet", http.StatusNotFound)
		return
	}

	annotated, err := overlay.Annotate(payload, s.queue.Snapshot())
	if err != nil {
		logger.Error("HTTP", "Snapshot: %v", err)
		http.Error(w, "annotate failed", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "image/jpeg")
	_, _ = w.Write(annotated)
}
