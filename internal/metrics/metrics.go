// Package metrics exposes frame queue statistics to Prometheus.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/fouable/Security-Camera-Toolkit-For-Unity/internal/framequeue"
)

// StatsSource is anything that can produce a queue statistics
// snapshot. Satisfied by *framequeue.Queue of any storage type.
type StatsSource interface {
	Snapshot() framequeue.Stats
}

// Metrics registers gauge collectors over a queue's statistics on a
// private registry. Collection reads a fresh snapshot, so scrapes
// always see current values without the queue pushing anything.
type Metrics struct {
	source   StatsSource
	registry *prometheus.Registry
}

// New creates a Metrics instance observing the given queue.
func New(source StatsSource) *Metrics {
	m := &Metrics{
		source:   source,
		registry: prometheus.NewRegistry(),
	}
	m.register()
	return m
}

func (m *Metrics) register() {
	gauges := []struct {
		name  string
		help  string
		value func(framequeue.Stats) float64
	}{
		{
			"framequeue_queued_fps",
			"Short-term rate of frames offered by the source, dropped or not",
			func(s framequeue.Stats) float64 { return s.QueuedPerSecond },
		},
		{
			"framequeue_dequeued_fps",
			"Short-term rate of frames consumed by the sink",
			func(s framequeue.Stats) float64 { return s.DequeuedPerSecond },
		},
		{
			"framequeue_dropped_fps",
			"Short-term rate of frames dropped at capacity",
			func(s framequeue.Stats) float64 { return s.DroppedPerSecond },
		},
		{
			"framequeue_length",
			"Frames currently awaiting delivery",
			func(s framequeue.Stats) float64 { return float64(s.QueueLen) },
		},
		{
			"framequeue_pool_size",
			"Storage buffers currently available for reuse",
			func(s framequeue.Stats) float64 { return float64(s.PoolSize) },
		},
		{
			"framequeue_enqueued_total",
			"Total frames offered to the queue",
			func(s framequeue.Stats) float64 { return float64(s.TotalEnqueued) },
		},
		{
			"framequeue_dequeued_total",
			"Total frames delivered to the sink",
			func(s framequeue.Stats) float64 { return float64(s.TotalDequeued) },
		},
		{
			"framequeue_dropped_total",
			"Total frames dropped at capacity",
			func(s framequeue.Stats) float64 { return float64(s.TotalDropped) },
		},
		{
			"framequeue_late_total",
			"Total frames delivered around the queue for low latency",
			func(s framequeue.Stats) float64 { return float64(s.TotalLate) },
		},
	}

	for _, g := range gauges {
		value := g.value
		m.registry.MustRegister(prometheus.NewGaugeFunc(
			prometheus.GaugeOpts{Name: g.name, Help: g.help},
			func() float64 { return value(m.source.Snapshot()) },
		))
	}
}

// Handler returns the Prometheus HTTP handler for the private registry.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
