// Package metrics registers the scan counters:
//
//	market_signal_scan_chunks_total
//	market_signal_scan_rows_total
//	market_signal_scan_failures_total
//	market_signal_scan_fetch_seconds
//
// and serves them with the go_* and process_* collectors through promhttp.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Recorder receives scan events. Nop discards them.
type Recorder interface {
	ChunkFetched(signal string, rows int, elapsed time.Duration)
	ChunkFailed(signal string)
}

// Scan holds the scan collectors of one registry.
type Scan struct {
	registry *prometheus.Registry
	chunks   *prometheus.CounterVec
	rows     *prometheus.CounterVec
	failures *prometheus.CounterVec
	fetch    *prometheus.HistogramVec
}

var _ Recorder = (*Scan)(nil)

// NewScan creates the scan collectors on a fresh registry.
func NewScan() *Scan {
	s := &Scan{
		registry: prometheus.NewRegistry(),
		chunks: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "market_signal_scan_chunks_total",
				Help: "Number of chunks fetched from the store",
			},
			[]string{"signal"},
		),
		rows: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "market_signal_scan_rows_total",
				Help: "Number of rows fetched from the store",
			},
			[]string{"signal"},
		),
		failures: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "market_signal_scan_failures_total",
				Help: "Number of failed chunk fetches",
			},
			[]string{"signal"},
		),
		fetch: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "market_signal_scan_fetch_seconds",
				Help:    "Latency of a single chunk fetch",
				Buckets: prometheus.ExponentialBuckets(0.005, 2, 14),
			},
			[]string{"signal"},
		),
	}

	s.registry.MustRegister(
		s.chunks,
		s.rows,
		s.failures,
		s.fetch,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	return s
}

// ChunkFetched records a successful fetch.
func (s *Scan) ChunkFetched(signal string, rows int, elapsed time.Duration) {
	s.chunks.WithLabelValues(signal).Inc()
	s.rows.WithLabelValues(signal).Add(float64(rows))
	s.fetch.WithLabelValues(signal).Observe(elapsed.Seconds())
}

// ChunkFailed records a failed fetch.
func (s *Scan) ChunkFailed(signal string) {
	s.failures.WithLabelValues(signal).Inc()
}

// Handler serves the registry in the prometheus text format.
func (s *Scan) Handler() http.Handler {
	return promhttp.HandlerFor(s.registry, promhttp.HandlerOpts{})
}

// Nop is a Recorder that records nothing.
type Nop struct{}

func (Nop) ChunkFetched(string, int, time.Duration) {}
func (Nop) ChunkFailed(string)                      {}
