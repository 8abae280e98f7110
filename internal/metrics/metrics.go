// Package metrics counts reviews and sessions on a private prometheus
// registry. The CLI is short lived, so results are exported through the
// node exporter textfile format rather than a scrape endpoint.
package metrics

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/abhisek/lexiz/internal/spacedrep"
)

// Collector holds the lexiz metrics. A nil *Collector is valid and records
// nothing.
type Collector struct {
	registry *prometheus.Registry

	reviews  *prometheus.CounterVec
	quality  prometheus.Histogram
	interval prometheus.Histogram
	sessions *prometheus.CounterVec
}

// New creates a Collector with its own registry.
func New() *Collector {
	c := &Collector{
		registry: prometheus.NewRegistry(),
		reviews: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "lexiz_reviews_total",
			Help: "Recorded review outcomes by retrieval method and effective rating.",
		}, []string{"method", "effective_rating"}),
		quality: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "lexiz_adjusted_quality",
			Help:    "Latency and method adjusted recall quality (0-5).",
			Buckets: prometheus.LinearBuckets(0.5, 0.5, 10),
		}),
		interval: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "lexiz_interval_days",
			Help:    "Review interval assigned after each outcome.",
			Buckets: []float64{1, 2, 6, 14, 30, 60, 120, 240, 365},
		}),
		sessions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "lexiz_sessions_total",
			Help: "Finished review sessions by outcome.",
		}, []string{"outcome"}),
	}
	c.registry.MustRegister(c.reviews, c.quality, c.interval, c.sessions)
	return c
}

// Registry exposes the underlying registry.
func (c *Collector) Registry() *prometheus.Registry {
	if c == nil {
		return nil
	}
	return c.registry
}

// ObserveReview records one review outcome.
func (c *Collector) ObserveReview(method spacedrep.Method, effective spacedrep.Rating, adjustedQuality float64, intervalDays int) {
	if c == nil {
		return
	}
	c.reviews.WithLabelValues(string(method), string(effective)).Inc()
	c.quality.Observe(adjustedQuality)
	c.interval.Observe(float64(intervalDays))
}

// ObserveSession records a finished session; outcome is "completed" or
// "aborted".
func (c *Collector) ObserveSession(outcome string) {
	if c == nil {
		return
	}
	c.sessions.WithLabelValues(outcome).Inc()
}

// WriteTextfile writes the current metrics to path in the text exposition
// format, creating parent directories as needed.
func (c *Collector) WriteTextfile(path string) error {
	if c == nil || path == "" {
		return nil
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create metrics dir: %w", err)
	}
	if err := prometheus.WriteToTextfile(path, c.registry); err != nil {
		return fmt.Errorf("write metrics: %w", err)
	}
	return nil
}
