// Package metrics exposes Prometheus collectors for the scraping pipeline.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Failure stages.
const (
	StageExtract = "extract"
	StagePersist = "persist"
	StageSource  = "source"
)

// Metrics holds the pipeline collectors and the registry they live in.
// A nil *Metrics is valid and records nothing.
type Metrics struct {
	registry        *prometheus.Registry
	eventsProcessed *prometheus.CounterVec
	eventFailures   *prometheus.CounterVec
	placeholders    *prometheus.CounterVec
	scrapeDuration  *prometheus.HistogramVec
}

// New creates and registers all collectors on a fresh registry
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		eventsProcessed: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "netnav_events_processed_total",
			Help: "Events upserted, by source host.",
		}, []string{"source"}),
		eventFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "netnav_event_failures_total",
			Help: "Events skipped because of an error, by source host and stage.",
		}, []string{"source", "stage"}),
		placeholders: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "netnav_placeholder_events_total",
			Help: "Placeholder events synthesized when a page yielded nothing.",
		}, []string{"source"}),
		scrapeDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "netnav_scrape_duration_seconds",
			Help:    "Wall time of a full scrape of one source.",
			Buckets: prometheus.ExponentialBuckets(0.25, 2, 8),
		}, []string{"outcome"}),
	}
	m.registry.MustRegister(
		m.eventsProcessed,
		m.eventFailures,
		m.placeholders,
		m.scrapeDuration,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return m
}

// Registry returns the underlying registry
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler serves the registry in the Prometheus exposition format
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// EventProcessed counts one successfully stored event
func (m *Metrics) EventProcessed(source string) {
	if m == nil {
		return
	}
	m.eventsProcessed.WithLabelValues(source).Inc()
}

// EventFailed counts one event dropped at stage
func (m *Metrics) EventFailed(source, stage string) {
	if m == nil {
		return
	}
	m.eventFailures.WithLabelValues(source, stage).Inc()
}

// PlaceholdersAdded counts synthesized events
func (m *Metrics) PlaceholdersAdded(source string, n int) {
	if m == nil || n <= 0 {
		return
	}
	m.placeholders.WithLabelValues(source).Add(float64(n))
}

// ScrapeFinished records how long a scrape took; outcome is "ok" or "error"
func (m *Metrics) ScrapeFinished(outcome string, d time.Duration) {
	if m == nil {
		return
	}
	m.scrapeDuration.WithLabelValues(outcome).Observe(d.Seconds())
}
