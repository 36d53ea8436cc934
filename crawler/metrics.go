package crawler

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics bundles Prometheus collectors for the crawl run.
type Metrics struct {
	Registry        *prometheus.Registry
	UnitsTotal      *prometheus.CounterVec
	PagesSavedTotal prometheus.Counter
	TargetsDone     prometheus.Counter
	FetchDuration   prometheus.Histogram
}

// NewMetrics constructs and registers all metrics on a dedicated registry.
func NewMetrics() *Metrics {
	registry := prometheus.NewRegistry()

	units := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "crawler_units_total",
			Help: "Work units handled by the crawler, by outcome.",
		},
		[]string{"outcome"},
	)
	pagesSaved := prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "crawler_pages_saved_total",
			Help: "Result pages persisted to the snapshot store.",
		},
	)
	targetsDone := prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "crawler_targets_completed_total",
			Help: "Targets fully crawled and removed from the backlog.",
		},
	)
	fetchDuration := prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "crawler_unit_fetch_duration_seconds",
			Help:    "Wall time spent fetching one work unit, pagination included.",
			Buckets: prometheus.ExponentialBuckets(1, 2, 10),
		},
	)

	registry.MustRegister(units, pagesSaved, targetsDone, fetchDuration)

	return &Metrics{
		Registry:        registry,
		UnitsTotal:      units,
		PagesSavedTotal: pagesSaved,
		TargetsDone:     targetsDone,
		FetchDuration:   fetchDuration,
	}
}

// IncUnit counts one handled unit by outcome.
func (m *Metrics) IncUnit(outcome string) {
	if m == nil {
		return
	}
	m.UnitsTotal.WithLabelValues(outcome).Inc()
}

// AddPages counts persisted snapshot pages.
func (m *Metrics) AddPages(n int) {
	if m == nil {
		return
	}
	m.PagesSavedTotal.Add(float64(n))
}

// IncTargetDone counts a fully crawled target.
func (m *Metrics) IncTargetDone() {
	if m == nil {
		return
	}
	m.TargetsDone.Inc()
}

// ObserveFetch records the duration of one unit fetch.
func (m *Metrics) ObserveFetch(d time.Duration) {
	if m == nil {
		return
	}
	m.FetchDuration.Observe(d.Seconds())
}
