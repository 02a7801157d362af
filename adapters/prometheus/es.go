package prometheus

import (
	"github.com/prometheus/client_golang/prometheus"

	"github.com/ahumphreys87/ddd-workshop/core/es"
	"github.com/ahumphreys87/ddd-workshop/core/metrics"
)

const namespace = "ddd_es"

type esMetrics struct {
	repoLoadDuration     *prometheus.HistogramVec
	repoSaveDuration     *prometheus.HistogramVec
	eventsAppended       *prometheus.CounterVec
	concurrencyConflicts *prometheus.CounterVec
	unhandledEvents      *prometheus.CounterVec
}

// NewESMetrics registers the repository collectors with reg and returns the
// es.Metrics that feeds them.
func NewESMetrics(reg prometheus.Registerer) es.Metrics {
	m := &esMetrics{
		repoLoadDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "repo_load_duration_seconds",
			Help:      "Aggregate load latency in seconds",
			Buckets:   defaultBuckets,
		}, []string{"aggregate_type"}),

		repoSaveDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "repo_save_duration_seconds",
			Help:      "Aggregate save latency in seconds",
			Buckets:   defaultBuckets,
		}, []string{"aggregate_type"}),

		eventsAppended: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "events_appended_total",
			Help:      "Total number of events appended to streams",
		}, []string{"aggregate_type"}),

		concurrencyConflicts: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "concurrency_conflicts_total",
			Help:      "Total number of saves rejected because the stream moved on",
		}, []string{"aggregate_type"}),

		unhandledEvents: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "unhandled_events_total",
			Help:      "Total number of loads that hit an event the aggregate has no handler for",
		}, []string{"aggregate_type", "event_type"}),
	}

	reg.MustRegister(
		m.repoLoadDuration,
		m.repoSaveDuration,
		m.eventsAppended,
		m.concurrencyConflicts,
		m.unhandledEvents,
	)

	return m
}

func (m *esMetrics) RepoLoadDuration(aggType string) metrics.Timer {
	return newTimer(m.repoLoadDuration.WithLabelValues(aggType))
}

func (m *esMetrics) RepoSaveDuration(aggType string) metrics.Timer {
	return newTimer(m.repoSaveDuration.WithLabelValues(aggType))
}

func (m *esMetrics) EventsAppended(aggType string, count int) {
	m.eventsAppended.WithLabelValues(aggType).Add(float64(count))
}

func (m *esMetrics) ConcurrencyConflict(aggType string) {
	m.concurrencyConflicts.WithLabelValues(aggType).Inc()
}

func (m *esMetrics) UnhandledEvent(aggType, eventType string) {
	m.unhandledEvents.WithLabelValues(aggType, eventType).Inc()
}

var _ es.Metrics = (*esMetrics)(nil)
