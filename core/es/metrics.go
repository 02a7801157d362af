package es

import "github.com/ahumphreys87/ddd-workshop/core/metrics"

// Metrics is the instrumentation hook of the repository. Implementations
// must be safe for concurrent use.
type Metrics interface {
	RepoLoadDuration(aggType string) metrics.Timer
	RepoSaveDuration(aggType string) metrics.Timer
	EventsAppended(aggType string, count int)
	ConcurrencyConflict(aggType string)
	UnhandledEvent(aggType, eventType string)
}

type nopMetrics struct{}

func (nopMetrics) RepoLoadDuration(string) metrics.Timer { return metrics.NopTimer() }
func (nopMetrics) RepoSaveDuration(string) metrics.Timer { return metrics.NopTimer() }
func (nopMetrics) EventsAppended(string, int)            {}
func (nopMetrics) ConcurrencyConflict(string)            {}
func (nopMetrics) UnhandledEvent(string, string)         {}

// NopMetrics returns a Metrics implementation that records nothing.
func NopMetrics() Metrics { return nopMetrics{} }
