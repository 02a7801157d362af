// Package metrics provides backend-neutral instrumentation interfaces so the
// core packages stay free of any specific metrics library.
package metrics

// Timer measures the duration of an operation. Call ObserveDuration when
// the operation completes:
//
//	defer m.RepoLoadDuration("product").ObserveDuration()
type Timer interface {
	ObserveDuration()
}

type nopTimer struct{}

func (nopTimer) ObserveDuration() {}

func NopTimer() Timer { return nopTimer{} }
