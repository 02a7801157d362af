package es

import (
	"errors"
	"fmt"
)

// Aggregate is an entity whose state is a fold over its ordered events.
//
// Concrete aggregates embed Root for the bookkeeping and supply
// AggregateType, Mutate and Register themselves. Mutate is the variant
// dispatch; it is usually a one-liner over a Handlers table.
//
// The typical lifecycle is:
//  1. Construct fresh (the constructor applies a "defined" event) or load via
//     FromHistory / Repository.
//  2. Call domain methods, each of which calls Apply.
//  3. Persist PendingEvents and call ClearPending.
type Aggregate interface {
	// AggregateType names the kind of aggregate, used to key its stream.
	AggregateType() string
	ID() string
	SetID(string)

	// Version is the number of events ever applied.
	Version() Version
	// PendingEvents returns the events applied since the aggregate was
	// constructed fresh or reconstituted. The slice is the caller's own; the
	// events it points to are shared and must be treated as read-only.
	PendingEvents() []Event
	ClearPending()

	// Mutate updates the concrete state from e. It must leave the state
	// untouched when it returns an error.
	Mutate(e Event) error
	// Register registers the constructors of all events the aggregate handles.
	Register(r Registrar)

	root() *Root
}

// Root is the embeddable bookkeeping of an aggregate: identity, version and
// the pending buffer. The zero value is a fresh aggregate at version 0.
type Root struct {
	id            string
	version       Version
	pending       []Event
	reconstituted bool
}

func (r *Root) root() *Root         { return r }
func (r *Root) ID() string          { return r.id }
func (r *Root) SetID(id string)     { r.id = id }
func (r *Root) Version() Version    { return r.version }
func (r *Root) Reconstituted() bool { return r.reconstituted }
func (r *Root) ClearPending()       { r.pending = nil }

// PendingEvents copies the pending slice. The events themselves are shared
// with the aggregate and must not be modified.
func (r *Root) PendingEvents() []Event {
	out := make([]Event, len(r.pending))
	copy(out, r.pending)
	return out
}

// TakePending returns the pending events and empties the buffer in one step.
func (r *Root) TakePending() []Event {
	out := r.pending
	r.pending = nil
	if out == nil {
		return []Event{}
	}
	return out
}

// Apply records events on agg one by one: stamp version+1, dispatch to the
// concrete handler, append to pending, advance the version.
//
// Only fresh events are accepted. An event that already carries a version
// belongs to some aggregate's history and fails with ErrEventAlreadyApplied.
//
// If dispatch fails the failing event stays unstamped and agg is left exactly
// as it was before that event. Events earlier in the same call stay applied.
func Apply(agg Aggregate, events ...Event) error {
	r := agg.root()
	for _, e := range events {
		if isNilEvent(e) {
			return errors.New("cannot apply nil event")
		}
		if v := e.EventVersion(); v != 0 {
			return fmt.Errorf("%w: %s at version %d", ErrEventAlreadyApplied, e.EventType(), v)
		}

		next := r.version.Next()
		e.stampVersion(next)
		if err := agg.Mutate(e); err != nil {
			e.stampVersion(0)
			return err
		}

		r.pending = append(r.pending, e)
		r.version = next
	}
	return nil
}

// === Reconstitution ===

type (
	replayOptions struct{ checkVersions bool }
	ReplayOption  interface{ applyToReplay(*replayOptions) }

	VersionCheckOption struct{}
)

// WithVersionCheck makes Reconstitute reject a history whose stamped
// versions are not contiguous and ending at the target version.
func WithVersionCheck() VersionCheckOption                { return VersionCheckOption{} }
func (VersionCheckOption) applyToReplay(o *replayOptions) { o.checkVersions = true }

// Reconstitute replays history through agg's handlers without recording it
// as pending. Afterwards agg.Version() == version and nothing is pending.
//
// The version is taken from the caller, not counted, so a history may start
// in the middle of a stream. Pass WithVersionCheck to validate it.
func Reconstitute(agg Aggregate, history []Event, version Version, opts ...ReplayOption) error {
	options := replayOptions{}
	for _, opt := range opts {
		opt.applyToReplay(&options)
	}

	if options.checkVersions {
		if err := checkHistory(history, version); err != nil {
			return err
		}
	}

	for i, e := range history {
		if isNilEvent(e) {
			return fmt.Errorf("replay event %d of %d: nil event", i+1, len(history))
		}
		if err := agg.Mutate(e); err != nil {
			return fmt.Errorf("replay event %d of %d: %w", i+1, len(history), err)
		}
	}

	r := agg.root()
	r.version = version
	r.pending = nil
	r.reconstituted = true
	return nil
}

// FromHistory constructs an aggregate with newAgg and reconstitutes it.
func FromHistory[A Aggregate](newAgg func() A, history []Event, version Version, opts ...ReplayOption) (A, error) {
	agg := newAgg()
	if err := Reconstitute(agg, history, version, opts...); err != nil {
		var zero A
		return zero, err
	}
	return agg, nil
}

func checkHistory(history []Event, version Version) error {
	n := Version(len(history))
	if n > version {
		return dataIntegrityErrorf("history holds %d events but version is %d", n, version)
	}
	base := version - n
	for i, e := range history {
		if isNilEvent(e) {
			continue
		}
		want := base + Version(i+1)
		if got := e.EventVersion(); got != want {
			return dataIntegrityErrorf("event %d (%s) has version %d, want %d", i+1, e.EventType(), got, want)
		}
	}
	return nil
}
