package es

import (
	"encoding/hex"
	"fmt"
	"reflect"
	"slices"
	"sync"

	"golang.org/x/crypto/blake2b"

	"github.com/ahumphreys87/ddd-workshop/internal/codec"
)

// Event is an immutable fact about an aggregate. Concrete events embed
// EventMeta and are always handled by pointer:
//
//	type NameChanged struct {
//	    es.EventMeta
//	    Name string `json:"name"`
//	}
//
//	func (*NameChanged) EventType() string { return "product.name_changed" }
//
// The version is stamped by Apply, never by the event's constructor. Once
// applied, an event must not be modified.
type Event interface {
	// EventType is the stable discriminator used for dispatch and decoding.
	EventType() string
	// EventVersion is the aggregate version after this event was applied.
	EventVersion() Version

	stampVersion(Version)
}

// EventMeta carries the bookkeeping every event shares.
type EventMeta struct {
	Version Version `json:"version"`
}

func (m EventMeta) EventVersion() Version   { return m.Version }
func (m *EventMeta) stampVersion(v Version) { m.Version = v }

// isNilEvent also catches a nil pointer wrapped in a non-nil Event, which
// would panic on the first method call through the embedded EventMeta.
func isNilEvent(e Event) bool {
	if e == nil {
		return true
	}
	v := reflect.ValueOf(e)
	return v.Kind() == reflect.Pointer && v.IsNil()
}

// EventsEqual reports structural equality: same variant, same payload and
// same version.
func EventsEqual(a, b Event) bool {
	if isNilEvent(a) || isNilEvent(b) {
		return isNilEvent(a) && isNilEvent(b)
	}
	if a.EventType() != b.EventType() {
		return false
	}
	return reflect.DeepEqual(a, b)
}

// HashEvent returns a hex encoded BLAKE2b-256 digest over the event type,
// version and payload. Structurally equal events hash equally.
func HashEvent(e Event) (string, error) {
	data, err := codec.Default.Marshal(e)
	if err != nil {
		return "", fmt.Errorf("failed to encode %s: %w", e.EventType(), err)
	}
	h, err := blake2b.New256(nil)
	if err != nil {
		return "", err
	}
	h.Write([]byte(e.EventType()))
	h.Write([]byte{0})
	h.Write(data)
	return hex.EncodeToString(h.Sum(nil)), nil
}

// === Registry ===

// Registrar accepts event constructors keyed by event type.
type Registrar interface {
	Register(eventType string, ctor func() Event)
}

// EventRegistry maps event types to constructors so persisted envelopes can
// be decoded back into events.
type EventRegistry struct {
	mu    sync.RWMutex
	ctors map[string]func() Event
}

func NewRegistry() *EventRegistry {
	return &EventRegistry{ctors: map[string]func() Event{}}
}

func (r *EventRegistry) Register(eventType string, ctor func() Event) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.ctors[eventType] = ctor
}

// Types lists the registered event types in sorted order.
func (r *EventRegistry) Types() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]string, 0, len(r.ctors))
	for t := range r.ctors {
		out = append(out, t)
	}
	slices.Sort(out)
	return out
}

func (r *EventRegistry) ctor(eventType string) (func() Event, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	ctor, ok := r.ctors[eventType]
	return ctor, ok
}

var _ Registrar = (*EventRegistry)(nil)
