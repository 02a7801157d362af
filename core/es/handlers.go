package es

import "fmt"

// Handlers is the dispatch table of one aggregate type: event type to
// mutation function. Build it once per aggregate type and route the
// aggregate's Mutate through Dispatch:
//
//	var productHandlers = es.NewHandlers("product",
//	    es.On((*Product).whenDefined),
//	    es.On((*Product).whenNameChanged),
//	)
//
//	func (p *Product) Mutate(e es.Event) error { return productHandlers.Dispatch(p, e) }
//
// Dispatch never reflects: the table is keyed by EventType and each entry
// holds a typed closure created by On.
type Handlers[A any] struct {
	aggType string
	entries map[string]Handler[A]
}

// Handler is one entry of a Handlers table.
type Handler[A any] struct {
	eventType string
	ctor      func() Event
	mutate    func(agg A, e Event) bool
}

type eventPtr[T any] interface {
	*T
	Event
}

// On binds a mutation function to the event variant of its second parameter.
func On[A any, T any, E eventPtr[T]](fn func(A, E)) Handler[A] {
	ctor := func() Event { return E(new(T)) }
	return Handler[A]{
		eventType: ctor().EventType(),
		ctor:      ctor,
		mutate: func(agg A, e Event) bool {
			typed, ok := e.(E)
			if !ok {
				return false
			}
			fn(agg, typed)
			return true
		},
	}
}

// NewHandlers builds the table. Registering an event type twice panics.
func NewHandlers[A any](aggType string, handlers ...Handler[A]) *Handlers[A] {
	h := &Handlers[A]{
		aggType: aggType,
		entries: make(map[string]Handler[A], len(handlers)),
	}
	for _, entry := range handlers {
		if _, dup := h.entries[entry.eventType]; dup {
			panic(fmt.Sprintf("es: duplicate handler for %q on %q", entry.eventType, aggType))
		}
		h.entries[entry.eventType] = entry
	}
	return h
}

// Dispatch applies e to agg with the handler registered for its variant.
// Without a matching handler agg is left untouched and an
// *UnhandledEventError is returned.
func (h *Handlers[A]) Dispatch(agg A, e Event) error {
	entry, ok := h.entries[e.EventType()]
	if !ok || !entry.mutate(agg, e) {
		return &UnhandledEventError{AggregateType: h.aggType, EventType: e.EventType()}
	}
	return nil
}

func (h *Handlers[A]) Handles(eventType string) bool {
	_, ok := h.entries[eventType]
	return ok
}

func (h *Handlers[A]) AggregateType() string { return h.aggType }

// Register hands the constructor of every handled event to r.
func (h *Handlers[A]) Register(r Registrar) {
	for eventType, entry := range h.entries {
		r.Register(eventType, entry.ctor)
	}
}
