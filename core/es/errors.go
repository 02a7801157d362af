package es

import (
	"errors"
	"fmt"
)

var (
	ErrAggregateNotFound   = errors.New("aggregate not found")
	ErrConcurrencyConflict = errors.New("concurrency conflict")
	ErrUnknownEventType    = errors.New("unknown event type")
	ErrUnhandledEvent      = errors.New("unhandled event")
	ErrDataIntegrity       = errors.New("data integrity violation")
	ErrEventAlreadyApplied = errors.New("event already applied")
)

// UnhandledEventError reports an event variant for which the aggregate has no
// mutation handler. It is a programming error: a new event type shipped
// without its handler.
type UnhandledEventError struct {
	AggregateType string
	EventType     string
}

func (e *UnhandledEventError) Error() string {
	return fmt.Sprintf("%s: aggregate %q has no handler for %q", ErrUnhandledEvent, e.AggregateType, e.EventType)
}

func (e *UnhandledEventError) Is(target error) bool { return target == ErrUnhandledEvent }

// DataIntegrityError reports a persisted event history that cannot be
// trusted: version gaps, a history longer than its version, or a payload
// whose hash does not match.
type DataIntegrityError struct {
	Reason string
}

func (e *DataIntegrityError) Error() string {
	return fmt.Sprintf("%s: %s", ErrDataIntegrity, e.Reason)
}

func (e *DataIntegrityError) Is(target error) bool { return target == ErrDataIntegrity }

func dataIntegrityErrorf(format string, args ...any) error {
	return &DataIntegrityError{Reason: fmt.Sprintf(format, args...)}
}
