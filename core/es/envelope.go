package es

import (
	"errors"
	"fmt"
	"time"

	gonanoid "github.com/matoous/go-nanoid/v2"

	"github.com/ahumphreys87/ddd-workshop/internal/codec"
)

// Envelope is the persisted form of one event: the event type acts as the
// variant tag, Data holds the JSON payload.
type Envelope struct {
	// ID is the unique identifier of this envelope.
	ID string `json:"id"`
	// Type is the event type used to pick the constructor on decode.
	Type string `json:"type"`
	// Version is the aggregate version after the event (1, 2, 3, ...).
	Version Version `json:"version"`
	// OccurredAt is when the event was encoded for persistence.
	OccurredAt time.Time `json:"occurred_at"`
	// Hash is the HashEvent digest of the event, verified on decode.
	Hash string           `json:"hash"`
	Data codec.RawMessage `json:"data"`
}

func (e Envelope) Validate() error {
	if e.ID == "" {
		return errors.New("envelope id is empty")
	}
	if e.Type == "" {
		return errors.New("envelope type is empty")
	}
	if e.Version == 0 {
		return errors.New("envelope version is zero")
	}
	if e.OccurredAt.IsZero() {
		return errors.New("envelope occurred at is zero")
	}
	return nil
}

// IDGenerator generates unique envelope IDs.
type IDGenerator func() string

// DefaultIDGenerator returns the default ID generator using nanoid.
func DefaultIDGenerator() IDGenerator {
	return func() string { return gonanoid.Must() }
}

// EncodeEvent wraps an applied event into an Envelope.
func EncodeEvent(e Event, newID IDGenerator) (Envelope, error) {
	if isNilEvent(e) {
		return Envelope{}, errors.New("cannot encode nil event")
	}
	if newID == nil {
		newID = DefaultIDGenerator()
	}
	data, err := codec.Default.Marshal(e)
	if err != nil {
		return Envelope{}, fmt.Errorf("failed to encode %s: %w", e.EventType(), err)
	}
	hash, err := HashEvent(e)
	if err != nil {
		return Envelope{}, err
	}
	env := Envelope{
		ID:         newID(),
		Type:       e.EventType(),
		Version:    e.EventVersion(),
		OccurredAt: time.Now(),
		Hash:       hash,
		Data:       data,
	}
	if err := env.Validate(); err != nil {
		return Envelope{}, err
	}
	return env, nil
}

// Decode turns env back into its event. The event carries env.Version and,
// when env has a hash, must reproduce it.
func (r *EventRegistry) Decode(env Envelope) (Event, error) {
	ctor, ok := r.ctor(env.Type)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownEventType, env.Type)
	}
	ev := ctor()
	if len(env.Data) > 0 {
		if err := codec.Default.Unmarshal(env.Data, ev); err != nil {
			return nil, fmt.Errorf("failed to decode %s: %w", env.Type, err)
		}
	}
	ev.stampVersion(env.Version)

	if env.Hash != "" {
		hash, err := HashEvent(ev)
		if err != nil {
			return nil, err
		}
		if hash != env.Hash {
			return nil, dataIntegrityErrorf("envelope %s (%s v%d) hash mismatch", env.ID, env.Type, env.Version)
		}
	}
	return ev, nil
}

// DecodeAll decodes envs in order.
func (r *EventRegistry) DecodeAll(envs []Envelope) ([]Event, error) {
	out := make([]Event, 0, len(envs))
	for _, env := range envs {
		ev, err := r.Decode(env)
		if err != nil {
			return nil, err
		}
		out = append(out, ev)
	}
	return out, nil
}
