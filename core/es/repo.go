package es

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"sync"

	"github.com/ahumphreys87/ddd-workshop/core/cache"
	"github.com/ahumphreys87/ddd-workshop/core/perkey"
	"github.com/ahumphreys87/ddd-workshop/core/sf"
	"github.com/ahumphreys87/ddd-workshop/internal/codec"
	"github.com/ahumphreys87/ddd-workshop/ports/kv"
)

// Repository loads aggregates by reconstituting them from their persisted
// stream and persists their pending events.
type Repository interface {
	// Load reconstitutes agg, whose AggregateType and ID must be set, from its
	// stream. A missing stream yields ErrAggregateNotFound.
	Load(ctx context.Context, agg Aggregate) error
	// Save appends agg's pending events and then clears them. If the stream
	// moved on since agg was loaded it returns ErrConcurrencyConflict and
	// keeps the pending events.
	Save(ctx context.Context, agg Aggregate) error
}

// streamRecord is the kv value holding one aggregate's stream.
type streamRecord struct {
	AggregateType string     `json:"aggregate"`
	AggregateID   string     `json:"aggregate_id"`
	Version       Version    `json:"version"`
	Events        []Envelope `json:"events"`

	revision uint64
}

// StreamKey is the kv key of an aggregate's stream.
func StreamKey(aggType, aggID string) string { return aggType + "." + aggID }

type repository struct {
	log        *slog.Logger
	store      kv.Store
	registry   *EventRegistry
	metrics    Metrics
	newID      IDGenerator
	records    cache.Cache[*streamRecord]
	recordsMu  sync.Mutex
	fetches    sf.Group[*streamRecord]
	registered sync.Map
}

func NewRepository(log *slog.Logger, store kv.Store, opts ...RepositoryOption) Repository {
	if log == nil {
		log = slog.Default()
	}
	options := newRepoOpts(opts...)
	var records cache.Cache[*streamRecord] = cache.NewNop[*streamRecord]()
	if options.cacheSize > 0 {
		records = cache.NewLRU[*streamRecord](cache.LRUOpts{Size: options.cacheSize})
	}
	return &repository{
		log:      log.With(slog.String("repo", store.Name())),
		store:    store,
		registry: options.registry,
		metrics:  options.metrics,
		newID:    options.idGenerator,
		records:  records,
	}
}

func (r *repository) Load(ctx context.Context, agg Aggregate) error {
	aggType, aggID, err := identify(agg)
	if err != nil {
		return err
	}
	if len(agg.PendingEvents()) != 0 {
		return errors.New("aggregate has pending events")
	}
	defer r.metrics.RepoLoadDuration(aggType).ObserveDuration()
	r.register(agg)

	log := r.log.With(slog.Group("agg", slog.String("type", aggType), slog.String("id", aggID)))

	rec, err := r.fetch(ctx, aggType, aggID)
	if err != nil {
		return err
	}

	history, err := r.registry.DecodeAll(rec.Events)
	if err != nil {
		return fmt.Errorf("failed to load %s: %w", StreamKey(aggType, aggID), err)
	}

	err = Reconstitute(agg, history, rec.Version, WithVersionCheck())
	if err != nil {
		var unhandled *UnhandledEventError
		if errors.As(err, &unhandled) {
			r.metrics.UnhandledEvent(aggType, unhandled.EventType)
		}
		return fmt.Errorf("failed to load %s: %w", StreamKey(aggType, aggID), err)
	}

	log.Debug("loaded", rec.Version.SlogAttr(), slog.Int("num_events", len(history)))
	return nil
}

func (r *repository) Save(ctx context.Context, agg Aggregate) error {
	pending := agg.PendingEvents()
	if len(pending) == 0 {
		return nil
	}
	aggType, aggID, err := identify(agg)
	if err != nil {
		return err
	}
	defer r.metrics.RepoSaveDuration(aggType).ObserveDuration()

	var (
		key    = StreamKey(aggType, aggID)
		expect = agg.Version() - Version(len(pending))
		stored Version
		prev   []Envelope
		rev    uint64
	)

	rec, err := r.fetch(ctx, aggType, aggID)
	switch {
	case errors.Is(err, ErrAggregateNotFound):
	case err != nil:
		return err
	default:
		stored, prev, rev = rec.Version, rec.Events, rec.revision
	}

	if stored != expect {
		r.metrics.ConcurrencyConflict(aggType)
		return fmt.Errorf("%w: %s is at version %d, aggregate expects %d", ErrConcurrencyConflict, key, stored, expect)
	}

	envs := make([]Envelope, 0, len(pending))
	for _, e := range pending {
		env, err := EncodeEvent(e, r.newID)
		if err != nil {
			return err
		}
		envs = append(envs, env)
	}

	next := &streamRecord{
		AggregateType: aggType,
		AggregateID:   aggID,
		Version:       agg.Version(),
		Events:        append(slices.Clone(prev), envs...),
	}
	data, err := codec.Default.Marshal(next)
	if err != nil {
		return err
	}

	next.revision, err = r.store.Swap(ctx, key, data, rev)
	if err != nil {
		r.recordsMu.Lock()
		r.records.Delete(key)
		r.recordsMu.Unlock()
		if errors.Is(err, kv.ErrRevisionMismatch) {
			r.metrics.ConcurrencyConflict(aggType)
			return fmt.Errorf("%w: %s was written concurrently", ErrConcurrencyConflict, key)
		}
		return fmt.Errorf("failed to save %s: %w", key, err)
	}
	r.remember(key, next)

	agg.ClearPending()
	r.metrics.EventsAppended(aggType, len(envs))

	r.log.Debug(
		"saved",
		slog.Group("agg", slog.String("type", aggType), slog.String("id", aggID), agg.Version().SlogAttr()),
		slog.Int("num_events", len(envs)),
	)
	return nil
}

// fetch reads the stream record, from the cache if it holds one. Concurrent
// fetches of the same stream share one store round trip; the record is
// read-only for all of them.
func (r *repository) fetch(ctx context.Context, aggType, aggID string) (*streamRecord, error) {
	key := StreamKey(aggType, aggID)
	if rec, ok := r.records.Get(key); ok {
		return rec, nil
	}
	rec, _, err := r.fetches.Do(key, func() (*streamRecord, error) {
		entry, err := r.store.Get(ctx, key)
		if err != nil {
			if errors.Is(err, kv.ErrNotFound) {
				return nil, ErrAggregateNotFound
			}
			return nil, fmt.Errorf("failed to read %s: %w", key, err)
		}
		rec := &streamRecord{}
		if err := codec.Default.Unmarshal(entry.Data, rec); err != nil {
			return nil, fmt.Errorf("failed to decode %s: %w", key, err)
		}
		rec.revision = entry.Revision
		r.remember(key, rec)
		return rec, nil
	})
	return rec, err
}

// remember caches rec unless the cache already holds a newer revision of the
// stream, which happens when a save lands while a fetch is still in flight.
func (r *repository) remember(key string, rec *streamRecord) {
	r.recordsMu.Lock()
	defer r.recordsMu.Unlock()
	if cur, ok := r.records.Get(key); ok && cur.revision > rec.revision {
		return
	}
	r.records.Put(key, rec)
}

func (r *repository) register(agg Aggregate) {
	if _, done := r.registered.LoadOrStore(agg.AggregateType(), struct{}{}); !done {
		agg.Register(r.registry)
	}
}

func identify(agg Aggregate) (aggType, aggID string, err error) {
	aggType, aggID = agg.AggregateType(), agg.ID()
	if aggType == "" {
		return "", "", errors.New("aggregate type is empty")
	}
	if aggID == "" {
		return "", "", errors.New("aggregate id is empty")
	}
	return aggType, aggID, nil
}

var _ Repository = &repository{}

// === TypedRepository ===

type TypedRepository[A Aggregate] interface {
	GetAggType() string
	New() A
	GetByID(ctx context.Context, aggID string) (A, error)
	Save(ctx context.Context, agg A) error
	// Update loads the aggregate, runs fn and saves the result. Updates of the
	// same ID through this repository never overlap.
	Update(ctx context.Context, aggID string, fn func(A) error) error
}

type typedRepo[A Aggregate] struct {
	r      Repository
	newAgg func() A
	locks  *perkey.Locker[string]
	log    *slog.Logger
}

func NewTypedRepository[A Aggregate](log *slog.Logger, store kv.Store, newAgg func() A, opts ...RepositoryOption) TypedRepository[A] {
	return NewTypedRepositoryFrom(log, NewRepository(log, store, opts...), newAgg)
}

func NewTypedRepositoryFrom[A Aggregate](log *slog.Logger, r Repository, newAgg func() A) TypedRepository[A] {
	if log == nil {
		log = slog.Default()
	}
	return &typedRepo[A]{
		r:      r,
		newAgg: newAgg,
		locks:  perkey.New[string](),
		log:    log.With(slog.String("aggregate", newAgg().AggregateType())),
	}
}

func (t *typedRepo[A]) GetAggType() string { return t.newAgg().AggregateType() }
func (t *typedRepo[A]) New() A             { return t.newAgg() }

func (t *typedRepo[A]) GetByID(ctx context.Context, aggID string) (a A, err error) {
	if aggID == "" {
		return a, errors.New("aggregate id is empty")
	}
	a = t.newAgg()
	a.SetID(aggID)
	if err = t.r.Load(ctx, a); err != nil {
		var zero A
		return zero, err
	}
	return a, nil
}

func (t *typedRepo[A]) Save(ctx context.Context, agg A) error {
	return t.r.Save(ctx, agg)
}

func (t *typedRepo[A]) Update(ctx context.Context, aggID string, fn func(A) error) error {
	return t.locks.Do(ctx, aggID, func() error {
		a, err := t.GetByID(ctx, aggID)
		if err != nil {
			return err
		}
		if err := fn(a); err != nil {
			return err
		}
		if err := t.Save(ctx, a); err != nil {
			return err
		}
		t.log.Debug("updated", slog.String("id", aggID), a.Version().SlogAttr())
		return nil
	})
}
