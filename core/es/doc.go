// Package es provides an event-sourced aggregate root: state derived from an
// ordered log of immutable domain events instead of being stored directly.
//
// # Events
//
// An [Event] embeds [EventMeta] and names its variant through EventType.
// [Apply] stamps each event with the aggregate's next [Version]; the event
// constructor never does.
//
// # Aggregates
//
// A concrete aggregate embeds [Root] and routes Mutate through a [Handlers]
// table that maps each event variant to a mutation function:
//
//	type Product struct {
//	    es.Root
//	    Name string
//	}
//
//	var handlers = es.NewHandlers("product", es.On((*Product).whenNameChanged))
//
//	func (p *Product) AggregateType() string     { return "product" }
//	func (p *Product) Mutate(e es.Event) error   { return handlers.Dispatch(p, e) }
//	func (p *Product) Register(r es.Registrar)   { handlers.Register(r) }
//	func (p *Product) ChangeName(n string) error { return es.Apply(p, &NameChanged{Name: n}) }
//
// An event without a handler fails with [UnhandledEventError] and leaves the
// aggregate unchanged.
//
// # Reconstitution
//
// [Reconstitute] and [FromHistory] replay a persisted history through the
// same handlers without marking it pending, and take the resulting version
// from the caller.
//
// # Persistence
//
// [Repository] stores each aggregate's stream as one value of a [kv.Store],
// encoded as [Envelope]s, with optimistic concurrency on the version:
//
//	repo := es.NewTypedRepository(log, kv.Open("products"), func() *Product { return &Product{} })
//	p, err := repo.GetByID(ctx, "dice-1")
//	p.ChangeName("dice-2")
//	err = repo.Save(ctx, p)
//
// [kv.Store]: github.com/ahumphreys87/ddd-workshop/ports/kv.Store
package es
