// Package product is an event-sourced catalogue entry: every change to a
// product is recorded as an event and its fields are rebuilt from them.
package product

import (
	gonanoid "github.com/matoous/go-nanoid/v2"

	"github.com/ahumphreys87/ddd-workshop/core/es"
)

const AggregateType = "product"

type Product struct {
	es.Root

	Name        string `json:"name"`
	Description string `json:"description"`
	Price       int64  `json:"price"`
}

var handlers = es.NewHandlers(AggregateType,
	es.On((*Product).whenDefined),
	es.On((*Product).whenNameChanged),
	es.On((*Product).whenDescriptionChanged),
	es.On((*Product).whenPriceChanged),
)

// New defines a product under a fresh ID. The Defined event is its first
// pending event.
func New(name, description string, price int64) (*Product, error) {
	p := &Product{}
	p.SetID(gonanoid.Must())
	if err := es.Apply(p, &Defined{Name: name, Description: description, Price: price}); err != nil {
		return nil, err
	}
	return p, nil
}

// FromHistory rebuilds a product from its recorded events. Nothing is
// pending afterwards and the product is at version.
func FromHistory(history []es.Event, version es.Version) (*Product, error) {
	return es.FromHistory(Empty, history, version)
}

// Empty returns a product with no history, ready to be loaded.
func Empty() *Product { return &Product{} }

func (p *Product) AggregateType() string   { return AggregateType }
func (p *Product) Mutate(e es.Event) error { return handlers.Dispatch(p, e) }
func (p *Product) Register(r es.Registrar) { handlers.Register(r) }

// === Commands ===

func (p *Product) ChangeName(name string) error {
	return es.Apply(p, &NameChanged{Name: name})
}

func (p *Product) ChangeDescription(description string) error {
	return es.Apply(p, &DescriptionChanged{Description: description})
}

func (p *Product) ChangePrice(price int64) error {
	return es.Apply(p, &PriceChanged{Price: price})
}

// Equal compares the product fields only; identity, version and pending
// events are ignored.
func (p *Product) Equal(other *Product) bool {
	if p == nil || other == nil {
		return p == other
	}
	return p.Name == other.Name &&
		p.Description == other.Description &&
		p.Price == other.Price
}

// === Mutations ===

func (p *Product) whenDefined(e *Defined) {
	p.Name = e.Name
	p.Description = e.Description
	p.Price = e.Price
}

func (p *Product) whenNameChanged(e *NameChanged)               { p.Name = e.Name }
func (p *Product) whenDescriptionChanged(e *DescriptionChanged) { p.Description = e.Description }
func (p *Product) whenPriceChanged(e *PriceChanged)             { p.Price = e.Price }

var _ es.Aggregate = (*Product)(nil)
