package product

import "github.com/ahumphreys87/ddd-workshop/core/es"

type (
	Defined struct {
		es.EventMeta
		Name        string `json:"name"`
		Description string `json:"description"`
		Price       int64  `json:"price"`
	}

	NameChanged struct {
		es.EventMeta
		Name string `json:"name"`
	}

	DescriptionChanged struct {
		es.EventMeta
		Description string `json:"description"`
	}

	PriceChanged struct {
		es.EventMeta
		Price int64 `json:"price"`
	}
)

func (*Defined) EventType() string            { return "product.defined" }
func (*NameChanged) EventType() string        { return "product.name_changed" }
func (*DescriptionChanged) EventType() string { return "product.description_changed" }
func (*PriceChanged) EventType() string       { return "product.price_changed" }
