// Package cache holds recently used values in memory.
//
// [LRU] evicts the least recently used entry once it is full and drops
// entries whose TTL has passed on access. [Nop] caches nothing and is the
// default wherever a cache is optional.
//
//	records := cache.NewLRU[*Record](cache.LRUOpts{Size: 1000})
//	records.Put("product.p1", rec, cache.WithTTL(5*time.Minute))
//	if rec, ok := records.Get("product.p1"); ok {
//	    // use rec
//	}
package cache

import "time"

type PutOptions struct {
	TTL time.Duration
}

type PutOption func(*PutOptions)

// WithTTL expires the entry after ttl. Zero means never.
func WithTTL(ttl time.Duration) PutOption {
	return func(o *PutOptions) {
		o.TTL = ttl
	}
}

// Cache is safe for concurrent use.
type Cache[V any] interface {
	Get(key string) (V, bool)
	Put(key string, val V, opts ...PutOption)
	Delete(key string)
}

type Nop[V any] struct{}

func NewNop[V any]() Nop[V] { return Nop[V]{} }

func (Nop[V]) Get(string) (v V, ok bool)   { return v, false }
func (Nop[V]) Put(string, V, ...PutOption) {}
func (Nop[V]) Delete(string)               {}

var _ Cache[any] = Nop[any]{}
