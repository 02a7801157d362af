package cache

import (
	"container/list"
	"sync"
	"time"
)

type LRUOpts struct {
	// Size is the maximum number of entries (default 128).
	Size int
}

type lruEntry[V any] struct {
	key       string
	val       V
	expiresAt time.Time
}

type LRU[V any] struct {
	mu    sync.Mutex
	size  int
	order *list.List
	items map[string]*list.Element
	now   func() time.Time
}

func NewLRU[V any](opts LRUOpts) *LRU[V] {
	if opts.Size <= 0 {
		opts.Size = 128
	}
	return &LRU[V]{
		size:  opts.Size,
		order: list.New(),
		items: make(map[string]*list.Element, opts.Size),
		now:   time.Now,
	}
}

func (l *LRU[V]) Get(key string) (v V, ok bool) {
	l.mu.Lock()
	defer l.mu.Unlock()

	ele, ok := l.items[key]
	if !ok {
		return v, false
	}
	e := ele.Value.(*lruEntry[V])
	if !e.expiresAt.IsZero() && !l.now().Before(e.expiresAt) {
		l.removeElement(ele)
		return v, false
	}
	l.order.MoveToFront(ele)
	return e.val, true
}

func (l *LRU[V]) Put(key string, val V, opts ...PutOption) {
	var o PutOptions
	for _, opt := range opts {
		opt(&o)
	}
	var expiresAt time.Time
	if o.TTL > 0 {
		expiresAt = l.now().Add(o.TTL)
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	if ele, ok := l.items[key]; ok {
		e := ele.Value.(*lruEntry[V])
		e.val, e.expiresAt = val, expiresAt
		l.order.MoveToFront(ele)
		return
	}

	l.items[key] = l.order.PushFront(&lruEntry[V]{key: key, val: val, expiresAt: expiresAt})
	if l.order.Len() > l.size {
		l.removeElement(l.order.Back())
	}
}

func (l *LRU[V]) Delete(key string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if ele, ok := l.items[key]; ok {
		l.removeElement(ele)
	}
}

func (l *LRU[V]) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.order.Len()
}

func (l *LRU[V]) removeElement(ele *list.Element) {
	l.order.Remove(ele)
	delete(l.items, ele.Value.(*lruEntry[V]).key)
}

var _ Cache[any] = (*LRU[any])(nil)
