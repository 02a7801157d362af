// Package perkey serializes work per key while work for different keys runs
// concurrently.
//
// The repository uses it to give each aggregate identity a single writer
// inside one process.
package perkey

import (
	"context"
	"errors"
	"sync"
)

var ErrClosed = errors.New("perkey: locker is closed")

// Locker hands out one exclusive slot per key. Slots are created on demand
// and dropped as soon as nobody holds or waits for them.
type Locker[K comparable] struct {
	mu     sync.Mutex
	slots  map[K]*slot
	closed bool
}

type slot struct {
	token chan struct{}
	refs  int
}

func New[K comparable]() *Locker[K] {
	return &Locker[K]{slots: make(map[K]*slot)}
}

// Do runs fn while holding the slot for key and returns its error.
// Waiters for the same key are served in arrival order. If ctx ends while
// waiting, fn is not run and the context error is returned.
func (l *Locker[K]) Do(ctx context.Context, key K, fn func() error) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s, err := l.acquire(key)
	if err != nil {
		return err
	}
	defer l.release(key, s)

	select {
	case s.token <- struct{}{}:
	case <-ctx.Done():
		return ctx.Err()
	}
	defer func() { <-s.token }()

	return fn()
}

// Len reports how many keys currently have a holder or waiters.
func (l *Locker[K]) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.slots)
}

// Close rejects further Do calls. Calls already holding or waiting for a
// slot are unaffected.
func (l *Locker[K]) Close() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.closed = true
}

func (l *Locker[K]) acquire(key K) (*slot, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.closed {
		return nil, ErrClosed
	}
	s, ok := l.slots[key]
	if !ok {
		s = &slot{token: make(chan struct{}, 1)}
		l.slots[key] = s
	}
	s.refs++
	return s, nil
}

func (l *Locker[K]) release(key K, s *slot) {
	l.mu.Lock()
	defer l.mu.Unlock()

	s.refs--
	if s.refs == 0 {
		delete(l.slots, key)
	}
}
