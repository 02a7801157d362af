package kv

import (
	"context"
	"slices"
	"sync"
)

var (
	openMu sync.Mutex
	opened = map[string]*MemStore{}
)

// Open returns the process-wide in-memory store called name, creating it on
// first use. Opening the same name twice yields the same store.
func Open(name string) *MemStore {
	openMu.Lock()
	defer openMu.Unlock()

	s, ok := opened[name]
	if !ok {
		s = NewMemStore(name)
		opened[name] = s
	}
	return s
}

type MemStore struct {
	name string

	mu   sync.RWMutex
	rev  uint64
	data map[string]Entry
}

// NewMemStore creates a private in-memory store that Open does not know about.
func NewMemStore(name string) *MemStore {
	return &MemStore{name: name, data: map[string]Entry{}}
}

func (m *MemStore) Name() string { return m.name }

func (m *MemStore) Put(_ context.Context, key string, data []byte) (uint64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.writeLocked(key, data), nil
}

func (m *MemStore) Get(_ context.Context, key string) (Entry, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	entry, ok := m.data[key]
	if !ok {
		return Entry{}, ErrNotFound
	}
	return Entry{Data: slices.Clone(entry.Data), Revision: entry.Revision}, nil
}

func (m *MemStore) Swap(_ context.Context, key string, data []byte, expectRevision uint64) (uint64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var current uint64
	if entry, ok := m.data[key]; ok {
		current = entry.Revision
	}
	if current != expectRevision {
		return current, ErrRevisionMismatch
	}
	return m.writeLocked(key, data), nil
}

func (m *MemStore) Delete(_ context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.data, key)
	return nil
}

// Keys lists the stored keys in sorted order.
func (m *MemStore) Keys() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	keys := make([]string, 0, len(m.data))
	for k := range m.data {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	return keys
}

func (m *MemStore) writeLocked(key string, data []byte) uint64 {
	m.rev++
	m.data[key] = Entry{Data: slices.Clone(data), Revision: m.rev}
	return m.rev
}

var _ Store = (*MemStore)(nil)
