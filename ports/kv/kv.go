// Package kv is the key/value persistence port. The repository keeps one
// serialized event stream per aggregate under a key of a named store.
package kv

import (
	"context"
	"errors"

	"github.com/ahumphreys87/ddd-workshop/internal/codec"
)

var (
	ErrNotFound         = errors.New("not found")
	ErrRevisionMismatch = errors.New("revision mismatch")
)

type Entry struct {
	Data []byte
	// Revision increases with every write to the store.
	Revision uint64
}

type Store interface {
	Name() string
	Put(ctx context.Context, key string, data []byte) (revision uint64, err error)
	Get(ctx context.Context, key string) (entry Entry, err error)
	// Swap writes data only if the key is currently at expectRevision, where
	// 0 means the key must not exist. Otherwise it returns
	// ErrRevisionMismatch.
	Swap(ctx context.Context, key string, data []byte, expectRevision uint64) (revision uint64, err error)
	Delete(ctx context.Context, key string) error
}

func Put[T any](ctx context.Context, store Store, key string, v T) error {
	data, err := codec.Default.Marshal(v)
	if err != nil {
		return err
	}
	_, err = store.Put(ctx, key, data)
	return err
}

func Get[T any](ctx context.Context, store Store, key string) (out T, err error) {
	entry, err := store.Get(ctx, key)
	if err != nil {
		return
	}
	err = codec.Default.Unmarshal(entry.Data, &out)
	return
}
