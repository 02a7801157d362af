// Package sf is a typed front for golang.org/x/sync/singleflight.
package sf

import "golang.org/x/sync/singleflight"

// Group shares the result of one in-flight call per key among all callers
// asking for that key at the same time. The zero value is ready to use.
type Group[T any] struct {
	group singleflight.Group
}

// Do runs fn unless a call for key is already running, in which case it waits
// for that call. shared reports whether the result went to more than one
// caller; a shared value must be treated as read-only.
func (g *Group[T]) Do(key string, fn func() (T, error)) (v T, shared bool, err error) {
	res, err, shared := g.group.Do(key, func() (any, error) {
		return fn()
	})
	if err != nil {
		return v, shared, err
	}
	return res.(T), shared, nil
}

// Forget makes the next Do for key run fn even if a call is in flight.
func (g *Group[T]) Forget(key string) { g.group.Forget(key) }
