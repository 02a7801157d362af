package sf

import (
	"errors"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGroup_Do(t *testing.T) {
	var g Group[int]
	v, shared, err := g.Do("k", func() (int, error) { return 42, nil })
	require.NoError(t, err)
	require.False(t, shared)
	require.Equal(t, 42, v)
}

func TestGroup_Error(t *testing.T) {
	var g Group[*int]
	boom := errors.New("boom")
	v, _, err := g.Do("k", func() (*int, error) { return nil, boom })
	require.ErrorIs(t, err, boom)
	require.Nil(t, v)
}

func TestGroup_Dedupe(t *testing.T) {
	var (
		g       Group[string]
		calls   atomic.Int32
		release = make(chan struct{})
		started = make(chan struct{})
		wg      sync.WaitGroup
	)

	fn := func() (string, error) {
		if calls.Add(1) == 1 {
			close(started)
		}
		<-release
		return "v", nil
	}

	wg.Add(1)
	go func() {
		defer wg.Done()
		v, _, err := g.Do("k", fn)
		assert.NoError(t, err)
		assert.Equal(t, "v", v)
	}()
	<-started

	const waiters = 5
	for range waiters {
		wg.Add(1)
		go func() {
			defer wg.Done()
			v, _, err := g.Do("k", fn)
			assert.NoError(t, err)
			assert.Equal(t, "v", v)
		}()
	}

	close(release)
	wg.Wait()

	// late waiters may miss the first flight, never more than one extra call each
	assert.LessOrEqual(t, calls.Load(), int32(1+waiters))
	assert.GreaterOrEqual(t, calls.Load(), int32(1))
}
