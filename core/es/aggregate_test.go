package es

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestApply(t *testing.T) {
	a := newTally()
	require.Equal(t, Version(0), a.Version())
	require.Empty(t, a.PendingEvents())
	require.False(t, a.Reconstituted())

	require.NoError(t, a.Add(3))
	require.Equal(t, Version(1), a.Version())
	require.Len(t, a.PendingEvents(), 1)
	require.Equal(t, a.Version(), a.PendingEvents()[0].EventVersion())

	require.NoError(t, a.Add(4))
	require.NoError(t, a.Clear())
	require.Equal(t, Version(3), a.Version())
	require.Equal(t, 0, a.Total)
	require.Equal(t, 2, a.Adds)

	pending := a.PendingEvents()
	require.Len(t, pending, 3)
	for i, e := range pending {
		require.Equal(t, Version(i+1), e.EventVersion())
	}
	require.True(t, EventsEqual(&added{EventMeta: EventMeta{Version: 2}, Amount: 4}, pending[1]))
}

func TestApply_Multiple(t *testing.T) {
	a := newTally()
	require.NoError(t, Apply(a, &added{Amount: 1}, &added{Amount: 2}))
	require.Equal(t, Version(2), a.Version())
	require.Equal(t, 3, a.Total)
}

func TestApply_Unhandled(t *testing.T) {
	a := newTally()
	require.NoError(t, a.Add(5))

	ev := &unknownEvent{Note: "no handler"}
	err := Apply(a, ev)
	require.ErrorIs(t, err, ErrUnhandledEvent)

	var unhandled *UnhandledEventError
	require.True(t, errors.As(err, &unhandled))
	require.Equal(t, "tally", unhandled.AggregateType)
	require.Equal(t, "tally.unknown", unhandled.EventType)

	// nothing moved
	require.Equal(t, Version(1), a.Version())
	require.Equal(t, 5, a.Total)
	require.Len(t, a.PendingEvents(), 1)
	require.Equal(t, Version(0), ev.EventVersion())
}

func TestApply_StopsAtFirstFailure(t *testing.T) {
	a := newTally()
	err := Apply(a, &added{Amount: 1}, &unknownEvent{}, &added{Amount: 2})
	require.ErrorIs(t, err, ErrUnhandledEvent)
	require.Equal(t, Version(1), a.Version())
	require.Equal(t, 1, a.Total)
}

func TestApply_NilEvent(t *testing.T) {
	a := newTally()
	require.Error(t, Apply(a, nil))

	var typedNil *added
	require.NotPanics(t, func() {
		require.Error(t, Apply(a, typedNil))
	})
	require.Equal(t, Version(0), a.Version())
	require.Empty(t, a.PendingEvents())

	_, err := EncodeEvent(typedNil, nil)
	require.Error(t, err)
	require.True(t, EventsEqual(typedNil, nil))
}

func TestApply_AppliedEventRejected(t *testing.T) {
	a := newTally()
	require.NoError(t, a.Add(1))

	b := newTally()
	require.NoError(t, b.Add(10))
	require.NoError(t, b.Add(20))

	shared := a.PendingEvents()[0]
	err := Apply(b, shared)
	require.ErrorIs(t, err, ErrEventAlreadyApplied)

	// a's pending event still carries the version a gave it
	require.Equal(t, Version(1), a.PendingEvents()[0].EventVersion())
	require.Equal(t, Version(2), b.Version())
	require.Equal(t, 30, b.Total)
	require.Len(t, b.PendingEvents(), 2)

	// replayed history is not fresh either
	c, err := FromHistory(newTally, a.PendingEvents(), 1)
	require.NoError(t, err)
	require.ErrorIs(t, Apply(c, a.PendingEvents()[0]), ErrEventAlreadyApplied)
	require.Equal(t, Version(1), c.Version())
}

func TestPending(t *testing.T) {
	a := newTally()
	require.NoError(t, a.Add(1))
	require.NoError(t, a.Add(2))

	t.Run("copy", func(t *testing.T) {
		pending := a.PendingEvents()
		pending[0] = nil
		require.NotNil(t, a.PendingEvents()[0])
	})

	t.Run("clear", func(t *testing.T) {
		b := newTally()
		require.NoError(t, b.Add(1))
		b.ClearPending()
		require.Empty(t, b.PendingEvents())
		require.Equal(t, Version(1), b.Version())
		require.Equal(t, 1, b.Total)

		require.NoError(t, b.Add(2))
		require.Len(t, b.PendingEvents(), 1)
		require.Equal(t, Version(2), b.PendingEvents()[0].EventVersion())
	})

	t.Run("take", func(t *testing.T) {
		taken := a.TakePending()
		require.Len(t, taken, 2)
		require.Empty(t, a.PendingEvents())
		require.Empty(t, a.TakePending())
		require.Equal(t, Version(2), a.Version())
		require.Equal(t, 3, a.Total)
	})
}

func TestReconstitute(t *testing.T) {
	a := newTally()
	require.NoError(t, a.Add(3))
	require.NoError(t, a.Add(4))
	require.NoError(t, a.Clear())
	require.NoError(t, a.Add(10))

	b, err := FromHistory(newTally, a.PendingEvents(), a.Version())
	require.NoError(t, err)
	require.Equal(t, a.Total, b.Total)
	require.Equal(t, a.Adds, b.Adds)
	require.Equal(t, a.Version(), b.Version())
	require.Empty(t, b.PendingEvents())
	require.True(t, b.Reconstituted())

	require.NoError(t, b.Add(1))
	require.Equal(t, Version(5), b.Version())
	require.Len(t, b.PendingEvents(), 1)
}

func TestReconstitute_TrustsVersion(t *testing.T) {
	// a tail of a longer stream
	history := []Event{&added{Amount: 2}, &added{Amount: 5}}
	a := newTally()
	require.NoError(t, Reconstitute(a, history, 10))
	require.Equal(t, Version(10), a.Version())
	require.Equal(t, 7, a.Total)
	require.Empty(t, a.PendingEvents())

	require.NoError(t, a.Add(1))
	require.Equal(t, Version(11), a.PendingEvents()[0].EventVersion())
}

func TestReconstitute_VersionCheck(t *testing.T) {
	stamped := func(v Version, amount int) Event {
		return &added{EventMeta: EventMeta{Version: v}, Amount: amount}
	}

	t.Run("contiguous tail", func(t *testing.T) {
		a := newTally()
		require.NoError(t, Reconstitute(a, []Event{stamped(4, 1), stamped(5, 1)}, 5, WithVersionCheck()))
		require.Equal(t, Version(5), a.Version())
	})

	t.Run("gap", func(t *testing.T) {
		a := newTally()
		err := Reconstitute(a, []Event{stamped(1, 1), stamped(3, 1)}, 3, WithVersionCheck())
		require.ErrorIs(t, err, ErrDataIntegrity)
		require.Equal(t, Version(0), a.Version())
		require.Equal(t, 0, a.Total)
	})

	t.Run("longer than version", func(t *testing.T) {
		a := newTally()
		err := Reconstitute(a, []Event{stamped(1, 1), stamped(2, 1)}, 1, WithVersionCheck())
		require.ErrorIs(t, err, ErrDataIntegrity)
	})

	t.Run("unstamped", func(t *testing.T) {
		a := newTally()
		err := Reconstitute(a, []Event{&added{Amount: 1}}, 1, WithVersionCheck())
		var dataErr *DataIntegrityError
		require.ErrorAs(t, err, &dataErr)
	})
}

func TestReconstitute_Unhandled(t *testing.T) {
	_, err := FromHistory(newTally, []Event{&added{Amount: 1}, &unknownEvent{}}, 2)
	require.ErrorIs(t, err, ErrUnhandledEvent)

	var unhandled *UnhandledEventError
	require.ErrorAs(t, err, &unhandled)
	require.Equal(t, "tally.unknown", unhandled.EventType)
}
