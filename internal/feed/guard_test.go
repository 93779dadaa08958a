package feed

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestKeyedGuard_TryAcquire(t *testing.T) {
	guard := NewKeyedGuard()

	release, ok := guard.TryAcquire("p1/c1")
	require.True(t, ok)
	assert.True(t, guard.Busy("p1/c1"))

	_, ok = guard.TryAcquire("p1/c1")
	assert.False(t, ok)

	other, ok := guard.TryAcquire("p1/c2")
	require.True(t, ok)
	other()

	release()
	assert.False(t, guard.Busy("p1/c1"))
}

func TestKeyedGuard_AcquireWaitsForRelease(t *testing.T) {
	guard := NewKeyedGuard()
	release, ok := guard.TryAcquire("key")
	require.True(t, ok)

	acquired := make(chan func(), 1)
	go func() {
		next, err := guard.Acquire(context.Background(), "key")
		if err == nil {
			acquired <- next
		}
	}()

	select {
	case <-acquired:
		t.Fatal("acquired a busy key")
	case <-time.After(30 * time.Millisecond):
	}

	release()

	select {
	case next := <-acquired:
		assert.True(t, guard.Busy("key"))
		next()
	case <-time.After(time.Second):
		t.Fatal("waiter was not woken up")
	}
}

func TestKeyedGuard_AcquireHonoursContext(t *testing.T) {
	guard := NewKeyedGuard()
	release, _ := guard.TryAcquire("key")
	defer release()

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	_, err := guard.Acquire(ctx, "key")
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestParseBusyPolicy(t *testing.T) {
	assert.Equal(t, BusyReject, ParseBusyPolicy("reject"))
	assert.Equal(t, BusyQueue, ParseBusyPolicy("queue"))
	assert.Equal(t, BusyQueue, ParseBusyPolicy(""))
}

func TestTracker_InvalidateAbandonsPending(t *testing.T) {
	tracker := newTracker()
	first := tracker.begin("p1", "p1/a")
	other := tracker.begin("p2", "p2/a")
	assert.Equal(t, 1, tracker.inFlight("p1"))

	tracker.invalidate("p1")

	assert.Equal(t, OpAbandoned, first.State)
	assert.False(t, tracker.current(first))
	assert.True(t, tracker.current(other))
	assert.Equal(t, 0, tracker.inFlight("p1"))

	next := tracker.begin("p1", "p1/b")
	assert.True(t, tracker.current(next))
	tracker.finish(next, OpConfirmed)
	assert.Equal(t, "confirmed", next.State.String())
}
