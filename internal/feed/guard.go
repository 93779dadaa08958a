package feed

import (
	"context"
	"sync"
)

type BusyPolicy int

const (
	// BusyQueue waits for the outstanding operation on the same key to finish.
	BusyQueue BusyPolicy = iota
	// BusyReject fails fast with ErrBusy.
	BusyReject
)

func ParseBusyPolicy(value string) BusyPolicy {
	if value == "reject" {
		return BusyReject
	}
	return BusyQueue
}

// KeyedGuard allows at most one outstanding operation per key.
type KeyedGuard struct {
	mu    sync.Mutex
	slots map[string]chan struct{}
}

func NewKeyedGuard() *KeyedGuard {
	return &KeyedGuard{
		slots: make(map[string]chan struct{}),
	}
}

func (guard *KeyedGuard) TryAcquire(key string) (func(), bool) {
	guard.mu.Lock()
	defer guard.mu.Unlock()

	if _, busy := guard.slots[key]; busy {
		return nil, false
	}

	slot := make(chan struct{})
	guard.slots[key] = slot

	return func() { guard.release(key, slot) }, true
}

func (guard *KeyedGuard) Acquire(ctx context.Context, key string) (func(), error) {
	for {
		guard.mu.Lock()
		slot, busy := guard.slots[key]
		if !busy {
			slot = make(chan struct{})
			guard.slots[key] = slot
			guard.mu.Unlock()

			return func() { guard.release(key, slot) }, nil
		}
		guard.mu.Unlock()

		select {
		case <-slot:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
}

func (guard *KeyedGuard) Busy(key string) bool {
	guard.mu.Lock()
	defer guard.mu.Unlock()

	_, busy := guard.slots[key]
	return busy
}

func (guard *KeyedGuard) enter(ctx context.Context, key string, policy BusyPolicy) (func(), error) {
	if policy == BusyReject {
		release, ok := guard.TryAcquire(key)
		if !ok {
			return nil, ErrBusy
		}
		return release, nil
	}

	return guard.Acquire(ctx, key)
}

func (guard *KeyedGuard) release(key string, slot chan struct{}) {
	guard.mu.Lock()
	if guard.slots[key] == slot {
		delete(guard.slots, key)
	}
	guard.mu.Unlock()

	close(slot)
}
