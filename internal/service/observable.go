package service

import (
	"context"
	"sync"
)

// valueStream fans a current value out to subscribers. Each subscriber
// channel holds at most the latest value; a slow reader skips intermediates.
type valueStream[T any] struct {
	mu      sync.Mutex
	current T
	subs    map[chan T]struct{}
}

func newValueStream[T any](initial T) *valueStream[T] {
	return &valueStream[T]{current: initial, subs: make(map[chan T]struct{})}
}

func (s *valueStream[T]) Get() T {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.current
}

// Set stores v and delivers it to every subscriber.
func (s *valueStream[T]) Set(v T) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.current = v
	for ch := range s.subs {
		offerLatest(ch, v)
	}
}

// Subscribe emits the current value immediately, then every Set.
// The channel is closed once ctx is done.
func (s *valueStream[T]) Subscribe(ctx context.Context) <-chan T {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.subscribeLocked(ctx, s.current)
}

// SubscribeFrom is Subscribe with an explicit first value, stored as current.
func (s *valueStream[T]) SubscribeFrom(ctx context.Context, first T) <-chan T {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.current = first
	return s.subscribeLocked(ctx, first)
}

func (s *valueStream[T]) subscribeLocked(ctx context.Context, first T) <-chan T {
	ch := make(chan T, 1)
	ch <- first
	s.subs[ch] = struct{}{}

	go func() {
		<-ctx.Done()
		s.mu.Lock()
		delete(s.subs, ch)
		close(ch)
		s.mu.Unlock()
	}()
	return ch
}

// offerLatest replaces any undelivered value in ch with v. Callers hold the
// stream lock, so nothing else sends on ch concurrently.
func offerLatest[T any](ch chan T, v T) {
	select {
	case ch <- v:
		return
	default:
	}
	select {
	case <-ch:
	default:
	}
	select {
	case ch <- v:
	default:
	}
}
