// Package signal carries commands between tasks: Signal holds the latest
// value only, Queue buffers a bounded backlog.
package signal

import (
	"context"
	"sync"
)

// Signal is a single-slot mailbox. A new value replaces one that has not been
// taken yet, so waiters only ever see the latest command.
type Signal[T any] struct {
	mu    sync.Mutex
	val   T
	full  bool
	ready chan struct{}
}

func New[T any]() *Signal[T] {
	return &Signal[T]{ready: make(chan struct{}, 1)}
}

// Signal stores v and wakes one waiter. It never blocks.
func (s *Signal[T]) Signal(v T) {
	s.mu.Lock()
	s.val = v
	s.full = true
	s.mu.Unlock()
	select {
	case s.ready <- struct{}{}:
	default:
	}
}

// Wait blocks until a value is present, then takes it.
func (s *Signal[T]) Wait(ctx context.Context) (T, error) {
	for {
		if v, ok := s.TryTake(); ok {
			return v, nil
		}
		select {
		case <-s.ready:
		case <-ctx.Done():
			var zero T
			return zero, ctx.Err()
		}
	}
}

// TryTake takes the pending value if there is one.
func (s *Signal[T]) TryTake() (T, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var zero T
	if !s.full {
		return zero, false
	}
	v := s.val
	s.val = zero
	s.full = false
	return v, true
}

// Pending reports whether a value is waiting to be taken.
func (s *Signal[T]) Pending() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.full
}
