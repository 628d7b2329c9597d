package signal

import "context"

// Queue is a bounded FIFO. Send blocks while it is full.
type Queue[T any] struct {
	ch chan T
}

// NewQueue returns a queue holding at most n values (n < 1 means 1).
func NewQueue[T any](n int) *Queue[T] {
	if n < 1 {
		n = 1
	}
	return &Queue[T]{ch: make(chan T, n)}
}

func (q *Queue[T]) Send(ctx context.Context, v T) error {
	select {
	case q.ch <- v:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// TrySend enqueues without blocking; false means the queue was full and v was
// dropped.
func (q *Queue[T]) TrySend(v T) bool {
	select {
	case q.ch <- v:
		return true
	default:
		return false
	}
}

func (q *Queue[T]) Receive(ctx context.Context) (T, error) {
	select {
	case v := <-q.ch:
		return v, nil
	case <-ctx.Done():
		var zero T
		return zero, ctx.Err()
	}
}

func (q *Queue[T]) TryReceive() (T, bool) {
	select {
	case v := <-q.ch:
		return v, true
	default:
		var zero T
		return zero, false
	}
}

// Len is the number of buffered values.
func (q *Queue[T]) Len() int { return len(q.ch) }

func (q *Queue[T]) Cap() int { return cap(q.ch) }
