package signal

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestSignal_LatestWins(t *testing.T) {
	s := New[string]()
	s.Signal("first")
	s.Signal("second")

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	v, err := s.Wait(ctx)
	if err != nil {
		t.Fatalf("Wait: %v", err)
	}
	if v != "second" {
		t.Fatalf("got %q, want second", v)
	}
	if s.Pending() {
		t.Fatal("value still pending after Wait")
	}

	short, cancel2 := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel2()
	if _, err := s.Wait(short); !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("second Wait err = %v, want deadline", err)
	}
}

func TestSignal_WakesBlockedWaiter(t *testing.T) {
	s := New[int]()
	got := make(chan int, 1)
	go func() {
		v, err := s.Wait(context.Background())
		if err == nil {
			got <- v
		}
	}()
	time.Sleep(5 * time.Millisecond)
	s.Signal(7)

	select {
	case v := <-got:
		if v != 7 {
			t.Fatalf("got %d, want 7", v)
		}
	case <-time.After(time.Second):
		t.Fatal("waiter not woken")
	}
}

func TestSignal_TryTake(t *testing.T) {
	s := New[int]()
	if _, ok := s.TryTake(); ok {
		t.Fatal("TryTake on empty signal succeeded")
	}
	s.Signal(3)
	if !s.Pending() {
		t.Fatal("expected pending")
	}
	if v, ok := s.TryTake(); !ok || v != 3 {
		t.Fatalf("TryTake = %d,%v", v, ok)
	}
	if _, ok := s.TryTake(); ok {
		t.Fatal("value taken twice")
	}
}

func TestSignal_StaleTokenDoesNotReturnEmpty(t *testing.T) {
	s := New[int]()
	s.Signal(1)
	if _, ok := s.TryTake(); !ok {
		t.Fatal("expected value")
	}
	// The wake token from the first Signal is still buffered.
	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	if v, err := s.Wait(ctx); err == nil {
		t.Fatalf("Wait returned %d from a stale wake", v)
	}
}

func TestQueue_FIFOAndBounds(t *testing.T) {
	q := NewQueue[int](2)
	if q.Cap() != 2 {
		t.Fatalf("cap = %d", q.Cap())
	}
	if !q.TrySend(1) || !q.TrySend(2) {
		t.Fatal("TrySend failed below capacity")
	}
	if q.TrySend(3) {
		t.Fatal("TrySend succeeded on full queue")
	}
	if q.Len() != 2 {
		t.Fatalf("len = %d", q.Len())
	}

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	if err := q.Send(ctx, 3); !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("Send on full queue err = %v", err)
	}

	for want := 1; want <= 2; want++ {
		v, ok := q.TryReceive()
		if !ok || v != want {
			t.Fatalf("TryReceive = %d,%v want %d", v, ok, want)
		}
	}
	if _, ok := q.TryReceive(); ok {
		t.Fatal("TryReceive on empty queue succeeded")
	}
}

func TestQueue_SendUnblocksOnReceive(t *testing.T) {
	q := NewQueue[string](1)
	q.TrySend("a")
	done := make(chan error, 1)
	go func() { done <- q.Send(context.Background(), "b") }()

	v, err := q.Receive(context.Background())
	if err != nil || v != "a" {
		t.Fatalf("Receive = %q,%v", v, err)
	}
	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("Send: %v", err)
		}
	case <-time.After(time.Second):
		t.Fatal("Send still blocked")
	}
	if v, _ := q.TryReceive(); v != "b" {
		t.Fatalf("got %q, want b", v)
	}
}

func TestNewQueue_MinimumCapacity(t *testing.T) {
	if NewQueue[int](0).Cap() != 1 {
		t.Fatal("zero capacity not raised to 1")
	}
}
