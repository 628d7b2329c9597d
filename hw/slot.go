package hw

import (
	"sync"

	"meowbox-go/errcode"
)

// Slot is a mutually-exclusive container for exactly one hardware handle.
// It is empty until Install; every access before that fails with
// errcode.Uninitialized. Hold the lock for a single operation only: slots
// are shared by many independent loops and are not fair.
type Slot[T any] struct {
	name string
	mu   sync.Mutex
	val  T
	set  bool
}

func NewSlot[T any](name string) *Slot[T] { return &Slot[T]{name: name} }

func (s *Slot[T]) Name() string { return s.name }

// Install places v in the slot. Called once during startup.
func (s *Slot[T]) Install(v T) {
	s.mu.Lock()
	s.val = v
	s.set = true
	s.mu.Unlock()
}

func (s *Slot[T]) Installed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.set
}

// Guard is a held slot lock. Release it exactly once.
type Guard[T any] struct {
	s *Slot[T]
}

func (g Guard[T]) Value() T { return g.s.val }
func (g Guard[T]) Release() { g.s.mu.Unlock() }

// Acquire blocks until the slot is free. There is no timeout.
func (s *Slot[T]) Acquire() (Guard[T], error) {
	s.mu.Lock()
	if !s.set {
		s.mu.Unlock()
		return Guard[T]{}, s.uninit()
	}
	return Guard[T]{s: s}, nil
}

// Do runs fn with the slot held.
func (s *Slot[T]) Do(fn func(T)) error {
	g, err := s.Acquire()
	if err != nil {
		return err
	}
	defer g.Release()
	fn(g.Value())
	return nil
}

// Handle returns the installed value, releasing the lock straight away.
// Only for handles that are safe to use unlocked, such as inputs that a
// task waits on for an unbounded time.
func (s *Slot[T]) Handle() (T, error) {
	g, err := s.Acquire()
	if err != nil {
		var zero T
		return zero, err
	}
	v := g.Value()
	g.Release()
	return v, nil
}

func (s *Slot[T]) uninit() error {
	return &errcode.E{C: errcode.Uninitialized, Op: s.name, Msg: "slot accessed before install"}
}

// ---- Output slot helpers ----

// Set drives the output in s to level.
func Set(s *Slot[Output], level bool) error {
	return s.Do(func(o Output) { o.Set(level) })
}

// Toggle flips the output in s.
func Toggle(s *Slot[Output]) error {
	return s.Do(func(o Output) { o.Toggle() })
}

// Level reads back the output in s.
func Level(s *Slot[Output]) (bool, error) {
	var v bool
	err := s.Do(func(o Output) { v = o.Get() })
	return v, err
}
