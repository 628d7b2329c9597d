// Package hwtest provides simulated lines for host-side tests.
package hwtest

import (
	"context"
	"runtime"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"meowbox-go/hw"
)

// ----------------------------- Output ----------------------------------------

// Output records every write. Overlapping calls into Set/Toggle are counted
// so tests can prove that slot locking serialises access.
type Output struct {
	mu      sync.Mutex
	level   bool
	writes  int
	history []bool

	busy     int32
	overlaps int32
}

func NewOutput(level bool) *Output { return &Output{level: level} }

func (o *Output) enter() {
	if atomic.AddInt32(&o.busy, 1) != 1 {
		atomic.AddInt32(&o.overlaps, 1)
	}
	runtime.Gosched() // widen the window for a concurrent caller
}

func (o *Output) exit() { atomic.AddInt32(&o.busy, -1) }

func (o *Output) Set(level bool) {
	o.enter()
	defer o.exit()
	o.mu.Lock()
	o.level = level
	o.writes++
	o.history = append(o.history, level)
	o.mu.Unlock()
}

func (o *Output) Get() bool {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.level
}

func (o *Output) Toggle() {
	o.enter()
	defer o.exit()
	o.mu.Lock()
	o.level = !o.level
	o.writes++
	o.history = append(o.history, o.level)
	o.mu.Unlock()
}

// Writes is the number of Set/Toggle calls seen.
func (o *Output) Writes() int {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.writes
}

// History is a copy of every level written, in order.
func (o *Output) History() []bool {
	o.mu.Lock()
	defer o.mu.Unlock()
	return append([]bool(nil), o.history...)
}

// Overlaps counts writes that began while another was in progress.
func (o *Output) Overlaps() int { return int(atomic.LoadInt32(&o.overlaps)) }

var _ hw.Output = (*Output)(nil)

// ----------------------------- Input -----------------------------------------

type waiter struct {
	edge hw.Edge
	ch   chan struct{}
}

// Input is a line the test drives with Set. Edge waits only see edges that
// happen after the wait began, as on hardware.
type Input struct {
	mu      sync.Mutex
	level   bool
	waiters []*waiter
}

// NewInput starts at level. Buttons are active-low, so idle is true.
func NewInput(level bool) *Input { return &Input{level: level} }

func (in *Input) Get() bool {
	in.mu.Lock()
	defer in.mu.Unlock()
	return in.level
}

// Set changes the level and wakes waiters whose edge matches.
func (in *Input) Set(level bool) {
	in.mu.Lock()
	e := hw.EdgeFrom(in.level, level)
	in.level = level
	keep := in.waiters[:0]
	for _, w := range in.waiters {
		if hw.Matches(w.edge, e) {
			close(w.ch)
			continue
		}
		keep = append(keep, w)
	}
	in.waiters = keep
	in.mu.Unlock()
}

// Press drives an active-low line to its asserted level.
func (in *Input) Press() { in.Set(false) }

// Release drives an active-low line back to idle.
func (in *Input) Release() { in.Set(true) }

func (in *Input) WaitForEdge(ctx context.Context, e hw.Edge) error {
	w := &waiter{edge: e, ch: make(chan struct{})}
	in.mu.Lock()
	in.waiters = append(in.waiters, w)
	in.mu.Unlock()
	select {
	case <-w.ch:
		return nil
	case <-ctx.Done():
		in.mu.Lock()
		for i, x := range in.waiters {
			if x == w {
				in.waiters = append(in.waiters[:i], in.waiters[i+1:]...)
				break
			}
		}
		in.mu.Unlock()
		return ctx.Err()
	}
}

// Waiters is the number of goroutines currently blocked in WaitForEdge.
func (in *Input) Waiters() int {
	in.mu.Lock()
	defer in.mu.Unlock()
	return len(in.waiters)
}

var _ hw.Input = (*Input)(nil)

// AwaitWaiter blocks until some task is waiting on in.
func AwaitWaiter(t testing.TB, in *Input) {
	t.Helper()
	deadline := time.Now().Add(time.Second)
	for in.Waiters() == 0 {
		if time.Now().After(deadline) {
			t.Fatal("timeout waiting for a task to wait on input")
		}
		time.Sleep(time.Millisecond)
	}
}

// ----------------------------- IRQ pin ---------------------------------------

// IRQPin implements hw.IRQPin; Set fires the handler ISR-style.
type IRQPin struct {
	mu      sync.Mutex
	level   bool
	edge    hw.Edge
	handler func()
}

func NewIRQPin(level bool) *IRQPin { return &IRQPin{level: level} }

func (p *IRQPin) Get() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.level
}

func (p *IRQPin) Set(level bool) {
	p.mu.Lock()
	e := hw.EdgeFrom(p.level, level)
	p.level = level
	h := p.handler
	want := hw.Matches(p.edge, e)
	p.mu.Unlock()
	if want && h != nil {
		h()
	}
}

func (p *IRQPin) SetIRQ(edge hw.Edge, handler func()) error {
	p.mu.Lock()
	p.edge = edge
	p.handler = handler
	p.mu.Unlock()
	return nil
}

func (p *IRQPin) ClearIRQ() error {
	p.mu.Lock()
	p.edge = hw.EdgeNone
	p.handler = nil
	p.mu.Unlock()
	return nil
}

var _ hw.IRQPin = (*IRQPin)(nil)

// ----------------------------- Board -----------------------------------------

// Board is a complete simulated peripheral set.
type Board struct {
	LeftButton, RightButton             *Input
	LeftButtonLED, RightButtonLED       *Output
	Buzzer                              *Output
	LeftRotarySwitch, RightRotarySwitch *Input
	Red, Green, Blue, Yellow, White     *Output
	LeftRotaryA, LeftRotaryB            *Input
	RightRotaryA, RightRotaryB          *Input
}

// NewBoard returns idle inputs (high, pulled up) and outputs off.
func NewBoard() *Board {
	return &Board{
		LeftButton:        NewInput(true),
		RightButton:       NewInput(true),
		LeftButtonLED:     NewOutput(true),
		RightButtonLED:    NewOutput(true),
		Buzzer:            NewOutput(false),
		LeftRotarySwitch:  NewInput(true),
		RightRotarySwitch: NewInput(true),
		Red:               NewOutput(false),
		Green:             NewOutput(false),
		Blue:              NewOutput(false),
		Yellow:            NewOutput(false),
		White:             NewOutput(false),
		LeftRotaryA:       NewInput(true),
		LeftRotaryB:       NewInput(true),
		RightRotaryA:      NewInput(true),
		RightRotaryB:      NewInput(true),
	}
}

func (b *Board) Peripherals() hw.Peripherals {
	return hw.Peripherals{
		LeftButton:        b.LeftButton,
		RightButton:       b.RightButton,
		LeftButtonLED:     b.LeftButtonLED,
		RightButtonLED:    b.RightButtonLED,
		Buzzer:            b.Buzzer,
		LeftRotarySwitch:  b.LeftRotarySwitch,
		RightRotarySwitch: b.RightRotarySwitch,
		Red:               b.Red,
		Green:             b.Green,
		Blue:              b.Blue,
		Yellow:            b.Yellow,
		White:             b.White,
		LeftRotaryA:       b.LeftRotaryA,
		LeftRotaryB:       b.LeftRotaryB,
		RightRotaryA:      b.RightRotaryA,
		RightRotaryB:      b.RightRotaryB,
	}
}

// Context returns an installed hw.Context over the board.
func (b *Board) Context(t testing.TB) *hw.Context {
	t.Helper()
	c := hw.NewContext()
	if err := c.Install(b.Peripherals()); err != nil {
		t.Fatalf("install: %v", err)
	}
	return c
}

// Ring returns the ring LEDs in ring order.
func (b *Board) Ring() []*Output {
	return []*Output{b.Red, b.Green, b.Blue, b.Yellow, b.White}
}

// Lit returns the indexes of ring LEDs currently on.
func (b *Board) Lit() []int {
	var on []int
	for i, o := range b.Ring() {
		if o.Get() {
			on = append(on, i)
		}
	}
	return on
}

// Eventually polls cond until it holds or d elapses.
func Eventually(t testing.TB, d time.Duration, cond func() bool, msg string) {
	t.Helper()
	deadline := time.Now().Add(d)
	for !cond() {
		if time.Now().After(deadline) {
			t.Fatalf("timeout: %s", msg)
		}
		time.Sleep(time.Millisecond)
	}
}
