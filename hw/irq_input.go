package hw

import (
	"context"
	"time"

	"meowbox-go/x/timex"
)

// IRQPin is a pin that can call back from an interrupt on level change.
type IRQPin interface {
	Get() bool
	SetIRQ(edge Edge, handler func()) error
	ClearIRQ() error
}

// IRQInput turns an IRQPin into an Input. The ISR only does a non-blocking
// send; waiters classify the edge from levels after an optional settle
// delay, which is where debouncing happens.
type IRQInput struct {
	pin    IRQPin
	settle time.Duration
	notify chan struct{}
}

// NewIRQInput arms the pin's interrupt on both edges.
func NewIRQInput(pin IRQPin, settle time.Duration) (*IRQInput, error) {
	in := &IRQInput{
		pin:    pin,
		settle: settle,
		notify: make(chan struct{}, 1),
	}
	handler := func() {
		select {
		case in.notify <- struct{}{}:
		default: // a wake is already pending
		}
	}
	if err := pin.SetIRQ(EdgeBoth, handler); err != nil {
		return nil, err
	}
	return in, nil
}

func (in *IRQInput) Get() bool { return in.pin.Get() }

// WaitForEdge returns after a wake that leaves the line at the wanted edge's
// settled level. A wake is proof the line moved, so a press that lands
// between the caller's last read and this call still counts.
func (in *IRQInput) WaitForEdge(ctx context.Context, e Edge) error {
	last := in.pin.Get()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-in.notify:
		}
		if in.settle > 0 {
			if err := timex.After(ctx, in.settle); err != nil {
				return err
			}
		}
		now := in.pin.Get()
		switch e {
		case EdgeFalling:
			if !now {
				return nil
			}
		case EdgeRising:
			if now {
				return nil
			}
		case EdgeBoth:
			if now != last {
				return nil
			}
		}
		last = now
	}
}

// Close disarms the interrupt.
func (in *IRQInput) Close() error { return in.pin.ClearIRQ() }
