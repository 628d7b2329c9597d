// Package hw models the device's digital lines and the lockable slots that
// let independent tasks share them.
package hw

import "context"

// Edge selection for edge waits and IRQs.
type Edge uint8

const (
	EdgeNone Edge = iota
	EdgeRising
	EdgeFalling
	EdgeBoth
)

func (e Edge) String() string {
	switch e {
	case EdgeRising:
		return "rising"
	case EdgeFalling:
		return "falling"
	case EdgeBoth:
		return "both"
	default:
		return "none"
	}
}

// Output is one digital output line (LED, buzzer). Set(true) drives it high.
type Output interface {
	Set(level bool)
	Get() bool
	Toggle()
}

// Input is one digital input line (button, rotary switch, encoder phase).
// WaitForEdge suspends until the requested edge is seen or ctx is done.
// Debouncing, where wanted, belongs to the implementation.
type Input interface {
	Get() bool
	WaitForEdge(ctx context.Context, e Edge) error
}

// IsLow reports whether an active-low input is asserted.
func IsLow(in Input) bool { return !in.Get() }

// WaitForLow returns at once if in is already low, otherwise waits for a
// falling edge.
func WaitForLow(ctx context.Context, in Input) error {
	for in.Get() {
		if err := in.WaitForEdge(ctx, EdgeFalling); err != nil {
			return err
		}
	}
	return nil
}

// WaitForHigh is the mirror of WaitForLow.
func WaitForHigh(ctx context.Context, in Input) error {
	for !in.Get() {
		if err := in.WaitForEdge(ctx, EdgeRising); err != nil {
			return err
		}
	}
	return nil
}

// EdgeFrom classifies a level change.
func EdgeFrom(old, new bool) Edge {
	switch {
	case !old && new:
		return EdgeRising
	case old && !new:
		return EdgeFalling
	default:
		return EdgeNone
	}
}

// Matches reports whether a seen edge satisfies a wanted edge.
func Matches(want, seen Edge) bool {
	switch want {
	case EdgeBoth:
		return seen == EdgeRising || seen == EdgeFalling
	case EdgeNone:
		return false
	default:
		return want == seen
	}
}
