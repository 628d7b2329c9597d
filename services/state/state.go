// Package state is the device's top-level mode machine.
package state

import (
	"fmt"

	"meowbox-go/types"
)

// Kind is the top-level mode.
type Kind uint8

const (
	KindMenu Kind = iota
	KindLightRing
	KindFlowField
	KindDebug
	KindError
)

func (k Kind) String() string {
	switch k {
	case KindMenu:
		return "menu"
	case KindLightRing:
		return "light_ring"
	case KindFlowField:
		return "flow_field"
	case KindDebug:
		return "debug"
	case KindError:
		return "error_state"
	default:
		return "INVALID"
	}
}

// Stage is the sub-phase within a mode. A new mode always enters at Setup.
type Stage uint8

const (
	Setup Stage = iota
	Execution
	Shutdown
)

func (s Stage) String() string {
	switch s {
	case Setup:
		return "setup"
	case Execution:
		return "execution"
	case Shutdown:
		return "shutdown"
	default:
		return "INVALID"
	}
}

// LightRingState is the colour currently lit in LightRing and Debug.
type LightRingState uint8

const (
	Red LightRingState = iota
	Green
	Blue
	Yellow
	White
)

// Next steps round the ring: Red, Green, Blue, Yellow, White, Red.
func (r LightRingState) Next() LightRingState {
	if r >= White {
		return Red
	}
	return r + 1
}

func (r LightRingState) LED() types.LED {
	return types.RingOrder[int(r)%len(types.RingOrder)]
}

func (r LightRingState) String() string { return r.LED().String() }

// FlowFieldState picks the frame period of FlowField.
type FlowFieldState uint8

const (
	Slow FlowFieldState = iota
	Fast
)

func (f FlowFieldState) Toggle() FlowFieldState {
	if f == Slow {
		return Fast
	}
	return Slow
}

func (f FlowFieldState) String() string {
	if f == Fast {
		return "fast"
	}
	return "slow"
}

// MenuState is the highlighted entry.
type MenuState struct {
	Selected int
}

// ErrorKind says why the machine is in ErrorState.
type ErrorKind uint8

const (
	ErrUnknown ErrorKind = iota
	ErrStateNotImplemented
	ErrNextStateNotSpecified
	ErrUninitialized
)

func (e ErrorKind) String() string {
	switch e {
	case ErrUnknown:
		return "unknown"
	case ErrStateNotImplemented:
		return "state_not_implemented"
	case ErrNextStateNotSpecified:
		return "next_state_not_specified"
	case ErrUninitialized:
		return "uninitialized"
	default:
		return "INVALID"
	}
}

// State is a tagged value: Kind selects which of Menu, Ring, Flow and Err
// are meaningful. Stage is unused in ErrorState.
type State struct {
	Kind  Kind
	Stage Stage
	Menu  MenuState
	Ring  LightRingState
	Flow  FlowFieldState
	Err   ErrorKind
}

func Menu() State                     { return State{Kind: KindMenu} }
func LightRing(r LightRingState) State { return State{Kind: KindLightRing, Ring: r} }
func FlowField(f FlowFieldState) State { return State{Kind: KindFlowField, Flow: f} }

func Debug(r LightRingState, f FlowFieldState) State {
	return State{Kind: KindDebug, Ring: r, Flow: f}
}

func Error(kind ErrorKind) State { return State{Kind: KindError, Err: kind} }

// Name is the stage-free label published on the bus.
func (s State) Name() string {
	if s.Kind == KindError {
		return fmt.Sprintf("%s(%s)", s.Kind, s.Err)
	}
	return s.Kind.String()
}

func (s State) String() string {
	switch s.Kind {
	case KindMenu:
		return fmt.Sprintf("menu(%s, selected=%d)", s.Stage, s.Menu.Selected)
	case KindLightRing:
		return fmt.Sprintf("light_ring(%s, %s)", s.Stage, s.Ring)
	case KindFlowField:
		return fmt.Sprintf("flow_field(%s, %s)", s.Stage, s.Flow)
	case KindDebug:
		return fmt.Sprintf("debug(%s, %s, %s)", s.Stage, s.Ring, s.Flow)
	default:
		return s.Name()
	}
}
