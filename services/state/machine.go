package state

import (
	"context"
	"time"

	"meowbox-go/bus"
	"meowbox-go/errcode"
	"meowbox-go/hw"
	"meowbox-go/logging"
	"meowbox-go/services/config"
	"meowbox-go/services/display"
	"meowbox-go/signal"
	"meowbox-go/types"
)

// TopicState carries the retained name of the current mode.
var TopicState = bus.T("state", "current")

// Timing holds the per-mode periods.
type Timing struct {
	MenuRefresh  time.Duration
	RingStep     time.Duration
	FlowSlow     time.Duration
	FlowFast     time.Duration
	DebugRefresh time.Duration
	ErrorBlink   time.Duration
}

func TimingFrom(cfg *config.Config) Timing {
	t := cfg.Timing
	return Timing{
		MenuRefresh:  t.MenuRefresh(),
		RingStep:     t.RingStep(),
		FlowSlow:     t.FlowSlow(),
		FlowFast:     t.FlowFast(),
		DebugRefresh: t.DebugRefresh(),
		ErrorBlink:   t.ErrorBlink(),
	}
}

// Deps are the collaborators a machine drives. Display, Conn and Positions
// may be nil.
type Deps struct {
	HW      *hw.Context
	Nav     *signal.Queue[types.NavCommand]
	Display *signal.Queue[display.Command]
	Conn    *bus.Connection
	Timing  Timing
	// Positions reports the left and right encoder counts for Debug.
	Positions func() (left, right int32)
	Log       *logging.Logger
}

// Machine runs one handler per Tick. It is driven by a single loop and is
// not safe for concurrent use.
type Machine struct {
	d   Deps
	log *logging.Logger

	state         State
	next          *State
	needsShutdown bool
}

// New starts the machine in initial, entering at Setup.
func New(initial State, d Deps) *Machine {
	if d.Log == nil {
		d.Log = logging.Discard()
	}
	if d.Nav == nil {
		d.Nav = signal.NewQueue[types.NavCommand](1)
	}
	m := &Machine{d: d, log: d.Log.With("component", "state")}
	initial.Stage = Setup
	m.become(initial)
	return m
}

func (m *Machine) State() State { return m.state }

// Pending reports whether a transition has been requested but not taken.
func (m *Machine) Pending() bool { return m.needsShutdown }

// RequestTransition queues target; the current mode shuts down on the next
// Tick. ErrorState ignores requests.
func (m *Machine) RequestTransition(target State) {
	if m.state.Kind == KindError {
		m.log.Warn("transition ignored in error state", "target", target.String())
		return
	}
	target.Stage = Setup
	m.next = &target
	m.needsShutdown = true
}

// Fail routes the machine to ErrorState for a fault raised outside a
// handler, such as an input task that stopped.
func (m *Machine) Fail(err error) {
	if err == nil || m.state.Kind == KindError {
		return
	}
	m.log.Error("fault", "state", m.state.String(), "err", err)
	m.become(Error(errorKindOf(err)))
}

// Tick runs exactly one handler. It returns only ctx's error; every other
// failure is absorbed into ErrorState.
func (m *Machine) Tick(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if m.needsShutdown {
		m.needsShutdown = false
		m.state.Stage = Shutdown
	}

	h := handlerFor(m.state.Kind, m.state.Stage)
	if h == nil {
		m.log.Error("no handler", "state", m.state.String())
		m.become(Error(ErrStateNotImplemented))
		return nil
	}
	err := h(m, ctx)
	if err == nil {
		return nil
	}
	if ctx.Err() != nil {
		return ctx.Err()
	}
	m.Fail(err)
	return nil
}

// Run ticks until ctx is cancelled.
func (m *Machine) Run(ctx context.Context) error {
	for {
		if err := m.Tick(ctx); err != nil {
			return err
		}
	}
}

func (m *Machine) become(s State) {
	m.state = s
	if s.Kind == KindError {
		m.next = nil
		m.needsShutdown = false
	}
	m.log.Info("state entered", "state", s.String())
	if m.d.Conn != nil {
		m.d.Conn.Publish(m.d.Conn.NewMessage(TopicState, s.Name(), true))
	}
}

func errorKindOf(err error) ErrorKind {
	switch errcode.Of(err) {
	case errcode.Uninitialized:
		return ErrUninitialized
	case errcode.StateNotImplemented:
		return ErrStateNotImplemented
	case errcode.NextStateNotSpecified:
		return ErrNextStateNotSpecified
	default:
		return ErrUnknown
	}
}

// ---- transition table ----

type handler func(*Machine, context.Context) error

type key struct {
	kind  Kind
	stage Stage
}

var handlers = map[key]handler{
	{KindMenu, Setup}:          (*Machine).setupMenu,
	{KindMenu, Execution}:      (*Machine).executeMenu,
	{KindMenu, Shutdown}:       (*Machine).shutdown,
	{KindLightRing, Setup}:     (*Machine).setupLightRing,
	{KindLightRing, Execution}: (*Machine).executeLightRing,
	{KindLightRing, Shutdown}:  (*Machine).shutdown,
	{KindFlowField, Setup}:     (*Machine).setupFlowField,
	{KindFlowField, Execution}: (*Machine).executeFlowField,
	{KindFlowField, Shutdown}:  (*Machine).shutdown,
	{KindDebug, Setup}:         (*Machine).setupDebug,
	{KindDebug, Execution}:     (*Machine).executeDebug,
	{KindDebug, Shutdown}:      (*Machine).shutdown,
}

// handlerFor returns nil for combinations with no behaviour.
func handlerFor(k Kind, s Stage) handler {
	if k == KindError {
		return (*Machine).tickError
	}
	return handlers[key{k, s}]
}

// shutdown is shared by every mode: ring off, screen cleared, then the
// queued target is entered.
func (m *Machine) shutdown(ctx context.Context) error {
	if err := m.d.HW.AllLEDsOff(); err != nil {
		return err
	}
	m.show(display.Command{Kind: display.CmdClear})
	if m.next == nil {
		m.log.Error("shutdown without a target", "state", m.state.String())
		m.become(Error(ErrNextStateNotSpecified))
		return nil
	}
	next := *m.next
	m.next = nil
	m.become(next)
	return nil
}

// ---- helpers shared by the modes ----

func (m *Machine) show(cmd display.Command) {
	if m.d.Display == nil {
		return
	}
	if !m.d.Display.TrySend(cmd) {
		m.log.Warn("display queue full", "cmd", cmd.Kind.String())
	}
}

// drain consumes every queued navigation command. Back requests the menu;
// anything else goes to fn, which may be nil.
func (m *Machine) drain(fn func(types.NavCommand)) {
	for {
		nav, ok := m.d.Nav.TryReceive()
		if !ok {
			return
		}
		m.log.Debug("nav", "cmd", nav.String(), "state", m.state.Kind.String())
		if nav == types.NavBack && m.state.Kind != KindMenu {
			m.RequestTransition(Menu())
			continue
		}
		if fn != nil {
			fn(nav)
		}
	}
}
