package state

import (
	"context"
	"errors"
	"reflect"
	"testing"
	"time"

	"meowbox-go/bus"
	"meowbox-go/errcode"
	"meowbox-go/hw"
	"meowbox-go/hw/hwtest"
	"meowbox-go/services/config"
	"meowbox-go/services/display"
	"meowbox-go/signal"
	"meowbox-go/types"
)

type rig struct {
	m       *Machine
	board   *hwtest.Board
	nav     *signal.Queue[types.NavCommand]
	display *signal.Queue[display.Command]
}

var fast = Timing{
	MenuRefresh:  time.Millisecond,
	RingStep:     time.Millisecond,
	FlowSlow:     time.Millisecond,
	FlowFast:     time.Millisecond,
	DebugRefresh: time.Millisecond,
	ErrorBlink:   time.Millisecond,
}

func newRig(t *testing.T, initial State) *rig {
	t.Helper()
	r := &rig{
		board:   hwtest.NewBoard(),
		nav:     signal.NewQueue[types.NavCommand](8),
		display: signal.NewQueue[display.Command](64),
	}
	r.m = New(initial, Deps{
		HW:      r.board.Context(t),
		Nav:     r.nav,
		Display: r.display,
		Timing:  fast,
	})
	return r
}

func (r *rig) tick(t *testing.T, n int) {
	t.Helper()
	for i := 0; i < n; i++ {
		if err := r.m.Tick(context.Background()); err != nil {
			t.Fatalf("tick %d: %v", i, err)
		}
	}
}

func (r *rig) commands() []display.Command {
	var out []display.Command
	for {
		c, ok := r.display.TryReceive()
		if !ok {
			return out
		}
		out = append(out, c)
	}
}

func (r *rig) send(navs ...types.NavCommand) {
	for _, n := range navs {
		r.nav.TrySend(n)
	}
}

func TestMenuSetupEntersExecutionWithDefault(t *testing.T) {
	r := newRig(t, State{Kind: KindMenu, Menu: MenuState{Selected: 2}})
	r.tick(t, 1)

	want := State{Kind: KindMenu, Stage: Execution, Menu: MenuState{}}
	if got := r.m.State(); got != want {
		t.Fatalf("state = %v, want %v", got, want)
	}
	cmds := r.commands()
	if len(cmds) != 2 || cmds[0].Kind != display.CmdTerminal || cmds[1].Kind != display.CmdLines {
		t.Fatalf("display commands = %+v", cmds)
	}
	if cmds[1].Selected != 0 || len(cmds[1].Lines) != len(MenuItems) {
		t.Fatalf("menu render = %+v", cmds[1])
	}
}

func TestPendingShutdownOverridesExecute(t *testing.T) {
	r := newRig(t, Menu())
	r.tick(t, 1)
	r.board.Green.Set(true)

	r.send(types.NavNext)
	r.m.RequestTransition(LightRing(Red))
	if !r.m.Pending() {
		t.Fatal("transition not pending")
	}
	r.tick(t, 1)

	want := State{Kind: KindLightRing, Stage: Setup, Ring: Red}
	if got := r.m.State(); got != want {
		t.Fatalf("state = %v, want %v", got, want)
	}
	if r.m.Pending() || r.m.next != nil {
		t.Fatal("transition bookkeeping not cleared")
	}
	if r.nav.Len() != 1 {
		t.Fatalf("execute ran: nav len = %d", r.nav.Len())
	}
	if lit := r.board.Lit(); len(lit) != 0 {
		t.Fatalf("shutdown left LEDs on: %v", lit)
	}
}

func TestShutdownTakesNext(t *testing.T) {
	r := newRig(t, Menu())
	next := State{Kind: KindLightRing, Stage: Setup, Ring: Red}
	r.m.state = State{Kind: KindMenu, Stage: Shutdown}
	r.m.next = &next
	r.tick(t, 1)

	if got := r.m.State(); got != next {
		t.Fatalf("state = %v, want %v", got, next)
	}
}

func TestShutdownWithoutNextIsError(t *testing.T) {
	r := newRig(t, Menu())
	r.m.state = State{Kind: KindMenu, Stage: Shutdown}
	r.tick(t, 1)

	if got := r.m.State(); got != Error(ErrNextStateNotSpecified) {
		t.Fatalf("state = %v", got)
	}

	// Same path through the pre-tick guard.
	r = newRig(t, LightRing(Blue))
	r.m.needsShutdown = true
	r.tick(t, 1)
	if got := r.m.State(); got != Error(ErrNextStateNotSpecified) {
		t.Fatalf("state = %v", got)
	}
}

func TestUnimplementedCombinationIsError(t *testing.T) {
	r := newRig(t, Menu())
	r.m.state = State{Kind: KindMenu, Stage: Stage(9)}
	r.tick(t, 1)
	if got := r.m.State(); got != Error(ErrStateNotImplemented) {
		t.Fatalf("state = %v", got)
	}

	r = newRig(t, Menu())
	r.m.state = State{Kind: Kind(42)}
	r.tick(t, 1)
	if got := r.m.State(); got != Error(ErrStateNotImplemented) {
		t.Fatalf("state = %v", got)
	}

	for _, s := range []Stage{Setup, Execution, Shutdown, Stage(9)} {
		if handlerFor(KindError, s) == nil {
			t.Fatalf("error state has no handler for %v", s)
		}
	}
}

func TestUninitializedHardwareIsError(t *testing.T) {
	m := New(Menu(), Deps{HW: hw.NewContext(), Timing: fast})
	ctx := context.Background()
	if err := m.Tick(ctx); err != nil {
		t.Fatal(err)
	}
	if got := m.State(); got != Error(ErrUninitialized) {
		t.Fatalf("state = %v", got)
	}
	// The error state keeps ticking even though it cannot reach its LED.
	for i := 0; i < 3; i++ {
		if err := m.Tick(ctx); err != nil {
			t.Fatalf("error tick: %v", err)
		}
	}
	if got := m.State(); got != Error(ErrUninitialized) {
		t.Fatalf("state = %v", got)
	}
}

func TestErrorStateBlinksAndDiscards(t *testing.T) {
	r := newRig(t, Error(ErrUnknown))
	r.send(types.NavNext, types.NavSelect, types.NavBack)
	r.tick(t, 3)

	if got := r.board.Red.History(); !reflect.DeepEqual(got, []bool{true, false, true}) {
		t.Fatalf("red history = %v", got)
	}
	if r.nav.Len() != 0 {
		t.Fatalf("nav len = %d", r.nav.Len())
	}
	r.m.RequestTransition(Menu())
	if r.m.Pending() {
		t.Fatal("error state accepted a transition")
	}
	r.tick(t, 1)
	if r.m.State().Kind != KindError {
		t.Fatalf("left error state: %v", r.m.State())
	}
}

func TestMenuNavigation(t *testing.T) {
	r := newRig(t, Menu())
	r.tick(t, 1)

	r.send(types.NavNext, types.NavNext, types.NavPrev)
	r.tick(t, 1)
	if got := r.m.State().Menu.Selected; got != 1 {
		t.Fatalf("selected = %d", got)
	}

	r.send(types.NavPrev, types.NavPrev)
	r.tick(t, 1)
	if got := r.m.State().Menu.Selected; got != len(MenuItems)-1 {
		t.Fatalf("selected after wrap = %d", got)
	}

	r.send(types.NavNext, types.NavNext, types.NavSelect)
	r.tick(t, 1)
	if !r.m.Pending() {
		t.Fatal("select did not request a transition")
	}
	r.commands()

	r.tick(t, 2)
	want := State{Kind: KindFlowField, Stage: Execution, Flow: Slow}
	if got := r.m.State(); got != want {
		t.Fatalf("state = %v, want %v", got, want)
	}
	cmds := r.commands()
	var sawGraphics, sawSplash bool
	for _, c := range cmds {
		switch c.Kind {
		case display.CmdGraphics:
			sawGraphics = true
		case display.CmdSplash:
			sawSplash = c.Caption == "flow: slow"
		}
	}
	if !sawGraphics || !sawSplash {
		t.Fatalf("flow field setup commands = %+v", cmds)
	}
}

func TestLightRingSteps(t *testing.T) {
	r := newRig(t, LightRing(Red))
	r.tick(t, 1)
	if lit := r.board.Lit(); !reflect.DeepEqual(lit, []int{0}) {
		t.Fatalf("after setup lit = %v", lit)
	}

	for i := 1; i <= 6; i++ {
		r.tick(t, 1)
		want := i % 5
		if lit := r.board.Lit(); !reflect.DeepEqual(lit, []int{want}) {
			t.Fatalf("step %d lit = %v, want [%d]", i, lit, want)
		}
	}
	if got := r.m.State().Ring; got != Green {
		t.Fatalf("ring = %v", got)
	}
}

func TestBackReturnsToMenu(t *testing.T) {
	for _, initial := range []State{LightRing(Red), FlowField(Fast), Debug(Blue, Slow)} {
		r := newRig(t, initial)
		r.tick(t, 2)

		r.send(types.NavBack)
		r.tick(t, 1)
		if !r.m.Pending() {
			t.Fatalf("%v: back did not request menu", initial)
		}
		r.tick(t, 1)
		if got := r.m.State(); got != Menu() {
			t.Fatalf("%v: state = %v", initial, got)
		}
		if lit := r.board.Lit(); len(lit) != 0 {
			t.Fatalf("%v: lit = %v", initial, lit)
		}
	}
}

func TestFlowFieldToggles(t *testing.T) {
	r := newRig(t, FlowField(Slow))
	r.tick(t, 1)
	r.commands()

	r.send(types.NavNext)
	r.tick(t, 1)
	if got := r.m.State().Flow; got != Fast {
		t.Fatalf("flow = %v", got)
	}
	cmds := r.commands()
	if len(cmds) != 1 || cmds[0].Kind != display.CmdSplash || cmds[0].Caption != "flow: fast" {
		t.Fatalf("commands = %+v", cmds)
	}

	r.tick(t, 1)
	// Setup switches the ring off, then every frame toggles white.
	if got := r.board.White.History(); !reflect.DeepEqual(got, []bool{false, true, false}) {
		t.Fatalf("white history = %v", got)
	}
}

func TestDebugShowsPositions(t *testing.T) {
	board := hwtest.NewBoard()
	q := signal.NewQueue[display.Command](16)
	m := New(Debug(Red, Fast), Deps{
		HW:        board.Context(t),
		Display:   q,
		Timing:    fast,
		Positions: func() (int32, int32) { return 3, -2 },
	})
	if err := m.Tick(context.Background()); err != nil {
		t.Fatal(err)
	}
	var lines []string
	for {
		c, ok := q.TryReceive()
		if !ok {
			break
		}
		if c.Kind == display.CmdLines {
			lines = c.Lines
		}
	}
	want := []string{"ring: red", "flow: fast", "left: 3", "right: -2", "nav: 0/1"}
	if !reflect.DeepEqual(lines, want) {
		t.Fatalf("lines = %q", lines)
	}
}

func TestTransitionsArePublished(t *testing.T) {
	b := bus.NewBus(8)
	conn := b.NewConnection("state")
	board := hwtest.NewBoard()
	m := New(Menu(), Deps{HW: board.Context(t), Conn: conn, Timing: fast})

	m.RequestTransition(LightRing(Red))
	if err := m.Tick(context.Background()); err != nil {
		t.Fatal(err)
	}

	sub := conn.Subscribe(TopicState)
	select {
	case msg := <-sub.Channel():
		if msg.Payload != "light_ring" || !msg.Retained {
			t.Fatalf("retained = %+v", msg)
		}
	case <-time.After(time.Second):
		t.Fatal("no retained state")
	}

	m.Fail(errcode.Uninitialized)
	select {
	case msg := <-sub.Channel():
		if msg.Payload != "error_state(uninitialized)" {
			t.Fatalf("payload = %v", msg.Payload)
		}
	case <-time.After(time.Second):
		t.Fatal("error state not published")
	}
}

func TestFail(t *testing.T) {
	r := newRig(t, Menu())
	r.m.Fail(nil)
	if r.m.State().Kind != KindMenu {
		t.Fatal("nil error changed state")
	}
	r.m.RequestTransition(FlowField(Slow))
	r.m.Fail(&errcode.E{C: errcode.Uninitialized, Op: "buzzer"})
	if got := r.m.State(); got != Error(ErrUninitialized) {
		t.Fatalf("state = %v", got)
	}
	if r.m.Pending() || r.m.next != nil {
		t.Fatal("pending transition survived the fault")
	}
	r.m.Fail(errors.New("later"))
	if got := r.m.State(); got != Error(ErrUninitialized) {
		t.Fatalf("second fault replaced the first: %v", got)
	}
}

func TestTickStopsOnCancel(t *testing.T) {
	r := newRig(t, Menu())
	r.m.d.Timing.MenuRefresh = time.Hour
	r.tick(t, 1)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- r.m.Run(ctx) }()
	cancel()
	select {
	case err := <-done:
		if !errors.Is(err, context.Canceled) {
			t.Fatalf("Run = %v", err)
		}
	case <-time.After(time.Second):
		t.Fatal("Run did not stop")
	}
}

func TestTimingFrom(t *testing.T) {
	cfg, err := config.Load(config.BoardHost)
	if err != nil {
		t.Fatal(err)
	}
	tm := TimingFrom(cfg)
	if tm.FlowFast != 2*time.Millisecond || tm.ErrorBlink != 5*time.Millisecond {
		t.Fatalf("timing = %+v", tm)
	}
}

func TestLightRingOrder(t *testing.T) {
	seq := []LightRingState{Red}
	for i := 0; i < 5; i++ {
		seq = append(seq, seq[len(seq)-1].Next())
	}
	want := []LightRingState{Red, Green, Blue, Yellow, White, Red}
	if !reflect.DeepEqual(seq, want) {
		t.Fatalf("order = %v", seq)
	}
}
