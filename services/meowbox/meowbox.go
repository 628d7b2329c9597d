// Package meowbox brings up the whole device: hardware registry, input
// tasks, display task, monitor, and the state machine's tick loop.
package meowbox

import (
	"context"

	"meowbox-go/bus"
	"meowbox-go/errcode"
	"meowbox-go/hw"
	"meowbox-go/logging"
	"meowbox-go/services/config"
	"meowbox-go/services/display"
	"meowbox-go/services/monitor"
	"meowbox-go/services/state"
	"meowbox-go/services/tasks"
	"meowbox-go/signal"
	"meowbox-go/types"
	"meowbox-go/x/mathx"
	"meowbox-go/x/timex"
)

// TopicService carries the retained lifecycle of the device loop.
var TopicService = bus.T("meowbox", "state")

// Board is what board bring-up hands over. Panel may be nil on boards
// without a display.
type Board struct {
	Peripherals hw.Peripherals
	Panel       display.Panel
}

// App owns every long-lived component. Build with New, then Run once.
type App struct {
	Cfg   *config.Config
	Board Board
	Bus   *bus.Bus
	HW    *hw.Context

	log  *logging.Logger
	conn *bus.Connection
}

func New(cfg *config.Config, board Board, log *logging.Logger) *App {
	if log == nil {
		log = logging.Discard()
	}
	b := bus.NewBus(16)
	return &App{
		Cfg:   cfg,
		Board: board,
		Bus:   b,
		HW:    hw.NewContext(),
		log:   log.With("component", "meowbox"),
		conn:  b.NewConnection("meowbox"),
	}
}

// Run blocks until ctx is cancelled. A board that cannot be installed does
// not stop the device: the state machine goes straight to its error mode.
func Run(ctx context.Context, cfg *config.Config, board Board, log *logging.Logger) error {
	return New(cfg, board, log).Run(ctx)
}

func (a *App) Run(ctx context.Context) error {
	a.publishState("starting", "")
	config.Publish(a.conn, a.Cfg)

	settle := a.Cfg.Timing.StartupSettle()
	installErr := a.HW.Install(a.Board.Peripherals)
	if installErr != nil {
		a.log.Error("hardware install failed", "err", installErr)
	}
	if err := timex.After(ctx, settle); err != nil {
		return err
	}

	monitor.New(a.log, a.Cfg.Monitor.Heartbeat()).Start(ctx, a.Bus.NewConnection("monitor"))

	var displayQ *signal.Queue[display.Command]
	if a.Cfg.Display.Enabled && a.Board.Panel != nil {
		displayQ = signal.NewQueue[display.Command](mathx.Clamp(a.Cfg.Display.Queue, 1, display.QueueSize))
		dt := &display.Task{
			Panel: a.Board.Panel,
			Cmds:  displayQ,
			Retry: a.Cfg.Timing.DisplayRetry(),
			Log:   a.log,
		}
		go dt.Run(ctx)
		displayQ.TrySend(display.Command{Kind: display.CmdInit})
	}

	cmds := tasks.NewCommands(a.Cfg.Rotation.NavQueue, a.Bus.NewConnection("input"))
	deps := state.Deps{
		HW:      a.HW,
		Nav:     cmds.Nav,
		Display: displayQ,
		Conn:    a.conn,
		Timing:  state.TimingFrom(a.Cfg),
		Log:     a.log,
	}

	var exits <-chan tasks.Exit
	if installErr == nil {
		settings, err := tasks.SettingsFrom(a.Cfg)
		if err != nil {
			return err
		}
		set := tasks.New(a.HW, a.Board.Peripherals, cmds, settings, a.log)
		deps.Positions = func() (int32, int32) {
			return set.LeftRotation.Position(), set.RightRotation.Position()
		}
		exits = set.Start(ctx)
		if err := timex.After(ctx, settle); err != nil {
			return err
		}
	}

	m := state.New(state.Menu(), deps)
	if installErr != nil {
		m.Fail(errcode.Wrap(errcode.Uninitialized, "install", installErr))
	}
	a.publishState("running", m.State().Name())

	for {
		select {
		case <-ctx.Done():
			a.publishState("stopped", "context_cancelled")
			return ctx.Err()
		case ex := <-exits:
			if ctx.Err() != nil {
				continue
			}
			err := ex.Err
			if err == nil {
				err = &errcode.E{C: errcode.Error, Op: ex.Task, Msg: "task returned"}
			}
			a.log.Error("task exited", "task", ex.Task, "err", err)
			m.Fail(err)
		default:
		}
		if err := m.Tick(ctx); err != nil {
			a.publishState("stopped", "context_cancelled")
			return err
		}
	}
}

func (a *App) publishState(level, status string) {
	st := types.ServiceState{Level: level, Status: status, TS: timex.NowMs()}
	a.conn.Publish(a.conn.NewMessage(TopicService, st, true))
}
