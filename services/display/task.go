package display

import (
	"context"
	"sync"
	"time"

	"meowbox-go/logging"
	"meowbox-go/signal"
	"meowbox-go/x/timex"
)

// CommandKind enumerates what the display task can be asked to do.
type CommandKind uint8

const (
	CmdInit CommandKind = iota
	CmdClear
	CmdTerminal
	CmdGraphics
	CmdLines
	CmdSplash
)

func (k CommandKind) String() string {
	switch k {
	case CmdInit:
		return "init"
	case CmdClear:
		return "clear"
	case CmdTerminal:
		return "switch_to_terminal"
	case CmdGraphics:
		return "switch_to_graphics"
	case CmdLines:
		return "lines"
	case CmdSplash:
		return "splash"
	default:
		return "INVALID"
	}
}

// Command is one request. Title, Lines and Selected apply to CmdLines,
// Caption to CmdSplash.
type Command struct {
	Kind     CommandKind
	Title    string
	Lines    []string
	Selected int
	Caption  string
}

// ShowLines renders text; it needs terminal mode.
func ShowLines(title string, lines []string, selected int) Command {
	return Command{Kind: CmdLines, Title: title, Lines: lines, Selected: selected}
}

// ShowSplash draws the splash bitmap with a caption; it needs graphics mode.
func ShowSplash(caption string) Command {
	return Command{Kind: CmdSplash, Caption: caption}
}

// QueueSize is the depth of the command queue on the device.
const QueueSize = 20

// Task owns the panel and executes commands in order.
type Task struct {
	Panel Panel
	Cmds  *signal.Queue[Command]
	Retry time.Duration
	Log   *logging.Logger

	mu       sync.Mutex
	mode     Mode
	ready    bool
	attempts int
}

func (t *Task) Run(ctx context.Context) error {
	if t.Log == nil {
		t.Log = logging.Discard()
	}
	log := t.Log.With("task", "display")
	t.mu.Lock()
	t.mode = NewGraphics(t.Panel)
	t.mu.Unlock()
	for {
		cmd, err := t.Cmds.Receive(ctx)
		if err != nil {
			return err
		}
		if err := t.handle(ctx, cmd); err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			log.Warn("display command failed", "cmd", cmd.Kind.String(), "err", err)
		}
	}
}

// Mode names the current drawing mode.
func (t *Task) Mode() string {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.mode == nil {
		return ""
	}
	return t.mode.Name()
}

// Ready reports whether Init has succeeded.
func (t *Task) Ready() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.ready
}

// InitAttempts counts calls to Panel.Init.
func (t *Task) InitAttempts() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.attempts
}

func (t *Task) handle(ctx context.Context, cmd Command) error {
	if cmd.Kind == CmdInit {
		return t.init(ctx)
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	if !t.ready {
		t.Log.Warn("display not initialised, dropping command", "cmd", cmd.Kind.String())
		return nil
	}
	switch cmd.Kind {
	case CmdClear:
		return t.mode.Clear()
	case CmdTerminal:
		term, err := ToTerminal(t.mode)
		if err != nil {
			return err
		}
		t.mode = term
	case CmdGraphics:
		g, err := ToGraphics(t.mode)
		if err != nil {
			return err
		}
		t.mode = g
	case CmdLines:
		term, ok := t.mode.(*Terminal)
		if !ok {
			t.Log.Warn("lines need terminal mode", "mode", t.mode.Name())
			return nil
		}
		return term.Lines(cmd.Title, cmd.Lines, cmd.Selected)
	case CmdSplash:
		g, ok := t.mode.(*Graphics)
		if !ok {
			t.Log.Warn("splash needs graphics mode", "mode", t.mode.Name())
			return nil
		}
		return drawSplash(g, t.Panel, cmd.Caption)
	}
	return nil
}

// init retries Panel.Init every Retry until it succeeds or ctx ends.
func (t *Task) init(ctx context.Context) error {
	for {
		err := t.Panel.Init()
		t.mu.Lock()
		t.attempts++
		n := t.attempts
		if err == nil {
			t.ready = true
		}
		t.mu.Unlock()
		if err == nil {
			t.Log.Info("display initialised", "mode", t.Mode(), "attempts", n)
			return nil
		}
		t.Log.Error("display init failed", "attempt", n, "err", err)
		if err := timex.After(ctx, t.Retry); err != nil {
			return err
		}
	}
}

func drawSplash(g *Graphics, p Panel, caption string) error {
	img, err := Splash()
	if err != nil {
		return err
	}
	if err := g.Reset(); err != nil {
		return err
	}
	w, h := p.Size()
	b := img.Bounds()
	x := (w - int16(b.Dx())) / 2
	if err := g.Image(img, x, 0); err != nil {
		return err
	}
	if caption != "" {
		if err := g.Text(2, h-2, caption); err != nil {
			return err
		}
	}
	return g.Flush()
}
