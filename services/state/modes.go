package state

import (
	"context"
	"fmt"
	"time"

	"meowbox-go/hw"
	"meowbox-go/services/display"
	"meowbox-go/types"
	"meowbox-go/x/mathx"
	"meowbox-go/x/timex"
)

// MenuItem is one selectable entry of the menu.
type MenuItem struct {
	Label  string
	Target State
}

// MenuItems are listed in display order.
var MenuItems = []MenuItem{
	{"light ring", LightRing(Red)},
	{"flow field", FlowField(Slow)},
	{"debug", Debug(Red, Slow)},
}

// ---- Menu ----

func (m *Machine) setupMenu(ctx context.Context) error {
	if err := m.d.HW.AllLEDsOff(); err != nil {
		return err
	}
	m.state.Menu = MenuState{}
	m.show(display.Command{Kind: display.CmdTerminal})
	m.renderMenu()
	m.state.Stage = Execution
	return nil
}

func (m *Machine) executeMenu(ctx context.Context) error {
	n := len(MenuItems)
	m.drain(func(nav types.NavCommand) {
		sel := m.state.Menu.Selected
		switch nav {
		case types.NavNext:
			m.state.Menu.Selected = mathx.Wrap(sel+1, n)
		case types.NavPrev:
			m.state.Menu.Selected = mathx.Wrap(sel-1, n)
		case types.NavSelect:
			m.RequestTransition(MenuItems[sel].Target)
		}
	})
	if m.needsShutdown {
		return nil
	}
	m.renderMenu()
	return timex.After(ctx, m.d.Timing.MenuRefresh)
}

func (m *Machine) renderMenu() {
	lines := make([]string, len(MenuItems))
	for i, it := range MenuItems {
		lines[i] = it.Label
	}
	m.show(display.ShowLines("meowbox", lines, m.state.Menu.Selected))
}

// ---- LightRing ----

func (m *Machine) setupLightRing(ctx context.Context) error {
	if err := m.d.HW.Only(m.state.Ring.LED()); err != nil {
		return err
	}
	m.state.Stage = Execution
	return nil
}

// executeLightRing holds the current colour for one step, then moves on.
func (m *Machine) executeLightRing(ctx context.Context) error {
	m.drain(nil)
	if m.needsShutdown {
		return nil
	}
	if err := timex.After(ctx, m.d.Timing.RingStep); err != nil {
		return err
	}
	m.state.Ring = m.state.Ring.Next()
	return m.d.HW.Only(m.state.Ring.LED())
}

// ---- FlowField ----

func (m *Machine) setupFlowField(ctx context.Context) error {
	if err := m.d.HW.AllLEDsOff(); err != nil {
		return err
	}
	m.show(display.Command{Kind: display.CmdGraphics})
	m.renderFlow()
	m.state.Stage = Execution
	return nil
}

// executeFlowField paces frames at the Slow or Fast period; the white LED
// toggles once per frame.
func (m *Machine) executeFlowField(ctx context.Context) error {
	changed := false
	m.drain(func(nav types.NavCommand) {
		if nav == types.NavNext || nav == types.NavPrev {
			m.state.Flow = m.state.Flow.Toggle()
			changed = true
		}
	})
	if m.needsShutdown {
		return nil
	}
	if changed {
		m.renderFlow()
	}
	if err := hw.Toggle(m.d.HW.White); err != nil {
		return err
	}
	return timex.After(ctx, m.framePeriod())
}

func (m *Machine) framePeriod() time.Duration {
	if m.state.Flow == Fast {
		return m.d.Timing.FlowFast
	}
	return m.d.Timing.FlowSlow
}

func (m *Machine) renderFlow() {
	m.show(display.ShowSplash("flow: " + m.state.Flow.String()))
}

// ---- Debug ----

func (m *Machine) setupDebug(ctx context.Context) error {
	if err := m.d.HW.Only(m.state.Ring.LED()); err != nil {
		return err
	}
	m.show(display.Command{Kind: display.CmdTerminal})
	m.renderDebug()
	m.state.Stage = Execution
	return nil
}

// executeDebug steps the ring like LightRing and shows the machine's
// internals. Rotation toggles the flow speed shown.
func (m *Machine) executeDebug(ctx context.Context) error {
	m.drain(func(nav types.NavCommand) {
		if nav == types.NavNext || nav == types.NavPrev {
			m.state.Flow = m.state.Flow.Toggle()
		}
	})
	if m.needsShutdown {
		return nil
	}
	m.renderDebug()
	if err := timex.After(ctx, m.d.Timing.DebugRefresh); err != nil {
		return err
	}
	m.state.Ring = m.state.Ring.Next()
	return m.d.HW.Only(m.state.Ring.LED())
}

func (m *Machine) renderDebug() {
	var left, right int32
	if m.d.Positions != nil {
		left, right = m.d.Positions()
	}
	m.show(display.ShowLines("debug", []string{
		"ring: " + m.state.Ring.String(),
		"flow: " + m.state.Flow.String(),
		fmt.Sprintf("left: %d", left),
		fmt.Sprintf("right: %d", right),
		fmt.Sprintf("nav: %d/%d", m.d.Nav.Len(), m.d.Nav.Cap()),
	}, -1))
}

// ---- ErrorState ----

// tickError blinks the red LED forever. Navigation is discarded so input
// tasks never stall on a full queue.
func (m *Machine) tickError(ctx context.Context) error {
	for {
		if _, ok := m.d.Nav.TryReceive(); !ok {
			break
		}
	}
	if err := hw.Toggle(m.d.HW.Red); err != nil {
		m.log.Error("error state", "reason", m.state.Err.String(), "err", err)
	} else {
		m.log.Error("error state", "reason", m.state.Err.String())
	}
	return timex.After(ctx, m.d.Timing.ErrorBlink)
}
