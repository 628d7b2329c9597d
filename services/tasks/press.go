// Package tasks holds the long-running input loops and the command
// consumers that own the buzzer and the LED rotation.
package tasks

import (
	"context"
	"sync/atomic"
	"time"

	"meowbox-go/hw"
	"meowbox-go/logging"
	"meowbox-go/x/timex"
)

// Trigger selects what counts as a press on an active-low line.
type Trigger uint8

const (
	// TriggerLow fires as soon as the line is low.
	TriggerLow Trigger = iota
	// TriggerFalling fires only on a high-to-low transition.
	TriggerFalling
)

func (t Trigger) String() string {
	if t == TriggerFalling {
		return "falling"
	}
	return "low"
}

// PressTask is the loop shared by buttons and rotary switches: wait for the
// trigger, turn the LED off, run OnPress, hold, turn the LED back on, then
// wait for release before re-arming.
type PressTask struct {
	Name    string
	Input   *hw.Slot[hw.Input]
	LED     *hw.Slot[hw.Output] // optional
	Trigger Trigger
	Hold    time.Duration
	OnPress func(ctx context.Context) error
	Log     *logging.Logger

	presses atomic.Uint32
}

// Presses is the number of triggers handled so far.
func (p *PressTask) Presses() uint32 { return p.presses.Load() }

// Run loops until ctx is cancelled or a hardware slot fails.
func (p *PressTask) Run(ctx context.Context) error {
	log := p.logger()
	in, err := p.Input.Handle()
	if err != nil {
		log.Error("input unavailable", "err", err)
		return err
	}
	log.Debug("armed", "trigger", p.Trigger.String())
	for {
		if err := p.wait(ctx, in); err != nil {
			return err
		}
		n := p.presses.Add(1)
		log.Debug("triggered", "count", n)

		if err := p.setLED(false); err != nil {
			log.Error("led off failed", "err", err)
			return err
		}
		if p.OnPress != nil {
			if err := p.OnPress(ctx); err != nil {
				return err
			}
		}
		if err := timex.After(ctx, p.Hold); err != nil {
			return err
		}
		if err := p.setLED(true); err != nil {
			log.Error("led on failed", "err", err)
			return err
		}
		// A held line must not fire again.
		if err := hw.WaitForHigh(ctx, in); err != nil {
			return err
		}
	}
}

func (p *PressTask) wait(ctx context.Context, in hw.Input) error {
	if p.Trigger == TriggerFalling {
		return in.WaitForEdge(ctx, hw.EdgeFalling)
	}
	return hw.WaitForLow(ctx, in)
}

func (p *PressTask) setLED(on bool) error {
	if p.LED == nil {
		return nil
	}
	return hw.Set(p.LED, on)
}

func (p *PressTask) logger() *logging.Logger {
	if p.Log == nil {
		p.Log = logging.Discard()
	}
	return p.Log.With("task", p.Name)
}
