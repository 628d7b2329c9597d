package tasks

import (
	"context"
	"sync/atomic"
	"time"

	"meowbox-go/hw"
	"meowbox-go/logging"
	"meowbox-go/quadrature"
	"meowbox-go/x/timex"
)

// RotationWatcher polls one encoder's phase lines at a fixed period and
// shows the last direction on a pair of indicator LEDs.
type RotationWatcher struct {
	Name    string
	A, B    hw.Input
	CW, CCW *hw.Slot[hw.Output]
	Period  time.Duration
	// Reverse swaps the phase lines for encoders wired the other way round.
	Reverse bool
	// StepsPerDetent is the number of decoded steps between two rest
	// positions. Zero means 4, one full Gray cycle.
	StepsPerDetent int
	// OnDetent, when set, receives one direction per detent turned. It must
	// not block; returning false leaves the detent pending, and it is offered
	// again on the next sample.
	OnDetent func(d quadrature.Direction) bool
	Log      *logging.Logger

	dec     *quadrature.Decoder
	steps   atomic.Int32
	detents atomic.Int32
	frac    int // steps into the current detent, clockwise positive
	pending int // detents not yet accepted by OnDetent, clockwise positive
	held    atomic.Int32
}

// Position is the net number of steps seen, clockwise positive.
func (w *RotationWatcher) Position() int32 { return w.steps.Load() }

// Detents is the net number of detents seen, clockwise positive.
func (w *RotationWatcher) Detents() int32 { return w.detents.Load() }

// Pending is the number of detents waiting for OnDetent to accept them.
func (w *RotationWatcher) Pending() int { return int(w.held.Load()) }

// Run samples until ctx is cancelled.
func (w *RotationWatcher) Run(ctx context.Context) error {
	if w.Log == nil {
		w.Log = logging.Discard()
	}
	log := w.Log.With("task", w.Name)
	w.baseline()
	log.Debug("sampling", "period", w.Period.String())
	for {
		if err := w.step(); err != nil {
			if ctx.Err() == nil {
				log.Error("rotation watcher stopped", "err", err)
			}
			return err
		}
		if err := timex.After(ctx, w.Period); err != nil {
			return err
		}
	}
}

// The board routes B to the decoder's first line, which makes clockwise
// positive; Reverse swaps the lines for encoders mounted the other way.
func (w *RotationWatcher) sample() (bool, bool) {
	a, b := hw.IsLow(w.A), hw.IsLow(w.B)
	if w.Reverse {
		return a, b
	}
	return b, a
}

func (w *RotationWatcher) baseline() {
	w.dec = quadrature.New(w.sample())
}

// step takes one sample and applies its result.
func (w *RotationWatcher) step() error {
	if w.dec == nil {
		w.baseline()
	}
	a, b := w.sample()
	dir := w.dec.Update(a, b)
	switch dir {
	case quadrature.Clockwise:
		w.steps.Add(1)
		w.frac++
		if err := w.indicate(w.CW, w.CCW); err != nil {
			return err
		}
	case quadrature.CounterClockwise:
		w.steps.Add(-1)
		w.frac--
		if err := w.indicate(w.CCW, w.CW); err != nil {
			return err
		}
	}
	w.countDetent(!a && !b)
	w.offer()
	return nil
}

// countDetent folds accumulated steps into whole detents. At the rest
// position more than half a detent counts as one, which realigns the count
// after a skipped phase; elsewhere only a full detent counts.
func (w *RotationWatcher) countDetent(rest bool) {
	n := w.StepsPerDetent
	if n <= 0 {
		n = 4
	}
	var d int
	switch {
	case rest && w.frac > n/2, !rest && w.frac >= n:
		d = 1
	case rest && w.frac < -n/2, !rest && w.frac <= -n:
		d = -1
	}
	if rest {
		w.frac = 0
	} else {
		w.frac -= d * n
	}
	if d != 0 {
		w.detents.Add(int32(d))
		w.pending += d
	}
}

// offer hands pending detents to OnDetent until it refuses one. Opposite
// detents that were never accepted cancel out.
func (w *RotationWatcher) offer() {
	defer func() {
		p := w.pending
		if p < 0 {
			p = -p
		}
		w.held.Store(int32(p))
	}()
	if w.OnDetent == nil {
		w.pending = 0
		return
	}
	for w.pending != 0 {
		dir, d := quadrature.Clockwise, 1
		if w.pending < 0 {
			dir, d = quadrature.CounterClockwise, -1
		}
		if !w.OnDetent(dir) {
			return
		}
		w.pending -= d
	}
}

func (w *RotationWatcher) indicate(on, off *hw.Slot[hw.Output]) error {
	if err := hw.Set(on, true); err != nil {
		return err
	}
	return hw.Set(off, false)
}
