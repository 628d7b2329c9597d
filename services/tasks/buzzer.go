package tasks

import (
	"context"

	"meowbox-go/hw"
	"meowbox-go/logging"
	"meowbox-go/signal"
	"meowbox-go/types"
	"meowbox-go/x/timex"
)

// BuzzerPlayer is the only writer of the buzzer line. Producers signal a
// sequence; a newer sequence signalled while one is playing replaces any
// that has not started.
type BuzzerPlayer struct {
	Buzzer *hw.Slot[hw.Output]
	Cmds   *signal.Signal[types.BuzzerSequence]
	Log    *logging.Logger
}

func (p *BuzzerPlayer) Run(ctx context.Context) error {
	if p.Log == nil {
		p.Log = logging.Discard()
	}
	log := p.Log.With("task", "buzzer")
	for {
		seq, err := p.Cmds.Wait(ctx)
		if err != nil {
			return err
		}
		log.Debug("play", "sequence", seq.Name, "repeat", seq.Repeat)
		if err := p.Play(ctx, seq); err != nil {
			if ctx.Err() == nil {
				log.Error("buzzer failed", "err", err)
			}
			return err
		}
	}
}

// Play drives seq and leaves the buzzer low. Each pin write takes the lock
// on its own. A failure to silence the buzzer is reported unless an earlier
// error already is.
func (p *BuzzerPlayer) Play(ctx context.Context, seq types.BuzzerSequence) (err error) {
	defer func() {
		if offErr := hw.Set(p.Buzzer, false); offErr != nil {
			if p.Log != nil {
				p.Log.Error("buzzer left on", "task", "buzzer", "err", offErr)
			}
			if err == nil {
				err = offErr
			}
		}
	}()
	for i := 0; i < seq.Repeat; i++ {
		if err := hw.Set(p.Buzzer, true); err != nil {
			return err
		}
		if err := timex.After(ctx, seq.On); err != nil {
			return err
		}
		if err := hw.Set(p.Buzzer, false); err != nil {
			return err
		}
		if err := timex.After(ctx, seq.Off); err != nil {
			return err
		}
	}
	return nil
}
