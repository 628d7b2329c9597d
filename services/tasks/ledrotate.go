package tasks

import (
	"context"

	"meowbox-go/errcode"
	"meowbox-go/hw"
	"meowbox-go/logging"
	"meowbox-go/signal"
	"meowbox-go/types"
	"meowbox-go/x/timex"
)

// LEDRotator plays LED rotation patterns on the status ring.
type LEDRotator struct {
	HW   *hw.Context
	Cmds *signal.Signal[types.LEDRotationParams]
	Log  *logging.Logger
}

func (r *LEDRotator) Run(ctx context.Context) error {
	if r.Log == nil {
		r.Log = logging.Discard()
	}
	log := r.Log.With("task", "led_rotation")
	for {
		params, err := r.Cmds.Wait(ctx)
		if err != nil {
			return err
		}
		log.Debug("rotate", "leds", len(params.Order), "repeat", params.Repeat)
		if err := r.Play(ctx, params); err != nil {
			if ctx.Err() == nil {
				log.Error("rotation failed", "err", err)
			}
			return err
		}
	}
}

// Play lights each LED of params.Order for params.On, Repeat times round.
func (r *LEDRotator) Play(ctx context.Context, params types.LEDRotationParams) error {
	for i := 0; i < params.Repeat; i++ {
		for _, l := range params.Order {
			slot := r.HW.LED(l)
			if slot == nil {
				return &errcode.E{C: errcode.InvalidParams, Op: "led_rotation", Msg: "unknown led " + l.String()}
			}
			if err := hw.Set(slot, true); err != nil {
				return err
			}
			err := timex.After(ctx, params.On)
			if offErr := hw.Set(slot, false); offErr != nil {
				return offErr
			}
			if err != nil {
				return err
			}
		}
	}
	return nil
}
