package tasks

import (
	"context"
	"time"

	"meowbox-go/bus"
	"meowbox-go/hw"
	"meowbox-go/logging"
	"meowbox-go/quadrature"
	"meowbox-go/services/config"
	"meowbox-go/signal"
	"meowbox-go/types"
	"meowbox-go/x/timex"
)

// Commands are the sinks input tasks publish to.
type Commands struct {
	Buzzer   *signal.Signal[types.BuzzerSequence]
	Rotation *signal.Signal[types.LEDRotationParams]
	Nav      *signal.Queue[types.NavCommand]
	// Events, when set, receives an InputEvent under input/<source>.
	Events *bus.Connection
}

// NewCommands allocates the signals and a navigation queue of navQueue.
func NewCommands(navQueue int, events *bus.Connection) Commands {
	return Commands{
		Buzzer:   signal.New[types.BuzzerSequence](),
		Rotation: signal.New[types.LEDRotationParams](),
		Nav:      signal.NewQueue[types.NavCommand](navQueue),
		Events:   events,
	}
}

func (c Commands) emit(source, detail string) {
	if c.Events == nil {
		return
	}
	ev := types.InputEvent{Source: source, Detail: detail, TSms: timex.NowMs()}
	c.Events.Publish(c.Events.NewMessage(bus.T("input", source), ev, false))
}

// Settings are the tunables the tasks need, resolved from config.
type Settings struct {
	LeftButtonTone  types.BuzzerSequence
	RightButtonTone types.BuzzerSequence
	RightSwitchTone types.BuzzerSequence
	Rotation        types.LEDRotationParams
	SwitchHold      time.Duration
	EncoderPeriod   time.Duration
	LeftReverse     bool
	RightReverse    bool
	StepsPerDetent  int
}

func SettingsFrom(cfg *config.Config) (Settings, error) {
	var s Settings
	var err error
	if s.LeftButtonTone, err = cfg.Buzzer.Sequence(cfg.Buzzer.LeftButton); err != nil {
		return s, err
	}
	if s.RightButtonTone, err = cfg.Buzzer.Sequence(cfg.Buzzer.RightButton); err != nil {
		return s, err
	}
	if s.RightSwitchTone, err = cfg.Buzzer.Sequence(cfg.Buzzer.RightSwitch); err != nil {
		return s, err
	}
	if s.Rotation, err = cfg.Rotation.Params(); err != nil {
		return s, err
	}
	s.SwitchHold = cfg.Timing.SwitchHold()
	s.EncoderPeriod = timex.PeriodFromHz(cfg.Timing.EncoderHz)
	s.LeftReverse = cfg.Rotation.LeftReverse
	s.RightReverse = cfg.Rotation.RightReverse
	s.StepsPerDetent = cfg.Rotation.StepsPerDetent
	return s, nil
}

// Set is every task of the device.
type Set struct {
	LeftButton, RightButton *PressTask
	LeftSwitch, RightSwitch *PressTask
	LeftRotation            *RotationWatcher
	RightRotation           *RotationWatcher
	Buzzer                  *BuzzerPlayer
	LEDs                    *LEDRotator
}

// New builds the task set. The encoder lines come from p and are owned by
// their watchers from here on.
func New(c *hw.Context, p hw.Peripherals, cmds Commands, s Settings, log *logging.Logger) *Set {
	if log == nil {
		log = logging.Discard()
	}
	button := func(name string, tone types.BuzzerSequence, nav types.NavCommand) func(context.Context) error {
		return func(ctx context.Context) error {
			cmds.Buzzer.Signal(tone)
			cmds.emit(name, nav.String())
			return cmds.Nav.Send(ctx, nav)
		}
	}
	return &Set{
		LeftButton: &PressTask{
			Name: "left_button", Input: c.LeftButton, LED: c.LeftButtonLED,
			Trigger: TriggerLow, Hold: s.LeftButtonTone.Duration(), Log: log,
			OnPress: button("left_button", s.LeftButtonTone, types.NavBack),
		},
		RightButton: &PressTask{
			Name: "right_button", Input: c.RightButton, LED: c.RightButtonLED,
			Trigger: TriggerLow, Hold: s.RightButtonTone.Duration(), Log: log,
			OnPress: button("right_button", s.RightButtonTone, types.NavSelect),
		},
		LeftSwitch: &PressTask{
			Name: "left_rotary_switch", Input: c.LeftRotarySwitch, LED: c.LeftButtonLED,
			Trigger: TriggerFalling, Hold: s.SwitchHold, Log: log,
			OnPress: func(context.Context) error {
				cmds.Rotation.Signal(s.Rotation)
				cmds.emit("left_rotary_switch", "led_rotation")
				return nil
			},
		},
		RightSwitch: &PressTask{
			Name: "right_rotary_switch", Input: c.RightRotarySwitch, LED: c.RightButtonLED,
			Trigger: TriggerFalling, Hold: s.SwitchHold, Log: log,
			OnPress: func(context.Context) error {
				cmds.Buzzer.Signal(s.RightSwitchTone)
				cmds.emit("right_rotary_switch", s.RightSwitchTone.Name)
				return nil
			},
		},
		LeftRotation: &RotationWatcher{
			Name: "left_rotation", A: p.LeftRotaryA, B: p.LeftRotaryB,
			CW: c.Yellow, CCW: c.Red, Period: s.EncoderPeriod, Reverse: s.LeftReverse,
			StepsPerDetent: s.StepsPerDetent, Log: log,
			// The sampler must keep its cadence, so a full queue holds the
			// detent in the watcher instead of blocking.
			OnDetent: func(d quadrature.Direction) bool {
				nav := types.NavNext
				if d == quadrature.CounterClockwise {
					nav = types.NavPrev
				}
				return cmds.Nav.TrySend(nav)
			},
		},
		RightRotation: &RotationWatcher{
			Name: "right_rotation", A: p.RightRotaryA, B: p.RightRotaryB,
			CW: c.Blue, CCW: c.Green, Period: s.EncoderPeriod, Reverse: s.RightReverse,
			StepsPerDetent: s.StepsPerDetent, Log: log,
		},
		Buzzer: &BuzzerPlayer{Buzzer: c.Buzzer, Cmds: cmds.Buzzer, Log: log},
		LEDs:   &LEDRotator{HW: c, Cmds: cmds.Rotation, Log: log},
	}
}

// Exit reports a task that returned.
type Exit struct {
	Task string
	Err  error
}

// Start launches every task on its own goroutine. Each task that returns
// is reported once on the returned channel.
func (s *Set) Start(ctx context.Context) <-chan Exit {
	runs := []struct {
		name string
		run  func(context.Context) error
	}{
		{"buzzer", s.Buzzer.Run},
		{"led_rotation", s.LEDs.Run},
		{s.LeftButton.Name, s.LeftButton.Run},
		{s.RightButton.Name, s.RightButton.Run},
		{s.LeftSwitch.Name, s.LeftSwitch.Run},
		{s.RightSwitch.Name, s.RightSwitch.Run},
		{s.LeftRotation.Name, s.LeftRotation.Run},
		{s.RightRotation.Name, s.RightRotation.Run},
	}
	exits := make(chan Exit, len(runs))
	for _, r := range runs {
		go func(name string, run func(context.Context) error) {
			exits <- Exit{Task: name, Err: run(ctx)}
		}(r.name, r.run)
	}
	return exits
}
