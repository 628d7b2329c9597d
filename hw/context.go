package hw

import (
	"meowbox-go/errcode"
	"meowbox-go/types"
)

// Peripherals are the raw handles produced by board bring-up.
// The encoder phase lines are not shared: each is moved into its single
// rotation watcher.
type Peripherals struct {
	LeftButton, RightButton       Input
	LeftButtonLED, RightButtonLED Output
	Buzzer                        Output

	LeftRotarySwitch, RightRotarySwitch Input

	Red, Green, Blue, Yellow, White Output

	LeftRotaryA, LeftRotaryB   Input
	RightRotaryA, RightRotaryB Input
}

// Context is the process-wide hardware registry: one independently
// lockable slot per shared line. Built once at startup and handed to every
// task.
type Context struct {
	LeftButton  *Slot[Input]
	RightButton *Slot[Input]

	LeftButtonLED  *Slot[Output]
	RightButtonLED *Slot[Output]
	Buzzer         *Slot[Output]

	LeftRotarySwitch  *Slot[Input]
	RightRotarySwitch *Slot[Input]

	Red    *Slot[Output]
	Green  *Slot[Output]
	Blue   *Slot[Output]
	Yellow *Slot[Output]
	White  *Slot[Output]
}

// NewContext returns a registry with every slot empty.
func NewContext() *Context {
	return &Context{
		LeftButton:        NewSlot[Input]("left_button"),
		RightButton:       NewSlot[Input]("right_button"),
		LeftButtonLED:     NewSlot[Output]("left_button_led"),
		RightButtonLED:    NewSlot[Output]("right_button_led"),
		Buzzer:            NewSlot[Output]("buzzer"),
		LeftRotarySwitch:  NewSlot[Input]("left_rotary_switch"),
		RightRotarySwitch: NewSlot[Input]("right_rotary_switch"),
		Red:               NewSlot[Output]("red_led"),
		Green:             NewSlot[Output]("green_led"),
		Blue:              NewSlot[Output]("blue_led"),
		Yellow:            NewSlot[Output]("yellow_led"),
		White:             NewSlot[Output]("white_led"),
	}
}

// Install fills every shared slot from p. Nothing is installed unless every
// shared handle is present.
func (c *Context) Install(p Peripherals) error {
	ins := []struct {
		s *Slot[Input]
		v Input
	}{
		{c.LeftButton, p.LeftButton},
		{c.RightButton, p.RightButton},
		{c.LeftRotarySwitch, p.LeftRotarySwitch},
		{c.RightRotarySwitch, p.RightRotarySwitch},
	}
	outs := []struct {
		s *Slot[Output]
		v Output
	}{
		{c.LeftButtonLED, p.LeftButtonLED},
		{c.RightButtonLED, p.RightButtonLED},
		{c.Buzzer, p.Buzzer},
		{c.Red, p.Red},
		{c.Green, p.Green},
		{c.Blue, p.Blue},
		{c.Yellow, p.Yellow},
		{c.White, p.White},
	}
	for _, in := range ins {
		if in.v == nil {
			return &errcode.E{C: errcode.InvalidParams, Op: in.s.Name(), Msg: "missing handle"}
		}
	}
	for _, out := range outs {
		if out.v == nil {
			return &errcode.E{C: errcode.InvalidParams, Op: out.s.Name(), Msg: "missing handle"}
		}
	}
	for _, in := range ins {
		in.s.Install(in.v)
	}
	for _, out := range outs {
		out.s.Install(out.v)
	}
	return nil
}

// Ring returns the status LED slots in ring order.
func (c *Context) Ring() []*Slot[Output] {
	return []*Slot[Output]{c.Red, c.Green, c.Blue, c.Yellow, c.White}
}

// LED resolves a ring LED to its slot.
func (c *Context) LED(l types.LED) *Slot[Output] {
	switch l {
	case types.LEDRed:
		return c.Red
	case types.LEDGreen:
		return c.Green
	case types.LEDBlue:
		return c.Blue
	case types.LEDYellow:
		return c.Yellow
	case types.LEDWhite:
		return c.White
	}
	return nil
}

// AllLEDsOff switches the whole ring off, locking one LED at a time.
func (c *Context) AllLEDsOff() error {
	for _, s := range c.Ring() {
		if err := Set(s, false); err != nil {
			return err
		}
	}
	return nil
}

// Only switches the ring off and then lights l.
func (c *Context) Only(l types.LED) error {
	if err := c.AllLEDsOff(); err != nil {
		return err
	}
	s := c.LED(l)
	if s == nil {
		return &errcode.E{C: errcode.InvalidParams, Op: "only", Msg: "unknown led " + l.String()}
	}
	return Set(s, true)
}
