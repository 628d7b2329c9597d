// Package periphio adapts periph.io GPIO pins to the hw line interfaces for
// linux boards.
package periphio

import (
	"sync"
	"time"

	"periph.io/x/conn/v3/gpio"
	"periph.io/x/conn/v3/gpio/gpioreg"

	"meowbox-go/errcode"
	"meowbox-go/hw"
	"meowbox-go/services/config"
)

// watchSlice bounds each blocking WaitForEdge so ClearIRQ can stop the
// watcher.
const watchSlice = 50 * time.Millisecond

// Pin is a periph.io input pulled up, with edge callbacks emulated by a
// goroutine blocked in WaitForEdge. It satisfies hw.IRQPin.
type Pin struct {
	io gpio.PinIO

	mu   sync.Mutex
	stop chan struct{}
	done chan struct{}
}

func NewPin(p gpio.PinIO) *Pin { return &Pin{io: p} }

func (p *Pin) Get() bool { return p.io.Read() == gpio.High }

func (p *Pin) SetIRQ(edge hw.Edge, handler func()) error {
	if err := p.ClearIRQ(); err != nil {
		return err
	}
	if err := p.io.In(gpio.PullUp, toEdge(edge)); err != nil {
		return errcode.Wrap(errcode.Error, p.io.Name(), err)
	}
	stop, done := make(chan struct{}), make(chan struct{})
	p.mu.Lock()
	p.stop, p.done = stop, done
	p.mu.Unlock()

	go func() {
		defer close(done)
		for {
			select {
			case <-stop:
				return
			default:
			}
			if p.io.WaitForEdge(watchSlice) {
				handler()
			}
		}
	}()
	return nil
}

func (p *Pin) ClearIRQ() error {
	p.mu.Lock()
	stop, done := p.stop, p.done
	p.stop, p.done = nil, nil
	p.mu.Unlock()
	if stop == nil {
		return nil
	}
	close(stop)
	<-done
	return p.io.In(gpio.PullUp, gpio.NoEdge)
}

func toEdge(e hw.Edge) gpio.Edge {
	switch e {
	case hw.EdgeRising:
		return gpio.RisingEdge
	case hw.EdgeFalling:
		return gpio.FallingEdge
	case hw.EdgeBoth:
		return gpio.BothEdges
	default:
		return gpio.NoEdge
	}
}

var _ hw.IRQPin = (*Pin)(nil)

// Output drives a periph.io pin. The level is cached; the last driver error,
// if any, is kept for Err.
type Output struct {
	io gpio.PinIO

	mu    sync.Mutex
	level bool
	err   error
}

func NewOutput(p gpio.PinIO, initial bool) (*Output, error) {
	o := &Output{io: p}
	o.Set(initial)
	if err := o.Err(); err != nil {
		return nil, err
	}
	return o, nil
}

func (o *Output) Set(level bool) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.write(level)
}

func (o *Output) Get() bool {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.level
}

func (o *Output) Toggle() {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.write(!o.level)
}

func (o *Output) write(level bool) {
	if err := o.io.Out(gpio.Level(level)); err != nil {
		o.err = errcode.Wrap(errcode.Error, o.io.Name(), err)
		return
	}
	o.level = level
}

func (o *Output) Err() error {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.err
}

var _ hw.Output = (*Output)(nil)

// Lookup resolves a pin name. gpioreg.ByName is the production lookup.
type Lookup func(name string) gpio.PinIO

// Open resolves every pin in pins and configures it. Inputs are pulled up
// and debounced by settling for debounce after each edge.
func Open(pins config.PinsConfig, lookup Lookup) (hw.Peripherals, error) {
	if lookup == nil {
		lookup = gpioreg.ByName
	}
	var p hw.Peripherals
	debounce := pins.Debounce()

	in := func(role, name string) (hw.Input, error) {
		pin := lookup(name)
		if pin == nil {
			return nil, &errcode.E{C: errcode.InvalidConfig, Op: role, Msg: "no pin " + name}
		}
		irq, err := hw.NewIRQInput(NewPin(pin), debounce)
		if err != nil {
			return nil, err
		}
		return irq, nil
	}
	out := func(role, name string, initial bool) (hw.Output, error) {
		pin := lookup(name)
		if pin == nil {
			return nil, &errcode.E{C: errcode.InvalidConfig, Op: role, Msg: "no pin " + name}
		}
		o, err := NewOutput(pin, initial)
		if err != nil {
			return nil, err
		}
		return o, nil
	}

	var err error
	inputs := []struct {
		dst  *hw.Input
		role string
		name string
	}{
		{&p.LeftButton, "left_button", pins.LeftButton},
		{&p.RightButton, "right_button", pins.RightButton},
		{&p.LeftRotarySwitch, "left_rotary_switch", pins.LeftRotarySwitch},
		{&p.RightRotarySwitch, "right_rotary_switch", pins.RightRotarySwitch},
		{&p.LeftRotaryA, "left_rotary_a", pins.LeftRotaryA},
		{&p.LeftRotaryB, "left_rotary_b", pins.LeftRotaryB},
		{&p.RightRotaryA, "right_rotary_a", pins.RightRotaryA},
		{&p.RightRotaryB, "right_rotary_b", pins.RightRotaryB},
	}
	for _, x := range inputs {
		if *x.dst, err = in(x.role, x.name); err != nil {
			return hw.Peripherals{}, err
		}
	}

	// Button LEDs idle lit; everything else starts off.
	outputs := []struct {
		dst     *hw.Output
		role    string
		name    string
		initial bool
	}{
		{&p.LeftButtonLED, "left_button_led", pins.LeftButtonLED, true},
		{&p.RightButtonLED, "right_button_led", pins.RightButtonLED, true},
		{&p.Buzzer, "buzzer", pins.Buzzer, false},
		{&p.Red, "red_led", pins.Red, false},
		{&p.Green, "green_led", pins.Green, false},
		{&p.Blue, "blue_led", pins.Blue, false},
		{&p.Yellow, "yellow_led", pins.Yellow, false},
		{&p.White, "white_led", pins.White, false},
	}
	for _, x := range outputs {
		if *x.dst, err = out(x.role, x.name, x.initial); err != nil {
			return hw.Peripherals{}, err
		}
	}
	return p, nil
}
