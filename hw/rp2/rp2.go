//go:build rp2040

package rp2

import (
	"io"
	"machine"

	uartx "github.com/jangala-dev/tinygo-uartx/uartx"
	"tinygo.org/x/drivers/ssd1306"

	"meowbox-go/errcode"
	"meowbox-go/hw"
	"meowbox-go/services/config"
)

// ---- GPIO ----

// Pin is a machine pin configured as a pulled-up input with interrupts.
type Pin struct{ p machine.Pin }

func (r Pin) Get() bool { return r.p.Get() }

func (r Pin) SetIRQ(edge hw.Edge, handler func()) error {
	var change machine.PinChange
	switch edge {
	case hw.EdgeRising:
		change = machine.PinRising
	case hw.EdgeFalling:
		change = machine.PinFalling
	case hw.EdgeBoth:
		change = machine.PinToggle
	default:
		return r.ClearIRQ()
	}
	return r.p.SetInterrupt(change, func(machine.Pin) { handler() })
}

func (r Pin) ClearIRQ() error { return r.p.SetInterrupt(0, nil) }

// Output is a machine pin driven push-pull.
type Output struct{ p machine.Pin }

func (o Output) Set(level bool) { o.p.Set(level) }
func (o Output) Get() bool      { return o.p.Get() }
func (o Output) Toggle()        { o.p.Set(!o.p.Get()) }

// Open configures every line named in pins. Inputs are debounced by the
// IRQ settle delay.
func Open(pins config.PinsConfig) (hw.Peripherals, error) {
	var p hw.Peripherals
	debounce := pins.Debounce()

	in := func(name string) (hw.Input, error) {
		n, err := ParsePin(name)
		if err != nil {
			return nil, err
		}
		mp := machine.Pin(n)
		mp.Configure(machine.PinConfig{Mode: machine.PinInputPullup})
		irq, err := hw.NewIRQInput(Pin{mp}, debounce)
		if err != nil {
			return nil, errcode.Wrap(errcode.Error, name, err)
		}
		return irq, nil
	}
	out := func(name string, initial bool) (hw.Output, error) {
		n, err := ParsePin(name)
		if err != nil {
			return nil, err
		}
		mp := machine.Pin(n)
		mp.Configure(machine.PinConfig{Mode: machine.PinOutput})
		mp.Set(initial)
		return Output{mp}, nil
	}

	var err error
	for _, x := range []struct {
		dst  *hw.Input
		name string
	}{
		{&p.LeftButton, pins.LeftButton},
		{&p.RightButton, pins.RightButton},
		{&p.LeftRotarySwitch, pins.LeftRotarySwitch},
		{&p.RightRotarySwitch, pins.RightRotarySwitch},
		{&p.LeftRotaryA, pins.LeftRotaryA},
		{&p.LeftRotaryB, pins.LeftRotaryB},
		{&p.RightRotaryA, pins.RightRotaryA},
		{&p.RightRotaryB, pins.RightRotaryB},
	} {
		if *x.dst, err = in(x.name); err != nil {
			return hw.Peripherals{}, err
		}
	}
	for _, x := range []struct {
		dst     *hw.Output
		name    string
		initial bool
	}{
		{&p.LeftButtonLED, pins.LeftButtonLED, true},
		{&p.RightButtonLED, pins.RightButtonLED, true},
		{&p.Buzzer, pins.Buzzer, false},
		{&p.Red, pins.Red, false},
		{&p.Green, pins.Green, false},
		{&p.Blue, pins.Blue, false},
		{&p.Yellow, pins.Yellow, false},
		{&p.White, pins.White, false},
	} {
		if *x.dst, err = out(x.name, x.initial); err != nil {
			return hw.Peripherals{}, err
		}
	}
	return p, nil
}

// ---- Display ----

// OLED is an SSD1306 on I2C0. Init configures the controller and probes it;
// a missing or unpowered panel reports errcode.DisplayInit.
type OLED struct {
	*ssd1306.Device
	bus  *machine.I2C
	addr uint16
	cfg  ssd1306.Config
}

func NewOLED(c config.DisplayConfig) (*OLED, error) {
	sda, err := ParsePin(c.SDA)
	if err != nil {
		return nil, err
	}
	scl, err := ParsePin(c.SCL)
	if err != nil {
		return nil, err
	}
	bus := machine.I2C0
	if err := bus.Configure(machine.I2CConfig{
		SDA:       machine.Pin(sda),
		SCL:       machine.Pin(scl),
		Frequency: c.KHz * machine.KHz,
	}); err != nil {
		return nil, errcode.Wrap(errcode.DisplayInit, "i2c0", err)
	}
	dev := ssd1306.NewI2C(bus)
	return &OLED{
		Device: &dev,
		bus:    bus,
		addr:   c.Address,
		cfg: ssd1306.Config{
			Width:    c.Width,
			Height:   c.Height,
			Address:  c.Address,
			VccState: ssd1306.SWITCHCAPVCC,
		},
	}, nil
}

func (o *OLED) Init() error {
	// Display-off command; a NACK means nothing is listening.
	if err := o.bus.Tx(o.addr, []byte{0x00, 0xAE}, nil); err != nil {
		return errcode.Wrap(errcode.DisplayInit, "ssd1306", err)
	}
	o.Device.Configure(o.cfg)
	o.Device.ClearDisplay()
	return nil
}

// ---- Logging ----

// UART0 on GP0/GP1 carries the log.
func LogUART(baud uint32) (io.Writer, error) {
	u := uartx.UART0
	if err := u.Configure(uartx.UARTConfig{
		BaudRate: baud,
		TX:       machine.GP0,
		RX:       machine.GP1,
	}); err != nil {
		return nil, errcode.Wrap(errcode.Error, "uart0", err)
	}
	return u, nil
}
