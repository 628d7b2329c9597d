package periphio

import (
	"context"
	"errors"
	"testing"
	"time"

	"periph.io/x/conn/v3/gpio"
	"periph.io/x/conn/v3/gpio/gpiotest"

	"meowbox-go/errcode"
	"meowbox-go/hw"
	"meowbox-go/services/config"
)

func fakePins(t *testing.T, pins config.PinsConfig) (map[string]*gpiotest.Pin, Lookup) {
	t.Helper()
	names := []string{
		pins.LeftButton, pins.RightButton, pins.LeftButtonLED, pins.RightButtonLED,
		pins.Buzzer, pins.LeftRotarySwitch, pins.RightRotarySwitch,
		pins.Red, pins.Green, pins.Blue, pins.Yellow, pins.White,
		pins.LeftRotaryA, pins.LeftRotaryB, pins.RightRotaryA, pins.RightRotaryB,
	}
	m := make(map[string]*gpiotest.Pin, len(names))
	for i, n := range names {
		m[n] = &gpiotest.Pin{N: n, Num: i, EdgesChan: make(chan gpio.Level, 4)}
	}
	return m, func(name string) gpio.PinIO {
		if p, ok := m[name]; ok {
			return p
		}
		return nil
	}
}

func linuxPins(t *testing.T) config.PinsConfig {
	t.Helper()
	cfg, err := config.Load(config.BoardLinux)
	if err != nil {
		t.Fatal(err)
	}
	return cfg.Pins
}

func closeInputs(p hw.Peripherals) {
	for _, in := range []hw.Input{
		p.LeftButton, p.RightButton, p.LeftRotarySwitch, p.RightRotarySwitch,
		p.LeftRotaryA, p.LeftRotaryB, p.RightRotaryA, p.RightRotaryB,
	} {
		if irq, ok := in.(*hw.IRQInput); ok {
			_ = irq.Close()
		}
	}
}

func TestOpen_ConfiguresEveryLine(t *testing.T) {
	pins := linuxPins(t)
	fakes, lookup := fakePins(t, pins)

	p, err := Open(pins, lookup)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer closeInputs(p)

	if fakes[pins.LeftButton].P != gpio.PullUp {
		t.Fatalf("button pull = %v", fakes[pins.LeftButton].P)
	}
	if !p.LeftButton.Get() {
		t.Fatal("pulled-up button reads low")
	}
	if fakes[pins.LeftButtonLED].L != gpio.High || fakes[pins.Red].L != gpio.Low {
		t.Fatal("initial output levels wrong")
	}

	c := hw.NewContext()
	if err := c.Install(p); err != nil {
		t.Fatalf("Install: %v", err)
	}
}

func TestOpen_MissingPin(t *testing.T) {
	pins := linuxPins(t)
	_, lookup := fakePins(t, pins)
	pins.Buzzer = "GPIO99"

	_, err := Open(pins, lookup)
	if !errors.Is(err, errcode.InvalidConfig) {
		t.Fatalf("Open = %v, want invalid_config", err)
	}
}

func TestInput_FallingEdge(t *testing.T) {
	fake := &gpiotest.Pin{N: "GPIO4", Num: 4, EdgesChan: make(chan gpio.Level, 4)}
	in, err := hw.NewIRQInput(NewPin(fake), 0)
	if err != nil {
		t.Fatal(err)
	}
	defer in.Close()

	done := make(chan error, 1)
	go func() { done <- hw.WaitForLow(context.Background(), in) }()
	time.Sleep(10 * time.Millisecond)
	fake.EdgesChan <- gpio.Low

	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("WaitForLow: %v", err)
		}
	case <-time.After(time.Second):
		t.Fatal("falling edge not seen")
	}
	if !hw.IsLow(in) {
		t.Fatal("line not low after edge")
	}
}

func TestInput_WaitCancels(t *testing.T) {
	fake := &gpiotest.Pin{N: "GPIO5", Num: 5, EdgesChan: make(chan gpio.Level, 4)}
	in, err := hw.NewIRQInput(NewPin(fake), 0)
	if err != nil {
		t.Fatal(err)
	}
	defer in.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	if err := in.WaitForEdge(ctx, hw.EdgeFalling); !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("WaitForEdge = %v", err)
	}
}

func TestOutput(t *testing.T) {
	fake := &gpiotest.Pin{N: "GPIO6", Num: 6}
	o, err := NewOutput(fake, false)
	if err != nil {
		t.Fatal(err)
	}
	o.Set(true)
	if fake.L != gpio.High || !o.Get() {
		t.Fatal("Set(true) not driven")
	}
	o.Toggle()
	if fake.L != gpio.Low || o.Get() {
		t.Fatal("Toggle not driven")
	}
	if o.Err() != nil {
		t.Fatalf("Err = %v", o.Err())
	}
}
