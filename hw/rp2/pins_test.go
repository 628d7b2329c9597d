package rp2

import (
	"errors"
	"testing"

	"meowbox-go/errcode"
	"meowbox-go/services/config"
)

func TestParsePin(t *testing.T) {
	good := map[string]int{"GP0": 0, "GP15": 15, "gp29": 29, " GP4 ": 4}
	for in, want := range good {
		got, err := ParsePin(in)
		if err != nil || got != want {
			t.Fatalf("ParsePin(%q) = %d, %v", in, got, err)
		}
	}
	for _, in := range []string{"", "GP", "GP30", "GP-1", "GPIO4", "D4"} {
		if _, err := ParsePin(in); !errors.Is(err, errcode.InvalidConfig) {
			t.Fatalf("ParsePin(%q) = %v, want invalid_config", in, err)
		}
	}
}

func TestPicoConfigPinsParse(t *testing.T) {
	cfg, err := config.Load(config.BoardPico)
	if err != nil {
		t.Fatal(err)
	}
	p := cfg.Pins
	seen := map[int]string{}
	for _, name := range []string{
		p.LeftButton, p.RightButton, p.LeftButtonLED, p.RightButtonLED, p.Buzzer,
		p.LeftRotarySwitch, p.RightRotarySwitch, p.Red, p.Green, p.Blue, p.Yellow, p.White,
		p.LeftRotaryA, p.LeftRotaryB, p.RightRotaryA, p.RightRotaryB,
		cfg.Display.SDA, cfg.Display.SCL,
	} {
		n, err := ParsePin(name)
		if err != nil {
			t.Fatal(err)
		}
		if other, dup := seen[n]; dup {
			t.Fatalf("%s and %s share GP%d", name, other, n)
		}
		seen[n] = name
	}
}
