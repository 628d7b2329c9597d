//go:build rp2040

package main

import (
	"context"
	"time"

	"meowbox-go/hw/rp2"
	"meowbox-go/logging"
	"meowbox-go/services/config"
	"meowbox-go/services/display"
	"meowbox-go/services/meowbox"
)

var version = "dev"

func main() {
	// Allow the UART adapter to settle before the first line.
	time.Sleep(500 * time.Millisecond)
	ctx := context.Background()

	cfg, err := config.Load(config.BoardPico)
	if err != nil {
		println("[main] config:", err.Error())
		halt()
	}

	var log *logging.Logger
	if uart, err := rp2.LogUART(cfg.Logging.Baud); err == nil {
		log = logging.New(cfg.Logging, version, logging.NewRingWriter(ctx, uart, 1024))
	} else {
		println("[main] uart:", err.Error())
		log = logging.New(cfg.Logging, version, nil)
	}

	p, err := rp2.Open(cfg.Pins)
	if err != nil {
		// Run anyway: the state machine shows the fault on the red LED.
		log.Error("pin setup failed", "err", err)
	}

	var panel display.Panel
	if cfg.Display.Enabled {
		if oled, err := rp2.NewOLED(cfg.Display); err != nil {
			log.Error("display bus setup failed", "err", err)
		} else {
			panel = oled
		}
	}

	log.Info("boot", "board", cfg.Board)
	_ = meowbox.Run(ctx, cfg, meowbox.Board{Peripherals: p, Panel: panel}, log)
	halt()
}

func halt() {
	for {
		time.Sleep(time.Hour)
	}
}
