package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"

	"periph.io/x/host/v3"

	"meowbox-go/hw/periphio"
	"meowbox-go/logging"
	"meowbox-go/services/config"
	"meowbox-go/services/display"
	"meowbox-go/services/meowbox"
)

var version = "dev"

func main() {
	board := flag.String("board", config.BoardLinux, "embedded config to load (linux or host)")
	flag.Parse()

	cfg, err := config.Load(*board)
	if err != nil {
		println("config:", err.Error())
		os.Exit(2)
	}
	log := logging.New(cfg.Logging, version, nil)

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if _, err := host.Init(); err != nil {
		log.Error("periph host init failed", "err", err)
		os.Exit(1)
	}
	p, err := periphio.Open(cfg.Pins, nil)
	if err != nil {
		log.Error("pin setup failed", "err", err)
	}

	var panel display.Panel
	if cfg.Display.Enabled {
		panel = display.NewFramebuffer(cfg.Display.Width, cfg.Display.Height)
	}

	log.Info("boot", "board", cfg.Board)
	if err := meowbox.Run(ctx, cfg, meowbox.Board{Peripherals: p, Panel: panel}, log); err != nil && ctx.Err() == nil {
		log.Error("stopped", "err", err)
		os.Exit(1)
	}
}
