// Package display drives the monochrome OLED. The panel is used either as a
// text terminal or as a pixel canvas; switching consumes one mode value and
// returns the other, so stale handles cannot draw.
package display

import (
	"image/color"

	"tinygo.org/x/drivers"
)

// Panel is the display hardware. Init may fail transiently (bus not ready)
// and is retried by the task.
type Panel interface {
	drivers.Displayer
	Init() error
	ClearBuffer()
}

var (
	On  = color.RGBA{R: 0xff, G: 0xff, B: 0xff, A: 0xff}
	Off = color.RGBA{}
)
