// Package rp2 is the Raspberry Pi Pico board: GPIO lines, the I2C OLED and
// the UART log sink.
package rp2

import (
	"strconv"
	"strings"

	"meowbox-go/errcode"
)

// MaxPin is the highest user GPIO on the RP2040.
const MaxPin = 29

// ParsePin maps a "GPn" config name onto its GPIO number.
func ParsePin(name string) (int, error) {
	s := strings.TrimPrefix(strings.ToUpper(strings.TrimSpace(name)), "GP")
	n, err := strconv.Atoi(s)
	if err != nil || n < 0 || n > MaxPin || s == "" {
		return 0, &errcode.E{C: errcode.InvalidConfig, Op: "pin", Msg: "bad pin name " + strconv.Quote(name)}
	}
	return n, nil
}
