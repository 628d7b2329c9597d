package types

import "time"

// ---- LEDs ----

// LED names one of the five status LEDs around the ring.
type LED uint8

const (
	LEDRed LED = iota
	LEDGreen
	LEDBlue
	LEDYellow
	LEDWhite
)

// RingOrder is the physical order of the status LEDs.
var RingOrder = []LED{LEDRed, LEDGreen, LEDBlue, LEDYellow, LEDWhite}

func (l LED) String() string {
	switch l {
	case LEDRed:
		return "red"
	case LEDGreen:
		return "green"
	case LEDBlue:
		return "blue"
	case LEDYellow:
		return "yellow"
	case LEDWhite:
		return "white"
	default:
		return "INVALID"
	}
}

// ParseLED maps a config name onto an LED.
func ParseLED(s string) (LED, bool) {
	for _, l := range RingOrder {
		if l.String() == s {
			return l, true
		}
	}
	return 0, false
}

// ---- Buzzer ----

// BuzzerSequence is a square-wave pattern: Repeat cycles of On high then Off low.
// Immutable once signalled.
type BuzzerSequence struct {
	Name   string
	On     time.Duration
	Off    time.Duration
	Repeat int
}

// Duration is the total play time of the sequence.
func (s BuzzerSequence) Duration() time.Duration {
	return time.Duration(s.Repeat) * (s.On + s.Off)
}

// ---- LED rotation ----

// LEDRotationParams lights each LED in Order for On, going round Repeat times.
type LEDRotationParams struct {
	Order  []LED
	On     time.Duration
	Repeat int
}

// DefaultLEDRotation is one lap of the ring at 100 ms per LED.
func DefaultLEDRotation() LEDRotationParams {
	return LEDRotationParams{
		Order:  append([]LED(nil), RingOrder...),
		On:     100 * time.Millisecond,
		Repeat: 1,
	}
}

// ---- Navigation ----

// NavCommand is a user intent routed from the input tasks to the state machine.
type NavCommand uint8

const (
	NavNone NavCommand = iota
	NavNext
	NavPrev
	NavSelect
	NavBack
)

func (n NavCommand) String() string {
	switch n {
	case NavNone:
		return "none"
	case NavNext:
		return "next"
	case NavPrev:
		return "prev"
	case NavSelect:
		return "select"
	case NavBack:
		return "back"
	default:
		return "INVALID"
	}
}

// ---- Input telemetry (bus payload) ----

// InputEvent is published on the bus each time an input task fires.
type InputEvent struct {
	Source string
	Detail string
	TSms   int64
}
