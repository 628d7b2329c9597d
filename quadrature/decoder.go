// Package quadrature decodes the two phase lines of a mechanical rotary
// encoder into rotation steps.
package quadrature

// Direction of one decoded step.
type Direction int8

const (
	None Direction = iota
	Clockwise
	CounterClockwise
)

func (d Direction) String() string {
	switch d {
	case Clockwise:
		return "clockwise"
	case CounterClockwise:
		return "counter_clockwise"
	default:
		return "none"
	}
}

// Phase is the 2-bit line combination A<<1 | B.
type Phase uint8

// PhaseOf packs the A and B samples.
func PhaseOf(a, b bool) Phase {
	var p Phase
	if a {
		p |= 0b10
	}
	if b {
		p |= 0b01
	}
	return p
}

// next[p] is the phase one clockwise step after p on the Gray cycle
// 00 -> 01 -> 11 -> 10 -> 00.
var next = [4]Phase{
	0b00: 0b01,
	0b01: 0b11,
	0b11: 0b10,
	0b10: 0b00,
}

// DecodeTransition classifies one sample-to-sample change. Repeats and
// two-line jumps (00<->11, 01<->10) are None: they are bounce or a missed
// sample, and guessing would miscount.
func DecodeTransition(prev, cur Phase) Direction {
	prev &= 0b11
	cur &= 0b11
	switch {
	case next[prev] == cur:
		return Clockwise
	case next[cur] == prev:
		return CounterClockwise
	default:
		return None
	}
}

// Decoder holds the last sampled phase. Sample it at a fixed cadence faster
// than the detents can move.
type Decoder struct {
	last Phase
	pos  int32
}

// New baselines a decoder on the current line levels. No direction is
// produced for the baseline.
func New(a, b bool) *Decoder {
	return &Decoder{last: PhaseOf(a, b)}
}

// Update decodes the step from the previous sample to (a, b). The new
// sample always becomes the baseline, so after a skipped phase the next
// clean step decodes correctly.
func (d *Decoder) Update(a, b bool) Direction {
	cur := PhaseOf(a, b)
	dir := DecodeTransition(d.last, cur)
	d.last = cur
	switch dir {
	case Clockwise:
		d.pos++
	case CounterClockwise:
		d.pos--
	}
	return dir
}

// Phase is the last sampled phase.
func (d *Decoder) Phase() Phase { return d.last }

// Position is the net number of decoded steps, clockwise positive.
func (d *Decoder) Position() int32 { return d.pos }
