package display

import (
	"image"

	"meowbox-go/errcode"

	"github.com/ajanata/textbuf"
	"tinygo.org/x/tinyfont"
)

// Mode is the panel in one of its two drawing modes.
type Mode interface {
	Name() string
	// Clear blanks the panel.
	Clear() error
	panel() (Panel, error)
	release()
}

func consumed(op string) error {
	return &errcode.E{C: errcode.InvalidParams, Op: op, Msg: "display mode already converted"}
}

// ---------------------------------------------------------------------------
// Terminal
// ---------------------------------------------------------------------------

// Terminal renders lines of 6x8 text.
type Terminal struct {
	p   Panel
	buf *textbuf.Buffer
}

func NewTerminal(p Panel) (*Terminal, error) {
	buf, err := textbuf.New(p, textbuf.FontSize6x8)
	if err != nil {
		return nil, errcode.Wrap(errcode.DisplayInit, "terminal", err)
	}
	return &Terminal{p: p, buf: buf}, nil
}

func (t *Terminal) Name() string { return "terminal" }

func (t *Terminal) panel() (Panel, error) {
	if t.p == nil {
		return nil, consumed("terminal")
	}
	return t.p, nil
}

func (t *Terminal) release() { t.p, t.buf = nil, nil }

// Rows is the number of text lines that fit.
func (t *Terminal) Rows() int {
	if t.buf == nil {
		return 0
	}
	_, h := t.buf.Size()
	return int(h)
}

func (t *Terminal) Clear() error {
	p, err := t.panel()
	if err != nil {
		return err
	}
	t.buf.Clear()
	p.ClearBuffer()
	return p.Display()
}

// Lines replaces the screen with title (inverted) followed by lines. The
// line at index selected is inverted; pass -1 for none. Lines that do not
// fit are dropped.
func (t *Terminal) Lines(title string, lines []string, selected int) error {
	p, err := t.panel()
	if err != nil {
		return err
	}
	t.buf.Clear()
	p.ClearBuffer()
	row := int16(0)
	if title != "" {
		_ = t.buf.SetLineInverse(row, title)
		row++
	}
	rows := int16(t.Rows())
	for i, l := range lines {
		if row >= rows {
			break
		}
		if i == selected {
			_ = t.buf.SetLineInverse(row, l)
		} else {
			_ = t.buf.SetLine(row, l)
		}
		row++
	}
	return p.Display()
}

// ---------------------------------------------------------------------------
// Graphics
// ---------------------------------------------------------------------------

// Graphics draws pixels into the panel buffer; Flush shows them.
type Graphics struct {
	p Panel
}

func NewGraphics(p Panel) *Graphics { return &Graphics{p: p} }

func (g *Graphics) Name() string { return "graphics" }

func (g *Graphics) panel() (Panel, error) {
	if g.p == nil {
		return nil, consumed("graphics")
	}
	return g.p, nil
}

func (g *Graphics) release() { g.p = nil }

func (g *Graphics) Clear() error {
	p, err := g.panel()
	if err != nil {
		return err
	}
	p.ClearBuffer()
	return p.Display()
}

// Reset blanks the buffer without showing it.
func (g *Graphics) Reset() error {
	p, err := g.panel()
	if err != nil {
		return err
	}
	p.ClearBuffer()
	return nil
}

// Image draws img with its top-left corner at (x, y); bright pixels are on.
func (g *Graphics) Image(img image.Image, x, y int16) error {
	p, err := g.panel()
	if err != nil {
		return err
	}
	b := img.Bounds()
	for iy := b.Min.Y; iy < b.Max.Y; iy++ {
		for ix := b.Min.X; ix < b.Max.X; ix++ {
			r, gg, bb, _ := img.At(ix, iy).RGBA()
			if (r+gg+bb)/3 > 0x7fff {
				p.SetPixel(x+int16(ix-b.Min.X), y+int16(iy-b.Min.Y), On)
			}
		}
	}
	return nil
}

// Text writes s with its baseline at y.
func (g *Graphics) Text(x, y int16, s string) error {
	p, err := g.panel()
	if err != nil {
		return err
	}
	tinyfont.WriteLine(p, &tinyfont.TomThumb, x, y, s, On)
	return nil
}

func (g *Graphics) Flush() error {
	p, err := g.panel()
	if err != nil {
		return err
	}
	return p.Display()
}

// ---------------------------------------------------------------------------
// Conversions
// ---------------------------------------------------------------------------

// ToTerminal consumes m and returns the panel in terminal mode. A Terminal
// is returned unchanged.
func ToTerminal(m Mode) (*Terminal, error) {
	if t, ok := m.(*Terminal); ok {
		if _, err := t.panel(); err != nil {
			return nil, err
		}
		return t, nil
	}
	p, err := m.panel()
	if err != nil {
		return nil, err
	}
	t, err := NewTerminal(p)
	if err != nil {
		return nil, err
	}
	m.release()
	return t, nil
}

// ToGraphics consumes m and returns the panel in graphics mode.
func ToGraphics(m Mode) (*Graphics, error) {
	if g, ok := m.(*Graphics); ok {
		if _, err := g.panel(); err != nil {
			return nil, err
		}
		return g, nil
	}
	p, err := m.panel()
	if err != nil {
		return nil, err
	}
	m.release()
	return NewGraphics(p), nil
}
