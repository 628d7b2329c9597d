package display

import (
	"errors"
	"image/color"
	"sync"
)

var errInitFailed = errors.New("framebuffer: init failed")

// Framebuffer is an in-memory Panel for headless boards and tests.
type Framebuffer struct {
	mu        sync.Mutex
	w, h      int16
	pix       []bool
	shown     []bool
	frames    int
	inits     int
	failInits int
}

func NewFramebuffer(w, h int16) *Framebuffer {
	return &Framebuffer{w: w, h: h, pix: make([]bool, int(w)*int(h)), shown: make([]bool, int(w)*int(h))}
}

// FailInits makes the next n Init calls fail.
func (f *Framebuffer) FailInits(n int) {
	f.mu.Lock()
	f.failInits = n
	f.mu.Unlock()
}

func (f *Framebuffer) Init() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.inits++
	if f.failInits > 0 {
		f.failInits--
		return errInitFailed
	}
	return nil
}

func (f *Framebuffer) Size() (int16, int16) { return f.w, f.h }

func (f *Framebuffer) SetPixel(x, y int16, c color.RGBA) {
	if x < 0 || y < 0 || x >= f.w || y >= f.h {
		return
	}
	f.mu.Lock()
	f.pix[int(y)*int(f.w)+int(x)] = c.R|c.G|c.B != 0
	f.mu.Unlock()
}

func (f *Framebuffer) Display() error {
	f.mu.Lock()
	copy(f.shown, f.pix)
	f.frames++
	f.mu.Unlock()
	return nil
}

func (f *Framebuffer) ClearBuffer() {
	f.mu.Lock()
	clear(f.pix)
	f.mu.Unlock()
}

// Pixel reports a pixel of the last displayed frame.
func (f *Framebuffer) Pixel(x, y int16) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.shown[int(y)*int(f.w)+int(x)]
}

// Lit counts lit pixels of the last displayed frame.
func (f *Framebuffer) Lit() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, p := range f.shown {
		if p {
			n++
		}
	}
	return n
}

func (f *Framebuffer) Frames() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.frames
}

func (f *Framebuffer) Inits() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.inits
}

var _ Panel = (*Framebuffer)(nil)
