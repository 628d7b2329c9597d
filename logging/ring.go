package logging

import (
	"context"
	"io"
	"sync"
	"sync/atomic"

	"meowbox-go/x/shmring"
)

// RingWriter decouples loggers from a slow sink such as a UART. Writes copy
// into a ring and return at once; a pump goroutine drains the ring into
// the sink. Bytes that do not fit are dropped and counted.
type RingWriter struct {
	ring *shmring.Ring
	dst  io.Writer

	mu      sync.Mutex // the ring has a single producer
	dropped atomic.Uint32
}

// NewRingWriter starts the pump; it stops when ctx is done. size must be a
// power of two.
func NewRingWriter(ctx context.Context, dst io.Writer, size int) *RingWriter {
	w := &RingWriter{ring: shmring.New(size), dst: dst}
	go w.pump(ctx)
	return w
}

func (w *RingWriter) Write(p []byte) (int, error) {
	w.mu.Lock()
	n := w.ring.TryWriteFrom(p)
	w.mu.Unlock()
	if n < len(p) {
		w.dropped.Add(uint32(len(p) - n))
	}
	return len(p), nil
}

// Dropped is the number of bytes lost to a full ring.
func (w *RingWriter) Dropped() int { return int(w.dropped.Load()) }

func (w *RingWriter) pump(ctx context.Context) {
	buf := make([]byte, 128)
	for {
		if n := w.ring.TryReadInto(buf); n > 0 {
			_, _ = w.dst.Write(buf[:n])
			continue
		}
		select {
		case <-ctx.Done():
			return
		case <-w.ring.Readable():
		}
	}
}
