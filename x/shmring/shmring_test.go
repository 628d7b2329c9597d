package shmring

import (
	"bytes"
	"fmt"
	"testing"
)

func TestNew_RejectsOddSizes(t *testing.T) {
	for _, size := range []int{0, 3, 100} {
		func() {
			defer func() {
				if recover() == nil {
					t.Errorf("New(%d) did not panic", size)
				}
			}()
			New(size)
		}()
	}
}

// Log lines of varying length pushed in small bursts must come out intact
// across many wraps of a small ring.
func TestStreamSurvivesWrap(t *testing.T) {
	cases := []struct {
		ring, burst, chunk int
	}{
		{16, 5, 3},
		{64, 7, 17},
		{128, 128, 1},
	}
	for _, tc := range cases {
		t.Run(fmt.Sprintf("ring%d", tc.ring), func(t *testing.T) {
			r := New(tc.ring)
			var src bytes.Buffer
			for i := 0; i < 200; i++ {
				fmt.Fprintf(&src, "level=INFO msg=tick n=%d\n", i)
			}
			in := src.Bytes()
			var out bytes.Buffer
			buf := make([]byte, tc.chunk)
			for len(in) > 0 || r.Available() > 0 {
				if len(in) > 0 {
					step := min(tc.burst, len(in))
					in = in[r.TryWriteFrom(in[:step]):]
				}
				out.Write(buf[:r.TryReadInto(buf)])
			}
			if !bytes.Equal(out.Bytes(), src.Bytes()) {
				t.Fatalf("stream corrupted: got %d bytes, want %d", out.Len(), src.Len())
			}
		})
	}
}

func TestNotifications(t *testing.T) {
	r := New(8)
	ready := func(ch <-chan struct{}) bool {
		select {
		case <-ch:
			return true
		default:
			return false
		}
	}

	if ready(r.Readable()) {
		t.Fatal("empty ring is readable")
	}
	if n := r.TryWriteFrom([]byte("ab")); n != 2 {
		t.Fatalf("wrote %d", n)
	}
	if !ready(r.Readable()) {
		t.Fatal("no readable token after write")
	}
	r.TryWriteFrom([]byte("c"))
	r.TryWriteFrom([]byte("d"))
	if ready(r.Readable()) {
		t.Fatal("readable tokens not coalesced")
	}

	if n := r.TryWriteFrom([]byte("efghij")); n != 4 {
		t.Fatalf("overfill wrote %d, want 4", n)
	}
	if r.Space() != 0 || r.Available() != 8 {
		t.Fatalf("space=%d available=%d", r.Space(), r.Available())
	}
	got := make([]byte, 2)
	r.TryReadInto(got)
	if string(got) != "ab" {
		t.Fatalf("read %q", got)
	}
	if !ready(r.Writable()) {
		t.Fatal("no writable token after draining a full ring")
	}
}
