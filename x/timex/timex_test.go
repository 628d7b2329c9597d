package timex

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestPeriodFromHz(t *testing.T) {
	if got := PeriodFromHz(1000); got != time.Millisecond {
		t.Fatalf("1 kHz = %v", got)
	}
	if got := PeriodFromHz(0); got != time.Second {
		t.Fatalf("0 Hz coerced = %v", got)
	}
}

func TestAfterElapses(t *testing.T) {
	start := time.Now()
	if err := After(context.Background(), 5*time.Millisecond); err != nil {
		t.Fatalf("After: %v", err)
	}
	if time.Since(start) < 5*time.Millisecond {
		t.Fatal("returned early")
	}
}

func TestAfterCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := After(ctx, time.Hour); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected Canceled, got %v", err)
	}
	if err := After(ctx, 0); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected Canceled for zero delay, got %v", err)
	}
}
