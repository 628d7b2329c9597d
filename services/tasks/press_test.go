package tasks

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"meowbox-go/errcode"
	"meowbox-go/hw"
	"meowbox-go/hw/hwtest"
)

func startTask(t *testing.T, run func(context.Context) error) (context.CancelFunc, <-chan error) {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	stopped := make(chan struct{})
	go func() {
		done <- run(ctx)
		close(stopped)
	}()
	t.Cleanup(func() {
		cancel()
		select {
		case <-stopped:
		case <-time.After(time.Second):
			t.Error("task did not stop after cancel")
		}
	})
	return cancel, done
}

func TestPressTask_OnePressPerTrigger(t *testing.T) {
	board := hwtest.NewBoard()
	c := board.Context(t)

	var calls atomic.Int32
	var ledDuringPress atomic.Bool
	task := &PressTask{
		Name:    "right_button",
		Input:   c.RightButton,
		LED:     c.RightButtonLED,
		Trigger: TriggerLow,
		Hold:    5 * time.Millisecond,
		OnPress: func(context.Context) error {
			ledDuringPress.Store(board.RightButtonLED.Get())
			calls.Add(1)
			return nil
		},
	}
	startTask(t, task.Run)

	hwtest.AwaitWaiter(t, board.RightButton)
	board.RightButton.Press()

	hwtest.Eventually(t, time.Second, func() bool { return calls.Load() == 1 }, "first press")
	if ledDuringPress.Load() {
		t.Fatal("LED was on while the press was handled")
	}
	hwtest.Eventually(t, time.Second, board.RightButtonLED.Get, "LED restored")

	// Still held: no second trigger.
	time.Sleep(20 * time.Millisecond)
	if n := calls.Load(); n != 1 {
		t.Fatalf("held button retriggered: %d calls", n)
	}

	board.RightButton.Release()
	hwtest.AwaitWaiter(t, board.RightButton)
	board.RightButton.Press()
	hwtest.Eventually(t, time.Second, func() bool { return calls.Load() == 2 }, "second press")
	if task.Presses() != 2 {
		t.Fatalf("Presses = %d", task.Presses())
	}
}

func TestPressTask_FallingEdgeIgnoresHeldLine(t *testing.T) {
	board := hwtest.NewBoard()
	board.LeftRotarySwitch.Set(false) // held down before the task starts
	c := board.Context(t)

	var calls atomic.Int32
	task := &PressTask{
		Name:    "left_rotary_switch",
		Input:   c.LeftRotarySwitch,
		LED:     c.LeftButtonLED,
		Trigger: TriggerFalling,
		OnPress: func(context.Context) error { calls.Add(1); return nil },
	}
	startTask(t, task.Run)

	hwtest.AwaitWaiter(t, board.LeftRotarySwitch)
	if calls.Load() != 0 {
		t.Fatal("level-low line fired a falling-edge task")
	}
	board.LeftRotarySwitch.Set(true)
	hwtest.AwaitWaiter(t, board.LeftRotarySwitch)
	board.LeftRotarySwitch.Set(false)
	hwtest.Eventually(t, time.Second, func() bool { return calls.Load() == 1 }, "falling edge press")
}

func TestPressTask_HoldBracketsLED(t *testing.T) {
	board := hwtest.NewBoard()
	c := board.Context(t)
	task := &PressTask{
		Name:    "left_button",
		Input:   c.LeftButton,
		LED:     c.LeftButtonLED,
		Trigger: TriggerLow,
		Hold:    30 * time.Millisecond,
	}
	startTask(t, task.Run)

	hwtest.AwaitWaiter(t, board.LeftButton)
	start := time.Now()
	board.LeftButton.Press()
	hwtest.Eventually(t, time.Second, func() bool { return len(board.LeftButtonLED.History()) == 2 }, "LED off then on")
	if elapsed := time.Since(start); elapsed < 30*time.Millisecond {
		t.Fatalf("LED restored after %v, before the hold elapsed", elapsed)
	}
	h := board.LeftButtonLED.History()
	if h[0] || !h[1] {
		t.Fatalf("LED history = %v, want [false true]", h)
	}
}

func TestPressTask_UninitializedInput(t *testing.T) {
	c := hw.NewContext()
	task := &PressTask{Name: "left_button", Input: c.LeftButton, LED: c.LeftButtonLED}
	err := task.Run(context.Background())
	if !errors.Is(err, errcode.Uninitialized) {
		t.Fatalf("err = %v, want uninitialized", err)
	}
}

func TestPressTask_OnPressErrorEndsTask(t *testing.T) {
	board := hwtest.NewBoard()
	c := board.Context(t)
	boom := errors.New("boom")
	task := &PressTask{
		Name:    "right_button",
		Input:   c.RightButton,
		OnPress: func(context.Context) error { return boom },
	}
	_, done := startTask(t, task.Run)
	hwtest.AwaitWaiter(t, board.RightButton)
	board.RightButton.Press()
	select {
	case err := <-done:
		if !errors.Is(err, boom) {
			t.Fatalf("err = %v", err)
		}
	case <-time.After(time.Second):
		t.Fatal("task kept running after OnPress failed")
	}
}
