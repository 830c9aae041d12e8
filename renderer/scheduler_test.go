package renderer

import (
	"context"
	"errors"
	"testing"

	"github.com/richinsley/songshader/graphics/graphicstest"
)

func TestSchedulerDefersNestedRequests(t *testing.T) {
	s := NewScheduler()
	var order []string
	s.RequestFrame(func() {
		order = append(order, "a")
		s.RequestFrame(func() { order = append(order, "c") })
	})
	s.RequestFrame(func() { order = append(order, "b") })

	if n := s.RunPending(); n != 2 {
		t.Fatalf("ran %d callbacks, want 2", n)
	}
	if len(order) != 2 || order[0] != "a" || order[1] != "b" {
		t.Fatalf("order = %v", order)
	}
	if s.Pending() != 1 {
		t.Fatalf("pending = %d, want 1", s.Pending())
	}
	s.RunPending()
	if len(order) != 3 || order[2] != "c" {
		t.Errorf("order = %v", order)
	}
}

func TestSchedulerAllowsNestedPumping(t *testing.T) {
	s := NewScheduler()
	ran := 0
	s.RequestFrame(func() {
		s.RequestFrame(func() { ran++ })
		s.RunPending()
	})
	s.RunPending()
	if ran != 1 {
		t.Errorf("nested callback ran %d times, want 1", ran)
	}
}

func TestFramePump(t *testing.T) {
	ctx := graphicstest.NewFakeContext(4, 4, nil)
	s := NewScheduler()
	pump := FramePump{Scheduler: s, Context: ctx}

	ran := false
	s.RequestFrame(func() { ran = true })
	if err := pump.WaitFrame(context.Background()); err != nil {
		t.Fatal(err)
	}
	if !ran || ctx.Frames != 1 {
		t.Errorf("ran=%v frames=%d", ran, ctx.Frames)
	}

	cancelled, cancel := context.WithCancel(context.Background())
	cancel()
	if err := pump.WaitFrame(cancelled); !errors.Is(err, context.Canceled) {
		t.Errorf("got %v, want context.Canceled", err)
	}

	ctx.Closed = true
	if err := pump.WaitFrame(context.Background()); !errors.Is(err, ErrWindowClosed) {
		t.Errorf("got %v, want ErrWindowClosed", err)
	}
	if ctx.Frames != 1 {
		t.Errorf("frames = %d after failed waits", ctx.Frames)
	}
}
