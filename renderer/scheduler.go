package renderer

import (
	"context"
	"sync"

	"github.com/richinsley/songshader/graphics"
)

// Scheduler queues callbacks for the next display refresh.
type Scheduler struct {
	mu      sync.Mutex
	pending []func()
}

func NewScheduler() *Scheduler {
	return &Scheduler{}
}

// RequestFrame runs fn at the next refresh.
func (s *Scheduler) RequestFrame(fn func()) {
	s.mu.Lock()
	s.pending = append(s.pending, fn)
	s.mu.Unlock()
}

// RunPending runs the callbacks queued so far and returns how many ran.
// Callbacks queued while running wait for the following refresh, and a
// callback may pump frames itself.
func (s *Scheduler) RunPending() int {
	s.mu.Lock()
	pending := s.pending
	s.pending = nil
	s.mu.Unlock()

	for _, fn := range pending {
		fn()
	}
	return len(pending)
}

// Pending returns the number of queued callbacks.
func (s *Scheduler) Pending() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.pending)
}

// Pacer blocks until the next frame may be produced.
type Pacer interface {
	WaitFrame(ctx context.Context) error
}

// FramePump paces by the display: it runs the frame's scheduled callbacks,
// then presents and waits for vsync.
type FramePump struct {
	Scheduler *Scheduler
	Context   graphics.Context
}

func (p FramePump) WaitFrame(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if p.Context.ShouldClose() {
		return ErrWindowClosed
	}
	p.Scheduler.RunPending()
	p.Context.EndFrame()
	return nil
}
