// Package clock provides the playback time sources that drive the renderer.
package clock

import "sync/atomic"

// Source supplies the current playback position in seconds.
type Source interface {
	Seconds() float64
}

// Func adapts a plain function to a Source.
type Func func() float64

func (f Func) Seconds() float64 { return f() }

// Live derives the playback position from a monotonic timer, typically the
// graphics context's clock.
type Live struct {
	now    func() float64
	start  float64
	offset float64
}

// NewLive returns a Live clock that reads zero at the moment of creation.
func NewLive(now func() float64) *Live {
	return &Live{now: now, start: now()}
}

func (l *Live) Seconds() float64 {
	return l.now() - l.start + l.offset
}

// Seek moves the playback position to seconds.
func (l *Live) Seek(seconds float64) {
	l.start = l.now()
	l.offset = seconds
}

// Synthetic is a deterministic clock derived from a frame counter. It only
// moves when Advance is called, regardless of how long a frame takes.
type Synthetic struct {
	fps   int
	frame int64
}

func NewSynthetic(fps int) *Synthetic {
	if fps <= 0 {
		fps = 1
	}
	return &Synthetic{fps: fps}
}

// Millis returns frame * 1000 / fps.
func (s *Synthetic) Millis() float64 {
	return float64(s.frame) * 1000 / float64(s.fps)
}

func (s *Synthetic) Seconds() float64 {
	return s.Millis() / 1000
}

func (s *Synthetic) Frame() int64 { return s.frame }

func (s *Synthetic) FPS() int { return s.fps }

// Advance moves the clock forward by exactly one frame.
func (s *Synthetic) Advance() {
	s.frame++
}

type holder struct {
	src Source
}

// Swappable forwards to whichever Source is currently installed. Readers on
// other goroutines always see a complete Source.
type Swappable struct {
	cur atomic.Pointer[holder]
}

func NewSwappable(src Source) *Swappable {
	s := &Swappable{}
	s.Set(src)
	return s
}

// Set installs src and returns the previously installed Source.
func (s *Swappable) Set(src Source) Source {
	prev := s.cur.Swap(&holder{src: src})
	if prev == nil {
		return nil
	}
	return prev.src
}

// Current returns the installed Source.
func (s *Swappable) Current() Source {
	h := s.cur.Load()
	if h == nil {
		return nil
	}
	return h.src
}

func (s *Swappable) Seconds() float64 {
	h := s.cur.Load()
	if h == nil || h.src == nil {
		return 0
	}
	return h.src.Seconds()
}
