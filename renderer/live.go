package renderer

import "github.com/richinsley/songshader/graphics"

// LiveLoop draws one frame per display refresh until it is cancelled, an
// export takes the surface, the fallback visualizer takes over, or another
// program becomes current. A stopped loop never restarts; the next build
// starts a new one.
type LiveLoop struct {
	driver    *Driver
	gl        graphics.GL
	mode      *ModeController
	scheduler *Scheduler

	cancelled bool
	stopped   bool
	frames    int
}

// StartLiveLoop draws the first frame immediately and keeps rescheduling
// itself through scheduler.
func StartLiveLoop(driver *Driver, gl graphics.GL, mode *ModeController, scheduler *Scheduler) *LiveLoop {
	l := &LiveLoop{
		driver:    driver,
		gl:        gl,
		mode:      mode,
		scheduler: scheduler,
	}
	l.tick()
	return l
}

func (l *LiveLoop) tick() {
	if l.stopped {
		return
	}
	if l.mode.Exporting() || l.mode.DefaultVisualizer() {
		l.stopped = true
		return
	}
	if l.cancelled || l.gl.CurrentProgram() != l.driver.Pipeline.Program() {
		l.stopped = true
		return
	}
	l.driver.RenderFrame()
	l.frames++
	l.scheduler.RequestFrame(l.tick)
}

// Cancel stops the loop before its next tick.
func (l *LiveLoop) Cancel() {
	if l == nil {
		return
	}
	l.cancelled = true
}

// Running reports whether the loop will draw again.
func (l *LiveLoop) Running() bool { return !l.stopped && !l.cancelled }

// Frames returns the number of frames drawn so far.
func (l *LiveLoop) Frames() int { return l.frames }
