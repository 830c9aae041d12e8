package renderer

import (
	"math"

	"github.com/richinsley/songshader/clock"
)

// Driver is the one draw routine behind both the live loop and exports;
// they differ only in the clock and in how frames are paced.
type Driver struct {
	Pipeline *Pipeline
	Clock    clock.Source
	Notes    NoteStateProvider
	Video    VideoLookup
}

// RenderFrame reads the clock, refreshes the texture, updates the uniforms
// and draws. It returns the frame's timestamp in milliseconds.
func (d *Driver) RenderFrame() float64 {
	seconds := d.Clock.Seconds()
	ms := seconds * 1000
	Refresh(d.Pipeline, ms, d.Video)
	d.Pipeline.DrawFrame(seconds, noteStates(d.Notes))
	return ms
}

// micros converts a millisecond timestamp to whole microseconds.
func micros(ms float64) int64 {
	return int64(math.Round(ms * 1000))
}
