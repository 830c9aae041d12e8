package renderer

import (
	"testing"

	"github.com/richinsley/songshader/clock"
	"github.com/richinsley/songshader/graphics/graphicstest"
)

type liveFixture struct {
	gl        *graphicstest.FakeGL
	mode      *ModeController
	scheduler *Scheduler
	now       float64
	loop      *LiveLoop
	pipeline  *Pipeline
}

func startLive(t *testing.T) *liveFixture {
	t.Helper()
	f := &liveFixture{
		gl:        graphicstest.NewFakeGL(4, 4),
		mode:      NewModeController(),
		scheduler: NewScheduler(),
	}
	if err := f.mode.Set(ModeLive); err != nil {
		t.Fatal(err)
	}
	f.pipeline = buildOn(t, f.gl, solidSource, nil)
	driver := &Driver{
		Pipeline: f.pipeline,
		Clock:    clock.Func(func() float64 { return f.now }),
		Notes:    staticNotes{1, 0, 0, 0},
	}
	f.loop = StartLiveLoop(driver, f.gl, f.mode, f.scheduler)
	return f
}

func TestLiveLoopDrawsEveryRefresh(t *testing.T) {
	f := startLive(t)
	for i := 1; i <= 3; i++ {
		f.now = float64(i) / 60
		if n := f.scheduler.RunPending(); n != 1 {
			t.Fatalf("refresh %d ran %d callbacks, want 1", i, n)
		}
	}
	// build + immediate first tick + 3 refreshes
	if len(f.gl.Draws) != 5 {
		t.Fatalf("got %d draws, want 5", len(f.gl.Draws))
	}
	last := f.gl.Draws[4]
	if last.Time != float32(3.0/60) || last.NoteStates[0] != 1 {
		t.Errorf("last draw time=%v notes=%v", last.Time, last.NoteStates)
	}
	if f.loop.Frames() != 4 || !f.loop.Running() {
		t.Errorf("frames=%d running=%v", f.loop.Frames(), f.loop.Running())
	}
}

func TestLiveLoopStops(t *testing.T) {
	tests := []struct {
		name string
		stop func(t *testing.T, f *liveFixture)
	}{
		{"exporting", func(t *testing.T, f *liveFixture) {
			if _, err := f.mode.BeginExport(); err != nil {
				t.Fatal(err)
			}
		}},
		{"default visualizer", func(t *testing.T, f *liveFixture) {
			if err := f.mode.Set(ModeDefault); err != nil {
				t.Fatal(err)
			}
		}},
		{"cancelled", func(t *testing.T, f *liveFixture) {
			f.loop.Cancel()
		}},
		{"superseded", func(t *testing.T, f *liveFixture) {
			buildOn(t, f.gl, solidSource, nil)
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := startLive(t)
			tt.stop(t, f)
			draws := len(f.gl.DrawsTo(0))
			programDraws := 0
			for _, d := range f.gl.Draws {
				if d.Program == f.pipeline.Program() {
					programDraws++
				}
			}

			f.scheduler.RunPending()
			f.scheduler.RunPending()

			if n := len(f.gl.DrawsTo(0)); n != draws {
				t.Errorf("loop drew %d frames after stopping", n-draws)
			}
			if f.scheduler.Pending() != 0 {
				t.Errorf("loop rescheduled itself")
			}
			if f.loop.Running() {
				t.Errorf("loop reports running")
			}
			n := 0
			for _, d := range f.gl.Draws {
				if d.Program == f.pipeline.Program() {
					n++
				}
			}
			if n != programDraws {
				t.Errorf("stale program drew %d more frames", n-programDraws)
			}
		})
	}
}

func TestLiveLoopStaysStoppedAfterExport(t *testing.T) {
	f := startLive(t)
	release, err := f.mode.BeginExport()
	if err != nil {
		t.Fatal(err)
	}
	f.scheduler.RunPending()
	release()
	f.scheduler.RunPending()

	if f.loop.Running() || f.loop.Frames() != 1 {
		t.Errorf("running=%v frames=%d, want a stopped loop with 1 frame", f.loop.Running(), f.loop.Frames())
	}
}
