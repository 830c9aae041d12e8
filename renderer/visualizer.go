package renderer

import (
	"context"
	"errors"
	"image"
	"log"

	"github.com/richinsley/songshader/clock"
	"github.com/richinsley/songshader/encoder"
	"github.com/richinsley/songshader/graphics"
	"github.com/richinsley/songshader/progress"
	"github.com/richinsley/songshader/shader"
	"github.com/richinsley/songshader/translator"
)

// Timeline bounds an export by its last event.
type Timeline interface {
	// LastTimestamp returns the last event's time in milliseconds, and false
	// when there are no events.
	LastTimestamp() (float64, bool)
}

// FallbackRenderer draws the default visualizer on the CPU.
type FallbackRenderer interface {
	Render(states []float32) *image.RGBA
}

// Config wires a Visualizer to its collaborators. GL, Context and
// Translator are required.
type Config struct {
	GL         graphics.GL
	Context    graphics.Context
	Translator translator.Translator
	Notes      NoteStateProvider
	Video      VideoLookup
	// Clock is shared with Notes. A nil Clock gets a fresh Swappable.
	Clock *clock.Swappable
	// LiveClock defaults to a clock.Live over Context.Time.
	LiveClock  clock.Source
	Progress   progress.Reporter
	NewEncoder EncoderFactory
	Fallback   FallbackRenderer
}

// Visualizer owns the window surface and switches it between the live
// shader, the fallback visualizer and exports.
type Visualizer struct {
	gl         graphics.GL
	ctx        graphics.Context
	translator translator.Translator
	notes      NoteStateProvider
	video      VideoLookup
	clock      *clock.Swappable
	liveClock  clock.Source
	progress   progress.Reporter
	newEncoder EncoderFactory
	fallback   FallbackRenderer

	mode      *ModeController
	scheduler *Scheduler
	pump      FramePump

	source   string
	pipeline *Pipeline
	loop     *LiveLoop
	blit     *Pipeline
	blitErr  error
}

func New(cfg Config) (*Visualizer, error) {
	if cfg.GL == nil || cfg.Context == nil || cfg.Translator == nil {
		return nil, errors.New("visualizer needs a GL, a context and a translator")
	}
	v := &Visualizer{
		gl:         cfg.GL,
		ctx:        cfg.Context,
		translator: cfg.Translator,
		notes:      cfg.Notes,
		video:      cfg.Video,
		clock:      cfg.Clock,
		liveClock:  cfg.LiveClock,
		progress:   cfg.Progress,
		newEncoder: cfg.NewEncoder,
		fallback:   cfg.Fallback,
		mode:       NewModeController(),
		scheduler:  NewScheduler(),
	}
	if v.liveClock == nil {
		v.liveClock = clock.NewLive(cfg.Context.Time)
	}
	if v.clock == nil {
		v.clock = clock.NewSwappable(nil)
	}
	if v.clock.Current() == nil {
		v.clock.Set(v.liveClock)
	}
	if v.progress == nil {
		v.progress = progress.Nop{}
	}
	if v.newEncoder == nil {
		v.newEncoder = FFmpegEncoderFactory
	}
	v.pump = FramePump{Scheduler: v.scheduler, Context: v.ctx}
	return v, nil
}

// Mode returns the current mode.
func (v *Visualizer) Mode() Mode { return v.mode.Mode() }

// Scheduler returns the per-refresh callback queue. Work that must run on
// the GL thread, such as an export started from a key press, is queued here.
func (v *Visualizer) Scheduler() *Scheduler { return v.scheduler }

// Pipeline returns the live pipeline, nil in the fallback mode.
func (v *Visualizer) Pipeline() *Pipeline { return v.pipeline }

// LiveLoop returns the current live loop handle.
func (v *Visualizer) LiveLoop() *LiveLoop { return v.loop }

// Source returns the last accepted shader source.
func (v *Visualizer) Source() string { return v.source }

// SetShaderSource switches to a new fragment shader. Blank source selects
// the fallback visualizer without touching the GPU. A failed build keeps the
// previous shader running and returns a *CompileError or *LinkError.
func (v *Visualizer) SetShaderSource(source string) error {
	if v.mode.Exporting() {
		return ErrExportInProgress
	}

	if shader.IsBlank(source) {
		if err := v.mode.Set(ModeDefault); err != nil {
			return err
		}
		v.stopLive()
		v.pipeline.Destroy()
		v.pipeline = nil
		v.source = source
		log.Println("Shader source is empty, using the default visualizer")
		return nil
	}

	p, err := Build(v.gl, v.translator, graphics.WindowSurface{Context: v.ctx}, source, v.notes)
	if err != nil {
		return err
	}
	if err := v.mode.Set(ModeLive); err != nil {
		p.Destroy()
		return err
	}
	v.stopLive()
	v.pipeline.Destroy()
	v.pipeline = p
	v.source = source
	v.startLive()
	return nil
}

func (v *Visualizer) startLive() {
	driver := &Driver{Pipeline: v.pipeline, Clock: v.clock, Notes: v.notes, Video: v.video}
	v.loop = StartLiveLoop(driver, v.gl, v.mode, v.scheduler)
}

func (v *Visualizer) stopLive() {
	v.loop.Cancel()
	v.loop = nil
}

// Export renders the current shader, or the built-in video shader when the
// fallback visualizer is active, for the duration of events and returns the
// encoded video. The live shader is rebuilt afterwards.
func (v *Visualizer) Export(ctx context.Context, events Timeline, cfg encoder.Config) ([]byte, error) {
	last, ok := events.LastTimestamp()
	if !ok {
		return nil, ErrNoEvents
	}
	source := v.source
	if shader.IsBlank(source) {
		source = shader.GetVideoFragmentShader()
	}

	release, err := v.mode.BeginExport()
	if err != nil {
		return nil, err
	}
	defer v.resumeLive()
	defer release()

	session := &ExportSession{
		GL:              v.gl,
		Translator:      v.translator,
		Source:          source,
		Notes:           v.notes,
		Video:           v.video,
		Clock:           v.clock,
		Pacer:           v.pump,
		Progress:        v.progress,
		NewEncoder:      v.newEncoder,
		Config:          cfg,
		LastEventMillis: last,
	}
	return session.Run(ctx)
}

// resumeLive rebuilds the live shader for the window after an export, since
// the export pipeline replaced it as the current program.
func (v *Visualizer) resumeLive() {
	if v.mode.Mode() != ModeLive || v.pipeline == nil {
		return
	}
	p, err := Build(v.gl, v.translator, graphics.WindowSurface{Context: v.ctx}, v.source, v.notes)
	if err != nil {
		log.Printf("Failed to rebuild live shader after export: %v", err)
		return
	}
	v.stopLive()
	v.pipeline.Destroy()
	v.pipeline = p
	v.startLive()
}

// Frame pumps one display refresh: the fallback visualizer is drawn when
// active, scheduled callbacks run, and the frame is presented.
func (v *Visualizer) Frame(ctx context.Context) error {
	if v.mode.DefaultVisualizer() {
		v.drawFallback()
	}
	return v.pump.WaitFrame(ctx)
}

// Run pumps frames until the window closes or ctx is done.
func (v *Visualizer) Run(ctx context.Context) error {
	for {
		err := v.Frame(ctx)
		if errors.Is(err, ErrWindowClosed) {
			return nil
		}
		if err != nil {
			return err
		}
	}
}

func (v *Visualizer) drawFallback() {
	if v.fallback == nil || v.blitErr != nil {
		return
	}
	if v.blit == nil {
		p, err := Build(v.gl, v.translator, graphics.WindowSurface{Context: v.ctx}, shader.GetBlitFragmentShader(), nil)
		if err != nil {
			v.blitErr = err
			log.Printf("Failed to build fallback blit shader: %v", err)
			return
		}
		v.blit = p
	}
	img := v.fallback.Render(noteStates(v.notes))
	Refresh(v.blit, 0, VideoFunc(func(float64) *image.RGBA { return img }))
	v.blit.DrawFrame(0, nil)
}

// Close releases every GL object the visualizer owns.
func (v *Visualizer) Close() {
	v.stopLive()
	v.pipeline.Destroy()
	v.pipeline = nil
	v.blit.Destroy()
	v.blit = nil
}
