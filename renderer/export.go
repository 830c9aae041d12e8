package renderer

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/richinsley/songshader/clock"
	"github.com/richinsley/songshader/encoder"
	"github.com/richinsley/songshader/graphics"
	"github.com/richinsley/songshader/progress"
	"github.com/richinsley/songshader/translator"
)

// EncoderFactory opens a frame encoder for one export.
type EncoderFactory func(cfg encoder.Config) (encoder.FrameEncoder, error)

// FFmpegEncoderFactory opens an encoder.FFmpegEncoder.
func FFmpegEncoderFactory(cfg encoder.Config) (encoder.FrameEncoder, error) {
	return encoder.NewFFmpegEncoder(cfg)
}

// ExportSession renders a fixed number of frames against a synthetic clock
// and encodes them. All of its work happens on the GL thread; the only
// waits are the pacer and encoder finalization.
type ExportSession struct {
	GL         graphics.GL
	Translator translator.Translator
	Source     string
	Notes      NoteStateProvider
	Video      VideoLookup
	// Clock is shared with the note-state provider; the synthetic clock is
	// installed here for the duration of the export.
	Clock      *clock.Swappable
	Pacer      Pacer
	Progress   progress.Reporter
	NewEncoder EncoderFactory
	Config     encoder.Config
	// LastEventMillis bounds the export.
	LastEventMillis float64

	frame       int64
	totalFrames float64
}

// TotalFrames returns the frame bound lastEventMillis*fps/1000. The export
// renders while the frame counter is below it.
func TotalFrames(lastEventMillis float64, fps int) float64 {
	return lastEventMillis * float64(fps) / 1000
}

// Frames returns how many frames were handed to the encoder.
func (s *ExportSession) Frames() int64 { return s.frame }

// Run performs the export and returns the encoded media.
func (s *ExportSession) Run(ctx context.Context) ([]byte, error) {
	cfg := s.Config
	s.frame = 0
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid export settings: %w", err)
	}
	s.totalFrames = TotalFrames(s.LastEventMillis, cfg.FPS)
	if s.totalFrames <= 0 {
		return nil, fmt.Errorf("%w: last event at %vms", ErrNoEvents, s.LastEventMillis)
	}
	reporter := s.Progress
	if reporter == nil {
		reporter = progress.Nop{}
	}

	surface, err := NewOffscreen(s.GL, cfg.Width, cfg.Height)
	if err != nil {
		return nil, err
	}
	defer surface.Destroy()

	pipeline, err := Build(s.GL, s.Translator, surface, s.Source, s.Notes)
	if err != nil {
		return nil, fmt.Errorf("failed to build export shader: %w", err)
	}
	defer pipeline.Destroy()

	enc, err := s.NewEncoder(cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to open encoder: %w", err)
	}
	finalizing := false
	defer func() {
		if !finalizing {
			enc.Abort()
		}
	}()

	synthetic := clock.NewSynthetic(cfg.FPS)
	prev := s.Clock.Set(synthetic)
	defer s.Clock.Set(prev)
	defer reporter.Clear()

	driver := &Driver{Pipeline: pipeline, Clock: s.Clock, Notes: s.Notes, Video: s.Video}

	log.Printf("Starting export: %dx%d @ %d fps, %.0f frames", cfg.Width, cfg.Height, cfg.FPS, s.totalFrames)
	start := time.Now()
	for ; float64(s.frame) < s.totalFrames; s.frame++ {
		reporter.Set(float64(s.frame) / s.totalFrames)
		if err := s.Pacer.WaitFrame(ctx); err != nil {
			return nil, fmt.Errorf("export stopped at frame %d: %w", s.frame, err)
		}

		ms := driver.RenderFrame()
		frame := surface.Capture(micros(ms))
		err := enc.AddFrame(frame)
		frame.Release()
		if err != nil {
			return nil, fmt.Errorf("failed to encode frame %d: %w", s.frame, err)
		}
		synthetic.Advance()
	}

	finalizing = true
	data, err := enc.End()
	if err != nil {
		return nil, fmt.Errorf("failed to finalize video: %w", err)
	}
	log.Printf("Finished export: %d frames in %s", s.frame, time.Since(start).Round(time.Millisecond))
	return data, nil
}
