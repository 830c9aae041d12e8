package renderer

import (
	"errors"
	"image"
	"image/color"
	"testing"

	"github.com/richinsley/songshader/clock"
	"github.com/richinsley/songshader/encoder"
	"github.com/richinsley/songshader/graphics/graphicstest"
	"github.com/richinsley/songshader/translator"
)

const solidSource = `precision mediump float;
uniform vec2 resolution;
uniform float time;
uniform float targetNoteStates[4];
void main() {
    gl_FragColor = vec4(time, targetNoteStates[0], 0.0, 1.0);
}
`

const videoSource = `precision mediump float;
uniform vec2 resolution;
uniform sampler2D video;
void main() {
    gl_FragColor = texture2D(video, gl_FragCoord.xy / resolution);
}
`

type staticNotes []float32

func (n staticNotes) TargetNoteStates() []float32 {
	return append([]float32(nil), n...)
}

type events []float64

func (e events) LastTimestamp() (float64, bool) {
	if len(e) == 0 {
		return 0, false
	}
	return e[len(e)-1], true
}

type failingTranslator struct{}

func (failingTranslator) TranslateFragment(string) (*translator.Shader, error) {
	return nil, errors.New("'foo' : undeclared identifier")
}

type encodedFrame struct {
	timestamp int64
	width     int
	height    int
	texel     [4]byte
}

type fakeEncoder struct {
	cfg     encoder.Config
	frames  []encodedFrame
	onAdd   func(n int) error
	endErr  error
	ended   bool
	aborted bool
}

func (e *fakeEncoder) AddFrame(f *encoder.Frame) error {
	if e.onAdd != nil {
		if err := e.onAdd(len(e.frames)); err != nil {
			return err
		}
	}
	var texel [4]byte
	copy(texel[:], f.Pixels)
	e.frames = append(e.frames, encodedFrame{timestamp: f.Timestamp, width: f.Width, height: f.Height, texel: texel})
	return nil
}

func (e *fakeEncoder) End() ([]byte, error) {
	e.ended = true
	if e.endErr != nil {
		return nil, e.endErr
	}
	return []byte("mp4"), nil
}

func (e *fakeEncoder) Abort() { e.aborted = true }

type recordingProgress struct {
	values  []float64
	cleared int
}

func (p *recordingProgress) Set(f float64) { p.values = append(p.values, f) }
func (p *recordingProgress) Clear()        { p.cleared++ }

type harness struct {
	gl       *graphicstest.FakeGL
	ctx      *graphicstest.FakeContext
	clock    *clock.Swappable
	progress *recordingProgress
	encoders []*fakeEncoder
	// configure, when set, prepares each new encoder.
	configure func(e *fakeEncoder)
	v         *Visualizer
}

func newHarness(t *testing.T, video VideoLookup) *harness {
	t.Helper()
	h := &harness{
		gl:       graphicstest.NewFakeGL(4, 4),
		clock:    clock.NewSwappable(nil),
		progress: &recordingProgress{},
	}
	h.ctx = graphicstest.NewFakeContext(4, 4, h.gl)
	v, err := New(Config{
		GL:         h.gl,
		Context:    h.ctx,
		Translator: translator.Passthrough{},
		Notes:      staticNotes{0.5, 0, 0, 0},
		Video:      video,
		Clock:      h.clock,
		Progress:   h.progress,
		NewEncoder: func(cfg encoder.Config) (encoder.FrameEncoder, error) {
			e := &fakeEncoder{cfg: cfg}
			if h.configure != nil {
				h.configure(e)
			}
			h.encoders = append(h.encoders, e)
			return e, nil
		},
	})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	h.v = v
	return h
}

func exportConfig() encoder.Config {
	cfg := encoder.DefaultConfig()
	cfg.Width, cfg.Height = 8, 6
	return cfg
}

func solidImage(c color.RGBA, w, h int) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.SetRGBA(x, y, c)
		}
	}
	return img
}
