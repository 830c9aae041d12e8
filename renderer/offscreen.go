package renderer

import (
	"fmt"
	"log"

	"github.com/richinsley/songshader/encoder"
	"github.com/richinsley/songshader/graphics"
)

// Offscreen is a framebuffer-backed surface used for exports, so the window
// keeps its own size while frames are produced at the export resolution.
type Offscreen struct {
	gl        graphics.GL
	fbo       uint32
	textureID uint32
	width     int
	height    int
}

var _ graphics.Surface = (*Offscreen)(nil)

func NewOffscreen(gl graphics.GL, width, height int) (*Offscreen, error) {
	fbo, textureID, err := gl.NewFramebuffer(width, height)
	if err != nil {
		return nil, fmt.Errorf("failed to create offscreen framebuffer: %w", err)
	}
	log.Printf("Offscreen FBO: %dx%d RGBA8", width, height)
	return &Offscreen{gl: gl, fbo: fbo, textureID: textureID, width: width, height: height}, nil
}

func (o *Offscreen) Framebuffer() uint32 { return o.fbo }

func (o *Offscreen) Size() (int, int) { return o.width, o.height }

// Capture reads the framebuffer into a pooled frame stamped with timestamp
// (microseconds). The caller releases the frame.
func (o *Offscreen) Capture(timestamp int64) *encoder.Frame {
	frame := encoder.AcquireFrame(o.width, o.height, timestamp)
	o.gl.BindFramebuffer(o.fbo)
	o.gl.ReadPixels(o.width, o.height, frame.Pixels)
	return frame
}

func (o *Offscreen) Destroy() {
	if o.fbo == 0 {
		return
	}
	o.gl.DeleteFramebuffer(o.fbo, o.textureID)
	o.fbo, o.textureID = 0, 0
}
