package graphicstest

import "github.com/richinsley/songshader/graphics"

// FakeContext implements graphics.Context without a window. Each EndFrame
// advances the clock by FrameInterval seconds, like a display refreshing at
// a fixed rate.
type FakeContext struct {
	Width, Height int
	FrameInterval float64
	Now           float64
	Frames        int
	Closed        bool

	// GL, when set, follows window resizes.
	GL *FakeGL
	// OnEndFrame runs after each EndFrame.
	OnEndFrame func()
}

var _ graphics.Context = (*FakeContext)(nil)

func NewFakeContext(width, height int, gl *FakeGL) *FakeContext {
	return &FakeContext{Width: width, Height: height, FrameInterval: 1.0 / 60, GL: gl}
}

func (c *FakeContext) MakeCurrent() {}

func (c *FakeContext) Shutdown() { c.Closed = true }

func (c *FakeContext) ShouldClose() bool { return c.Closed }

func (c *FakeContext) EndFrame() {
	c.Frames++
	c.Now += c.FrameInterval
	if c.OnEndFrame != nil {
		c.OnEndFrame()
	}
}

func (c *FakeContext) GetFramebufferSize() (int, int) { return c.Width, c.Height }

func (c *FakeContext) SetSize(width, height int) {
	c.Width, c.Height = width, height
	if c.GL != nil {
		c.GL.WindowWidth, c.GL.WindowHeight = width, height
	}
}

func (c *FakeContext) Time() float64 { return c.Now }
