package graphics

// Context defines the interface for an OpenGL context.
type Context interface {
	MakeCurrent()
	Shutdown()
	ShouldClose() bool
	// EndFrame presents the back buffer and polls window events. With vsync
	// enabled it returns at the next display refresh.
	EndFrame()
	GetFramebufferSize() (int, int)
	// SetSize resizes the window's drawable area.
	SetSize(width, height int)
	Time() float64
}

// Surface is a render target a pipeline draws into.
type Surface interface {
	// Framebuffer returns the framebuffer object to bind; 0 is the window.
	Framebuffer() uint32
	Size() (int, int)
}

// WindowSurface draws into the default framebuffer of a Context.
type WindowSurface struct {
	Context Context
}

func (w WindowSurface) Framebuffer() uint32 { return 0 }

func (w WindowSurface) Size() (int, int) {
	return w.Context.GetFramebufferSize()
}
