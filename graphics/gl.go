package graphics

// Stage identifies a programmable pipeline stage.
type Stage int

const (
	VertexStage Stage = iota
	FragmentStage
)

func (s Stage) String() string {
	switch s {
	case VertexStage:
		return "vertex"
	case FragmentStage:
		return "fragment"
	default:
		return "unknown"
	}
}

// GL is the subset of OpenGL the renderer drives. Every call must be made on
// the goroutine that owns the current context.
type GL interface {
	// CompileShader returns ok=false and the driver's info log when the
	// source does not compile.
	CompileShader(stage Stage, source string) (shader uint32, infoLog string, ok bool)
	// LinkProgram returns ok=false and the info log when linking fails; the
	// failed program object is already deleted in that case.
	LinkProgram(vertexShader, fragmentShader uint32) (program uint32, infoLog string, ok bool)
	DeleteShader(shader uint32)
	DeleteProgram(program uint32)
	UseProgram(program uint32)
	// CurrentProgram returns the program bound by the last UseProgram.
	CurrentProgram() uint32
	// UniformLocation returns -1 when the program has no such active uniform.
	UniformLocation(program uint32, name string) int32
	Uniform1f(location int32, v float32)
	Uniform2f(location int32, x, y float32)
	Uniform1fv(location int32, v []float32)
	Uniform1i(location int32, v int32)

	// NewTexture creates an RGBA8 texture with clamp-to-edge wrapping,
	// linear filtering and no mipmaps.
	NewTexture(width, height int, rgba []byte) uint32
	// UploadTexture replaces the full contents of texture.
	UploadTexture(texture uint32, width, height int, rgba []byte)
	BindTexture(unit int, texture uint32)
	DeleteTexture(texture uint32)

	// NewQuad uploads 2D positions into a static vertex buffer bound to
	// attribute 0.
	NewQuad(vertices []float32) (vao, vbo uint32)
	DeleteQuad(vao, vbo uint32)

	NewFramebuffer(width, height int) (fbo, texture uint32, err error)
	DeleteFramebuffer(fbo, texture uint32)
	BindFramebuffer(fbo uint32)

	Viewport(width, height int)
	Clear(r, g, b, a float32)
	DrawTriangles(vao uint32, count int32)
	// ReadPixels reads the bound framebuffer as tightly packed RGBA rows,
	// bottom row first.
	ReadPixels(width, height int, dst []byte)
}
