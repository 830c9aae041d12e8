package renderer

import (
	"log"

	"github.com/richinsley/songshader/graphics"
	"github.com/richinsley/songshader/shader"
	"github.com/richinsley/songshader/translator"
)

// NoteStateProvider supplies the per-target activation values read on every
// frame.
type NoteStateProvider interface {
	TargetNoteStates() []float32
}

// placeholderTexel is shown until the first video frame arrives.
var placeholderTexel = [4]byte{0, 0, 255, 255}

// Pipeline is a built shader program together with its uniform locations,
// texture and quad. A rebuild creates a new Pipeline; locations never move
// between instances.
type Pipeline struct {
	gl      graphics.GL
	surface graphics.Surface

	program       uint32
	resolutionLoc int32
	timeLoc       int32
	noteStatesLoc int32
	videoLoc      int32

	texture  uint32
	quadVAO  uint32
	quadVBO  uint32
	width    int
	height   int
	released bool
}

// Build compiles source as the fragment stage of a new program targeting
// surface, initializes its uniforms and issues one draw. On failure no GL
// objects are left behind and the current program is untouched.
func Build(gl graphics.GL, tr translator.Translator, surface graphics.Surface, source string, notes NoteStateProvider) (*Pipeline, error) {
	translated, err := tr.TranslateFragment(source)
	if err != nil {
		return nil, &CompileError{Stage: graphics.FragmentStage, Log: err.Error()}
	}

	program, err := newProgram(gl, shader.GenerateVertexShader(translated.GLES), translated.Code)
	if err != nil {
		return nil, err
	}

	width, height := surface.Size()
	p := &Pipeline{
		gl:            gl,
		surface:       surface,
		program:       program,
		resolutionLoc: uniformLocation(gl, program, translated, "resolution"),
		timeLoc:       uniformLocation(gl, program, translated, "time"),
		noteStatesLoc: uniformLocation(gl, program, translated, "targetNoteStates"),
		videoLoc:      uniformLocation(gl, program, translated, "video"),
		width:         width,
		height:        height,
	}

	p.texture = gl.NewTexture(1, 1, placeholderTexel[:])
	p.quadVAO, p.quadVBO = gl.NewQuad(shader.QuadVertices())

	gl.BindFramebuffer(surface.Framebuffer())
	gl.Viewport(width, height)
	gl.Clear(0, 0, 0, 1)
	gl.UseProgram(program)
	if p.resolutionLoc != -1 {
		gl.Uniform2f(p.resolutionLoc, float32(width), float32(height))
	}
	if p.timeLoc != -1 {
		gl.Uniform1f(p.timeLoc, 0)
	}
	p.setNoteStates(noteStates(notes))
	if p.videoLoc != -1 {
		gl.Uniform1i(p.videoLoc, 0)
	}
	gl.BindTexture(0, p.texture)
	gl.DrawTriangles(p.quadVAO, shader.QuadVertexCount)

	log.Printf("Built shader program %d for %dx%d surface", program, width, height)
	return p, nil
}

// DrawFrame updates time and targetNoteStates and draws the quad once. The
// texture must already hold the frame's video material.
func (p *Pipeline) DrawFrame(timeSeconds float64, states []float32) {
	gl := p.gl
	gl.BindFramebuffer(p.surface.Framebuffer())
	gl.Viewport(p.width, p.height)
	gl.UseProgram(p.program)
	gl.BindTexture(0, p.texture)
	if p.timeLoc != -1 {
		gl.Uniform1f(p.timeLoc, float32(timeSeconds))
	}
	p.setNoteStates(states)
	gl.DrawTriangles(p.quadVAO, shader.QuadVertexCount)
}

func (p *Pipeline) setNoteStates(states []float32) {
	if p.noteStatesLoc == -1 || len(states) == 0 {
		return
	}
	p.gl.Uniform1fv(p.noteStatesLoc, states)
}

// Program returns the GL program handle.
func (p *Pipeline) Program() uint32 { return p.program }

// Texture returns the GL texture handle fed by Refresh.
func (p *Pipeline) Texture() uint32 { return p.texture }

// Size returns the surface size the pipeline was built for.
func (p *Pipeline) Size() (int, int) { return p.width, p.height }

// Surface returns the render target.
func (p *Pipeline) Surface() graphics.Surface { return p.surface }

// Destroy releases the program, texture and quad. It is safe to call more
// than once.
func (p *Pipeline) Destroy() {
	if p == nil || p.released {
		return
	}
	p.released = true
	p.gl.DeleteProgram(p.program)
	p.gl.DeleteTexture(p.texture)
	p.gl.DeleteQuad(p.quadVAO, p.quadVBO)
}

func newProgram(gl graphics.GL, vertexShaderSource, fragmentShaderSource string) (uint32, error) {
	vertexShader, infoLog, ok := gl.CompileShader(graphics.VertexStage, vertexShaderSource)
	if !ok {
		return 0, &CompileError{Stage: graphics.VertexStage, Log: infoLog}
	}
	defer gl.DeleteShader(vertexShader)

	fragmentShader, infoLog, ok := gl.CompileShader(graphics.FragmentStage, fragmentShaderSource)
	if !ok {
		return 0, &CompileError{Stage: graphics.FragmentStage, Log: infoLog}
	}
	defer gl.DeleteShader(fragmentShader)

	program, infoLog, ok := gl.LinkProgram(vertexShader, fragmentShader)
	if !ok {
		return 0, &LinkError{Log: infoLog}
	}
	return program, nil
}

// uniformLocation resolves name through the translator's renaming. Arrays
// may only answer to their first element.
func uniformLocation(gl graphics.GL, program uint32, translated *translator.Shader, name string) int32 {
	mapped := translated.Name(name)
	if loc := gl.UniformLocation(program, mapped); loc != -1 {
		return loc
	}
	return gl.UniformLocation(program, mapped+"[0]")
}

func noteStates(notes NoteStateProvider) []float32 {
	if notes == nil {
		return nil
	}
	return notes.TargetNoteStates()
}
