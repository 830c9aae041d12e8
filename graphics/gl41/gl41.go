// Package gl41 implements graphics.GL with the go-gl 4.1 core bindings. The
// same calls serve the OpenGL ES 3 context created by package headless.
package gl41

import (
	"fmt"
	"strings"
	"sync"

	"github.com/go-gl/gl/v4.1-core/gl"
	"github.com/richinsley/songshader/graphics"
)

var glInitOnce sync.Once

// GL drives the OpenGL context that is current on the calling thread.
type GL struct{}

var _ graphics.GL = (*GL)(nil)

// New loads the OpenGL function pointers. A context must be current.
func New() (*GL, error) {
	var initErr error
	glInitOnce.Do(func() {
		initErr = gl.Init()
	})
	if initErr != nil {
		return nil, fmt.Errorf("failed to initialize OpenGL: %w", initErr)
	}
	return &GL{}, nil
}

func (g *GL) CompileShader(stage graphics.Stage, source string) (uint32, string, bool) {
	shaderType := uint32(gl.FRAGMENT_SHADER)
	if stage == graphics.VertexStage {
		shaderType = gl.VERTEX_SHADER
	}
	shader := gl.CreateShader(shaderType)
	csources, free := gl.Strs(source + "\x00")
	gl.ShaderSource(shader, 1, csources, nil)
	free()
	gl.CompileShader(shader)

	var status int32
	gl.GetShaderiv(shader, gl.COMPILE_STATUS, &status)
	if status == gl.FALSE {
		var logLength int32
		gl.GetShaderiv(shader, gl.INFO_LOG_LENGTH, &logLength)
		logText := strings.Repeat("\x00", int(logLength+1))
		gl.GetShaderInfoLog(shader, logLength, nil, gl.Str(logText))
		gl.DeleteShader(shader)
		return 0, strings.TrimRight(logText, "\x00"), false
	}
	return shader, "", true
}

func (g *GL) LinkProgram(vertexShader, fragmentShader uint32) (uint32, string, bool) {
	program := gl.CreateProgram()
	gl.AttachShader(program, vertexShader)
	gl.AttachShader(program, fragmentShader)
	gl.LinkProgram(program)
	gl.DetachShader(program, vertexShader)
	gl.DetachShader(program, fragmentShader)

	var status int32
	gl.GetProgramiv(program, gl.LINK_STATUS, &status)
	if status == gl.FALSE {
		var logLength int32
		gl.GetProgramiv(program, gl.INFO_LOG_LENGTH, &logLength)
		logText := strings.Repeat("\x00", int(logLength+1))
		gl.GetProgramInfoLog(program, logLength, nil, gl.Str(logText))
		gl.DeleteProgram(program)
		return 0, strings.TrimRight(logText, "\x00"), false
	}
	return program, "", true
}

func (g *GL) DeleteShader(shader uint32) { gl.DeleteShader(shader) }

func (g *GL) DeleteProgram(program uint32) { gl.DeleteProgram(program) }

func (g *GL) UseProgram(program uint32) { gl.UseProgram(program) }

func (g *GL) CurrentProgram() uint32 {
	var current int32
	gl.GetIntegerv(gl.CURRENT_PROGRAM, &current)
	return uint32(current)
}

func (g *GL) UniformLocation(program uint32, name string) int32 {
	return gl.GetUniformLocation(program, gl.Str(name+"\x00"))
}

func (g *GL) Uniform1f(location int32, v float32) { gl.Uniform1f(location, v) }

func (g *GL) Uniform2f(location int32, x, y float32) { gl.Uniform2f(location, x, y) }

func (g *GL) Uniform1fv(location int32, v []float32) {
	if len(v) == 0 {
		return
	}
	gl.Uniform1fv(location, int32(len(v)), &v[0])
}

func (g *GL) Uniform1i(location int32, v int32) { gl.Uniform1i(location, v) }

func (g *GL) NewTexture(width, height int, rgba []byte) uint32 {
	var texture uint32
	gl.GenTextures(1, &texture)
	gl.BindTexture(gl.TEXTURE_2D, texture)
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_WRAP_S, gl.CLAMP_TO_EDGE)
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_WRAP_T, gl.CLAMP_TO_EDGE)
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_MIN_FILTER, gl.LINEAR)
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_MAG_FILTER, gl.LINEAR)
	g.texImage(width, height, rgba)
	gl.BindTexture(gl.TEXTURE_2D, 0)
	return texture
}

func (g *GL) UploadTexture(texture uint32, width, height int, rgba []byte) {
	gl.BindTexture(gl.TEXTURE_2D, texture)
	g.texImage(width, height, rgba)
}

func (g *GL) texImage(width, height int, rgba []byte) {
	gl.PixelStorei(gl.UNPACK_ALIGNMENT, 1)
	gl.TexImage2D(gl.TEXTURE_2D, 0, gl.RGBA8, int32(width), int32(height), 0, gl.RGBA, gl.UNSIGNED_BYTE, gl.Ptr(rgba))
}

func (g *GL) BindTexture(unit int, texture uint32) {
	gl.ActiveTexture(gl.TEXTURE0 + uint32(unit))
	gl.BindTexture(gl.TEXTURE_2D, texture)
}

func (g *GL) DeleteTexture(texture uint32) { gl.DeleteTextures(1, &texture) }

func (g *GL) NewQuad(vertices []float32) (uint32, uint32) {
	var vao, vbo uint32
	gl.GenVertexArrays(1, &vao)
	gl.GenBuffers(1, &vbo)
	gl.BindVertexArray(vao)
	gl.BindBuffer(gl.ARRAY_BUFFER, vbo)
	gl.BufferData(gl.ARRAY_BUFFER, len(vertices)*4, gl.Ptr(vertices), gl.STATIC_DRAW)
	gl.EnableVertexAttribArray(0)
	gl.VertexAttribPointer(0, 2, gl.FLOAT, false, 2*4, gl.PtrOffset(0))
	gl.BindBuffer(gl.ARRAY_BUFFER, 0)
	gl.BindVertexArray(0)
	return vao, vbo
}

func (g *GL) DeleteQuad(vao, vbo uint32) {
	gl.DeleteBuffers(1, &vbo)
	gl.DeleteVertexArrays(1, &vao)
}

func (g *GL) NewFramebuffer(width, height int) (uint32, uint32, error) {
	var fbo, texture uint32
	gl.GenFramebuffers(1, &fbo)
	gl.BindFramebuffer(gl.FRAMEBUFFER, fbo)
	gl.GenTextures(1, &texture)
	gl.BindTexture(gl.TEXTURE_2D, texture)
	gl.TexImage2D(gl.TEXTURE_2D, 0, gl.RGBA8, int32(width), int32(height), 0, gl.RGBA, gl.UNSIGNED_BYTE, nil)
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_MIN_FILTER, gl.LINEAR)
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_MAG_FILTER, gl.LINEAR)
	gl.FramebufferTexture2D(gl.FRAMEBUFFER, gl.COLOR_ATTACHMENT0, gl.TEXTURE_2D, texture, 0)
	status := gl.CheckFramebufferStatus(gl.FRAMEBUFFER)
	gl.BindTexture(gl.TEXTURE_2D, 0)
	gl.BindFramebuffer(gl.FRAMEBUFFER, 0)
	if status != gl.FRAMEBUFFER_COMPLETE {
		g.DeleteFramebuffer(fbo, texture)
		return 0, 0, fmt.Errorf("offscreen framebuffer is not complete (status 0x%x)", status)
	}
	return fbo, texture, nil
}

func (g *GL) DeleteFramebuffer(fbo, texture uint32) {
	gl.DeleteFramebuffers(1, &fbo)
	gl.DeleteTextures(1, &texture)
}

func (g *GL) BindFramebuffer(fbo uint32) { gl.BindFramebuffer(gl.FRAMEBUFFER, fbo) }

func (g *GL) Viewport(width, height int) { gl.Viewport(0, 0, int32(width), int32(height)) }

func (g *GL) Clear(red, green, blue, alpha float32) {
	gl.ClearColor(red, green, blue, alpha)
	gl.Clear(gl.COLOR_BUFFER_BIT)
}

func (g *GL) DrawTriangles(vao uint32, count int32) {
	gl.BindVertexArray(vao)
	gl.DrawArrays(gl.TRIANGLES, 0, count)
	gl.BindVertexArray(0)
}

func (g *GL) ReadPixels(width, height int, dst []byte) {
	gl.PixelStorei(gl.PACK_ALIGNMENT, 1)
	gl.ReadPixels(0, 0, int32(width), int32(height), gl.RGBA, gl.UNSIGNED_BYTE, gl.Ptr(dst))
}
