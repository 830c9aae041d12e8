// Package graphicstest provides GL-free stand-ins for the graphics package.
//
// FakeGL keeps every object in memory and shades a draw with a fixed rule so
// that rendering is deterministic and can be compared byte for byte:
//
//   - a fragment source mentioning "texture" outputs the bound texture's
//     first texel for every pixel;
//   - any other source outputs (time*24 mod 256, sum(notes)*16 mod 256, 0, 255).
//
// A fragment source containing "#error" fails to compile, and LinkFailure
// forces the next link to fail.
package graphicstest

import (
	"fmt"
	"math"
	"strings"

	"github.com/richinsley/songshader/graphics"
)

type fakeShader struct {
	stage  graphics.Stage
	source string
}

type fakeProgram struct {
	vertex    string
	fragment  string
	locations map[string]int32
	values    map[int32][]float32
}

type fakeTexture struct {
	width, height int
	pix           []byte
}

type fakeFramebuffer struct {
	width, height int
	pix           []byte
}

// Draw records one DrawTriangles call.
type Draw struct {
	Program     uint32
	Framebuffer uint32
	Texture     uint32
	Time        float32
	Resolution  [2]float32
	NoteStates  []float32
	Pixels      []byte
}

// FakeGL implements graphics.GL in memory.
type FakeGL struct {
	// LinkFailure, when set, makes the next LinkProgram fail with this log.
	LinkFailure string

	WindowWidth, WindowHeight int

	Draws []Draw

	nextID       uint32
	shaders      map[uint32]*fakeShader
	programs     map[uint32]*fakeProgram
	textures     map[uint32]*fakeTexture
	framebuffers map[uint32]*fakeFramebuffer
	quads        map[uint32]uint32

	current  uint32
	boundFBO uint32
	boundTex uint32
	viewport [2]int
	uploads  int
}

var _ graphics.GL = (*FakeGL)(nil)

// NewFakeGL returns a FakeGL whose window framebuffer is width x height.
func NewFakeGL(width, height int) *FakeGL {
	f := &FakeGL{
		WindowWidth:  width,
		WindowHeight: height,
		shaders:      make(map[uint32]*fakeShader),
		programs:     make(map[uint32]*fakeProgram),
		textures:     make(map[uint32]*fakeTexture),
		framebuffers: make(map[uint32]*fakeFramebuffer),
		quads:        make(map[uint32]uint32),
	}
	f.framebuffers[0] = &fakeFramebuffer{width: width, height: height, pix: make([]byte, width*height*4)}
	return f
}

func (f *FakeGL) id() uint32 {
	f.nextID++
	return f.nextID
}

func (f *FakeGL) CompileShader(stage graphics.Stage, source string) (uint32, string, bool) {
	if strings.Contains(source, "#error") {
		return 0, fmt.Sprintf("ERROR: 0:1: '#error' : %s shader requested failure", stage), false
	}
	id := f.id()
	f.shaders[id] = &fakeShader{stage: stage, source: source}
	return id, "", true
}

func (f *FakeGL) LinkProgram(vertexShader, fragmentShader uint32) (uint32, string, bool) {
	if f.LinkFailure != "" {
		msg := f.LinkFailure
		f.LinkFailure = ""
		return 0, msg, false
	}
	fs, ok := f.shaders[fragmentShader]
	if !ok {
		return 0, "fragment shader object does not exist", false
	}
	vs, ok := f.shaders[vertexShader]
	if !ok {
		return 0, "vertex shader object does not exist", false
	}
	id := f.id()
	f.programs[id] = &fakeProgram{
		vertex:    vs.source,
		fragment:  fs.source,
		locations: make(map[string]int32),
		values:    make(map[int32][]float32),
	}
	return id, "", true
}

// VertexSource returns the vertex stage a program was linked with.
func (f *FakeGL) VertexSource(program uint32) string {
	if p, ok := f.programs[program]; ok {
		return p.vertex
	}
	return ""
}

func (f *FakeGL) DeleteShader(shader uint32) { delete(f.shaders, shader) }

func (f *FakeGL) DeleteProgram(program uint32) {
	delete(f.programs, program)
	if f.current == program {
		f.current = 0
	}
}

func (f *FakeGL) UseProgram(program uint32) { f.current = program }

func (f *FakeGL) CurrentProgram() uint32 { return f.current }

func (f *FakeGL) UniformLocation(program uint32, name string) int32 {
	p, ok := f.programs[program]
	if !ok {
		return -1
	}
	base := strings.TrimSuffix(name, "[0]")
	if !strings.Contains(p.fragment, base) {
		return -1
	}
	if loc, ok := p.locations[base]; ok {
		return loc
	}
	loc := int32(len(p.locations))
	p.locations[base] = loc
	return loc
}

func (f *FakeGL) set(location int32, v ...float32) {
	p, ok := f.programs[f.current]
	if !ok || location < 0 {
		return
	}
	p.values[location] = append([]float32(nil), v...)
}

func (f *FakeGL) Uniform1f(location int32, v float32) { f.set(location, v) }

func (f *FakeGL) Uniform2f(location int32, x, y float32) { f.set(location, x, y) }

func (f *FakeGL) Uniform1fv(location int32, v []float32) { f.set(location, v...) }

func (f *FakeGL) Uniform1i(location int32, v int32) { f.set(location, float32(v)) }

func (f *FakeGL) NewTexture(width, height int, rgba []byte) uint32 {
	id := f.id()
	f.textures[id] = &fakeTexture{width: width, height: height, pix: append([]byte(nil), rgba...)}
	return id
}

func (f *FakeGL) UploadTexture(texture uint32, width, height int, rgba []byte) {
	f.uploads++
	f.textures[texture] = &fakeTexture{width: width, height: height, pix: append([]byte(nil), rgba...)}
}

func (f *FakeGL) BindTexture(unit int, texture uint32) { f.boundTex = texture }

func (f *FakeGL) DeleteTexture(texture uint32) { delete(f.textures, texture) }

func (f *FakeGL) NewQuad(vertices []float32) (uint32, uint32) {
	vao, vbo := f.id(), f.id()
	f.quads[vao] = vbo
	return vao, vbo
}

func (f *FakeGL) DeleteQuad(vao, vbo uint32) { delete(f.quads, vao) }

func (f *FakeGL) NewFramebuffer(width, height int) (uint32, uint32, error) {
	if width <= 0 || height <= 0 {
		return 0, 0, fmt.Errorf("invalid framebuffer size %dx%d", width, height)
	}
	fbo, tex := f.id(), f.id()
	f.framebuffers[fbo] = &fakeFramebuffer{width: width, height: height, pix: make([]byte, width*height*4)}
	return fbo, tex, nil
}

func (f *FakeGL) DeleteFramebuffer(fbo, texture uint32) {
	if fbo != 0 {
		delete(f.framebuffers, fbo)
	}
}

func (f *FakeGL) BindFramebuffer(fbo uint32) { f.boundFBO = fbo }

func (f *FakeGL) Viewport(width, height int) { f.viewport = [2]int{width, height} }

func (f *FakeGL) Clear(r, g, b, a float32) {
	fb := f.framebuffer()
	if fb == nil {
		return
	}
	px := [4]byte{toByte(r), toByte(g), toByte(b), toByte(a)}
	for i := 0; i < len(fb.pix); i += 4 {
		copy(fb.pix[i:i+4], px[:])
	}
}

func (f *FakeGL) DrawTriangles(vao uint32, count int32) {
	fb := f.framebuffer()
	p, ok := f.programs[f.current]
	if fb == nil || !ok {
		return
	}
	value := func(name string) []float32 {
		loc, ok := p.locations[name]
		if !ok {
			return nil
		}
		return p.values[loc]
	}
	d := Draw{
		Program:     f.current,
		Framebuffer: f.boundFBO,
		Texture:     f.boundTex,
		NoteStates:  append([]float32(nil), value("targetNoteStates")...),
	}
	if v := value("time"); len(v) > 0 {
		d.Time = v[0]
	}
	if v := value("resolution"); len(v) > 1 {
		d.Resolution = [2]float32{v[0], v[1]}
	}

	var px [4]byte
	if strings.Contains(p.fragment, "texture") {
		if tex, ok := f.textures[f.boundTex]; ok && len(tex.pix) >= 4 {
			copy(px[:], tex.pix[:4])
		}
	} else {
		var sum float64
		for _, n := range d.NoteStates {
			sum += float64(n)
		}
		px = [4]byte{
			byte(int(math.Floor(float64(d.Time)*24)) % 256),
			byte(int(math.Floor(sum*16)) % 256),
			0,
			255,
		}
	}
	for i := 0; i < len(fb.pix); i += 4 {
		copy(fb.pix[i:i+4], px[:])
	}
	d.Pixels = append([]byte(nil), fb.pix...)
	f.Draws = append(f.Draws, d)
}

func (f *FakeGL) ReadPixels(width, height int, dst []byte) {
	fb := f.framebuffer()
	if fb == nil {
		return
	}
	copy(dst, fb.pix)
}

func (f *FakeGL) framebuffer() *fakeFramebuffer {
	fb, ok := f.framebuffers[f.boundFBO]
	if !ok {
		return nil
	}
	if f.boundFBO == 0 && (fb.width != f.WindowWidth || fb.height != f.WindowHeight) {
		fb.width, fb.height = f.WindowWidth, f.WindowHeight
		fb.pix = make([]byte, fb.width*fb.height*4)
	}
	return fb
}

// Texture returns a copy of a texture's size and contents.
func (f *FakeGL) Texture(texture uint32) (width, height int, pix []byte, ok bool) {
	t, ok := f.textures[texture]
	if !ok {
		return 0, 0, nil, false
	}
	return t.width, t.height, append([]byte(nil), t.pix...), true
}

// Uploads counts UploadTexture calls.
func (f *FakeGL) Uploads() int { return f.uploads }

// Programs returns the number of live program objects.
func (f *FakeGL) Programs() int { return len(f.programs) }

// Shaders returns the number of live shader objects.
func (f *FakeGL) Shaders() int { return len(f.shaders) }

// Textures returns the number of live textures.
func (f *FakeGL) Textures() int { return len(f.textures) }

// Framebuffers returns the number of live offscreen framebuffers.
func (f *FakeGL) Framebuffers() int { return len(f.framebuffers) - 1 }

// Uniform returns the last value written to name on program.
func (f *FakeGL) Uniform(program uint32, name string) []float32 {
	p, ok := f.programs[program]
	if !ok {
		return nil
	}
	loc, ok := p.locations[name]
	if !ok {
		return nil
	}
	return p.values[loc]
}

// DrawsTo returns the draws issued while fbo was bound.
func (f *FakeGL) DrawsTo(fbo uint32) []Draw {
	var out []Draw
	for _, d := range f.Draws {
		if d.Framebuffer == fbo {
			out = append(out, d)
		}
	}
	return out
}

func toByte(v float32) byte {
	if v <= 0 {
		return 0
	}
	if v >= 1 {
		return 255
	}
	return byte(v*255 + 0.5)
}
