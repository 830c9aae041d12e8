// Package translator converts WebGL-dialect fragment shaders into the GLSL
// dialect of the current context, desktop 4.1 core or OpenGL ES 3.
package translator

import (
	"context"
	"sync"

	gst "github.com/richinsley/goshadertranslator"
)

// Shader is a translated fragment stage.
type Shader struct {
	Code string
	// Names maps uniform names in the original source to the names used in
	// Code. Uniforms missing from the map keep their original name.
	Names map[string]string
	// GLES is set when Code targets an OpenGL ES context.
	GLES bool
}

// Name returns the translated name of a uniform.
func (s *Shader) Name(uniform string) string {
	if mapped, ok := s.Names[uniform]; ok && mapped != "" {
		return mapped
	}
	return uniform
}

// Translator turns user fragment source into compilable fragment source.
type Translator interface {
	TranslateFragment(source string) (*Shader, error)
}

var (
	translator     *gst.ShaderTranslator
	translatorErr  error
	translatorOnce sync.Once
)

// GetTranslator returns the process-wide shader translator, creating it on
// first use.
func GetTranslator() (*gst.ShaderTranslator, error) {
	translatorOnce.Do(func() {
		translator, translatorErr = gst.NewShaderTranslator(context.Background())
	})
	return translator, translatorErr
}

// WebGL translates WebGL (GLSL ES 1.00 or 3.00) fragment shaders for a
// desktop or ES context.
type WebGL struct {
	t    *gst.ShaderTranslator
	gles bool
}

// NewGLSL410 targets the desktop 4.1 core context.
func NewGLSL410() (*WebGL, error) {
	return newWebGL(false)
}

// NewESSL targets an OpenGL ES 3 context, such as the headless EGL one.
func NewESSL() (*WebGL, error) {
	return newWebGL(true)
}

func newWebGL(gles bool) (*WebGL, error) {
	t, err := GetTranslator()
	if err != nil {
		return nil, err
	}
	return &WebGL{t: t, gles: gles}, nil
}

func (w *WebGL) TranslateFragment(source string) (*Shader, error) {
	outputFormat := gst.OutputFormatGLSL410
	if w.gles {
		outputFormat = gst.OutputFormatESSL
	}
	out, err := w.t.TranslateShader(source, "fragment", gst.ShaderSpecWebGL2, outputFormat)
	if err != nil {
		return nil, err
	}
	names := make(map[string]string, len(out.Variables))
	for name, v := range out.Variables {
		names[name] = v.MappedName
	}
	return &Shader{Code: out.Code, Names: names, GLES: w.gles}, nil
}

// Passthrough hands the source to the driver unchanged.
type Passthrough struct{}

func (Passthrough) TranslateFragment(source string) (*Shader, error) {
	return &Shader{Code: source}, nil
}
