package shader

import "strings"

// ────────────────────────────────── Desktop GL ──────────────────────────────────

// The vertex stage only passes the full-viewport quad through; all shading
// happens in the user's fragment stage.
const vertexShaderSourceGL = `#version 410 core
layout (location = 0) in vec2 in_vert;
void main() {
    gl_Position = vec4(in_vert, 0.0, 1.0);
}
`

// ─────────────────────────────────── GLES ───────────────────────────────────────

const vertexShaderSourceGLES = `#version 300 es
layout (location = 0) in vec2 in_vert;
void main() {
    gl_Position = vec4(in_vert, 0.0, 1.0);
}
`

// ──────────────────────────────── WebGL sources ─────────────────────────────────

// Fragment stages below use the same WebGL dialect as user shaders and go
// through the translator like them.

// blitFragmentSource stretches the bound texture over the viewport. The
// fallback visualizer draws through it.
const blitFragmentSource = `precision mediump float;
uniform vec2 resolution;
uniform sampler2D video;
void main() {
    vec2 uv = gl_FragCoord.xy / resolution;
    gl_FragColor = texture2D(video, vec2(uv.x, 1.0 - uv.y));
}
`

// videoFragmentSource shows the active video frame and lights the bottom
// edge by note activity. Used when no shader file is given.
const videoFragmentSource = `precision mediump float;
uniform vec2 resolution;
uniform float time;
uniform float targetNoteStates[128];
uniform sampler2D video;
void main() {
    vec2 uv = gl_FragCoord.xy / resolution;
    vec4 color = texture2D(video, vec2(uv.x, 1.0 - uv.y));
    int note = int(uv.x * 128.0);
    float level = 0.0;
    for (int i = 0; i < 128; i++) {
        if (i == note) {
            level = targetNoteStates[i];
        }
    }
    float bar = step(uv.y, level * 0.25);
    gl_FragColor = mix(color, vec4(0.5 + 0.5 * sin(time), 0.8, 1.0, 1.0), bar * 0.6);
}
`

// quadVertices holds two triangles covering the whole viewport.
var quadVertices = []float32{
	-1.0, -1.0, 1.0, -1.0, -1.0, 1.0,
	-1.0, 1.0, 1.0, -1.0, 1.0, 1.0,
}

// ────────────────────────────────── Public API ─────────────────────────────────

func GenerateVertexShader(isGLES bool) string {
	if isGLES {
		return vertexShaderSourceGLES
	}
	return vertexShaderSourceGL
}

func GetBlitFragmentShader() string {
	return blitFragmentSource
}

func GetVideoFragmentShader() string {
	return videoFragmentSource
}

// QuadVertices returns a copy of the full-viewport quad's positions.
func QuadVertices() []float32 {
	return append([]float32(nil), quadVertices...)
}

// QuadVertexCount is the number of vertices in QuadVertices.
const QuadVertexCount = 6

// IsBlank reports whether source holds nothing but whitespace.
func IsBlank(source string) bool {
	return strings.TrimSpace(source) == ""
}
