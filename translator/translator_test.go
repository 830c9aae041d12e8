package translator

import "testing"

func TestShaderName(t *testing.T) {
	s := &Shader{Names: map[string]string{"time": "_utime", "empty": ""}}
	tests := map[string]string{
		"time":       "_utime",
		"resolution": "resolution",
		"empty":      "empty",
	}
	for in, want := range tests {
		if got := s.Name(in); got != want {
			t.Errorf("Name(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestPassthrough(t *testing.T) {
	src := "void main() { gl_FragColor = vec4(1.0); }"
	s, err := Passthrough{}.TranslateFragment(src)
	if err != nil {
		t.Fatal(err)
	}
	if s.Code != src {
		t.Fatalf("got %q", s.Code)
	}
	if s.Name("time") != "time" {
		t.Fatalf("passthrough must not rename uniforms")
	}
}
