package options

import (
	"flag"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func parse(t *testing.T, args ...string) *Options {
	t.Helper()
	fs := flag.NewFlagSet("songshader", flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	o := Register(fs)
	if err := fs.Parse(args); err != nil {
		t.Fatal(err)
	}
	return o
}

func writeConfig(t *testing.T, data string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "songshader.yaml")
	if err := os.WriteFile(path, []byte(data), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestDefaults(t *testing.T) {
	o := parse(t)
	cfg := o.EncoderConfig()
	if cfg.Width != 1920 || cfg.Height != 1080 || cfg.FPS != 24 || cfg.Bitrate != 15_000_000 || cfg.Codec != "avc1.420034" {
		t.Errorf("encoder defaults = %+v", cfg)
	}
	if *o.OutputFile != "video.mp4" || *o.Mode != "live" || *o.NoteCount != 128 {
		t.Errorf("output=%q mode=%q notes=%d", *o.OutputFile, *o.Mode, *o.NoteCount)
	}
	if err := o.Validate(); err != nil {
		t.Errorf("defaults invalid: %v", err)
	}
}

func TestLoadFileKeepsCommandLine(t *testing.T) {
	o := parse(t, "-fps", "30", "-shader", "cli.glsl")
	path := writeConfig(t, "fps: 60\nshader: file.glsl\nbitrate: 8000000\nwatch: true\nrelease: 120.5\n")
	if err := o.LoadFile(path); err != nil {
		t.Fatal(err)
	}
	if *o.FPS != 30 || *o.ShaderFile != "cli.glsl" {
		t.Errorf("command line overridden: fps=%d shader=%q", *o.FPS, *o.ShaderFile)
	}
	if *o.Bitrate != 8_000_000 || !*o.Watch || *o.Release != 120.5 {
		t.Errorf("file not applied: bitrate=%d watch=%v release=%v", *o.Bitrate, *o.Watch, *o.Release)
	}
}

func TestLoadFileErrors(t *testing.T) {
	tests := map[string]string{
		"unknown option": "colour: blue\n",
		"bad value":      "fps: fast\n",
		"nested config":  "config: other.yaml\n",
		"not a mapping":  "- fps\n",
	}
	for name, data := range tests {
		o := parse(t)
		if err := o.LoadFile(writeConfig(t, data)); err == nil {
			t.Errorf("%s: accepted %q", name, data)
		}
	}
	o := parse(t)
	if err := o.LoadFile(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Error("missing file accepted")
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		args []string
		want string
	}{
		{[]string{"-mode", "export"}, "needs -events"},
		{[]string{"-mode", "stream"}, "unknown mode"},
		{[]string{"-notes", "0"}, "notes must be positive"},
		{[]string{"-codec", "vp8"}, "unsupported codec"},
		{[]string{"-video-width", "0"}, "invalid clip size"},
		{[]string{"-headless"}, "only works in export mode"},
		{[]string{"-fps", "0"}, "invalid framerate"},
		{[]string{"-bitrate", "0"}, "invalid bitrate"},
		{[]string{"-export-width", "1921"}, "must be even"},
		{[]string{"-release", "-5"}, "must not be negative"},
	}
	for _, tt := range tests {
		err := parse(t, tt.args...).Validate()
		if err == nil || !strings.Contains(err.Error(), tt.want) {
			t.Errorf("%v: got %v, want %q", tt.args, err, tt.want)
		}
	}
	if err := parse(t, "-mode", "export", "-events", "song.yaml", "-headless").Validate(); err != nil {
		t.Errorf("valid export options rejected: %v", err)
	}
}
