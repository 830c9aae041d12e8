package main

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/richinsley/songshader/renderer"
)

// pumpUntil runs scheduler callbacks until cond holds or the deadline passes.
func pumpUntil(t *testing.T, s *renderer.Scheduler, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(5 * time.Second)
	for !cond() {
		if time.Now().After(deadline) {
			t.Fatal("timed out waiting for the watcher")
		}
		s.RunPending()
		time.Sleep(5 * time.Millisecond)
	}
}

func TestShaderWatcherReloadsOnChange(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "shader.glsl")
	if err := os.WriteFile(path, []byte("void main() {}"), 0o644); err != nil {
		t.Fatal(err)
	}
	var attempts, reloads int
	result := renderer.ErrExportInProgress
	s := renderer.NewScheduler()
	w, err := newShaderWatcher(path, func() error {
		attempts++
		if result == nil {
			reloads++
		}
		return result
	}, s)
	if err != nil {
		t.Fatal(err)
	}
	defer w.Close()

	// Other files in the directory are ignored.
	if err := os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}
	time.Sleep(100 * time.Millisecond)
	s.RunPending()
	if attempts != 0 {
		t.Fatalf("reloaded after an unrelated file changed")
	}

	if err := os.WriteFile(path, []byte("void main() { }"), 0o644); err != nil {
		t.Fatal(err)
	}
	pumpUntil(t, s, func() bool { return attempts >= 1 })

	// A rejected reload is retried on the following refresh.
	before := attempts
	s.RunPending()
	if attempts != before+1 {
		t.Fatalf("got %d attempts, want a retry after ErrExportInProgress", attempts-before)
	}

	result = nil
	pumpUntil(t, s, func() bool { return reloads >= 1 })
	time.Sleep(50 * time.Millisecond)
	s.RunPending()
	if s.Pending() != 0 {
		t.Errorf("watcher kept retrying after a successful reload")
	}
}

func TestShaderWatcherMissingDirectory(t *testing.T) {
	path := filepath.Join(t.TempDir(), "missing", "shader.glsl")
	if _, err := newShaderWatcher(path, func() error { return nil }, renderer.NewScheduler()); err == nil {
		t.Error("watching a missing directory succeeded")
	}
}

func TestReadShader(t *testing.T) {
	if src, err := readShader(""); err != nil || src != "" {
		t.Errorf("empty path: %q, %v", src, err)
	}
	if _, err := readShader(filepath.Join(t.TempDir(), "missing.glsl")); err == nil {
		t.Error("missing file accepted")
	}
}
