package renderer

import (
	"errors"
	"testing"
)

func TestBeginExportRestoresPreviousMode(t *testing.T) {
	for _, start := range []Mode{ModeIdle, ModeLive, ModeDefault} {
		t.Run(start.String(), func(t *testing.T) {
			c := NewModeController()
			if err := c.Set(start); err != nil {
				t.Fatal(err)
			}
			release, err := c.BeginExport()
			if err != nil {
				t.Fatal(err)
			}
			if !c.Exporting() || c.DefaultVisualizer() {
				t.Errorf("mode = %s during export", c.Mode())
			}
			release()
			release()
			if c.Mode() != start {
				t.Errorf("mode = %s after release, want %s", c.Mode(), start)
			}
		})
	}
}

func TestModeControllerRejectsChangesWhileExporting(t *testing.T) {
	c := NewModeController()
	release, err := c.BeginExport()
	if err != nil {
		t.Fatal(err)
	}
	defer release()

	if _, err := c.BeginExport(); !errors.Is(err, ErrExportInProgress) {
		t.Errorf("second BeginExport: got %v", err)
	}
	if err := c.Set(ModeLive); !errors.Is(err, ErrExportInProgress) {
		t.Errorf("Set(ModeLive): got %v", err)
	}
	if !c.Exporting() {
		t.Errorf("mode = %s", c.Mode())
	}
}

func TestSetRefusesExportingMode(t *testing.T) {
	c := NewModeController()
	if err := c.Set(ModeExporting); err == nil {
		t.Fatal("Set(ModeExporting) succeeded")
	}
	if c.Mode() != ModeIdle {
		t.Errorf("mode = %s", c.Mode())
	}
}

func TestReleaseRunsOnPanic(t *testing.T) {
	c := NewModeController()
	func() {
		defer func() { recover() }()
		release, _ := c.BeginExport()
		defer release()
		panic("encoder crashed")
	}()
	if c.Exporting() {
		t.Error("mode stuck in exporting after panic")
	}
}
