package renderer

import (
	"errors"
	"fmt"

	"github.com/richinsley/songshader/graphics"
)

var (
	// ErrExportInProgress is returned when an export already owns the GPU
	// surface.
	ErrExportInProgress = errors.New("export in progress")
	// ErrNoEvents is returned when an export has nothing to bound its length.
	ErrNoEvents = errors.New("event list has no duration")
	// ErrNoPipeline is returned when an operation needs a built shader.
	ErrNoPipeline = errors.New("no shader pipeline")
	// ErrWindowClosed stops an export whose window was closed.
	ErrWindowClosed = errors.New("window closed")
)

// CompileError reports a shader stage that failed to compile or translate.
type CompileError struct {
	Stage graphics.Stage
	Log   string
}

func (e *CompileError) Error() string {
	return fmt.Sprintf("failed to compile %s shader: %s", e.Stage, e.Log)
}

// LinkError reports a program that failed to link.
type LinkError struct {
	Log string
}

func (e *LinkError) Error() string {
	return fmt.Sprintf("failed to link program: %s", e.Log)
}
