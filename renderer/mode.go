package renderer

import (
	"errors"
	"log"
	"sync"
)

// Mode says who owns the GPU surface.
type Mode int

const (
	ModeIdle Mode = iota
	// ModeLive runs a custom shader paced by the display.
	ModeLive
	// ModeDefault shows the fallback visualizer.
	ModeDefault
	// ModeExporting hands the surface to an export session.
	ModeExporting
)

func (m Mode) String() string {
	switch m {
	case ModeIdle:
		return "idle"
	case ModeLive:
		return "live"
	case ModeDefault:
		return "default"
	case ModeExporting:
		return "exporting"
	default:
		return "unknown"
	}
}

// ModeController is the single writer of the current Mode.
type ModeController struct {
	mu   sync.Mutex
	mode Mode
}

func NewModeController() *ModeController {
	return &ModeController{mode: ModeIdle}
}

func (c *ModeController) Mode() Mode {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.mode
}

// Exporting reports whether an export session owns the surface.
func (c *ModeController) Exporting() bool { return c.Mode() == ModeExporting }

// DefaultVisualizer reports whether the fallback visualizer is active.
func (c *ModeController) DefaultVisualizer() bool { return c.Mode() == ModeDefault }

// Set switches between the non-export modes. It fails while exporting;
// only the release func from BeginExport leaves ModeExporting.
func (c *ModeController) Set(m Mode) error {
	if m == ModeExporting {
		return errors.New("ModeExporting is entered with BeginExport")
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.mode == ModeExporting {
		return ErrExportInProgress
	}
	c.mode = m
	return nil
}

// BeginExport enters ModeExporting and returns a func that restores the
// previous mode. The func is safe to call more than once.
func (c *ModeController) BeginExport() (release func(), err error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.mode == ModeExporting {
		return nil, ErrExportInProgress
	}
	prev := c.mode
	c.mode = ModeExporting
	log.Printf("Mode %s -> %s", prev, ModeExporting)

	var once sync.Once
	return func() {
		once.Do(func() {
			c.mu.Lock()
			c.mode = prev
			c.mu.Unlock()
			log.Printf("Mode %s -> %s", ModeExporting, prev)
		})
	}, nil
}
