// Package fallback draws the default visualizer shown when no custom shader
// is loaded: one vertical bar per note target.
package fallback

import (
	"image"

	"github.com/gogpu/gg"
)

// Bars renders note activation as bars rising from the bottom edge.
type Bars struct {
	Width, Height int
	Background    gg.RGBA
	// Gap is the horizontal spacing between bars in pixels.
	Gap float64

	dc *gg.Context
}

func NewBars(width, height int) *Bars {
	return &Bars{
		Width:      width,
		Height:     height,
		Background: gg.RGB(0.05, 0.05, 0.08),
		Gap:        1,
	}
}

// Render draws states, each clamped to 0..1, and returns the frame.
func (b *Bars) Render(states []float32) *image.RGBA {
	if b.dc == nil || b.dc.Width() != b.Width || b.dc.Height() != b.Height {
		b.dc = gg.NewContext(b.Width, b.Height)
	}
	dc := b.dc
	dc.ClearWithColor(b.Background)

	if n := len(states); n > 0 {
		w := float64(b.Width) / float64(n)
		h := float64(b.Height)
		gap := min(b.Gap, w/2)
		for i, s := range states {
			v := float64(max(0, min(1, s)))
			if v == 0 {
				continue
			}
			dc.SetColor(gg.HSL(float64(i)/float64(n)*300, 0.7, 0.3+0.3*v).Color())
			dc.DrawRectangle(float64(i)*w, h-v*h, w-gap, v*h)
			_ = dc.Fill()
		}
	}

	if img, ok := dc.Image().(*image.RGBA); ok {
		return img
	}
	return image.NewRGBA(image.Rect(0, 0, b.Width, b.Height))
}
