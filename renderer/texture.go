package renderer

import "image"

// VideoLookup returns the decoded video frame active at a timestamp, or nil
// when none is available. Implementations must not block.
type VideoLookup interface {
	ActiveVideo(ms float64) *image.RGBA
}

// VideoFunc adapts a function to VideoLookup.
type VideoFunc func(ms float64) *image.RGBA

func (f VideoFunc) ActiveVideo(ms float64) *image.RGBA { return f(ms) }

// Refresh uploads the frame lookup reports for ms into the pipeline's
// texture, replacing its contents. It reports whether an upload happened;
// when lookup has nothing the texture is left as it was.
func Refresh(p *Pipeline, ms float64, lookup VideoLookup) bool {
	if lookup == nil {
		return false
	}
	img := lookup.ActiveVideo(ms)
	if img == nil {
		return false
	}
	width, height := img.Rect.Dx(), img.Rect.Dy()
	if width <= 0 || height <= 0 {
		return false
	}
	p.gl.BindTexture(0, p.texture)
	p.gl.UploadTexture(p.texture, width, height, packRGBA(img))
	return true
}

// packRGBA returns img's pixels as tightly packed rows, top row first.
func packRGBA(img *image.RGBA) []byte {
	width, height := img.Rect.Dx(), img.Rect.Dy()
	rowBytes := width * 4
	start := img.PixOffset(img.Rect.Min.X, img.Rect.Min.Y)
	if img.Stride == rowBytes {
		return img.Pix[start : start+rowBytes*height]
	}
	pix := make([]byte, rowBytes*height)
	for y := 0; y < height; y++ {
		offset := start + y*img.Stride
		copy(pix[y*rowBytes:], img.Pix[offset:offset+rowBytes])
	}
	return pix
}
