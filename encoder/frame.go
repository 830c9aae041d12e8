package encoder

import "sync"

// Frame represents a single rendered video frame's data, ready for encoding.
// Pixels are tightly packed RGBA rows, bottom row first, as read back from GL.
type Frame struct {
	Pixels    []byte
	Width     int
	Height    int
	Timestamp int64 // microseconds
}

var framePool sync.Pool

// AcquireFrame returns a pooled frame sized for width x height. The caller
// must Release it once the encoder has consumed it.
func AcquireFrame(width, height int, timestamp int64) *Frame {
	size := width * height * 4
	f, _ := framePool.Get().(*Frame)
	if f == nil {
		f = &Frame{}
	}
	if cap(f.Pixels) < size {
		f.Pixels = make([]byte, size)
	}
	f.Pixels = f.Pixels[:size]
	f.Width = width
	f.Height = height
	f.Timestamp = timestamp
	return f
}

// Release hands the frame's buffer back to the pool. The frame must not be
// used afterwards.
func (f *Frame) Release() {
	if f == nil {
		return
	}
	framePool.Put(f)
}
