package timeline

import (
	"context"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"testing"
)

func writePNG(t *testing.T, path string, c color.RGBA) {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, 3, 3))
	for y := 0; y < 3; y++ {
		for x := 0; x < 3; x++ {
			img.SetRGBA(x, y, c)
		}
	}
	f, err := os.Create(path)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	if err := png.Encode(f, img); err != nil {
		t.Fatal(err)
	}
}

func TestClipSpans(t *testing.T) {
	events := EventList{
		{Time: 0, Kind: KindVideo, Video: "a.png"},
		{Time: 1000, Kind: KindVideo, Video: "b.mp4", Duration: 500},
		{Time: 2000, Kind: KindVideo, Video: "c.png"},
		{Time: 3000, Kind: KindNote, Duration: 1000, Velocity: 1},
	}
	clips := NewVideoTimeline(events, 4, 4).Clips()
	want := []Clip{
		{Path: "a.png", Start: 0, End: 1000},
		{Path: "b.mp4", Start: 1000, End: 1500},
		{Path: "c.png", Start: 2000, End: 4000},
	}
	if len(clips) != len(want) {
		t.Fatalf("got %d clips", len(clips))
	}
	for i := range want {
		if clips[i] != want[i] {
			t.Errorf("clip %d = %+v, want %+v", i, clips[i], want[i])
		}
	}
}

func TestActiveVideoServesStills(t *testing.T) {
	dir := t.TempDir()
	red, green := filepath.Join(dir, "red.png"), filepath.Join(dir, "green.png")
	writePNG(t, red, color.RGBA{255, 0, 0, 255})
	writePNG(t, green, color.RGBA{0, 255, 0, 255})

	events := EventList{
		{Time: 100, Kind: KindVideo, Video: red, Duration: 400},
		{Time: 300, Kind: KindVideo, Video: green, Duration: 100},
	}
	v := NewVideoTimeline(events, 8, 6)
	if img := v.ActiveVideo(150); img != nil {
		t.Error("frame served before decoding started")
	}
	v.Start(context.Background(), 24)
	if err := v.Wait(); err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		ms   float64
		want *color.RGBA
	}{
		{50, nil},
		{100, &color.RGBA{255, 0, 0, 255}},
		{350, &color.RGBA{0, 255, 0, 255}},
		{450, &color.RGBA{255, 0, 0, 255}},
		{500, nil},
	}
	for _, tt := range tests {
		img := v.ActiveVideo(tt.ms)
		if tt.want == nil {
			if img != nil {
				t.Errorf("ActiveVideo(%v) = frame, want nil", tt.ms)
			}
			continue
		}
		if img == nil {
			t.Errorf("ActiveVideo(%v) = nil", tt.ms)
			continue
		}
		if img.Rect.Dx() != 8 || img.Rect.Dy() != 6 {
			t.Errorf("frame size %v, want 8x6", img.Rect)
		}
		if got := img.RGBAAt(4, 3); got != *tt.want {
			t.Errorf("ActiveVideo(%v) pixel = %v, want %v", tt.ms, got, *tt.want)
		}
	}
}

func TestWaitReportsDecodeFailures(t *testing.T) {
	events := EventList{{Time: 0, Kind: KindVideo, Video: filepath.Join(t.TempDir(), "missing.png"), Duration: 100}}
	v := NewVideoTimeline(events, 4, 4)
	v.Start(context.Background(), 24)
	if err := v.Wait(); err == nil {
		t.Error("missing clip decoded without error")
	}
	if v.ActiveVideo(50) != nil {
		t.Error("failed clip served a frame")
	}
}

func TestActiveVideoIndexesFrames(t *testing.T) {
	v := NewVideoTimeline(EventList{{Time: 1000, Kind: KindVideo, Video: "clip.mp4", Duration: 1000}}, 2, 2)
	v.fps = 10
	for i := 0; i < 3; i++ {
		img := image.NewRGBA(image.Rect(0, 0, 2, 2))
		img.Pix[0] = byte(i)
		v.add(0, img)
	}

	if img := v.ActiveVideo(1150); img == nil || img.Pix[0] != 1 {
		t.Errorf("ActiveVideo(1150) = %v, want frame 1", img)
	}
	if img := v.ActiveVideo(1500); img != nil {
		t.Error("served a frame that is still decoding")
	}
	v.finish(0, nil)
	if img := v.ActiveVideo(1500); img == nil || img.Pix[0] != 2 {
		t.Error("finished clip does not hold its last frame")
	}
}

func TestDecodeArgs(t *testing.T) {
	args := decodeArgs(640, 360, 24, 2.5)
	want := map[string]string{"f": "rawvideo", "pix_fmt": "rgba", "s": "640x360", "r": "24", "t": "2.500", "map": "0:v:0"}
	for k, v := range want {
		if args[k] != v {
			t.Errorf("%s = %v, want %s", k, args[k], v)
		}
	}
	if _, ok := decodeArgs(640, 360, 24, 0)["t"]; ok {
		t.Error("open-ended clip got a duration limit")
	}
}
