package timeline

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"io"
	"log"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"

	ffmpeg "github.com/u2takey/ffmpeg-go"
	"golang.org/x/image/draw"
	_ "golang.org/x/image/webp"
)

// Clip is a video event's material and the span it covers.
type Clip struct {
	Path  string
	Start float64 // milliseconds
	End   float64 // milliseconds
}

func (c Clip) still() bool {
	switch strings.ToLower(filepath.Ext(c.Path)) {
	case ".png", ".jpg", ".jpeg", ".gif", ".webp":
		return true
	}
	return false
}

type clipFrames struct {
	frames []*image.RGBA
	done   bool
}

// VideoTimeline serves decoded frames of the clips active at a timestamp.
// Clips decode in the background; ActiveVideo never waits for them.
type VideoTimeline struct {
	// Width and Height are the decoded frame size.
	Width, Height int
	FFmpegPath    string
	// Parallel bounds concurrent ffmpeg processes, 2 when zero.
	Parallel int

	clips []Clip

	mu     sync.RWMutex
	decode []clipFrames
	fps    int
	errs   []error

	wg      sync.WaitGroup
	started bool
}

// NewVideoTimeline collects the video events of events. A clip without a
// duration lasts until the next video event, or the end of the song.
func NewVideoTimeline(events EventList, width, height int) *VideoTimeline {
	videos := events.Filter(KindVideo)
	end := events.Duration()
	clips := make([]Clip, 0, len(videos))
	for i, e := range videos {
		c := Clip{Path: e.Video, Start: e.Time, End: e.End()}
		if e.Duration == 0 {
			c.End = end
			if i+1 < len(videos) {
				c.End = videos[i+1].Time
			}
		}
		clips = append(clips, c)
	}
	return &VideoTimeline{
		Width:  width,
		Height: height,
		clips:  clips,
		decode: make([]clipFrames, len(clips)),
	}
}

// Clips returns the clips in start order.
func (v *VideoTimeline) Clips() []Clip { return v.clips }

// Start decodes every clip at fps in the background. It may be called once.
func (v *VideoTimeline) Start(ctx context.Context, fps int) {
	v.mu.Lock()
	if v.started {
		v.mu.Unlock()
		return
	}
	v.started = true
	v.fps = fps
	v.mu.Unlock()

	parallel := v.Parallel
	if parallel <= 0 {
		parallel = 2
	}
	sem := make(chan struct{}, parallel)
	for i, c := range v.clips {
		v.wg.Add(1)
		go func(i int, c Clip) {
			defer v.wg.Done()
			select {
			case sem <- struct{}{}:
			case <-ctx.Done():
				v.finish(i, ctx.Err())
				return
			}
			defer func() { <-sem }()

			var err error
			if c.still() {
				err = v.decodeStill(i, c)
			} else {
				err = v.decodeVideo(ctx, i, c, fps)
			}
			v.finish(i, err)
		}(i, c)
	}
}

// Wait blocks until every clip has been decoded and returns the decode
// failures.
func (v *VideoTimeline) Wait() error {
	v.wg.Wait()
	v.mu.RLock()
	defer v.mu.RUnlock()
	return errors.Join(v.errs...)
}

// ActiveVideo returns the frame of the latest clip covering ms, or nil when
// no clip is active or its frame has not been decoded yet. A clip shorter
// than its span holds its last frame.
func (v *VideoTimeline) ActiveVideo(ms float64) *image.RGBA {
	v.mu.RLock()
	defer v.mu.RUnlock()
	for i := len(v.clips) - 1; i >= 0; i-- {
		c := v.clips[i]
		if ms < c.Start || ms >= c.End {
			continue
		}
		d := v.decode[i]
		if len(d.frames) == 0 {
			return nil
		}
		if len(d.frames) == 1 && d.done {
			return d.frames[0]
		}
		idx := int((ms - c.Start) * float64(v.fps) / 1000)
		if idx < len(d.frames) {
			return d.frames[idx]
		}
		if d.done {
			return d.frames[len(d.frames)-1]
		}
		return nil
	}
	return nil
}

func (v *VideoTimeline) add(i int, img *image.RGBA) {
	v.mu.Lock()
	v.decode[i].frames = append(v.decode[i].frames, img)
	v.mu.Unlock()
}

func (v *VideoTimeline) finish(i int, err error) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.decode[i].done = true
	if err != nil {
		v.errs = append(v.errs, fmt.Errorf("%s: %w", v.clips[i].Path, err))
		log.Printf("Failed to decode %s: %v", v.clips[i].Path, err)
		return
	}
	log.Printf("Decoded %s: %d frames", v.clips[i].Path, len(v.decode[i].frames))
}

func (v *VideoTimeline) decodeStill(i int, c Clip) error {
	f, err := os.Open(c.Path)
	if err != nil {
		return err
	}
	defer f.Close()
	src, _, err := image.Decode(f)
	if err != nil {
		return err
	}
	dst := image.NewRGBA(image.Rect(0, 0, v.Width, v.Height))
	draw.ApproxBiLinear.Scale(dst, dst.Bounds(), src, src.Bounds(), draw.Src, nil)
	v.add(i, dst)
	return nil
}

func decodeArgs(width, height, fps int, seconds float64) ffmpeg.KwArgs {
	args := ffmpeg.KwArgs{
		"f":       "rawvideo",
		"pix_fmt": "rgba",
		"s":       fmt.Sprintf("%dx%d", width, height),
		"r":       strconv.Itoa(fps),
		"map":     "0:v:0",
	}
	if seconds > 0 {
		args["t"] = strconv.FormatFloat(seconds, 'f', 3, 64)
	}
	return args
}

func (v *VideoTimeline) decodeVideo(ctx context.Context, i int, c Clip, fps int) error {
	if _, err := os.Stat(c.Path); err != nil {
		return err
	}
	pipeReader, pipeWriter := io.Pipe()
	var stderr bytes.Buffer
	cmd := ffmpeg.Input(c.Path).
		Output("pipe:", decodeArgs(v.Width, v.Height, fps, (c.End-c.Start)/1000)).
		WithOutput(pipeWriter).
		WithErrorOutput(&stderr)
	if v.FFmpegPath != "" {
		cmd = cmd.SetFfmpegPath(v.FFmpegPath)
	}

	errc := make(chan error, 1)
	go func() {
		err := cmd.Run()
		pipeWriter.CloseWithError(err)
		errc <- err
	}()

	frameSize := v.Width * v.Height * 4
	var readErr error
	for {
		if err := ctx.Err(); err != nil {
			readErr = err
			break
		}
		img := image.NewRGBA(image.Rect(0, 0, v.Width, v.Height))
		if _, err := io.ReadFull(pipeReader, img.Pix[:frameSize]); err != nil {
			if !errors.Is(err, io.EOF) && !errors.Is(err, io.ErrUnexpectedEOF) {
				readErr = err
			}
			break
		}
		v.add(i, img)
	}
	// Stops ffmpeg if we quit reading early.
	pipeReader.CloseWithError(io.ErrClosedPipe)
	runErr := <-errc
	if err := ctx.Err(); err != nil {
		return err
	}
	if runErr != nil {
		return fmt.Errorf("%w: %s", runErr, strings.TrimSpace(stderr.String()))
	}
	return readErr
}
