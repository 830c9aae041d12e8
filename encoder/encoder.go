// Package encoder turns rendered frames into an MP4 byte stream by piping raw
// RGBA frames through an ffmpeg process.
package encoder

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	ffmpeg "github.com/u2takey/ffmpeg-go"
)

// EncodingError is an opaque failure reported by the frame encoder.
type EncodingError struct {
	Op  string
	Err error
}

func (e *EncodingError) Error() string {
	return fmt.Sprintf("encoder: %s: %v", e.Op, e.Err)
}

func (e *EncodingError) Unwrap() error { return e.Err }

var errAborted = errors.New("encoding aborted")

// FrameEncoder consumes frames in timestamp order and produces a finished
// media buffer. Exactly one of End or Abort must be called.
type FrameEncoder interface {
	AddFrame(f *Frame) error
	End() ([]byte, error)
	Abort()
}

var _ FrameEncoder = (*FFmpegEncoder)(nil)

// Config describes the produced video stream.
type Config struct {
	Width      int
	Height     int
	FPS        int
	Bitrate    int // bits per second
	Codec      string
	FFmpegPath string
}

// DefaultConfig is 1080p at 24 fps, 15 Mbps H.264 baseline, level 5.2.
func DefaultConfig() Config {
	return Config{
		Width:   1920,
		Height:  1080,
		FPS:     24,
		Bitrate: 15_000_000,
		Codec:   "avc1.420034",
	}
}

// Validate reports settings ffmpeg cannot encode.
func (c Config) Validate() error {
	if c.Width <= 0 || c.Height <= 0 {
		return fmt.Errorf("invalid video size %dx%d", c.Width, c.Height)
	}
	if c.Width%2 != 0 || c.Height%2 != 0 {
		return fmt.Errorf("video size %dx%d must be even for yuv420p", c.Width, c.Height)
	}
	if c.FPS <= 0 {
		return fmt.Errorf("invalid framerate %d", c.FPS)
	}
	if c.Bitrate <= 0 {
		return fmt.Errorf("invalid bitrate %d", c.Bitrate)
	}
	if _, err := ParseCodec(c.Codec); err != nil {
		return err
	}
	return nil
}

func inputArgs(cfg Config) ffmpeg.KwArgs {
	return ffmpeg.KwArgs{
		"f":       "rawvideo",
		"pix_fmt": "rgba",
		"s":       fmt.Sprintf("%dx%d", cfg.Width, cfg.Height),
		"r":       strconv.Itoa(cfg.FPS),
	}
}

func outputArgs(cfg Config, p Profile) ffmpeg.KwArgs {
	args := ffmpeg.KwArgs{
		// GL reads rows bottom-up.
		"vf":      "vflip",
		"c:v":     p.Encoder,
		"b:v":     strconv.Itoa(cfg.Bitrate),
		"pix_fmt": "yuv420p",
		"r":       strconv.Itoa(cfg.FPS),
		"f":       "mp4",
		// A seekable output is not available on a pipe.
		"movflags": "frag_keyframe+empty_moov+default_base_moof",
	}
	if p.Profile != "" {
		args["profile:v"] = p.Profile
	}
	if p.Level != "" {
		args["level"] = p.Level
	}
	if p.Encoder == "libx265" {
		args["tag:v"] = "hvc1"
	}
	return args
}

// FFmpegEncoder feeds frames to an ffmpeg child process and collects the
// muxed MP4 in memory.
type FFmpegEncoder struct {
	cfg     Config
	profile Profile

	pipeWriter *io.PipeWriter
	out        bytes.Buffer
	stderr     bytes.Buffer
	done       chan error

	frames        int
	lastTimestamp int64
	finished      bool
}

// NewFFmpegEncoder starts ffmpeg. The returned encoder must be finished
// with End or Abort.
func NewFFmpegEncoder(cfg Config) (*FFmpegEncoder, error) {
	if err := cfg.Validate(); err != nil {
		return nil, &EncodingError{Op: "configure", Err: err}
	}
	profile, _ := ParseCodec(cfg.Codec)

	pipeReader, pipeWriter := io.Pipe()
	e := &FFmpegEncoder{
		cfg:           cfg,
		profile:       profile,
		pipeWriter:    pipeWriter,
		done:          make(chan error, 1),
		lastTimestamp: -1,
	}

	ffmpegCmd := ffmpeg.Input("pipe:", inputArgs(cfg)).
		Output("pipe:", outputArgs(cfg, profile)).
		WithInput(pipeReader).
		WithOutput(&e.out).
		WithErrorOutput(&e.stderr)
	if cfg.FFmpegPath != "" {
		ffmpegCmd = ffmpegCmd.SetFfmpegPath(cfg.FFmpegPath)
	}

	log.Printf("Starting %s encoder: %dx%d @ %d fps, %d bps, profile %q level %q",
		profile.Encoder, cfg.Width, cfg.Height, cfg.FPS, cfg.Bitrate, profile.Profile, profile.Level)
	go func() {
		err := ffmpegCmd.Run()
		// Unblock a producer stuck writing to a process that has gone away.
		if err != nil {
			pipeReader.CloseWithError(err)
		} else {
			pipeReader.CloseWithError(io.ErrClosedPipe)
		}
		e.done <- err
	}()
	return e, nil
}

// AddFrame writes one frame. Frames must arrive in increasing timestamp order.
func (e *FFmpegEncoder) AddFrame(f *Frame) error {
	if e.finished {
		return &EncodingError{Op: "add frame", Err: errors.New("encoder already finished")}
	}
	if f.Width != e.cfg.Width || f.Height != e.cfg.Height {
		return &EncodingError{Op: "add frame", Err: fmt.Errorf("frame is %dx%d, stream is %dx%d", f.Width, f.Height, e.cfg.Width, e.cfg.Height)}
	}
	if f.Timestamp <= e.lastTimestamp {
		return &EncodingError{Op: "add frame", Err: fmt.Errorf("timestamp %dus does not follow %dus", f.Timestamp, e.lastTimestamp)}
	}
	if _, err := e.pipeWriter.Write(f.Pixels); err != nil {
		return &EncodingError{Op: "add frame", Err: e.withStderr(err)}
	}
	e.lastTimestamp = f.Timestamp
	e.frames++
	return nil
}

// End flushes the encoder and returns the finished MP4.
func (e *FFmpegEncoder) End() ([]byte, error) {
	if e.finished {
		return nil, &EncodingError{Op: "finalize", Err: errors.New("encoder already finished")}
	}
	e.finished = true
	e.pipeWriter.Close()
	if err := <-e.done; err != nil {
		return nil, &EncodingError{Op: "finalize", Err: e.withStderr(err)}
	}
	log.Printf("Encoder finished: %d frames, %d bytes", e.frames, e.out.Len())
	return e.out.Bytes(), nil
}

// Abort stops ffmpeg and discards its output.
func (e *FFmpegEncoder) Abort() {
	if e.finished {
		return
	}
	e.finished = true
	e.pipeWriter.CloseWithError(errAborted)
	<-e.done
}

func (e *FFmpegEncoder) withStderr(err error) error {
	msg := strings.TrimSpace(e.stderr.String())
	if msg == "" {
		return err
	}
	// The last lines carry ffmpeg's actual complaint.
	lines := strings.Split(msg, "\n")
	if len(lines) > 5 {
		lines = lines[len(lines)-5:]
	}
	return fmt.Errorf("%w: %s", err, strings.Join(lines, "; "))
}

// Save writes an exported video to path, creating parent directories.
func Save(path string, data []byte) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("could not create output directory %s: %w", dir, err)
		}
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("could not write %s: %w", path, err)
	}
	log.Printf("Saved %s (%d bytes)", path, len(data))
	return nil
}
