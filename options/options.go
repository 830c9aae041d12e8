// Package options defines the command-line configuration. Every flag may
// also be given in a YAML file passed with -config; the command line wins.
package options

import (
	"errors"
	"flag"
	"fmt"
	"os"
	"sort"

	"github.com/richinsley/songshader/encoder"
	"gopkg.in/yaml.v3"
)

type Options struct {
	Mode       *string
	ShaderFile *string
	EventsFile *string
	ConfigFile *string
	OutputFile *string
	Help       *bool
	Watch      *bool
	Headless   *bool

	Width  *int // window
	Height *int

	ExportWidth  *int
	ExportHeight *int
	FPS          *int
	Bitrate      *int
	Codec        *string
	FFMPEGPath   *string

	NoteCount   *int
	Release     *float64 // note release in milliseconds
	VideoWidth  *int     // decoded clip size
	VideoHeight *int

	fs *flag.FlagSet
}

// Register defines the flags on fs.
func Register(fs *flag.FlagSet) *Options {
	defaults := encoder.DefaultConfig()
	return &Options{
		Mode:       fs.String("mode", "live", "live or export"),
		ShaderFile: fs.String("shader", "", "Fragment shader file; empty shows the default visualizer"),
		EventsFile: fs.String("events", "", "Event list (YAML or JSON)"),
		ConfigFile: fs.String("config", "", "YAML file with default flag values"),
		OutputFile: fs.String("output", "video.mp4", "Exported video file"),
		Help:       fs.Bool("help", false, "Show help message"),
		Watch:      fs.Bool("watch", false, "Reload the shader file when it changes"),
		Headless:   fs.Bool("headless", false, "Export through EGL without a display (Linux)"),

		Width:  fs.Int("width", 1280, "Window width"),
		Height: fs.Int("height", 720, "Window height"),

		ExportWidth:  fs.Int("export-width", defaults.Width, "Exported video width"),
		ExportHeight: fs.Int("export-height", defaults.Height, "Exported video height"),
		FPS:          fs.Int("fps", defaults.FPS, "Exported frames per second"),
		Bitrate:      fs.Int("bitrate", defaults.Bitrate, "Exported video bitrate in bits per second"),
		Codec:        fs.String("codec", defaults.Codec, "Codec identifier, e.g. avc1.420034"),
		FFMPEGPath:   fs.String("ffmpeg", "", "Path to ffmpeg executable"),

		NoteCount:   fs.Int("notes", 128, "Number of note targets passed to the shader"),
		Release:     fs.Float64("release", 0, "Note release time in milliseconds"),
		VideoWidth:  fs.Int("video-width", 640, "Width clips are decoded at"),
		VideoHeight: fs.Int("video-height", 360, "Height clips are decoded at"),

		fs: fs,
	}
}

// LoadFile applies the values in a YAML mapping of flag names to values,
// skipping flags that were set on the command line.
func (o *Options) LoadFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("could not read config: %w", err)
	}
	var values map[string]any
	if err := yaml.Unmarshal(data, &values); err != nil {
		return fmt.Errorf("invalid config %s: %w", path, err)
	}

	set := make(map[string]bool)
	o.fs.Visit(func(f *flag.Flag) { set[f.Name] = true })

	names := make([]string, 0, len(values))
	for name := range values {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		if name == "config" || o.fs.Lookup(name) == nil {
			return fmt.Errorf("config %s: unknown option %q", path, name)
		}
		if set[name] {
			continue
		}
		if err := o.fs.Set(name, fmt.Sprint(values[name])); err != nil {
			return fmt.Errorf("config %s: %w", path, err)
		}
	}
	return nil
}

// Validate checks values the flag package cannot.
func (o *Options) Validate() error {
	var errs []error
	switch *o.Mode {
	case "live":
		if *o.Headless {
			errs = append(errs, errors.New("-headless only works in export mode"))
		}
	case "export":
		if *o.EventsFile == "" {
			errs = append(errs, errors.New("export mode needs -events"))
		}
	default:
		errs = append(errs, fmt.Errorf("unknown mode %q", *o.Mode))
	}
	if *o.NoteCount <= 0 {
		errs = append(errs, fmt.Errorf("notes must be positive, got %d", *o.NoteCount))
	}
	if *o.VideoWidth <= 0 || *o.VideoHeight <= 0 {
		errs = append(errs, fmt.Errorf("invalid clip size %dx%d", *o.VideoWidth, *o.VideoHeight))
	}
	if *o.Release < 0 {
		errs = append(errs, fmt.Errorf("release must not be negative, got %v", *o.Release))
	}
	if err := o.EncoderConfig().Validate(); err != nil {
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}

// EncoderConfig returns the export encoder settings.
func (o *Options) EncoderConfig() encoder.Config {
	return encoder.Config{
		Width:      *o.ExportWidth,
		Height:     *o.ExportHeight,
		FPS:        *o.FPS,
		Bitrate:    *o.Bitrate,
		Codec:      *o.Codec,
		FFmpegPath: *o.FFMPEGPath,
	}
}
