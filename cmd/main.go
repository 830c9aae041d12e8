package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"runtime"

	glfw "github.com/go-gl/glfw/v3.3/glfw"
	"github.com/richinsley/songshader/clock"
	"github.com/richinsley/songshader/encoder"
	"github.com/richinsley/songshader/fallback"
	"github.com/richinsley/songshader/glfwcontext"
	"github.com/richinsley/songshader/graphics"
	"github.com/richinsley/songshader/graphics/gl41"
	"github.com/richinsley/songshader/headless"
	"github.com/richinsley/songshader/options"
	"github.com/richinsley/songshader/progress"
	"github.com/richinsley/songshader/renderer"
	"github.com/richinsley/songshader/timeline"
	"github.com/richinsley/songshader/translator"
)

func init() {
	runtime.LockOSThread()
}

func readShader(path string) (string, error) {
	if path == "" {
		return "", nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("could not read shader: %w", err)
	}
	return string(data), nil
}

func exportVideo(ctx context.Context, v *renderer.Visualizer, video *timeline.VideoTimeline, events timeline.EventList, opts *options.Options) error {
	if len(video.Clips()) > 0 {
		log.Printf("Waiting for %d video clips to decode...", len(video.Clips()))
		if err := video.Wait(); err != nil {
			log.Printf("Warning: some clips could not be decoded: %v", err)
		}
	}
	data, err := v.Export(ctx, events, opts.EncoderConfig())
	if err != nil {
		return err
	}
	return encoder.Save(*opts.OutputFile, data)
}

func main() {
	opts := options.Register(flag.CommandLine)
	flag.Parse()

	if *opts.Help {
		fmt.Println("songshader: shader visualizer and video exporter")
		flag.PrintDefaults()
		return
	}
	if *opts.ConfigFile != "" {
		if err := opts.LoadFile(*opts.ConfigFile); err != nil {
			log.Fatalf("Error loading config: %v", err)
		}
	}
	if err := opts.Validate(); err != nil {
		log.Fatalf("Invalid options: %v", err)
	}

	var events timeline.EventList
	if *opts.EventsFile != "" {
		var err error
		events, err = timeline.Load(*opts.EventsFile)
		if err != nil {
			log.Fatalf("Error loading events: %v", err)
		}
		log.Printf("Loaded %d events from %s", len(events), *opts.EventsFile)
	}
	source, err := readShader(*opts.ShaderFile)
	if err != nil {
		log.Fatalf("%v", err)
	}

	live := *opts.Mode == "live"
	var (
		window graphics.Context
		gl     graphics.GL
		tr     translator.Translator
		keys   *glfwcontext.Context
	)
	if *opts.Headless {
		window, err = headless.New(*opts.Width, *opts.Height)
		if err != nil {
			log.Fatalf("Failed to create headless context: %v", err)
		}
		defer window.Shutdown()
		tr, err = translator.NewESSL()
	} else {
		if err := glfwcontext.InitGraphics(); err != nil {
			log.Fatalf("Failed to initialize GLFW: %v", err)
		}
		defer glfwcontext.TerminateGraphics()
		keys, err = glfwcontext.New(*opts.Width, *opts.Height, "songshader", live)
		if err != nil {
			log.Fatalf("Failed to create window: %v", err)
		}
		defer keys.Shutdown()
		window = keys
		tr, err = translator.NewGLSL410()
	}
	if err != nil {
		log.Fatalf("Failed to create shader translator: %v", err)
	}
	gl, err = gl41.New()
	if err != nil {
		log.Fatalf("%v", err)
	}

	runCtx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	sharedClock := clock.NewSwappable(clock.NewLive(window.Time))
	notes := timeline.NewNoteStates(events, *opts.NoteCount, sharedClock)
	notes.Release = *opts.Release
	video := timeline.NewVideoTimeline(events, *opts.VideoWidth, *opts.VideoHeight)
	video.FFmpegPath = *opts.FFMPEGPath
	video.Start(runCtx, *opts.FPS)

	v, err := renderer.New(renderer.Config{
		GL:         gl,
		Context:    window,
		Translator: tr,
		Notes:      notes,
		Video:      video,
		Clock:      sharedClock,
		Progress:   progress.NewLog("Exporting"),
		Fallback:   fallback.NewBars(*opts.Width, *opts.Height),
	})
	if err != nil {
		log.Fatalf("Failed to create visualizer: %v", err)
	}
	defer v.Close()

	if err := v.SetShaderSource(source); err != nil {
		log.Fatalf("Failed to build shader: %v", err)
	}

	if !live {
		if err := exportVideo(runCtx, v, video, events, opts); err != nil {
			log.Fatalf("Export failed: %v", err)
		}
		log.Printf("Successfully exported %s", *opts.OutputFile)
		return
	}

	reload := func() error {
		src, err := readShader(*opts.ShaderFile)
		if err != nil {
			return err
		}
		return v.SetShaderSource(src)
	}
	keys.RegisterKeyCallback(glfw.KeyR, func() {
		v.Scheduler().RequestFrame(func() {
			if err := reload(); err != nil {
				log.Printf("Shader reload failed: %v", err)
				return
			}
			log.Println("Shader reloaded")
		})
	})
	keys.RegisterKeyCallback(glfw.KeyE, func() {
		v.Scheduler().RequestFrame(func() {
			if len(events) == 0 {
				log.Println("Nothing to export: no events loaded")
				return
			}
			if err := exportVideo(runCtx, v, video, events, opts); err != nil {
				log.Printf("Export failed: %v", err)
				return
			}
			log.Printf("Successfully exported %s", *opts.OutputFile)
		})
	})
	if *opts.Watch && *opts.ShaderFile != "" {
		w, err := newShaderWatcher(*opts.ShaderFile, reload, v.Scheduler())
		if err != nil {
			log.Printf("Warning: not watching shader: %v", err)
		} else {
			defer w.Close()
		}
	}

	log.Println("Starting interactive render loop (E: export, R: reload, Esc: quit)...")
	if err := v.Run(runCtx); err != nil && !errors.Is(err, context.Canceled) {
		log.Fatalf("Render loop failed: %v", err)
	}
}
