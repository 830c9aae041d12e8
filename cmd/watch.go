package main

import (
	"errors"
	"fmt"
	"log"
	"path/filepath"
	"sync/atomic"

	"github.com/fsnotify/fsnotify"
	"github.com/richinsley/songshader/renderer"
)

// shaderWatcher reloads the shader file when it changes on disk. Events
// arrive on the fsnotify goroutine and are handed to the frame scheduler, so
// reloads happen on the GL thread.
type shaderWatcher struct {
	path      string
	reload    func() error
	scheduler *renderer.Scheduler
	watcher   *fsnotify.Watcher
	queued    atomic.Bool
	done      chan struct{}
}

// newShaderWatcher watches the directory holding path, since editors often
// replace a file instead of writing it in place.
func newShaderWatcher(path string, reload func() error, s *renderer.Scheduler) (*shaderWatcher, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, err
	}
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create file watcher: %w", err)
	}
	if err := fw.Add(filepath.Dir(abs)); err != nil {
		fw.Close()
		return nil, fmt.Errorf("failed to watch %s: %w", path, err)
	}
	w := &shaderWatcher{
		path:      abs,
		reload:    reload,
		scheduler: s,
		watcher:   fw,
		done:      make(chan struct{}),
	}
	go w.run()
	return w, nil
}

func (w *shaderWatcher) run() {
	defer close(w.done)
	for {
		select {
		case ev, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if filepath.Clean(ev.Name) != w.path || !ev.Has(fsnotify.Write|fsnotify.Create) {
				continue
			}
			// Bursts of writes collapse into one reload.
			if w.queued.CompareAndSwap(false, true) {
				w.scheduler.RequestFrame(w.apply)
			}
		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			log.Printf("Shader watcher error: %v", err)
		}
	}
}

func (w *shaderWatcher) apply() {
	w.queued.Store(false)
	err := w.reload()
	if errors.Is(err, renderer.ErrExportInProgress) {
		// Retry once the export is done.
		if w.queued.CompareAndSwap(false, true) {
			w.scheduler.RequestFrame(w.apply)
		}
		return
	}
	if err != nil {
		log.Printf("Shader reload failed: %v", err)
		return
	}
	log.Printf("Reloaded %s", w.path)
}

// Close stops watching.
func (w *shaderWatcher) Close() error {
	err := w.watcher.Close()
	<-w.done
	return err
}
