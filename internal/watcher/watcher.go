// Package watcher re-runs pipelines when their source CSV changes on disk.
package watcher

import (
	"context"
	"errors"
	"fmt"
	"log"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

const DefaultDebounce = 500 * time.Millisecond

// Trigger runs a pipeline after its source settled.
type Trigger func(ctx context.Context, pipeline string) error

// SourceWatcher watches the directories of pipeline sources and fires the
// trigger once writes to a source stop for the debounce interval.
type SourceWatcher struct {
	watcher  *fsnotify.Watcher
	trigger  Trigger
	debounce time.Duration

	// absolute source path -> pipeline names reading it
	sources map[string][]string
	dirs    map[string]bool

	mu     sync.Mutex
	timers map[string]*time.Timer
	closed bool
	wg     sync.WaitGroup
}

// NewSourceWatcher creates a watcher. A non-positive debounce falls back to
// DefaultDebounce.
func NewSourceWatcher(trigger Trigger, debounce time.Duration) (*SourceWatcher, error) {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create watcher: %w", err)
	}
	if debounce <= 0 {
		debounce = DefaultDebounce
	}
	return &SourceWatcher{
		watcher:  w,
		trigger:  trigger,
		debounce: debounce,
		sources:  make(map[string][]string),
		dirs:     make(map[string]bool),
		timers:   make(map[string]*time.Timer),
	}, nil
}

// Add registers a pipeline's source file. The file itself does not need to
// exist yet, only its directory; editors that replace files on save would
// otherwise drop a watch on the file.
func (w *SourceWatcher) Add(pipeline, sourcePath string) error {
	if sourcePath == "" {
		return fmt.Errorf("pipeline %s: empty source path", pipeline)
	}
	abs, err := filepath.Abs(sourcePath)
	if err != nil {
		return err
	}

	dir := filepath.Dir(abs)
	if !w.dirs[dir] {
		if err := w.watcher.Add(dir); err != nil {
			return fmt.Errorf("watch %s: %w", dir, err)
		}
		w.dirs[dir] = true
	}

	w.sources[abs] = append(w.sources[abs], pipeline)
	log.Printf("[WATCH] %s -> %s", abs, pipeline)
	return nil
}

// Watched returns the number of registered source files.
func (w *SourceWatcher) Watched() int {
	return len(w.sources)
}

// Run processes events until ctx is cancelled, then waits for in-flight
// triggers and closes the underlying watcher.
func (w *SourceWatcher) Run(ctx context.Context) error {
	defer func() {
		w.stopTimers()
		w.wg.Wait()
		w.watcher.Close()
	}()

	for {
		select {
		case <-ctx.Done():
			return nil
		case event, ok := <-w.watcher.Events:
			if !ok {
				return nil
			}
			w.handle(ctx, event)
		case err, ok := <-w.watcher.Errors:
			if !ok {
				return nil
			}
			if errors.Is(err, fsnotify.ErrEventOverflow) {
				log.Printf("[WATCH] event overflow, re-running all pipelines")
				for path := range w.sources {
					w.schedule(ctx, path)
				}
				continue
			}
			log.Printf("[WATCH] error: %v", err)
		}
	}
}

func (w *SourceWatcher) handle(ctx context.Context, event fsnotify.Event) {
	if !event.Has(fsnotify.Create) && !event.Has(fsnotify.Write) {
		return
	}
	path, err := filepath.Abs(event.Name)
	if err != nil {
		return
	}
	if _, ok := w.sources[path]; !ok {
		return
	}
	w.schedule(ctx, path)
}

func (w *SourceWatcher) schedule(ctx context.Context, path string) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.closed {
		return
	}
	if t, ok := w.timers[path]; ok {
		t.Reset(w.debounce)
		return
	}

	w.timers[path] = time.AfterFunc(w.debounce, func() {
		w.mu.Lock()
		delete(w.timers, path)
		if w.closed {
			w.mu.Unlock()
			return
		}
		w.wg.Add(1)
		w.mu.Unlock()
		defer w.wg.Done()

		if ctx.Err() != nil {
			return
		}
		for _, name := range w.sources[path] {
			log.Printf("[WATCH] %s changed, running %s", filepath.Base(path), name)
			if err := w.trigger(ctx, name); err != nil {
				log.Printf("[WATCH] %s failed: %v", name, err)
			}
		}
	})
}

func (w *SourceWatcher) stopTimers() {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.closed = true
	for path, t := range w.timers {
		t.Stop()
		delete(w.timers, path)
	}
}
