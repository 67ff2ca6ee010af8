// file: internal/watcher/watcher.go
// version: 2.1.0
// guid: b2c3d4e5-f6a7-8901-bcde-f23456789012

package watcher

import (
	"log"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

// importExtensions are the file extensions we care about.
var importExtensions = map[string]bool{
	".json": true,
	".tsv":  true,
}

// DefaultDebounce is the default debounce period.
const DefaultDebounce = 2 * time.Second

// Callback is invoked after the debounce period with the files that
// changed since the last invocation, in arrival order.
type Callback func(paths []string)

// Watcher monitors a drop directory for interchange files and invokes a
// callback after a debounce period.
type Watcher struct {
	fsWatcher *fsnotify.Watcher
	dir       string
	debounce  time.Duration
	callback  Callback
	stop      chan struct{}
	stopped   chan struct{}
	mu        sync.Mutex
	timer     *time.Timer
	pending   []string
	seen      map[string]bool
	running   bool
}

// New creates a Watcher. The callback is called with the changed file
// paths after events settle for the debounce duration. Pass 0 for
// debounce to use DefaultDebounce.
func New(callback Callback, debounce time.Duration) *Watcher {
	if debounce <= 0 {
		debounce = DefaultDebounce
	}
	return &Watcher{
		debounce: debounce,
		callback: callback,
		stop:     make(chan struct{}),
		stopped:  make(chan struct{}),
		seen:     make(map[string]bool),
	}
}

// Start begins watching dir. It is safe to call only once.
func (w *Watcher) Start(dir string) error {
	w.mu.Lock()
	if w.running {
		w.mu.Unlock()
		return nil
	}
	w.running = true
	w.mu.Unlock()

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	w.fsWatcher = fsw
	w.dir = dir

	if err := fsw.Add(dir); err != nil {
		fsw.Close()
		return err
	}

	go w.eventLoop()
	return nil
}

// Stop gracefully shuts down the watcher and waits for the event loop to exit.
func (w *Watcher) Stop() {
	w.mu.Lock()
	if !w.running {
		w.mu.Unlock()
		return
	}
	w.running = false
	w.mu.Unlock()

	close(w.stop)
	if w.fsWatcher != nil {
		w.fsWatcher.Close()
	}
	<-w.stopped

	w.mu.Lock()
	if w.timer != nil {
		w.timer.Stop()
		w.timer = nil
	}
	w.mu.Unlock()
}

func (w *Watcher) eventLoop() {
	defer close(w.stopped)

	for {
		select {
		case <-w.stop:
			return
		case event, ok := <-w.fsWatcher.Events:
			if !ok {
				return
			}
			w.handleEvent(event)
		case err, ok := <-w.fsWatcher.Errors:
			if !ok {
				return
			}
			log.Printf("[ERROR] watcher: %v", err)
		}
	}
}

func (w *Watcher) handleEvent(event fsnotify.Event) {
	relevant := event.Op&(fsnotify.Create|fsnotify.Write|fsnotify.Rename) != 0
	if !relevant {
		return
	}
	if !IsImportFile(event.Name) {
		return
	}
	w.schedule(event.Name)
}

func (w *Watcher) schedule(path string) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if !w.seen[path] {
		w.seen[path] = true
		w.pending = append(w.pending, path)
	}

	if w.timer != nil {
		w.timer.Reset(w.debounce)
		return
	}

	w.timer = time.AfterFunc(w.debounce, func() {
		w.mu.Lock()
		paths := w.pending
		w.pending = nil
		w.seen = make(map[string]bool)
		w.timer = nil
		w.mu.Unlock()

		if len(paths) == 0 {
			return
		}
		log.Printf("[INFO] watcher: %d file(s) settled in %s", len(paths), w.dir)
		if w.callback != nil {
			w.callback(paths)
		}
	})
}

// IsImportFile reports whether name has a recognized interchange extension.
func IsImportFile(name string) bool {
	ext := strings.ToLower(filepath.Ext(name))
	return importExtensions[ext]
}
