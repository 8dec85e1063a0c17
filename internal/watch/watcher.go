// Package watch wraps fsnotify with debouncing and path filters, for the
// watch command's rebuild loop.
package watch

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

// Event is a debounced file change.
type Event struct {
	Path string
	Op   fsnotify.Op
}

// Filter reports whether a changed path is interesting.
type Filter func(path string) bool

// Handler receives batches of debounced events.
type Handler func(events []Event)

// Watcher watches for file changes with debouncing, so bursts of writes
// trigger one rebuild instead of many.
type Watcher struct {
	watcher  *fsnotify.Watcher
	debounce time.Duration
	filters  []Filter

	mu      sync.Mutex
	pending []Event
	timer   *time.Timer
	flushed chan []Event
}

// New creates a watcher that groups changes closer together than the
// debounce delay.
func New(debounce time.Duration) (*Watcher, error) {
	inner, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	return &Watcher{
		watcher:  inner,
		debounce: debounce,
		flushed:  make(chan []Event, 1),
	}, nil
}

// AddFilter adds a path filter. An event is kept only when every filter
// accepts it.
func (w *Watcher) AddFilter(filter Filter) {
	w.filters = append(w.filters, filter)
}

// AddPath watches a single file or directory.
func (w *Watcher) AddPath(path string) error {
	return w.watcher.Add(path)
}

// AddRecursive watches a directory and all of its subdirectories.
func (w *Watcher) AddRecursive(root string) error {
	return filepath.Walk(root, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if info.IsDir() {
			if NoGitFilter(path) {
				return w.watcher.Add(path)
			}
			return filepath.SkipDir
		}
		return nil
	})
}

// Close stops the underlying watcher.
func (w *Watcher) Close() error {
	return w.watcher.Close()
}

func (w *Watcher) keep(path string) bool {
	for _, filter := range w.filters {
		if !filter(path) {
			return false
		}
	}
	return true
}

func (w *Watcher) enqueue(event fsnotify.Event) {
	if !w.keep(event.Name) {
		return
	}
	w.mu.Lock()
	defer w.mu.Unlock()
	w.pending = append(w.pending, Event{Path: event.Name, Op: event.Op})
	if w.timer == nil {
		w.timer = time.AfterFunc(w.debounce, w.flush)
	} else {
		w.timer.Reset(w.debounce)
	}
}

func (w *Watcher) flush() {
	w.mu.Lock()
	events := w.pending
	w.pending = nil
	w.timer = nil
	w.mu.Unlock()
	if len(events) == 0 {
		return
	}
	select {
	case w.flushed <- events:
	default:
	}
}

// Watch blocks, delivering debounced event batches to the handler until the
// context is cancelled or the watcher fails.
func (w *Watcher) Watch(ctx context.Context, handler Handler) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case event, ok := <-w.watcher.Events:
			if !ok {
				return nil
			}
			w.enqueue(event)
		case err, ok := <-w.watcher.Errors:
			if !ok {
				return nil
			}
			if err != nil {
				return err
			}
		case events := <-w.flushed:
			handler(events)
		}
	}
}

// NoGitFilter rejects paths inside .git directories.
func NoGitFilter(path string) bool {
	return !strings.Contains(path, string(filepath.Separator)+".git") &&
		filepath.Base(path) != ".git"
}

// NoInternalFilter rejects paths inside the .ginjarator state directory, so
// rebuild outputs don't retrigger the loop.
func NoInternalFilter(path string) bool {
	return !strings.Contains(path, ".ginjarator")
}
