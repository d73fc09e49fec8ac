// Package watch turns filesystem changes under a set of roots into debounced
// rebuild callbacks.
package watch

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"git.home.luguber.info/inful/docshell/internal/logfields"
)

// DefaultQuietWindow is the debounce applied when Options.QuietWindow is zero.
const DefaultQuietWindow = 300 * time.Millisecond

// Options configure a Watcher.
type Options struct {
	Roots       []string
	QuietWindow time.Duration
	// Ignore reports paths whose events are dropped in addition to hidden
	// and editor temp files.
	Ignore func(path string) bool
}

// Watcher runs a callback after changes settle.
type Watcher struct {
	opts Options
	fs   *fsnotify.Watcher

	mu      sync.Mutex
	timer   *time.Timer
	changed map[string]struct{}
	ready   chan struct{}
}

// New creates a watcher over every directory below the given roots. Missing
// roots are skipped.
func New(opts Options) (*Watcher, error) {
	if opts.QuietWindow <= 0 {
		opts.QuietWindow = DefaultQuietWindow
	}
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("fsnotify: %w", err)
	}
	w := &Watcher{opts: opts, fs: fw, changed: map[string]struct{}{}, ready: make(chan struct{})}
	for _, root := range opts.Roots {
		if _, err := os.Stat(root); err != nil {
			continue
		}
		w.addRecursive(root)
	}
	return w, nil
}

// Ready is closed once Run is consuming events.
func (w *Watcher) Ready() <-chan struct{} { return w.ready }

// Run blocks until ctx is done, calling fn with the changed paths after each
// burst of events. A change arriving while fn runs schedules exactly one
// follow-up call.
func (w *Watcher) Run(ctx context.Context, fn func(ctx context.Context, changed []string)) error {
	defer func() { _ = w.fs.Close() }()

	trigger := make(chan struct{}, 1)
	go w.worker(ctx, trigger, fn)
	close(w.ready)

	for {
		select {
		case <-ctx.Done():
			w.mu.Lock()
			if w.timer != nil {
				w.timer.Stop()
			}
			w.mu.Unlock()
			return nil
		case ev, ok := <-w.fs.Events:
			if !ok {
				return nil
			}
			w.handle(ev, trigger)
		case err, ok := <-w.fs.Errors:
			if !ok {
				return nil
			}
			slog.Warn("Watcher error", logfields.Error(err))
		}
	}
}

func (w *Watcher) handle(ev fsnotify.Event, trigger chan struct{}) {
	if shouldIgnore(ev.Name) || (w.opts.Ignore != nil && w.opts.Ignore(ev.Name)) {
		return
	}
	if ev.Op&fsnotify.Create == fsnotify.Create {
		if fi, err := os.Stat(ev.Name); err == nil && fi.IsDir() {
			w.addRecursive(ev.Name)
		}
	}
	slog.Debug("File change detected", logfields.Path(ev.Name), slog.String("op", ev.Op.String()))

	w.mu.Lock()
	defer w.mu.Unlock()
	w.changed[ev.Name] = struct{}{}
	if w.timer != nil {
		w.timer.Stop()
	}
	w.timer = time.AfterFunc(w.opts.QuietWindow, func() {
		select {
		case trigger <- struct{}{}:
		default:
		}
	})
}

func (w *Watcher) drain() []string {
	w.mu.Lock()
	defer w.mu.Unlock()
	out := make([]string, 0, len(w.changed))
	for p := range w.changed {
		out = append(out, p)
	}
	w.changed = map[string]struct{}{}
	return out
}

// worker serializes callbacks. The buffered trigger channel coalesces
// requests that arrive while fn runs into one follow-up.
func (w *Watcher) worker(ctx context.Context, trigger <-chan struct{}, fn func(context.Context, []string)) {
	for {
		select {
		case <-ctx.Done():
			return
		case <-trigger:
			changed := w.drain()
			if len(changed) == 0 {
				continue
			}
			fn(ctx, changed)
		}
	}
}

func (w *Watcher) addRecursive(root string) {
	_ = filepath.WalkDir(root, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return nil
		}
		if d.IsDir() {
			if path != root && (d.Name() == "node_modules" || strings.HasPrefix(d.Name(), ".")) {
				return filepath.SkipDir
			}
			if err := w.fs.Add(path); err != nil {
				slog.Warn("Watch add failed", logfields.Path(path), logfields.Error(err))
			}
		}
		return nil
	})
}

// shouldIgnore drops hidden files, editor swap files and OS metadata.
func shouldIgnore(path string) bool {
	base := filepath.Base(path)
	if strings.HasPrefix(base, ".") {
		return true
	}
	if strings.HasSuffix(base, "~") ||
		strings.HasSuffix(base, ".swp") ||
		strings.HasSuffix(base, ".swx") ||
		strings.HasPrefix(base, "#") && strings.HasSuffix(base, "#") {
		return true
	}
	return base == "Thumbs.db"
}
