// Package watch emits debounced change events for files under a root
// directory, feeding re-runs of the per-file pipeline.
package watch

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/bethropolis/rule-sieve/internal/utils"
)

// eventChannelBuffer is the size of the outgoing event channel.
const eventChannelBuffer = 500

// DefaultDebounce is used when no debounce interval is configured.
const DefaultDebounce = 500 * time.Millisecond

// Op is the kind of change an Event reports.
type Op string

const (
	OpCreate Op = "create"
	OpModify Op = "modify"
	OpDelete Op = "delete"
)

// Event is one debounced file change. Path is slash-separated and relative
// to the watched root; AbsPath is the path on disk.
type Event struct {
	Path    string
	AbsPath string
	Op      Op
}

// Watcher watches a directory tree recursively and emits Events after a
// debounce window, coalescing bursts of writes to the same file.
type Watcher struct {
	rootDir  string
	debounce time.Duration
	excludes map[string]bool
	fsw      *fsnotify.Watcher
	logger   utils.Logger

	pendingMu sync.Mutex
	pending   map[string]fsnotify.Op

	events  chan Event
	dropped atomic.Int64
}

// Option configures a Watcher.
type Option func(*Watcher)

// WithLogger sets a custom logger for the watcher.
func WithLogger(logger utils.Logger) Option {
	return func(w *Watcher) {
		if logger != nil {
			w.logger = logger
		}
	}
}

// WithDebounce sets the debounce window. Non-positive values keep the
// default.
func WithDebounce(d time.Duration) Option {
	return func(w *Watcher) {
		if d > 0 {
			w.debounce = d
		}
	}
}

// WithExcludedDirs sets directory names that are never watched.
func WithExcludedDirs(names []string) Option {
	return func(w *Watcher) {
		w.excludes = make(map[string]bool, len(names))
		for _, name := range names {
			w.excludes[name] = true
		}
	}
}

// New creates a Watcher for rootDir. Call Start to begin watching.
func New(rootDir string, opts ...Option) (*Watcher, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}

	w := &Watcher{
		rootDir:  rootDir,
		debounce: DefaultDebounce,
		excludes: map[string]bool{".git": true, "node_modules": true, "vendor": true},
		fsw:      fsw,
		logger:   &utils.NoopLogger{},
		pending:  make(map[string]fsnotify.Op),
		events:   make(chan Event, eventChannelBuffer),
	}
	for _, opt := range opts {
		opt(w)
	}
	return w, nil
}

// Events returns the channel of debounced change events. It is closed when
// the watcher stops.
func (w *Watcher) Events() <-chan Event {
	return w.events
}

// Start adds recursive watches and begins emitting events until ctx is
// cancelled or Stop is called.
func (w *Watcher) Start(ctx context.Context) error {
	if err := w.addWatchesRecursive(w.rootDir); err != nil {
		return err
	}

	go w.processEvents(ctx)

	w.logger.Debug("Watcher started. Root: %s, Debounce: %s", w.rootDir, w.debounce)
	return nil
}

// Stop closes the underlying fsnotify watcher. The events channel is closed
// by the processing goroutine when it exits.
func (w *Watcher) Stop() error {
	return w.fsw.Close()
}

// Dropped returns the number of events discarded because the channel was
// full.
func (w *Watcher) Dropped() int64 {
	return w.dropped.Load()
}

// addWatchesRecursive adds watches to root and every non-excluded directory
// under it.
func (w *Watcher) addWatchesRecursive(root string) error {
	return filepath.Walk(root, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if !info.IsDir() {
			return nil
		}

		base := filepath.Base(path)
		if path != root && (w.excludes[base] || strings.HasPrefix(base, ".")) {
			return filepath.SkipDir
		}

		if err := w.fsw.Add(path); err != nil {
			w.logger.Warn("Watcher: failed to watch directory %q: %v", path, err)
		} else {
			w.logger.Debug("Watcher: watching directory %q", path)
		}
		return nil
	})
}

// processEvents drains fsnotify and flushes coalesced changes on the
// debounce ticker.
func (w *Watcher) processEvents(ctx context.Context) {
	defer close(w.events)
	ticker := time.NewTicker(w.debounce)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return

		case event, ok := <-w.fsw.Events:
			if !ok {
				return
			}
			w.handleFSEvent(event)

		case err, ok := <-w.fsw.Errors:
			if !ok {
				return
			}
			w.logger.Error("Watcher error: %v", err)

		case <-ticker.C:
			w.flushPending(ctx)
		}
	}
}

// handleFSEvent records one raw fsnotify event for the next flush.
func (w *Watcher) handleFSEvent(event fsnotify.Event) {
	path := event.Name

	// New directories get their own watch; directories never become Events.
	if event.Has(fsnotify.Create) {
		if info, err := os.Stat(path); err == nil && info.IsDir() {
			w.handleNewDirectory(path)
			return
		}
	}

	relPath, err := filepath.Rel(w.rootDir, path)
	if err != nil {
		return
	}
	relPath = filepath.ToSlash(relPath)
	for exclude := range w.excludes {
		if strings.HasPrefix(relPath, exclude+"/") || strings.Contains(relPath, "/"+exclude+"/") {
			return
		}
	}

	w.pendingMu.Lock()
	w.pending[path] |= event.Op
	w.pendingMu.Unlock()

	w.logger.Debug("Watcher: change detected for %q (%s)", relPath, event.Op)
}

// handleNewDirectory starts watching a directory created after Start.
func (w *Watcher) handleNewDirectory(path string) {
	base := filepath.Base(path)
	if w.excludes[base] || strings.HasPrefix(base, ".") {
		return
	}

	if err := w.fsw.Add(path); err != nil {
		w.logger.Warn("Watcher: failed to watch new directory %q: %v", path, err)
	} else {
		w.logger.Debug("Watcher: added watch for new directory %q", path)
	}
}

// flushPending converts accumulated raw events into debounced Events.
func (w *Watcher) flushPending(ctx context.Context) {
	w.pendingMu.Lock()
	if len(w.pending) == 0 {
		w.pendingMu.Unlock()
		return
	}
	toProcess := w.pending
	w.pending = make(map[string]fsnotify.Op)
	w.pendingMu.Unlock()

	for path, op := range toProcess {
		select {
		case <-ctx.Done():
			return
		default:
		}

		relPath, err := filepath.Rel(w.rootDir, path)
		if err != nil {
			continue
		}
		event := Event{Path: filepath.ToSlash(relPath), AbsPath: path}

		switch {
		case op.Has(fsnotify.Remove) || op.Has(fsnotify.Rename):
			event.Op = OpDelete
		case op.Has(fsnotify.Create):
			if _, err := os.Stat(path); os.IsNotExist(err) {
				event.Op = OpDelete
			} else {
				event.Op = OpCreate
			}
		default:
			if _, err := os.Stat(path); os.IsNotExist(err) {
				event.Op = OpDelete
			} else {
				event.Op = OpModify
			}
		}

		w.sendEvent(event)
	}
}

// sendEvent delivers an event without blocking the flush loop.
func (w *Watcher) sendEvent(event Event) {
	select {
	case w.events <- event:
		w.logger.Debug("Watcher: sent event %s %q", event.Op, event.Path)
	default:
		dropped := w.dropped.Add(1)
		w.logger.Warn("Watcher: event channel full, dropping %q (total dropped: %d)", event.Path, dropped)
	}
}
