// Package watch emits debounced file-change events for a project tree so
// watch mode can keep the loaded listing current. Dot directories and
// configured excluded directories are never registered, and bursts of events
// for one path collapse into a single notification.
package watch

import (
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

// Op represents the kind of change observed
type Op int

const (
	// OpCreated indicates a new file or directory appeared
	OpCreated Op = iota
	// OpModified indicates a file's content changed
	OpModified
	// OpRemoved indicates a file was removed or renamed away
	OpRemoved
)

// String returns a human-readable representation of the operation
func (op Op) String() string {
	switch op {
	case OpCreated:
		return "created"
	case OpModified:
		return "modified"
	case OpRemoved:
		return "removed"
	default:
		return "unknown"
	}
}

// Event is one coalesced change under the watched root
type Event struct {
	Path      string    // Absolute path of the changed entry
	Op        Op        // Kind of change
	Timestamp time.Time // When the event fired
}

// DefaultDebounce is the default window for coalescing rapid changes to the
// same path. Editors often produce several writes per save.
const DefaultDebounce = 250 * time.Millisecond

// Options configures a Watcher.
type Options struct {
	ExcludeDirs []string      // Directory basenames skipped entirely
	Pattern     string        // Optional basename glob; empty matches everything
	Debounce    time.Duration // Coalescing window; zero means DefaultDebounce
}

// Watcher watches a directory tree and reports changes.
type Watcher struct {
	watcher *fsnotify.Watcher
	events  chan Event
	errors  chan error
	done    chan struct{}
	root    string
	pattern string
	exclude map[string]bool

	mu       sync.Mutex
	debounce time.Duration
	timers   map[string]*time.Timer
	pending  map[string]Op
	closed   bool
}

// New creates a Watcher rooted at dir and starts delivering events. The root
// and all non-excluded subdirectories are registered; directories created
// later are picked up as they appear.
func New(dir string, opts Options) (*Watcher, error) {
	if strings.HasPrefix(dir, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, err
		}
		dir = filepath.Join(home, dir[1:])
	}
	dir = filepath.Clean(dir)

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}

	exclude := make(map[string]bool, len(opts.ExcludeDirs))
	for _, name := range opts.ExcludeDirs {
		exclude[name] = true
	}
	debounce := opts.Debounce
	if debounce <= 0 {
		debounce = DefaultDebounce
	}

	w := &Watcher{
		watcher:  fsw,
		events:   make(chan Event, 100),
		errors:   make(chan error, 10),
		done:     make(chan struct{}),
		root:     dir,
		pattern:  opts.Pattern,
		exclude:  exclude,
		debounce: debounce,
		timers:   make(map[string]*time.Timer),
		pending:  make(map[string]Op),
	}

	if err := w.addRecursive(dir); err != nil {
		fsw.Close()
		return nil, err
	}

	go w.run()
	return w, nil
}

// addRecursive registers dir and its subdirectories, skipping excluded ones.
func (w *Watcher) addRecursive(dir string) error {
	return filepath.Walk(dir, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			// A directory vanishing mid-walk is not an error
			if os.IsNotExist(err) {
				return nil
			}
			return err
		}
		if !info.IsDir() {
			return nil
		}
		if w.excluded(path) {
			return filepath.SkipDir
		}
		if err := w.watcher.Add(path); err != nil {
			if os.IsPermission(err) {
				return nil
			}
			return err
		}
		return nil
	})
}

// excluded reports whether path sits in, or is, a skipped directory. Any dot
// component or excluded basename under the root disqualifies the path.
func (w *Watcher) excluded(path string) bool {
	rel, err := filepath.Rel(w.root, path)
	if err != nil || rel == "." {
		return false
	}
	for _, part := range strings.Split(rel, string(filepath.Separator)) {
		if strings.HasPrefix(part, ".") || w.exclude[part] {
			return true
		}
	}
	return false
}

// run pumps fsnotify events until Close.
func (w *Watcher) run() {
	for {
		select {
		case <-w.done:
			return
		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			w.handleEvent(event)
		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			select {
			case w.errors <- err:
			default:
				// Error channel full, drop
			}
		}
	}
}

// handleEvent converts one fsnotify event into a scheduled change.
func (w *Watcher) handleEvent(event fsnotify.Event) {
	path := event.Name
	if w.excluded(path) {
		return
	}

	// New directories join the watch set so their contents report too
	if event.Has(fsnotify.Create) {
		if info, err := os.Stat(path); err == nil && info.IsDir() {
			if err := w.addRecursive(path); err != nil {
				select {
				case w.errors <- err:
				default:
				}
			}
		}
	}

	if !w.matchesPattern(path) {
		return
	}

	var op Op
	switch {
	case event.Has(fsnotify.Create):
		op = OpCreated
	case event.Has(fsnotify.Write):
		op = OpModified
	case event.Has(fsnotify.Remove):
		op = OpRemoved
	case event.Has(fsnotify.Rename):
		// A rename means the watched path is gone
		op = OpRemoved
	default:
		// Chmod-only events never change the listing
		return
	}

	w.schedule(path, op)
}

// matchesPattern checks the configured basename glob.
func (w *Watcher) matchesPattern(path string) bool {
	if w.pattern == "" {
		return true
	}
	matched, err := filepath.Match(w.pattern, filepath.Base(path))
	if err != nil {
		return false
	}
	return matched
}

// schedule coalesces changes per path inside the debounce window. Writes
// right after a create still report a creation; a remove supersedes whatever
// came before it.
func (w *Watcher) schedule(path string, op Op) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.closed {
		return
	}
	if prev, exists := w.pending[path]; exists {
		op = mergeOps(prev, op)
	}
	w.pending[path] = op
	if timer, exists := w.timers[path]; exists {
		timer.Stop()
	}
	w.timers[path] = time.AfterFunc(w.debounce, func() {
		w.mu.Lock()
		final, ok := w.pending[path]
		delete(w.pending, path)
		delete(w.timers, path)
		closed := w.closed
		w.mu.Unlock()
		if ok && !closed {
			w.send(path, final)
		}
	})
}

// mergeOps folds a new change into the pending one for the same path.
func mergeOps(prev, next Op) Op {
	switch {
	case next == OpRemoved:
		return OpRemoved
	case prev == OpCreated:
		return OpCreated
	case prev == OpRemoved && next == OpCreated:
		// Removed and recreated within one window: the content changed
		return OpModified
	default:
		return next
	}
}

// send delivers an event without blocking the pump.
func (w *Watcher) send(path string, op Op) {
	event := Event{
		Path:      path,
		Op:        op,
		Timestamp: time.Now(),
	}
	select {
	case w.events <- event:
	case <-w.done:
	default:
		// Events channel full, drop
	}
}

// Events returns the channel of coalesced change events.
func (w *Watcher) Events() <-chan Event {
	return w.events
}

// Errors returns the channel of watcher errors.
func (w *Watcher) Errors() <-chan error {
	return w.errors
}

// Root returns the watched root directory.
func (w *Watcher) Root() string {
	return w.root
}

// Close stops the watcher and releases resources.
func (w *Watcher) Close() error {
	w.mu.Lock()
	if w.closed {
		w.mu.Unlock()
		return nil
	}
	w.closed = true
	for _, timer := range w.timers {
		timer.Stop()
	}
	w.timers = nil
	w.pending = nil
	w.mu.Unlock()

	close(w.done)
	return w.watcher.Close()
}
