// Package loader owns resilient loading of directory listings: request
// de-duplication, cancellation, and retry with backoff. It converts the raw
// absolute paths a listing backend returns into file records keyed by
// project-relative path, ready for selection reconciliation.
package loader

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/harrison/curator/internal/listing"
	"github.com/harrison/curator/internal/models"
	"github.com/harrison/curator/internal/pathutil"
)

const (
	// defaultMaxRetries is how many consecutive failed fetch attempts are
	// made before the loader settles into a terminal state
	defaultMaxRetries = 3
	// defaultEmptyRetryBase is the backoff base when a listing succeeds but
	// contains no files
	defaultEmptyRetryBase = time.Second
	// defaultErrorRetryBase is the backoff base when a listing fails outright
	defaultErrorRetryBase = 1500 * time.Millisecond
)

// Logger is the subset of logging used by the loader.
type Logger interface {
	LogDebug(message string)
	LogInfo(message string)
	LogWarn(message string)
}

// nopLogger drops all messages; used when no logger is supplied
type nopLogger struct{}

func (nopLogger) LogDebug(string) {}
func (nopLogger) LogInfo(string)  {}
func (nopLogger) LogWarn(string)  {}

// Options configures a Loader. Zero values select the defaults.
type Options struct {
	// IncludeStats requests per-file sizes from the backend
	IncludeStats bool
	// Pattern is an optional regex forwarded to the backend
	Pattern string
	// MaxRetries caps consecutive failed attempts per load (default 3)
	MaxRetries int
	// EmptyRetryBase is the backoff base for empty listings (default 1s)
	EmptyRetryBase time.Duration
	// ErrorRetryBase is the backoff base for listing errors (default 1.5s)
	ErrorRetryBase time.Duration
	// Logger receives progress messages; nil discards them
	Logger Logger
}

// inflight tracks a load in progress for one normalized directory. Callers
// requesting the same directory wait on done and share the settled result.
type inflight struct {
	done chan struct{}
	ok   bool
}

// Loader fetches directory listings through a Lister and keeps load state for
// the most recently requested directory. Loads for the same normalized
// directory are de-duplicated; a load for a different directory or a refresh
// aborts the one in progress. All methods are safe for concurrent use.
type Loader struct {
	lister listing.Lister
	log    Logger

	includeStats   bool
	pattern        string
	maxRetries     int
	emptyRetryBase time.Duration
	errorRetryBase time.Duration

	// sleep waits out a backoff delay, returning false when the context is
	// cancelled first. Swapped out in tests.
	sleep func(ctx context.Context, d time.Duration) bool

	mu        sync.Mutex
	inflight  map[string]*inflight
	cancels   map[string]context.CancelFunc
	activeDir string           // directory with a load in progress, "" otherwise
	stateDir  string           // directory the current state belongs to
	state     models.LoadState // state for stateDir
}

// New creates a Loader that fetches listings through the given backend.
func New(lister listing.Lister, opts Options) *Loader {
	log := opts.Logger
	if log == nil {
		log = nopLogger{}
	}
	maxRetries := opts.MaxRetries
	if maxRetries <= 0 {
		maxRetries = defaultMaxRetries
	}
	emptyBase := opts.EmptyRetryBase
	if emptyBase <= 0 {
		emptyBase = defaultEmptyRetryBase
	}
	errorBase := opts.ErrorRetryBase
	if errorBase <= 0 {
		errorBase = defaultErrorRetryBase
	}

	return &Loader{
		lister:         lister,
		log:            log,
		includeStats:   opts.IncludeStats,
		pattern:        opts.Pattern,
		maxRetries:     maxRetries,
		emptyRetryBase: emptyBase,
		errorRetryBase: errorBase,
		sleep:          sleepWithContext,
		inflight:       make(map[string]*inflight),
		cancels:        make(map[string]context.CancelFunc),
	}
}

// sleepWithContext waits for d, returning false when ctx is cancelled first.
func sleepWithContext(ctx context.Context, d time.Duration) bool {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-timer.C:
		return true
	case <-ctx.Done():
		return false
	}
}

// State returns a copy of the load state for the current directory.
func (l *Loader) State() models.LoadState {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.state.Clone()
}

// Directory returns the normalized directory the loader currently tracks.
func (l *Loader) Directory() string {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.stateDir
}

// Load fetches the listing for dir and rebuilds the file record map. It
// returns true on success and false on failure or when the load was aborted;
// the error detail, if any, is recorded in the load state rather than
// returned. Concurrent calls for the same directory share one fetch, and a
// call for a different directory aborts the load in progress.
func (l *Loader) Load(ctx context.Context, dir string) bool {
	normalized := pathutil.NormalizeDirectory(dir)
	if normalized == "" || normalized == "." {
		l.log.LogWarn(fmt.Sprintf("Ignoring load request for empty directory %q", dir))
		return false
	}

	l.mu.Lock()
	if fl, ok := l.inflight[normalized]; ok {
		// Join the fetch already running for this directory
		l.mu.Unlock()
		<-fl.done
		return fl.ok
	}

	// A load for a different directory is superseded by this one
	if l.activeDir != "" && l.activeDir != normalized {
		if cancel, ok := l.cancels[l.activeDir]; ok {
			cancel()
		}
	}

	loadCtx, cancel := context.WithCancel(ctx)
	l.cancels[normalized] = cancel
	l.activeDir = normalized

	fl := &inflight{done: make(chan struct{})}
	l.inflight[normalized] = fl

	if l.stateDir != normalized {
		// New directory: fresh state, initialization pending
		l.stateDir = normalized
		l.state = models.LoadState{Loading: true}
	} else {
		l.state.Loading = true
		l.state.Err = ""
		l.state.RetryCount = 0
	}
	l.mu.Unlock()

	l.log.LogDebug(fmt.Sprintf("Loading directory %s", normalized))
	ok := l.run(loadCtx, normalized)

	l.mu.Lock()
	fl.ok = ok
	close(fl.done)
	// Identity-checked cleanup: a Reset may have replaced the tables while
	// this load was settling
	if cur, found := l.inflight[normalized]; found && cur == fl {
		delete(l.inflight, normalized)
		delete(l.cancels, normalized)
	}
	if l.activeDir == normalized {
		l.activeDir = ""
	}
	l.mu.Unlock()
	cancel()

	return ok
}

// Refresh aborts any load in progress for dir and starts a fresh one. With
// preserveState false the cached file map is dropped first, so a refresh that
// fails cannot leave a stale listing behind. An empty dir refreshes whichever
// directory was loaded last; returns false when there is none.
func (l *Loader) Refresh(ctx context.Context, dir string, preserveState bool) bool {
	l.mu.Lock()
	normalized := pathutil.NormalizeDirectory(dir)
	if normalized == "" || normalized == "." {
		normalized = l.stateDir
	}
	if normalized == "" {
		l.mu.Unlock()
		return false
	}
	if cancel, ok := l.cancels[normalized]; ok {
		cancel()
	}
	var settled chan struct{}
	if fl, ok := l.inflight[normalized]; ok {
		settled = fl.done
	}
	if !preserveState && l.stateDir == normalized {
		l.state.Files = nil
	}
	l.mu.Unlock()

	// Let the aborted load settle before starting over, so the new load does
	// not join it
	if settled != nil {
		<-settled
	}
	return l.Load(ctx, normalized)
}

// Reset aborts every load in progress and clears the dedup table, the
// cancellation tokens, and the cached state. Intended for session teardown.
func (l *Loader) Reset() {
	l.mu.Lock()
	defer l.mu.Unlock()
	for _, cancel := range l.cancels {
		cancel()
	}
	l.inflight = make(map[string]*inflight)
	l.cancels = make(map[string]context.CancelFunc)
	l.activeDir = ""
	l.stateDir = ""
	l.state = models.LoadState{}
}

// run executes the fetch-retry loop for one directory. It returns true only
// when a listing was fetched and converted into records.
func (l *Loader) run(ctx context.Context, dir string) bool {
	retryCount := 0
	for {
		records, err := l.fetchRecords(ctx, dir)
		if ctx.Err() != nil {
			// Aborted loads settle as a clean no-op
			l.finishAborted(dir)
			return false
		}

		if err == nil && len(records) > 0 {
			if l.finishSuccess(dir, records) {
				l.log.LogInfo(fmt.Sprintf("Loaded %d files from %s", len(records), dir))
			}
			return true
		}

		retryCount++
		terminal := retryCount >= l.maxRetries

		var base time.Duration
		message := ""
		if err != nil {
			base = l.errorRetryBase
			message = err.Error()
			l.log.LogWarn(fmt.Sprintf("Listing %s failed (attempt %d/%d): %v", dir, retryCount, l.maxRetries, err))
		} else {
			base = l.emptyRetryBase
			l.log.LogDebug(fmt.Sprintf("Listing %s returned no files (attempt %d/%d)", dir, retryCount, l.maxRetries))
		}

		if terminal {
			l.finishExhausted(dir, retryCount, message, err == nil)
			return false
		}
		l.recordRetry(dir, retryCount, message)

		delay := base << (retryCount - 1)
		if !l.sleep(ctx, delay) {
			l.finishAborted(dir)
			return false
		}
	}
}

// fetchRecords fetches the raw listing and converts its absolute paths into
// records keyed by project-relative path. Paths that cannot be made relative
// to dir are skipped; when more paths are skipped than processed the whole
// listing is rejected rather than returned as a near-empty map.
func (l *Loader) fetchRecords(ctx context.Context, dir string) (map[string]models.FileRecord, error) {
	resp, err := l.lister.List(ctx, listing.Request{
		Directory:    dir,
		IncludeStats: l.includeStats,
		Pattern:      l.pattern,
	})
	if err != nil {
		return nil, err
	}

	records := make(map[string]models.FileRecord, len(resp.Files))
	skipped := 0
	for i, abs := range resp.Files {
		rel, ok := pathutil.MakeRelative(abs, dir)
		if !ok {
			skipped++
			continue
		}
		record := models.FileRecord{
			Path:           rel,
			ComparablePath: pathutil.NormalizeForComparison(rel),
		}
		if i < len(resp.Stats) {
			record.Size = resp.Stats[i].Size
		}
		records[rel] = record
	}

	if skipped > len(records) {
		return nil, fmt.Errorf("failed to relativize %d of %d listed paths under %s", skipped, len(resp.Files), dir)
	}
	if skipped > 0 {
		l.log.LogWarn(fmt.Sprintf("Skipped %d listed paths outside %s", skipped, dir))
	}
	return records, nil
}

// finishSuccess installs a fresh record map and reports whether it was
// applied. A load that was superseded by a newer directory leaves the state
// alone.
func (l *Loader) finishSuccess(dir string, records map[string]models.FileRecord) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.stateDir != dir {
		return false
	}
	l.state = models.LoadState{Files: records, Initialized: true}
	return true
}

// finishExhausted records the terminal state after retries ran out.
// Initialized is forced true so callers can render a terminal error instead
// of an endless loading state.
func (l *Loader) finishExhausted(dir string, retryCount int, message string, emptyListing bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.stateDir != dir {
		return
	}
	l.state.Loading = false
	l.state.Initialized = true
	l.state.RetryCount = retryCount
	l.state.Err = message
	if emptyListing {
		// The directory is genuinely empty; expose an empty map, not nil
		l.state.Files = make(map[string]models.FileRecord)
	}
}

// recordRetry updates the visible retry count while a load keeps trying.
func (l *Loader) recordRetry(dir string, retryCount int, message string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.stateDir != dir {
		return
	}
	l.state.RetryCount = retryCount
	l.state.Err = message
}

// finishAborted clears the loading flag without recording an error; an
// aborted load is a no-op, not a failure.
func (l *Loader) finishAborted(dir string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.stateDir != dir {
		return
	}
	l.state.Loading = false
}
