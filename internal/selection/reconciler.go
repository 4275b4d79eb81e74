// Package selection owns the managed file map: the reconciled view of which
// project files are included in or excluded from the active selection. It
// merges directory listings with persisted session path lists, applies user
// operations, and derives the included/excluded path sets everything else
// consumes.
package selection

import (
	"fmt"
	"sort"
	"sync"

	"github.com/harrison/curator/internal/history"
	"github.com/harrison/curator/internal/match"
	"github.com/harrison/curator/internal/models"
	"github.com/harrison/curator/internal/pathutil"
)

// Sink receives the derived included and excluded path lists whenever they
// change. A session store typically sits behind it. Implementations must not
// call back into the Reconciler.
type Sink interface {
	SetIncludedFiles(paths []string)
	SetExcludedFiles(paths []string)
}

// NopSink discards all updates.
type NopSink struct{}

// SetIncludedFiles discards the update
func (NopSink) SetIncludedFiles([]string) {}

// SetExcludedFiles discards the update
func (NopSink) SetExcludedFiles([]string) {}

// Logger is the minimal logging surface the reconciler needs
type Logger interface {
	LogDebug(message string)
	LogWarn(message string)
}

// nopLogger drops all messages; used when no logger is supplied
type nopLogger struct{}

func (nopLogger) LogDebug(string) {}
func (nopLogger) LogWarn(string)  {}

// ApplyResult reports the outcome of a path-list operation
type ApplyResult struct {
	Matched   []string // Managed-map keys that were matched and updated
	Unmatched []string // Input paths no strategy could resolve; non-fatal warnings
}

// Reconciler is the selection state machine. All operations are synchronous
// and guarded by one mutex; history snapshots are recorded before every
// mutating user operation, and the sink is notified whenever the derived
// path sets change.
type Reconciler struct {
	mu    sync.Mutex
	files map[string]models.FileRecord
	hist  *history.History
	sink  Sink
	log   Logger

	// Session-transition handling. The explicit flag is authoritative when
	// the host wires it; the emptied-lists heuristic covers hosts that
	// don't. See Reconcile.
	transitioning   bool
	frozen          bool
	sawSessionLists bool
	prevIncNonEmpty bool
	prevExcNonEmpty bool
}

// NewReconciler creates a reconciler with a fresh history. A nil sink or
// logger falls back to a no-op implementation.
func NewReconciler(sink Sink, log Logger) *Reconciler {
	return NewReconcilerWithHistory(sink, log, history.New())
}

// NewReconcilerWithHistory creates a reconciler around an existing history,
// typically one restored from a persisted session.
func NewReconcilerWithHistory(sink Sink, log Logger, hist *history.History) *Reconciler {
	if sink == nil {
		sink = NopSink{}
	}
	if log == nil {
		log = nopLogger{}
	}
	if hist == nil {
		hist = history.New()
	}
	return &Reconciler{
		files: make(map[string]models.FileRecord),
		hist:  hist,
		sink:  sink,
		log:   log,
	}
}

// SetSessionTransitioning marks the external session store as mid-transition
// (switching or deleting sessions). While set, Reconcile calls are skipped so
// a half-updated store cannot feed back into the selection.
func (r *Reconciler) SetSessionTransitioning(transitioning bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.transitioning = transitioning
}

// History exposes the undo/redo stacks, e.g. for persistence.
func (r *Reconciler) History() *history.History {
	return r.hist
}

// Files returns an independent copy of the managed file map.
func (r *Reconciler) Files() map[string]models.FileRecord {
	r.mu.Lock()
	defer r.mu.Unlock()
	return models.CloneFileMap(r.files)
}

// Get returns the record for a managed path.
func (r *Reconciler) Get(path string) (models.FileRecord, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	rec, ok := r.files[path]
	return rec, ok
}

// Len returns the number of managed files.
func (r *Reconciler) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.files)
}

// IncludedPaths returns the sorted list of paths currently part of the
// selection. Together with ExcludedPaths this is the only state exported to
// consumers outside the engine.
func (r *Reconciler) IncludedPaths() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.includedLocked()
}

// ExcludedPaths returns the sorted list of explicitly excluded paths.
func (r *Reconciler) ExcludedPaths() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.excludedLocked()
}

// ResolvePath maps a loose input path onto a managed-map key using the
// matching cascade. It does not modify state.
func (r *Reconciler) ResolvePath(path string) (string, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return match.NewResolver(match.NewIndex(r.files)).Resolve(path)
}

// Reconcile rebuilds the managed map from a raw directory listing and the
// session's persisted included/excluded path lists. Every raw entry starts
// unselected; included paths are applied first and excluded paths last, so a
// path present in both lists ends up excluded. A rebuild that produces the
// same per-record selection flags as the current map is a no-op and does not
// notify the sink.
//
// An empty raw listing skips the rebuild entirely. So does a session
// transition: either signalled explicitly via SetSessionTransitioning, or
// detected heuristically when both session lists go from non-empty to empty
// in one update, in which case reconciliation stays frozen until a non-empty
// list reappears.
func (r *Reconciler) Reconcile(raw map[string]models.FileRecord, sessionIncluded, sessionExcluded []string) ApplyResult {
	r.mu.Lock()
	defer r.mu.Unlock()

	if len(raw) == 0 {
		return ApplyResult{}
	}
	if r.transitioning {
		r.log.LogDebug("reconcile skipped: session transition in progress")
		return ApplyResult{}
	}

	bothEmpty := len(sessionIncluded) == 0 && len(sessionExcluded) == 0
	emptiedNow := r.sawSessionLists && r.prevIncNonEmpty && r.prevExcNonEmpty && bothEmpty
	r.sawSessionLists = true
	r.prevIncNonEmpty = len(sessionIncluded) > 0
	r.prevExcNonEmpty = len(sessionExcluded) > 0

	if emptiedNow {
		r.frozen = true
		r.log.LogDebug("reconcile skipped: both session lists emptied, treating as session deletion")
		return ApplyResult{}
	}
	if r.frozen {
		if bothEmpty {
			return ApplyResult{}
		}
		r.frozen = false
	}

	next := make(map[string]models.FileRecord, len(raw))
	for path, rec := range raw {
		rec.Included = false
		rec.ForceExcluded = false
		if rec.ComparablePath == "" {
			rec.ComparablePath = pathutil.NormalizeForComparison(path)
		}
		next[path] = rec
	}

	var unmatched []string
	idx := match.NewIndex(next)

	includeResolver := match.NewResolver(idx)
	for _, p := range sessionIncluded {
		key, ok := includeResolver.Resolve(p)
		if !ok {
			unmatched = append(unmatched, p)
			r.log.LogWarn(fmt.Sprintf("session included path %q does not match any listed file", p))
			continue
		}
		rec := next[key]
		rec.Included = true
		rec.ForceExcluded = false
		next[key] = rec
	}

	// Excluded list applied last: exclusion wins when a path is in both.
	// A separate resolver, because the excluded list legitimately targets
	// keys the included pass already claimed.
	excludeResolver := match.NewResolver(idx)
	for _, p := range sessionExcluded {
		key, ok := excludeResolver.Resolve(p)
		if !ok {
			unmatched = append(unmatched, p)
			r.log.LogWarn(fmt.Sprintf("session excluded path %q does not match any listed file", p))
			continue
		}
		rec := next[key]
		rec.Included = false
		rec.ForceExcluded = true
		next[key] = rec
	}

	if models.SelectionEqual(r.files, next) {
		return ApplyResult{Unmatched: unmatched}
	}

	r.files = next
	r.notifyLocked()
	return ApplyResult{Unmatched: unmatched}
}

// ToggleInclude flips a file's inclusion. Including a file always clears its
// forced exclusion. Returns false when the path is not managed.
func (r *Reconciler) ToggleInclude(path string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	rec, ok := r.files[path]
	if !ok {
		r.log.LogWarn(fmt.Sprintf("toggle include: %q is not a managed file", path))
		return false
	}

	r.hist.Record(r.snapshotLocked())

	if rec.Included {
		rec.Included = false
	} else {
		rec.Included = true
		rec.ForceExcluded = false
	}
	r.files[path] = rec
	r.notifyLocked()
	return true
}

// ToggleExclude flips a file's forced exclusion. Excluding a file always
// removes it from the inclusion set. Returns false when the path is not
// managed.
func (r *Reconciler) ToggleExclude(path string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	rec, ok := r.files[path]
	if !ok {
		r.log.LogWarn(fmt.Sprintf("toggle exclude: %q is not a managed file", path))
		return false
	}

	r.hist.Record(r.snapshotLocked())

	rec.ForceExcluded = !rec.ForceExcluded
	if rec.ForceExcluded {
		rec.Included = false
	}
	r.files[path] = rec
	r.notifyLocked()
	return true
}

// BulkSetIncluded applies the same inclusion state to a batch of managed
// paths. Records already in the desired state are skipped, and nothing is
// recorded or notified when the whole batch is a no-op.
func (r *Reconciler) BulkSetIncluded(paths []string, included bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	type change struct {
		key string
		rec models.FileRecord
	}
	var changes []change
	seen := make(map[string]bool)
	for _, path := range paths {
		if seen[path] {
			continue
		}
		seen[path] = true

		rec, ok := r.files[path]
		if !ok {
			r.log.LogWarn(fmt.Sprintf("bulk set: %q is not a managed file", path))
			continue
		}
		if included {
			if rec.Included && !rec.ForceExcluded {
				continue
			}
			rec.Included = true
			rec.ForceExcluded = false
		} else {
			if !rec.Included {
				continue
			}
			rec.Included = false
		}
		changes = append(changes, change{key: path, rec: rec})
	}

	if len(changes) == 0 {
		return
	}

	r.hist.Record(r.snapshotLocked())
	for _, c := range changes {
		r.files[c.key] = c.rec
	}
	r.notifyLocked()
}

// ApplyFromPaths matches the given paths against the managed map and marks
// the matches included. With merge true the matches join the current
// selection; with merge false they replace it. Newly included files always
// leave the excluded set. Unmatched inputs are reported, not fatal.
func (r *Reconciler) ApplyFromPaths(paths []string, merge bool) ApplyResult {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.applyLocked(paths, merge)
}

// ReplaceAllFromPaths resets the current selection and includes only files
// matched from the given paths. This is a hard replace, never a merge.
func (r *Reconciler) ReplaceAllFromPaths(paths []string) ApplyResult {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.applyLocked(paths, false)
}

func (r *Reconciler) applyLocked(paths []string, merge bool) ApplyResult {
	resolver := match.NewResolver(match.NewIndex(r.files))
	matched, unmatched := resolver.ResolveAll(paths)
	for _, p := range unmatched {
		r.log.LogWarn(fmt.Sprintf("apply: %q does not match any listed file", p))
	}

	before := r.snapshotLocked()
	changed := false

	if !merge {
		for key, rec := range r.files {
			if rec.Included {
				rec.Included = false
				r.files[key] = rec
				changed = true
			}
		}
	}

	for _, key := range matched {
		rec := r.files[key]
		if rec.Included && !rec.ForceExcluded {
			continue
		}
		rec.Included = true
		rec.ForceExcluded = false
		r.files[key] = rec
		changed = true
	}

	if changed {
		r.hist.Record(before)
		r.notifyLocked()
	}
	return ApplyResult{Matched: matched, Unmatched: unmatched}
}

// Undo restores the most recent pre-mutation snapshot. Returns false when
// there is nothing to undo.
func (r *Reconciler) Undo() bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	snap, ok := r.hist.Undo(r.snapshotLocked())
	if !ok {
		return false
	}
	r.applySnapshotLocked(snap)
	r.notifyLocked()
	return true
}

// Redo re-applies the most recently undone state. Returns false when there
// is nothing to redo.
func (r *Reconciler) Redo() bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	snap, ok := r.hist.Redo(r.snapshotLocked())
	if !ok {
		return false
	}
	r.applySnapshotLocked(snap)
	r.notifyLocked()
	return true
}

// Snapshot captures the current derived state for history or persistence.
func (r *Reconciler) Snapshot() history.Snapshot {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.snapshotLocked()
}

func (r *Reconciler) snapshotLocked() history.Snapshot {
	return history.Snapshot{
		Included: r.includedLocked(),
		Excluded: r.excludedLocked(),
	}
}

// applySnapshotLocked rewrites the selection flags of every managed record
// from a snapshot. Snapshot paths no longer present in the map are ignored:
// their files have left the directory listing.
func (r *Reconciler) applySnapshotLocked(snap history.Snapshot) {
	included := make(map[string]bool, len(snap.Included))
	for _, p := range snap.Included {
		included[p] = true
	}
	excluded := make(map[string]bool, len(snap.Excluded))
	for _, p := range snap.Excluded {
		excluded[p] = true
	}

	for key, rec := range r.files {
		rec.ForceExcluded = excluded[key]
		rec.Included = included[key] && !excluded[key]
		r.files[key] = rec
	}
}

func (r *Reconciler) includedLocked() []string {
	var out []string
	for path, rec := range r.files {
		if rec.Included && !rec.ForceExcluded {
			out = append(out, path)
		}
	}
	sort.Strings(out)
	return out
}

func (r *Reconciler) excludedLocked() []string {
	var out []string
	for path, rec := range r.files {
		if rec.ForceExcluded {
			out = append(out, path)
		}
	}
	sort.Strings(out)
	return out
}

// notifyLocked pushes the derived path lists to the sink.
func (r *Reconciler) notifyLocked() {
	r.sink.SetIncludedFiles(r.includedLocked())
	r.sink.SetExcludedFiles(r.excludedLocked())
}
