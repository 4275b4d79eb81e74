// Package history provides a bounded undo/redo stack over selection
// snapshots. Snapshots are captured before each mutating operation, so undo
// always restores the immediately preceding observable state.
package history

import "sync"

// DefaultLimit is the maximum number of snapshots kept on the undo stack
const DefaultLimit = 20

// Snapshot is an immutable copy of the selection state at one point in time
type Snapshot struct {
	Included []string `json:"included"` // Derived included path list
	Excluded []string `json:"excluded"` // Derived force-excluded path list
}

// Clone returns a deep copy of the snapshot
func (s Snapshot) Clone() Snapshot {
	out := Snapshot{}
	if s.Included != nil {
		out.Included = make([]string, len(s.Included))
		copy(out.Included, s.Included)
	}
	if s.Excluded != nil {
		out.Excluded = make([]string, len(s.Excluded))
		copy(out.Excluded, s.Excluded)
	}
	return out
}

// History holds the undo (past) and redo (future) stacks. The past stack is
// bounded: once full, the oldest snapshot is dropped. Any new recording
// clears the future stack, since redo targets no longer follow from the
// current state.
type History struct {
	mu     sync.Mutex
	past   []Snapshot
	future []Snapshot
	limit  int
}

// New creates an empty history with the default bound.
func New() *History {
	return &History{limit: DefaultLimit}
}

// Restore rebuilds a history from previously persisted stacks. Stacks longer
// than the bound are truncated to their most recent entries.
func Restore(past, future []Snapshot) *History {
	h := New()
	for _, s := range past {
		h.past = append(h.past, s.Clone())
	}
	if len(h.past) > h.limit {
		h.past = h.past[len(h.past)-h.limit:]
	}
	for _, s := range future {
		h.future = append(h.future, s.Clone())
	}
	return h
}

// Record pushes a pre-mutation snapshot onto the past stack and clears the
// future stack.
func (h *History) Record(s Snapshot) {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.past = append(h.past, s.Clone())
	if len(h.past) > h.limit {
		h.past = h.past[len(h.past)-h.limit:]
	}
	h.future = nil
}

// Undo pops the most recent past snapshot and returns it for the caller to
// apply, pushing the caller's current state onto the future stack. Returns
// false when there is nothing to undo.
func (h *History) Undo(current Snapshot) (Snapshot, bool) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if len(h.past) == 0 {
		return Snapshot{}, false
	}
	top := h.past[len(h.past)-1]
	h.past = h.past[:len(h.past)-1]
	h.future = append(h.future, current.Clone())
	return top, true
}

// Redo pops the most recent future snapshot and returns it for the caller to
// apply, pushing the caller's current state back onto the past stack.
// Returns false when there is nothing to redo.
func (h *History) Redo(current Snapshot) (Snapshot, bool) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if len(h.future) == 0 {
		return Snapshot{}, false
	}
	top := h.future[len(h.future)-1]
	h.future = h.future[:len(h.future)-1]
	h.past = append(h.past, current.Clone())
	return top, true
}

// CanUndo reports whether the past stack is non-empty.
func (h *History) CanUndo() bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.past) > 0
}

// CanRedo reports whether the future stack is non-empty.
func (h *History) CanRedo() bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.future) > 0
}

// Clear drops both stacks.
func (h *History) Clear() {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.past = nil
	h.future = nil
}

// Stacks returns deep copies of both stacks, oldest first, for persistence.
func (h *History) Stacks() (past, future []Snapshot) {
	h.mu.Lock()
	defer h.mu.Unlock()

	past = make([]Snapshot, 0, len(h.past))
	for _, s := range h.past {
		past = append(past, s.Clone())
	}
	future = make([]Snapshot, 0, len(h.future))
	for _, s := range h.future {
		future = append(future, s.Clone())
	}
	return past, future
}
