package graph

import "sync"

// VisitedSet tracks which refs have been fetched during one traversal.
// It is the single source of truth for cycle prevention and dedup. The
// engine is single-threaded today; the mutex preserves the at-most-once
// guarantee if independent frontier branches are ever parallelized.
type VisitedSet struct {
	mu   sync.Mutex
	seen map[Ref]struct{}
}

// NewVisitedSet creates an empty visited set. Each traversal invocation
// constructs its own so independent seeds never share visit history.
func NewVisitedSet() *VisitedSet {
	return &VisitedSet{seen: make(map[Ref]struct{})}
}

// MarkIfNew atomically checks membership and inserts. It returns true
// iff the ref was not previously present.
func (v *VisitedSet) MarkIfNew(ref Ref) bool {
	v.mu.Lock()
	defer v.mu.Unlock()
	if _, ok := v.seen[ref]; ok {
		return false
	}
	v.seen[ref] = struct{}{}
	return true
}

// Len returns the number of refs marked so far.
func (v *VisitedSet) Len() int {
	v.mu.Lock()
	defer v.mu.Unlock()
	return len(v.seen)
}
