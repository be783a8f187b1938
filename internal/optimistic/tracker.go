// Package optimistic tracks in-flight optimistic updates per entity so a
// failed request can restore the value shown before it.
package optimistic

import "sync"

// Phase is the lifecycle position of one entity's optimistic update.
type Phase int

const (
	Idle Phase = iota
	Pending
	Committed
	RolledBack
)

func (p Phase) String() string {
	switch p {
	case Pending:
		return "pending"
	case Committed:
		return "committed"
	case RolledBack:
		return "rolled back"
	default:
		return "idle"
	}
}

type entry[V any] struct {
	phase Phase
	prev  V
}

// Tracker holds the phase and the pre-update value of each entity. At
// most one update per key may be Pending. The zero value is not usable;
// call New.
type Tracker[K comparable, V any] struct {
	mu      sync.Mutex
	entries map[K]*entry[V]
}

// New returns an empty Tracker.
func New[K comparable, V any]() *Tracker[K, V] {
	return &Tracker[K, V]{entries: make(map[K]*entry[V])}
}

// Begin records prev and marks key Pending. It returns false, and changes
// nothing, when key already has an update in flight.
func (t *Tracker[K, V]) Begin(key K, prev V) bool {
	t.mu.Lock()
	defer t.mu.Unlock()

	if e, ok := t.entries[key]; ok && e.phase == Pending {
		return false
	}
	t.entries[key] = &entry[V]{phase: Pending, prev: prev}
	return true
}

// Commit marks the pending update for key as accepted.
func (t *Tracker[K, V]) Commit(key K) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if e, ok := t.entries[key]; ok && e.phase == Pending {
		e.phase = Committed
		var zero V
		e.prev = zero
	}
}

// Rollback marks the pending update for key as rejected and returns the
// value recorded by Begin. ok is false when nothing was pending.
func (t *Tracker[K, V]) Rollback(key K) (prev V, ok bool) {
	t.mu.Lock()
	defer t.mu.Unlock()

	e, found := t.entries[key]
	if !found || e.phase != Pending {
		return prev, false
	}
	e.phase = RolledBack
	prev = e.prev
	var zero V
	e.prev = zero
	return prev, true
}

// State returns the phase of key. Unknown keys are Idle.
func (t *Tracker[K, V]) State(key K) Phase {
	t.mu.Lock()
	defer t.mu.Unlock()

	if e, ok := t.entries[key]; ok {
		return e.phase
	}
	return Idle
}

// InFlight reports whether key has a pending update.
func (t *Tracker[K, V]) InFlight(key K) bool {
	return t.State(key) == Pending
}

// Forget drops all state for key, for example after the entity is deleted.
func (t *Tracker[K, V]) Forget(key K) {
	t.mu.Lock()
	defer t.mu.Unlock()
	delete(t.entries, key)
}

// Reset drops all state.
func (t *Tracker[K, V]) Reset() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.entries = make(map[K]*entry[V])
}
