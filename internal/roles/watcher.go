package roles

import (
	"context"
	"sync"

	"github.com/google/uuid"
)

// Watcher serialises role resolution for one browsing session. Every
// authentication-state transition (sign-in, sign-out, token refresh) gets a
// monotonically increasing transition id, and a resolution result is applied
// only while its id is still current. A late-arriving response from an older
// transition can therefore never overwrite the state produced by a newer
// one: last transition wins, not last response.
type Watcher struct {
	resolver *Resolver

	mu         sync.Mutex
	transition uint64
	state      State
	roles      RoleSet
	subs       map[int]chan State
	nextSub    int
}

// NewWatcher constructs a Watcher in the Unauthenticated state.
func NewWatcher(resolver *Resolver) *Watcher {
	return &Watcher{
		resolver: resolver,
		state:    StateUnauthenticated,
		subs:     make(map[int]chan State),
	}
}

// AuthStateChanged is the sole trigger for re-running resolution. A zero
// user ID means sign-out and moves straight to Unauthenticated; otherwise the
// session passes through Resolving before landing on a terminal destination.
// The returned state is the one current after this transition settled (which
// may belong to a newer transition when this one lost the race).
func (w *Watcher) AuthStateChanged(ctx context.Context, userID uuid.UUID) State {
	w.mu.Lock()
	w.transition++
	id := w.transition

	if userID == uuid.Nil {
		w.roles = nil
		w.setStateLocked(StateUnauthenticated)
		w.mu.Unlock()
		return StateUnauthenticated
	}

	w.setStateLocked(StateResolving)
	w.mu.Unlock()

	set := w.resolver.Resolve(ctx, userID)

	w.mu.Lock()
	defer w.mu.Unlock()
	if id != w.transition {
		// A newer transition superseded this one while its query was in
		// flight; discard the stale result.
		return w.state
	}
	w.roles = set
	w.setStateLocked(DeriveDestination(set).State())
	return w.state
}

// State returns the current session state.
func (w *Watcher) State() State {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.state
}

// Roles returns the RoleSet observed by the latest settled transition.
func (w *Watcher) Roles() RoleSet {
	w.mu.Lock()
	defer w.mu.Unlock()
	out := make(RoleSet, len(w.roles))
	copy(out, w.roles)
	return out
}

// Destination reports the terminal destination, false while the session is
// unauthenticated or still resolving.
func (w *Watcher) Destination() (Destination, bool) {
	w.mu.Lock()
	defer w.mu.Unlock()
	switch w.state {
	case StateUserHome:
		return DestUserHome, true
	case StateClienteDashboard:
		return DestClienteDashboard, true
	case StateAdminDashboard:
		return DestAdminDashboard, true
	case StateRoleSelection:
		return DestRoleSelection, true
	default:
		return DestUserHome, false
	}
}

// Subscribe registers a state listener. The returned cancel func must be
// called to release it. Slow subscribers miss intermediate states rather
// than blocking transitions.
func (w *Watcher) Subscribe() (<-chan State, func()) {
	w.mu.Lock()
	defer w.mu.Unlock()
	id := w.nextSub
	w.nextSub++
	ch := make(chan State, 8)
	w.subs[id] = ch
	return ch, func() {
		w.mu.Lock()
		defer w.mu.Unlock()
		if sub, ok := w.subs[id]; ok {
			delete(w.subs, id)
			close(sub)
		}
	}
}

func (w *Watcher) setStateLocked(next State) {
	w.state = next
	for _, ch := range w.subs {
		select {
		case ch <- next:
		default:
		}
	}
}

// Hub owns one Watcher per session so every view reads the same resolution
// instead of re-querying on each mount. Watchers disappear with their
// session.
type Hub struct {
	resolver *Resolver

	mu       sync.Mutex
	watchers map[string]*Watcher
}

// NewHub constructs a Hub.
func NewHub(resolver *Resolver) *Hub {
	return &Hub{resolver: resolver, watchers: make(map[string]*Watcher)}
}

// Watcher returns the watcher for a session, creating it on first use.
func (h *Hub) Watcher(sessionID string) *Watcher {
	h.mu.Lock()
	defer h.mu.Unlock()
	w, ok := h.watchers[sessionID]
	if !ok {
		w = NewWatcher(h.resolver)
		h.watchers[sessionID] = w
	}
	return w
}

// AuthStateChanged forwards an auth transition to the session's watcher.
func (h *Hub) AuthStateChanged(ctx context.Context, sessionID string, userID uuid.UUID) State {
	return h.Watcher(sessionID).AuthStateChanged(ctx, userID)
}

// Drop removes the watcher for a destroyed session.
func (h *Hub) Drop(sessionID string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	delete(h.watchers, sessionID)
}
