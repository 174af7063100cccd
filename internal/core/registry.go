package core

import (
	"sort"
	"sync"
)

// Session binds a connection to an authenticated username.
type Session struct {
	ConnID   string
	Username string
	Status   Status
}

// Registry is the source of truth for who is online.
// It holds at most one session per username.
type Registry struct {
	mu       sync.RWMutex
	sessions map[string]*Session // by connection id
	byUser   map[string]string   // username -> connection id
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		sessions: make(map[string]*Session),
		byUser:   make(map[string]string),
	}
}

// BeginSession installs a session for connID. Any other connection holding
// username loses its session in the same critical section, so no reader ever
// sees two sessions for one username. The evicted connection id is returned.
func (r *Registry) BeginSession(connID, username string) (evicted string, ok bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if prev, exists := r.byUser[username]; exists && prev != connID {
		delete(r.sessions, prev)
		evicted, ok = prev, true
	}
	if old, exists := r.sessions[connID]; exists && old.Username != username {
		delete(r.byUser, old.Username)
	}

	r.sessions[connID] = &Session{
		ConnID:   connID,
		Username: username,
		Status:   StatusOnline,
	}
	r.byUser[username] = connID

	return evicted, ok
}

// EndSession removes the session for connID. Removing an unknown connection is a no-op.
func (r *Registry) EndSession(connID string) (Session, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	s, ok := r.sessions[connID]
	if !ok {
		return Session{}, false
	}
	delete(r.sessions, connID)
	if r.byUser[s.Username] == connID {
		delete(r.byUser, s.Username)
	}
	return *s, true
}

// SetStatus updates the status of connID's session. It reports whether the
// session exists and whether the stored value changed.
func (r *Registry) SetStatus(connID string, status Status) (found, changed bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	s, ok := r.sessions[connID]
	if !ok {
		return false, false
	}
	if s.Status == status {
		return true, false
	}
	s.Status = status
	return true, true
}

// Lookup returns a copy of connID's session.
func (r *Registry) Lookup(connID string) (Session, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	s, ok := r.sessions[connID]
	if !ok {
		return Session{}, false
	}
	return *s, true
}

// ConnFor returns the connection currently holding username.
func (r *Registry) ConnFor(username string) (string, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	id, ok := r.byUser[username]
	return id, ok
}

// Snapshot returns the presence of every session, sorted by username.
// The result is a point-in-time copy.
func (r *Registry) Snapshot() []Presence {
	r.mu.RLock()
	out := make([]Presence, 0, len(r.sessions))
	for _, s := range r.sessions {
		out = append(out, Presence{Username: s.Username, Status: s.Status})
	}
	r.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool { return out[i].Username < out[j].Username })
	return out
}

// Len returns the number of active sessions.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.sessions)
}
