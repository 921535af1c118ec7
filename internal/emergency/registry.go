package emergency

import (
	"sync"
)

// SessionFactory creates the session for a user on first use.
type SessionFactory func(userID string) *Session

// Registry maps user IDs to sessions.
type Registry struct {
	mu       sync.RWMutex
	sessions map[string]*Session
	factory  SessionFactory
}

// NewRegistry creates an empty registry.
func NewRegistry(factory SessionFactory) *Registry {
	return &Registry{
		sessions: make(map[string]*Session),
		factory:  factory,
	}
}

// Do runs fn on the user's session, creating it if needed. The session
// stays registered until fn returns, so a concurrent Sweep cannot drop it
// between lookup and use. fn must not call back into the registry.
func (r *Registry) Do(userID string, fn func(*Session)) {
	r.mu.RLock()
	if s, ok := r.sessions[userID]; ok {
		defer r.mu.RUnlock()
		fn(s)
		return
	}
	r.mu.RUnlock()

	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.sessions[userID]
	if !ok {
		s = r.factory(userID)
		r.sessions[userID] = s
		ActiveSessions.Set(float64(len(r.sessions)))
	}
	fn(s)
}

// Lookup returns the user's session without creating one.
func (r *Registry) Lookup(userID string) (*Session, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	s, ok := r.sessions[userID]
	return s, ok
}

// Len returns the number of sessions held.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.sessions)
}

// Sweep drops idle sessions without observers and returns how many were
// removed. It waits for in-flight Do calls.
func (r *Registry) Sweep() int {
	r.mu.Lock()
	defer r.mu.Unlock()

	removed := 0
	for id, s := range r.sessions {
		if s.Idle() {
			delete(r.sessions, id)
			removed++
		}
	}
	ActiveSessions.Set(float64(len(r.sessions)))
	return removed
}

// Close stops every running countdown.
func (r *Registry) Close() {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, s := range r.sessions {
		s.Stop()
	}
}
