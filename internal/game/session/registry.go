package session

import (
	"strings"
	"sync"

	"github.com/google/uuid"

	"github.com/nickeddy/uamud/internal/game/world"
)

// Registry tracks all live sessions. All methods are safe for concurrent use.
type Registry struct {
	mu       sync.RWMutex
	sessions map[uuid.UUID]*Session
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{sessions: make(map[uuid.UUID]*Session)}
}

// Add registers a session.
func (r *Registry) Add(s *Session) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sessions[s.ID] = s
}

// Remove drops a session. Removing an unknown ID is a no-op, so disconnect
// paths stay idempotent.
func (r *Registry) Remove(id uuid.UUID) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.sessions, id)
}

// Get returns the session with the given ID.
func (r *Registry) Get(id uuid.UUID) (*Session, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	s, ok := r.sessions[id]
	return s, ok
}

// All returns every live session.
func (r *Registry) All() []*Session {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]*Session, 0, len(r.sessions))
	for _, s := range r.sessions {
		out = append(out, s)
	}
	return out
}

// Count returns the number of live sessions.
func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.sessions)
}

// ClaimUser binds the user to the session unless another live session
// already holds it. The check and the bind happen under the registry's write
// lock, so two simultaneous logins for the same user cannot both succeed.
// Re-claiming from the session that already holds the user is allowed.
func (r *Registry) ClaimUser(sess *Session, u *world.User) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, s := range r.sessions {
		if s.ID == sess.ID {
			continue
		}
		if su := s.User(); su != nil && su.ID == u.ID {
			return false
		}
	}
	sess.SetUser(u)
	return true
}

// ByUserID returns the session a user is logged in on, if any.
func (r *Registry) ByUserID(userID int64) (*Session, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, s := range r.sessions {
		if u := s.User(); u != nil && u.ID == userID {
			return s, true
		}
	}
	return nil, false
}

// ByUsername returns the session a user is logged in on, matched
// case-insensitively.
func (r *Registry) ByUsername(username string) (*Session, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, s := range r.sessions {
		if u := s.User(); u != nil && strings.EqualFold(u.Username, username) {
			return s, true
		}
	}
	return nil, false
}

// ByCharacterName returns the playing session of the named character,
// matched case-insensitively.
func (r *Registry) ByCharacterName(name string) (*Session, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, s := range r.sessions {
		if s.State() != StatePlaying {
			continue
		}
		if c := s.Character(); c != nil && strings.EqualFold(c.Name, name) {
			return s, true
		}
	}
	return nil, false
}

// ByCharacterID returns the playing session of the character with the
// given ID.
func (r *Registry) ByCharacterID(id int64) (*Session, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, s := range r.sessions {
		if s.State() != StatePlaying {
			continue
		}
		if c := s.Character(); c != nil && c.ID == id {
			return s, true
		}
	}
	return nil, false
}

// InRoom returns the playing sessions whose characters are in the room,
// skipping any session whose ID appears in exclude.
func (r *Registry) InRoom(roomID int64, exclude ...uuid.UUID) []*Session {
	skip := make(map[uuid.UUID]bool, len(exclude))
	for _, id := range exclude {
		skip[id] = true
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []*Session
	for _, s := range r.sessions {
		if skip[s.ID] || s.State() != StatePlaying {
			continue
		}
		// RoomID reads under the session lock; rooms change from timer
		// goroutines as well as the session's own.
		if id := s.RoomID(); id != 0 && id == roomID {
			out = append(out, s)
		}
	}
	return out
}

// Playing returns every session in the Playing state.
func (r *Registry) Playing() []*Session {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []*Session
	for _, s := range r.sessions {
		if s.State() == StatePlaying {
			out = append(out, s)
		}
	}
	return out
}
