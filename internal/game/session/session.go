// Package session tracks connected clients: their state machine, the user
// and character bound to them, and any trade negotiation in flight.
package session

import (
	"errors"
	"sync"

	"github.com/google/uuid"

	"github.com/nickeddy/uamud/internal/game/world"
	"github.com/nickeddy/uamud/internal/protocol"
)

// ErrNoCharacter is returned by WithCharacter when the session has no
// playing character bound.
var ErrNoCharacter = errors.New("session: no character bound")

// State is a session's position in the login state machine. Transitions move
// strictly forward; Disconnected is terminal.
type State int

const (
	StateConnected State = iota
	StateAuthenticated
	StatePlaying
	StateDisconnected
)

// String returns the state name for logging.
func (s State) String() string {
	switch s {
	case StateConnected:
		return "connected"
	case StateAuthenticated:
		return "authenticated"
	case StatePlaying:
		return "playing"
	case StateDisconnected:
		return "disconnected"
	}
	return "unknown"
}

// Conn is the transport half of a session. The TCP frontend implements it.
type Conn interface {
	Send(msg protocol.Message) error
	Close() error
	RemoteAddr() string
}

// TradeState is one side of a pending trade negotiation.
type TradeState struct {
	// CounterpartID is the character the offer is directed at.
	CounterpartID int64
	// OfferItemID is the item put up by this side.
	OfferItemID int64
	// Accepted marks that this side has accepted the counterpart's offer.
	Accepted bool
}

// Session is one connected client. Mutable fields are guarded by the
// session's own mutex; the transport Conn is safe for concurrent sends.
type Session struct {
	ID   uuid.UUID
	Conn Conn

	mu        sync.Mutex
	state     State
	user      *world.User
	character *world.Character
	trade     *TradeState
}

// New creates a session in the Connected state.
func New(conn Conn) *Session {
	return &Session{
		ID:    uuid.New(),
		Conn:  conn,
		state: StateConnected,
	}
}

// Send pushes one frame to the client.
func (s *Session) Send(msg protocol.Message) error {
	return s.Conn.Send(msg)
}

// State returns the current state.
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// SetState advances the state machine.
func (s *Session) SetState(state State) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state = state
}

// User returns the authenticated user, nil before authentication.
func (s *Session) User() *world.User {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.user
}

// SetUser binds the authenticated user.
func (s *Session) SetUser(u *world.User) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.user = u
}

// Character returns the playing character, nil before selection.
func (s *Session) Character() *world.Character {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.character
}

// SetCharacter binds the selected character.
func (s *Session) SetCharacter(c *world.Character) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.character = c
}

// WithCharacter runs fn against the playing character while holding the
// session's mutex. Timer goroutines and the operator console mutate
// characters concurrently with the session's own command handling, so every
// write to a character's mutable fields goes through here. fn must not call
// back into the registry or send room- or server-wide broadcasts, both of
// which take other sessions' locks.
func (s *Session) WithCharacter(fn func(c *world.Character) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.character == nil {
		return ErrNoCharacter
	}
	return fn(s.character)
}

// Snapshot returns a copy of the playing character taken under the session's
// mutex, for readers that must not race with concurrent mutation.
func (s *Session) Snapshot() (world.Character, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.character == nil {
		return world.Character{}, false
	}
	return *s.character, true
}

// RoomID returns the playing character's room, 0 when no character is bound.
func (s *Session) RoomID() int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.character == nil {
		return 0
	}
	return s.character.RoomID
}

// Trade returns a copy of the pending trade state, nil if none.
func (s *Session) Trade() *TradeState {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.trade == nil {
		return nil
	}
	t := *s.trade
	return &t
}

// SetTrade records a pending offer.
func (s *Session) SetTrade(t *TradeState) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.trade = t
}

// ClearTrade drops any pending trade state.
func (s *Session) ClearTrade() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.trade = nil
}
