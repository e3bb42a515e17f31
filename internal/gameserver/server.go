// Package gameserver is the game engine: it owns the session state machine,
// the player command handlers, combat and trade resolution, the world
// scheduler, and the admin operations. The TCP frontend feeds decoded wire
// frames into Handle; everything the engine says back travels through the
// broadcast bus.
package gameserver

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"

	"go.uber.org/zap"

	"github.com/nickeddy/uamud/internal/config"
	"github.com/nickeddy/uamud/internal/game/broadcast"
	"github.com/nickeddy/uamud/internal/game/command"
	"github.com/nickeddy/uamud/internal/game/dice"
	"github.com/nickeddy/uamud/internal/game/mob"
	"github.com/nickeddy/uamud/internal/game/ruleset"
	"github.com/nickeddy/uamud/internal/game/session"
	"github.com/nickeddy/uamud/internal/game/world"
	"github.com/nickeddy/uamud/internal/protocol"
	"github.com/nickeddy/uamud/internal/scripting"
)

// Server is the game engine. All exported methods are safe for concurrent
// use; per-session ordering is guaranteed by the frontend's read loop, which
// delivers one frame at a time per connection.
type Server struct {
	cfg      config.GameConfig
	logger   *zap.Logger
	store    world.Store
	sessions *session.Registry
	bus      *broadcast.Bus
	mobs     *mob.Manager
	commands *command.Registry
	dialogue *scripting.Dialogue
	rng      dice.Source

	accepting    atomic.Bool
	night        atomic.Bool
	shutdownOnce sync.Once
	// tradeMu serializes trade commits so two negotiations cannot race the
	// same inventory mid-exchange.
	tradeMu sync.Mutex
	// stop initiates the lifecycle's orderly stop path once the shutdown
	// countdown completes.
	stop func()
}

// New creates a Server.
//
// Precondition: all dependencies must be non-nil; stop must be safe to call
// once from any goroutine.
func New(
	cfg config.GameConfig,
	logger *zap.Logger,
	store world.Store,
	sessions *session.Registry,
	bus *broadcast.Bus,
	mobs *mob.Manager,
	dialogue *scripting.Dialogue,
	rng dice.Source,
	stop func(),
) *Server {
	s := &Server{
		cfg:      cfg,
		logger:   logger,
		store:    store,
		sessions: sessions,
		bus:      bus,
		mobs:     mobs,
		commands: command.Default(),
		dialogue: dialogue,
		rng:      rng,
		stop:     stop,
	}
	s.accepting.Store(true)
	return s
}

// Accepting reports whether new connections may be admitted. It turns false
// for good once a shutdown countdown begins.
func (s *Server) Accepting() bool {
	return s.accepting.Load()
}

// Night reports whether it is currently night in the world.
func (s *Server) Night() bool {
	return s.night.Load()
}

// Handle routes one decoded frame according to the session's state. Domain
// failures are reported to the client as notifications; only transport-level
// trouble surfaces in the session's Conn, which the frontend observes
// directly.
func (s *Server) Handle(ctx context.Context, sess *session.Session, msg protocol.Message) {
	switch sess.State() {
	case session.StateConnected:
		switch msg.Type {
		case protocol.TypeLogin:
			s.handleLogin(ctx, sess, msg)
		case protocol.TypeCreateUser:
			s.handleCreateUser(ctx, sess, msg)
		default:
			s.reject(sess, msg)
		}
	case session.StateAuthenticated:
		switch msg.Type {
		case protocol.TypeSelectCharacter:
			s.handleSelectCharacter(ctx, sess, msg)
		case protocol.TypeCreateCharacter:
			s.handleCreateCharacter(ctx, sess, msg)
		default:
			s.reject(sess, msg)
		}
	case session.StatePlaying:
		switch msg.Type {
		case protocol.TypeCommand:
			s.handleCommand(ctx, sess, msg)
		case protocol.TypeQuit:
			s.Disconnect(ctx, sess)
		default:
			s.reject(sess, msg)
		}
	case session.StateDisconnected:
		// Frames racing a disconnect are dropped.
	}
}

// reject answers a frame that is not valid in the session's current state.
func (s *Server) reject(sess *session.Session, msg protocol.Message) {
	s.logger.Debug("message rejected for state",
		zap.String("session", sess.ID.String()),
		zap.String("type", string(msg.Type)),
		zap.Stringer("state", sess.State()),
	)
	s.bus.Display(sess, fmt.Sprintf("You cannot do that yet (%s).", msg.Type))
}

// Disconnect tears a session down. It is idempotent: quit, transport errors,
// and admin kicks all funnel here, in any order.
//
// Postcondition: the session is out of the registry, any mob claim held by
// its character is released, any open trade is cancelled, and the character
// is persisted.
func (s *Server) Disconnect(ctx context.Context, sess *session.Session) {
	if sess.State() == session.StateDisconnected {
		return
	}
	sess.SetState(session.StateDisconnected)
	s.sessions.Remove(sess.ID)

	if c, ok := sess.Snapshot(); ok {
		s.mobs.ReleaseAllFor(c.ID)
		s.cancelTradeFor(sess, &c)
		err := sess.WithCharacter(func(live *world.Character) error {
			return s.store.SaveCharacter(ctx, live)
		})
		if err != nil && !errors.Is(err, session.ErrNoCharacter) {
			s.logger.Error("persisting character on disconnect",
				zap.String("character", c.Name), zap.Error(err))
		}
		s.bus.DisplayToAll(fmt.Sprintf("%s has disconnected.", c.Name))
	}
	if err := sess.Conn.Close(); err != nil {
		s.logger.Debug("closing session transport",
			zap.String("session", sess.ID.String()), zap.Error(err))
	}
	s.logger.Info("session disconnected",
		zap.String("session", sess.ID.String()),
		zap.String("remote", sess.Conn.RemoteAddr()),
	)
}

// pushState sends the stat sheet and lighting directive the client repaints
// from. Called after login and after every successful non-quit command.
func (s *Server) pushState(ctx context.Context, sess *session.Session) {
	c, ok := sess.Snapshot()
	if !ok {
		return
	}
	roomName := ""
	if room, err := s.store.Room(ctx, c.RoomID); err == nil {
		roomName = room.Name
	}
	stats := c.Stats()
	payload := protocol.CharacterStats{
		MaxHP:        stats.MaxHP,
		MaxAP:        stats.MaxAP,
		Strength:     stats.Strength,
		Perception:   stats.Perception,
		Endurance:    stats.Endurance,
		Charisma:     stats.Charisma,
		Intelligence: stats.Intelligence,
		Agility:      stats.Agility,
		Luck:         stats.Luck,
		HP:           c.HP,
		AP:           c.AP,
		Experience:   c.Experience,
		NextLevelAt:  ruleset.NextLevelThreshold(c.Level),
		Room:         roomName,
		ClassLabel:   fmt.Sprintf("%s lv. %d", c.Class.DisplayName(), c.Level),
	}
	if msg, err := protocol.NewMessage(protocol.TypeCharacterStats, payload); err == nil {
		s.bus.ToSession(sess, msg)
	}
	// A character with the lights on sees day regardless of the world's
	// night cycle.
	night := s.Night() && !c.Lights
	if msg, err := protocol.NewMessage(protocol.TypeSetClientFont, protocol.SetClientFont{Night: night}); err == nil {
		s.bus.ToSession(sess, msg)
	}
}

// notify sends a typed notification frame carrying a reason line.
func (s *Server) notify(sess *session.Session, t protocol.MessageType, reason string) {
	msg, err := protocol.NewMessage(t, protocol.Notice{Reason: reason})
	if err != nil {
		s.logger.Error("encoding notification", zap.String("type", string(t)), zap.Error(err))
		return
	}
	s.bus.ToSession(sess, msg)
}
