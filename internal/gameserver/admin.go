package gameserver

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/nickeddy/uamud/internal/game/session"
	"github.com/nickeddy/uamud/internal/game/world"
	"github.com/nickeddy/uamud/internal/protocol"
)

// Shutdown starts the orderly shutdown: one warning broadcast a second for
// the configured countdown, no new connections in the meantime, then every
// session is kicked and the lifecycle stop path runs. Subsequent calls are
// no-ops.
func (s *Server) Shutdown(ctx context.Context) {
	s.shutdownOnce.Do(func() {
		s.accepting.Store(false)
		s.logger.Warn("shutdown initiated", zap.Int("countdown", s.cfg.ShutdownCountdown))
		go func() {
			for i := s.cfg.ShutdownCountdown; i > 0; i-- {
				s.bus.DisplayToAll(fmt.Sprintf("The server is shutting down in %d seconds!", i))
				time.Sleep(time.Second)
			}
			for _, sess := range s.sessions.All() {
				s.kickSession(ctx, sess, "Server shutting down.")
			}
			s.stop()
		}()
	})
}

// kickSession notifies a client it is being removed, then disconnects it.
func (s *Server) kickSession(ctx context.Context, sess *session.Session, reason string) {
	if msg, err := protocol.NewMessage(protocol.TypeClientKicked, protocol.Notice{Reason: reason}); err == nil {
		s.bus.ToSession(sess, msg)
	}
	s.Disconnect(ctx, sess)
}

// Kick removes the named character's session from the game.
func (s *Server) Kick(ctx context.Context, characterName, reason string) error {
	sess, ok := s.sessions.ByCharacterName(characterName)
	if !ok {
		return fmt.Errorf("no one is playing %q", characterName)
	}
	s.kickSession(ctx, sess, reason)
	s.logger.Warn("character kicked", zap.String("character", characterName), zap.String("reason", reason))
	return nil
}

// Ban flags a user account as banned and kicks any live session it has.
func (s *Server) Ban(ctx context.Context, username, reason string) error {
	if err := s.store.SetBanned(ctx, username, true); err != nil {
		return fmt.Errorf("banning %q: %w", username, err)
	}
	if sess, ok := s.sessions.ByUsername(username); ok {
		s.kickSession(ctx, sess, reason)
	}
	s.logger.Warn("user banned", zap.String("username", username), zap.String("reason", reason))
	return nil
}

// BanIP bans the address a user is currently connected from, then bans and
// kicks the user.
//
// Precondition: the user must be online; the address comes from the live
// session.
func (s *Server) BanIP(ctx context.Context, username, reason string) error {
	sess, ok := s.sessions.ByUsername(username)
	if !ok {
		return fmt.Errorf("%q is not online, cannot resolve an address", username)
	}
	if err := s.store.AddIPBan(ctx, sess.Conn.RemoteAddr()); err != nil {
		return fmt.Errorf("recording ip ban: %w", err)
	}
	if err := s.store.SetBanned(ctx, username, true); err != nil {
		return fmt.Errorf("banning %q: %w", username, err)
	}
	s.kickSession(ctx, sess, reason)
	s.logger.Warn("user ip-banned",
		zap.String("username", username),
		zap.String("address", sess.Conn.RemoteAddr()),
	)
	return nil
}

// DeleteUser removes an account and its characters, kicking it first if
// online.
func (s *Server) DeleteUser(ctx context.Context, username string) error {
	if sess, ok := s.sessions.ByUsername(username); ok {
		s.kickSession(ctx, sess, "Your account has been deleted.")
	}
	if err := s.store.DeleteUser(ctx, username); err != nil {
		return fmt.Errorf("deleting user %q: %w", username, err)
	}
	s.logger.Warn("user deleted", zap.String("username", username))
	return nil
}

// DeleteCharacter removes a character, kicking its session first if playing.
func (s *Server) DeleteCharacter(ctx context.Context, name string) error {
	if sess, ok := s.sessions.ByCharacterName(name); ok {
		s.kickSession(ctx, sess, "Your character has been deleted.")
	}
	if err := s.store.DeleteCharacter(ctx, name); err != nil {
		return fmt.Errorf("deleting character %q: %w", name, err)
	}
	s.logger.Warn("character deleted", zap.String("character", name))
	return nil
}

// MoveCharacter teleports a character, online or not.
func (s *Server) MoveCharacter(ctx context.Context, name string, roomID int64) error {
	if _, err := s.store.Room(ctx, roomID); err != nil {
		return fmt.Errorf("destination room %d: %w", roomID, err)
	}

	if sess, ok := s.sessions.ByCharacterName(name); ok {
		var from int64
		var charName string
		err := sess.WithCharacter(func(c *world.Character) error {
			from = c.RoomID
			charName = c.Name
			c.RoomID = roomID
			if err := s.store.SaveCharacter(ctx, c); err != nil {
				c.RoomID = from
				return fmt.Errorf("persisting move: %w", err)
			}
			return nil
		})
		if errors.Is(err, session.ErrNoCharacter) {
			return fmt.Errorf("no one is playing %q", name)
		}
		if err != nil {
			return err
		}
		s.bus.DisplayToRoom(from, fmt.Sprintf("%s vanishes.", charName), sess.ID)
		s.bus.DisplayToRoom(roomID, fmt.Sprintf("%s appears out of nowhere.", charName), sess.ID)
		s.bus.Display(sess, "You are whisked away.")
		if err := s.look(ctx, sess); err != nil {
			return err
		}
		s.pushState(ctx, sess)
		return nil
	}

	c, err := s.store.CharacterByName(ctx, name)
	if err != nil {
		return fmt.Errorf("loading character %q: %w", name, err)
	}
	c.RoomID = roomID
	if err := s.store.SaveCharacter(ctx, c); err != nil {
		return fmt.Errorf("persisting move: %w", err)
	}
	return nil
}

// ListUsers describes every account and its characters for the console.
func (s *Server) ListUsers(ctx context.Context) ([]string, error) {
	users, err := s.store.Users(ctx)
	if err != nil {
		return nil, fmt.Errorf("listing users: %w", err)
	}
	var lines []string
	for _, u := range users {
		flags := ""
		if u.Admin {
			flags += " [admin]"
		}
		if u.Banned {
			flags += " [banned]"
		}
		online := ""
		if _, ok := s.sessions.ByUserID(u.ID); ok {
			online = " (online)"
		}
		chars, err := s.store.CharactersForUser(ctx, u.ID)
		if err != nil {
			return nil, fmt.Errorf("listing characters for %q: %w", u.Username, err)
		}
		names := make([]string, len(chars))
		for i, c := range chars {
			names[i] = c.Name
		}
		lines = append(lines, fmt.Sprintf("%s%s%s: %v", u.Username, flags, online, names))
	}
	return lines, nil
}
