package gameserver

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/nickeddy/uamud/internal/game/ruleset"
	"github.com/nickeddy/uamud/internal/game/session"
	"github.com/nickeddy/uamud/internal/game/world"
	"github.com/nickeddy/uamud/internal/protocol"
)

// Login failures deliberately share one message so a caller cannot probe for
// which usernames exist.
const badCredentials = "Invalid username or password."

func (s *Server) handleLogin(ctx context.Context, sess *session.Session, msg protocol.Message) {
	var req protocol.Login
	if err := msg.DecodePayload(&req); err != nil {
		s.notify(sess, protocol.TypeLoginUnsuccessful, "Malformed login request.")
		return
	}

	user, err := s.store.UserByName(ctx, req.Username)
	if errors.Is(err, world.ErrUserNotFound) {
		s.notify(sess, protocol.TypeLoginUnsuccessful, badCredentials)
		return
	}
	if err != nil {
		s.logger.Error("looking up user", zap.String("username", req.Username), zap.Error(err))
		s.notify(sess, protocol.TypeLoginUnsuccessful, "Login failed, try again.")
		return
	}
	if !world.CheckPassword(req.Password, user.PasswordHash) {
		s.notify(sess, protocol.TypeLoginUnsuccessful, badCredentials)
		return
	}
	if user.Banned {
		s.notify(sess, protocol.TypeLoginUnsuccessful, "This account has been banned.")
		return
	}
	// The exclusivity check and the user bind are one atomic registry
	// operation, so two racing logins cannot both claim the account.
	if !s.sessions.ClaimUser(sess, user) {
		s.notify(sess, protocol.TypeLoginUnsuccessful, "This user is already logged in.")
		return
	}

	chars, err := s.store.CharactersForUser(ctx, user.ID)
	if err != nil {
		s.logger.Error("listing characters", zap.Int64("user_id", user.ID), zap.Error(err))
		s.notify(sess, protocol.TypeLoginUnsuccessful, "Login failed, try again.")
		sess.SetUser(nil)
		return
	}

	sess.SetState(session.StateAuthenticated)

	payload := protocol.LoginSuccessful{}
	for _, kind := range ruleset.Classes {
		payload.Classes = append(payload.Classes, kind.DisplayName())
	}
	for _, c := range chars {
		payload.Characters = append(payload.Characters, c.Name)
	}
	if out, err := protocol.NewMessage(protocol.TypeLoginSuccessful, payload); err == nil {
		s.bus.ToSession(sess, out)
	}
	s.logger.Info("user authenticated",
		zap.String("username", user.Username),
		zap.String("session", sess.ID.String()),
	)
}

func (s *Server) handleCreateUser(ctx context.Context, sess *session.Session, msg protocol.Message) {
	var req protocol.CreateUser
	if err := msg.DecodePayload(&req); err != nil {
		s.notify(sess, protocol.TypeCreateUserUnsuccessful, "Malformed request.")
		return
	}
	username := strings.TrimSpace(req.Username)
	if len(username) < world.MinNameLength {
		s.notify(sess, protocol.TypeCreateUserUnsuccessful,
			fmt.Sprintf("Usernames must be at least %d characters.", world.MinNameLength))
		return
	}
	if req.Password == "" {
		s.notify(sess, protocol.TypeCreateUserUnsuccessful, "A password is required.")
		return
	}

	hash, err := world.HashPassword(req.Password)
	if err != nil {
		s.logger.Error("hashing password", zap.Error(err))
		s.notify(sess, protocol.TypeCreateUserUnsuccessful, "Account creation failed, try again.")
		return
	}
	if _, err := s.store.CreateUser(ctx, username, hash); err != nil {
		if errors.Is(err, world.ErrUserExists) {
			s.notify(sess, protocol.TypeCreateUserUnsuccessful, "That username is taken.")
			return
		}
		s.logger.Error("creating user", zap.String("username", username), zap.Error(err))
		s.notify(sess, protocol.TypeCreateUserUnsuccessful, "Account creation failed, try again.")
		return
	}

	s.notify(sess, protocol.TypeCreateUserSuccessful, "Account created. You may now log in.")
	s.logger.Info("user created", zap.String("username", username))
}

func (s *Server) handleSelectCharacter(ctx context.Context, sess *session.Session, msg protocol.Message) {
	var req protocol.SelectCharacter
	if err := msg.DecodePayload(&req); err != nil {
		s.notify(sess, protocol.TypeSelectCharacterUnsuccessful, "Malformed request.")
		return
	}

	c, err := s.store.CharacterByName(ctx, strings.TrimSpace(req.Name))
	if errors.Is(err, world.ErrCharacterNotFound) || (err == nil && c.UserID != sess.User().ID) {
		s.notify(sess, protocol.TypeSelectCharacterUnsuccessful, "You have no character by that name.")
		return
	}
	if err != nil {
		s.logger.Error("loading character", zap.String("name", req.Name), zap.Error(err))
		s.notify(sess, protocol.TypeSelectCharacterUnsuccessful, "Character selection failed, try again.")
		return
	}

	// A character parked in a room that no longer exists restarts at the
	// entry room.
	if _, err := s.store.Room(ctx, c.RoomID); err != nil {
		c.RoomID = int64(s.cfg.EntryRoom)
	}

	s.notify(sess, protocol.TypeSelectCharacterSuccessful, c.Name)
	s.enterPlay(ctx, sess, c)
}

func (s *Server) handleCreateCharacter(ctx context.Context, sess *session.Session, msg protocol.Message) {
	var req protocol.CreateCharacter
	if err := msg.DecodePayload(&req); err != nil {
		s.notify(sess, protocol.TypeCreateCharacterUnsuccessful, "Malformed request.")
		return
	}
	name := strings.TrimSpace(req.Name)
	if len(name) < world.MinNameLength {
		s.notify(sess, protocol.TypeCreateCharacterUnsuccessful,
			fmt.Sprintf("Character names must be at least %d characters.", world.MinNameLength))
		return
	}
	kind, err := ruleset.ParseClass(req.Class)
	if err != nil {
		s.notify(sess, protocol.TypeCreateCharacterUnsuccessful, "That is not a playable class.")
		return
	}

	stats := kind.StatsAt(1)
	c := &world.Character{
		UserID:     sess.User().ID,
		Name:       name,
		Class:      kind,
		Level:      1,
		Experience: 0,
		HP:         stats.MaxHP,
		AP:         stats.MaxAP,
		RoomID:     int64(s.cfg.EntryRoom),
	}
	if err := s.store.CreateCharacter(ctx, c); err != nil {
		if errors.Is(err, world.ErrCharacterExists) {
			s.notify(sess, protocol.TypeCreateCharacterUnsuccessful, "That name is taken.")
			return
		}
		s.logger.Error("creating character", zap.String("name", name), zap.Error(err))
		s.notify(sess, protocol.TypeCreateCharacterUnsuccessful, "Character creation failed, try again.")
		return
	}

	s.notify(sess, protocol.TypeCreateCharacterSuccessful, c.Name)
	s.enterPlay(ctx, sess, c)
}

// enterPlay moves a session into the Playing state with the given character.
func (s *Server) enterPlay(ctx context.Context, sess *session.Session, c *world.Character) {
	sess.SetCharacter(c)
	sess.SetState(session.StatePlaying)

	s.bus.DisplayToAll(fmt.Sprintf("%s has logged in!", c.Name))
	s.look(ctx, sess)
	s.pushState(ctx, sess)
	s.logger.Info("character entered world",
		zap.String("character", c.Name),
		zap.Int64("room", c.RoomID),
	)
}
