// Package broadcast fans wire frames out to sessions. Delivery is
// best-effort: a recipient whose transport fails is logged and skipped,
// never allowed to abort the broadcast.
package broadcast

import (
	"go.uber.org/zap"

	"github.com/google/uuid"

	"github.com/nickeddy/uamud/internal/game/session"
	"github.com/nickeddy/uamud/internal/protocol"
)

// Bus delivers messages to one, some, or all sessions.
type Bus struct {
	registry *session.Registry
	logger   *zap.Logger
}

// NewBus creates a bus over the given registry.
func NewBus(registry *session.Registry, logger *zap.Logger) *Bus {
	return &Bus{registry: registry, logger: logger}
}

// ToSession sends one frame to one session.
func (b *Bus) ToSession(s *session.Session, msg protocol.Message) {
	if err := s.Send(msg); err != nil {
		b.logger.Warn("broadcast delivery failed",
			zap.String("session", s.ID.String()),
			zap.String("type", string(msg.Type)),
			zap.Error(err),
		)
	}
}

// ToRoom sends one frame to every playing session in the room, skipping the
// excluded session IDs.
func (b *Bus) ToRoom(roomID int64, msg protocol.Message, exclude ...uuid.UUID) {
	for _, s := range b.registry.InRoom(roomID, exclude...) {
		b.ToSession(s, msg)
	}
}

// ToAll sends one frame to every playing session.
func (b *Bus) ToAll(msg protocol.Message) {
	for _, s := range b.registry.Playing() {
		b.ToSession(s, msg)
	}
}

// Display sends renderable text to one session.
func (b *Bus) Display(s *session.Session, text string) {
	msg, err := protocol.NewMessage(protocol.TypeDisplay, protocol.Display{Text: text})
	if err != nil {
		b.logger.Error("encoding display frame", zap.Error(err))
		return
	}
	b.ToSession(s, msg)
}

// DisplayToRoom sends renderable text to every playing session in the room.
func (b *Bus) DisplayToRoom(roomID int64, text string, exclude ...uuid.UUID) {
	msg, err := protocol.NewMessage(protocol.TypeDisplay, protocol.Display{Text: text})
	if err != nil {
		b.logger.Error("encoding display frame", zap.Error(err))
		return
	}
	b.ToRoom(roomID, msg, exclude...)
}

// DisplayToAll sends renderable text to every playing session.
func (b *Bus) DisplayToAll(text string) {
	msg, err := protocol.NewMessage(protocol.TypeDisplay, protocol.Display{Text: text})
	if err != nil {
		b.logger.Error("encoding display frame", zap.Error(err))
		return
	}
	b.ToAll(msg)
}
