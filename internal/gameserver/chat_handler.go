package gameserver

import (
	"context"
	"errors"
	"fmt"

	"github.com/nickeddy/uamud/internal/game/ruleset"
	"github.com/nickeddy/uamud/internal/game/session"
	"github.com/nickeddy/uamud/internal/game/world"
)

func (s *Server) say(sess *session.Session, message string) error {
	c, ok := sess.Snapshot()
	if !ok {
		return nil
	}
	s.bus.DisplayToRoom(c.RoomID, fmt.Sprintf("%s says, '%s'", c.Name, message))
	return nil
}

func (s *Server) emote(sess *session.Session, action string) error {
	c, ok := sess.Snapshot()
	if !ok {
		return nil
	}
	s.bus.DisplayToRoom(c.RoomID, fmt.Sprintf("%s %s", c.Name, action))
	return nil
}

func (s *Server) ooc(sess *session.Session, message string) error {
	c, ok := sess.Snapshot()
	if !ok {
		return nil
	}
	s.bus.DisplayToAll(fmt.Sprintf("[OOC] %s: %s", c.Name, message))
	return nil
}

func (s *Server) tell(sess *session.Session, target, message string) error {
	c, ok := sess.Snapshot()
	if !ok {
		return nil
	}
	other, ok := s.sessions.ByCharacterName(target)
	if !ok {
		s.bus.Display(sess, "There is no one by that name.")
		return nil
	}
	if other.ID == sess.ID {
		s.bus.Display(sess, "You mutter to yourself.")
		return nil
	}
	oc, ok := other.Snapshot()
	if !ok {
		s.bus.Display(sess, "There is no one by that name.")
		return nil
	}
	s.bus.Display(other, fmt.Sprintf("%s tells you, '%s'", c.Name, message))
	s.bus.Display(sess, fmt.Sprintf("You tell %s, '%s'", oc.Name, message))
	return nil
}

func (s *Server) who(sess *session.Session) error {
	var lines []string
	for _, other := range s.sessions.Playing() {
		if c, ok := other.Snapshot(); ok {
			lines = append(lines, fmt.Sprintf("%s (%s lv. %d)", c.Name, c.Class.DisplayName(), c.Level))
		}
	}
	s.bus.Display(sess, fmt.Sprintf("Online now:\n%s", joinLines(lines)))
	return nil
}

// talk addresses an NPC or mob in the room by name. Merchants answer with
// their wares; everything else answers with a dialogue line.
func (s *Server) talk(ctx context.Context, sess *session.Session, name string) error {
	c, ok := sess.Snapshot()
	if !ok {
		return nil
	}

	npc, err := s.store.NPCByName(ctx, name)
	if err == nil && npc.RoomID == c.RoomID {
		return s.talkToNPC(ctx, sess, npc)
	}
	if err != nil && !errors.Is(err, world.ErrNPCNotFound) {
		return fmt.Errorf("looking up npc %q: %w", name, err)
	}

	m, err := s.mobs.FindInRoom(c.RoomID, name)
	if err != nil {
		s.bus.Display(sess, "There is no one by that name here.")
		return nil
	}
	s.bus.Display(sess, fmt.Sprintf("%s: %s", m.Name, s.speciesLine(m.Species)))
	return nil
}

func (s *Server) talkToNPC(ctx context.Context, sess *session.Session, npc *world.NPC) error {
	line, ok := s.dialogue.Line(npc.Name, s.rng)
	if !ok {
		line = s.speciesLine(npc.Species)
	}
	s.bus.Display(sess, fmt.Sprintf("%s: %s", npc.Name, line))

	if !npc.Merchant {
		return nil
	}
	stock, err := s.store.Stock(ctx, npc.ID)
	if err != nil {
		return fmt.Errorf("listing stock for %q: %w", npc.Name, err)
	}
	if len(stock) == 0 {
		s.bus.Display(sess, fmt.Sprintf("%s has nothing for sale.", npc.Name))
		return nil
	}
	lines := []string{fmt.Sprintf("%s has for sale:", npc.Name)}
	for _, listing := range stock {
		lines = append(lines, fmt.Sprintf("  %s - %d caps (x%d)", listing.Item.Name, listing.Price, listing.Quantity))
	}
	s.bus.Display(sess, joinLines(lines))
	return nil
}

// speciesLine picks a dialogue line for a species, preferring Lua-loaded
// lines over the built-in fallbacks.
func (s *Server) speciesLine(kind ruleset.SpeciesKind) string {
	if line, ok := s.dialogue.Line(string(kind), s.rng); ok {
		return line
	}
	return kind.Talk(s.rng)
}
