package gameserver

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/nickeddy/uamud/internal/game/session"
	"github.com/nickeddy/uamud/internal/game/world"
)

func joinLines(lines []string) string {
	return strings.Join(lines, "\n")
}

// look renders the character's current room: description, exits, floor
// items, NPCs, mobs, and the other players present.
func (s *Server) look(ctx context.Context, sess *session.Session) error {
	roomID := sess.RoomID()
	if roomID == 0 {
		return nil
	}
	room, err := s.store.Room(ctx, roomID)
	if err != nil {
		return fmt.Errorf("loading room %d: %w", roomID, err)
	}

	var b strings.Builder
	fmt.Fprintf(&b, "%s\n%s\n", room.Name, room.Description)

	exits := room.Exits()
	if len(exits) == 0 {
		b.WriteString("There are no exits.\n")
	} else {
		names := make([]string, len(exits))
		for i, d := range exits {
			names[i] = string(d)
		}
		fmt.Fprintf(&b, "Exits: %s.\n", strings.Join(names, ", "))
	}
	if room.Locked {
		fmt.Fprintf(&b, "The %s door is locked.\n", room.LockedDoor)
	}

	stacks, err := s.store.RoomItems(ctx, room.ID)
	if err != nil {
		return fmt.Errorf("listing room items: %w", err)
	}
	if len(stacks) > 0 {
		names := make([]string, len(stacks))
		for i, stack := range stacks {
			names[i] = stack.Item.Name
			if stack.Quantity > 1 {
				names[i] = fmt.Sprintf("%s (x%d)", stack.Item.Name, stack.Quantity)
			}
		}
		fmt.Fprintf(&b, "You see: %s.\n", strings.Join(names, ", "))
	}

	var here []string
	npcs, err := s.store.NPCsInRoom(ctx, room.ID)
	if err != nil {
		return fmt.Errorf("listing npcs: %w", err)
	}
	for _, npc := range npcs {
		here = append(here, npc.Name)
	}
	for _, m := range s.mobs.InRoom(room.ID) {
		here = append(here, fmt.Sprintf("%s (lv. %d)", m.Name, m.Level))
	}
	for _, other := range s.sessions.InRoom(room.ID, sess.ID) {
		if oc, ok := other.Snapshot(); ok {
			here = append(here, oc.Name)
		}
	}
	if len(here) > 0 {
		fmt.Fprintf(&b, "Also here: %s.\n", strings.Join(here, ", "))
	}

	s.bus.Display(sess, strings.TrimRight(b.String(), "\n"))
	return nil
}

// move walks the character through an exit. Movement chains a look
// re-render and wakes any hostile mobs in the destination.
func (s *Server) move(ctx context.Context, sess *session.Session, dirArg string) error {
	dir, ok := world.ParseDirection(dirArg)
	if !ok {
		s.bus.Display(sess, "You can move north, east, south, or west.")
		return nil
	}

	from := sess.RoomID()
	if from == 0 {
		return nil
	}
	room, err := s.store.Room(ctx, from)
	if err != nil {
		return fmt.Errorf("loading room %d: %w", from, err)
	}
	dest := room.Exit(dir)
	if dest == 0 {
		s.bus.Display(sess, "You cannot go that way.")
		return nil
	}
	if room.Locked && room.LockedDoor == dir {
		s.bus.Display(sess, fmt.Sprintf("The %s door is locked.", dir))
		return nil
	}

	var name string
	moved := false
	err = sess.WithCharacter(func(c *world.Character) error {
		// A retaliation death may have relocated the character since the
		// exit was read.
		if c.RoomID != from {
			return nil
		}
		c.RoomID = dest
		if err := s.store.SaveCharacter(ctx, c); err != nil {
			c.RoomID = from
			return fmt.Errorf("persisting move: %w", err)
		}
		name = c.Name
		moved = true
		return nil
	})
	if err != nil && !errors.Is(err, session.ErrNoCharacter) {
		return err
	}
	if !moved {
		return nil
	}

	s.bus.DisplayToRoom(from, fmt.Sprintf("%s heads %s.", name, dir), sess.ID)
	s.bus.DisplayToRoom(dest, fmt.Sprintf("%s arrives.", name), sess.ID)
	if err := s.look(ctx, sess); err != nil {
		return err
	}
	s.wakeMobs(dest)
	return nil
}

// unlock opens the room's locked door, consuming the key item.
func (s *Server) unlock(ctx context.Context, sess *session.Session, dirArg string) error {
	dir, ok := world.ParseDirection(dirArg)
	if !ok {
		s.bus.Display(sess, "You can unlock the north, east, south, or west door.")
		return nil
	}

	c, ok := sess.Snapshot()
	if !ok {
		return nil
	}
	room, err := s.store.Room(ctx, c.RoomID)
	if err != nil {
		return fmt.Errorf("loading room %d: %w", c.RoomID, err)
	}
	if !room.Locked || room.LockedDoor != dir {
		s.bus.Display(sess, "There is no locked door there.")
		return nil
	}

	key, err := s.store.Item(ctx, room.RequiredItem)
	if err != nil {
		return fmt.Errorf("loading key item %d: %w", room.RequiredItem, err)
	}
	if err := s.store.RemoveItem(ctx, c.ID, key.ID, 1); err != nil {
		if errors.Is(err, world.ErrItemNotFound) || errors.Is(err, world.ErrInsufficientQuantity) {
			s.bus.Display(sess, fmt.Sprintf("You need a %s to unlock that door.", key.Name))
			return nil
		}
		return fmt.Errorf("consuming key: %w", err)
	}
	if err := s.store.SetLocked(ctx, room.ID, false); err != nil {
		return fmt.Errorf("unlocking room %d: %w", room.ID, err)
	}

	s.bus.Display(sess, fmt.Sprintf("You unlock the %s door with the %s.", dir, key.Name))
	s.bus.DisplayToRoom(room.ID, fmt.Sprintf("%s unlocks the %s door.", c.Name, dir), sess.ID)
	return nil
}
