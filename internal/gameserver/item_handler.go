package gameserver

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/nickeddy/uamud/internal/game/session"
	"github.com/nickeddy/uamud/internal/game/world"
)

// findStack locates an item stack by name, case-insensitively.
func findStack(stacks []world.ItemStack, name string) (world.ItemStack, bool) {
	for _, stack := range stacks {
		if strings.EqualFold(stack.Item.Name, name) {
			return stack, true
		}
	}
	return world.ItemStack{}, false
}

func (s *Server) grab(ctx context.Context, sess *session.Session, name string) error {
	c, ok := sess.Snapshot()
	if !ok {
		return nil
	}
	stacks, err := s.store.RoomItems(ctx, c.RoomID)
	if err != nil {
		return fmt.Errorf("listing room items: %w", err)
	}
	stack, ok := findStack(stacks, name)
	if !ok {
		s.bus.Display(sess, fmt.Sprintf("There is no %s here.", name))
		return nil
	}
	if stack.Item.Type == world.TypePermanent {
		s.bus.Display(sess, "You cannot take that.")
		return nil
	}

	if err := s.store.RemoveRoomItem(ctx, c.RoomID, stack.Item.ID, 1); err != nil {
		return fmt.Errorf("removing %q from room: %w", stack.Item.Name, err)
	}
	if err := s.store.AddItem(ctx, c.ID, stack.Item.ID, 1); err != nil {
		return fmt.Errorf("adding %q to inventory: %w", stack.Item.Name, err)
	}
	s.bus.Display(sess, fmt.Sprintf("You grab the %s.", stack.Item.Name))
	s.bus.DisplayToRoom(c.RoomID, fmt.Sprintf("%s grabs the %s.", c.Name, stack.Item.Name), sess.ID)
	return nil
}

func (s *Server) showInventory(ctx context.Context, sess *session.Session) error {
	c, ok := sess.Snapshot()
	if !ok {
		return nil
	}
	stacks, err := s.store.Inventory(ctx, c.ID)
	if err != nil {
		return fmt.Errorf("listing inventory: %w", err)
	}
	equipment, err := s.store.Equipment(ctx, c.ID)
	if err != nil {
		return fmt.Errorf("listing equipment: %w", err)
	}
	equipped := make(map[int64]bool, len(equipment))
	for _, item := range equipment {
		equipped[item.ID] = true
	}

	if len(stacks) == 0 {
		s.bus.Display(sess, "You are not carrying anything.")
		return nil
	}
	lines := []string{"You are carrying:"}
	for _, stack := range stacks {
		line := fmt.Sprintf("  %s", stack.Item.Name)
		if stack.Quantity > 1 {
			line = fmt.Sprintf("%s (x%d)", line, stack.Quantity)
		}
		if equipped[stack.Item.ID] {
			line += " [equipped]"
		}
		lines = append(lines, line)
	}
	s.bus.Display(sess, joinLines(lines))
	return nil
}

// drop puts one copy of an item on the floor. A dropped item is unequipped
// first so equipment never outlives its inventory entry.
func (s *Server) drop(ctx context.Context, sess *session.Session, name string) error {
	c, ok := sess.Snapshot()
	if !ok {
		return nil
	}
	stacks, err := s.store.Inventory(ctx, c.ID)
	if err != nil {
		return fmt.Errorf("listing inventory: %w", err)
	}
	stack, ok := findStack(stacks, name)
	if !ok {
		s.bus.Display(sess, fmt.Sprintf("You are not carrying a %s.", name))
		return nil
	}

	if err := s.store.Unequip(ctx, c.ID, stack.Item.ID); err != nil && !errors.Is(err, world.ErrItemNotFound) {
		return fmt.Errorf("unequipping %q: %w", stack.Item.Name, err)
	}
	if err := s.store.RemoveItem(ctx, c.ID, stack.Item.ID, 1); err != nil {
		return fmt.Errorf("removing %q from inventory: %w", stack.Item.Name, err)
	}
	if err := s.store.AddRoomItem(ctx, c.RoomID, stack.Item.ID, 1); err != nil {
		return fmt.Errorf("placing %q in room: %w", stack.Item.Name, err)
	}
	s.bus.Display(sess, fmt.Sprintf("You drop the %s.", stack.Item.Name))
	s.bus.DisplayToRoom(c.RoomID, fmt.Sprintf("%s drops a %s.", c.Name, stack.Item.Name), sess.ID)
	return nil
}

func (s *Server) useItem(ctx context.Context, sess *session.Session, name string) error {
	c, ok := sess.Snapshot()
	if !ok {
		return nil
	}
	stacks, err := s.store.Inventory(ctx, c.ID)
	if err != nil {
		return fmt.Errorf("listing inventory: %w", err)
	}
	stack, ok := findStack(stacks, name)
	if !ok {
		s.bus.Display(sess, fmt.Sprintf("You are not carrying a %s.", name))
		return nil
	}
	item := stack.Item
	if !item.Usable {
		s.bus.Display(sess, "You cannot use that.")
		return nil
	}
	if c.Level < item.RequiredLevel {
		s.bus.Display(sess, fmt.Sprintf("You must be level %d to use the %s.", item.RequiredLevel, item.Name))
		return nil
	}

	// Prerequisite items are consumed along with the use.
	if item.RequiredItem != 0 {
		qty := item.RequiredQuantity
		if qty < 1 {
			qty = 1
		}
		prereq, err := s.store.Item(ctx, item.RequiredItem)
		if err != nil {
			return fmt.Errorf("loading prerequisite item %d: %w", item.RequiredItem, err)
		}
		if err := s.store.RemoveItem(ctx, c.ID, prereq.ID, qty); err != nil {
			if errors.Is(err, world.ErrItemNotFound) || errors.Is(err, world.ErrInsufficientQuantity) {
				s.bus.Display(sess, fmt.Sprintf("You need %d %s to use the %s.", qty, prereq.Name, item.Name))
				return nil
			}
			return fmt.Errorf("consuming prerequisite: %w", err)
		}
	}

	if err := s.applyEffect(ctx, sess, item); err != nil {
		return err
	}

	// Fixtures survive their use; everything else is consumed.
	if item.Type != world.TypePermanent {
		if err := s.store.Unequip(ctx, c.ID, item.ID); err != nil && !errors.Is(err, world.ErrItemNotFound) {
			return fmt.Errorf("unequipping %q: %w", item.Name, err)
		}
		if err := s.store.RemoveItem(ctx, c.ID, item.ID, 1); err != nil {
			return fmt.Errorf("consuming %q: %w", item.Name, err)
		}
	}
	return nil
}

// applyEffect performs an item's effect and narrates it to the user. The
// whole effect runs under the session lock so it cannot interleave with a
// retaliating mob's strike.
func (s *Server) applyEffect(ctx context.Context, sess *session.Session, item *world.Item) error {
	err := sess.WithCharacter(func(c *world.Character) error {
		stats := c.Stats()

		switch item.Effect {
		case world.EffectHealHP:
			c.HP = min(c.HP+item.EffectAmount, stats.MaxHP)
			s.bus.Display(sess, fmt.Sprintf("You use the %s and feel better. HP: %d/%d", item.Name, c.HP, stats.MaxHP))
		case world.EffectHealAP:
			c.AP = min(c.AP+item.EffectAmount, stats.MaxAP)
			s.bus.Display(sess, fmt.Sprintf("You use the %s and feel focused. AP: %d/%d", item.Name, c.AP, stats.MaxAP))
		case world.EffectAddItem:
			granted, err := s.store.Item(ctx, int64(item.EffectAmount))
			if err != nil {
				return fmt.Errorf("loading granted item %d: %w", item.EffectAmount, err)
			}
			if err := s.store.AddItem(ctx, c.ID, granted.ID, 1); err != nil {
				return fmt.Errorf("granting %q: %w", granted.Name, err)
			}
			s.bus.Display(sess, fmt.Sprintf("You use the %s and receive a %s.", item.Name, granted.Name))
		case world.EffectLightsOn:
			c.Lights = true
			s.bus.Display(sess, "The lights come on.")
		case world.EffectLightsOff:
			c.Lights = false
			s.bus.Display(sess, "The lights go out.")
		case world.EffectNukaCola:
			c.HP = min(c.HP+item.EffectAmount, stats.MaxHP)
			if err := s.store.AddItem(ctx, c.ID, world.CapsItemID, 1); err != nil {
				return fmt.Errorf("granting bottle cap: %w", err)
			}
			s.bus.Display(sess, fmt.Sprintf("Ice cold Nuka-Cola. You keep the cap. HP: %d/%d", c.HP, stats.MaxHP))
		case world.EffectNone:
			s.bus.Display(sess, fmt.Sprintf("You use the %s. Nothing happens.", item.Name))
		default:
			return fmt.Errorf("item %q has unknown effect %q", item.Name, item.Effect)
		}

		if err := s.store.SaveCharacter(ctx, c); err != nil {
			return fmt.Errorf("persisting effect of %q: %w", item.Name, err)
		}
		return nil
	})
	if errors.Is(err, session.ErrNoCharacter) {
		return nil
	}
	return err
}

func (s *Server) equip(ctx context.Context, sess *session.Session, name string) error {
	c, ok := sess.Snapshot()
	if !ok {
		return nil
	}
	stacks, err := s.store.Inventory(ctx, c.ID)
	if err != nil {
		return fmt.Errorf("listing inventory: %w", err)
	}
	stack, ok := findStack(stacks, name)
	if !ok {
		s.bus.Display(sess, fmt.Sprintf("You are not carrying a %s.", name))
		return nil
	}
	item := stack.Item
	if !item.Equippable {
		s.bus.Display(sess, "You cannot equip that.")
		return nil
	}
	if c.Level < item.RequiredLevel {
		s.bus.Display(sess, fmt.Sprintf("You must be level %d to equip the %s.", item.RequiredLevel, item.Name))
		return nil
	}

	equipment, err := s.store.Equipment(ctx, c.ID)
	if err != nil {
		return fmt.Errorf("listing equipment: %w", err)
	}
	for _, worn := range equipment {
		if worn.ID == item.ID {
			s.bus.Display(sess, fmt.Sprintf("The %s is already equipped.", item.Name))
			return nil
		}
		if worn.Slot == item.Slot {
			s.bus.Display(sess, fmt.Sprintf("You already have the %s equipped there.", worn.Name))
			return nil
		}
	}

	if err := s.store.Equip(ctx, c.ID, item.ID); err != nil {
		return fmt.Errorf("equipping %q: %w", item.Name, err)
	}
	s.bus.Display(sess, fmt.Sprintf("You equip the %s.", item.Name))
	return nil
}

func (s *Server) unequip(ctx context.Context, sess *session.Session, name string) error {
	c, ok := sess.Snapshot()
	if !ok {
		return nil
	}
	equipment, err := s.store.Equipment(ctx, c.ID)
	if err != nil {
		return fmt.Errorf("listing equipment: %w", err)
	}
	for _, worn := range equipment {
		if strings.EqualFold(worn.Name, name) {
			if err := s.store.Unequip(ctx, c.ID, worn.ID); err != nil {
				return fmt.Errorf("unequipping %q: %w", worn.Name, err)
			}
			s.bus.Display(sess, fmt.Sprintf("You unequip the %s.", worn.Name))
			return nil
		}
	}
	s.bus.Display(sess, fmt.Sprintf("You do not have a %s equipped.", name))
	return nil
}

// inspect describes an item lying in the room or carried by the character.
func (s *Server) inspect(ctx context.Context, sess *session.Session, name string) error {
	c, ok := sess.Snapshot()
	if !ok {
		return nil
	}
	stacks, err := s.store.RoomItems(ctx, c.RoomID)
	if err != nil {
		return fmt.Errorf("listing room items: %w", err)
	}
	stack, ok := findStack(stacks, name)
	if !ok {
		carried, err := s.store.Inventory(ctx, c.ID)
		if err != nil {
			return fmt.Errorf("listing inventory: %w", err)
		}
		stack, ok = findStack(carried, name)
	}
	if !ok {
		s.bus.Display(sess, fmt.Sprintf("There is no %s to inspect.", name))
		return nil
	}

	item := stack.Item
	lines := []string{fmt.Sprintf("%s (%s)", item.Name, item.Type)}
	if item.Description != "" {
		lines = append(lines, item.Description)
	}
	if item.RequiredLevel > 1 {
		lines = append(lines, fmt.Sprintf("Requires level %d.", item.RequiredLevel))
	}
	if item.Usable {
		lines = append(lines, "It looks usable.")
	}
	if item.Equippable {
		lines = append(lines, fmt.Sprintf("It can be equipped (%s).", item.Slot))
	}
	s.bus.Display(sess, joinLines(lines))
	return nil
}
