package gameserver

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/nickeddy/uamud/internal/game/session"
	"github.com/nickeddy/uamud/internal/game/world"
)

// capsHeld counts the bottle caps in a character's inventory.
func (s *Server) capsHeld(ctx context.Context, characterID int64) (int, error) {
	stacks, err := s.store.Inventory(ctx, characterID)
	if err != nil {
		return 0, fmt.Errorf("listing inventory: %w", err)
	}
	for _, stack := range stacks {
		if stack.Item.ID == world.CapsItemID {
			return stack.Quantity, nil
		}
	}
	return 0, nil
}

// merchantInRoom resolves a merchant NPC standing in the character's room.
func (s *Server) merchantInRoom(ctx context.Context, sess *session.Session, name string) (*world.NPC, bool, error) {
	c, ok := sess.Snapshot()
	if !ok {
		return nil, false, nil
	}
	npc, err := s.store.NPCByName(ctx, name)
	if errors.Is(err, world.ErrNPCNotFound) {
		s.bus.Display(sess, "There is no one by that name here.")
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("looking up npc %q: %w", name, err)
	}
	if npc.RoomID != c.RoomID {
		s.bus.Display(sess, "There is no one by that name here.")
		return nil, false, nil
	}
	if !npc.Merchant {
		s.bus.Display(sess, fmt.Sprintf("%s is not interested in trading.", npc.Name))
		return nil, false, nil
	}
	return npc, true, nil
}

func (s *Server) buy(ctx context.Context, sess *session.Session, npcName, itemName string) error {
	c, ok := sess.Snapshot()
	if !ok {
		return nil
	}
	npc, ok, err := s.merchantInRoom(ctx, sess, npcName)
	if err != nil || !ok {
		return err
	}

	stock, err := s.store.Stock(ctx, npc.ID)
	if err != nil {
		return fmt.Errorf("listing stock for %q: %w", npc.Name, err)
	}
	var listing *world.Listing
	for i := range stock {
		if strings.EqualFold(stock[i].Item.Name, itemName) {
			listing = &stock[i]
			break
		}
	}
	if listing == nil || listing.Quantity < 1 {
		s.bus.Display(sess, fmt.Sprintf("%s does not have a %s for sale.", npc.Name, itemName))
		return nil
	}

	caps, err := s.capsHeld(ctx, c.ID)
	if err != nil {
		return err
	}
	if caps < listing.Price {
		s.bus.Display(sess, fmt.Sprintf("You cannot afford the %s. It costs %d caps and you have %d.",
			listing.Item.Name, listing.Price, caps))
		return nil
	}

	if err := s.store.RemoveItem(ctx, c.ID, world.CapsItemID, listing.Price); err != nil {
		return fmt.Errorf("paying %d caps: %w", listing.Price, err)
	}
	if err := s.store.RemoveStock(ctx, npc.ID, listing.Item.ID, 1); err != nil {
		return fmt.Errorf("taking %q from stock: %w", listing.Item.Name, err)
	}
	if err := s.store.AddItem(ctx, c.ID, listing.Item.ID, 1); err != nil {
		return fmt.Errorf("adding %q to inventory: %w", listing.Item.Name, err)
	}

	s.bus.Display(sess, fmt.Sprintf("You buy the %s from %s for %d caps.",
		listing.Item.Name, npc.Name, listing.Price))
	return nil
}

func (s *Server) sell(ctx context.Context, sess *session.Session, npcName, itemName string) error {
	c, ok := sess.Snapshot()
	if !ok {
		return nil
	}
	npc, ok, err := s.merchantInRoom(ctx, sess, npcName)
	if err != nil || !ok {
		return err
	}

	stacks, err := s.store.Inventory(ctx, c.ID)
	if err != nil {
		return fmt.Errorf("listing inventory: %w", err)
	}
	stack, found := findStack(stacks, itemName)
	if !found {
		s.bus.Display(sess, fmt.Sprintf("You are not carrying a %s.", itemName))
		return nil
	}
	item := stack.Item
	if item.ID == world.CapsItemID {
		s.bus.Display(sess, fmt.Sprintf("%s stares at you blankly.", npc.Name))
		return nil
	}

	price := item.SellPrice()
	if err := s.store.Unequip(ctx, c.ID, item.ID); err != nil && !errors.Is(err, world.ErrItemNotFound) {
		return fmt.Errorf("unequipping %q: %w", item.Name, err)
	}
	if err := s.store.RemoveItem(ctx, c.ID, item.ID, 1); err != nil {
		return fmt.Errorf("removing %q from inventory: %w", item.Name, err)
	}
	if price > 0 {
		if err := s.store.AddItem(ctx, c.ID, world.CapsItemID, price); err != nil {
			return fmt.Errorf("granting %d caps: %w", price, err)
		}
	}
	// The merchant relists what it buys, at a markup.
	if err := s.store.AddStock(ctx, npc.ID, item.ID, item.ResalePrice(), 1); err != nil {
		return fmt.Errorf("restocking %q: %w", item.Name, err)
	}

	s.bus.Display(sess, fmt.Sprintf("You sell the %s to %s for %d caps.", item.Name, npc.Name, price))
	return nil
}
