package gameserver

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/nickeddy/uamud/internal/game/session"
	"github.com/nickeddy/uamud/internal/game/world"
)

// trade negotiates a two-party item exchange. The final argument is either
// an item name (an offer) or one of the keywords accept / refuse.
func (s *Server) trade(ctx context.Context, sess *session.Session, targetName, arg string) error {
	other, ok := s.sessions.ByCharacterName(targetName)
	if !ok {
		s.bus.Display(sess, "There is no one by that name.")
		return nil
	}
	if other.ID == sess.ID {
		s.bus.Display(sess, "You cannot trade with yourself.")
		return nil
	}

	switch strings.ToLower(arg) {
	case "accept":
		return s.tradeAccept(ctx, sess, other)
	case "refuse":
		s.tradeRefuse(sess, other)
		return nil
	default:
		return s.tradeOffer(ctx, sess, other, arg)
	}
}

func (s *Server) tradeOffer(ctx context.Context, sess, other *session.Session, itemName string) error {
	c := sess.Character()
	stacks, err := s.store.Inventory(ctx, c.ID)
	if err != nil {
		return fmt.Errorf("listing inventory: %w", err)
	}
	stack, ok := findStack(stacks, itemName)
	if !ok {
		s.bus.Display(sess, fmt.Sprintf("You are not carrying a %s.", itemName))
		return nil
	}

	sess.SetTrade(&session.TradeState{
		CounterpartID: other.Character().ID,
		OfferItemID:   stack.Item.ID,
	})
	s.bus.Display(sess, fmt.Sprintf("You offer %s the %s.", other.Character().Name, stack.Item.Name))
	s.bus.Display(other, fmt.Sprintf(
		"%s offers you a %s in trade. Offer an item back, then 'trade %s accept' to complete.",
		c.Name, stack.Item.Name, c.Name))
	return nil
}

func (s *Server) tradeAccept(ctx context.Context, sess, other *session.Session) error {
	mine := sess.Trade()
	theirs := other.Trade()
	otherChar := other.Character()
	myChar := sess.Character()

	// Both sides must have offered, and each offer must be directed at the
	// other party. The identity cross-check stops an accept aimed at a
	// different negotiation.
	if mine == nil || mine.CounterpartID != otherChar.ID {
		s.bus.Display(sess, fmt.Sprintf("You have no trade open with %s.", otherChar.Name))
		return nil
	}
	if theirs == nil || theirs.CounterpartID != myChar.ID {
		s.bus.Display(sess, fmt.Sprintf("%s has not offered you anything yet.", otherChar.Name))
		return nil
	}

	mine.Accepted = true
	sess.SetTrade(mine)
	if !theirs.Accepted {
		s.bus.Display(sess, fmt.Sprintf("You accept %s's offer. Waiting for them to accept yours.", otherChar.Name))
		s.bus.Display(other, fmt.Sprintf("%s accepts your offer. 'trade %s accept' to complete.", myChar.Name, myChar.Name))
		return nil
	}

	return s.tradeCommit(ctx, sess, other, mine.OfferItemID, theirs.OfferItemID)
}

// tradeCommit performs the exchange all-or-nothing. The engine's trade lock
// serializes commits, both inventories are re-validated under it, and a move
// that fails unwinds the moves already made, so neither side can end up with
// a half-finished exchange.
func (s *Server) tradeCommit(ctx context.Context, sess, other *session.Session, myItemID, theirItemID int64) error {
	myChar := sess.Character()
	otherChar := other.Character()

	s.tradeMu.Lock()
	defer s.tradeMu.Unlock()

	myItem, err := s.itemStillHeld(ctx, myChar.ID, myItemID)
	if err != nil {
		return err
	}
	theirItem, err := s.itemStillHeld(ctx, otherChar.ID, theirItemID)
	if err != nil {
		return err
	}
	if myItem == nil || theirItem == nil {
		reason := "The trade fell through: an offered item is gone."
		s.clearTrade(sess, other, reason)
		s.bus.Display(sess, reason)
		return nil
	}

	type step struct {
		do   func() error
		undo func() error
	}
	steps := []step{
		{
			do:   func() error { return s.store.RemoveItem(ctx, myChar.ID, myItem.ID, 1) },
			undo: func() error { return s.store.AddItem(ctx, myChar.ID, myItem.ID, 1) },
		},
		{
			do:   func() error { return s.store.AddItem(ctx, otherChar.ID, myItem.ID, 1) },
			undo: func() error { return s.store.RemoveItem(ctx, otherChar.ID, myItem.ID, 1) },
		},
		{
			do:   func() error { return s.store.RemoveItem(ctx, otherChar.ID, theirItem.ID, 1) },
			undo: func() error { return s.store.AddItem(ctx, otherChar.ID, theirItem.ID, 1) },
		},
		{
			do:   func() error { return s.store.AddItem(ctx, myChar.ID, theirItem.ID, 1) },
			undo: func() error { return s.store.RemoveItem(ctx, myChar.ID, theirItem.ID, 1) },
		},
	}
	for i := range steps {
		err := steps[i].do()
		if err == nil {
			continue
		}
		for j := i - 1; j >= 0; j-- {
			if uerr := steps[j].undo(); uerr != nil {
				s.logger.Error("unwinding trade step",
					zap.String("initiator", myChar.Name),
					zap.String("counterpart", otherChar.Name),
					zap.Error(uerr))
			}
		}
		vanished := errors.Is(err, world.ErrItemNotFound) || errors.Is(err, world.ErrInsufficientQuantity)
		reason := "The trade fell through."
		if vanished {
			reason = "The trade fell through: an offered item is gone."
		}
		s.clearTrade(sess, other, reason)
		s.bus.Display(sess, reason)
		if vanished {
			return nil
		}
		return fmt.Errorf("committing trade between %s and %s: %w", myChar.Name, otherChar.Name, err)
	}

	sess.ClearTrade()
	other.ClearTrade()
	s.bus.Display(sess, fmt.Sprintf("Trade complete! You receive a %s.", theirItem.Name))
	s.bus.Display(other, fmt.Sprintf("Trade complete! You receive a %s.", myItem.Name))
	return nil
}

// itemStillHeld returns the offered item if the character still carries it.
func (s *Server) itemStillHeld(ctx context.Context, characterID, itemID int64) (*world.Item, error) {
	stacks, err := s.store.Inventory(ctx, characterID)
	if err != nil {
		return nil, fmt.Errorf("listing inventory: %w", err)
	}
	for _, stack := range stacks {
		if stack.Item.ID == itemID && stack.Quantity > 0 {
			return stack.Item, nil
		}
	}
	return nil, nil
}

func (s *Server) tradeRefuse(sess, other *session.Session) {
	s.clearTrade(sess, other, fmt.Sprintf("%s refuses the trade.", sess.Character().Name))
	s.bus.Display(sess, "You refuse the trade.")
}

// clearTrade drops both sides' state and tells the counterpart why.
func (s *Server) clearTrade(sess, other *session.Session, reason string) {
	sess.ClearTrade()
	other.ClearTrade()
	s.bus.Display(other, reason)
}

// cancelTradeFor tears down any trade the disconnecting character was in,
// notifying the counterpart.
func (s *Server) cancelTradeFor(sess *session.Session, c *world.Character) {
	t := sess.Trade()
	sess.ClearTrade()
	if t == nil {
		return
	}
	other, ok := s.sessions.ByCharacterID(t.CounterpartID)
	if !ok {
		return
	}
	if theirs := other.Trade(); theirs != nil && theirs.CounterpartID == c.ID {
		other.ClearTrade()
		s.bus.Display(other, fmt.Sprintf("The trade with %s was cancelled.", c.Name))
	}
}
