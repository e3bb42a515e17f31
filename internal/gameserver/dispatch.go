package gameserver

import (
	"context"
	"errors"

	"go.uber.org/zap"

	"github.com/nickeddy/uamud/internal/game/command"
	"github.com/nickeddy/uamud/internal/game/session"
	"github.com/nickeddy/uamud/internal/protocol"
)

const (
	syntaxErrorText  = "Please adhere to syntax."
	notRecognizedText = "Command not recognized. To see all commands say: 'commands'. Commands are CaSe SeNsItIvE."
)

func (s *Server) handleCommand(ctx context.Context, sess *session.Session, msg protocol.Message) {
	var req protocol.Command
	if err := msg.DecodePayload(&req); err != nil {
		s.bus.Display(sess, syntaxErrorText)
		return
	}

	inv, err := s.commands.Parse(req.Text)
	switch {
	case errors.Is(err, command.ErrSyntax):
		s.bus.Display(sess, syntaxErrorText)
		return
	case errors.Is(err, command.ErrUnknown):
		s.bus.Display(sess, notRecognizedText)
		return
	}
	if inv.Spec.AdminOnly && !sess.User().Admin {
		s.bus.Display(sess, notRecognizedText)
		return
	}

	if err := s.dispatch(ctx, sess, inv); err != nil {
		s.logger.Error("command failed",
			zap.String("command", inv.Spec.Name),
			zap.String("character", sess.Character().Name),
			zap.Error(err),
		)
		s.bus.Display(sess, "Something went wrong. Try again.")
		return
	}

	// Quit tears the session down; everything else repaints the client.
	if inv.Spec.Name != "quit" && sess.State() == session.StatePlaying {
		s.pushState(ctx, sess)
	}
}

// dispatch invokes the handler for a parsed command. Handlers speak to the
// client themselves; a returned error means an internal failure, not a rule
// violation.
func (s *Server) dispatch(ctx context.Context, sess *session.Session, inv command.Invocation) error {
	switch inv.Spec.Name {
	case "look":
		return s.look(ctx, sess)
	case "move":
		return s.move(ctx, sess, inv.Args[0])
	case "north", "east", "south", "west":
		return s.move(ctx, sess, inv.Spec.Name)
	case "commands":
		return s.listCommands(sess)
	case "say":
		return s.say(sess, inv.Args[0])
	case "who":
		return s.who(sess)
	case "tell":
		return s.tell(sess, inv.Args[0], inv.Args[1])
	case "emote":
		return s.emote(sess, inv.Args[0])
	case "ooc":
		return s.ooc(sess, inv.Args[0])
	case "grab":
		return s.grab(ctx, sess, inv.Args[0])
	case "inventory":
		return s.showInventory(ctx, sess)
	case "drop":
		return s.drop(ctx, sess, inv.Args[0])
	case "use":
		return s.useItem(ctx, sess, inv.Args[0])
	case "equip":
		return s.equip(ctx, sess, inv.Args[0])
	case "unequip":
		return s.unequip(ctx, sess, inv.Args[0])
	case "inspect":
		return s.inspect(ctx, sess, inv.Args[0])
	case "attack":
		return s.attack(ctx, sess, inv.Args[0])
	case "buy":
		return s.buy(ctx, sess, inv.Args[0], inv.Args[1])
	case "sell":
		return s.sell(ctx, sess, inv.Args[0], inv.Args[1])
	case "trade":
		return s.trade(ctx, sess, inv.Args[0], inv.Args[1])
	case "unlock":
		return s.unlock(ctx, sess, inv.Args[0])
	case "talk":
		return s.talk(ctx, sess, inv.Args[0])
	case "quit":
		s.Disconnect(ctx, sess)
		return nil
	case "shutdown":
		s.Shutdown(ctx)
		return nil
	}
	s.bus.Display(sess, notRecognizedText)
	return nil
}

// listCommands prints the help line of every command the session may use.
func (s *Server) listCommands(sess *session.Session) error {
	var lines []string
	for _, spec := range s.commands.Specs() {
		if spec.AdminOnly && !sess.User().Admin {
			continue
		}
		lines = append(lines, spec.Help)
	}
	s.bus.Display(sess, joinLines(lines))
	return nil
}
