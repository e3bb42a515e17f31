package gameserver

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/nickeddy/uamud/internal/game/mob"
	"github.com/nickeddy/uamud/internal/game/ruleset"
	"github.com/nickeddy/uamud/internal/game/session"
	"github.com/nickeddy/uamud/internal/game/world"
)

// attack is one combat exchange: the character strikes the mob, and a
// surviving mob strikes back. The claim keeps the exchange exclusive; racing
// attackers get a contention notification instead of a hit.
func (s *Server) attack(ctx context.Context, sess *session.Session, name string) error {
	c, ok := sess.Snapshot()
	if !ok {
		return nil
	}
	target, err := s.mobs.FindInRoom(c.RoomID, name)
	if err != nil {
		s.bus.Display(sess, fmt.Sprintf("There is no %s here.", name))
		return nil
	}

	if err := s.mobs.Claim(target.UID, c.ID); err != nil {
		if errors.Is(err, mob.ErrAlreadyClaimed) {
			s.bus.Display(sess, fmt.Sprintf("Someone else is already fighting the %s.", target.Name))
			return nil
		}
		if errors.Is(err, mob.ErrNotFound) {
			s.bus.Display(sess, fmt.Sprintf("There is no %s here.", name))
			return nil
		}
		return fmt.Errorf("claiming %s: %w", target.Name, err)
	}

	dmg := c.Class.Damage(c.Level, s.rng)
	after, err := s.mobs.Damage(target.UID, c.ID, dmg)
	if errors.Is(err, mob.ErrNotFound) {
		s.bus.Display(sess, fmt.Sprintf("The %s is already dead.", target.Name))
		return nil
	}
	if err != nil {
		return fmt.Errorf("damaging %s: %w", target.Name, err)
	}

	if after.HP <= 0 {
		s.bus.Display(sess, fmt.Sprintf("You hit the %s for %d and kill it!", target.Name, dmg))
		s.bus.DisplayToRoom(c.RoomID, fmt.Sprintf("%s kills the %s!", c.Name, target.Name), sess.ID)
		return s.grantKill(ctx, sess, after)
	}

	s.bus.Display(sess, fmt.Sprintf("You hit the %s for %d.", target.Name, dmg))
	s.bus.DisplayToRoom(c.RoomID, fmt.Sprintf("%s attacks the %s!", c.Name, target.Name), sess.ID)
	return s.mobStrike(ctx, after, sess)
}

// grantKill pays out a kill: experience, a caps drop, and any level-ups.
// Reward writes run under the session lock; the retaliation timer mutates
// the same character from its own goroutine.
func (s *Server) grantKill(ctx context.Context, sess *session.Session, m mob.Instance) error {
	spec := m.Species.Spec()
	drop := s.rng.Intn(spec.Value)

	var name string
	var level int
	leveled := false
	err := sess.WithCharacter(func(c *world.Character) error {
		c.Experience += spec.Value * m.Level
		if drop > 0 {
			if err := s.store.AddItem(ctx, c.ID, world.CapsItemID, drop); err != nil {
				return fmt.Errorf("granting caps drop: %w", err)
			}
		}
		if next := ruleset.LevelForExperience(c.Experience); next > c.Level {
			c.Level = next
			stats := c.Stats()
			c.HP = stats.MaxHP
			c.AP = stats.MaxAP
			leveled = true
		}
		name, level = c.Name, c.Level
		if err := s.store.SaveCharacter(ctx, c); err != nil {
			return fmt.Errorf("persisting kill reward: %w", err)
		}
		return nil
	})
	if errors.Is(err, session.ErrNoCharacter) {
		return nil
	}
	if err != nil {
		return err
	}

	if drop > 0 {
		s.bus.Display(sess, fmt.Sprintf("The %s drops %d caps.", m.Name, drop))
	}
	if leveled {
		s.bus.DisplayToAll(fmt.Sprintf("%s has reached level %d!", name, level))
	}
	s.logger.Info("mob killed",
		zap.String("character", name),
		zap.String("mob", m.Name),
		zap.Int("level", m.Level),
	)
	return nil
}

// mobStrike applies one mob attack to the claiming character. The HP write
// and the save happen under the session lock so the strike cannot interleave
// with the session's own command handling.
func (s *Server) mobStrike(ctx context.Context, m mob.Instance, sess *session.Session) error {
	var dmg int
	dead := false
	err := sess.WithCharacter(func(c *world.Character) error {
		dmg = m.Species.Damage(m.Level, s.cfg.MobDifficulty) - c.Class.Defense(c.Level)
		if dmg < 1 {
			dmg = 1
		}
		c.HP -= dmg
		if c.HP <= 0 {
			dead = true
			return nil
		}
		return s.store.SaveCharacter(ctx, c)
	})
	if errors.Is(err, session.ErrNoCharacter) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("persisting damage: %w", err)
	}

	s.bus.Display(sess, fmt.Sprintf("The %s hits you for %d.", m.Name, dmg))
	if dead {
		return s.characterDeath(ctx, sess, m)
	}
	return nil
}

// characterDeath relocates a dead character to the safe room, docks
// experience, and releases the killer's claim.
func (s *Server) characterDeath(ctx context.Context, sess *session.Session, killer mob.Instance) error {
	var died int64
	var name string
	err := sess.WithCharacter(func(c *world.Character) error {
		died, name = c.RoomID, c.Name
		s.mobs.ReleaseAllFor(c.ID)

		c.Experience = int(float64(c.Experience) * s.cfg.DeathPenalty)
		c.Level = ruleset.LevelForExperience(c.Experience)
		stats := c.Stats()
		c.HP = int(float64(stats.MaxHP) * s.cfg.RespawnHPFraction)
		if c.HP < 1 {
			c.HP = 1
		}
		c.RoomID = int64(s.cfg.SafeRoom)

		if err := s.store.SaveCharacter(ctx, c); err != nil {
			return fmt.Errorf("persisting death: %w", err)
		}
		return nil
	})
	if errors.Is(err, session.ErrNoCharacter) {
		return nil
	}
	if err != nil {
		return err
	}

	s.bus.DisplayToRoom(died, fmt.Sprintf("%s is slain by the %s!", name, killer.Name), sess.ID)
	s.bus.Display(sess, fmt.Sprintf("You were slain by the %s. You wake up somewhere safe.", killer.Name))
	if err := s.look(ctx, sess); err != nil {
		return err
	}
	s.logger.Info("character died",
		zap.String("character", name),
		zap.String("mob", killer.Name),
	)
	return nil
}

// wakeMobs schedules retaliation from the hostile mobs in a room: after a
// short delay each one still present strikes a random character in the room.
func (s *Server) wakeMobs(roomID int64) {
	for _, m := range s.mobs.InRoom(roomID) {
		if !m.Species.Spec().Hostile {
			continue
		}
		uid := m.UID
		time.AfterFunc(s.cfg.RetaliateDelay, func() {
			s.retaliate(uid, roomID)
		})
	}
}

// retaliate performs one delayed mob strike, re-validating that the mob and
// a victim are still in the room.
func (s *Server) retaliate(uid uuid.UUID, roomID int64) {
	m, err := s.mobs.Get(uid)
	if err != nil || m.RoomID != roomID {
		return
	}
	victims := s.sessions.InRoom(roomID)
	if len(victims) == 0 {
		return
	}
	sess := victims[s.rng.Intn(len(victims))]
	victim, ok := sess.Snapshot()
	if !ok {
		return
	}

	s.bus.DisplayToRoom(roomID, fmt.Sprintf("The %s lashes out at %s!", m.Name, victim.Name), sess.ID)
	if err := s.mobStrike(context.Background(), m, sess); err != nil {
		s.logger.Error("mob retaliation failed", zap.String("mob", m.Name), zap.Error(err))
		return
	}
	s.pushState(context.Background(), sess)
}
