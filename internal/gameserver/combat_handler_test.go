package gameserver

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nickeddy/uamud/internal/game/ruleset"
	"github.com/nickeddy/uamud/internal/game/world"
)

func TestAttack_NoSuchMob(t *testing.T) {
	s := newTestServer(t)
	ctx := context.Background()
	sess, conn := newPlaying(t, s, "vaultie", "Wanderer", 2)

	require.NoError(t, s.attack(ctx, sess, "Deathclaw"))
	assert.Contains(t, conn.displays(), "There is no Deathclaw here.")
}

func TestAttack_KillGrantsExperience(t *testing.T) {
	s := newTestServer(t)
	ctx := context.Background()
	sess, conn := newPlaying(t, s, "vaultie", "Wanderer", 2)
	c := sess.Character()
	before := c.Experience

	// A level-1 radroach has 10 HP; a level-3 ninja's strength alone is 13,
	// so the first swing always kills.
	s.mobs.Spawn("Sickly Radroach", ruleset.SpeciesRadroach, 1, 2)

	require.NoError(t, s.attack(ctx, sess, "Sickly Radroach"))
	assert.Contains(t, conn.displayText(), "and kill it!")
	assert.Equal(t, before+ruleset.SpeciesRadroach.Spec().Value, c.Experience)
	assert.Equal(t, 0, s.mobs.Count())

	// The reward was persisted.
	saved, err := s.store.CharacterByName(ctx, "Wanderer")
	require.NoError(t, err)
	assert.Equal(t, c.Experience, saved.Experience)
}

func TestAttack_KillCanLevelUp(t *testing.T) {
	s := newTestServer(t)
	ctx := context.Background()
	sess, conn := newPlaying(t, s, "vaultie", "Wanderer", 2)
	c := sess.Character()
	c.Level = 1
	c.Experience = ruleset.NextLevelThreshold(1) - 5
	c.HP = 10

	s.mobs.Spawn("Sickly Radroach", ruleset.SpeciesRadroach, 1, 2)
	require.NoError(t, s.attack(ctx, sess, "Sickly Radroach"))

	assert.Equal(t, 2, c.Level)
	stats := c.Stats()
	assert.Equal(t, stats.MaxHP, c.HP)
	assert.Equal(t, stats.MaxAP, c.AP)
	assert.Contains(t, conn.displayText(), "Wanderer has reached level 2!")
}

func TestAttack_SurvivingMobStrikesBack(t *testing.T) {
	s := newTestServer(t)
	ctx := context.Background()
	sess, conn := newPlaying(t, s, "vaultie", "Wanderer", 2)
	c := sess.Character()
	hpBefore := c.HP

	// A level-5 ghoul has 80 HP, far beyond one ninja swing, and its strike
	// of 19 exceeds the ninja's defense of 7.
	m := s.mobs.Spawn("Feral Ghoul", ruleset.SpeciesGhoul, 5, 2)

	require.NoError(t, s.attack(ctx, sess, "Feral Ghoul"))
	text := conn.displayText()
	assert.Contains(t, text, "You hit the Feral Ghoul for")
	assert.Contains(t, text, "The Feral Ghoul hits you for 12.")
	assert.Equal(t, hpBefore-12, c.HP)

	// The exchange leaves the mob claimed by the attacker.
	got, err := s.mobs.Get(m.UID)
	require.NoError(t, err)
	assert.Equal(t, c.ID, got.ClaimedBy)
	assert.Less(t, got.HP, ruleset.SpeciesGhoul.MaxHP(5))
}

func TestAttack_ClaimContention(t *testing.T) {
	s := newTestServer(t)
	ctx := context.Background()
	first, _ := newPlaying(t, s, "vaultie", "Wanderer", 2)
	second, conn := newPlaying(t, s, "raider", "Jericho", 2)

	m := s.mobs.Spawn("Feral Ghoul", ruleset.SpeciesGhoul, 5, 2)
	require.NoError(t, s.mobs.Claim(m.UID, first.Character().ID))

	require.NoError(t, s.attack(ctx, second, "Feral Ghoul"))
	assert.Contains(t, conn.displays(), "Someone else is already fighting the Feral Ghoul.")

	// No damage landed.
	got, err := s.mobs.Get(m.UID)
	require.NoError(t, err)
	assert.Equal(t, ruleset.SpeciesGhoul.MaxHP(5), got.HP)
}

func TestCharacterDeath(t *testing.T) {
	s := newTestServer(t)
	ctx := context.Background()
	sess, conn := newPlaying(t, s, "vaultie", "Wanderer", 2)
	witness, witnessConn := newPlaying(t, s, "raider", "Jericho", 2)
	_ = witness

	c := sess.Character()
	c.Experience = 1000
	c.Level = ruleset.LevelForExperience(1000)
	c.HP = 5

	m := s.mobs.Spawn("Feral Ghoul", ruleset.SpeciesGhoul, 5, 2)
	require.NoError(t, s.mobs.Claim(m.UID, c.ID))

	require.NoError(t, s.attack(ctx, sess, "Feral Ghoul"))

	// Death docks five percent of experience and recomputes the level.
	assert.Equal(t, 950, c.Experience)
	assert.Equal(t, ruleset.LevelForExperience(950), c.Level)
	// Respawn at three quarters of max HP, back in the safe room.
	assert.Equal(t, int(float64(c.Stats().MaxHP)*0.75), c.HP)
	assert.Equal(t, int64(1), c.RoomID)

	text := conn.displayText()
	assert.Contains(t, text, "You were slain by the Feral Ghoul. You wake up somewhere safe.")
	assert.Contains(t, text, "Vault 101 Atrium")
	assert.Contains(t, witnessConn.displayText(), "Wanderer is slain by the Feral Ghoul!")

	// The dead character's claim is gone.
	got, err := s.mobs.Get(m.UID)
	require.NoError(t, err)
	assert.False(t, got.Claimed())
}

func TestWakeMobs_Retaliation(t *testing.T) {
	s := newTestServer(t)
	sess, conn := newPlaying(t, s, "vaultie", "Wanderer", 3)
	c := sess.Character()
	hpBefore := c.HP

	s.mobs.Spawn("Feral Ghoul", ruleset.SpeciesGhoul, 5, 3)
	s.wakeMobs(3)

	// RetaliateDelay is 10ms in the test config. The strike is persisted, so
	// poll the store rather than racing the timer goroutine for the pointer.
	require.Eventually(t, func() bool {
		saved, err := s.store.CharacterByName(context.Background(), "Wanderer")
		return err == nil && saved.HP < hpBefore
	}, time.Second, 5*time.Millisecond)
	assert.Contains(t, conn.displayText(), "The Feral Ghoul hits you for 12.")
}

func TestRetaliate_SkipsDepartedMob(t *testing.T) {
	s := newTestServer(t)
	sess, _ := newPlaying(t, s, "vaultie", "Wanderer", 3)
	c := sess.Character()
	hpBefore := c.HP

	m := s.mobs.Spawn("Feral Ghoul", ruleset.SpeciesGhoul, 5, 3)
	_, err := s.mobs.Move(m.UID, 2)
	require.NoError(t, err)

	s.retaliate(m.UID, 3)
	assert.Equal(t, hpBefore, c.HP)
}

// Exercises the retaliation path striking a character while its own session
// goroutine is mid-command; meaningful under the race detector.
func TestMobStrike_ConcurrentWithItemUse(t *testing.T) {
	s := newTestServer(t)
	ctx := context.Background()
	sess, _ := newPlaying(t, s, "vaultie", "Wanderer", 2)

	// A high-level character floors every strike at 1 damage, so thirty
	// strikes cannot kill while the heals interleave.
	require.NoError(t, sess.WithCharacter(func(c *world.Character) error {
		c.Level = 30
		c.HP = c.Stats().MaxHP
		return nil
	}))
	require.NoError(t, s.store.AddItem(ctx, sess.Character().ID, itemStimpak, 30))

	m := s.mobs.Spawn("Sickly Radroach", ruleset.SpeciesRadroach, 1, 2)

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		for i := 0; i < 30; i++ {
			if err := s.mobStrike(ctx, m, sess); err != nil {
				t.Errorf("mob strike: %v", err)
				return
			}
		}
	}()
	for i := 0; i < 30; i++ {
		require.NoError(t, s.useItem(ctx, sess, "Stimpak"))
	}
	wg.Wait()

	// Once both sides settle, the live character and the persisted row agree.
	snap, ok := sess.Snapshot()
	require.True(t, ok)
	saved, err := s.store.CharacterByName(ctx, "Wanderer")
	require.NoError(t, err)
	assert.Equal(t, snap.HP, saved.HP)
	assert.Greater(t, snap.HP, 0)
}

func TestGrantKill_CapsDrop(t *testing.T) {
	s := newTestServer(t)
	ctx := context.Background()
	sess, _ := newPlaying(t, s, "vaultie", "Wanderer", 2)
	c := sess.Character()

	// Drive kills until a caps drop lands; the drop roll is uniform over
	// [0, Value), so a run of thirty all-zero rolls would mean a broken rng.
	var dropped bool
	for i := 0; i < 30 && !dropped; i++ {
		s.mobs.Spawn("Sickly Radroach", ruleset.SpeciesRadroach, 1, 2)
		require.NoError(t, s.attack(ctx, sess, "Sickly Radroach"))
		dropped = inventoryCount(t, s, c.ID, world.CapsItemID) > 0
	}
	assert.True(t, dropped, "no caps dropped across thirty kills")
}
