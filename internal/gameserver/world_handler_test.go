package gameserver

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nickeddy/uamud/internal/game/ruleset"
)

func TestLook(t *testing.T) {
	s := newTestServer(t)
	ctx := context.Background()

	sess, conn := newPlaying(t, s, "vaultie", "Wanderer", 1)
	_, _ = newPlaying(t, s, "raider", "Jericho", 1)
	s.mobs.Spawn("Mangy Wild Dog", ruleset.SpeciesWildDog, 2, 1)

	require.NoError(t, s.look(ctx, sess))
	text := conn.displayText()
	assert.Contains(t, text, "Vault 101 Atrium")
	assert.Contains(t, text, "The great cog door stands open.")
	assert.Contains(t, text, "Exits: east.")
	assert.Contains(t, text, "Stimpak (x2)")
	assert.Contains(t, text, "Combat Knife")
	assert.Contains(t, text, "Mangy Wild Dog (lv. 2)")
	assert.Contains(t, text, "Jericho")
	// The looker is not listed among those present.
	assert.NotContains(t, text, "Also here: Wanderer")
}

func TestLook_LockedDoorShown(t *testing.T) {
	s := newTestServer(t)
	ctx := context.Background()

	sess, conn := newPlaying(t, s, "vaultie", "Wanderer", 2)
	require.NoError(t, s.look(ctx, sess))
	text := conn.displayText()
	assert.Contains(t, text, "Exits: north, east, west.")
	assert.Contains(t, text, "The east door is locked.")
	assert.Contains(t, text, "Moira")
}

func TestMove(t *testing.T) {
	s := newTestServer(t)
	ctx := context.Background()

	sess, conn := newPlaying(t, s, "vaultie", "Wanderer", 1)
	behind, behindConn := newPlaying(t, s, "raider", "Jericho", 1)
	_ = behind
	ahead, aheadConn := newPlaying(t, s, "merc", "Sparks", 2)
	_ = ahead

	require.NoError(t, s.move(ctx, sess, "east"))
	assert.Equal(t, int64(2), sess.Character().RoomID)
	assert.Contains(t, conn.displayText(), "Springvale Crossroads")
	assert.Contains(t, behindConn.displayText(), "Wanderer heads east.")
	assert.Contains(t, aheadConn.displayText(), "Wanderer arrives.")

	// Movement persists immediately.
	saved, err := s.store.CharacterByName(ctx, "Wanderer")
	require.NoError(t, err)
	assert.Equal(t, int64(2), saved.RoomID)
}

func TestMove_Invalid(t *testing.T) {
	s := newTestServer(t)
	ctx := context.Background()
	sess, conn := newPlaying(t, s, "vaultie", "Wanderer", 1)

	require.NoError(t, s.move(ctx, sess, "up"))
	assert.Contains(t, conn.displays(), "You can move north, east, south, or west.")
	assert.Equal(t, int64(1), sess.Character().RoomID)

	conn.reset()
	require.NoError(t, s.move(ctx, sess, "north"))
	assert.Contains(t, conn.displays(), "You cannot go that way.")
	assert.Equal(t, int64(1), sess.Character().RoomID)
}

func TestMove_LockedDoor(t *testing.T) {
	s := newTestServer(t)
	ctx := context.Background()
	sess, conn := newPlaying(t, s, "vaultie", "Wanderer", 2)

	require.NoError(t, s.move(ctx, sess, "east"))
	assert.Contains(t, conn.displays(), "The east door is locked.")
	assert.Equal(t, int64(2), sess.Character().RoomID)

	// The other exits are unaffected.
	conn.reset()
	require.NoError(t, s.move(ctx, sess, "north"))
	assert.Equal(t, int64(3), sess.Character().RoomID)
}

func TestUnlock(t *testing.T) {
	s := newTestServer(t)
	ctx := context.Background()
	sess, conn := newPlaying(t, s, "vaultie", "Wanderer", 2)
	watcher, watcherConn := newPlaying(t, s, "raider", "Jericho", 2)
	_ = watcher

	// No key yet.
	require.NoError(t, s.unlock(ctx, sess, "east"))
	assert.Contains(t, conn.displays(), "You need a Rusty Key to unlock that door.")

	require.NoError(t, s.store.AddItem(ctx, sess.Character().ID, itemKey, 1))
	conn.reset()
	require.NoError(t, s.unlock(ctx, sess, "east"))
	assert.Contains(t, conn.displays(), "You unlock the east door with the Rusty Key.")
	assert.Contains(t, watcherConn.displayText(), "Wanderer unlocks the east door.")

	// The key is consumed and the door opens.
	stacks, err := s.store.Inventory(ctx, sess.Character().ID)
	require.NoError(t, err)
	_, stillHeld := findStack(stacks, "Rusty Key")
	assert.False(t, stillHeld)

	conn.reset()
	require.NoError(t, s.move(ctx, sess, "east"))
	assert.Equal(t, int64(4), sess.Character().RoomID)
}

func TestUnlock_NoDoor(t *testing.T) {
	s := newTestServer(t)
	ctx := context.Background()
	sess, conn := newPlaying(t, s, "vaultie", "Wanderer", 2)

	require.NoError(t, s.unlock(ctx, sess, "north"))
	assert.Contains(t, conn.displays(), "There is no locked door there.")

	require.NoError(t, s.unlock(ctx, sess, "sideways"))
	assert.Contains(t, conn.displays(), "You can unlock the north, east, south, or west door.")
}
