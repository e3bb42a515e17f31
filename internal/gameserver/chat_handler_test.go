package gameserver

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nickeddy/uamud/internal/game/ruleset"
	"github.com/nickeddy/uamud/internal/game/world"
)

func TestSay(t *testing.T) {
	s := newTestServer(t)
	speaker, speakerConn := newPlaying(t, s, "vaultie", "Wanderer", 2)
	_, nearConn := newPlaying(t, s, "raider", "Jericho", 2)
	_, farConn := newPlaying(t, s, "merc", "Sparks", 3)

	require.NoError(t, s.say(speaker, "War never changes."))
	want := "Wanderer says, 'War never changes.'"
	assert.Contains(t, speakerConn.displays(), want)
	assert.Contains(t, nearConn.displays(), want)
	assert.NotContains(t, farConn.displays(), want)
}

func TestEmote(t *testing.T) {
	s := newTestServer(t)
	sess, conn := newPlaying(t, s, "vaultie", "Wanderer", 2)

	require.NoError(t, s.emote(sess, "kicks a rusty can."))
	assert.Contains(t, conn.displays(), "Wanderer kicks a rusty can.")
}

func TestOOC(t *testing.T) {
	s := newTestServer(t)
	sess, _ := newPlaying(t, s, "vaultie", "Wanderer", 2)
	_, farConn := newPlaying(t, s, "merc", "Sparks", 3)

	require.NoError(t, s.ooc(sess, "anyone seen the key?"))
	assert.Contains(t, farConn.displays(), "[OOC] Wanderer: anyone seen the key?")
}

func TestTell(t *testing.T) {
	s := newTestServer(t)
	sender, senderConn := newPlaying(t, s, "vaultie", "Wanderer", 1)
	_, targetConn := newPlaying(t, s, "merc", "Sparks", 3)

	require.NoError(t, s.tell(sender, "Sparks", "meet me at the crossroads"))
	assert.Contains(t, targetConn.displays(), "Wanderer tells you, 'meet me at the crossroads'")
	assert.Contains(t, senderConn.displays(), "You tell Sparks, 'meet me at the crossroads'")

	senderConn.reset()
	require.NoError(t, s.tell(sender, "Nobody", "hello?"))
	assert.Contains(t, senderConn.displays(), "There is no one by that name.")

	senderConn.reset()
	require.NoError(t, s.tell(sender, "Wanderer", "hi me"))
	assert.Contains(t, senderConn.displays(), "You mutter to yourself.")
}

func TestWho(t *testing.T) {
	s := newTestServer(t)
	sess, conn := newPlaying(t, s, "vaultie", "Wanderer", 1)
	_, _ = newPlaying(t, s, "merc", "Sparks", 3)

	require.NoError(t, s.who(sess))
	text := conn.displayText()
	assert.Contains(t, text, "Online now:")
	assert.Contains(t, text, "Wanderer (Ninja lv. 3)")
	assert.Contains(t, text, "Sparks (Ninja lv. 3)")
}

func TestTalk_Mob(t *testing.T) {
	s := newTestServer(t)
	ctx := context.Background()
	sess, conn := newPlaying(t, s, "vaultie", "Wanderer", 3)
	s.mobs.Spawn("Mangy Wild Dog", ruleset.SpeciesWildDog, 2, 3)

	require.NoError(t, s.talk(ctx, sess, "Mangy Wild Dog"))
	// Without Lua dialogue the built-in species lines answer.
	line := conn.displayText()
	assert.Contains(t, line, "Mangy Wild Dog: ")
	var known bool
	for _, want := range ruleset.SpeciesWildDog.Spec().Dialogue {
		if line == "Mangy Wild Dog: "+want {
			known = true
		}
	}
	assert.True(t, known, "unexpected dialogue line %q", line)
}

func TestTalk_NobodyThere(t *testing.T) {
	s := newTestServer(t)
	ctx := context.Background()
	sess, conn := newPlaying(t, s, "vaultie", "Wanderer", 1)

	// Moira exists but is in another room.
	require.NoError(t, s.talk(ctx, sess, "Moira"))
	assert.Contains(t, conn.displays(), "There is no one by that name here.")
}

func TestTalk_NonMerchantNPC(t *testing.T) {
	s := newTestServer(t)
	ctx := context.Background()
	sess, conn := newPlaying(t, s, "vaultie", "Wanderer", 3)

	require.NoError(t, s.store.CreateNPC(ctx, &world.NPC{
		ID: 2, Name: "Gob", RoomID: 3, Species: ruleset.SpeciesGhoul,
	}))
	require.NoError(t, s.talk(ctx, sess, "Gob"))
	text := conn.displayText()
	assert.Contains(t, text, "Gob: ")
	assert.NotContains(t, text, "has for sale")
}
