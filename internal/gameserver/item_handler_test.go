package gameserver

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nickeddy/uamud/internal/game/ruleset"
	"github.com/nickeddy/uamud/internal/game/world"
	"github.com/nickeddy/uamud/internal/protocol"
)

func inventoryCount(t *testing.T, s *Server, characterID, itemID int64) int {
	t.Helper()
	stacks, err := s.store.Inventory(context.Background(), characterID)
	require.NoError(t, err)
	for _, stack := range stacks {
		if stack.Item.ID == itemID {
			return stack.Quantity
		}
	}
	return 0
}

func TestGrabAndDrop(t *testing.T) {
	s := newTestServer(t)
	ctx := context.Background()
	sess, conn := newPlaying(t, s, "vaultie", "Wanderer", 1)

	require.NoError(t, s.grab(ctx, sess, "stimpak"))
	assert.Contains(t, conn.displays(), "You grab the Stimpak.")
	assert.Equal(t, 1, inventoryCount(t, s, sess.Character().ID, itemStimpak))

	// One left on the floor.
	stacks, err := s.store.RoomItems(ctx, 1)
	require.NoError(t, err)
	floor, ok := findStack(stacks, "Stimpak")
	require.True(t, ok)
	assert.Equal(t, 1, floor.Quantity)

	conn.reset()
	require.NoError(t, s.drop(ctx, sess, "Stimpak"))
	assert.Contains(t, conn.displays(), "You drop the Stimpak.")
	assert.Equal(t, 0, inventoryCount(t, s, sess.Character().ID, itemStimpak))

	conn.reset()
	require.NoError(t, s.grab(ctx, sess, "Fat Man"))
	assert.Contains(t, conn.displays(), "There is no Fat Man here.")
}

func TestGrab_PermanentFixture(t *testing.T) {
	s := newTestServer(t)
	ctx := context.Background()
	sess, conn := newPlaying(t, s, "vaultie", "Wanderer", 1)

	require.NoError(t, s.grab(ctx, sess, "Workbench"))
	assert.Contains(t, conn.displays(), "You cannot take that.")
	assert.Equal(t, 0, inventoryCount(t, s, sess.Character().ID, itemWorkbench))
}

func TestUseItem_Heal(t *testing.T) {
	s := newTestServer(t)
	ctx := context.Background()
	sess, _ := newPlaying(t, s, "vaultie", "Wanderer", 1)
	c := sess.Character()
	require.NoError(t, s.store.AddItem(ctx, c.ID, itemStimpak, 1))

	maxHP := c.Stats().MaxHP
	c.HP = maxHP - 10

	require.NoError(t, s.useItem(ctx, sess, "stimpak"))
	// Healing caps at max HP; the stimpak is consumed.
	assert.Equal(t, maxHP, c.HP)
	assert.Equal(t, 0, inventoryCount(t, s, c.ID, itemStimpak))

	saved, err := s.store.CharacterByName(ctx, "Wanderer")
	require.NoError(t, err)
	assert.Equal(t, maxHP, saved.HP)
}

func TestUseItem_NukaCola(t *testing.T) {
	s := newTestServer(t)
	ctx := context.Background()
	sess, conn := newPlaying(t, s, "vaultie", "Wanderer", 1)
	c := sess.Character()
	require.NoError(t, s.store.AddItem(ctx, c.ID, itemNukaCola, 1))
	c.HP = 20

	require.NoError(t, s.useItem(ctx, sess, "Nuka-Cola"))
	assert.Equal(t, 30, c.HP)
	assert.Equal(t, 1, inventoryCount(t, s, c.ID, world.CapsItemID))
	assert.Equal(t, 0, inventoryCount(t, s, c.ID, itemNukaCola))
	assert.Contains(t, conn.displayText(), "You keep the cap.")
}

func TestUseItem_Rejections(t *testing.T) {
	s := newTestServer(t)
	ctx := context.Background()
	sess, conn := newPlaying(t, s, "vaultie", "Wanderer", 1)
	c := sess.Character()

	require.NoError(t, s.useItem(ctx, sess, "Stimpak"))
	assert.Contains(t, conn.displays(), "You are not carrying a Stimpak.")

	require.NoError(t, s.store.AddItem(ctx, c.ID, itemKnife, 1))
	conn.reset()
	require.NoError(t, s.useItem(ctx, sess, "Combat Knife"))
	assert.Contains(t, conn.displays(), "You cannot use that.")
}

func TestEquip(t *testing.T) {
	s := newTestServer(t)
	ctx := context.Background()
	sess, conn := newPlaying(t, s, "vaultie", "Wanderer", 1)
	c := sess.Character()
	require.NoError(t, s.store.AddItem(ctx, c.ID, itemKnife, 1))
	require.NoError(t, s.store.AddItem(ctx, c.ID, itemArmor, 1))
	require.NoError(t, s.store.AddItem(ctx, c.ID, itemLaserPistol, 1))

	require.NoError(t, s.equip(ctx, sess, "Combat Knife"))
	assert.Contains(t, conn.displays(), "You equip the Combat Knife.")

	// A different slot is fine.
	require.NoError(t, s.equip(ctx, sess, "Leather Armor"))

	// Same item and same slot are both refused.
	conn.reset()
	require.NoError(t, s.equip(ctx, sess, "Combat Knife"))
	assert.Contains(t, conn.displays(), "The Combat Knife is already equipped.")

	// The pistol needs level 5, so the slot check is never reached for an
	// underleveled item.
	conn.reset()
	require.NoError(t, s.equip(ctx, sess, "Laser Pistol"))
	assert.Contains(t, conn.displays(), "You must be level 5 to equip the Laser Pistol.")

	c.Level = 5
	conn.reset()
	require.NoError(t, s.equip(ctx, sess, "Laser Pistol"))
	assert.Contains(t, conn.displays(), "You already have the Combat Knife equipped there.")

	equipment, err := s.store.Equipment(ctx, c.ID)
	require.NoError(t, err)
	assert.Len(t, equipment, 2)
}

func TestUnequip(t *testing.T) {
	s := newTestServer(t)
	ctx := context.Background()
	sess, conn := newPlaying(t, s, "vaultie", "Wanderer", 1)
	c := sess.Character()
	require.NoError(t, s.store.AddItem(ctx, c.ID, itemKnife, 1))
	require.NoError(t, s.store.Equip(ctx, c.ID, itemKnife))

	require.NoError(t, s.unequip(ctx, sess, "combat knife"))
	assert.Contains(t, conn.displays(), "You unequip the Combat Knife.")

	conn.reset()
	require.NoError(t, s.unequip(ctx, sess, "Combat Knife"))
	assert.Contains(t, conn.displays(), "You do not have a Combat Knife equipped.")
}

func TestDrop_UnequipsFirst(t *testing.T) {
	s := newTestServer(t)
	ctx := context.Background()
	sess, _ := newPlaying(t, s, "vaultie", "Wanderer", 2)
	c := sess.Character()
	require.NoError(t, s.store.AddItem(ctx, c.ID, itemKnife, 1))
	require.NoError(t, s.store.Equip(ctx, c.ID, itemKnife))

	require.NoError(t, s.drop(ctx, sess, "Combat Knife"))
	equipment, err := s.store.Equipment(ctx, c.ID)
	require.NoError(t, err)
	assert.Empty(t, equipment)

	stacks, err := s.store.RoomItems(ctx, 2)
	require.NoError(t, err)
	_, onFloor := findStack(stacks, "Combat Knife")
	assert.True(t, onFloor)
}

func TestShowInventory(t *testing.T) {
	s := newTestServer(t)
	ctx := context.Background()
	sess, conn := newPlaying(t, s, "vaultie", "Wanderer", 1)
	c := sess.Character()

	require.NoError(t, s.showInventory(ctx, sess))
	assert.Contains(t, conn.displays(), "You are not carrying anything.")

	require.NoError(t, s.store.AddItem(ctx, c.ID, itemStimpak, 2))
	require.NoError(t, s.store.AddItem(ctx, c.ID, itemKnife, 1))
	require.NoError(t, s.store.Equip(ctx, c.ID, itemKnife))

	conn.reset()
	require.NoError(t, s.showInventory(ctx, sess))
	text := conn.displayText()
	assert.Contains(t, text, "You are carrying:")
	assert.Contains(t, text, "Stimpak (x2)")
	assert.Contains(t, text, "Combat Knife [equipped]")
}

func TestInspect(t *testing.T) {
	s := newTestServer(t)
	ctx := context.Background()
	sess, conn := newPlaying(t, s, "vaultie", "Wanderer", 1)

	// Room items are found without picking them up.
	require.NoError(t, s.inspect(ctx, sess, "workbench"))
	text := conn.displayText()
	assert.Contains(t, text, "Workbench (PERMANENT)")
	assert.Contains(t, text, "A sturdy metal workbench.")

	conn.reset()
	require.NoError(t, s.store.AddItem(ctx, sess.Character().ID, itemLaserPistol, 1))
	require.NoError(t, s.inspect(ctx, sess, "Laser Pistol"))
	text = conn.displayText()
	assert.Contains(t, text, "Requires level 5.")
	assert.Contains(t, text, "It can be equipped (weapon).")

	conn.reset()
	require.NoError(t, s.inspect(ctx, sess, "Mini Nuke"))
	assert.Contains(t, conn.displays(), "There is no Mini Nuke to inspect.")
}

func TestUseItem_EffectLights(t *testing.T) {
	s := newTestServer(t)
	ctx := context.Background()
	sess, conn := newPlaying(t, s, "vaultie", "Wanderer", 1)
	c := sess.Character()

	require.NoError(t, s.store.CreateItem(ctx, &world.Item{
		ID: 50, Name: "Pip-Boy Light", Type: world.TypeMisc,
		Usable: true, Effect: world.EffectLightsOn,
	}))
	require.NoError(t, s.store.AddItem(ctx, c.ID, 50, 1))

	require.NoError(t, s.useItem(ctx, sess, "Pip-Boy Light"))
	assert.True(t, c.Lights)
	assert.Contains(t, conn.displays(), "The lights come on.")

	// Personal lights override the world's night palette.
	s.night.Store(true)
	conn.reset()
	s.pushState(ctx, sess)
	fonts := conn.typed(protocol.TypeSetClientFont)
	require.Len(t, fonts, 1)
	var font protocol.SetClientFont
	require.NoError(t, fonts[0].DecodePayload(&font))
	assert.False(t, font.Night)

	// With the lights back off, night shows through.
	require.NoError(t, s.store.CreateItem(ctx, &world.Item{
		ID: 53, Name: "Light Switch", Type: world.TypeMisc,
		Usable: true, Effect: world.EffectLightsOff,
	}))
	require.NoError(t, s.store.AddItem(ctx, c.ID, 53, 1))
	require.NoError(t, s.useItem(ctx, sess, "Light Switch"))
	conn.reset()
	s.pushState(ctx, sess)
	fonts = conn.typed(protocol.TypeSetClientFont)
	require.Len(t, fonts, 1)
	require.NoError(t, fonts[0].DecodePayload(&font))
	assert.True(t, font.Night)
}

func TestUseItem_PrerequisiteConsumed(t *testing.T) {
	s := newTestServer(t)
	ctx := context.Background()
	sess, conn := newPlaying(t, s, "vaultie", "Wanderer", 1)
	c := sess.Character()

	// Brewing needs two caps as raw material.
	require.NoError(t, s.store.CreateItem(ctx, &world.Item{
		ID: 51, Name: "Cap Press", Type: world.TypeMisc, Usable: true,
		RequiredItem: world.CapsItemID, RequiredQuantity: 2,
		Effect: world.EffectNone,
	}))
	require.NoError(t, s.store.AddItem(ctx, c.ID, 51, 1))

	require.NoError(t, s.useItem(ctx, sess, "Cap Press"))
	assert.Contains(t, conn.displays(), "You need 2 Bottle Cap to use the Cap Press.")
	assert.Equal(t, 1, inventoryCount(t, s, c.ID, 51))

	require.NoError(t, s.store.AddItem(ctx, c.ID, world.CapsItemID, 3))
	conn.reset()
	require.NoError(t, s.useItem(ctx, sess, "Cap Press"))
	assert.Equal(t, 1, inventoryCount(t, s, c.ID, world.CapsItemID))
	assert.Equal(t, 0, inventoryCount(t, s, c.ID, 51))
}

func TestUseItem_AddItemEffect(t *testing.T) {
	s := newTestServer(t)
	ctx := context.Background()
	sess, conn := newPlaying(t, s, "vaultie", "Wanderer", 1)
	c := sess.Character()

	require.NoError(t, s.store.CreateItem(ctx, &world.Item{
		ID: 52, Name: "Supply Crate", Type: world.TypeMisc, Usable: true,
		Effect: world.EffectAddItem, EffectAmount: int(itemStimpak),
	}))
	require.NoError(t, s.store.AddItem(ctx, c.ID, 52, 1))

	require.NoError(t, s.useItem(ctx, sess, "Supply Crate"))
	assert.Contains(t, conn.displays(), "You use the Supply Crate and receive a Stimpak.")
	assert.Equal(t, 1, inventoryCount(t, s, c.ID, itemStimpak))
	assert.Equal(t, 0, inventoryCount(t, s, c.ID, 52))
}

func TestRuleset_SellPrices(t *testing.T) {
	stimpak := &world.Item{RequiredLevel: 1, EffectAmount: 25}
	assert.Equal(t, 85, stimpak.SellPrice())
	assert.Equal(t, 127, stimpak.ResalePrice())
}

func TestLook_ListsMobsByLevel(t *testing.T) {
	s := newTestServer(t)
	ctx := context.Background()
	sess, conn := newPlaying(t, s, "vaultie", "Wanderer", 3)
	s.mobs.Spawn("Feral Ghoul", ruleset.SpeciesGhoul, 4, 3)

	require.NoError(t, s.look(ctx, sess))
	assert.Contains(t, conn.displayText(), "Feral Ghoul (lv. 4)")
}
