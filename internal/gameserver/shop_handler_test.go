package gameserver

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nickeddy/uamud/internal/game/world"
)

func TestBuy(t *testing.T) {
	s := newTestServer(t)
	ctx := context.Background()
	sess, conn := newPlaying(t, s, "vaultie", "Wanderer", 2)
	c := sess.Character()

	// Too poor: 40 caps needed, 25 held.
	require.NoError(t, s.store.AddItem(ctx, c.ID, world.CapsItemID, 25))
	require.NoError(t, s.buy(ctx, sess, "Moira", "Stimpak"))
	assert.Contains(t, conn.displays(),
		"You cannot afford the Stimpak. It costs 40 caps and you have 25.")
	assert.Equal(t, 25, inventoryCount(t, s, c.ID, world.CapsItemID))

	require.NoError(t, s.store.AddItem(ctx, c.ID, world.CapsItemID, 75))
	conn.reset()
	require.NoError(t, s.buy(ctx, sess, "Moira", "stimpak"))
	assert.Contains(t, conn.displays(), "You buy the Stimpak from Moira for 40 caps.")
	assert.Equal(t, 60, inventoryCount(t, s, c.ID, world.CapsItemID))
	assert.Equal(t, 1, inventoryCount(t, s, c.ID, itemStimpak))

	stock, err := s.store.Stock(ctx, 1)
	require.NoError(t, err)
	for _, listing := range stock {
		if listing.Item.ID == itemStimpak {
			assert.Equal(t, 2, listing.Quantity)
		}
	}
}

func TestBuy_NotInStock(t *testing.T) {
	s := newTestServer(t)
	ctx := context.Background()
	sess, conn := newPlaying(t, s, "vaultie", "Wanderer", 2)

	require.NoError(t, s.buy(ctx, sess, "Moira", "Mini Nuke"))
	assert.Contains(t, conn.displays(), "Moira does not have a Mini Nuke for sale.")
}

func TestBuy_MerchantElsewhere(t *testing.T) {
	s := newTestServer(t)
	ctx := context.Background()
	sess, conn := newPlaying(t, s, "vaultie", "Wanderer", 1)

	// Moira is in room 2; the buyer is not.
	require.NoError(t, s.buy(ctx, sess, "Moira", "Stimpak"))
	assert.Contains(t, conn.displays(), "There is no one by that name here.")

	conn.reset()
	require.NoError(t, s.buy(ctx, sess, "Three Dog", "Stimpak"))
	assert.Contains(t, conn.displays(), "There is no one by that name here.")
}

func TestSell(t *testing.T) {
	s := newTestServer(t)
	ctx := context.Background()
	sess, conn := newPlaying(t, s, "vaultie", "Wanderer", 2)
	c := sess.Character()

	// Combat Knife: level 1, no effect, so it fetches 10 caps and is
	// relisted at 15.
	require.NoError(t, s.store.AddItem(ctx, c.ID, itemKnife, 1))
	require.NoError(t, s.store.Equip(ctx, c.ID, itemKnife))

	require.NoError(t, s.sell(ctx, sess, "Moira", "Combat Knife"))
	assert.Contains(t, conn.displays(), "You sell the Combat Knife to Moira for 10 caps.")
	assert.Equal(t, 10, inventoryCount(t, s, c.ID, world.CapsItemID))
	assert.Equal(t, 0, inventoryCount(t, s, c.ID, itemKnife))

	// Sold equipment is unequipped on the way out.
	equipment, err := s.store.Equipment(ctx, c.ID)
	require.NoError(t, err)
	assert.Empty(t, equipment)

	stock, err := s.store.Stock(ctx, 1)
	require.NoError(t, err)
	var found bool
	for _, listing := range stock {
		if listing.Item.ID == itemKnife {
			found = true
			assert.Equal(t, 15, listing.Price)
			assert.Equal(t, 1, listing.Quantity)
		}
	}
	assert.True(t, found, "knife not relisted")
}

func TestSell_CapsRefused(t *testing.T) {
	s := newTestServer(t)
	ctx := context.Background()
	sess, conn := newPlaying(t, s, "vaultie", "Wanderer", 2)
	c := sess.Character()
	require.NoError(t, s.store.AddItem(ctx, c.ID, world.CapsItemID, 5))

	require.NoError(t, s.sell(ctx, sess, "Moira", "Bottle Cap"))
	assert.Contains(t, conn.displays(), "Moira stares at you blankly.")
	assert.Equal(t, 5, inventoryCount(t, s, c.ID, world.CapsItemID))
}

func TestSell_NotCarried(t *testing.T) {
	s := newTestServer(t)
	ctx := context.Background()
	sess, conn := newPlaying(t, s, "vaultie", "Wanderer", 2)

	require.NoError(t, s.sell(ctx, sess, "Moira", "Mini Nuke"))
	assert.Contains(t, conn.displays(), "You are not carrying a Mini Nuke.")
}

func TestTalk_MerchantListsWares(t *testing.T) {
	s := newTestServer(t)
	ctx := context.Background()
	sess, conn := newPlaying(t, s, "vaultie", "Wanderer", 2)

	require.NoError(t, s.talk(ctx, sess, "Moira"))
	text := conn.displayText()
	assert.Contains(t, text, "Moira has for sale:")
	assert.Contains(t, text, "  Stimpak - 40 caps (x3)")
	assert.Contains(t, text, "  Laser Pistol - 120 caps (x1)")
}
