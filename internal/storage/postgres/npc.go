package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/nickeddy/uamud/internal/game/ruleset"
	"github.com/nickeddy/uamud/internal/game/world"
)

const npcColumns = `id, name, room, species, merchant`

func scanNPC(row pgx.Row) (*world.NPC, error) {
	var n world.NPC
	var species string
	if err := row.Scan(&n.ID, &n.Name, &n.RoomID, &species, &n.Merchant); err != nil {
		return nil, err
	}
	n.Species = ruleset.SpeciesKind(species)
	return &n, nil
}

// CreateNPC upserts an NPC. Content imports replace existing rows.
func (s *Store) CreateNPC(ctx context.Context, n *world.NPC) error {
	_, err := s.db.Exec(ctx,
		`INSERT INTO npcs (id, name, room, species, merchant)
		 VALUES ($1, $2, $3, $4, $5)
		 ON CONFLICT (id) DO UPDATE SET
		   name = EXCLUDED.name, room = EXCLUDED.room,
		   species = EXCLUDED.species, merchant = EXCLUDED.merchant`,
		n.ID, n.Name, n.RoomID, string(n.Species), n.Merchant,
	)
	if err != nil {
		return fmt.Errorf("upserting npc: %w", err)
	}
	return nil
}

// NPCByName retrieves an NPC by name, case-insensitively.
func (s *Store) NPCByName(ctx context.Context, name string) (*world.NPC, error) {
	n, err := scanNPC(s.db.QueryRow(ctx,
		`SELECT `+npcColumns+` FROM npcs WHERE lower(name) = lower($1)`,
		name,
	))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, world.ErrNPCNotFound
		}
		return nil, fmt.Errorf("querying npc: %w", err)
	}
	return n, nil
}

// NPCsInRoom lists the NPCs present in a room.
func (s *Store) NPCsInRoom(ctx context.Context, roomID int64) ([]*world.NPC, error) {
	rows, err := s.db.Query(ctx,
		`SELECT `+npcColumns+` FROM npcs WHERE room = $1 ORDER BY name`,
		roomID,
	)
	if err != nil {
		return nil, fmt.Errorf("querying npcs: %w", err)
	}
	defer rows.Close()

	var out []*world.NPC
	for rows.Next() {
		n, err := scanNPC(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning npc: %w", err)
		}
		out = append(out, n)
	}
	return out, rows.Err()
}

// Stock lists a merchant's wares.
func (s *Store) Stock(ctx context.Context, npcID int64) ([]world.Listing, error) {
	rows, err := s.db.Query(ctx,
		`SELECT `+prefixedItemColumns+`, ni.price, ni.quantity
		 FROM npc_items ni JOIN items i ON i.id = ni.item_id
		 WHERE ni.npc_id = $1 ORDER BY i.name`,
		npcID,
	)
	if err != nil {
		return nil, fmt.Errorf("querying npc stock: %w", err)
	}
	defer rows.Close()

	var out []world.Listing
	for rows.Next() {
		var i world.Item
		var itemType, effect string
		var listing world.Listing
		err := rows.Scan(&i.ID, &i.Name, &i.Description, &itemType, &i.Usable, &i.Equippable,
			&i.Slot, &i.RequiredLevel, &i.RequiredItem, &i.RequiredQuantity, &effect, &i.EffectAmount,
			&listing.Price, &listing.Quantity)
		if err != nil {
			return nil, fmt.Errorf("scanning npc stock: %w", err)
		}
		i.Type = world.ItemType(itemType)
		i.Effect = world.EffectKind(effect)
		listing.Item = &i
		out = append(out, listing)
	}
	return out, rows.Err()
}

// AddStock adds wares to a merchant, merging quantity and refreshing the
// price for an item already listed.
func (s *Store) AddStock(ctx context.Context, npcID, itemID int64, price, quantity int) error {
	_, err := s.db.Exec(ctx,
		`INSERT INTO npc_items (npc_id, item_id, price, quantity)
		 VALUES ($1, $2, $3, $4)
		 ON CONFLICT (npc_id, item_id)
		 DO UPDATE SET quantity = npc_items.quantity + EXCLUDED.quantity,
		               price = EXCLUDED.price`,
		npcID, itemID, price, quantity,
	)
	if err != nil {
		return fmt.Errorf("adding npc stock: %w", err)
	}
	return nil
}

// RemoveStock takes wares off a merchant.
//
// Postcondition: Returns world.ErrInsufficientQuantity if the merchant does
// not hold that many; the stock is unchanged in that case.
func (s *Store) RemoveStock(ctx context.Context, npcID, itemID int64, quantity int) error {
	tag, err := s.db.Exec(ctx,
		`UPDATE npc_items SET quantity = quantity - $3
		 WHERE npc_id = $1 AND item_id = $2 AND quantity >= $3`,
		npcID, itemID, quantity,
	)
	if err != nil {
		return fmt.Errorf("removing npc stock: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return world.ErrInsufficientQuantity
	}
	_, err = s.db.Exec(ctx,
		`DELETE FROM npc_items WHERE npc_id = $1 AND item_id = $2 AND quantity <= 0`,
		npcID, itemID,
	)
	if err != nil {
		return fmt.Errorf("pruning empty stock: %w", err)
	}
	return nil
}
