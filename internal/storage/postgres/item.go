package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/nickeddy/uamud/internal/game/world"
)

const itemColumns = `id, name, description, type, usable, equippable, slot,
required_level, required_item, required_quantity, effect, effect_amount`

const prefixedItemColumns = `i.id, i.name, i.description, i.type, i.usable, i.equippable, i.slot,
i.required_level, i.required_item, i.required_quantity, i.effect, i.effect_amount`

func scanItem(row pgx.Row) (*world.Item, error) {
	var i world.Item
	var itemType, effect string
	err := row.Scan(&i.ID, &i.Name, &i.Description, &itemType, &i.Usable, &i.Equippable,
		&i.Slot, &i.RequiredLevel, &i.RequiredItem, &i.RequiredQuantity, &effect, &i.EffectAmount)
	if err != nil {
		return nil, err
	}
	i.Type = world.ItemType(itemType)
	i.Effect = world.EffectKind(effect)
	return &i, nil
}

func collectStacks(rows pgx.Rows) ([]world.ItemStack, error) {
	var out []world.ItemStack
	for rows.Next() {
		var i world.Item
		var itemType, effect string
		var qty int
		err := rows.Scan(&i.ID, &i.Name, &i.Description, &itemType, &i.Usable, &i.Equippable,
			&i.Slot, &i.RequiredLevel, &i.RequiredItem, &i.RequiredQuantity, &effect, &i.EffectAmount, &qty)
		if err != nil {
			return nil, fmt.Errorf("scanning item stack: %w", err)
		}
		i.Type = world.ItemType(itemType)
		i.Effect = world.EffectKind(effect)
		out = append(out, world.ItemStack{Item: &i, Quantity: qty})
	}
	return out, rows.Err()
}

// CreateItem upserts an item template. Content imports replace existing rows.
func (s *Store) CreateItem(ctx context.Context, i *world.Item) error {
	_, err := s.db.Exec(ctx,
		`INSERT INTO items (id, name, description, type, usable, equippable, slot,
		                    required_level, required_item, required_quantity, effect, effect_amount)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
		 ON CONFLICT (id) DO UPDATE SET
		   name = EXCLUDED.name, description = EXCLUDED.description, type = EXCLUDED.type,
		   usable = EXCLUDED.usable, equippable = EXCLUDED.equippable, slot = EXCLUDED.slot,
		   required_level = EXCLUDED.required_level, required_item = EXCLUDED.required_item,
		   required_quantity = EXCLUDED.required_quantity, effect = EXCLUDED.effect,
		   effect_amount = EXCLUDED.effect_amount`,
		i.ID, i.Name, i.Description, string(i.Type), i.Usable, i.Equippable, i.Slot,
		i.RequiredLevel, i.RequiredItem, i.RequiredQuantity, string(i.Effect), i.EffectAmount,
	)
	if err != nil {
		return fmt.Errorf("upserting item: %w", err)
	}
	return nil
}

// Item retrieves an item template by ID.
func (s *Store) Item(ctx context.Context, id int64) (*world.Item, error) {
	i, err := scanItem(s.db.QueryRow(ctx,
		`SELECT `+itemColumns+` FROM items WHERE id = $1`,
		id,
	))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, world.ErrItemNotFound
		}
		return nil, fmt.Errorf("querying item: %w", err)
	}
	return i, nil
}

// ItemByName retrieves an item template by name, case-insensitively.
func (s *Store) ItemByName(ctx context.Context, name string) (*world.Item, error) {
	i, err := scanItem(s.db.QueryRow(ctx,
		`SELECT `+itemColumns+` FROM items WHERE lower(name) = lower($1)`,
		name,
	))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, world.ErrItemNotFound
		}
		return nil, fmt.Errorf("querying item: %w", err)
	}
	return i, nil
}
