package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/nickeddy/uamud/internal/game/ruleset"
	"github.com/nickeddy/uamud/internal/game/world"
)

const characterColumns = `id, user_id, name, class, level, experience, hp, ap, location, lights`

func scanCharacter(row pgx.Row) (*world.Character, error) {
	var c world.Character
	var class string
	err := row.Scan(&c.ID, &c.UserID, &c.Name, &class, &c.Level, &c.Experience,
		&c.HP, &c.AP, &c.RoomID, &c.Lights)
	if err != nil {
		return nil, err
	}
	c.Class = ruleset.ClassKind(class)
	return &c, nil
}

// CreateCharacter inserts a new character and fills in its ID.
//
// Postcondition: Returns world.ErrCharacterExists if the name is taken.
func (s *Store) CreateCharacter(ctx context.Context, c *world.Character) error {
	err := s.db.QueryRow(ctx,
		`INSERT INTO characters (user_id, name, class, level, experience, hp, ap, location, lights)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		 RETURNING id`,
		c.UserID, c.Name, string(c.Class), c.Level, c.Experience, c.HP, c.AP, c.RoomID, c.Lights,
	).Scan(&c.ID)
	if err != nil {
		if isDuplicateKeyError(err) {
			return world.ErrCharacterExists
		}
		return fmt.Errorf("inserting character: %w", err)
	}
	return nil
}

// CharacterByName retrieves a character by name, case-insensitively.
func (s *Store) CharacterByName(ctx context.Context, name string) (*world.Character, error) {
	c, err := scanCharacter(s.db.QueryRow(ctx,
		`SELECT `+characterColumns+` FROM characters WHERE lower(name) = lower($1)`,
		name,
	))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, world.ErrCharacterNotFound
		}
		return nil, fmt.Errorf("querying character: %w", err)
	}
	return c, nil
}

// CharactersForUser lists one user's characters ordered by name.
func (s *Store) CharactersForUser(ctx context.Context, userID int64) ([]*world.Character, error) {
	rows, err := s.db.Query(ctx,
		`SELECT `+characterColumns+` FROM characters WHERE user_id = $1 ORDER BY name`,
		userID,
	)
	if err != nil {
		return nil, fmt.Errorf("querying characters: %w", err)
	}
	defer rows.Close()
	return collectCharacters(rows)
}

// Characters lists every character. The scheduler uses this to compute the
// average level for mob spawns.
func (s *Store) Characters(ctx context.Context) ([]*world.Character, error) {
	rows, err := s.db.Query(ctx,
		`SELECT `+characterColumns+` FROM characters ORDER BY id`,
	)
	if err != nil {
		return nil, fmt.Errorf("querying characters: %w", err)
	}
	defer rows.Close()
	return collectCharacters(rows)
}

func collectCharacters(rows pgx.Rows) ([]*world.Character, error) {
	var out []*world.Character
	for rows.Next() {
		c, err := scanCharacter(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning character: %w", err)
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

// SaveCharacter persists the character's mutable fields.
func (s *Store) SaveCharacter(ctx context.Context, c *world.Character) error {
	tag, err := s.db.Exec(ctx,
		`UPDATE characters
		 SET level = $1, experience = $2, hp = $3, ap = $4, location = $5, lights = $6
		 WHERE id = $7`,
		c.Level, c.Experience, c.HP, c.AP, c.RoomID, c.Lights, c.ID,
	)
	if err != nil {
		return fmt.Errorf("updating character: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return world.ErrCharacterNotFound
	}
	return nil
}

// DeleteCharacter removes a character. Inventory and equipment cascade.
func (s *Store) DeleteCharacter(ctx context.Context, name string) error {
	tag, err := s.db.Exec(ctx,
		`DELETE FROM characters WHERE lower(name) = lower($1)`,
		name,
	)
	if err != nil {
		return fmt.Errorf("deleting character: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return world.ErrCharacterNotFound
	}
	return nil
}

// Inventory returns the character's carried item stacks.
func (s *Store) Inventory(ctx context.Context, characterID int64) ([]world.ItemStack, error) {
	rows, err := s.db.Query(ctx,
		`SELECT `+prefixedItemColumns+`, ci.quantity
		 FROM character_items ci JOIN items i ON i.id = ci.item_id
		 WHERE ci.character_id = $1 ORDER BY i.name`,
		characterID,
	)
	if err != nil {
		return nil, fmt.Errorf("querying inventory: %w", err)
	}
	defer rows.Close()
	return collectStacks(rows)
}

// AddItem adds quantity copies of an item to the character's inventory.
func (s *Store) AddItem(ctx context.Context, characterID, itemID int64, quantity int) error {
	_, err := s.db.Exec(ctx,
		`INSERT INTO character_items (character_id, item_id, quantity)
		 VALUES ($1, $2, $3)
		 ON CONFLICT (character_id, item_id)
		 DO UPDATE SET quantity = character_items.quantity + EXCLUDED.quantity`,
		characterID, itemID, quantity,
	)
	if err != nil {
		return fmt.Errorf("adding inventory item: %w", err)
	}
	return nil
}

// RemoveItem removes quantity copies of an item from the character's
// inventory.
//
// Postcondition: Returns world.ErrInsufficientQuantity if the character does
// not carry that many; the inventory is unchanged in that case.
func (s *Store) RemoveItem(ctx context.Context, characterID, itemID int64, quantity int) error {
	tag, err := s.db.Exec(ctx,
		`UPDATE character_items SET quantity = quantity - $3
		 WHERE character_id = $1 AND item_id = $2 AND quantity >= $3`,
		characterID, itemID, quantity,
	)
	if err != nil {
		return fmt.Errorf("removing inventory item: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return world.ErrInsufficientQuantity
	}
	_, err = s.db.Exec(ctx,
		`DELETE FROM character_items
		 WHERE character_id = $1 AND item_id = $2 AND quantity <= 0`,
		characterID, itemID,
	)
	if err != nil {
		return fmt.Errorf("pruning empty stack: %w", err)
	}
	return nil
}

// Equipment returns the character's equipped items.
func (s *Store) Equipment(ctx context.Context, characterID int64) ([]*world.Item, error) {
	rows, err := s.db.Query(ctx,
		`SELECT `+prefixedItemColumns+`
		 FROM character_equipment ce JOIN items i ON i.id = ce.item_id
		 WHERE ce.character_id = $1 ORDER BY i.name`,
		characterID,
	)
	if err != nil {
		return nil, fmt.Errorf("querying equipment: %w", err)
	}
	defer rows.Close()

	var out []*world.Item
	for rows.Next() {
		item, err := scanItem(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning equipment: %w", err)
		}
		out = append(out, item)
	}
	return out, rows.Err()
}

// Equip marks an item as worn.
func (s *Store) Equip(ctx context.Context, characterID, itemID int64) error {
	_, err := s.db.Exec(ctx,
		`INSERT INTO character_equipment (character_id, item_id)
		 VALUES ($1, $2) ON CONFLICT DO NOTHING`,
		characterID, itemID,
	)
	if err != nil {
		return fmt.Errorf("equipping item: %w", err)
	}
	return nil
}

// Unequip removes an item from the worn set.
func (s *Store) Unequip(ctx context.Context, characterID, itemID int64) error {
	tag, err := s.db.Exec(ctx,
		`DELETE FROM character_equipment WHERE character_id = $1 AND item_id = $2`,
		characterID, itemID,
	)
	if err != nil {
		return fmt.Errorf("unequipping item: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return world.ErrItemNotFound
	}
	return nil
}
