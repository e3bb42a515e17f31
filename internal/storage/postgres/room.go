package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/nickeddy/uamud/internal/game/world"
)

const roomColumns = `id, name, description, north, east, south, west, locked, locked_door, required_item`

func scanRoom(row pgx.Row) (*world.Room, error) {
	var r world.Room
	var door string
	err := row.Scan(&r.ID, &r.Name, &r.Description, &r.North, &r.East, &r.South, &r.West,
		&r.Locked, &door, &r.RequiredItem)
	if err != nil {
		return nil, err
	}
	r.LockedDoor = world.Direction(door)
	return &r, nil
}

// CreateRoom upserts a room. Content imports replace existing rows.
func (s *Store) CreateRoom(ctx context.Context, r *world.Room) error {
	_, err := s.db.Exec(ctx,
		`INSERT INTO rooms (id, name, description, north, east, south, west, locked, locked_door, required_item)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		 ON CONFLICT (id) DO UPDATE SET
		   name = EXCLUDED.name, description = EXCLUDED.description,
		   north = EXCLUDED.north, east = EXCLUDED.east, south = EXCLUDED.south, west = EXCLUDED.west,
		   locked = EXCLUDED.locked, locked_door = EXCLUDED.locked_door,
		   required_item = EXCLUDED.required_item`,
		r.ID, r.Name, r.Description, r.North, r.East, r.South, r.West,
		r.Locked, string(r.LockedDoor), r.RequiredItem,
	)
	if err != nil {
		return fmt.Errorf("upserting room: %w", err)
	}
	return nil
}

// Room retrieves a room by ID.
func (s *Store) Room(ctx context.Context, id int64) (*world.Room, error) {
	r, err := scanRoom(s.db.QueryRow(ctx,
		`SELECT `+roomColumns+` FROM rooms WHERE id = $1`,
		id,
	))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, world.ErrRoomNotFound
		}
		return nil, fmt.Errorf("querying room: %w", err)
	}
	return r, nil
}

// Rooms lists every room ordered by ID.
func (s *Store) Rooms(ctx context.Context) ([]*world.Room, error) {
	rows, err := s.db.Query(ctx,
		`SELECT `+roomColumns+` FROM rooms ORDER BY id`,
	)
	if err != nil {
		return nil, fmt.Errorf("querying rooms: %w", err)
	}
	defer rows.Close()

	var out []*world.Room
	for rows.Next() {
		r, err := scanRoom(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning room: %w", err)
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

// SetLocked updates a room's lock state. The door-locking process re-locks
// configured rooms through this.
func (s *Store) SetLocked(ctx context.Context, roomID int64, locked bool) error {
	tag, err := s.db.Exec(ctx,
		`UPDATE rooms SET locked = $1 WHERE id = $2`,
		locked, roomID,
	)
	if err != nil {
		return fmt.Errorf("updating room lock: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return world.ErrRoomNotFound
	}
	return nil
}

// RoomItems returns the item stacks lying in a room.
func (s *Store) RoomItems(ctx context.Context, roomID int64) ([]world.ItemStack, error) {
	rows, err := s.db.Query(ctx,
		`SELECT `+prefixedItemColumns+`, ri.quantity
		 FROM room_items ri JOIN items i ON i.id = ri.item_id
		 WHERE ri.room_id = $1 ORDER BY i.name`,
		roomID,
	)
	if err != nil {
		return nil, fmt.Errorf("querying room items: %w", err)
	}
	defer rows.Close()
	return collectStacks(rows)
}

// AddRoomItem drops quantity copies of an item in a room.
func (s *Store) AddRoomItem(ctx context.Context, roomID, itemID int64, quantity int) error {
	_, err := s.db.Exec(ctx,
		`INSERT INTO room_items (room_id, item_id, quantity)
		 VALUES ($1, $2, $3)
		 ON CONFLICT (room_id, item_id)
		 DO UPDATE SET quantity = room_items.quantity + EXCLUDED.quantity`,
		roomID, itemID, quantity,
	)
	if err != nil {
		return fmt.Errorf("adding room item: %w", err)
	}
	return nil
}

// RemoveRoomItem picks quantity copies of an item up from a room.
//
// Postcondition: Returns world.ErrInsufficientQuantity if the room does not
// hold that many; the room is unchanged in that case.
func (s *Store) RemoveRoomItem(ctx context.Context, roomID, itemID int64, quantity int) error {
	tag, err := s.db.Exec(ctx,
		`UPDATE room_items SET quantity = quantity - $3
		 WHERE room_id = $1 AND item_id = $2 AND quantity >= $3`,
		roomID, itemID, quantity,
	)
	if err != nil {
		return fmt.Errorf("removing room item: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return world.ErrInsufficientQuantity
	}
	_, err = s.db.Exec(ctx,
		`DELETE FROM room_items WHERE room_id = $1 AND item_id = $2 AND quantity <= 0`,
		roomID, itemID,
	)
	if err != nil {
		return fmt.Errorf("pruning empty stack: %w", err)
	}
	return nil
}
