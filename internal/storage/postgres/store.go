package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/nickeddy/uamud/internal/game/world"
)

// Store implements world.Store on top of a pgx pool.
type Store struct {
	db *pgxpool.Pool
}

var _ world.Store = (*Store)(nil)

// NewStore creates a Store backed by the given pool.
//
// Precondition: pool must be a valid, open connection pool.
func NewStore(pool *Pool) *Store {
	return &Store{db: pool.DB()}
}

// Seed loads validated content into the database. Existing rows with the
// same IDs are replaced; player data is untouched.
func (s *Store) Seed(ctx context.Context, content *world.Content) error {
	for _, item := range content.Items {
		if err := s.CreateItem(ctx, item); err != nil {
			return fmt.Errorf("seeding item %q: %w", item.Name, err)
		}
	}
	for _, room := range content.Rooms {
		if err := s.CreateRoom(ctx, room); err != nil {
			return fmt.Errorf("seeding room %d: %w", room.ID, err)
		}
	}
	for _, room := range content.Rooms {
		for _, stack := range content.RoomItems[room.ID] {
			if err := s.AddRoomItem(ctx, room.ID, stack.Item.ID, stack.Quantity); err != nil {
				return fmt.Errorf("seeding room %d items: %w", room.ID, err)
			}
		}
	}
	for _, npc := range content.NPCs {
		if err := s.CreateNPC(ctx, npc); err != nil {
			return fmt.Errorf("seeding npc %q: %w", npc.Name, err)
		}
		for _, listing := range content.Stock[npc.ID] {
			if err := s.AddStock(ctx, npc.ID, listing.Item.ID, listing.Price, listing.Quantity); err != nil {
				return fmt.Errorf("seeding npc %q stock: %w", npc.Name, err)
			}
		}
	}
	return nil
}
