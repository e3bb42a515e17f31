// Package memory provides an in-memory world.Store. It backs unit tests and
// the content importer's dry-run mode; the game server itself runs on
// postgres.
package memory

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/nickeddy/uamud/internal/game/world"
)

// Store holds everything behind one mutex. Copies go in and out so callers
// never share memory with the store.
type Store struct {
	mu sync.Mutex

	nextUserID int64
	nextCharID int64

	users      map[int64]*world.User
	ipBans     map[string]bool
	characters map[int64]*world.Character
	inventory  map[int64]map[int64]int
	equipment  map[int64]map[int64]bool
	rooms      map[int64]*world.Room
	roomItems  map[int64]map[int64]int
	items      map[int64]*world.Item
	npcs       map[int64]*world.NPC
	stock      map[int64]map[int64]*world.Listing
}

var _ world.Store = (*Store)(nil)

// NewStore creates an empty store.
func NewStore() *Store {
	return &Store{
		users:      make(map[int64]*world.User),
		ipBans:     make(map[string]bool),
		characters: make(map[int64]*world.Character),
		inventory:  make(map[int64]map[int64]int),
		equipment:  make(map[int64]map[int64]bool),
		rooms:      make(map[int64]*world.Room),
		roomItems:  make(map[int64]map[int64]int),
		items:      make(map[int64]*world.Item),
		npcs:       make(map[int64]*world.NPC),
		stock:      make(map[int64]map[int64]*world.Listing),
	}
}

// Seed loads validated content into the store, replacing nothing: rooms,
// items, NPCs, room items, and merchant stock.
func (s *Store) Seed(ctx context.Context, content *world.Content) error {
	for _, item := range content.Items {
		if err := s.CreateItem(ctx, item); err != nil {
			return err
		}
	}
	for _, room := range content.Rooms {
		if err := s.CreateRoom(ctx, room); err != nil {
			return err
		}
		for _, stack := range content.RoomItems[room.ID] {
			if err := s.AddRoomItem(ctx, room.ID, stack.Item.ID, stack.Quantity); err != nil {
				return err
			}
		}
	}
	for _, npc := range content.NPCs {
		if err := s.CreateNPC(ctx, npc); err != nil {
			return err
		}
		for _, listing := range content.Stock[npc.ID] {
			if err := s.AddStock(ctx, npc.ID, listing.Item.ID, listing.Price, listing.Quantity); err != nil {
				return err
			}
		}
	}
	return nil
}

// --- users ---

func (s *Store) CreateUser(_ context.Context, username, passwordHash string) (*world.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, u := range s.users {
		if strings.EqualFold(u.Username, username) {
			return nil, world.ErrUserExists
		}
	}
	s.nextUserID++
	u := &world.User{
		ID:           s.nextUserID,
		Username:     username,
		PasswordHash: passwordHash,
		CreatedAt:    time.Now(),
	}
	s.users[u.ID] = u
	out := *u
	return &out, nil
}

func (s *Store) UserByName(_ context.Context, username string) (*world.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, err := s.userByName(username)
	if err != nil {
		return nil, err
	}
	out := *u
	return &out, nil
}

func (s *Store) userByName(username string) (*world.User, error) {
	for _, u := range s.users {
		if strings.EqualFold(u.Username, username) {
			return u, nil
		}
	}
	return nil, world.ErrUserNotFound
}

func (s *Store) Users(_ context.Context) ([]*world.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]*world.User, 0, len(s.users))
	for _, u := range s.users {
		copied := *u
		out = append(out, &copied)
	}
	return out, nil
}

func (s *Store) SetBanned(_ context.Context, username string, banned bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, err := s.userByName(username)
	if err != nil {
		return err
	}
	u.Banned = banned
	return nil
}

func (s *Store) SetAdmin(_ context.Context, username string, admin bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, err := s.userByName(username)
	if err != nil {
		return err
	}
	u.Admin = admin
	return nil
}

func (s *Store) DeleteUser(_ context.Context, username string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, err := s.userByName(username)
	if err != nil {
		return err
	}
	for id, c := range s.characters {
		if c.UserID == u.ID {
			delete(s.characters, id)
			delete(s.inventory, id)
			delete(s.equipment, id)
		}
	}
	delete(s.users, u.ID)
	return nil
}

func (s *Store) AddIPBan(_ context.Context, address string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.ipBans[address] = true
	return nil
}

func (s *Store) IsIPBanned(_ context.Context, address string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.ipBans[address], nil
}

// --- characters ---

func (s *Store) CreateCharacter(_ context.Context, c *world.Character) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, existing := range s.characters {
		if strings.EqualFold(existing.Name, c.Name) {
			return world.ErrCharacterExists
		}
	}
	s.nextCharID++
	c.ID = s.nextCharID
	copied := *c
	s.characters[c.ID] = &copied
	return nil
}

func (s *Store) CharacterByName(_ context.Context, name string) (*world.Character, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, err := s.characterByName(name)
	if err != nil {
		return nil, err
	}
	out := *c
	return &out, nil
}

func (s *Store) characterByName(name string) (*world.Character, error) {
	for _, c := range s.characters {
		if strings.EqualFold(c.Name, name) {
			return c, nil
		}
	}
	return nil, world.ErrCharacterNotFound
}

func (s *Store) CharactersForUser(_ context.Context, userID int64) ([]*world.Character, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []*world.Character
	for _, c := range s.characters {
		if c.UserID == userID {
			copied := *c
			out = append(out, &copied)
		}
	}
	return out, nil
}

func (s *Store) Characters(_ context.Context) ([]*world.Character, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]*world.Character, 0, len(s.characters))
	for _, c := range s.characters {
		copied := *c
		out = append(out, &copied)
	}
	return out, nil
}

func (s *Store) SaveCharacter(_ context.Context, c *world.Character) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.characters[c.ID]; !ok {
		return world.ErrCharacterNotFound
	}
	copied := *c
	s.characters[c.ID] = &copied
	return nil
}

func (s *Store) DeleteCharacter(_ context.Context, name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, err := s.characterByName(name)
	if err != nil {
		return err
	}
	delete(s.characters, c.ID)
	delete(s.inventory, c.ID)
	delete(s.equipment, c.ID)
	return nil
}

// --- inventory & equipment ---

func (s *Store) Inventory(_ context.Context, characterID int64) ([]world.ItemStack, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.stacks(s.inventory[characterID])
}

func (s *Store) stacks(counts map[int64]int) ([]world.ItemStack, error) {
	var out []world.ItemStack
	for itemID, qty := range counts {
		item, ok := s.items[itemID]
		if !ok {
			return nil, world.ErrItemNotFound
		}
		copied := *item
		out = append(out, world.ItemStack{Item: &copied, Quantity: qty})
	}
	return out, nil
}

func (s *Store) AddItem(_ context.Context, characterID, itemID int64, quantity int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.items[itemID]; !ok {
		return world.ErrItemNotFound
	}
	if s.inventory[characterID] == nil {
		s.inventory[characterID] = make(map[int64]int)
	}
	s.inventory[characterID][itemID] += quantity
	return nil
}

func (s *Store) RemoveItem(_ context.Context, characterID, itemID int64, quantity int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	counts := s.inventory[characterID]
	if counts[itemID] < quantity {
		return world.ErrInsufficientQuantity
	}
	counts[itemID] -= quantity
	if counts[itemID] == 0 {
		delete(counts, itemID)
	}
	return nil
}

func (s *Store) Equipment(_ context.Context, characterID int64) ([]*world.Item, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []*world.Item
	for itemID := range s.equipment[characterID] {
		item, ok := s.items[itemID]
		if !ok {
			return nil, world.ErrItemNotFound
		}
		copied := *item
		out = append(out, &copied)
	}
	return out, nil
}

func (s *Store) Equip(_ context.Context, characterID, itemID int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.items[itemID]; !ok {
		return world.ErrItemNotFound
	}
	if s.equipment[characterID] == nil {
		s.equipment[characterID] = make(map[int64]bool)
	}
	s.equipment[characterID][itemID] = true
	return nil
}

func (s *Store) Unequip(_ context.Context, characterID, itemID int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.equipment[characterID][itemID] {
		return world.ErrItemNotFound
	}
	delete(s.equipment[characterID], itemID)
	return nil
}

// --- rooms ---

func (s *Store) CreateRoom(_ context.Context, r *world.Room) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	copied := *r
	s.rooms[r.ID] = &copied
	return nil
}

func (s *Store) Room(_ context.Context, id int64) (*world.Room, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.rooms[id]
	if !ok {
		return nil, world.ErrRoomNotFound
	}
	out := *r
	return &out, nil
}

func (s *Store) Rooms(_ context.Context) ([]*world.Room, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]*world.Room, 0, len(s.rooms))
	for _, r := range s.rooms {
		copied := *r
		out = append(out, &copied)
	}
	return out, nil
}

func (s *Store) SetLocked(_ context.Context, roomID int64, locked bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.rooms[roomID]
	if !ok {
		return world.ErrRoomNotFound
	}
	r.Locked = locked
	return nil
}

func (s *Store) RoomItems(_ context.Context, roomID int64) ([]world.ItemStack, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.stacks(s.roomItems[roomID])
}

func (s *Store) AddRoomItem(_ context.Context, roomID, itemID int64, quantity int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.rooms[roomID]; !ok {
		return world.ErrRoomNotFound
	}
	if _, ok := s.items[itemID]; !ok {
		return world.ErrItemNotFound
	}
	if s.roomItems[roomID] == nil {
		s.roomItems[roomID] = make(map[int64]int)
	}
	s.roomItems[roomID][itemID] += quantity
	return nil
}

func (s *Store) RemoveRoomItem(_ context.Context, roomID, itemID int64, quantity int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	counts := s.roomItems[roomID]
	if counts[itemID] < quantity {
		return world.ErrInsufficientQuantity
	}
	counts[itemID] -= quantity
	if counts[itemID] == 0 {
		delete(counts, itemID)
	}
	return nil
}

// --- items ---

func (s *Store) CreateItem(_ context.Context, i *world.Item) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	copied := *i
	s.items[i.ID] = &copied
	return nil
}

func (s *Store) Item(_ context.Context, id int64) (*world.Item, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	i, ok := s.items[id]
	if !ok {
		return nil, world.ErrItemNotFound
	}
	out := *i
	return &out, nil
}

func (s *Store) ItemByName(_ context.Context, name string) (*world.Item, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, i := range s.items {
		if strings.EqualFold(i.Name, name) {
			out := *i
			return &out, nil
		}
	}
	return nil, world.ErrItemNotFound
}

// --- npcs ---

func (s *Store) CreateNPC(_ context.Context, n *world.NPC) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	copied := *n
	s.npcs[n.ID] = &copied
	return nil
}

func (s *Store) NPCByName(_ context.Context, name string) (*world.NPC, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, n := range s.npcs {
		if strings.EqualFold(n.Name, name) {
			out := *n
			return &out, nil
		}
	}
	return nil, world.ErrNPCNotFound
}

func (s *Store) NPCsInRoom(_ context.Context, roomID int64) ([]*world.NPC, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []*world.NPC
	for _, n := range s.npcs {
		if n.RoomID == roomID {
			copied := *n
			out = append(out, &copied)
		}
	}
	return out, nil
}

func (s *Store) Stock(_ context.Context, npcID int64) ([]world.Listing, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []world.Listing
	for itemID, listing := range s.stock[npcID] {
		item, ok := s.items[itemID]
		if !ok {
			return nil, world.ErrItemNotFound
		}
		copied := *item
		out = append(out, world.Listing{Item: &copied, Price: listing.Price, Quantity: listing.Quantity})
	}
	return out, nil
}

func (s *Store) AddStock(_ context.Context, npcID, itemID int64, price, quantity int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.npcs[npcID]; !ok {
		return world.ErrNPCNotFound
	}
	if _, ok := s.items[itemID]; !ok {
		return world.ErrItemNotFound
	}
	if s.stock[npcID] == nil {
		s.stock[npcID] = make(map[int64]*world.Listing)
	}
	if existing, ok := s.stock[npcID][itemID]; ok {
		existing.Quantity += quantity
		existing.Price = price
		return nil
	}
	s.stock[npcID][itemID] = &world.Listing{Price: price, Quantity: quantity}
	return nil
}

func (s *Store) RemoveStock(_ context.Context, npcID, itemID int64, quantity int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	listing, ok := s.stock[npcID][itemID]
	if !ok || listing.Quantity < quantity {
		return world.ErrInsufficientQuantity
	}
	listing.Quantity -= quantity
	if listing.Quantity == 0 {
		delete(s.stock[npcID], itemID)
	}
	return nil
}
