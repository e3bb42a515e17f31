package world

import "context"

// UserStore persists login accounts and IP bans.
type UserStore interface {
	CreateUser(ctx context.Context, username, passwordHash string) (*User, error)
	UserByName(ctx context.Context, username string) (*User, error)
	Users(ctx context.Context) ([]*User, error)
	SetBanned(ctx context.Context, username string, banned bool) error
	SetAdmin(ctx context.Context, username string, admin bool) error
	DeleteUser(ctx context.Context, username string) error
	AddIPBan(ctx context.Context, address string) error
	IsIPBanned(ctx context.Context, address string) (bool, error)
}

// CharacterStore persists characters, their inventories, and their equipment.
type CharacterStore interface {
	CreateCharacter(ctx context.Context, c *Character) error
	CharacterByName(ctx context.Context, name string) (*Character, error)
	CharactersForUser(ctx context.Context, userID int64) ([]*Character, error)
	Characters(ctx context.Context) ([]*Character, error)
	SaveCharacter(ctx context.Context, c *Character) error
	DeleteCharacter(ctx context.Context, name string) error

	Inventory(ctx context.Context, characterID int64) ([]ItemStack, error)
	AddItem(ctx context.Context, characterID, itemID int64, quantity int) error
	RemoveItem(ctx context.Context, characterID, itemID int64, quantity int) error

	Equipment(ctx context.Context, characterID int64) ([]*Item, error)
	Equip(ctx context.Context, characterID, itemID int64) error
	Unequip(ctx context.Context, characterID, itemID int64) error
}

// RoomStore persists rooms and the items lying in them.
type RoomStore interface {
	CreateRoom(ctx context.Context, r *Room) error
	Room(ctx context.Context, id int64) (*Room, error)
	Rooms(ctx context.Context) ([]*Room, error)
	SetLocked(ctx context.Context, roomID int64, locked bool) error

	RoomItems(ctx context.Context, roomID int64) ([]ItemStack, error)
	AddRoomItem(ctx context.Context, roomID, itemID int64, quantity int) error
	RemoveRoomItem(ctx context.Context, roomID, itemID int64, quantity int) error
}

// ItemStore persists item templates.
type ItemStore interface {
	CreateItem(ctx context.Context, i *Item) error
	Item(ctx context.Context, id int64) (*Item, error)
	ItemByName(ctx context.Context, name string) (*Item, error)
}

// NPCStore persists NPCs and merchant stock.
type NPCStore interface {
	CreateNPC(ctx context.Context, n *NPC) error
	NPCByName(ctx context.Context, name string) (*NPC, error)
	NPCsInRoom(ctx context.Context, roomID int64) ([]*NPC, error)
	Stock(ctx context.Context, npcID int64) ([]Listing, error)
	AddStock(ctx context.Context, npcID, itemID int64, price, quantity int) error
	RemoveStock(ctx context.Context, npcID, itemID int64, quantity int) error
}

// Store is the full persistence surface the game server needs.
type Store interface {
	UserStore
	CharacterStore
	RoomStore
	ItemStore
	NPCStore
}
