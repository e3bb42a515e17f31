// Package world defines the persistent game world model: users, characters,
// rooms, item templates, NPCs, and the store interfaces the handlers consume.
package world

import (
	"strings"
	"time"

	"github.com/nickeddy/uamud/internal/game/ruleset"
)

// Direction is one of the four compass exits a room can have.
type Direction string

const (
	North Direction = "north"
	East  Direction = "east"
	South Direction = "south"
	West  Direction = "west"
)

// MoveOrder is the preference order used when a wandering mob picks an exit.
var MoveOrder = []Direction{North, East, South, West}

// ParseDirection resolves a direction name or single-letter alias.
func ParseDirection(s string) (Direction, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "north", "n":
		return North, true
	case "east", "e":
		return East, true
	case "south", "s":
		return South, true
	case "west", "w":
		return West, true
	}
	return "", false
}

// User is a login account.
type User struct {
	ID           int64
	Username     string
	PasswordHash string
	Admin        bool
	Banned       bool
	CreatedAt    time.Time
}

// MinNameLength applies to usernames and character names.
const MinNameLength = 3

// Character is a playable character. Stats are not stored; they derive from
// Class and Level through the ruleset tables.
type Character struct {
	ID         int64
	UserID     int64
	Name       string
	Class      ruleset.ClassKind
	Level      int
	Experience int
	HP         int
	AP         int
	RoomID     int64
	Lights     bool
}

// Stats returns the character's current stat block.
func (c *Character) Stats() ruleset.Stats {
	return c.Class.StatsAt(c.Level)
}

// Room is a location. Exit fields hold the destination room ID; zero means
// no exit in that direction.
type Room struct {
	ID           int64
	Name         string
	Description  string
	North        int64
	East         int64
	South        int64
	West         int64
	Locked       bool
	LockedDoor   Direction
	RequiredItem int64
}

// Exit returns the destination room ID for a direction, zero if none.
func (r *Room) Exit(dir Direction) int64 {
	switch dir {
	case North:
		return r.North
	case East:
		return r.East
	case South:
		return r.South
	case West:
		return r.West
	}
	return 0
}

// Exits returns the open directions in move-preference order.
func (r *Room) Exits() []Direction {
	var dirs []Direction
	for _, d := range MoveOrder {
		if r.Exit(d) != 0 {
			dirs = append(dirs, d)
		}
	}
	return dirs
}

// ItemType categorizes an item template.
type ItemType string

const (
	// TypePermanent marks room fixtures that can never be picked up.
	TypePermanent ItemType = "PERMANENT"
	TypeWeapon    ItemType = "WEAPON"
	TypeApparel   ItemType = "APPAREL"
	TypeAid       ItemType = "AID"
	TypeMisc      ItemType = "MISC"
)

// EffectKind is what using an item does.
type EffectKind string

const (
	EffectNone      EffectKind = "NONE"
	EffectHealHP    EffectKind = "HEAL_HP"
	EffectHealAP    EffectKind = "HEAL_AP"
	EffectAddItem   EffectKind = "ADD_ITEM"
	EffectLightsOn  EffectKind = "LIGHTS_ON"
	EffectLightsOff EffectKind = "LIGHTS_OFF"
	EffectNukaCola  EffectKind = "NUKA_COLA"
)

// CapsItemID is the bottle-cap currency item.
const CapsItemID int64 = 21

// Item is an item template. All copies of an item share one template row;
// quantities live on the owning character, room, or NPC.
type Item struct {
	ID               int64
	Name             string
	Description      string
	Type             ItemType
	Usable           bool
	Equippable       bool
	Slot             string
	RequiredLevel    int
	RequiredItem     int64
	RequiredQuantity int
	Effect           EffectKind
	EffectAmount     int
}

// SellPrice is what an NPC pays a character for the item.
func (i *Item) SellPrice() int {
	return i.RequiredLevel*10 + i.EffectAmount*3
}

// ResalePrice is what the NPC lists the item at after buying it.
func (i *Item) ResalePrice() int {
	return i.SellPrice() * 3 / 2
}

// ItemStack is an item template with a count, as held in an inventory or
// lying in a room.
type ItemStack struct {
	Item     *Item
	Quantity int
}

// NPC is a stationary non-player character, typically a merchant.
type NPC struct {
	ID       int64
	Name     string
	RoomID   int64
	Species  ruleset.SpeciesKind
	Merchant bool
}

// Listing is one row of a merchant's stock.
type Listing struct {
	Item     *Item
	Price    int
	Quantity int
}
