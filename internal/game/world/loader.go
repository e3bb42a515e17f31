package world

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/nickeddy/uamud/internal/game/ruleset"
)

// Content is the static world seed data: the room graph, the item templates,
// the NPCs with their stock, and the items initially lying in rooms.
type Content struct {
	Rooms     []*Room
	Items     []*Item
	NPCs      []*NPC
	RoomItems map[int64][]ItemStack
	Stock     map[int64][]Listing
}

type yamlContent struct {
	Rooms []yamlRoom `yaml:"rooms"`
	Items []yamlItem `yaml:"items"`
	NPCs  []yamlNPC  `yaml:"npcs"`
}

type yamlRoom struct {
	ID           int64          `yaml:"id"`
	Name         string         `yaml:"name"`
	Description  string         `yaml:"description"`
	North        int64          `yaml:"north"`
	East         int64          `yaml:"east"`
	South        int64          `yaml:"south"`
	West         int64          `yaml:"west"`
	Locked       bool           `yaml:"locked"`
	LockedDoor   string         `yaml:"locked_door"`
	RequiredItem int64          `yaml:"required_item"`
	Items        []yamlQuantity `yaml:"items"`
}

type yamlItem struct {
	ID               int64  `yaml:"id"`
	Name             string `yaml:"name"`
	Description      string `yaml:"description"`
	Type             string `yaml:"type"`
	Usable           bool   `yaml:"usable"`
	Equippable       bool   `yaml:"equippable"`
	Slot             string `yaml:"slot"`
	RequiredLevel    int    `yaml:"required_level"`
	RequiredItem     int64  `yaml:"required_item"`
	RequiredQuantity int    `yaml:"required_quantity"`
	Effect           string `yaml:"effect"`
	EffectAmount     int    `yaml:"effect_amount"`
}

type yamlNPC struct {
	ID       int64       `yaml:"id"`
	Name     string      `yaml:"name"`
	Room     int64       `yaml:"room"`
	Species  string      `yaml:"species"`
	Merchant bool        `yaml:"merchant"`
	Stock    []yamlStock `yaml:"stock"`
}

type yamlQuantity struct {
	Item     int64 `yaml:"item"`
	Quantity int   `yaml:"quantity"`
}

type yamlStock struct {
	Item     int64 `yaml:"item"`
	Price    int   `yaml:"price"`
	Quantity int   `yaml:"quantity"`
}

// LoadContentFromFile reads and validates a single content YAML file.
//
// Postcondition: Returns validated Content or a non-nil error.
func LoadContentFromFile(path string) (*Content, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading content file %s: %w", path, err)
	}
	content, err := LoadContentFromBytes(data)
	if err != nil {
		return nil, fmt.Errorf("loading %s: %w", path, err)
	}
	return content, nil
}

// LoadContentFromBytes parses and validates content from YAML bytes.
func LoadContentFromBytes(data []byte) (*Content, error) {
	var file yamlContent
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("parsing content YAML: %w", err)
	}
	content, err := convertYAMLContent(file)
	if err != nil {
		return nil, err
	}
	if err := content.Validate(); err != nil {
		return nil, fmt.Errorf("validating content: %w", err)
	}
	return content, nil
}

// LoadContentFromDir loads and merges all YAML files in a directory.
// Validation runs on the merged result so files may cross-reference.
func LoadContentFromDir(dir string) (*Content, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("reading content directory %s: %w", dir, err)
	}

	merged := yamlContent{}
	var found bool
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		name := entry.Name()
		if !strings.HasSuffix(name, ".yaml") && !strings.HasSuffix(name, ".yml") {
			continue
		}
		data, err := os.ReadFile(filepath.Join(dir, name))
		if err != nil {
			return nil, fmt.Errorf("reading content file %s: %w", name, err)
		}
		var file yamlContent
		if err := yaml.Unmarshal(data, &file); err != nil {
			return nil, fmt.Errorf("parsing content file %s: %w", name, err)
		}
		merged.Rooms = append(merged.Rooms, file.Rooms...)
		merged.Items = append(merged.Items, file.Items...)
		merged.NPCs = append(merged.NPCs, file.NPCs...)
		found = true
	}
	if !found {
		return nil, fmt.Errorf("no content files found in %s", dir)
	}

	content, err := convertYAMLContent(merged)
	if err != nil {
		return nil, err
	}
	if err := content.Validate(); err != nil {
		return nil, fmt.Errorf("validating content: %w", err)
	}
	return content, nil
}

func convertYAMLContent(file yamlContent) (*Content, error) {
	content := &Content{
		RoomItems: make(map[int64][]ItemStack),
		Stock:     make(map[int64][]Listing),
	}

	itemsByID := make(map[int64]*Item, len(file.Items))
	for _, yi := range file.Items {
		item := &Item{
			ID:               yi.ID,
			Name:             yi.Name,
			Description:      strings.TrimSpace(yi.Description),
			Type:             ItemType(strings.ToUpper(yi.Type)),
			Usable:           yi.Usable,
			Equippable:       yi.Equippable,
			Slot:             yi.Slot,
			RequiredLevel:    yi.RequiredLevel,
			RequiredItem:     yi.RequiredItem,
			RequiredQuantity: yi.RequiredQuantity,
			Effect:           EffectKind(strings.ToUpper(yi.Effect)),
			EffectAmount:     yi.EffectAmount,
		}
		if item.Effect == "" {
			item.Effect = EffectNone
		}
		if item.Type == "" {
			item.Type = TypeMisc
		}
		content.Items = append(content.Items, item)
		itemsByID[item.ID] = item
	}

	for _, yr := range file.Rooms {
		room := &Room{
			ID:           yr.ID,
			Name:         yr.Name,
			Description:  strings.TrimSpace(yr.Description),
			North:        yr.North,
			East:         yr.East,
			South:        yr.South,
			West:         yr.West,
			Locked:       yr.Locked,
			LockedDoor:   Direction(strings.ToLower(yr.LockedDoor)),
			RequiredItem: yr.RequiredItem,
		}
		content.Rooms = append(content.Rooms, room)
		for _, yq := range yr.Items {
			qty := yq.Quantity
			if qty == 0 {
				qty = 1
			}
			content.RoomItems[room.ID] = append(content.RoomItems[room.ID], ItemStack{
				Item:     itemsByID[yq.Item],
				Quantity: qty,
			})
		}
	}

	for _, yn := range file.NPCs {
		npc := &NPC{
			ID:       yn.ID,
			Name:     yn.Name,
			RoomID:   yn.Room,
			Merchant: yn.Merchant,
		}
		if yn.Species != "" {
			kind, err := ruleset.ParseSpecies(yn.Species)
			if err != nil {
				return nil, fmt.Errorf("npc %q: %w", yn.Name, err)
			}
			npc.Species = kind
		}
		content.NPCs = append(content.NPCs, npc)
		for _, ys := range yn.Stock {
			qty := ys.Quantity
			if qty == 0 {
				qty = 1
			}
			content.Stock[npc.ID] = append(content.Stock[npc.ID], Listing{
				Item:     itemsByID[ys.Item],
				Price:    ys.Price,
				Quantity: qty,
			})
		}
	}

	return content, nil
}

// Validate checks content invariants: unique IDs and names, exits and item
// references resolving to loaded rows, lock configs naming a real direction.
//
// Postcondition: Returns nil if valid, or an error describing the first violation.
func (c *Content) Validate() error {
	rooms := make(map[int64]*Room, len(c.Rooms))
	for _, r := range c.Rooms {
		if r.ID <= 0 {
			return fmt.Errorf("room %q: id must be positive", r.Name)
		}
		if r.Name == "" {
			return fmt.Errorf("room %d: name must not be empty", r.ID)
		}
		if _, dup := rooms[r.ID]; dup {
			return fmt.Errorf("room %d: duplicate id", r.ID)
		}
		rooms[r.ID] = r
	}

	items := make(map[int64]*Item, len(c.Items))
	itemNames := make(map[string]bool, len(c.Items))
	for _, i := range c.Items {
		if i.ID <= 0 {
			return fmt.Errorf("item %q: id must be positive", i.Name)
		}
		if i.Name == "" {
			return fmt.Errorf("item %d: name must not be empty", i.ID)
		}
		if _, dup := items[i.ID]; dup {
			return fmt.Errorf("item %d: duplicate id", i.ID)
		}
		if itemNames[i.Name] {
			return fmt.Errorf("item %d: duplicate name %q", i.ID, i.Name)
		}
		items[i.ID] = i
		itemNames[i.Name] = true
	}

	for _, r := range c.Rooms {
		for _, dir := range MoveOrder {
			target := r.Exit(dir)
			if target == 0 {
				continue
			}
			if _, ok := rooms[target]; !ok {
				return fmt.Errorf("room %d: %s exit targets unknown room %d", r.ID, dir, target)
			}
		}
		if r.Locked || r.LockedDoor != "" {
			if _, ok := ParseDirection(string(r.LockedDoor)); !ok {
				return fmt.Errorf("room %d: locked door needs a valid direction", r.ID)
			}
			if r.Exit(r.LockedDoor) == 0 {
				return fmt.Errorf("room %d: locked door %s has no exit", r.ID, r.LockedDoor)
			}
			if _, ok := items[r.RequiredItem]; !ok {
				return fmt.Errorf("room %d: lock requires unknown item %d", r.ID, r.RequiredItem)
			}
		}
		for _, stack := range c.RoomItems[r.ID] {
			if stack.Item == nil {
				return fmt.Errorf("room %d: references unknown item", r.ID)
			}
		}
	}

	npcs := make(map[int64]*NPC, len(c.NPCs))
	for _, n := range c.NPCs {
		if n.ID <= 0 {
			return fmt.Errorf("npc %q: id must be positive", n.Name)
		}
		if n.Name == "" {
			return fmt.Errorf("npc %d: name must not be empty", n.ID)
		}
		if _, dup := npcs[n.ID]; dup {
			return fmt.Errorf("npc %d: duplicate id", n.ID)
		}
		if _, ok := rooms[n.RoomID]; !ok {
			return fmt.Errorf("npc %q: home room %d not found", n.Name, n.RoomID)
		}
		npcs[n.ID] = n
		for _, listing := range c.Stock[n.ID] {
			if listing.Item == nil {
				return fmt.Errorf("npc %q: stock references unknown item", n.Name)
			}
			if listing.Price <= 0 {
				return fmt.Errorf("npc %q: stock item %q needs a positive price", n.Name, listing.Item.Name)
			}
		}
	}

	return nil
}
