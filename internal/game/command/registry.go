// Package command defines the player command table and the parser that maps
// raw input lines onto it. Matching is case-sensitive; each command has a
// fixed arity and the final argument swallows the rest of the line.
package command

// Spec is one row of the command table.
type Spec struct {
	// Name is the full command word.
	Name string
	// Alias is the short form, empty if the command has none.
	Alias string
	// Arity is the number of arguments the handler receives.
	Arity int
	// AdminOnly restricts the command to admin users.
	AdminOnly bool
	// Help is the line shown by the commands listing.
	Help string
}

// Registry holds the command table.
type Registry struct {
	specs  []Spec
	lookup map[string]int
}

// NewRegistry builds a registry from the given table rows.
func NewRegistry(specs []Spec) *Registry {
	r := &Registry{specs: specs, lookup: make(map[string]int, len(specs)*2)}
	for i, spec := range specs {
		r.lookup[spec.Name] = i
		if spec.Alias != "" {
			r.lookup[spec.Alias] = i
		}
	}
	return r
}

// Default returns the full player command table.
func Default() *Registry {
	return NewRegistry([]Spec{
		{Name: "look", Alias: "l", Arity: 0, Help: "look - look at your surroundings."},
		{Name: "move", Alias: "m", Arity: 1, Help: "move 'direction' - move north, east, south, or west."},
		{Name: "commands", Alias: "cmds", Arity: 0, Help: "commands - list all commands."},
		{Name: "say", Arity: 1, Help: "say 'message' - say something to everyone in the room."},
		{Name: "who", Arity: 0, Help: "who - list everyone logged in."},
		{Name: "north", Alias: "n", Arity: 0, Help: "north - move north."},
		{Name: "east", Alias: "e", Arity: 0, Help: "east - move east."},
		{Name: "south", Alias: "s", Arity: 0, Help: "south - move south."},
		{Name: "west", Alias: "w", Arity: 0, Help: "west - move west."},
		{Name: "tell", Alias: "t", Arity: 2, Help: "tell 'player' 'message' - send a private message."},
		{Name: "grab", Alias: "g", Arity: 1, Help: "grab 'item' - pick up an item in the room."},
		{Name: "inventory", Alias: "i", Arity: 0, Help: "inventory - list what you are carrying."},
		{Name: "drop", Alias: "d", Arity: 1, Help: "drop 'item' - drop an item in the room."},
		{Name: "use", Alias: "u", Arity: 1, Help: "use 'item' - use an item from your inventory."},
		{Name: "quit", Alias: "q", Arity: 0, Help: "quit - leave the game."},
		{Name: "shutdown", Arity: 0, AdminOnly: true, Help: "shutdown - shut the server down."},
		{Name: "emote", Alias: "em", Arity: 1, Help: "emote 'action' - perform an action."},
		{Name: "attack", Alias: "a", Arity: 1, Help: "attack 'mob' - attack a mob in the room."},
		{Name: "ooc", Arity: 1, Help: "ooc 'message' - say something out of character to everyone."},
		{Name: "equip", Alias: "eq", Arity: 1, Help: "equip 'item' - equip an item you are carrying."},
		{Name: "unequip", Alias: "uneq", Arity: 1, Help: "unequip 'item' - unequip an equipped item."},
		{Name: "inspect", Alias: "ins", Arity: 1, Help: "inspect 'item' - inspect an item here or in your inventory."},
		{Name: "buy", Arity: 2, Help: "buy 'merchant' 'item' - buy an item from a merchant."},
		{Name: "sell", Arity: 2, Help: "sell 'merchant' 'item' - sell an item to a merchant."},
		{Name: "trade", Arity: 2, Help: "trade 'player' 'item or accept/refuse' - trade an item with another player."},
		{Name: "unlock", Arity: 1, Help: "unlock 'direction' - unlock the locked door."},
		{Name: "talk", Arity: 1, Help: "talk 'npc' - talk to an NPC or mob."},
	})
}

// Lookup resolves a command word or alias, case-sensitively.
func (r *Registry) Lookup(word string) (Spec, bool) {
	i, ok := r.lookup[word]
	if !ok {
		return Spec{}, false
	}
	return r.specs[i], true
}

// Specs returns the table rows in declaration order.
func (r *Registry) Specs() []Spec {
	return r.specs
}
