// Package ruleset defines the fixed game rules: playable classes and their
// stat progressions, mob species, the experience table, and the adjectives
// used to name spawned mobs.
package ruleset

import (
	"fmt"
	"strings"

	"github.com/nickeddy/uamud/internal/game/dice"
)

// ClassKind identifies a playable class.
type ClassKind string

const (
	ClassNinja      ClassKind = "NINJA"
	ClassCyborg     ClassKind = "CYBORG"
	ClassChild      ClassKind = "CHILD"
	ClassGunslinger ClassKind = "GUNSLINGER"
)

// Stats is the nine-element stat block in its standard order.
type Stats struct {
	MaxHP        int
	MaxAP        int
	Strength     int
	Perception   int
	Endurance    int
	Charisma     int
	Intelligence int
	Agility      int
	Luck         int
}

// growth holds per-level stat increments. Fractional growth truncates when
// the stat block is computed, so low-growth stats rise every few levels.
type growth struct {
	HP           float64
	AP           float64
	Strength     float64
	Perception   float64
	Endurance    float64
	Charisma     float64
	Intelligence float64
	Agility      float64
	Luck         float64
}

// ClassSpec is one row of the class table.
type ClassSpec struct {
	Kind   ClassKind
	Name   string
	Base   Stats
	Growth growth
}

var classTable = map[ClassKind]ClassSpec{
	ClassNinja: {
		Kind: ClassNinja,
		Name: "Ninja",
		Base: Stats{MaxHP: 50, MaxAP: 10, Strength: 10, Perception: 5, Endurance: 5,
			Charisma: 3, Intelligence: 2, Agility: 5, Luck: 2},
		Growth: growth{HP: 15, AP: 5, Strength: 1, Perception: 1, Endurance: 0.5,
			Charisma: 0.1, Intelligence: 0.1, Agility: 0.4, Luck: 0.2},
	},
	ClassCyborg: {
		Kind: ClassCyborg,
		Name: "Cyborg",
		Base: Stats{MaxHP: 40, MaxAP: 30, Strength: 2, Perception: 3, Endurance: 5,
			Charisma: 6, Intelligence: 10, Agility: 2, Luck: 6},
		Growth: growth{HP: 10, AP: 20, Strength: 5, Perception: 0.5, Endurance: 0.5,
			Charisma: 0.5, Intelligence: 1.0, Agility: 0.1, Luck: 0.5},
	},
	ClassChild: {
		Kind: ClassChild,
		Name: "Child",
		Base: Stats{MaxHP: 5, MaxAP: 0, Strength: 1, Perception: 5, Endurance: 1,
			Charisma: 15, Intelligence: 2, Agility: 2, Luck: 15},
		Growth: growth{HP: 15, AP: 5, Strength: 1, Perception: 1, Endurance: 1,
			Charisma: 1, Intelligence: 1, Agility: 1, Luck: 2},
	},
	ClassGunslinger: {
		Kind: ClassGunslinger,
		Name: "Gunslinger",
		Base: Stats{MaxHP: 45, MaxAP: 20, Strength: 3, Perception: 3, Endurance: 5,
			Charisma: 10, Intelligence: 5, Agility: 10, Luck: 8},
		Growth: growth{HP: 8, AP: 15, Strength: 0.5, Perception: 0.5, Endurance: 0.5,
			Charisma: 0.5, Intelligence: 0.5, Agility: 0.5, Luck: 0.8},
	},
}

// Classes lists every playable class in a fixed order.
var Classes = []ClassKind{ClassNinja, ClassCyborg, ClassChild, ClassGunslinger}

// ParseClass resolves a class name to its kind, case-insensitively.
func ParseClass(name string) (ClassKind, error) {
	kind := ClassKind(strings.ToUpper(strings.TrimSpace(name)))
	if _, ok := classTable[kind]; !ok {
		return "", fmt.Errorf("unknown class %q", name)
	}
	return kind, nil
}

// Spec returns the class table row for kind.
//
// Precondition: kind must be one of the defined classes.
func (k ClassKind) Spec() ClassSpec {
	return classTable[k]
}

// DisplayName returns the class's human-readable name.
func (k ClassKind) DisplayName() string {
	return classTable[k].Name
}

// StatsAt computes the full stat block at the given level.
//
// Postcondition: every stat equals base + level*growth, truncated.
func (k ClassKind) StatsAt(level int) Stats {
	spec := classTable[k]
	g := spec.Growth
	b := spec.Base
	return Stats{
		MaxHP:        b.MaxHP + int(float64(level)*g.HP),
		MaxAP:        b.MaxAP + int(float64(level)*g.AP),
		Strength:     b.Strength + int(float64(level)*g.Strength),
		Perception:   b.Perception + int(float64(level)*g.Perception),
		Endurance:    b.Endurance + int(float64(level)*g.Endurance),
		Charisma:     b.Charisma + int(float64(level)*g.Charisma),
		Intelligence: b.Intelligence + int(float64(level)*g.Intelligence),
		Agility:      b.Agility + int(float64(level)*g.Agility),
		Luck:         b.Luck + int(float64(level)*g.Luck),
	}
}

// Damage rolls a melee damage value at the given level: strength plus a
// random fraction of luck.
func (k ClassKind) Damage(level int, rng dice.Source) int {
	s := k.StatsAt(level)
	return s.Strength + int(float64(s.Luck)*rng.Float64())
}

// Defense returns the flat damage reduction at the given level: endurance
// plus half of luck.
func (k ClassKind) Defense(level int) int {
	s := k.StatsAt(level)
	return s.Endurance + int(0.5*float64(s.Luck))
}
