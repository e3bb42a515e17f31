package ruleset

import (
	"fmt"
	"strings"

	"github.com/nickeddy/uamud/internal/game/dice"
)

// SpeciesKind identifies a mob species.
type SpeciesKind string

const (
	SpeciesGhoul    SpeciesKind = "GHOUL"
	SpeciesRadroach SpeciesKind = "RADROACH"
	SpeciesGecko    SpeciesKind = "GECKO"
	SpeciesWildDog  SpeciesKind = "WILD_DOG"
)

// SpeciesSpec is one row of the species table. BaseDamage and BaseHP scale
// with the mob's level; Value feeds the experience and caps rewards.
type SpeciesSpec struct {
	Kind       SpeciesKind
	Name       string
	BaseHP     int
	BaseDamage int
	Value      int
	Hostile    bool
	Dialogue   []string
}

var speciesTable = map[SpeciesKind]SpeciesSpec{
	SpeciesGhoul: {
		Kind: SpeciesGhoul, Name: "Ghoul",
		BaseHP: 40, BaseDamage: 4, Value: 30, Hostile: true,
		Dialogue: []string{"Eerrrerrrrrr", "*groan*"},
	},
	SpeciesRadroach: {
		Kind: SpeciesRadroach, Name: "Radroach",
		BaseHP: 10, BaseDamage: 1, Value: 10, Hostile: true,
		Dialogue: []string{"Hsssssssss!", "Ssssssss!"},
	},
	SpeciesGecko: {
		Kind: SpeciesGecko, Name: "Gecko",
		BaseHP: 20, BaseDamage: 2, Value: 15, Hostile: true,
		Dialogue: []string{
			"I'm not really sure what geckos sound like...!",
			"So here's some easter eggs.",
			"Rawr!",
		},
	},
	SpeciesWildDog: {
		Kind: SpeciesWildDog, Name: "Wild Dog",
		BaseHP: 25, BaseDamage: 3, Value: 20, Hostile: true,
		Dialogue: []string{"Grrrrrr!", "Woof!", "*snarl*"},
	},
}

// AllSpecies lists every species in a fixed order.
var AllSpecies = []SpeciesKind{SpeciesGhoul, SpeciesRadroach, SpeciesGecko, SpeciesWildDog}

// ParseSpecies resolves a species name to its kind, case-insensitively.
// Spaces in the name map to underscores, so "Wild Dog" parses.
func ParseSpecies(name string) (SpeciesKind, error) {
	normalized := strings.ToUpper(strings.ReplaceAll(strings.TrimSpace(name), " ", "_"))
	kind := SpeciesKind(normalized)
	if _, ok := speciesTable[kind]; !ok {
		return "", fmt.Errorf("unknown species %q", name)
	}
	return kind, nil
}

// Spec returns the species table row for kind.
//
// Precondition: kind must be one of the defined species.
func (k SpeciesKind) Spec() SpeciesSpec {
	return speciesTable[k]
}

// DisplayName returns the species' human-readable name.
func (k SpeciesKind) DisplayName() string {
	return speciesTable[k].Name
}

// MaxHP returns a mob's hit points at the given level.
func (k SpeciesKind) MaxHP(level int) int {
	spec := speciesTable[k]
	return spec.BaseHP + (level-1)*spec.BaseHP/4
}

// Damage returns a mob's raw attack damage at the given level, before the
// target's defense is subtracted. Difficulty is the world-wide multiplier.
func (k SpeciesKind) Damage(level, difficulty int) int {
	return speciesTable[k].BaseDamage + level*difficulty
}

// Talk returns a random dialogue line for the species.
func (k SpeciesKind) Talk(rng dice.Source) string {
	lines := speciesTable[k].Dialogue
	return lines[rng.Intn(len(lines))]
}
