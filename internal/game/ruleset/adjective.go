package ruleset

import "github.com/nickeddy/uamud/internal/game/dice"

// Adjectives prefix the names of spawned mobs ("Feral Ghoul", "Rabid Wild Dog").
var Adjectives = []string{
	"Feral", "Glowing", "Rabid", "Mangy", "Irradiated",
	"Vicious", "Scrawny", "Savage", "Decrepit", "Frenzied",
}

// RandomAdjective picks a spawn-name prefix.
func RandomAdjective(rng dice.Source) string {
	return Adjectives[rng.Intn(len(Adjectives))]
}
