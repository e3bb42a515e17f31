package ruleset

// MaxLevel is the level cap.
const MaxLevel = 20

// levelThresholds[i] is the total experience required to reach level i+2.
// Level 1 needs nothing.
var levelThresholds = []int{
	200, 550, 1050, 1700, 2500, 3450, 4550, 5800, 7200, 8750,
	10450, 12300, 14300, 16450, 18750, 21200, 23800, 26550, 29450,
}

// LevelForExperience returns the level earned by the given total experience.
//
// Postcondition: result is in [1, MaxLevel] and non-decreasing in xp.
func LevelForExperience(xp int) int {
	level := 1
	for _, threshold := range levelThresholds {
		if xp < threshold {
			break
		}
		level++
	}
	return level
}

// NextLevelThreshold returns the total experience required for the level
// after the given one. At the cap it returns the final threshold.
func NextLevelThreshold(level int) int {
	if level < 1 {
		level = 1
	}
	if level >= MaxLevel {
		return levelThresholds[len(levelThresholds)-1]
	}
	return levelThresholds[level-1]
}
