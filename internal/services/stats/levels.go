package stats

import (
	"math"

	"github.com/j-veylop/codepulse/internal/models"
)

// xpPerLevelStep scales the quadratic level curve: level n starts at
// xpPerLevelStep * (n-1)^2 XP.
const xpPerLevelStep = 100

// LevelFor converts all-time coding hours into XP and a level. One XP is
// earned per whole minute of coding.
func LevelFor(hours float64) models.LevelInfo {
	// The epsilon absorbs float error from minutes that went through hours.
	xp := int64(math.Floor(hours*60 + 1e-6))
	if xp < 0 {
		xp = 0
	}

	level := int64(1)
	for xpPerLevelStep*level*level <= xp {
		level++
	}

	floor := xpPerLevelStep * (level - 1) * (level - 1)
	next := xpPerLevelStep * level * level

	return models.LevelInfo{
		XP:          xp,
		Level:       int(level),
		LevelXP:     floor,
		NextLevelXP: next,
		Progress:    float64(xp-floor) / float64(next-floor),
	}
}
