package rules

import "math"

// LevelForPoints derives a user's level from their total points.
// Level n requires 100*(n-1)^2 points, so 0 points is level 1,
// 100 points is level 2, 400 is level 3 and so on.
func LevelForPoints(totalPoints int64) int64 {
	if totalPoints <= 0 {
		return 1
	}
	return int64(math.Sqrt(float64(totalPoints)/100.0)) + 1
}

// Tier is a display badge band over total points. MaxPoints of 0 means
// the band is open-ended.
type Tier struct {
	Name      string
	MinPoints int64
	MaxPoints int64
}

// DefaultTiers mirrors the platform badge bands, ordered by MinPoints.
func DefaultTiers() []Tier {
	return []Tier{
		{Name: "Newcomer", MinPoints: 0, MaxPoints: 500},
		{Name: "Regular", MinPoints: 500, MaxPoints: 2500},
		{Name: "Insider", MinPoints: 2500, MaxPoints: 10000},
		{Name: "Curator", MinPoints: 10000, MaxPoints: 50000},
		{Name: "Legend", MinPoints: 50000, MaxPoints: 0},
	}
}

// TierForPoints resolves which tier a point total falls into.
func TierForPoints(tiers []Tier, totalPoints int64) (Tier, bool) {
	for _, tier := range tiers {
		if totalPoints >= tier.MinPoints && (tier.MaxPoints == 0 || totalPoints < tier.MaxPoints) {
			return tier, true
		}
	}
	return Tier{}, false
}
