package compatibility

// MatchingPoint is one scored dimension with display text
type MatchingPoint struct {
	Category    string  `json:"category"`
	Description string  `json:"description"`
	Score       float64 `json:"score"`
}

var descriptions = map[string][3]string{
	DimensionValues: {
		"You share the same core values about family, faith and the future",
		"Your core values overlap in important places",
		"Your core values differ and are worth talking through",
	},
	DimensionLifestyle: {
		"Your day-to-day lifestyles fit together naturally",
		"Your lifestyles are compatible with a little give and take",
		"Your daily routines and habits look quite different",
	},
	DimensionEmotional: {
		"You handle emotions and conflict in very similar ways",
		"Your emotional styles complement each other",
		"You approach emotions and conflict differently",
	},
	DimensionLoveLanguage: {
		"You give and receive love the same way",
		"Your love languages partly overlap",
		"You express affection in different ways",
	},
	DimensionAttraction: {
		"You are drawn to the same things in a partner",
		"Your sources of attraction partly line up",
		"You look for different things in a partner",
	},
}

// MatchingPoints lists one point per dimension. Deal-breaker results return none.
func MatchingPoints(r Result) []MatchingPoint {
	if !r.Compatible {
		return []MatchingPoint{}
	}
	points := make([]MatchingPoint, 0, len(dimensions))
	for _, d := range dimensions {
		score := r.Breakdown.Get(d.name)
		band := 2
		switch {
		case score >= 0.85:
			band = 0
		case score >= 0.65:
			band = 1
		}
		points = append(points, MatchingPoint{
			Category:    d.name,
			Description: descriptions[d.name][band],
			Score:       score,
		})
	}
	return points
}
