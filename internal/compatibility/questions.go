package compatibility

// Dimension names as they appear in the breakdown
const (
	DimensionValues       = "values"
	DimensionLifestyle    = "lifestyle"
	DimensionEmotional    = "emotional"
	DimensionLoveLanguage = "loveLanguage"
	DimensionAttraction   = "attraction"
)

type dimension struct {
	name   string
	weight float64
	keys   []string
}

// dimensions lists every tracked question key. Weights sum to 1.
var dimensions = []dimension{
	{
		name:   DimensionValues,
		weight: 0.30,
		keys: []string{
			"values_children",
			"values_marriage",
			"values_religion",
			"values_politics",
			"values_family",
			"values_career",
		},
	},
	{
		name:   DimensionLifestyle,
		weight: 0.25,
		keys: []string{
			"lifestyle_smoking",
			"lifestyle_drinking",
			"lifestyle_exercise",
			"lifestyle_diet",
			"lifestyle_social",
			"lifestyle_pets",
		},
	},
	{
		name:   DimensionEmotional,
		weight: 0.20,
		keys: []string{
			"emotional_communication",
			"emotional_conflict",
			"emotional_affection",
			"emotional_independence",
		},
	},
	{
		name:   DimensionLoveLanguage,
		weight: 0.15,
		keys: []string{
			"love_language_primary",
			"love_language_secondary",
			"love_language_expression",
			"love_language_appreciation",
		},
	},
	{
		name:   DimensionAttraction,
		weight: 0.10,
		keys: []string{
			"attraction_physical",
			"attraction_intellectual",
			"attraction_humor",
		},
	},
}

// TrackedKeys returns every question key that feeds the score, in dimension order
func TrackedKeys() []string {
	var keys []string
	for _, d := range dimensions {
		keys = append(keys, d.keys...)
	}
	return keys
}

// dealBreaker is a pair of mutually exclusive answers to one question
type dealBreaker struct {
	key      string
	positive string
	negative string
	reason   string
}

// Reasons reported when a deal-breaker fires
const (
	ReasonChildren = "children_preferences"
	ReasonMarriage = "marriage_preferences"
)

var dealBreakers = []dealBreaker{
	{
		key:      "values_children",
		positive: "I want children",
		negative: "I don't want children",
		reason:   ReasonChildren,
	},
	{
		key:      "values_marriage",
		positive: "I want to get married",
		negative: "I don't want to get married",
		reason:   ReasonMarriage,
	},
}
