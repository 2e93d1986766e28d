package explanation

// fallbackPoints is served when the model is unavailable or unparseable
var fallbackPoints = []Point{
	{
		Header:      "Shared Values",
		Explanation: "You both place real weight on the things that shape a life together, which gives this match a strong foundation.",
	},
	{
		Header:      "Compatible Lifestyles",
		Explanation: "Your day-to-day rhythms line up well, so spending time together should feel natural rather than forced.",
	},
	{
		Header:      "Emotional Connection",
		Explanation: "The way you each communicate and handle feelings suggests you can understand and support one another.",
	},
	{
		Header:      "Ways of Showing Care",
		Explanation: "How you give and receive affection overlaps in meaningful ways, making it easier to feel appreciated.",
	},
	{
		Header:      "Room to Grow Together",
		Explanation: "Your differences are complementary, giving you both something new to discover in each other.",
	},
}

// Fallback returns a fresh copy of the generic explanation list
func Fallback() []Point {
	out := make([]Point, len(fallbackPoints))
	copy(out, fallbackPoints)
	return out
}
