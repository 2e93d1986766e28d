package explanation

import (
	"encoding/json"

	"github.com/vettly/vettly-backend/internal/compatibility"
	"github.com/vettly/vettly-backend/internal/profile"
)

// PointsPerMember is how many explanation points each member receives
const PointsPerMember = 5

// Source records which parse path produced the explanation
type Source string

const (
	SourceLLM      Source = "llm"
	SourceRegex    Source = "regex"
	SourceFallback Source = "fallback"
)

// Point is one headed paragraph explaining the match
type Point struct {
	Header      string `json:"header"`
	Explanation string `json:"explanation"`
}

// Input is everything the prompt is built from. The overall score is used to
// set the tone and is never revealed in the prompt text.
type Input struct {
	Member1 profile.Summary
	Member2 profile.Summary
	Points  []compatibility.MatchingPoint
	Overall float64
}

// Output always carries points for both members
type Output struct {
	Member1Points []Point `json:"member1Points"`
	Member2Points []Point `json:"member2Points"`
	Source        Source  `json:"source"`
}

// Generated reports whether the model produced the text
func (o Output) Generated() bool {
	return o.Source != SourceFallback
}

// Encode serializes points the way they are stored on the match record
func Encode(points []Point) string {
	if points == nil {
		points = []Point{}
	}
	b, _ := json.Marshal(points)
	return string(b)
}

// Decode parses a stored explanation; unparseable or empty input returns nil
func Decode(raw string) []Point {
	if raw == "" {
		return nil
	}
	var points []Point
	if err := json.Unmarshal([]byte(raw), &points); err != nil {
		return nil
	}
	return points
}
