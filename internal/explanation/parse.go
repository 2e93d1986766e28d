package explanation

import (
	"encoding/json"
	"regexp"
	"strings"

	"github.com/vettly/vettly-backend/internal/llm"
)

// explanationField finds a single "explanation": "..." in free text
var explanationField = regexp.MustCompile(`"explanation"\s*:\s*"((?:[^"\\]|\\.)*)"`)

type rawResponse struct {
	Member1Points []Point `json:"member1Points"`
	Member2Points []Point `json:"member2Points"`
	// older prompt versions used gendered keys
	MaleExplanation   []Point `json:"maleExplanation"`
	FemaleExplanation []Point `json:"femaleExplanation"`
}

// Parse turns a model response into an Output. It never fails: strict JSON,
// then a single regex-extracted explanation, then the fallback list.
func Parse(raw string) Output {
	if m1, m2, ok := parseJSON(raw); ok {
		return Output{Member1Points: m1, Member2Points: m2, Source: SourceLLM}
	}

	if text, ok := parseExplanationField(raw); ok {
		point := Point{Header: "Why You Match", Explanation: text}
		return Output{
			Member1Points: []Point{point},
			Member2Points: []Point{point},
			Source:        SourceRegex,
		}
	}

	return Output{Member1Points: Fallback(), Member2Points: Fallback(), Source: SourceFallback}
}

func parseJSON(raw string) ([]Point, []Point, bool) {
	var resp rawResponse
	if err := json.Unmarshal([]byte(llm.ExtractJSON(raw)), &resp); err != nil {
		return nil, nil, false
	}

	m1, m2 := resp.Member1Points, resp.Member2Points
	if len(m1) == 0 && len(m2) == 0 {
		m1, m2 = resp.MaleExplanation, resp.FemaleExplanation
	}
	m1, m2 = clean(m1), clean(m2)
	if len(m1) == 0 || len(m2) == 0 {
		return nil, nil, false
	}
	return normalize(m1), normalize(m2), true
}

func parseExplanationField(raw string) (string, bool) {
	m := explanationField.FindStringSubmatch(raw)
	if m == nil {
		return "", false
	}
	var text string
	if err := json.Unmarshal([]byte(`"`+m[1]+`"`), &text); err != nil {
		text = m[1]
	}
	text = strings.TrimSpace(text)
	return text, text != ""
}

func clean(points []Point) []Point {
	out := make([]Point, 0, len(points))
	for _, p := range points {
		p.Header = strings.TrimSpace(p.Header)
		p.Explanation = strings.TrimSpace(p.Explanation)
		if p.Explanation == "" {
			continue
		}
		out = append(out, p)
	}
	return out
}

// normalize truncates to five points and pads short lists from the fallback
func normalize(points []Point) []Point {
	if len(points) > PointsPerMember {
		return points[:PointsPerMember]
	}
	fb := Fallback()
	for i := len(points); i < PointsPerMember; i++ {
		points = append(points, fb[i])
	}
	return points
}
