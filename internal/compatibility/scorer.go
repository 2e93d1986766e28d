// internal/compatibility/scorer.go
// Weighted questionnaire compatibility between two members

package compatibility

import (
	"fmt"
	"math"
	"reflect"
	"strings"
)

// Degraded reasons
const (
	DegradedAnswersMissing  = "answers_missing"
	DegradedMalformedAnswer = "malformed_answer"
	DegradedInternalError   = "internal_error"
)

const (
	matchCredit   = 1.0
	partialCredit = 0.5
	neutralScore  = 0.5
)

// Answers is one member's flat questionnaire map
type Answers map[string]interface{}

// Breakdown holds the per-dimension scores, each in [0,1]
type Breakdown struct {
	Values       float64 `json:"values"`
	Lifestyle    float64 `json:"lifestyle"`
	Emotional    float64 `json:"emotional"`
	LoveLanguage float64 `json:"loveLanguage"`
	Attraction   float64 `json:"attraction"`
}

func (b *Breakdown) set(name string, score float64) {
	switch name {
	case DimensionValues:
		b.Values = score
	case DimensionLifestyle:
		b.Lifestyle = score
	case DimensionEmotional:
		b.Emotional = score
	case DimensionLoveLanguage:
		b.LoveLanguage = score
	case DimensionAttraction:
		b.Attraction = score
	}
}

// Get returns the score for a dimension name
func (b Breakdown) Get(name string) float64 {
	switch name {
	case DimensionValues:
		return b.Values
	case DimensionLifestyle:
		return b.Lifestyle
	case DimensionEmotional:
		return b.Emotional
	case DimensionLoveLanguage:
		return b.LoveLanguage
	case DimensionAttraction:
		return b.Attraction
	}
	return 0
}

// Result is the outcome of scoring a pair. A Degraded result carries the
// neutral default and says why; callers must not read it as a genuine 0.5.
type Result struct {
	Compatible     bool      `json:"compatible"`
	Overall        float64   `json:"overall"`
	Breakdown      Breakdown `json:"breakdown"`
	Reason         string    `json:"reason,omitempty"`
	Degraded       bool      `json:"degraded"`
	DegradedReason string    `json:"degradedReason,omitempty"`
}

// OK reports whether the result is a real score rather than a fallback
func (r Result) OK() bool {
	return !r.Degraded
}

// Neutral is the default returned when a pair cannot be scored
func Neutral(reason string) Result {
	return Result{
		Compatible: true,
		Overall:    neutralScore,
		Breakdown: Breakdown{
			Values:       neutralScore,
			Lifestyle:    neutralScore,
			Emotional:    neutralScore,
			LoveLanguage: neutralScore,
			Attraction:   neutralScore,
		},
		Degraded:       true,
		DegradedReason: reason,
	}
}

// Calculate scores two answer maps. It never panics: malformed input yields a
// Degraded neutral result so one bad record cannot abort a batch.
func Calculate(a, b Answers) (result Result) {
	defer func() {
		if rec := recover(); rec != nil {
			result = Neutral(DegradedInternalError)
		}
	}()

	if a == nil || b == nil {
		return Neutral(DegradedAnswersMissing)
	}
	if err := checkAnswers(a); err != nil {
		return Neutral(DegradedMalformedAnswer)
	}
	if err := checkAnswers(b); err != nil {
		return Neutral(DegradedMalformedAnswer)
	}

	if reason, hit := dealBreakerHit(a, b); hit {
		return Result{Compatible: false, Overall: 0, Reason: reason}
	}

	var breakdown Breakdown
	overall := 0.0
	for _, d := range dimensions {
		score := round2(dimensionScore(d.keys, a, b))
		breakdown.set(d.name, score)
		overall += d.weight * score
	}

	return Result{
		Compatible: true,
		Overall:    clamp01(round2(overall)),
		Breakdown:  breakdown,
	}
}

// dimensionScore is (matches + 0.5*mismatches) / common, or 0.5 with nothing in common
func dimensionScore(keys []string, a, b Answers) float64 {
	total := 0
	credit := 0.0
	for _, key := range keys {
		va, okA := a[key]
		vb, okB := b[key]
		if !okA || !okB || isEmpty(va) || isEmpty(vb) {
			continue
		}
		total++
		if sameAnswer(va, vb) {
			credit += matchCredit
		} else {
			credit += partialCredit
		}
	}
	if total == 0 {
		return neutralScore
	}
	return credit / float64(total)
}

func dealBreakerHit(a, b Answers) (string, bool) {
	for _, db := range dealBreakers {
		va, okA := a[db.key].(string)
		vb, okB := b[db.key].(string)
		if !okA || !okB {
			continue
		}
		na, nb := normalize(va), normalize(vb)
		pos, neg := normalize(db.positive), normalize(db.negative)
		if (na == pos && nb == neg) || (na == neg && nb == pos) {
			return db.reason, true
		}
	}
	return "", false
}

// sameAnswer is exact equality; strings compare after trimming.
func sameAnswer(a, b interface{}) bool {
	sa, okA := a.(string)
	sb, okB := b.(string)
	if okA && okB {
		return strings.TrimSpace(sa) == strings.TrimSpace(sb)
	}
	return reflect.DeepEqual(a, b)
}

func isEmpty(v interface{}) bool {
	if v == nil {
		return true
	}
	if s, ok := v.(string); ok {
		return strings.TrimSpace(s) == ""
	}
	return false
}

func normalize(s string) string {
	s = strings.NewReplacer("’", "'", "‘", "'").Replace(s)
	return strings.ToLower(strings.Join(strings.Fields(s), " "))
}

// checkAnswers rejects values a JSON decoder could never produce on tracked keys
func checkAnswers(a Answers) error {
	for _, d := range dimensions {
		for _, key := range d.keys {
			v, ok := a[key]
			if !ok {
				continue
			}
			if !supported(v) {
				return fmt.Errorf("answer %s has unsupported type %T", key, v)
			}
		}
	}
	return nil
}

func supported(v interface{}) bool {
	switch val := v.(type) {
	case nil, string, bool, int, int32, int64, float32:
		return true
	case float64:
		return !math.IsNaN(val) && !math.IsInf(val, 0)
	case []string:
		return true
	case []interface{}:
		for _, item := range val {
			if !supported(item) {
				return false
			}
		}
		return true
	case map[string]interface{}:
		for _, item := range val {
			if !supported(item) {
				return false
			}
		}
		return true
	default:
		return false
	}
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}

func clamp01(v float64) float64 {
	return math.Max(0, math.Min(1, v))
}

// Percent converts the overall score to the 0-100 value stored on a match
func Percent(r Result) int {
	return int(math.Round(r.Overall * 100))
}
