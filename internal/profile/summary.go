package profile

import (
	"fmt"
	"sort"
	"strings"
)

// Summary is the subset of a profile the explanation prompt is built from
type Summary struct {
	Age                int
	Gender             string
	Profession         string
	Hobbies            string
	Values             string
	Smoking            string
	Drinking           string
	Children           string
	RelationshipGoals  string
	CommunicationStyle string
	PersonalityTraits  string
}

// summary fields and the questionnaire keys they are read from, first hit wins
var summaryKeys = map[string][]string{
	"profession":    {"lifestyle_profession", "profession"},
	"hobbies":       {"lifestyle_hobbies", "hobbies"},
	"values":        {"values_core", "values_family", "values_religion"},
	"smoking":       {"lifestyle_smoking"},
	"drinking":      {"lifestyle_drinking"},
	"children":      {"values_children"},
	"goals":         {"values_marriage", "relationship_goals"},
	"communication": {"emotional_communication"},
	"personality":   {"personality_traits", "emotional_personality"},
}

// Summary derives the prompt summary from the profile and its answers
func (p *UserProfile) Summary() Summary {
	s := Summary{Gender: p.Gender}
	if p.Age != nil {
		s.Age = *p.Age
	}
	a := p.QuestionnaireAnswers
	s.Profession = firstAnswer(a, summaryKeys["profession"])
	s.Hobbies = firstAnswer(a, summaryKeys["hobbies"])
	s.Values = firstAnswer(a, summaryKeys["values"])
	s.Smoking = firstAnswer(a, summaryKeys["smoking"])
	s.Drinking = firstAnswer(a, summaryKeys["drinking"])
	s.Children = firstAnswer(a, summaryKeys["children"])
	s.RelationshipGoals = firstAnswer(a, summaryKeys["goals"])
	s.CommunicationStyle = firstAnswer(a, summaryKeys["communication"])
	s.PersonalityTraits = firstAnswer(a, summaryKeys["personality"])
	return s
}

func firstAnswer(a Answers, keys []string) string {
	for _, k := range keys {
		if v, ok := a[k]; ok {
			if text := answerText(v); text != "" {
				return text
			}
		}
	}
	return ""
}

// answerText flattens an answer into prompt text. Lists are comma-joined,
// maps are rendered as sorted "k: v" pairs.
func answerText(v interface{}) string {
	switch val := v.(type) {
	case nil:
		return ""
	case string:
		return strings.TrimSpace(val)
	case []interface{}:
		parts := make([]string, 0, len(val))
		for _, item := range val {
			if text := answerText(item); text != "" {
				parts = append(parts, text)
			}
		}
		return strings.Join(parts, ", ")
	case []string:
		return strings.Join(val, ", ")
	case map[string]interface{}:
		keys := make([]string, 0, len(val))
		for k := range val {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		parts := make([]string, 0, len(keys))
		for _, k := range keys {
			if text := answerText(val[k]); text != "" {
				parts = append(parts, k+": "+text)
			}
		}
		return strings.Join(parts, ", ")
	default:
		return fmt.Sprint(val)
	}
}
