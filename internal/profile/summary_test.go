package profile

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSummary(t *testing.T) {
	age := 34
	p := &UserProfile{
		Gender: GenderMale,
		Age:    &age,
		QuestionnaireAnswers: Answers{
			"lifestyle_profession":    "Architect",
			"lifestyle_hobbies":       []interface{}{"climbing", "", "jazz"},
			"values_family":           "Close-knit",
			"values_children":         "I want children",
			"relationship_goals":      "Marriage",
			"emotional_communication": map[string]interface{}{"style": "direct", "pace": "slow"},
			"lifestyle_smoking":       nil,
			"personality_traits":      3.5,
		},
	}

	s := p.Summary()
	assert.Equal(t, 34, s.Age)
	assert.Equal(t, "Architect", s.Profession)
	assert.Equal(t, "climbing, jazz", s.Hobbies)
	assert.Equal(t, "Close-knit", s.Values)
	assert.Equal(t, "I want children", s.Children)
	assert.Equal(t, "Marriage", s.RelationshipGoals)
	assert.Equal(t, "pace: slow, style: direct", s.CommunicationStyle)
	assert.Equal(t, "", s.Smoking)
	assert.Equal(t, "3.5", s.PersonalityTraits)
}
