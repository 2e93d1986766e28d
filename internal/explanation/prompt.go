package explanation

import (
	"fmt"
	"strings"

	"github.com/vettly/vettly-backend/internal/profile"
)

const systemPrompt = `You are an experienced, warm matchmaker writing private notes to each member of a proposed match.
You always answer with a single JSON object and nothing else.`

const promptTemplate = `Two members have been matched by our matchmaking team. Write why this match could work.

MEMBER 1 (male):
{{member1}}

MEMBER 2 (female):
{{member2}}

WHERE THEY ALIGN:
{{points}}

OVERALL STRENGTH: {{strength}}

Instructions:
- Write exactly 5 points for member 1, addressed to him, about why she is a good match for him.
- Write exactly 5 points for member 2, addressed to her, about why he is a good match for her.
- Each point has a short "header" (max 6 words) and an "explanation" of 1-2 sentences.
- Be specific to the details above. Do not invent facts.
- Never mention numbers, percentages or any compatibility score.

Return JSON in exactly this shape:
{"member1Points":[{"header":"...","explanation":"..."}],"member2Points":[{"header":"...","explanation":"..."}]}`

// BuildPrompt renders the user prompt for a pair
func BuildPrompt(in Input) string {
	var points strings.Builder
	for _, p := range in.Points {
		fmt.Fprintf(&points, "- %s: %s\n", p.Category, p.Description)
	}
	if points.Len() == 0 {
		points.WriteString("- No questionnaire overlap recorded yet\n")
	}

	r := strings.NewReplacer(
		"{{member1}}", describe(in.Member1),
		"{{member2}}", describe(in.Member2),
		"{{points}}", strings.TrimRight(points.String(), "\n"),
		"{{strength}}", strength(in.Overall),
	)
	return r.Replace(promptTemplate)
}

func describe(s profile.Summary) string {
	var b strings.Builder
	field := func(label, value string) {
		if value = strings.TrimSpace(value); value != "" {
			fmt.Fprintf(&b, "- %s: %s\n", label, value)
		}
	}
	if s.Age > 0 {
		field("Age", fmt.Sprint(s.Age))
	}
	field("Profession", s.Profession)
	field("Hobbies", s.Hobbies)
	field("Values", s.Values)
	field("Smoking", s.Smoking)
	field("Drinking", s.Drinking)
	field("Children", s.Children)
	field("Relationship goals", s.RelationshipGoals)
	field("Communication style", s.CommunicationStyle)
	field("Personality", s.PersonalityTraits)
	if b.Len() == 0 {
		return "- Profile details not provided"
	}
	return strings.TrimRight(b.String(), "\n")
}

// strength maps the score to words so the number never reaches the model
func strength(overall float64) string {
	switch {
	case overall >= 0.85:
		return "exceptional"
	case overall >= 0.7:
		return "strong"
	case overall >= 0.55:
		return "promising"
	default:
		return "worth exploring"
	}
}
