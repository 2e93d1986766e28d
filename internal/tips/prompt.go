// internal/tips/prompt.go

package tips

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/vettly/vettly-backend/internal/llm"
)

const systemPrompt = `You are the editor of Vettly's weekly relationship tip. Vettly is a
matchmaker-led dating service for people looking for a serious, lasting
relationship. Write warm, practical, specific advice. Never mention other
dating apps.`

var tipFunction = llm.Function{
	Name:        "create_weekly_tip",
	Description: "Create a weekly dating and relationship tip",
	Parameters: json.RawMessage(`{
		"type": "object",
		"properties": {
			"title": {"type": "string", "description": "Catchy title, under 60 characters"},
			"shortDescription": {"type": "string", "description": "One or two sentence teaser"},
			"mainContent": {"type": "string", "description": "Three to four paragraphs of advice"},
			"whyThisMatters": {"type": "string", "description": "Why this matters for building a relationship"},
			"quickTips": {"type": "array", "items": {"type": "string"}, "description": "Three to five actionable tips"},
			"didYouKnow": {"type": "string", "description": "A relevant fact or statistic"},
			"weeklyChallenge": {"type": "string", "description": "A small challenge for the week"}
		},
		"required": ["title", "shortDescription", "mainContent", "whyThisMatters", "quickTips", "didYouKnow", "weeklyChallenge"]
	}`),
}

func tipPrompt(category string) string {
	return fmt.Sprintf("Create this week's tip for the category %q.", strings.ReplaceAll(category, "_", " "))
}

// generatedTip is the function call's arguments
type generatedTip struct {
	Title            string   `json:"title"`
	ShortDescription string   `json:"shortDescription"`
	MainContent      string   `json:"mainContent"`
	WhyThisMatters   string   `json:"whyThisMatters"`
	QuickTips        []string `json:"quickTips"`
	DidYouKnow       string   `json:"didYouKnow"`
	WeeklyChallenge  string   `json:"weeklyChallenge"`
}

func parseTip(raw json.RawMessage) (*generatedTip, error) {
	var g generatedTip
	if err := json.Unmarshal([]byte(llm.ExtractJSON(string(raw))), &g); err != nil {
		return nil, fmt.Errorf("decode tip: %w", err)
	}
	if strings.TrimSpace(g.Title) == "" || strings.TrimSpace(g.MainContent) == "" {
		return nil, fmt.Errorf("tip is missing title or content")
	}
	return &g, nil
}
