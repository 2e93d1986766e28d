package explanation

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/vettly/vettly-backend/internal/compatibility"
	"github.com/vettly/vettly-backend/internal/llm"
	"github.com/vettly/vettly-backend/internal/profile"
)

type stubClient struct {
	response string
	err      error
	calls    int
	lastReq  llm.Request
}

func (s *stubClient) Name() string { return "stub" }

func (s *stubClient) Complete(ctx context.Context, req llm.Request) (string, error) {
	s.calls++
	s.lastReq = req
	return s.response, s.err
}

func (s *stubClient) CallFunction(ctx context.Context, req llm.Request, fn llm.Function) (json.RawMessage, error) {
	return nil, errors.New("not used")
}

func points(prefix string, n int) []Point {
	out := make([]Point, n)
	for i := range out {
		out[i] = Point{Header: prefix + " header", Explanation: prefix + " explanation"}
	}
	return out
}

func sampleInput() Input {
	return Input{
		Member1: profile.Summary{Age: 35, Profession: "Architect", Hobbies: "climbing"},
		Member2: profile.Summary{Age: 32, Profession: "Surgeon", Children: "I want children"},
		Points: []compatibility.MatchingPoint{
			{Category: "values", Description: "You share the same core values", Score: 0.92},
		},
		Overall: 0.87,
	}
}

func TestGenerateParsesStrictJSON(t *testing.T) {
	body, err := json.Marshal(map[string]interface{}{
		"member1Points": points("m1", 5),
		"member2Points": points("m2", 5),
	})
	require.NoError(t, err)

	stub := &stubClient{response: "```json\n" + string(body) + "\n```"}
	out := NewGenerator(stub, zap.NewNop()).Generate(context.Background(), sampleInput())

	assert.Equal(t, 1, stub.calls)
	assert.True(t, stub.lastReq.JSON)
	assert.Equal(t, SourceLLM, out.Source)
	assert.True(t, out.Generated())
	assert.Equal(t, points("m1", 5), out.Member1Points)
	assert.Equal(t, points("m2", 5), out.Member2Points)
}

func TestGenerateFallsBackOnGarbage(t *testing.T) {
	stub := &stubClient{response: "I'm sorry, I can't help with that."}
	out := NewGenerator(stub, zap.NewNop()).Generate(context.Background(), sampleInput())

	assert.Equal(t, SourceFallback, out.Source)
	assert.False(t, out.Generated())
	assert.Equal(t, fallbackPoints, out.Member1Points)
	assert.Equal(t, fallbackPoints, out.Member2Points)
}

func TestGenerateFallsBackOnError(t *testing.T) {
	stub := &stubClient{err: context.DeadlineExceeded}
	out := NewGenerator(stub, zap.NewNop()).Generate(context.Background(), sampleInput())

	assert.Equal(t, SourceFallback, out.Source)
	assert.Len(t, out.Member1Points, PointsPerMember)
	assert.Len(t, out.Member2Points, PointsPerMember)
}

func TestParseRegexExplanation(t *testing.T) {
	out := Parse(`Here is my answer: {"explanation": "You both love the \"outdoors\".", oops`)

	assert.Equal(t, SourceRegex, out.Source)
	require.Len(t, out.Member1Points, 1)
	assert.Equal(t, `You both love the "outdoors".`, out.Member1Points[0].Explanation)
	assert.Equal(t, out.Member1Points, out.Member2Points)
}

func TestParseNormalizesLength(t *testing.T) {
	body, _ := json.Marshal(map[string]interface{}{
		"member1Points": points("m1", 7),
		"member2Points": points("m2", 2),
	})
	out := Parse(string(body))

	assert.Equal(t, SourceLLM, out.Source)
	assert.Len(t, out.Member1Points, 5)
	require.Len(t, out.Member2Points, 5)
	assert.Equal(t, "m2 explanation", out.Member2Points[1].Explanation)
	assert.Equal(t, fallbackPoints[2], out.Member2Points[2])
}

func TestParseLegacyGenderedKeys(t *testing.T) {
	body, _ := json.Marshal(map[string]interface{}{
		"maleExplanation":   points("him", 5),
		"femaleExplanation": points("her", 5),
	})
	out := Parse(string(body))
	assert.Equal(t, SourceLLM, out.Source)
	assert.Equal(t, "him header", out.Member1Points[0].Header)
}

func TestParseOneSidedJSONIsNotAccepted(t *testing.T) {
	body, _ := json.Marshal(map[string]interface{}{"member1Points": points("m1", 5)})
	out := Parse(string(body))
	// the explanation field regex still finds text in the one-sided payload
	assert.Equal(t, SourceRegex, out.Source)
}

func TestBuildPromptHidesScore(t *testing.T) {
	prompt := BuildPrompt(sampleInput())

	assert.Contains(t, prompt, "Architect")
	assert.Contains(t, prompt, "MEMBER 1 (male)")
	assert.Contains(t, prompt, "MEMBER 2 (female)")
	assert.Contains(t, prompt, "exactly 5 points")
	assert.Contains(t, prompt, "exceptional")
	assert.NotContains(t, prompt, "0.87")
	assert.NotContains(t, prompt, "87")
	assert.NotContains(t, prompt, "0.92")
	assert.False(t, strings.Contains(prompt, "{{"))
}

func TestEncodeDecode(t *testing.T) {
	assert.Equal(t, "[]", Encode(nil))
	assert.Equal(t, fallbackPoints, Decode(Encode(Fallback())))
	assert.Nil(t, Decode("not json"))
	assert.Nil(t, Decode(""))
}
