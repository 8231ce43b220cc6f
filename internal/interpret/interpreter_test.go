package interpret

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInterpret_StructuredReply(t *testing.T) {
	in := New()
	raw := `{"reply": "That sounds energizing!", "themes": [
		{"tag": "skill_leadership", "confidence": 0.8},
		{"tag": "skill_teaching", "confidence": 0.9}
	]}`

	result := in.Interpret(raw)

	assert.True(t, result.Structured)
	assert.False(t, result.Malformed)
	assert.Equal(t, "That sounds energizing!", result.Reply)
	require.Len(t, result.Themes, 2)
	assert.Equal(t, "skill_leadership", result.Themes[0].Tag)
	assert.InDelta(t, 0.8, result.Themes[0].Confidence, 0.001)
	assert.Equal(t, "skill_teaching", result.Themes[1].Tag)
	assert.InDelta(t, 0.9, result.Themes[1].Confidence, 0.001)
}

func TestInterpret_StructuredInsideCodeFence(t *testing.T) {
	in := New()
	raw := "```json\n{\"reply\": \"ok\", \"themes\": [{\"tag\": \"passion_people\", \"confidence\": 0.7}]}\n```"

	result := in.Interpret(raw)

	assert.True(t, result.Structured)
	require.Len(t, result.Themes, 1)
	assert.Equal(t, "passion_people", result.Themes[0].Tag)
}

func TestInterpret_MissingConfidenceDefaultsToFull(t *testing.T) {
	in := New()
	raw := `{"reply": "ok", "themes": [{"tag": "skill_teaching"}]}`

	result := in.Interpret(raw)

	require.Len(t, result.Themes, 1)
	assert.InDelta(t, 1.0, result.Themes[0].Confidence, 0.001)
}

func TestInterpret_ConfidenceClampedAndTagsNormalized(t *testing.T) {
	in := New()
	raw := `{"reply": "ok", "themes": [
		{"tag": "Skill Teaching", "confidence": 1.7},
		{"tag": "skill-teaching", "confidence": 0.2},
		{"tag": "passion_people", "confidence": -0.4}
	]}`

	result := in.Interpret(raw)

	require.Len(t, result.Themes, 2, "duplicate tags after normalization collapse")
	assert.Equal(t, "skill_teaching", result.Themes[0].Tag)
	assert.InDelta(t, 1.0, result.Themes[0].Confidence, 0.001)
	assert.Equal(t, "passion_people", result.Themes[1].Tag)
	assert.Zero(t, result.Themes[1].Confidence)
}

func TestInterpret_HeuristicFallback(t *testing.T) {
	in := New()
	raw := "I really enjoy organizing events and mentoring people in my community."

	result := in.Interpret(raw)

	assert.False(t, result.Structured)
	assert.False(t, result.Malformed)
	assert.Equal(t, raw, result.Reply)

	tags := make(map[string]float64)
	for _, th := range result.Themes {
		tags[th.Tag] = th.Confidence
	}
	assert.Contains(t, tags, "skill_teaching", "mentoring matches the teaching family")
	assert.Contains(t, tags, "passion_people", "people and community match")

	for tag, confidence := range tags {
		assert.LessOrEqual(t, confidence, 0.9, "heuristic confidence must stay below structured certainty for %s", tag)
		assert.GreaterOrEqual(t, confidence, 0.3, "matched theme has at least the base confidence for %s", tag)
	}
}

func TestInterpret_HeuristicOrderingDeterministic(t *testing.T) {
	in := New()
	raw := "I teach and mentor and guide and explain things, and I sometimes help out."

	first := in.Interpret(raw)
	second := in.Interpret(raw)
	assert.Equal(t, first.Themes, second.Themes)

	require.NotEmpty(t, first.Themes)
	assert.Equal(t, "skill_teaching", first.Themes[0].Tag, "theme with the most keyword matches ranks first")
	for i := 1; i < len(first.Themes); i++ {
		assert.GreaterOrEqual(t, first.Themes[i-1].Confidence, first.Themes[i].Confidence)
	}
}

func TestInterpret_NoSignalIsMalformed(t *testing.T) {
	in := New()

	result := in.Interpret("xyzzy qwerty asdf")

	assert.False(t, result.Structured)
	assert.True(t, result.Malformed)
	assert.Empty(t, result.Themes)
}

func TestInterpret_EmptyReplyIsMalformed(t *testing.T) {
	in := New()

	result := in.Interpret("")

	assert.True(t, result.Malformed)
	assert.Empty(t, result.Reply)
}

func TestInterpret_InvalidJSONFallsBackToHeuristics(t *testing.T) {
	in := New()
	raw := `{"reply": "I love to teach and mentor`

	result := in.Interpret(raw)

	assert.False(t, result.Structured)
	assert.NotEmpty(t, result.Themes, "keyword matching still applies to the raw text")
}

func TestDefaultVocabulary(t *testing.T) {
	vocab := DefaultVocabulary()

	tags := vocab.Tags()
	assert.Len(t, tags, 16)

	skills, passions := 0, 0
	for _, tag := range tags {
		switch {
		case len(tag) > 6 && tag[:6] == "skill_":
			skills++
		case len(tag) > 8 && tag[:8] == "passion_":
			passions++
		}
	}
	assert.Equal(t, 8, skills)
	assert.Equal(t, 8, passions)
}
