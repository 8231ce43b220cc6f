package prompts

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGet_ValidPrompt(t *testing.T) {
	ClearCache()

	prompt, err := Get("discovery.json", "skills_assessment")
	require.NoError(t, err)
	assert.NotEmpty(t, prompt)
	assert.Contains(t, prompt, "Skills Assessment")
	assert.Contains(t, prompt, "{{.UserInput}}")
}

func TestGet_InvalidFile(t *testing.T) {
	ClearCache()

	_, err := Get("nonexistent.json", "some-key")
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "failed to read prompt file")
}

func TestGet_InvalidKey(t *testing.T) {
	ClearCache()

	_, err := Get("discovery.json", "nonexistent-key")
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "not found")
}

func TestMustGet_Panics(t *testing.T) {
	ClearCache()

	assert.Panics(t, func() {
		MustGet("nonexistent.json", "some-key")
	})
}

func TestHas(t *testing.T) {
	ClearCache()

	assert.True(t, Has("discovery.json", "format-json"))
	assert.False(t, Has("discovery.json", "no-such-key"))
}

func TestFormat(t *testing.T) {
	template := "Stage {{.Stage}}: {{.UserInput}}"
	data := map[string]string{
		"Stage":     "introduction",
		"UserInput": "hello",
	}

	result := Format(template, data)
	assert.Equal(t, "Stage introduction: hello", result)
}

func TestFormat_NoPlaceholders(t *testing.T) {
	template := "No placeholders here"
	data := map[string]string{"Key": "Value"}

	result := Format(template, data)
	assert.Equal(t, template, result)
}

func TestList(t *testing.T) {
	ClearCache()

	keys, err := List("discovery.json")
	require.NoError(t, err)
	assert.Contains(t, keys, "introduction")
	assert.Contains(t, keys, "format-json-strict")
}

func TestEveryStageTemplateHasPlaceholders(t *testing.T) {
	ClearCache()

	stageKeys := []string{
		"introduction", "skills_assessment", "passion_exploration",
		"values_clarification", "synthesis", "recommendations",
	}
	for _, key := range stageKeys {
		prompt, err := Get("discovery.json", key)
		require.NoError(t, err, key)
		assert.Contains(t, prompt, "{{.Context}}", key)
		assert.Contains(t, prompt, "{{.Question}}", key)
		assert.Contains(t, prompt, "{{.UserInput}}", key)
	}
}
