package stages

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/manwithoutsleep/basic-ai-chatbot/internal/types"
)

func TestDefault_StageOrder(t *testing.T) {
	flow := Default()

	assert.Equal(t, []types.Stage{
		types.StageIntroduction,
		types.StageSkills,
		types.StagePassions,
		types.StageValues,
		types.StageSynthesis,
		types.StageRecommendations,
		types.StageTerminal,
	}, flow.Ordered())
	assert.Equal(t, types.StageIntroduction, flow.First())
}

func TestDefault_TerminalStage(t *testing.T) {
	flow := Default()

	spec, ok := flow.Spec(types.StageTerminal)
	require.True(t, ok)
	assert.True(t, spec.Terminal())

	spec, ok = flow.Spec(types.StageSkills)
	require.True(t, ok)
	assert.False(t, spec.Terminal())
}

func TestFlow_ValidTransition(t *testing.T) {
	flow := Default()

	assert.True(t, flow.ValidTransition(types.StageIntroduction, types.StageSkills))
	assert.True(t, flow.ValidTransition(types.StageRecommendations, types.StageTerminal))

	// Branch target counts as valid even though it goes backward.
	assert.True(t, flow.ValidTransition(types.StagePassions, types.StageSkills))

	assert.False(t, flow.ValidTransition(types.StageIntroduction, types.StageValues))
	assert.False(t, flow.ValidTransition(types.StageTerminal, types.StageIntroduction))
	assert.False(t, flow.ValidTransition("nonexistent", types.StageSkills))
}

func TestFlow_Progress(t *testing.T) {
	flow := Default()

	assert.InDelta(t, 0.0, flow.Progress(types.StageIntroduction), 0.001)
	assert.InDelta(t, 1.0, flow.Progress(types.StageTerminal), 0.001)
	assert.Greater(t, flow.Progress(types.StageValues), flow.Progress(types.StageSkills))
}

func TestSpec_QuestionClamping(t *testing.T) {
	flow := Default()
	spec, ok := flow.Spec(types.StageSkills)
	require.True(t, ok)
	require.NotEmpty(t, spec.Questions)

	last := len(spec.Questions) - 1
	assert.Equal(t, spec.Questions[0], spec.Question(0))
	assert.Equal(t, spec.Questions[last], spec.Question(last+5), "past-the-end reuses the last question")
	assert.Equal(t, spec.Questions[0], spec.Question(-1))

	assert.Equal(t, "skills_assessment.0", spec.QuestionRef(0))
	assert.Equal(t, fmt.Sprintf("skills_assessment.%d", last), spec.QuestionRef(last+5))
}

func TestLoad_RejectsInvalidDocuments(t *testing.T) {
	tests := []struct {
		name string
		doc  string
	}{
		{
			name: "empty document",
			doc:  `{"stages": []}`,
		},
		{
			name: "duplicate stage",
			doc: `{"stages": [
				{"name": "a", "successors": []},
				{"name": "a", "successors": []}
			]}`,
		},
		{
			name: "unknown successor",
			doc: `{"stages": [
				{"name": "a", "successors": ["missing"]},
				{"name": "b", "successors": []}
			]}`,
		},
		{
			name: "unknown branch target",
			doc: `{"stages": [
				{"name": "a", "successors": ["b"], "branches": [{"theme_prefix": "x_", "below_confidence": 0.5, "go_to": "missing", "max_visits": 1}]},
				{"name": "b", "successors": []}
			]}`,
		},
		{
			name: "no terminal stage",
			doc: `{"stages": [
				{"name": "a", "successors": ["b"]},
				{"name": "b", "successors": ["a"]}
			]}`,
		},
		{
			name: "unnamed stage",
			doc:  `{"stages": [{"successors": []}]}`,
		},
		{
			name: "malformed JSON",
			doc:  `{"stages": [`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load([]byte(tt.doc))
			assert.Error(t, err)
		})
	}
}

func TestLoad_ValidCustomFlow(t *testing.T) {
	doc := `{"stages": [
		{"name": "start", "min_answers": 1, "successors": ["end"], "questions": ["q1"]},
		{"name": "end", "successors": []}
	]}`

	flow, err := Load([]byte(doc))
	require.NoError(t, err)
	assert.Equal(t, types.Stage("start"), flow.First())
	assert.True(t, flow.Contains("end"))
	assert.False(t, flow.Contains("middle"))
}
