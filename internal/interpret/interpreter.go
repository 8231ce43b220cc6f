// Package interpret converts free-form model replies into structured answer
// data. A structured JSON parse is attempted first; on failure the reply is
// matched heuristically against the theme vocabulary.
package interpret

import (
	"encoding/json"
	"sort"
	"strings"

	"github.com/manwithoutsleep/basic-ai-chatbot/internal/llm"
	"github.com/manwithoutsleep/basic-ai-chatbot/internal/types"
)

// heuristicCap keeps keyword-derived confidence strictly below the 1.0 that
// only a structured parse can assert.
const heuristicCap = 0.9

// Result is the interpretation of one model reply.
type Result struct {
	// Reply is the conversational text to show the user. For unstructured
	// replies this is the raw model output.
	Reply  string
	Themes []types.Theme
	// Structured reports whether the reply followed the requested JSON format.
	Structured bool
	// Malformed reports that both the structured parse and the heuristic
	// fallback produced nothing. The caller decides whether to re-prompt.
	Malformed bool
}

// Interpreter parses model replies against a theme vocabulary.
type Interpreter struct {
	vocab Vocabulary
}

// New creates an Interpreter with the embedded default vocabulary.
func New() *Interpreter {
	return &Interpreter{vocab: DefaultVocabulary()}
}

// NewWithVocabulary creates an Interpreter with a custom vocabulary.
func NewWithVocabulary(vocab Vocabulary) *Interpreter {
	return &Interpreter{vocab: vocab}
}

type structuredReply struct {
	Reply  string `json:"reply"`
	Themes []struct {
		Tag        string   `json:"tag"`
		Confidence *float64 `json:"confidence"`
	} `json:"themes"`
}

// Interpret converts a raw model reply into a Result. It never fails: a reply
// that yields nothing comes back with an empty theme set and Malformed set.
func (in *Interpreter) Interpret(raw string) Result {
	if res, ok := in.parseStructured(raw); ok {
		return res
	}

	themes := in.matchThemes(raw)
	return Result{
		Reply:      strings.TrimSpace(raw),
		Themes:     themes,
		Structured: false,
		Malformed:  len(themes) == 0,
	}
}

// parseStructured attempts the requested JSON format. Structured tags keep
// their reported confidence clamped to [0,1]; a tag without a confidence
// field gets 1.0.
func (in *Interpreter) parseStructured(raw string) (Result, bool) {
	cleaned := llm.CleanJSONBlock(raw)
	if !strings.HasPrefix(cleaned, "{") {
		return Result{}, false
	}

	var parsed structuredReply
	if err := json.Unmarshal([]byte(cleaned), &parsed); err != nil {
		return Result{}, false
	}
	if parsed.Reply == "" && len(parsed.Themes) == 0 {
		return Result{}, false
	}

	themes := make([]types.Theme, 0, len(parsed.Themes))
	seen := make(map[string]bool)
	for _, t := range parsed.Themes {
		tag := normalizeTag(t.Tag)
		if tag == "" || seen[tag] {
			continue
		}
		seen[tag] = true
		confidence := 1.0
		if t.Confidence != nil {
			confidence = clamp01(*t.Confidence)
		}
		themes = append(themes, types.Theme{Tag: tag, Confidence: confidence})
	}

	return Result{
		Reply:      parsed.Reply,
		Themes:     themes,
		Structured: true,
	}, true
}

// matchThemes runs keyword matching over the vocabulary. Confidence grows
// with the number of distinct keywords matched per theme, capped below 1.0.
func (in *Interpreter) matchThemes(text string) []types.Theme {
	lower := strings.ToLower(text)
	var themes []types.Theme

	for _, tag := range in.vocab.Tags() {
		matched := 0
		for _, keyword := range in.vocab[tag] {
			if strings.Contains(lower, keyword) {
				matched++
			}
		}
		if matched == 0 {
			continue
		}
		confidence := 0.3 + 0.3*float64(matched)
		if confidence > heuristicCap {
			confidence = heuristicCap
		}
		themes = append(themes, types.Theme{Tag: tag, Confidence: confidence})
	}

	// Strongest theme first; ties resolved by tag so output is deterministic.
	sort.Slice(themes, func(i, j int) bool {
		if themes[i].Confidence != themes[j].Confidence {
			return themes[i].Confidence > themes[j].Confidence
		}
		return themes[i].Tag < themes[j].Tag
	})
	return themes
}

func normalizeTag(tag string) string {
	tag = strings.TrimSpace(strings.ToLower(tag))
	tag = strings.ReplaceAll(tag, " ", "_")
	tag = strings.ReplaceAll(tag, "-", "_")
	return tag
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
