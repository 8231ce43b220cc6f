// Package prompting constructs the exact text sent to the language model for a
// given stage and session history. Templates are externalized in the prompts
// package; the stage-to-template mapping is injectable configuration.
package prompting

import (
	"fmt"
	"strings"

	"github.com/manwithoutsleep/basic-ai-chatbot/internal/prompts"
	"github.com/manwithoutsleep/basic-ai-chatbot/internal/stages"
	"github.com/manwithoutsleep/basic-ai-chatbot/internal/types"
)

const (
	// defaultCharBudget bounds the conversation context injected into a prompt.
	defaultCharBudget = 4000
	// defaultRecentRaw is how many of the most recent answers stay verbatim.
	defaultRecentRaw = 4
	// summaryExcerptLen clips the raw text kept for summarized answers.
	summaryExcerptLen = 80
)

// Options configures a Builder. Zero values fall back to defaults.
type Options struct {
	// PromptFile is the prompt template file name, default "discovery.json".
	PromptFile string
	// CharBudget caps the context block in characters.
	CharBudget int
	// RecentRaw is the number of most recent answers included unabridged.
	RecentRaw int
	// TemplateOverrides remaps a stage's template key without code changes.
	TemplateOverrides map[types.Stage]string
}

// Builder produces prompts for conversational turns.
type Builder struct {
	opts Options
}

// NewBuilder creates a Builder with the given options.
func NewBuilder(opts Options) *Builder {
	if opts.PromptFile == "" {
		opts.PromptFile = "discovery.json"
	}
	if opts.CharBudget <= 0 {
		opts.CharBudget = defaultCharBudget
	}
	if opts.RecentRaw <= 0 {
		opts.RecentRaw = defaultRecentRaw
	}
	return &Builder{opts: opts}
}

// Request carries everything a single prompt needs.
type Request struct {
	Session   *types.Session
	Spec      *stages.Spec
	Question  string
	UserInput string
	// Clarify re-asks the current question after a non-satisfying answer.
	Clarify bool
	// StrictFormat tightens the output-format instruction after a malformed reply.
	StrictFormat bool
}

// Build constructs the prompt text for a turn.
func (b *Builder) Build(req Request) (string, error) {
	key := req.Spec.Template
	if override, ok := b.opts.TemplateOverrides[req.Spec.Name]; ok {
		key = override
	}
	if key == "" {
		return "", fmt.Errorf("stage %q has no prompt template", req.Spec.Name)
	}

	template, err := prompts.Get(b.opts.PromptFile, key)
	if err != nil {
		return "", err
	}

	prompt := prompts.Format(template, map[string]string{
		"Context":   b.contextBlock(req.Session),
		"Question":  req.Question,
		"UserInput": req.UserInput,
	})

	if req.Clarify {
		prompt += prompts.MustGet(b.opts.PromptFile, "clarify-suffix")
	}
	if req.StrictFormat {
		prompt += prompts.MustGet(b.opts.PromptFile, "format-json-strict")
	} else {
		prompt += prompts.MustGet(b.opts.PromptFile, "format-json")
	}

	return prompt, nil
}

// contextBlock renders the session history within the character budget: the
// most recent answers verbatim, earlier answers summarized to theme tags and
// a clipped excerpt. Oldest summaries are dropped first when over budget.
func (b *Builder) contextBlock(session *types.Session) string {
	answers := session.Answers
	if len(answers) == 0 {
		return "Beginning of conversation"
	}

	rawFrom := len(answers) - b.opts.RecentRaw
	if rawFrom < 0 {
		rawFrom = 0
	}

	lines := make([]string, 0, len(answers))
	for i, a := range answers {
		if i >= rawFrom {
			lines = append(lines, fmt.Sprintf("[%s] user: %s", a.Stage, a.RawText))
		} else {
			lines = append(lines, summarizeAnswer(a))
		}
	}

	// Drop summarized lines oldest-first until within budget; the verbatim
	// tail is kept intact.
	total := blockLen(lines)
	drop := 0
	for total > b.opts.CharBudget && drop < rawFrom {
		total -= len(lines[drop]) + 1
		drop++
	}
	lines = lines[drop:]

	block := strings.Join(lines, "\n")
	if len(block) > b.opts.CharBudget {
		block = block[:b.opts.CharBudget]
	}
	return block
}

func summarizeAnswer(a types.Answer) string {
	var tags []string
	for _, th := range a.Themes {
		tags = append(tags, fmt.Sprintf("%s(%.1f)", th.Tag, th.Confidence))
	}
	themePart := "no themes"
	if len(tags) > 0 {
		themePart = strings.Join(tags, ", ")
	}

	excerpt := a.RawText
	if len(excerpt) > summaryExcerptLen {
		excerpt = excerpt[:summaryExcerptLen] + "..."
	}
	return fmt.Sprintf("[%s] themes: %s | %s", a.Stage, themePart, excerpt)
}

func blockLen(lines []string) int {
	total := 0
	for _, line := range lines {
		total += len(line) + 1
	}
	return total
}
