// Package observability provides formatted output utilities for verbose CLI mode.
package observability

import (
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/manwithoutsleep/basic-ai-chatbot/internal/types"
)

const (
	// boxWidth is the default width for formatted output boxes
	boxWidth = 60
	// maxItemsToShow is the default number of items to display in lists
	maxItemsToShow = 5
)

// Printer handles formatted output for verbose mode
type Printer struct {
	out io.Writer
}

// NewPrinter creates a new Printer that writes to the given writer
func NewPrinter(out io.Writer) *Printer {
	return &Printer{out: out}
}

// printBox prints a formatted box with a title and content
//
//nolint:errcheck // writing to stdout; errors are not recoverable
func (p *Printer) printBox(title string, content string) {
	border := strings.Repeat("─", boxWidth-2)
	fmt.Fprintf(p.out, "┌%s┐\n", border)
	fmt.Fprintf(p.out, "│ %-*s │\n", boxWidth-4, title)
	fmt.Fprintf(p.out, "├%s┤\n", border)

	lines := strings.Split(content, "\n")
	for _, line := range lines {
		// Truncate long lines
		if len(line) > boxWidth-4 {
			line = line[:boxWidth-7] + "..."
		}
		fmt.Fprintf(p.out, "│ %-*s │\n", boxWidth-4, line)
	}

	fmt.Fprintf(p.out, "└%s┘\n", border)
}

// PrintTurn outputs a summary of one conversational turn: the themes
// extracted from the answer and whether the stage advanced.
func (p *Printer) PrintTurn(answer types.Answer, from, to types.Stage) {
	var sb strings.Builder

	sb.WriteString(fmt.Sprintf("Turn:   %d\n", answer.TurnIndex))
	sb.WriteString(fmt.Sprintf("Stage:  %s", from))
	if to != from {
		sb.WriteString(fmt.Sprintf(" → %s", to))
	}
	sb.WriteString("\n")

	if len(answer.Themes) == 0 {
		sb.WriteString("Themes: none extracted")
	} else {
		sb.WriteString("Themes:\n")
		count := min(len(answer.Themes), maxItemsToShow)
		for i := 0; i < count; i++ {
			th := answer.Themes[i]
			sb.WriteString(fmt.Sprintf("  • %s (%.2f)\n", th.Tag, th.Confidence))
		}
		if len(answer.Themes) > maxItemsToShow {
			sb.WriteString(fmt.Sprintf("  ... and %d more\n", len(answer.Themes)-maxItemsToShow))
		}
	}

	p.printBox("TURN SUMMARY", strings.TrimSuffix(sb.String(), "\n"))
}

// PrintProfile outputs the synthesized profile: ranked gifts, the
// skill/passion balance, and the overall confidence.
func (p *Printer) PrintProfile(profile *types.Profile) {
	if profile == nil {
		return
	}

	var sb strings.Builder

	count := min(len(profile.TopGifts), maxItemsToShow)
	for i := 0; i < count; i++ {
		gift := profile.TopGifts[i]
		sb.WriteString(fmt.Sprintf("#%d  %s\n", i+1, gift.Name))
		sb.WriteString(fmt.Sprintf("    Score: %.2f (%s)\n", gift.Score, gift.Strength))
	}
	if count > 0 {
		sb.WriteString("\n")
	}

	sb.WriteString(fmt.Sprintf("Balance:    %+.2f", profile.SkillPassionBalance))
	switch {
	case profile.SkillPassionBalance > 0.25:
		sb.WriteString(" (skill-heavy)\n")
	case profile.SkillPassionBalance < -0.25:
		sb.WriteString(" (passion-heavy)\n")
	default:
		sb.WriteString(" (balanced)\n")
	}
	sb.WriteString(fmt.Sprintf("Confidence: %.2f", profile.Confidence))

	p.printBox("DISCOVERY PROFILE", sb.String())
}

// PrintThemeWeights outputs the session's accumulated theme weights.
func (p *Printer) PrintThemeWeights(weights map[string]float64) {
	if len(weights) == 0 {
		return
	}

	tags := make([]string, 0, len(weights))
	for tag := range weights {
		tags = append(tags, tag)
	}
	sort.Slice(tags, func(i, j int) bool {
		if weights[tags[i]] != weights[tags[j]] {
			return weights[tags[i]] > weights[tags[j]]
		}
		return tags[i] < tags[j]
	})

	var sb strings.Builder
	count := min(len(tags), maxItemsToShow)
	for i := 0; i < count; i++ {
		sb.WriteString(fmt.Sprintf("%-28s %.2f\n", tags[i], weights[tags[i]]))
	}
	if len(tags) > maxItemsToShow {
		sb.WriteString(fmt.Sprintf("... and %d more", len(tags)-maxItemsToShow))
	}

	p.printBox("ACCUMULATED THEMES", strings.TrimSuffix(sb.String(), "\n"))
}
