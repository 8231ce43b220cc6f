// Package synthesis aggregates the full answer history of a completed session
// into a ranked Profile of spiritual-gift scores and a skill/passion balance.
// Given an identical answer sequence the output is identical: all iteration is
// ordered and there is no randomness.
package synthesis

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/manwithoutsleep/basic-ai-chatbot/internal/types"
)

const (
	// perThemeCap bounds how much accumulated weight a single theme may
	// contribute to a category, so one repeated theme cannot saturate a score.
	perThemeCap = 1.0
	// ScoreFloor is the threshold below which a category is not considered
	// present at all; a zero-answer session scores every category below it.
	ScoreFloor = 0.05
	// topGiftCount is how many ranked gifts feed the overall confidence.
	topGiftCount = 3
)

// Strength bands for gift scores, from scoring thresholds on the [0,1] scale.
const (
	StrengthDominant = "dominant"
	StrengthStrong   = "strong"
	StrengthModerate = "moderate"
	StrengthEmerging = "emerging"
	StrengthLow      = "low"
)

// Synthesizer turns answer histories into profiles.
type Synthesizer struct {
	framework *Framework
}

// New creates a Synthesizer with the embedded default framework.
func New() *Synthesizer {
	return &Synthesizer{framework: DefaultFramework()}
}

// NewWithFramework creates a Synthesizer with a custom gift framework.
func NewWithFramework(fw *Framework) *Synthesizer {
	return &Synthesizer{framework: fw}
}

// Synthesize aggregates the session's answers into a Profile. The caller
// supplies the generation timestamp so repeated synthesis of the same answer
// sequence is bit-identical.
func (s *Synthesizer) Synthesize(session *types.Session, at time.Time) types.Profile {
	weights, firstSeen := accumulate(session.Answers)

	rankings := make([]types.GiftRanking, 0, len(s.framework.Gifts))
	scores := make(map[string]float64, len(s.framework.Gifts))
	for _, gift := range s.framework.Gifts {
		score, first := scoreGift(gift, weights, firstSeen)
		scores[gift.Name] = score
		rankings = append(rankings, types.GiftRanking{
			Name:          gift.Name,
			Score:         score,
			Strength:      strengthBand(score),
			FirstSeenTurn: first,
		})
	}

	// Rank by score; ties go to the theme that emerged earliest in the
	// conversation, then to name so ordering is total.
	sort.SliceStable(rankings, func(i, j int) bool {
		if rankings[i].Score != rankings[j].Score {
			return rankings[i].Score > rankings[j].Score
		}
		fi, fj := tieTurn(rankings[i].FirstSeenTurn), tieTurn(rankings[j].FirstSeenTurn)
		if fi != fj {
			return fi < fj
		}
		return rankings[i].Name < rankings[j].Name
	})

	balance := skillPassionBalance(weights)
	confidence := overallConfidence(rankings)

	return types.Profile{
		Scores:              scores,
		TopGifts:            rankings,
		SkillPassionBalance: balance,
		Rationale:           s.rationale(rankings, balance, confidence),
		Confidence:          confidence,
		GeneratedAt:         at,
	}
}

// accumulate sums confidence-weighted theme occurrences across all answers and
// records the turn index where each theme first appeared.
func accumulate(answers []types.Answer) (map[string]float64, map[string]int) {
	weights := make(map[string]float64)
	firstSeen := make(map[string]int)
	for _, a := range answers {
		for _, th := range a.Themes {
			weights[th.Tag] += th.Confidence
			if _, ok := firstSeen[th.Tag]; !ok {
				firstSeen[th.Tag] = a.TurnIndex
			}
		}
	}
	return weights, firstSeen
}

// scoreGift normalizes the capped indicator weights by the category's maximum
// possible weight, yielding a [0,1] score.
func scoreGift(gift Gift, weights map[string]float64, firstSeen map[string]int) (float64, int) {
	total := 0.0
	first := -1
	for _, indicator := range gift.Indicators {
		w := weights[indicator]
		if w > perThemeCap {
			w = perThemeCap
		}
		total += w
		if turn, ok := firstSeen[indicator]; ok && (first == -1 || turn < first) {
			first = turn
		}
	}
	max := float64(len(gift.Indicators)) * perThemeCap
	return total / max, first
}

// skillPassionBalance is the signed difference between aggregate skill and
// passion theme weight, normalized to [-1,1]. Negative skews passion-heavy.
func skillPassionBalance(weights map[string]float64) float64 {
	skill, passion := 0.0, 0.0
	for tag, w := range weights {
		switch {
		case strings.HasPrefix(tag, "skill_"):
			skill += w
		case strings.HasPrefix(tag, "passion_"):
			passion += w
		}
	}
	if skill+passion == 0 {
		return 0
	}
	return (skill - passion) / (skill + passion)
}

func overallConfidence(rankings []types.GiftRanking) float64 {
	n := topGiftCount
	if len(rankings) < n {
		n = len(rankings)
	}
	if n == 0 {
		return 0
	}
	sum := 0.0
	for i := 0; i < n; i++ {
		sum += rankings[i].Score
	}
	return sum / float64(n)
}

func strengthBand(score float64) string {
	switch {
	case score >= 0.7:
		return StrengthDominant
	case score >= 0.5:
		return StrengthStrong
	case score >= 0.3:
		return StrengthModerate
	case score >= 0.15:
		return StrengthEmerging
	default:
		return StrengthLow
	}
}

// rationale renders a deterministic free-text explanation of the ranking.
func (s *Synthesizer) rationale(rankings []types.GiftRanking, balance, confidence float64) string {
	var sb strings.Builder

	if confidence == 0 {
		sb.WriteString("Not enough was shared in this session to identify spiritual gifts. ")
		sb.WriteString("Continue exploring through conversation and feedback from others.")
		return sb.String()
	}

	sb.WriteString("Top gifts: ")
	n := topGiftCount
	if len(rankings) < n {
		n = len(rankings)
	}
	for i := 0; i < n; i++ {
		if i > 0 {
			sb.WriteString(", ")
		}
		sb.WriteString(fmt.Sprintf("%s (%.2f, %s)", rankings[i].Name, rankings[i].Score, rankings[i].Strength))
	}
	sb.WriteString(". ")

	switch {
	case balance > 0.25:
		sb.WriteString("The conversation leaned toward demonstrated skills more than passions. ")
	case balance < -0.25:
		sb.WriteString("The conversation leaned toward passions more than demonstrated skills. ")
	default:
		sb.WriteString("Skills and passions came through in roughly equal measure. ")
	}

	if top := rankings[0]; top.Score >= ScoreFloor {
		if gift, ok := s.lookup(top.Name); ok && len(gift.Expressions) > 0 {
			sb.WriteString(fmt.Sprintf("For the %s gift, consider: %s.", top.Name, strings.ToLower(gift.Expressions[0])))
		}
	}

	return sb.String()
}

func (s *Synthesizer) lookup(name string) (Gift, bool) {
	for _, g := range s.framework.Gifts {
		if g.Name == name {
			return g, true
		}
	}
	return Gift{}, false
}

func tieTurn(turn int) int {
	if turn < 0 {
		return int(^uint(0) >> 1)
	}
	return turn
}
