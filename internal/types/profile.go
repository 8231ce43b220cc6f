package types

import "time"

// Profile is the synthesized recommendation output for a completed session.
// It is created once at session completion and never mutated afterward.
type Profile struct {
	// Scores maps each spiritual-gift category to a normalized score in [0,1].
	Scores map[string]float64 `json:"scores"`
	// TopGifts lists categories in rank order with their strength band.
	TopGifts []GiftRanking `json:"top_gifts"`
	// SkillPassionBalance is in [-1,1]; negative skews passion-heavy, positive skill-heavy.
	SkillPassionBalance float64 `json:"skill_passion_balance"`
	Rationale           string  `json:"rationale"`
	// Confidence is the overall confidence of the assessment in [0,1].
	Confidence  float64   `json:"confidence"`
	GeneratedAt time.Time `json:"generated_at"`
}

// GiftRanking is one ranked gift category in a profile.
type GiftRanking struct {
	Name  string  `json:"name"`
	Score float64 `json:"score"`
	// Strength is the banded label for the score (dominant, strong, moderate, emerging, low).
	Strength string `json:"strength"`
	// FirstSeenTurn is the turn index where an indicator theme for this gift first
	// appeared, used to break score ties. -1 if no indicator theme ever appeared.
	FirstSeenTurn int `json:"first_seen_turn"`
}

// Clone returns a deep copy of the profile.
func (p Profile) Clone() Profile {
	out := p
	out.Scores = copyFloatMap(p.Scores)
	out.TopGifts = append([]GiftRanking(nil), p.TopGifts...)
	return out
}
