// Package types provides type definitions for structured data used throughout the discovery engine.
//
//nolint:revive // types is a standard Go package name pattern
package types

import "time"

// Stage identifies one step in the fixed self-discovery sequence.
type Stage string

// The fixed stage sequence. Sessions only ever hold one of these values.
const (
	StageIntroduction    Stage = "introduction"
	StageSkills          Stage = "skills_assessment"
	StagePassions        Stage = "passion_exploration"
	StageValues          Stage = "values_clarification"
	StageSynthesis       Stage = "synthesis"
	StageRecommendations Stage = "recommendations"
	StageTerminal        Stage = "terminal"
)

// Status represents the lifecycle state of a session.
type Status string

// Session lifecycle states
const (
	StatusActive    Status = "active"
	StatusCompleted Status = "completed"
	StatusAbandoned Status = "abandoned"
)

// Theme is a short label extracted from an answer, with a confidence score in [0,1].
type Theme struct {
	Tag        string  `json:"tag"`
	Confidence float64 `json:"confidence"`
}

// Answer is one structured record derived from a single conversational turn.
// Answers are immutable once appended to a session.
type Answer struct {
	TurnIndex   int       `json:"turn_index"`
	Stage       Stage     `json:"stage"`
	QuestionRef string    `json:"question_ref"`
	RawText     string    `json:"raw_text"`
	Themes      []Theme   `json:"themes"`
	Timestamp   time.Time `json:"timestamp"`
}

// TopConfidence returns the highest theme confidence on the answer, 0 if no themes.
func (a Answer) TopConfidence() float64 {
	top := 0.0
	for _, th := range a.Themes {
		if th.Confidence > top {
			top = th.Confidence
		}
	}
	return top
}

// Session is the persisted state of one user's journey through the stages.
// Answers are append-only and ordered by turn index; ThemeWeights accumulates
// confidence-weighted theme occurrences across all answers.
type Session struct {
	ID            string             `json:"id"`
	CurrentStage  Stage              `json:"current_stage"`
	Status        Status             `json:"status"`
	Answers       []Answer           `json:"answers"`
	ThemeWeights  map[string]float64 `json:"theme_weights"`
	StageVisits   map[string]int     `json:"stage_visits,omitempty"`
	ClarifyCounts map[string]int     `json:"clarify_counts,omitempty"`
	Profile       *Profile           `json:"profile,omitempty"`
	Version       int64              `json:"version"`
	CreatedAt     time.Time          `json:"created_at"`
	UpdatedAt     time.Time          `json:"updated_at"`
}

// Closed reports whether the session can no longer accept turns.
func (s *Session) Closed() bool {
	return s.Status == StatusCompleted || s.Status == StatusAbandoned
}

// NextTurnIndex returns the turn index the next answer will receive.
func (s *Session) NextTurnIndex() int {
	return len(s.Answers)
}

// AnswersInStage counts answers recorded while the session was in the given stage.
func (s *Session) AnswersInStage(stage Stage) int {
	count := 0
	for _, a := range s.Answers {
		if a.Stage == stage {
			count++
		}
	}
	return count
}

// AppendAnswer records an answer and folds its themes into the accumulated weights.
func (s *Session) AppendAnswer(a Answer) {
	if s.ThemeWeights == nil {
		s.ThemeWeights = make(map[string]float64)
	}
	for _, th := range a.Themes {
		s.ThemeWeights[th.Tag] += th.Confidence
	}
	s.Answers = append(s.Answers, a)
}

// Clone returns a deep copy of the session. The engine mutates a clone during a
// turn so a failed turn leaves the caller's session untouched.
func (s *Session) Clone() *Session {
	out := *s
	out.Answers = make([]Answer, len(s.Answers))
	for i, a := range s.Answers {
		out.Answers[i] = a
		out.Answers[i].Themes = append([]Theme(nil), a.Themes...)
	}
	out.ThemeWeights = copyFloatMap(s.ThemeWeights)
	out.StageVisits = copyIntMap(s.StageVisits)
	out.ClarifyCounts = copyIntMap(s.ClarifyCounts)
	if s.Profile != nil {
		p := s.Profile.Clone()
		out.Profile = &p
	}
	return &out
}

func copyFloatMap(m map[string]float64) map[string]float64 {
	if m == nil {
		return nil
	}
	out := make(map[string]float64, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

func copyIntMap(m map[string]int) map[string]int {
	if m == nil {
		return nil
	}
	out := make(map[string]int, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}
