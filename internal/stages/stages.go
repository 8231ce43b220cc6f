// Package stages defines the fixed self-discovery stage sequence as declarative
// configuration: per-stage exit conditions, successor lists, branch rules, and
// question banks. The default flow is embedded at compile time; callers can load
// an alternative flow without code changes.
package stages

import (
	_ "embed"
	"encoding/json"
	"fmt"

	"github.com/manwithoutsleep/basic-ai-chatbot/internal/types"
)

//go:embed flow.json
var defaultFlowJSON []byte

// BranchRule re-routes stage advancement when a theme signal is weak.
// It qualifies when the highest confidence among accumulated themes whose tag
// starts with ThemePrefix is below BelowConfidence, and the target stage has
// been entered fewer than MaxVisits times.
type BranchRule struct {
	ThemePrefix     string      `json:"theme_prefix"`
	BelowConfidence float64     `json:"below_confidence"`
	GoTo            types.Stage `json:"go_to"`
	MaxVisits       int         `json:"max_visits"`
}

// Spec declares one stage: when it may be exited and where it may go next.
type Spec struct {
	Name types.Stage `json:"name"`
	// Template is the prompt template key for this stage.
	Template string `json:"template"`
	// MinAnswers is the minimum number of answers recorded in this stage
	// before it may be exited.
	MinAnswers int `json:"min_answers"`
	// ConfidenceThreshold is the minimum top theme confidence an answer in
	// this stage must reach for the exit condition; 0 disables the check.
	ConfidenceThreshold float64 `json:"confidence_threshold"`
	// ClarifyCap bounds clarifying re-prompts for zero-theme answers before
	// the stage advances anyway with a low-confidence marker.
	ClarifyCap int `json:"clarify_cap"`
	// Successors lists allowed next stages in declaration order; ties among
	// qualifying candidates are broken by this order.
	Successors []types.Stage `json:"successors"`
	Branches   []BranchRule  `json:"branches,omitempty"`
	// Questions is the ordered canonical question bank for the stage.
	Questions []string `json:"questions,omitempty"`
}

// Terminal reports whether this stage ends the journey.
func (s *Spec) Terminal() bool {
	return len(s.Successors) == 0
}

// QuestionRef returns the identifier of the question at the given position,
// clamping past the end of the bank (repeat visits reuse the last question).
func (s *Spec) QuestionRef(index int) string {
	if len(s.Questions) == 0 {
		return string(s.Name)
	}
	if index >= len(s.Questions) {
		index = len(s.Questions) - 1
	}
	if index < 0 {
		index = 0
	}
	return fmt.Sprintf("%s.%d", s.Name, index)
}

// Question returns the canonical question text at the given position, with the
// same clamping as QuestionRef. Empty if the stage has no question bank.
func (s *Spec) Question(index int) string {
	if len(s.Questions) == 0 {
		return ""
	}
	if index >= len(s.Questions) {
		index = len(s.Questions) - 1
	}
	if index < 0 {
		index = 0
	}
	return s.Questions[index]
}

// Flow is the ordered, validated stage sequence.
type Flow struct {
	order []types.Stage
	specs map[types.Stage]*Spec
}

type flowDocument struct {
	Stages []*Spec `json:"stages"`
}

// Load parses and validates a flow document.
func Load(data []byte) (*Flow, error) {
	var doc flowDocument
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("failed to parse flow document: %w", err)
	}
	if len(doc.Stages) == 0 {
		return nil, fmt.Errorf("flow document declares no stages")
	}

	f := &Flow{specs: make(map[types.Stage]*Spec, len(doc.Stages))}
	for _, spec := range doc.Stages {
		if spec.Name == "" {
			return nil, fmt.Errorf("flow document contains a stage without a name")
		}
		if _, dup := f.specs[spec.Name]; dup {
			return nil, fmt.Errorf("stage %q declared twice", spec.Name)
		}
		f.order = append(f.order, spec.Name)
		f.specs[spec.Name] = spec
	}

	terminals := 0
	for _, spec := range doc.Stages {
		if spec.Terminal() {
			terminals++
			continue
		}
		for _, next := range spec.Successors {
			if _, ok := f.specs[next]; !ok {
				return nil, fmt.Errorf("stage %q declares unknown successor %q", spec.Name, next)
			}
		}
		for _, rule := range spec.Branches {
			if _, ok := f.specs[rule.GoTo]; !ok {
				return nil, fmt.Errorf("stage %q declares branch to unknown stage %q", spec.Name, rule.GoTo)
			}
		}
	}
	if terminals == 0 {
		return nil, fmt.Errorf("flow document has no terminal stage")
	}

	return f, nil
}

// Default returns the embedded flow. It panics only if the embedded document
// is malformed, which is a build defect.
func Default() *Flow {
	f, err := Load(defaultFlowJSON)
	if err != nil {
		panic(fmt.Sprintf("embedded flow.json is invalid: %v", err))
	}
	return f
}

// Spec returns the declaration for a stage.
func (f *Flow) Spec(stage types.Stage) (*Spec, bool) {
	spec, ok := f.specs[stage]
	return spec, ok
}

// First returns the entry stage of the flow.
func (f *Flow) First() types.Stage {
	return f.order[0]
}

// Ordered returns the stages in declaration order.
func (f *Flow) Ordered() []types.Stage {
	return append([]types.Stage(nil), f.order...)
}

// Contains reports whether the stage is part of the flow.
func (f *Flow) Contains(stage types.Stage) bool {
	_, ok := f.specs[stage]
	return ok
}

// ValidTransition reports whether to is a declared successor or branch target of from.
func (f *Flow) ValidTransition(from, to types.Stage) bool {
	spec, ok := f.specs[from]
	if !ok {
		return false
	}
	for _, next := range spec.Successors {
		if next == to {
			return true
		}
	}
	for _, rule := range spec.Branches {
		if rule.GoTo == to {
			return true
		}
	}
	return false
}

// Progress returns completion as a fraction in [0,1] based on the position of
// the session's current stage in the declared order.
func (f *Flow) Progress(stage types.Stage) float64 {
	if len(f.order) <= 1 {
		return 1
	}
	for i, name := range f.order {
		if name == stage {
			return float64(i) / float64(len(f.order)-1)
		}
	}
	return 0
}
