// Package engine drives a session through the fixed self-discovery stage
// sequence. Each turn builds a prompt, calls the model, interprets the reply
// into an answer, evaluates the stage exit condition, and persists the
// session. Nothing is persisted unless the whole turn succeeds, so a failed
// or cancelled turn can simply be retried.
package engine

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/manwithoutsleep/basic-ai-chatbot/internal/interpret"
	"github.com/manwithoutsleep/basic-ai-chatbot/internal/llm"
	"github.com/manwithoutsleep/basic-ai-chatbot/internal/prompting"
	"github.com/manwithoutsleep/basic-ai-chatbot/internal/stages"
	"github.com/manwithoutsleep/basic-ai-chatbot/internal/store"
	"github.com/manwithoutsleep/basic-ai-chatbot/internal/synthesis"
	"github.com/manwithoutsleep/basic-ai-chatbot/internal/types"
)

// malformedRetries is how many stricter re-prompts a single turn spends on a
// reply that fails both structured and heuristic parsing before accepting a
// zero-confidence answer.
const malformedRetries = 1

// weakAnswerSlack scales a stage's clarify cap into a hard limit on answers
// collected within the stage. Themed answers below the confidence threshold
// re-ask without spending the clarify budget, so this limit is what stops a
// persistently weak signal from re-asking forever.
const weakAnswerSlack = 2

// Engine is the stage controller.
type Engine struct {
	store       store.Store
	client      llm.Client
	builder     *prompting.Builder
	interpreter *interpret.Interpreter
	synthesizer *synthesis.Synthesizer
	flow        *stages.Flow
	genOpts     llm.GenerateOptions
	now         func() time.Time
	newID       func() string
}

// Option customizes an Engine.
type Option func(*Engine)

// WithFlow replaces the default stage flow.
func WithFlow(flow *stages.Flow) Option {
	return func(e *Engine) { e.flow = flow }
}

// WithBuilder replaces the default prompt builder.
func WithBuilder(builder *prompting.Builder) Option {
	return func(e *Engine) { e.builder = builder }
}

// WithInterpreter replaces the default response interpreter.
func WithInterpreter(interpreter *interpret.Interpreter) Option {
	return func(e *Engine) { e.interpreter = interpreter }
}

// WithSynthesizer replaces the default recommendation synthesizer.
func WithSynthesizer(synth *synthesis.Synthesizer) Option {
	return func(e *Engine) { e.synthesizer = synth }
}

// WithGenerateOptions replaces the model-call options used per turn.
func WithGenerateOptions(opts llm.GenerateOptions) Option {
	return func(e *Engine) { e.genOpts = opts }
}

// WithClock replaces the time source; tests use a fixed clock.
func WithClock(now func() time.Time) Option {
	return func(e *Engine) { e.now = now }
}

// WithIDGenerator replaces the session ID generator.
func WithIDGenerator(newID func() string) Option {
	return func(e *Engine) { e.newID = newID }
}

// New creates an Engine. The client should already carry whatever retry
// policy the caller wants; llm.WithRetries is the usual wrapper.
func New(st store.Store, client llm.Client, opts ...Option) *Engine {
	e := &Engine{
		store:       st,
		client:      client,
		builder:     prompting.NewBuilder(prompting.Options{}),
		interpreter: interpret.New(),
		synthesizer: synthesis.New(),
		flow:        stages.Default(),
		genOpts:     llm.DefaultGenerateOptions(),
		now:         time.Now,
		newID:       func() string { return uuid.NewString() },
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// NewSession creates and persists a session at the flow's entry stage.
func (e *Engine) NewSession(ctx context.Context) (*types.Session, error) {
	now := e.now()
	first := e.flow.First()
	session := &types.Session{
		ID:           e.newID(),
		CurrentStage: first,
		Status:       types.StatusActive,
		Answers:      []types.Answer{},
		ThemeWeights: map[string]float64{},
		StageVisits:  map[string]int{string(first): 1},
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := e.store.Save(ctx, session, 0); err != nil {
		return nil, err
	}
	return session, nil
}

// Session loads a session from the store.
func (e *Engine) Session(ctx context.Context, id string) (*types.Session, error) {
	return e.store.Load(ctx, id)
}

// Sessions lists all stored sessions.
func (e *Engine) Sessions(ctx context.Context) ([]*types.Session, error) {
	return e.store.List(ctx)
}

// Abandon marks a session abandoned and persists it.
func (e *Engine) Abandon(ctx context.Context, session *types.Session) (*types.Session, error) {
	if session.Closed() {
		return nil, &SessionClosedError{ID: session.ID, Status: session.Status}
	}
	work := session.Clone()
	work.Status = types.StatusAbandoned
	work.UpdatedAt = e.now()
	if err := e.store.Save(ctx, work, session.Version); err != nil {
		return nil, err
	}
	return work, nil
}

// Progress returns the session's completion fraction in [0,1].
func (e *Engine) Progress(session *types.Session) float64 {
	return e.flow.Progress(session.CurrentStage)
}

// Question returns the canonical question for the session's current stage,
// or empty once the session has reached the terminal stage.
func (e *Engine) Question(session *types.Session) string {
	spec, ok := e.flow.Spec(session.CurrentStage)
	if !ok || spec.Terminal() {
		return ""
	}
	return spec.Question(session.AnswersInStage(session.CurrentStage))
}

// TurnResult reports what one call to Advance did.
type TurnResult struct {
	// Session is the updated, persisted session. The session passed to
	// Advance is never mutated.
	Session *types.Session
	// Answer is the record appended this turn.
	Answer types.Answer
	// Reply is the model's conversational reply to show the user.
	Reply string
	// Advanced reports whether the stage changed this turn.
	Advanced  bool
	FromStage types.Stage
	ToStage   types.Stage
	// Clarify reports that the answer did not satisfy the stage's exit
	// condition and the next turn will re-ask the question.
	Clarify bool
	// Completed reports that the session reached the terminal stage and a
	// profile was synthesized.
	Completed bool
	// NextQuestion is the canonical question for the next turn; empty once
	// the session is complete.
	NextQuestion string
}

// Advance runs one conversational turn. On any failure the session is left
// unmodified, both in memory and in the store.
func (e *Engine) Advance(ctx context.Context, session *types.Session, userInput string) (*TurnResult, error) {
	if session.Closed() {
		return nil, &SessionClosedError{ID: session.ID, Status: session.Status}
	}
	spec, ok := e.flow.Spec(session.CurrentStage)
	if !ok || spec.Terminal() {
		return nil, &InvalidTransitionError{ID: session.ID, From: session.CurrentStage}
	}

	work := session.Clone()
	stage := work.CurrentStage
	questionIndex := work.AnswersInStage(stage)
	question := spec.Question(questionIndex)
	clarifying := work.ClarifyCounts[string(stage)] > 0

	result, reply, err := e.interpretTurn(ctx, work, spec, question, userInput, clarifying)
	if err != nil {
		return nil, err
	}

	answer := types.Answer{
		TurnIndex:   work.NextTurnIndex(),
		Stage:       stage,
		QuestionRef: spec.QuestionRef(questionIndex),
		RawText:     userInput,
		Themes:      result.Themes,
		Timestamp:   e.now(),
	}
	work.AppendAnswer(answer)

	satisfied := e.exitConditionMet(work, spec)
	forced := false
	if !satisfied {
		if len(answer.Themes) == 0 {
			if work.ClarifyCounts == nil {
				work.ClarifyCounts = map[string]int{}
			}
			work.ClarifyCounts[string(stage)]++
			if work.ClarifyCounts[string(stage)] > spec.ClarifyCap {
				// Retry cap exhausted; move on rather than loop forever.
				// The zero-confidence answer stays as the low-confidence marker.
				forced = true
			}
		} else if work.AnswersInStage(stage) >= spec.MinAnswers+weakAnswerSlack*spec.ClarifyCap {
			// Below-threshold themed answers re-ask for free, but not
			// unboundedly; past the hard limit the stage moves on with
			// whatever signal it collected.
			forced = true
		}
	}

	turn := &TurnResult{
		Answer:    answer,
		Reply:     reply,
		FromStage: stage,
		ToStage:   stage,
	}

	if satisfied || forced {
		next := e.selectNext(work, spec)
		if !e.flow.ValidTransition(stage, next) {
			return nil, &InvalidTransitionError{ID: session.ID, From: stage, To: next}
		}
		e.enterStage(work, next)
		turn.Advanced = true
		turn.ToStage = next

		if nextSpec, ok := e.flow.Spec(next); ok && nextSpec.Terminal() {
			profile := e.synthesizer.Synthesize(work, e.now())
			work.Profile = &profile
			work.Status = types.StatusCompleted
			turn.Completed = true
		}
	} else {
		turn.Clarify = true
	}

	work.UpdatedAt = e.now()
	if err := e.store.Save(ctx, work, session.Version); err != nil {
		return nil, err
	}

	turn.Session = work
	if !turn.Completed {
		if nextSpec, ok := e.flow.Spec(work.CurrentStage); ok {
			turn.NextQuestion = nextSpec.Question(work.AnswersInStage(work.CurrentStage))
		}
	}
	return turn, nil
}

// interpretTurn calls the model and interprets the reply, re-prompting with a
// stricter format instruction when the reply fails both parse paths.
func (e *Engine) interpretTurn(ctx context.Context, work *types.Session, spec *stages.Spec, question, userInput string, clarifying bool) (interpret.Result, string, error) {
	strict := false
	var result interpret.Result

	for attempt := 0; ; attempt++ {
		prompt, err := e.builder.Build(prompting.Request{
			Session:      work,
			Spec:         spec,
			Question:     question,
			UserInput:    userInput,
			Clarify:      clarifying,
			StrictFormat: strict,
		})
		if err != nil {
			return interpret.Result{}, "", err
		}

		reply, err := e.client.Generate(ctx, prompt, e.genOpts)
		if err != nil {
			return interpret.Result{}, "", err
		}

		result = e.interpreter.Interpret(reply)
		if !result.Malformed || attempt >= malformedRetries {
			return result, result.Reply, nil
		}
		strict = true
	}
}

// exitConditionMet checks the current stage's exit condition: enough answers
// recorded in the stage, and if a confidence threshold is configured, at
// least one answer in the stage reaching it.
func (e *Engine) exitConditionMet(work *types.Session, spec *stages.Spec) bool {
	if work.AnswersInStage(spec.Name) < spec.MinAnswers {
		return false
	}
	if spec.ConfidenceThreshold <= 0 {
		return true
	}
	best := 0.0
	for _, a := range work.Answers {
		if a.Stage != spec.Name {
			continue
		}
		if c := a.TopConfidence(); c > best {
			best = c
		}
	}
	return best >= spec.ConfidenceThreshold
}

// selectNext picks the next stage. Branch rules are evaluated in declaration
// order and win over the successor list; the first qualifying candidate is
// taken, so tie-breaking is deterministic.
func (e *Engine) selectNext(work *types.Session, spec *stages.Spec) types.Stage {
	for _, rule := range spec.Branches {
		if work.StageVisits[string(rule.GoTo)] >= rule.MaxVisits {
			continue
		}
		if maxThemeConfidence(work.Answers, rule.ThemePrefix) < rule.BelowConfidence {
			return rule.GoTo
		}
	}
	return spec.Successors[0]
}

func (e *Engine) enterStage(work *types.Session, next types.Stage) {
	work.CurrentStage = next
	if work.StageVisits == nil {
		work.StageVisits = map[string]int{}
	}
	work.StageVisits[string(next)]++
	if work.ClarifyCounts != nil {
		work.ClarifyCounts[string(next)] = 0
	}
}

// maxThemeConfidence returns the highest single-occurrence confidence among
// themes whose tag starts with prefix, across all answers.
func maxThemeConfidence(answers []types.Answer, prefix string) float64 {
	best := 0.0
	for _, a := range answers {
		for _, th := range a.Themes {
			if strings.HasPrefix(th.Tag, prefix) && th.Confidence > best {
				best = th.Confidence
			}
		}
	}
	return best
}
