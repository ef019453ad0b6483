// Package agent runs one conversational turn of the travel assistant.
//
// A turn loads the conversation's [trip.State], asks the language model to
// merge the user's message into it, plans the next move, optionally attaches
// affiliate offers, asks the model for a reply and saves the new state. When
// any step before the save fails, the turn is answered by the rule-based
// [fallback.Agent] instead and persisted state is left untouched.
//
// The agent performs no per-conversation locking. Concurrent turns for the
// same conversation are last-write-wins.
package agent

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/MrWong99/tripmate/internal/fallback"
	"github.com/MrWong99/tripmate/internal/knowledge"
	"github.com/MrWong99/tripmate/internal/observe"
	"github.com/MrWong99/tripmate/internal/offers"
	"github.com/MrWong99/tripmate/internal/planner"
	"github.com/MrWong99/tripmate/internal/statestore"
	"github.com/MrWong99/tripmate/internal/trip"
	"github.com/MrWong99/tripmate/pkg/provider/llm"
)

// Mode reports which path produced a [Result].
type Mode string

const (
	ModePrimary  Mode = "primary"
	ModeFallback Mode = "fallback"
)

// Stage names the primary-path step that failed. It doubles as the
// fallback reason reported in [Result.FallbackReason].
type Stage string

const (
	StageLoad  Stage = "load_state"
	StageMerge Stage = "merge_state"
	StageReply Stage = "generate_reply"
	StagePanic Stage = "panic"
)

// DefaultRequestTimeout bounds each language-model call.
const DefaultRequestTimeout = 30 * time.Second

// ErrEmptyReply is returned by the primary path when the model answered with
// blank text.
var ErrEmptyReply = errors.New("agent: empty reply")

// Result is the outcome of one turn.
type Result struct {
	Reply string        `json:"reply"`
	Cards []offers.Card `json:"cards"`

	// State is the updated trip state in primary mode and the zero state in
	// fallback mode.
	State trip.State `json:"state"`

	Mode Mode `json:"mode"`

	// FallbackReason is the failed [Stage]; empty in primary mode.
	FallbackReason Stage `json:"fallbackReason,omitempty"`

	// Plan is the planner decision. Nil in fallback mode.
	Plan *planner.Plan `json:"plan,omitempty"`
}

// StageError records which step of the primary path failed.
type StageError struct {
	Stage Stage
	Err   error
}

func (e *StageError) Error() string { return fmt.Sprintf("agent: %s: %v", e.Stage, e.Err) }

func (e *StageError) Unwrap() error { return e.Err }

// Config holds the collaborators and tuning of an [Agent].
type Config struct {
	// LLM serves both the merge and the reply call. Required.
	LLM llm.Provider

	// Store persists trip state. Required.
	Store statestore.Store

	// Selector builds offer batches. Required.
	Selector *offers.Selector

	// Fallback answers turns whose primary path failed. Required.
	Fallback *fallback.Agent

	// Knowledge supplies destination facts. Optional.
	Knowledge *knowledge.Base

	// Persona is the style instruction of the reply call. Default: [DefaultPersona].
	Persona string

	// RequestTimeout bounds each model call. Default: [DefaultRequestTimeout].
	RequestTimeout time.Duration

	// MergeTemperature and ReplyTemperature are passed through to the model.
	// Zero requests the provider default.
	MergeTemperature float64
	ReplyTemperature float64

	// MaxReplyTokens caps the reply length. Zero means provider default.
	MaxReplyTokens int

	// Metrics receives turn metrics. Default: [observe.DefaultMetrics].
	Metrics *observe.Metrics
}

// Agent orchestrates turns. It is safe for concurrent use.
type Agent struct {
	llm       llm.Provider
	store     statestore.Store
	selector  *offers.Selector
	fallback  *fallback.Agent
	knowledge *knowledge.Base
	metrics   *observe.Metrics

	persona          string
	timeout          time.Duration
	mergeTemperature float64
	replyTemperature float64
	maxReplyTokens   int
}

// New validates cfg and returns an [Agent].
func New(cfg Config) (*Agent, error) {
	if cfg.LLM == nil {
		return nil, errors.New("agent: LLM must not be nil")
	}
	if cfg.Store == nil {
		return nil, errors.New("agent: Store must not be nil")
	}
	if cfg.Selector == nil {
		return nil, errors.New("agent: Selector must not be nil")
	}
	if cfg.Fallback == nil {
		return nil, errors.New("agent: Fallback must not be nil")
	}
	if strings.TrimSpace(cfg.Persona) == "" {
		cfg.Persona = DefaultPersona
	}
	if cfg.RequestTimeout <= 0 {
		cfg.RequestTimeout = DefaultRequestTimeout
	}
	if cfg.Metrics == nil {
		cfg.Metrics = observe.DefaultMetrics()
	}
	return &Agent{
		llm:              cfg.LLM,
		store:            cfg.Store,
		selector:         cfg.Selector,
		fallback:         cfg.Fallback,
		knowledge:        cfg.Knowledge,
		metrics:          cfg.Metrics,
		persona:          cfg.Persona,
		timeout:          cfg.RequestTimeout,
		mergeTemperature: cfg.MergeTemperature,
		replyTemperature: cfg.ReplyTemperature,
		maxReplyTokens:   cfg.MaxReplyTokens,
	}, nil
}

// HandleTurn processes one user message for conversationID. It never fails:
// when the primary path errors the returned Result comes from the fallback
// agent and has Mode [ModeFallback].
func (a *Agent) HandleTurn(ctx context.Context, conversationID, message string) Result {
	start := time.Now()
	ctx, span := observe.StartSpan(ctx, "agent.turn",
		trace.WithAttributes(attribute.String("conversation.id", conversationID)))

	res, err := a.safePrimary(ctx, conversationID, message)
	if err != nil {
		res = a.fallBack(ctx, conversationID, message, err)
	}

	span.SetAttributes(attribute.String("turn.mode", string(res.Mode)))
	observe.EndSpan(span, err)
	a.metrics.RecordTurn(ctx, string(res.Mode), time.Since(start).Seconds())
	return res
}

// Primary runs the primary path only and reports its error instead of
// falling back.
func (a *Agent) Primary(ctx context.Context, conversationID, message string) (Result, error) {
	return a.safePrimary(ctx, conversationID, message)
}

// safePrimary converts a panic in the primary path into a [StageError].
func (a *Agent) safePrimary(ctx context.Context, conversationID, message string) (res Result, err error) {
	defer func() {
		if r := recover(); r != nil {
			res = Result{}
			err = &StageError{Stage: StagePanic, Err: fmt.Errorf("%v", r)}
		}
	}()
	return a.primary(ctx, conversationID, message)
}

func (a *Agent) primary(ctx context.Context, conversationID, message string) (Result, error) {
	log := observe.Logger(ctx).With("conversation_id", conversationID)

	// 1. Load.
	st, err := a.store.Load(ctx, conversationID)
	if err != nil {
		a.metrics.RecordStoreError(ctx, "load")
		return Result{}, &StageError{Stage: StageLoad, Err: err}
	}
	st = st.Normalize()

	// 2. Merge.
	st, err = a.merge(ctx, st, message)
	if err != nil {
		return Result{}, &StageError{Stage: StageMerge, Err: err}
	}

	// 3. Plan.
	plan := planner.Decide(st)
	log.Debug("planned turn", "action", plan.NextAction, "focus", plan.FocusField, "offer", plan.Offer)

	// 4. Knowledge.
	var toolContext []string
	if fact, ok := a.knowledge.Lookup(st.Destination); ok {
		toolContext = append(toolContext, knowledgeNote(st.Destination, fact))
	}

	// 5. Offers. The state records the batch before the reply is generated
	// so that the saved state and the reply agree.
	cards := []offers.Card{}
	if plan.NextAction == planner.ActionSuggestOffer {
		if batch := a.selector.Select(st); !batch.Empty() {
			cards = batch.Cards
			st = st.RecordOffer(batch.Category)
			toolContext = append(toolContext, offerNote(batch))
			a.metrics.RecordOffer(ctx, string(batch.Category))
		}
	}

	// 6. Reply.
	reply, err := a.reply(ctx, st, plan, toolContext, message)
	if err != nil {
		return Result{}, &StageError{Stage: StageReply, Err: err}
	}

	// 7. Save. A failed save still returns the reply.
	if err := a.store.Save(ctx, conversationID, st); err != nil {
		a.metrics.RecordStoreError(ctx, "save")
		log.Error("failed to save trip state", "err", err)
	}

	return Result{
		Reply: reply,
		Cards: cards,
		State: st,
		Mode:  ModePrimary,
		Plan:  &plan,
	}, nil
}

// merge asks the model to fold message into st and applies the validated
// patch. Output that is not a JSON object counts as nothing learned.
func (a *Agent) merge(ctx context.Context, st trip.State, message string) (trip.State, error) {
	callCtx, cancel := context.WithTimeout(ctx, a.timeout)
	defer cancel()

	start := time.Now()
	obj, err := llm.CompleteJSON(callCtx, a.llm, llm.CompletionRequest{
		SystemPrompt: buildMergePrompt(st),
		Messages:     []llm.Message{llm.UserMessage(message)},
		Temperature:  a.mergeTemperature,
	})
	a.metrics.RecordLLMCall(ctx, "merge", callStatus(err), time.Since(start).Seconds())
	if err != nil {
		return trip.State{}, err
	}

	patch := trip.PatchFromJSON(obj)
	if !patch.Empty() {
		observe.Logger(ctx).Debug("merged trip facts", "fields", patch.Fields())
	}
	return st.Apply(patch), nil
}

// reply asks the model for the user-facing answer.
func (a *Agent) reply(ctx context.Context, st trip.State, plan planner.Plan, toolContext []string, message string) (string, error) {
	callCtx, cancel := context.WithTimeout(ctx, a.timeout)
	defer cancel()

	start := time.Now()
	resp, err := a.llm.Complete(callCtx, llm.CompletionRequest{
		SystemPrompt: buildReplyPrompt(a.persona, st, plan, toolContext),
		Messages:     []llm.Message{llm.UserMessage(message)},
		Temperature:  a.replyTemperature,
		MaxTokens:    a.maxReplyTokens,
	})
	if err == nil && resp == nil {
		err = llm.ErrEmptyResponse
	}
	a.metrics.RecordLLMCall(ctx, "reply", callStatus(err), time.Since(start).Seconds())
	if err != nil {
		return "", err
	}

	text := strings.TrimSpace(resp.Content)
	if text == "" {
		return "", ErrEmptyReply
	}
	return text, nil
}

// fallBack answers the turn with the rule-based agent.
func (a *Agent) fallBack(ctx context.Context, conversationID, message string, cause error) Result {
	reason := StagePanic
	var se *StageError
	if errors.As(cause, &se) {
		reason = se.Stage
	}

	fb := a.fallback.Respond(message)
	observe.Logger(ctx).Warn("turn answered in fallback mode",
		"conversation_id", conversationID,
		"reason", reason,
		"rule", fb.Rule,
		"err", cause)
	a.metrics.RecordFallback(ctx, string(reason), string(fb.Rule))

	cards := fb.Cards
	if cards == nil {
		cards = []offers.Card{}
	}
	return Result{
		Reply:          fb.Reply,
		Cards:          cards,
		State:          fb.State,
		Mode:           ModeFallback,
		FallbackReason: reason,
	}
}

func callStatus(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, context.DeadlineExceeded):
		return "timeout"
	default:
		return "error"
	}
}
