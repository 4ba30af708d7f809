package agent

import (
	"context"

	"go.uber.org/zap"

	"github.com/0xeb/lldb-copilot/internal/dispatch"
	cperrors "github.com/0xeb/lldb-copilot/internal/errors"
	"github.com/0xeb/lldb-copilot/internal/transcript"
	"github.com/0xeb/lldb-copilot/pkg/types"
)

// EventKind identifies a streamed loop event.
type EventKind string

const (
	// EventText carries model commentary as it arrives.
	EventText EventKind = "text"
	// EventToolCallStarted announces a tool call about to be dispatched.
	EventToolCallStarted EventKind = "tool_call_started"
	// EventToolCallFinished carries a tool call with its result attached.
	EventToolCallFinished EventKind = "tool_call_finished"
	// EventOutcome is the final event of every run.
	EventOutcome EventKind = "outcome"
)

// Event is one element of the stream produced by Run.
type Event struct {
	Kind     EventKind
	Text     string
	ToolCall *types.ToolCall
	Outcome  *Outcome
}

// Status classifies how a run ended.
type Status string

const (
	StatusAnswered    Status = "answered"
	StatusInterrupted Status = "interrupted"
	StatusToolLimit   Status = "tool_limit"
	StatusError       Status = "error"
)

// Outcome is the single structured result of a run. All error conditions
// are recovered into it; nothing escapes the loop as a fault.
type Outcome struct {
	Status Status

	// Answer is the agent's final text, set when Status is StatusAnswered.
	Answer string

	// ToolCallCount is how many tool calls were dispatched.
	ToolCallCount int

	// Session is the in-memory transcript at the end of the run,
	// including turns that were not persisted (interrupted runs keep
	// their transcript in memory only).
	Session *types.Session

	// Err carries the structured error for every non-answered status:
	// the failure for StatusError, the bounded-iteration error for
	// StatusToolLimit, and the cancellation for StatusInterrupted.
	Err error
}

// Loop drives one "ask the agent, let it use tools until it answers"
// cycle per Run call.
type Loop struct {
	engine       *dispatch.Engine
	provider     Provider
	store        *transcript.Store
	maxToolCalls int
	logger       *zap.Logger
}

// NewLoop assembles a session loop over the given capabilities.
func NewLoop(engine *dispatch.Engine, provider Provider, store *transcript.Store, maxToolCalls int, logger *zap.Logger) *Loop {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Loop{
		engine:       engine,
		provider:     provider,
		store:        store,
		maxToolCalls: maxToolCalls,
		logger:       logger,
	}
}

// Run executes one full question-to-answer cycle for the given target
// identity and streams events. The returned channel is closed after the
// outcome event; each call is a fresh, finite run.
//
// Persistence happens exactly once, at the end: a successful run and a
// tool-limit run persist the updated transcript; interrupted and failed
// runs leave the stored transcript untouched so a half-finished exchange
// never seeds the next question.
func (l *Loop) Run(ctx context.Context, userInput string, identity types.TargetIdentity) <-chan Event {
	events := make(chan Event, 8)
	go func() {
		defer close(events)
		l.run(ctx, userInput, identity, events)
	}()
	return events
}

func (l *Loop) run(ctx context.Context, userInput string, identity types.TargetIdentity, events chan<- Event) {
	// The interrupt latch is one-shot per run.
	l.engine.ResetInterrupt()

	stored, err := l.store.Load(identity)
	if err != nil {
		events <- outcomeEvent(&Outcome{Status: StatusError, Err: err})
		return
	}

	sess := stored.Clone()
	sess.Append(types.NewTurn(types.RoleUser, userInput))

	l.logger.Info("run started",
		zap.String("identity", string(identity)),
		zap.Int("priorTurns", stored.Len()))

	outcome := &Outcome{Session: sess}

	for {
		if l.engine.Interrupted() {
			outcome.Status = StatusInterrupted
			outcome.Err = cperrors.Interrupted()
			events <- outcomeEvent(outcome)
			return
		}

		reply, err := l.provider.Complete(ctx, sess.Turns)
		if err != nil {
			outcome.Status = StatusError
			outcome.Err = err
			events <- outcomeEvent(outcome)
			return
		}

		if reply.Text != "" {
			events <- Event{Kind: EventText, Text: reply.Text}
		}

		// No tool calls means a final answer.
		if len(reply.ToolCalls) == 0 {
			sess.Append(types.NewTurn(types.RoleAgent, reply.Text))
			outcome.Status = StatusAnswered
			outcome.Answer = reply.Text
			if err := l.store.Save(sess); err != nil {
				// The in-memory session stays in the outcome so the
				// exchange is not silently lost.
				outcome.Status = StatusError
				outcome.Err = err
			}
			events <- outcomeEvent(outcome)
			return
		}

		for i := range reply.ToolCalls {
			call := reply.ToolCalls[i]

			if l.engine.Interrupted() {
				outcome.Status = StatusInterrupted
				outcome.Err = cperrors.Interrupted()
				events <- outcomeEvent(outcome)
				return
			}

			events <- Event{Kind: EventToolCallStarted, ToolCall: &call}

			result, err := l.engine.Dispatch(ctx, &call)
			if err != nil {
				outcome.Status = StatusError
				outcome.Err = err
				events <- outcomeEvent(outcome)
				return
			}

			call.Result = result
			outcome.ToolCallCount++
			sess.Append(types.NewToolTurn(call))
			events <- Event{Kind: EventToolCallFinished, ToolCall: &call}

			if result.Interrupted {
				outcome.Status = StatusInterrupted
				outcome.Err = cperrors.Interrupted()
				events <- outcomeEvent(outcome)
				return
			}

			if outcome.ToolCallCount >= l.maxToolCalls {
				// A recognized limit, not a crash: the partial
				// transcript is worth keeping.
				outcome.Status = StatusToolLimit
				outcome.Err = cperrors.ToolLimitExceeded(l.maxToolCalls)
				if saveErr := l.store.Save(sess); saveErr != nil {
					outcome.Status = StatusError
					outcome.Err = saveErr
				}
				events <- outcomeEvent(outcome)
				return
			}
		}
	}
}

func outcomeEvent(o *Outcome) Event {
	return Event{Kind: EventOutcome, Outcome: o}
}
