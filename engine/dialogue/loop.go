// Package dialogue implements the two-agent conversation loop: a questioner
// and a responder alternating against a shared transcript until the turn
// budget runs out or the run aborts.
package dialogue

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/DataScienceDisciple/expert-agent-engine/engine/conversation"
	ports "github.com/DataScienceDisciple/expert-agent-engine/engine/dialogue/ports"
)

// State identifies where a dialogue run is in its lifecycle.
type State string

const (
	StateNotStarted       State = "not_started"
	StateAwaitingQuestion State = "awaiting_question"
	StateAwaitingAnswer   State = "awaiting_answer"
	StateCompleted        State = "completed"
	StateAborted          State = "aborted"
)

// Terminal reports whether the state is an end state.
func (s State) Terminal() bool {
	return s == StateCompleted || s == StateAborted
}

// Loop alternates the questioner and responder against a shared history.
// A Loop drives exactly one run; it is not reusable.
type Loop struct {
	questioner *Agent
	responder  *Agent
	history    *conversation.History
	runCtx     conversation.Context
	builder    *PromptBuilder
	tracer     ports.Tracer
	metrics    *MetricsCollector
	logger     zerolog.Logger
	state      State
}

// NewLoop wires a dialogue loop over the given agents and history.
func NewLoop(
	questioner *Agent,
	responder *Agent,
	history *conversation.History,
	runCtx conversation.Context,
	tracer ports.Tracer,
	metrics *MetricsCollector,
	logger zerolog.Logger,
) *Loop {
	return &Loop{
		questioner: questioner,
		responder:  responder,
		history:    history,
		runCtx:     runCtx,
		builder:    NewPromptBuilder(),
		tracer:     tracer,
		metrics:    metrics,
		logger:     logger,
		state:      StateNotStarted,
	}
}

// State returns the loop's current lifecycle state.
func (l *Loop) State() State { return l.state }

// Run drives the dialogue until the turn budget is exhausted or the run
// aborts. It always returns the history accumulated so far; an aborted run
// is reported through the returned state, not an error. Cancellation of ctx
// aborts between agent invocations and interrupts in-flight provider calls.
func (l *Loop) Run(ctx context.Context) (*conversation.History, State) {
	l.logger.Info().Int("max_turns", l.history.MaxTurns()).Msg("starting conversation run")

	for !l.history.IsComplete() {
		if err := ctx.Err(); err != nil {
			l.logger.Warn().Err(err).Msg("aborting conversation, context done")
			return l.abort()
		}

		turn := l.history.Turns() + 1 // 1-based for logging
		l.state = StateAwaitingQuestion
		l.logger.Info().Int("turn", turn).Int("max_turns", l.history.MaxTurns()).Msg("starting turn")

		question, err := l.ask(ctx, l.questioner, turn)
		if err != nil {
			l.logger.Error().Err(err).Int("turn", turn).Msg("aborting conversation due to questioner error")
			return l.abort()
		}
		if question == "" {
			// A wasted turn still counts against the budget so a
			// persistently silent questioner cannot loop forever.
			l.logger.Warn().Int("turn", turn).Str("agent", l.questioner.Name()).Msg("no usable question generated, skipping turn")
			l.tracer.Event(ctx, "turn_skipped", map[string]any{"turn": turn, "agent": l.questioner.Name()})
			l.metrics.RecordEmptyReply(l.questioner.Name())
			l.history.IncrementTurn()
			continue
		}
		if err := l.history.Add(conversation.RoleUser, question); err != nil {
			l.logger.Warn().Err(err).Int("turn", turn).Msg("question failed validation, skipping turn")
			l.metrics.RecordEmptyReply(l.questioner.Name())
			l.history.IncrementTurn()
			continue
		}
		l.metrics.RecordReply(l.questioner.Name(), len(question))

		l.state = StateAwaitingAnswer
		answer, err := l.ask(ctx, l.responder, turn)
		if err != nil {
			l.logger.Error().Err(err).Int("turn", turn).Msg("aborting conversation due to responder error")
			return l.abort()
		}
		if answer == "" {
			l.logger.Warn().Int("turn", turn).Str("agent", l.responder.Name()).Msg("no usable answer generated, ending conversation")
			l.metrics.RecordEmptyReply(l.responder.Name())
			return l.abort()
		}
		if err := l.history.Add(conversation.RoleAssistant, answer); err != nil {
			l.logger.Error().Err(err).Int("turn", turn).Msg("answer failed validation, ending conversation")
			return l.abort()
		}
		l.metrics.RecordReply(l.responder.Name(), len(answer))

		l.history.IncrementTurn()
		l.logger.Info().Int("turn", turn).Msg("completed turn")
	}

	l.state = StateCompleted
	l.logger.Info().Int("turns", l.history.Turns()).Int("messages", l.history.Len()).Msg("conversation run finished")
	return l.history, l.state
}

func (l *Loop) abort() (*conversation.History, State) {
	l.state = StateAborted
	return l.history, l.state
}

// ask invokes one agent with the transcript so far. The questioner's very
// first call on an empty transcript gets a synthetic system message carrying
// the goal; the message is provider input only and never enters the history.
func (l *Loop) ask(ctx context.Context, agent *Agent, turn int) (string, error) {
	messages := l.builder.Build(l.history.Snapshot())
	if len(messages) == 0 {
		messages = []ports.PromptMessage{{
			Role:    string(conversation.RoleSystem),
			Content: "The conversation goal is: " + l.runCtx.Goal,
		}}
	}

	ctx, finish := l.tracer.StartSpan(ctx, "provider_call", map[string]any{
		"turn":  turn,
		"agent": agent.Name(),
	})

	start := time.Now()
	reply, err := agent.Reply(ctx, messages)
	finish(err)
	l.metrics.RecordCall(agent.Name(), time.Since(start), err)

	if err != nil {
		return "", err
	}
	l.logger.Debug().Int("turn", turn).Str("agent", agent.Name()).Int("reply_length", len(reply)).Msg("agent replied")
	return reply, nil
}
