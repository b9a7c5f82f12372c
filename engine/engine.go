// Package engine assembles one conversation run from configuration: the
// transcript, both agents, the dialogue loop, and the artifact writer. Each
// Engine drives exactly one run under its own run ID.
package engine

import (
	"context"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/DataScienceDisciple/expert-agent-engine/engine/config"
	"github.com/DataScienceDisciple/expert-agent-engine/engine/conversation"
	"github.com/DataScienceDisciple/expert-agent-engine/engine/dialogue"
	ports "github.com/DataScienceDisciple/expert-agent-engine/engine/dialogue/ports"
	"github.com/DataScienceDisciple/expert-agent-engine/engine/output"
)

// Result reports what a run produced. History is always populated, even when
// persistence failed; artifact paths are empty for artifacts not written.
type Result struct {
	RunID          string
	State          dialogue.State
	History        *conversation.History
	TranscriptPath string
	TakeawaysPath  string
	Metrics        map[string]dialogue.AgentSummary
}

// Engine owns the wired components of a single conversation run.
type Engine struct {
	runID      string
	runCtx     conversation.Context
	history    *conversation.History
	responder  *dialogue.Agent
	loop       *dialogue.Loop
	metrics    *dialogue.MetricsCollector
	sink       *output.Manager
	logger     zerolog.Logger
}

type options struct {
	provider ports.Provider
}

// Option adjusts engine construction.
type Option func(*options)

// WithProvider substitutes the inference provider instead of building one
// from the LLM config. Tests use it to drive the full engine against a stub.
func WithProvider(p ports.Provider) Option {
	return func(o *options) { o.provider = p }
}

// New wires an engine from validated configuration. Construction fails when
// the history seed cannot be read, no credential is available, a blocked
// pattern does not compile, or the output directory cannot be created.
func New(cfg *config.Config, logger zerolog.Logger, opts ...Option) (*Engine, error) {
	var o options
	for _, opt := range opts {
		opt(&o)
	}

	runID := uuid.New().String()
	logger = logger.With().Str("run_id", runID).Logger()

	history, err := conversation.New(cfg.Conversation.MaxTurns, cfg.Conversation.HistoryFile, logger)
	if err != nil {
		return nil, err
	}
	runCtx := conversation.Context{Goal: cfg.Conversation.Goal}

	factory := dialogue.NewFactory(cfg, logger)
	provider := o.provider
	if provider == nil {
		provider, err = factory.CreateProvider()
		if err != nil {
			return nil, err
		}
	}
	questioner, responder, err := factory.CreateAgentsWith(runCtx, provider)
	if err != nil {
		return nil, err
	}

	metrics := dialogue.NewMetricsCollector()
	loop := dialogue.NewLoop(questioner, responder, history, runCtx, factory.CreateTracer(), metrics, logger)

	var redactor *output.Redactor
	if cfg.Output.RedactSecrets {
		redactor, err = output.NewRedactor(cfg.Output.BlockedPatterns)
		if err != nil {
			return nil, err
		}
	}
	sink, err := output.NewManager(cfg.Output.Dir, redactor, logger)
	if err != nil {
		return nil, err
	}

	return &Engine{
		runID:     runID,
		runCtx:    runCtx,
		history:   history,
		responder: responder,
		loop:      loop,
		metrics:   metrics,
		sink:      sink,
		logger:    logger,
	}, nil
}

// RunID returns the identifier stamped on this run's log lines.
func (e *Engine) RunID() string { return e.runID }

// Run drives the dialogue to its terminal state and persists the artifacts.
// An aborted conversation is not an error: whatever history accumulated is
// still written, and the outcome is reported through Result.State. A failed
// artifact write is an error, but the Result alongside it still carries the
// history and any paths written before the failure.
func (e *Engine) Run(ctx context.Context) (*Result, error) {
	e.logger.Info().
		Str("goal", e.runCtx.Goal).
		Int("max_turns", e.history.MaxTurns()).
		Msg("starting conversation run")

	history, state := e.loop.Run(ctx)

	res := &Result{
		RunID:   e.runID,
		State:   state,
		History: history,
		Metrics: e.metrics.Summary(),
	}
	e.logMetrics(res.Metrics)

	filename := e.sink.GenerateFilename(output.Slug(e.runCtx.Goal))
	transcriptPath, err := e.sink.SaveTranscript(history, filename)
	if err != nil {
		return res, err
	}
	res.TranscriptPath = transcriptPath

	takeaways := e.sink.GenerateTakeaways(ctx, history, e.runCtx, e.responder)
	if output.IsErrorFlagged(takeaways) {
		e.logger.Error().Str("reason", takeaways).Msg("takeaways not saved")
		return res, nil
	}
	takeawaysPath, err := e.sink.SaveTakeaways(takeaways, filename)
	if err != nil {
		return res, err
	}
	res.TakeawaysPath = takeawaysPath

	e.logger.Info().
		Str("state", string(state)).
		Str("transcript", transcriptPath).
		Str("takeaways", takeawaysPath).
		Msg("conversation run complete")
	return res, nil
}

func (e *Engine) logMetrics(summary map[string]dialogue.AgentSummary) {
	for agent, s := range summary {
		e.logger.Info().
			Str("agent", agent).
			Int64("calls", s.Calls).
			Int64("errors", s.Errors).
			Int64("empty_replies", s.EmptyReplies).
			Dur("latency_p50", s.Latency.P50).
			Dur("latency_p95", s.Latency.P95).
			Float64("mean_reply_chars", s.MeanReplyChars).
			Msg("agent metrics")
	}
}
