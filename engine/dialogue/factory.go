package dialogue

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/rs/zerolog"

	"github.com/DataScienceDisciple/expert-agent-engine/engine/config"
	"github.com/DataScienceDisciple/expert-agent-engine/engine/conversation"
	"github.com/DataScienceDisciple/expert-agent-engine/engine/dialogue/adapters"
	ports "github.com/DataScienceDisciple/expert-agent-engine/engine/dialogue/ports"
)

// Default agent names, used when the role config does not override them.
const (
	DefaultQuestionerName = "UserAgent"
	DefaultResponderName  = "ExpertAgent"
)

// ErrMissingCredential is returned when no API key was found in the config
// or the environment, making provider construction impossible.
var ErrMissingCredential = errors.New("dialogue: no API key in config or OPENAI_API_KEY environment variable")

// Factory creates and wires dialogue components from configuration.
type Factory struct {
	cfg    *config.Config
	logger zerolog.Logger
}

// NewFactory creates a new dialogue factory.
func NewFactory(cfg *config.Config, logger zerolog.Logger) *Factory {
	return &Factory{cfg: cfg, logger: logger}
}

// CreateProvider builds the OpenAI-compatible provider. The credential was
// resolved at config load; if it is still empty here there is no key
// anywhere and construction fails up front rather than on the first call.
func (f *Factory) CreateProvider() (ports.Provider, error) {
	if f.cfg.LLM.APIKey == "" {
		return nil, ErrMissingCredential
	}

	opts := []adapters.Option{
		adapters.WithHTTPClient(&http.Client{Timeout: f.cfg.LLM.Timeout}),
	}
	if f.cfg.LLM.BaseURL != "" {
		opts = append(opts, adapters.WithBaseURL(f.cfg.LLM.BaseURL))
	}
	return adapters.NewOpenAIProvider(f.cfg.LLM.APIKey, opts...)
}

// CreateRateLimiter creates a rate limiter adapter from config.
func (f *Factory) CreateRateLimiter() ports.RateLimiter {
	if !f.cfg.Dialogue.RateLimitEnabled {
		return &noOpRateLimiter{}
	}

	capacity := f.cfg.Dialogue.RateLimitCapacity
	if capacity < 1 {
		capacity = 1
		f.logger.Warn().Int("rate_limit_capacity", f.cfg.Dialogue.RateLimitCapacity).Msg("rate_limit_capacity clamped to minimum of 1")
	}
	refill := f.cfg.Dialogue.RateLimitRefill
	if refill <= 0 {
		refill = time.Second
		f.logger.Warn().Dur("rate_limit_refill", f.cfg.Dialogue.RateLimitRefill).Msg("rate_limit_refill clamped to minimum of 1s")
	}
	return adapters.NewTokenBucket(capacity, refill)
}

// CreateTracer creates a tracer adapter from config.
func (f *Factory) CreateTracer() ports.Tracer {
	if !f.cfg.Dialogue.EnableTracing {
		return &noOpTracer{}
	}
	return adapters.NewZerologTracer(f.logger)
}

// CreateAgents builds the questioner and responder sharing one provider and
// one rate limiter. Role configs override the default names; the
// questioner's instructions default to the goal-derived question prompt and
// the responder's to the configured persona.
func (f *Factory) CreateAgents(cc conversation.Context) (questioner, responder *Agent, err error) {
	provider, err := f.CreateProvider()
	if err != nil {
		return nil, nil, err
	}
	return f.CreateAgentsWith(cc, provider)
}

// CreateAgentsWith builds both agents over an already constructed provider.
func (f *Factory) CreateAgentsWith(cc conversation.Context, provider ports.Provider) (questioner, responder *Agent, err error) {
	limiter := f.CreateRateLimiter()

	qc := f.cfg.Conversation.Questioner
	qName := qc.Name
	if qName == "" {
		qName = DefaultQuestionerName
	}
	qSource := QuestionerInstructions()
	if qc.Instructions != "" {
		qSource = StaticInstructions(qc.Instructions)
		f.logger.Info().Str("agent", qName).Msg("using questioner instructions from config")
	}
	questioner, err = NewAgent(qName, f.cfg.LLM.Model, qSource, cc, provider, limiter)
	if err != nil {
		return nil, nil, err
	}

	rc := f.cfg.Conversation.Responder
	rName := rc.Name
	if rName == "" {
		rName = DefaultResponderName
	}
	rInstructions := f.cfg.Conversation.Persona
	if rc.Instructions != "" {
		rInstructions = rc.Instructions
		f.logger.Info().Str("agent", rName).Msg("using responder instructions from config")
	}
	responder, err = NewAgent(rName, f.cfg.LLM.Model, StaticInstructions(rInstructions), cc, provider, limiter)
	if err != nil {
		return nil, nil, err
	}

	f.logger.Info().
		Str("questioner", questioner.Name()).
		Str("responder", responder.Name()).
		Str("model", f.cfg.LLM.Model).
		Msg("agents created")
	return questioner, responder, nil
}

// noOpRateLimiter implements RateLimiter with no-op behavior for disabled
// rate limiting.
type noOpRateLimiter struct{}

func (r *noOpRateLimiter) Acquire(ctx context.Context, key string) (release func(), err error) {
	return func() {}, nil
}

// noOpTracer implements Tracer with no-op behavior.
type noOpTracer struct{}

func (t *noOpTracer) StartSpan(ctx context.Context, name string, attrs map[string]any) (context.Context, func(err error)) {
	return ctx, func(err error) {}
}

func (t *noOpTracer) Event(ctx context.Context, name string, attrs map[string]any) {}

// Ensure the no-op types implement their interfaces.
var (
	_ ports.RateLimiter = (*noOpRateLimiter)(nil)
	_ ports.Tracer      = (*noOpTracer)(nil)
)
