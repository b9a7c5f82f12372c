package dialogue

import (
	"context"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/DataScienceDisciple/expert-agent-engine/engine/config"
	"github.com/DataScienceDisciple/expert-agent-engine/engine/conversation"
	"github.com/DataScienceDisciple/expert-agent-engine/engine/dialogue/adapters"
)

func testConfig() *config.Config {
	return &config.Config{
		Conversation: config.ConversationConfig{
			Goal:     "Chart the tides",
			Persona:  "You are an oceanographer.",
			MaxTurns: 2,
		},
		LLM: config.LLMConfig{
			Model:   "gpt-mock",
			APIKey:  "sk-test",
			Timeout: time.Second,
		},
		Dialogue: config.DialogueConfig{
			RateLimitEnabled:  true,
			RateLimitCapacity: 5,
			RateLimitRefill:   time.Second,
		},
	}
}

func TestFactory_CreateProviderMissingCredential(t *testing.T) {
	cfg := testConfig()
	cfg.LLM.APIKey = ""
	factory := NewFactory(cfg, zerolog.Nop())

	_, err := factory.CreateProvider()
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrMissingCredential)
}

func TestFactory_CreateProvider(t *testing.T) {
	factory := NewFactory(testConfig(), zerolog.Nop())

	provider, err := factory.CreateProvider()
	require.NoError(t, err)
	assert.IsType(t, &adapters.OpenAIProvider{}, provider)
}

func TestFactory_CreateRateLimiter(t *testing.T) {
	cfg := testConfig()
	factory := NewFactory(cfg, zerolog.Nop())
	assert.IsType(t, &adapters.TokenBucket{}, factory.CreateRateLimiter())

	cfg.Dialogue.RateLimitEnabled = false
	assert.IsType(t, &noOpRateLimiter{}, factory.CreateRateLimiter())
}

func TestFactory_CreateRateLimiterClampsCapacity(t *testing.T) {
	cfg := testConfig()
	cfg.Dialogue.RateLimitCapacity = 0
	factory := NewFactory(cfg, zerolog.Nop())

	limiter := factory.CreateRateLimiter()
	require.IsType(t, &adapters.TokenBucket{}, limiter)

	// Clamped to capacity 1, the bucket still grants one token.
	release, err := limiter.Acquire(context.Background(), "agent")
	require.NoError(t, err)
	release()
}

func TestFactory_CreateTracer(t *testing.T) {
	cfg := testConfig()
	factory := NewFactory(cfg, zerolog.Nop())
	assert.IsType(t, &noOpTracer{}, factory.CreateTracer())

	cfg.Dialogue.EnableTracing = true
	assert.IsType(t, &adapters.ZerologTracer{}, factory.CreateTracer())
}

func TestFactory_CreateAgentsDefaults(t *testing.T) {
	factory := NewFactory(testConfig(), zerolog.Nop())
	cc := conversation.Context{Goal: "Chart the tides"}

	questioner, responder, err := factory.CreateAgents(cc)
	require.NoError(t, err)

	assert.Equal(t, DefaultQuestionerName, questioner.Name())
	assert.Equal(t, DefaultResponderName, responder.Name())
	assert.Contains(t, questioner.Instructions(), `"Chart the tides"`)
	assert.Equal(t, "You are an oceanographer.", responder.Instructions())
}

func TestFactory_CreateAgentsOverrides(t *testing.T) {
	cfg := testConfig()
	cfg.Conversation.Questioner = config.AgentConfig{Name: "Researcher", Instructions: "Ask short questions."}
	cfg.Conversation.Responder = config.AgentConfig{Name: "Oracle", Instructions: "Answer in haiku."}
	factory := NewFactory(cfg, zerolog.Nop())

	questioner, responder, err := factory.CreateAgents(conversation.Context{Goal: "g"})
	require.NoError(t, err)

	assert.Equal(t, "Researcher", questioner.Name())
	assert.Equal(t, "Ask short questions.", questioner.Instructions())
	assert.Equal(t, "Oracle", responder.Name())
	assert.Equal(t, "Answer in haiku.", responder.Instructions())
}

func TestFactory_CreateAgentsMissingCredential(t *testing.T) {
	cfg := testConfig()
	cfg.LLM.APIKey = ""
	factory := NewFactory(cfg, zerolog.Nop())

	_, _, err := factory.CreateAgents(conversation.Context{Goal: "g"})
	assert.ErrorIs(t, err, ErrMissingCredential)
}
