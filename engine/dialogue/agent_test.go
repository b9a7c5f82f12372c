package dialogue

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/DataScienceDisciple/expert-agent-engine/engine/conversation"
	ports "github.com/DataScienceDisciple/expert-agent-engine/engine/dialogue/ports"
)

// stubLimiter implements RateLimiter for testing, failing when err is set.
type stubLimiter struct {
	err  error
	keys []string
}

func (l *stubLimiter) Acquire(_ context.Context, key string) (func(), error) {
	if l.err != nil {
		return nil, l.err
	}
	l.keys = append(l.keys, key)
	return func() {}, nil
}

var _ ports.RateLimiter = (*stubLimiter)(nil)

func TestNewAgent_Validation(t *testing.T) {
	cc := conversation.Context{Goal: "goal"}
	provider := &stubProvider{}
	limiter := &noOpRateLimiter{}
	source := StaticInstructions("persona")

	_, err := NewAgent("", "gpt-mock", source, cc, provider, limiter)
	assert.Error(t, err)

	_, err = NewAgent("Agent", "gpt-mock", nil, cc, provider, limiter)
	assert.Error(t, err)

	_, err = NewAgent("Agent", "gpt-mock", source, cc, nil, limiter)
	assert.Error(t, err)

	_, err = NewAgent("Agent", "gpt-mock", source, cc, provider, nil)
	assert.Error(t, err)

	agent, err := NewAgent("Agent", "gpt-mock", source, cc, provider, limiter)
	require.NoError(t, err)
	assert.Equal(t, "Agent", agent.Name())
	assert.Equal(t, "persona", agent.Instructions())
}

func TestAgent_ReplyTrimsWhitespace(t *testing.T) {
	provider := &stubProvider{
		completionFunc: func(context.Context, ports.ChatRequest) (string, error) {
			return "  the reply \n", nil
		},
	}
	agent, err := NewAgent("Agent", "gpt-mock", StaticInstructions("persona"), conversation.Context{}, provider, &noOpRateLimiter{})
	require.NoError(t, err)

	reply, err := agent.Reply(context.Background(), nil)
	require.NoError(t, err)
	assert.Equal(t, "the reply", reply)
}

func TestAgent_ReplyCarriesRequestShape(t *testing.T) {
	provider := &stubProvider{}
	agent, err := NewAgent("ExpertAgent", "gpt-mock", StaticInstructions("You are an expert."), conversation.Context{}, provider, &stubLimiter{})
	require.NoError(t, err)

	history := []ports.PromptMessage{{Role: "user", Content: "hi"}}
	_, err = agent.Reply(context.Background(), history)
	require.NoError(t, err)

	require.Len(t, provider.requests(), 1)
	req := provider.requests()[0]
	assert.Equal(t, "gpt-mock", req.Model)
	assert.Equal(t, "You are an expert.", req.Instructions)
	assert.Equal(t, history, req.Messages)
	assert.Equal(t, "ExpertAgent", req.Meta["agent"])
}

func TestAgent_ReplyRateLimited(t *testing.T) {
	provider := &stubProvider{}
	limiter := &stubLimiter{err: errors.New("bucket empty")}
	agent, err := NewAgent("Agent", "gpt-mock", StaticInstructions("persona"), conversation.Context{}, provider, limiter)
	require.NoError(t, err)

	_, err = agent.Reply(context.Background(), nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "rate limit")
	assert.Empty(t, provider.requests(), "provider must not be called when the limiter rejects")
}

func TestAgent_LimiterKeyedByName(t *testing.T) {
	limiter := &stubLimiter{}
	agent, err := NewAgent("UserAgent", "gpt-mock", StaticInstructions("persona"), conversation.Context{}, &stubProvider{}, limiter)
	require.NoError(t, err)

	_, err = agent.Reply(context.Background(), nil)
	require.NoError(t, err)
	require.Equal(t, []string{"UserAgent"}, limiter.keys)
}

func TestQuestionerInstructions(t *testing.T) {
	source := QuestionerInstructions()
	text := source(conversation.Context{Goal: "learn about tardigrades"})

	assert.Contains(t, text, `"learn about tardigrades"`)
	assert.Equal(t, 2, strings.Count(text, "learn about tardigrades"))
	assert.True(t, strings.HasPrefix(text, "You are a User Agent simulating a human researcher."))
	assert.True(t, strings.HasSuffix(text, "Just output the question."))
}

func TestStaticInstructions(t *testing.T) {
	source := StaticInstructions("fixed persona")
	assert.Equal(t, "fixed persona", source(conversation.Context{Goal: "ignored"}))
}
