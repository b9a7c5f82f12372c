package dialogue

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/DataScienceDisciple/expert-agent-engine/engine/conversation"
	ports "github.com/DataScienceDisciple/expert-agent-engine/engine/dialogue/ports"
)

// InstructionSource produces an agent's system prompt from the run context.
// Static personas ignore the context; the questioner derives its prompt from
// the conversation goal.
type InstructionSource func(conversation.Context) string

// StaticInstructions returns an InstructionSource that always yields text.
func StaticInstructions(text string) InstructionSource {
	return func(conversation.Context) string { return text }
}

// QuestionerInstructions returns the instruction source for the questioning
// agent: generate exactly one open-ended question toward the goal and output
// nothing else.
func QuestionerInstructions() InstructionSource {
	return func(cc conversation.Context) string {
		return fmt.Sprintf(
			"You are a User Agent simulating a human researcher. Your overall goal is: %q. "+
				"You are in a conversation with an expert. Your *only* task right now is to generate the single, specific, open-ended question you should ask the expert next to progress towards your goal, based on the conversation history provided so far. "+
				"Analyze the most recent turns of the conversation, especially the last response from the expert. "+
				"Formulate a concise follow-up question that probes deeper into relevant information, asks for clarification, or explores a new angle directly related to achieving your goal: %q. "+
				"IMPORTANT: Your output MUST be *only the question text itself*. Do not include any preamble, self-correction, explanation, or surrounding text like 'Here is my question:' or 'Okay, I will ask:'. Just output the question.",
			cc.Goal, cc.Goal)
	}
}

// Agent binds a name, model, and resolved instructions to a provider. Both
// dialogue roles are Agents; only their instructions differ.
type Agent struct {
	name         string
	model        string
	instructions string
	provider     ports.Provider
	limiter      ports.RateLimiter
}

// NewAgent creates an agent, resolving the instruction source against the
// run context once at construction.
func NewAgent(name, model string, source InstructionSource, cc conversation.Context, provider ports.Provider, limiter ports.RateLimiter) (*Agent, error) {
	if strings.TrimSpace(name) == "" {
		return nil, errors.New("dialogue: agent name must not be empty")
	}
	if source == nil {
		return nil, errors.New("dialogue: agent instruction source must not be nil")
	}
	if provider == nil {
		return nil, errors.New("dialogue: agent provider must not be nil")
	}
	if limiter == nil {
		return nil, errors.New("dialogue: agent rate limiter must not be nil")
	}
	return &Agent{
		name:         name,
		model:        model,
		instructions: source(cc),
		provider:     provider,
		limiter:      limiter,
	}, nil
}

// Name returns the agent's display name.
func (a *Agent) Name() string { return a.name }

// Instructions returns the resolved system prompt.
func (a *Agent) Instructions() string { return a.instructions }

// Reply asks the provider for the agent's next message given the transcript
// so far. The returned text is whitespace-trimmed; deciding whether an empty
// reply is fatal is the caller's job.
func (a *Agent) Reply(ctx context.Context, history []ports.PromptMessage) (string, error) {
	release, err := a.limiter.Acquire(ctx, a.name)
	if err != nil {
		return "", fmt.Errorf("rate limit exceeded: %w", err)
	}
	defer release()

	reply, err := a.provider.Complete(ctx, ports.ChatRequest{
		Model:        a.model,
		Instructions: a.instructions,
		Messages:     history,
		Meta:         map[string]string{"agent": a.name},
	})
	if err != nil {
		return "", fmt.Errorf("provider call failed: %w", err)
	}
	return strings.TrimSpace(reply), nil
}
