// Package dialogueports defines the interfaces the dialogue engine depends
// on. Adapters live in the sibling adapters package; the engine only sees
// these contracts.
package dialogueports

import "context"

// PromptMessage represents a message in a provider request.
type PromptMessage struct {
	Role    string `json:"role"` // "system", "user", "assistant"
	Content string `json:"content"`
}

// ChatRequest is a single completion request to an LLM provider.
type ChatRequest struct {
	// Model names the provider-side model to invoke.
	Model string
	// Instructions is the agent's system prompt. Adapters prepend it to
	// Messages in whatever shape their wire format expects.
	Instructions string
	// Messages is the conversation so far, oldest first.
	Messages []PromptMessage
	// Meta carries adapter-agnostic metadata (agent name, run ID) for
	// tracing and logging.
	Meta map[string]string
}

// Provider is the interface for LLM providers.
type Provider interface {
	// Complete returns the provider's reply text for the request.
	Complete(ctx context.Context, req ChatRequest) (string, error)
}
