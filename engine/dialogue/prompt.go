package dialogue

import (
	"strings"

	"github.com/DataScienceDisciple/expert-agent-engine/engine/conversation"
	ports "github.com/DataScienceDisciple/expert-agent-engine/engine/dialogue/ports"
)

// PromptBuilder converts transcript messages into provider request messages.
type PromptBuilder struct{}

// NewPromptBuilder creates a new prompt builder.
func NewPromptBuilder() *PromptBuilder {
	return &PromptBuilder{}
}

// Build maps the transcript onto wire messages in order, normalizing
// whitespace so providers see deterministic input.
func (b *PromptBuilder) Build(history []conversation.Message) []ports.PromptMessage {
	out := make([]ports.PromptMessage, len(history))
	for i, msg := range history {
		out[i] = ports.PromptMessage{
			Role:    string(msg.Role),
			Content: norm(msg.Content),
		}
	}
	return out
}

// norm normalizes whitespace in strings.
func norm(s string) string {
	return strings.TrimSpace(strings.ReplaceAll(s, "\r\n", "\n"))
}
