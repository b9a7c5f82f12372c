package dialogue

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/DataScienceDisciple/expert-agent-engine/engine/conversation"
)

func TestPromptBuilder_Build(t *testing.T) {
	b := NewPromptBuilder()
	messages := []conversation.Message{
		{Role: conversation.RoleSystem, Content: "seed context"},
		{Role: conversation.RoleUser, Content: "  What moves the tides?\r\nAnd why?  "},
		{Role: conversation.RoleAssistant, Content: "Gravity, mostly."},
	}

	out := b.Build(messages)
	require.Len(t, out, 3)
	assert.Equal(t, "system", out[0].Role)
	assert.Equal(t, "seed context", out[0].Content)
	assert.Equal(t, "user", out[1].Role)
	assert.Equal(t, "What moves the tides?\nAnd why?", out[1].Content)
	assert.Equal(t, "assistant", out[2].Role)
	assert.Equal(t, "Gravity, mostly.", out[2].Content)
}

func TestPromptBuilder_EmptyHistory(t *testing.T) {
	b := NewPromptBuilder()
	assert.Empty(t, b.Build(nil))
}
