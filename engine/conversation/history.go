// Package conversation holds the transcript model shared by the dialogue
// loop and the output layer: messages, roles, the turn counter, and
// optional seeding from a history file.
package conversation

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/rs/zerolog"
)

// History accumulates the messages of a single dialogue run and tracks how
// many question/answer turns have completed against the configured maximum.
// It is not safe for concurrent use; each run owns its own History.
type History struct {
	messages []Message
	turns    int
	maxTurns int
	logger   zerolog.Logger
}

// New creates a History bounded by maxTurns. When seedPath is non-empty the
// file's content is prepended as a single system message so both agents see
// it as shared prior context. A missing file is reported with an error that
// wraps fs.ErrNotExist; an empty file logs a warning and seeds nothing.
func New(maxTurns int, seedPath string, logger zerolog.Logger) (*History, error) {
	if maxTurns < 1 {
		return nil, fmt.Errorf("conversation: max turns must be at least 1, got %d", maxTurns)
	}
	h := &History{
		messages: make([]Message, 0, 2*maxTurns),
		maxTurns: maxTurns,
		logger:   logger,
	}
	if seedPath != "" {
		if err := h.seedFromFile(seedPath); err != nil {
			return nil, err
		}
	}
	return h, nil
}

func (h *History) seedFromFile(path string) error {
	raw, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("conversation: read history file: %w", err)
	}
	content := strings.TrimSpace(string(raw))
	if content == "" {
		h.logger.Warn().Str("path", path).Msg("history file was empty, nothing to seed")
		return nil
	}
	seed := fmt.Sprintf("Initial context from history file (%s):\n---\n%s\n---", filepath.Base(path), content)
	if err := h.Add(RoleSystem, seed); err != nil {
		return err
	}
	h.logger.Info().Str("path", path).Int("content_length", len(content)).Msg("seeded history from file")
	return nil
}

// Add validates and appends a message to the transcript.
func (h *History) Add(role Role, content string) error {
	msg := Message{Role: role, Content: content}
	if err := msg.Validate(); err != nil {
		return fmt.Errorf("%w (role %q)", err, role)
	}
	h.messages = append(h.messages, msg)
	h.logger.Debug().
		Str("role", string(role)).
		Int("content_length", len(content)).
		Msg("appended message to history")
	return nil
}

// Snapshot returns a copy of the transcript so callers cannot mutate the
// history out from under the loop.
func (h *History) Snapshot() []Message {
	out := make([]Message, len(h.messages))
	copy(out, h.messages)
	return out
}

// IncrementTurn advances the completed-turn counter by one.
func (h *History) IncrementTurn() {
	h.turns++
	h.logger.Info().Int("turn", h.turns).Int("max_turns", h.maxTurns).Msg("advanced conversation turn")
}

// Turns reports how many question/answer turns have completed.
func (h *History) Turns() int { return h.turns }

// MaxTurns reports the configured turn budget.
func (h *History) MaxTurns() int { return h.maxTurns }

// IsComplete reports whether the turn budget has been exhausted.
func (h *History) IsComplete() bool {
	return h.turns >= h.maxTurns
}

// Len reports the number of messages currently in the transcript.
func (h *History) Len() int { return len(h.messages) }
