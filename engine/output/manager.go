// Package output persists run artifacts: a plain-text transcript of the
// conversation and a goal-focused takeaways summary paired to it by filename.
package output

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/rs/zerolog"

	"github.com/DataScienceDisciple/expert-agent-engine/engine/conversation"
	ports "github.com/DataScienceDisciple/expert-agent-engine/engine/dialogue/ports"
)

const (
	// defaultSlug names artifacts when the goal text is too short to make a
	// useful filename prefix.
	defaultSlug = "conversation"

	// errorFlagPrefix marks a generated summary as an error message rather
	// than usable text. Flagged summaries are never written to disk.
	errorFlagPrefix = "Error:"

	filenameStamp   = "20060102_150405"
	transcriptStamp = "2006-01-02 15:04:05"
)

// Summarizer produces a single reply from an ordered prompt. *dialogue.Agent
// satisfies it; takeaways generation reuses the responder agent rather than
// a dedicated summarization role.
type Summarizer interface {
	Reply(ctx context.Context, prompt []ports.PromptMessage) (string, error)
}

// PersistError reports a failed artifact write. The conversation itself may
// have succeeded; losing the artifact is still a run failure.
type PersistError struct {
	Artifact string // "transcript" or "takeaways"
	Path     string
	Err      error
}

func (e *PersistError) Error() string {
	return fmt.Sprintf("output: failed to save %s to %s: %v", e.Artifact, e.Path, e.Err)
}

func (e *PersistError) Unwrap() error { return e.Err }

// Manager writes run artifacts beneath a single output directory.
type Manager struct {
	dir      string
	redactor *Redactor
	logger   zerolog.Logger
}

// NewManager ensures the output directory exists and returns a manager
// rooted there. A nil redactor disables masking.
func NewManager(dir string, redactor *Redactor, logger zerolog.Logger) (*Manager, error) {
	if strings.TrimSpace(dir) == "" {
		return nil, errors.New("output: directory must not be empty")
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("output: create directory %s: %w", dir, err)
	}
	logger.Info().Str("dir", dir).Msg("output directory ready")
	return &Manager{dir: dir, redactor: redactor, logger: logger}, nil
}

// Dir returns the directory artifacts are written into.
func (m *Manager) Dir() string { return m.dir }

// Slug derives a filename prefix from the goal text: the first 30 runes,
// lowercased, with spaces and path separators replaced by underscores. Goals
// too short to make a recognizable prefix fall back to a generic one.
func Slug(goal string) string {
	runes := []rune(goal)
	if len(runes) > 30 {
		runes = runes[:30]
	}
	s := strings.Map(func(r rune) rune {
		switch r {
		case ' ', '/', '\\':
			return '_'
		}
		return r
	}, strings.ToLower(string(runes)))
	if utf8.RuneCountInString(s) < 5 {
		return defaultSlug
	}
	return s
}

// GenerateFilename returns a timestamped transcript filename such as
// "tides_and_currents_20240131_142005.txt".
func (m *Manager) GenerateFilename(prefix string) string {
	if prefix == "" {
		prefix = defaultSlug
	}
	return fmt.Sprintf("%s_%s.txt", prefix, time.Now().Format(filenameStamp))
}

// FormatTranscript renders the history as the transcript artifact: a header
// with generation time and total turns, then one titled section per message.
// Display turn numbers pair question and answer; system messages show turn 0.
func (m *Manager) FormatTranscript(history *conversation.History) string {
	messages := history.Snapshot()
	if len(messages) == 0 {
		return "No conversation history available."
	}

	lines := []string{
		fmt.Sprintf("# Conversation Transcript (Generated: %s)", time.Now().Format(transcriptStamp)),
		fmt.Sprintf("# Total Turns: %d", history.Turns()),
		"",
	}
	for i, msg := range messages {
		turn := 0
		if msg.Role != conversation.RoleSystem {
			turn = (i + 2) / 2 // display index is 1-based
		}
		lines = append(lines, fmt.Sprintf("## %s (Turn %d)", msg.Role.Title(), turn), msg.Content, "")
	}
	return strings.Join(lines, "\n")
}

// SaveTranscript formats the history and writes it under the given filename,
// returning the full path. An empty filename gets a generated one.
func (m *Manager) SaveTranscript(history *conversation.History, filename string) (string, error) {
	if filename == "" {
		filename = m.GenerateFilename(defaultSlug)
	}
	path := filepath.Join(m.dir, filename)

	text := m.redact(m.FormatTranscript(history))
	if err := os.WriteFile(path, []byte(text), 0o644); err != nil {
		m.logger.Error().Err(err).Str("path", path).Msg("failed to save transcript")
		return "", &PersistError{Artifact: "transcript", Path: path, Err: err}
	}
	m.logger.Info().Str("path", path).Int("messages", len(history.Snapshot())).Msg("saved conversation transcript")
	return path, nil
}

// GenerateTakeaways asks the responder to distill the conversation relative
// to the original goal. It never returns an error: failures come back as a
// string carrying the error flag, so callers gate persistence on
// IsErrorFlagged. An empty history is flagged without invoking the provider.
func (m *Manager) GenerateTakeaways(ctx context.Context, history *conversation.History, cc conversation.Context, responder Summarizer) string {
	m.logger.Info().Msg("generating takeaways from conversation")

	messages := history.Snapshot()
	if len(messages) == 0 {
		m.logger.Warn().Msg("cannot generate takeaways from empty history")
		return "Error: Cannot generate takeaways from empty history."
	}

	prompt := make([]ports.PromptMessage, 0, len(messages)+1)
	for _, msg := range messages {
		prompt = append(prompt, ports.PromptMessage{Role: string(msg.Role), Content: msg.Content})
	}
	prompt = append(prompt, ports.PromptMessage{Role: string(conversation.RoleUser), Content: takeawaysPrompt(cc.Goal)})

	reply, err := responder.Reply(ctx, prompt)
	if err != nil {
		m.logger.Error().Err(err).Msg("takeaways generation failed")
		return fmt.Sprintf("Error: Takeaways generation failed: %v", err)
	}
	takeaways := strings.TrimSpace(reply)
	if takeaways == "" || !utf8.ValidString(takeaways) {
		m.logger.Error().Msg("takeaways reply was empty or not valid text")
		return "Error: Failed to generate valid takeaways from the LLM."
	}
	m.logger.Info().Int("length", len(takeaways)).Msg("generated takeaways")
	return takeaways
}

// SaveTakeaways writes the summary next to its transcript, deriving the
// filename from the transcript stem so the pair is discoverable without an
// index.
func (m *Manager) SaveTakeaways(takeaways, transcriptFilename string) (string, error) {
	stem := strings.TrimSuffix(transcriptFilename, filepath.Ext(transcriptFilename))
	path := filepath.Join(m.dir, stem+"_takeaways.txt")

	text := m.redact(fmt.Sprintf("# Takeaways from: %s\n\n%s", transcriptFilename, takeaways))
	if err := os.WriteFile(path, []byte(text), 0o644); err != nil {
		m.logger.Error().Err(err).Str("path", path).Msg("failed to save takeaways")
		return "", &PersistError{Artifact: "takeaways", Path: path, Err: err}
	}
	m.logger.Info().Str("path", path).Msg("saved takeaways")
	return path, nil
}

// IsErrorFlagged reports whether a generated summary is an error marker
// rather than usable text.
func IsErrorFlagged(summary string) bool {
	return strings.HasPrefix(summary, errorFlagPrefix)
}

func (m *Manager) redact(text string) string {
	if m.redactor == nil {
		return text
	}
	return m.redactor.Apply(text)
}

func takeawaysPrompt(goal string) string {
	return fmt.Sprintf(
		"Based on the preceding conversation transcript where the initial goal was %q, "+
			"please distill the key takeaways, insights, and conclusions. "+
			"Focus on the most important information relevant to the original goal. "+
			"Present the takeaways clearly and concisely, perhaps as bullet points."+
			"Do not refer to yourself, just provide the takeaways.", goal)
}
