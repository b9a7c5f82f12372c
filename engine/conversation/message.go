package conversation

import (
	"errors"
	"unicode/utf8"
)

// Role identifies the author of a message in a dialogue transcript.
type Role string

const (
	RoleSystem    Role = "system"
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

var (
	// ErrInvalidRole is returned when a message carries a role outside the
	// system/user/assistant set.
	ErrInvalidRole = errors.New("conversation: invalid role")
	// ErrInvalidContent is returned when message content is not valid UTF-8.
	ErrInvalidContent = errors.New("conversation: content is not valid UTF-8")
)

// Valid reports whether the role is one of the recognized dialogue roles.
func (r Role) Valid() bool {
	switch r {
	case RoleSystem, RoleUser, RoleAssistant:
		return true
	}
	return false
}

// Title returns the display heading used for this role in rendered
// transcripts.
func (r Role) Title() string {
	switch r {
	case RoleUser:
		return "User"
	case RoleAssistant:
		return "Expert"
	case RoleSystem:
		return "System"
	}
	return string(r)
}

// Message is a single entry in a dialogue transcript.
type Message struct {
	Role    Role   `json:"role"`
	Content string `json:"content"`
}

// Validate checks the message against the transcript invariants: a known
// role and UTF-8 content.
func (m Message) Validate() error {
	if !m.Role.Valid() {
		return ErrInvalidRole
	}
	if !utf8.ValidString(m.Content) {
		return ErrInvalidContent
	}
	return nil
}
