package store

import (
	"time"

	"github.com/abdullah-assistant/assistant/internal/dialogue"
)

const maxTranscriptMessages = 200

// Role tags who authored a transcript message.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Message is one entry of a conversation transcript.
type Message struct {
	ID        string    `json:"id"`
	Role      Role      `json:"role"`
	Content   string    `json:"content"`
	Options   []string  `json:"options,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// Theme is the display theme a user picked.
type Theme string

const (
	ThemeSystem Theme = "system"
	ThemeLight  Theme = "light"
	ThemeDark   Theme = "dark"
)

func (t Theme) Valid() bool {
	switch t {
	case ThemeSystem, ThemeLight, ThemeDark:
		return true
	}
	return false
}

type Preferences struct {
	Theme Theme `json:"theme"`
}

// DefaultPreferences is what a conversation without saved preferences uses.
func DefaultPreferences() Preferences {
	return Preferences{Theme: ThemeSystem}
}

// Store persists transcripts, dialogue states and preferences per
// conversation. Getters return nil (or an empty slice) with a nil error when
// nothing was saved yet.
type Store interface {
	GetTranscript(conversationID string) ([]Message, error)
	AppendMessages(conversationID string, msgs ...Message) error
	ClearTranscript(conversationID string) error

	GetState(conversationID string) (*dialogue.State, error)
	SaveState(conversationID string, state dialogue.State) error
	DeleteState(conversationID string) error

	GetPreferences(conversationID string) (*Preferences, error)
	SavePreferences(conversationID string, p Preferences) error

	Close() error
}

func trimTranscript(msgs []Message) []Message {
	if len(msgs) > maxTranscriptMessages {
		return msgs[len(msgs)-maxTranscriptMessages:]
	}
	return msgs
}
