package model

import (
	"context"
	"time"
)

// Role tags a Turn.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Turn is one message of a conversation.
type Turn struct {
	Role      Role      `json:"role"`
	Text      string    `json:"text"`
	CreatedAt time.Time `json:"created_at"`
}

func UserTurn(text string) Turn {
	return Turn{Role: RoleUser, Text: text, CreatedAt: time.Now().UTC()}
}

func AssistantTurn(text string) Turn {
	return Turn{Role: RoleAssistant, Text: text, CreatedAt: time.Now().UTC()}
}

type ConversationRepository interface {
	// AddMessage appends a turn to the conversation of the given session
	AddMessage(ctx context.Context, sessionID string, turn Turn) error

	// LoadHistory retrieves all turns of a session in order
	LoadHistory(ctx context.Context, sessionID string) (*ConversationHistory, error)

	// ClearHistory removes the conversation when its session ends
	ClearHistory(ctx context.Context, sessionID string) error

	// GetMessageCount returns the number of turns in the conversation
	GetMessageCount(ctx context.Context, sessionID string) (int, error)

	// Touch restarts the conversation's lifetime without adding a turn
	Touch(ctx context.Context, sessionID string) error
}

// ConversationHistory represents loaded conversation data with metadata.
type ConversationHistory struct {
	SessionID string
	Turns     []Turn
}

// ExcludingLast returns every turn before the newest one. It is the replay
// history for stateful exchanges, taken right after the new user turn is stored.
func (h *ConversationHistory) ExcludingLast() []Turn {
	if h == nil || len(h.Turns) == 0 {
		return []Turn{}
	}
	out := make([]Turn, len(h.Turns)-1)
	copy(out, h.Turns[:len(h.Turns)-1])
	return out
}
