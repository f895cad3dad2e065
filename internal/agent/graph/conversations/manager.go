package conversations

import (
	"context"
	"fmt"

	"github.com/cloudwego/eino/schema"

	"github.com/toko-tani/assistant/internal/agent/model"
)

// MessagesManager records turns and assembles the model input for a turn.
type MessagesManager struct {
	conversationRepo model.ConversationRepository
	mode             model.ExchangeMode
}

func NewMessagesManager(conversationRepo model.ConversationRepository, mode model.ExchangeMode) *MessagesManager {
	return &MessagesManager{
		conversationRepo: conversationRepo,
		mode:             mode,
	}
}

func (cm *MessagesManager) Mode() model.ExchangeMode {
	return cm.mode
}

// ProcessUserMessage stores the user turn and returns the messages to send:
// the system context first, replayed history in stateful mode, then the new
// user message last.
func (cm *MessagesManager) ProcessUserMessage(ctx context.Context, sessionID, query, systemContext string) ([]*schema.Message, error) {
	if err := cm.conversationRepo.AddMessage(ctx, sessionID, model.UserTurn(query)); err != nil {
		return nil, fmt.Errorf("save user turn: %w", err)
	}

	messages := []*schema.Message{schema.SystemMessage(systemContext)}

	if cm.mode == model.Stateful {
		history, err := cm.conversationRepo.LoadHistory(ctx, sessionID)
		if err != nil {
			return nil, fmt.Errorf("load history: %w", err)
		}
		messages = append(messages, ToSchemaMessages(history.ExcludingLast())...)
	}

	messages = append(messages, schema.UserMessage(query))
	return messages, nil
}

func (cm *MessagesManager) SaveResponse(ctx context.Context, sessionID string, content string) error {
	return cm.conversationRepo.AddMessage(ctx, sessionID, model.AssistantTurn(content))
}

// ToSchemaMessages maps turns onto eino roles. The Gemini component sends
// schema.Assistant as the "model" role.
func ToSchemaMessages(turns []model.Turn) []*schema.Message {
	out := make([]*schema.Message, 0, len(turns))
	for _, t := range turns {
		if t.Text == "" {
			continue
		}
		switch t.Role {
		case model.RoleUser:
			out = append(out, schema.UserMessage(t.Text))
		case model.RoleAssistant:
			out = append(out, schema.AssistantMessage(t.Text, nil))
		}
	}
	return out
}
