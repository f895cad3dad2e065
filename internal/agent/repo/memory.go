package repo

import (
	"context"
	"sync"

	"github.com/toko-tani/assistant/internal/agent/model"
)

// MemoryConversationRepository holds conversations in process memory. They
// disappear with the process or when the session ends.
type MemoryConversationRepository struct {
	mu    sync.RWMutex
	turns map[string][]model.Turn
}

func NewMemoryConversationRepository() *MemoryConversationRepository {
	return &MemoryConversationRepository{turns: make(map[string][]model.Turn)}
}

func (r *MemoryConversationRepository) AddMessage(_ context.Context, sessionID string, turn model.Turn) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.turns[sessionID] = append(r.turns[sessionID], turn)
	return nil
}

func (r *MemoryConversationRepository) LoadHistory(_ context.Context, sessionID string) (*model.ConversationHistory, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	stored := r.turns[sessionID]
	turns := make([]model.Turn, len(stored))
	copy(turns, stored)
	return &model.ConversationHistory{SessionID: sessionID, Turns: turns}, nil
}

func (r *MemoryConversationRepository) ClearHistory(_ context.Context, sessionID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.turns, sessionID)
	return nil
}

func (r *MemoryConversationRepository) GetMessageCount(_ context.Context, sessionID string) (int, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.turns[sessionID]), nil
}

// Touch is a no-op; memory conversations live until ClearHistory.
func (r *MemoryConversationRepository) Touch(context.Context, string) error {
	return nil
}

var _ model.ConversationRepository = (*MemoryConversationRepository)(nil)
