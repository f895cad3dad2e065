package conversations

import (
	"context"
	"errors"
	"testing"

	"github.com/cloudwego/eino/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/toko-tani/assistant/internal/agent/model"
	"github.com/toko-tani/assistant/internal/agent/repo"
)

func seeded(t *testing.T) *repo.MemoryConversationRepository {
	t.Helper()
	r := repo.NewMemoryConversationRepository()
	ctx := context.Background()
	require.NoError(t, r.AddMessage(ctx, "s1", model.UserTurn("ada urea?")))
	require.NoError(t, r.AddMessage(ctx, "s1", model.AssistantTurn("ada, stok 20 karung")))
	return r
}

func TestProcessUserMessageStateful(t *testing.T) {
	r := seeded(t)
	mm := NewMessagesManager(r, model.Stateful)

	msgs, err := mm.ProcessUserMessage(context.Background(), "s1", "harganya?", "CTX")
	require.NoError(t, err)
	require.Len(t, msgs, 4)

	assert.Equal(t, schema.System, msgs[0].Role)
	assert.Equal(t, "CTX", msgs[0].Content)
	assert.Equal(t, schema.User, msgs[1].Role)
	assert.Equal(t, "ada urea?", msgs[1].Content)
	assert.Equal(t, schema.Assistant, msgs[2].Role)
	assert.Equal(t, schema.User, msgs[3].Role)
	assert.Equal(t, "harganya?", msgs[3].Content)

	n, err := r.GetMessageCount(context.Background(), "s1")
	require.NoError(t, err)
	assert.Equal(t, 3, n)
}

func TestProcessUserMessageStateless(t *testing.T) {
	mm := NewMessagesManager(seeded(t), model.Stateless)

	msgs, err := mm.ProcessUserMessage(context.Background(), "s1", "harganya?", "CTX")
	require.NoError(t, err)
	require.Len(t, msgs, 2)
	assert.Equal(t, schema.System, msgs[0].Role)
	assert.Equal(t, "harganya?", msgs[1].Content)
}

type failingRepo struct {
	model.ConversationRepository
}

func (failingRepo) AddMessage(context.Context, string, model.Turn) error {
	return errors.New("store down")
}

func TestProcessUserMessageStoreFailure(t *testing.T) {
	mm := NewMessagesManager(failingRepo{}, model.Stateful)
	_, err := mm.ProcessUserMessage(context.Background(), "s1", "halo", "CTX")
	assert.ErrorContains(t, err, "store down")
}

func TestToSchemaMessagesSkipsEmpty(t *testing.T) {
	msgs := ToSchemaMessages([]model.Turn{
		{Role: model.RoleUser, Text: "halo"},
		{Role: model.RoleAssistant, Text: ""},
		{Role: model.RoleAssistant, Text: "selamat datang"},
	})
	require.Len(t, msgs, 2)
	assert.Equal(t, schema.Assistant, msgs[1].Role)
}
