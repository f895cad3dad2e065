package session

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/toko-tani/assistant/internal/agent/graph/prompts"
	"github.com/toko-tani/assistant/internal/agent/model"
	"github.com/toko-tani/assistant/internal/agent/repo"
	errx "github.com/toko-tani/assistant/internal/core/error"
)

// fakeRunner records turns the way the exchange graph does.
type fakeRunner struct {
	repo    model.ConversationRepository
	reply   string
	err     error
	block   chan struct{}
	entered chan struct{}
	during  func()
	queries []string
}

func (f *fakeRunner) Mode() model.ExchangeMode { return model.Stateful }

func (f *fakeRunner) Invoke(ctx context.Context, in model.ExchangeInput) (string, error) {
	f.queries = append(f.queries, in.Query)
	if err := f.repo.AddMessage(ctx, in.SessionID, model.UserTurn(in.Query)); err != nil {
		return "", err
	}
	if f.entered != nil {
		f.entered <- struct{}{}
	}
	if f.block != nil {
		<-f.block
	}
	if f.during != nil {
		f.during()
	}
	if f.err != nil {
		return "", errx.WrapModel(f.err)
	}
	return f.reply, f.repo.AddMessage(ctx, in.SessionID, model.AssistantTurn(f.reply))
}

var profile = model.ShopProfile{Name: "Toko Tani Suka Maju"}

func newManager(t *testing.T, runner *fakeRunner, ttl time.Duration) (*Manager, *repo.MemoryConversationRepository) {
	t.Helper()
	r := repo.NewMemoryConversationRepository()
	runner.repo = r
	return NewManager(runner, r, profile, ttl), r
}

func TestCreateStartsEmptyWithGreeting(t *testing.T) {
	m, _ := newManager(t, &fakeRunner{}, 0)

	s, err := m.Create(context.Background())
	require.NoError(t, err)
	assert.NotEmpty(t, s.ID)
	assert.Equal(t, StateEmpty, s.State)
	assert.Equal(t, "Selamat Datang di Toko Tani Suka Maju. Ada yang bisa Saya Bantu?", s.Greeting)

	history, err := m.History(context.Background(), s.ID)
	require.NoError(t, err)
	assert.Empty(t, history)
}

func TestSendSuccessMovesToIdle(t *testing.T) {
	m, _ := newManager(t, &fakeRunner{reply: "Buka jam 08:00."}, 0)
	ctx := context.Background()
	s, err := m.Create(ctx)
	require.NoError(t, err)

	reply, after, err := m.Send(ctx, s.ID, "jam buka?")
	require.NoError(t, err)
	assert.Equal(t, "Buka jam 08:00.", reply)
	assert.Equal(t, StateIdle, after.State)

	history, err := m.History(ctx, s.ID)
	require.NoError(t, err)
	require.Len(t, history, 2)
	assert.Equal(t, model.RoleUser, history[0].Role)
	assert.Equal(t, model.RoleAssistant, history[1].Role)
}

func TestSendFailureKeepsUserTurnAndIdles(t *testing.T) {
	m, _ := newManager(t, &fakeRunner{err: errors.New("permission denied: invalid API key")}, 0)
	ctx := context.Background()
	s, err := m.Create(ctx)
	require.NoError(t, err)

	_, after, err := m.Send(ctx, s.ID, "ada urea?")
	require.Error(t, err)
	assert.True(t, errors.Is(err, errx.ErrModelExchange))
	assert.Equal(t, StateIdle, after.State)

	history, err := m.History(ctx, s.ID)
	require.NoError(t, err)
	require.Len(t, history, 1)
	assert.Equal(t, "ada urea?", history[0].Text)
}

func TestSendRejectsEmptyText(t *testing.T) {
	runner := &fakeRunner{}
	m, _ := newManager(t, runner, 0)
	s, err := m.Create(context.Background())
	require.NoError(t, err)

	_, _, err = m.Send(context.Background(), s.ID, "  ")
	assert.True(t, errors.Is(err, errx.ErrBadRequest))
	assert.Empty(t, runner.queries)

	got, err := m.Get(s.ID)
	require.NoError(t, err)
	assert.Equal(t, StateEmpty, got.State)
}

func TestSendWhileAwaitingModelConflicts(t *testing.T) {
	runner := &fakeRunner{reply: "ok", block: make(chan struct{}), entered: make(chan struct{}, 1)}
	m, _ := newManager(t, runner, 0)
	ctx := context.Background()
	s, err := m.Create(ctx)
	require.NoError(t, err)

	done := make(chan error, 1)
	go func() {
		_, _, err := m.Send(ctx, s.ID, "pertama")
		done <- err
	}()
	<-runner.entered

	got, err := m.Get(s.ID)
	require.NoError(t, err)
	assert.Equal(t, StateAwaitingModel, got.State)

	_, _, err = m.Send(ctx, s.ID, "kedua")
	assert.True(t, errors.Is(err, errx.ErrConflict))
	assert.True(t, errors.Is(m.End(ctx, s.ID), errx.ErrConflict))

	close(runner.block)
	require.NoError(t, <-done)
}

func TestShopInfoSendsCannedPrompt(t *testing.T) {
	runner := &fakeRunner{reply: "Alamat: Jl. Raya Pertanian"}
	m, _ := newManager(t, runner, 0)
	s, err := m.Create(context.Background())
	require.NoError(t, err)

	_, _, err = m.ShopInfo(context.Background(), s.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{prompts.ShopInfoPrompt()}, runner.queries)
}

func TestUnknownSession(t *testing.T) {
	m, _ := newManager(t, &fakeRunner{}, 0)

	_, _, err := m.Send(context.Background(), "nope", "halo")
	assert.True(t, errors.Is(err, errx.ErrNotFound))
	_, err = m.History(context.Background(), "nope")
	assert.True(t, errors.Is(err, errx.ErrNotFound))
	assert.True(t, errors.Is(m.End(context.Background(), "nope"), errx.ErrNotFound))
}

func TestEndClearsConversation(t *testing.T) {
	m, r := newManager(t, &fakeRunner{reply: "ok"}, 0)
	ctx := context.Background()
	s, err := m.Create(ctx)
	require.NoError(t, err)
	_, _, err = m.Send(ctx, s.ID, "halo")
	require.NoError(t, err)

	require.NoError(t, m.End(ctx, s.ID))
	n, err := r.GetMessageCount(ctx, s.ID)
	require.NoError(t, err)
	assert.Zero(t, n)
	assert.Zero(t, m.Len())
}

func TestIdleSessionsExpire(t *testing.T) {
	m, r := newManager(t, &fakeRunner{reply: "ok"}, time.Minute)
	ctx := context.Background()
	now := time.Date(2026, 10, 14, 8, 0, 0, 0, time.UTC)
	m.now = func() time.Time { return now }

	old, err := m.Create(ctx)
	require.NoError(t, err)
	_, _, err = m.Send(ctx, old.ID, "halo")
	require.NoError(t, err)

	now = now.Add(2 * time.Minute)
	_, err = m.Get(old.ID)
	assert.True(t, errors.Is(err, errx.ErrNotFound))

	_, err = m.Create(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, m.Len())
	n, err := r.GetMessageCount(ctx, old.ID)
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestFailedSlowExchangeKeepsRedisHistoryAlive(t *testing.T) {
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })

	ttl := time.Minute
	r := repo.NewRedisConversationRepository(rdb, ttl)
	runner := &fakeRunner{
		repo:   r,
		err:    errors.New("deadline exceeded"),
		during: func() { mr.FastForward(50 * time.Second) },
	}
	m := NewManager(runner, r, profile, ttl)
	now := time.Date(2026, 10, 14, 8, 0, 0, 0, time.UTC)
	m.now = func() time.Time { return now }
	ctx := context.Background()

	s, err := m.Create(ctx)
	require.NoError(t, err)
	_, _, err = m.Send(ctx, s.ID, "ada urea?")
	require.Error(t, err)

	mr.FastForward(30 * time.Second)
	now = now.Add(30 * time.Second)

	history, err := m.History(ctx, s.ID)
	require.NoError(t, err)
	require.Len(t, history, 1)
	assert.Equal(t, "ada urea?", history[0].Text)
}

func TestMessageCount(t *testing.T) {
	m, _ := newManager(t, &fakeRunner{reply: "ok"}, 0)
	ctx := context.Background()
	s, err := m.Create(ctx)
	require.NoError(t, err)

	n, err := m.MessageCount(ctx, s.ID)
	require.NoError(t, err)
	assert.Zero(t, n)

	_, _, err = m.Send(ctx, s.ID, "halo")
	require.NoError(t, err)
	n, err = m.MessageCount(ctx, s.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	_, err = m.MessageCount(ctx, "nope")
	assert.True(t, errors.Is(err, errx.ErrNotFound))
}
