package session

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/toko-tani/assistant/internal/agent/graph"
	"github.com/toko-tani/assistant/internal/agent/graph/prompts"
	"github.com/toko-tani/assistant/internal/agent/model"
	errx "github.com/toko-tani/assistant/internal/core/error"
	logx "github.com/toko-tani/assistant/pkg/logger"
)

// State of a session's conversation.
type State string

const (
	StateEmpty         State = "EMPTY"
	StateAwaitingModel State = "AWAITING_MODEL"
	StateIdle          State = "IDLE"
)

// Session is the per-visitor context. Its conversation lives in the
// repository under ID.
type Session struct {
	ID         string    `json:"session_id"`
	State      State     `json:"state"`
	Greeting   string    `json:"greeting"`
	CreatedAt  time.Time `json:"created_at"`
	LastActive time.Time `json:"last_active"`
}

// Manager owns the live sessions and runs one exchange per submitted turn.
type Manager struct {
	runner  graph.Runner
	repo    model.ConversationRepository
	profile model.ShopProfile
	ttl     time.Duration
	now     func() time.Time

	mu       sync.Mutex
	sessions map[string]*Session
}

func NewManager(runner graph.Runner, repo model.ConversationRepository, profile model.ShopProfile, ttl time.Duration) *Manager {
	return &Manager{
		runner:   runner,
		repo:     repo,
		profile:  profile,
		ttl:      ttl,
		now:      time.Now,
		sessions: make(map[string]*Session),
	}
}

// Create opens a new session with an empty conversation.
func (m *Manager) Create(ctx context.Context) (Session, error) {
	greeting, err := prompts.RenderGreeting(ctx, m.profile)
	if err != nil {
		return Session{}, err
	}
	now := m.now()
	s := &Session{
		ID:         uuid.New().String(),
		State:      StateEmpty,
		Greeting:   greeting,
		CreatedAt:  now,
		LastActive: now,
	}

	m.mu.Lock()
	m.reapLocked(ctx, now)
	m.sessions[s.ID] = s
	m.mu.Unlock()

	logx.Info().Str("session_id", s.ID).Msg("session started")
	return *s, nil
}

// Get returns a snapshot of the session.
func (m *Manager) Get(id string) (Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, err := m.lookupLocked(id)
	if err != nil {
		return Session{}, err
	}
	return *s, nil
}

// Send runs one exchange. A failed exchange leaves the user turn recorded
// and returns the session to IDLE.
func (m *Manager) Send(ctx context.Context, id, text string) (string, Session, error) {
	if strings.TrimSpace(text) == "" {
		return "", Session{}, errx.BadRequest("message text is required")
	}

	m.mu.Lock()
	s, err := m.lookupLocked(id)
	if err != nil {
		m.mu.Unlock()
		return "", Session{}, err
	}
	if s.State == StateAwaitingModel {
		m.mu.Unlock()
		return "", *s, errx.Conflict("session %s is waiting for a reply", id)
	}
	s.State = StateAwaitingModel
	s.LastActive = m.now()
	m.mu.Unlock()

	reply, err := m.runner.Invoke(ctx, model.ExchangeInput{SessionID: id, Query: text})

	// The stored history expires on the same clock as LastActive, which
	// restarts here, not when the user turn was written.
	if terr := m.repo.Touch(context.WithoutCancel(ctx), id); terr != nil {
		logx.Warn().Err(terr).Str("session_id", id).Msg("failed to refresh conversation lifetime")
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	s.LastActive = m.now()
	s.State = StateIdle
	if err != nil {
		logx.Error().Err(err).Str("session_id", id).Msg("exchange failed")
		return "", *s, err
	}
	return reply, *s, nil
}

// ShopInfo sends the canned shop information question.
func (m *Manager) ShopInfo(ctx context.Context, id string) (string, Session, error) {
	return m.Send(ctx, id, prompts.ShopInfoPrompt())
}

// History returns the session's turns in order.
func (m *Manager) History(ctx context.Context, id string) ([]model.Turn, error) {
	if _, err := m.Get(id); err != nil {
		return nil, err
	}
	h, err := m.repo.LoadHistory(ctx, id)
	if err != nil {
		return nil, err
	}
	return h.Turns, nil
}

// MessageCount reports how many turns the session's conversation holds.
func (m *Manager) MessageCount(ctx context.Context, id string) (int, error) {
	if _, err := m.Get(id); err != nil {
		return 0, err
	}
	return m.repo.GetMessageCount(ctx, id)
}

// End destroys the session and its conversation.
func (m *Manager) End(ctx context.Context, id string) error {
	m.mu.Lock()
	s, err := m.lookupLocked(id)
	if err != nil {
		m.mu.Unlock()
		return err
	}
	if s.State == StateAwaitingModel {
		m.mu.Unlock()
		return errx.Conflict("session %s is waiting for a reply", id)
	}
	delete(m.sessions, id)
	m.mu.Unlock()

	logx.Info().Str("session_id", id).Msg("session ended")
	return m.repo.ClearHistory(ctx, id)
}

// Len reports the number of live sessions. Expired sessions not yet reaped
// are not counted.
func (m *Manager) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	now := m.now()
	n := 0
	for _, s := range m.sessions {
		if !m.expired(s, now) {
			n++
		}
	}
	return n
}

func (m *Manager) lookupLocked(id string) (*Session, error) {
	s, ok := m.sessions[id]
	if !ok || m.expired(s, m.now()) {
		return nil, errx.NotFound("session %s not found", id)
	}
	return s, nil
}

func (m *Manager) expired(s *Session, now time.Time) bool {
	return m.ttl > 0 && s.State != StateAwaitingModel && now.Sub(s.LastActive) > m.ttl
}

// reapLocked drops idle sessions past their lifetime.
func (m *Manager) reapLocked(ctx context.Context, now time.Time) {
	for id, s := range m.sessions {
		if !m.expired(s, now) {
			continue
		}
		delete(m.sessions, id)
		if err := m.repo.ClearHistory(ctx, id); err != nil {
			logx.Warn().Err(err).Str("session_id", id).Msg("failed to clear expired conversation")
		}
		logx.Debug().Str("session_id", id).Msg("session expired")
	}
}
