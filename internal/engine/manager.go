package engine

import (
	"context"
	"sync"

	"github.com/google/uuid"
	"github.com/rowanhart/tasknest/internal/store"
	"go.uber.org/zap"
)

// Manager owns one Engine per logged-in user. HTTP requests run concurrently,
// so each engine is guarded by its own mutex here; the engine itself stays a
// single-writer structure.
type Manager struct {
	store  store.TaskStore
	logger *zap.Logger
	mu     sync.Mutex
	active map[uuid.UUID]*session
}

type session struct {
	mu     sync.Mutex
	engine *Engine
}

// NewManager creates a session manager over the given store
func NewManager(st store.TaskStore, logger *zap.Logger) *Manager {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Manager{
		store:  st,
		logger: logger,
		active: make(map[uuid.UUID]*session),
	}
}

// Activate creates (or replaces) the engine for a user and loads their tasks.
// Called on login; filters start at defaults.
func (m *Manager) Activate(ctx context.Context, userID uuid.UUID) error {
	_, err := m.activate(ctx, userID)
	return err
}

func (m *Manager) activate(ctx context.Context, userID uuid.UUID) (*session, error) {
	eng := New(m.store, WithLogger(m.logger))
	if err := eng.SetActiveUser(ctx, userID); err != nil {
		return nil, err
	}

	s := &session{engine: eng}
	m.mu.Lock()
	m.active[userID] = s
	m.mu.Unlock()

	m.logger.Info("session_activated", zap.String("user_id", userID.String()))
	return s, nil
}

// Deactivate evicts a user's engine. Called on logout and account deletion.
func (m *Manager) Deactivate(userID uuid.UUID) {
	m.mu.Lock()
	delete(m.active, userID)
	m.mu.Unlock()
	m.logger.Info("session_deactivated", zap.String("user_id", userID.String()))
}

// With runs fn against the user's engine, serializing access per user. If no
// session exists yet (e.g. a valid token after a server restart) one is
// activated first.
func (m *Manager) With(ctx context.Context, userID uuid.UUID, fn func(*Engine) error) error {
	s, err := m.sessionFor(ctx, userID)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	return fn(s.engine)
}

func (m *Manager) sessionFor(ctx context.Context, userID uuid.UUID) (*session, error) {
	m.mu.Lock()
	s, ok := m.active[userID]
	m.mu.Unlock()
	if ok {
		return s, nil
	}

	// Use the session activate registered rather than re-reading the map: a
	// concurrent Deactivate could evict the entry in between, leaving nil.
	return m.activate(ctx, userID)
}
