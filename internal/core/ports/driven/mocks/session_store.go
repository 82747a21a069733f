package mocks

import (
	"context"
	"errors"
	"sync"

	"github.com/custodia-labs/foodorder-identity/internal/core/domain"
)

// ErrDuplicateSession is returned when a session ID or token is reused
var ErrDuplicateSession = errors.New("session already exists")

// ErrMissingLogout is returned by Update for a session without LogoutAt
var ErrMissingLogout = errors.New("session update without logout time")

// MockSessionStore is an in-memory SessionStore for testing.
// Reads return copies so callers never share state with the store.
type MockSessionStore struct {
	mu       sync.RWMutex
	sessions map[string]*domain.Session
	byToken  map[string]string

	// Optional error injection
	CreateErr error
	GetErr    error
	UpdateErr error
}

// NewMockSessionStore creates a new MockSessionStore
func NewMockSessionStore() *MockSessionStore {
	return &MockSessionStore{
		sessions: make(map[string]*domain.Session),
		byToken:  make(map[string]string),
	}
}

func (m *MockSessionStore) Create(ctx context.Context, session *domain.Session) error {
	if m.CreateErr != nil {
		return m.CreateErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, exists := m.sessions[session.ID]; exists {
		return ErrDuplicateSession
	}
	if _, exists := m.byToken[session.Token]; exists {
		return ErrDuplicateSession
	}
	m.sessions[session.ID] = copySession(session)
	m.byToken[session.Token] = session.ID
	return nil
}

func (m *MockSessionStore) GetByToken(ctx context.Context, token string) (*domain.Session, error) {
	if m.GetErr != nil {
		return nil, m.GetErr
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	id, ok := m.byToken[token]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return copySession(m.sessions[id]), nil
}

// Update applies the logout time unless one is already stored.
func (m *MockSessionStore) Update(ctx context.Context, session *domain.Session) error {
	if m.UpdateErr != nil {
		return m.UpdateErr
	}
	if session.LogoutAt == nil {
		return ErrMissingLogout
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	stored, ok := m.sessions[session.ID]
	if !ok {
		return domain.ErrNotFound
	}
	if stored.LogoutAt != nil {
		return domain.ErrAlreadyLoggedOut
	}
	at := *session.LogoutAt
	stored.LogoutAt = &at
	return nil
}

// Count returns the number of stored sessions
func (m *MockSessionStore) Count() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.sessions)
}

// Put stores a session directly (for test setup)
func (m *MockSessionStore) Put(session *domain.Session) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sessions[session.ID] = copySession(session)
	m.byToken[session.Token] = session.ID
}

func copySession(s *domain.Session) *domain.Session {
	c := *s
	if s.LogoutAt != nil {
		at := *s.LogoutAt
		c.LogoutAt = &at
	}
	return &c
}
