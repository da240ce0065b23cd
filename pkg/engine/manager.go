package engine

import (
	"log/slog"
	"sync"
)

// Manager maps session keys (one per chat surface user) to engines, creating
// them lazily. Each session gets its own conversation buffer.
type Manager struct {
	mu       sync.Mutex
	sessions map[string]*Engine
	factory  func() *Engine
}

// NewManager creates a manager that builds engines with factory.
func NewManager(factory func() *Engine) *Manager {
	return &Manager{
		sessions: make(map[string]*Engine),
		factory:  factory,
	}
}

// Get returns the engine for a session, creating it on first use.
func (m *Manager) Get(sessionKey string) *Engine {
	m.mu.Lock()
	defer m.mu.Unlock()

	if e, ok := m.sessions[sessionKey]; ok {
		return e
	}
	e := m.factory()
	m.sessions[sessionKey] = e
	slog.Info("session created", "session", sessionKey, "conversation", e.ConversationID())
	return e
}

// Remove closes and forgets a session.
func (m *Manager) Remove(sessionKey string) {
	m.mu.Lock()
	e, ok := m.sessions[sessionKey]
	delete(m.sessions, sessionKey)
	m.mu.Unlock()

	if ok {
		if err := e.Close(); err != nil {
			slog.Error("failed to close session", "session", sessionKey, "error", err.Error())
		}
	}
}

// CloseAll flushes and closes every session.
func (m *Manager) CloseAll() {
	m.mu.Lock()
	sessions := m.sessions
	m.sessions = make(map[string]*Engine)
	m.mu.Unlock()

	for key, e := range sessions {
		if err := e.Close(); err != nil {
			slog.Error("failed to close session", "session", key, "error", err.Error())
		}
	}
}
