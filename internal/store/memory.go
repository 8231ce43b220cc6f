package store

import (
	"context"
	"sort"
	"sync"

	"github.com/manwithoutsleep/basic-ai-chatbot/internal/types"
)

// Memory is an in-process Store used by tests and as the default when no
// persistence is configured. Sessions are deep-copied on the way in and out.
type Memory struct {
	mu       sync.RWMutex
	sessions map[string]*types.Session
}

// NewMemory creates an empty in-memory store.
func NewMemory() *Memory {
	return &Memory{sessions: make(map[string]*types.Session)}
}

// Load retrieves a session by identifier.
func (m *Memory) Load(_ context.Context, id string) (*types.Session, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	session, ok := m.sessions[id]
	if !ok {
		return nil, &NotFoundError{ID: id}
	}
	return session.Clone(), nil
}

// Save persists the session under an optimistic version check.
func (m *Memory) Save(_ context.Context, session *types.Session, expectedVersion int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	current := int64(0)
	if existing, ok := m.sessions[session.ID]; ok {
		current = existing.Version
	}
	if current != expectedVersion {
		return &StaleWriteError{ID: session.ID, Expected: expectedVersion, Actual: current}
	}

	session.Version = expectedVersion + 1
	m.sessions[session.ID] = session.Clone()
	return nil
}

// List returns all sessions ordered by identifier.
func (m *Memory) List(_ context.Context) ([]*types.Session, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]*types.Session, 0, len(m.sessions))
	for _, session := range m.sessions {
		out = append(out, session.Clone())
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}
