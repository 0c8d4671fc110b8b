package session

import (
	"context"
	"fmt"
	"sync"

	forge "github.com/alt-sl/agentforge"
)

// MemoryStore is an in-memory session store backed by a mutex-protected
// map. Sessions are deep-copied on save and load to prevent external
// mutation.
type MemoryStore struct {
	mu       sync.RWMutex
	sessions map[string]*forge.Session
}

var _ forge.SessionStore = (*MemoryStore)(nil)
var _ forge.SessionLister = (*MemoryStore)(nil)

// NewMemoryStore creates a new empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		sessions: make(map[string]*forge.Session),
	}
}

// Save persists a session by deep-copying it into the store.
func (m *MemoryStore) Save(_ context.Context, session *forge.Session) error {
	if session == nil {
		return fmt.Errorf("session is nil")
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	m.sessions[session.ID] = deepCopy(session)
	return nil
}

// Load retrieves a session by ID. Returns a deep copy so callers cannot
// mutate store state. Returns an error if the session is not found.
func (m *MemoryStore) Load(_ context.Context, id string) (*forge.Session, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	s, ok := m.sessions[id]
	if !ok {
		return nil, fmt.Errorf("session not found: %s", id)
	}
	return deepCopy(s), nil
}

// Delete removes a session by ID. Returns an error if not found.
func (m *MemoryStore) Delete(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.sessions[id]; !ok {
		return fmt.Errorf("session not found: %s", id)
	}
	delete(m.sessions, id)
	return nil
}

// List returns all sessions in the store as deep copies.
func (m *MemoryStore) List(_ context.Context) ([]*forge.Session, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	result := make([]*forge.Session, 0, len(m.sessions))
	for _, s := range m.sessions {
		result = append(result, deepCopy(s))
	}
	return result, nil
}

// deepCopy creates a deep copy of a session. The live sub-agent handle
// is deliberately not copied; stores persist configuration, not
// handles.
func deepCopy(s *forge.Session) *forge.Session {
	msgs := make([]forge.Message, len(s.Messages))
	copy(msgs, s.Messages)

	var cfg *forge.AgentConfig
	if s.Config != nil {
		c := *s.Config
		cfg = &c
	}

	return &forge.Session{
		ID:        s.ID,
		Messages:  msgs,
		Usage:     s.Usage,
		Config:    cfg,
		CreatedAt: s.CreatedAt,
		UpdatedAt: s.UpdatedAt,
	}
}
