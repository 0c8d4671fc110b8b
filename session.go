package forge

import (
	"context"
	"time"
)

// Session holds the conversation state for a single hand-off session:
// the append-only message history, cumulative usage, and the active
// sub-agent configuration once one exists.
//
// A Session is exclusively owned by one Controller call chain; turns
// against it are strictly sequential.
type Session struct {
	ID        string
	Messages  []Message
	Usage     Usage
	Config    *AgentConfig // non-nil iff a sub-agent is active
	CreatedAt time.Time
	UpdatedAt time.Time

	// agent is the live sub-agent handle. Owned by the Registry; the
	// session only references it. Invariant: agent != nil iff Config != nil.
	agent *SubAgent
}

// NewSession creates a new empty session in the Configuring state.
func NewSession() *Session {
	now := time.Now()
	return &Session{
		ID:        generateID(PrefixSession),
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// Active reports whether a sub-agent has been built for this session.
func (s *Session) Active() bool {
	return s.agent != nil
}

// Agent returns the live sub-agent handle, or nil while configuring.
func (s *Session) Agent() *SubAgent {
	return s.agent
}

// Clone returns a deep copy of the session with a new ID. The clone
// shares the sub-agent handle (the Registry owns it) but has its own
// history slice.
func (s *Session) Clone() *Session {
	msgs := make([]Message, len(s.Messages))
	copy(msgs, s.Messages)

	var cfg *AgentConfig
	if s.Config != nil {
		c := *s.Config
		cfg = &c
	}

	now := time.Now()
	return &Session{
		ID:        generateID(PrefixSession),
		Messages:  msgs,
		Usage:     s.Usage,
		Config:    cfg,
		agent:     s.agent,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// checkInvariant verifies the handle/configuration pairing. A mismatch
// is a defect, reported as ErrInvalidState.
func (s *Session) checkInvariant() error {
	if (s.Config == nil) != (s.agent == nil) {
		return ErrInvalidState
	}
	return nil
}

// sessionSnapshot captures the mutable state of a session so a failed
// turn can roll back without partial updates. Messages are append-only,
// so recording the length is enough to truncate on restore.
type sessionSnapshot struct {
	messages  int
	usage     Usage
	config    *AgentConfig
	agent     *SubAgent
	updatedAt time.Time
}

func (s *Session) snapshot() sessionSnapshot {
	return sessionSnapshot{
		messages:  len(s.Messages),
		usage:     s.Usage,
		config:    s.Config,
		agent:     s.agent,
		updatedAt: s.UpdatedAt,
	}
}

func (s *Session) restore(snap sessionSnapshot) {
	s.Messages = s.Messages[:snap.messages]
	s.Usage = snap.usage
	s.Config = snap.config
	s.agent = snap.agent
	s.UpdatedAt = snap.updatedAt
}

// SessionStore defines the interface for session persistence backends.
// Stored sessions persist history, usage, and the active configuration;
// the live sub-agent handle is not persisted and must be rebuilt from
// the configuration after a load.
type SessionStore interface {
	Save(ctx context.Context, session *Session) error
	Load(ctx context.Context, id string) (*Session, error)
	Delete(ctx context.Context, id string) error
}

// SessionLister is implemented by stores that can enumerate sessions.
type SessionLister interface {
	List(ctx context.Context) ([]*Session, error)
}
