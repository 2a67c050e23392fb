package stores

import (
	"context"
	"sync"
	"time"
)

// Session is the short-lived proof that an identifier's code was confirmed.
// It gates exactly one sensitive action.
type Session struct {
	Identifier string
	VerifiedAt time.Time
	ExpiresAt  time.Time
}

// SessionStore is the owning store for verified sessions, keyed by
// normalized identifier.
type SessionStore interface {
	// Promote creates or overwrites the session for the identifier. Only a
	// successful code verification may call this.
	Promote(ctx context.Context, identifier string, verifiedAt, expiresAt time.Time) error
	// Get returns the session or ErrNotFound. Expiry is the caller's check.
	Get(ctx context.Context, identifier string) (Session, error)
	// Delete removes the session unconditionally; idempotent.
	Delete(ctx context.Context, identifier string) error
	// Purge deletes every session. Test-isolation teardown.
	Purge(ctx context.Context) error
}

// MemorySessionStore keeps sessions in a process-local map.
type MemorySessionStore struct {
	mu       sync.Mutex
	sessions map[string]Session
}

func NewMemorySessionStore() *MemorySessionStore {
	return &MemorySessionStore{
		sessions: make(map[string]Session),
	}
}

func (s *MemorySessionStore) Promote(_ context.Context, identifier string, verifiedAt, expiresAt time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.sessions[identifier] = Session{
		Identifier: identifier,
		VerifiedAt: verifiedAt,
		ExpiresAt:  expiresAt,
	}
	return nil
}

func (s *MemorySessionStore) Get(_ context.Context, identifier string) (Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	session, ok := s.sessions[identifier]
	if !ok {
		return Session{}, ErrNotFound
	}
	return session, nil
}

func (s *MemorySessionStore) Delete(_ context.Context, identifier string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.sessions, identifier)
	return nil
}

func (s *MemorySessionStore) Purge(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.sessions = make(map[string]Session)
	return nil
}
