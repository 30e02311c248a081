// Package session keeps server-issued admin sessions.
package session

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
)

var ErrInvalidSession = errors.New("invalid or expired session")

// Store creates and checks expiring session tokens.
type Store interface {
	Create(ctx context.Context) (string, error)
	Validate(ctx context.Context, token string) error
	Revoke(ctx context.Context, token string) error
}

// MemoryStore keeps sessions in process memory. Sessions do not survive a restart.
type MemoryStore struct {
	mu       sync.Mutex
	ttl      time.Duration
	sessions map[string]time.Time
	now      func() time.Time
}

func NewMemoryStore(ttl time.Duration) *MemoryStore {
	return &MemoryStore{
		ttl:      ttl,
		sessions: make(map[string]time.Time),
		now:      time.Now,
	}
}

func (s *MemoryStore) Create(ctx context.Context) (string, error) {
	token := uuid.NewString()

	s.mu.Lock()
	defer s.mu.Unlock()
	s.sweep()
	s.sessions[token] = s.now().Add(s.ttl)
	return token, nil
}

func (s *MemoryStore) Validate(ctx context.Context, token string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	expires, ok := s.sessions[token]
	if !ok {
		return ErrInvalidSession
	}
	if !s.now().Before(expires) {
		delete(s.sessions, token)
		return ErrInvalidSession
	}
	return nil
}

func (s *MemoryStore) Revoke(ctx context.Context, token string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sessions, token)
	return nil
}

// sweep drops expired sessions. Callers hold the lock.
func (s *MemoryStore) sweep() {
	now := s.now()
	for token, expires := range s.sessions {
		if !now.Before(expires) {
			delete(s.sessions, token)
		}
	}
}
