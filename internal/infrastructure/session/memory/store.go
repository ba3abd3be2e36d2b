// Package memory keeps sessions in process memory. Suitable for a single API replica.
package memory

import (
	"context"
	"sync"
	"time"

	"github.com/kirillkom/docsearch-summarizer/internal/core/domain"
)

type entry struct {
	session   domain.Session
	expiresAt time.Time
}

type Store struct {
	ttl time.Duration
	now func() time.Time

	mu       sync.Mutex
	sessions map[string]entry
}

// New returns a store whose sessions expire ttl after their last update.
// A non-positive ttl keeps sessions forever.
func New(ttl time.Duration) *Store {
	return &Store{
		ttl:      ttl,
		now:      time.Now,
		sessions: make(map[string]entry),
	}
}

func (s *Store) Get(_ context.Context, id string) (domain.Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.load(id), nil
}

func (s *Store) Update(_ context.Context, id string, fn func(domain.Session) (domain.Session, error)) (domain.Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	next, err := fn(s.load(id))
	e := entry{session: next}
	if s.ttl > 0 {
		e.expiresAt = s.now().Add(s.ttl)
	}
	s.sessions[id] = e
	return next, err
}

func (s *Store) load(id string) domain.Session {
	e, ok := s.sessions[id]
	if !ok {
		return domain.NewSession(id)
	}
	if !e.expiresAt.IsZero() && !s.now().Before(e.expiresAt) {
		delete(s.sessions, id)
		return domain.NewSession(id)
	}
	return e.session
}
