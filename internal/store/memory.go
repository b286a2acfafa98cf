package store

import (
	"context"
	"sync"
	"time"

	"github.com/miko-factory/creamdash/internal/domain"
)

type memoryStore struct {
	mu       sync.RWMutex
	sessions map[string]domain.OperatorSession
}

// NewMemoryStore creates a store that keeps everything in process memory.
// It is used when no database is configured.
func NewMemoryStore() Store {
	return &memoryStore{sessions: make(map[string]domain.OperatorSession)}
}

func (s *memoryStore) SaveOperatorSession(_ context.Context, session *domain.OperatorSession) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sessions[session.ID] = *session
	return nil
}

func (s *memoryStore) GetOperatorSession(_ context.Context, id string) (*domain.OperatorSession, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	session, ok := s.sessions[id]
	if !ok {
		return nil, domain.ErrSessionNotFound
	}
	return &session, nil
}

func (s *memoryStore) DeleteOperatorSession(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sessions, id)
	return nil
}

func (s *memoryStore) DeleteExpiredOperatorSessions(_ context.Context, now time.Time) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var deleted int64
	for id, session := range s.sessions {
		if session.Expired(now) {
			delete(s.sessions, id)
			deleted++
		}
	}
	return deleted, nil
}
