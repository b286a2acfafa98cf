package store

import (
	"context"
	"time"

	"github.com/miko-factory/creamdash/internal/domain"
)

// Store defines the interface for database operations
//
//go:generate mockgen -source=store.go -destination=../mocks/store.go -package=mocks -mock_names=Store=MockStore
type Store interface {
	// SaveOperatorSession inserts or replaces an operator session
	SaveOperatorSession(ctx context.Context, session *domain.OperatorSession) error
	// GetOperatorSession retrieves a session by ID; a missing session returns domain.ErrSessionNotFound
	GetOperatorSession(ctx context.Context, id string) (*domain.OperatorSession, error)
	// DeleteOperatorSession removes a session; deleting a missing session is not an error
	DeleteOperatorSession(ctx context.Context, id string) error
	// DeleteExpiredOperatorSessions removes sessions that expired at or before now
	DeleteExpiredOperatorSessions(ctx context.Context, now time.Time) (int64, error)
}
