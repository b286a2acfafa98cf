package messaging

import (
	"context"

	"github.com/miko-factory/creamdash/internal/domain"
)

// Publisher defines the interface for publishing dashboard events to a message queue
//
//go:generate mockgen -source=publisher.go -destination=../mocks/publisher.go -package=mocks -mock_names=Publisher=MockPublisher
type Publisher interface {
	// PublishSnapshotUpdated announces a snapshot whose fingerprint changed
	PublishSnapshotUpdated(ctx context.Context, event *domain.SnapshotEvent) error
	// Close closes the connection
	Close()
}

// noopPublisher drops every event; used when no broker is configured
type noopPublisher struct{}

// NewNoopPublisher returns a publisher that does nothing
func NewNoopPublisher() Publisher {
	return noopPublisher{}
}

func (noopPublisher) PublishSnapshotUpdated(context.Context, *domain.SnapshotEvent) error {
	return nil
}

func (noopPublisher) Close() {}
