package dashboard

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"github.com/miko-factory/creamdash/internal/adapter"
	"github.com/miko-factory/creamdash/internal/domain"
	"github.com/miko-factory/creamdash/internal/enrichment"
	"github.com/miko-factory/creamdash/internal/logger"
	"github.com/miko-factory/creamdash/internal/messaging"
	"github.com/miko-factory/creamdash/internal/timeline"
	"github.com/miko-factory/creamdash/internal/walletsource"
)

// ErrClosed is returned by Refresh after the service has been closed
var ErrClosed = errors.New("dashboard service closed")

// Snapshot is the data derived from one successful token fetch. Snapshots
// are never mutated once published.
type Snapshot struct {
	ID string `json:"id"`
	// Fingerprint is the sha256 of the canonical tokens and enriched batches
	Fingerprint string         `json:"fingerprint"`
	GeneratedAt time.Time      `json:"generatedAt"`
	Tokens      []domain.Token `json:"tokens"`
	Stats       timeline.Stats `json:"stats"`

	// Batches are the enriched tokens in token order
	Batches  []enrichment.Batch        `json:"batches"`
	Skipped  int                       `json:"skipped"`
	Failures []enrichment.TokenFailure `json:"failures"`

	Timeline []timeline.Batch `json:"timeline"`
}

// State is the tri-state view of the dashboard: loading, failed or ready.
// A failed fetch keeps no data.
type State struct {
	Loading  bool
	Err      error
	Snapshot *Snapshot
}

// Ready returns the snapshot, or the reason there is none
func (s State) Ready() (*Snapshot, error) {
	if s.Err != nil {
		return nil, s.Err
	}
	if s.Snapshot == nil {
		return nil, domain.ErrNotReady
	}
	return s.Snapshot, nil
}

// Service keeps the latest dashboard snapshot
//
//go:generate mockgen -source=service.go -destination=../mocks/dashboard.go -package=mocks -mock_names=Service=MockDashboardService
type Service interface {
	// Refresh fetches tokens and derives a new snapshot. Concurrent calls
	// share a single fetch.
	Refresh(ctx context.Context) (*Snapshot, error)
	// State returns the current tri-state
	State() State
	// Close discards in-flight refreshes and releases the publisher
	Close()
}

type service struct {
	source    walletsource.Source
	enricher  enrichment.Enricher
	publisher messaging.Publisher
	clock     adapter.Clock
	json      adapter.JSON
	jcs       adapter.JCS

	group   singleflight.Group
	entropy *ulid.MonotonicEntropy

	mu         sync.RWMutex
	state      State
	generation uint64
	committed  uint64
	closed     bool
}

// NewService creates a dashboard service. The state is loading until the
// first refresh completes.
func NewService(
	source walletsource.Source,
	enricher enrichment.Enricher,
	publisher messaging.Publisher,
	clock adapter.Clock,
	json adapter.JSON,
	jcs adapter.JCS,
) Service {
	if publisher == nil {
		publisher = messaging.NewNoopPublisher()
	}
	return &service{
		source:    source,
		enricher:  enricher,
		publisher: publisher,
		clock:     clock,
		json:      json,
		jcs:       jcs,
		entropy:   ulid.Monotonic(rand.Reader, 0),
		state:     State{Loading: true},
	}
}

func (s *service) State() State {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state
}

func (s *service) Refresh(ctx context.Context) (*Snapshot, error) {
	ch := s.group.DoChan("refresh", func() (interface{}, error) {
		// The flight outlives any single caller; its result is dropped once the service closes
		return s.refresh(context.WithoutCancel(ctx))
	})

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		return res.Val.(*Snapshot), nil
	}
}

func (s *service) refresh(ctx context.Context) (*Snapshot, error) {
	gen, ok := s.begin()
	if !ok {
		return nil, ErrClosed
	}

	logger.InfoCtx(ctx, "Refreshing dashboard", zap.Uint64("generation", gen))

	tokens, err := s.source.FetchTokens(ctx)
	if err != nil {
		logger.ErrorCtx(ctx, err, zap.String("message", "Failed to fetch tokens"))
		if committed := s.commit(gen, State{Err: err}); !committed {
			return nil, ErrClosed
		}
		return nil, err
	}

	result := s.enricher.Enrich(ctx, tokens)
	if result.Error != nil {
		return nil, fmt.Errorf("failed to enrich tokens: %w", result.Error)
	}
	for _, f := range result.Failures {
		logger.WarnCtx(ctx, "Token skipped during enrichment",
			zap.String("mint", f.Mint),
			zap.String("stage", string(f.Stage)),
			zap.Error(f.Err))
	}

	fingerprint, err := s.fingerprint(tokens, result.Batches)
	if err != nil {
		return nil, fmt.Errorf("failed to fingerprint snapshot: %w", err)
	}

	// Identical derived data keeps the current snapshot and publishes nothing
	if prev := s.State().Snapshot; prev != nil && prev.Fingerprint == fingerprint {
		if committed := s.commit(gen, State{Snapshot: prev}); !committed {
			return nil, ErrClosed
		}
		logger.DebugCtx(ctx, "Snapshot unchanged", zap.String("fingerprint", fingerprint))
		return prev, nil
	}

	snapshot := &Snapshot{
		ID:          s.newID(),
		Fingerprint: fingerprint,
		GeneratedAt: s.clock.Now().UTC(),
		Tokens:      tokens,
		Stats:       timeline.ComputeStats(tokens),
		Batches:     result.Batches,
		Skipped:     result.Skipped,
		Failures:    result.Failures,
		Timeline:    timeline.Project(tokens),
	}

	if committed := s.commit(gen, State{Snapshot: snapshot}); !committed {
		return nil, ErrClosed
	}

	logger.InfoCtx(ctx, "Dashboard snapshot updated",
		zap.String("snapshot_id", snapshot.ID),
		zap.Int("tokens", len(tokens)),
		zap.Int("batches", len(snapshot.Batches)),
		zap.Int("skipped", snapshot.Skipped))

	err = s.publisher.PublishSnapshotUpdated(ctx, &domain.SnapshotEvent{
		SnapshotID:  snapshot.ID,
		Fingerprint: snapshot.Fingerprint,
		GeneratedAt: snapshot.GeneratedAt,
		TokenCount:  len(tokens),
		BatchCount:  len(snapshot.Timeline),
	})
	if err != nil {
		logger.ErrorCtx(ctx, err, zap.String("message", "Failed to publish snapshot event"))
	}

	return snapshot, nil
}

// begin marks the start of a refresh and hands out its generation
func (s *service) begin() (uint64, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return 0, false
	}
	s.generation++
	if s.state.Snapshot == nil && s.state.Err == nil {
		s.state.Loading = true
	}
	return s.generation, true
}

// commit stores the outcome of generation gen unless a newer one already
// landed or the service closed
func (s *service) commit(gen uint64, next State) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed || gen < s.committed {
		return false
	}
	s.committed = gen
	s.state = next
	return true
}

func (s *service) fingerprint(tokens []domain.Token, batches []enrichment.Batch) (string, error) {
	data, err := s.json.Marshal(struct {
		Tokens  []domain.Token     `json:"tokens"`
		Batches []enrichment.Batch `json:"batches"`
	}{tokens, batches})
	if err != nil {
		return "", err
	}
	canonical, err := s.jcs.Transform(data)
	if err != nil {
		return "", err
	}
	sum := sha256.Sum256(canonical)
	return hex.EncodeToString(sum[:]), nil
}

func (s *service) newID() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return ulid.MustNew(ulid.Timestamp(s.clock.Now()), s.entropy).String()
}

func (s *service) Close() {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.closed = true
	s.mu.Unlock()

	s.publisher.Close()
}
